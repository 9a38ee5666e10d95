package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/legendaryias/ias_mentor/models"
	"github.com/segmentio/kafka-go"
)

const (
	EventPaymentRequested     = "payment.requested"
	EventPaymentStatusChanged = "payment.status_changed"
	EventAccessGranted        = "access.granted"
)

type PaymentEvent struct {
	Type            string                 `json:"type"`
	PaymentID       string                 `json:"paymentId"`
	UserID          string                 `json:"userId"`
	ProductID       string                 `json:"productId"`
	ProductCategory models.ProductCategory `json:"productCategory"`
	Amount          float64                `json:"amount"`
	Status          models.PaymentStatus   `json:"status"`
	PreviousStatus  models.PaymentStatus   `json:"previousStatus,omitempty"`
	At              time.Time              `json:"at"`
}

func newPaymentEvent(eventType string, p *models.Payment, previous models.PaymentStatus, at time.Time) PaymentEvent {
	return PaymentEvent{
		Type:            eventType,
		PaymentID:       p.ID,
		UserID:          p.UserID,
		ProductID:       p.ProductID,
		ProductCategory: p.ProductCategory,
		Amount:          p.Amount,
		Status:          p.Status,
		PreviousStatus:  previous,
		At:              at,
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, event PaymentEvent) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, PaymentEvent) error { return nil }
func (NopPublisher) Close() error                                { return nil }

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			WriteTimeout:           10 * time.Second,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish keys messages by payment id so a payment's events stay ordered
// within one partition.
func (k *KafkaPublisher) Publish(ctx context.Context, event PaymentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.PaymentID),
		Value: payload,
		Time:  event.At,
	})
}

func (k *KafkaPublisher) Close() error { return k.writer.Close() }

// NewEventPublisher returns a Kafka publisher for a comma-separated broker
// list, or a NopPublisher when brokers is blank.
func NewEventPublisher(brokers, topic string) EventPublisher {
	var valid []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			valid = append(valid, b)
		}
	}
	if len(valid) == 0 {
		log.Println("Kafka is disabled (KAFKA_BROKERS is empty)")
		return NopPublisher{}
	}
	log.Printf("✅ Kafka producer initialized. Brokers=%v, Topic=%s", valid, topic)
	return NewKafkaPublisher(valid, topic)
}

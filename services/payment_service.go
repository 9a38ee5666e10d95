package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"sort"
	"strings"
	"time"

	config "github.com/legendaryias/ias_mentor/configs"
	"github.com/legendaryias/ias_mentor/models"
	"github.com/legendaryias/ias_mentor/notifications"
	"github.com/legendaryias/ias_mentor/store"
	"github.com/legendaryias/ias_mentor/utils"
	"github.com/legendaryias/ias_mentor/websocket"
)

// Feed receives live notices for the admin review panel.
type Feed interface {
	Publish(n websocket.Notice)
}

type nopFeed struct{}

func (nopFeed) Publish(websocket.Notice) {}

type PaymentRequest struct {
	UserID          string                 `json:"userId" validate:"required"`
	UserEmail       string                 `json:"userEmail" validate:"required,email"`
	UserName        string                 `json:"userName" validate:"required"`
	UserPhone       string                 `json:"userPhone"`
	ProductID       string                 `json:"productId" validate:"required"`
	ProductTitle    string                 `json:"productTitle" validate:"required"`
	ProductCategory models.ProductCategory `json:"productCategory" validate:"required,oneof=course material"`
	Amount          float64                `json:"amount" validate:"required,gt=0"`
	Currency        string                 `json:"currency" validate:"omitempty,len=3"`
}

func (r *PaymentRequest) key() models.PendingKey {
	return models.PendingKey{UserID: r.UserID, ProductID: r.ProductID, ProductCategory: r.ProductCategory}
}

type IntakeResult struct {
	Payment     *models.Payment
	Message     string
	WhatsAppURL string
	UPIID       string
	Existing    bool
}

type StatusUpdate struct {
	Status        string  `json:"status" validate:"required"`
	TransactionID *string `json:"transactionId"`
	Notes         *string `json:"notes"`
}

type UpdateResult struct {
	Payment *models.Payment
	Granted bool
}

// DuplicateGroup is a set of pending payments sharing one pending key.
// Payments are ordered oldest first; Payments[0] is the one cleanup keeps.
type DuplicateGroup struct {
	UserID          string                 `json:"userId"`
	ProductID       string                 `json:"productId"`
	ProductCategory models.ProductCategory `json:"productCategory"`
	Payments        []models.Payment       `json:"payments"`
}

type PaymentService struct {
	payments store.PaymentStore
	access   *AccessService
	events   EventPublisher
	feed     Feed
	now      func() time.Time
}

func NewPaymentService(payments store.PaymentStore, access *AccessService, events EventPublisher, feed Feed) *PaymentService {
	if events == nil {
		events = NopPublisher{}
	}
	if feed == nil {
		feed = nopFeed{}
	}
	return &PaymentService{
		payments: payments,
		access:   access,
		events:   events,
		feed:     feed,
		now:      time.Now,
	}
}

// RequestPayment returns the pending payment for the requester and product,
// creating it when none exists.
func (s *PaymentService) RequestPayment(ctx context.Context, req PaymentRequest) (*IntakeResult, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.ProductID = strings.TrimSpace(req.ProductID)

	existing, err := s.oldestPending(ctx, req.key())
	if err != nil {
		paymentRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if existing != nil {
		paymentRequestsTotal.WithLabelValues("existing").Inc()
		return s.intakeResult(existing, true), nil
	}

	if err := validate.Struct(req); err != nil {
		paymentRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, fromValidator(err)
	}

	now := s.now()
	payment := &models.Payment{
		ID:              utils.GeneratePaymentID(now),
		UserID:          req.UserID,
		UserEmail:       strings.TrimSpace(req.UserEmail),
		UserName:        strings.TrimSpace(req.UserName),
		ProductID:       req.ProductID,
		ProductTitle:    strings.TrimSpace(req.ProductTitle),
		ProductCategory: req.ProductCategory,
		Amount:          req.Amount,
		Currency:        strings.ToUpper(req.Currency),
		UPIID:           config.UPIID(),
		Status:          models.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if payment.Currency == "" {
		payment.Currency = config.DefaultCurrency
	}
	if phone := strings.TrimSpace(req.UserPhone); phone != "" {
		payment.UserPhone = &phone
	}

	if err := s.payments.InsertPending(ctx, payment); err != nil {
		if !errors.Is(err, store.ErrPendingExists) {
			paymentRequestsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("create payment: %w", err)
		}
		// Another request for the same key won the insert.
		winner, err := s.oldestPending(ctx, req.key())
		if err == nil && winner == nil {
			err = errors.New("pending payment vanished after conflict")
		}
		if err != nil {
			paymentRequestsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("reload pending payment: %w", err)
		}
		paymentRequestsTotal.WithLabelValues("existing").Inc()
		return s.intakeResult(winner, true), nil
	}

	paymentRequestsTotal.WithLabelValues("created").Inc()
	s.announceRequested(payment)
	return s.intakeResult(payment, false), nil
}

// oldestPending returns the oldest pending payment for key, deleting any
// newer duplicates. It returns nil when the key holds no pending payment.
func (s *PaymentService) oldestPending(ctx context.Context, key models.PendingKey) (*models.Payment, error) {
	pending, err := s.payments.FindPending(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find pending payments: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}
	sortOldestFirst(pending)

	if len(pending) > 1 {
		ids := make([]string, 0, len(pending)-1)
		for _, p := range pending[1:] {
			ids = append(ids, p.ID)
		}
		removed, err := s.payments.DeletePayments(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("remove duplicate pending payments: %w", err)
		}
		duplicatesRemovedTotal.Add(float64(removed))
		log.Printf("Removed %d duplicate pending payments for user %s product %s", removed, key.UserID, key.ProductID)
	}

	oldest := pending[0]
	return &oldest, nil
}

func (s *PaymentService) intakeResult(p *models.Payment, existing bool) *IntakeResult {
	message := ComposeMessage(MessageInput{
		ProductTitle: p.ProductTitle,
		Amount:       p.Amount,
		UserName:     p.UserName,
		UserPhone:    p.Phone(),
		PaymentID:    p.ID,
	})
	return &IntakeResult{
		Payment:     p,
		Message:     message,
		WhatsAppURL: DeepLink(config.WhatsAppBaseURL(), config.WhatsAppNumber(), message),
		UPIID:       p.UPIID,
		Existing:    existing,
	}
}

func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.payments.GetPayment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, id)
	}
	return payment, err
}

// GetForRequester returns the payment only to the user who requested it.
func (s *PaymentService) GetForRequester(ctx context.Context, id, userID string) (*models.Payment, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, validationError("userId is required")
	}
	payment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, fmt.Errorf("%w: payment %s belongs to another user", ErrForbidden, id)
	}
	return payment, nil
}

func (s *PaymentService) List(ctx context.Context, filter store.PaymentFilter) ([]models.Payment, error) {
	return s.payments.ListPayments(ctx, filter)
}

// Grouped returns every payment keyed by status, newest first within each
// status. Every status is present, possibly with an empty list.
func (s *PaymentService) Grouped(ctx context.Context) (map[models.PaymentStatus][]models.Payment, error) {
	all, err := s.payments.ListPayments(ctx, store.PaymentFilter{})
	if err != nil {
		return nil, err
	}
	grouped := make(map[models.PaymentStatus][]models.Payment, len(models.AllPaymentStatuses))
	for _, st := range models.AllPaymentStatuses {
		grouped[st] = []models.Payment{}
	}
	for _, p := range all {
		grouped[p.Status] = append(grouped[p.Status], p)
	}
	return grouped, nil
}

// UpdateStatus applies an admin decision. Moving to confirmed grants access;
// a grant failure is logged and the status change still stands. Re-sending
// the current status only updates the transaction id and notes.
func (s *PaymentService) UpdateStatus(ctx context.Context, id string, update StatusUpdate) (*UpdateResult, error) {
	next, err := models.ParsePaymentStatus(update.Status)
	if err != nil {
		return nil, validationError("%v", err)
	}

	payment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := payment.Status
	if previous != next && !previous.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, previous, next)
	}

	now := s.now()
	payment.Status = next
	if update.TransactionID != nil {
		payment.TransactionID = optionalText(*update.TransactionID)
	}
	if update.Notes != nil {
		payment.Notes = optionalText(*update.Notes)
	}
	if next == models.PaymentConfirmed && payment.ConfirmedAt == nil {
		payment.ConfirmedAt = &now
	}
	payment.UpdatedAt = now

	if err := s.payments.UpdatePayment(ctx, payment, previous); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: payment %s", ErrNotFound, id)
		}
		if errors.Is(err, store.ErrStatusChanged) {
			return nil, fmt.Errorf("%w: payment %s is no longer %s", ErrInvalidTransition, id, previous)
		}
		return nil, fmt.Errorf("update payment %s: %w", id, err)
	}
	statusUpdatesTotal.WithLabelValues(string(next)).Inc()

	result := &UpdateResult{Payment: payment}
	if next == models.PaymentConfirmed {
		granted, err := s.access.Grant(ctx, payment)
		if err != nil {
			log.Printf("🔥 Access grant failed for payment %s: %v", payment.ID, err)
		} else if !granted {
			log.Printf("Access for payment %s already granted to %s", payment.ID, payment.UserID)
		}
		result.Granted = granted
	}

	if previous != next {
		s.announceStatusChange(payment, previous, result.Granted)
	} else if result.Granted {
		snapshot := *payment
		go s.publish(newPaymentEvent(EventAccessGranted, &snapshot, "", now))
	}
	return result, nil
}

// optionalText stores admin input as plain text. Values are escaped where
// HTML is produced, never on the way in.
func optionalText(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// DuplicateGroups groups pending payments by pending key and returns the
// groups holding more than one payment, oldest group first.
func (s *PaymentService) DuplicateGroups(ctx context.Context) ([]DuplicateGroup, error) {
	pending, err := s.payments.ListPayments(ctx, store.PaymentFilter{Status: models.PaymentPending})
	if err != nil {
		return nil, err
	}

	byKey := make(map[models.PendingKey][]models.Payment)
	for _, p := range pending {
		byKey[p.PendingKey()] = append(byKey[p.PendingKey()], p)
	}

	groups := []DuplicateGroup{}
	for key, members := range byKey {
		if len(members) < 2 {
			continue
		}
		sortOldestFirst(members)
		groups = append(groups, DuplicateGroup{
			UserID:          key.UserID,
			ProductID:       key.ProductID,
			ProductCategory: key.ProductCategory,
			Payments:        members,
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		return olderThan(groups[i].Payments[0], groups[j].Payments[0])
	})
	return groups, nil
}

// CleanupDuplicates deletes every pending duplicate except the oldest of each
// group and returns how many were removed.
func (s *PaymentService) CleanupDuplicates(ctx context.Context) (int64, error) {
	groups, err := s.DuplicateGroups(ctx)
	if err != nil {
		return 0, err
	}
	var ids []string
	for _, g := range groups {
		for _, p := range g.Payments[1:] {
			ids = append(ids, p.ID)
		}
	}
	removed, err := s.payments.DeletePayments(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete duplicate payments: %w", err)
	}
	duplicatesRemovedTotal.Add(float64(removed))
	return removed, nil
}

// ExpireStale moves pending payments older than maxAge to expired. A
// non-positive maxAge disables expiry.
func (s *PaymentService) ExpireStale(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	stale, err := s.payments.PendingCreatedBefore(ctx, s.now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, p := range stale {
		_, err := s.UpdateStatus(ctx, p.ID, StatusUpdate{Status: string(models.PaymentExpired)})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidTransition):
			// changed by an admin since the scan
		default:
			return expired, err
		}
	}
	paymentsExpiredTotal.Add(float64(expired))
	return expired, nil
}

func (s *PaymentService) Stats(ctx context.Context) (*store.PaymentStats, error) {
	return s.payments.PaymentStats(ctx)
}

func (s *PaymentService) announceRequested(p *models.Payment) {
	snapshot := *p
	s.feed.Publish(websocket.Notice{
		Type:      EventPaymentRequested,
		PaymentID: snapshot.ID,
		Status:    string(snapshot.Status),
		Payment:   snapshot,
	})
	go func() {
		s.publish(newPaymentEvent(EventPaymentRequested, &snapshot, "", snapshot.CreatedAt))
		if admin := config.Config("ADMIN_NOTIFY_EMAIL"); admin != "" {
			notifications.SendEmail("Admin", admin,
				fmt.Sprintf("New payment request %s", snapshot.ID),
				fmt.Sprintf("<h1>New payment request</h1><p>%s requested <b>%s</b> for %s. Payment ID: %s</p>",
					html.EscapeString(snapshot.UserName), html.EscapeString(snapshot.ProductTitle),
					formatAmount(snapshot.Amount), html.EscapeString(snapshot.ID)))
		}
	}()
}

func (s *PaymentService) announceStatusChange(p *models.Payment, previous models.PaymentStatus, granted bool) {
	snapshot := *p
	s.feed.Publish(websocket.Notice{
		Type:      EventPaymentStatusChanged,
		PaymentID: snapshot.ID,
		Status:    string(snapshot.Status),
		Payment:   snapshot,
	})
	go func() {
		s.publish(newPaymentEvent(EventPaymentStatusChanged, &snapshot, previous, snapshot.UpdatedAt))
		if granted {
			s.publish(newPaymentEvent(EventAccessGranted, &snapshot, "", snapshot.UpdatedAt))
		}
		subject, body := statusEmail(&snapshot)
		if subject != "" {
			notifications.SendEmail(snapshot.UserName, snapshot.UserEmail, subject, body)
		}
	}()
}

func (s *PaymentService) publish(event PaymentEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("⚠️ Failed to publish %s for %s: %v", event.Type, event.PaymentID, err)
	}
}

func statusEmail(p *models.Payment) (string, string) {
	id, title := html.EscapeString(p.ID), html.EscapeString(p.ProductTitle)
	switch p.Status {
	case models.PaymentConfirmed:
		return "Your payment is confirmed!",
			fmt.Sprintf("<h1>Payment Confirmed</h1><p>Your payment %s for <b>%s</b> is confirmed. It is now available in your profile.</p>", id, title)
	case models.PaymentRejected:
		return "Your payment could not be verified",
			fmt.Sprintf("<h1>Payment Rejected</h1><p>We could not verify payment %s for <b>%s</b>. Please contact us on WhatsApp.</p>", id, title)
	case models.PaymentExpired:
		return "Your payment request has expired",
			fmt.Sprintf("<h1>Payment Expired</h1><p>Payment request %s for <b>%s</b> expired. You can request it again at any time.</p>", id, title)
	}
	return "", ""
}

func olderThan(a, b models.Payment) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func sortOldestFirst(payments []models.Payment) {
	sort.SliceStable(payments, func(i, j int) bool { return olderThan(payments[i], payments[j]) })
}

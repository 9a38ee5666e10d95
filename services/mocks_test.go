package services

import (
	"context"
	"sync"
	"time"

	"github.com/legendaryias/ias_mentor/models"
	"github.com/legendaryias/ias_mentor/store"
	"github.com/legendaryias/ias_mentor/websocket"
)

type MockPublisher struct {
	mu     sync.Mutex
	events []PaymentEvent
}

func (m *MockPublisher) Publish(_ context.Context, e PaymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Count returns how many events of eventType were published.
func (m *MockPublisher) Count(eventType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type MockFeed struct {
	mu      sync.Mutex
	notices []websocket.Notice
}

func (m *MockFeed) Publish(n websocket.Notice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, n)
}

func (m *MockFeed) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notices)
}

// FailingProfiles wraps a ProfileStore and fails every grant write.
type FailingProfiles struct {
	store.ProfileStore
	Err error
}

func (f *FailingProfiles) AddEnrollment(context.Context, *models.Enrollment) (bool, error) {
	return false, f.Err
}

func (f *FailingProfiles) AddPurchase(context.Context, *models.MaterialPurchase) (bool, error) {
	return false, f.Err
}

type fixture struct {
	store    *store.MemoryStore
	payments *PaymentService
	access   *AccessService
	feed     *MockFeed
	events   *MockPublisher
	clock    *time.Time
}

func newFixture() *fixture {
	st := store.NewMemoryStore()
	access := NewAccessService(st)
	feed := &MockFeed{}
	events := &MockPublisher{}
	svc := NewPaymentService(st, access, events, feed)
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	f := &fixture{store: st, payments: svc, access: access, feed: feed, events: events, clock: &now}
	svc.now = func() time.Time { return *f.clock }
	access.now = svc.now
	return f
}

func (f *fixture) advance(d time.Duration) { *f.clock = f.clock.Add(d) }

func courseRequest(userID, productID string) PaymentRequest {
	return PaymentRequest{
		UserID:          userID,
		UserEmail:       userID + "@example.com",
		UserName:        "Asha Verma",
		UserPhone:       "9876500000",
		ProductID:       productID,
		ProductTitle:    "UPSC Prelims Foundation",
		ProductCategory: models.CategoryCourse,
		Amount:          9500,
	}
}

func materialRequest(userID, productID string) PaymentRequest {
	req := courseRequest(userID, productID)
	req.ProductTitle = "Polity Notes PDF"
	req.ProductCategory = models.CategoryMaterial
	req.Amount = 499
	return req
}

func pendingPayment(id, userID, productID string, category models.ProductCategory, created time.Time) models.Payment {
	return models.Payment{
		ID:              id,
		UserID:          userID,
		UserEmail:       userID + "@example.com",
		UserName:        "Asha Verma",
		ProductID:       productID,
		ProductTitle:    "UPSC Prelims Foundation",
		ProductCategory: category,
		Amount:          9500,
		Currency:        "INR",
		UPIID:           "legendaryiasmentor@ybl",
		Status:          models.PaymentPending,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func strPtr(s string) *string { return &s }

// InterleavingPayments runs BeforeUpdate once, right before the first
// UpdatePayment reaches the wrapped store, to simulate a concurrent writer.
type InterleavingPayments struct {
	store.PaymentStore
	BeforeUpdate func()
	once         sync.Once
}

func (s *InterleavingPayments) UpdatePayment(ctx context.Context, p *models.Payment, from models.PaymentStatus) error {
	s.once.Do(s.BeforeUpdate)
	return s.PaymentStore.UpdatePayment(ctx, p, from)
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/legendaryias/ias_mentor/models"
)

// MemoryStore keeps everything in process. All methods hand out copies so
// callers never share state with the store.
type MemoryStore struct {
	mu        sync.Mutex
	payments  map[string]models.Payment
	users     map[string]models.User
	enrolls   map[string][]models.Enrollment
	purchases map[string][]models.MaterialPurchase
	products  map[uuid.UUID]models.Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payments:  make(map[string]models.Payment),
		users:     make(map[string]models.User),
		enrolls:   make(map[string][]models.Enrollment),
		purchases: make(map[string][]models.MaterialPurchase),
		products:  make(map[uuid.UUID]models.Product),
	}
}

func sortByCreated(payments []models.Payment, asc bool) {
	sort.SliceStable(payments, func(i, j int) bool {
		a, b := payments[i], payments[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			if asc {
				return a.ID < b.ID
			}
			return a.ID > b.ID
		}
		if asc {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func (m *MemoryStore) findPendingLocked(key models.PendingKey) []models.Payment {
	var out []models.Payment
	for _, p := range m.payments {
		if p.Status == models.PaymentPending && p.PendingKey() == key {
			out = append(out, p)
		}
	}
	sortByCreated(out, true)
	return out
}

func (m *MemoryStore) FindPending(_ context.Context, key models.PendingKey) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findPendingLocked(key), nil
}

func (m *MemoryStore) InsertPending(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.payments[p.ID]; ok {
		return ErrDuplicate
	}
	if p.Status == models.PaymentPending && len(m.findPendingLocked(p.PendingKey())) > 0 {
		return ErrPendingExists
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	m.payments[p.ID] = *p
	return nil
}

// Seed stores p without the pending-slot check. It exists to load fixtures
// such as duplicate pending rows written before the constraint existed.
func (m *MemoryStore) Seed(payments ...models.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range payments {
		m.payments[p.ID] = p
	}
}

func (m *MemoryStore) GetPayment(_ context.Context, id string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ListPayments(_ context.Context, filter PaymentFilter) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Payment{}
	for _, p := range m.payments {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && p.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && p.CreatedAt.After(filter.To) {
			continue
		}
		out = append(out, p)
	}
	sortByCreated(out, false)
	return out, nil
}

func (m *MemoryStore) UpdatePayment(_ context.Context, p *models.Payment, from models.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.payments[p.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Status != from {
		return ErrStatusChanged
	}
	current.Status = p.Status
	current.TransactionID = p.TransactionID
	current.Notes = p.Notes
	current.ConfirmedAt = p.ConfirmedAt
	current.UpdatedAt = p.UpdatedAt
	m.payments[p.ID] = current
	return nil
}

func (m *MemoryStore) DeletePayments(_ context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for _, id := range ids {
		if _, ok := m.payments[id]; ok {
			delete(m.payments, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) PendingCreatedBefore(_ context.Context, cutoff time.Time) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Payment
	for _, p := range m.payments {
		if p.Status == models.PaymentPending && p.CreatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	sortByCreated(out, true)
	return out, nil
}

func (m *MemoryStore) PaymentStats(_ context.Context) (*PaymentStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &PaymentStats{ByStatus: make(map[models.PaymentStatus]int64, len(models.AllPaymentStatuses))}
	for _, st := range models.AllPaymentStatuses {
		stats.ByStatus[st] = 0
	}
	for _, p := range m.payments {
		stats.ByStatus[p.Status]++
		if p.Status == models.PaymentConfirmed {
			stats.ConfirmedRevenue += p.Amount
		}
	}
	return stats, nil
}

func (m *MemoryStore) EnsureUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; ok {
		return nil
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	stored := *u
	stored.Enrollments, stored.Purchases = nil, nil
	m.users[u.ID] = stored
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) AddEnrollment(_ context.Context, e *models.Enrollment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.enrolls[e.UserID] {
		if existing.CourseID == e.CourseID {
			return false, nil
		}
	}
	m.enrolls[e.UserID] = append(m.enrolls[e.UserID], *e)
	return true, nil
}

func (m *MemoryStore) AddPurchase(_ context.Context, p *models.MaterialPurchase) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.purchases[p.UserID] {
		if existing.MaterialID == p.MaterialID {
			return false, nil
		}
	}
	m.purchases[p.UserID] = append(m.purchases[p.UserID], *p)
	return true, nil
}

func (m *MemoryStore) Enrollments(_ context.Context, userID string) ([]models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Enrollment(nil), m.enrolls[userID]...), nil
}

func (m *MemoryStore) Purchases(_ context.Context, userID string) ([]models.MaterialPurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.MaterialPurchase(nil), m.purchases[userID]...), nil
}

func (m *MemoryStore) IncrementDownload(_ context.Context, userID, materialID string) (*models.MaterialPurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.purchases[userID]
	for i := range entries {
		if entries[i].MaterialID == materialID {
			entries[i].DownloadCount++
			p := entries[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListProducts(_ context.Context, category models.ProductCategory, activeOnly bool) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Product{}
	for _, p := range m.products {
		if category != "" && p.Category != category {
			continue
		}
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) GetProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) slugTakenLocked(slug string, except uuid.UUID) bool {
	for id, p := range m.products {
		if id != except && p.Slug == slug {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if _, ok := m.products[p.ID]; ok || m.slugTakenLocked(p.Slug, p.ID) {
		return ErrDuplicate
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) UpdateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	if m.slugTakenLocked(p.Slug, p.ID) {
		return ErrDuplicate
	}
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now()
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) DeactivateProduct(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	p.IsActive = false
	p.UpdatedAt = time.Now()
	m.products[id] = p
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)

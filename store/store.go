// Package store persists payments, student profiles and the product catalog.
// GormStore is the PostgreSQL implementation used in production; MemoryStore
// backs local development and the test suites.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/legendaryias/ias_mentor/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrPendingExists = errors.New("a pending payment already exists for this product")
	ErrDuplicate     = errors.New("record already exists")
	ErrStatusChanged = errors.New("payment status changed concurrently")
)

// PaymentFilter narrows List. Zero values match everything.
type PaymentFilter struct {
	Status models.PaymentStatus
	From   time.Time
	To     time.Time
}

type PaymentStats struct {
	ByStatus         map[models.PaymentStatus]int64 `json:"by_status"`
	ConfirmedRevenue float64                        `json:"confirmed_revenue"`
}

type PaymentStore interface {
	// FindPending returns the pending payments for key, oldest first.
	FindPending(ctx context.Context, key models.PendingKey) ([]models.Payment, error)
	// InsertPending writes p unless key already holds a pending payment, in
	// which case it returns ErrPendingExists and writes nothing.
	InsertPending(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]models.Payment, error)
	// UpdatePayment persists the admin-editable fields of p only while the
	// stored status is still from. Otherwise it writes nothing and returns
	// ErrStatusChanged.
	UpdatePayment(ctx context.Context, p *models.Payment, from models.PaymentStatus) error
	DeletePayments(ctx context.Context, ids []string) (int64, error)
	PendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]models.Payment, error)
	PaymentStats(ctx context.Context) (*PaymentStats, error)
}

type ProfileStore interface {
	// EnsureUser creates u when no user with u.ID exists and leaves an
	// existing profile untouched.
	EnsureUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	// AddEnrollment and AddPurchase insert unless the user already holds the
	// product, reporting whether a row was written.
	AddEnrollment(ctx context.Context, e *models.Enrollment) (bool, error)
	AddPurchase(ctx context.Context, p *models.MaterialPurchase) (bool, error)
	Enrollments(ctx context.Context, userID string) ([]models.Enrollment, error)
	Purchases(ctx context.Context, userID string) ([]models.MaterialPurchase, error)
	IncrementDownload(ctx context.Context, userID, materialID string) (*models.MaterialPurchase, error)
}

type CatalogStore interface {
	ListProducts(ctx context.Context, category models.ProductCategory, activeOnly bool) ([]models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeactivateProduct(ctx context.Context, id uuid.UUID) error
}

// Store is everything the API needs from a backend.
type Store interface {
	PaymentStore
	ProfileStore
	CatalogStore
}

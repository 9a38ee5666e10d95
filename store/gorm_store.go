package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/legendaryias/ias_mentor/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) FindPending(ctx context.Context, key models.PendingKey) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND product_category = ? AND status = ?",
			key.UserID, key.ProductID, key.ProductCategory, models.PaymentPending).
		Order("created_at asc, id asc").
		Find(&payments).Error
	return payments, err
}

// InsertPending relies on the idx_payments_one_pending partial unique index
// created by database.Migrate.
func (s *GormStore) InsertPending(ctx context.Context, p *models.Payment) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrPendingExists
		}
		return err
	}
	return nil
}

func (s *GormStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

func (s *GormStore) ListPayments(ctx context.Context, filter PaymentFilter) ([]models.Payment, error) {
	query := s.db.WithContext(ctx).Model(&models.Payment{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at <= ?", filter.To)
	}

	var payments []models.Payment
	err := query.Order("created_at desc").Find(&payments).Error
	return payments, err
}

func (s *GormStore) UpdatePayment(ctx context.Context, p *models.Payment, from models.PaymentStatus) error {
	result := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", p.ID, from).
		Select("status", "transaction_id", "notes", "confirmed_at", "updated_at").
		Updates(p)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", p.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStatusChanged
}

func (s *GormStore) DeletePayments(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Payment{})
	return result.RowsAffected, result.Error
}

func (s *GormStore) PendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.PaymentPending, cutoff).
		Order("created_at asc").
		Find(&payments).Error
	return payments, err
}

func (s *GormStore) PaymentStats(ctx context.Context) (*PaymentStats, error) {
	type row struct {
		Status models.PaymentStatus
		Count  int64
	}
	var rows []row
	if err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &PaymentStats{ByStatus: make(map[models.PaymentStatus]int64, len(models.AllPaymentStatuses))}
	for _, st := range models.AllPaymentStatuses {
		stats.ByStatus[st] = 0
	}
	for _, r := range rows {
		stats.ByStatus[r.Status] = r.Count
	}

	if err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("status = ?", models.PaymentConfirmed).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&stats.ConfirmedRevenue); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *GormStore) EnsureUser(ctx context.Context, u *models.User) error {
	err := s.db.WithContext(ctx).
		Omit("Enrollments", "Purchases").
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(u).Error
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormStore) AddEnrollment(ctx context.Context, e *models.Enrollment) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(e)
	return result.RowsAffected == 1, result.Error
}

func (s *GormStore) AddPurchase(ctx context.Context, p *models.MaterialPurchase) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "material_id"}},
			DoNothing: true,
		}).
		Create(p)
	return result.RowsAffected == 1, result.Error
}

func (s *GormStore) Enrollments(ctx context.Context, userID string) ([]models.Enrollment, error) {
	var entries []models.Enrollment
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("enrolled_at asc").Find(&entries).Error
	return entries, err
}

func (s *GormStore) Purchases(ctx context.Context, userID string) ([]models.MaterialPurchase, error) {
	var entries []models.MaterialPurchase
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("purchased_at asc").Find(&entries).Error
	return entries, err
}

func (s *GormStore) IncrementDownload(ctx context.Context, userID, materialID string) (*models.MaterialPurchase, error) {
	var purchase models.MaterialPurchase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.MaterialPurchase{}).
			Where("user_id = ? AND material_id = ?", userID, materialID).
			Update("download_count", gorm.Expr("download_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("user_id = ? AND material_id = ?", userID, materialID).First(&purchase).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &purchase, nil
}

func (s *GormStore) ListProducts(ctx context.Context, category models.ProductCategory, activeOnly bool) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var products []models.Product
	err := query.Order("created_at asc").Find(&products).Error
	return products, err
}

func (s *GormStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (s *GormStore) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *GormStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	result := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", p.ID).
		Select("title", "slug", "category", "description", "price", "currency", "is_active", "updated_at").
		Updates(p)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicate
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

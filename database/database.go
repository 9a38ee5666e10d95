package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	config "github.com/legendaryias/ias_mentor/configs"
	"github.com/legendaryias/ias_mentor/models"
	"github.com/legendaryias/ias_mentor/store"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ConnectDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	fmt.Println("✅ Database connected successfully")
	return db, nil
}

// onePendingIndex backs store.ErrPendingExists. Creating it fails while
// legacy duplicate pending rows exist; run `mentorctl duplicates --cleanup` and migrate again.
const onePendingIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_one_pending
	ON payments (user_id, product_id, product_category)
	WHERE status = 'pending'`

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Payment{},
		&models.Enrollment{},
		&models.MaterialPurchase{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if err := db.Exec(onePendingIndex).Error; err != nil {
		log.Printf("⚠️ Could not create idx_payments_one_pending (duplicate pending payments?): %v", err)
	}

	fmt.Println("✅ Database migration successful")
	return nil
}

// SeedAdmin creates the administrator account from ADMIN_EMAIL and
// ADMIN_PASSWORD unless a user with that email already exists.
func SeedAdmin(ctx context.Context, profiles store.ProfileStore) error {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️ ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed.")
		return nil
	}

	_, err := profiles.FindUserByEmail(ctx, adminEmail)
	if err == nil {
		log.Println("Admin user already exists.")
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check for admin user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	adminUser := &models.User{
		ID:       "admin:" + adminEmail,
		FullName: config.Get("ADMIN_FULL_NAME", "Administrator"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
	}
	if err := profiles.EnsureUser(ctx, adminUser); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	log.Println("✅ Admin user seeded successfully")
	return nil
}

// OpenStore returns the backend named by driver: "memory" for an in-process
// store, anything else for PostgreSQL at dsn (migrated before use).
func OpenStore(driver, dsn string) (store.Store, error) {
	if driver == "memory" {
		log.Println("⚠️ Using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	db, err := ConnectDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return store.NewGormStore(db), nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

const EntryActive = "active"

// Enrollment is added to a student's profile when a course payment is confirmed.
type Enrollment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"entryId"`
	UserID     string          `gorm:"size:128;not null;uniqueIndex:idx_enrollments_user_course" json:"userId"`
	CourseID   string          `gorm:"size:128;not null;uniqueIndex:idx_enrollments_user_course" json:"id"`
	Title      string          `gorm:"size:255;not null" json:"title"`
	Category   ProductCategory `gorm:"size:20;not null" json:"category"`
	Price      float64         `gorm:"type:numeric(10,2);not null" json:"price"`
	PaymentID  string          `gorm:"size:64" json:"paymentId"`
	Status     string          `gorm:"size:20;not null;default:'active'" json:"status"`
	EnrolledAt time.Time       `gorm:"not null" json:"enrolledAt"`
}

// MaterialPurchase is added to a student's profile when a study-material
// payment is confirmed.
type MaterialPurchase struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"entryId"`
	UserID        string          `gorm:"size:128;not null;uniqueIndex:idx_purchases_user_material" json:"userId"`
	MaterialID    string          `gorm:"size:128;not null;uniqueIndex:idx_purchases_user_material" json:"id"`
	Title         string          `gorm:"size:255;not null" json:"title"`
	Type          ProductCategory `gorm:"size:20;not null" json:"type"`
	Price         float64         `gorm:"type:numeric(10,2);not null" json:"price"`
	PaymentID     string          `gorm:"size:64" json:"paymentId"`
	Status        string          `gorm:"size:20;not null;default:'active'" json:"status"`
	DownloadCount int             `gorm:"not null;default:0" json:"downloadCount"`
	PurchasedAt   time.Time       `gorm:"not null" json:"purchasedAt"`
}

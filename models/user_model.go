package models

import (
	"time"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is the profile record the access grant attaches entries to. IDs are
// the uid issued by the sites' sign-in provider.
type User struct {
	ID       string  `gorm:"primaryKey;size:128" json:"id"`
	FullName string  `gorm:"size:255;not null" json:"full_name"`
	Email    string  `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Phone    *string `gorm:"size:32" json:"phone,omitempty"`
	Password string  `json:"-"`
	Role     string  `gorm:"size:20;not null;default:'student'" json:"role"`

	Enrollments []Enrollment       `gorm:"foreignKey:UserID" json:"enrolled_courses,omitempty"`
	Purchases   []MaterialPurchase `gorm:"foreignKey:UserID" json:"purchased_materials,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type ProductCategory string

const (
	CategoryCourse   ProductCategory = "course"
	CategoryMaterial ProductCategory = "material"
)

func (c ProductCategory) Valid() bool {
	return c == CategoryCourse || c == CategoryMaterial
}

// Product is a course or study material listed on the sites.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Slug        string          `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Category    ProductCategory `gorm:"size:20;not null;index" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Price       float64         `gorm:"type:numeric(10,2);not null" json:"price"`
	Currency    string          `gorm:"size:3;default:'INR'" json:"currency"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

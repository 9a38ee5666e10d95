package models

import (
	"time"
)

// Payment is one manual UPI purchase attempt. It is created pending by the
// requester and moved to a terminal status by an administrator.
type Payment struct {
	ID string `gorm:"primaryKey;size:64" json:"id"`

	UserID    string  `gorm:"size:128;not null;index:idx_payments_pending_key" json:"userId"`
	UserEmail string  `gorm:"size:255;not null" json:"userEmail"`
	UserName  string  `gorm:"size:255;not null" json:"userName"`
	UserPhone *string `gorm:"size:32" json:"userPhone,omitempty"`

	ProductID       string          `gorm:"size:128;not null;index:idx_payments_pending_key" json:"productId"`
	ProductTitle    string          `gorm:"size:255;not null" json:"productTitle"`
	ProductCategory ProductCategory `gorm:"size:20;not null;index:idx_payments_pending_key" json:"productCategory"`
	Amount          float64         `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency        string          `gorm:"size:3;not null;default:'INR'" json:"currency"`

	UPIID  string        `gorm:"column:upi_id;size:128;not null" json:"upiId"`
	Status PaymentStatus `gorm:"size:20;not null;index" json:"status"`

	TransactionID *string `gorm:"size:255" json:"transactionId,omitempty"`
	Notes         *string `gorm:"type:text" json:"notes,omitempty"`

	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// PendingKey identifies the (requester, product, category) slot that may hold
// at most one pending payment.
type PendingKey struct {
	UserID          string
	ProductID       string
	ProductCategory ProductCategory
}

func (p *Payment) PendingKey() PendingKey {
	return PendingKey{UserID: p.UserID, ProductID: p.ProductID, ProductCategory: p.ProductCategory}
}

func (p *Payment) Phone() string {
	if p.UserPhone == nil {
		return ""
	}
	return *p.UserPhone
}

package models

import "time"

// CheckoutSession maps to the `checkout_sessions` table. A session is
// created before the popup opens and carries the anti-forgery nonce hash
// plus the client-visible processing flag reset by the cancel channel.
type CheckoutSession struct {
	ID         string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	NonceHash  string    `gorm:"column:nonce_hash;size:128" json:"-"`
	OrderID    uint      `gorm:"column:order_id;index" json:"order_id"`
	CustomerID string    `gorm:"column:customer_id;size:64" json:"customer_id"`
	Processing bool      `gorm:"column:processing" json:"processing"`
	ExpiresAt  time.Time `gorm:"column:expires_at;index" json:"expires_at"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (CheckoutSession) TableName() string {
	return "checkout_sessions"
}

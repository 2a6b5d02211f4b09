package models

import "time"

// Cart maps to the `carts` table. One active cart per checkout session;
// emptied when the session's order is paid.
type Cart struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"column:session_id;size:64;index" json:"session_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem maps to the `cart_items` table.
type CartItem struct {
	ID       uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CartID   uint   `gorm:"column:cart_id;index" json:"cart_id"`
	SKU      string `gorm:"column:sku;size:64" json:"sku"`
	Quantity int    `gorm:"column:quantity" json:"quantity"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

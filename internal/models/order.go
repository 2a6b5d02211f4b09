package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. Processing and Completed are terminal for payment
// purposes: once an order reaches either, reconciliation never mutates
// its payment fields again.
const (
	OrderStatusPending    = "pending"
	OrderStatusOnHold     = "on-hold"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusFailed     = "failed"
	OrderStatusCancelled  = "cancelled"
)

// PaymentTerminal reports whether a status blocks further payment mutation.
func PaymentTerminal(status string) bool {
	return status == OrderStatusProcessing || status == OrderStatusCompleted
}

// Order maps to the `orders` table.
type Order struct {
	ID             uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Number         string          `gorm:"column:number;size:64;uniqueIndex" json:"number"`
	Total          decimal.Decimal `gorm:"column:total;type:decimal(12,2)" json:"total"`
	Currency       string          `gorm:"column:currency;size:8" json:"currency"`
	Status         string          `gorm:"column:status;size:32;index" json:"status"`
	PaymentMethod  string          `gorm:"column:payment_method;size:64;index" json:"payment_method"`
	CustomerID     string          `gorm:"column:customer_id;size:64;index" json:"customer_id"`
	MerchantTxnID  string          `gorm:"column:merchant_txn_id;size:64;index" json:"merchant_txn_id"`
	TransactionRef string          `gorm:"column:transaction_ref;size:128" json:"transaction_ref"`
	PaidAmount     decimal.Decimal `gorm:"column:paid_amount;type:decimal(12,2)" json:"paid_amount"`
	PaidAt         *time.Time      `gorm:"column:paid_at" json:"paid_at"`
	SessionID      string          `gorm:"column:session_id;size:64;index" json:"session_id"`
	CreatedAt      time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem maps to the `order_items` table. StockReduced guards the
// once-only stock decrement on payment commit.
type OrderItem struct {
	ID           uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID      uint   `gorm:"column:order_id;index" json:"order_id"`
	SKU          string `gorm:"column:sku;size:64" json:"sku"`
	Name         string `gorm:"column:name;size:255" json:"name"`
	Quantity     int    `gorm:"column:quantity" json:"quantity"`
	StockReduced bool   `gorm:"column:stock_reduced" json:"stock_reduced"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// OrderNote maps to the `order_notes` table (append-only audit log).
type OrderNote struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID   uint      `gorm:"column:order_id;index" json:"order_id"`
	Note      string    `gorm:"column:note;type:text" json:"note"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (OrderNote) TableName() string {
	return "order_notes"
}

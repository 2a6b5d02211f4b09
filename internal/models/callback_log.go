package models

import "time"

// CallbackLog maps to the `callback_logs` table. Every inbound payment
// report is recorded raw before any decision logic runs, so operators can
// replay what the gateway actually sent.
type CallbackLog struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Channel       string    `gorm:"column:channel;size:32" json:"channel"`
	MerchantTxnID string    `gorm:"column:merchant_txn_id;size:64;index" json:"merchant_txn_id"`
	OrderID       uint      `gorm:"column:order_id;index" json:"order_id"`
	Payload       string    `gorm:"column:payload;type:text" json:"payload"`
	ReceivedAt    time.Time `gorm:"column:received_at;index" json:"received_at"`
}

func (CallbackLog) TableName() string {
	return "callback_logs"
}

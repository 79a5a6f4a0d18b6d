package entity

import "time"

// PaymentEvent records a gateway notification that has been applied
type PaymentEvent struct {
	TransactionID string        `db:"transaction_id"`
	Status        PaymentStatus `db:"status"`
	PaymentID     int64         `db:"payment_id"`
	CreatedAt     time.Time     `db:"created_at"`
}

package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

type Order struct {
	Base
	UserID     uuid.UUID       `db:"user_id"`
	TotalPrice decimal.Decimal `db:"total_price"`
	Status     OrderStatus     `db:"status"`
}

// OrderStatusFor maps a payment outcome onto the order it pays for
func OrderStatusFor(s PaymentStatus) OrderStatus {
	switch s {
	case PaymentStatusPaid:
		return OrderStatusPaid
	case PaymentStatusFailed:
		return OrderStatusCancelled
	case PaymentStatusRefunded:
		return OrderStatusRefunded
	default:
		return OrderStatusPending
	}
}

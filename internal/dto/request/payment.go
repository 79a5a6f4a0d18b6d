package request

import "github.com/shopspring/decimal"

// InitiatePaymentRequest pays for exactly one of an order or a booking
type InitiatePaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	OrderID   string          `json:"order_id,omitempty" validate:"omitempty,uuid"`
	BookingID string          `json:"booking_id,omitempty" validate:"omitempty,uuid"`
}

type ListPaymentsRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=pending paid failed refunded"`
}

package response

import (
	"time"

	"field-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

type InitiatePaymentResponse struct {
	PaymentID   int64  `json:"payment_id"`
	CheckoutURL string `json:"checkout_url"`
}

type PaymentResponse struct {
	ID               int64                `json:"id"`
	UserID           string               `json:"user_id"`
	OrderID          *string              `json:"order_id,omitempty"`
	BookingID        *string              `json:"booking_id,omitempty"`
	Gateway          string               `json:"gateway"`
	Amount           decimal.Decimal      `json:"amount"`
	Currency         string               `json:"currency"`
	Status           entity.PaymentStatus `json:"status"`
	MerchantOrderID  string               `json:"merchant_order_id"`
	GatewayReference *string              `json:"gateway_reference,omitempty"`
	TransactionID    *string              `json:"transaction_id,omitempty"`
	Meta             entity.PaymentMeta   `json:"meta"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func PaymentToResponse(p *entity.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:               p.ID,
		UserID:           p.UserID.String(),
		Gateway:          p.Gateway,
		Amount:           p.Amount,
		Currency:         p.Currency,
		Status:           p.Status,
		MerchantOrderID:  p.MerchantOrderID(),
		GatewayReference: p.GatewayReference,
		TransactionID:    p.TransactionID,
		Meta:             p.Meta,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.OrderID != nil {
		id := p.OrderID.String()
		resp.OrderID = &id
	}
	if p.BookingID != nil {
		id := p.BookingID.String()
		resp.BookingID = &id
	}
	return resp
}

// WebhookResult reports what a webhook delivery changed
type WebhookResult struct {
	PaymentID int64                `json:"payment_id"`
	Status    entity.PaymentStatus `json:"status"`
	Duplicate bool                 `json:"duplicate"`
}

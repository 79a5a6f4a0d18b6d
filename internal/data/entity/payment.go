package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

const (
	GatewayPaymob         = "paymob"
	merchantOrderIDPrefix = "PAYMENT_"
)

type Payment struct {
	ID               int64           `db:"id"`
	UserID           uuid.UUID       `db:"user_id"`
	OrderID          *uuid.UUID      `db:"order_id"`
	BookingID        *uuid.UUID      `db:"booking_id"`
	Gateway          string          `db:"gateway"`
	Amount           decimal.Decimal `db:"amount"`
	Currency         string          `db:"currency"`
	Status           PaymentStatus   `db:"status"`
	GatewayReference *string         `db:"gateway_reference"`
	TransactionID    *string         `db:"transaction_id"`
	Meta             PaymentMeta     `db:"meta"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// PaymentMeta is stored as jsonb
type PaymentMeta struct {
	WebhookData   map[string]any   `json:"webhook_data,omitempty"`
	RefundDetails map[string]any   `json:"refund_details,omitempty"`
	ZatcaQR       string           `json:"zatca_qr,omitempty"`
	ZatcaQRURL    string           `json:"zatca_qr_url,omitempty"`
	VATAmount     *decimal.Decimal `json:"vat_amount,omitempty"`
	SellerName    string           `json:"seller_name,omitempty"`
	// Credited is the part of the amount applied to a booking
	Credited *decimal.Decimal `json:"credited,omitempty"`
}

func (p *Payment) MerchantOrderID() string {
	return merchantOrderIDPrefix + strconv.FormatInt(p.ID, 10)
}

// AmountCents converts the amount into the gateway's integer minor units
func (p *Payment) AmountCents() int64 {
	return p.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// ParseMerchantOrderID extracts the payment id from "PAYMENT_<id>"
func ParseMerchantOrderID(s string) (int64, error) {
	raw, ok := strings.CutPrefix(s, merchantOrderIDPrefix)
	if !ok {
		return 0, fmt.Errorf("merchant order id %q: missing prefix", s)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("merchant order id %q: bad number", s)
	}
	return id, nil
}

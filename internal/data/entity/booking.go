package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusActive  BookingStatus = "active"
	BookingStatusExpired BookingStatus = "expired"
)

type Booking struct {
	Base
	UserID          uuid.UUID       `db:"user_id"`
	FieldID         uuid.UUID       `db:"field_id"`
	PeriodID        uuid.UUID       `db:"period_id"`
	Date            time.Time       `db:"date"`
	Name            string          `db:"name"`
	Phone           string          `db:"phone"`
	Email           string          `db:"email"`
	PlayersCount    int             `db:"players_count"`
	Price           decimal.Decimal `db:"price"`
	Paid            decimal.Decimal `db:"paid"`
	Remaining       decimal.Decimal `db:"remaining"`
	PaymentStatus   PaymentStatus   `db:"payment_status"`
	Status          BookingStatus   `db:"status"`
	Transferred     bool            `db:"transferred"`
	DaysRemaining   int             `db:"days_remaining"`
	QRToken         string          `db:"qr_token"`
	QRCodeURL       *string         `db:"qr_code_url"`
	TransactionID   *string         `db:"transaction_id"`
	MerchantOrderID *string         `db:"merchant_order_id"`
}

// Credit adds a captured amount, capped at what is still owed, and returns
// the part that was applied. Paid plus Remaining stays equal to Price.
func (b *Booking) Credit(amount decimal.Decimal) decimal.Decimal {
	applied := decimal.Max(decimal.Zero, decimal.Min(amount, b.Price.Sub(b.Paid)))
	b.Paid = b.Paid.Add(applied)
	b.recomputeRemaining()
	return applied
}

// Debit removes a refunded amount, never going below zero
func (b *Booking) Debit(amount decimal.Decimal) {
	b.Paid = decimal.Max(decimal.Zero, b.Paid.Sub(amount))
	b.recomputeRemaining()
}

func (b *Booking) recomputeRemaining() {
	b.Remaining = decimal.Max(decimal.Zero, b.Price.Sub(b.Paid))
}

// RefreshStatus derives status and days remaining from the booking date and
// the end of its period.
func (b *Booking) RefreshStatus(period *Period, now time.Time) {
	now = now.UTC()
	b.Status = BookingStatusActive
	if period != nil {
		if end, err := period.EndsAt(b.Date); err == nil && now.After(end) {
			b.Status = BookingStatusExpired
		}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	y, m, d := b.Date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	days := int(day.Sub(today).Hours() / 24)
	if days < 0 {
		days = 0
	}
	b.DaysRemaining = days
}

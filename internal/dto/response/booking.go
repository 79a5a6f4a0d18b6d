package response

import (
	"time"

	"field-booking/internal/data/entity"
	"field-booking/pkg/utils"

	"github.com/shopspring/decimal"
)

type BookingResponse struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	FieldID         string               `json:"field_id"`
	PeriodID        string               `json:"period_id"`
	FieldName       string               `json:"field_name,omitempty"`
	Period          string               `json:"period,omitempty"`
	Date            string               `json:"date"`
	Name            string               `json:"name"`
	Phone           string               `json:"phone"`
	Email           string               `json:"email"`
	PlayersCount    int                  `json:"players_count"`
	Price           decimal.Decimal      `json:"price"`
	Paid            decimal.Decimal      `json:"paid"`
	Remaining       decimal.Decimal      `json:"remaining"`
	PaymentStatus   entity.PaymentStatus `json:"payment_status"`
	Status          entity.BookingStatus `json:"status"`
	Transferred     bool                 `json:"transferred"`
	DaysRemaining   int                  `json:"days_remaining"`
	QRToken         string               `json:"qr_token"`
	QRCodeURL       *string              `json:"qr_code_url,omitempty"`
	TransactionID   *string              `json:"transaction_id,omitempty"`
	MerchantOrderID *string              `json:"merchant_order_id,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// BookingToResponse accepts nil field or period when they are not loaded
func BookingToResponse(b *entity.Booking, field *entity.Field, period *entity.Period) BookingResponse {
	resp := BookingResponse{
		ID:              b.ID.String(),
		UserID:          b.UserID.String(),
		FieldID:         b.FieldID.String(),
		PeriodID:        b.PeriodID.String(),
		Date:            b.Date.Format(utils.DateLayout),
		Name:            b.Name,
		Phone:           b.Phone,
		Email:           b.Email,
		PlayersCount:    b.PlayersCount,
		Price:           b.Price,
		Paid:            b.Paid,
		Remaining:       b.Remaining,
		PaymentStatus:   b.PaymentStatus,
		Status:          b.Status,
		Transferred:     b.Transferred,
		DaysRemaining:   b.DaysRemaining,
		QRToken:         b.QRToken,
		QRCodeURL:       b.QRCodeURL,
		TransactionID:   b.TransactionID,
		MerchantOrderID: b.MerchantOrderID,
		CreatedAt:       b.CreatedAt,
	}
	if field != nil {
		resp.FieldName = field.Name
	}
	if period != nil {
		resp.Period = period.Label()
	}
	return resp
}

package response

import (
	"time"

	"field-booking/internal/data/entity"
)

type TransferResponse struct {
	ID               string                `json:"id"`
	UserID           string                `json:"user_id"`
	CurrentBookingID string                `json:"current_booking_id"`
	TargetFieldID    string                `json:"target_field_id"`
	TargetPeriodID   string                `json:"target_period_id"`
	Status           entity.TransferStatus `json:"status"`
	Notes            *string               `json:"notes,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

type ApproveTransferResponse struct {
	Transfer TransferResponse `json:"transfer"`
	Booking  BookingResponse  `json:"booking"`
}

func TransferToResponse(t *entity.TransferRequest) TransferResponse {
	return TransferResponse{
		ID:               t.ID.String(),
		UserID:           t.UserID.String(),
		CurrentBookingID: t.CurrentBookingID.String(),
		TargetFieldID:    t.TargetFieldID.String(),
		TargetPeriodID:   t.TargetPeriodID.String(),
		Status:           t.Status,
		Notes:            t.Notes,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

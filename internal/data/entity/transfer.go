package entity

import "github.com/google/uuid"

type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "Pending"
	TransferStatusApproved TransferStatus = "Approved"
	TransferStatusRejected TransferStatus = "Rejected"
)

type TransferRequest struct {
	Base
	UserID           uuid.UUID      `db:"user_id"`
	CurrentBookingID uuid.UUID      `db:"current_booking_id"`
	TargetFieldID    uuid.UUID      `db:"target_field_id"`
	TargetPeriodID   uuid.UUID      `db:"target_period_id"`
	Status           TransferStatus `db:"status"`
	Notes            *string        `db:"notes"`
}

func (t *TransferRequest) IsPending() bool {
	return t.Status == TransferStatusPending
}

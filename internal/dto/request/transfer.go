package request

type CreateTransferRequest struct {
	CurrentBookingID string  `json:"current_booking_id" validate:"required,uuid"`
	TargetFieldID    string  `json:"target_field_id" validate:"required,uuid"`
	TargetPeriodID   string  `json:"target_period_id" validate:"required,uuid"`
	Notes            *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

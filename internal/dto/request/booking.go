package request

type CreateBookingRequest struct {
	FieldID      string `json:"field_id" validate:"required,uuid"`
	PeriodID     string `json:"period_id" validate:"required,uuid"`
	Name         string `json:"name" validate:"required,max=255"`
	Phone        string `json:"phone" validate:"required,max=20"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	PlayersCount *int   `json:"players_count,omitempty" validate:"omitempty,min=1"`
}

// Players defaults to a single player when the count is omitted
func (r *CreateBookingRequest) Players() int {
	if r.PlayersCount == nil {
		return 1
	}
	return *r.PlayersCount
}

type VerifyQRRequest struct {
	Token string `json:"token" validate:"required"`
}

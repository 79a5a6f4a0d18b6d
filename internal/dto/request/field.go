package request

import "github.com/shopspring/decimal"

type PeriodRequest struct {
	StartTime      string          `json:"start_time" validate:"required,clock"`
	EndTime        string          `json:"end_time" validate:"required,clock"`
	PricePerPlayer decimal.Decimal `json:"price_per_player"`
}

type CreateFieldRequest struct {
	Name     string          `json:"name" validate:"required,max=255"`
	City     string          `json:"city" validate:"required,max=100"`
	Capacity int             `json:"capacity" validate:"required,min=1"`
	OwnerID  string          `json:"owner_id,omitempty" validate:"omitempty,uuid"`
	CoachID  string          `json:"coach_id,omitempty" validate:"omitempty,uuid"`
	Periods  []PeriodRequest `json:"periods" validate:"required,min=1,dive"`
}

type ListFieldsRequest struct {
	PaginatedRequest
	City string `json:"city"`
}

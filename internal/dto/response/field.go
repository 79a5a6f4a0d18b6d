package response

import (
	"time"

	"field-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

type PeriodResponse struct {
	ID             string          `json:"id"`
	FieldID        string          `json:"field_id"`
	StartTime      string          `json:"start_time"`
	EndTime        string          `json:"end_time"`
	PricePerPlayer decimal.Decimal `json:"price_per_player"`
}

type FieldResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	City      string           `json:"city"`
	Capacity  int              `json:"capacity"`
	OwnerID   string           `json:"owner_id"`
	CoachID   *string          `json:"coach_id,omitempty"`
	Periods   []PeriodResponse `json:"periods,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func PeriodToResponse(p *entity.Period) PeriodResponse {
	return PeriodResponse{
		ID:             p.ID.String(),
		FieldID:        p.FieldID.String(),
		StartTime:      p.StartTime,
		EndTime:        p.EndTime,
		PricePerPlayer: p.PricePerPlayer,
	}
}

func FieldToResponse(f *entity.Field, periods []*entity.Period) FieldResponse {
	resp := FieldResponse{
		ID:        f.ID.String(),
		Name:      f.Name,
		City:      f.City,
		Capacity:  f.Capacity,
		OwnerID:   f.OwnerID.String(),
		CreatedAt: f.CreatedAt,
	}
	if f.CoachID != nil {
		coach := f.CoachID.String()
		resp.CoachID = &coach
	}
	for _, p := range periods {
		resp.Periods = append(resp.Periods, PeriodToResponse(p))
	}
	return resp
}

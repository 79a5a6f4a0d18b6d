package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const ClockLayout = "15:04"

// Period is a bookable time window of a field, repeated every day
type Period struct {
	Base
	FieldID        uuid.UUID       `db:"field_id"`
	StartTime      string          `db:"start_time"`
	EndTime        string          `db:"end_time"`
	PricePerPlayer decimal.Decimal `db:"price_per_player"`
}

func (p *Period) Label() string {
	return fmt.Sprintf("%s - %s", p.StartTime, p.EndTime)
}

// EndsAt returns the end of this period on the given calendar date
func (p *Period) EndsAt(date time.Time) (time.Time, error) {
	return clockOn(date, p.EndTime)
}

func (p *Period) StartsAt(date time.Time) (time.Time, error) {
	return clockOn(date, p.StartTime)
}

func clockOn(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/pkg/apperror"
	"field-booking/pkg/utils"

	"github.com/google/uuid"
)

// reserveCapacity locks the field row and checks that the requested number of
// players fits into (period, date). It must run inside a transaction so the lock is
// held until the caller writes its booking. exclude leaves a booking being
// moved out of the count.
func reserveCapacity(
	ctx context.Context,
	tx *repository.Repository,
	fieldID, periodID uuid.UUID,
	date time.Time,
	players int,
	exclude *uuid.UUID,
) (*entity.Field, error) {
	field, err := tx.Field.FindByIDForUpdate(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("lock field: %w", err)
	}
	if field == nil {
		return nil, apperror.Wrap(apperror.ErrNotFound, "field %s", fieldID)
	}

	booked, err := tx.Booking.SumPlayers(ctx, fieldID, periodID, date, exclude)
	if err != nil {
		return nil, fmt.Errorf("sum players: %w", err)
	}
	if booked+players > field.Capacity {
		return nil, apperror.Wrap(apperror.ErrCapacityExceeded,
			"%d of %d places taken on %s, %d requested",
			booked, field.Capacity, date.Format(utils.DateLayout), players)
	}
	return field, nil
}

// loadPeriodOf loads a period and checks it belongs to the field
func loadPeriodOf(ctx context.Context, repo *repository.Repository, fieldID, periodID uuid.UUID, name string) (*entity.Period, error) {
	period, err := repo.Period.FindByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("find period: %w", err)
	}
	if period == nil {
		return nil, apperror.Wrap(apperror.ErrNotFound, "period %s", periodID)
	}
	if period.FieldID != fieldID {
		return nil, apperror.Invalid(name, "period does not belong to the field")
	}
	return period, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"field-booking/internal/data/entity"
	"field-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var ErrPeriodNotFound = errors.New("period not found")

type PeriodRepository interface {
	Create(ctx context.Context, period *entity.Period) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Period, error)
	FindByFieldID(ctx context.Context, fieldID uuid.UUID) ([]*entity.Period, error)
	Update(ctx context.Context, period *entity.Period) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type periodRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPeriodRepository(db database.Querier, log *zap.Logger) PeriodRepository {
	return &periodRepository{
		db:  db,
		log: log.With(zap.String("repository", "period")),
	}
}

const periodColumns = `id, field_id, start_time, end_time, price_per_player, created_at, updated_at`

func scanPeriod(row rowScanner) (*entity.Period, error) {
	var period entity.Period
	err := row.Scan(
		&period.ID,
		&period.FieldID,
		&period.StartTime,
		&period.EndTime,
		&period.PricePerPlayer,
		&period.CreatedAt,
		&period.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepository) Create(ctx context.Context, period *entity.Period) error {
	query := `
		INSERT INTO periods (id, field_id, start_time, end_time, price_per_player, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		period.ID,
		period.FieldID,
		period.StartTime,
		period.EndTime,
		period.PricePerPlayer,
		period.CreatedAt,
		period.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create period",
			zap.Error(err),
			zap.String("field_id", period.FieldID.String()),
		)
		return fmt.Errorf("create period for field %s: %w", period.FieldID, err)
	}

	return nil
}

func (r *periodRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM periods WHERE id = $1`

	period, err := scanPeriod(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find period",
			zap.Error(err),
			zap.String("period_id", id.String()),
		)
		return nil, fmt.Errorf("find period %s: %w", id, err)
	}

	return period, nil
}

func (r *periodRepository) FindByFieldID(ctx context.Context, fieldID uuid.UUID) ([]*entity.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM periods WHERE field_id = $1 ORDER BY start_time ASC`

	rows, err := r.db.Query(ctx, query, fieldID)
	if err != nil {
		r.log.Error("Failed to list periods",
			zap.Error(err),
			zap.String("field_id", fieldID.String()),
		)
		return nil, fmt.Errorf("find periods of field %s: %w", fieldID, err)
	}
	defer rows.Close()

	var periods []*entity.Period
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan period row: %w", err)
		}
		periods = append(periods, period)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate period rows: %w", err)
	}

	return periods, nil
}

func (r *periodRepository) Update(ctx context.Context, period *entity.Period) error {
	query := `
		UPDATE periods
		SET start_time = $2, end_time = $3, price_per_player = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		period.ID,
		period.StartTime,
		period.EndTime,
		period.PricePerPlayer,
		period.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update period",
			zap.Error(err),
			zap.String("period_id", period.ID.String()),
		)
		return fmt.Errorf("update period %s: %w", period.ID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}

	return nil
}

func (r *periodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM periods WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete period",
			zap.Error(err),
			zap.String("period_id", id.String()),
		)
		return fmt.Errorf("delete period %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}

	return nil
}

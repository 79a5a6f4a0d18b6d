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

type FieldFilter struct {
	City    string
	OwnerID *uuid.UUID
}

type FieldRepository interface {
	Create(ctx context.Context, field *entity.Field) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Field, error)
	// FindByIDForUpdate locks the field row until the transaction ends. Every
	// capacity check on the field serializes on this lock.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Field, error)
	FindAll(ctx context.Context, filter FieldFilter, limit, offset int) ([]*entity.Field, error)
	CountAll(ctx context.Context, filter FieldFilter) (int64, error)
}

type fieldRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewFieldRepository(db database.Querier, log *zap.Logger) FieldRepository {
	return &fieldRepository{
		db:  db,
		log: log.With(zap.String("repository", "field")),
	}
}

const fieldColumns = `id, name, city, capacity, owner_id, coach_id, created_at, updated_at`

func scanField(row rowScanner) (*entity.Field, error) {
	var field entity.Field
	err := row.Scan(
		&field.ID,
		&field.Name,
		&field.City,
		&field.Capacity,
		&field.OwnerID,
		&field.CoachID,
		&field.CreatedAt,
		&field.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *fieldRepository) Create(ctx context.Context, field *entity.Field) error {
	query := `
		INSERT INTO fields (id, name, city, capacity, owner_id, coach_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		field.ID,
		field.Name,
		field.City,
		field.Capacity,
		field.OwnerID,
		field.CoachID,
		field.CreatedAt,
		field.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create field",
			zap.Error(err),
			zap.String("name", field.Name),
		)
		return fmt.Errorf("create field %s: %w", field.Name, err)
	}

	return nil
}

func (r *fieldRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Field, error) {
	return r.findByID(ctx, `SELECT `+fieldColumns+` FROM fields WHERE id = $1`, id)
}

func (r *fieldRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Field, error) {
	return r.findByID(ctx, `SELECT `+fieldColumns+` FROM fields WHERE id = $1 FOR UPDATE`, id)
}

func (r *fieldRepository) findByID(ctx context.Context, query string, id uuid.UUID) (*entity.Field, error) {
	field, err := scanField(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find field",
			zap.Error(err),
			zap.String("field_id", id.String()),
		)
		return nil, fmt.Errorf("find field %s: %w", id, err)
	}
	return field, nil
}

const fieldFilterWhere = `
	WHERE ($1 = '' OR LOWER(city) = LOWER($1))
	  AND ($2::uuid IS NULL OR owner_id = $2::uuid)`

func (r *fieldRepository) FindAll(ctx context.Context, filter FieldFilter, limit, offset int) ([]*entity.Field, error) {
	query := `
		SELECT ` + fieldColumns + `
		FROM fields` + fieldFilterWhere + `
		ORDER BY name ASC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, filter.City, filter.OwnerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list fields", zap.Error(err))
		return nil, fmt.Errorf("find all fields: %w", err)
	}
	defer rows.Close()

	var fields []*entity.Field
	for rows.Next() {
		field, err := scanField(rows)
		if err != nil {
			r.log.Error("Failed to scan field row", zap.Error(err))
			return nil, fmt.Errorf("scan field row: %w", err)
		}
		fields = append(fields, field)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate field rows: %w", err)
	}

	return fields, nil
}

func (r *fieldRepository) CountAll(ctx context.Context, filter FieldFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM fields` + fieldFilterWhere

	var count int64
	if err := r.db.QueryRow(ctx, query, filter.City, filter.OwnerID).Scan(&count); err != nil {
		r.log.Error("Failed to count fields", zap.Error(err))
		return 0, fmt.Errorf("count fields: %w", err)
	}
	return count, nil
}

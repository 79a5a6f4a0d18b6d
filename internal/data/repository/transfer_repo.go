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

// ErrTransferNotPending is returned when a request already left Pending
var ErrTransferNotPending = errors.New("transfer request is not pending")

// TransferFilter narrows a listing to requests targeting fields owned or
// coached by a user. The zero value lists everything.
type TransferFilter struct {
	FieldOwnerID *uuid.UUID
	FieldCoachID *uuid.UUID
}

type TransferRepository interface {
	Create(ctx context.Context, req *entity.TransferRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.TransferRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.TransferRequest, error)
	List(ctx context.Context, filter TransferFilter) ([]*entity.TransferRequest, error)
	// UpdateStatus moves a Pending request to a terminal status
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.TransferStatus) error
	DeletePending(ctx context.Context, id uuid.UUID) error
	CountByTargetPeriod(ctx context.Context, periodID uuid.UUID) (int64, error)
}

type transferRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewTransferRepository(db database.Querier, log *zap.Logger) TransferRepository {
	return &transferRepository{
		db:  db,
		log: log.With(zap.String("repository", "transfer_request")),
	}
}

const transferColumns = `
	t.id, t.user_id, t.current_booking_id, t.target_field_id, t.target_period_id,
	t.status, t.notes, t.created_at, t.updated_at`

func scanTransfer(row rowScanner) (*entity.TransferRequest, error) {
	var t entity.TransferRequest
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.CurrentBookingID,
		&t.TargetFieldID,
		&t.TargetPeriodID,
		&t.Status,
		&t.Notes,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transferRepository) Create(ctx context.Context, t *entity.TransferRequest) error {
	query := `
		INSERT INTO transfer_requests (id, user_id, current_booking_id, target_field_id,
		                               target_period_id, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.CurrentBookingID,
		t.TargetFieldID,
		t.TargetPeriodID,
		t.Status,
		t.Notes,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create transfer request",
			zap.Error(err),
			zap.String("booking_id", t.CurrentBookingID.String()),
		)
		return fmt.Errorf("create transfer request: %w", err)
	}

	return nil
}

func (r *transferRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.TransferRequest, error) {
	return r.findOne(ctx, `SELECT `+transferColumns+` FROM transfer_requests t WHERE t.id = $1`, id)
}

func (r *transferRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.TransferRequest, error) {
	return r.findOne(ctx, `SELECT `+transferColumns+` FROM transfer_requests t WHERE t.id = $1 FOR UPDATE`, id)
}

func (r *transferRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*entity.TransferRequest, error) {
	t, err := scanTransfer(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find transfer request",
			zap.Error(err),
			zap.String("transfer_id", id.String()),
		)
		return nil, fmt.Errorf("find transfer request %s: %w", id, err)
	}
	return t, nil
}

func (r *transferRepository) List(ctx context.Context, filter TransferFilter) ([]*entity.TransferRequest, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfer_requests t
		JOIN fields f ON f.id = t.target_field_id
		WHERE ($1::uuid IS NULL OR f.owner_id = $1::uuid)
		  AND ($2::uuid IS NULL OR f.coach_id = $2::uuid)
		ORDER BY t.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, filter.FieldOwnerID, filter.FieldCoachID)
	if err != nil {
		r.log.Error("Failed to list transfer requests", zap.Error(err))
		return nil, fmt.Errorf("list transfer requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.TransferRequest
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer row: %w", err)
		}
		requests = append(requests, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer rows: %w", err)
	}

	return requests, nil
}

func (r *transferRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.TransferStatus) error {
	query := `
		UPDATE transfer_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'Pending'
	`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.log.Error("Failed to update transfer status",
			zap.Error(err),
			zap.String("transfer_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update transfer request %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrTransferNotPending
	}

	return nil
}

func (r *transferRepository) DeletePending(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM transfer_requests WHERE id = $1 AND status = 'Pending'`, id)
	if err != nil {
		r.log.Error("Failed to delete transfer request",
			zap.Error(err),
			zap.String("transfer_id", id.String()),
		)
		return fmt.Errorf("delete transfer request %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrTransferNotPending
	}

	return nil
}

func (r *transferRepository) CountByTargetPeriod(ctx context.Context, periodID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transfer_requests WHERE target_period_id = $1`, periodID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count transfer requests of period",
			zap.Error(err),
			zap.String("period_id", periodID.String()),
		)
		return 0, fmt.Errorf("count transfer requests of period %s: %w", periodID, err)
	}
	return count, nil
}

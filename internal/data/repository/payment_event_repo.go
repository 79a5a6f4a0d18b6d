package repository

import (
	"context"
	"fmt"

	"field-booking/internal/data/entity"
	"field-booking/pkg/database"

	"go.uber.org/zap"
)

type PaymentEventRepository interface {
	// MarkProcessed records the event and reports false when it was
	// already recorded.
	MarkProcessed(ctx context.Context, event *entity.PaymentEvent) (bool, error)
}

type paymentEventRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentEventRepository(db database.Querier, log *zap.Logger) PaymentEventRepository {
	return &paymentEventRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment_event")),
	}
}

func (r *paymentEventRepository) MarkProcessed(ctx context.Context, event *entity.PaymentEvent) (bool, error) {
	query := `
		INSERT INTO payment_events (transaction_id, status, payment_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (transaction_id, status) DO NOTHING
	`

	result, err := r.db.Exec(ctx, query,
		event.TransactionID,
		event.Status,
		event.PaymentID,
		event.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to record payment event",
			zap.Error(err),
			zap.String("transaction_id", event.TransactionID),
		)
		return false, fmt.Errorf("record payment event %s: %w", event.TransactionID, err)
	}

	return result.RowsAffected() == 1, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrPaymentNotFound = errors.New("payment not found")

// PaymentFilter narrows a payment listing; zero fields match everything
type PaymentFilter struct {
	Status entity.PaymentStatus
	UserID *uuid.UUID
}

type PaymentRepository interface {
	// Create inserts the payment and fills in its generated id
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id int64) (*entity.Payment, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*entity.Payment, error)
	FindByGatewayReference(ctx context.Context, reference string) (*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error
	List(ctx context.Context, filter PaymentFilter, limit, offset int) ([]*entity.Payment, error)
	Count(ctx context.Context, filter PaymentFilter) (int64, error)
	// SumPendingForBooking totals the pending payments of a booking created at
	// or after since
	SumPendingForBooking(ctx context.Context, bookingID uuid.UUID, since time.Time) (decimal.Decimal, error)
}

type paymentRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentRepository(db database.Querier, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `
	p.id, p.user_id, p.order_id, p.booking_id, p.gateway, p.amount, p.currency,
	p.status, p.gateway_reference, p.transaction_id, p.meta, p.created_at, p.updated_at`

func scanPayment(row rowScanner) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.OrderID,
		&p.BookingID,
		&p.Gateway,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.GatewayReference,
		&p.TransactionID,
		&p.Meta,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (user_id, order_id, booking_id, gateway, amount, currency,
		                      status, gateway_reference, transaction_id, meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		p.UserID,
		p.OrderID,
		p.BookingID,
		p.Gateway,
		p.Amount,
		p.Currency,
		p.Status,
		p.GatewayReference,
		p.TransactionID,
		p.Meta,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("user_id", p.UserID.String()),
		)
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id int64) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments p WHERE p.id = $1`, id)
}

func (r *paymentRepository) FindByIDForUpdate(ctx context.Context, id int64) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments p WHERE p.id = $1 FOR UPDATE`, id)
}

func (r *paymentRepository) FindByGatewayReference(ctx context.Context, reference string) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments p WHERE p.gateway_reference = $1`, reference)
}

func (r *paymentRepository) findOne(ctx context.Context, query string, arg any) (*entity.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment", zap.Error(err), zap.Any("key", arg))
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *entity.Payment) error {
	query := `
		UPDATE payments
		SET status = $2, gateway_reference = $3, transaction_id = $4, meta = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		p.ID,
		p.Status,
		p.GatewayReference,
		p.TransactionID,
		p.Meta,
		p.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update payment",
			zap.Error(err),
			zap.Int64("payment_id", p.ID),
		)
		return fmt.Errorf("update payment %d: %w", p.ID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}

	return nil
}

const paymentFilterWhere = `
	WHERE ($1 = '' OR p.status = $1)
	  AND ($2::uuid IS NULL OR p.user_id = $2::uuid)`

func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter, limit, offset int) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p` + paymentFilterWhere + `
		ORDER BY p.created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.Query(ctx, query, string(filter.Status), filter.UserID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list payments", zap.Error(err))
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}

	return payments, nil
}

func (r *paymentRepository) Count(ctx context.Context, filter PaymentFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM payments p` + paymentFilterWhere

	var count int64
	if err := r.db.QueryRow(ctx, query, string(filter.Status), filter.UserID).Scan(&count); err != nil {
		r.log.Error("Failed to count payments", zap.Error(err))
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return count, nil
}

func (r *paymentRepository) SumPendingForBooking(ctx context.Context, bookingID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE booking_id = $1 AND status = 'pending' AND created_at >= $2
	`

	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, query, bookingID, since).Scan(&total); err != nil {
		r.log.Error("Failed to sum pending payments",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return decimal.Zero, fmt.Errorf("sum pending payments of booking %s: %w", bookingID, err)
	}
	return total, nil
}

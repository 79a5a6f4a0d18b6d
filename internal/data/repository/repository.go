package repository

import (
	"context"

	"field-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TxFunc runs fn against a Repository bound to a single transaction
type TxFunc func(ctx context.Context, fn func(tx *Repository) error) error

type Repository struct {
	User         UserRepository
	Session      SessionRepository
	Field        FieldRepository
	Period       PeriodRepository
	Booking      BookingRepository
	Transfer     TransferRepository
	Payment      PaymentRepository
	PaymentEvent PaymentEventRepository
	Order        OrderRepository

	RunInTx TxFunc
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepository(db, log)
	repo.RunInTx = func(ctx context.Context, fn func(tx *Repository) error) error {
		return database.WithTx(ctx, db, func(tx pgx.Tx) error {
			return fn(newRepository(tx, log))
		})
	}
	return repo
}

func newRepository(db database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(db, log),
		Session:      NewSessionRepository(db, log),
		Field:        NewFieldRepository(db, log),
		Period:       NewPeriodRepository(db, log),
		Booking:      NewBookingRepository(db, log),
		Transfer:     NewTransferRepository(db, log),
		Payment:      NewPaymentRepository(db, log),
		PaymentEvent: NewPaymentEventRepository(db, log),
		Order:        NewOrderRepository(db, log),
	}
}

// Transaction runs fn in a transaction. A Repository already bound to a
// transaction has no RunInTx and runs fn directly, so calls nest.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.RunInTx == nil {
		return fn(r)
	}
	return r.RunInTx(ctx, fn)
}

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
	"go.uber.org/zap"
)

var ErrBookingNotFound = errors.New("booking not found")

// BookingFilter narrows a listing to bookings on fields owned or coached by
// a user. The zero value lists everything.
type BookingFilter struct {
	FieldOwnerID *uuid.UUID
	FieldCoachID *uuid.UUID
}

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByToken(ctx context.Context, token string) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindAll(ctx context.Context, filter BookingFilter, limit, offset int) ([]*entity.Booking, error)
	CountAll(ctx context.Context, filter BookingFilter) (int64, error)
	CountByPeriod(ctx context.Context, periodID uuid.UUID) (int64, error)
	Update(ctx context.Context, booking *entity.Booking) error
	Delete(ctx context.Context, id uuid.UUID) error

	// SumPlayers totals players booked on (field, period, date), leaving out
	// excludeID when set.
	SumPlayers(ctx context.Context, fieldID, periodID uuid.UUID, date time.Time, excludeID *uuid.UUID) (int, error)
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `
	id, user_id, field_id, period_id, date, name, phone, email, players_count,
	price, paid, remaining, payment_status, status, transferred, days_remaining,
	qr_token, qr_code_url, transaction_id, merchant_order_id, created_at, updated_at`

const qualifiedBookingColumns = `
	b.id, b.user_id, b.field_id, b.period_id, b.date, b.name, b.phone, b.email,
	b.players_count, b.price, b.paid, b.remaining, b.payment_status, b.status,
	b.transferred, b.days_remaining, b.qr_token, b.qr_code_url, b.transaction_id,
	b.merchant_order_id, b.created_at, b.updated_at`

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.FieldID,
		&b.PeriodID,
		&b.Date,
		&b.Name,
		&b.Phone,
		&b.Email,
		&b.PlayersCount,
		&b.Price,
		&b.Paid,
		&b.Remaining,
		&b.PaymentStatus,
		&b.Status,
		&b.Transferred,
		&b.DaysRemaining,
		&b.QRToken,
		&b.QRCodeURL,
		&b.TransactionID,
		&b.MerchantOrderID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *entity.Booking) error {
	query := `
		INSERT INTO bookings (
			id, user_id, field_id, period_id, date, name, phone, email, players_count,
			price, paid, remaining, payment_status, status, transferred, days_remaining,
			qr_token, qr_code_url, transaction_id, merchant_order_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22)
	`

	_, err := r.db.Exec(ctx, query,
		b.ID,
		b.UserID,
		b.FieldID,
		b.PeriodID,
		b.Date,
		b.Name,
		b.Phone,
		b.Email,
		b.PlayersCount,
		b.Price,
		b.Paid,
		b.Remaining,
		b.PaymentStatus,
		b.Status,
		b.Transferred,
		b.DaysRemaining,
		b.QRToken,
		b.QRCodeURL,
		b.TransactionID,
		b.MerchantOrderID,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_id", b.ID.String()),
			zap.String("user_id", b.UserID.String()),
		)
		return fmt.Errorf("create booking %s: %w", b.ID, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *bookingRepository) FindByToken(ctx context.Context, token string) (*entity.Booking, error) {
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE qr_token = $1`, token)
}

func (r *bookingRepository) findOne(ctx context.Context, query string, arg any) (*entity.Booking, error) {
	booking, err := scanBooking(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking", zap.Error(err))
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings of user %s: %w", userID, err)
	}
	return collectBookings(rows)
}

const bookingFilterWhere = `
	WHERE ($1::uuid IS NULL OR f.owner_id = $1::uuid)
	  AND ($2::uuid IS NULL OR f.coach_id = $2::uuid)`

func (r *bookingRepository) FindAll(ctx context.Context, filter BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + qualifiedBookingColumns + `
		FROM bookings b
		JOIN fields f ON f.id = b.field_id` + bookingFilterWhere + `
		ORDER BY b.date DESC, b.created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, filter.FieldOwnerID, filter.FieldCoachID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list bookings", zap.Error(err))
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return collectBookings(rows)
}

func (r *bookingRepository) CountAll(ctx context.Context, filter BookingFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings b JOIN fields f ON f.id = b.field_id` + bookingFilterWhere

	var count int64
	if err := r.db.QueryRow(ctx, query, filter.FieldOwnerID, filter.FieldCoachID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return count, nil
}

func (r *bookingRepository) CountByPeriod(ctx context.Context, periodID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE period_id = $1`, periodID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings of period", zap.Error(err), zap.String("period_id", periodID.String()))
		return 0, fmt.Errorf("count bookings of period %s: %w", periodID, err)
	}
	return count, nil
}

func collectBookings(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return 0, fmt.Errorf("count bookings of user %s: %w", userID, err)
	}
	return count, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *entity.Booking) error {
	query := `
		UPDATE bookings
		SET field_id = $2, period_id = $3, date = $4, players_count = $5,
		    price = $6, paid = $7, remaining = $8, payment_status = $9,
		    status = $10, transferred = $11, days_remaining = $12,
		    qr_token = $13, qr_code_url = $14, transaction_id = $15,
		    merchant_order_id = $16, updated_at = $17
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		b.ID,
		b.FieldID,
		b.PeriodID,
		b.Date,
		b.PlayersCount,
		b.Price,
		b.Paid,
		b.Remaining,
		b.PaymentStatus,
		b.Status,
		b.Transferred,
		b.DaysRemaining,
		b.QRToken,
		b.QRCodeURL,
		b.TransactionID,
		b.MerchantOrderID,
		b.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update booking",
			zap.Error(err),
			zap.String("booking_id", b.ID.String()),
		)
		return fmt.Errorf("update booking %s: %w", b.ID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrBookingNotFound
	}

	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("delete booking %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrBookingNotFound
	}

	return nil
}

func (r *bookingRepository) SumPlayers(ctx context.Context, fieldID, periodID uuid.UUID, date time.Time, excludeID *uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(SUM(players_count), 0)
		FROM bookings
		WHERE field_id = $1
		  AND period_id = $2
		  AND date = $3
		  AND ($4::uuid IS NULL OR id <> $4::uuid)
	`

	var total int
	err := r.db.QueryRow(ctx, query, fieldID, periodID, date, excludeID).Scan(&total)
	if err != nil {
		r.log.Error("Failed to sum booked players",
			zap.Error(err),
			zap.String("field_id", fieldID.String()),
			zap.String("period_id", periodID.String()),
		)
		return 0, fmt.Errorf("sum players for field %s period %s: %w", fieldID, periodID, err)
	}

	return total, nil
}

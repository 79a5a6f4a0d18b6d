package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/dto/request"
	"field-booking/internal/dto/response"
	"field-booking/internal/notify"
	"field-booking/pkg/apperror"
	"field-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BookingService interface {
	Create(ctx context.Context, actor entity.Actor, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	Get(ctx context.Context, actor entity.Actor, id uuid.UUID) (*response.BookingResponse, error)
	ListMine(ctx context.Context, actor entity.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	// List returns bookings on the fields the actor manages, every booking
	// for an admin
	List(ctx context.Context, actor entity.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	Verify(ctx context.Context, req *request.VerifyQRRequest) (*response.BookingResponse, error)
	Cancel(ctx context.Context, actor entity.Actor, id uuid.UUID) error
}

type bookingService struct {
	repo      *repository.Repository
	artifacts ArtifactRenderer
	notifier  notify.Dispatcher
	log       *zap.Logger
	now       func() time.Time
}

func NewBookingService(
	repo *repository.Repository,
	artifacts ArtifactRenderer,
	notifier notify.Dispatcher,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:      repo,
		artifacts: artifacts,
		notifier:  notifier,
		log:       log.With(zap.String("service", "booking")),
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, actor entity.Actor, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if err := validate(s.log, "CreateBooking", req); err != nil {
		return nil, err
	}

	fieldID := uuid.MustParse(req.FieldID)
	periodID := uuid.MustParse(req.PeriodID)
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, apperror.Invalid("date", "must be YYYY-MM-DD")
	}
	now := s.now().UTC()
	if date.Before(startOfDay(now)) {
		return nil, apperror.Invalid("date", "must not be in the past")
	}
	players := req.Players()

	booking := &entity.Booking{
		Base:          entity.NewBase(now),
		UserID:        actor.ID,
		FieldID:       fieldID,
		PeriodID:      periodID,
		Date:          date,
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		PlayersCount:  players,
		Paid:          decimal.Zero,
		PaymentStatus: entity.PaymentStatusPending,
		QRToken:       uuid.NewString(),
	}

	var (
		field  *entity.Field
		period *entity.Period
	)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		period, err = loadPeriodOf(ctx, tx, fieldID, periodID, "period_id")
		if err != nil {
			return err
		}
		field, err = reserveCapacity(ctx, tx, fieldID, periodID, date, players, nil)
		if err != nil {
			return err
		}

		booking.Price = period.PricePerPlayer.Mul(decimal.NewFromInt(int64(players)))
		booking.Remaining = booking.Price
		booking.RefreshStatus(period, now)
		attachQR(s.artifacts, s.log, booking, field, period)

		return tx.Booking.Create(ctx, booking)
	})
	if err != nil {
		if booking.QRCodeURL != nil {
			s.removeArtifact(*booking.QRCodeURL)
		}
		s.log.Warn("Booking not created",
			zap.Error(err),
			zap.String("field_id", req.FieldID),
			zap.String("period_id", req.PeriodID),
			zap.String("date", req.Date))
		return nil, err
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("user_id", actor.ID.String()),
		zap.Int("players", players))

	s.notifier.Dispatch(ctx, notify.NewEvent(notify.BookingCreated, booking.Email, booking.Name, bookingEventData(booking, field, period)))

	resp := response.BookingToResponse(booking, field, period)
	return &resp, nil
}

func (s *bookingService) Get(ctx context.Context, actor entity.Actor, id uuid.UUID) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	field, period, err := s.loadSlot(ctx, booking)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.ID && !actor.CanManageField(field) {
		return nil, apperror.Wrap(apperror.ErrForbidden, "booking %s", id)
	}

	booking.RefreshStatus(period, s.now())
	resp := response.BookingToResponse(booking, field, period)
	return &resp, nil
}

func (s *bookingService) ListMine(ctx context.Context, actor entity.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	total, err := s.repo.Booking.CountByUserID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	bookings, err := s.repo.Booking.FindByUserID(ctx, actor.ID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return s.page(ctx, bookings, req, total)
}

func (s *bookingService) List(ctx context.Context, actor entity.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	var filter repository.BookingFilter
	switch actor.Role {
	case entity.RoleAdmin:
	case entity.RoleOwner, entity.RoleOwnerAcademy:
		filter.FieldOwnerID = &actor.ID
	case entity.RoleCoach:
		filter.FieldCoachID = &actor.ID
	default:
		return nil, apperror.Wrap(apperror.ErrForbidden, "role %s cannot list bookings", actor.Role)
	}

	total, err := s.repo.Booking.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	bookings, err := s.repo.Booking.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return s.page(ctx, bookings, req, total)
}

func (s *bookingService) page(ctx context.Context, bookings []*entity.Booking, req *request.PaginatedRequest, total int64) (*response.PaginatedResponse[response.BookingResponse], error) {
	now := s.now()
	data := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		field, period, err := s.loadSlot(ctx, b)
		if err != nil {
			return nil, err
		}
		b.RefreshStatus(period, now)
		data = append(data, response.BookingToResponse(b, field, period))
	}
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *bookingService) Verify(ctx context.Context, req *request.VerifyQRRequest) (*response.BookingResponse, error) {
	if err := validate(s.log, "VerifyQR", req); err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByToken(ctx, req.Token)
	if err != nil {
		return nil, fmt.Errorf("find booking by token: %w", err)
	}
	if booking == nil {
		s.log.Warn("Unknown QR token presented")
		return nil, apperror.Wrap(apperror.ErrNotFound, "invalid qr code")
	}

	field, period, err := s.loadSlot(ctx, booking)
	if err != nil {
		return nil, err
	}
	booking.RefreshStatus(period, s.now())
	resp := response.BookingToResponse(booking, field, period)
	return &resp, nil
}

func (s *bookingService) Cancel(ctx context.Context, actor entity.Actor, id uuid.UUID) error {
	var booking *entity.Booking
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		booking, err = tx.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return apperror.Wrap(apperror.ErrNotFound, "booking %s", id)
		}
		if booking.UserID != actor.ID && !actor.IsAdmin() {
			return apperror.Wrap(apperror.ErrForbidden, "booking %s", id)
		}
		return tx.Booking.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("Booking cancelled",
		zap.String("booking_id", id.String()),
		zap.String("actor_id", actor.ID.String()))

	if booking.QRCodeURL != nil {
		s.removeArtifact(*booking.QRCodeURL)
	}

	field, period, err := s.loadSlot(ctx, booking)
	if err != nil {
		s.log.Warn("Cancelled booking slot not loaded", zap.Error(err))
		return nil
	}
	s.notifier.Dispatch(ctx, notify.NewEvent(notify.BookingCancelled, booking.Email, booking.Name, bookingEventData(booking, field, period)))
	return nil
}

func (s *bookingService) findBooking(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, apperror.Wrap(apperror.ErrNotFound, "booking %s", id)
	}
	return booking, nil
}

func (s *bookingService) loadSlot(ctx context.Context, b *entity.Booking) (*entity.Field, *entity.Period, error) {
	field, err := s.repo.Field.FindByID(ctx, b.FieldID)
	if err != nil {
		return nil, nil, fmt.Errorf("find field: %w", err)
	}
	period, err := s.repo.Period.FindByID(ctx, b.PeriodID)
	if err != nil {
		return nil, nil, fmt.Errorf("find period: %w", err)
	}
	return field, period, nil
}

func (s *bookingService) removeArtifact(url string) {
	if err := s.artifacts.Remove(url); err != nil {
		s.log.Warn("Failed to remove artifact", zap.Error(err), zap.String("url", url))
	}
}

// attachQR renders the booking QR. A rendering failure leaves the booking
// without an image; the token still verifies.
func attachQR(artifacts ArtifactRenderer, log *zap.Logger, b *entity.Booking, field *entity.Field, period *entity.Period) {
	url, err := artifacts.BookingQR(b, field, period)
	if err != nil {
		log.Warn("Failed to render booking qr", zap.Error(err), zap.String("booking_id", b.ID.String()))
		b.QRCodeURL = nil
		return
	}
	b.QRCodeURL = &url
}

func bookingEventData(b *entity.Booking, field *entity.Field, period *entity.Period) map[string]string {
	data := map[string]string{
		"booking_id":    b.ID.String(),
		"date":          b.Date.Format(utils.DateLayout),
		"players_count": strconv.Itoa(b.PlayersCount),
		"price":         b.Price.StringFixed(2),
	}
	if field != nil {
		data["field_name"] = field.Name
	}
	if period != nil {
		data["period"] = period.Label()
	}
	return data
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

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
	"field-booking/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FieldService interface {
	Create(ctx context.Context, actor entity.Actor, req *request.CreateFieldRequest) (*response.FieldResponse, error)
	List(ctx context.Context, req *request.ListFieldsRequest) (*response.PaginatedResponse[response.FieldResponse], error)
	Get(ctx context.Context, id uuid.UUID) (*response.FieldResponse, error)
	Periods(ctx context.Context, fieldID uuid.UUID) ([]response.PeriodResponse, error)
	AddPeriod(ctx context.Context, actor entity.Actor, fieldID uuid.UUID, req *request.PeriodRequest) (*response.PeriodResponse, error)
	// ListMine returns the fields an owner holds, with their periods. An
	// admin gets every field.
	ListMine(ctx context.Context, actor entity.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.FieldResponse], error)
	// UpdatePeriod may change the price of a booked period but not its hours
	UpdatePeriod(ctx context.Context, actor entity.Actor, fieldID, periodID uuid.UUID, req *request.PeriodRequest) (*response.PeriodResponse, error)
	DeletePeriod(ctx context.Context, actor entity.Actor, fieldID, periodID uuid.UUID) error
}

type fieldService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewFieldService(repo *repository.Repository, log *zap.Logger) FieldService {
	return &fieldService{
		repo: repo,
		log:  log.With(zap.String("service", "field")),
	}
}

func (s *fieldService) Create(ctx context.Context, actor entity.Actor, req *request.CreateFieldRequest) (*response.FieldResponse, error) {
	if !actor.IsAdmin() && !actor.Role.IsFieldOwner() {
		return nil, apperror.Wrap(apperror.ErrForbidden, "role %s cannot create fields", actor.Role)
	}
	if err := validate(s.log, "CreateField", req); err != nil {
		return nil, err
	}
	for i := range req.Periods {
		if err := checkPeriod(&req.Periods[i], fmt.Sprintf("periods[%d]", i)); err != nil {
			return nil, err
		}
	}

	ownerID := actor.ID
	if req.OwnerID != "" {
		if !actor.IsAdmin() {
			return nil, apperror.Wrap(apperror.ErrForbidden, "only an admin may assign an owner")
		}
		ownerID = uuid.MustParse(req.OwnerID)
	}

	now := time.Now().UTC()
	field := &entity.Field{
		Base:     entity.NewBase(now),
		Name:     req.Name,
		City:     req.City,
		Capacity: req.Capacity,
		OwnerID:  ownerID,
	}
	periods := make([]*entity.Period, 0, len(req.Periods))

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if ownerID != actor.ID {
			if err := requireRole(ctx, tx, ownerID, "owner_id", entity.RoleOwner, entity.RoleOwnerAcademy); err != nil {
				return err
			}
		}
		if req.CoachID != "" {
			coachID := uuid.MustParse(req.CoachID)
			if err := requireRole(ctx, tx, coachID, "coach_id", entity.RoleCoach); err != nil {
				return err
			}
			field.CoachID = &coachID
		}

		if err := tx.Field.Create(ctx, field); err != nil {
			return err
		}
		for _, p := range req.Periods {
			period := &entity.Period{
				Base:           entity.NewBase(now),
				FieldID:        field.ID,
				StartTime:      p.StartTime,
				EndTime:        p.EndTime,
				PricePerPlayer: p.PricePerPlayer,
			}
			if err := tx.Period.Create(ctx, period); err != nil {
				return err
			}
			periods = append(periods, period)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Field created",
		zap.String("field_id", field.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Int("periods", len(periods)))

	resp := response.FieldToResponse(field, periods)
	return &resp, nil
}

func (s *fieldService) List(ctx context.Context, req *request.ListFieldsRequest) (*response.PaginatedResponse[response.FieldResponse], error) {
	filter := repository.FieldFilter{City: req.City}

	total, err := s.repo.Field.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count fields: %w", err)
	}
	fields, err := s.repo.Field.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}

	data := make([]response.FieldResponse, 0, len(fields))
	for _, f := range fields {
		data = append(data, response.FieldToResponse(f, nil))
	}
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *fieldService) Get(ctx context.Context, id uuid.UUID) (*response.FieldResponse, error) {
	field, err := s.findField(ctx, id)
	if err != nil {
		return nil, err
	}
	periods, err := s.repo.Period.FindByFieldID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find periods: %w", err)
	}
	resp := response.FieldToResponse(field, periods)
	return &resp, nil
}

func (s *fieldService) Periods(ctx context.Context, fieldID uuid.UUID) ([]response.PeriodResponse, error) {
	if _, err := s.findField(ctx, fieldID); err != nil {
		return nil, err
	}
	periods, err := s.repo.Period.FindByFieldID(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("find periods: %w", err)
	}
	out := make([]response.PeriodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, response.PeriodToResponse(p))
	}
	return out, nil
}

func (s *fieldService) AddPeriod(ctx context.Context, actor entity.Actor, fieldID uuid.UUID, req *request.PeriodRequest) (*response.PeriodResponse, error) {
	if err := validate(s.log, "AddPeriod", req); err != nil {
		return nil, err
	}
	if err := checkPeriod(req, "period"); err != nil {
		return nil, err
	}

	field, err := s.findField(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	if !ownsField(actor, field) {
		return nil, apperror.Wrap(apperror.ErrForbidden, "field %s is not owned by the caller", fieldID)
	}

	period := &entity.Period{
		Base:           entity.NewBase(time.Now().UTC()),
		FieldID:        fieldID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		PricePerPlayer: req.PricePerPlayer,
	}
	if err := s.repo.Period.Create(ctx, period); err != nil {
		return nil, fmt.Errorf("create period: %w", err)
	}

	s.log.Info("Period added",
		zap.String("field_id", fieldID.String()),
		zap.String("period_id", period.ID.String()))

	resp := response.PeriodToResponse(period)
	return &resp, nil
}

func (s *fieldService) ListMine(ctx context.Context, actor entity.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.FieldResponse], error) {
	var filter repository.FieldFilter
	switch {
	case actor.IsAdmin():
	case actor.Role.IsFieldOwner():
		filter.OwnerID = &actor.ID
	default:
		return nil, apperror.Wrap(apperror.ErrForbidden, "role %s owns no fields", actor.Role)
	}

	total, err := s.repo.Field.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count fields: %w", err)
	}
	fields, err := s.repo.Field.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}

	data := make([]response.FieldResponse, 0, len(fields))
	for _, f := range fields {
		periods, err := s.repo.Period.FindByFieldID(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("find periods: %w", err)
		}
		data = append(data, response.FieldToResponse(f, periods))
	}
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *fieldService) UpdatePeriod(ctx context.Context, actor entity.Actor, fieldID, periodID uuid.UUID, req *request.PeriodRequest) (*response.PeriodResponse, error) {
	if err := validate(s.log, "UpdatePeriod", req); err != nil {
		return nil, err
	}
	if err := checkPeriod(req, "period"); err != nil {
		return nil, err
	}

	var period *entity.Period
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		period, err = lockOwnedPeriod(ctx, tx, actor, fieldID, periodID)
		if err != nil {
			return err
		}

		if period.StartTime != req.StartTime || period.EndTime != req.EndTime {
			booked, err := tx.Booking.CountByPeriod(ctx, periodID)
			if err != nil {
				return fmt.Errorf("count bookings: %w", err)
			}
			if booked > 0 {
				return apperror.Wrap(apperror.ErrConflict, "period %s has %d bookings, its hours cannot change", periodID, booked)
			}
		}

		period.StartTime = req.StartTime
		period.EndTime = req.EndTime
		period.PricePerPlayer = req.PricePerPlayer
		period.UpdatedAt = time.Now().UTC()
		return tx.Period.Update(ctx, period)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Period updated",
		zap.String("field_id", fieldID.String()),
		zap.String("period_id", periodID.String()))

	resp := response.PeriodToResponse(period)
	return &resp, nil
}

func (s *fieldService) DeletePeriod(ctx context.Context, actor entity.Actor, fieldID, periodID uuid.UUID) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := lockOwnedPeriod(ctx, tx, actor, fieldID, periodID); err != nil {
			return err
		}

		booked, err := tx.Booking.CountByPeriod(ctx, periodID)
		if err != nil {
			return fmt.Errorf("count bookings: %w", err)
		}
		requested, err := tx.Transfer.CountByTargetPeriod(ctx, periodID)
		if err != nil {
			return fmt.Errorf("count transfer requests: %w", err)
		}
		if booked > 0 || requested > 0 {
			return apperror.Wrap(apperror.ErrConflict, "period %s is referenced by %d bookings and %d transfer requests", periodID, booked, requested)
		}
		return tx.Period.Delete(ctx, periodID)
	})
	if err != nil {
		return err
	}

	s.log.Info("Period deleted",
		zap.String("field_id", fieldID.String()),
		zap.String("period_id", periodID.String()))
	return nil
}

// lockOwnedPeriod locks the field, so no booking lands on the period while
// it changes, and checks the actor owns it
func lockOwnedPeriod(ctx context.Context, tx *repository.Repository, actor entity.Actor, fieldID, periodID uuid.UUID) (*entity.Period, error) {
	field, err := tx.Field.FindByIDForUpdate(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("find field: %w", err)
	}
	if field == nil {
		return nil, apperror.Wrap(apperror.ErrNotFound, "field %s", fieldID)
	}
	if !ownsField(actor, field) {
		return nil, apperror.Wrap(apperror.ErrForbidden, "field %s is not owned by the caller", fieldID)
	}

	period, err := tx.Period.FindByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("find period: %w", err)
	}
	if period == nil || period.FieldID != fieldID {
		return nil, apperror.Wrap(apperror.ErrNotFound, "period %s of field %s", periodID, fieldID)
	}
	return period, nil
}

func ownsField(actor entity.Actor, field *entity.Field) bool {
	return actor.IsAdmin() || (actor.Role.IsFieldOwner() && field.OwnerID == actor.ID)
}

func (s *fieldService) findField(ctx context.Context, id uuid.UUID) (*entity.Field, error) {
	field, err := s.repo.Field.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find field: %w", err)
	}
	if field == nil {
		return nil, apperror.Wrap(apperror.ErrNotFound, "field %s", id)
	}
	return field, nil
}

// checkPeriod enforces what the struct tags cannot: ordering and price sign
func checkPeriod(p *request.PeriodRequest, name string) error {
	start, _ := time.Parse(entity.ClockLayout, p.StartTime)
	end, _ := time.Parse(entity.ClockLayout, p.EndTime)
	if !end.After(start) {
		return apperror.Invalid(name+".end_time", "must be after start_time")
	}
	if p.PricePerPlayer.IsNegative() {
		return apperror.Invalid(name+".price_per_player", "must not be negative")
	}
	return nil
}

func requireRole(ctx context.Context, repo *repository.Repository, id uuid.UUID, name string, roles ...entity.UserRole) error {
	user, err := repo.User.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil || !user.IsActive {
		return apperror.Invalid(name, "user not found")
	}
	for _, r := range roles {
		if user.Role == r {
			return nil
		}
	}
	return apperror.Invalid(name, "user has role "+strconv.Quote(string(user.Role)))
}

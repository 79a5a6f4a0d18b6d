package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/dto/request"
	"field-booking/internal/dto/response"
	"field-booking/internal/notify"
	"field-booking/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TransferService interface {
	Request(ctx context.Context, actor entity.Actor, req *request.CreateTransferRequest) (*response.TransferResponse, error)
	Approve(ctx context.Context, actor entity.Actor, id uuid.UUID) (*response.ApproveTransferResponse, error)
	Reject(ctx context.Context, actor entity.Actor, id uuid.UUID) (*response.TransferResponse, error)
	Delete(ctx context.Context, actor entity.Actor, id uuid.UUID) error
	List(ctx context.Context, actor entity.Actor) ([]response.TransferResponse, error)
}

type transferService struct {
	repo      *repository.Repository
	artifacts ArtifactRenderer
	notifier  notify.Dispatcher
	log       *zap.Logger
}

func NewTransferService(
	repo *repository.Repository,
	artifacts ArtifactRenderer,
	notifier notify.Dispatcher,
	log *zap.Logger,
) TransferService {
	return &transferService{
		repo:      repo,
		artifacts: artifacts,
		notifier:  notifier,
		log:       log.With(zap.String("service", "transfer")),
	}
}

func (s *transferService) Request(ctx context.Context, actor entity.Actor, req *request.CreateTransferRequest) (*response.TransferResponse, error) {
	if err := validate(s.log, "RequestTransfer", req); err != nil {
		return nil, err
	}

	bookingID := uuid.MustParse(req.CurrentBookingID)
	fieldID := uuid.MustParse(req.TargetFieldID)
	periodID := uuid.MustParse(req.TargetPeriodID)

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, apperror.Wrap(apperror.ErrNotFound, "booking %s", bookingID)
	}
	if booking.UserID != actor.ID {
		return nil, apperror.Wrap(apperror.ErrForbidden, "booking %s belongs to another user", bookingID)
	}

	field, err := s.repo.Field.FindByID(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("find field: %w", err)
	}
	if field == nil {
		return nil, apperror.Wrap(apperror.ErrNotFound, "field %s", fieldID)
	}
	if _, err := loadPeriodOf(ctx, s.repo, fieldID, periodID, "target_period_id"); err != nil {
		return nil, err
	}

	transfer := &entity.TransferRequest{
		Base:             entity.NewBase(time.Now().UTC()),
		UserID:           actor.ID,
		CurrentBookingID: bookingID,
		TargetFieldID:    fieldID,
		TargetPeriodID:   periodID,
		Status:           entity.TransferStatusPending,
		Notes:            req.Notes,
	}
	if err := s.repo.Transfer.Create(ctx, transfer); err != nil {
		return nil, fmt.Errorf("create transfer request: %w", err)
	}

	s.log.Info("Transfer requested",
		zap.String("transfer_id", transfer.ID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.String("target_field_id", fieldID.String()))

	resp := response.TransferToResponse(transfer)
	return &resp, nil
}

// Approve moves the booking onto the target slot and issues a fresh QR. A
// full target or a QR that cannot be rendered leaves the request Pending.
func (s *transferService) Approve(ctx context.Context, actor entity.Actor, id uuid.UUID) (*response.ApproveTransferResponse, error) {
	var (
		transfer *entity.TransferRequest
		booking  *entity.Booking
		field    *entity.Field
		period   *entity.Period
		oldQR    *string
	)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		transfer, field, err = s.lockPending(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		period, err = loadPeriodOf(ctx, tx, field.ID, transfer.TargetPeriodID, "target_period_id")
		if err != nil {
			return err
		}

		booking, err = tx.Booking.FindByIDForUpdate(ctx, transfer.CurrentBookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return apperror.Wrap(apperror.ErrNotFound, "booking %s", transfer.CurrentBookingID)
		}
		oldQR = booking.QRCodeURL

		field, err = reserveCapacity(ctx, tx, field.ID, period.ID, booking.Date, booking.PlayersCount, &booking.ID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		booking.FieldID = field.ID
		booking.PeriodID = period.ID
		booking.Transferred = true
		booking.QRToken = uuid.NewString()
		booking.UpdatedAt = now
		booking.RefreshStatus(period, now)

		url, err := s.artifacts.BookingQR(booking, field, period)
		if err != nil {
			return fmt.Errorf("render booking qr: %w", err)
		}
		booking.QRCodeURL = &url

		if err := tx.Booking.Update(ctx, booking); err != nil {
			return err
		}
		if err := tx.Transfer.UpdateStatus(ctx, id, entity.TransferStatusApproved); err != nil {
			return mapTransferErr(err, id)
		}
		transfer.Status = entity.TransferStatusApproved
		transfer.UpdatedAt = now
		return nil
	})
	if err != nil {
		if booking != nil && booking.QRCodeURL != nil && booking.QRCodeURL != oldQR {
			s.removeArtifact(*booking.QRCodeURL)
		}
		s.log.Warn("Transfer not approved", zap.Error(err), zap.String("transfer_id", id.String()))
		return nil, err
	}

	s.log.Info("Transfer approved",
		zap.String("transfer_id", id.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.String("actor_id", actor.ID.String()))

	if oldQR != nil {
		s.removeArtifact(*oldQR)
	}
	s.notifyRequester(ctx, notify.TransferApproved, transfer, booking, field, period)

	return &response.ApproveTransferResponse{
		Transfer: response.TransferToResponse(transfer),
		Booking:  response.BookingToResponse(booking, field, period),
	}, nil
}

func (s *transferService) Reject(ctx context.Context, actor entity.Actor, id uuid.UUID) (*response.TransferResponse, error) {
	var (
		transfer *entity.TransferRequest
		field    *entity.Field
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		transfer, field, err = s.lockPending(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if err := tx.Transfer.UpdateStatus(ctx, id, entity.TransferStatusRejected); err != nil {
			return mapTransferErr(err, id)
		}
		transfer.Status = entity.TransferStatusRejected
		transfer.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Transfer rejected",
		zap.String("transfer_id", id.String()),
		zap.String("actor_id", actor.ID.String()))

	period, err := s.repo.Period.FindByID(ctx, transfer.TargetPeriodID)
	if err != nil {
		s.log.Warn("Target period not loaded", zap.Error(err))
	}
	s.notifyRequester(ctx, notify.TransferRejected, transfer, nil, field, period)

	resp := response.TransferToResponse(transfer)
	return &resp, nil
}

func (s *transferService) Delete(ctx context.Context, actor entity.Actor, id uuid.UUID) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		transfer, err := tx.Transfer.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if transfer == nil {
			return apperror.Wrap(apperror.ErrNotFound, "transfer request %s", id)
		}
		if transfer.UserID != actor.ID && !actor.IsAdmin() {
			return apperror.Wrap(apperror.ErrForbidden, "transfer request %s", id)
		}
		if !transfer.IsPending() {
			return apperror.Wrap(apperror.ErrConflict, "transfer request %s is %s", id, transfer.Status)
		}
		return mapTransferErr(tx.Transfer.DeletePending(ctx, id), id)
	})
	if err != nil {
		return err
	}

	s.log.Info("Transfer request deleted",
		zap.String("transfer_id", id.String()),
		zap.String("actor_id", actor.ID.String()))
	return nil
}

func (s *transferService) List(ctx context.Context, actor entity.Actor) ([]response.TransferResponse, error) {
	var filter repository.TransferFilter
	switch actor.Role {
	case entity.RoleAdmin:
	case entity.RoleOwner, entity.RoleOwnerAcademy:
		filter.FieldOwnerID = &actor.ID
	case entity.RoleCoach:
		filter.FieldCoachID = &actor.ID
	default:
		return nil, apperror.Wrap(apperror.ErrForbidden, "role %s cannot list transfer requests", actor.Role)
	}

	transfers, err := s.repo.Transfer.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list transfer requests: %w", err)
	}

	out := make([]response.TransferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, response.TransferToResponse(t))
	}
	return out, nil
}

// lockPending locks the request and checks the actor may decide on it
func (s *transferService) lockPending(ctx context.Context, tx *repository.Repository, actor entity.Actor, id uuid.UUID) (*entity.TransferRequest, *entity.Field, error) {
	transfer, err := tx.Transfer.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if transfer == nil {
		return nil, nil, apperror.Wrap(apperror.ErrNotFound, "transfer request %s", id)
	}
	if !transfer.IsPending() {
		return nil, nil, apperror.Wrap(apperror.ErrConflict, "transfer request %s is %s", id, transfer.Status)
	}

	field, err := tx.Field.FindByID(ctx, transfer.TargetFieldID)
	if err != nil {
		return nil, nil, err
	}
	if field == nil {
		return nil, nil, apperror.Wrap(apperror.ErrNotFound, "field %s", transfer.TargetFieldID)
	}
	if !actor.CanManageField(field) {
		return nil, nil, apperror.Wrap(apperror.ErrForbidden, "field %s is not managed by the caller", field.ID)
	}
	return transfer, field, nil
}

func (s *transferService) notifyRequester(
	ctx context.Context,
	t notify.EventType,
	transfer *entity.TransferRequest,
	booking *entity.Booking,
	field *entity.Field,
	period *entity.Period,
) {
	user, err := s.repo.User.FindByID(ctx, transfer.UserID)
	if err != nil || user == nil {
		s.log.Warn("Transfer requester not loaded", zap.Error(err), zap.String("user_id", transfer.UserID.String()))
		return
	}

	data := map[string]string{"transfer_id": transfer.ID.String()}
	if booking != nil {
		data = bookingEventData(booking, field, period)
		data["transfer_id"] = transfer.ID.String()
	} else {
		if field != nil {
			data["field_name"] = field.Name
		}
		if period != nil {
			data["period"] = period.Label()
		}
	}
	s.notifier.Dispatch(ctx, notify.NewEvent(t, user.Email, user.Name, data))
}

func (s *transferService) removeArtifact(url string) {
	if err := s.artifacts.Remove(url); err != nil {
		s.log.Warn("Failed to remove artifact", zap.Error(err), zap.String("url", url))
	}
}

func mapTransferErr(err error, id uuid.UUID) error {
	if errors.Is(err, repository.ErrTransferNotPending) {
		return apperror.Wrap(apperror.ErrConflict, "transfer request %s is no longer pending", id)
	}
	return err
}

package usecase

import (
	"context"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/gateway/paymob"
	"field-booking/internal/notify"
	"field-booking/pkg/apperror"
	"field-booking/pkg/utils"

	"go.uber.org/zap"
)

// PaymentGateway is the slice of the Paymob client the services drive
type PaymentGateway interface {
	Checkout(ctx context.Context, req paymob.CheckoutRequest) (*paymob.CheckoutResult, error)
	Refund(ctx context.Context, transactionID string, amountCents int64) (*paymob.RefundResult, error)
}

// ArtifactRenderer renders QR images and returns their public URLs
type ArtifactRenderer interface {
	BookingQR(b *entity.Booking, field *entity.Field, period *entity.Period) (string, error)
	ZatcaQR(paymentID int64, tlv string) (string, error)
	Remove(url string) error
}

type Service struct {
	Auth     AuthService
	Field    FieldService
	Booking  BookingService
	Transfer TransferService
	Payment  PaymentService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	gateway PaymentGateway,
	artifacts ArtifactRenderer,
	notifier notify.Dispatcher,
	log *zap.Logger,
) *Service {
	reconciler := NewReconciler(repo, artifacts, config.Zatca, log)
	return &Service{
		Auth:     NewAuthService(repo, config, notifier, log),
		Field:    NewFieldService(repo, log),
		Booking:  NewBookingService(repo, artifacts, notifier, log),
		Transfer: NewTransferService(repo, artifacts, notifier, log),
		Payment:  NewPaymentService(repo, config, gateway, reconciler, notifier, log),
	}
}

// validate runs the struct tags of req and returns a ValidationError
func validate(log *zap.Logger, op string, req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		log.Warn(op+" validation failed", zap.String("errors", utils.FormatValidationErrors(errs)))
		return apperror.Validation(errs)
	}
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/zatca"
	"field-booking/pkg/apperror"
	"field-booking/pkg/utils"

	"go.uber.org/zap"
)

// Outcome is a gateway verdict on a payment, from a webhook, a browser
// redirect or a refund call.
type Outcome struct {
	PaymentID     int64
	Status        entity.PaymentStatus
	TransactionID string
	WebhookData   map[string]any
	RefundDetails map[string]any
}

// Reconciliation reports what Apply did
type Reconciliation struct {
	Payment  *entity.Payment
	Booking  *entity.Booking
	Previous entity.PaymentStatus
	// Duplicate is set when the (transaction, status) pair was seen before
	Duplicate bool
	// Ignored is set when the payment was already in a final state that the
	// outcome may not leave
	Ignored bool
}

// Changed reports whether the payment status moved
func (r *Reconciliation) Changed() bool {
	return !r.Duplicate && !r.Ignored && r.Previous != r.Payment.Status
}

// Reconciler applies gateway outcomes to payments and the subjects they pay
// for. Every Apply is a single transaction.
type Reconciler struct {
	repo      *repository.Repository
	artifacts ArtifactRenderer
	zatca     utils.ZatcaConfig
	log       *zap.Logger
	now       func() time.Time
}

func NewReconciler(repo *repository.Repository, artifacts ArtifactRenderer, zatcaConfig utils.ZatcaConfig, log *zap.Logger) *Reconciler {
	return &Reconciler{
		repo:      repo,
		artifacts: artifacts,
		zatca:     zatcaConfig,
		log:       log.With(zap.String("service", "reconciler")),
		now:       time.Now,
	}
}

// transitionAllowed keeps refunded final and lets paid move only to refunded.
// Pending and failed payments accept anything, so a retried checkout on the
// same payment can still succeed.
func transitionAllowed(from, to entity.PaymentStatus) bool {
	switch from {
	case entity.PaymentStatusRefunded:
		return false
	case entity.PaymentStatusPaid:
		return to == entity.PaymentStatusPaid || to == entity.PaymentStatusRefunded
	default:
		return true
	}
}

func (r *Reconciler) Apply(ctx context.Context, o Outcome) (*Reconciliation, error) {
	return r.ApplyIn(ctx, r.repo, o)
}

// ApplyIn is Apply on a caller's repository. Given a transaction-bound
// repository the outcome joins the caller's transaction.
func (r *Reconciler) ApplyIn(ctx context.Context, repo *repository.Repository, o Outcome) (*Reconciliation, error) {
	if !o.Status.Valid() {
		return nil, apperror.Invalid("status", fmt.Sprintf("unknown payment status %q", o.Status))
	}

	result := &Reconciliation{}
	var zatcaURL string

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		payment, err := tx.Payment.FindByIDForUpdate(ctx, o.PaymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return apperror.Wrap(apperror.ErrNotFound, "payment %d", o.PaymentID)
		}
		result.Payment = payment
		result.Previous = payment.Status

		now := r.now().UTC()
		if o.TransactionID != "" {
			inserted, err := tx.PaymentEvent.MarkProcessed(ctx, &entity.PaymentEvent{
				TransactionID: o.TransactionID,
				Status:        o.Status,
				PaymentID:     payment.ID,
				CreatedAt:     now,
			})
			if err != nil {
				return err
			}
			if !inserted {
				result.Duplicate = true
				return nil
			}
		}

		if !transitionAllowed(payment.Status, o.Status) {
			result.Ignored = true
			return nil
		}

		enteringPaid := payment.Status != entity.PaymentStatusPaid && o.Status == entity.PaymentStatusPaid
		leavingPaid := payment.Status == entity.PaymentStatusPaid && o.Status == entity.PaymentStatusRefunded

		payment.Status = o.Status
		payment.UpdatedAt = now
		if o.TransactionID != "" && o.Status != entity.PaymentStatusRefunded {
			payment.TransactionID = &o.TransactionID
		}
		if o.WebhookData != nil {
			payment.Meta.WebhookData = o.WebhookData
		}
		if o.RefundDetails != nil {
			payment.Meta.RefundDetails = o.RefundDetails
		}
		if enteringPaid {
			zatcaURL = r.attachInvoice(payment)
		}

		if payment.OrderID != nil {
			if err := r.applyToOrder(ctx, tx, payment); err != nil {
				return err
			}
		}
		if payment.BookingID != nil {
			booking, err := r.applyToBooking(ctx, tx, payment, enteringPaid, leavingPaid, now)
			if err != nil {
				return err
			}
			result.Booking = booking
		}

		return tx.Payment.Update(ctx, payment)
	})
	if err != nil {
		if zatcaURL != "" {
			if rmErr := r.artifacts.Remove(zatcaURL); rmErr != nil {
				r.log.Warn("Failed to remove artifact", zap.Error(rmErr), zap.String("url", zatcaURL))
			}
		}
		r.log.Error("Reconciliation rolled back",
			zap.Error(err),
			zap.Int64("payment_id", o.PaymentID),
			zap.String("status", string(o.Status)))
		return nil, err
	}

	switch {
	case result.Duplicate:
		r.log.Info("Duplicate gateway outcome ignored",
			zap.Int64("payment_id", o.PaymentID),
			zap.String("transaction_id", o.TransactionID),
			zap.String("status", string(o.Status)))
	case result.Ignored:
		r.log.Warn("Outcome would leave a final payment status",
			zap.Int64("payment_id", o.PaymentID),
			zap.String("current", string(result.Previous)),
			zap.String("status", string(o.Status)))
	default:
		r.log.Info("Payment reconciled",
			zap.Int64("payment_id", o.PaymentID),
			zap.String("from", string(result.Previous)),
			zap.String("to", string(o.Status)))
	}
	return result, nil
}

func (r *Reconciler) applyToOrder(ctx context.Context, tx *repository.Repository, payment *entity.Payment) error {
	order, err := tx.Order.FindByID(ctx, *payment.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		r.log.Warn("Paid order no longer exists", zap.String("order_id", payment.OrderID.String()))
		return nil
	}
	return tx.Order.UpdateStatus(ctx, order.ID, entity.OrderStatusFor(payment.Status))
}

func (r *Reconciler) applyToBooking(
	ctx context.Context,
	tx *repository.Repository,
	payment *entity.Payment,
	enteringPaid, leavingPaid bool,
	now time.Time,
) (*entity.Booking, error) {
	booking, err := tx.Booking.FindByIDForUpdate(ctx, *payment.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		r.log.Warn("Paid booking no longer exists", zap.String("booking_id", payment.BookingID.String()))
		return nil, nil
	}

	switch {
	case enteringPaid:
		credited := booking.Credit(payment.Amount)
		payment.Meta.Credited = &credited
		if credited.LessThan(payment.Amount) {
			r.log.Warn("Payment exceeds what the booking still owed",
				zap.Int64("payment_id", payment.ID),
				zap.String("booking_id", booking.ID.String()),
				zap.String("amount", payment.Amount.StringFixed(2)),
				zap.String("credited", credited.StringFixed(2)))
		}
		if credited.IsZero() {
			return booking, nil
		}
	case leavingPaid:
		debit := payment.Amount
		if payment.Meta.Credited != nil {
			debit = *payment.Meta.Credited
		}
		if debit.IsZero() {
			return booking, nil
		}
		booking.Debit(debit)
	}

	booking.PaymentStatus = payment.Status
	if payment.TransactionID != nil {
		booking.TransactionID = payment.TransactionID
	}
	merchantOrderID := payment.MerchantOrderID()
	booking.MerchantOrderID = &merchantOrderID
	booking.UpdatedAt = now

	period, err := tx.Period.FindByID(ctx, booking.PeriodID)
	if err != nil {
		return nil, err
	}
	booking.RefreshStatus(period, now)

	if err := tx.Booking.Update(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// attachInvoice renders the tax invoice QR and records it in the payment
// meta. It returns the stored URL so a rollback can remove the file. A
// failure leaves the payment without an invoice.
func (r *Reconciler) attachInvoice(payment *entity.Payment) string {
	invoice := zatca.NewInvoice(r.zatca.SellerName, r.zatca.VATNumber, payment.CreatedAt, payment.Amount)
	tlv, err := zatca.Encode(invoice)
	if err != nil {
		r.log.Warn("Failed to encode tax invoice", zap.Error(err), zap.Int64("payment_id", payment.ID))
		return ""
	}

	vat := invoice.VAT
	payment.Meta.ZatcaQR = tlv
	payment.Meta.VATAmount = &vat
	payment.Meta.SellerName = invoice.SellerName

	url, err := r.artifacts.ZatcaQR(payment.ID, tlv)
	if err != nil {
		r.log.Warn("Failed to render tax invoice qr", zap.Error(err), zap.Int64("payment_id", payment.ID))
		return ""
	}
	payment.Meta.ZatcaQRURL = url
	return url
}

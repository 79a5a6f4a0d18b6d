package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/dto/request"
	"field-booking/internal/dto/response"
	"field-booking/internal/gateway/paymob"
	"field-booking/internal/notify"
	"field-booking/pkg/apperror"
	"field-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const callbackStatusError = "error"

var minPaymentAmount = decimal.NewFromInt(1)

type PaymentService interface {
	Initiate(ctx context.Context, actor entity.Actor, req *request.InitiatePaymentRequest) (*response.InitiatePaymentResponse, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (*response.WebhookResult, error)
	// HandleCallback applies the browser redirect and returns the status
	// page URL to send the browser to.
	HandleCallback(ctx context.Context, query url.Values) string
	Refund(ctx context.Context, actor entity.Actor, id int64) (*response.PaymentResponse, error)
	List(ctx context.Context, actor entity.Actor, req *request.ListPaymentsRequest) (*response.PaginatedResponse[response.PaymentResponse], error)
	Get(ctx context.Context, actor entity.Actor, id int64) (*response.PaymentResponse, error)
}

type paymentService struct {
	repo       *repository.Repository
	config     *utils.Config
	gateway    PaymentGateway
	reconciler *Reconciler
	notifier   notify.Dispatcher
	log        *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	config *utils.Config,
	gateway PaymentGateway,
	reconciler *Reconciler,
	notifier notify.Dispatcher,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:       repo,
		config:     config,
		gateway:    gateway,
		reconciler: reconciler,
		notifier:   notifier,
		log:        log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) Initiate(ctx context.Context, actor entity.Actor, req *request.InitiatePaymentRequest) (*response.InitiatePaymentResponse, error) {
	if err := validate(s.log, "InitiatePayment", req); err != nil {
		return nil, err
	}
	if req.Amount.LessThan(minPaymentAmount) {
		return nil, apperror.Invalid("amount", "must be at least 1")
	}
	if (req.OrderID == "") == (req.BookingID == "") {
		return nil, apperror.Validation(map[string]string{
			"order_id":   "exactly one of order_id or booking_id is required",
			"booking_id": "exactly one of order_id or booking_id is required",
		})
	}

	payment := &entity.Payment{
		UserID:   actor.ID,
		Gateway:  entity.GatewayPaymob,
		Amount:   req.Amount.Round(2),
		Currency: s.config.Paymob.Currency,
		Status:   entity.PaymentStatusPending,
	}

	var billing paymob.BillingData
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		billing, err = s.resolveSubject(ctx, tx, actor, req, payment)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		payment.CreatedAt = now
		payment.UpdatedAt = now
		if err := tx.Payment.Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	checkoutCtx, cancel := s.gatewayContext(ctx)
	defer cancel()

	result, err := s.gateway.Checkout(checkoutCtx, paymob.CheckoutRequest{
		MerchantOrderID: payment.MerchantOrderID(),
		AmountCents:     payment.AmountCents(),
		Currency:        payment.Currency,
		Billing:         billing,
	})
	if err != nil {
		s.markFailed(ctx, payment, err)
		if !errors.Is(err, apperror.ErrGateway) {
			err = &apperror.GatewayError{Op: "paymob checkout", Err: err}
		}
		return nil, err
	}

	payment.GatewayReference = &result.GatewayOrderID
	payment.UpdatedAt = time.Now().UTC()
	if err := s.repo.Payment.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("store gateway reference: %w", err)
	}

	s.log.Info("Payment initiated",
		zap.Int64("payment_id", payment.ID),
		zap.String("gateway_reference", result.GatewayOrderID),
		zap.String("amount", payment.Amount.StringFixed(2)))

	return &response.InitiatePaymentResponse{
		PaymentID:   payment.ID,
		CheckoutURL: result.CheckoutURL,
	}, nil
}

// resolveSubject checks the paid-for order or booking and returns the
// billing details sent to the gateway. A booking payment may not exceed what
// is still owed once open checkouts are counted.
func (s *paymentService) resolveSubject(ctx context.Context, tx *repository.Repository, actor entity.Actor, req *request.InitiatePaymentRequest, payment *entity.Payment) (paymob.BillingData, error) {
	if req.BookingID != "" {
		id := uuid.MustParse(req.BookingID)
		booking, err := tx.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return paymob.BillingData{}, fmt.Errorf("find booking: %w", err)
		}
		if booking == nil {
			return paymob.BillingData{}, apperror.Wrap(apperror.ErrNotFound, "booking %s", id)
		}
		if booking.UserID != actor.ID && !actor.IsAdmin() {
			return paymob.BillingData{}, apperror.Wrap(apperror.ErrForbidden, "booking %s belongs to another user", id)
		}

		pending, err := tx.Payment.SumPendingForBooking(ctx, id, time.Now().UTC().Add(-paymob.PaymentKeyTTL))
		if err != nil {
			return paymob.BillingData{}, fmt.Errorf("sum pending payments: %w", err)
		}
		owed := booking.Remaining.Sub(pending)
		if !owed.IsPositive() {
			return paymob.BillingData{}, apperror.Wrap(apperror.ErrConflict, "booking %s has nothing left to pay", id)
		}
		if payment.Amount.GreaterThan(owed) {
			return paymob.BillingData{}, apperror.Invalid("amount", fmt.Sprintf("must not exceed the %s still owed", owed.StringFixed(2)))
		}

		payment.BookingID = &id
		return paymob.NewBillingData(booking.Name, booking.Email, booking.Phone), nil
	}

	id := uuid.MustParse(req.OrderID)
	order, err := tx.Order.FindByID(ctx, id)
	if err != nil {
		return paymob.BillingData{}, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return paymob.BillingData{}, apperror.Wrap(apperror.ErrNotFound, "order %s", id)
	}
	if order.UserID != actor.ID && !actor.IsAdmin() {
		return paymob.BillingData{}, apperror.Wrap(apperror.ErrForbidden, "order %s belongs to another user", id)
	}
	payment.OrderID = &id

	user, err := tx.User.FindByID(ctx, actor.ID)
	if err != nil {
		return paymob.BillingData{}, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return paymob.NewBillingData("", "", ""), nil
	}
	phone := ""
	if user.Phone != nil {
		phone = *user.Phone
	}
	return paymob.NewBillingData(user.Name, user.Email, phone), nil
}

func (s *paymentService) markFailed(ctx context.Context, payment *entity.Payment, cause error) {
	s.log.Error("Checkout failed",
		zap.Error(cause),
		zap.Int64("payment_id", payment.ID))

	payment.Status = entity.PaymentStatusFailed
	payment.UpdatedAt = time.Now().UTC()
	if err := s.repo.Payment.Update(context.WithoutCancel(ctx), payment); err != nil {
		s.log.Error("Failed to mark payment failed", zap.Error(err), zap.Int64("payment_id", payment.ID))
	}
}

func (s *paymentService) HandleWebhook(ctx context.Context, body []byte, signature string) (*response.WebhookResult, error) {
	n, err := paymob.ParseNotification(body)
	if err != nil {
		s.log.Warn("Malformed webhook", zap.Error(err))
		return nil, apperror.Invalid("body", err.Error())
	}
	t := &n.Transaction

	if s.config.Paymob.SkipHMAC {
		s.log.Warn("Webhook signature check skipped", zap.String("transaction_id", t.ID.String()))
	} else if !paymob.Verify(t, s.config.Paymob.HMACSecret, signature) {
		s.log.Warn("Webhook signature mismatch",
			zap.String("transaction_id", t.ID.String()),
			zap.String("merchant_order_id", t.Order.MerchantOrderID))
		return nil, apperror.Wrap(apperror.ErrSignature, "webhook hmac mismatch")
	}

	payment, err := s.resolvePayment(ctx, t.Order.MerchantOrderID, t.Order.ID.String())
	if err != nil {
		return nil, err
	}

	rec, err := s.reconciler.Apply(ctx, Outcome{
		PaymentID:     payment.ID,
		Status:        t.Status(),
		TransactionID: t.ID.String(),
		WebhookData:   n.Raw,
	})
	if err != nil {
		return nil, err
	}
	s.notifyOutcome(ctx, rec)

	return &response.WebhookResult{
		PaymentID: rec.Payment.ID,
		Status:    rec.Payment.Status,
		Duplicate: rec.Duplicate,
	}, nil
}

// resolvePayment finds the payment by PAYMENT_<id>, then by the gateway's
// order id
func (s *paymentService) resolvePayment(ctx context.Context, merchantOrderID, gatewayOrderID string) (*entity.Payment, error) {
	if id, err := entity.ParseMerchantOrderID(merchantOrderID); err == nil {
		payment, err := s.repo.Payment.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("find payment: %w", err)
		}
		if payment != nil {
			return payment, nil
		}
	}

	if gatewayOrderID != "" {
		payment, err := s.repo.Payment.FindByGatewayReference(ctx, gatewayOrderID)
		if err != nil {
			return nil, fmt.Errorf("find payment by reference: %w", err)
		}
		if payment != nil {
			return payment, nil
		}
	}

	s.log.Warn("Gateway notification for unknown payment",
		zap.String("merchant_order_id", merchantOrderID),
		zap.String("gateway_order_id", gatewayOrderID))
	return nil, apperror.Wrap(apperror.ErrNotFound, "payment for merchant order %q", merchantOrderID)
}

func (s *paymentService) HandleCallback(ctx context.Context, query url.Values) string {
	merchantOrderID := query.Get("merchant_order_id")
	id, err := entity.ParseMerchantOrderID(merchantOrderID)
	if err != nil {
		s.log.Warn("Callback with bad merchant order id", zap.String("merchant_order_id", merchantOrderID))
		return s.statusPageURL("", callbackStatusError)
	}

	payment, err := s.repo.Payment.FindByID(ctx, id)
	if err != nil || payment == nil {
		s.log.Warn("Callback for unknown payment", zap.Error(err), zap.Int64("payment_id", id))
		return s.statusPageURL(strconv.FormatInt(id, 10), callbackStatusError)
	}
	paymentID := strconv.FormatInt(payment.ID, 10)

	if payment.Status == entity.PaymentStatusPaid || payment.Status == entity.PaymentStatusRefunded {
		return s.statusPageURL(paymentID, string(payment.Status))
	}

	if !s.config.Paymob.SkipHMAC {
		t := paymob.TransactionFromQuery(query)
		if !paymob.Verify(t, s.config.Paymob.HMACSecret, query.Get("hmac")) {
			s.log.Warn("Callback signature mismatch", zap.Int64("payment_id", payment.ID))
			return s.statusPageURL(paymentID, string(payment.Status))
		}
	}

	status := entity.PaymentStatusFailed
	if query.Get("success") == "true" {
		status = entity.PaymentStatusPaid
	}

	rec, err := s.reconciler.Apply(ctx, Outcome{
		PaymentID:     payment.ID,
		Status:        status,
		TransactionID: query.Get("id"),
	})
	if err != nil {
		return s.statusPageURL(paymentID, callbackStatusError)
	}
	s.notifyOutcome(ctx, rec)

	return s.statusPageURL(paymentID, string(rec.Payment.Status))
}

func (s *paymentService) statusPageURL(id, status string) string {
	q := url.Values{}
	if id != "" {
		q.Set("id", id)
	}
	q.Set("status", status)

	base, err := url.Parse(s.config.Frontend.PaymentStatusURL)
	if err != nil {
		return s.config.Frontend.PaymentStatusURL + "?" + q.Encode()
	}
	existing := base.Query()
	for k, v := range q {
		existing[k] = v
	}
	base.RawQuery = existing.Encode()
	return base.String()
}

// Refund holds the payment row lock across the gateway call. A second
// refund of the same payment waits, then finds it refunded.
func (s *paymentService) Refund(ctx context.Context, actor entity.Actor, id int64) (*response.PaymentResponse, error) {
	if !actor.CanManagePayments() {
		return nil, apperror.Wrap(apperror.ErrForbidden, "role %s cannot manage payments", actor.Role)
	}

	var rec *Reconciliation
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		payment, err := tx.Payment.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("find payment: %w", err)
		}
		if err := checkVisible(actor, payment, id); err != nil {
			return err
		}
		if payment.Status != entity.PaymentStatusPaid {
			return apperror.Wrap(apperror.ErrConflict, "payment %d is %s, only paid payments can be refunded", id, payment.Status)
		}
		if payment.TransactionID == nil || *payment.TransactionID == "" {
			return apperror.Wrap(apperror.ErrConflict, "payment %d has no captured transaction", id)
		}

		refundCtx, cancel := s.gatewayContext(ctx)
		defer cancel()

		result, err := s.gateway.Refund(refundCtx, *payment.TransactionID, payment.AmountCents())
		if err != nil {
			s.log.Error("Refund rejected by gateway", zap.Error(err), zap.Int64("payment_id", id))
			if !errors.Is(err, apperror.ErrGateway) {
				err = &apperror.GatewayError{Op: "paymob refund", Err: err}
			}
			return err
		}

		rec, err = s.reconciler.ApplyIn(ctx, tx, Outcome{
			PaymentID:     id,
			Status:        entity.PaymentStatusRefunded,
			TransactionID: result.TransactionID,
			RefundDetails: result.Raw,
		})
		if err != nil {
			s.log.Error("Refund accepted by gateway but not recorded",
				zap.Error(err),
				zap.Int64("payment_id", id),
				zap.String("refund_transaction_id", result.TransactionID))
			return err
		}
		if rec.Ignored || rec.Duplicate {
			return apperror.Wrap(apperror.ErrConflict, "payment %d refund was not applied", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Payment refunded",
		zap.Int64("payment_id", id),
		zap.String("actor_id", actor.ID.String()))
	s.notifyOutcome(ctx, rec)

	resp := response.PaymentToResponse(rec.Payment)
	return &resp, nil
}

func (s *paymentService) List(ctx context.Context, actor entity.Actor, req *request.ListPaymentsRequest) (*response.PaginatedResponse[response.PaymentResponse], error) {
	if !actor.CanManagePayments() {
		return nil, apperror.Wrap(apperror.ErrForbidden, "role %s cannot list payments", actor.Role)
	}
	if err := validate(s.log, "ListPayments", req); err != nil {
		return nil, err
	}

	filter := repository.PaymentFilter{Status: entity.PaymentStatus(req.Status)}
	if !actor.IsAdmin() {
		filter.UserID = &actor.ID
	}

	total, err := s.repo.Payment.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}
	payments, err := s.repo.Payment.List(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	data := make([]response.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		data = append(data, response.PaymentToResponse(p))
	}
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *paymentService) Get(ctx context.Context, actor entity.Actor, id int64) (*response.PaymentResponse, error) {
	payment, err := s.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := response.PaymentToResponse(payment)
	return &resp, nil
}

// findVisible loads a payment the actor may manage: admins see every
// payment, owners only their own
func (s *paymentService) findVisible(ctx context.Context, actor entity.Actor, id int64) (*entity.Payment, error) {
	if !actor.CanManagePayments() {
		return nil, apperror.Wrap(apperror.ErrForbidden, "role %s cannot manage payments", actor.Role)
	}
	payment, err := s.repo.Payment.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if err := checkVisible(actor, payment, id); err != nil {
		return nil, err
	}
	return payment, nil
}

func checkVisible(actor entity.Actor, payment *entity.Payment, id int64) error {
	if payment == nil {
		return apperror.Wrap(apperror.ErrNotFound, "payment %d", id)
	}
	if !actor.IsAdmin() && payment.UserID != actor.ID {
		return apperror.Wrap(apperror.ErrForbidden, "payment %d", id)
	}
	return nil
}

func (s *paymentService) gatewayContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.config.Paymob.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// notifyOutcome tells the payer about a payment that just became paid or
// refunded
func (s *paymentService) notifyOutcome(ctx context.Context, rec *Reconciliation) {
	if !rec.Changed() {
		return
	}

	var t notify.EventType
	switch rec.Payment.Status {
	case entity.PaymentStatusPaid:
		t = notify.PaymentPaid
	case entity.PaymentStatusRefunded:
		t = notify.PaymentRefunded
	default:
		return
	}

	user, err := s.repo.User.FindByID(ctx, rec.Payment.UserID)
	if err != nil || user == nil {
		s.log.Warn("Payer not loaded", zap.Error(err), zap.Int64("payment_id", rec.Payment.ID))
		return
	}
	s.notifier.Dispatch(ctx, notify.NewEvent(t, user.Email, user.Name, map[string]string{
		"payment_id":        strconv.FormatInt(rec.Payment.ID, 10),
		"amount":            rec.Payment.Amount.StringFixed(2),
		"currency":          rec.Payment.Currency,
		"merchant_order_id": rec.Payment.MerchantOrderID(),
	}))
}

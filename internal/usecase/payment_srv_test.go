package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/dto/request"
	"field-booking/internal/dto/response"
	"field-booking/internal/gateway/paymob"
	"field-booking/internal/notify"
	"field-booking/internal/zatca"
	"field-booking/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type paymentSetup struct {
	f       *fixture
	player  entity.Actor
	owner   entity.Actor
	booking *response.BookingResponse
}

// newPaymentSetup creates a booking of 5 players at 23, a total of 115
func newPaymentSetup(t *testing.T) *paymentSetup {
	t.Helper()
	f := newFixture(t)
	s := &paymentSetup{
		f:      f,
		player: f.user(t, entity.RoleUser),
		owner:  f.user(t, entity.RoleOwner),
	}
	field, period := f.field(t, s.owner, 10, "23")

	var err error
	s.booking, err = f.svc.Booking.Create(context.Background(), s.player, bookingReq(field, period, 5, tomorrow()))
	require.NoError(t, err)
	return s
}

func (s *paymentSetup) initiate(t *testing.T, amount string) int64 {
	t.Helper()
	s.f.gateway.On("Checkout", mock.Anything, mock.Anything).Return(&paymob.CheckoutResult{
		GatewayOrderID: "go-" + amount,
		CheckoutURL:    "https://pay.test/iframe?payment_token=key",
	}, nil).Once()

	resp, err := s.f.svc.Payment.Initiate(context.Background(), s.player, &request.InitiatePaymentRequest{
		Amount:    dec(amount),
		BookingID: s.booking.ID,
	})
	require.NoError(t, err)
	return resp.PaymentID
}

func (s *paymentSetup) payment(t *testing.T, id int64) *entity.Payment {
	t.Helper()
	p, err := s.f.repo.Payment.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

// webhook builds a signed transaction notification
func webhook(t *testing.T, secret string, paymentID, txID int64, amountCents int64, flags map[string]bool) ([]byte, string) {
	t.Helper()

	obj := map[string]any{
		"id":                     txID,
		"pending":                false,
		"amount_cents":           amountCents,
		"success":                true,
		"is_auth":                false,
		"is_capture":             false,
		"is_standalone_payment":  true,
		"is_voided":              false,
		"is_refunded":            false,
		"is_refund":              false,
		"is_void":                false,
		"is_3d_secure":           true,
		"integration_id":         4097558,
		"has_parent_transaction": false,
		"order": map[string]any{
			"id":                217503754,
			"merchant_order_id": "PAYMENT_" + strconv.FormatInt(paymentID, 10),
		},
		"created_at":    "2026-03-10T12:00:00.000000",
		"currency":      "SAR",
		"error_occured": false,
		"owner":         302852,
		"source_data":   map[string]any{"type": "card", "pan": "2346", "sub_type": "MasterCard"},
	}
	for k, v := range flags {
		obj[k] = v
	}

	body, err := json.Marshal(map[string]any{"type": "TRANSACTION", "obj": obj})
	require.NoError(t, err)
	n, err := paymob.ParseNotification(body)
	require.NoError(t, err)
	return body, paymob.Sign(&n.Transaction, secret)
}

func TestPaymentInitiate(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	s.f.gateway.On("Checkout", mock.Anything, mock.MatchedBy(func(req paymob.CheckoutRequest) bool {
		return req.AmountCents == 11500 &&
			req.Currency == "SAR" &&
			req.Billing.Email == "sara@example.com" &&
			req.MerchantOrderID != ""
	})).Return(&paymob.CheckoutResult{
		GatewayOrderID: "217503754",
		CheckoutURL:    "https://ksa.paymob.test/api/acceptance/iframes/1?payment_token=abc",
	}, nil).Once()

	resp, err := s.f.svc.Payment.Initiate(context.Background(), s.player, &request.InitiatePaymentRequest{
		Amount:    dec("115"),
		BookingID: s.booking.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://ksa.paymob.test/api/acceptance/iframes/1?payment_token=abc", resp.CheckoutURL)

	p := s.payment(t, resp.PaymentID)
	assert.Equal(t, entity.PaymentStatusPending, p.Status)
	require.NotNil(t, p.GatewayReference)
	assert.Equal(t, "217503754", *p.GatewayReference)
	require.NotNil(t, p.BookingID)
	assert.Equal(t, s.booking.ID, p.BookingID.String())
	assert.Nil(t, p.OrderID)
	s.f.gateway.AssertExpectations(t)
}

func TestPaymentInitiate_GatewayFailureMarksFailed(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	s.f.gateway.On("Checkout", mock.Anything, mock.Anything).
		Return(nil, &apperror.GatewayError{Op: "paymob auth", StatusCode: 401, Body: `{"detail":"bad key"}`}).Once()

	_, err := s.f.svc.Payment.Initiate(context.Background(), s.player, &request.InitiatePaymentRequest{
		Amount:    dec("115"),
		BookingID: s.booking.ID,
	})
	require.ErrorIs(t, err, apperror.ErrGateway)

	var gwErr *apperror.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 401, gwErr.StatusCode)

	payments, err := s.f.repo.Payment.List(context.Background(), repository.PaymentFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, entity.PaymentStatusFailed, payments[0].Status)
}

func TestPaymentInitiate_Validation(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	orderID := uuid.NewString()

	tests := []struct {
		name    string
		req     *request.InitiatePaymentRequest
		wantErr error
	}{
		{"no subject", &request.InitiatePaymentRequest{Amount: dec("10")}, apperror.ErrValidation},
		{"both subjects", &request.InitiatePaymentRequest{Amount: dec("10"), BookingID: s.booking.ID, OrderID: orderID}, apperror.ErrValidation},
		{"amount below one", &request.InitiatePaymentRequest{Amount: dec("0.50"), BookingID: s.booking.ID}, apperror.ErrValidation},
		{"unknown order", &request.InitiatePaymentRequest{Amount: dec("10"), OrderID: orderID}, apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.f.svc.Payment.Initiate(context.Background(), s.player, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	s.f.gateway.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
}

func TestPaymentInitiate_CappedAtWhatIsOwed(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	ctx := context.Background()

	_, err := s.f.svc.Payment.Initiate(ctx, s.player, &request.InitiatePaymentRequest{
		Amount:    dec("500"),
		BookingID: s.booking.ID,
	})
	require.ErrorIs(t, err, apperror.ErrValidation)

	s.initiate(t, "100")

	_, err = s.f.svc.Payment.Initiate(ctx, s.player, &request.InitiatePaymentRequest{
		Amount:    dec("16"),
		BookingID: s.booking.ID,
	})
	require.ErrorIs(t, err, apperror.ErrValidation, "an open checkout of 100 leaves 15 owed")

	s.initiate(t, "15")

	_, err = s.f.svc.Payment.Initiate(ctx, s.player, &request.InitiatePaymentRequest{
		Amount:    dec("1"),
		BookingID: s.booking.ID,
	})
	require.ErrorIs(t, err, apperror.ErrConflict)

	s.f.gateway.AssertNumberOfCalls(t, "Checkout", 2)
}

func TestPaymentWebhook_LatePaymentDoesNotOverpay(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	ctx := context.Background()

	first := s.initiate(t, "115")
	body, sig := webhook(t, "test-hmac", first, 1, 11500, map[string]bool{"success": false})
	_, err := s.f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	require.Equal(t, entity.PaymentStatusFailed, s.payment(t, first).Status)

	second := s.initiate(t, "115")
	body, sig = webhook(t, "test-hmac", second, 2, 11500, nil)
	_, err = s.f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)

	// the first checkout is captured after all
	body, sig = webhook(t, "test-hmac", first, 3, 11500, nil)
	res, err := s.f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPaid, res.Status)

	b := s.f.booking(t, s.booking.ID)
	assert.True(t, dec("115").Equal(b.Paid))
	assert.True(t, b.Remaining.IsZero())
	assert.True(t, b.Paid.Add(b.Remaining).Equal(b.Price))
	require.NotNil(t, b.TransactionID)
	assert.Equal(t, "2", *b.TransactionID)

	late := s.payment(t, first)
	require.NotNil(t, late.Meta.Credited)
	assert.True(t, late.Meta.Credited.IsZero())

	// refunding the surplus payment leaves the booking paid
	s.f.gateway.On("Refund", mock.Anything, "3", int64(11500)).
		Return(&paymob.RefundResult{TransactionID: "4"}, nil).Once()
	_, err = s.f.svc.Payment.Refund(ctx, s.f.user(t, entity.RoleAdmin), first)
	require.NoError(t, err)

	b = s.f.booking(t, s.booking.ID)
	assert.True(t, dec("115").Equal(b.Paid))
	assert.Equal(t, entity.PaymentStatusPaid, b.PaymentStatus)
}

func TestPaymentWebhook_PaidCreditsBookingOnce(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	id := s.initiate(t, "115")
	body, sig := webhook(t, "test-hmac", id, 9001, 11500, nil)
	ctx := context.Background()

	res, err := s.f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPaid, res.Status)
	assert.False(t, res.Duplicate)

	b := s.f.booking(t, s.booking.ID)
	assert.True(t, dec("115").Equal(b.Paid))
	assert.True(t, b.Remaining.IsZero())
	assert.Equal(t, entity.PaymentStatusPaid, b.PaymentStatus)
	require.NotNil(t, b.TransactionID)
	assert.Equal(t, "9001", *b.TransactionID)
	require.NotNil(t, b.MerchantOrderID)
	assert.Equal(t, "PAYMENT_"+strconv.FormatInt(id, 10), *b.MerchantOrderID)

	p := s.payment(t, id)
	require.NotNil(t, p.Meta.VATAmount)
	assert.True(t, dec("15").Equal(*p.Meta.VATAmount))
	assert.Equal(t, "Field Co", p.Meta.SellerName)
	assert.NotEmpty(t, p.Meta.WebhookData)
	assert.True(t, s.f.stored(t, p.Meta.ZatcaQRURL))

	inv, err := zatca.DecodeInvoice(p.Meta.ZatcaQR)
	require.NoError(t, err)
	assert.Equal(t, "300000000000003", inv.VATNumber)
	assert.True(t, dec("115").Equal(inv.Total))

	// replay
	res, err = s.f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	b = s.f.booking(t, s.booking.ID)
	assert.True(t, dec("115").Equal(b.Paid))

	paid := 0
	for _, typ := range s.f.notifier.types() {
		if typ == notify.PaymentPaid {
			paid++
		}
	}
	assert.Equal(t, 1, paid)
}

func TestPaymentWebhook_PartialPaymentsAccumulate(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	ctx := context.Background()

	first := s.initiate(t, "40")
	second := s.initiate(t, "75")

	body, sig := webhook(t, "test-hmac", first, 1, 4000, nil)
	_, err := s.f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)

	b := s.f.booking(t, s.booking.ID)
	assert.True(t, dec("40").Equal(b.Paid))
	assert.True(t, dec("75").Equal(b.Remaining))

	body, sig = webhook(t, "test-hmac", second, 2, 7500, nil)
	_, err = s.f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)

	b = s.f.booking(t, s.booking.ID)
	assert.True(t, dec("115").Equal(b.Paid))
	assert.True(t, b.Remaining.IsZero())
	assert.True(t, b.Paid.Add(b.Remaining).Equal(b.Price))
}

func TestPaymentWebhook_StatusPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		flags map[string]bool
		want  entity.PaymentStatus
	}{
		{"success", nil, entity.PaymentStatusPaid},
		{"pending", map[string]bool{"pending": true, "success": false}, entity.PaymentStatusPending},
		{"declined", map[string]bool{"success": false}, entity.PaymentStatusFailed},
		{"error beats success", map[string]bool{"error_occured": true}, entity.PaymentStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newPaymentSetup(t)
			id := s.initiate(t, "115")
			body, sig := webhook(t, "test-hmac", id, 42, 11500, tt.flags)

			res, err := s.f.svc.Payment.HandleWebhook(context.Background(), body, sig)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Status)
			assert.Equal(t, tt.want, s.payment(t, id).Status)
		})
	}
}

func TestPaymentWebhook_Rejections(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	id := s.initiate(t, "115")
	ctx := context.Background()

	body, sig := webhook(t, "test-hmac", id, 9001, 11500, nil)
	tampered, _ := webhook(t, "test-hmac", id, 9001, 11501, nil)
	unknown, unknownSig := webhook(t, "test-hmac", id+100, 9002, 11500, nil)

	_, err := s.f.svc.Payment.HandleWebhook(ctx, tampered, sig)
	assert.ErrorIs(t, err, apperror.ErrSignature)

	_, err = s.f.svc.Payment.HandleWebhook(ctx, body, "")
	assert.ErrorIs(t, err, apperror.ErrSignature)

	_, err = s.f.svc.Payment.HandleWebhook(ctx, []byte(`{"type":"TRANSACTION"}`), sig)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = s.f.svc.Payment.HandleWebhook(ctx, unknown, unknownSig)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Equal(t, entity.PaymentStatusPending, s.payment(t, id).Status)
	assert.True(t, s.f.booking(t, s.booking.ID).Paid.IsZero())
}

func TestPaymentWebhook_FallsBackToGatewayReference(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	id := s.initiate(t, "115")

	p := s.payment(t, id)
	ref := "217503754"
	p.GatewayReference = &ref
	require.NoError(t, s.f.repo.Payment.Update(context.Background(), p))

	body, sig := webhook(t, "test-hmac", 0, 9001, 11500, nil)
	res, err := s.f.svc.Payment.HandleWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, id, res.PaymentID)
}

func TestPaymentWebhook_FailureRollsBackEverything(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	id := s.initiate(t, "115")
	body, sig := webhook(t, "test-hmac", id, 9001, 11500, nil)
	ctx := context.Background()

	s.f.store.BeforeBookingUpdate = func(*entity.Booking) error { return errors.New("disk full") }
	_, err := s.f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.Error(t, err)

	p := s.payment(t, id)
	assert.Equal(t, entity.PaymentStatusPending, p.Status)
	assert.Empty(t, p.Meta.ZatcaQRURL)
	assert.True(t, s.f.booking(t, s.booking.ID).Paid.IsZero())

	// the gateway retries and the retry is not mistaken for a replay
	s.f.store.BeforeBookingUpdate = nil
	res, err := s.f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.True(t, dec("115").Equal(s.f.booking(t, s.booking.ID).Paid))
}

func TestPaymentWebhook_OrderSubject(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	player := f.user(t, entity.RoleUser)
	order := &entity.Order{
		Base:       entity.NewBase(time.Now().UTC()),
		UserID:     player.ID,
		TotalPrice: dec("50"),
		Status:     entity.OrderStatusPending,
	}
	f.store.PutOrder(order)

	f.gateway.On("Checkout", mock.Anything, mock.Anything).
		Return(&paymob.CheckoutResult{GatewayOrderID: "1", CheckoutURL: "https://pay.test"}, nil)

	ctx := context.Background()
	resp, err := f.svc.Payment.Initiate(ctx, player, &request.InitiatePaymentRequest{
		Amount:  dec("50"),
		OrderID: order.ID.String(),
	})
	require.NoError(t, err)

	body, sig := webhook(t, "test-hmac", resp.PaymentID, 77, 5000, map[string]bool{"success": false})
	_, err = f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)

	got, err := f.repo.Order.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, got.Status)

	body, sig = webhook(t, "test-hmac", resp.PaymentID, 78, 5000, nil)
	_, err = f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)

	got, err = f.repo.Order.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPaid, got.Status)
}

func TestPaymentRefund(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	id := s.initiate(t, "115")
	ctx := context.Background()
	admin := s.f.user(t, entity.RoleAdmin)

	_, err := s.f.svc.Payment.Refund(ctx, admin, id)
	require.ErrorIs(t, err, apperror.ErrConflict, "pending payments cannot be refunded")

	body, sig := webhook(t, "test-hmac", id, 9001, 11500, nil)
	_, err = s.f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)

	s.f.gateway.On("Refund", mock.Anything, "9001", int64(11500)).
		Return(&paymob.RefundResult{TransactionID: "9100", Raw: map[string]any{"id": 9100.0, "success": true}}, nil).Once()

	resp, err := s.f.svc.Payment.Refund(ctx, admin, id)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusRefunded, resp.Status)
	assert.NotEmpty(t, resp.Meta.RefundDetails)

	b := s.f.booking(t, s.booking.ID)
	assert.True(t, b.Paid.IsZero())
	assert.True(t, dec("115").Equal(b.Remaining))
	assert.Equal(t, entity.PaymentStatusRefunded, b.PaymentStatus)

	// the gateway's own refund notification arrives afterwards
	refundBody, refundSig := webhook(t, "test-hmac", id, 9100, 11500, map[string]bool{"is_refund": true})
	res, err := s.f.svc.Payment.HandleWebhook(ctx, refundBody, refundSig)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.True(t, s.f.booking(t, s.booking.ID).Paid.IsZero())

	// a late success notification cannot revive a refunded payment
	late, lateSig := webhook(t, "test-hmac", id, 9200, 11500, nil)
	res, err = s.f.svc.Payment.HandleWebhook(ctx, late, lateSig)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusRefunded, res.Status)
	assert.True(t, s.f.booking(t, s.booking.ID).Paid.IsZero())

	assert.Contains(t, s.f.notifier.types(), notify.PaymentRefunded)
	s.f.gateway.AssertExpectations(t)
}

func TestPaymentRefund_GatewayFailureKeepsPaid(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	id := s.initiate(t, "115")
	ctx := context.Background()

	body, sig := webhook(t, "test-hmac", id, 9001, 11500, nil)
	_, err := s.f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)

	s.f.gateway.On("Refund", mock.Anything, "9001", int64(11500)).
		Return(nil, &apperror.GatewayError{Op: "paymob refund", StatusCode: 400, Body: `{"success":false}`}).Once()

	_, err = s.f.svc.Payment.Refund(ctx, s.f.user(t, entity.RoleAdmin), id)
	require.ErrorIs(t, err, apperror.ErrGateway)

	assert.Equal(t, entity.PaymentStatusPaid, s.payment(t, id).Status)
	assert.True(t, dec("115").Equal(s.f.booking(t, s.booking.ID).Paid))
}

func TestPaymentRefund_ConcurrentRefundsReachGatewayOnce(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	id := s.initiate(t, "115")
	ctx := context.Background()
	admin := s.f.user(t, entity.RoleAdmin)

	body, sig := webhook(t, "test-hmac", id, 9001, 11500, nil)
	_, err := s.f.svc.Payment.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)

	s.f.gateway.On("Refund", mock.Anything, "9001", int64(11500)).
		After(50*time.Millisecond).
		Return(&paymob.RefundResult{TransactionID: "9100"}, nil)

	const workers = 2
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.f.svc.Payment.Refund(ctx, admin, id)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperror.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)
	s.f.gateway.AssertNumberOfCalls(t, "Refund", 1)

	b := s.f.booking(t, s.booking.ID)
	assert.True(t, b.Paid.IsZero())
	assert.True(t, dec("115").Equal(b.Remaining))
}

func TestPaymentAccess(t *testing.T) {
	t.Parallel()

	s := newPaymentSetup(t)
	id := s.initiate(t, "115")
	ctx := context.Background()

	admin := s.f.user(t, entity.RoleAdmin)
	owner := s.f.user(t, entity.RoleOwnerAcademy)

	_, err := s.f.svc.Payment.Get(ctx, admin, id)
	assert.NoError(t, err)

	_, err = s.f.svc.Payment.Get(ctx, owner, id)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = s.f.svc.Payment.Get(ctx, s.player, id)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = s.f.svc.Payment.Refund(ctx, s.player, id)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	list, err := s.f.svc.Payment.List(ctx, admin, &request.ListPaymentsRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
		Status:           "pending",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Pagination.Total)

	list, err = s.f.svc.Payment.List(ctx, owner, &request.ListPaymentsRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
	})
	require.NoError(t, err)
	assert.Empty(t, list.Data)

	_, err = s.f.svc.Payment.List(ctx, s.player, &request.ListPaymentsRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestPaymentCallback(t *testing.T) {
	t.Parallel()

	callbackQuery := func(t *testing.T, paymentID int64, success bool, secret string) url.Values {
		t.Helper()
		flags := map[string]bool{"success": success}
		body, _ := webhook(t, secret, paymentID, 5150, 11500, flags)
		n, err := paymob.ParseNotification(body)
		require.NoError(t, err)
		tx := n.Transaction

		q := url.Values{}
		q.Set("id", tx.ID.String())
		q.Set("amount_cents", tx.AmountCents.String())
		q.Set("created_at", tx.CreatedAt)
		q.Set("currency", tx.Currency)
		q.Set("integration_id", tx.IntegrationID.String())
		q.Set("owner", tx.Owner.String())
		q.Set("order", tx.Order.ID.String())
		q.Set("merchant_order_id", tx.Order.MerchantOrderID)
		q.Set("source_data.pan", tx.SourceData.Pan)
		q.Set("source_data.sub_type", tx.SourceData.SubType)
		q.Set("source_data.type", tx.SourceData.Type)
		for k, v := range map[string]bool{
			"error_occured":          tx.ErrorOccured,
			"has_parent_transaction": tx.HasParentTransaction,
			"is_3d_secure":           tx.Is3DSecure,
			"is_auth":                tx.IsAuth,
			"is_capture":             tx.IsCapture,
			"is_refunded":            tx.IsRefunded,
			"is_standalone_payment":  tx.IsStandalonePayment,
			"is_voided":              tx.IsVoided,
			"pending":                tx.Pending,
			"success":                tx.Success,
		} {
			q.Set(k, strconv.FormatBool(v))
		}
		q.Set("hmac", paymob.Sign(&tx, secret))
		return q
	}

	redirect := func(t *testing.T, raw string) url.Values {
		t.Helper()
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "app.test", u.Host)
		return u.Query()
	}

	t.Run("success marks paid", func(t *testing.T) {
		t.Parallel()
		s := newPaymentSetup(t)
		id := s.initiate(t, "115")

		q := redirect(t, s.f.svc.Payment.HandleCallback(context.Background(), callbackQuery(t, id, true, "test-hmac")))
		assert.Equal(t, strconv.FormatInt(id, 10), q.Get("id"))
		assert.Equal(t, "paid", q.Get("status"))
		assert.True(t, dec("115").Equal(s.f.booking(t, s.booking.ID).Paid))

		// the webhook for the same transaction is a replay
		body, sig := webhook(t, "test-hmac", id, 5150, 11500, nil)
		res, err := s.f.svc.Payment.HandleWebhook(context.Background(), body, sig)
		require.NoError(t, err)
		assert.True(t, res.Duplicate)
		assert.True(t, dec("115").Equal(s.f.booking(t, s.booking.ID).Paid))
	})

	t.Run("failure marks failed", func(t *testing.T) {
		t.Parallel()
		s := newPaymentSetup(t)
		id := s.initiate(t, "115")

		q := redirect(t, s.f.svc.Payment.HandleCallback(context.Background(), callbackQuery(t, id, false, "test-hmac")))
		assert.Equal(t, "failed", q.Get("status"))
		assert.Equal(t, entity.PaymentStatusFailed, s.payment(t, id).Status)
	})

	t.Run("bad signature changes nothing", func(t *testing.T) {
		t.Parallel()
		s := newPaymentSetup(t)
		id := s.initiate(t, "115")

		q := redirect(t, s.f.svc.Payment.HandleCallback(context.Background(), callbackQuery(t, id, true, "wrong")))
		assert.Equal(t, "pending", q.Get("status"))
		assert.Equal(t, entity.PaymentStatusPending, s.payment(t, id).Status)
	})

	t.Run("unknown payment", func(t *testing.T) {
		t.Parallel()
		s := newPaymentSetup(t)

		q := redirect(t, s.f.svc.Payment.HandleCallback(context.Background(), url.Values{"merchant_order_id": {"PAYMENT_999"}}))
		assert.Equal(t, "error", q.Get("status"))

		q = redirect(t, s.f.svc.Payment.HandleCallback(context.Background(), url.Values{"merchant_order_id": {"garbage"}}))
		assert.Equal(t, "error", q.Get("status"))
		assert.Empty(t, q.Get("id"))
	})
}

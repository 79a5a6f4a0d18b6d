package usecase

import (
	"context"
	"testing"

	"field-booking/internal/data/entity"
	"field-booking/internal/dto/request"
	"field-booking/internal/dto/response"
	"field-booking/internal/notify"
	"field-booking/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transferSetup struct {
	f         *fixture
	owner     entity.Actor
	target    entity.Actor
	player    entity.Actor
	booking   *response.BookingResponse
	toField   *entity.Field
	toPeriod  *entity.Period
	requested *response.TransferResponse
}

// newTransferSetup books players on one field and requests a move to a field
// owned by someone else with the given capacity
func newTransferSetup(t *testing.T, players, targetCapacity int) *transferSetup {
	t.Helper()

	f := newFixture(t)
	s := &transferSetup{
		f:      f,
		owner:  f.user(t, entity.RoleOwner),
		target: f.user(t, entity.RoleOwnerAcademy),
		player: f.user(t, entity.RoleUser),
	}
	fromField, fromPeriod := f.field(t, s.owner, 10, "20")
	s.toField, s.toPeriod = f.field(t, s.target, targetCapacity, "30")

	var err error
	s.booking, err = f.svc.Booking.Create(context.Background(), s.player, bookingReq(fromField, fromPeriod, players, tomorrow()))
	require.NoError(t, err)

	s.requested, err = f.svc.Transfer.Request(context.Background(), s.player, &request.CreateTransferRequest{
		CurrentBookingID: s.booking.ID,
		TargetFieldID:    s.toField.ID.String(),
		TargetPeriodID:   s.toPeriod.ID.String(),
	})
	require.NoError(t, err)
	require.Equal(t, entity.TransferStatusPending, s.requested.Status)
	return s
}

func TestTransferApprove_MovesBookingAndReissuesQR(t *testing.T) {
	t.Parallel()

	s := newTransferSetup(t, 4, 10)
	ctx := context.Background()
	before := s.f.booking(t, s.booking.ID)

	resp, err := s.f.svc.Transfer.Approve(ctx, s.target, mustUUID(t, s.requested.ID))
	require.NoError(t, err)

	assert.Equal(t, entity.TransferStatusApproved, resp.Transfer.Status)
	assert.Equal(t, s.toField.ID.String(), resp.Booking.FieldID)
	assert.Equal(t, s.toPeriod.ID.String(), resp.Booking.PeriodID)
	assert.True(t, resp.Booking.Transferred)
	assert.NotEqual(t, before.QRToken, resp.Booking.QRToken)
	assert.True(t, before.Price.Equal(resp.Booking.Price), "price is kept across a transfer")

	require.NotNil(t, before.QRCodeURL)
	require.NotNil(t, resp.Booking.QRCodeURL)
	assert.False(t, s.f.stored(t, *before.QRCodeURL), "old qr removed")
	assert.True(t, s.f.stored(t, *resp.Booking.QRCodeURL))

	_, err = s.f.svc.Booking.Verify(ctx, &request.VerifyQRRequest{Token: before.QRToken})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Contains(t, s.f.notifier.types(), notify.TransferApproved)

	_, err = s.f.svc.Transfer.Approve(ctx, s.target, mustUUID(t, s.requested.ID))
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestTransferApprove_FullTargetStaysPending(t *testing.T) {
	t.Parallel()

	s := newTransferSetup(t, 4, 5)
	ctx := context.Background()

	filler := s.f.user(t, entity.RoleUser)
	_, err := s.f.svc.Booking.Create(ctx, filler, bookingReq(s.toField, s.toPeriod, 5, tomorrow()))
	require.NoError(t, err)
	before := s.f.booking(t, s.booking.ID)

	_, err = s.f.svc.Transfer.Approve(ctx, s.target, mustUUID(t, s.requested.ID))
	require.ErrorIs(t, err, apperror.ErrCapacityExceeded)

	stored, err := s.f.repo.Transfer.FindByID(ctx, mustUUID(t, s.requested.ID))
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, stored.Status)

	after := s.f.booking(t, s.booking.ID)
	assert.Equal(t, before.FieldID, after.FieldID)
	assert.Equal(t, before.PeriodID, after.PeriodID)
	assert.Equal(t, before.QRToken, after.QRToken)
	assert.False(t, after.Transferred)
	require.NotNil(t, after.QRCodeURL)
	assert.True(t, s.f.stored(t, *after.QRCodeURL), "current qr survives a refused approval")
	assert.NotContains(t, s.f.notifier.types(), notify.TransferApproved)
}

func TestTransferApprove_QRFailureRollsBack(t *testing.T) {
	t.Parallel()

	s := newTransferSetup(t, 4, 10)
	ctx := context.Background()
	before := s.f.booking(t, s.booking.ID)

	s.f.renderer.failBookingQR.Store(true)
	_, err := s.f.svc.Transfer.Approve(ctx, s.target, mustUUID(t, s.requested.ID))
	require.Error(t, err)

	stored, err := s.f.repo.Transfer.FindByID(ctx, mustUUID(t, s.requested.ID))
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, stored.Status)

	after := s.f.booking(t, s.booking.ID)
	assert.Equal(t, before.FieldID, after.FieldID)
	assert.Equal(t, before.QRToken, after.QRToken)
	assert.False(t, after.Transferred)
	require.NotNil(t, after.QRCodeURL)
	assert.True(t, s.f.stored(t, *after.QRCodeURL))
	assert.NotContains(t, s.f.notifier.types(), notify.TransferApproved)

	// approval goes through once rendering recovers
	s.f.renderer.failBookingQR.Store(false)
	resp, err := s.f.svc.Transfer.Approve(ctx, s.target, mustUUID(t, s.requested.ID))
	require.NoError(t, err)
	assert.Equal(t, s.toField.ID.String(), resp.Booking.FieldID)
}

func TestTransferApprove_KeepsPaymentBalance(t *testing.T) {
	t.Parallel()

	s := newTransferSetup(t, 4, 10)
	ctx := context.Background()

	// 4 players at 20 = 80, half paid
	b := s.f.booking(t, s.booking.ID)
	b.Credit(dec("40"))
	require.NoError(t, s.f.repo.Booking.Update(ctx, b))

	resp, err := s.f.svc.Transfer.Approve(ctx, s.target, mustUUID(t, s.requested.ID))
	require.NoError(t, err)
	assert.True(t, dec("40").Equal(resp.Booking.Paid))
	assert.True(t, resp.Booking.Paid.Add(resp.Booking.Remaining).Equal(resp.Booking.Price))
}

func TestTransferApprove_Authorization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		actor   func(t *testing.T, s *transferSetup) entity.Actor
		wantErr error
	}{
		{"target owner", func(t *testing.T, s *transferSetup) entity.Actor { return s.target }, nil},
		{"admin", func(t *testing.T, s *transferSetup) entity.Actor { return s.f.user(t, entity.RoleAdmin) }, nil},
		{"source owner", func(t *testing.T, s *transferSetup) entity.Actor { return s.owner }, apperror.ErrForbidden},
		{"booker", func(t *testing.T, s *transferSetup) entity.Actor { return s.player }, apperror.ErrForbidden},
		{"unrelated coach", func(t *testing.T, s *transferSetup) entity.Actor { return s.f.user(t, entity.RoleCoach) }, apperror.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTransferSetup(t, 2, 10)
			_, err := s.f.svc.Transfer.Approve(context.Background(), tt.actor(t, s), mustUUID(t, s.requested.ID))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTransferApprove_CoachOfTargetField(t *testing.T) {
	t.Parallel()

	s := newTransferSetup(t, 2, 10)
	coach := s.f.user(t, entity.RoleCoach)
	s.toField.CoachID = &coach.ID
	// memstore Create replaces the stored row
	require.NoError(t, s.f.repo.Field.Create(context.Background(), s.toField))

	_, err := s.f.svc.Transfer.Approve(context.Background(), coach, mustUUID(t, s.requested.ID))
	assert.NoError(t, err)
}

func TestTransferReject(t *testing.T) {
	t.Parallel()

	s := newTransferSetup(t, 2, 10)
	ctx := context.Background()

	resp, err := s.f.svc.Transfer.Reject(ctx, s.target, mustUUID(t, s.requested.ID))
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusRejected, resp.Status)
	assert.Contains(t, s.f.notifier.types(), notify.TransferRejected)

	_, err = s.f.svc.Transfer.Approve(ctx, s.target, mustUUID(t, s.requested.ID))
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestTransferRequest_OnlyBookingOwner(t *testing.T) {
	t.Parallel()

	s := newTransferSetup(t, 2, 10)
	stranger := s.f.user(t, entity.RoleUser)

	_, err := s.f.svc.Transfer.Request(context.Background(), stranger, &request.CreateTransferRequest{
		CurrentBookingID: s.booking.ID,
		TargetFieldID:    s.toField.ID.String(),
		TargetPeriodID:   s.toPeriod.ID.String(),
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestTransferDelete(t *testing.T) {
	t.Parallel()

	s := newTransferSetup(t, 2, 10)
	ctx := context.Background()
	id := mustUUID(t, s.requested.ID)

	err := s.f.svc.Transfer.Delete(ctx, s.target, id)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, s.f.svc.Transfer.Delete(ctx, s.player, id))

	err = s.f.svc.Transfer.Delete(ctx, s.player, id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTransferDelete_DecidedRequestIsKept(t *testing.T) {
	t.Parallel()

	s := newTransferSetup(t, 2, 10)
	ctx := context.Background()
	id := mustUUID(t, s.requested.ID)

	_, err := s.f.svc.Transfer.Reject(ctx, s.target, id)
	require.NoError(t, err)

	err = s.f.svc.Transfer.Delete(ctx, s.player, id)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestTransferList_RoleScopes(t *testing.T) {
	t.Parallel()

	s := newTransferSetup(t, 2, 10)
	ctx := context.Background()

	admin := s.f.user(t, entity.RoleAdmin)
	all, err := s.f.svc.Transfer.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	mine, err := s.f.svc.Transfer.List(ctx, s.target)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := s.f.svc.Transfer.List(ctx, s.owner)
	require.NoError(t, err)
	assert.Empty(t, none)

	coach, err := s.f.svc.Transfer.List(ctx, s.f.user(t, entity.RoleCoach))
	require.NoError(t, err)
	assert.Empty(t, coach)

	_, err = s.f.svc.Transfer.List(ctx, s.player)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

package usecase

import (
	"context"
	"testing"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/dto/request"
	"field-booking/internal/notify"
	"field-booking/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRegisterLoginLogout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Auth.Register(ctx, &request.RegisterRequest{
		Name:     "Omar",
		Email:    "Omar@Example.com",
		Password: "secret123",
		Phone:    "0551112222",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, user.Role)
	assert.Equal(t, "omar@example.com", user.Email)
	assert.Equal(t, []notify.EventType{notify.UserRegistered}, f.notifier.types())

	_, err = f.svc.Auth.Register(ctx, &request.RegisterRequest{
		Name:     "Omar again",
		Email:    "omar@example.com",
		Password: "secret123",
		Phone:    "0551112222",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.Auth.Login(ctx, &request.LoginRequest{Email: "omar@example.com", Password: "wrong"}, ClientInfo{})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	auth, err := f.svc.Auth.Login(ctx, &request.LoginRequest{Email: "omar@example.com", Password: "secret123"},
		ClientInfo{UserAgent: "test", IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, auth.UserID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), auth.ExpiresAt, time.Minute)

	token, err := uuid.Parse(auth.Token)
	require.NoError(t, err)
	session, err := f.repo.Session.FindValidSession(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, entity.RoleUser, session.Role)

	require.NoError(t, f.svc.Auth.Logout(ctx, auth.Token))
	session, err = f.repo.Session.FindValidSession(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, session)

	assert.ErrorIs(t, f.svc.Auth.Logout(ctx, "not-a-token"), apperror.ErrUnauthorized)
}

func TestAuthRegister_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Auth.Register(context.Background(), &request.RegisterRequest{
		Name:     "No Phone",
		Email:    "nophone@example.com",
		Password: "secret123",
	})
	require.ErrorIs(t, err, apperror.ErrValidation)

	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "phone")
}

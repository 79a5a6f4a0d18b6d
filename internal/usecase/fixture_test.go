package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"field-booking/internal/artifact"
	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/data/repository/memstore"
	"field-booking/internal/gateway/paymob"
	"field-booking/internal/notify"
	"field-booking/pkg/storage"
	"field-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const publicURL = "http://files.test/storage"

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Checkout(ctx context.Context, req paymob.CheckoutRequest) (*paymob.CheckoutResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*paymob.CheckoutResult)
	return res, args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, transactionID string, amountCents int64) (*paymob.RefundResult, error) {
	args := m.Called(ctx, transactionID, amountCents)
	res, _ := args.Get(0).(*paymob.RefundResult)
	return res, args.Error(1)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev notify.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func (d *recordingDispatcher) types() []notify.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notify.EventType, 0, len(d.events))
	for _, ev := range d.events {
		out = append(out, ev.Type)
	}
	return out
}

// switchableRenderer fails booking QR rendering on demand
type switchableRenderer struct {
	ArtifactRenderer
	failBookingQR atomic.Bool
}

func (r *switchableRenderer) BookingQR(b *entity.Booking, field *entity.Field, period *entity.Period) (string, error) {
	if r.failBookingQR.Load() {
		return "", errors.New("qr encoder unavailable")
	}
	return r.ArtifactRenderer.BookingQR(b, field, period)
}

type fixture struct {
	store    *memstore.Store
	repo     *repository.Repository
	fs       afero.Fs
	gateway  *mockGateway
	notifier *recordingDispatcher
	renderer *switchableRenderer
	config   *utils.Config
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	fs := afero.NewMemMapFs()
	f := &fixture{
		store:    store,
		repo:     store.Repository(),
		fs:       fs,
		gateway:  &mockGateway{},
		notifier: &recordingDispatcher{},
		config: &utils.Config{
			Session: utils.SessionConfig{ExpiryHours: 24},
			Paymob: utils.PaymobConfig{
				HMACSecret: "test-hmac",
				Currency:   "SAR",
				Timeout:    time.Second,
			},
			Zatca: utils.ZatcaConfig{
				SellerName: "Field Co",
				VATNumber:  "300000000000003",
			},
			Frontend: utils.FrontendConfig{PaymentStatusURL: "https://app.test/payment/status"},
		},
	}
	f.renderer = &switchableRenderer{ArtifactRenderer: artifact.NewRenderer(storage.NewWithFs(fs, publicURL))}
	f.svc = NewService(f.repo, f.config, f.gateway, f.renderer, f.notifier, zap.NewNop())
	return f
}

func (f *fixture) user(t *testing.T, role entity.UserRole) entity.Actor {
	t.Helper()
	now := time.Now().UTC()
	phone := "0500000000"
	u := &entity.User{
		BaseSoftDelete: entity.BaseSoftDelete{Base: entity.NewBase(now)},
		Name:           string(role) + " user",
		Email:          strings.ToLower(string(role)) + "-" + uuid.NewString() + "@example.com",
		PasswordHash:   "x",
		Phone:          &phone,
		Role:           role,
		IsActive:       true,
	}
	require.NoError(t, f.repo.User.Create(context.Background(), u))
	return entity.Actor{ID: u.ID, Role: role}
}

// field creates a field owned by owner with a single 18:00-20:00 period
func (f *fixture) field(t *testing.T, owner entity.Actor, capacity int, price string) (*entity.Field, *entity.Period) {
	t.Helper()
	now := time.Now().UTC()
	field := &entity.Field{
		Base:     entity.NewBase(now),
		Name:     "Field " + now.Format("150405.000000000"),
		City:     "Riyadh",
		Capacity: capacity,
		OwnerID:  owner.ID,
	}
	require.NoError(t, f.repo.Field.Create(context.Background(), field))

	period := &entity.Period{
		Base:           entity.NewBase(now),
		FieldID:        field.ID,
		StartTime:      "18:00",
		EndTime:        "20:00",
		PricePerPlayer: decimal.RequireFromString(price),
	}
	require.NoError(t, f.repo.Period.Create(context.Background(), period))
	return field, period
}

func (f *fixture) booking(t *testing.T, id string) *entity.Booking {
	t.Helper()
	b, err := f.repo.Booking.FindByID(context.Background(), mustUUID(t, id))
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

// stored reports whether the artifact behind a public URL exists
func (f *fixture) stored(t *testing.T, url string) bool {
	t.Helper()
	key, ok := strings.CutPrefix(url, publicURL+"/")
	require.True(t, ok, "url %s outside storage", url)
	exists, err := afero.Exists(f.fs, key)
	require.NoError(t, err)
	return exists
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func tomorrow() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format(utils.DateLayout)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

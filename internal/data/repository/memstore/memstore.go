// Package memstore implements the repository interfaces in memory. A
// transaction holds a store-wide lock and restores a snapshot when it fails,
// which mirrors the row-lock and rollback behavior of the Postgres
// repositories closely enough for service tests.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"

	"github.com/google/uuid"
)

type eventKey struct {
	transactionID string
	status        entity.PaymentStatus
}

type state struct {
	users     map[uuid.UUID]entity.User
	sessions  map[uuid.UUID]entity.Session
	fields    map[uuid.UUID]entity.Field
	periods   map[uuid.UUID]entity.Period
	bookings  map[uuid.UUID]entity.Booking
	transfers map[uuid.UUID]entity.TransferRequest
	payments  map[int64]entity.Payment
	events    map[eventKey]entity.PaymentEvent
	orders    map[uuid.UUID]entity.Order
	paymentID int64
}

func newState() state {
	return state{
		users:     make(map[uuid.UUID]entity.User),
		sessions:  make(map[uuid.UUID]entity.Session),
		fields:    make(map[uuid.UUID]entity.Field),
		periods:   make(map[uuid.UUID]entity.Period),
		bookings:  make(map[uuid.UUID]entity.Booking),
		transfers: make(map[uuid.UUID]entity.TransferRequest),
		payments:  make(map[int64]entity.Payment),
		events:    make(map[eventKey]entity.PaymentEvent),
		orders:    make(map[uuid.UUID]entity.Order),
	}
}

func (s state) clone() state {
	return state{
		users:     maps.Clone(s.users),
		sessions:  maps.Clone(s.sessions),
		fields:    maps.Clone(s.fields),
		periods:   maps.Clone(s.periods),
		bookings:  maps.Clone(s.bookings),
		transfers: maps.Clone(s.transfers),
		payments:  maps.Clone(s.payments),
		events:    maps.Clone(s.events),
		orders:    maps.Clone(s.orders),
		paymentID: s.paymentID,
	}
}

// Store holds all tables
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data state

	// BeforeBookingUpdate, when set, runs before every booking update and
	// aborts it with the returned error.
	BeforeBookingUpdate func(b *entity.Booking) error
}

func New() *Store {
	return &Store{data: newState()}
}

// Repository returns a repository set whose Transaction runs fn atomically
func (s *Store) Repository() *repository.Repository {
	repo := s.repositories()
	repo.RunInTx = s.runInTx
	return repo
}

func (s *Store) repositories() *repository.Repository {
	return &repository.Repository{
		User:         &userRepo{s},
		Session:      &sessionRepo{s},
		Field:        &fieldRepo{s},
		Period:       &periodRepo{s},
		Booking:      &bookingRepo{s},
		Transfer:     &transferRepo{s},
		Payment:      &paymentRepo{s},
		PaymentEvent: &paymentEventRepo{s},
		Order:        &orderRepo{s},
	}
}

func (s *Store) runInTx(ctx context.Context, fn func(tx *repository.Repository) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(s.repositories())
}

func (s *Store) restore(snapshot state) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

// PutOrder seeds an order; orders have no create operation in the service layer
func (s *Store) PutOrder(o *entity.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.orders[o.ID] = *o
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.data)
}

func (s *Store) write(fn func(d *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
}

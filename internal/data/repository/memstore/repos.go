package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	var err error
	r.s.write(func(d *state) {
		for _, existing := range d.users {
			if strings.EqualFold(existing.Email, u.Email) {
				err = fmt.Errorf("create user %s: duplicate email", u.Email)
				return
			}
		}
		d.users[u.ID] = *u
	})
	return err
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	var out *entity.User
	r.s.read(func(d *state) {
		if u, ok := d.users[id]; ok && u.DeletedAt == nil {
			out = &u
		}
	})
	return out, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	r.s.read(func(d *state) {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, email) && u.DeletedAt == nil {
				out = &u
				return
			}
		}
	})
	return out, nil
}

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(_ context.Context, sess *entity.Session) error {
	r.s.write(func(d *state) { d.sessions[sess.Token] = *sess })
	return nil
}

func (r *sessionRepo) FindValidSession(_ context.Context, token uuid.UUID) (*entity.Session, error) {
	var out *entity.Session
	r.s.read(func(d *state) {
		sess, ok := d.sessions[token]
		if !ok || !sess.Valid(time.Now()) {
			return
		}
		u, ok := d.users[sess.UserID]
		if !ok || !u.IsActive || u.DeletedAt != nil {
			return
		}
		sess.Role = u.Role
		out = &sess
	})
	return out, nil
}

func (r *sessionRepo) Revoke(_ context.Context, token uuid.UUID) error {
	var err error
	r.s.write(func(d *state) {
		sess, ok := d.sessions[token]
		if !ok || sess.RevokedAt != nil {
			err = repository.ErrSessionNotFound
			return
		}
		now := time.Now()
		sess.RevokedAt = &now
		d.sessions[token] = sess
	})
	return err
}

func (r *sessionRepo) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	r.s.write(func(d *state) {
		now := time.Now()
		for token, sess := range d.sessions {
			if sess.UserID == userID && sess.RevokedAt == nil {
				sess.RevokedAt = &now
				d.sessions[token] = sess
			}
		}
	})
	return nil
}

func (r *sessionRepo) CleanExpiredSessions(_ context.Context) (int64, error) {
	var n int64
	r.s.write(func(d *state) {
		cutoff := time.Now().Add(-7 * 24 * time.Hour)
		for token, sess := range d.sessions {
			if sess.ExpiresAt.Before(cutoff) {
				delete(d.sessions, token)
				n++
			}
		}
	})
	return n, nil
}

type fieldRepo struct{ s *Store }

func (r *fieldRepo) Create(_ context.Context, f *entity.Field) error {
	r.s.write(func(d *state) { d.fields[f.ID] = *f })
	return nil
}

func (r *fieldRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Field, error) {
	var out *entity.Field
	r.s.read(func(d *state) {
		if f, ok := d.fields[id]; ok {
			out = &f
		}
	})
	return out, nil
}

// FindByIDForUpdate relies on the transaction lock
func (r *fieldRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Field, error) {
	return r.FindByID(ctx, id)
}

func (r *fieldRepo) filtered(filter repository.FieldFilter) []*entity.Field {
	var out []*entity.Field
	r.s.read(func(d *state) {
		for _, f := range d.fields {
			if filter.City != "" && !strings.EqualFold(f.City, filter.City) {
				continue
			}
			if filter.OwnerID != nil && f.OwnerID != *filter.OwnerID {
				continue
			}
			out = append(out, &f)
		}
	})
	slices.SortFunc(out, func(a, b *entity.Field) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (r *fieldRepo) FindAll(_ context.Context, filter repository.FieldFilter, limit, offset int) ([]*entity.Field, error) {
	return page(r.filtered(filter), limit, offset), nil
}

func (r *fieldRepo) CountAll(_ context.Context, filter repository.FieldFilter) (int64, error) {
	return int64(len(r.filtered(filter))), nil
}

type periodRepo struct{ s *Store }

func (r *periodRepo) Create(_ context.Context, p *entity.Period) error {
	r.s.write(func(d *state) { d.periods[p.ID] = *p })
	return nil
}

func (r *periodRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Period, error) {
	var out *entity.Period
	r.s.read(func(d *state) {
		if p, ok := d.periods[id]; ok {
			out = &p
		}
	})
	return out, nil
}

func (r *periodRepo) FindByFieldID(_ context.Context, fieldID uuid.UUID) ([]*entity.Period, error) {
	var out []*entity.Period
	r.s.read(func(d *state) {
		for _, p := range d.periods {
			if p.FieldID == fieldID {
				out = append(out, &p)
			}
		}
	})
	slices.SortFunc(out, func(a, b *entity.Period) int { return strings.Compare(a.StartTime, b.StartTime) })
	return out, nil
}

func (r *periodRepo) Update(_ context.Context, p *entity.Period) error {
	var err error
	r.s.write(func(d *state) {
		if _, ok := d.periods[p.ID]; !ok {
			err = repository.ErrPeriodNotFound
			return
		}
		d.periods[p.ID] = *p
	})
	return err
}

func (r *periodRepo) Delete(_ context.Context, id uuid.UUID) error {
	var err error
	r.s.write(func(d *state) {
		if _, ok := d.periods[id]; !ok {
			err = repository.ErrPeriodNotFound
			return
		}
		delete(d.periods, id)
	})
	return err
}

type bookingRepo struct{ s *Store }

func (r *bookingRepo) Create(_ context.Context, b *entity.Booking) error {
	r.s.write(func(d *state) { d.bookings[b.ID] = *b })
	return nil
}

func (r *bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	var out *entity.Booking
	r.s.read(func(d *state) {
		if b, ok := d.bookings[id]; ok {
			out = &b
		}
	})
	return out, nil
}

func (r *bookingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *bookingRepo) FindByToken(_ context.Context, token string) (*entity.Booking, error) {
	var out *entity.Booking
	r.s.read(func(d *state) {
		for _, b := range d.bookings {
			if b.QRToken == token {
				out = &b
				return
			}
		}
	})
	return out, nil
}

func (r *bookingRepo) byUser(userID uuid.UUID) []*entity.Booking {
	var out []*entity.Booking
	r.s.read(func(d *state) {
		for _, b := range d.bookings {
			if b.UserID == userID {
				out = append(out, &b)
			}
		}
	})
	slices.SortFunc(out, func(a, b *entity.Booking) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func (r *bookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return page(r.byUser(userID), limit, offset), nil
}

func (r *bookingRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(r.byUser(userID))), nil
}

func (r *bookingRepo) filtered(filter repository.BookingFilter) []*entity.Booking {
	var out []*entity.Booking
	r.s.read(func(d *state) {
		for _, b := range d.bookings {
			f, ok := d.fields[b.FieldID]
			if !ok {
				continue
			}
			if filter.FieldOwnerID != nil && f.OwnerID != *filter.FieldOwnerID {
				continue
			}
			if filter.FieldCoachID != nil && (f.CoachID == nil || *f.CoachID != *filter.FieldCoachID) {
				continue
			}
			out = append(out, &b)
		}
	})
	slices.SortFunc(out, func(a, b *entity.Booking) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func (r *bookingRepo) FindAll(_ context.Context, filter repository.BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	return page(r.filtered(filter), limit, offset), nil
}

func (r *bookingRepo) CountAll(_ context.Context, filter repository.BookingFilter) (int64, error) {
	return int64(len(r.filtered(filter))), nil
}

func (r *bookingRepo) CountByPeriod(_ context.Context, periodID uuid.UUID) (int64, error) {
	var n int64
	r.s.read(func(d *state) {
		for _, b := range d.bookings {
			if b.PeriodID == periodID {
				n++
			}
		}
	})
	return n, nil
}

func (r *bookingRepo) Update(_ context.Context, b *entity.Booking) error {
	if hook := r.s.BeforeBookingUpdate; hook != nil {
		if err := hook(b); err != nil {
			return err
		}
	}
	var err error
	r.s.write(func(d *state) {
		if _, ok := d.bookings[b.ID]; !ok {
			err = repository.ErrBookingNotFound
			return
		}
		d.bookings[b.ID] = *b
	})
	return err
}

func (r *bookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	var err error
	r.s.write(func(d *state) {
		if _, ok := d.bookings[id]; !ok {
			err = repository.ErrBookingNotFound
			return
		}
		delete(d.bookings, id)
	})
	return err
}

func (r *bookingRepo) SumPlayers(_ context.Context, fieldID, periodID uuid.UUID, date time.Time, excludeID *uuid.UUID) (int, error) {
	total := 0
	r.s.read(func(d *state) {
		for _, b := range d.bookings {
			if excludeID != nil && b.ID == *excludeID {
				continue
			}
			if b.FieldID == fieldID && b.PeriodID == periodID && sameDay(b.Date, date) {
				total += b.PlayersCount
			}
		}
	})
	return total, nil
}

type transferRepo struct{ s *Store }

func (r *transferRepo) Create(_ context.Context, t *entity.TransferRequest) error {
	r.s.write(func(d *state) { d.transfers[t.ID] = *t })
	return nil
}

func (r *transferRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.TransferRequest, error) {
	var out *entity.TransferRequest
	r.s.read(func(d *state) {
		if t, ok := d.transfers[id]; ok {
			out = &t
		}
	})
	return out, nil
}

func (r *transferRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.TransferRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *transferRepo) List(_ context.Context, filter repository.TransferFilter) ([]*entity.TransferRequest, error) {
	var out []*entity.TransferRequest
	r.s.read(func(d *state) {
		for _, t := range d.transfers {
			f, ok := d.fields[t.TargetFieldID]
			if !ok {
				continue
			}
			if filter.FieldOwnerID != nil && f.OwnerID != *filter.FieldOwnerID {
				continue
			}
			if filter.FieldCoachID != nil && (f.CoachID == nil || *f.CoachID != *filter.FieldCoachID) {
				continue
			}
			out = append(out, &t)
		}
	})
	slices.SortFunc(out, func(a, b *entity.TransferRequest) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *transferRepo) UpdateStatus(_ context.Context, id uuid.UUID, status entity.TransferStatus) error {
	var err error
	r.s.write(func(d *state) {
		t, ok := d.transfers[id]
		if !ok || !t.IsPending() {
			err = repository.ErrTransferNotPending
			return
		}
		t.Status = status
		t.UpdatedAt = time.Now()
		d.transfers[id] = t
	})
	return err
}

func (r *transferRepo) DeletePending(_ context.Context, id uuid.UUID) error {
	var err error
	r.s.write(func(d *state) {
		t, ok := d.transfers[id]
		if !ok || !t.IsPending() {
			err = repository.ErrTransferNotPending
			return
		}
		delete(d.transfers, id)
	})
	return err
}

func (r *transferRepo) CountByTargetPeriod(_ context.Context, periodID uuid.UUID) (int64, error) {
	var n int64
	r.s.read(func(d *state) {
		for _, t := range d.transfers {
			if t.TargetPeriodID == periodID {
				n++
			}
		}
	})
	return n, nil
}

type paymentRepo struct{ s *Store }

func (r *paymentRepo) Create(_ context.Context, p *entity.Payment) error {
	r.s.write(func(d *state) {
		d.paymentID++
		p.ID = d.paymentID
		d.payments[p.ID] = *p
	})
	return nil
}

func (r *paymentRepo) FindByID(_ context.Context, id int64) (*entity.Payment, error) {
	var out *entity.Payment
	r.s.read(func(d *state) {
		if p, ok := d.payments[id]; ok {
			out = &p
		}
	})
	return out, nil
}

func (r *paymentRepo) FindByIDForUpdate(ctx context.Context, id int64) (*entity.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *paymentRepo) FindByGatewayReference(_ context.Context, reference string) (*entity.Payment, error) {
	var out *entity.Payment
	r.s.read(func(d *state) {
		for _, p := range d.payments {
			if p.GatewayReference != nil && *p.GatewayReference == reference {
				out = &p
				return
			}
		}
	})
	return out, nil
}

func (r *paymentRepo) Update(_ context.Context, p *entity.Payment) error {
	var err error
	r.s.write(func(d *state) {
		if _, ok := d.payments[p.ID]; !ok {
			err = repository.ErrPaymentNotFound
			return
		}
		d.payments[p.ID] = *p
	})
	return err
}

func (r *paymentRepo) filtered(filter repository.PaymentFilter) []*entity.Payment {
	var out []*entity.Payment
	r.s.read(func(d *state) {
		for _, p := range d.payments {
			if filter.Status != "" && p.Status != filter.Status {
				continue
			}
			if filter.UserID != nil && p.UserID != *filter.UserID {
				continue
			}
			out = append(out, &p)
		}
	})
	slices.SortFunc(out, func(a, b *entity.Payment) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return out
}

func (r *paymentRepo) List(_ context.Context, filter repository.PaymentFilter, limit, offset int) ([]*entity.Payment, error) {
	return page(r.filtered(filter), limit, offset), nil
}

func (r *paymentRepo) Count(_ context.Context, filter repository.PaymentFilter) (int64, error) {
	return int64(len(r.filtered(filter))), nil
}

func (r *paymentRepo) SumPendingForBooking(_ context.Context, bookingID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	r.s.read(func(d *state) {
		for _, p := range d.payments {
			if p.BookingID == nil || *p.BookingID != bookingID {
				continue
			}
			if p.Status == entity.PaymentStatusPending && !p.CreatedAt.Before(since) {
				total = total.Add(p.Amount)
			}
		}
	})
	return total, nil
}

type paymentEventRepo struct{ s *Store }

func (r *paymentEventRepo) MarkProcessed(_ context.Context, ev *entity.PaymentEvent) (bool, error) {
	inserted := false
	r.s.write(func(d *state) {
		key := eventKey{ev.TransactionID, ev.Status}
		if _, ok := d.events[key]; ok {
			return
		}
		d.events[key] = *ev
		inserted = true
	})
	return inserted, nil
}

type orderRepo struct{ s *Store }

func (r *orderRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	var out *entity.Order
	r.s.read(func(d *state) {
		if o, ok := d.orders[id]; ok {
			out = &o
		}
	})
	return out, nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status entity.OrderStatus) error {
	var err error
	r.s.write(func(d *state) {
		o, ok := d.orders[id]
		if !ok {
			err = fmt.Errorf("order %s not found", id)
			return
		}
		o.Status = status
		o.UpdatedAt = time.Now()
		d.orders[id] = o
	})
	return err
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

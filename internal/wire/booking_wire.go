package wire

import (
	"field-booking/internal/adaptor"
	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		r.Post("/api/bookings", bookingHandler.Create)
		r.Post("/api/bookings/verify-qr", bookingHandler.VerifyQR)
		r.Get("/api/bookings/{id}", bookingHandler.Get)
		r.Delete("/api/bookings/{id}", bookingHandler.Cancel)
		r.Get("/api/my-bookings", bookingHandler.ListMine)

		r.With(middleware.RequireRoles(log, entity.RoleAdmin, entity.RoleOwner, entity.RoleOwnerAcademy, entity.RoleCoach)).
			Get("/api/bookings", bookingHandler.List)
	})
}

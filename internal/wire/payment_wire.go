package wire

import (
	"field-booking/internal/adaptor"
	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== GATEWAY ROUTES ====================
	// authenticated by the HMAC signature, not a session
	r.Post("/api/payments/webhook", paymentHandler.Webhook)
	r.Get("/api/payments/callback", paymentHandler.Callback)

	// ==================== PROTECTED ROUTES ====================
	r.With(middleware.AuthSession(repo.Session, log)).Post("/api/payments", paymentHandler.Initiate)

	// ==================== MANAGER ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.RequireRoles(log, entity.RoleAdmin, entity.RoleOwner, entity.RoleOwnerAcademy))

		r.Get("/api/payments", paymentHandler.List)
		r.Get("/api/payments/{id}", paymentHandler.Get)
		r.Post("/api/payments/{id}/refund", paymentHandler.Refund)
	})
}

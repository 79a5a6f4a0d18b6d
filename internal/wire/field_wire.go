package wire

import (
	"field-booking/internal/adaptor"
	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireField(
	r chi.Router,
	fieldHandler *adaptor.FieldHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/fields", fieldHandler.List)
	r.Get("/api/fields/{id}", fieldHandler.Get)
	r.Get("/api/fields/{id}/periods", fieldHandler.Periods)

	// ==================== OWNER ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.RequireRoles(log, entity.RoleAdmin, entity.RoleOwner, entity.RoleOwnerAcademy))

		r.Post("/api/fields", fieldHandler.Create)
		r.Get("/api/my-fields", fieldHandler.ListMine)
		// field ownership is checked by the service
		r.Post("/api/fields/{id}/periods", fieldHandler.AddPeriod)
		r.Put("/api/fields/{id}/periods/{periodID}", fieldHandler.UpdatePeriod)
		r.Delete("/api/fields/{id}/periods/{periodID}", fieldHandler.DeletePeriod)
	})
}

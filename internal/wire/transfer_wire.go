package wire

import (
	"field-booking/internal/adaptor"
	"field-booking/internal/data/repository"
	"field-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireTransfer(
	r chi.Router,
	transferHandler *adaptor.TransferHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// role scoping happens in the service: managers decide, bookers request
	r.Route("/api/transfer-requests", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		r.Get("/", transferHandler.List)
		r.Post("/", transferHandler.Request)
		r.Delete("/{id}", transferHandler.Delete)
		r.Post("/{id}/approve", transferHandler.Approve)
		r.Post("/{id}/reject", transferHandler.Reject)
	})
}

package wire

import (
	"net/http"
	"net/url"
	"strings"

	"field-booking/internal/adaptor"
	"field-booking/internal/data/repository"
	"field-booking/internal/notify"
	"field-booking/internal/usecase"
	"field-booking/pkg/middleware"
	"field-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the assembled HTTP surface
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Dependencies are the outbound adapters the services drive
type Dependencies struct {
	Gateway   usecase.PaymentGateway
	Artifacts usecase.ArtifactRenderer
	Notifier  notify.Dispatcher
	// Files serves stored artifacts; nil disables the static route
	Files http.FileSystem
}

// Wiring builds services, handlers and routes
func Wiring(repo *repository.Repository, config *utils.Config, deps Dependencies, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, deps.Gateway, deps.Artifacts, deps.Notifier, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, config, deps.Files, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	files http.FileSystem,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSOrigins))

	wireAuth(r, handler.Auth, repo, logger)
	wireField(r, handler.Field, repo, logger)
	wireBooking(r, handler.Booking, repo, logger)
	wireTransfer(r, handler.Transfer, repo, logger)
	wirePayment(r, handler.Payment, repo, logger)

	if files != nil {
		prefix := storagePrefix(config.Storage.PublicURL)
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(files)))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

// storagePrefix is the path part of the public storage URL
func storagePrefix(publicURL string) string {
	prefix := "/storage"
	if u, err := url.Parse(publicURL); err == nil && u.Path != "" && u.Path != "/" {
		prefix = u.Path
	}
	return "/" + strings.Trim(prefix, "/")
}

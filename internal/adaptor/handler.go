package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"field-booking/internal/data/entity"
	"field-booking/internal/usecase"
	"field-booking/pkg/apperror"
	"field-booking/pkg/middleware"
	"field-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Auth     *AuthHandler
	Field    *FieldHandler
	Booking  *BookingHandler
	Transfer *TransferHandler
	Payment  *PaymentHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(service.Auth, log),
		Field:    NewFieldHandler(service.Field, log),
		Booking:  NewBookingHandler(service.Booking, log),
		Transfer: NewTransferHandler(service.Transfer, log),
		Payment:  NewPaymentHandler(service.Payment, log),
	}
}

// decodeJSON reads the request body into dst and answers 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// uuidParam parses a UUID path parameter and answers 400 when it is malformed
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid "+name, map[string]string{name: "must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// requireActor answers 401 when the request carries no session
func requireActor(w http.ResponseWriter, r *http.Request) (entity.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
	}
	return actor, ok
}

// handleServiceError maps an error kind to its HTTP status
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		verr *apperror.ValidationError
		gerr *apperror.GatewayError
	)

	switch {
	case errors.As(err, &verr):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, "Validation failed", verr.Fields)

	case errors.Is(err, apperror.ErrValidation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, apperror.ErrUnauthorized):
		log.Warn(operation+" failed - unauthorized", zap.Error(err))
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, apperror.ErrForbidden), errors.Is(err, apperror.ErrSignature):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, apperror.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, apperror.ErrCapacityExceeded), errors.Is(err, apperror.ErrConflict):
		log.Warn(operation+" failed - conflict", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.As(err, &gerr):
		log.Error(operation+" failed - gateway", zap.Error(err), zap.Int("status_code", gerr.StatusCode))
		detail := map[string]any{"operation": gerr.Op}
		if gerr.StatusCode != 0 {
			detail["status_code"] = gerr.StatusCode
			detail["body"] = gerr.Body
		}
		utils.ResponseBadGateway(w, "Payment gateway error", detail)

	default:
		log.Error(operation+" failed", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

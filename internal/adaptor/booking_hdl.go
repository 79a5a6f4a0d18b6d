package adaptor

import (
	"net/http"

	"field-booking/internal/dto/request"
	"field-booking/internal/usecase"
	"field-booking/pkg/utils"

	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// Create handles POST /api/bookings (protected)
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.CreateBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	booking, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking created", booking)
}

// ListMine handles GET /api/my-bookings (protected)
func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	req := request.PageFromQuery(r.URL.Query())

	bookings, err := h.service.ListMine(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "list bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// List handles GET /api/bookings (admin, owner, coach)
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	req := request.PageFromQuery(r.URL.Query())
	bookings, err := h.service.List(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "list managed bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// Get handles GET /api/bookings/{id} (protected)
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	booking, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// Cancel handles DELETE /api/bookings/{id} (protected)
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Cancel(r.Context(), actor, id); err != nil {
		handleServiceError(w, h.log, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", nil)
}

// VerifyQR handles POST /api/bookings/verify-qr (protected)
func (h *BookingHandler) VerifyQR(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyQRRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	booking, err := h.service.Verify(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "verify qr")
		return
	}

	utils.ResponseSuccess(w, "Booking verified", booking)
}

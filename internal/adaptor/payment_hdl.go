package adaptor

import (
	"io"
	"net/http"
	"strconv"

	"field-booking/internal/dto/request"
	"field-booking/internal/usecase"
	"field-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxWebhookBody caps the webhook payload read into memory
const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// Initiate handles POST /api/payments (protected)
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.InitiatePaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	payment, err := h.service.Initiate(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "initiate payment")
		return
	}

	utils.ResponseCreated(w, "Payment initiated", payment)
}

// Webhook handles POST /api/payments/webhook?hmac= (public, signed)
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), body, r.URL.Query().Get("hmac"))
	if err != nil {
		handleServiceError(w, h.log, err, "payment webhook")
		return
	}

	utils.ResponseSuccess(w, "Webhook processed", result)
}

// Callback handles GET /api/payments/callback and redirects the browser to
// the status page
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	target := h.service.HandleCallback(r.Context(), r.URL.Query())
	http.Redirect(w, r, target, http.StatusFound)
}

// List handles GET /api/payments (admin, owner)
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := &request.ListPaymentsRequest{
		PaginatedRequest: request.PageFromQuery(query),
		Status:           query.Get("status"),
	}

	payments, err := h.service.List(r.Context(), actor, req)
	if err != nil {
		handleServiceError(w, h.log, err, "list payments")
		return
	}

	utils.ResponseSuccess(w, "success", payments)
}

// Get handles GET /api/payments/{id} (admin, owner)
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := paymentID(w, r)
	if !ok {
		return
	}

	payment, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.log, err, "get payment")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// Refund handles POST /api/payments/{id}/refund (admin, owner)
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := paymentID(w, r)
	if !ok {
		return
	}

	payment, err := h.service.Refund(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.log, err, "refund payment")
		return
	}

	utils.ResponseSuccess(w, "Payment refunded", payment)
}

func paymentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		utils.ResponseBadRequest(w, "Invalid id", map[string]string{"id": "must be a positive integer"})
		return 0, false
	}
	return id, true
}

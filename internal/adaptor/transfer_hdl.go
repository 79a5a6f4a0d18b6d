package adaptor

import (
	"net/http"

	"field-booking/internal/dto/request"
	"field-booking/internal/usecase"
	"field-booking/pkg/utils"

	"go.uber.org/zap"
)

type TransferHandler struct {
	service usecase.TransferService
	log     *zap.Logger
}

func NewTransferHandler(service usecase.TransferService, log *zap.Logger) *TransferHandler {
	return &TransferHandler{
		service: service,
		log:     log.With(zap.String("handler", "transfer")),
	}
}

// Request handles POST /api/transfer-requests
func (h *TransferHandler) Request(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.CreateTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	transfer, err := h.service.Request(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "request transfer")
		return
	}

	utils.ResponseCreated(w, "Transfer requested", transfer)
}

// List handles GET /api/transfer-requests
func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	transfers, err := h.service.List(r.Context(), actor)
	if err != nil {
		handleServiceError(w, h.log, err, "list transfers")
		return
	}

	utils.ResponseSuccess(w, "success", transfers)
}

// Approve handles POST /api/transfer-requests/{id}/approve
func (h *TransferHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	result, err := h.service.Approve(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.log, err, "approve transfer")
		return
	}

	utils.ResponseSuccess(w, "Transfer approved", result)
}

// Reject handles POST /api/transfer-requests/{id}/reject
func (h *TransferHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	transfer, err := h.service.Reject(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.log, err, "reject transfer")
		return
	}

	utils.ResponseSuccess(w, "Transfer rejected", transfer)
}

// Delete handles DELETE /api/transfer-requests/{id}
func (h *TransferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		handleServiceError(w, h.log, err, "delete transfer")
		return
	}

	utils.ResponseSuccess(w, "Transfer request deleted", nil)
}

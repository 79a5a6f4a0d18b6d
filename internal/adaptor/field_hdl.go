package adaptor

import (
	"net/http"

	"field-booking/internal/dto/request"
	"field-booking/internal/usecase"
	"field-booking/pkg/utils"

	"go.uber.org/zap"
)

type FieldHandler struct {
	service usecase.FieldService
	log     *zap.Logger
}

func NewFieldHandler(service usecase.FieldService, log *zap.Logger) *FieldHandler {
	return &FieldHandler{
		service: service,
		log:     log.With(zap.String("handler", "field")),
	}
}

// List handles GET /api/fields (public)
func (h *FieldHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.ListFieldsRequest{
		PaginatedRequest: request.PageFromQuery(query),
		City:             query.Get("city"),
	}

	fields, err := h.service.List(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list fields")
		return
	}

	utils.ResponseSuccess(w, "success", fields)
}

// Get handles GET /api/fields/{id} (public)
func (h *FieldHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	field, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.log, err, "get field")
		return
	}

	utils.ResponseSuccess(w, "success", field)
}

// Periods handles GET /api/fields/{id}/periods (public)
func (h *FieldHandler) Periods(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	periods, err := h.service.Periods(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.log, err, "list periods")
		return
	}

	utils.ResponseSuccess(w, "success", periods)
}

// Create handles POST /api/fields (admin, owner)
func (h *FieldHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.CreateFieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	field, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create field")
		return
	}

	utils.ResponseCreated(w, "Field created", field)
}

// AddPeriod handles POST /api/fields/{id}/periods (field owner, admin)
func (h *FieldHandler) AddPeriod(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req request.PeriodRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	period, err := h.service.AddPeriod(r.Context(), actor, id, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "add period")
		return
	}

	utils.ResponseCreated(w, "Period created", period)
}

// ListMine handles GET /api/my-fields (owner, admin)
func (h *FieldHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	req := request.PageFromQuery(r.URL.Query())
	fields, err := h.service.ListMine(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "list own fields")
		return
	}

	utils.ResponseSuccess(w, "success", fields)
}

// UpdatePeriod handles PUT /api/fields/{id}/periods/{periodID} (field owner, admin)
func (h *FieldHandler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	periodID, ok := uuidParam(w, r, "periodID")
	if !ok {
		return
	}

	var req request.PeriodRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	period, err := h.service.UpdatePeriod(r.Context(), actor, id, periodID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update period")
		return
	}

	utils.ResponseSuccess(w, "Period updated", period)
}

// DeletePeriod handles DELETE /api/fields/{id}/periods/{periodID} (field owner, admin)
func (h *FieldHandler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	periodID, ok := uuidParam(w, r, "periodID")
	if !ok {
		return
	}

	if err := h.service.DeletePeriod(r.Context(), actor, id, periodID); err != nil {
		handleServiceError(w, h.log, err, "delete period")
		return
	}

	utils.ResponseSuccess(w, "Period deleted", nil)
}

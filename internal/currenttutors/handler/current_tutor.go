package handler

import (
	"net/http"

	"tutorhub/internal/currenttutors/service"
	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const basePath = "/api/current-tutors"

type CurrentTutorHandler struct {
	service service.CurrentTutorService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewCurrentTutorHandler(service service.CurrentTutorService, auth *middleware.Authenticator, log *logger.Logger) *CurrentTutorHandler {
	return &CurrentTutorHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *CurrentTutorHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET(basePath+"/mine", h.auth.Protect(h.ListMine, model.RoleStudent, model.RoleTutor))
	router.GET(basePath+"/id/:id", h.auth.Protect(h.GetByID))
	router.PATCH(basePath+"/id/:id/status", h.auth.Protect(h.UpdateStatus, model.RoleStudent, model.RoleTutor))
}

func (h *CurrentTutorHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := h.service.ListMine(r.Context(), caller, limit, offset)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WritePaginated(w, page.Items, page.TotalCount, page.Limit, page.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *CurrentTutorHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.Get(r.Context(), caller, ps.ByName("id"))
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CurrentTutorHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.CurrentTutorStatusUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	view, err := h.service.UpdateStatus(r.Context(), caller, ps.ByName("id"), &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "operation", "WriteSuccess", "error", err)
	}
}

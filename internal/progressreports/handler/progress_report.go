package handler

import (
	"net/http"

	"tutorhub/internal/progressreports/service"
	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const basePath = "/api/progress-reports"

type ProgressReportHandler struct {
	service service.ProgressReportService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewProgressReportHandler(service service.ProgressReportService, auth *middleware.Authenticator, log *logger.Logger) *ProgressReportHandler {
	return &ProgressReportHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *ProgressReportHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(basePath, h.auth.Protect(h.Create, model.RoleTutor))
	router.GET(basePath+"/mine", h.auth.Protect(h.ListMine, model.RoleStudent, model.RoleTutor))
	router.GET(basePath+"/id/:id", h.auth.Protect(h.Get))
	router.PATCH(basePath+"/id/:id", h.auth.Protect(h.Update, model.RoleTutor))
	router.DELETE(basePath+"/id/:id", h.auth.Protect(h.Delete, model.RoleTutor))
}

func (h *ProgressReportHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.ProgressReportRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	report, err := h.service.Create(r.Context(), caller, &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteCreated(w, report); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ProgressReportHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

func (h *ProgressReportHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.Get(r.Context(), caller, ps.ByName("id"))
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProgressReportHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.ProgressReportUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	report, err := h.service.Update(r.Context(), caller, ps.ByName("id"), &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProgressReportHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), caller, ps.ByName("id")); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

package handler

import (
	"net/http"

	"tutorhub/internal/attendance/service"
	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const basePath = "/api/attendance"

type AttendanceHandler struct {
	service service.AttendanceService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewAttendanceHandler(service service.AttendanceService, auth *middleware.Authenticator, log *logger.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *AttendanceHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(basePath, h.auth.Protect(h.Mark, model.RoleTutor))
	router.GET(basePath+"/booking/:bookingId", h.auth.Protect(h.GetByBooking))
	router.GET(basePath+"/mine", h.auth.Protect(h.ListMine, model.RoleStudent, model.RoleTutor))
	router.GET(basePath+"/summary", h.auth.Protect(h.Summary))
}

func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.AttendanceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	record, err := h.service.Mark(r.Context(), caller, &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, record); err != nil {
		h.log.Error("failed to write success response", "handler", "Mark", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AttendanceHandler) GetByBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.GetByBooking(r.Context(), caller, ps.ByName("bookingId"))
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, record); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByBooking", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AttendanceHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

	page, err := h.service.ListMine(r.Context(), caller, r.URL.Query().Get("subject"), limit, offset)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WritePaginated(w, page.Items, page.TotalCount, page.Limit, page.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *AttendanceHandler) Summary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	q := r.URL.Query()
	summary, err := h.service.Summary(r.Context(), caller, q.Get("student_id"), q.Get("tutor_id"))
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "Summary", "operation", "WriteSuccess", "error", err)
	}
}

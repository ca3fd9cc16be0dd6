package handler

import (
	"net/http"

	"tutorhub/internal/bookings/service"
	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const basePath = "/api/bookings"

type BookingHandler struct {
	service service.BookingService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, auth *middleware.Authenticator, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(basePath, h.auth.Protect(h.Create, model.RoleStudent))
	router.GET(basePath+"/mine", h.auth.Protect(h.ListMine, model.RoleStudent, model.RoleTutor))
	router.GET(basePath+"/id/:id", h.auth.Protect(h.GetByID))
	router.PATCH(basePath+"/id/:id/approve", h.auth.Protect(h.Approve, model.RoleTutor))
	router.PATCH(basePath+"/id/:id/reject", h.auth.Protect(h.Reject, model.RoleTutor))
	router.PATCH(basePath+"/id/:id/cancel", h.auth.Protect(h.Cancel, model.RoleStudent, model.RoleTutor))
	router.PATCH(basePath+"/id/:id/complete", h.auth.Protect(h.Complete, model.RoleTutor))
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	view, err := h.service.Create(r.Context(), caller, &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteCreated(w, view); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

	page, err := h.service.ListMine(r.Context(), caller, r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WritePaginated(w, page.Items, page.TotalCount, page.Limit, page.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.BookingApproval
	if err := httputil.DecodeOptionalJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	view, err := h.service.Approve(r.Context(), caller, ps.ByName("id"), &req)
	h.writeTransition(w, r, "Approve", view, err)
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.BookingReason
	if err := httputil.DecodeOptionalJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	view, err := h.service.Reject(r.Context(), caller, ps.ByName("id"), &req)
	h.writeTransition(w, r, "Reject", view, err)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.BookingReason
	if err := httputil.DecodeOptionalJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	view, err := h.service.Cancel(r.Context(), caller, ps.ByName("id"), &req)
	h.writeTransition(w, r, "Cancel", view, err)
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.Complete(r.Context(), caller, ps.ByName("id"))
	h.writeTransition(w, r, "Complete", view, err)
}

func (h *BookingHandler) writeTransition(w http.ResponseWriter, r *http.Request, name string, view *model.BookingView, err error) {
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}
	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

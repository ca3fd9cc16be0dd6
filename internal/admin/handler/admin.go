package handler

import (
	"net/http"
	"strings"

	"tutorhub/internal/admin/service"
	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const basePath = "/api/admin"

type AdminHandler struct {
	service service.AdminService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewAdminHandler(service service.AdminService, auth *middleware.Authenticator, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *AdminHandler) RegisterRoutes(router *httprouter.Router) {
	admin := func(next httprouter.Handle) httprouter.Handle {
		return h.auth.Protect(next, model.RoleAdmin)
	}

	router.GET(basePath+"/users", admin(h.ListUsers))
	router.PATCH(basePath+"/users/id/:id/status", admin(h.SetUserActive))
	router.GET(basePath+"/tutors", admin(h.ListTutors))
	router.PATCH(basePath+"/tutors/id/:id/approve", admin(h.ApproveTutor))
	router.PATCH(basePath+"/tutors/id/:id/reject", admin(h.RejectTutor))
	router.GET(basePath+"/analytics", admin(h.Analytics))
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	active, err := httputil.QueryBool(r, "is_active")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	filter := model.UserFilter{
		Role:     strings.ToLower(strings.TrimSpace(r.URL.Query().Get("role"))),
		IsActive: active,
	}
	page, err := h.service.ListUsers(r.Context(), filter, limit, offset)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WritePaginated(w, page.Items, page.TotalCount, page.Limit, page.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListUsers", "operation", "WritePaginated", "error", err)
	}
}

func (h *AdminHandler) SetUserActive(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.UserStatusUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	user, err := h.service.SetUserActive(r.Context(), caller, ps.ByName("id"), &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "SetUserActive", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) ListTutors(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	filter := model.ProfileFilter{Status: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))}
	page, err := h.service.ListTutors(r.Context(), filter, limit, offset)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WritePaginated(w, page.Items, page.TotalCount, page.Limit, page.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListTutors", "operation", "WritePaginated", "error", err)
	}
}

func (h *AdminHandler) ApproveTutor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.service.ApproveTutor(r.Context(), caller, ps.ByName("id"))
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, profile); err != nil {
		h.log.Error("failed to write success response", "handler", "ApproveTutor", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) RejectTutor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.ProfileRejection
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	profile, err := h.service.RejectTutor(r.Context(), caller, ps.ByName("id"), &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, profile); err != nil {
		h.log.Error("failed to write success response", "handler", "RejectTutor", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	analytics, err := h.service.Analytics(r.Context())
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, analytics); err != nil {
		h.log.Error("failed to write success response", "handler", "Analytics", "operation", "WriteSuccess", "error", err)
	}
}

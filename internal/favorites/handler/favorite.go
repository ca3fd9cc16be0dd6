package handler

import (
	"net/http"

	"tutorhub/internal/favorites/service"
	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const basePath = "/api/favorites"

type FavoriteHandler struct {
	service service.FavoriteService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewFavoriteHandler(service service.FavoriteService, auth *middleware.Authenticator, log *logger.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *FavoriteHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(basePath, h.auth.Protect(h.Add, model.RoleStudent))
	router.GET(basePath+"/mine", h.auth.Protect(h.ListMine, model.RoleStudent))
	router.GET(basePath+"/tutor/:tutorId", h.auth.Protect(h.Status, model.RoleStudent))
	router.DELETE(basePath+"/tutor/:tutorId", h.auth.Protect(h.Remove, model.RoleStudent))
}

func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.FavoriteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	favorite, err := h.service.Add(r.Context(), caller, &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteCreated(w, favorite); err != nil {
		h.log.Error("failed to write created response", "handler", "Add", "operation", "WriteCreated", "error", err)
	}
}

func (h *FavoriteHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

func (h *FavoriteHandler) Status(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := h.service.Status(r.Context(), caller, ps.ByName("tutorId"))
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, status); err != nil {
		h.log.Error("failed to write success response", "handler", "Status", "operation", "WriteSuccess", "error", err)
	}
}

func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Remove(r.Context(), caller, ps.ByName("tutorId")); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

package handler

import (
	"net/http"

	"tutorhub/internal/reviews/service"
	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const basePath = "/api/reviews"

type ReviewHandler struct {
	service service.ReviewService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewReviewHandler(service service.ReviewService, auth *middleware.Authenticator, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *ReviewHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(basePath, h.auth.Protect(h.Create, model.RoleStudent))
	router.GET(basePath+"/tutor/:tutorId", h.ListByTutor)
	router.GET(basePath+"/mine", h.auth.Protect(h.ListMine, model.RoleStudent))
	router.DELETE(basePath+"/id/:id", h.auth.Protect(h.Delete, model.RoleStudent, model.RoleAdmin))
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.ReviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	review, err := h.service.Create(r.Context(), caller, &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteCreated(w, review); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReviewHandler) ListByTutor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := h.service.ListByTutor(r.Context(), ps.ByName("tutorId"), limit, offset)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WritePaginated(w, page.Items, page.TotalCount, page.Limit, page.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByTutor", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReviewHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

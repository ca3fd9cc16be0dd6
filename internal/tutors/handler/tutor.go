package handler

import (
	"net/http"
	"strings"

	"tutorhub/internal/tutors/service"
	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const basePath = "/api/tutors"

type TutorHandler struct {
	service service.TutorService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewTutorHandler(service service.TutorService, auth *middleware.Authenticator, log *logger.Logger) *TutorHandler {
	return &TutorHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *TutorHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET(basePath, h.List)
	router.GET(basePath+"/id/:id", h.GetByID)
	router.GET(basePath+"/profile", h.auth.Protect(h.GetProfile, model.RoleTutor))
	router.PUT(basePath+"/profile", h.auth.Protect(h.SaveProfile, model.RoleTutor))
}

func (h *TutorHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	minRating, err := httputil.QueryFloat(r, "min_rating")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	maxRate, err := httputil.QueryFloat(r, "max_rate")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	query := r.URL.Query()
	filter := model.TutorFilter{
		Subject:   query.Get("subject"),
		Language:  query.Get("language"),
		MinRating: minRating,
		MaxRate:   maxRate,
		Sort:      strings.ToLower(strings.TrimSpace(query.Get("sort"))),
	}

	page, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WritePaginated(w, page.Items, page.TotalCount, page.Limit, page.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *TutorHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	view, err := h.service.GetApproved(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TutorHandler) GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.service.GetOwn(r.Context(), caller)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, profile); err != nil {
		h.log.Error("failed to write success response", "handler", "GetProfile", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TutorHandler) SaveProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.TutorProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	profile, created, err := h.service.SaveOwn(r.Context(), caller, &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	write := httputil.WriteSuccess
	if created {
		write = httputil.WriteCreated
	}
	if err := write(w, profile); err != nil {
		h.log.Error("failed to write profile response", "handler", "SaveProfile", "created", created, "error", err)
	}
}

package handler

import (
	"net/http"

	"tutorhub/internal/studymaterials/service"
	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const basePath = "/api/study-materials"

type StudyMaterialHandler struct {
	service service.StudyMaterialService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewStudyMaterialHandler(service service.StudyMaterialService, auth *middleware.Authenticator, log *logger.Logger) *StudyMaterialHandler {
	return &StudyMaterialHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *StudyMaterialHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(basePath, h.auth.Protect(h.Create, model.RoleTutor))
	router.GET(basePath+"/mine", h.auth.Protect(h.ListMine, model.RoleStudent, model.RoleTutor))
	router.GET(basePath+"/id/:id", h.auth.Protect(h.GetByID))
	router.PATCH(basePath+"/id/:id", h.auth.Protect(h.Update, model.RoleTutor))
	router.DELETE(basePath+"/id/:id", h.auth.Protect(h.Delete, model.RoleTutor))
	router.PATCH(basePath+"/id/:id/share", h.auth.Protect(h.Share, model.RoleTutor))
}

func (h *StudyMaterialHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.StudyMaterialRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	material, err := h.service.Create(r.Context(), caller, &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteCreated(w, material); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *StudyMaterialHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

func (h *StudyMaterialHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	material, err := h.service.Get(r.Context(), caller, ps.ByName("id"))
	h.writeMaterial(w, r, "GetByID", material, err)
}

func (h *StudyMaterialHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.StudyMaterialUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	material, err := h.service.Update(r.Context(), caller, ps.ByName("id"), &req)
	h.writeMaterial(w, r, "Update", material, err)
}

func (h *StudyMaterialHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

func (h *StudyMaterialHandler) Share(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.ShareRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	material, err := h.service.Share(r.Context(), caller, ps.ByName("id"), &req)
	h.writeMaterial(w, r, "Share", material, err)
}

func (h *StudyMaterialHandler) writeMaterial(w http.ResponseWriter, r *http.Request, name string, material *model.StudyMaterial, err error) {
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}
	if err := httputil.WriteSuccess(w, material); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

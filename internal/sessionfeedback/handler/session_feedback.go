package handler

import (
	"net/http"

	"tutorhub/internal/sessionfeedback/service"
	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const basePath = "/api/session-feedback"

type SessionFeedbackHandler struct {
	service service.SessionFeedbackService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewSessionFeedbackHandler(service service.SessionFeedbackService, auth *middleware.Authenticator, log *logger.Logger) *SessionFeedbackHandler {
	return &SessionFeedbackHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *SessionFeedbackHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(basePath, h.auth.Protect(h.Create, model.RoleTutor))
	router.GET(basePath+"/booking/:bookingId", h.auth.Protect(h.GetByBooking))
	router.GET(basePath+"/mine", h.auth.Protect(h.ListMine, model.RoleStudent, model.RoleTutor))
	router.PATCH(basePath+"/id/:id", h.auth.Protect(h.UpdateTutorSection, model.RoleTutor))
	router.PATCH(basePath+"/id/:id/student", h.auth.Protect(h.SubmitStudentFeedback, model.RoleStudent))
	router.PATCH(basePath+"/id/:id/homework/:homeworkId", h.auth.Protect(h.UpdateHomework, model.RoleStudent, model.RoleTutor))
}

func (h *SessionFeedbackHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.SessionFeedbackRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	feedback, err := h.service.Create(r.Context(), caller, &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteCreated(w, feedback); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *SessionFeedbackHandler) GetByBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	feedback, err := h.service.GetByBooking(r.Context(), caller, ps.ByName("bookingId"))
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, feedback); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByBooking", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SessionFeedbackHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

func (h *SessionFeedbackHandler) UpdateTutorSection(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.SessionFeedbackUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	feedback, err := h.service.UpdateTutorSection(r.Context(), caller, ps.ByName("id"), &req)
	h.writeFeedback(w, r, "UpdateTutorSection", feedback, err)
}

func (h *SessionFeedbackHandler) SubmitStudentFeedback(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.StudentFeedbackRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	feedback, err := h.service.SubmitStudentFeedback(r.Context(), caller, ps.ByName("id"), &req)
	h.writeFeedback(w, r, "SubmitStudentFeedback", feedback, err)
}

func (h *SessionFeedbackHandler) UpdateHomework(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.HomeworkStatusUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	feedback, err := h.service.UpdateHomework(r.Context(), caller, ps.ByName("id"), ps.ByName("homeworkId"), &req)
	h.writeFeedback(w, r, "UpdateHomework", feedback, err)
}

func (h *SessionFeedbackHandler) writeFeedback(w http.ResponseWriter, r *http.Request, name string, feedback *model.SessionFeedback, err error) {
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}
	if err := httputil.WriteSuccess(w, feedback); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

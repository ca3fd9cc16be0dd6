package handler

import (
	"net/http"

	"tutorhub/internal/users/service"
	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const basePath = "/api/auth"

type UserHandler struct {
	service service.UserService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, auth *middleware.Authenticator, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(basePath+"/register", h.Register)
	router.POST(basePath+"/login", h.Login)
	router.POST(basePath+"/forgot-password", h.ForgotPassword)
	router.POST(basePath+"/reset-password", h.ResetPassword)

	router.GET(basePath+"/me", h.auth.Protect(h.Me))
	router.PATCH(basePath+"/me", h.auth.Protect(h.UpdateMe))
	router.POST(basePath+"/change-password", h.auth.Protect(h.ChangePassword))
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteCreated(w, resp); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "operation", "WriteCreated", "error", err)
	}
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.service.Me(r.Context(), caller)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var upd model.ProfileUpdate
	if err := httputil.DecodeJSON(r, &upd); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	user, err := h.service.UpdateMe(r.Context(), caller, &upd)
	if err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateMe", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := httputil.Caller(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.ChangePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), caller, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ForgotPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := httputil.WriteAccepted(w, map[string]string{
		"message": "If the email is registered, a reset link has been sent",
	}); err != nil {
		h.log.Error("failed to write accepted response", "handler", "ForgotPassword", "operation", "WriteAccepted", "error", err)
	}
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ResetPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), &req); err != nil {
		httputil.WriteErrorWithLog(h.log, w, r, err)
		return
	}

	httputil.WriteNoContent(w)
}

// Copyright (c) 2026 Communication LTD. All rights reserved.

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/commltd/commltd-api/internal/platform/middleware"
	requestutil "github.com/commltd/commltd-api/internal/platform/request"
	"github.com/commltd/commltd-api/internal/platform/respond"
	"github.com/commltd/commltd-api/internal/platform/validate"
)

// forgotPasswordMessage is returned for every forgot-password request,
// registered email or not, so the endpoint cannot be used for enumeration.
const forgotPasswordMessage = "If your email exists in our system, you will receive a reset token shortly"

// Handler exposes the authentication endpoints over HTTP.
type Handler struct {
	service  *Service
	throttle func(http.Handler) http.Handler
}

// NewHandler creates the authentication HTTP handler.
//
// throttle, when non-nil, is applied to the credential-guessing surface
// (login and forgot-password) only.
func NewHandler(service *Service, throttle func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, throttle: throttle}
}

// Routes assembles the authentication router.
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", h.register)
	router.Post("/reset-password", h.resetPassword)

	router.Group(func(guarded chi.Router) {
		if h.throttle != nil {
			guarded.Use(h.throttle)
		}
		guarded.Post("/login", h.login)
		guarded.Post("/forgot-password", h.forgotPassword)
	})

	router.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)
		authed.Post("/change-password", h.changePassword)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// # Endpoints

// register handles POST /register.
func (h *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var payload registerRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.
		Required(FieldUsername, payload.Username).
		MaxLen(FieldUsername, payload.Username, 50).
		Required(FieldEmail, payload.Email).
		Required(FieldPassword, payload.Password)
	if payload.Email != "" {
		validator.Email(FieldEmail, payload.Email)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := h.service.Register(request.Context(), RegisterInput{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, account)
}

// login handles POST /login.
func (h *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var payload loginRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.
		Required(FieldUsername, payload.Username).
		Required(FieldPassword, payload.Password).
		Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := h.service.Login(request.Context(), LoginInput{
		Username: payload.Username,
		Password: payload.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

// changePassword handles POST /change-password (authenticated).
func (h *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload changePasswordRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.
		Required(FieldCurrentPassword, payload.CurrentPassword).
		Required(FieldNewPassword, payload.NewPassword).
		Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = h.service.ChangePassword(request.Context(), ChangePasswordInput{
		Username:        claims.Username,
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Password changed successfully"})
}

// forgotPassword handles POST /forgot-password.
//
// The response is identical whether or not the email is registered.
func (h *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var payload forgotPasswordRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.
		Required(FieldEmail, payload.Email).
		Email(FieldEmail, payload.Email).
		Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.service.ForgotPassword(request.Context(), payload.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: forgotPasswordMessage})
}

// resetPassword handles POST /reset-password.
func (h *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var payload resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.
		Required(FieldEmail, payload.Email).
		Required(FieldToken, payload.Token).
		Required(FieldNewPassword, payload.NewPassword).
		Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := h.service.ResetPassword(request.Context(), ResetPasswordInput{
		Email:       payload.Email,
		Token:       payload.Token,
		NewPassword: payload.NewPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Password has been reset successfully"})
}

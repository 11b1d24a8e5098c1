package handler

import (
	"net/http"

	"github.com/Ali-LB/dbcc/internal/api/middleware"
	"github.com/Ali-LB/dbcc/internal/app/access"
	"github.com/Ali-LB/dbcc/internal/app/service"
	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// tokenRequestAck is the only answer to token requests, whatever the account state.
const tokenRequestAck = "If an account exists for that email, a message has been sent."

type AuthHandler struct {
	authService  *service.AuthService
	tokenService *service.TokenService
	limit        func(route string) func(http.Handler) http.Handler
}

func NewAuthHandler(
	authService *service.AuthService,
	tokenService *service.TokenService,
	limit func(route string) func(http.Handler) http.Handler,
) *AuthHandler {
	return &AuthHandler{authService: authService, tokenService: tokenService, limit: limit}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.With(h.limit("login")).Post("/login", h.login)
	r.Post("/confirm", h.confirm)
	r.With(h.limit("confirm_resend")).Post("/confirm/resend", h.resendConfirmation)
	r.With(h.limit("forgot")).Post("/forgot", h.forgotPassword)
	r.Post("/reset", h.resetPassword)
	r.With(middleware.Authenticator).Get("/me", h.me)
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

type confirmRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.tokenService.ConfirmEmail(r.Context(), req.Token); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Email confirmed successfully. You can now sign in.")
}

func (h *AuthHandler) resendConfirmation(w http.ResponseWriter, r *http.Request) {
	h.requestToken(w, r, model.TokenKindEmailConfirmation)
}

func (h *AuthHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	h.requestToken(w, r, model.TokenKindPasswordReset)
}

func (h *AuthHandler) requestToken(w http.ResponseWriter, r *http.Request, kind model.TokenKind) {
	var req service.RequestTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.tokenService.RequestToken(r.Context(), req.Email, kind); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, tokenRequestAck)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.tokenService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Password has been reset. You can now sign in.")
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

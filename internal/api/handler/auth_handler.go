package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sousadrivikis20-lab/Alugabv/internal/api/middleware"
	"github.com/sousadrivikis20-lab/Alugabv/internal/app/service"
	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
	"github.com/sousadrivikis20-lab/Alugabv/internal/common/security"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/logging"
)

type AuthHandler struct {
	authService  *service.AuthService
	tokens       *security.SessionTokens
	cookieSecure bool
	log          logging.Logger
}

func NewAuthHandler(authService *service.AuthService, tokens *security.SessionTokens, cookieSecure bool, log logging.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, tokens: tokens, cookieSecure: cookieSecure, log: log}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/session", h.session)
}

type userResponse struct {
	Message string `json:"message,omitempty"`
	User    any    `json:"user"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, userResponse{Message: "user registered successfully", User: user})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	sess, err := h.authService.Login(r.Context(), req)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	token, err := h.tokens.Issue(sess.ID, sess.Expires)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	http.SetCookie(w, security.SessionCookie(token, sess.Expires, h.cookieSecure))
	common.RespondWithJSON(w, http.StatusOK, userResponse{Message: "login successful", User: sess.User})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		if err := h.authService.Logout(r.Context(), sess.ID); err != nil {
			respondError(h.log, w, r, err)
			return
		}
	}
	http.SetCookie(w, security.ClearedSessionCookie(h.cookieSecure))
	common.RespondWithMessage(w, http.StatusOK, "logout successful")
}

func (h *AuthHandler) session(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusNotFound, "no active session")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, userResponse{User: sess.User})
}

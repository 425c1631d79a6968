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

// UserHandler serves account self-service under /api/users/{userID}.
type UserHandler struct {
	userService  *service.UserService
	cookieSecure bool
	log          logging.Logger
}

func NewUserHandler(us *service.UserService, cookieSecure bool, log logging.Logger) *UserHandler {
	return &UserHandler{userService: us, cookieSecure: cookieSecure, log: log}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireAuth)
	r.Put("/{userID}/name", h.changeUsername)
	r.Put("/{userID}/email", h.changeEmail)
	r.Put("/{userID}/phone", h.changePhone)
	r.Put("/{userID}/password", h.changePassword)
	r.Delete("/{userID}", h.deleteAccount)
}

func (h *UserHandler) changeUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	sess, _ := middleware.SessionFromContext(r.Context())
	name, err := h.userService.ChangeUsername(r.Context(), sess, chi.URLParam(r, "userID"), req.Username)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message":  "username updated successfully",
		"username": name,
	})
}

func (h *UserHandler) changeEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	sess, _ := middleware.SessionFromContext(r.Context())
	email, err := h.userService.ChangeEmail(r.Context(), sess, chi.URLParam(r, "userID"), req.Email)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message": "email updated successfully",
		"email":   email,
	})
}

func (h *UserHandler) changePhone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	sess, _ := middleware.SessionFromContext(r.Context())
	phone, err := h.userService.ChangePhone(r.Context(), sess, chi.URLParam(r, "userID"), req.Phone)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message": "phone updated successfully",
		"phone":   phone,
	})
}

func (h *UserHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req service.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	sess, _ := middleware.SessionFromContext(r.Context())
	if err := h.userService.ChangePassword(r.Context(), sess, chi.URLParam(r, "userID"), req); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "password updated successfully")
}

func (h *UserHandler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	if err := h.userService.DeleteAccount(r.Context(), sess, chi.URLParam(r, "userID")); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	http.SetCookie(w, security.ClearedSessionCookie(h.cookieSecure))
	common.RespondWithMessage(w, http.StatusOK, "account deleted successfully")
}

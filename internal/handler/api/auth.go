// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/sangbad/sangbad-go/internal/i18n"
	"github.com/sangbad/sangbad-go/internal/middleware"
	"github.com/sangbad/sangbad-go/internal/model"
)

// LoginRequest is the request body for session login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the logged-in user.
type LoginResponse struct {
	User model.User `json:"user"`
}

// Login handles POST /api/v1/auth/login. On success the session is
// rotated and bound to the user.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// Rotate the session token on privilege change.
	if err := h.sm.RenewToken(r.Context()); err != nil {
		h.logger.Error("renewing session token failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error",
			i18n.T(middleware.GetLanguage(r), "error.internal"), nil)
		return
	}
	h.sm.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	WriteSuccess(w, LoginResponse{User: user}, nil)
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sm.Destroy(r.Context()); err != nil {
		h.logger.Error("destroying session failed", "error", err)
	}

	lang := middleware.GetLanguage(r)
	WriteSuccess(w, map[string]string{"message": i18n.T(lang, "auth.logged_out")}, nil)
}

// Me handles GET /api/v1/auth/me, reporting the resolved caller.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFrom(r)
	if !actor.Authenticated {
		WriteError(w, http.StatusUnauthorized, "unauthorized",
			i18n.T(middleware.GetLanguage(r), "error.unauthorized"), nil)
		return
	}

	type meResponse struct {
		UserID int64  `json:"user_id"`
		Role   string `json:"role"`
		Staff  bool   `json:"staff"`
	}
	WriteSuccess(w, meResponse{
		UserID: actor.UserID,
		Role:   actor.Role,
		Staff:  actor.IsStaff(),
	}, nil)
}

// CreateAPIKeyRequest is the request body for minting an API key.
type CreateAPIKeyRequest struct {
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CreateAPIKey handles POST /api/v1/auth/keys. Admin only. The raw key
// appears in this response and nowhere else.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req CreateAPIKeyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	issued, err := h.auth.CreateAPIKey(r.Context(), middleware.ActorFrom(r), req.Name, req.Role, req.ExpiresAt)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteCreated(w, issued)
}

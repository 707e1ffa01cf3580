// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"database/sql"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/sangbad/sangbad-go/internal/service"
	"github.com/sangbad/sangbad-go/internal/store"
)

// Session resolves a logged-in session into the request actor. Requests
// without a session pass through as anonymous. A session pointing at a
// deleted user is destroyed rather than trusted.
func Session(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	users := store.NewUsers(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// An API key already identified the caller.
			if ActorFrom(r).Authenticated {
				next.ServeHTTP(w, r)
				return
			}

			userID := sm.GetInt64(r.Context(), SessionKeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				_ = sm.Destroy(r.Context())
				next.ServeHTTP(w, r)
				return
			}

			actor := service.Actor{UserID: user.ID, Role: user.Role, Authenticated: true}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireStaff rejects requests whose actor may not see unpublished
// content. Used on the admin listing surface; per-operation authorization
// stays in the service layer.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := ActorFrom(r)
		if !actor.Authenticated {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
			return
		}
		if !actor.IsStaff() {
			WriteAPIError(w, http.StatusForbidden, "forbidden", "Staff access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

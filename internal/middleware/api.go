// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sangbad/sangbad-go/internal/service"
)

// APIError is the JSON error envelope every API endpoint and middleware
// uses.
type APIError struct {
	Error struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Fields  []string `json:"fields,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, fields []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Fields = fields

	_ = json.NewEncoder(w).Encode(apiErr)
}

// BearerToken extracts the raw token from an Authorization header.
// Returns "" when the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// APIKeyAuth resolves a Bearer API key into the request actor. Requests
// without an Authorization header pass through as anonymous; a header
// that is present but invalid is rejected so callers notice a bad or
// expired key instead of silently losing access.
func APIKeyAuth(auth *service.AuthService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			rawKey := BearerToken(r)
			if rawKey == "" {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized",
					"Invalid Authorization header format. Use: Bearer <api_key>", nil)
				return
			}

			actor, err := auth.ResolveAPIKey(r.Context(), rawKey)
			if err != nil {
				if errors.Is(err, service.ErrInvalidCredentials) {
					WriteAPIError(w, http.StatusUnauthorized, "unauthorized",
						"Invalid or expired API key", nil)
					return
				}
				logger.Error("resolving api key failed", "error", err)
				WriteAPIError(w, http.StatusInternalServerError, "internal_error",
					"Failed to validate API key", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

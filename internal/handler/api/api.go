// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST handlers for the content platform.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/sangbad/sangbad-go/internal/i18n"
	"github.com/sangbad/sangbad-go/internal/middleware"
	"github.com/sangbad/sangbad-go/internal/service"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	articles *service.ArticleService
	taxonomy *service.TaxonomyService
	auth     *service.AuthService
	recorder *service.ViewRecorder
	sm       *scs.SessionManager
	logger   *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	articles *service.ArticleService,
	taxonomy *service.TaxonomyService,
	auth *service.AuthService,
	recorder *service.ViewRecorder,
	sm *scs.SessionManager,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		articles: articles,
		taxonomy: taxonomy,
		auth:     auth,
		recorder: recorder,
		sm:       sm,
		logger:   logger,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, fields []string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Fields: fields},
	})
}

// writeServiceError maps a service error to its HTTP shape. Messages are
// localized to the request language; the code stays stable for machine
// callers.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	lang := middleware.GetLanguage(r)

	if ve, ok := service.AsValidation(err); ok {
		WriteError(w, http.StatusUnprocessableEntity, "validation_error",
			i18n.T(lang, "error.validation"), ve.Fields)
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", i18n.T(lang, "error.not_found"), nil)
	case errors.Is(err, service.ErrSlugConflict):
		WriteError(w, http.StatusConflict, "slug_conflict", i18n.T(lang, "error.slug_conflict"), nil)
	case errors.Is(err, service.ErrCategoryInUse):
		WriteError(w, http.StatusConflict, "category_in_use", i18n.T(lang, "error.category_in_use"), nil)
	case errors.Is(err, service.ErrInvalidPagination):
		WriteError(w, http.StatusBadRequest, "invalid_pagination", i18n.T(lang, "error.invalid_pagination"), nil)
	case errors.Is(err, service.ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, "unauthorized", i18n.T(lang, "error.unauthorized"), nil)
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", i18n.T(lang, "error.forbidden"), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", i18n.T(lang, "auth.invalid_credentials"), nil)
	default:
		h.logger.Error("api request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", i18n.T(lang, "error.internal"), nil)
	}
}

// decodeBody decodes a JSON request body, rejecting unknown fields so
// typos surface instead of being silently dropped.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body: "+err.Error(), nil)
		return false
	}
	return true
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{Status: "ok", Version: "v1"}, nil)
}

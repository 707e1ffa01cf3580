// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sangbad/sangbad-go/internal/handler"
	"github.com/sangbad/sangbad-go/internal/i18n"
	"github.com/sangbad/sangbad-go/internal/middleware"
	"github.com/sangbad/sangbad-go/internal/model"
	"github.com/sangbad/sangbad-go/internal/service"
)

// TaxonomyRequest is the request body for creating or updating a
// category or tag. An empty slug is derived from the name.
type TaxonomyRequest struct {
	Name        model.Localized `json:"name"`
	Slug        string          `json:"slug,omitempty"`
	Description model.Localized `json:"description,omitempty"`
}

func (req TaxonomyRequest) input() service.TaxonomyInput {
	return service.TaxonomyInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}
}

// ListCategories handles GET /api/v1/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.taxonomy.ListCategories(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, cats, nil)
}

// GetCategory handles GET /api/v1/categories/{id}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid category ID", nil)
		return
	}

	cat, svcErr := h.taxonomy.GetCategory(r.Context(), id)
	if svcErr != nil {
		h.writeServiceError(w, r, svcErr)
		return
	}
	WriteSuccess(w, cat, nil)
}

// GetCategoryBySlug handles GET /api/v1/categories/slug/{slug}.
func (h *Handler) GetCategoryBySlug(w http.ResponseWriter, r *http.Request) {
	cat, err := h.taxonomy.GetCategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, cat, nil)
}

// CreateCategory handles POST /api/v1/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req TaxonomyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cat, err := h.taxonomy.CreateCategory(r.Context(), middleware.ActorFrom(r), req.input())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, cat)
}

// UpdateCategory handles PUT /api/v1/categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid category ID", nil)
		return
	}

	var req TaxonomyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cat, svcErr := h.taxonomy.UpdateCategory(r.Context(), middleware.ActorFrom(r), id, req.input())
	if svcErr != nil {
		h.writeServiceError(w, r, svcErr)
		return
	}
	WriteSuccess(w, cat, nil)
}

// DeleteCategory handles DELETE /api/v1/categories/{id}. Refused while
// articles still reference the category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid category ID", nil)
		return
	}

	if err := h.taxonomy.DeleteCategory(r.Context(), middleware.ActorFrom(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	lang := middleware.GetLanguage(r)
	WriteSuccess(w, map[string]string{"message": i18n.T(lang, "category.deleted")}, nil)
}

// ListTags handles GET /api/v1/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.taxonomy.ListTags(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, tags, nil)
}

// GetTagBySlug handles GET /api/v1/tags/slug/{slug}.
func (h *Handler) GetTagBySlug(w http.ResponseWriter, r *http.Request) {
	tag, err := h.taxonomy.GetTagBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, tag, nil)
}

// CreateTag handles POST /api/v1/tags.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req TaxonomyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tag, err := h.taxonomy.CreateTag(r.Context(), middleware.ActorFrom(r), req.input())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, tag)
}

// UpdateTag handles PUT /api/v1/tags/{id}.
func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid tag ID", nil)
		return
	}

	var req TaxonomyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tag, svcErr := h.taxonomy.UpdateTag(r.Context(), middleware.ActorFrom(r), id, req.input())
	if svcErr != nil {
		h.writeServiceError(w, r, svcErr)
		return
	}
	WriteSuccess(w, tag, nil)
}

// DeleteTag handles DELETE /api/v1/tags/{id}. The tag is detached from
// its articles first.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid tag ID", nil)
		return
	}

	if err := h.taxonomy.DeleteTag(r.Context(), middleware.ActorFrom(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	lang := middleware.GetLanguage(r)
	WriteSuccess(w, map[string]string{"message": i18n.T(lang, "tag.deleted")}, nil)
}

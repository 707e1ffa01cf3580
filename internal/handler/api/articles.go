// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sangbad/sangbad-go/internal/handler"
	"github.com/sangbad/sangbad-go/internal/i18n"
	"github.com/sangbad/sangbad-go/internal/middleware"
	"github.com/sangbad/sangbad-go/internal/model"
	"github.com/sangbad/sangbad-go/internal/service"
)

// CreateArticleRequest is the request body for creating an article.
type CreateArticleRequest struct {
	Title       model.Localized `json:"title"`
	Excerpt     model.Localized `json:"excerpt"`
	Content     model.Localized `json:"content"`
	Slug        string          `json:"slug"`
	CoverImage  string          `json:"cover_image,omitempty"`
	Gallery     []string        `json:"gallery,omitempty"`
	CategoryID  int64           `json:"category_id"`
	TagIDs      []int64         `json:"tag_ids,omitempty"`
	Status      string          `json:"status,omitempty"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
	IsFeatured  bool            `json:"is_featured,omitempty"`
	Priority    int64           `json:"priority,omitempty"`
}

// UpdateArticleRequest is the request body for a partial article update.
// Absent fields keep their current values.
type UpdateArticleRequest struct {
	Title       *model.Localized `json:"title,omitempty"`
	Excerpt     *model.Localized `json:"excerpt,omitempty"`
	Content     *model.Localized `json:"content,omitempty"`
	Slug        *string          `json:"slug,omitempty"`
	CoverImage  *string          `json:"cover_image,omitempty"`
	Gallery     *[]string        `json:"gallery,omitempty"`
	CategoryID  *int64           `json:"category_id,omitempty"`
	TagIDs      *[]int64         `json:"tag_ids,omitempty"`
	Status      *string          `json:"status,omitempty"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
	IsFeatured  *bool            `json:"is_featured,omitempty"`
	Priority    *int64           `json:"priority,omitempty"`
}

// ListArticles handles GET /api/v1/articles.
// Public callers see only visible articles; staff may filter by status.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	page, err := handler.ParsePageParam(r)
	if err != nil {
		h.writeServiceError(w, r, service.ErrInvalidPagination)
		return
	}
	perPage, err := handler.ParsePerPageParam(r)
	if err != nil {
		h.writeServiceError(w, r, service.ErrInvalidPagination)
		return
	}

	categoryID, err := handler.ParseQueryInt64(r, "category")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid category filter", nil)
		return
	}
	tagID, err := handler.ParseQueryInt64(r, "tag")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid tag filter", nil)
		return
	}

	q := service.ListQuery{
		Status:     r.URL.Query().Get("status"),
		CategoryID: categoryID,
		TagID:      tagID,
		Search:     r.URL.Query().Get("q"),
		Featured:   handler.ParseQueryBool(r, "featured"),
		Page:       page,
		PageSize:   perPage,
	}

	result, err := h.articles.List(r.Context(), middleware.ActorFrom(r), q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, result.Items, &Meta{
		Total:   result.Total,
		Page:    result.Page,
		PerPage: result.PageSize,
		Pages:   result.PageCount,
	})
}

// GetArticle handles GET /api/v1/articles/{id}.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid article ID", nil)
		return
	}

	view, svcErr := h.articles.GetByID(r.Context(), middleware.ActorFrom(r), id)
	if svcErr != nil {
		h.writeServiceError(w, r, svcErr)
		return
	}

	WriteSuccess(w, view, nil)
}

// GetArticleBySlug handles GET /api/v1/articles/slug/{slug}. Public
// reads count towards the article's view total.
func (h *Handler) GetArticleBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	actor := middleware.ActorFrom(r)

	view, err := h.articles.GetBySlug(r.Context(), actor, slug)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if !actor.IsStaff() && h.recorder != nil {
		h.recorder.Record(view.ID, middleware.ClientIP(r), r.UserAgent())
	}

	WriteSuccess(w, view, nil)
}

// CreateArticle handles POST /api/v1/articles.
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req CreateArticleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := h.articles.Create(r.Context(), middleware.ActorFrom(r), service.ArticleInput{
		Title:       req.Title,
		Excerpt:     req.Excerpt,
		Content:     req.Content,
		Slug:        req.Slug,
		CoverImage:  req.CoverImage,
		Gallery:     req.Gallery,
		CategoryID:  req.CategoryID,
		TagIDs:      req.TagIDs,
		Status:      req.Status,
		PublishedAt: req.PublishedAt,
		IsFeatured:  req.IsFeatured,
		Priority:    req.Priority,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteCreated(w, view)
}

// UpdateArticle handles PUT /api/v1/articles/{id}.
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid article ID", nil)
		return
	}

	var req UpdateArticleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view, svcErr := h.articles.Update(r.Context(), middleware.ActorFrom(r), id, service.ArticlePatch{
		Title:       req.Title,
		Excerpt:     req.Excerpt,
		Content:     req.Content,
		Slug:        req.Slug,
		CoverImage:  req.CoverImage,
		Gallery:     req.Gallery,
		CategoryID:  req.CategoryID,
		TagIDs:      req.TagIDs,
		Status:      req.Status,
		PublishedAt: req.PublishedAt,
		IsFeatured:  req.IsFeatured,
		Priority:    req.Priority,
	})
	if svcErr != nil {
		h.writeServiceError(w, r, svcErr)
		return
	}

	WriteSuccess(w, view, nil)
}

// DeleteArticle handles DELETE /api/v1/articles/{id}.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid article ID", nil)
		return
	}

	if err := h.articles.Delete(r.Context(), middleware.ActorFrom(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	lang := middleware.GetLanguage(r)
	WriteSuccess(w, map[string]string{"message": i18n.T(lang, "article.deleted")}, nil)
}

// CheckArticleSlug handles GET /api/v1/articles/slug-check. Advisory
// feedback for editors; the unique index still decides at write time.
func (h *Handler) CheckArticleSlug(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	if slug == "" {
		WriteError(w, http.StatusBadRequest, "bad_request", "Missing slug parameter", nil)
		return
	}
	exclude, err := handler.ParseQueryInt64(r, "exclude")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid exclude parameter", nil)
		return
	}

	available, err := h.articles.SlugAvailable(r.Context(), slug, exclude)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, map[string]bool{"available": available}, nil)
}

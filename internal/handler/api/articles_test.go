// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sangbad/sangbad-go/internal/model"
	"github.com/sangbad/sangbad-go/internal/service"
)

// do runs one request against the test router. An apiKey of "" sends the
// request anonymously.
func (a *testAPI) do(t *testing.T, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		r.Header.Set("Authorization", "Bearer "+apiKey)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, r)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T     `json:"data"`
		Meta *Meta `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response %s: %v", w.Body.String(), err)
	}
	return resp.Data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error %s: %v", w.Body.String(), err)
	}
	return resp.Error
}

func articleBody(a *testAPI, slug, status string) CreateArticleRequest {
	return CreateArticleRequest{
		Title:      model.Localized{EN: "Election Update", BN: "নির্বাচনের খবর"},
		Excerpt:    model.Localized{EN: "Latest results", BN: "সর্বশেষ ফলাফল"},
		Content:    model.Localized{EN: "Full story.", BN: "পুরো খবর।"},
		Slug:       slug,
		CategoryID: a.category.ID,
		Status:     status,
	}
}

func TestStatusEndpoint(t *testing.T) {
	a, cleanup := newTestAPI(t)
	defer cleanup()

	w := a.do(t, http.MethodGet, "/api/v1/status", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	data := decodeData[StatusResponse](t, w)
	if data.Status != "ok" || data.Version != "v1" {
		t.Errorf("data = %+v", data)
	}
}

func TestCreateArticleEndpoint(t *testing.T) {
	a, cleanup := newTestAPI(t)
	defer cleanup()

	t.Run("anonymous is rejected", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/v1/articles", "", articleBody(a, "anon", ""))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("editor creates draft", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/v1/articles", a.editorKey, articleBody(a, "first-story", ""))
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		view := decodeData[service.ArticleView](t, w)
		if view.Slug != "first-story" || view.Status != model.StatusDraft {
			t.Errorf("view = slug %q status %q", view.Slug, view.Status)
		}
		if view.Category.Slug != "politics" {
			t.Errorf("category not expanded: %+v", view.Category)
		}
	})

	t.Run("validation error shape", func(t *testing.T) {
		body := articleBody(a, "half-done", model.StatusPublished)
		body.Excerpt.BN = ""
		w := a.do(t, http.MethodPost, "/api/v1/articles", a.editorKey, body)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", w.Code)
		}
		detail := decodeError(t, w)
		if detail.Code != "validation_error" {
			t.Errorf("code = %q", detail.Code)
		}
		found := false
		for _, f := range detail.Fields {
			if f == "excerpt.bn" {
				found = true
			}
		}
		if !found {
			t.Errorf("fields = %v, want excerpt.bn", detail.Fields)
		}
	})

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/v1/articles", a.editorKey, articleBody(a, "first-story", ""))
		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", w.Code)
		}
		if detail := decodeError(t, w); detail.Code != "slug_conflict" {
			t.Errorf("code = %q", detail.Code)
		}
	})

	t.Run("unknown json field is rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/articles",
			bytes.NewBufferString(`{"headline": "nope"}`))
		r.Header.Set("Authorization", "Bearer "+a.editorKey)
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestListArticlesEndpoint(t *testing.T) {
	a, cleanup := newTestAPI(t)
	defer cleanup()

	for i, status := range []string{model.StatusPublished, model.StatusPublished, model.StatusDraft} {
		slug := fmt.Sprintf("story-%d", i)
		w := a.do(t, http.MethodPost, "/api/v1/articles", a.editorKey, articleBody(a, slug, status))
		if w.Code != http.StatusCreated {
			t.Fatalf("seeding %s: %d %s", slug, w.Code, w.Body.String())
		}
	}

	t.Run("public sees only published", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/v1/articles", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var resp struct {
			Data []service.ArticleView `json:"data"`
			Meta *Meta                 `json:"meta"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if resp.Meta == nil || resp.Meta.Total != 2 {
			t.Fatalf("meta = %+v, want total 2", resp.Meta)
		}
		for _, item := range resp.Data {
			if item.Status != model.StatusPublished {
				t.Errorf("public listing leaked %q article", item.Status)
			}
		}
	})

	t.Run("staff filter by status", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/v1/articles?status=draft", a.editorKey, nil)
		var resp struct {
			Meta *Meta `json:"meta"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Meta == nil || resp.Meta.Total != 1 {
			t.Errorf("meta = %+v, want total 1", resp.Meta)
		}
	})

	t.Run("garbage pagination is a 400", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/v1/articles?page=abc", "", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if detail := decodeError(t, w); detail.Code != "invalid_pagination" {
			t.Errorf("code = %q", detail.Code)
		}
	})

	t.Run("oversized page size is a 400", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/v1/articles?per_page=500", "", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("malformed category filter is a 400", func(t *testing.T) {
		for _, query := range []string{"category=abc", "category=-1", "tag=xyz"} {
			w := a.do(t, http.MethodGet, "/api/v1/articles?"+query, "", nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("?%s: status = %d, want 400", query, w.Code)
				continue
			}
			if detail := decodeError(t, w); detail.Code != "bad_request" {
				t.Errorf("?%s: code = %q", query, detail.Code)
			}
		}
	})

	t.Run("unknown category id matches nothing", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/v1/articles?category=424242", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var resp struct {
			Meta *Meta `json:"meta"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Meta == nil || resp.Meta.Total != 0 {
			t.Errorf("meta = %+v, want total 0", resp.Meta)
		}
	})

	t.Run("bengali error message", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/articles?page=abc", nil)
		r.Header.Set("Accept-Language", "bn-BD")
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, r)
		detail := decodeError(t, w)
		if detail.Code != "invalid_pagination" {
			t.Fatalf("code = %q", detail.Code)
		}
		// Message should be the Bengali translation, not the English one.
		if detail.Message == "" || detail.Message == "Invalid pagination parameters" {
			t.Errorf("message not localized: %q", detail.Message)
		}
	})
}

func TestGetArticleEndpoints(t *testing.T) {
	a, cleanup := newTestAPI(t)
	defer cleanup()

	w := a.do(t, http.MethodPost, "/api/v1/articles", a.editorKey, articleBody(a, "read-me", model.StatusPublished))
	if w.Code != http.StatusCreated {
		t.Fatalf("seeding: %d", w.Code)
	}
	created := decodeData[service.ArticleView](t, w)

	wDraft := a.do(t, http.MethodPost, "/api/v1/articles", a.editorKey, articleBody(a, "hidden", ""))
	draft := decodeData[service.ArticleView](t, wDraft)

	t.Run("by id", func(t *testing.T) {
		w := a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", created.ID), "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		view := decodeData[service.ArticleView](t, w)
		if view.ContentHTML == nil {
			t.Error("single read missing rendered content")
		}
	})

	t.Run("draft hidden from public", func(t *testing.T) {
		w := a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", draft.ID), "", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("draft visible to staff", func(t *testing.T) {
		w := a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", draft.ID), a.editorKey, nil)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("by slug records a view", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/v1/articles/slug/read-me", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}

		// The recorder drains asynchronously.
		deadline := time.Now().Add(2 * time.Second)
		for a.handler.recorder.Pending() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		if a.handler.recorder.Pending() == 0 {
			t.Error("public slug read did not record a view")
		}
	})

	t.Run("bad id is a 400", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/v1/articles/abc", "", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestUpdateAndDeleteArticleEndpoints(t *testing.T) {
	a, cleanup := newTestAPI(t)
	defer cleanup()

	w := a.do(t, http.MethodPost, "/api/v1/articles", a.editorKey, articleBody(a, "lifecycle", ""))
	created := decodeData[service.ArticleView](t, w)

	t.Run("publish via update", func(t *testing.T) {
		status := model.StatusPublished
		w := a.do(t, http.MethodPut, fmt.Sprintf("/api/v1/articles/%d", created.ID), a.editorKey,
			UpdateArticleRequest{Status: &status})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		view := decodeData[service.ArticleView](t, w)
		if view.Status != model.StatusPublished || !view.PublishedAt.Valid {
			t.Errorf("view = %+v", view.Article)
		}
	})

	t.Run("editor cannot delete", func(t *testing.T) {
		w := a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/articles/%d", created.ID), a.editorKey, nil)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("admin deletes", func(t *testing.T) {
		w := a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/articles/%d", created.ID), a.adminKey, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		w = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", created.ID), a.adminKey, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("after delete: %d, want 404", w.Code)
		}
	})
}

func TestSlugCheckEndpoint(t *testing.T) {
	a, cleanup := newTestAPI(t)
	defer cleanup()

	a.do(t, http.MethodPost, "/api/v1/articles", a.editorKey, articleBody(a, "taken-slug", ""))

	w := a.do(t, http.MethodGet, "/api/v1/articles/slug-check?slug=taken-slug", "", nil)
	if got := decodeData[map[string]bool](t, w); got["available"] {
		t.Error("taken slug reported available")
	}

	w = a.do(t, http.MethodGet, "/api/v1/articles/slug-check?slug=free-slug", "", nil)
	if got := decodeData[map[string]bool](t, w); !got["available"] {
		t.Error("free slug reported taken")
	}

	w = a.do(t, http.MethodGet, "/api/v1/articles/slug-check", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing slug param: %d, want 400", w.Code)
	}

	w = a.do(t, http.MethodGet, "/api/v1/articles/slug-check?slug=free-slug&exclude=abc", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed exclude param: %d, want 400", w.Code)
	}
}

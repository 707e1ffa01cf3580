// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/sangbad/sangbad-go/internal/auth"
	"github.com/sangbad/sangbad-go/internal/i18n"
	"github.com/sangbad/sangbad-go/internal/middleware"
	"github.com/sangbad/sangbad-go/internal/model"
	"github.com/sangbad/sangbad-go/internal/service"
	"github.com/sangbad/sangbad-go/internal/store"
	"github.com/sangbad/sangbad-go/internal/testutil"
)

// testAdminPassword is the password every test user is created with.
const testAdminPassword = "test-password-123"

// testAPI bundles everything an endpoint test needs.
type testAPI struct {
	handler  *Handler
	router   chi.Router
	db       *sql.DB
	sessions *scs.SessionManager

	articles *service.ArticleService
	taxonomy *service.TaxonomyService
	authSvc  *service.AuthService

	admin    model.User
	editor   model.User
	category model.Category

	adminKey  string // raw API key with admin role
	editorKey string // raw API key with editor role
}

// newTestAPI builds the full API stack over a fresh database: services,
// session manager, middleware chain and routes, mirroring production
// wiring.
func newTestAPI(t *testing.T) (*testAPI, func()) {
	t.Helper()
	ctx := context.Background()

	if err := i18n.Init(testutil.TestLoggerSilent()); err != nil {
		t.Fatalf("i18n init: %v", err)
	}

	db, cleanup := testutil.TestDB(t)
	logger := testutil.TestLoggerSilent()

	a := &testAPI{db: db}
	a.articles = service.NewArticleService(db, nil, logger)
	a.taxonomy = service.NewTaxonomyService(db, nil, logger)
	a.authSvc = service.NewAuthService(db, logger)
	recorder := service.NewViewRecorder(db, nil, logger)
	t.Cleanup(func() { _ = recorder.Close(context.Background()) })

	a.sessions = scs.New()
	a.handler = NewHandler(a.articles, a.taxonomy, a.authSvc, recorder, a.sessions, logger)

	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		cleanup()
		t.Fatalf("hashing: %v", err)
	}
	users := store.NewUsers(db)
	a.admin, err = users.Create(ctx, store.CreateUserParams{
		Email: "admin@test.local", PasswordHash: hash, Role: model.RoleAdmin, Name: "Admin",
	})
	if err != nil {
		cleanup()
		t.Fatalf("creating admin: %v", err)
	}
	a.editor, err = users.Create(ctx, store.CreateUserParams{
		Email: "editor@test.local", PasswordHash: hash, Role: model.RoleEditor, Name: "Editor",
	})
	if err != nil {
		cleanup()
		t.Fatalf("creating editor: %v", err)
	}

	a.category, err = store.NewTaxonomy(db).CreateCategory(ctx, store.TaxonomyParams{
		Name: model.Localized{EN: "Politics", BN: "রাজনীতি"},
		Slug: "politics",
	})
	if err != nil {
		cleanup()
		t.Fatalf("creating category: %v", err)
	}

	adminActor := service.Actor{UserID: a.admin.ID, Role: model.RoleAdmin, Authenticated: true}
	adminIssued, err := a.authSvc.CreateAPIKey(ctx, adminActor, "test-admin", model.RoleAdmin, nil)
	if err != nil {
		cleanup()
		t.Fatalf("minting admin key: %v", err)
	}
	a.adminKey = adminIssued.RawKey

	editorIssued, err := a.authSvc.CreateAPIKey(ctx, adminActor, "test-editor", model.RoleEditor, nil)
	if err != nil {
		cleanup()
		t.Fatalf("minting editor key: %v", err)
	}
	a.editorKey = editorIssued.RawKey

	a.router = a.newRouter(logger)
	return a, cleanup
}

// newRouter mirrors the /api/v1 route layout used in production.
func (a *testAPI) newRouter(logger *slog.Logger) chi.Router {
	h := a.handler

	r := chi.NewRouter()
	r.Use(a.sessions.LoadAndSave)
	r.Use(middleware.APIKeyAuth(a.authSvc, logger))
	r.Use(middleware.Session(a.sessions, a.db))
	r.Use(middleware.Language)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.Status)

		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/me", h.Me)
		r.Post("/auth/keys", h.CreateAPIKey)

		r.Get("/articles", h.ListArticles)
		r.Get("/articles/slug-check", h.CheckArticleSlug)
		r.Get("/articles/slug/{slug}", h.GetArticleBySlug)
		r.Get("/articles/{id}", h.GetArticle)
		r.Post("/articles", h.CreateArticle)
		r.Put("/articles/{id}", h.UpdateArticle)
		r.Delete("/articles/{id}", h.DeleteArticle)

		r.Get("/categories", h.ListCategories)
		r.Get("/categories/slug/{slug}", h.GetCategoryBySlug)
		r.Get("/categories/{id}", h.GetCategory)
		r.Post("/categories", h.CreateCategory)
		r.Put("/categories/{id}", h.UpdateCategory)
		r.Delete("/categories/{id}", h.DeleteCategory)

		r.Get("/tags", h.ListTags)
		r.Get("/tags/slug/{slug}", h.GetTagBySlug)
		r.Post("/tags", h.CreateTag)
		r.Put("/tags/{id}", h.UpdateTag)
		r.Delete("/tags/{id}", h.DeleteTag)
	})
	return r
}

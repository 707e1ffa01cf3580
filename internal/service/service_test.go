// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/sangbad/sangbad-go/internal/auth"
	"github.com/sangbad/sangbad-go/internal/cache"
	"github.com/sangbad/sangbad-go/internal/model"
	"github.com/sangbad/sangbad-go/internal/store"
	"github.com/sangbad/sangbad-go/internal/testutil"
)

type testEnv struct {
	db       *sql.DB
	articles *ArticleService
	taxonomy *TaxonomyService

	admin  Actor
	editor Actor
	author Actor

	category model.Category
}

// newTestEnv builds the services over a fresh database with one user per
// role and one category.
func newTestEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()
	ctx := context.Background()

	db, cleanup := testutil.TestDB(t)
	logger := testutil.TestLoggerSilent()

	users := store.NewUsers(db)
	env := &testEnv{
		db:       db,
		articles: NewArticleService(db, nil, logger),
		taxonomy: NewTaxonomyService(db, nil, logger),
	}

	roles := []struct {
		email string
		role  string
		actor *Actor
	}{
		{"admin@test.local", model.RoleAdmin, &env.admin},
		{"editor@test.local", model.RoleEditor, &env.editor},
		{"author@test.local", model.RoleAuthor, &env.author},
	}
	for _, r := range roles {
		u, err := users.Create(ctx, store.CreateUserParams{
			Email:        r.email,
			PasswordHash: "x",
			Role:         r.role,
			Name:         r.role,
		})
		if err != nil {
			cleanup()
			t.Fatalf("creating %s: %v", r.role, err)
		}
		*r.actor = Actor{UserID: u.ID, Role: u.Role, Authenticated: true}
	}

	cat, err := store.NewTaxonomy(db).CreateCategory(ctx, store.TaxonomyParams{
		Name: model.Localized{EN: "Politics", BN: "রাজনীতি"},
		Slug: "politics",
	})
	if err != nil {
		cleanup()
		t.Fatalf("creating category: %v", err)
	}
	env.category = cat

	return env, cleanup
}

func (e *testEnv) input(slug string) ArticleInput {
	return ArticleInput{
		Title:      model.Localized{EN: "Election Update", BN: "নির্বাচনের খবর"},
		Excerpt:    model.Localized{EN: "Latest results", BN: "সর্বশেষ ফলাফল"},
		Content:    model.Localized{EN: "Full story.", BN: "পুরো খবর।"},
		Slug:       slug,
		CategoryID: e.category.ID,
	}
}

func TestPolicyTable(t *testing.T) {
	admin := Actor{UserID: 1, Role: model.RoleAdmin, Authenticated: true}
	editor := Actor{UserID: 2, Role: model.RoleEditor, Authenticated: true}
	author := Actor{UserID: 3, Role: model.RoleAuthor, Authenticated: true}

	tests := []struct {
		name   string
		actor  Actor
		action Action
		want   bool
	}{
		{"admin create", admin, ActionCreate, true},
		{"admin delete", admin, ActionDelete, true},
		{"editor create", editor, ActionCreate, true},
		{"editor publish", editor, ActionPublish, true},
		{"editor delete", editor, ActionDelete, false},
		{"author create", author, ActionCreate, false},
		{"author update", author, ActionUpdate, false},
		{"anonymous create", Anonymous, ActionCreate, false},
		{"anonymous delete", Anonymous, ActionDelete, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.actor, tt.action); got != tt.want {
				t.Errorf("Allowed(%s, %s) = %v, want %v", tt.actor.Role, tt.action, got, tt.want)
			}
		})
	}

	if admin.IsStaff() != true || editor.IsStaff() != true {
		t.Error("admin and editor should be staff")
	}
	if author.IsStaff() {
		t.Error("author should not be staff")
	}
	if Anonymous.IsStaff() {
		t.Error("anonymous should not be staff")
	}
}

func TestCreateAuthorization(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := env.articles.Create(ctx, Anonymous, env.input("anon-try")); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous create: got %v, want ErrUnauthenticated", err)
	}
	if _, err := env.articles.Create(ctx, env.author, env.input("author-try")); !errors.Is(err, ErrForbidden) {
		t.Errorf("author create: got %v, want ErrForbidden", err)
	}
	if _, err := env.articles.Create(ctx, env.editor, env.input("editor-ok")); err != nil {
		t.Errorf("editor create: %v", err)
	}
}

func TestDeleteAdminOnly(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	a, err := env.articles.Create(ctx, env.editor, env.input("to-delete"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := env.articles.Delete(ctx, env.editor, a.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("editor delete: got %v, want ErrForbidden", err)
	}
	if err := env.articles.Delete(ctx, env.admin, a.ID); err != nil {
		t.Errorf("admin delete: %v", err)
	}
	if _, err := env.articles.GetByID(ctx, env.admin, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: got %v, want ErrNotFound", err)
	}
}

func TestCreateDraftAllowsPartialContent(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	in := env.input("draft-partial")
	in.Excerpt = model.Localized{EN: "English only"}
	in.Content = model.Localized{}

	a, err := env.articles.Create(ctx, env.editor, in)
	if err != nil {
		t.Fatalf("draft with partial body: %v", err)
	}
	if a.Status != model.StatusDraft {
		t.Errorf("status = %q, want draft", a.Status)
	}
	if a.PublishedAt.Valid {
		t.Error("draft should not carry a publish timestamp")
	}
}

func TestCreateValidation(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	in := env.input("")
	in.Title = model.Localized{EN: "English only"}
	in.CategoryID = 99999

	_, err := env.articles.Create(ctx, env.editor, in)
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("got %v, want ValidationError", err)
	}
	for _, want := range []string{"slug", "title.bn", "category"} {
		if !slices.Contains(ve.Fields, want) {
			t.Errorf("fields %v missing %q", ve.Fields, want)
		}
	}
	if slices.Contains(ve.Fields, "title.en") {
		t.Errorf("fields %v should not flag title.en", ve.Fields)
	}
}

func TestPublishRequiresBothLanguages(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	in := env.input("half-translated")
	in.Excerpt = model.Localized{EN: "English only"}
	a, err := env.articles.Create(ctx, env.editor, in)
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	published := model.StatusPublished
	_, err = env.articles.Update(ctx, env.editor, a.ID, ArticlePatch{Status: &published})
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("publish with missing excerpt.bn: got %v, want ValidationError", err)
	}
	if !slices.Contains(ve.Fields, "excerpt.bn") {
		t.Errorf("fields %v missing excerpt.bn", ve.Fields)
	}

	// The failed transition must not have touched the row.
	got, err := env.articles.GetByID(ctx, env.editor, a.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != model.StatusDraft {
		t.Errorf("status after failed publish = %q, want draft", got.Status)
	}
}

func TestPublishDefaultsTimestamp(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	in := env.input("publish-now")
	in.Status = model.StatusPublished

	before := time.Now()
	a, err := env.articles.Create(ctx, env.editor, in)
	if err != nil {
		t.Fatalf("create published: %v", err)
	}
	if !a.PublishedAt.Valid {
		t.Fatal("published article has no publish timestamp")
	}
	if a.PublishedAt.Time.Before(before.Add(-time.Second)) || a.PublishedAt.Time.After(time.Now().Add(time.Second)) {
		t.Errorf("publish timestamp %v not close to now", a.PublishedAt.Time)
	}
}

func TestScheduleRequiresFutureTime(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	in := env.input("schedule-past")
	in.Status = model.StatusScheduled
	in.PublishedAt = &past

	_, err := env.articles.Create(ctx, env.editor, in)
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("scheduling in the past: got %v, want ValidationError", err)
	}
	if !slices.Contains(ve.Fields, "published_at") {
		t.Errorf("fields %v missing published_at", ve.Fields)
	}

	// Missing timestamp fails the same way.
	in2 := env.input("schedule-missing")
	in2.Status = model.StatusScheduled
	if _, err := env.articles.Create(ctx, env.editor, in2); err == nil {
		t.Error("scheduling without a timestamp should fail")
	}

	future := time.Now().Add(time.Hour)
	in3 := env.input("schedule-future")
	in3.Status = model.StatusScheduled
	in3.PublishedAt = &future
	a, err := env.articles.Create(ctx, env.editor, in3)
	if err != nil {
		t.Fatalf("scheduling in the future: %v", err)
	}
	if a.Status != model.StatusScheduled {
		t.Errorf("status = %q, want scheduled", a.Status)
	}
}

func TestUpdateScheduledAfterTimePasses(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	at := time.Now().Add(time.Hour).Truncate(time.Second)
	in := env.input("schedule-edit")
	in.Status = model.StatusScheduled
	in.PublishedAt = &at
	a, err := env.articles.Create(ctx, env.editor, in)
	if err != nil {
		t.Fatalf("create scheduled: %v", err)
	}

	// The scheduled moment passes before anyone touches the article.
	env.articles.now = func() time.Time { return at.Add(time.Hour) }

	title := model.Localized{EN: "Revised headline", BN: "সংশোধিত শিরোনাম"}
	got, err := env.articles.Update(ctx, env.editor, a.ID, ArticlePatch{Title: &title})
	if err != nil {
		t.Fatalf("title edit after scheduled time passed: %v", err)
	}
	if got.Status != model.StatusScheduled {
		t.Errorf("status = %q, want scheduled", got.Status)
	}
	if !got.PublishedAt.Valid || !got.PublishedAt.Time.Equal(at) {
		t.Errorf("schedule time changed: got %v, want %v", got.PublishedAt.Time, at)
	}

	// A newly supplied timestamp still has to lie in the future.
	stale := at.Add(30 * time.Minute)
	_, err = env.articles.Update(ctx, env.editor, a.ID, ArticlePatch{PublishedAt: &stale})
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("rescheduling into the past: got %v, want ValidationError", err)
	}
	if !slices.Contains(ve.Fields, "published_at") {
		t.Errorf("fields %v missing published_at", ve.Fields)
	}
}

func TestUpdateKeepsPublishTime(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	at := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	in := env.input("keep-time")
	in.Status = model.StatusPublished
	in.PublishedAt = &at

	a, err := env.articles.Create(ctx, env.editor, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := model.Localized{EN: "Corrected headline", BN: "সংশোধিত শিরোনাম"}
	got, err := env.articles.Update(ctx, env.editor, a.ID, ArticlePatch{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.PublishedAt.Valid || !got.PublishedAt.Time.Equal(at) {
		t.Errorf("publish time changed: got %v, want %v", got.PublishedAt.Time, at)
	}
	if got.Title.EN != "Corrected headline" {
		t.Errorf("title not updated: %q", got.Title.EN)
	}
}

func TestPublicVisibility(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	draft, err := env.articles.Create(ctx, env.editor, env.input("vis-draft"))
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	future := time.Now().Add(time.Hour)
	scheduled := env.input("vis-scheduled")
	scheduled.Status = model.StatusScheduled
	scheduled.PublishedAt = &future
	sch, err := env.articles.Create(ctx, env.editor, scheduled)
	if err != nil {
		t.Fatalf("create scheduled: %v", err)
	}

	live := env.input("vis-live")
	live.Status = model.StatusPublished
	pub, err := env.articles.Create(ctx, env.editor, live)
	if err != nil {
		t.Fatalf("create published: %v", err)
	}

	for _, hidden := range []int64{draft.ID, sch.ID} {
		if _, err := env.articles.GetByID(ctx, Anonymous, hidden); !errors.Is(err, ErrNotFound) {
			t.Errorf("public GetByID(%d): got %v, want ErrNotFound", hidden, err)
		}
	}
	if _, err := env.articles.GetByID(ctx, Anonymous, pub.ID); err != nil {
		t.Errorf("public GetByID(published): %v", err)
	}
	if _, err := env.articles.GetByID(ctx, env.editor, draft.ID); err != nil {
		t.Errorf("staff GetByID(draft): %v", err)
	}

	// Authors see the public view.
	if _, err := env.articles.GetBySlug(ctx, env.author, "vis-draft"); !errors.Is(err, ErrNotFound) {
		t.Errorf("author GetBySlug(draft): got %v, want ErrNotFound", err)
	}
	if _, err := env.articles.GetBySlug(ctx, Anonymous, "vis-live"); err != nil {
		t.Errorf("public GetBySlug(published): %v", err)
	}
}

func TestListPublicIgnoresStatusFilter(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := env.articles.Create(ctx, env.editor, env.input("list-draft")); err != nil {
		t.Fatalf("create draft: %v", err)
	}
	live := env.input("list-live")
	live.Status = model.StatusPublished
	if _, err := env.articles.Create(ctx, env.editor, live); err != nil {
		t.Fatalf("create published: %v", err)
	}

	page, err := env.articles.List(ctx, Anonymous, ListQuery{Status: model.StatusDraft})
	if err != nil {
		t.Fatalf("public list: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("public list total = %d, items = %d, want 1 visible article", page.Total, len(page.Items))
	}
	if page.Items[0].Slug != "list-live" {
		t.Errorf("public list returned %q", page.Items[0].Slug)
	}

	staffPage, err := env.articles.List(ctx, env.editor, ListQuery{Status: model.StatusDraft})
	if err != nil {
		t.Fatalf("staff list: %v", err)
	}
	if staffPage.Total != 1 || staffPage.Items[0].Slug != "list-draft" {
		t.Errorf("staff draft filter: total = %d", staffPage.Total)
	}

	all, err := env.articles.List(ctx, env.editor, ListQuery{})
	if err != nil {
		t.Fatalf("staff list all: %v", err)
	}
	if all.Total != 2 {
		t.Errorf("staff unfiltered total = %d, want 2", all.Total)
	}
}

func TestListPagination(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	for _, slug := range []string{"page-a", "page-b", "page-c"} {
		in := env.input(slug)
		in.Status = model.StatusPublished
		if _, err := env.articles.Create(ctx, env.editor, in); err != nil {
			t.Fatalf("create %s: %v", slug, err)
		}
	}

	bad := []ListQuery{
		{Page: -1},
		{Page: 1, PageSize: -5},
		{Page: 1, PageSize: MaxPageSize + 1},
	}
	for _, q := range bad {
		if _, err := env.articles.List(ctx, Anonymous, q); !errors.Is(err, ErrInvalidPagination) {
			t.Errorf("List(%+v): got %v, want ErrInvalidPagination", q, err)
		}
	}

	page, err := env.articles.List(ctx, Anonymous, ListQuery{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 || page.PageCount != 2 {
		t.Errorf("page 1: total=%d items=%d pageCount=%d, want 3/2/2",
			page.Total, len(page.Items), page.PageCount)
	}

	last, err := env.articles.List(ctx, Anonymous, ListQuery{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(last.Items) != 1 {
		t.Errorf("page 2 items = %d, want 1", len(last.Items))
	}

	// Past the end is an empty page, not an error.
	empty, err := env.articles.List(ctx, Anonymous, ListQuery{Page: 9, PageSize: 2})
	if err != nil {
		t.Fatalf("page 9: %v", err)
	}
	if len(empty.Items) != 0 || empty.Total != 3 {
		t.Errorf("past-end page: items=%d total=%d", len(empty.Items), empty.Total)
	}
}

func TestListUnknownCategoryIsEmpty(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	in := env.input("cat-known")
	in.Status = model.StatusPublished
	if _, err := env.articles.Create(ctx, env.editor, in); err != nil {
		t.Fatalf("create: %v", err)
	}

	page, err := env.articles.List(ctx, Anonymous, ListQuery{CategoryID: 424242})
	if err != nil {
		t.Fatalf("unknown category filter: %v", err)
	}
	if page.Total != 0 || len(page.Items) != 0 {
		t.Errorf("unknown category: total=%d items=%d, want empty", page.Total, len(page.Items))
	}
}

func TestSlugConflict(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := env.articles.Create(ctx, env.editor, env.input("taken")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := env.articles.Create(ctx, env.editor, env.input("taken")); !errors.Is(err, ErrSlugConflict) {
		t.Errorf("duplicate slug: got %v, want ErrSlugConflict", err)
	}

	free, err := env.articles.SlugAvailable(ctx, "taken", 0)
	if err != nil {
		t.Fatalf("SlugAvailable: %v", err)
	}
	if free {
		t.Error("taken slug reported available")
	}
}

func TestSlugConflictUnderConcurrentCreate(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	// All racers pass the advisory pre-check; the UNIQUE index decides
	// at insert time, so exactly one may win.
	const racers = 8
	results := make(chan error, racers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.articles.Create(ctx, env.editor, env.input("contested"))
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var created, conflicts int
	for err := range results {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrSlugConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if created != 1 || conflicts != racers-1 {
		t.Errorf("created = %d, conflicts = %d, want 1 and %d", created, conflicts, racers-1)
	}

	page, err := env.articles.List(ctx, env.editor, ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("articles stored = %d, want 1", page.Total)
	}
}

func TestListCacheInvalidation(t *testing.T) {
	ctx := context.Background()

	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	mem := cache.NewMemory(cache.MemoryOptions{DefaultTTL: time.Minute})
	defer mem.Close()

	logger := testutil.TestLoggerSilent()
	articles := NewArticleService(db, mem, logger)

	users := store.NewUsers(db)
	u, err := users.Create(ctx, store.CreateUserParams{
		Email: "cache@test.local", PasswordHash: "x", Role: model.RoleEditor, Name: "Cache",
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	editor := Actor{UserID: u.ID, Role: u.Role, Authenticated: true}

	cat, err := store.NewTaxonomy(db).CreateCategory(ctx, store.TaxonomyParams{
		Name: model.Localized{EN: "Sports", BN: "খেলাধুলা"}, Slug: "sports",
	})
	if err != nil {
		t.Fatalf("creating category: %v", err)
	}

	mk := func(slug string) {
		t.Helper()
		_, err := articles.Create(ctx, editor, ArticleInput{
			Title:      model.Localized{EN: "Match Report", BN: "ম্যাচ রিপোর্ট"},
			Excerpt:    model.Localized{EN: "e", BN: "ব"},
			Content:    model.Localized{EN: "c", BN: "ব"},
			Slug:       slug,
			CategoryID: cat.ID,
			Status:     model.StatusPublished,
		})
		if err != nil {
			t.Fatalf("create %s: %v", slug, err)
		}
	}

	mk("first")
	page, err := articles.List(ctx, Anonymous, ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("total = %d, want 1", page.Total)
	}

	// A warm cache must not survive a write.
	mk("second")
	page, err = articles.List(ctx, Anonymous, ListQuery{})
	if err != nil {
		t.Fatalf("list after write: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("total after write = %d, want 2", page.Total)
	}
}

func TestTaxonomySlugGeneration(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	c, err := env.taxonomy.CreateCategory(ctx, env.editor, TaxonomyInput{
		Name: model.Localized{EN: "Local Sports", BN: "স্থানীয় খেলা"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Slug != "local-sports" {
		t.Errorf("slug = %q, want local-sports", c.Slug)
	}

	// Bengali-only name still transliterates into something usable.
	tag, err := env.taxonomy.CreateTag(ctx, env.editor, TaxonomyInput{
		Name: model.Localized{EN: "Cricket", BN: "ক্রিকেট"},
		Slug: "ক্রিকেট",
	})
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	if tag.Slug == "" || tag.Slug == "ক্রিকেট" {
		t.Errorf("tag slug %q not normalized", tag.Slug)
	}
}

func TestTaxonomyDeleteRules(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := env.articles.Create(ctx, env.editor, env.input("category-holder")); err != nil {
		t.Fatalf("create article: %v", err)
	}

	if err := env.taxonomy.DeleteCategory(ctx, env.editor, env.category.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("editor delete category: got %v, want ErrForbidden", err)
	}
	if err := env.taxonomy.DeleteCategory(ctx, env.admin, env.category.ID); !errors.Is(err, ErrCategoryInUse) {
		t.Errorf("delete category in use: got %v, want ErrCategoryInUse", err)
	}

	spare, err := env.taxonomy.CreateCategory(ctx, env.admin, TaxonomyInput{
		Name: model.Localized{EN: "Obituaries", BN: "শোকসংবাদ"},
	})
	if err != nil {
		t.Fatalf("create spare category: %v", err)
	}
	if err := env.taxonomy.DeleteCategory(ctx, env.admin, spare.ID); err != nil {
		t.Errorf("delete empty category: %v", err)
	}
}

func TestLoginTimingSafeErrors(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	hash, err := auth.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	if _, err := store.NewUsers(db).Create(ctx, store.CreateUserParams{
		Email: "known@test.local", PasswordHash: hash, Role: model.RoleEditor, Name: "Known",
	}); err != nil {
		t.Fatalf("creating user: %v", err)
	}

	svc := NewAuthService(db, testutil.TestLoggerSilent())

	if _, err := svc.Login(ctx, "KNOWN@test.local ", "correct horse"); err != nil {
		t.Errorf("valid login (mixed-case email): %v", err)
	}
	if _, err := svc.Login(ctx, "known@test.local", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "nobody@test.local", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	users := store.NewUsers(db)
	adminUser, err := users.Create(ctx, store.CreateUserParams{
		Email: "root@test.local", PasswordHash: "x", Role: model.RoleAdmin, Name: "Root",
	})
	if err != nil {
		t.Fatalf("creating admin: %v", err)
	}
	admin := Actor{UserID: adminUser.ID, Role: model.RoleAdmin, Authenticated: true}
	editor := Actor{UserID: 99, Role: model.RoleEditor, Authenticated: true}

	svc := NewAuthService(db, testutil.TestLoggerSilent())

	if _, err := svc.CreateAPIKey(ctx, editor, "ci", model.RoleEditor, nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("editor minting key: got %v, want ErrForbidden", err)
	}
	if _, err := svc.CreateAPIKey(ctx, admin, "", "bogus", nil); err == nil {
		t.Error("blank name and bad role should fail validation")
	}

	issued, err := svc.CreateAPIKey(ctx, admin, "ci", model.RoleEditor, nil)
	if err != nil {
		t.Fatalf("minting key: %v", err)
	}
	if issued.RawKey == "" {
		t.Fatal("raw key missing from issue response")
	}

	actor, err := svc.ResolveAPIKey(ctx, issued.RawKey)
	if err != nil {
		t.Fatalf("resolving key: %v", err)
	}
	if !actor.Authenticated || actor.Role != model.RoleEditor || actor.UserID != adminUser.ID {
		t.Errorf("resolved actor = %+v", actor)
	}

	if _, err := svc.ResolveAPIKey(ctx, "sk_bogus"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bogus key: got %v, want ErrInvalidCredentials", err)
	}

	// Expired keys resolve to nothing.
	past := time.Now().Add(-time.Hour)
	expired, err := svc.CreateAPIKey(ctx, admin, "old", model.RoleEditor, &past)
	if err != nil {
		t.Fatalf("minting expired key: %v", err)
	}
	if _, err := svc.ResolveAPIKey(ctx, expired.RawKey); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expired key: got %v, want ErrInvalidCredentials", err)
	}
}

func TestViewRecorderFlush(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	ctx := context.Background()

	in := env.input("viewed")
	in.Status = model.StatusPublished
	a, err := env.articles.Create(ctx, env.editor, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := NewViewRecorder(env.db, nil, testutil.TestLoggerSilent())
	defer rec.Close(ctx)

	for i := 0; i < 5; i++ {
		rec.Record(a.ID, "203.0.113.9", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)")
	}

	// The intake loop is asynchronous; wait for it to drain.
	deadline := time.Now().Add(2 * time.Second)
	for rec.Pending() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := rec.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	got, err := env.articles.GetByID(ctx, env.editor, a.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Views != 5 {
		t.Errorf("views = %d, want 5", got.Views)
	}
	if rec.Pending() != 0 {
		t.Errorf("pending after flush = %d", rec.Pending())
	}

	events, err := store.NewViews(env.db).CountSince(ctx, a.ID, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("counting events: %v", err)
	}
	if events != 5 {
		t.Errorf("view events = %d, want 5", events)
	}
}

func TestDeviceType(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"", "unknown"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15", "mobile"},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", "desktop"},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "bot"},
	}
	for _, tt := range tests {
		if got := deviceType(tt.ua); got != tt.want {
			t.Errorf("deviceType(%q) = %q, want %q", tt.ua, got, tt.want)
		}
	}
}

// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sangbad/sangbad-go/internal/cache"
	"github.com/sangbad/sangbad-go/internal/model"
	"github.com/sangbad/sangbad-go/internal/store"
	"github.com/sangbad/sangbad-go/internal/util"
)

// MaxPageSize bounds listing page sizes to prevent unbounded scans.
const MaxPageSize = 100

// DefaultPageSize is used when the caller does not specify one.
const DefaultPageSize = 10

// ArticleService implements the publication state machine and the
// listing query engine over the article repository.
type ArticleService struct {
	articles *store.Articles
	taxonomy *store.Taxonomy
	users    *store.Users
	cacher   cache.Cacher
	views    *cache.Typed[ArticleView]
	listings *cache.Typed[ArticlePage]
	logger   *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewArticleService creates the article service. The cache may be nil in
// tests; reads then always go to the store.
func NewArticleService(db *sql.DB, cacher cache.Cacher, logger *slog.Logger) *ArticleService {
	s := &ArticleService{
		articles: store.NewArticles(db),
		taxonomy: store.NewTaxonomy(db),
		users:    store.NewUsers(db),
		cacher:   cacher,
		logger:   logger,
		now:      time.Now,
	}
	if cacher != nil {
		s.views = cache.NewTyped[ArticleView](cacher, 5*time.Minute)
		s.listings = cache.NewTyped[ArticlePage](cacher, time.Minute)
	}
	return s
}

// AuthorView is the public projection of an article's author.
type AuthorView struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// ArticleView is an article expanded with its category, tags and author,
// the self-contained record the read API returns. ContentHTML is only
// populated on single-article reads.
type ArticleView struct {
	model.Article
	Category    model.Category   `json:"category"`
	Tags        []model.Tag      `json:"tags"`
	Author      AuthorView       `json:"author"`
	Gallery     []string         `json:"gallery,omitempty"`
	ContentHTML *model.Localized `json:"content_html,omitempty"`
}

// ArticlePage is one page of a listing.
type ArticlePage struct {
	Items     []ArticleView `json:"items"`
	Total     int64         `json:"total"`
	Page      int           `json:"page"`
	PageSize  int           `json:"page_size"`
	PageCount int           `json:"page_count"`
}

// ArticleInput holds the fields for creating an article.
type ArticleInput struct {
	Title       model.Localized
	Excerpt     model.Localized
	Content     model.Localized
	Slug        string
	CoverImage  string
	Gallery     []string
	CategoryID  int64
	TagIDs      []int64
	Status      string // empty means draft
	PublishedAt *time.Time
	IsFeatured  bool
	Priority    int64
}

// ArticlePatch holds a partial update; nil fields keep their current value.
type ArticlePatch struct {
	Title       *model.Localized
	Excerpt     *model.Localized
	Content     *model.Localized
	Slug        *string
	CoverImage  *string
	Gallery     *[]string
	CategoryID  *int64
	TagIDs      *[]int64
	Status      *string
	PublishedAt *time.Time
	IsFeatured  *bool
	Priority    *int64
}

// ListQuery selects and pages articles. Page is 1-indexed. Zero values
// mean "no filter"; PageSize 0 means DefaultPageSize.
type ListQuery struct {
	Status     string
	CategoryID int64
	TagID      int64
	Search     string
	Featured   bool
	Page       int
	PageSize   int
}

// Create validates and stores a new article. The actor becomes the
// author. Default status is draft.
func (s *ArticleService) Create(ctx context.Context, actor Actor, in ArticleInput) (ArticleView, error) {
	if err := authorize(actor, ActionCreate); err != nil {
		return ArticleView{}, err
	}
	if in.Status == "" {
		in.Status = model.StatusDraft
	}
	if in.Status == model.StatusPublished {
		if err := authorize(actor, ActionPublish); err != nil {
			return ArticleView{}, err
		}
	}

	in.Title = in.Title.Trimmed()
	in.Excerpt = in.Excerpt.Trimmed()
	in.Content = in.Content.Trimmed()
	in.Slug = util.NormalizeSlug(in.Slug)

	publishedAt, err := s.validateWrite(ctx, in, 0, true)
	if err != nil {
		return ArticleView{}, err
	}

	now := s.now()
	a, err := s.articles.Create(ctx, store.CreateArticleParams{
		Title:       in.Title,
		Slug:        in.Slug,
		Excerpt:     in.Excerpt,
		Content:     in.Content,
		CoverImage:  in.CoverImage,
		Gallery:     in.Gallery,
		CategoryID:  in.CategoryID,
		TagIDs:      in.TagIDs,
		AuthorID:    actor.UserID,
		Status:      in.Status,
		PublishedAt: publishedAt,
		IsFeatured:  in.IsFeatured,
		Priority:    in.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, store.ErrSlugTaken) {
			return ArticleView{}, ErrSlugConflict
		}
		return ArticleView{}, err
	}

	s.invalidate(ctx)
	s.logger.Info("article created",
		"category", model.EventCategoryArticle,
		"id", a.ID, "slug", a.Slug, "status", a.Status, "author", actor.UserID)

	return s.expandOne(ctx, a, false)
}

// Update applies a partial update. Transitions into published re-run
// bilingual validation; a failed transition leaves the row untouched.
func (s *ArticleService) Update(ctx context.Context, actor Actor, id int64, p ArticlePatch) (ArticleView, error) {
	if err := authorize(actor, ActionUpdate); err != nil {
		return ArticleView{}, err
	}

	current, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ArticleView{}, ErrNotFound
		}
		return ArticleView{}, err
	}

	in := ArticleInput{
		Title:       current.Title,
		Excerpt:     current.Excerpt,
		Content:     current.Content,
		Slug:        current.Slug,
		CoverImage:  current.CoverImage,
		CategoryID:  current.CategoryID,
		Status:      current.Status,
		PublishedAt: util.TimePtrFromNull(current.PublishedAt),
		IsFeatured:  current.IsFeatured,
		Priority:    current.Priority,
	}
	in.Gallery, err = s.articles.GalleryFor(ctx, id)
	if err != nil {
		return ArticleView{}, err
	}
	currentTags, err := s.articles.TagsFor(ctx, id)
	if err != nil {
		return ArticleView{}, err
	}
	for _, t := range currentTags {
		in.TagIDs = append(in.TagIDs, t.ID)
	}

	if p.Title != nil {
		in.Title = p.Title.Trimmed()
	}
	if p.Excerpt != nil {
		in.Excerpt = p.Excerpt.Trimmed()
	}
	if p.Content != nil {
		in.Content = p.Content.Trimmed()
	}
	if p.Slug != nil {
		in.Slug = util.NormalizeSlug(*p.Slug)
	}
	if p.CoverImage != nil {
		in.CoverImage = *p.CoverImage
	}
	if p.Gallery != nil {
		in.Gallery = *p.Gallery
	}
	if p.CategoryID != nil {
		in.CategoryID = *p.CategoryID
	}
	if p.TagIDs != nil {
		in.TagIDs = *p.TagIDs
	}
	if p.Status != nil {
		in.Status = *p.Status
	}
	if p.PublishedAt != nil {
		in.PublishedAt = p.PublishedAt
	}
	if p.IsFeatured != nil {
		in.IsFeatured = *p.IsFeatured
	}
	if p.Priority != nil {
		in.Priority = *p.Priority
	}

	enteringPublished := in.Status == model.StatusPublished && current.Status != model.StatusPublished
	if enteringPublished {
		if err := authorize(actor, ActionPublish); err != nil {
			return ArticleView{}, err
		}
	}

	// An article that is already scheduled keeps its timestamp valid even
	// after the moment passes; only entering the state or supplying a new
	// time re-checks that it lies in the future.
	enforceSchedule := current.Status != model.StatusScheduled || p.PublishedAt != nil

	publishedAt, err := s.validateWrite(ctx, in, id, enforceSchedule)
	if err != nil {
		return ArticleView{}, err
	}
	// Keep the original publish time when the article stays published
	// and no new time was supplied.
	if in.Status == model.StatusPublished && !enteringPublished && p.PublishedAt == nil {
		publishedAt = current.PublishedAt
	}
	// Reverting to draft clears public visibility but keeps the
	// timestamp for history.
	if in.Status == model.StatusDraft && p.PublishedAt == nil {
		publishedAt = current.PublishedAt
	}

	a, err := s.articles.Update(ctx, store.UpdateArticleParams{
		ID:          id,
		Title:       in.Title,
		Slug:        in.Slug,
		Excerpt:     in.Excerpt,
		Content:     in.Content,
		CoverImage:  in.CoverImage,
		Gallery:     in.Gallery,
		CategoryID:  in.CategoryID,
		TagIDs:      in.TagIDs,
		Status:      in.Status,
		PublishedAt: publishedAt,
		IsFeatured:  in.IsFeatured,
		Priority:    in.Priority,
		UpdatedAt:   s.now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSlugTaken):
			return ArticleView{}, ErrSlugConflict
		case errors.Is(err, store.ErrNotFound):
			return ArticleView{}, ErrNotFound
		}
		return ArticleView{}, err
	}

	s.invalidate(ctx)
	s.logger.Info("article updated",
		"category", model.EventCategoryArticle,
		"id", a.ID, "slug", a.Slug, "status", a.Status, "actor", actor.UserID)

	return s.expandOne(ctx, a, false)
}

// Delete hard-deletes an article. Admin only.
func (s *ArticleService) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := authorize(actor, ActionDelete); err != nil {
		return err
	}

	if err := s.articles.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.invalidate(ctx)
	s.logger.Info("article deleted",
		"category", model.EventCategoryArticle, "id", id, "actor", actor.UserID)
	return nil
}

// GetByID returns one expanded article. Staff see every status; everyone
// else only sees articles passing the visibility predicate, and gets
// NotFound otherwise so drafts are indistinguishable from absent rows.
func (s *ArticleService) GetByID(ctx context.Context, actor Actor, id int64) (ArticleView, error) {
	a, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ArticleView{}, ErrNotFound
		}
		return ArticleView{}, err
	}
	if !actor.IsStaff() && !a.VisibleAt(s.now()) {
		return ArticleView{}, ErrNotFound
	}
	return s.expandOne(ctx, a, true)
}

// GetBySlug returns one expanded article by slug, with the same
// visibility rule as GetByID. Public hits are served from cache.
func (s *ArticleService) GetBySlug(ctx context.Context, actor Actor, slug string) (ArticleView, error) {
	slug = util.NormalizeSlug(slug)

	if !actor.IsStaff() && s.views != nil {
		if v, ok := s.views.Get(ctx, cache.ArticleSlugKey(slug)); ok {
			return *v, nil
		}
	}

	a, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ArticleView{}, ErrNotFound
		}
		return ArticleView{}, err
	}
	if !actor.IsStaff() && !a.VisibleAt(s.now()) {
		return ArticleView{}, ErrNotFound
	}

	view, err := s.expandOne(ctx, a, true)
	if err != nil {
		return ArticleView{}, err
	}

	if !actor.IsStaff() && s.views != nil {
		_ = s.views.Set(ctx, cache.ArticleSlugKey(slug), &view)
	}
	return view, nil
}

// List returns one page of expanded articles. Public callers are
// implicitly restricted to visible articles and their status filter is
// ignored, so totals always match the items actually returned.
func (s *ArticleService) List(ctx context.Context, actor Actor, q ListQuery) (ArticlePage, error) {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Page < 1 || q.PageSize < 1 || q.PageSize > MaxPageSize {
		return ArticlePage{}, ErrInvalidPagination
	}

	params := store.ListArticlesParams{
		CategoryID:   q.CategoryID,
		TagID:        q.TagID,
		Search:       strings.TrimSpace(q.Search),
		FeaturedOnly: q.Featured,
		Limit:        int64(q.PageSize),
		Offset:       int64(q.Page-1) * int64(q.PageSize),
	}

	public := !actor.IsStaff()
	if public {
		params.VisibleAt = s.now()
	} else {
		params.Status = q.Status
	}

	var key string
	if public && s.listings != nil {
		key = cache.ListingKey(listSignature(params, q.Page))
		if p, ok := s.listings.Get(ctx, key); ok {
			return *p, nil
		}
	}

	items, err := s.articles.List(ctx, params)
	if err != nil {
		return ArticlePage{}, err
	}
	total, err := s.articles.Count(ctx, params)
	if err != nil {
		return ArticlePage{}, err
	}

	views, err := s.expand(ctx, items)
	if err != nil {
		return ArticlePage{}, err
	}

	page := ArticlePage{
		Items:     views,
		Total:     total,
		Page:      q.Page,
		PageSize:  q.PageSize,
		PageCount: int((total + int64(q.PageSize) - 1) / int64(q.PageSize)),
	}

	if public && s.listings != nil {
		_ = s.listings.Set(ctx, key, &page)
	}
	return page, nil
}

// SlugAvailable is the advisory pre-check for editor feedback. The
// UNIQUE index remains authoritative at write time.
func (s *ArticleService) SlugAvailable(ctx context.Context, slug string, excludeID int64) (bool, error) {
	slug = util.NormalizeSlug(slug)
	if !util.IsValidSlug(slug) {
		return false, nil
	}
	taken, err := s.articles.SlugExists(ctx, slug, excludeID)
	return !taken, err
}

// validateWrite runs the full validation for a create or the merged row
// of an update. It returns the publish timestamp to store. Nothing is
// written when validation fails. enforceSchedule demands a future
// timestamp for the scheduled status; updates clear it when the article
// was already scheduled and the caller did not supply a new time.
func (s *ArticleService) validateWrite(ctx context.Context, in ArticleInput, excludeID int64, enforceSchedule bool) (sql.NullTime, error) {
	var fields []string

	if !model.ValidStatus(in.Status) {
		fields = append(fields, "status")
	}
	if !util.IsValidSlug(in.Slug) {
		fields = append(fields, "slug")
	}
	fields = append(fields, model.ValidateBilingual("title", in.Title)...)

	// Excerpt and content may arrive partial for drafts; publication
	// demands both languages everywhere.
	if in.Status == model.StatusPublished {
		fields = append(fields, model.ValidateBilingual("excerpt", in.Excerpt)...)
		fields = append(fields, model.ValidateBilingual("content", in.Content)...)
	}

	now := s.now()
	var publishedAt sql.NullTime
	switch in.Status {
	case model.StatusPublished:
		// Publishing without a timestamp means "now".
		if in.PublishedAt != nil {
			publishedAt = sql.NullTime{Time: *in.PublishedAt, Valid: true}
		} else {
			publishedAt = sql.NullTime{Time: now, Valid: true}
		}
	case model.StatusScheduled:
		switch {
		case in.PublishedAt == nil:
			fields = append(fields, "published_at")
		case enforceSchedule && !in.PublishedAt.After(now):
			fields = append(fields, "published_at")
		default:
			publishedAt = sql.NullTime{Time: *in.PublishedAt, Valid: true}
		}
	default:
		publishedAt = util.NullTimeFromPtr(in.PublishedAt)
	}

	if in.CategoryID == 0 {
		fields = append(fields, "category")
	} else if _, err := s.taxonomy.GetCategoryByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fields = append(fields, "category")
		} else {
			return sql.NullTime{}, err
		}
	}

	if len(fields) > 0 {
		return sql.NullTime{}, &ValidationError{Fields: fields}
	}

	// Advisory slug check for a friendlier error than the constraint
	// violation; the index still guards the race.
	taken, err := s.articles.SlugExists(ctx, in.Slug, excludeID)
	if err != nil {
		return sql.NullTime{}, err
	}
	if taken {
		return sql.NullTime{}, ErrSlugConflict
	}

	return publishedAt, nil
}

// expandOne expands a single article, including gallery and rendered
// content when full is set.
func (s *ArticleService) expandOne(ctx context.Context, a model.Article, full bool) (ArticleView, error) {
	views, err := s.expand(ctx, []model.Article{a})
	if err != nil {
		return ArticleView{}, err
	}
	view := views[0]

	if full {
		gallery, err := s.articles.GalleryFor(ctx, a.ID)
		if err != nil {
			return ArticleView{}, err
		}
		view.Gallery = gallery

		rendered := renderLocalized(a.Content)
		view.ContentHTML = &rendered
	}
	return view, nil
}

// expand joins categories, tags and authors onto a page of articles with
// one batched query per relation.
func (s *ArticleService) expand(ctx context.Context, items []model.Article) ([]ArticleView, error) {
	ids := make([]int64, 0, len(items))
	catIDs := make([]int64, 0, len(items))
	authorIDs := make([]int64, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.ID)
		catIDs = append(catIDs, a.CategoryID)
		authorIDs = append(authorIDs, a.AuthorID)
	}

	categories, err := s.taxonomy.CategoriesByIDs(ctx, catIDs)
	if err != nil {
		return nil, fmt.Errorf("expanding categories: %w", err)
	}
	tags, err := s.articles.TagsForArticles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("expanding tags: %w", err)
	}
	authors, err := s.users.UsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("expanding authors: %w", err)
	}

	views := make([]ArticleView, 0, len(items))
	for _, a := range items {
		v := ArticleView{
			Article:  a,
			Category: categories[a.CategoryID],
			Tags:     tags[a.ID],
		}
		if v.Tags == nil {
			v.Tags = []model.Tag{}
		}
		if u, ok := authors[a.AuthorID]; ok {
			v.Author = AuthorView{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
		}
		views = append(views, v)
	}
	return views, nil
}

// invalidate drops every cached article and listing after a write.
func (s *ArticleService) invalidate(ctx context.Context) {
	if s.cacher == nil {
		return
	}
	if err := s.cacher.DeleteByPrefix(ctx, cache.PrefixArticle); err != nil {
		s.logger.Warn("cache invalidation failed", "category", model.EventCategoryCache, "error", err)
	}
	if err := s.cacher.DeleteByPrefix(ctx, cache.PrefixListing); err != nil {
		s.logger.Warn("cache invalidation failed", "category", model.EventCategoryCache, "error", err)
	}
}

// listSignature collapses a listing filter into a cache key suffix.
func listSignature(p store.ListArticlesParams, page int) string {
	return fmt.Sprintf("s=%s;c=%d;t=%d;q=%s;f=%t;p=%d;n=%d",
		p.Status, p.CategoryID, p.TagID, p.Search, p.FeaturedOnly, page, p.Limit)
}

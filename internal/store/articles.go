// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sangbad/sangbad-go/internal/model"
)

// articleColumns is the canonical select list for article rows.
const articleColumns = `a.id, a.title_en, a.title_bn, a.slug, a.excerpt_en, a.excerpt_bn,
	a.content_en, a.content_bn, a.cover_image, a.category_id, a.author_id,
	a.status, a.published_at, a.views, a.is_featured, a.priority, a.created_at, a.updated_at`

// Articles is the article repository.
type Articles struct {
	db *sql.DB
}

// NewArticles creates the article repository.
func NewArticles(db *sql.DB) *Articles {
	return &Articles{db: db}
}

// CreateArticleParams holds the fields for a new article row.
type CreateArticleParams struct {
	Title       model.Localized
	Slug        string
	Excerpt     model.Localized
	Content     model.Localized
	CoverImage  string
	Gallery     []string
	CategoryID  int64
	TagIDs      []int64
	AuthorID    int64
	Status      string
	PublishedAt sql.NullTime
	IsFeatured  bool
	Priority    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpdateArticleParams holds the full replacement row for an update. Callers
// start from the existing row and overwrite changed fields, so an update is
// always a single complete write.
type UpdateArticleParams struct {
	ID          int64
	Title       model.Localized
	Slug        string
	Excerpt     model.Localized
	Content     model.Localized
	CoverImage  string
	Gallery     []string
	CategoryID  int64
	TagIDs      []int64
	Status      string
	PublishedAt sql.NullTime
	IsFeatured  bool
	Priority    int64
	UpdatedAt   time.Time
}

// ListArticlesParams selects and pages article rows. Zero values mean
// "no filter" for every field.
type ListArticlesParams struct {
	Status       string
	CategoryID   int64 // <0 matches nothing (unknown category reference)
	TagID        int64
	Search       string
	FeaturedOnly bool
	// VisibleAt, when non-zero, restricts rows to the public visibility
	// predicate evaluated at that instant.
	VisibleAt time.Time
	Limit     int64
	Offset    int64
}

// scanArticle reads one article row in articleColumns order.
func scanArticle(row interface{ Scan(...any) error }) (model.Article, error) {
	var a model.Article
	var isFeatured int64
	err := row.Scan(
		&a.ID, &a.Title.EN, &a.Title.BN, &a.Slug, &a.Excerpt.EN, &a.Excerpt.BN,
		&a.Content.EN, &a.Content.BN, &a.CoverImage, &a.CategoryID, &a.AuthorID,
		&a.Status, &a.PublishedAt, &a.Views, &isFeatured, &a.Priority, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return model.Article{}, err
	}
	a.IsFeatured = isFeatured != 0
	return a, nil
}

// Create inserts an article with its tags and gallery in one transaction.
// Returns ErrSlugTaken when the slug unique constraint fires.
func (s *Articles) Create(ctx context.Context, p CreateArticleParams) (model.Article, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Article{}, fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO articles (title_en, title_bn, slug, excerpt_en, excerpt_bn,
			content_en, content_bn, cover_image, category_id, author_id,
			status, published_at, is_featured, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title.EN, p.Title.BN, p.Slug, p.Excerpt.EN, p.Excerpt.BN,
		p.Content.EN, p.Content.BN, p.CoverImage, p.CategoryID, p.AuthorID,
		p.Status, p.PublishedAt, boolToInt(p.IsFeatured), p.Priority, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "articles.slug") {
			return model.Article{}, ErrSlugTaken
		}
		return model.Article{}, fmt.Errorf("inserting article: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Article{}, fmt.Errorf("reading insert id: %w", err)
	}

	if err := replaceTags(ctx, tx, id, p.TagIDs); err != nil {
		return model.Article{}, err
	}
	if err := replaceGallery(ctx, tx, id, p.Gallery); err != nil {
		return model.Article{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Article{}, fmt.Errorf("committing article: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Update replaces an article row, its tags and its gallery.
func (s *Articles) Update(ctx context.Context, p UpdateArticleParams) (model.Article, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Article{}, fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE articles SET title_en = ?, title_bn = ?, slug = ?, excerpt_en = ?, excerpt_bn = ?,
			content_en = ?, content_bn = ?, cover_image = ?, category_id = ?,
			status = ?, published_at = ?, is_featured = ?, priority = ?, updated_at = ?
		WHERE id = ?`,
		p.Title.EN, p.Title.BN, p.Slug, p.Excerpt.EN, p.Excerpt.BN,
		p.Content.EN, p.Content.BN, p.CoverImage, p.CategoryID,
		p.Status, p.PublishedAt, boolToInt(p.IsFeatured), p.Priority, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "articles.slug") {
			return model.Article{}, ErrSlugTaken
		}
		return model.Article{}, fmt.Errorf("updating article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Article{}, ErrNotFound
	}

	if err := replaceTags(ctx, tx, p.ID, p.TagIDs); err != nil {
		return model.Article{}, err
	}
	if err := replaceGallery(ctx, tx, p.ID, p.Gallery); err != nil {
		return model.Article{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Article{}, fmt.Errorf("committing article: %w", err)
	}

	return s.GetByID(ctx, p.ID)
}

// Delete hard-deletes an article; tags and gallery rows cascade.
func (s *Articles) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a single article by id.
func (s *Articles) GetByID(ctx context.Context, id int64) (model.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles a WHERE a.id = ?`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Article{}, ErrNotFound
	}
	if err != nil {
		return model.Article{}, fmt.Errorf("getting article: %w", err)
	}
	return a, nil
}

// GetBySlug fetches a single article by slug.
func (s *Articles) GetBySlug(ctx context.Context, slug string) (model.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles a WHERE a.slug = ?`, slug)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Article{}, ErrNotFound
	}
	if err != nil {
		return model.Article{}, fmt.Errorf("getting article by slug: %w", err)
	}
	return a, nil
}

// SlugExists is the advisory slug check for fast user feedback; the UNIQUE
// index remains the authoritative guard. excludeID skips the article itself
// during updates.
func (s *Articles) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return n > 0, nil
}

// buildArticleFilter assembles the WHERE clause shared by List and Count.
func buildArticleFilter(p ListArticlesParams) (string, []any) {
	var clauses []string
	var args []any

	if p.Status != "" {
		clauses = append(clauses, "a.status = ?")
		args = append(args, p.Status)
	}
	if p.CategoryID != 0 {
		clauses = append(clauses, "a.category_id = ?")
		args = append(args, p.CategoryID)
	}
	if p.TagID != 0 {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM article_tags at WHERE at.article_id = a.id AND at.tag_id = ?)")
		args = append(args, p.TagID)
	}
	if p.Search != "" {
		// Case-insensitive substring match over title and excerpt in both
		// languages; a hit in either language qualifies. lower() folds ASCII
		// only, which is all English needs, and Bengali has no case.
		needle := strings.ToLower(p.Search)
		clauses = append(clauses,
			`(instr(lower(a.title_en), ?) > 0 OR instr(a.title_bn, ?) > 0
			OR instr(lower(a.excerpt_en), ?) > 0 OR instr(a.excerpt_bn, ?) > 0)`)
		args = append(args, needle, p.Search, needle, p.Search)
	}
	if p.FeaturedOnly {
		clauses = append(clauses, "a.is_featured = 1")
	}
	if !p.VisibleAt.IsZero() {
		clauses = append(clauses, "a.status = ? AND a.published_at IS NOT NULL AND a.published_at <= ?")
		args = append(args, model.StatusPublished, p.VisibleAt)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns a page of articles. Default order is newest creation first with
// id as tiebreaker so pagination stays deterministic; featured listings order
// by priority then publish time instead.
func (s *Articles) List(ctx context.Context, p ListArticlesParams) ([]model.Article, error) {
	where, args := buildArticleFilter(p)

	order := " ORDER BY a.created_at DESC, a.id DESC"
	if p.FeaturedOnly {
		order = " ORDER BY a.priority DESC, a.published_at DESC, a.id DESC"
	}

	query := `SELECT ` + articleColumns + ` FROM articles a` + where + order + ` LIMIT ? OFFSET ?`
	args = append(args, p.Limit, p.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]model.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// Count returns the total number of articles matching the filter.
func (s *Articles) Count(ctx context.Context, p ListArticlesParams) (int64, error) {
	where, args := buildArticleFilter(p)

	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles a`+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return total, nil
}

// IncrementViews adds delta to an article's view counter. Lost updates under
// shutdown are acceptable; the counter is best-effort by contract.
func (s *Articles) IncrementViews(ctx context.Context, id, delta int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE articles SET views = views + ? WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("incrementing views: %w", err)
	}
	return nil
}

// TagsFor returns the tags attached to one article, in slug order.
func (s *Articles) TagsFor(ctx context.Context, articleID int64) ([]model.Tag, error) {
	m, err := s.TagsForArticles(ctx, []int64{articleID})
	if err != nil {
		return nil, err
	}
	return m[articleID], nil
}

// TagsForArticles fetches tags for a set of articles in a single query,
// keyed by article id. Used by the listing join expansion.
func (s *Articles) TagsForArticles(ctx context.Context, articleIDs []int64) (map[int64][]model.Tag, error) {
	result := make(map[int64][]model.Tag)
	if len(articleIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(articleIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(articleIDs))
	for _, id := range articleIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT at.article_id, t.id, t.name_en, t.name_bn, t.slug,
			t.description_en, t.description_bn, t.created_at, t.updated_at
		FROM article_tags at
		JOIN tags t ON t.id = at.tag_id
		WHERE at.article_id IN (`+placeholders+`)
		ORDER BY t.slug`, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching article tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var articleID int64
		var t model.Tag
		if err := rows.Scan(&articleID, &t.ID, &t.Name.EN, &t.Name.BN, &t.Slug,
			&t.Description.EN, &t.Description.BN, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		result[articleID] = append(result[articleID], t)
	}
	return result, rows.Err()
}

// GalleryFor returns an article's gallery URLs in position order.
func (s *Articles) GalleryFor(ctx context.Context, articleID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url FROM article_gallery WHERE article_id = ? ORDER BY position`, articleID)
	if err != nil {
		return nil, fmt.Errorf("fetching gallery: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scanning gallery url: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

// CountByCategory reports how many articles reference a category. Used to
// refuse deleting a category still in use.
func (s *Articles) CountByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE category_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting articles by category: %w", err)
	}
	return n, nil
}

func replaceTags(ctx context.Context, tx *sql.Tx, articleID int64, tagIDs []int64) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM article_tags WHERE article_id = ?`, articleID); err != nil {
		return fmt.Errorf("clearing article tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_tags (article_id, tag_id) VALUES (?, ?)`, articleID, tagID); err != nil {
			return fmt.Errorf("attaching tag %d: %w", tagID, err)
		}
	}
	return nil
}

func replaceGallery(ctx context.Context, tx *sql.Tx, articleID int64, urls []string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM article_gallery WHERE article_id = ?`, articleID); err != nil {
		return fmt.Errorf("clearing gallery: %w", err)
	}
	for i, url := range urls {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_gallery (article_id, position, url) VALUES (?, ?, ?)`,
			articleID, i, url); err != nil {
			return fmt.Errorf("inserting gallery url: %w", err)
		}
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

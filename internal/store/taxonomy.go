// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sangbad/sangbad-go/internal/model"
)

// Taxonomy is the repository for categories and tags. The two share a schema
// and slug-registry behavior, so one repository covers both.
type Taxonomy struct {
	db *sql.DB
}

// NewTaxonomy creates the taxonomy repository.
func NewTaxonomy(db *sql.DB) *Taxonomy {
	return &Taxonomy{db: db}
}

// TaxonomyParams holds the writable fields of a category or tag.
type TaxonomyParams struct {
	Name        model.Localized
	Slug        string
	Description model.Localized
}

func scanCategory(row interface{ Scan(...any) error }) (model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.Name.EN, &c.Name.BN, &c.Slug,
		&c.Description.EN, &c.Description.BN, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanTag(row interface{ Scan(...any) error }) (model.Tag, error) {
	var t model.Tag
	err := row.Scan(&t.ID, &t.Name.EN, &t.Name.BN, &t.Slug,
		&t.Description.EN, &t.Description.BN, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// CreateCategory inserts a category. Returns ErrSlugTaken on slug conflict.
func (s *Taxonomy) CreateCategory(ctx context.Context, p TaxonomyParams) (model.Category, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name_en, name_bn, slug, description_en, description_bn, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name.EN, p.Name.BN, p.Slug, p.Description.EN, p.Description.BN, now, now)
	if err != nil {
		if isUniqueViolation(err, "categories.slug") {
			return model.Category{}, ErrSlugTaken
		}
		return model.Category{}, fmt.Errorf("inserting category: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetCategoryByID(ctx, id)
}

// UpdateCategory replaces a category's fields.
func (s *Taxonomy) UpdateCategory(ctx context.Context, id int64, p TaxonomyParams) (model.Category, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name_en = ?, name_bn = ?, slug = ?, description_en = ?, description_bn = ?, updated_at = ?
		WHERE id = ?`,
		p.Name.EN, p.Name.BN, p.Slug, p.Description.EN, p.Description.BN, time.Now(), id)
	if err != nil {
		if isUniqueViolation(err, "categories.slug") {
			return model.Category{}, ErrSlugTaken
		}
		return model.Category{}, fmt.Errorf("updating category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Category{}, ErrNotFound
	}
	return s.GetCategoryByID(ctx, id)
}

// DeleteCategory removes a category. Categories still referenced by articles
// are protected: the cascade question is a product decision this layer
// refuses to guess, so it fails with ErrCategoryInUse instead.
func (s *Taxonomy) DeleteCategory(ctx context.Context, id int64) error {
	var inUse int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE category_id = ?`, id).Scan(&inUse); err != nil {
		return fmt.Errorf("checking category references: %w", err)
	}
	if inUse > 0 {
		return ErrCategoryInUse
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCategoryByID fetches a category by id.
func (s *Taxonomy) GetCategoryByID(ctx context.Context, id int64) (model.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, `
		SELECT id, name_en, name_bn, slug, description_en, description_bn, created_at, updated_at
		FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, ErrNotFound
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("getting category: %w", err)
	}
	return c, nil
}

// GetCategoryBySlug fetches a category by slug.
func (s *Taxonomy) GetCategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, `
		SELECT id, name_en, name_bn, slug, description_en, description_bn, created_at, updated_at
		FROM categories WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, ErrNotFound
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("getting category by slug: %w", err)
	}
	return c, nil
}

// ListCategories returns all categories ordered by slug.
func (s *Taxonomy) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name_en, name_bn, slug, description_en, description_bn, created_at, updated_at
		FROM categories ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CategoriesByIDs fetches categories for a set of ids, keyed by id.
// Used by the listing join expansion.
func (s *Taxonomy) CategoriesByIDs(ctx context.Context, ids []int64) (map[int64]model.Category, error) {
	result := make(map[int64]model.Category)
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, name_en, name_bn, slug, description_en, description_bn, created_at, updated_at
		FROM categories WHERE id IN (?` + repeatPlaceholder(len(ids)-1) + `)`
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		result[c.ID] = c
	}
	return result, rows.Err()
}

// CreateTag inserts a tag. Returns ErrSlugTaken on slug conflict.
func (s *Taxonomy) CreateTag(ctx context.Context, p TaxonomyParams) (model.Tag, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (name_en, name_bn, slug, description_en, description_bn, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name.EN, p.Name.BN, p.Slug, p.Description.EN, p.Description.BN, now, now)
	if err != nil {
		if isUniqueViolation(err, "tags.slug") {
			return model.Tag{}, ErrSlugTaken
		}
		return model.Tag{}, fmt.Errorf("inserting tag: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTagByID(ctx, id)
}

// UpdateTag replaces a tag's fields.
func (s *Taxonomy) UpdateTag(ctx context.Context, id int64, p TaxonomyParams) (model.Tag, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tags SET name_en = ?, name_bn = ?, slug = ?, description_en = ?, description_bn = ?, updated_at = ?
		WHERE id = ?`,
		p.Name.EN, p.Name.BN, p.Slug, p.Description.EN, p.Description.BN, time.Now(), id)
	if err != nil {
		if isUniqueViolation(err, "tags.slug") {
			return model.Tag{}, ErrSlugTaken
		}
		return model.Tag{}, fmt.Errorf("updating tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Tag{}, ErrNotFound
	}
	return s.GetTagByID(ctx, id)
}

// DeleteTag removes a tag, detaching it from any articles first.
func (s *Taxonomy) DeleteTag(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM article_tags WHERE tag_id = ?`, id); err != nil {
		return fmt.Errorf("detaching tag: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// GetTagByID fetches a tag by id.
func (s *Taxonomy) GetTagByID(ctx context.Context, id int64) (model.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx, `
		SELECT id, name_en, name_bn, slug, description_en, description_bn, created_at, updated_at
		FROM tags WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tag{}, ErrNotFound
	}
	if err != nil {
		return model.Tag{}, fmt.Errorf("getting tag: %w", err)
	}
	return t, nil
}

// GetTagBySlug fetches a tag by slug.
func (s *Taxonomy) GetTagBySlug(ctx context.Context, slug string) (model.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx, `
		SELECT id, name_en, name_bn, slug, description_en, description_bn, created_at, updated_at
		FROM tags WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tag{}, ErrNotFound
	}
	if err != nil {
		return model.Tag{}, fmt.Errorf("getting tag by slug: %w", err)
	}
	return t, nil
}

// ListTags returns all tags ordered by slug.
func (s *Taxonomy) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name_en, name_bn, slug, description_en, description_bn, created_at, updated_at
		FROM tags ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tags []model.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// CategorySlugExists is the advisory slug check for categories.
func (s *Taxonomy) CategorySlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&n)
	return n > 0, err
}

// TagSlugExists is the advisory slug check for tags.
func (s *Taxonomy) TagSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tags WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&n)
	return n > 0, err
}

// repeatPlaceholder returns n additional ",?" fragments.
func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ",?"
	}
	return out
}

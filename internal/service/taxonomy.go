// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/sangbad/sangbad-go/internal/cache"
	"github.com/sangbad/sangbad-go/internal/model"
	"github.com/sangbad/sangbad-go/internal/store"
	"github.com/sangbad/sangbad-go/internal/util"
)

// TaxonomyService manages categories and tags. The same policy gate as
// articles applies: staff create and update, only admins delete.
type TaxonomyService struct {
	taxonomy *store.Taxonomy
	cacher   cache.Cacher
	cats     *cache.Typed[[]model.Category]
	tags     *cache.Typed[[]model.Tag]
	logger   *slog.Logger
}

// NewTaxonomyService creates the taxonomy service. The cache may be nil.
func NewTaxonomyService(db *sql.DB, cacher cache.Cacher, logger *slog.Logger) *TaxonomyService {
	s := &TaxonomyService{
		taxonomy: store.NewTaxonomy(db),
		cacher:   cacher,
		logger:   logger,
	}
	if cacher != nil {
		s.cats = cache.NewTyped[[]model.Category](cacher, 10*time.Minute)
		s.tags = cache.NewTyped[[]model.Tag](cacher, 10*time.Minute)
	}
	return s
}

// TaxonomyInput holds the fields for a category or tag. An empty slug is
// derived from the English name, transliterating when the name is Bengali
// only.
type TaxonomyInput struct {
	Name        model.Localized
	Slug        string
	Description model.Localized
}

func (s *TaxonomyService) validate(in *TaxonomyInput) error {
	in.Name = in.Name.Trimmed()
	in.Description = in.Description.Trimmed()

	fields := model.ValidateBilingual("name", in.Name)

	if in.Slug == "" {
		src := in.Name.EN
		if src == "" {
			src = in.Name.BN
		}
		in.Slug = util.Slugify(src)
	} else {
		in.Slug = util.NormalizeSlug(in.Slug)
	}
	if !util.IsValidSlug(in.Slug) {
		fields = append(fields, "slug")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// CreateCategory creates a new category.
func (s *TaxonomyService) CreateCategory(ctx context.Context, actor Actor, in TaxonomyInput) (model.Category, error) {
	if err := authorize(actor, ActionCreate); err != nil {
		return model.Category{}, err
	}
	if err := s.validate(&in); err != nil {
		return model.Category{}, err
	}

	c, err := s.taxonomy.CreateCategory(ctx, store.TaxonomyParams{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
	})
	if err != nil {
		if errors.Is(err, store.ErrSlugTaken) {
			return model.Category{}, ErrSlugConflict
		}
		return model.Category{}, err
	}

	s.invalidate(ctx)
	s.logger.Info("category created", "id", c.ID, "slug", c.Slug, "actor", actor.UserID)
	return c, nil
}

// UpdateCategory updates an existing category.
func (s *TaxonomyService) UpdateCategory(ctx context.Context, actor Actor, id int64, in TaxonomyInput) (model.Category, error) {
	if err := authorize(actor, ActionUpdate); err != nil {
		return model.Category{}, err
	}
	if err := s.validate(&in); err != nil {
		return model.Category{}, err
	}

	c, err := s.taxonomy.UpdateCategory(ctx, id, store.TaxonomyParams{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSlugTaken):
			return model.Category{}, ErrSlugConflict
		case errors.Is(err, store.ErrNotFound):
			return model.Category{}, ErrNotFound
		}
		return model.Category{}, err
	}

	s.invalidate(ctx)
	return c, nil
}

// DeleteCategory removes a category. Refused while articles still
// reference it; reassignment is an explicit editorial step, not a cascade.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, actor Actor, id int64) error {
	if err := authorize(actor, ActionDelete); err != nil {
		return err
	}

	if err := s.taxonomy.DeleteCategory(ctx, id); err != nil {
		switch {
		case errors.Is(err, store.ErrCategoryInUse):
			return ErrCategoryInUse
		case errors.Is(err, store.ErrNotFound):
			return ErrNotFound
		}
		return err
	}

	s.invalidate(ctx)
	s.logger.Info("category deleted", "id", id, "actor", actor.UserID)
	return nil
}

// GetCategory returns one category by id.
func (s *TaxonomyService) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	c, err := s.taxonomy.GetCategoryByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Category{}, ErrNotFound
	}
	return c, err
}

// GetCategoryBySlug returns one category by slug.
func (s *TaxonomyService) GetCategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	c, err := s.taxonomy.GetCategoryBySlug(ctx, util.NormalizeSlug(slug))
	if errors.Is(err, store.ErrNotFound) {
		return model.Category{}, ErrNotFound
	}
	return c, err
}

// ListCategories returns all categories, cached.
func (s *TaxonomyService) ListCategories(ctx context.Context) ([]model.Category, error) {
	if s.cats != nil {
		if v, ok := s.cats.Get(ctx, cache.CategoriesKey()); ok {
			return *v, nil
		}
	}

	cats, err := s.taxonomy.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	if s.cats != nil {
		_ = s.cats.Set(ctx, cache.CategoriesKey(), &cats)
	}
	return cats, nil
}

// CreateTag creates a new tag.
func (s *TaxonomyService) CreateTag(ctx context.Context, actor Actor, in TaxonomyInput) (model.Tag, error) {
	if err := authorize(actor, ActionCreate); err != nil {
		return model.Tag{}, err
	}
	if err := s.validate(&in); err != nil {
		return model.Tag{}, err
	}

	t, err := s.taxonomy.CreateTag(ctx, store.TaxonomyParams{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
	})
	if err != nil {
		if errors.Is(err, store.ErrSlugTaken) {
			return model.Tag{}, ErrSlugConflict
		}
		return model.Tag{}, err
	}

	s.invalidate(ctx)
	s.logger.Info("tag created", "id", t.ID, "slug", t.Slug, "actor", actor.UserID)
	return t, nil
}

// UpdateTag updates an existing tag.
func (s *TaxonomyService) UpdateTag(ctx context.Context, actor Actor, id int64, in TaxonomyInput) (model.Tag, error) {
	if err := authorize(actor, ActionUpdate); err != nil {
		return model.Tag{}, err
	}
	if err := s.validate(&in); err != nil {
		return model.Tag{}, err
	}

	t, err := s.taxonomy.UpdateTag(ctx, id, store.TaxonomyParams{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSlugTaken):
			return model.Tag{}, ErrSlugConflict
		case errors.Is(err, store.ErrNotFound):
			return model.Tag{}, ErrNotFound
		}
		return model.Tag{}, err
	}

	s.invalidate(ctx)
	return t, nil
}

// DeleteTag removes a tag, detaching it from articles first.
func (s *TaxonomyService) DeleteTag(ctx context.Context, actor Actor, id int64) error {
	if err := authorize(actor, ActionDelete); err != nil {
		return err
	}

	if err := s.taxonomy.DeleteTag(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.invalidate(ctx)
	s.logger.Info("tag deleted", "id", id, "actor", actor.UserID)
	return nil
}

// GetTagBySlug returns one tag by slug.
func (s *TaxonomyService) GetTagBySlug(ctx context.Context, slug string) (model.Tag, error) {
	t, err := s.taxonomy.GetTagBySlug(ctx, util.NormalizeSlug(slug))
	if errors.Is(err, store.ErrNotFound) {
		return model.Tag{}, ErrNotFound
	}
	return t, err
}

// ListTags returns all tags, cached.
func (s *TaxonomyService) ListTags(ctx context.Context) ([]model.Tag, error) {
	if s.tags != nil {
		if v, ok := s.tags.Get(ctx, cache.TagsKey()); ok {
			return *v, nil
		}
	}

	tags, err := s.taxonomy.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	if s.tags != nil {
		_ = s.tags.Set(ctx, cache.TagsKey(), &tags)
	}
	return tags, nil
}

// invalidate drops cached taxonomy lists and, because expanded article
// records embed category and tag names, cached articles and listings too.
func (s *TaxonomyService) invalidate(ctx context.Context) {
	if s.cacher == nil {
		return
	}
	for _, prefix := range []string{cache.PrefixTaxonomy, cache.PrefixArticle, cache.PrefixListing} {
		if err := s.cacher.DeleteByPrefix(ctx, prefix); err != nil {
			s.logger.Warn("cache invalidation failed", "category", model.EventCategoryCache, "error", err)
		}
	}
}

// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Article statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusScheduled = "scheduled"
)

// ValidStatus reports whether s is a known article status.
func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished || s == StatusScheduled
}

// Article represents a bilingual news article.
type Article struct {
	ID          int64        `json:"id"`
	Title       Localized    `json:"title"`
	Slug        string       `json:"slug"`
	Excerpt     Localized    `json:"excerpt"`
	Content     Localized    `json:"content"`
	CoverImage  string       `json:"cover_image,omitempty"`
	CategoryID  int64        `json:"category_id"`
	AuthorID    int64        `json:"author_id"`
	Status      string       `json:"status"`
	PublishedAt sql.NullTime `json:"published_at,omitempty"`
	Views       int64        `json:"views"`
	IsFeatured  bool         `json:"is_featured"`
	Priority    int64        `json:"priority"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsPublished returns true if the article is published.
func (a *Article) IsPublished() bool {
	return a.Status == StatusPublished
}

// IsDraft returns true if the article is a draft.
func (a *Article) IsDraft() bool {
	return a.Status == StatusDraft
}

// VisibleAt is the public visibility predicate: an article is shown to
// anonymous readers iff it is published and its publish timestamp has passed.
// A scheduled article with a past publish timestamp is deliberately NOT
// visible; scheduling records intent, publishing is an explicit transition.
func (a *Article) VisibleAt(now time.Time) bool {
	return a.Status == StatusPublished && a.PublishedAt.Valid && !a.PublishedAt.Time.After(now)
}

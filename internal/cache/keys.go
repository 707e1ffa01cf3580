// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import "fmt"

// Key prefixes for the entity families the read API caches. Writes
// invalidate a whole family with DeleteByPrefix.
const (
	PrefixArticle  = "article:"
	PrefixListing  = "listing:"
	PrefixTaxonomy = "taxonomy:"
)

// ArticleKey is the cache key for a single article by id.
func ArticleKey(id int64) string {
	return fmt.Sprintf("%s%d", PrefixArticle, id)
}

// ArticleSlugKey is the cache key for a single article by slug.
func ArticleSlugKey(slug string) string {
	return PrefixArticle + "slug:" + slug
}

// ListingKey is the cache key for one page of a public listing. The
// filter signature collapses every query parameter into one string so
// distinct filters never collide.
func ListingKey(signature string) string {
	return PrefixListing + signature
}

// CategoriesKey is the cache key for the full category list.
func CategoriesKey() string {
	return PrefixTaxonomy + "categories"
}

// TagsKey is the cache key for the full tag list.
func TagsKey() string {
	return PrefixTaxonomy + "tags"
}

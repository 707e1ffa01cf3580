// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"errors"
	"strings"
)

// Store errors. Services translate these into their own taxonomy.
var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrSlugTaken is returned when a slug UNIQUE constraint fires. The
	// constraint is the authoritative guard: two racing inserts with the same
	// slug serialize at the database and the loser receives this error
	// instead of silently creating a duplicate.
	ErrSlugTaken = errors.New("store: slug already taken")

	// ErrCategoryInUse is returned when deleting a category that articles
	// still reference.
	ErrCategoryInUse = errors.New("store: category is referenced by articles")
)

// isUniqueViolation reports whether err is a UNIQUE constraint failure on the
// given column ("table.column"). Both SQLite drivers used in this project
// (modernc in production, mattn in tests) surface the same message text, so
// string matching stays driver-agnostic.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

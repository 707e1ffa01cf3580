// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the editorial core: the publication state
// machine, the listing query engine, the authorization gate and the view
// counter. Handlers translate these results to HTTP; services never touch
// the transport layer.
package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means the requested entity does not exist, or is not
	// visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrSlugConflict means another live entity of the same type already
	// owns the slug.
	ErrSlugConflict = errors.New("slug already in use")

	// ErrCategoryInUse means a category cannot be deleted while articles
	// still reference it.
	ErrCategoryInUse = errors.New("category still has articles")

	// ErrUnauthenticated means the caller presented no identity for a
	// mutating operation.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden means the caller's role does not permit the operation.
	ErrForbidden = errors.New("permission denied")

	// ErrInvalidCredentials means the email/password pair did not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidPagination means page or page size is out of range.
	ErrInvalidPagination = errors.New("invalid pagination parameters")
)

// ValidationError carries the list of failed fields, e.g. "excerpt.bn"
// for a missing Bengali excerpt or "published_at" for a scheduled article
// without a future publish time.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides shared HTTP helpers for the API surface.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ErrBadParam reports a query or path parameter that failed to parse.
var ErrBadParam = errors.New("invalid parameter")

// ParseIDParam parses the {id} URL parameter as a positive int64.
func ParseIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrBadParam
	}
	return id, nil
}

// ParsePageParam parses the "page" query parameter. Missing means 0 and
// the caller's default applies; anything present must be a valid integer.
// Out-of-range values are passed through so the range check happens in
// one place.
func ParsePageParam(r *http.Request) (int, error) {
	return parseIntQuery(r, "page")
}

// ParsePerPageParam parses the "per_page" query parameter with the same
// contract as ParsePageParam.
func ParsePerPageParam(r *http.Request) (int, error) {
	return parseIntQuery(r, "per_page")
}

func parseIntQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrBadParam
	}
	return val, nil
}

// ParseQueryInt64 parses a named query parameter as a positive int64.
// Missing means 0, "no filter". Anything present must parse as a
// positive integer; a malformed value is an error rather than an
// implicit unfiltered result.
func ParseQueryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || val <= 0 {
		return 0, ErrBadParam
	}
	return val, nil
}

// ParseQueryBool parses a named query parameter as a boolean flag.
func ParseQueryBool(r *http.Request, name string) bool {
	val, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && val
}

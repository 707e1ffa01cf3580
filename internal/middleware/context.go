// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for identity resolution,
// rate limiting and request context handling.
package middleware

import (
	"context"
	"net/http"

	"github.com/sangbad/sangbad-go/internal/service"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyActor    ContextKey = "actor"
	ContextKeyLanguage ContextKey = "language"
)

// Session keys.
const (
	SessionKeyUserID = "user_id"
)

// WithActor returns a copy of ctx carrying the resolved caller identity.
func WithActor(ctx context.Context, actor service.Actor) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

// contextWithLanguage returns a copy of ctx carrying the response language.
func contextWithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ContextKeyLanguage, lang)
}

// ActorFrom retrieves the caller identity from the request context.
// Requests that carried no credentials resolve to service.Anonymous.
func ActorFrom(r *http.Request) service.Actor {
	actor, ok := r.Context().Value(ContextKeyActor).(service.Actor)
	if !ok {
		return service.Anonymous
	}
	return actor
}

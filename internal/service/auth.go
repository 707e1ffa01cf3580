// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sangbad/sangbad-go/internal/auth"
	"github.com/sangbad/sangbad-go/internal/model"
	"github.com/sangbad/sangbad-go/internal/store"
	"github.com/sangbad/sangbad-go/internal/util"
)

// AuthService verifies credentials and manages API keys.
type AuthService struct {
	users  *store.Users
	keys   *store.APIKeys
	logger *slog.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(db *sql.DB, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  store.NewUsers(db),
		keys:   store.NewAPIKeys(db),
		logger: logger,
	}
}

// Login verifies an email/password pair. The error is the same for an
// unknown email and a wrong password so the endpoint does not leak which
// accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a hash anyway to keep timing roughly constant.
			_, _ = auth.CheckPassword(password, auth.DummyHash)
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		s.logger.Warn("login failed",
			"category", model.EventCategoryAuth, "email", email)
		return model.User{}, ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("recording last login failed", "user", user.ID, "error", err)
	}

	s.logger.Info("login succeeded",
		"category", model.EventCategoryAuth, "user", user.ID, "role", user.Role)
	return user, nil
}

// IssuedKey pairs a stored API key with the raw secret, returned exactly
// once at creation.
type IssuedKey struct {
	Key    model.APIKey `json:"key"`
	RawKey string       `json:"raw_key"`
}

// CreateAPIKey mints a machine credential. Admin only; the role baked
// into the key is what the policy gate will trust on every request.
func (s *AuthService) CreateAPIKey(ctx context.Context, actor Actor, name, role string, expiresAt *time.Time) (IssuedKey, error) {
	if !actor.Authenticated {
		return IssuedKey{}, ErrUnauthenticated
	}
	if actor.Role != model.RoleAdmin {
		return IssuedKey{}, ErrForbidden
	}

	name = strings.TrimSpace(name)
	var fields []string
	if name == "" {
		fields = append(fields, "name")
	}
	if !model.ValidRole(role) {
		fields = append(fields, "role")
	}
	if len(fields) > 0 {
		return IssuedKey{}, &ValidationError{Fields: fields}
	}

	rawKey, prefix, err := model.GenerateAPIKey()
	if err != nil {
		return IssuedKey{}, err
	}

	key, err := s.keys.Create(ctx, store.CreateAPIKeyParams{
		Name:      name,
		KeyHash:   model.HashAPIKey(rawKey),
		KeyPrefix: prefix,
		Role:      role,
		ExpiresAt: util.NullTimeFromPtr(expiresAt),
		CreatedBy: actor.UserID,
	})
	if err != nil {
		return IssuedKey{}, err
	}

	s.logger.Info("api key created",
		"category", model.EventCategoryAuth,
		"id", key.ID, "name", name, "role", role, "actor", actor.UserID)

	return IssuedKey{Key: key, RawKey: rawKey}, nil
}

// ResolveAPIKey maps a presented bearer token to an actor. Expired and
// deactivated keys resolve to nothing.
func (s *AuthService) ResolveAPIKey(ctx context.Context, rawKey string) (Actor, error) {
	key, err := s.keys.GetByHash(ctx, model.HashAPIKey(rawKey))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Actor{}, ErrInvalidCredentials
		}
		return Actor{}, err
	}
	if !key.IsValid() {
		return Actor{}, ErrInvalidCredentials
	}

	// Best-effort usage stamp.
	_ = s.keys.TouchLastUsed(ctx, key.ID)

	return Actor{UserID: key.CreatedBy, Role: key.Role, Authenticated: true}, nil
}

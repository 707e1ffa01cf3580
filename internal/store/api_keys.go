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

// APIKeys is the API key repository.
type APIKeys struct {
	db *sql.DB
}

// NewAPIKeys creates the API key repository.
func NewAPIKeys(db *sql.DB) *APIKeys {
	return &APIKeys{db: db}
}

// CreateAPIKeyParams holds the fields for a new API key row.
type CreateAPIKeyParams struct {
	Name      string
	KeyHash   string
	KeyPrefix string
	Role      string
	ExpiresAt sql.NullTime
	CreatedBy int64
}

const apiKeyColumns = `id, name, key_hash, key_prefix, role, is_active, expires_at, last_used_at, created_by, created_at, updated_at`

func scanAPIKey(row interface{ Scan(...any) error }) (model.APIKey, error) {
	var k model.APIKey
	var active int64
	err := row.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Role, &active,
		&k.ExpiresAt, &k.LastUsedAt, &k.CreatedBy, &k.CreatedAt, &k.UpdatedAt)
	k.IsActive = active != 0
	return k, err
}

// Create inserts an API key.
func (s *APIKeys) Create(ctx context.Context, p CreateAPIKeyParams) (model.APIKey, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO api_keys (name, key_hash, key_prefix, role, expires_at, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.KeyHash, p.KeyPrefix, p.Role, p.ExpiresAt, p.CreatedBy, now, now)
	if err != nil {
		return model.APIKey{}, fmt.Errorf("inserting api key: %w", err)
	}

	id, _ := res.LastInsertId()
	k, err := scanAPIKey(s.db.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`, id))
	if err != nil {
		return model.APIKey{}, fmt.Errorf("reading api key: %w", err)
	}
	return k, nil
}

// GetByHash fetches an API key by its SHA-256 hash.
func (s *APIKeys) GetByHash(ctx context.Context, keyHash string) (model.APIKey, error) {
	k, err := scanAPIKey(s.db.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = ?`, keyHash))
	if errors.Is(err, sql.ErrNoRows) {
		return model.APIKey{}, ErrNotFound
	}
	if err != nil {
		return model.APIKey{}, fmt.Errorf("getting api key: %w", err)
	}
	return k, nil
}

// TouchLastUsed records key usage. Best-effort; callers ignore the error.
func (s *APIKeys) TouchLastUsed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

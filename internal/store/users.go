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

// Users is the user repository. This service only reads users for
// authentication and the author join; account management lives elsewhere.
type Users struct {
	db *sql.DB
}

// NewUsers creates the user repository.
func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

// CreateUserParams holds the fields for a new user row.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         string
	Name         string
	Avatar       string
	Bio          string
}

const userColumns = `id, email, password_hash, role, name, avatar, bio, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name,
		&u.Avatar, &u.Bio, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

// Create inserts a user.
func (s *Users) Create(ctx context.Context, p CreateUserParams) (model.User, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, role, name, avatar, bio, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Email, p.PasswordHash, p.Role, p.Name, p.Avatar, p.Bio, now, now)
	if err != nil {
		return model.User{}, fmt.Errorf("inserting user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetByID(ctx, id)
}

// GetByID fetches a user by id.
func (s *Users) GetByID(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetByEmail fetches a user by email.
func (s *Users) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// UsersByIDs fetches users for a set of ids, keyed by id.
// Used by the listing author expansion.
func (s *Users) UsersByIDs(ctx context.Context, ids []int64) (map[int64]model.User, error) {
	result := make(map[int64]model.User)
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id IN (?` + repeatPlaceholder(len(ids)-1) + `)`
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		result[u.ID] = u
	}
	return result, rows.Err()
}

// TouchLastLogin records a successful login.
func (s *Users) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}

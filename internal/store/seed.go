// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sangbad/sangbad-go/internal/auth"
	"github.com/sangbad/sangbad-go/internal/model"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

var seedCategories = []TaxonomyParams{
	{Name: model.Localized{EN: "Politics", BN: "রাজনীতি"}, Slug: "politics"},
	{Name: model.Localized{EN: "Sports", BN: "খেলাধুলা"}, Slug: "sports"},
	{Name: model.Localized{EN: "Technology", BN: "প্রযুক্তি"}, Slug: "technology"},
	{Name: model.Localized{EN: "Entertainment", BN: "বিনোদন"}, Slug: "entertainment"},
	{Name: model.Localized{EN: "Economy", BN: "অর্থনীতি"}, Slug: "economy"},
	{Name: model.Localized{EN: "Health", BN: "স্বাস্থ্য"}, Slug: "health"},
}

// Seed creates initial data in the database. It is idempotent: an
// existing admin user means the database was already seeded.
func Seed(ctx context.Context, db *sql.DB) error {
	users := NewUsers(db)

	_, err := users.GetByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := users.Create(ctx, CreateUserParams{
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		Name:         DefaultAdminName,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"email", user.Email,
		"password", DefaultAdminPassword,
	)

	taxonomy := NewTaxonomy(db)
	for _, c := range seedCategories {
		if _, err := taxonomy.CreateCategory(ctx, c); err != nil {
			if errors.Is(err, ErrSlugTaken) {
				continue
			}
			return fmt.Errorf("seeding category %q: %w", c.Slug, err)
		}
	}
	slog.Info("seeded starter categories", "count", len(seedCategories))

	return nil
}

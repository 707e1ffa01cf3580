// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ViewEvent is one recorded article view with the coarse client facts
// we keep for reporting.
type ViewEvent struct {
	ArticleID int64
	Country   string
	Device    string
	CreatedAt time.Time
}

// CountryCount is a per-country view tally.
type CountryCount struct {
	Country string
	Count   int64
}

// Views is the article view event repository.
type Views struct {
	db *sql.DB
}

// NewViews creates the view event repository.
func NewViews(db *sql.DB) *Views {
	return &Views{db: db}
}

// InsertBatch writes a batch of view events in one transaction.
func (s *Views) InsertBatch(ctx context.Context, events []ViewEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO article_view_events (article_id, country, device, created_at)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, e.ArticleID, e.Country, e.Device, e.CreatedAt); err != nil {
			return fmt.Errorf("inserting view event: %w", err)
		}
	}
	return tx.Commit()
}

// CountSince returns the number of views for an article since the cutoff.
func (s *Views) CountSince(ctx context.Context, articleID int64, since time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM article_view_events
		WHERE article_id = ? AND created_at >= ?`, articleID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting views: %w", err)
	}
	return n, nil
}

// TopCountries returns view counts per country since the cutoff,
// highest first. Empty countries are folded into one bucket.
func (s *Views) TopCountries(ctx context.Context, since time.Time, limit int) ([]CountryCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT country, COUNT(*) AS n FROM article_view_events
		WHERE created_at >= ?
		GROUP BY country ORDER BY n DESC LIMIT ?`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("counting countries: %w", err)
	}
	defer rows.Close()

	var out []CountryCount
	for rows.Next() {
		var c CountryCount
		if err := rows.Scan(&c.Country, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning country count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteOlderThan purges view events created before the cutoff.
func (s *Views) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM article_view_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging view events: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

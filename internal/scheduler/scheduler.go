// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs: flushing
// buffered view counts, purging aged analytics rows and reloading the
// GeoIP database.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sangbad/sangbad-go/internal/geoip"
	"github.com/sangbad/sangbad-go/internal/service"
	"github.com/sangbad/sangbad-go/internal/store"
)

// Options configures the retention jobs. Zero retention days disables
// the corresponding purge.
type Options struct {
	ViewRetentionDays  int
	EventRetentionDays int
}

// Scheduler owns the cron loop for background maintenance.
type Scheduler struct {
	views    *store.Views
	events   *store.Events
	recorder *service.ViewRecorder
	geo      *geoip.Lookup
	opts     Options
	cron     *cron.Cron
	logger   *slog.Logger
}

// New creates a scheduler. The recorder and geo lookup may be nil; the
// matching jobs are then skipped.
func New(db *sql.DB, recorder *service.ViewRecorder, geo *geoip.Lookup, opts Options, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		views:    store.NewViews(db),
		events:   store.NewEvents(db),
		recorder: recorder,
		geo:      geo,
		opts:     opts,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	if s.recorder != nil {
		// Flush buffered views every minute so counts stay fresh.
		if _, err := s.cron.AddFunc("* * * * *", func() {
			if err := s.flushViews(); err != nil {
				s.logger.Error("flushing views failed", "error", err)
			}
		}); err != nil {
			return err
		}
	}

	// Purge aged rows nightly, outside peak hours.
	if _, err := s.cron.AddFunc("30 3 * * *", func() {
		if err := s.purgeAged(); err != nil {
			s.logger.Error("retention purge failed", "error", err)
		}
	}); err != nil {
		return err
	}

	if s.geo != nil && s.geo.IsEnabled() {
		// Pick up GeoIP database updates dropped on disk.
		if _, err := s.cron.AddFunc("0 * * * *", func() {
			if err := s.geo.Reload(); err != nil {
				s.logger.Error("geoip reload failed", "error", err)
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) flushViews() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.recorder.Flush(ctx)
}

// purgeAged deletes view and event rows past their retention windows.
func (s *Scheduler) purgeAged() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	now := time.Now()

	if s.opts.ViewRetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -s.opts.ViewRetentionDays)
		n, err := s.views.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("purged aged views", "count", n, "cutoff", cutoff)
		}
	}

	if s.opts.EventRetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -s.opts.EventRetentionDays)
		n, err := s.events.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("purged aged events", "count", n, "cutoff", cutoff)
		}
	}

	return nil
}

// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/mileusna/useragent"

	"github.com/sangbad/sangbad-go/internal/geoip"
	"github.com/sangbad/sangbad-go/internal/store"
)

// ViewRecorder aggregates public article views. Counters are batched in
// memory and flushed periodically; the contract is best-effort, so views
// pending at a crash are lost and nobody is paged about it.
type ViewRecorder struct {
	articles *store.Articles
	views    *store.Views
	geo      *geoip.Lookup
	logger   *slog.Logger

	ch     chan store.ViewEvent
	done   chan struct{}
	closed sync.Once

	mu      sync.Mutex
	pending map[int64]int64 // article id -> uncommitted view count
	events  []store.ViewEvent
}

// NewViewRecorder creates the recorder. geo may be nil; view events then
// carry no country.
func NewViewRecorder(db *sql.DB, geo *geoip.Lookup, logger *slog.Logger) *ViewRecorder {
	r := &ViewRecorder{
		articles: store.NewArticles(db),
		views:    store.NewViews(db),
		geo:      geo,
		logger:   logger,
		ch:       make(chan store.ViewEvent, 1024),
		done:     make(chan struct{}),
		pending:  make(map[int64]int64),
	}
	go r.loop()
	return r
}

// Record registers one public view. Non-blocking: when the buffer is
// full the view is dropped.
func (r *ViewRecorder) Record(articleID int64, ip, userAgent string) {
	ev := store.ViewEvent{
		ArticleID: articleID,
		Device:    deviceType(userAgent),
		CreatedAt: time.Now(),
	}
	if r.geo != nil {
		ev.Country = r.geo.LookupCountry(ip)
	}

	select {
	case r.ch <- ev:
	default:
		// Full buffer; dropping a view is cheaper than blocking a read.
	}
}

// loop drains Record calls into the pending aggregates.
func (r *ViewRecorder) loop() {
	for {
		select {
		case ev := <-r.ch:
			r.mu.Lock()
			r.pending[ev.ArticleID]++
			r.events = append(r.events, ev)
			r.mu.Unlock()
		case <-r.done:
			return
		}
	}
}

// Flush commits the aggregated counters and buffered events. Called by
// the scheduler every minute and once more at shutdown.
func (r *ViewRecorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	pending := r.pending
	events := r.events
	r.pending = make(map[int64]int64)
	r.events = nil
	r.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	for articleID, delta := range pending {
		if err := r.articles.IncrementViews(ctx, articleID, delta); err != nil {
			r.logger.Warn("flushing view counters failed",
				"article", articleID, "error", err)
		}
	}

	if err := r.views.InsertBatch(ctx, events); err != nil {
		r.logger.Warn("flushing view events failed", "error", err)
		return err
	}

	r.logger.Debug("flushed article views", "articles", len(pending), "events", len(events))
	return nil
}

// Pending reports how many articles have uncommitted view counts.
func (r *ViewRecorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Close stops the intake loop and flushes what remains.
func (r *ViewRecorder) Close(ctx context.Context) error {
	r.closed.Do(func() { close(r.done) })
	return r.Flush(ctx)
}

// deviceType buckets a User-Agent header into the coarse classes the
// readership reports use.
func deviceType(uaString string) string {
	if uaString == "" {
		return "unknown"
	}
	ua := useragent.Parse(uaString)
	switch {
	case ua.Mobile:
		return "mobile"
	case ua.Tablet:
		return "tablet"
	case ua.Bot:
		return "bot"
	default:
		return "desktop"
	}
}

// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestTypedRoundTrip(t *testing.T) {
	c := newTestMemory()
	defer c.Close()
	ctx := context.Background()
	typed := NewTyped[payload](c, time.Minute)

	if _, ok := typed.Get(ctx, "missing"); ok {
		t.Error("Get on empty cache reported a hit")
	}

	want := payload{Name: "front-page", Count: 3}
	if err := typed.Set(ctx, "key", &want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := typed.Get(ctx, "key")
	if !ok {
		t.Fatal("Get missed after Set")
	}
	if *got != want {
		t.Errorf("Get = %+v, want %+v", *got, want)
	}

	if err := typed.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := typed.Get(ctx, "key"); ok {
		t.Error("Get hit after Delete")
	}
}

func TestTypedDecodeFailureIsMiss(t *testing.T) {
	c := newTestMemory()
	defer c.Close()
	ctx := context.Background()

	// Raw bytes that are not valid JSON for the payload type.
	if err := c.Set(ctx, "key", []byte("{broken"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	typed := NewTyped[payload](c, time.Minute)
	if _, ok := typed.Get(ctx, "key"); ok {
		t.Error("undecodable entry reported as hit")
	}
}

func TestTypedGetOrSet(t *testing.T) {
	c := newTestMemory()
	defer c.Close()
	ctx := context.Background()
	typed := NewTyped[payload](c, time.Minute)

	calls := 0
	load := func() (*payload, error) {
		calls++
		return &payload{Name: "computed"}, nil
	}

	got, err := typed.GetOrSet(ctx, "key", load)
	if err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}
	if got.Name != "computed" || calls != 1 {
		t.Errorf("first call: got %+v, calls = %d", got, calls)
	}

	// Second call is served from cache.
	if _, err := typed.GetOrSet(ctx, "key", load); err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}
	if calls != 1 {
		t.Errorf("loader ran %d times, want 1", calls)
	}
}

func TestTypedGetOrSetError(t *testing.T) {
	c := newTestMemory()
	defer c.Close()
	ctx := context.Background()
	typed := NewTyped[payload](c, time.Minute)

	wantErr := errors.New("load failed")
	if _, err := typed.GetOrSet(ctx, "key", func() (*payload, error) {
		return nil, wantErr
	}); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}

	// The failure must not be cached.
	if _, ok := typed.Get(ctx, "key"); ok {
		t.Error("failed load left an entry behind")
	}
}

func TestCacheKeys(t *testing.T) {
	if got := ArticleKey(7); got != "article:7" {
		t.Errorf("ArticleKey = %q", got)
	}
	if got := ArticleSlugKey("breaking-news"); got != "article:slug:breaking-news" {
		t.Errorf("ArticleSlugKey = %q", got)
	}
	if got := ListingKey("s=published|p=1"); got != "listing:s=published|p=1" {
		t.Errorf("ListingKey = %q", got)
	}
	if got := CategoriesKey(); got != "taxonomy:categories" {
		t.Errorf("CategoriesKey = %q", got)
	}
	if got := TagsKey(); got != "taxonomy:tags" {
		t.Errorf("TagsKey = %q", got)
	}
}

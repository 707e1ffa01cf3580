// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalized(t *testing.T) {
	full := Localized{EN: "News", BN: "খবর"}
	assert.True(t, full.Complete())
	assert.Empty(t, full.Missing())
	assert.Equal(t, "News", full.In(LangEN))
	assert.Equal(t, "খবর", full.In(LangBN))
	assert.Equal(t, "News", full.In("fr"), "unknown language falls back to English")

	assert.Equal(t, []string{LangBN}, Localized{EN: "News"}.Missing())
	assert.Equal(t, []string{LangEN}, Localized{BN: "খবর"}.Missing())
	assert.Equal(t, []string{LangEN, LangBN}, Localized{}.Missing())

	// Whitespace-only variants count as missing.
	assert.False(t, Localized{EN: "News", BN: "   "}.Complete())

	trimmed := Localized{EN: " a ", BN: " b "}.Trimmed()
	assert.Equal(t, Localized{EN: "a", BN: "b"}, trimmed)
}

func TestValidateBilingual(t *testing.T) {
	assert.Nil(t, ValidateBilingual("title", Localized{EN: "x", BN: "y"}))
	assert.Equal(t, []string{"excerpt.bn"}, ValidateBilingual("excerpt", Localized{EN: "x"}))
	assert.Equal(t, []string{"content.en", "content.bn"}, ValidateBilingual("content", Localized{}))
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusDraft))
	assert.True(t, ValidStatus(StatusScheduled))
	assert.True(t, ValidStatus(StatusPublished))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("archived"))
}

func TestArticleVisibleAt(t *testing.T) {
	now := time.Now()
	past := sql.NullTime{Time: now.Add(-time.Hour), Valid: true}
	future := sql.NullTime{Time: now.Add(time.Hour), Valid: true}

	cases := []struct {
		name    string
		article Article
		want    bool
	}{
		{"published in the past", Article{Status: StatusPublished, PublishedAt: past}, true},
		{"published in the future", Article{Status: StatusPublished, PublishedAt: future}, false},
		{"published without timestamp", Article{Status: StatusPublished}, false},
		{"draft", Article{Status: StatusDraft, PublishedAt: past}, false},
		{"scheduled with past timestamp", Article{Status: StatusScheduled, PublishedAt: past}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.article.VisibleAt(now))
		})
	}
}

func TestGenerateAPIKey(t *testing.T) {
	raw, prefix, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.Len(t, prefix, 8)
	assert.True(t, len(raw) > 8)
	assert.Equal(t, raw[:8], prefix)

	raw2, _, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)

	// Hash is deterministic and never echoes the key.
	assert.Equal(t, HashAPIKey(raw), HashAPIKey(raw))
	assert.NotContains(t, HashAPIKey(raw), raw[:8])
}

func TestAPIKeyValidity(t *testing.T) {
	active := APIKey{IsActive: true}
	assert.True(t, active.IsValid())
	assert.False(t, active.IsExpired())

	inactive := APIKey{IsActive: false}
	assert.False(t, inactive.IsValid())

	expired := APIKey{
		IsActive:  true,
		ExpiresAt: sql.NullTime{Time: time.Now().Add(-time.Minute), Valid: true},
	}
	assert.True(t, expired.IsExpired())
	assert.False(t, expired.IsValid())

	live := APIKey{
		IsActive:  true,
		ExpiresAt: sql.NullTime{Time: time.Now().Add(time.Hour), Valid: true},
	}
	assert.True(t, live.IsValid())
}

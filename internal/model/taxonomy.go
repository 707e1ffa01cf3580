// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Category represents a news section with bilingual naming.
type Category struct {
	ID          int64     `json:"id"`
	Name        Localized `json:"name"`
	Slug        string    `json:"slug"`
	Description Localized `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tag represents a bilingual article tag.
type Tag struct {
	ID          int64     `json:"id"`
	Name        Localized `json:"name"`
	Slug        string    `json:"slug"`
	Description Localized `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

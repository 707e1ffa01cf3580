// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including Article, Category, Tag, User and the bilingual Localized type.
package model

import "strings"

// Supported content languages.
const (
	LangEN = "en"
	LangBN = "bn"
)

// ContentLanguages lists the languages every published text field must carry.
var ContentLanguages = []string{LangEN, LangBN}

// Localized holds one value per supported language.
// Both variants are mandatory for content destined to be published.
type Localized struct {
	EN string `json:"en"`
	BN string `json:"bn"`
}

// In returns the variant for the given language code, falling back to English
// for unknown codes.
func (l Localized) In(lang string) string {
	if lang == LangBN {
		return l.BN
	}
	return l.EN
}

// Missing returns the language codes whose variant is empty after trimming.
func (l Localized) Missing() []string {
	var missing []string
	if strings.TrimSpace(l.EN) == "" {
		missing = append(missing, LangEN)
	}
	if strings.TrimSpace(l.BN) == "" {
		missing = append(missing, LangBN)
	}
	return missing
}

// Complete reports whether both language variants are non-empty.
func (l Localized) Complete() bool {
	return len(l.Missing()) == 0
}

// Trimmed returns a copy with surrounding whitespace removed from both variants.
func (l Localized) Trimmed() Localized {
	return Localized{
		EN: strings.TrimSpace(l.EN),
		BN: strings.TrimSpace(l.BN),
	}
}

// ValidateBilingual checks a localized field for missing language variants and
// returns "field.lang" entries for each one, e.g. "excerpt.bn".
func ValidateBilingual(field string, l Localized) []string {
	var out []string
	for _, lang := range l.Missing() {
		out = append(out, field+"."+lang)
	}
	return out
}

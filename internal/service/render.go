// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/sangbad/sangbad-go/internal/model"
)

// htmlSanitizer strips unsafe HTML from rendered article bodies.
// UGCPolicy allows the formatting tags editors actually use.
var htmlSanitizer = bluemonday.UGCPolicy()

// renderMarkdown converts Markdown article content to sanitized HTML.
// Render failures fall back to the sanitized source text so a bad
// document never breaks the read path.
func renderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}
	return htmlSanitizer.Sanitize(buf.String())
}

// renderLocalized renders both language variants of a content field.
func renderLocalized(l model.Localized) model.Localized {
	return model.Localized{
		EN: renderMarkdown(l.EN),
		BN: renderMarkdown(l.BN),
	}
}

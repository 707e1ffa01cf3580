// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"

	"github.com/sangbad/sangbad-go/internal/i18n"
	"github.com/sangbad/sangbad-go/internal/model"
)

// LanguageCookieName is the cookie name for language preference.
const LanguageCookieName = "sangbad_lang"

// Language detects the response language for the request. Priority:
//
//  1. Query parameter ?lang=XX (explicit switch, updates the cookie)
//  2. Cookie preference
//  3. Accept-Language header
//  4. English
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""

		if q := strings.ToLower(r.URL.Query().Get("lang")); q != "" && i18n.IsSupported(q) {
			lang = q
			SetLanguageCookie(w, q)
		}

		if lang == "" {
			if cookie, err := r.Cookie(LanguageCookieName); err == nil {
				if c := strings.ToLower(cookie.Value); i18n.IsSupported(c) {
					lang = c
				}
			}
		}

		if lang == "" {
			lang = i18n.MatchLanguage(r.Header.Get("Accept-Language"))
		}

		ctx := r.Context()
		ctx = contextWithLanguage(ctx, lang)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetLanguage retrieves the request language from the context. Defaults
// to English for requests that bypassed the middleware.
func GetLanguage(r *http.Request) string {
	lang, ok := r.Context().Value(ContextKeyLanguage).(string)
	if !ok {
		return model.LangEN
	}
	return lang
}

// SetLanguageCookie sets the language preference cookie.
func SetLanguageCookie(w http.ResponseWriter, langCode string) {
	http.SetCookie(w, &http.Cookie{
		Name:     LanguageCookieName,
		Value:    langCode,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60, // 1 year
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

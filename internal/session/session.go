// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the scs session manager backing staff logins.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// New creates a session manager persisting sessions in the sessions
// table. Production gets a __Host- prefixed secure cookie; development
// keeps a plain one so plain HTTP still works locally.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	if isDev {
		sm.Cookie.Name = "sangbad_session"
		sm.Cookie.Secure = false
	} else {
		// The __Host- prefix locks the cookie to this host over HTTPS.
		sm.Cookie.Name = "__Host-session"
		sm.Cookie.Secure = true
		sm.Cookie.Path = "/"
	}

	return sm
}

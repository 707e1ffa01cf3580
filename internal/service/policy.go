// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import "github.com/sangbad/sangbad-go/internal/model"

// Action enumerates the mutating operations the policy gate covers.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionPublish Action = "publish"
	ActionDelete  Action = "delete"
)

// Actor is the caller identity the transport layer resolves from a
// session or API key. The role claim is trusted verbatim.
type Actor struct {
	UserID        int64
	Role          string
	Authenticated bool
}

// Anonymous is the actor for unauthenticated requests.
var Anonymous = Actor{}

// IsStaff reports whether the actor may see unpublished content. Authors
// are deliberately excluded: their role is read-only in this core and they
// see exactly what the public sees.
func (a Actor) IsStaff() bool {
	return a.Authenticated && (a.Role == model.RoleAdmin || a.Role == model.RoleEditor)
}

// policy is the single authorization table consulted before every
// mutation. Kept in one place so endpoints cannot drift apart.
var policy = map[Action]map[string]bool{
	ActionCreate:  {model.RoleAdmin: true, model.RoleEditor: true},
	ActionUpdate:  {model.RoleAdmin: true, model.RoleEditor: true},
	ActionPublish: {model.RoleAdmin: true, model.RoleEditor: true},
	ActionDelete:  {model.RoleAdmin: true},
}

// Allowed reports whether the actor's role permits the action.
// Unauthenticated actors are denied all actions.
func Allowed(actor Actor, action Action) bool {
	if !actor.Authenticated {
		return false
	}
	return policy[action][actor.Role]
}

// authorize converts a policy decision into the error the transport layer
// maps to 401 or 403.
func authorize(actor Actor, action Action) error {
	if !actor.Authenticated {
		return ErrUnauthenticated
	}
	if !policy[action][actor.Role] {
		return ErrForbidden
	}
	return nil
}

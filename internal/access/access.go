// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

// Package access enforces role-based and ownership-based authorization
// rules against the Identity established by the HTTP authenticator.
// All checks are pure and synchronous so handlers can compose them.
package access

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/gigdir/gigdir/internal/auth"
)

// Gate checks identities against glob-compiled role permission patterns.
//
// Thread-safety: roles is immutable after construction and requires no
// synchronization.
type Gate struct {
	roles map[string][]compiledPermission
}

// compiledPermission holds a permission pattern and its compiled glob.
type compiledPermission struct {
	pattern string
	glob    glob.Glob
}

// NewGate creates a Gate with the default role definitions.
//
// Panics if default roles contain invalid permission patterns (configuration bug).
func NewGate() *Gate {
	g, err := NewGateWithRoles(DefaultRoles())
	if err != nil {
		// DefaultRoles() patterns are hardcoded and should always be valid.
		panic("invalid permission pattern in DefaultRoles: " + err.Error())
	}
	return g
}

// NewGateWithRoles creates a Gate with custom role definitions.
// Returns an error if any permission pattern fails to compile.
func NewGateWithRoles(roles map[string][]string) (*Gate, error) {
	compiledRoles := make(map[string][]compiledPermission, len(roles))
	for role, perms := range roles {
		compiled := make([]compiledPermission, 0, len(perms))
		for _, p := range perms {
			// Use ':' as separator for permission patterns.
			g, err := glob.Compile(p, ':')
			if err != nil {
				return nil, oops.In("access").
					Code("INVALID_PERMISSION_PATTERN").
					With("role", role).
					With("pattern", p).
					Wrap(err)
			}
			compiled = append(compiled, compiledPermission{pattern: p, glob: g})
		}
		compiledRoles[role] = compiled
	}
	return &Gate{roles: compiledRoles}, nil
}

// Allows reports whether the identity's role permits action on resource.
// The $self token in a pattern resolves to the identity's user ID, so
// patterns like "write:user:$self" scope a permission to the caller's
// own records.
func (g *Gate) Allows(identity auth.Identity, action, resource string) bool {
	permissions := g.roles[identity.Role]
	if permissions == nil {
		return false
	}

	requested := action + ":" + resource
	self := identity.UserID.String()

	for _, perm := range permissions {
		resolved := strings.ReplaceAll(perm.pattern, "$self", self)
		if resolved != perm.pattern {
			compiled, err := glob.Compile(resolved, ':')
			if err != nil {
				// A pattern that compiled statically cannot become invalid
				// by substituting a UUID, but fail closed regardless.
				continue
			}
			if compiled.Match(requested) {
				return true
			}
		} else if perm.glob.Match(requested) {
			return true
		}
	}
	return false
}

// RequirePermission returns a forbidden error unless the identity's role
// permits action on resource.
func (g *Gate) RequirePermission(identity auth.Identity, action, resource string) error {
	if !g.Allows(identity, action, resource) {
		return oops.In("access").
			Code("AUTH_FORBIDDEN").
			With("role", identity.Role).
			With("action", action).
			With("resource", resource).
			New("permission denied")
	}
	return nil
}

// RequireRole returns a forbidden error unless the identity carries the
// given role. The comparison uses the role embedded in the token claims,
// not the live store.
func RequireRole(identity auth.Identity, role string) error {
	if identity.Role != role {
		return oops.In("access").
			Code("AUTH_FORBIDDEN").
			With("required_role", role).
			With("role", identity.Role).
			New("role required")
	}
	return nil
}

// RequireOwner returns a forbidden error unless the identity owns the
// resource. Administrators do not bypass this check; handlers that want
// an admin override compose it with RequireRole.
func RequireOwner(identity auth.Identity, ownerID uuid.UUID) error {
	if identity.UserID != ownerID {
		return oops.In("access").
			Code("AUTH_FORBIDDEN").
			With("owner_id", ownerID.String()).
			With("user_id", identity.UserID.String()).
			New("not the resource owner")
	}
	return nil
}

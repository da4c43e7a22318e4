// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

// Package httpapi exposes the authentication endpoints over HTTP.
package httpapi

import (
	"context"

	"github.com/gigdir/gigdir/internal/auth"
)

// identityKey is unexported so only this package can attach an Identity.
type identityKey struct{}

// withIdentity returns a context carrying the authenticated identity.
func withIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom extracts the authenticated identity from a request context.
// The second return is false for requests that did not pass the
// authentication middleware; handlers must treat that as unauthenticated
// rather than panic.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(auth.Identity)
	return identity, ok
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package access

import "github.com/gigdir/gigdir/internal/auth"

// Permission groups define reusable sets of permissions.
// Roles compose these groups rather than inheriting.

var userPowers = []string{
	// Self access
	"read:user:$self",
	"write:user:$self",

	// Public directory content
	"read:artist:*",
	"read:review:*",

	// Own submissions
	"write:contact:$self:*",
	"write:review:$self:*",
	"delete:review:$self:*",
}

var adminPowers = []string{
	// Full access
	"read:**",
	"write:**",
	"delete:**",
	"grant:**",
}

// DefaultRoles returns the default role definitions.
// Roles compose permission groups explicitly (no inheritance).
func DefaultRoles() map[string][]string {
	return map[string][]string{
		auth.RoleUser:  userPowers,
		auth.RoleAdmin: compose(userPowers, adminPowers),
	}
}

// compose merges multiple permission slices into one.
func compose(groups ...[]string) []string {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	result := make([]string, 0, total)
	for _, g := range groups {
		result = append(result, g...)
	}
	return result
}

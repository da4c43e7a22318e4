// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Role labels stored with each user and embedded in issued tokens.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// emailRegex is deliberately loose: one @, no whitespace, a dot in the
// domain. Real validation happens when the reset mail bounces.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User is a stored credential record. The plaintext password never exists
// outside transient memory during hashing and verification.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the request-scoped result of a successful authentication.
// It is produced fresh on every token validation and never persisted.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

// ValidateEmail checks that an address is plausibly deliverable.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_VALIDATION").Errorf("email cannot be empty")
	}
	if len(email) > 254 {
		return oops.Code("AUTH_VALIDATION").Errorf("email must be at most 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_VALIDATION").Errorf("email is not a valid address")
	}
	return nil
}

// UserRepository manages stored credential persistence.
type UserRepository interface {
	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// UpdatePassword updates only the password hash for a user.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

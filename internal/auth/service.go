// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// dummyPasswordHash is verified when no user matches the email, so the
// "unknown email" and "wrong password" paths cost the same wall-clock time.
// It uses the live cost parameters and never corresponds to a real account.
//
//nolint:gosec // G101: intentionally fake hash for timing equalization, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=15000,t=2,p=1$" +
	"gZiV/M1gPc22ElAH/Jh1Hw$" +
	"CWOrkoo7oJBQ/iyh7uJ0LO2aLEfrHwTWllSAxT0zRno"

// Service provides credential verification and password changes.
type Service struct {
	users  UserRepository
	hasher BlockingHasher
	logger *slog.Logger
}

// NewService creates a new Service.
func NewService(users UserRepository, hasher BlockingHasher) (*Service, error) {
	return NewServiceWithLogger(users, hasher, slog.Default())
}

// NewServiceWithLogger creates a new Service with an explicit logger.
func NewServiceWithLogger(users UserRepository, hasher BlockingHasher, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("logger is required")
	}
	return &Service{users: users, hasher: hasher, logger: logger}, nil
}

// ValidateCredentials verifies an email/password pair and returns the
// resulting Identity. Unknown email and wrong password are deliberately
// indistinguishable: both paths run a full argon2 verification (against the
// dummy hash when no user exists) and both collapse into
// AUTH_INVALID_CREDENTIALS.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (Identity, error) {
	var (
		targetHash = dummyPasswordHash
		user       *User
	)

	stored, lookupErr := s.users.GetByEmail(ctx, email)
	switch {
	case lookupErr == nil:
		targetHash = stored.PasswordHash
		user = stored
	case errors.Is(lookupErr, ErrNotFound):
		// Keep the dummy hash; verification still runs below.
	default:
		return Identity{}, oops.Code("AUTH_LOOKUP_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(ctx, password, targetHash)
	if verifyErr != nil {
		if user == nil {
			// A malformed dummy hash would be a code bug, but the
			// caller still only sees invalid credentials.
			return Identity{}, oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
		}
		return Identity{}, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID.String()).
			Wrap(verifyErr)
	}

	if user == nil || !valid {
		return Identity{}, oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
	}

	return Identity{UserID: user.ID, Role: user.Role}, nil
}

// ChangePassword rotates the password of an authenticated user after
// re-verifying the current password. A wrong current password surfaces as
// AUTH_INVALID_CREDENTIALS, same as a failed login.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if newPassword == "" {
		return oops.Code("AUTH_VALIDATION").Errorf("new password cannot be empty")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// The identity came from a valid token but the account is
			// gone; treat as a failed credential check.
			return oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
		}
		return oops.Code("AUTH_LOOKUP_FAILED").
			With("operation", "get user by id").
			With("user_id", userID.String()).
			Wrap(err)
	}

	if _, err := s.ValidateCredentials(ctx, user.Email, currentPassword); err != nil {
		return err
	}

	newHash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return oops.Code("AUTH_HASH_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return oops.Code("AUTH_UPDATE_FAILED").
			With("operation", "update password hash").
			With("user_id", userID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password changed", "user_id", userID.String())
	return nil
}

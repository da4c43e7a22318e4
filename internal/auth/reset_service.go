// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// createAttempts bounds retries when a generated token value collides with
// an existing row. With a 62^25 space collisions are theoretical, but the
// unique constraint makes the race explicit and cheap to retry.
const createAttempts = 3

// ResetService owns the generate/redeem lifecycle of password reset tokens.
// It does not send email; the caller feeds the returned token to a mailer
// collaborator.
type ResetService struct {
	users  UserRepository
	tokens ResetTokenRepository
	hasher BlockingHasher
	logger *slog.Logger
}

// NewResetService creates a new ResetService.
func NewResetService(users UserRepository, tokens ResetTokenRepository, hasher BlockingHasher) (*ResetService, error) {
	return NewResetServiceWithLogger(users, tokens, hasher, slog.Default())
}

// NewResetServiceWithLogger creates a new ResetService with an explicit logger.
func NewResetServiceWithLogger(users UserRepository, tokens ResetTokenRepository, hasher BlockingHasher, logger *slog.Logger) (*ResetService, error) {
	if users == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("user repository is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("reset token repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("logger is required")
	}
	return &ResetService{users: users, tokens: tokens, hasher: hasher, logger: logger}, nil
}

// RequestReset resolves the email to a user, persists a fresh single-use
// token and returns its plaintext value for the caller to mail out.
// An unknown email is AUTH_UNKNOWN_EMAIL and leaves no row behind.
func (s *ResetService) RequestReset(ctx context.Context, email string) (string, error) {
	if err := ValidateEmail(email); err != nil {
		return "", err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("AUTH_UNKNOWN_EMAIL").Errorf("no account for that email")
		}
		return "", oops.Code("AUTH_LOOKUP_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		token, err := GenerateResetToken()
		if err != nil {
			return "", err
		}

		reset, err := NewResetToken(user.ID, token)
		if err != nil {
			return "", err
		}

		err = s.tokens.Create(ctx, reset)
		if err == nil {
			s.logger.InfoContext(ctx, "reset token issued", "user_id", user.ID.String())
			return token, nil
		}
		if errors.Is(err, ErrDuplicateToken) {
			continue
		}
		return "", oops.Code("AUTH_RESET_REQUEST_FAILED").
			With("operation", "store reset token").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	return "", oops.Code("AUTH_RESET_REQUEST_FAILED").
		With("attempts", createAttempts).
		Errorf("could not store a unique reset token")
}

// Redeem consumes a reset token and installs a new password. Absent,
// expired and future-dated tokens all collapse into AUTH_INVALID_TOKEN.
// The hash rotation and the token deletion commit atomically in the
// repository; a second redemption of the same token observes absence.
func (s *ResetService) Redeem(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return oops.Code("AUTH_INVALID_TOKEN").Errorf("invalid or expired reset token")
	}
	if newPassword == "" {
		return oops.Code("AUTH_VALIDATION").Errorf("new password cannot be empty")
	}

	reset, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_INVALID_TOKEN").Errorf("invalid or expired reset token")
		}
		return oops.Code("AUTH_LOOKUP_FAILED").
			With("operation", "get reset token").
			Wrap(err)
	}

	if reset.IsExpiredAt(time.Now()) {
		return oops.Code("AUTH_INVALID_TOKEN").Errorf("invalid or expired reset token")
	}

	// Hash before opening the transaction: argon2 takes tens of
	// milliseconds and must not hold a tx open that long.
	newHash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return oops.Code("AUTH_HASH_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}

	if err := s.tokens.Redeem(ctx, token, reset.UserID, newHash); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Lost the race with a concurrent redemption of the same token.
			return oops.Code("AUTH_INVALID_TOKEN").Errorf("invalid or expired reset token")
		}
		return oops.Code("AUTH_RESET_REDEEM_FAILED").
			With("operation", "redeem reset token").
			With("user_id", reset.UserID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "reset token redeemed", "user_id", reset.UserID.String())
	return nil
}

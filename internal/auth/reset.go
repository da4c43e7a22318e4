// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Reset token configuration.
const (
	ResetTokenLength = 25        // alphanumeric characters
	ResetTokenTTL    = time.Hour // evaluated at redemption, not by a sweep
)

// resetTokenAlphabet is the character set reset tokens are drawn from.
// Alphanumeric only so tokens survive URL embedding without escaping.
const resetTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ResetToken is a single-use password reset credential. The token value
// itself is the lookup key; the row is deleted on redemption so a second
// redemption observes absence.
type ResetToken struct {
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
}

// NewResetToken creates a ResetToken recorded as created now.
func NewResetToken(userID uuid.UUID, token string) (*ResetToken, error) {
	if userID == uuid.Nil {
		return nil, oops.Code("AUTH_VALIDATION").Errorf("user ID cannot be nil")
	}
	if token == "" {
		return nil, oops.Code("AUTH_VALIDATION").Errorf("token cannot be empty")
	}
	return &ResetToken{
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// IsExpiredAt reports whether the token is unusable at the given time.
// A CreatedAt in the future is treated as expired: it can only come from
// clock skew or a tampered row, and neither deserves a redemption.
func (r *ResetToken) IsExpiredAt(now time.Time) bool {
	if now.Before(r.CreatedAt) {
		return true
	}
	return now.After(r.CreatedAt.Add(ResetTokenTTL))
}

// GenerateResetToken draws a 25-character alphanumeric token from
// crypto/rand. Uniform over the alphabet, no modulo bias.
func GenerateResetToken() (string, error) {
	max := big.NewInt(int64(len(resetTokenAlphabet)))
	out := make([]byte, ResetTokenLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", oops.Code("AUTH_TOKEN_GENERATE_FAILED").Wrap(err)
		}
		out[i] = resetTokenAlphabet[n.Int64()]
	}
	return string(out), nil
}

// ResetTokenRepository manages reset token persistence.
type ResetTokenRepository interface {
	// Create stores a new reset token. Returns ErrDuplicateToken if the
	// token value already exists.
	Create(ctx context.Context, token *ResetToken) error

	// GetByToken retrieves a reset token by its value.
	// Returns ErrNotFound if absent.
	GetByToken(ctx context.Context, token string) (*ResetToken, error)

	// Delete removes a reset token without touching the user row.
	Delete(ctx context.Context, token string) error

	// Redeem atomically rotates the user's password hash and deletes the
	// token. Both mutations commit together or neither does. Returns
	// ErrNotFound if the token row no longer exists (already redeemed).
	Redeem(ctx context.Context, token string, userID uuid.UUID, passwordHash string) error
}

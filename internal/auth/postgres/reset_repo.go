// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/gigdir/gigdir/internal/auth"
)

// ResetTokenRepository implements auth.ResetTokenRepository using PostgreSQL.
type ResetTokenRepository struct {
	db DB
}

// NewResetTokenRepository creates a new ResetTokenRepository.
func NewResetTokenRepository(db DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

// Create stores a new reset token.
func (r *ResetTokenRepository) Create(ctx context.Context, token *auth.ResetToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO reset_tokens (reset_token, user_id, created_at)
		VALUES ($1, $2, $3)
	`, token.Token, token.UserID, token.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("RESET_TOKEN_DUPLICATE").Wrap(auth.ErrDuplicateToken)
		}
		return oops.Code("RESET_TOKEN_CREATE_FAILED").
			With("operation", "insert reset token").
			With("user_id", token.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetByToken retrieves a reset token by its value.
func (r *ResetTokenRepository) GetByToken(ctx context.Context, token string) (*auth.ResetToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT reset_token, user_id, created_at
		FROM reset_tokens
		WHERE reset_token = $1
	`, token)

	var (
		reset     auth.ResetToken
		createdAt time.Time
	)
	err := row.Scan(&reset.Token, &reset.UserID, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("RESET_TOKEN_GET_FAILED").
			With("operation", "get reset token").
			Wrap(err)
	}
	reset.CreatedAt = createdAt
	return &reset, nil
}

// Delete removes a reset token without touching the user row.
func (r *ResetTokenRepository) Delete(ctx context.Context, token string) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM reset_tokens WHERE reset_token = $1
	`, token)
	if err != nil {
		return oops.Code("RESET_TOKEN_DELETE_FAILED").
			With("operation", "delete reset token").
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return nil
}

// Redeem atomically rotates the user's password hash and deletes the token.
// Both statements run in one transaction: a crash between them must not
// leave a redeemable token pointing at a stale hash, nor a rotated hash
// with the token still live. Deleting zero rows means the token was already
// consumed; the transaction rolls back and ErrNotFound is returned.
func (r *ResetTokenRepository) Redeem(ctx context.Context, token string, userID uuid.UUID, passwordHash string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return oops.Code("RESET_TOKEN_REDEEM_FAILED").
			With("operation", "begin transaction").
			Wrap(err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(ctx) //nolint:errcheck
	}()

	updated, err := tx.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW() WHERE user_id = $2
	`, passwordHash, userID)
	if err != nil {
		return oops.Code("RESET_TOKEN_REDEEM_FAILED").
			With("operation", "update password hash").
			With("user_id", userID.String()).
			Wrap(err)
	}
	if updated.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(auth.ErrNotFound)
	}

	deleted, err := tx.Exec(ctx, `
		DELETE FROM reset_tokens WHERE reset_token = $1
	`, token)
	if err != nil {
		return oops.Code("RESET_TOKEN_REDEEM_FAILED").
			With("operation", "delete reset token").
			Wrap(err)
	}
	if deleted.RowsAffected() == 0 {
		return oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("RESET_TOKEN_REDEEM_FAILED").
			With("operation", "commit transaction").
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ auth.ResetTokenRepository = (*ResetTokenRepository)(nil)

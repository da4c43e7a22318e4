// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package auth_test

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/gigdir/gigdir/internal/auth"
)

// mockUserRepo is an in-memory auth.UserRepository keyed by email and id.
type mockUserRepo struct {
	mu      sync.Mutex
	users   map[string]*auth.User // lower-cased email -> user
	byID    map[uuid.UUID]*auth.User
	lookups []string // emails queried, in order
	getErr  error    // forced error for GetByEmail/GetByID
	updErr  error    // forced error for UpdatePassword
}

func newMockUserRepo(users ...*auth.User) *mockUserRepo {
	r := &mockUserRepo{
		users: make(map[string]*auth.User),
		byID:  make(map[uuid.UUID]*auth.User),
	}
	for _, u := range users {
		r.users[strings.ToLower(u.Email)] = u
		r.byID[u.ID] = u
	}
	return r
}

func (r *mockUserRepo) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, email)
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *mockUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updErr != nil {
		return r.updErr
	}
	u, ok := r.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// mockResetRepo is an in-memory auth.ResetTokenRepository. Redeem mirrors
// the transactional behavior of the postgres implementation: it mutates the
// user repo and deletes the token together, and reports ErrNotFound when
// the token row is already gone.
type mockResetRepo struct {
	mu        sync.Mutex
	tokens    map[string]*auth.ResetToken
	users     *mockUserRepo
	createErr error
	redeemErr error
}

func newMockResetRepo(users *mockUserRepo) *mockResetRepo {
	return &mockResetRepo{
		tokens: make(map[string]*auth.ResetToken),
		users:  users,
	}
}

func (r *mockResetRepo) Create(_ context.Context, token *auth.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.tokens[token.Token]; exists {
		return auth.ErrDuplicateToken
	}
	copied := *token
	r.tokens[token.Token] = &copied
	return nil
}

func (r *mockResetRepo) GetByToken(_ context.Context, token string) (*auth.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, auth.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *mockResetRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		return auth.ErrNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *mockResetRepo) Redeem(ctx context.Context, token string, userID uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	if r.redeemErr != nil {
		r.mu.Unlock()
		return r.redeemErr
	}
	if _, ok := r.tokens[token]; !ok {
		r.mu.Unlock()
		return auth.ErrNotFound
	}
	delete(r.tokens, token)
	r.mu.Unlock()
	return r.users.UpdatePassword(ctx, userID, passwordHash)
}

// stubHasher is a BlockingHasher with canned results that records every
// hash it was asked to verify against.
type stubHasher struct {
	mu           sync.Mutex
	verifyOK     bool
	verifyErr    error
	hashOut      string
	hashErr      error
	verifiedWith []string
	hashedInputs []string
}

func (s *stubHasher) Hash(_ context.Context, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashedInputs = append(s.hashedInputs, password)
	if s.hashErr != nil {
		return "", s.hashErr
	}
	if s.hashOut != "" {
		return s.hashOut, nil
	}
	return "$argon2id$stub$" + password, nil
}

func (s *stubHasher) Verify(_ context.Context, _, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifiedWith = append(s.verifiedWith, hash)
	return s.verifyOK, s.verifyErr
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package auth

import (
	"context"
	"time"

	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"
)

// DefaultHashWorkers bounds concurrent argon2 computations. Each worker
// pins ~15 MiB while hashing, so the bound also caps memory.
const DefaultHashWorkers = 4

// BlockingHasher is a PasswordHasher dispatched onto a bounded worker pool.
// Request goroutines await the result instead of computing inline, so a
// burst of logins cannot starve unrelated request processing.
type BlockingHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// PooledHasher implements BlockingHasher by running an inner PasswordHasher
// under a weighted semaphore.
type PooledHasher struct {
	inner   PasswordHasher
	slots   *semaphore.Weighted
	observe func(time.Duration)
}

// NewPooledHasher wraps inner with a pool of the given size.
func NewPooledHasher(inner PasswordHasher, size int64) (*PooledHasher, error) {
	return NewPooledHasherWithObserver(inner, size, nil)
}

// NewPooledHasherWithObserver additionally reports the duration of each
// hash or verify computation, queue wait excluded. A nil observer
// disables reporting.
func NewPooledHasherWithObserver(inner PasswordHasher, size int64, observe func(time.Duration)) (*PooledHasher, error) {
	if inner == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("password hasher is required")
	}
	if size <= 0 {
		size = DefaultHashWorkers
	}
	return &PooledHasher{
		inner:   inner,
		slots:   semaphore.NewWeighted(size),
		observe: observe,
	}, nil
}

type hashResult struct {
	hash string
	ok   bool
	err  error
}

// Hash computes a password hash on the pool. Cancellation while queued
// aborts immediately; once the computation has started it is allowed to
// finish (argon2 is not cheaply interruptible) and the result is discarded.
func (p *PooledHasher) Hash(ctx context.Context, password string) (string, error) {
	res, err := p.run(ctx, func() hashResult {
		h, hashErr := p.inner.Hash(password)
		return hashResult{hash: h, err: hashErr}
	})
	if err != nil {
		return "", err
	}
	return res.hash, res.err
}

// Verify checks a password against a stored hash on the pool. Same
// cancellation semantics as Hash.
func (p *PooledHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	res, err := p.run(ctx, func() hashResult {
		ok, verifyErr := p.inner.Verify(password, hash)
		return hashResult{ok: ok, err: verifyErr}
	})
	if err != nil {
		return false, err
	}
	return res.ok, res.err
}

func (p *PooledHasher) run(ctx context.Context, work func() hashResult) (hashResult, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return hashResult{}, oops.Code("AUTH_POOL_CANCELED").Wrap(err)
	}

	done := make(chan hashResult, 1)
	go func() {
		defer p.slots.Release(1)
		start := time.Now()
		res := work()
		// Observed even when the caller has gone: the computation ran
		// either way.
		if p.observe != nil {
			p.observe(time.Since(start))
		}
		done <- res
	}()

	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		// The worker keeps running and releases its slot when finished.
		return hashResult{}, oops.Code("AUTH_POOL_CANCELED").Wrap(ctx.Err())
	}
}

// Compile-time interface check.
var _ BlockingHasher = (*PooledHasher)(nil)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

// Package auth provides the authentication core for GigDir.
//
// # Domain Types
//
// Domain types (User, Identity, ResetToken, TokenClaims) are plain values.
// ResetToken instances should be created through NewResetToken so the
// creation timestamp is recorded consistently.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - credential validation and password changes
//   - ResetService - the generate/redeem lifecycle of password reset tokens
//   - TokenCodec - issuing and validating signed bearer tokens
//
// Password hashing is CPU-bound by design and must never run inline on a
// request goroutine; services accept a BlockingHasher (see PooledHasher)
// that dispatches hashing onto a bounded worker pool.
package auth

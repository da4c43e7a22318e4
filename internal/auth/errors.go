// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateToken is returned when a reset token value collides with an
// existing row. Callers should regenerate and retry.
var ErrDuplicateToken = errors.New("duplicate reset token")

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the lifetime of issued bearer tokens.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenClaims are the claims embedded in a signed bearer token. Claims are
// immutable once issued: a role change in the store does not affect tokens
// already in circulation until they are re-issued.
type TokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec issues and validates HS256-signed bearer tokens. It is
// stateless: validation needs only the shared secret, never the store.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec creates a TokenCodec from the process-wide signing secret.
func NewTokenCodec(secret string) (*TokenCodec, error) {
	if secret == "" {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("token secret is required")
	}
	return &TokenCodec{secret: []byte(secret)}, nil
}

// Issue signs a token for the identity with iat=now and exp=now+ttl.
func (c *TokenCodec) Issue(identity Identity, now time.Time, ttl time.Duration) (string, error) {
	claims := &TokenClaims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Validate verifies the signature and expiry of a token as of now.
// Bad signature, malformed structure and expiry all collapse into the
// single code AUTH_INVALID_TOKEN so the caller cannot be used as an oracle.
func (c *TokenCodec) Validate(tokenString string, now time.Time) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&TokenClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, oops.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_TOKEN").Wrap(err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, oops.Code("AUTH_INVALID_TOKEN").Errorf("invalid token")
	}
	return claims, nil
}

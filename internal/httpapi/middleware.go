// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/gigdir/gigdir/internal/auth"
	"github.com/gigdir/gigdir/internal/logging"
)

// TokenCookieName is the cookie the login handler sets and the
// authenticator reads before falling back to the Authorization header.
const TokenCookieName = "token"

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger assigns each request a ULID correlation ID and logs one
// line per request with method, path, status, and duration.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := ulid.Make().String()
			ctx := logging.WithRequestID(r.Context(), requestID)

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))

			logger.InfoContext(ctx, "request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// TokenValidator validates a bearer token string. Satisfied by *auth.TokenCodec.
type TokenValidator interface {
	Validate(tokenString string, now time.Time) (*auth.TokenClaims, error)
}

// Authenticator is middleware that turns a bearer token into a
// request-scoped Identity.
type Authenticator struct {
	codec  TokenValidator
	logger *slog.Logger
}

// NewAuthenticator creates an Authenticator around a token validator.
func NewAuthenticator(codec TokenValidator, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{codec: codec, logger: logger}
}

// Middleware extracts a candidate token from the "token" cookie first,
// then from "Authorization: Bearer". An absent token yields 401 "not
// logged in", a present but invalid one 401 "invalid token". On success
// the identity is attached to the request context for IdentityFrom.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Status:  "error",
				Message: "not logged in",
			})
			return
		}

		claims, err := a.codec.Validate(token, time.Now())
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Status:  "error",
				Message: "invalid token",
			})
			return
		}

		// The only place the sub claim becomes a typed user ID. A
		// malformed sub is a validation failure, never a panic.
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Status:  "error",
				Message: "invalid token",
			})
			return
		}

		identity := auth.Identity{UserID: userID, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

// extractToken finds a candidate token: cookie first, then bearer header.
func extractToken(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	header := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(header, "Bearer "); found && token != "" {
		return token, true
	}
	return "", false
}

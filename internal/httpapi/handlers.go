// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/gigdir/gigdir/internal/access"
	"github.com/gigdir/gigdir/internal/auth"
	"github.com/gigdir/gigdir/internal/observability"
)

// CredentialValidator verifies email+password pairs. Satisfied by *auth.Service.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context, email, password string) (auth.Identity, error)
}

// PasswordChanger rotates a password after re-validating the current one.
// Satisfied by *auth.Service.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
}

// ResetManager owns the reset token lifecycle. Satisfied by *auth.ResetService.
type ResetManager interface {
	RequestReset(ctx context.Context, email string) (string, error)
	Redeem(ctx context.Context, token, newPassword string) error
}

// ResetLinkSender emails a reset link. Satisfied by *email.ResetMailer.
type ResetLinkSender interface {
	SendResetLink(ctx context.Context, recipient, token string) error
}

// TokenIssuer signs bearer tokens. Satisfied by *auth.TokenCodec.
type TokenIssuer interface {
	Issue(identity auth.Identity, now time.Time, ttl time.Duration) (string, error)
}

// PermissionChecker authorizes an identity for an action on a resource.
// Satisfied by *access.Gate.
type PermissionChecker interface {
	RequirePermission(identity auth.Identity, action, resource string) error
}

// MetricsRecorder records auth outcomes. Satisfied by *observability.Metrics.
type MetricsRecorder interface {
	RecordLogin(outcome string)
	RecordResetIssued()
	RecordResetRedemption(outcome string)
}

// noopMetrics is used when no recorder is wired.
type noopMetrics struct{}

func (noopMetrics) RecordLogin(string)           {}
func (noopMetrics) RecordResetIssued()           {}
func (noopMetrics) RecordResetRedemption(string) {}

// Handlers bundles the HTTP endpoint handlers and their collaborators.
type Handlers struct {
	validator CredentialValidator
	changer   PasswordChanger
	resets    ResetManager
	mailer    ResetLinkSender
	issuer    TokenIssuer
	gate      PermissionChecker
	metrics   MetricsRecorder
	tokenTTL  time.Duration
	logger    *slog.Logger
}

// HandlersConfig wires the collaborators for NewHandlers.
type HandlersConfig struct {
	Validator CredentialValidator
	Changer   PasswordChanger
	Resets    ResetManager
	Mailer    ResetLinkSender
	Issuer    TokenIssuer
	// Gate authorizes account operations; nil falls back to the default
	// role table.
	Gate     PermissionChecker
	Metrics  MetricsRecorder
	TokenTTL time.Duration
	Logger   *slog.Logger
}

// NewHandlers validates the wiring and returns the handler set.
func NewHandlers(cfg HandlersConfig) (*Handlers, error) {
	if cfg.Validator == nil || cfg.Changer == nil || cfg.Resets == nil ||
		cfg.Mailer == nil || cfg.Issuer == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").New("httpapi handlers missing a collaborator")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = auth.DefaultTokenTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.Gate == nil {
		cfg.Gate = access.NewGate()
	}
	return &Handlers{
		validator: cfg.Validator,
		changer:   cfg.Changer,
		resets:    cfg.Resets,
		mailer:    cfg.Mailer,
		issuer:    cfg.Issuer,
		gate:      cfg.Gate,
		metrics:   cfg.Metrics,
		tokenTTL:  cfg.TokenTTL,
		logger:    cfg.Logger,
	}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

// Login verifies credentials, issues a bearer token, and sets it as an
// HttpOnly cookie alongside the JSON body.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "invalid request"})
		return
	}

	identity, err := h.validator.ValidateCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordLogin(loginOutcome(err))
		writeError(w, h.logger, err)
		return
	}

	token, err := h.issuer.Issue(identity, time.Now(), h.tokenTTL)
	if err != nil {
		h.metrics.RecordLogin(observability.OutcomeError)
		writeError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.metrics.RecordLogin(observability.OutcomeSuccess)
	writeJSON(w, http.StatusOK, loginResponse{Status: "success", Token: token})
}

// Logout clears the token cookie. Stateless tokens cannot be revoked, so
// this only removes the client's copy.
func (h *Handlers) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword issues a reset token and emails the reset link.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "invalid request"})
		return
	}

	token, err := h.resets.RequestReset(r.Context(), req.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.metrics.RecordResetIssued()

	if err := h.mailer.SendResetLink(r.Context(), req.Email, token); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

type resetPasswordRequest struct {
	ResetToken       string `json:"resetToken"`
	NewPassword      string `json:"newPassword"`
	NewPasswordCheck string `json:"newPasswordCheck"`
}

// ResetPassword redeems a reset token for a new password.
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "invalid request"})
		return
	}

	if req.NewPassword != req.NewPasswordCheck {
		h.metrics.RecordResetRedemption(observability.OutcomeDenied)
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "passwords do not match"})
		return
	}

	if err := h.resets.Redeem(r.Context(), req.ResetToken, req.NewPassword); err != nil {
		h.metrics.RecordResetRedemption(redemptionOutcome(err))
		writeError(w, h.logger, err)
		return
	}

	h.metrics.RecordResetRedemption(observability.OutcomeSuccess)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword rotates the authenticated user's password after
// re-validating the current one.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Status: "error", Message: "not logged in"})
		return
	}

	if err := h.gate.RequirePermission(identity, "write", "user:"+identity.UserID.String()); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "invalid request"})
		return
	}

	if err := h.changer.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// HealthCheck reports liveness for load balancers.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func loginOutcome(err error) string {
	if status, _ := statusForCodeOf(err); status == http.StatusUnauthorized {
		return observability.OutcomeDenied
	}
	return observability.OutcomeError
}

func redemptionOutcome(err error) string {
	if status, _ := statusForCodeOf(err); status >= 400 && status < 500 {
		return observability.OutcomeDenied
	}
	return observability.OutcomeError
}

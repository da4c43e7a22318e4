// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the public and authenticated routes. The /user subtree
// requires a valid bearer token; everything else is public.
func NewRouter(h *Handlers, authn *Authenticator, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.Use(RequestLogger(logger))

	r.HandleFunc("/health_check", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/generate-reset-token", h.ForgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/reset-password", h.ResetPassword).Methods(http.MethodPost)

	user := r.PathPrefix("/user").Subrouter()
	user.Use(authn.Middleware)
	user.HandleFunc("/change-password", h.ChangePassword).Methods(http.MethodPost)
	user.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)

	return r
}

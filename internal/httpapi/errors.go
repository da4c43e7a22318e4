// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gigdir/gigdir/pkg/errutil"
)

// errorResponse is the uniform error body. The message never carries
// details beyond the coarse category so failures stay oracle-free.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// statusForCode maps an error code to an HTTP status and client-facing
// message. Unknown codes collapse to a generic 500.
func statusForCode(code string) (int, string) {
	switch code {
	case "AUTH_VALIDATION":
		return http.StatusBadRequest, "invalid request"
	case "AUTH_INVALID_CREDENTIALS":
		return http.StatusUnauthorized, "invalid credentials"
	case "AUTH_INVALID_TOKEN":
		return http.StatusUnauthorized, "invalid token"
	case "AUTH_UNKNOWN_EMAIL":
		return http.StatusUnauthorized, "unknown email"
	case "AUTH_FORBIDDEN":
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "something went wrong"
	}
}

// statusForCodeOf is statusForCode applied to an error's code.
func statusForCodeOf(err error) (int, string) {
	return statusForCode(errutil.CodeOf(err))
}

// writeError maps err to a status via its code and writes the generic
// body. Server-side failures keep their full chain in the log only.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, message := statusForCode(errutil.CodeOf(err))
	if status == http.StatusInternalServerError {
		errutil.LogError(logger, "request failed", err)
	}
	writeJSON(w, status, errorResponse{Status: "error", Message: message})
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // response write errors mean the client went away
	_ = json.NewEncoder(w).Encode(body)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package email

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/samber/oops"
)

// Sender delivers one message. Satisfied by *Client.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResetMailer composes and sends password-reset emails.
type ResetMailer struct {
	sender  Sender
	baseURL string
}

// NewResetMailer creates a ResetMailer. baseURL is the externally visible
// origin the reset link points at, without a trailing slash.
func NewResetMailer(sender Sender, baseURL string) (*ResetMailer, error) {
	if sender == nil {
		return nil, oops.Code("EMAIL_CONFIG_INVALID").New("sender must not be nil")
	}
	if baseURL == "" {
		return nil, oops.Code("EMAIL_CONFIG_INVALID").New("baseURL must not be empty")
	}
	return &ResetMailer{
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// SendResetLink emails a single-use reset link for token to recipient.
func (m *ResetMailer) SendResetLink(ctx context.Context, recipient, token string) error {
	link := fmt.Sprintf("%s/reset-password?reset_token=%s", m.baseURL, url.QueryEscape(token))

	msg := Message{
		To:      recipient,
		Subject: "Password reset",
		TextBody: fmt.Sprintf(
			"Your password reset request has been received. Visit %s to reset your password",
			link,
		),
		HTMLBody: fmt.Sprintf(
			`Your password reset request has been received. <br />Click <a href="%s">here</a> to reset your password`,
			html.EscapeString(link),
		),
	}

	if err := m.sender.Send(ctx, msg); err != nil {
		return oops.Code("EMAIL_RESET_SEND_FAILED").
			With("operation", "send reset link").
			Wrap(err)
	}
	return nil
}

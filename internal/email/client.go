// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

// Package email sends transactional mail through a Postmark-compatible API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/samber/oops"
)

// DefaultTimeout bounds a single send; Postmark answers well under this.
const DefaultTimeout = 10 * time.Second

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// sendRequest is the Postmark wire format.
type sendRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
	HTMLBody string `json:"HtmlBody"`
}

// Client talks to a Postmark-compatible send endpoint.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	sender      string
	serverToken string
}

// NewClient creates a Client. endpoint is the full send URL, sender the
// From address, serverToken the API credential. A non-positive timeout
// falls back to DefaultTimeout.
func NewClient(endpoint, sender, serverToken string, timeout time.Duration) (*Client, error) {
	if endpoint == "" {
		return nil, oops.Code("EMAIL_CONFIG_INVALID").New("endpoint must not be empty")
	}
	if sender == "" {
		return nil, oops.Code("EMAIL_CONFIG_INVALID").New("sender must not be empty")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    endpoint,
		sender:      sender,
		serverToken: serverToken,
	}, nil
}

// Send delivers one message and returns once the API confirms dispatch.
func (c *Client) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(sendRequest{
		From:     c.sender,
		To:       msg.To,
		Subject:  msg.Subject,
		TextBody: msg.TextBody,
		HTMLBody: msg.HTMLBody,
	})
	if err != nil {
		return oops.Code("EMAIL_ENCODE_FAILED").Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return oops.Code("EMAIL_REQUEST_FAILED").Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return oops.Code("EMAIL_SEND_FAILED").
			With("operation", "post message").
			Wrap(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck
		_ = resp.Body.Close()                 //nolint:errcheck
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return oops.Code("EMAIL_SEND_FAILED").
			With("status", resp.StatusCode).
			New("send endpoint returned non-success status")
	}
	return nil
}

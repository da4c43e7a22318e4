// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigdir/gigdir/pkg/errutil"
)

func TestNewClient_Validation(t *testing.T) {
	t.Run("empty endpoint", func(t *testing.T) {
		_, err := NewClient("", "noreply@gigdir.example", "token", 0)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "EMAIL_CONFIG_INVALID")
	})

	t.Run("empty sender", func(t *testing.T) {
		_, err := NewClient("https://api.postmarkapp.com/email", "", "token", 0)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "EMAIL_CONFIG_INVALID")
	})
}

func TestClient_Send_BuildsExpectedRequest(t *testing.T) {
	var (
		gotToken       string
		gotContentType string
		gotBody        map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "noreply@gigdir.example", "server-token", 0)
	require.NoError(t, err)

	err = client.Send(context.Background(), Message{
		To:       "singer@example.com",
		Subject:  "Password reset",
		TextBody: "plain",
		HTMLBody: "<p>html</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "server-token", gotToken)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "noreply@gigdir.example", gotBody["From"])
	assert.Equal(t, "singer@example.com", gotBody["To"])
	assert.Equal(t, "Password reset", gotBody["Subject"])
	assert.Equal(t, "plain", gotBody["TextBody"])
	assert.Equal(t, "<p>html</p>", gotBody["HtmlBody"])
}

func TestClient_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "noreply@gigdir.example", "server-token", 0)
	require.NoError(t, err)

	err = client.Send(context.Background(), Message{To: "singer@example.com"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "EMAIL_SEND_FAILED")
}

func TestClient_Send_Timeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(block)

	client, err := NewClient(server.URL, "noreply@gigdir.example", "server-token", 50*time.Millisecond)
	require.NoError(t, err)

	err = client.Send(context.Background(), Message{To: "singer@example.com"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "EMAIL_SEND_FAILED")
}

func TestClient_Send_ContextCanceled(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(block)

	client, err := NewClient(server.URL, "noreply@gigdir.example", "server-token", time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = client.Send(ctx, Message{To: "singer@example.com"})
	require.Error(t, err)
}

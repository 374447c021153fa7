// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yapbot/yapcore/internal/logging"
)

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	t.Parallel()

	var gotCtx, gotLogging string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCtx = GetRequestID(r.Context())
		gotLogging = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	header := rec.Header().Get("X-Request-ID")
	if header == "" {
		t.Fatal("X-Request-ID header not set")
	}
	if gotCtx != header {
		t.Errorf("context request ID = %q, want header %q", gotCtx, header)
	}
	if gotLogging != header {
		t.Errorf("logging context request ID = %q, want header %q", gotLogging, header)
	}
}

func TestRequestID_HonorsUpstreamID(t *testing.T) {
	t.Parallel()

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "upstream-123" {
		t.Errorf("X-Request-ID = %q, want upstream-123", got)
	}
}

func TestGetRequestID_MissingContext(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetRequestID(req.Context()); got != "" {
		t.Errorf("GetRequestID on bare context = %q, want empty", got)
	}
}

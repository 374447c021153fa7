// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// fakeServer blocks in ListenAndServe until Shutdown is called.
type fakeServer struct {
	startErr error
	done     chan struct{}
	shutdown bool
}

func newFakeServer(startErr error) *fakeServer {
	return &fakeServer{startErr: startErr, done: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.done
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(_ context.Context) error {
	f.shutdown = true
	close(f.done)
	return nil
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(nil)
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if !srv.shutdown {
		t.Error("Shutdown was not called")
	}
}

func TestHTTPServerService_StartFailure(t *testing.T) {
	t.Parallel()

	startErr := errors.New("bind: address already in use")
	svc := NewHTTPServerService(newFakeServer(startErr), time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, startErr) {
		t.Fatalf("Serve = %v, want wrapped start error", err)
	}
}

func TestHTTPServerService_String(t *testing.T) {
	t.Parallel()

	if got := NewHTTPServerService(newFakeServer(nil), 0).String(); got != "http-server" {
		t.Errorf("String() = %q", got)
	}
}

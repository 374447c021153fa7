// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// tickService counts Serve invocations and blocks until cancelled.
type tickService struct {
	started atomic.Int64
}

func (s *tickService) Serve(ctx context.Context) error {
	s.started.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *tickService) String() string { return "tick" }

func TestDefaultTreeConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5.0 || cfg.FailureDecay != 30.0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.FailureBackoff != 15*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestTree_RunsServicesInEachLayer(t *testing.T) {
	t.Parallel()

	tree := NewTree(slog.Default(), TreeConfig{})

	ingest := &tickService{}
	persistence := &tickService{}
	api := &tickService{}
	tree.AddIngestService(ingest)
	tree.AddPersistenceService(persistence)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for ingest.started.Load() == 0 || persistence.started.Load() == 0 || api.started.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("services not started: ingest=%d persistence=%d api=%d",
				ingest.started.Load(), persistence.started.Load(), api.started.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}

func TestTree_ZeroConfigGetsDefaults(t *testing.T) {
	t.Parallel()

	tree := NewTree(slog.Default(), TreeConfig{})
	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("threshold = %v, want 5.0", tree.config.FailureThreshold)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", tree.config.ShutdownTimeout)
	}
}

// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yapbot/yapcore/internal/markov"
)

func TestAutogenService_StopsOnCancel(t *testing.T) {
	t.Parallel()

	store := markov.NewStore()
	gen := markov.NewGenerator(store, markov.DefaultGeneratorConfig())
	svc := NewAutogenService(gen, nil, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestAutogenService_DefaultSink(t *testing.T) {
	t.Parallel()

	store := markov.NewStore()
	gen := markov.NewGenerator(store, markov.DefaultGeneratorConfig())

	svc := NewAutogenService(gen, nil, 0)
	if svc.sink == nil {
		t.Fatal("expected default sink")
	}
	if err := (LogSink{}).Say(context.Background(), "hello chat"); err != nil {
		t.Errorf("LogSink.Say = %v", err)
	}
}

func TestAutogenService_String(t *testing.T) {
	t.Parallel()

	store := markov.NewStore()
	gen := markov.NewGenerator(store, markov.DefaultGeneratorConfig())
	if got := NewAutogenService(gen, nil, time.Minute).String(); got != "autogen-timer" {
		t.Errorf("String() = %q", got)
	}
}

// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yapbot/yapcore/internal/markov"
)

// recordingSaver collects saved snapshots.
type recordingSaver struct {
	mu    sync.Mutex
	saves []*markov.Snapshot
	err   error
}

func (r *recordingSaver) Save(snap *markov.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saves = append(r.saves, snap)
	return nil
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func TestSnapshotService_SavesOnChange(t *testing.T) {
	t.Parallel()

	store := markov.NewStore()
	store.Train([]string{"persist", "me", "please"})

	saver := &recordingSaver{}
	svc := NewSnapshotService(store, saver, 20*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for saver.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no snapshot saved before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve = %v, want context.Canceled", err)
	}

	saver.mu.Lock()
	defer saver.mu.Unlock()
	if saver.saves[0].Version != store.Version() {
		t.Errorf("saved version = %d, want %d", saver.saves[0].Version, store.Version())
	}
}

func TestSnapshotService_SkipsUnchangedModel(t *testing.T) {
	t.Parallel()

	store := markov.NewStore()
	store.Train([]string{"already", "saved"})

	saver := &recordingSaver{}
	// loadedVersion equals the current version: nothing is dirty.
	svc := NewSnapshotService(store, saver, 20*time.Millisecond, store.Version())

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if got := saver.count(); got != 0 {
		t.Fatalf("saves = %d, want 0 for unchanged model", got)
	}
}

func TestSnapshotService_FinalSaveOnShutdown(t *testing.T) {
	t.Parallel()

	store := markov.NewStore()
	store.Train([]string{"last", "words"})

	saver := &recordingSaver{}
	// Interval far longer than the test: only the shutdown save can fire.
	svc := NewSnapshotService(store, saver, time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = svc.Serve(ctx)

	if got := saver.count(); got != 1 {
		t.Fatalf("saves = %d, want 1 shutdown save", got)
	}
}

func TestSnapshotService_RetriesAfterSaveFailure(t *testing.T) {
	t.Parallel()

	store := markov.NewStore()
	store.Train([]string{"flaky", "disk"})

	saver := &recordingSaver{err: errors.New("disk full")}
	svc := NewSnapshotService(store, saver, 10*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	saver.mu.Lock()
	saver.err = nil
	saver.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for saver.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("save never succeeded after failures cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
}

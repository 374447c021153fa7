// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package services

import (
	"context"
	"time"

	"github.com/yapbot/yapcore/internal/logging"
	"github.com/yapbot/yapcore/internal/markov"
)

// SnapshotSaver persists one model snapshot.
type SnapshotSaver interface {
	Save(snap *markov.Snapshot) error
}

// SnapshotService periodically saves the model. Ticks where the model
// version has not moved are skipped, so an idle service does no disk work.
// On shutdown a final save runs if anything changed since the last one.
type SnapshotService struct {
	store    *markov.Store
	saver    SnapshotSaver
	interval time.Duration

	lastSaved uint64
}

// NewSnapshotService creates the snapshot loop. loadedVersion is the model
// version restored at startup, so an unchanged model is never rewritten.
func NewSnapshotService(store *markov.Store, saver SnapshotSaver, interval time.Duration, loadedVersion uint64) *SnapshotService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SnapshotService{
		store:     store,
		saver:     saver,
		interval:  interval,
		lastSaved: loadedVersion,
	}
}

// Serve implements suture.Service.
func (s *SnapshotService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.saveIfDirty()
		case <-ctx.Done():
			s.saveIfDirty()
			return ctx.Err()
		}
	}
}

func (s *SnapshotService) saveIfDirty() {
	version := s.store.Version()
	if version == s.lastSaved {
		return
	}

	snap := s.store.Snapshot()
	if err := s.saver.Save(snap); err != nil {
		logging.Error().Err(err).Uint64("model_version", snap.Version).Msg("Snapshot save failed")
		return
	}
	s.lastSaved = snap.Version
}

// String implements fmt.Stringer for supervisor logging.
func (s *SnapshotService) String() string {
	return "model-snapshots"
}

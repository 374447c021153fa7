// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

// Package persistence stores model snapshots in BadgerDB so the learned
// transition table survives restarts. Saves replace the whole keyspace in
// one pass; loads that hit corrupt or foreign data fall back to an empty
// model rather than refusing to start.
package persistence

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yapbot/yapcore/internal/logging"
	"github.com/yapbot/yapcore/internal/markov"
	"github.com/yapbot/yapcore/internal/metrics"
)

// formatMarker identifies a database written by this service. Load treats
// any database carrying a different marker as corrupt.
const formatMarker = "yapcore-model"

// Key layout. Rows and start counts get one key per token so a save batch
// never builds a single value proportional to the whole model.
const (
	keyFormat  = "meta:format"
	keyVersion = "meta:version"

	rowKeyPrefix   = "row:"
	startKeyPrefix = "start:"
)

// Config holds persistence settings.
type Config struct {
	// Dir is the BadgerDB directory.
	Dir string

	// SyncWrites forces fsync on every write. Snapshots are periodic and
	// replayable from chat, so this defaults off.
	SyncWrites bool
}

// Store persists model snapshots. Save is wrapped in a circuit breaker:
// a disk that starts failing opens the breaker and later snapshot attempts
// fail fast instead of stalling the snapshot service.
type Store struct {
	db *badger.DB
	cb *gobreaker.CircuitBreaker[struct{}]
}

// Open opens (or creates) the snapshot database.
func Open(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("persistence dir is required")
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.SyncWrites = cfg.SyncWrites

	// Badger's default logger writes straight to stderr, bypassing zerolog.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	cbName := "snapshot-save"
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Snapshot breaker state transition")
		},
	})

	logging.Info().Str("path", cfg.Dir).Bool("sync_writes", cfg.SyncWrites).Msg("Snapshot store opened")
	return &Store{db: db, cb: cb}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored model with the given snapshot. The previous
// contents are dropped first so unlearned rows do not linger.
func (s *Store) Save(snap *markov.Snapshot) error {
	start := time.Now()
	_, err := s.cb.Execute(func() (struct{}, error) {
		return struct{}{}, s.save(snap)
	})
	metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SnapshotErrors.Inc()
		return err
	}
	metrics.SnapshotsSaved.Inc()
	return nil
}

func (s *Store) save(snap *markov.Snapshot) error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("drop previous snapshot: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	if err := wb.Set([]byte(keyFormat), []byte(formatMarker)); err != nil {
		return fmt.Errorf("set format marker: %w", err)
	}
	if err := wb.Set([]byte(keyVersion), []byte(strconv.FormatUint(snap.Version, 10))); err != nil {
		return fmt.Errorf("set model version: %w", err)
	}

	for token, entries := range snap.Transitions {
		data, err := json.Marshal(entries)
		if err != nil {
			return fmt.Errorf("marshal row %q: %w", token, err)
		}
		if err := wb.Set([]byte(rowKeyPrefix+token), data); err != nil {
			return fmt.Errorf("set row %q: %w", token, err)
		}
	}

	for token, count := range snap.Starts {
		key := []byte(startKeyPrefix + token)
		if err := wb.Set(key, []byte(strconv.FormatInt(count, 10))); err != nil {
			return fmt.Errorf("set start %q: %w", token, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush snapshot batch: %w", err)
	}

	logging.Debug().
		Uint64("model_version", snap.Version).
		Int("rows", len(snap.Transitions)).
		Int("start_words", len(snap.Starts)).
		Msg("Model snapshot saved")
	return nil
}

// Load reads the stored snapshot. A fresh database yields an empty
// snapshot; a database that does not parse yields an empty snapshot and a
// warning, so a bad disk state never blocks startup.
func (s *Store) Load() *markov.Snapshot {
	snap, err := s.load()
	if err != nil {
		metrics.ModelLoadCorruptions.Inc()
		logging.Warn().Err(err).Msg("Stored model unreadable, starting from empty model")
		return markov.EmptySnapshot()
	}
	return snap
}

func (s *Store) load() (*markov.Snapshot, error) {
	snap := markov.EmptySnapshot()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyFormat))
		if errors.Is(err, badger.ErrKeyNotFound) {
			// First run, nothing stored yet.
			return nil
		}
		if err != nil {
			return fmt.Errorf("get format marker: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			if string(val) != formatMarker {
				return fmt.Errorf("unexpected format marker %q", val)
			}
			return nil
		}); err != nil {
			return err
		}

		if item, err = txn.Get([]byte(keyVersion)); err != nil {
			return fmt.Errorf("get model version: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			v, perr := strconv.ParseUint(string(val), 10, 64)
			if perr != nil {
				return fmt.Errorf("parse model version: %w", perr)
			}
			snap.Version = v
			return nil
		}); err != nil {
			return err
		}

		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(rowKeyPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			token := string(item.Key()[len(rowKeyPrefix):])
			if err := item.Value(func(val []byte) error {
				var entries []markov.SuccessorEntry
				if uerr := json.Unmarshal(val, &entries); uerr != nil {
					return fmt.Errorf("unmarshal row %q: %w", token, uerr)
				}
				snap.Transitions[token] = entries
				return nil
			}); err != nil {
				return err
			}
		}

		sit := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(startKeyPrefix)})
		defer sit.Close()
		for sit.Rewind(); sit.Valid(); sit.Next() {
			item := sit.Item()
			token := string(item.Key()[len(startKeyPrefix):])
			if err := item.Value(func(val []byte) error {
				count, perr := strconv.ParseInt(string(val), 10, 64)
				if perr != nil {
					return fmt.Errorf("parse start count %q: %w", token, perr)
				}
				snap.Starts[token] = count
				return nil
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info().
		Uint64("model_version", snap.Version).
		Int("rows", len(snap.Transitions)).
		Int("start_words", len(snap.Starts)).
		Msg("Model snapshot loaded")
	return snap, nil
}

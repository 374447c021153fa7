// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

// Package markov implements the word-succession model at the center of
// Yapcore: a transition table of weighted token-to-token edges plus an index
// of message-starting words, mutated by the trainer and sampled by the
// generator.
//
// The Store is the single process-wide shared resource. Writes (training,
// unlearning, reset) take an exclusive lock and are atomic per message; reads
// (generation, snapshots) share a read lock and always observe a consistent
// model. A version counter increments exactly once per successful mutation so
// the persistence layer can detect stale snapshots.
package markov

// SuccessorEntry is one weighted outgoing edge of the transition table.
type SuccessorEntry struct {
	Token string `json:"token"`
	Count int64  `json:"count"`
}

// Snapshot is an immutable, serializable copy of the model, taken under a
// read lock. Successor entries are sorted by token so the serialized form is
// deterministic.
type Snapshot struct {
	// Version is the mutation counter at the time the snapshot was taken.
	Version uint64 `json:"version"`

	// Transitions maps every known token to its outgoing edges. A token
	// only ever observed in terminal position has an entry with no edges.
	Transitions map[string][]SuccessorEntry `json:"transitions"`

	// Starts maps each start word to the number of messages it began.
	Starts map[string]int64 `json:"starts"`
}

// EmptySnapshot returns a snapshot of a model with no training data.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Transitions: make(map[string][]SuccessorEntry),
		Starts:      make(map[string]int64),
	}
}

// Stats summarizes model size for the stats endpoint and gauges.
type Stats struct {
	// Tokens is the number of rows in the transition table.
	Tokens int `json:"tokens"`

	// Transitions is the number of distinct edges.
	Transitions int `json:"transitions"`

	// StartWords is the number of distinct message-starting words.
	StartWords int `json:"start_words"`

	// Version is the current mutation counter.
	Version uint64 `json:"version"`
}

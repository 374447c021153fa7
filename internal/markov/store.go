// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package markov

import (
	"sort"
	"sync"
)

// Store is the thread-safe shared word-transition model.
//
// All mutation goes through Train, Unlearn, and Reset, which take the write
// lock and bump the version counter exactly once each. Generation and
// snapshots take the read lock; because writers are exclusive, a read-locked
// view is always a consistent point-in-time model with no torn rows.
type Store struct {
	mu sync.RWMutex

	// transitions holds one row per known token. Terminal tokens have an
	// empty row, never a missing one, so a walk can always dereference the
	// current token.
	transitions map[string]map[string]int64

	// starts counts how many messages each start word began.
	starts map[string]int64

	// startTokens/startPos give each observed start word a stable bucket in
	// startWeights, the cumulative-weight index used for sampling.
	startTokens  []string
	startPos     map[string]int
	startWeights *fenwickTree

	edges   int
	version uint64
}

// NewStore creates an empty model store.
func NewStore() *Store {
	return &Store{
		transitions:  make(map[string]map[string]int64),
		starts:       make(map[string]int64),
		startPos:     make(map[string]int),
		startWeights: newFenwickTree(),
	}
}

// Restore builds a store from a persisted snapshot.
func Restore(snap *Snapshot) *Store {
	s := NewStore()
	if snap == nil {
		return s
	}

	s.version = snap.Version
	for token, entries := range snap.Transitions {
		row := make(map[string]int64, len(entries))
		for _, e := range entries {
			if e.Count <= 0 {
				continue
			}
			row[e.Token] = e.Count
			s.edges++
		}
		s.transitions[token] = row
	}

	// Deterministic bucket order keeps restored stores comparable in tests;
	// sampling itself is order-independent.
	startTokens := make([]string, 0, len(snap.Starts))
	for token := range snap.Starts {
		startTokens = append(startTokens, token)
	}
	sort.Strings(startTokens)
	for _, token := range startTokens {
		count := snap.Starts[token]
		if count <= 0 {
			continue
		}
		s.addStartLocked(token, count)
		s.ensureRowLocked(token)
	}
	return s
}

// Train applies one tokenized message to the model as a single atomic update:
// the start index, every adjacent pair, and a terminal row for the last
// token, then one version increment. An empty sequence is a no-op and
// reports false.
func (s *Store) Train(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.addStartLocked(tokens[0], 1)
	s.ensureRowLocked(tokens[0])

	for i := 0; i+1 < len(tokens); i++ {
		row := s.ensureRowLocked(tokens[i])
		if _, seen := row[tokens[i+1]]; !seen {
			s.edges++
		}
		row[tokens[i+1]]++
		s.ensureRowLocked(tokens[i+1])
	}

	s.version++
	return true
}

// Unlearn reverses one occurrence of a previously trained message: the start
// count and every adjacent pair count are decremented, clamping at zero.
// Rows are kept even when empty so the terminal-row invariant holds for
// other messages. No-op on an empty sequence.
func (s *Store) Unlearn(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if pos, ok := s.startPos[tokens[0]]; ok && s.starts[tokens[0]] > 0 {
		s.starts[tokens[0]]--
		s.startWeights.Update(pos, -1)
		if s.starts[tokens[0]] == 0 {
			delete(s.starts, tokens[0])
		}
	}

	for i := 0; i+1 < len(tokens); i++ {
		row, ok := s.transitions[tokens[i]]
		if !ok {
			continue
		}
		if count, ok := row[tokens[i+1]]; ok {
			if count <= 1 {
				delete(row, tokens[i+1])
				s.edges--
			} else {
				row[tokens[i+1]] = count - 1
			}
		}
	}

	s.version++
	return true
}

// Reset discards all training data. The version counter keeps increasing so
// snapshot staleness checks stay monotonic across a reset.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transitions = make(map[string]map[string]int64)
	s.starts = make(map[string]int64)
	s.startTokens = nil
	s.startPos = make(map[string]int)
	s.startWeights = newFenwickTree()
	s.edges = 0
	s.version++
}

// Snapshot returns a deep copy of the model taken under the read lock.
// Successor entries are sorted by token for deterministic serialization.
// Save I/O can then run without holding any lock.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Version:     s.version,
		Transitions: make(map[string][]SuccessorEntry, len(s.transitions)),
		Starts:      make(map[string]int64, len(s.starts)),
	}

	for token, row := range s.transitions {
		entries := make([]SuccessorEntry, 0, len(row))
		for succ, count := range row {
			entries = append(entries, SuccessorEntry{Token: succ, Count: count})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Token < entries[j].Token })
		snap.Transitions[token] = entries
	}
	for token, count := range s.starts {
		snap.Starts[token] = count
	}
	return snap
}

// Stats returns current model size counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Tokens:      len(s.transitions),
		Transitions: s.edges,
		StartWords:  len(s.starts),
		Version:     s.version,
	}
}

// Version returns the current mutation counter.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// addStartLocked records count occurrences of token as a message start.
// Caller must hold the write lock.
func (s *Store) addStartLocked(token string, count int64) {
	pos, ok := s.startPos[token]
	if !ok {
		pos = s.startWeights.Append()
		s.startTokens = append(s.startTokens, token)
		s.startPos[token] = pos
	}
	s.starts[token] += count
	s.startWeights.Update(pos, count)
}

// ensureRowLocked guarantees token has a (possibly empty) transition row.
// Caller must hold the write lock.
func (s *Store) ensureRowLocked(token string) map[string]int64 {
	row, ok := s.transitions[token]
	if !ok {
		row = make(map[string]int64)
		s.transitions[token] = row
	}
	return row
}

// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package markov

import (
	"strings"
	"sync"
	"testing"
)

func tokens(s string) []string {
	return strings.Fields(s)
}

func successorCount(snap *Snapshot, from, to string) int64 {
	for _, e := range snap.Transitions[from] {
		if e.Token == to {
			return e.Count
		}
	}
	return 0
}

func TestTrain_BasicCounts(t *testing.T) {
	t.Parallel()

	s := NewStore()
	if !s.Train(tokens("dingus poop fart butt")) {
		t.Fatal("Train returned false for non-empty sequence")
	}

	snap := s.Snapshot()
	if got := snap.Starts["dingus"]; got != 1 {
		t.Errorf("Starts[dingus] = %d, want 1", got)
	}
	if got := successorCount(snap, "dingus", "poop"); got != 1 {
		t.Errorf("count(dingus->poop) = %d, want 1", got)
	}
	if got := successorCount(snap, "poop", "fart"); got != 1 {
		t.Errorf("count(poop->fart) = %d, want 1", got)
	}
	if got := successorCount(snap, "fart", "butt"); got != 1 {
		t.Errorf("count(fart->butt) = %d, want 1", got)
	}

	// Terminal token must have a row, possibly empty.
	row, ok := snap.Transitions["butt"]
	if !ok {
		t.Fatal("terminal token has no transition row")
	}
	if len(row) != 0 {
		t.Errorf("terminal row = %v, want empty", row)
	}
}

func TestTrain_EmptySequenceIsNoOp(t *testing.T) {
	t.Parallel()

	s := NewStore()
	if s.Train(nil) {
		t.Error("Train(nil) = true, want false")
	}
	if got := s.Version(); got != 0 {
		t.Errorf("version after no-op = %d, want 0", got)
	}
}

func TestTrain_DoubleTrainDoublesCounts(t *testing.T) {
	t.Parallel()

	s := NewStore()
	msg := tokens("the quick brown fox")
	s.Train(msg)
	s.Train(msg)

	snap := s.Snapshot()
	if got := snap.Starts["the"]; got != 2 {
		t.Errorf("Starts[the] = %d, want 2", got)
	}
	for _, pair := range [][2]string{{"the", "quick"}, {"quick", "brown"}, {"brown", "fox"}} {
		if got := successorCount(snap, pair[0], pair[1]); got != 2 {
			t.Errorf("count(%s->%s) = %d, want 2", pair[0], pair[1], got)
		}
	}
}

func TestTrain_PairCountsAdditiveAcrossMessages(t *testing.T) {
	t.Parallel()

	s := NewStore()
	// "a b" appears as an adjacent pair in three messages, once twice over.
	s.Train(tokens("a b c"))
	s.Train(tokens("x a b"))
	s.Train(tokens("a b a b"))

	snap := s.Snapshot()
	if got := successorCount(snap, "a", "b"); got != 4 {
		t.Errorf("count(a->b) = %d, want 4", got)
	}
	if got := successorCount(snap, "b", "a"); got != 1 {
		t.Errorf("count(b->a) = %d, want 1", got)
	}
}

func TestTrain_VersionIncrementsOncePerMessage(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Train(tokens("one two three four five"))
	if got := s.Version(); got != 1 {
		t.Errorf("version = %d, want 1", got)
	}
	s.Train(tokens("six"))
	if got := s.Version(); got != 2 {
		t.Errorf("version = %d, want 2", got)
	}
}

func TestTrain_SingleTokenMessage(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Train(tokens("hello"))

	snap := s.Snapshot()
	if got := snap.Starts["hello"]; got != 1 {
		t.Errorf("Starts[hello] = %d, want 1", got)
	}
	if _, ok := snap.Transitions["hello"]; !ok {
		t.Error("single-token message left no transition row")
	}
}

func TestTrain_ConcurrentNoLostUpdates(t *testing.T) {
	t.Parallel()

	s := NewStore()
	const workers = 8
	const perWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.Train(tokens("alpha beta gamma"))
			}
		}()
	}
	wg.Wait()

	const total = workers * perWorker
	snap := s.Snapshot()
	if got := snap.Starts["alpha"]; got != total {
		t.Errorf("Starts[alpha] = %d, want %d", got, total)
	}
	if got := successorCount(snap, "alpha", "beta"); got != total {
		t.Errorf("count(alpha->beta) = %d, want %d", got, total)
	}
	if got := s.Version(); got != uint64(total) {
		t.Errorf("version = %d, want %d", got, total)
	}
}

func TestUnlearn_ReversesTrain(t *testing.T) {
	t.Parallel()

	s := NewStore()
	msg := tokens("never gonna give you up")
	s.Train(msg)
	s.Train(msg)
	s.Unlearn(msg)

	snap := s.Snapshot()
	if got := snap.Starts["never"]; got != 1 {
		t.Errorf("Starts[never] = %d, want 1", got)
	}
	if got := successorCount(snap, "gonna", "give"); got != 1 {
		t.Errorf("count(gonna->give) = %d, want 1", got)
	}

	s.Unlearn(msg)
	snap = s.Snapshot()
	if _, ok := snap.Starts["never"]; ok {
		t.Error("start word still present after full unlearn")
	}
	if got := successorCount(snap, "gonna", "give"); got != 0 {
		t.Errorf("count(gonna->give) = %d, want 0", got)
	}

	// Unlearning below zero clamps rather than going negative.
	s.Unlearn(msg)
	snap = s.Snapshot()
	if got := successorCount(snap, "never", "gonna"); got != 0 {
		t.Errorf("count(never->gonna) after over-unlearn = %d, want 0", got)
	}
}

func TestReset_DiscardsEverything(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Train(tokens("some words here"))
	v := s.Version()
	s.Reset()

	stats := s.Stats()
	if stats.Tokens != 0 || stats.Transitions != 0 || stats.StartWords != 0 {
		t.Errorf("Stats after reset = %+v, want zeros", stats)
	}
	if stats.Version <= v {
		t.Errorf("version after reset = %d, want > %d (monotonic)", stats.Version, v)
	}

	// Store remains usable.
	s.Train(tokens("fresh start"))
	if got := s.Stats().StartWords; got != 1 {
		t.Errorf("StartWords after retrain = %d, want 1", got)
	}
}

func TestSnapshot_IsolatedFromLaterWrites(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Train(tokens("a b"))
	snap := s.Snapshot()
	s.Train(tokens("a b"))

	if got := successorCount(snap, "a", "b"); got != 1 {
		t.Errorf("snapshot count(a->b) = %d, want 1 (snapshot must be a deep copy)", got)
	}
	if snap.Version != 1 {
		t.Errorf("snapshot version = %d, want 1", snap.Version)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Train(tokens("to be or not to be"))
	s.Train(tokens("be yourself"))
	snap := s.Snapshot()

	restored := Restore(snap)
	got := restored.Snapshot()

	if got.Version != snap.Version {
		t.Errorf("restored version = %d, want %d", got.Version, snap.Version)
	}
	if len(got.Starts) != len(snap.Starts) {
		t.Fatalf("restored starts = %v, want %v", got.Starts, snap.Starts)
	}
	for token, count := range snap.Starts {
		if got.Starts[token] != count {
			t.Errorf("restored Starts[%s] = %d, want %d", token, got.Starts[token], count)
		}
	}
	if len(got.Transitions) != len(snap.Transitions) {
		t.Fatalf("restored %d transition rows, want %d", len(got.Transitions), len(snap.Transitions))
	}
	for token, entries := range snap.Transitions {
		for _, e := range entries {
			if c := successorCount(got, token, e.Token); c != e.Count {
				t.Errorf("restored count(%s->%s) = %d, want %d", token, e.Token, c, e.Count)
			}
		}
	}

	// Restored store must keep sampling state consistent: training after a
	// restore still works.
	restored.Train(tokens("be happy"))
	if c := restored.Stats().StartWords; c != 2 {
		t.Errorf("restored StartWords after retrain = %d, want 2", c)
	}
}

func TestStats_Counts(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Train(tokens("a b c"))
	s.Train(tokens("a c"))

	stats := s.Stats()
	if stats.Tokens != 3 {
		t.Errorf("Tokens = %d, want 3", stats.Tokens)
	}
	if stats.Transitions != 3 { // a->b, b->c, a->c
		t.Errorf("Transitions = %d, want 3", stats.Transitions)
	}
	if stats.StartWords != 1 {
		t.Errorf("StartWords = %d, want 1", stats.StartWords)
	}
	if stats.Version != 2 {
		t.Errorf("Version = %d, want 2", stats.Version)
	}
}

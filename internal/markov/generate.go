// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package markov

import (
	"math/rand/v2"
	"strings"
)

// GeneratorConfig bounds the random walk.
type GeneratorConfig struct {
	// MaxWords is the hard cap on generated word count.
	// Caller-supplied limits are clamped to this. Default: 30.
	MaxWords int

	// MinWords is the minimum word count for unseeded generation;
	// 0 disables it. When a walk terminates early, a fresh start word is
	// sampled and the walk continues, like the original min-length retry.
	MinWords int

	// MaxRestarts caps how many fresh starts an unseeded walk may take to
	// satisfy MinWords. Default: 5.
	MaxRestarts int
}

// DefaultGeneratorConfig returns production defaults.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MaxWords:    30,
		MinWords:    0,
		MaxRestarts: 5,
	}
}

// Generator produces messages by weighted random walk over a Store.
// It never mutates the model and never blocks training for longer than one
// bounded walk under a shared read lock. Safe for concurrent use.
type Generator struct {
	store *Store
	cfg   GeneratorConfig

	// intn is rand.Int64N unless a test injects a deterministic source.
	intn func(int64) int64
}

// NewGenerator creates a Generator over the given store.
func NewGenerator(store *Store, cfg GeneratorConfig) *Generator {
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = DefaultGeneratorConfig().MaxWords
	}
	if cfg.MaxRestarts <= 0 {
		cfg.MaxRestarts = DefaultGeneratorConfig().MaxRestarts
	}
	return &Generator{
		store: store,
		cfg:   cfg,
		intn:  rand.Int64N,
	}
}

// Generate produces one message. With a non-empty seed the output starts
// with exactly that token, or the call fails with UnknownStartWordError;
// another start is never silently substituted. With an empty seed the start
// is sampled from the start index proportionally to observed frequency.
//
// maxWords <= 0 uses the configured cap; larger values are clamped to it.
// Returns ErrEmptyModel when nothing has been trained.
func (g *Generator) Generate(seed string, maxWords int) (string, error) {
	limit := g.cfg.MaxWords
	if maxWords > 0 && maxWords < limit {
		limit = maxWords
	}

	g.store.mu.RLock()
	defer g.store.mu.RUnlock()

	if len(g.store.starts) == 0 {
		return "", ErrEmptyModel
	}

	var start string
	if seed != "" {
		if _, ok := g.store.starts[seed]; !ok {
			return "", &UnknownStartWordError{Word: seed}
		}
		start = seed
	} else {
		start = g.sampleStartLocked()
	}

	words := g.walkLocked(start, limit)

	// Unseeded walks below the minimum get fresh starts, like the original
	// bot chaining extra sentences until the minimum word count is met.
	if seed == "" && g.cfg.MinWords > 0 {
		for restarts := 0; len(words) < g.cfg.MinWords && len(words) < limit && restarts < g.cfg.MaxRestarts; restarts++ {
			words = append(words, g.walkLocked(g.sampleStartLocked(), limit-len(words))...)
		}
	}

	return strings.Join(words, " "), nil
}

// walkLocked performs one random walk from start, producing at most limit
// words. Caller must hold the read lock.
func (g *Generator) walkLocked(start string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	words := make([]string, 0, limit)
	words = append(words, start)
	current := start

	for len(words) < limit {
		next, ok := g.sampleSuccessorLocked(current)
		if !ok {
			break // terminal node
		}
		words = append(words, next)
		current = next
	}
	return words
}

// sampleStartLocked draws a start word proportionally to its frequency using
// the cumulative-weight index. Caller must hold the read lock and have
// checked that the start index is non-empty.
func (g *Generator) sampleStartLocked() string {
	total := g.store.startWeights.Total()
	idx := g.store.startWeights.FindPrefix(g.intn(total))
	return g.store.startTokens[idx]
}

// sampleSuccessorLocked draws the next token from current's row with
// probability count/rowTotal. Returns false at a terminal node.
func (g *Generator) sampleSuccessorLocked(current string) (string, bool) {
	row := g.store.transitions[current]
	if len(row) == 0 {
		return "", false
	}

	var total int64
	for _, count := range row {
		total += count
	}
	if total <= 0 {
		return "", false
	}

	target := g.intn(total)
	for token, count := range row {
		if target < count {
			return token, true
		}
		target -= count
	}
	return "", false
}

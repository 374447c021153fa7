// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/yapbot/yapcore/internal/logging"
	"github.com/yapbot/yapcore/internal/markov"
)

// minAutogenInterval is the floor for unprompted generation. Anything
// faster turns the service into a spam loop.
const minAutogenInterval = 30 * time.Second

// SentenceSink receives unprompted generated sentences.
type SentenceSink interface {
	Say(ctx context.Context, sentence string) error
}

// LogSink writes generated sentences to the structured log. It is the
// default sink when no chat connection is wired up.
type LogSink struct{}

// Say implements SentenceSink.
func (LogSink) Say(_ context.Context, sentence string) error {
	logging.Info().Str("sentence", sentence).Msg("Unprompted generation")
	return nil
}

// AutogenService periodically generates a sentence without being asked,
// the way a chat bot pipes up in a quiet channel. An empty model simply
// skips the round.
type AutogenService struct {
	gen     *markov.Generator
	sink    SentenceSink
	limiter *rate.Limiter
}

// NewAutogenService creates the timer. The interval is clamped to the
// 30-second floor.
func NewAutogenService(gen *markov.Generator, sink SentenceSink, interval time.Duration) *AutogenService {
	if interval < minAutogenInterval {
		interval = minAutogenInterval
	}
	if sink == nil {
		sink = LogSink{}
	}
	return &AutogenService{
		gen:  gen,
		sink: sink,
		// Burst 1 with no initial credit: the first sentence waits a
		// full interval after startup.
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Serve implements suture.Service.
func (s *AutogenService) Serve(ctx context.Context) error {
	// Drain the initial token so generation starts one interval in.
	_ = s.limiter.Allow()

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}

		sentence, err := s.gen.Generate("", 0)
		if errors.Is(err, markov.ErrEmptyModel) {
			continue
		}
		if err != nil {
			logging.Warn().Err(err).Msg("Unprompted generation failed")
			continue
		}

		if err := s.sink.Say(ctx, sentence); err != nil {
			logging.Warn().Err(err).Msg("Failed to deliver unprompted sentence")
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *AutogenService) String() string {
	return "autogen-timer"
}

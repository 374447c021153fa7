// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package ingest

import (
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yapbot/yapcore/internal/logging"
	"github.com/yapbot/yapcore/internal/markov"
	"github.com/yapbot/yapcore/internal/metrics"
	"github.com/yapbot/yapcore/internal/tokenizer"
)

// Trainer consumes chat events and feeds trainable ones into the model.
//
// Malformed or filtered messages are acked and dropped: retrying cannot fix
// a payload that does not decode or a message that policy excludes, and
// nacking them would only churn the retry middleware.
type Trainer struct {
	tok   *tokenizer.Tokenizer
	store *markov.Store
}

// NewTrainer creates a trainer over the given tokenizer and store.
func NewTrainer(tok *tokenizer.Tokenizer, store *markov.Store) *Trainer {
	return &Trainer{tok: tok, store: store}
}

// Handle processes one published chat event. It returns a non-nil error only
// for failures worth retrying, which for an in-memory store is none; every
// outcome is observable through metrics instead.
func (t *Trainer) Handle(msg *message.Message) error {
	ev, err := UnmarshalChatEvent(msg.Payload)
	if err != nil {
		metrics.MessagesSkipped.WithLabelValues("decode_error").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable chat event")
		return nil
	}
	if err := ev.Validate(); err != nil {
		metrics.MessagesSkipped.WithLabelValues("invalid").Inc()
		logging.Warn().Err(err).Str("event_id", ev.EventID).Msg("Dropping invalid chat event")
		return nil
	}

	t.TrainMessage(ev.Message)
	return nil
}

// TrainMessage tokenizes one raw chat message and trains the model on it.
// It reports outcomes to metrics and returns whether the model changed.
func (t *Trainer) TrainMessage(raw string) bool {
	tokens := t.tok.Trainable(raw)
	if len(tokens) == 0 {
		metrics.MessagesSkipped.WithLabelValues(skipReason(t.tok, raw)).Inc()
		return false
	}

	if !t.store.Train(tokens) {
		metrics.MessagesSkipped.WithLabelValues("empty").Inc()
		return false
	}

	metrics.MessagesIngested.Inc()
	metrics.TokensTrained.Add(float64(len(tokens)))
	st := t.store.Stats()
	metrics.UpdateModelStats(st.Tokens, st.Transitions, st.StartWords, st.Version)
	return true
}

func skipReason(tok *tokenizer.Tokenizer, raw string) string {
	switch {
	case tok.IsCommand(raw):
		return "command"
	case tok.ContainsLink(raw):
		return "link"
	default:
		return "empty"
	}
}

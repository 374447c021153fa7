// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/yapbot/yapcore/internal/ingest"
	"github.com/yapbot/yapcore/internal/logging"
	"github.com/yapbot/yapcore/internal/markov"
	"github.com/yapbot/yapcore/internal/metrics"
	"github.com/yapbot/yapcore/internal/tokenizer"
	"github.com/yapbot/yapcore/internal/validation"
)

// EventPublisher enqueues chat events for asynchronous training.
type EventPublisher interface {
	Publish(ctx context.Context, ev *ingest.ChatEvent) error
}

// Handler implements the HTTP endpoints over the model, generator, and
// ingestion pipeline.
type Handler struct {
	store     *markov.Store
	gen       *markov.Generator
	tok       *tokenizer.Tokenizer
	publisher EventPublisher
}

// NewHandler creates the endpoint handler.
func NewHandler(store *markov.Store, gen *markov.Generator, tok *tokenizer.Tokenizer, publisher EventPublisher) *Handler {
	return &Handler{
		store:     store,
		gen:       gen,
		tok:       tok,
		publisher: publisher,
	}
}

// Train accepts a chat message for asynchronous learning.
// POST /api/v1/train
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Request body must be valid JSON")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr.Error(), verr.Details())
		return
	}

	ev := ingest.NewChatEvent(req.Channel, req.User, req.Message)
	if err := h.publisher.Publish(r.Context(), ev); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to enqueue chat event")
		rw.InternalError("Failed to enqueue message for training")
		return
	}

	rw.Accepted(TrainResponse{EventID: ev.EventID})
}

// Generate produces one sentence by random walk over the model.
// GET /api/v1/generate?seed=&max_length=
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	start := time.Now()

	params, err := parseGenerateParams(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(params); verr != nil {
		rw.ValidationError(verr.Error(), verr.Details())
		return
	}

	seed := h.tok.Normalize(params.Seed)
	if params.Seed != "" && seed == "" {
		// A seed that normalizes away (punctuation only) must not fall
		// through to unseeded sampling.
		metrics.RecordGenerate("unknown_seed", time.Since(start), 0)
		rw.NotFound(ErrCodeUnknownStartWord, "No message has ever started with "+strconv.Quote(params.Seed))
		return
	}
	sentence, err := h.gen.Generate(seed, params.MaxLength)
	switch {
	case errors.Is(err, markov.ErrEmptyModel):
		metrics.RecordGenerate("empty_model", time.Since(start), 0)
		rw.Conflict(ErrCodeEmptyModel, "The model has not been trained yet")
		return
	case err != nil:
		if word, ok := markov.IsUnknownStartWord(err); ok {
			metrics.RecordGenerate("unknown_seed", time.Since(start), 0)
			rw.NotFound(ErrCodeUnknownStartWord, "No message has ever started with "+strconv.Quote(word))
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("Generation failed")
		metrics.RecordGenerate("error", time.Since(start), 0)
		rw.InternalError("Generation failed")
		return
	}

	words := len(strings.Fields(sentence))
	metrics.RecordGenerate("ok", time.Since(start), words)
	rw.Success(GenerateResponse{Sentence: sentence, Words: words})
}

// Unlearn removes one message's counts from the model.
// DELETE /api/v1/model/message
func (h *Handler) Unlearn(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req UnlearnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Request body must be valid JSON")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr.Error(), verr.Details())
		return
	}

	// Tokenize the same way training did so the removed counts line up
	// with the learned ones.
	tokens := h.tok.Trainable(req.Message)
	changed := h.store.Unlearn(tokens)
	if changed {
		st := h.store.Stats()
		metrics.UpdateModelStats(st.Tokens, st.Transitions, st.StartWords, st.Version)
		logging.Ctx(r.Context()).Info().Int("tokens", len(tokens)).Msg("Message unlearned")
	}

	rw.Success(MutationResponse{Changed: changed, ModelVersion: h.store.Version()})
}

// Reset discards the whole model.
// DELETE /api/v1/model
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	h.store.Reset()
	st := h.store.Stats()
	metrics.UpdateModelStats(st.Tokens, st.Transitions, st.StartWords, st.Version)
	logging.Ctx(r.Context()).Info().Uint64("model_version", st.Version).Msg("Model reset")

	rw.Success(MutationResponse{Changed: true, ModelVersion: st.Version})
}

// Stats reports model size counters.
// GET /api/v1/model/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.store.Stats())
}

// Healthz is the liveness endpoint.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}

func parseGenerateParams(r *http.Request) (*GenerateParams, error) {
	q := r.URL.Query()
	params := &GenerateParams{Seed: q.Get("seed")}

	if raw := q.Get("max_length"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("max_length must be an integer")
		}
		params.MaxLength = n
	}
	return params, nil
}

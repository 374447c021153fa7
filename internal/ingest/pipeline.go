// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

// Package ingest carries chat messages from the API surface to the model
// trainer over an in-process pub/sub pipeline. Publishing is decoupled from
// training: the HTTP handler enqueues and returns while the router drains
// the channel on its own goroutine.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yapbot/yapcore/internal/logging"
)

// PipelineConfig holds configuration for the ingestion pipeline.
type PipelineConfig struct {
	// Buffer is the channel capacity between publishers and the trainer.
	// Publishing blocks once the buffer is full, which is the backpressure
	// signal the API layer relies on.
	Buffer int64

	// CloseTimeout is how long to wait for in-flight handlers when closing.
	CloseTimeout time.Duration

	// Retry configuration for handler failures.
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// ThrottlePerSecond caps trainer throughput (0 = disabled).
	ThrottlePerSecond int64
}

// DefaultPipelineConfig returns production defaults for the pipeline.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Buffer:               1024,
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
		ThrottlePerSecond:    0,
	}
}

// Pipeline wires a gochannel pub/sub to a Watermill router running the
// trainer handler, with panic recovery and retry middleware.
type Pipeline struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	logger watermill.LoggerAdapter
}

// NewPipeline creates the pipeline and registers the trainer handler.
// Run must be called before Publish delivers anything.
func NewPipeline(cfg PipelineConfig, trainer *Trainer, logger watermill.LoggerAdapter) (*Pipeline, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.Buffer,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(middleware.CorrelationID)
	router.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	router.AddMiddleware(retry.Middleware)

	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second)
		router.AddMiddleware(throttle.Middleware)
	}

	router.AddNoPublisherHandler("markov-trainer", TopicChat, pubsub, trainer.Handle)

	return &Pipeline{
		pubsub: pubsub,
		router: router,
		logger: logger,
	}, nil
}

// Publish enqueues one chat event for training. It blocks when the buffer is
// full and returns once the event is accepted by the channel.
func (p *Pipeline) Publish(ctx context.Context, ev *ChatEvent) error {
	payload, err := ev.Marshal()
	if err != nil {
		return fmt.Errorf("marshal chat event: %w", err)
	}

	msg := message.NewMessage(ev.EventID, payload)
	msg.SetContext(ctx)
	middleware.SetCorrelationID(correlationID(ctx, ev), msg)

	if err := p.pubsub.Publish(TopicChat, msg); err != nil {
		return fmt.Errorf("publish chat event: %w", err)
	}
	return nil
}

// Run starts the router and blocks until ctx is cancelled. It must be
// running before published events are consumed.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.router.Run(ctx)
}

// Running returns a channel closed once the router's handlers are
// subscribed and events will be delivered.
func (p *Pipeline) Running() <-chan struct{} {
	return p.router.Running()
}

// Close shuts down the router and channel, waiting up to CloseTimeout for
// in-flight handlers.
func (p *Pipeline) Close() error {
	if err := p.router.Close(); err != nil {
		return fmt.Errorf("close router: %w", err)
	}
	return p.pubsub.Close()
}

func correlationID(ctx context.Context, ev *ChatEvent) string {
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		return id
	}
	return ev.EventID
}

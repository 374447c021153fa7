// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package services

import (
	"context"

	"github.com/yapbot/yapcore/internal/ingest"
)

// IngestService runs the watermill pipeline under supervision. A pipeline
// crash restarts the router without touching the HTTP layer.
type IngestService struct {
	pipeline *ingest.Pipeline
}

// NewIngestService wraps the pipeline as a suture service.
func NewIngestService(pipeline *ingest.Pipeline) *IngestService {
	return &IngestService{pipeline: pipeline}
}

// Serve implements suture.Service. It blocks in the router until ctx is
// cancelled.
func (s *IngestService) Serve(ctx context.Context) error {
	if err := s.pipeline.Run(ctx); err != nil {
		return err
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (s *IngestService) String() string {
	return "ingest-pipeline"
}

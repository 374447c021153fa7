// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package api

// TrainRequest is the body of POST /api/v1/train.
type TrainRequest struct {
	// Message is the raw chat line to learn from.
	Message string `json:"message" validate:"required,max=2000"`

	// Channel and User annotate the event for logs; neither affects what
	// the model learns.
	Channel string `json:"channel,omitempty" validate:"omitempty,max=200"`
	User    string `json:"user,omitempty" validate:"omitempty,max=200"`
}

// UnlearnRequest is the body of DELETE /api/v1/model/message.
type UnlearnRequest struct {
	// Message is the raw chat line whose counts should be removed.
	Message string `json:"message" validate:"required,max=2000"`
}

// GenerateParams are the query parameters of GET /api/v1/generate.
type GenerateParams struct {
	// Seed, when set, is the word the walk must start from.
	Seed string `validate:"omitempty,max=200"`

	// MaxLength caps the number of generated words. Zero means the
	// configured default.
	MaxLength int `validate:"omitempty,min=1,max=500"`
}

// TrainResponse acknowledges an accepted train request.
type TrainResponse struct {
	EventID string `json:"event_id"`
}

// GenerateResponse carries one generated sentence.
type GenerateResponse struct {
	Sentence string `json:"sentence"`
	Words    int    `json:"words"`
}

// MutationResponse reports the model version after a direct mutation.
type MutationResponse struct {
	Changed      bool   `json:"changed"`
	ModelVersion uint64 `json:"model_version"`
}

// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package ingest

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to ChatEvent.
const SchemaVersion = 1

// TopicChat is the in-process topic chat events are published on.
const TopicChat = "chat.ingest"

// ChatEvent is the canonical form of one inbound chat message. The API layer
// builds one per accepted train request; the trainer handler consumes them.
type ChatEvent struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	Channel       string    `json:"channel,omitempty"`
	User          string    `json:"user,omitempty"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewChatEvent creates an event with a unique ID, timestamp, and schema version.
func NewChatEvent(channel, user, msg string) *ChatEvent {
	return &ChatEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Channel:       channel,
		User:          user,
		Message:       msg,
		Timestamp:     time.Now().UTC(),
	}
}

// Validate checks required fields and returns an error if validation fails.
func (e *ChatEvent) Validate() error {
	if e.EventID == "" {
		return errors.New("event_id is required")
	}
	if e.Message == "" {
		return errors.New("message is required")
	}
	return nil
}

// Marshal serializes the event for the wire.
func (e *ChatEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalChatEvent deserializes an event payload.
func UnmarshalChatEvent(data []byte) (*ChatEvent, error) {
	var e ChatEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.SchemaVersion == 0 {
		e.SchemaVersion = 1
	}
	return &e, nil
}

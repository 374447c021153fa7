// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

// Package tokenizer splits raw chat messages into normalized word tokens.
//
// Normalization is fixed at construction and deterministic: the same surface
// word always maps to the same token, so the transition model stays stable
// across restarts. Tokenize is pure; Trainable additionally applies the
// message-level filters used on the ingestion path (commands and links are
// chat-control noise, not language to learn from).
package tokenizer

import (
	"regexp"
	"strings"
	"unicode"
)

// linkPattern matches anything that looks like a hostname, the same loose
// heuristic Twitch applies when deciding a message contains a link.
var linkPattern = regexp.MustCompile(`\w+\.[a-z]{2,}`)

// Options controls token normalization and training-path filters.
type Options struct {
	// CaseFold lower-cases every token. Default: true.
	CaseFold bool

	// StripPunctuation removes leading and trailing punctuation from each
	// token ("hello!!" -> "hello"). Default: true.
	StripPunctuation bool

	// CommandPrefixes are message prefixes treated as bot/chat commands.
	// A message starting with one of these yields no trainable tokens.
	// Default: "!", "/", "." (with "/me" exempted).
	CommandPrefixes []string

	// SkipLinks drops messages containing link-like text from training.
	// Default: true.
	SkipLinks bool
}

// DefaultOptions returns the default normalization rules.
func DefaultOptions() Options {
	return Options{
		CaseFold:         true,
		StripPunctuation: true,
		CommandPrefixes:  []string{"!", "/", "."},
		SkipLinks:        true,
	}
}

// Tokenizer converts raw messages into ordered token sequences.
// It is safe for concurrent use; it holds no mutable state.
type Tokenizer struct {
	opts Options
}

// New creates a Tokenizer with the given options. Zero-valued options are
// replaced with defaults for the command prefix list only; boolean rules are
// taken as given so "case folding off" is expressible.
func New(opts Options) *Tokenizer {
	if opts.CommandPrefixes == nil {
		opts.CommandPrefixes = DefaultOptions().CommandPrefixes
	}
	return &Tokenizer{opts: opts}
}

// Tokenize splits a raw message into normalized tokens. Empty input yields an
// empty sequence, never an error. Whitespace runs collapse, zero-length tokens
// are dropped.
func (t *Tokenizer) Tokenize(raw string) []string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := t.Normalize(f)
		if tok == "" {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Normalize applies the per-token rules to a single word. Returns the empty
// string when nothing usable remains (pure punctuation, lone command prefix).
func (t *Tokenizer) Normalize(word string) string {
	tok := word
	if t.opts.StripPunctuation {
		tok = strings.TrimFunc(tok, unicode.IsPunct)
	}
	if t.opts.CaseFold {
		tok = strings.ToLower(tok)
	}
	for _, prefix := range t.opts.CommandPrefixes {
		if tok == prefix {
			return ""
		}
	}
	return tok
}

// Trainable returns the token sequence to feed into the trainer, or nil when
// the message should not be learned at all: command invocations and messages
// containing links.
func (t *Tokenizer) Trainable(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if t.IsCommand(trimmed) {
		return nil
	}
	if t.opts.SkipLinks && linkPattern.MatchString(trimmed) {
		return nil
	}
	return t.Tokenize(trimmed)
}

// ContainsLink reports whether the message contains link-like text.
func (t *Tokenizer) ContainsLink(raw string) bool {
	return linkPattern.MatchString(raw)
}

// IsCommand reports whether the message is a chat command rather than
// conversation. "/me" emotes are ordinary chat and exempted.
func (t *Tokenizer) IsCommand(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "/me") {
		return false
	}
	for _, prefix := range t.opts.CommandPrefixes {
		if prefix != "" && strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenize_Normalization(t *testing.T) {
	t.Parallel()

	tok := New(DefaultOptions())

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "hello world", []string{"hello", "world"}},
		{"case folding", "Hello WORLD", []string{"hello", "world"}},
		{"punctuation stripped", "hello!! ...world?", []string{"hello", "world"}},
		{"whitespace collapsed", "  hello \t  world \n", []string{"hello", "world"}},
		{"pure punctuation dropped", "hello !!! world", []string{"hello", "world"}},
		{"empty input", "", nil},
		{"only whitespace", "   \t ", nil},
		{"inner apostrophe kept", "don't stop", []string{"don't", "stop"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tok.Tokenize(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	t.Parallel()

	tok := New(DefaultOptions())
	input := "Some MIXED case!! input..."
	first := tok.Tokenize(input)
	for i := 0; i < 10; i++ {
		if got := tok.Tokenize(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("Tokenize not deterministic: %v vs %v", got, first)
		}
	}
}

func TestTokenize_CaseFoldDisabled(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.CaseFold = false
	tok := New(opts)

	got := tok.Tokenize("Hello World")
	want := []string{"Hello", "World"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTrainable_SkipsCommands(t *testing.T) {
	t.Parallel()

	tok := New(DefaultOptions())

	tests := []struct {
		name  string
		input string
		nilOK bool
	}{
		{"generate command", "!yap something", true},
		{"slash command", "/ban user", true},
		{"dot command", ".timeout user", true},
		{"me emote is chat", "/me waves hello", false},
		{"plain chat", "just a message", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Trainable(tt.input)
			if tt.nilOK && got != nil {
				t.Errorf("Trainable(%q) = %v, want nil", tt.input, got)
			}
			if !tt.nilOK && len(got) == 0 {
				t.Errorf("Trainable(%q) = empty, want tokens", tt.input)
			}
		})
	}
}

func TestTrainable_SkipsLinks(t *testing.T) {
	t.Parallel()

	tok := New(DefaultOptions())
	if got := tok.Trainable("check out example.com please"); got != nil {
		t.Errorf("Trainable with link = %v, want nil", got)
	}

	opts := DefaultOptions()
	opts.SkipLinks = false
	tok = New(opts)
	if got := tok.Trainable("check out example.com please"); len(got) == 0 {
		t.Errorf("Trainable with SkipLinks=false = empty, want tokens")
	}
}

func TestNormalize_Seed(t *testing.T) {
	t.Parallel()

	tok := New(DefaultOptions())
	if got := tok.Normalize("Hello!"); got != "hello" {
		t.Errorf("Normalize = %q, want hello", got)
	}
	if got := tok.Normalize("!"); got != "" {
		t.Errorf("Normalize lone prefix = %q, want empty", got)
	}
}

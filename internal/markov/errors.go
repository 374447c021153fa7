// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package markov

import (
	"errors"
	"fmt"
)

// ErrEmptyModel means generation was requested before any message was
// trained. Recoverable: the caller should report that training data is
// needed first.
var ErrEmptyModel = errors.New("model has no start words yet")

// UnknownStartWordError means a caller-supplied seed was never observed as
// the first word of a message. It carries the rejected word so the caller
// can report it.
type UnknownStartWordError struct {
	Word string
}

func (e *UnknownStartWordError) Error() string {
	return fmt.Sprintf("%q has not been seen starting a message yet", e.Word)
}

// IsUnknownStartWord reports whether err is an UnknownStartWordError,
// returning the rejected word when it is.
func IsUnknownStartWord(err error) (string, bool) {
	var u *UnknownStartWordError
	if errors.As(err, &u) {
		return u.Word, true
	}
	return "", false
}

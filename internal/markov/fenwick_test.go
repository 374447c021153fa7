// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package markov

import "testing"

func TestFenwickTree_AppendAndTotal(t *testing.T) {
	t.Parallel()

	ft := newFenwickTree()
	if got := ft.Total(); got != 0 {
		t.Errorf("Total() on empty tree = %d, want 0", got)
	}

	weights := []int64{5, 1, 0, 7, 2}
	for i, w := range weights {
		idx := ft.Append()
		if idx != i {
			t.Fatalf("Append() returned index %d, want %d", idx, i)
		}
		ft.Update(idx, w)
	}

	if got := ft.Total(); got != 15 {
		t.Errorf("Total() = %d, want 15", got)
	}
}

func TestFenwickTree_FindPrefix(t *testing.T) {
	t.Parallel()

	ft := newFenwickTree()
	weights := []int64{5, 1, 0, 7, 2} // cumulative: 5, 6, 6, 13, 15
	for i, w := range weights {
		ft.Append()
		ft.Update(i, w)
	}

	tests := []struct {
		target int64
		want   int
	}{
		{0, 0},
		{4, 0},
		{5, 1},
		{6, 3}, // zero-weight bucket 2 is skipped
		{12, 3},
		{13, 4},
		{14, 4},
	}

	for _, tt := range tests {
		if got := ft.FindPrefix(tt.target); got != tt.want {
			t.Errorf("FindPrefix(%d) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestFenwickTree_UpdateAfterAppend(t *testing.T) {
	t.Parallel()

	ft := newFenwickTree()

	// Interleave appends and updates to exercise online extension.
	for i := 0; i < 100; i++ {
		ft.Append()
		ft.Update(i, int64(i+1))
	}
	// Sum 1..100
	if got := ft.Total(); got != 5050 {
		t.Errorf("Total() = %d, want 5050", got)
	}

	ft.Update(49, -50) // zero out bucket 49
	if got := ft.Total(); got != 5000 {
		t.Errorf("Total() after decrement = %d, want 5000", got)
	}

	// target just below the zeroed bucket's old range must skip past it
	var cum int64
	for i := 0; i < 49; i++ {
		cum += int64(i + 1)
	}
	if got := ft.FindPrefix(cum); got != 50 {
		t.Errorf("FindPrefix(%d) = %d, want 50 (bucket 49 zeroed)", cum, got)
	}
}

// Yapcore - Chat-Trained Markov Text Generation Service
// Copyright 2026 Yapbot Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yapbot/yapcore

package markov

// fenwickTree (Binary Indexed Tree) maintains cumulative weights over the
// start-word index so frequency-proportional sampling is O(log n) per draw
// and per update, instead of a linear scan over every start word.
//
// Buckets are appended as new start words are observed; counts change on
// train and unlearn. The tree carries no lock of its own: the Store's lock
// covers all access.
type fenwickTree struct {
	tree []int64 // 1-indexed for cleaner bit manipulation
	n    int
}

func newFenwickTree() *fenwickTree {
	return &fenwickTree{tree: make([]int64, 1)}
}

// Append adds one bucket with weight zero and returns its 0-based index.
func (ft *fenwickTree) Append() int {
	ft.n++
	i := ft.n
	low := i & (-i)

	// The new node covers buckets (i-low, i]; all but the new one already
	// have sums recorded in lower nodes.
	var sum int64
	for j := i - 1; j > i-low; j -= j & (-j) {
		sum += ft.tree[j]
	}
	ft.tree = append(ft.tree, sum)
	return i - 1
}

// Update adds delta to the weight of bucket i (0-indexed).
func (ft *fenwickTree) Update(i int, delta int64) {
	if i < 0 || i >= ft.n {
		return
	}
	for j := i + 1; j <= ft.n; j += j & (-j) {
		ft.tree[j] += delta
	}
}

// Total returns the sum of all weights.
func (ft *fenwickTree) Total() int64 {
	var sum int64
	for j := ft.n; j > 0; j -= j & (-j) {
		sum += ft.tree[j]
	}
	return sum
}

// FindPrefix returns the 0-based index of the first bucket whose cumulative
// weight exceeds target. With target drawn uniformly from [0, Total()), this
// selects bucket i with probability weight(i)/Total(); zero-weight buckets
// are never selected.
func (ft *fenwickTree) FindPrefix(target int64) int {
	idx := 0
	bit := 1
	for bit<<1 <= ft.n {
		bit <<= 1
	}
	for ; bit > 0; bit >>= 1 {
		next := idx + bit
		if next <= ft.n && ft.tree[next] <= target {
			idx = next
			target -= ft.tree[next]
		}
	}
	return idx
}

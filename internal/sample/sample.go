// Package sample implements uniform random sampling and the fixed-size GTD
// summary. Sampling exists for "sample before full dump" ergonomics: an LLM
// caller reviews a manageable batch instead of flooding its context.
package sample

import (
	"fmt"
	"math/rand/v2"
)

// Random returns a uniform random subset of size min(k, len(items)) drawn
// without replacement. Randomness is fresh on every call; two successive
// calls are free to return different subsets.
func Random[T any](items []T, k int) []T {
	if k <= 0 {
		return nil
	}
	if len(items) <= k {
		return items
	}
	// Partial Fisher-Yates over a copy: the first k slots end up a uniform
	// k-subset.
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	for i := 0; i < k; i++ {
		j := i + rand.IntN(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:k]
}

// Header renders the population-size header that accompanies every sample,
// e.g. "Random 5 of 123 inbox items:".
func Header(shown, total int, kind string) string {
	return fmt.Sprintf("Random %d of %d %s:", shown, total, kind)
}

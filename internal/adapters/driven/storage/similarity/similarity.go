// Package similarity provides brute-force vector scoring shared by the
// embedded vector stores.
package similarity

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Vectors of different length or with zero magnitude score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopK returns the indexes of the k highest scores in descending order.
// Ties keep their original order so results are deterministic.
func TopK(scores []float64, k int) []int {
	idxs := make([]int, len(scores))
	for i := range scores {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		return scores[idxs[i]] > scores[idxs[j]]
	})
	if k < 0 {
		k = 0
	}
	if k < len(idxs) {
		idxs = idxs[:k]
	}
	return idxs
}

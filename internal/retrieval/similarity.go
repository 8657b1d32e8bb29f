// Package retrieval ranks stored chunks against a query vector by cosine
// similarity with an exact linear scan.
package retrieval

import "math"

// Cosine returns the cosine similarity of a and b in [-1, 1].
//
// Degenerate inputs (different lengths, empty or zero vectors, NaN or
// infinite components) score exactly 0, so one bad record cannot break a
// ranking over the whole store.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
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

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0
	}
	// Rounding can push parallel vectors a hair past ±1.
	return math.Max(-1, math.Min(1, sim))
}

// Package similarity scores and ranks candidate books against an original
// using cosine similarity over lexical fingerprints.
package similarity

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/bookmatch/internal/domain"
)

// Cosine computes the cosine similarity of two vectors, in [-1, 1].
// Vectors of different lengths yield domain.ErrDimensionMismatch. A
// zero-magnitude operand yields 0 rather than NaN.
func Cosine(a, b domain.FeatureVector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine: %d vs %d dims: %w", len(a), len(b), domain.ErrDimensionMismatch)
	}

	var dot, sumA, sumB float64
	for i := range a {
		dot += a[i] * b[i]
		sumA += a[i] * a[i]
		sumB += b[i] * b[i]
	}

	magA := math.Sqrt(sumA)
	magB := math.Sqrt(sumB)
	if magA == 0 || magB == 0 {
		return 0, nil
	}

	return dot / (magA * magB), nil
}

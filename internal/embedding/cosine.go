package embedding

import (
	"fmt"
	"math"

	"semsearch/internal/document"
)

// CosineSimilarity returns dot(a,b) / (|a|*|b|). The result is nominally in
// [-1,1]; typical text embeddings land in [0,1]. A zero-norm input yields 0
// rather than NaN.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", document.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

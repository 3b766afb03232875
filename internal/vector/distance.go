// Package vector implements the numeric comparison between face embeddings.
package vector

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// Euclidean returns the L2 distance between two embeddings of equal
// length. Deterministic, symmetric and non-negative. Embeddings of
// different lengths cannot belong to the same model and are an error,
// never a silent zero.
func Euclidean(a, b domain.Embedding) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("euclidean distance: empty embedding")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("euclidean distance: dimension mismatch %d != %d", len(a), len(b))
	}
	return floats.Distance(a, b, 2), nil
}

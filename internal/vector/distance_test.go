package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

func TestEuclidean(t *testing.T) {
	t.Run("known distance", func(t *testing.T) {
		a := domain.Embedding{0, 0, 0}
		b := domain.Embedding{3, 4, 0}

		d, err := Euclidean(a, b)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, d, 1e-9)
	})

	t.Run("identical embeddings are at distance zero", func(t *testing.T) {
		a := domain.Embedding{0.1, -0.2, 0.3}

		d, err := Euclidean(a, a)
		require.NoError(t, err)
		assert.Zero(t, d)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := domain.Embedding{0.5, -1.5, 2.0, 0.25}
		b := domain.Embedding{-0.5, 1.0, 0.0, 3.0}

		ab, err := Euclidean(a, b)
		require.NoError(t, err)
		ba, err := Euclidean(b, a)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	})

	t.Run("non-negative", func(t *testing.T) {
		a := domain.Embedding{-1, -2, -3}
		b := domain.Embedding{-4, -6, -3}

		d, err := Euclidean(a, b)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d, 0.0)
	})

	t.Run("dimension mismatch is an error", func(t *testing.T) {
		_, err := Euclidean(domain.Embedding{1, 2}, domain.Embedding{1, 2, 3})
		assert.Error(t, err)
	})

	t.Run("empty embedding is an error", func(t *testing.T) {
		_, err := Euclidean(domain.Embedding{}, domain.Embedding{})
		assert.Error(t, err)
	})
}

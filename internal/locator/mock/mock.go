// Package mock provides a deterministic locator for tests and local
// development, so the engine can run without a recognition service.
package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"image"
	"math"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/locator"
)

// minFaceSize is the smallest frame dimension in which the mock will
// "find" a face. Smaller frames simulate a no-face frame in tests.
const minFaceSize = 64

// Locator implements locator.Locator with embeddings derived from the
// frame's pixels: the same frame always yields the same embedding.
type Locator struct{}

// New creates a new mock locator.
func New() *Locator {
	return &Locator{}
}

// Locate returns a single detection covering most of the frame, or
// nothing when the frame is too small to hold a face.
func (l *Locator) Locate(ctx context.Context, frame image.Image) ([]locator.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := frame.Bounds()
	if b.Dx() < minFaceSize || b.Dy() < minFaceSize {
		return nil, nil
	}

	margin := b.Dx() / 10
	box := locator.Box{
		Top:    b.Min.Y + margin,
		Right:  b.Max.X - margin,
		Bottom: b.Max.Y - margin,
		Left:   b.Min.X + margin,
	}

	return []locator.Detection{
		{Box: box, Embedding: embeddingFor(frame)},
	}, nil
}

// embeddingFor derives a unit-length embedding from a hash of the
// frame's pixels.
func embeddingFor(frame image.Image) domain.Embedding {
	h := sha256.New()
	b := frame.Bounds()
	var px [8]byte
	for y := b.Min.Y; y < b.Max.Y; y += 8 {
		for x := b.Min.X; x < b.Max.X; x += 8 {
			r, g, bl, _ := frame.At(x, y).RGBA()
			binary.BigEndian.PutUint16(px[0:2], uint16(r))
			binary.BigEndian.PutUint16(px[2:4], uint16(g))
			binary.BigEndian.PutUint16(px[4:6], uint16(bl))
			h.Write(px[:6])
		}
	}
	sum := h.Sum(nil)

	embedding := make(domain.Embedding, domain.EmbeddingDim)
	for i := range embedding {
		embedding[i] = (float64(sum[i%len(sum)])/255.0)*2 - 1
	}

	var norm float64
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

var _ locator.Locator = (*Locator)(nil)

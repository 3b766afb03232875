// Package store defines the persistent roll-number to face-reference
// mapping used as the source of truth for verification.
package store

import (
	"context"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// ReferenceStore holds at most one reference embedding per roll number.
// Implementations must serialize mutations: the check-insert-persist
// sequence behind Insert is atomic, and a successful Insert has been
// durably persisted before it returns. Reads may proceed concurrently.
type ReferenceStore interface {
	// Get returns the stored reference for a roll number, or
	// domain.ErrNotEnrolled when there is none.
	Get(ctx context.Context, rollNumber string) (domain.Embedding, error)

	// Insert stores a new reference. It never overwrites: an existing
	// entry makes it fail with domain.ErrAlreadyEnrolled.
	Insert(ctx context.Context, rollNumber string, embedding domain.Embedding) error

	// Len returns the number of enrolled roll numbers.
	Len(ctx context.Context) (int, error)

	Close() error
}

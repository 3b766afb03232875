// Package jsonfile persists face references as a single JSON document
// on disk: roll numbers as object keys, embeddings as float arrays.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/renameio"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/store"
)

// Store keeps the whole mapping in memory and rewrites the file on
// every mutation. Mutations are serialized by a write lock and flushed
// before Insert returns; reads take a shared lock and see a consistent
// snapshot.
type Store struct {
	mu     sync.RWMutex
	path   string
	refs   map[string]domain.Embedding
	logger *slog.Logger
}

// Open loads the store file. A missing file is the expected first-run
// state and yields an empty store. A corrupt file also degrades to an
// empty store, with a warning: the alternative is refusing every
// verification until someone repairs the file by hand.
func Open(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		refs:   make(map[string]domain.Embedding),
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Debug("reference store not found, starting empty", slog.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read reference store: %w", err)
	}

	if err := json.Unmarshal(data, &s.refs); err != nil {
		logger.Warn("reference store is corrupt, starting empty",
			slog.String("path", path),
			slog.Any("error", err),
		)
		s.refs = make(map[string]domain.Embedding)
	}

	return s, nil
}

func (s *Store) Get(ctx context.Context, rollNumber string) (domain.Embedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, ok := s.refs[rollNumber]
	if !ok {
		return nil, domain.ErrNotEnrolled
	}
	return append(domain.Embedding(nil), ref...), nil
}

func (s *Store) Insert(ctx context.Context, rollNumber string, embedding domain.Embedding) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.refs[rollNumber]; ok {
		return domain.ErrAlreadyEnrolled
	}

	s.refs[rollNumber] = append(domain.Embedding(nil), embedding...)
	if err := s.save(); err != nil {
		// The insert is only real once it is on disk.
		delete(s.refs, rollNumber)
		return domain.ErrStoreUnavailable.WithError(err)
	}

	return nil
}

func (s *Store) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.refs), nil
}

func (s *Store) Close() error {
	// Every mutation is flushed synchronously, nothing to do here.
	return nil
}

// save rewrites the whole document atomically (write to a temp file,
// then rename) so a concurrent reader or a crash never observes a
// truncated store.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.refs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reference store: %w", err)
	}

	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write reference store: %w", err)
	}

	return nil
}

var _ store.ReferenceStore = (*Store)(nil)

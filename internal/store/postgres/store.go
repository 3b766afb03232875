// Package postgres backs the reference store with pgvector, for
// deployments where a JSON file on disk is no longer enough.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/store"
)

// DB interface for database operations (compatible with pgxpool.Pool and pgxmock)
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

type Store struct {
	db   DB
	pool *pgxpool.Pool
}

// Open connects a pooled store. The face_references table must exist
// (cmd/migrate).
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect reference store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping reference store: %w", err)
	}

	return &Store{db: pool, pool: pool}, nil
}

// NewWithDB wires a custom DB implementation, used by tests.
func NewWithDB(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, rollNumber string) (domain.Embedding, error) {
	query := `
		SELECT embedding
		FROM face_references
		WHERE roll_number = $1
	`

	var vec pgvector.Vector
	err := s.db.QueryRow(ctx, query, rollNumber).Scan(&vec)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotEnrolled
	}
	if err != nil {
		return nil, domain.ErrStoreUnavailable.WithError(fmt.Errorf("get reference: %w", err))
	}

	slice := vec.Slice()
	embedding := make(domain.Embedding, len(slice))
	for i, v := range slice {
		embedding[i] = float64(v)
	}

	return embedding, nil
}

func (s *Store) Insert(ctx context.Context, rollNumber string, embedding domain.Embedding) error {
	query := `
		INSERT INTO face_references (roll_number, embedding)
		VALUES ($1, $2)
		ON CONFLICT (roll_number) DO NOTHING
	`

	floats := make([]float32, len(embedding))
	for i, v := range embedding {
		floats[i] = float32(v)
	}

	tag, err := s.db.Exec(ctx, query, rollNumber, pgvector.NewVector(floats))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyEnrolled
		}
		return domain.ErrStoreUnavailable.WithError(fmt.Errorf("insert reference: %w", err))
	}

	// ON CONFLICT DO NOTHING reports zero rows when someone else won
	// the enrollment race.
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyEnrolled
	}

	return nil
}

func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM face_references`).Scan(&n); err != nil {
		return 0, domain.ErrStoreUnavailable.WithError(fmt.Errorf("count references: %w", err))
	}
	return n, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// isUniqueViolation checks if the error is a unique constraint violation
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "23505") ||
		strings.Contains(errMsg, "unique") ||
		strings.Contains(errMsg, "duplicate key")
}

var _ store.ReferenceStore = (*Store)(nil)

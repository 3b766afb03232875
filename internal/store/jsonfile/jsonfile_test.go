package jsonfile

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func embedding(v float64) domain.Embedding {
	e := make(domain.Embedding, domain.EmbeddingDim)
	e[0] = v
	return e
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face_data.json")

	s, err := Open(path, testLogger())
	require.NoError(t, err)

	n, err := s.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Get(context.Background(), "123456789")
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)
}

func TestOpenCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face_data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := Open(path, testLogger())
	require.NoError(t, err)

	n, err := s.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInsertPersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face_data.json")
	ctx := context.Background()

	s, err := Open(path, testLogger())
	require.NoError(t, err)

	ref := embedding(0.5)
	require.NoError(t, s.Insert(ctx, "123456789", ref))

	// A fresh store sees the entry: the insert hit the disk before
	// returning.
	reloaded, err := Open(path, testLogger())
	require.NoError(t, err)

	got, err := reloaded.Get(ctx, "123456789")
	require.NoError(t, err)
	assert.Equal(t, ref, got)
}

func TestInsertNeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face_data.json")
	ctx := context.Background()

	s, err := Open(path, testLogger())
	require.NoError(t, err)

	first := embedding(1)
	require.NoError(t, s.Insert(ctx, "123456789", first))

	err = s.Insert(ctx, "123456789", embedding(2))
	assert.ErrorIs(t, err, domain.ErrAlreadyEnrolled)

	got, err := s.Get(ctx, "123456789")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestGetReturnsACopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face_data.json")
	ctx := context.Background()

	s, err := Open(path, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, "123456789", embedding(1)))

	got, err := s.Get(ctx, "123456789")
	require.NoError(t, err)
	got[0] = 99

	again, err := s.Get(ctx, "123456789")
	require.NoError(t, err)
	assert.Equal(t, 1.0, again[0])
}

func TestFileFormatIsRollToFloatArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face_data.json")
	ctx := context.Background()

	s, err := Open(path, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, "123456789", domain.Embedding{0.25, -0.5}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string][]float64
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []float64{0.25, -0.5}, doc["123456789"])
}

func TestConcurrentEnrollmentsAllSurvive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face_data.json")
	ctx := context.Background()

	s, err := Open(path, testLogger())
	require.NoError(t, err)

	rolls := []string{"111111111", "222222222", "333333333", "444444444", "555555555"}

	var wg sync.WaitGroup
	for i, roll := range rolls {
		wg.Add(1)
		go func(i int, roll string) {
			defer wg.Done()
			assert.NoError(t, s.Insert(ctx, roll, embedding(float64(i))))
		}(i, roll)
	}
	wg.Wait()

	reloaded, err := Open(path, testLogger())
	require.NoError(t, err)
	n, err := reloaded.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(rolls), n)
}

func TestInsertFailureLeavesStoreUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "face_data.json")
	ctx := context.Background()

	s, err := Open(path, testLogger())
	require.NoError(t, err)

	// Remove the directory out from under the store so the save fails.
	require.NoError(t, os.RemoveAll(dir))

	err = s.Insert(ctx, "123456789", embedding(1))
	require.Error(t, err)

	_, err = s.Get(ctx, "123456789")
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)
}

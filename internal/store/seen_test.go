package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobalert-engine/internal/domain"
)

var t0 = time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen.json")

	s := NewSeen(NewFileBackend(path))
	info, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, info.FirstRun)
	assert.Zero(t, info.Keys)

	assert.Equal(t, 2, s.Merge([]domain.JobKey{"a", "b", "a"}, t0))
	require.NoError(t, s.Persist(ctx))

	again := NewSeen(NewFileBackend(path))
	info, err = again.Load(ctx)
	require.NoError(t, err)
	assert.False(t, info.FirstRun)
	assert.Equal(t, 2, info.Keys)
	assert.True(t, again.Contains("a"))
	assert.True(t, again.Contains("b"))
	assert.False(t, again.Contains("c"))
}

func TestPersistWithoutLoad(t *testing.T) {
	s := NewSeen(NewFileBackend(filepath.Join(t.TempDir(), "seen.json")))
	assert.ErrorIs(t, s.Persist(context.Background()), ErrNotLoaded)
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": "2026-`), 0o644))

	s := NewSeen(NewFileBackend(path))
	info, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, info.Corrupt)
	assert.Zero(t, s.Len())

	s.Merge([]domain.JobKey{"x"}, t0)
	require.NoError(t, s.Persist(ctx))

	snap, err := NewFileBackend(path).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap, 1)

	// the unreadable snapshot is kept aside
	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, `{"a": "2026-`, string(bak))
}

func TestEmptyFileIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewFileBackend(path).Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLegacyArrayFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen.json")
	require.NoError(t, os.WriteFile(path, []byte(`["k1", "k2"]`), 0o644))

	s := NewSeen(NewFileBackend(path))
	info, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Keys)
	assert.True(t, s.Contains("k1"))

	// rewritten in the object format on persist
	require.NoError(t, s.Persist(ctx))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"k1":`)
}

func TestLeftoverTempFileIgnored(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "seen.json")

	s := NewSeen(NewFileBackend(path))
	_, err := s.Load(ctx)
	require.NoError(t, err)
	s.Merge([]domain.JobKey{"a"}, t0)
	require.NoError(t, s.Persist(ctx))

	// a crash between temp write and rename leaves a partial temp file
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seen.json.tmp-123"), []byte(`{"half`), 0o644))

	again := NewSeen(NewFileBackend(path))
	info, err := again.Load(ctx)
	require.NoError(t, err)
	assert.False(t, info.Corrupt)
	assert.Equal(t, 1, info.Keys)
}

func TestPersistKeepsKeysWrittenConcurrently(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen.json")

	a := NewSeen(NewFileBackend(path))
	_, err := a.Load(ctx)
	require.NoError(t, err)

	b := NewSeen(NewFileBackend(path))
	_, err = b.Load(ctx)
	require.NoError(t, err)
	b.Merge([]domain.JobKey{"from-b"}, t0)
	require.NoError(t, b.Persist(ctx))

	a.Merge([]domain.JobKey{"from-a"}, t0)
	require.NoError(t, a.Persist(ctx))

	snap, err := NewFileBackend(path).Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, snap, domain.JobKey("from-a"))
	assert.Contains(t, snap, domain.JobKey("from-b"))
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen.json")
	require.NoError(t, os.WriteFile(path, []byte(`["legacy"]`), 0o644))

	s := NewSeen(NewFileBackend(path))
	_, err := s.Load(ctx)
	require.NoError(t, err)
	s.Merge([]domain.JobKey{"old"}, t0.Add(-200*24*time.Hour))
	s.Merge([]domain.JobKey{"new"}, t0)

	removed, err := s.Prune(ctx, t0.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	snap, err := NewFileBackend(path).Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, snap, domain.JobKey("old"))
	assert.Contains(t, snap, domain.JobKey("new"))
	assert.Contains(t, snap, domain.JobKey("legacy"))
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen.db")

	b, err := OpenBackend("sqlite", path)
	require.NoError(t, err)
	s := NewSeen(b)
	info, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, info.FirstRun)

	s.Merge([]domain.JobKey{"a", "b"}, t0)
	require.NoError(t, s.Persist(ctx))
	require.NoError(t, s.Close())

	b2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer b2.Close()
	snap, err := b2.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap, 2)
	assert.True(t, snap["a"].Equal(t0))
}

func TestOpenBackendUnknownDriver(t *testing.T) {
	_, err := OpenBackend("redis", "x")
	assert.Error(t, err)
}

func TestLeaseContention(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen.json")

	first := NewLease(path, 0)
	require.NoError(t, first.Acquire(ctx))

	second := NewLease(path, 300*time.Millisecond)
	assert.ErrorIs(t, second.Acquire(ctx), ErrLeaseHeld)

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire(ctx))
	require.NoError(t, second.Release())
}

func TestSQLiteReopenKeepsSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.db")
	for i := 0; i < 2; i++ {
		b, err := OpenSQLite(path)
		require.NoError(t, err)
		var v int
		require.NoError(t, b.db.QueryRow(`PRAGMA user_version`).Scan(&v))
		assert.Equal(t, len(migrations), v)
		require.NoError(t, b.Close())
	}
}

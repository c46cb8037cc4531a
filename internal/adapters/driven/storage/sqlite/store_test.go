package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/concierge/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

var baseTime = time.Date(2026, 3, 14, 9, 0, 0, 123456789, time.UTC)

func testRun(id string, offset time.Duration, success bool) domain.ReindexRun {
	run := domain.ReindexRun{
		ID:                id,
		Trigger:           domain.TriggerChange,
		StartedAt:         baseTime.Add(offset),
		EndedAt:           baseTime.Add(offset + 1500*time.Millisecond),
		ChunkCount:        12,
		Success:           success,
		CorpusFingerprint: "fp-" + id,
	}
	if !success {
		run.ChunkCount = 0
		run.Error = "embed chunk 3: ollama error (status 500): boom"
	}
	return run
}

func TestNewStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "history.db"), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_EmptyDir(t *testing.T) {
	_, err := NewStore("")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewStore_ReopenKeepsRuns(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Record(ctx, testRun("01A", 0, true)))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	runs, err := second.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "01A", runs[0].ID)

	var versions int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions, "migrations must not be re-applied")
}

func TestStore_RecordRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ok := testRun("01A", 0, true)
	failed := testRun("01B", time.Minute, false)
	require.NoError(t, store.Record(ctx, ok))
	require.NoError(t, store.Record(ctx, failed))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, failed, runs[0])
	assert.Equal(t, ok, runs[1])
	assert.Equal(t, 1500*time.Millisecond, runs[1].Duration())
}

func TestStore_RecordZeroTimes(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run := domain.ReindexRun{ID: "01Z", Trigger: domain.TriggerManual}
	require.NoError(t, store.Record(ctx, run))

	runs, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].StartedAt.IsZero())
	assert.True(t, runs[0].EndedAt.IsZero())
}

func TestStore_RecordRequiresID(t *testing.T) {
	store := setupTestStore(t)

	err := store.Record(context.Background(), domain.ReindexRun{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_RecordOverwrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run := testRun("01A", 0, false)
	require.NoError(t, store.Record(ctx, run))
	run.Success = true
	run.Error = ""
	run.ChunkCount = 7
	require.NoError(t, store.Record(ctx, run))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Success)
	assert.Equal(t, 7, runs[0].ChunkCount)
}

func TestStore_LatestSuccessful(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.LatestSuccessful(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Record(ctx, testRun("01A", 0, true)))
	require.NoError(t, store.Record(ctx, testRun("01B", time.Minute, true)))
	require.NoError(t, store.Record(ctx, testRun("01C", 2*time.Minute, false)))

	latest, err := store.LatestSuccessful(ctx)
	require.NoError(t, err)
	assert.Equal(t, "01B", latest.ID)
	assert.Equal(t, "fp-01B", latest.CorpusFingerprint)
}

func TestStore_ListLimitAndOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("01%c", 'A'+i)
		require.NoError(t, store.Record(ctx, testRun(id, time.Duration(i)*time.Second, true)))
	}

	runs, err := store.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"01E", "01D", "01C"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	all, err := store.List(ctx, -1)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestStore_ListEmpty(t *testing.T) {
	store := setupTestStore(t)

	runs, err := store.List(context.Background(), 10)

	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestStore_SameStartOrdersByID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, testRun("01A", 0, true)))
	require.NoError(t, store.Record(ctx, testRun("01B", 0, true)))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "01B", runs[0].ID)
}

func TestStore_ConcurrentRecord(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Record(ctx, testRun(fmt.Sprintf("run-%02d", i), time.Duration(i)*time.Second, true)))
		}(i)
	}
	wg.Wait()

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 10)
}

func TestStore_CanceledContext(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.List(ctx, 1)

	assert.Error(t, err)
}

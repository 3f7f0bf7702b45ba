package taskstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskstore/internal/jsonl"
)

// touchFuture bumps a log's mtime past the recorded sync point. Mtime
// comparison is in whole seconds, so tests push the clock instead of
// sleeping across a boundary.
func touchFuture(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(5 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
}

func TestIsStale_FreshStoreIsCurrent(t *testing.T) {
	s, _ := openTestStore(t)
	seedTasks(t, s)
	require.NoError(t, s.Sync(context.Background()))

	stale, err := s.IsStale(context.Background())
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestIsStale_ExternalAppendIsDetected(t *testing.T) {
	s, _ := openTestStore(t)
	seedTasks(t, s)
	ctx := context.Background()
	require.NoError(t, s.Sync(ctx))

	line := []byte(`{"id":"ext","status":"pending","updated_at":9000}`)
	require.NoError(t, jsonl.Append(s.logPath("tasks"), line))
	touchFuture(t, s.logPath("tasks"))

	stale, err := s.IsStale(ctx)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestIsStale_UnknownLogIsStale(t *testing.T) {
	s, dir := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Sync(ctx))

	// A log dropped in by a git checkout that the cache has never seen.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.jsonl"),
		[]byte(`{"id":"n1","updated_at":1000}`+"\n"), 0o644))

	stale, err := s.IsStale(ctx)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestSync_RebuildsCacheFromLogs(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	ctx := context.Background()
	seedTasks(t, s)
	require.NoError(t, s.Close())

	// Blow away the cache entirely; the logs are the source of truth.
	for _, name := range []string{"store.db", "store.db-wal", "store.db-shm"} {
		os.Remove(filepath.Join(dir, name))
	}

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	rows, err := s2.ListRaw(ctx, "tasks", nil, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestSync_PicksUpExternalWrites(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	seedTasks(t, s)

	line := []byte(`{"id":"t1","status":"superseded","priority":1,"done":false,"updated_at":9000}`)
	require.NoError(t, jsonl.Append(s.logPath("tasks"), line))
	require.NoError(t, s.Sync(ctx))

	got, found, err := Get[task](ctx, s, "t1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "superseded", got.Status)
	assert.Equal(t, int64(9000), got.UpdatedAtMS)
}

func TestSync_DropsTombstonedRecords(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	seedTasks(t, s)
	require.NoError(t, Delete[task](ctx, s, "t2"))

	require.NoError(t, s.Sync(ctx))

	_, found, err := Get[task](ctx, s, "t2")
	require.NoError(t, err)
	assert.False(t, found)

	rows, err := s.ListRaw(ctx, "tasks", nil, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestSync_IsIdempotent(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	seedTasks(t, s)

	require.NoError(t, s.Sync(ctx))
	first, err := s.ListRaw(ctx, "tasks", nil, ListOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Sync(ctx))
	second, err := s.ListRaw(ctx, "tasks", nil, ListOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSync_PrunesVanishedCollections(t *testing.T) {
	s, dir := openTestStore(t)
	ctx := context.Background()
	seedTasks(t, s)
	require.NoError(t, s.Sync(ctx))

	require.NoError(t, os.Remove(filepath.Join(dir, "tasks.jsonl")))
	require.NoError(t, s.Sync(ctx))

	rows, err := s.ListRaw(ctx, "tasks", nil, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	stale, err := s.IsStale(ctx)
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestRebuildIndexes_RestoresFiltering(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	seedTasks(t, s)

	// Sync drops the index rows along with the records it replaces.
	require.NoError(t, s.Sync(ctx))
	got, err := List[task](ctx, s, []Filter{{Field: "status", Op: Eq, Value: Text("pending")}}, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)

	count, err := RebuildIndexes[task](ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	got, err = List[task](ctx, s, []Filter{{Field: "status", Op: Eq, Value: Text("pending")}}, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t4"}, ids(got))
}

func TestRebuildIndexes_IsIdempotent(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	seedTasks(t, s)

	first, err := RebuildIndexes[task](ctx, s)
	require.NoError(t, err)
	second, err := RebuildIndexes[task](ctx, s)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	got, err := List[task](ctx, s, []Filter{{Field: "done", Op: Eq, Value: Bool(true)}}, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, ids(got))
}

func TestCompact_CollapsesLogAndPreservesReads(t *testing.T) {
	s, dir := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, Create(ctx, s, task{TaskID: "t1", Status: "pending", UpdatedAtMS: 1000}))
	require.NoError(t, Update(ctx, s, task{TaskID: "t1", Status: "active", UpdatedAtMS: 2000}))
	require.NoError(t, Update(ctx, s, task{TaskID: "t1", Status: "done", UpdatedAtMS: 3000}))
	require.NoError(t, Create(ctx, s, task{TaskID: "t2", Status: "pending", UpdatedAtMS: 1500}))
	require.NoError(t, Delete[task](ctx, s, "t2"))

	require.NoError(t, s.Compact(ctx, "tasks"))

	// One line per identity, tombstone included.
	lines := logLines(t, dir, "tasks")
	assert.Len(t, lines, 2)

	got, found, err := Get[task](ctx, s, "t1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "done", got.Status)

	// Compaction must not mark the store stale.
	stale, err := s.IsStale(ctx)
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestCompact_MissingCollectionIsNoop(t *testing.T) {
	s, _ := openTestStore(t)
	assert.NoError(t, s.Compact(context.Background(), "nothing_here"))
}

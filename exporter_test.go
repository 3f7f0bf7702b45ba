package taskstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskstore/internal/jsonl"
)

func openExportingStore(t *testing.T, debounceMS int) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), WithConfig(Config{DebounceMS: debounceMS, AutoExport: true}))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExporter_SyncsAfterQuietPeriod(t *testing.T) {
	s := openExportingStore(t, 20)
	ctx := context.Background()

	require.NoError(t, Create(ctx, s, task{TaskID: "t1", Status: "pending", UpdatedAtMS: 1000}))

	// An external write the cache has not seen; the debounced run from the
	// Create above should pick it up.
	line := []byte(`{"id":"ext","status":"pending","priority":0,"done":false,"updated_at":2000}`)
	require.NoError(t, jsonl.Append(s.logPath("tasks"), line))
	touchFuture(t, s.logPath("tasks"))
	s.notifyExporter()

	require.Eventually(t, func() bool {
		_, found, err := Get[task](ctx, s, "ext")
		return err == nil && found
	}, 2*time.Second, 10*time.Millisecond)
}

func TestExporter_DisabledByZeroDebounce(t *testing.T) {
	s := openExportingStore(t, 0)
	assert.Nil(t, s.exporter)

	// Flush with no exporter is a no-op.
	assert.NoError(t, s.Flush(context.Background()))
}

func TestFlush_RunsImmediately(t *testing.T) {
	s := openExportingStore(t, 60_000)
	ctx := context.Background()

	line := []byte(`{"id":"ext","status":"pending","priority":0,"done":false,"updated_at":2000}`)
	require.NoError(t, jsonl.Append(s.logPath("tasks"), line))
	touchFuture(t, s.logPath("tasks"))
	s.notifyExporter()

	// The hour-long debounce would never fire in a test; Flush must not wait.
	require.NoError(t, s.Flush(ctx))
	_, found, err := Get[task](ctx, s, "ext")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestExporter_StopIsIdempotent(t *testing.T) {
	s := openExportingStore(t, 1000)
	s.exporter.stop()
	s.exporter.stop()
	s.exporter.notify() // must not panic after stop
}

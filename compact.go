package taskstore

import (
	"context"

	"github.com/roach88/taskstore/internal/jsonl"
)

// Compact rewrites a collection's log to one line per identity, keeping the
// retained revision of each and every tombstone, sorted by id. The rewrite
// happens under the log's exclusive lock and replaces the file atomically.
// The cache is untouched: compaction preserves the fold, so the projection
// already matches.
func (s *Store) Compact(ctx context.Context, collection string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := jsonl.Compact(s.logPath(collection)); err != nil {
		return newError(ErrCodeIO, collection, "", "compact log", err)
	}
	compactionsTotal.WithLabelValues(collection).Inc()

	// The rewrite bumps the file mtime; refresh the metadata so the next
	// staleness probe does not mistake compaction for new writes.
	mtime, exists, err := jsonl.Mtime(s.logPath(collection))
	if err != nil {
		return newError(ErrCodeIO, collection, "", "stat compacted log", err)
	}
	if exists {
		if err := recordSyncMetadata(ctx, s.db, collection, mtime, NowMS()); err != nil {
			return newError(ErrCodeCache, collection, "", "record sync metadata", err)
		}
	}
	return nil
}

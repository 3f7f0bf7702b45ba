package taskstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/taskstore/internal/jsonl"
)

// Create appends a new revision of rec to its collection log and mirrors it
// into the cache. The log append is the commit point: if the cache update
// fails afterward, the error carries the cache code and the next Sync
// reconciles the row.
func Create[T Record](ctx context.Context, s *Store, rec T) error {
	return appendRecord(ctx, s, rec)
}

// Update appends a new revision of rec. Identical to Create on the wire; the
// log is append-only and revisions compete on updated_at, so creating and
// updating are the same operation with different intent.
func Update[T Record](ctx context.Context, s *Store, rec T) error {
	return appendRecord(ctx, s, rec)
}

func appendRecord[T Record](ctx context.Context, s *Store, rec T) error {
	collection := rec.CollectionName()
	if err := validateCollection(collection); err != nil {
		return err
	}
	id := rec.ID()
	if err := validateIdentity(collection, id); err != nil {
		return err
	}
	fields := rec.IndexedFields()
	for field := range fields {
		if err := validateFieldName(collection, field); err != nil {
			return err
		}
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return newError(ErrCodeSerialize, collection, id, "encode record", err)
	}

	if err := jsonl.Append(s.logPath(collection), body); err != nil {
		return newError(ErrCodeIO, collection, id, "append to log", err)
	}
	appendsTotal.WithLabelValues(collection).Inc()
	appendBytesTotal.WithLabelValues(collection).Add(float64(len(body) + 1))

	if err := s.mirrorUpsert(ctx, collection, id, body, rec.UpdatedAt(), fields); err != nil {
		return err
	}
	if err := s.refreshSyncMark(ctx, collection); err != nil {
		return err
	}
	s.notifyExporter()
	return nil
}

// Delete appends a tombstone for id to the collection log of T and removes
// the cached row. The tombstone's updated_at is the current time, so it wins
// over every prior revision; it is never compacted away, because it must
// outlive divergent copies of the log.
func Delete[T Record](ctx context.Context, s *Store, id string) error {
	collection := collectionOf[T]()
	if err := validateCollection(collection); err != nil {
		return err
	}
	if err := validateIdentity(collection, id); err != nil {
		return err
	}

	body, err := json.Marshal(tombstone{ID: id, UpdatedAt: NowMS(), Deleted: true})
	if err != nil {
		return newError(ErrCodeSerialize, collection, id, "encode tombstone", err)
	}

	if err := jsonl.Append(s.logPath(collection), body); err != nil {
		return newError(ErrCodeIO, collection, id, "append tombstone", err)
	}
	appendsTotal.WithLabelValues(collection).Inc()
	appendBytesTotal.WithLabelValues(collection).Add(float64(len(body) + 1))

	if err := deleteRecord(ctx, s.db, collection, id); err != nil {
		return newError(ErrCodeCache, collection, id, "remove cached record", err)
	}
	if err := s.refreshSyncMark(ctx, collection); err != nil {
		return err
	}
	s.notifyExporter()
	return nil
}

// mirrorUpsert writes one record and its index rows into the cache in a
// single transaction.
func (s *Store) mirrorUpsert(ctx context.Context, collection, id string, body []byte, updatedAt int64, fields map[string]IndexValue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newError(ErrCodeCache, collection, id, "begin cache transaction", err)
	}
	defer tx.Rollback()

	if err := upsertRecord(ctx, tx, collection, id, body, updatedAt); err != nil {
		return newError(ErrCodeCache, collection, id, "mirror record", err)
	}
	if err := replaceIndexes(ctx, tx, collection, id, fields); err != nil {
		return newError(ErrCodeCache, collection, id, "mirror indexes", err)
	}
	if err := tx.Commit(); err != nil {
		return newError(ErrCodeCache, collection, id, "commit cache transaction", err)
	}
	return nil
}

// refreshSyncMark records the log's current mtime after a write-through
// mutation. The cache already reflects the append, so counting it as pending
// would only force a pointless full resync at the next open — at the cost of
// dropping index rows the rebuild cannot restore untyped.
func (s *Store) refreshSyncMark(ctx context.Context, collection string) error {
	mtime, exists, err := jsonl.Mtime(s.logPath(collection))
	if err != nil || !exists {
		if err != nil {
			return newError(ErrCodeIO, collection, "", "stat log", err)
		}
		return nil
	}
	if err := recordSyncMetadata(ctx, s.db, collection, mtime, NowMS()); err != nil {
		return newError(ErrCodeCache, collection, "", "record sync metadata", err)
	}
	return nil
}

func (s *Store) notifyExporter() {
	if s.exporter != nil {
		s.exporter.notify()
	}
}

// Flush forces a pending export to run immediately instead of waiting out
// the debounce window. A no-op when the exporter is not running.
func (s *Store) Flush(ctx context.Context) error {
	if s.exporter == nil {
		return nil
	}
	if err := s.exporter.flush(ctx); err != nil {
		return fmt.Errorf("flush exporter: %w", err)
	}
	return nil
}

package taskstore

import (
	"context"
	"encoding/json"

	"github.com/roach88/taskstore/internal/jsonl"
)

// IsStale reports whether any collection log has changed since its last
// sync: a log with a modification time newer than the recorded one, or with
// no sync record at all. Mtime granularity is seconds, so a write landing in
// the same second as the previous sync can go unnoticed until the next one.
func (s *Store) IsStale(ctx context.Context) (bool, error) {
	paths, err := s.logFiles()
	if err != nil {
		return false, err
	}

	for _, path := range paths {
		collection := collectionFromPath(path)
		mtime, exists, err := jsonl.Mtime(path)
		if err != nil {
			return false, newError(ErrCodeIO, collection, "", "stat log", err)
		}
		if !exists {
			continue
		}
		recorded, _, found, err := s.readSyncMetadata(ctx, collection)
		if err != nil {
			return false, newError(ErrCodeCache, collection, "", "read sync metadata", err)
		}
		if !found || mtime > recorded {
			return true, nil
		}
	}
	return false, nil
}

// Sync rebuilds the cache's records from the logs. Every collection is
// refolded from its log inside a single transaction, so readers see either
// the old projection or the new one, never a mix. Index rows are dropped
// with their records; RebuildIndexes restores them per typed collection.
func (s *Store) Sync(ctx context.Context) error {
	paths, err := s.logFiles()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newError(ErrCodeCache, "", "", "begin sync transaction", err)
	}
	defer tx.Rollback()

	now := NowMS()
	seen := make(map[string]bool, len(paths))

	for _, path := range paths {
		collection := collectionFromPath(path)
		if err := validateCollection(collection); err != nil {
			s.logger.Warn("skipping log with invalid collection name", "file", path)
			continue
		}
		seen[collection] = true

		// Capture the mtime before folding: a write that lands mid-fold
		// then re-marks the collection stale instead of being masked.
		mtime, _, err := jsonl.Mtime(path)
		if err != nil {
			return newError(ErrCodeIO, collection, "", "stat log", err)
		}
		entries, err := jsonl.ReadLatest(path)
		if err != nil {
			return newError(ErrCodeIO, collection, "", "fold log", err)
		}

		if err := clearCollection(ctx, tx, collection); err != nil {
			return newError(ErrCodeCache, collection, "", "clear collection", err)
		}
		live := 0
		for _, entry := range entries {
			if entry.Deleted {
				continue
			}
			if err := upsertRecord(ctx, tx, collection, entry.ID, entry.Raw, entry.UpdatedAt); err != nil {
				return newError(ErrCodeCache, collection, entry.ID, "mirror record", err)
			}
			live++
		}
		if err := recordSyncMetadata(ctx, tx, collection, mtime, now); err != nil {
			return newError(ErrCodeCache, collection, "", "record sync metadata", err)
		}
		syncRecords.WithLabelValues(collection).Set(float64(live))
	}

	// Collections whose log vanished (renamed away, removed by hand) lose
	// their rows and metadata with it.
	rows, err := tx.QueryContext(ctx, `SELECT collection FROM sync_metadata`)
	if err != nil {
		return newError(ErrCodeCache, "", "", "list synced collections", err)
	}
	var stale []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return newError(ErrCodeCache, "", "", "scan synced collection", err)
		}
		if !seen[name] {
			stale = append(stale, name)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return newError(ErrCodeCache, "", "", "iterate synced collections", err)
	}
	rows.Close()

	for _, name := range stale {
		if err := clearCollection(ctx, tx, name); err != nil {
			return newError(ErrCodeCache, name, "", "drop vanished collection", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sync_metadata WHERE collection = ?`, name); err != nil {
			return newError(ErrCodeCache, name, "", "drop sync metadata", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return newError(ErrCodeCache, "", "", "commit sync transaction", err)
	}
	syncsTotal.Inc()
	return nil
}

// RebuildIndexes repopulates the index rows of T's collection from the
// cached bodies, decoding each one through T to recover its field
// projection. Returns the number of records indexed. Idempotent.
func RebuildIndexes[T Record](ctx context.Context, s *Store) (int, error) {
	collection := collectionOf[T]()
	if err := validateCollection(collection); err != nil {
		return 0, err
	}

	rows, err := s.listRows(ctx, collection, nil, ListOptions{})
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, newError(ErrCodeCache, collection, "", "begin index transaction", err)
	}
	defer tx.Rollback()

	count := 0
	for _, row := range rows {
		var rec T
		if err := json.Unmarshal([]byte(row.Body), &rec); err != nil {
			s.logger.Warn("skipping undecodable record during index rebuild",
				"collection", collection, "id", row.ID, "error", err)
			skippedTotal.WithLabelValues(collection).Inc()
			continue
		}
		if err := replaceIndexes(ctx, tx, collection, row.ID, rec.IndexedFields()); err != nil {
			return 0, newError(ErrCodeCache, collection, row.ID, "rebuild indexes", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, newError(ErrCodeCache, collection, "", "commit index transaction", err)
	}
	return count, nil
}

package taskstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// The cache is a rebuildable projection of the logs, never the source of
// truth. Everything in here may be thrown away and reconstructed by Sync.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (collection, id)
);

CREATE TABLE IF NOT EXISTS record_indexes (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	field      TEXT NOT NULL,
	value_text TEXT,
	value_int  INTEGER,
	value_bool INTEGER,
	PRIMARY KEY (collection, id, field),
	FOREIGN KEY (collection, id) REFERENCES records(collection, id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS sync_metadata (
	collection   TEXT PRIMARY KEY,
	last_sync_ms INTEGER NOT NULL,
	file_mtime_s INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_updated ON record_indexes(collection, field);
`

// openCache opens or creates the SQLite cache file with the required pragmas.
func openCache(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to cache: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY between our own statements.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("execute schema: %w", err)
	}
	return db, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx so the statement helpers
// can run standalone or inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertRecord(ctx context.Context, e execer, collection, id string, body []byte, updatedAt int64) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO records (collection, id, body, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at
	`, collection, id, string(body), updatedAt)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// deleteRecord removes the cache row; index rows follow via the foreign key.
func deleteRecord(ctx context.Context, e execer, collection, id string) error {
	if _, err := e.ExecContext(ctx, `
		DELETE FROM records WHERE collection = ? AND id = ?
	`, collection, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// replaceIndexes atomically replaces all index rows for (collection, id)
// with the given field map. Must run inside the same transaction as the
// records upsert so readers never observe a half-updated projection.
func replaceIndexes(ctx context.Context, e execer, collection, id string, fields map[string]IndexValue) error {
	if _, err := e.ExecContext(ctx, `
		DELETE FROM record_indexes WHERE collection = ? AND id = ?
	`, collection, id); err != nil {
		return fmt.Errorf("clear indexes: %w", err)
	}

	for field, value := range fields {
		var text sql.NullString
		var num sql.NullInt64
		var boolean sql.NullBool
		switch v := value.(type) {
		case Text:
			text = sql.NullString{String: string(v), Valid: true}
		case Int:
			num = sql.NullInt64{Int64: int64(v), Valid: true}
		case Bool:
			boolean = sql.NullBool{Bool: bool(v), Valid: true}
		default:
			return fmt.Errorf("unsupported index value type %T for field %q", value, field)
		}
		if _, err := e.ExecContext(ctx, `
			INSERT INTO record_indexes (collection, id, field, value_text, value_int, value_bool)
			VALUES (?, ?, ?, ?, ?, ?)
		`, collection, id, field, text, num, boolean); err != nil {
			return fmt.Errorf("insert index %q: %w", field, err)
		}
	}
	return nil
}

func clearCollection(ctx context.Context, e execer, collection string) error {
	if _, err := e.ExecContext(ctx, `
		DELETE FROM records WHERE collection = ?
	`, collection); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}
	return nil
}

func recordSyncMetadata(ctx context.Context, e execer, collection string, fileMtimeS, nowMS int64) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO sync_metadata (collection, last_sync_ms, file_mtime_s)
		VALUES (?, ?, ?)
		ON CONFLICT(collection) DO UPDATE SET
			last_sync_ms = excluded.last_sync_ms,
			file_mtime_s = excluded.file_mtime_s
	`, collection, nowMS, fileMtimeS)
	if err != nil {
		return fmt.Errorf("record sync metadata: %w", err)
	}
	return nil
}

// readSyncMetadata returns (fileMtimeS, lastSyncMS, found).
func (s *Store) readSyncMetadata(ctx context.Context, collection string) (int64, int64, bool, error) {
	var mtime, lastSync int64
	err := s.db.QueryRowContext(ctx, `
		SELECT file_mtime_s, last_sync_ms FROM sync_metadata WHERE collection = ?
	`, collection).Scan(&mtime, &lastSync)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("read sync metadata: %w", err)
	}
	return mtime, lastSync, true, nil
}

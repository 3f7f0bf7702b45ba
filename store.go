package taskstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	cacheFileName   = "store.db"
	versionFileName = ".version"

	// schemaVersion is the newest on-disk generation this build understands.
	schemaVersion = 1
)

// Files regenerated from the logs stay out of version control; the logs
// themselves are what gets committed.
const gitignoreBody = `store.db
store.db-*
*.tmp
`

// Store is a record store rooted at a directory: one append-only JSONL log
// per collection as the source of truth, plus a rebuildable SQLite cache
// serving reads. A Store is safe for concurrent use.
type Store struct {
	dir      string
	db       *sql.DB
	cfg      Config
	logger   *slog.Logger
	exporter *exporter
}

// Open opens or creates a store rooted at dir. The directory, its
// .gitignore, the schema marker, and the cache are created on demand; if any
// log is newer than the cache the store resynchronizes before returning.
func Open(dir string, opts ...Option) (*Store, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newError(ErrCodeIO, "", "", "create store directory", err)
	}
	if err := ensureGitignore(dir); err != nil {
		return nil, err
	}
	if err := checkSchemaVersion(dir); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if o.config != nil {
		cfg = *o.config
	} else {
		loaded, err := loadConfig(dir)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	db, err := openCache(filepath.Join(dir, cacheFileName))
	if err != nil {
		return nil, newError(ErrCodeCache, "", "", "open cache", err)
	}

	s := &Store{
		dir:    dir,
		db:     db,
		cfg:    cfg,
		logger: slog.Default().With("component", "taskstore"),
	}

	ctx := context.Background()
	stale, err := s.IsStale(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if stale {
		if err := s.Sync(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	if cfg.AutoExport && cfg.DebounceMS > 0 {
		s.exporter = newExporter(s, cfg.DebounceMS)
	}
	return s, nil
}

// Close stops the background exporter, if running, and closes the cache.
// The logs need no teardown; every append is already durable.
func (s *Store) Close() error {
	if s.exporter != nil {
		s.exporter.stop()
	}
	if err := s.db.Close(); err != nil {
		return newError(ErrCodeCache, "", "", "close cache", err)
	}
	return nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// logPath returns the JSONL log path for a collection.
func (s *Store) logPath(collection string) string {
	return filepath.Join(s.dir, collection+".jsonl")
}

// logFiles returns the store's log paths in name order.
func (s *Store) logFiles() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.jsonl"))
	if err != nil {
		return nil, newError(ErrCodeIO, "", "", "list logs", err)
	}
	return paths, nil
}

func collectionFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".jsonl")
}

func ensureGitignore(dir string) error {
	path := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return newError(ErrCodeIO, "", "", "stat .gitignore", err)
	}
	if err := os.WriteFile(path, []byte(gitignoreBody), 0o644); err != nil {
		return newError(ErrCodeIO, "", "", "write .gitignore", err)
	}
	return nil
}

// checkSchemaVersion reads the .version marker, creating it on first open.
// A marker from a newer generation refuses to open rather than guess at a
// layout this build does not understand.
func checkSchemaVersion(dir string) error {
	path := filepath.Join(dir, versionFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		body := strconv.Itoa(schemaVersion) + "\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return newError(ErrCodeIO, "", "", "write schema marker", err)
		}
		return nil
	}
	if err != nil {
		return newError(ErrCodeIO, "", "", "read schema marker", err)
	}

	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return newError(ErrCodeSchema, "", "",
			fmt.Sprintf("malformed schema marker %q", strings.TrimSpace(string(data))), err)
	}
	if v > schemaVersion {
		return newError(ErrCodeSchema, "", "",
			fmt.Sprintf("store uses schema version %d, this build supports up to %d", v, schemaVersion), nil)
	}
	return nil
}

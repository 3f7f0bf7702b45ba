package jsonl

import (
	"fmt"
	"os"
	"sort"
)

// Compact rewrites the log at path so it holds exactly one line per identity:
// the retained revision, sorted by id. Tombstones are kept; dropping one
// would let a stale revision on another branch resurrect a deleted record at
// merge time. The rewrite goes through a temporary file that is fsynced and
// atomically renamed over the original, all under an exclusive lock, so a
// crash at any point leaves either the old or the new file intact.
//
// A missing file is a no-op.
func Compact(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open log %s: %w", path, err)
	}
	defer f.Close()

	if err := lockFile(f, true); err != nil {
		return fmt.Errorf("lock log %s: %w", path, err)
	}
	defer unlockFile(f)

	entries, err := foldLines(f, path)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tmpPath := path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmpPath, err)
	}

	for _, id := range ids {
		if _, err := tmp.Write(append(entries[id].Raw, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("write %s: %w", tmpPath, err)
		}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", tmpPath, err)
	}
	return nil
}

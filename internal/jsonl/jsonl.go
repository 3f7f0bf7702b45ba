// Package jsonl implements the append-only log files backing each record
// collection.
//
// One file per collection, newline-delimited JSON. The package understands
// only three top-level keys of a line ("id", "updated_at", "deleted"); the
// rest of the body is opaque bytes. Writers hold an exclusive advisory lock
// for the duration of an append, readers a shared lock for the duration of a
// scan. Locks are cooperative flock(2) locks: they serialize all processes
// that use this package against the same file, and nothing else.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Entry is the retained revision for one identity after folding a log file:
// the last line whose updated_at is not less than any earlier line for the
// same id. Raw holds the line exactly as stored, without the trailing newline.
type Entry struct {
	ID        string
	UpdatedAt int64
	Deleted   bool
	Raw       []byte
}

// probe is the minimal view of a log line the engine is allowed to parse.
type probe struct {
	ID        string `json:"id"`
	UpdatedAt int64  `json:"updated_at"`
	Deleted   bool   `json:"deleted"`
}

// maxLineSize bounds a single log line during scans. Bodies are capped well
// below this in practice; the limit exists so a corrupt file cannot make the
// scanner allocate without bound.
const maxLineSize = 16 << 20

// Append writes one serialized record line to the log at path, creating the
// file if absent. The line is written under an exclusive lock and fsynced
// before return, so a successful Append survives process crash.
func Append(path string, line []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", path, err)
	}
	defer f.Close()

	if err := lockFile(f, true); err != nil {
		return fmt.Errorf("lock log %s: %w", path, err)
	}
	defer unlockFile(f)

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("append to log %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("fsync log %s: %w", path, err)
	}
	return nil
}

// ReadLatest streams the log at path and returns the retained revision per
// identity. A missing file is an empty collection. Blank lines, unparseable
// lines, and lines without an id are skipped with a warning. Ties on
// updated_at resolve to the later line.
func ReadLatest(path string) (map[string]Entry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	defer f.Close()

	if err := lockFile(f, false); err != nil {
		return nil, fmt.Errorf("lock log %s: %w", path, err)
	}
	defer unlockFile(f)

	return foldLines(f, path)
}

// foldLines applies the latest-revision fold to a stream of log lines.
// Factored out so Compact can fold under its own exclusive lock.
func foldLines(r io.Reader, path string) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var p probe
		if err := json.Unmarshal(line, &p); err != nil {
			slog.Warn("skipping malformed log line", "file", path, "line", lineNum, "error", err)
			continue
		}
		if p.ID == "" {
			slog.Warn("skipping log line without id", "file", path, "line", lineNum)
			continue
		}

		// Keep unless strictly older than what we already hold; equal
		// timestamps favor the later line for determinism.
		if existing, ok := entries[p.ID]; ok && p.UpdatedAt < existing.UpdatedAt {
			continue
		}
		raw := make([]byte, len(line))
		copy(raw, line)
		entries[p.ID] = Entry{ID: p.ID, UpdatedAt: p.UpdatedAt, Deleted: p.Deleted, Raw: raw}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan log %s: %w", path, err)
	}
	return entries, nil
}

// Mtime returns the log's modification time in seconds since the epoch.
// A missing file reports (0, false, nil).
func Mtime(path string) (int64, bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("stat log %s: %w", path, err)
	}
	return info.ModTime().Unix(), true, nil
}

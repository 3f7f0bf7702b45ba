package jsonl

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCompact_KeepsLatestPerIdentitySortedByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.jsonl")
	writeLog(t, path, `{"id":"b","v":1,"updated_at":1000}
{"id":"a","v":1,"updated_at":1000}
{"id":"b","v":2,"updated_at":2000}
{"id":"a","v":2,"updated_at":2000}
`)

	if err := Compact(path); err != nil {
		t.Fatalf("Compact() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"a","v":2,"updated_at":2000}
{"id":"b","v":2,"updated_at":2000}
`
	if string(data) != want {
		t.Errorf("compacted log = %q, want %q", data, want)
	}
}

func TestCompact_PreservesReadLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.jsonl")
	writeLog(t, path, `{"id":"a","v":1,"updated_at":1000}
{"id":"c","v":1,"updated_at":1200}
{"id":"a","v":2,"updated_at":3000}
{"id":"b","updated_at":2000,"deleted":true}
`)

	before, err := ReadLatest(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Compact(path); err != nil {
		t.Fatalf("Compact() failed: %v", err)
	}
	after, err := ReadLatest(path)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(before, after) {
		t.Errorf("ReadLatest differs across compaction:\nbefore=%v\nafter=%v", before, after)
	}
}

func TestCompact_RetainsTombstones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.jsonl")
	writeLog(t, path, `{"id":"a","updated_at":1000}
{"id":"a","updated_at":2000,"deleted":true}
`)

	if err := Compact(path); err != nil {
		t.Fatalf("Compact() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"deleted":true`) {
		t.Errorf("tombstone must survive compaction, got %q", data)
	}
}

func TestCompact_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.jsonl")
	writeLog(t, path, `{"id":"a","v":1,"updated_at":1000}
{"id":"a","v":2,"updated_at":2000}
`)

	if err := Compact(path); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Compact(path); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("second compaction changed the file:\nfirst=%q\nsecond=%q", first, second)
	}
}

func TestCompact_MissingFileIsNoop(t *testing.T) {
	if err := Compact(filepath.Join(t.TempDir(), "absent.jsonl")); err != nil {
		t.Errorf("Compact() on absent file should be a no-op, got %v", err)
	}
}

func TestCompact_LeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.jsonl")
	writeLog(t, path, `{"id":"a","updated_at":1000}
`)

	if err := Compact(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

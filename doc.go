// Package taskstore is a git-friendly record store: typed records are
// persisted write-through into per-collection append-only JSONL logs, with a
// rebuildable SQLite cache serving indexed reads.
//
// The logs are the source of truth and the unit of version control; the
// cache is a disposable projection that any process can reconstruct with
// Sync. Concurrent edits of a log across git branches reconcile with the
// merge driver in cmd/taskstore-merge: the greatest updated_at per identity
// wins, and deletions travel as tombstone lines so they survive merging.
package taskstore

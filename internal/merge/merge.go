// Package merge implements the deterministic three-way merge for collection
// log files, invoked by git as a merge driver for *.jsonl.
//
// The merge operates on the folded view of each file (one retained revision
// per identity) and resolves every identity independently:
//
//   - present on both sides: the greater updated_at wins; at equal
//     timestamps, byte-identical lines resolve to ours and differing lines
//     are a conflict,
//   - present on one side only: that side wins, whether or not the ancestor
//     knew the id (deletion travels as a tombstone line, never as absence),
//   - absent from both sides: dropped.
//
// The output is one line per identity, sorted by id, so the merge is
// idempotent and independent of input file order.
package merge

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/roach88/taskstore/internal/jsonl"
)

// Exit codes reported by the merge driver, as git expects them.
const (
	ExitMerged   = 0
	ExitConflict = 1
	ExitError    = 2
)

// Conflict is a pair of same-identity, same-timestamp lines with differing
// bodies that could not be resolved automatically.
type Conflict struct {
	ID     string
	Ours   []byte
	Theirs []byte
}

// Result is the merged file body plus any unresolved conflicts.
type Result struct {
	Content   []byte
	Conflicts []Conflict
}

// Files merges the folded contents of ancestor, ours, and theirs.
// The ancestor participates only through what the sides did with it; a
// missing file on any path is an empty log.
func Files(ancestorPath, oursPath, theirsPath string) (Result, error) {
	// The ancestor is parsed for symmetry with git's invocation contract, but
	// resolution needs only the two sides: a deletion that should survive the
	// merge is a tombstone line, which competes on updated_at like any other
	// revision.
	if _, err := jsonl.ReadLatest(ancestorPath); err != nil {
		return Result{}, fmt.Errorf("read ancestor: %w", err)
	}
	ours, err := jsonl.ReadLatest(oursPath)
	if err != nil {
		return Result{}, fmt.Errorf("read ours: %w", err)
	}
	theirs, err := jsonl.ReadLatest(theirsPath)
	if err != nil {
		return Result{}, fmt.Errorf("read theirs: %w", err)
	}

	ids := make(map[string]struct{}, len(ours)+len(theirs))
	for id := range ours {
		ids[id] = struct{}{}
	}
	for id := range theirs {
		ids[id] = struct{}{}
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	var out bytes.Buffer
	var conflicts []Conflict
	for _, id := range sorted {
		o, haveOurs := ours[id]
		t, haveTheirs := theirs[id]

		switch {
		case haveOurs && haveTheirs:
			switch {
			case o.UpdatedAt > t.UpdatedAt:
				writeLine(&out, o.Raw)
			case t.UpdatedAt > o.UpdatedAt:
				writeLine(&out, t.Raw)
			case bytes.Equal(o.Raw, t.Raw):
				writeLine(&out, o.Raw)
			default:
				conflicts = append(conflicts, Conflict{ID: id, Ours: o.Raw, Theirs: t.Raw})
			}
		case haveOurs:
			writeLine(&out, o.Raw)
		default:
			writeLine(&out, t.Raw)
		}
	}

	for _, c := range conflicts {
		fmt.Fprintf(&out, "<<<<<<< OURS (%s)\n", c.ID)
		writeLine(&out, c.Ours)
		out.WriteString("=======\n")
		writeLine(&out, c.Theirs)
		out.WriteString(">>>>>>> THEIRS\n")
	}

	return Result{Content: out.Bytes(), Conflicts: conflicts}, nil
}

// Run merges the three files and writes the result over oursPath, which is
// what git expects of a merge driver. The returned code follows the driver
// contract: 0 merged, 1 conflict, 2 error.
func Run(ancestorPath, oursPath, theirsPath string) (int, error) {
	result, err := Files(ancestorPath, oursPath, theirsPath)
	if err != nil {
		return ExitError, err
	}
	if err := os.WriteFile(oursPath, result.Content, 0o644); err != nil {
		return ExitError, fmt.Errorf("write merged log: %w", err)
	}
	if len(result.Conflicts) > 0 {
		return ExitConflict, nil
	}
	return ExitMerged, nil
}

func writeLine(buf *bytes.Buffer, raw []byte) {
	buf.Write(raw)
	buf.WriteByte('\n')
}

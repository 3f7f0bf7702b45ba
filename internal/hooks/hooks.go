// Package hooks installs the git integration for a store: repository hooks
// that resynchronize the cache after history-changing operations, and the
// attributes wiring that routes log files through the merge driver.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Names of the hooks that re-run sync. Each one fires after an operation
// that can rewrite log files behind the cache's back.
var hookNames = []string{
	"pre-commit",
	"post-merge",
	"post-rebase",
	"pre-push",
	"post-checkout",
}

const hookMarker = "# installed by taskstore install-hooks"

const attributesLine = "*.jsonl merge=taskstore"

// DriverConfigCommand is the git config invocation that registers the merge
// driver. Printed for the user rather than run: driver configuration lives
// in .git/config or the user's global config, and which one is their call.
const DriverConfigCommand = `git config merge.taskstore.driver "taskstore-merge %O %A %B"`

// Install writes the sync hooks into repoRoot/.git/hooks and ensures the
// repository's .gitattributes routes *.jsonl through the merge driver.
// storeDir is the store directory the hooks pass to taskstore sync, relative
// to the repository root. Existing hooks not written by us are left alone
// and reported as an error.
func Install(repoRoot, storeDir string) error {
	gitDir := filepath.Join(repoRoot, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a git repository root", repoRoot)
	}

	hooksDir := filepath.Join(gitDir, "hooks")
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return fmt.Errorf("create hooks directory: %w", err)
	}

	body := hookScript(storeDir)
	for _, name := range hookNames {
		path := filepath.Join(hooksDir, name)
		existing, err := os.ReadFile(path)
		if err == nil && !strings.Contains(string(existing), hookMarker) {
			return fmt.Errorf("hook %s already exists and was not installed by taskstore; refusing to overwrite", name)
		}
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read hook %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
			return fmt.Errorf("write hook %s: %w", name, err)
		}
	}

	if err := ensureAttributes(filepath.Join(repoRoot, ".gitattributes")); err != nil {
		return err
	}
	return nil
}

func hookScript(storeDir string) string {
	return fmt.Sprintf(`#!/bin/sh
%s
exec taskstore sync --store %q
`, hookMarker, storeDir)
}

// ensureAttributes appends the merge attribute line if it is not already
// present. The file's other contents are preserved.
func ensureAttributes(path string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read .gitattributes: %w", err)
	}
	for _, line := range strings.Split(string(existing), "\n") {
		if strings.TrimSpace(line) == attributesLine {
			return nil
		}
	}

	var b strings.Builder
	b.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString(attributesLine)
	b.WriteByte('\n')

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write .gitattributes: %w", err)
	}
	return nil
}

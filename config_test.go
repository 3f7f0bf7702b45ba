package taskstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(body), 0o644))
}

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := loadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 5000, cfg.DebounceMS)
	assert.False(t, cfg.AutoExport)
}

func TestLoadConfig_ReadsValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "debounce_ms: 250\nauto_export: true\n")

	cfg, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.DebounceMS)
	assert.True(t, cfg.AutoExport)
}

func TestLoadConfig_ExplicitZeroDisablesDebounce(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "debounce_ms: 0\n")

	cfg, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.DebounceMS)
}

func TestLoadConfig_AbsentKeyKeepsDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "auto_export: true\n")

	cfg, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.DebounceMS)
	assert.True(t, cfg.AutoExport)
}

func TestLoadConfig_UnknownKeysAreIgnored(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "debounce_ms: 100\nfuture_option: whatever\n")

	cfg, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.DebounceMS)
}

func TestLoadConfig_MalformedYAMLIsIOError(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "debounce_ms: [not a scalar\n")

	_, err := loadConfig(dir)
	require.Error(t, err)
	assert.True(t, IsIO(err))
}

func TestWithConfig_OverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "debounce_ms: 9999\n")

	s, err := Open(dir, WithConfig(Config{DebounceMS: 0, AutoExport: false}))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 0, s.cfg.DebounceMS)
}

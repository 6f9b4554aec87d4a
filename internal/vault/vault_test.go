package vault

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjholt/taskmd/internal/taskfile"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvWork, "")
	t.Setenv(EnvPersonal, "")
}

func TestInitCreatesWorkSkeleton(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Work Tasks.md")

	created, err := Init(path, false)
	require.NoError(t, err)
	assert.True(t, created)

	f, err := Open(path)
	require.NoError(t, err)
	require.Len(t, f.Doc.Sections, 6)
	assert.Equal(t, taskfile.PriorityCritical, f.Doc.Sections[0].Priority)
	assert.True(t, f.Doc.Sections[5].Done)
}

func TestInitCreatesPersonalSkeleton(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Personal Tasks.md")

	created, err := Init(path, true)
	require.NoError(t, err)
	assert.True(t, created)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "## 🔴 Must Do Today")
}

func TestInitNeverTouchesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.md")
	require.NoError(t, os.WriteFile(path, []byte("mine\n"), 0o644))

	created, err := Init(path, false)
	require.NoError(t, err)
	assert.False(t, created)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine\n", string(b))
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.md")

	_, err := Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "taskmd init")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.md")
	content := "## 🔴 Q1\n- [ ] **A**\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, f.Save())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(b))
}

func TestSaveDetectsStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.md")
	require.NoError(t, os.WriteFile(path, []byte("## 🔴 Q1\n"), 0o644))

	f, err := Open(path)
	require.NoError(t, err)

	// Another writer touches the file after our read.
	future := time.Now().Add(2 * time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	err = f.Save()
	assert.ErrorIs(t, err, ErrStale)
}

func TestSaveSucceedsAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.md")
	require.NoError(t, os.WriteFile(path, []byte("## 🔴 Q1\n"), 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, f.Save())
	require.NoError(t, f.Save())
}

func TestConfigRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	want := Config{
		WorkPath:     filepath.Join(dir, "work.md"),
		PersonalPath: filepath.Join(dir, "personal.md"),
		DonePolicy:   string(taskfile.DoneRelocate),
	}
	require.NoError(t, SaveConfig(cfgPath, want))

	got, err := LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, taskfile.DoneRelocate, got.Policy())
}

func TestConfigMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.WorkPath)
	assert.NotEmpty(t, cfg.PersonalPath)
	assert.Equal(t, taskfile.DoneInPlace, cfg.Policy())
}

func TestConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvWork, "/tmp/env-work.md")
	t.Setenv(EnvPersonal, "/tmp/env-personal.md")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-work.md", cfg.WorkPath)
	assert.Equal(t, "/tmp/env-personal.md", cfg.PersonalPath)
	assert.Equal(t, "/tmp/env-work.md", cfg.Path(false))
	assert.Equal(t, "/tmp/env-personal.md", cfg.Path(true))
}

func TestConfigRejectsMalformedYAML(t *testing.T) {
	clearEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("work_path: [broken\n"), 0o644))

	_, err := LoadConfig(cfgPath)
	assert.Error(t, err)
}

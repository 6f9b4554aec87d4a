// Package vault locates, loads and writes the markdown task files the
// engine operates on. Paths and the done policy are explicit configuration,
// not hidden state.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mjholt/taskmd/internal/taskfile"
)

// ErrStale means the file on disk changed after it was read. The write is
// aborted rather than silently clobbering interleaved edits.
var ErrStale = errors.New("file changed since it was read")

const (
	EnvConfig   = "TASKMD_CONFIG"
	EnvWork     = "TASKMD_WORK"
	EnvPersonal = "TASKMD_PERSONAL"
)

// Config holds the two vault file locations and the completion policy. Each
// path is independently overridable by environment.
type Config struct {
	WorkPath     string `yaml:"work_path"`
	PersonalPath string `yaml:"personal_path"`
	DonePolicy   string `yaml:"done_policy"`
}

// NotFoundError is the user-facing miss on a vault file; it carries a
// remediation hint and satisfies errors.Is(err, fs.ErrNotExist).
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tasks file not found: %s (run 'taskmd init' or point work_path/personal_path at your vault)", e.Path)
}

func (e *NotFoundError) Is(target error) bool {
	return target == fs.ErrNotExist
}

// DefaultConfigPath is ~/.taskmd/config.yaml unless TASKMD_CONFIG overrides
// it.
func DefaultConfigPath() string {
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return filepath.Join(".taskmd", "config.yaml")
	}
	return filepath.Join(home, ".taskmd", "config.yaml")
}

func defaultConfig() Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, "Tasks")
	return Config{
		WorkPath:     filepath.Join(base, "Work Tasks.md"),
		PersonalPath: filepath.Join(base, "Personal Tasks.md"),
		DonePolicy:   string(taskfile.DoneInPlace),
	}
}

// LoadConfig reads the YAML config at path, falling back to defaults when
// the file is absent. Environment overrides apply last.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	b, err := os.ReadFile(path)
	if err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(b, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
		if strings.TrimSpace(fileCfg.WorkPath) != "" {
			cfg.WorkPath = expandHome(fileCfg.WorkPath)
		}
		if strings.TrimSpace(fileCfg.PersonalPath) != "" {
			cfg.PersonalPath = expandHome(fileCfg.PersonalPath)
		}
		if strings.TrimSpace(fileCfg.DonePolicy) != "" {
			cfg.DonePolicy = strings.TrimSpace(fileCfg.DonePolicy)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	if env := os.Getenv(EnvWork); env != "" {
		cfg.WorkPath = env
	}
	if env := os.Getenv(EnvPersonal); env != "" {
		cfg.PersonalPath = env
	}
	return cfg, nil
}

// SaveConfig writes the config atomically, creating the directory if
// needed.
func SaveConfig(path string, cfg Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicWriteFile(path, b, 0o644)
}

// Path picks the work or personal vault file.
func (c Config) Path(personal bool) string {
	if personal {
		return c.PersonalPath
	}
	return c.WorkPath
}

// Policy returns the completion policy as the engine type.
func (c Config) Policy() taskfile.DonePolicy {
	if strings.TrimSpace(strings.ToLower(c.DonePolicy)) == string(taskfile.DoneRelocate) {
		return taskfile.DoneRelocate
	}
	return taskfile.DoneInPlace
}

// File is one open vault file: the parsed document plus the bookkeeping
// needed to write it back safely.
type File struct {
	Path string
	Doc  *taskfile.Document

	modTime time.Time
	hasStat bool
}

// Open reads and parses the vault file at path.
func Open(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, err
	}
	f := &File{Path: path, Doc: taskfile.Parse(b)}
	if st, err := os.Stat(path); err == nil {
		f.modTime = st.ModTime()
		f.hasStat = true
	}
	return f, nil
}

// Save serializes the document back to disk. The write is atomic (tmp +
// rename, never partial) and aborts with ErrStale when the file's mod time
// moved since Open.
func (f *File) Save() error {
	if f.hasStat {
		if st, err := os.Stat(f.Path); err == nil && !st.ModTime().Equal(f.modTime) {
			return fmt.Errorf("%w: %s", ErrStale, f.Path)
		}
	}
	if err := atomicWriteFile(f.Path, f.Doc.Serialize(), 0o644); err != nil {
		return err
	}
	if st, err := os.Stat(f.Path); err == nil {
		f.modTime = st.ModTime()
		f.hasStat = true
	}
	return nil
}

var workSkeleton = `# Work Tasks

## 🔴 Q1: Urgent & Important

## 🟡 Q2: Important, Not Urgent

## 🟠 Q3: Waiting / Blocked

## 👥 Team Tasks

## ⚪ Backlog

## ✅ Done
`

var personalSkeleton = `# Personal Tasks

## 🔴 Must Do Today

## 🟡 Should Do This Week

## 🟠 Waiting

## ⚪ Backlog

## ✅ Done
`

// Init creates a skeleton vault file when none exists yet. Existing files
// are never touched.
func Init(path string, personal bool) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	skeleton := workSkeleton
	if personal {
		skeleton = personalSkeleton
	}
	if err := atomicWriteFile(path, []byte(skeleton), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) || path == "~" {
		home, _ := os.UserHomeDir()
		if home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%d", time.Now().UTC().UnixNano()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Rename is atomic on same filesystem.
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

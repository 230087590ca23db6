package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	registryFileName = "projects.json"
	backupDirName    = "backups"
	backupsToKeep    = 10
)

// Store owns the on-disk registry document and an in-memory copy of the
// aggregate. Every load-modify-save cycle runs under a single mutex so the
// provisional-commit-then-rollback allocation protocol is atomic with
// respect to other callers in this process. Cross-process writers are not
// coordinated; the registry is designed for single-writer use.
type Store struct {
	dataDir   string
	path      string
	backupDir string

	mu  sync.Mutex
	reg *Registry
}

// NewStore loads the registry from dataDir, creating a default-initialized
// aggregate when no document exists yet.
func NewStore(dataDir string) (*Store, error) {
	s := &Store{
		dataDir:   dataDir,
		path:      filepath.Join(dataDir, registryFileName),
		backupDir: filepath.Join(dataDir, backupDirName),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// DataDir returns the directory holding the registry document.
func (s *Store) DataDir() string {
	return s.dataDir
}

// Path returns the location of the registry document.
func (s *Store) Path() string {
	return s.path
}

// Reload replaces the in-memory aggregate with the on-disk state. A missing
// file yields an empty registry with defaults, never an error.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := load(s.path)
	if err != nil {
		return err
	}
	s.reg = reg
	return nil
}

func load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(), nil
		}
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	reg.normalize()
	return &reg, nil
}

// View runs fn against the aggregate under the lock. fn must not retain
// references to registry internals beyond the call; copy what it needs.
func (s *Store) View(fn func(reg *Registry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.reg)
}

// Mutate runs fn against the aggregate under the lock and persists the
// result when fn reports a change. fn returning an error aborts the save;
// fn is responsible for leaving the aggregate in its pre-call state on
// failure (the allocator's rollback relies on this contract).
func (s *Store) Mutate(actor string, fn func(reg *Registry) (changed bool, err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := fn(s.reg)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.save(actor)
}

// save refreshes metadata, rotates a backup of the current document, and
// writes the full aggregate via temp-file-and-rename. Caller holds s.mu.
func (s *Store) save(actor string) error {
	s.reg.Metadata.LastModified = time.Now()
	s.reg.Metadata.LastModifiedBy = actor
	s.reg.Metadata.TotalProjects = len(s.reg.Projects)

	// Backup failure aborts the save. Losing the previous generation is
	// treated as worse than refusing the write.
	if err := s.backup(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	data, err := json.MarshalIndent(s.reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	data = append(data, '\n')

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// backup copies the current on-disk document into the backup directory with
// a second-resolution timestamp suffix, then drops all but the newest ten.
func (s *Store) backup() error {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("projects_%s.json", time.Now().Format("20060102_150405"))
	if err := copyFile(s.path, filepath.Join(s.backupDir, name)); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	return s.rotateBackups()
}

func (s *Store) rotateBackups() error {
	matches, err := filepath.Glob(filepath.Join(s.backupDir, "projects_*.json"))
	if err != nil {
		return err
	}
	if len(matches) <= backupsToKeep {
		return nil
	}

	// Timestamped names sort chronologically, so the oldest come first.
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-backupsToKeep] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("failed to remove old backup: %w", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// Package filestore persists rendered artifacts to the local filesystem.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/state-visit-map/internal/domain"
)

// ErrInvalidName is returned for artifact names that would leave their directory.
var ErrInvalidName = errors.New("invalid artifact name")

// Dirs maps artifact kinds to output directories.
type Dirs struct {
	Images  string
	Pages   string
	Reports string
}

// Store writes artifacts into per-kind directories. Writes are plain and
// last-writer-wins.
type Store struct {
	dirs Dirs
}

// New creates a Store over dirs.
func New(dirs Dirs) *Store {
	return &Store{dirs: dirs}
}

// Dir returns the directory for a kind. Maps and chart indexes share the
// page directory.
func (s *Store) Dir(kind domain.ArtifactKind) string {
	switch kind {
	case domain.ArtifactChartImage:
		return s.dirs.Images
	case domain.ArtifactWorkbook:
		return s.dirs.Reports
	default:
		return s.dirs.Pages
	}
}

// Write stores a into the directory for its kind and returns it with Path set.
func (s *Store) Write(a domain.Artifact) (domain.Artifact, error) {
	if err := checkName(a.Name); err != nil {
		return a, err
	}
	return s.WriteAt(filepath.Join(s.Dir(a.Kind), a.Name), a)
}

// WriteAt stores a at an explicit path, creating parent directories.
func (s *Store) WriteAt(path string, a domain.Artifact) (domain.Artifact, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return a, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return a, fmt.Errorf("write %s: %w", path, err)
	}
	a.Path = path
	return a, nil
}

// Path resolves a previously written artifact by kind and name.
func (s *Store) Path(kind domain.ArtifactKind, name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir(kind), name), nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

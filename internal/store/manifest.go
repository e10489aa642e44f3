package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/Aman-CERP/cranir/internal/ranking"
	"github.com/Aman-CERP/cranir/pkg/version"
)

const (
	// ManifestFileName marks a complete index. It is written last.
	ManifestFileName = "cranir.json"

	// ManifestFormat is bumped on incompatible layout changes.
	ManifestFormat = 1
)

// Manifest describes a committed index.
type Manifest struct {
	Format      int             `json:"format"`
	Backend     string          `json:"backend"`
	Models      []ranking.Model `json:"models"`
	Analyzer    string          `json:"analyzer"`
	Documents   int             `json:"documents"`
	CreatedAt   time.Time       `json:"created_at"`
	ToolVersion string          `json:"tool_version"`
}

// HasModel reports whether the index was built with model.
func (m *Manifest) HasModel(model ranking.Model) bool {
	return slices.Contains(m.Models, model)
}

// ManifestPath returns the manifest location inside dir.
func ManifestPath(dir string) string {
	return filepath.Join(dir, ManifestFileName)
}

// ReadManifest loads and checks the manifest of the index in dir.
// A missing manifest yields ErrNoIndex; an unreadable one ErrCorruptIndex.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(ManifestPath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w in %s", ErrNoIndex, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", ErrCorruptIndex, err)
	}
	if m.Format != ManifestFormat {
		return nil, fmt.Errorf("%w: manifest format %d, expected %d", ErrCorruptIndex, m.Format, ManifestFormat)
	}
	if m.Backend == "" || len(m.Models) == 0 {
		return nil, fmt.Errorf("%w: manifest names no backend or models", ErrCorruptIndex)
	}
	return &m, nil
}

// writeManifest stores m in dir through a temp file and rename.
func writeManifest(dir string, m *Manifest) error {
	m.Format = ManifestFormat
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.ToolVersion == "" {
		m.ToolVersion = version.UserAgent()
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	tmp := ManifestPath(dir) + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp, ManifestPath(dir)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// indexArtifacts lists the paths in dir that belong to some index build.
func indexArtifacts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		switch {
		case name == ManifestFileName, name == ManifestFileName+".tmp":
		case filepath.Ext(name) == bleveExt && e.IsDir():
		case name == sqliteFileName, name == sqliteFileName+"-wal", name == sqliteFileName+"-shm", name == sqliteFileName+"-journal":
		default:
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

// RemoveArtifacts deletes every index artifact in dir, manifest first,
// leaving unrelated files and the lock file alone.
func RemoveArtifacts(dir string) error {
	if err := os.Remove(ManifestPath(dir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove manifest: %w", err)
	}

	paths, err := indexArtifacts(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list index directory: %w", err)
	}
	for _, p := range paths {
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Aman-CERP/cranir/internal/ranking"
)

// Options configures a backend created by NewBackend.
type Options struct {
	// Models to materialize; only the bleve backend uses more than one.
	Models    []ranking.Model
	Analyzer  string
	BatchSize int
}

// Backends lists the backend names accepted by NewBackend.
func Backends() []string {
	return []string{BackendBleve, BackendSQLite}
}

// NewBackend creates a backend by name.
//
// backend options:
//   - "bleve" (default): bleve v2 scorch indexes, one per scoring model
//   - "sqlite": SQLite FTS5 with bm25() ranking
func NewBackend(name string, opts Options) (Backend, error) {
	if opts.Analyzer != "" && !ValidAnalyzer(opts.Analyzer) {
		return nil, fmt.Errorf("unknown analyzer: %s (valid options: en, standard)", opts.Analyzer)
	}

	switch name {
	case BackendBleve, "":
		return NewBleveBackend(BleveConfig{
			Models:    opts.Models,
			Analyzer:  opts.Analyzer,
			BatchSize: opts.BatchSize,
		}), nil

	case BackendSQLite:
		for _, m := range opts.Models {
			if !containsModel(sqliteModels, m) {
				slog.Warn("sqlite_model_unavailable",
					slog.String("model", m.String()),
					slog.String("fallback", ranking.Default.String()))
			}
		}
		return NewSQLiteBackend(SQLiteConfig{
			Analyzer:  opts.Analyzer,
			BatchSize: opts.BatchSize,
		}), nil

	default:
		return nil, fmt.Errorf("unknown backend: %s (valid options: bleve, sqlite)", name)
	}
}

// DetectBackend reports which backend built the index in dir.
// The manifest decides; without one, engine files are used as a hint so
// that doctor can describe an incomplete build.
func DetectBackend(dir string) (string, error) {
	m, err := ReadManifest(dir)
	if err == nil {
		return m.Backend, nil
	}
	if !errors.Is(err, ErrNoIndex) {
		return "", err
	}

	if fileExists(sqlitePath(dir)) {
		return BackendSQLite, ErrNoIndex
	}
	for _, model := range ranking.All() {
		if dirExists(bleveIndexPath(dir, model)) {
			return BackendBleve, ErrNoIndex
		}
	}
	return "", err
}

// OpenReader detects the backend of dir, opens the index and wraps it in a
// stored-field cache of cacheSize entries.
func OpenReader(ctx context.Context, dir string, cacheSize int) (*CachedReader, error) {
	name, err := DetectBackend(dir)
	if err != nil {
		return nil, err
	}
	backend, err := NewBackend(name, Options{})
	if err != nil {
		return nil, err
	}
	reader, err := backend.OpenForRead(ctx, dir)
	if err != nil {
		return nil, err
	}
	return NewCachedReader(reader, cacheSize), nil
}

// fileExists checks if a file exists at the given path.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// dirExists checks if a directory exists at the given path.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

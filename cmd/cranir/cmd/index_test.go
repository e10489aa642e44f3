package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
	"github.com/Aman-CERP/cranir/internal/store"
)

func TestIndexCmd_BuildsIndex(t *testing.T) {
	// Given: a three document corpus
	f := newFixture(t)

	// When: indexing it with flags
	stdout, _, err := runCLI(t, "index", "--no-tui", "--skip-check", "--corpus", f.corpus, "--index", f.indexDir)

	// Then: a committed index with all documents exists
	require.NoError(t, err)
	assert.Contains(t, stdout, "Indexed 3 documents into "+f.indexDir)
	m, err := store.ReadManifest(f.indexDir)
	require.NoError(t, err)
	assert.Equal(t, store.BackendBleve, m.Backend)
	assert.Equal(t, 3, m.Documents)
}

func TestIndexCmd_LegacyPositionals(t *testing.T) {
	// Given: the corpus and index directory as positional arguments
	f := newFixture(t)

	// When: indexing with the older form
	_, _, err := runCLI(t, "index", "--no-tui", "--skip-check", f.corpus, f.indexDir)

	// Then: the index is built
	require.NoError(t, err)
	assert.FileExists(t, store.ManifestPath(f.indexDir))
}

func TestIndexCmd_FlagsWinOverPositionals(t *testing.T) {
	// Given: a positional index dir and a different --index flag
	f := newFixture(t)
	flagDir := filepath.Join(f.dir, "from-flag")

	// When: indexing
	_, _, err := runCLI(t, "index", "--no-tui", "--skip-check", "--index", flagDir, f.corpus, f.indexDir)

	// Then: the flag's directory is used
	require.NoError(t, err)
	assert.FileExists(t, store.ManifestPath(flagDir))
	assert.NoDirExists(t, f.indexDir)
}

func TestIndexCmd_SQLiteBackend(t *testing.T) {
	f := newFixture(t)

	buildIndex(t, f, "--backend", "sqlite")

	m, err := store.ReadManifest(f.indexDir)
	require.NoError(t, err)
	assert.Equal(t, store.BackendSQLite, m.Backend)
}

func TestIndexCmd_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args func(f fixture) []string
	}{
		{"missing corpus", func(f fixture) []string { return []string{"index", "--index", f.indexDir} }},
		{"missing index", func(f fixture) []string { return []string{"index", "--corpus", f.corpus} }},
		{"too many args", func(f fixture) []string { return []string{"index", f.corpus, f.indexDir, "extra"} }},
		{"unknown backend", func(f fixture) []string {
			return []string{"index", "--backend", "lucene", "--corpus", f.corpus, "--index", f.indexDir}
		}},
		{"bad batch size", func(f fixture) []string {
			return []string{"index", "--batch-size", "0", "--corpus", f.corpus, "--index", f.indexDir}
		}},
		{"unknown flag", func(f fixture) []string { return []string{"index", "--corpse", f.corpus} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: an invocation with bad arguments
			f := newFixture(t)

			// When: running it
			_, _, err := runCLI(t, tt.args(f)...)

			// Then: it is a usage error and nothing was written
			require.Error(t, err)
			assert.True(t, cranerrors.IsUsage(err), "got %v", err)
			assert.Equal(t, 2, cranerrors.ExitCode(err))
			assert.NoDirExists(t, f.indexDir)
		})
	}
}

func TestIndexCmd_MissingCorpusIsIOError(t *testing.T) {
	// Given: a corpus path that does not exist
	f := newFixture(t)
	missing := filepath.Join(f.dir, "nope.txt")

	// When: indexing with pre-flight checks enabled
	_, _, err := runCLI(t, "index", "--no-tui", "--corpus", missing, "--index", f.indexDir)

	// Then: it fails with an IO error and exit status 1
	require.Error(t, err)
	assert.Equal(t, cranerrors.CategoryIO, cranerrors.GetCategory(err))
	assert.Equal(t, 1, cranerrors.ExitCode(err))
}

func TestIndexCmd_UnknownModelIsIgnored(t *testing.T) {
	// Given: a model list with one unknown name
	f := newFixture(t)

	// When: indexing
	_, stderr, err := runCLI(t, "index", "--no-tui", "--skip-check",
		"--corpus", f.corpus, "--index", f.indexDir, "--models", "bm25,laplace")

	// Then: it warns and builds bm25
	require.NoError(t, err)
	assert.Contains(t, stderr, `unknown ranking model "laplace" ignored`)
	m, err := store.ReadManifest(f.indexDir)
	require.NoError(t, err)
	assert.Equal(t, "bm25", m.Models[0].String())
}

func TestIndexInfoCmd(t *testing.T) {
	// Given: a built index
	f := newFixture(t)
	buildIndex(t, f)

	// When: showing its info
	stdout, _, err := runCLI(t, "index", "info", f.indexDir)

	// Then: backend and document counts are printed
	require.NoError(t, err)
	assert.Contains(t, stdout, "bleve")
	assert.Contains(t, stdout, "Documents")
	assert.Contains(t, stdout, "Live documents")
	assert.NotContains(t, stdout, "engine reports")
}

func TestIndexInfoCmd_JSON(t *testing.T) {
	f := newFixture(t)
	buildIndex(t, f, "--backend", "sqlite")

	stdout, _, err := runCLI(t, "index", "info", f.indexDir, "--json")
	require.NoError(t, err)

	var info indexInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, "sqlite", info.Backend)
	assert.Equal(t, []string{"bm25"}, info.Models)
	assert.Equal(t, 3, info.Documents)
	assert.Equal(t, 3, info.LiveDocuments)
	assert.Greater(t, info.SizeBytes, int64(0))
}

func TestIndexInfoCmd_NoIndex(t *testing.T) {
	// Given: an empty directory
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.indexDir, 0o755))

	// When: asking for info
	_, _, err := runCLI(t, "index", "info", f.indexDir)

	// Then: it reports a missing index
	require.Error(t, err)
	assert.Equal(t, cranerrors.ErrCodeIndexNotFound, cranerrors.GetCode(err))
}

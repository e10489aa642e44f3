package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCorpus = `.I 1
.T
experimental investigation of the aerodynamics of a wing in a slipstream
.A
brenckman,m.
.B
j. ae. scs. 25, 1958, 324.
.W
the slipstream of a propeller changes the lift of a wing
.I 2
.T
simple shear flow past a flat plate
.W
viscous flow past a flat plate in an incompressible fluid
.I 3
.T
the boundary layer in simple shear flow past a flat plate
.A
m. b. glauert
.W
the boundary layer equations are solved for shear flow
`

const testQueries = `.I 001
.W
what is the effect of a slipstream on a wing ?
.I 002
.W
boundary layer (shear flow) over a plate: "exact" solutions?
`

// fixture holds the paths of a test corpus, query file and index location.
type fixture struct {
	dir      string
	corpus   string
	queries  string
	indexDir string
	output   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	isolateConfig(t)

	dir := t.TempDir()
	f := fixture{
		dir:      dir,
		corpus:   filepath.Join(dir, "cran.all.1400"),
		queries:  filepath.Join(dir, "cran.qry"),
		indexDir: filepath.Join(dir, "index"),
		output:   filepath.Join(dir, "runs", "run.txt"),
	}
	require.NoError(t, os.WriteFile(f.corpus, []byte(testCorpus), 0o644))
	require.NoError(t, os.WriteFile(f.queries, []byte(testQueries), 0o644))
	return f
}

// isolateConfig keeps the developer's own config files out of the test.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{
		"CRANIR_BACKEND", "CRANIR_MODELS", "CRANIR_MODEL", "CRANIR_MAX_HITS",
		"CRANIR_FIELDS", "CRANIR_RENUMBER_QUERIES", "CRANIR_LOG_LEVEL", "CRANIR_METRICS_FILE",
	} {
		t.Setenv(key, "")
	}
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCmd()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// buildIndex indexes the fixture corpus with extra index flags.
func buildIndex(t *testing.T, f fixture, extra ...string) {
	t.Helper()
	args := append([]string{"index", "--no-tui", "--skip-check", "--corpus", f.corpus, "--index", f.indexDir}, extra...)
	_, stderr, err := runCLI(t, args...)
	require.NoError(t, err, stderr)
}

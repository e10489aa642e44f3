package search

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/cranir/internal/cranfield"
	"github.com/Aman-CERP/cranir/internal/index"
	"github.com/Aman-CERP/cranir/internal/ranking"
	"github.com/Aman-CERP/cranir/internal/runfile"
	"github.com/Aman-CERP/cranir/internal/store"
)

const testCorpus = `.I 1
.T
experimental investigation of the aerodynamics of a wing in a slipstream
.A
brenckman,m.
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
.I 003
.W
foo (bar)
`

func buildTestIndex(t *testing.T, backend store.Backend) store.IndexReader {
	t.Helper()

	dir := t.TempDir()
	_, err := index.NewPipeline(backend).
		Run(context.Background(), cranfield.NewDocumentReader(strings.NewReader(testCorpus)), dir)
	require.NoError(t, err)

	r, err := backend.OpenForRead(context.Background(), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestPipeline_EndToEnd(t *testing.T) {
	backends := []store.Backend{
		store.NewBleveBackend(store.DefaultBleveConfig()),
		store.NewSQLiteBackend(store.SQLiteConfig{}),
	}

	for _, backend := range backends {
		t.Run(backend.Name(), func(t *testing.T) {
			// Given: an index built from the corpus
			reader := buildTestIndex(t, backend)
			p, err := NewPipeline(reader, Config{Model: "bm25", MaxHits: 10, Fields: []string{"title", "abstract", "content"}})
			require.NoError(t, err)

			// When: running queries with operator characters
			results, summary, err := p.Run(context.Background(), cranfield.NewQueryReader(strings.NewReader(testQueries)))
			require.NoError(t, err)

			var buf bytes.Buffer
			w := runfile.NewWriter(&buf, runfile.RunTag(backend.Name(), p.Model().String()))
			for _, r := range results {
				require.NoError(t, w.WriteQuery(r.QueryID, r.Lines()))
			}
			require.NoError(t, w.Flush())

			// Then: nothing fails and the run is well-formed
			assert.Zero(t, summary.Failed)
			require.GreaterOrEqual(t, len(results), 2)
			assert.Equal(t, "1", results[0].QueryID)
			assert.Equal(t, "1", results[0].Hits[0].DocNo)
			assert.Equal(t, "3", results[1].Hits[0].DocNo)

			lines, err := runfile.Parse(&buf)
			require.NoError(t, err)
			assert.NoError(t, runfile.Validate(lines))
			assert.Equal(t, backend.Name()+"-bm25", lines[0].RunTag)
		})
	}
}

func TestPipeline_RepeatedDocNosServedFromCache(t *testing.T) {
	// Given: a cached bleve reader and two queries whose best hit is document 1
	dir := t.TempDir()
	_, err := index.NewPipeline(store.NewBleveBackend(store.DefaultBleveConfig())).
		Run(context.Background(), cranfield.NewDocumentReader(strings.NewReader(testCorpus)), dir)
	require.NoError(t, err)
	reader, err := store.OpenReader(context.Background(), dir, 16)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })

	p, err := NewPipeline(reader, Config{Model: "bm25", MaxHits: 1})
	require.NoError(t, err)

	// When: running both queries
	results, _, err := p.Run(context.Background(),
		cranfield.NewQueryReader(strings.NewReader(".I 1\n.W\nslipstream wing\n.I 2\n.W\npropeller slipstream\n")))

	// Then: the docno is read from the index once and then from the cache
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].Hits[0].DocNo)
	assert.Equal(t, "1", results[1].Hits[0].DocNo)
	assert.Equal(t, store.CacheStats{Hits: 1, Misses: 1}, reader.Stats())
}

func TestPipeline_UnknownModelStillWritesRun(t *testing.T) {
	// Given: a bleve index and a model name no engine knows
	reader := buildTestIndex(t, store.NewBleveBackend(store.DefaultBleveConfig()))
	p, err := NewPipeline(reader, Config{Model: "neural-magic", MaxHits: 3})
	require.NoError(t, err)

	// When: running the batch
	results, summary, err := p.Run(context.Background(), cranfield.NewQueryReader(strings.NewReader(testQueries)))

	// Then: the batch completes with bm25
	require.NoError(t, err)
	assert.Equal(t, ranking.BM25, summary.Model)
	assert.True(t, summary.Fallback)
	assert.NotEmpty(t, results)
	for _, r := range results {
		assert.LessOrEqual(t, len(r.Hits), 3)
		for i := 1; i < len(r.Hits); i++ {
			assert.GreaterOrEqual(t, r.Hits[i-1].Score, r.Hits[i].Score)
			assert.Equal(t, i+1, r.Hits[i].Rank)
		}
	}
}

func TestPipeline_ClassicModelOnBleve(t *testing.T) {
	reader := buildTestIndex(t, store.NewBleveBackend(store.DefaultBleveConfig()))
	p, err := NewPipeline(reader, Config{Model: "classic", MaxHits: 5})
	require.NoError(t, err)

	results, _, err := p.Run(context.Background(), cranfield.NewQueryReader(strings.NewReader(testQueries)))

	require.NoError(t, err)
	assert.Empty(t, p.Warnings())
	assert.Equal(t, "1", results[0].Hits[0].DocNo)
}

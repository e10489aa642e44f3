package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/cranir/internal/ranking"
)

// buildIndex indexes docs into dir with backend and commits.
func buildIndex(t *testing.T, backend Backend, dir string, docs []*Document) {
	t.Helper()

	ctx := context.Background()
	w, err := backend.OpenForWrite(ctx, dir)
	require.NoError(t, err)
	for _, d := range docs {
		require.NoError(t, w.Add(ctx, d))
	}
	require.NoError(t, w.Commit())
}

// openIndex opens dir for reading and closes it when the test ends.
func openIndex(t *testing.T, backend Backend, dir string) IndexReader {
	t.Helper()

	r, err := backend.OpenForRead(context.Background(), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// search parses text against fields and runs it with model.
func search(t *testing.T, r IndexReader, text string, fields []string, model string, maxHits int) []Hit {
	t.Helper()

	q, err := r.Parser().Parse(text, fields)
	require.NoError(t, err)
	m, ok := ranking.Parse(model)
	require.True(t, ok)
	hits, err := r.Search(context.Background(), q, m, maxHits)
	require.NoError(t, err)
	return hits
}

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/cranir/internal/ranking"
)

// countingReader is an IndexReader that serves stored fields from a map
// and counts lookups.
type countingReader struct {
	fields map[string]string
	calls  int
	err    error
}

func (r *countingReader) Parser() QueryParser           { return BleveQueryParser{} }
func (r *countingReader) Supports(m ranking.Model) bool { return m == ranking.BM25 }
func (r *countingReader) Models() []ranking.Model       { return []ranking.Model{ranking.BM25} }
func (r *countingReader) DocCount() (int, error)        { return len(r.fields), nil }
func (r *countingReader) Manifest() *Manifest           { return nil }
func (r *countingReader) Close() error                  { return nil }
func (r *countingReader) Search(context.Context, ParsedQuery, ranking.Model, int) ([]Hit, error) {
	return nil, nil
}

func (r *countingReader) StoredField(_ context.Context, id, field string) (string, bool, error) {
	r.calls++
	if r.err != nil {
		return "", false, r.err
	}
	v, ok := r.fields[id+"/"+field]
	return v, ok, nil
}

func TestCachedReader_CachesHitsAndMisses(t *testing.T) {
	// Given: a cached reader over a counting reader
	inner := &countingReader{fields: map[string]string{"1/docno": "184"}}
	cached := NewCachedReader(inner, 16)
	ctx := context.Background()

	// When: the same lookups repeat
	for i := 0; i < 3; i++ {
		v, ok, err := cached.StoredField(ctx, "1", FieldDocNo)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "184", v)

		_, ok, err = cached.StoredField(ctx, "2", FieldDocNo)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	// Then: the inner reader is asked once per key
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, cached.Len())
	assert.Equal(t, CacheStats{Hits: 4, Misses: 2}, cached.Stats())
}

func TestCachedReader_ErrorsNotCached(t *testing.T) {
	inner := &countingReader{err: errors.New("disk gone")}
	cached := NewCachedReader(inner, 0)

	_, _, err := cached.StoredField(context.Background(), "1", FieldDocNo)
	assert.Error(t, err)
	_, _, err = cached.StoredField(context.Background(), "1", FieldDocNo)
	assert.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, cached.Len())
}

func TestCachedReader_PassesThrough(t *testing.T) {
	inner := &countingReader{fields: map[string]string{"1/docno": "1"}}
	cached := NewCachedReader(inner, 4)

	assert.True(t, cached.Supports(ranking.BM25))
	assert.False(t, cached.Supports(ranking.Classic))
	n, err := cached.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Same(t, inner, cached.Inner())
}

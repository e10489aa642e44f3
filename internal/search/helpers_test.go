package search

import (
	"context"
	"errors"
	"strings"

	"github.com/Aman-CERP/cranir/internal/ranking"
	"github.com/Aman-CERP/cranir/internal/store"
)

// fakeQuery carries the raw text through fakeParser.
type fakeQuery struct{ text string }

func (q fakeQuery) String() string { return q.text }

// fakeParser fails on "parse-error" and reports an empty query for text
// made of punctuation only.
type fakeParser struct{}

func (fakeParser) Escape(text string) string { return text }

func (fakeParser) Parse(text string, _ []string) (store.ParsedQuery, error) {
	text = strings.TrimSpace(text)
	if strings.Contains(text, "parse-error") {
		return nil, errors.New("unbalanced expression")
	}
	if strings.Trim(text, "?!().") == "" {
		return nil, store.ErrEmptyQuery
	}
	return fakeQuery{text: text}, nil
}

// fakeReader answers queries from a fixed table keyed by query text.
type fakeReader struct {
	models  []ranking.Model
	hits    map[string][]store.Hit
	stored  map[string]string
	closed  bool
	lookups int

	searchedModel ranking.Model
	searchedMax   int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		models: []ranking.Model{ranking.Classic, ranking.BM25},
		hits:   make(map[string][]store.Hit),
		stored: make(map[string]string),
	}
}

func (r *fakeReader) Parser() store.QueryParser { return fakeParser{} }

func (r *fakeReader) Supports(model ranking.Model) bool {
	for _, m := range r.models {
		if m == model {
			return true
		}
	}
	return false
}

func (r *fakeReader) Models() []ranking.Model { return r.models }

func (r *fakeReader) Search(ctx context.Context, q store.ParsedQuery, model ranking.Model, maxHits int) ([]store.Hit, error) {
	if r.closed {
		return nil, store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.Contains(q.String(), "search-error") {
		return nil, errors.New("engine failure")
	}
	r.searchedModel = model
	r.searchedMax = maxHits
	hits := r.hits[q.String()]
	if len(hits) > maxHits {
		hits = hits[:maxHits]
	}
	return hits, nil
}

func (r *fakeReader) StoredField(_ context.Context, id, field string) (string, bool, error) {
	r.lookups++
	if field != store.FieldDocNo {
		return "", false, nil
	}
	v, ok := r.stored[id]
	return v, ok, nil
}

func (r *fakeReader) DocCount() (int, error)    { return len(r.stored), nil }
func (r *fakeReader) Manifest() *store.Manifest { return nil }

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

var _ store.IndexReader = (*fakeReader)(nil)

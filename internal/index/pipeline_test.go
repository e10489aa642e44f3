package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/cranir/internal/cranfield"
	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
	"github.com/Aman-CERP/cranir/internal/metrics"
	"github.com/Aman-CERP/cranir/internal/ranking"
	"github.com/Aman-CERP/cranir/internal/store"
	"github.com/Aman-CERP/cranir/internal/ui"
)

const corpus = `.I 1
.T
experimental investigation of the aerodynamics of a
wing in a slipstream .
.A
brenckman,m.
.B
j. ae. scs. 25, 1958, 324.
.W
the slipstream of a propeller changes the lift of a wing .
.I 2
.T
simple shear flow past a flat plate in an incompressible fluid
.W
viscous flow past a flat plate .
.I
.T
a record without an identifier
`

// MockRenderer records renderer calls.
type MockRenderer struct {
	ProgressEvents  []ui.ProgressEvent
	ErrorEvents     []ui.ErrorEvent
	CompletionStats ui.CompletionStats
	CompleteCalled  bool
}

func (m *MockRenderer) Start(context.Context) error { return nil }
func (m *MockRenderer) UpdateProgress(e ui.ProgressEvent) {
	m.ProgressEvents = append(m.ProgressEvents, e)
}
func (m *MockRenderer) AddError(e ui.ErrorEvent) { m.ErrorEvents = append(m.ErrorEvents, e) }
func (m *MockRenderer) Complete(s ui.CompletionStats) {
	m.CompleteCalled = true
	m.CompletionStats = s
}
func (m *MockRenderer) Stop() error { return nil }

// MockBackend records the documents a build submits.
type MockBackend struct {
	OpenError   error
	AddError    error
	FailAfter   int
	CommitError error

	Writer *MockWriter
}

func (b *MockBackend) Name() string { return "mock" }

func (b *MockBackend) OpenForWrite(_ context.Context, _ string) (store.IndexWriter, error) {
	if b.OpenError != nil {
		return nil, b.OpenError
	}
	b.Writer = &MockWriter{backend: b}
	return b.Writer, nil
}

// MockWriter is the writer handed out by MockBackend.
type MockWriter struct {
	backend   *MockBackend
	Docs      []*store.Document
	Committed bool
	Aborted   bool
}

func (w *MockWriter) Add(_ context.Context, doc *store.Document) error {
	if w.backend.AddError != nil && len(w.Docs) >= w.backend.FailAfter {
		return w.backend.AddError
	}
	w.Docs = append(w.Docs, doc)
	return nil
}

func (w *MockWriter) Commit() error {
	if w.backend.CommitError != nil {
		return w.backend.CommitError
	}
	w.Committed = true
	return nil
}

func (w *MockWriter) Abort() error {
	w.Aborted = true
	return nil
}

func TestBuildDocument_AllSections(t *testing.T) {
	rec := cranfield.Document{ID: "7", Title: "t\n", Authors: "a\n", Bibliography: "b\n", Abstract: "w\n"}

	doc := BuildDocument(3, rec)

	assert.Equal(t, 3, doc.Seq)
	assert.Equal(t, "7", doc.DocNo)
	assert.Equal(t, "t\n", doc.Title)
	assert.Equal(t, "t\n\na\n\nb\n\nw\n", doc.Content)
}

func TestBuildDocument_TitleOnly(t *testing.T) {
	// Given: a record with only a title
	rec := cranfield.Document{ID: "1", Title: "Hello\n"}

	// When: building the document
	doc := BuildDocument(1, rec)

	// Then: other fields are empty and the aggregate keeps its separators
	assert.Empty(t, doc.Authors)
	assert.Empty(t, doc.Bibliography)
	assert.Empty(t, doc.Abstract)
	assert.Equal(t, "Hello\n\n\n\n", doc.Content)
}

func TestBuildDocument_MissingIDUsesPosition(t *testing.T) {
	doc := BuildDocument(12, cranfield.Document{Title: "x\n"})

	assert.Equal(t, "seq-12", doc.DocNo)
	assert.NoError(t, doc.Validate())
}

func TestPipeline_Run_AddsInOrderAndCommits(t *testing.T) {
	// Given: a pipeline over a mock backend
	backend := &MockBackend{}
	renderer := &MockRenderer{}
	p := NewPipeline(backend, WithRenderer(renderer), WithTotal(3), WithProgressEvery(2))

	// When: indexing the corpus
	result, err := p.Run(context.Background(), cranfield.NewDocumentReader(strings.NewReader(corpus)), t.TempDir())

	// Then: every record is added in order and committed
	require.NoError(t, err)
	require.NotNil(t, backend.Writer)
	assert.True(t, backend.Writer.Committed)
	assert.False(t, backend.Writer.Aborted)
	require.Len(t, backend.Writer.Docs, 3)
	assert.Equal(t, []string{"1", "2", "seq-3"}, []string{
		backend.Writer.Docs[0].DocNo, backend.Writer.Docs[1].DocNo, backend.Writer.Docs[2].DocNo,
	})
	assert.Equal(t, 3, backend.Writer.Docs[2].Seq)

	assert.Equal(t, 3, result.Documents)
	assert.Equal(t, 1, result.MissingIDs)
	assert.Equal(t, "mock", result.Backend)

	// And: progress and the missing identifier are reported
	require.Len(t, renderer.ErrorEvents, 1)
	assert.True(t, renderer.ErrorEvents[0].IsWarn)
	assert.True(t, renderer.CompleteCalled)
	assert.Equal(t, 3, renderer.CompletionStats.Documents)

	var committing bool
	for _, e := range renderer.ProgressEvents {
		if e.Stage == ui.StageCommitting {
			committing = true
		}
	}
	assert.True(t, committing)
}

func TestPipeline_Run_DuplicateIDsAreKept(t *testing.T) {
	backend := &MockBackend{}
	src := cranfield.NewDocumentReader(strings.NewReader(".I 5\n.T\na\n.I 5\n.T\nb\n"))

	result, err := NewPipeline(backend).Run(context.Background(), src, t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Documents)
	assert.Equal(t, "5", backend.Writer.Docs[1].DocNo)
	assert.Equal(t, 2, backend.Writer.Docs[1].Seq)
}

func TestPipeline_Run_EmptyCorpus(t *testing.T) {
	backend := &MockBackend{}

	result, err := NewPipeline(backend).Run(context.Background(), cranfield.NewDocumentReader(strings.NewReader("")), t.TempDir())

	require.NoError(t, err)
	assert.Zero(t, result.Documents)
	assert.True(t, backend.Writer.Committed)
}

func TestPipeline_Run_AddFailureAborts(t *testing.T) {
	// Given: a backend failing on the second document
	backend := &MockBackend{AddError: errors.New("segment write failed"), FailAfter: 1}

	// When: indexing
	_, err := NewPipeline(backend).Run(context.Background(), cranfield.NewDocumentReader(strings.NewReader(corpus)), t.TempDir())

	// Then: the build is aborted with a write error
	require.Error(t, err)
	assert.Equal(t, cranerrors.ErrCodeWriteFailed, cranerrors.GetCode(err))
	require.ErrorIs(t, err, backend.AddError)
	cause := errors.Unwrap(err)
	require.NotNil(t, cause)
	assert.Contains(t, cause.Error(), "document 2")
	assert.True(t, backend.Writer.Aborted)
	assert.False(t, backend.Writer.Committed)
}

func TestPipeline_Run_CommitFailureAborts(t *testing.T) {
	backend := &MockBackend{CommitError: errors.New("fsync failed")}

	_, err := NewPipeline(backend).Run(context.Background(), cranfield.NewDocumentReader(strings.NewReader(corpus)), t.TempDir())

	assert.Equal(t, cranerrors.ErrCodeWriteFailed, cranerrors.GetCode(err))
	assert.True(t, backend.Writer.Aborted)
}

func TestPipeline_Run_OpenErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"locked", store.ErrIndexLocked, cranerrors.ErrCodeIndexLocked},
		{"permission", &os.PathError{Op: "mkdir", Path: "/x", Err: os.ErrPermission}, cranerrors.ErrCodeFilePermission},
		{"other", errors.New("boom"), cranerrors.ErrCodeWriteFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &MockBackend{OpenError: tt.err}

			_, err := NewPipeline(backend).Run(context.Background(), cranfield.NewDocumentReader(strings.NewReader(corpus)), "/x")

			assert.Equal(t, tt.code, cranerrors.GetCode(err))
			assert.Equal(t, cranerrors.CategoryIO, cranerrors.GetCategory(err))
			assert.Nil(t, backend.Writer)
		})
	}
}

func TestPipeline_Run_ReadFailureAborts(t *testing.T) {
	// Given: a corpus whose second line exceeds the line limit
	input := ".I 1\n.W\n" + strings.Repeat("x", 2*1024*1024) + "\n"
	backend := &MockBackend{}

	// When: indexing
	_, err := NewPipeline(backend).Run(context.Background(), cranfield.NewDocumentReader(strings.NewReader(input)), t.TempDir())

	// Then: the read error is an IO error and the writer is aborted
	assert.Equal(t, cranerrors.CategoryIO, cranerrors.GetCategory(err))
	assert.True(t, backend.Writer.Aborted)
}

func TestPipeline_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	backend := &MockBackend{}

	_, err := NewPipeline(backend).Run(ctx, cranfield.NewDocumentReader(strings.NewReader(corpus)), t.TempDir())

	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, backend.Writer.Aborted)
}

func TestPipeline_Run_RequiresSource(t *testing.T) {
	_, err := NewPipeline(&MockBackend{}).Run(context.Background(), nil, t.TempDir())

	assert.Equal(t, cranerrors.ErrCodeInternal, cranerrors.GetCode(err))
}

func TestPipeline_Run_BleveIndex(t *testing.T) {
	// Given: a real bleve backend and a metrics registry
	dir := filepath.Join(t.TempDir(), "index")
	backend := store.NewBleveBackend(store.DefaultBleveConfig())
	m := metrics.New()

	// When: indexing the corpus
	result, err := NewPipeline(backend, WithMetrics(m)).
		Run(context.Background(), cranfield.NewDocumentReader(strings.NewReader(corpus)), dir)

	// Then: the manifest describes a complete index with both models
	require.NoError(t, err)
	assert.Equal(t, []ranking.Model{ranking.Classic, ranking.BM25}, result.Models)
	manifest, err := store.ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, manifest.Documents)

	// And: the stored identifiers come back by position
	r, err := backend.OpenForRead(context.Background(), dir)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	docNo, ok, err := r.StoredField(context.Background(), "3", store.FieldDocNo)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", docNo)

	// And: the metrics count every document
	path := filepath.Join(t.TempDir(), "index.prom")
	require.NoError(t, m.WriteToTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cranir_documents_indexed_total 3")
}

// Package index builds search indexes from Cranfield document files.
package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Aman-CERP/cranir/internal/cranfield"
	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
	"github.com/Aman-CERP/cranir/internal/metrics"
	"github.com/Aman-CERP/cranir/internal/ranking"
	"github.com/Aman-CERP/cranir/internal/store"
	"github.com/Aman-CERP/cranir/internal/ui"
)

// DefaultProgressEvery is how many documents pass between progress events.
const DefaultProgressEvery = 50

// Result contains the outcome of an indexing run.
type Result struct {
	// Documents is the number of documents committed.
	Documents int

	// MissingIDs counts documents stored under their position because the
	// record had no identifier.
	MissingIDs int

	// Duration is the total indexing time.
	Duration time.Duration

	// Backend is the engine that built the index.
	Backend string

	// Models are the ranking models the index can serve.
	Models []ranking.Model

	// Path is the index directory.
	Path string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRenderer reports progress to r.
func WithRenderer(r ui.Renderer) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.renderer = r
		}
	}
}

// WithTotal sets the expected number of documents for progress display.
func WithTotal(n int) Option {
	return func(p *Pipeline) {
		p.total = n
	}
}

// WithMetrics records indexing counters in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithProgressEvery emits a progress event every n documents.
func WithProgressEvery(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.every = n
		}
	}
}

// Pipeline feeds parsed documents to an indexing backend.
type Pipeline struct {
	backend  store.IndexingBackend
	renderer ui.Renderer
	metrics  *metrics.Metrics
	total    int
	every    int
}

// NewPipeline creates a Pipeline writing through backend.
func NewPipeline(backend store.IndexingBackend, opts ...Option) *Pipeline {
	p := &Pipeline{
		backend:  backend,
		renderer: ui.Nop(),
		every:    DefaultProgressEvery,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run indexes every record of src into indexPath, replacing any index
// already there. Documents are added in input order without deduplication
// and committed once the stream is exhausted. On failure the build is
// aborted and indexPath holds no valid index.
func (p *Pipeline) Run(ctx context.Context, src *cranfield.DocumentReader, indexPath string) (*Result, error) {
	if p.backend == nil {
		return nil, cranerrors.InternalError("indexing backend is required", nil)
	}
	if src == nil {
		return nil, cranerrors.InternalError("document source is required", nil)
	}

	start := time.Now()
	slog.Info("index_started",
		slog.String("backend", p.backend.Name()),
		slog.String("path", indexPath))

	w, err := p.backend.OpenForWrite(ctx, indexPath)
	if err != nil {
		return nil, classifyWriteError(indexPath, err)
	}

	result := &Result{
		Backend: p.backend.Name(),
		Path:    indexPath,
	}
	if err := p.addAll(ctx, w, src, result); err != nil {
		if abortErr := w.Abort(); abortErr != nil {
			slog.Warn("index_abort_failed",
				slog.String("path", indexPath),
				slog.String("error", abortErr.Error()))
		}
		return nil, err
	}

	p.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageCommitting,
		Current: result.Documents,
		Message: "flushing",
	})
	if err := w.Commit(); err != nil {
		_ = w.Abort()
		return nil, classifyWriteError(indexPath, err)
	}

	if m, err := store.ReadManifest(indexPath); err == nil {
		result.Models = m.Models
	}
	result.Duration = time.Since(start)
	p.metrics.IndexFinished(result.Duration)

	p.renderer.Complete(ui.CompletionStats{
		Title:     "Indexing complete",
		Documents: result.Documents,
		Duration:  result.Duration,
		Warnings:  result.MissingIDs,
		Output:    indexPath,
	})

	slog.Info("index_complete",
		slog.String("backend", result.Backend),
		slog.Int("documents", result.Documents),
		slog.Int("missing_ids", result.MissingIDs),
		slog.Int64("duration_ms", result.Duration.Milliseconds()),
		slog.String("path", indexPath))

	return result, nil
}

func (p *Pipeline) addAll(ctx context.Context, w store.IndexWriter, src *cranfield.DocumentReader, result *Result) error {
	p.renderer.UpdateProgress(ui.ProgressEvent{
		Stage: ui.StageIndexing,
		Total: p.total,
	})

	seq := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return cranerrors.IOError("failed to read corpus", err).
				WithSuggestion("Check that the corpus is a Cranfield file with .I markers")
		}

		seq++
		doc := BuildDocument(seq, rec)
		if rec.ID == "" {
			result.MissingIDs++
			p.renderer.AddError(ui.ErrorEvent{
				Item:   doc.DocNo,
				Err:    fmt.Errorf("record %d has no identifier, stored as %s", seq, doc.DocNo),
				IsWarn: true,
			})
			slog.Warn("index_document_without_id",
				slog.Int("seq", seq),
				slog.Int("line", src.Line()))
		}

		if err := w.Add(ctx, doc); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return classifyWriteError(result.Path, fmt.Errorf("document %s: %w", doc.DocNo, err))
		}
		result.Documents++
		p.metrics.DocumentIndexed()

		if result.Documents%p.every == 0 {
			p.renderer.UpdateProgress(ui.ProgressEvent{
				Stage:   ui.StageIndexing,
				Current: result.Documents,
				Total:   p.total,
				Item:    doc.DocNo,
			})
		}
	}

	p.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageIndexing,
		Current: result.Documents,
		Total:   p.total,
	})
	return nil
}

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/Aman-CERP/cranir/internal/cranfield"
	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
	"github.com/Aman-CERP/cranir/internal/metrics"
	"github.com/Aman-CERP/cranir/internal/ranking"
	"github.com/Aman-CERP/cranir/internal/store"
	"github.com/Aman-CERP/cranir/internal/ui"
)

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

// WithMetrics records query outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithTotal sets the expected number of queries for progress display.
func WithTotal(n int) Option {
	return func(p *Pipeline) {
		p.total = n
	}
}

// Pipeline runs query batches against one index.
type Pipeline struct {
	reader   store.IndexReader
	cfg      Config
	model    ranking.Model
	warnings []error
	renderer ui.Renderer
	metrics  *metrics.Metrics
	total    int
}

// NewPipeline validates cfg against reader and resolves the ranking model.
// A model fallback is not an error; it is reported by Warnings.
func NewPipeline(reader store.IndexReader, cfg Config, opts ...Option) (*Pipeline, error) {
	if reader == nil {
		return nil, cranerrors.InternalError("index reader is required", nil)
	}
	if cfg.MaxHits <= 0 {
		return nil, cranerrors.UsageError(fmt.Sprintf("max hits must be a positive integer, got %d", cfg.MaxHits)).
			WithSuggestion("Pass --max-hits 100 or another positive number")
	}
	if len(cfg.Fields) == 0 {
		cfg.Fields = []string{store.DefaultSearchField}
	}
	if err := store.ValidateSearchFields(cfg.Fields); err != nil {
		return nil, cranerrors.New(cranerrors.ErrCodeUsage, err.Error(), err).
			WithSuggestion(fmt.Sprintf("Searchable fields: %v", store.TokenizedFields()))
	}

	p := &Pipeline{
		reader:   reader,
		cfg:      cfg,
		renderer: ui.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	model, warn := ResolveModel(cfg.Model, reader)
	p.model = model
	if warn != nil {
		p.warnings = append(p.warnings, warn)
		p.metrics.ModelFallback()
		slog.Warn("ranking_model_fallback",
			slog.String("requested", cfg.Model),
			slog.String("model", model.String()),
			slog.String("code", warn.Code))
	}
	return p, nil
}

// Model returns the model queries are ranked with.
func (p *Pipeline) Model() ranking.Model {
	return p.model
}

// Fields returns the fields queries are matched against.
func (p *Pipeline) Fields() []string {
	return append([]string(nil), p.cfg.Fields...)
}

// Warnings returns the recoverable configuration problems found while
// setting up the batch.
func (p *Pipeline) Warnings() []error {
	return append([]error(nil), p.warnings...)
}

// Run executes every query of src. A query that cannot be parsed or
// searched is skipped and recorded in the summary; the batch continues.
// Results are ordered by ascending query id.
func (p *Pipeline) Run(ctx context.Context, src *cranfield.QueryReader) ([]QueryResult, *Summary, error) {
	if src == nil {
		return nil, nil, cranerrors.InternalError("query source is required", nil)
	}

	start := time.Now()
	summary := &Summary{
		Model:    p.model,
		Fallback: len(p.warnings) > 0,
	}
	var results []QueryResult

	p.renderer.UpdateProgress(ui.ProgressEvent{
		Stage: ui.StageSearching,
		Total: p.total,
	})

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		q, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, cranerrors.IOError("failed to read queries", err).
				WithSuggestion("Check that the query file is a Cranfield file with .I and .W markers")
		}

		summary.Queries++
		id := p.queryID(q, summary.Queries)

		result, err := p.runQuery(ctx, q, id, summary.Queries)
		switch {
		case err == nil:
			results = append(results, result)
			summary.Searched++
			summary.Hits += len(result.Hits)
		case ctx.Err() != nil:
			return nil, nil, ctx.Err()
		case errors.Is(err, store.ErrClosed):
			return nil, nil, cranerrors.InternalError("index closed during search", err)
		default:
			p.skip(summary, id, err)
		}

		p.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageSearching,
			Current: summary.Queries,
			Total:   p.total,
			Item:    id,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return cranfield.CompareIDs(results[i].QueryID, results[j].QueryID) < 0
	})

	summary.Duration = time.Since(start)
	slog.Info("search_complete",
		slog.String("model", p.model.String()),
		slog.Int("queries", summary.Queries),
		slog.Int("searched", summary.Searched),
		slog.Int("empty", summary.Empty),
		slog.Int("failed", summary.Failed),
		slog.Int("hits", summary.Hits),
		slog.Int64("duration_ms", summary.Duration.Milliseconds()))

	return results, summary, nil
}

// queryID returns the id written for a query at 1-based position.
func (p *Pipeline) queryID(q cranfield.Query, position int) string {
	if p.cfg.Renumber || q.ID == "" {
		return strconv.Itoa(position)
	}
	return cranfield.CanonicalID(q.ID)
}

func (p *Pipeline) runQuery(ctx context.Context, q cranfield.Query, id string, position int) (QueryResult, error) {
	if q.Blank() {
		return QueryResult{}, cranerrors.New(cranerrors.ErrCodeQueryEmpty, "query "+id+" has no text", store.ErrEmptyQuery)
	}

	start := time.Now()
	parsed, err := p.reader.Parser().Parse(q.Text, p.cfg.Fields)
	if errors.Is(err, store.ErrEmptyQuery) {
		return QueryResult{}, cranerrors.New(cranerrors.ErrCodeQueryEmpty, "query "+id+" has no searchable terms", err)
	}
	if err != nil {
		return QueryResult{}, cranerrors.QueryError("cannot parse query "+id, err)
	}

	hits, err := p.reader.Search(ctx, parsed, p.model, p.cfg.MaxHits)
	if err != nil {
		if errors.Is(err, store.ErrClosed) || ctx.Err() != nil {
			return QueryResult{}, err
		}
		return QueryResult{}, cranerrors.New(cranerrors.ErrCodeQueryFailed, "search failed for query "+id, err)
	}

	ranked := make([]RankedHit, len(hits))
	for i, h := range hits {
		ranked[i] = RankedHit{
			Rank:       i + 1,
			DocNo:      p.resolveDocNo(ctx, h),
			Score:      h.Score,
			InternalID: h.InternalID,
		}
	}

	p.metrics.ObserveQuery(metrics.OutcomeOK, len(ranked), time.Since(start))
	slog.Debug("search_query_complete",
		slog.String("query", id),
		slog.Int("hits", len(ranked)),
		slog.Int64("duration_us", time.Since(start).Microseconds()))

	return QueryResult{
		QueryID:  id,
		SourceID: q.ID,
		Position: position,
		Hits:     ranked,
	}, nil
}

// resolveDocNo returns the external identifier of a hit: the docno the
// engine returned, else the stored docno, else the marked fallback of the
// internal id.
func (p *Pipeline) resolveDocNo(ctx context.Context, h store.Hit) string {
	if h.DocNo != "" {
		return h.DocNo
	}
	docNo, ok, err := p.reader.StoredField(ctx, h.InternalID, store.FieldDocNo)
	if err != nil {
		slog.Debug("search_docno_lookup_failed",
			slog.String("id", h.InternalID),
			slog.String("error", err.Error()))
	}
	if ok && docNo != "" {
		return docNo
	}
	return store.FallbackDocNo(h.InternalID)
}

func (p *Pipeline) skip(summary *Summary, id string, err error) {
	outcome := metrics.OutcomeFailed
	if cranerrors.GetCode(err) == cranerrors.ErrCodeQueryEmpty {
		outcome = metrics.OutcomeEmpty
		summary.Empty++
	} else {
		summary.Failed++
	}
	summary.Skipped = append(summary.Skipped, err)
	p.metrics.ObserveQuery(outcome, 0, 0)

	p.renderer.AddError(ui.ErrorEvent{
		Item:   "query " + id,
		Err:    err,
		IsWarn: true,
	})
	attrs := append([]any{
		slog.String("query", id),
		slog.String("outcome", outcome),
	}, cranerrors.LogAttrs(err)...)
	slog.Warn("search_query_skipped", attrs...)
}

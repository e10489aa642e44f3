package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cranir/internal/cranfield"
	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
	"github.com/Aman-CERP/cranir/internal/output"
	"github.com/Aman-CERP/cranir/internal/runfile"
	"github.com/Aman-CERP/cranir/internal/search"
	"github.com/Aman-CERP/cranir/internal/ui"
)

const searchUsage = "cranir search --index <dir> --queries <file> --output <file> [--model bm25] [--max-hits 1000]"

type searchOptions struct {
	indexDir string
	queries  string
	output   string
	model    string
	maxHits  int
	fields   []string
	renumber bool
	runTag   string
}

func newSearchCmd(g *globals) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [index-dir] [queries] [output] [model] [max-hits]",
		Short: "Run a Cranfield query file and write a TREC run file",
		Long: `Run every query of a Cranfield query file (cran.qry) against an index and
write the ranked hits as a TREC run file:

  <query-id> Q0 <docno> <rank> <score> <run-tag>

Models:
  bm25      Okapi BM25 (default)
  classic   TF-IDF vector space (bleve backend only)

Other model names (lm-dirichlet, dfr, anything unknown) fall back to bm25
with a warning; the run still completes. Queries that cannot be parsed are
skipped with a warning.

The older positional form 'cranir search <index-dir> <queries> <output>
<model> <max-hits>' is still accepted; flags win when both are given.`,
		Example: `  cranir search --index ./index --queries cran.qry --output run.txt
  cranir search --index ./index --queries cran.qry --output run.txt --model classic --max-hits 100
  cranir search ./index cran.qry run.txt bm25 1000`,
		Args: maxArgs(5, searchUsage),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.indexDir = pick(cmd, "index", opts.indexDir, args, 0)
			opts.queries = pick(cmd, "queries", opts.queries, args, 1)
			opts.output = pick(cmd, "output", opts.output, args, 2)
			opts.model = pick(cmd, "model", opts.model, args, 3)
			if !cmd.Flags().Changed("max-hits") && len(args) > 4 {
				n, err := strconv.Atoi(args[4])
				if err != nil {
					return cranerrors.UsageError(fmt.Sprintf("max hits must be an integer, got %q", args[4])).
						WithSuggestion("Usage: " + searchUsage)
				}
				opts.maxHits = n
			} else if !cmd.Flags().Changed("max-hits") {
				opts.maxHits = g.effectiveConfig().Search.MaxHits
			}
			return runSearch(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.indexDir, "index", "", "Index directory built by 'cranir index'")
	cmd.Flags().StringVar(&opts.queries, "queries", "", "Cranfield query file")
	cmd.Flags().StringVar(&opts.output, "output", "", "Run file to write")
	cmd.Flags().StringVar(&opts.model, "model", "", "Ranking model (default from config: bm25)")
	cmd.Flags().IntVar(&opts.maxHits, "max-hits", 0, "Hits retrieved per query (default from config: 1000)")
	cmd.Flags().StringSliceVar(&opts.fields, "fields", nil, "Fields to search (default: content)")
	cmd.Flags().BoolVar(&opts.renumber, "renumber", false, "Number queries by position instead of their .I id")
	cmd.Flags().StringVar(&opts.runTag, "run-tag", "", "Run tag prefix (default: the backend name)")

	return cmd
}

func runSearch(cmd *cobra.Command, g *globals, opts searchOptions) error {
	ctx := cmd.Context()
	cfg := g.effectiveConfig()

	for _, req := range []struct{ value, flag string }{
		{opts.indexDir, "index"},
		{opts.queries, "queries"},
		{opts.output, "output"},
	} {
		if err := requireValue(req.value, req.flag, searchUsage); err != nil {
			return err
		}
	}
	if opts.maxHits <= 0 {
		return cranerrors.UsageError(fmt.Sprintf("max hits must be a positive integer, got %d", opts.maxHits)).
			WithSuggestion("Pass --max-hits 1000 or another positive number")
	}

	searchCfg := search.Config{
		Model:    cfg.Search.Model,
		MaxHits:  opts.maxHits,
		Fields:   cfg.Search.Fields,
		Renumber: cfg.Search.RenumberQueries || opts.renumber,
	}
	if opts.model != "" {
		searchCfg.Model = opts.model
	}
	if len(opts.fields) > 0 {
		searchCfg.Fields = opts.fields
	}

	reader, err := openIndex(ctx, opts.indexDir, cfg.Search.CacheSize)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	total, err := cranfield.CountRecordsFile(opts.queries)
	if err != nil {
		total = 0
	}
	f, err := openInput("query", opts.queries)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	renderer := newRenderer(cmd, g, "cranir search")
	pipeline, err := search.NewPipeline(reader, searchCfg,
		search.WithRenderer(renderer),
		search.WithMetrics(g.metrics),
		search.WithTotal(total))
	if err != nil {
		return err
	}

	if err := renderer.Start(ctx); err != nil {
		return cranerrors.InternalError("failed to start progress display", err)
	}
	results, summary, err := pipeline.Run(ctx, cranfield.NewQueryReader(f))
	if err != nil {
		_ = renderer.Stop()
		return err
	}

	prefix := cfg.Search.RunTagPrefix
	if opts.runTag != "" {
		prefix = opts.runTag
	}
	if prefix == "" {
		prefix = reader.Manifest().Backend
	}
	runTag := runfile.RunTag(prefix, summary.Model.String())

	lines, err := writeRunFile(opts.output, runTag, cfg.Search.ScorePrecision, results, renderer)
	if err != nil {
		_ = renderer.Stop()
		return err
	}

	warnings := pipeline.Warnings()
	renderer.Complete(ui.CompletionStats{
		Title:    "Search complete",
		Queries:  summary.Searched,
		Hits:     summary.Hits,
		Skipped:  summary.Empty + summary.Failed,
		Duration: summary.Duration,
		Warnings: len(warnings) + len(summary.Skipped),
		Output:   opts.output,
	})
	_ = renderer.Stop()

	errOut := output.New(cmd.ErrOrStderr())
	for _, w := range warnings {
		printWarning(errOut, w)
	}
	for _, skipped := range summary.Skipped {
		printWarning(errOut, skipped)
	}
	if n := len(summary.Skipped); n > 0 {
		errOut.Warningf("%d of %d queries skipped", n, summary.Queries)
	}

	out := output.New(cmd.OutOrStdout())
	out.Successf("Wrote %d lines for %d queries to %s", lines, len(results), opts.output)
	out.KeyValue("Model", summary.Model.String())
	out.KeyValue("Run tag", runTag)

	stats := reader.Stats()
	slog.Debug("docno_cache_stats",
		slog.Int("hits", stats.Hits),
		slog.Int("misses", stats.Misses))
	slog.Info("search_complete",
		slog.String("output", opts.output),
		slog.String("run_tag", runTag),
		slog.Int("queries", summary.Queries),
		slog.Int("lines", lines),
		slog.Duration("duration", summary.Duration))
	return nil
}

// writeRunFile writes results to path atomically. On failure the previous
// file at path, if any, is left untouched.
func writeRunFile(path, runTag string, precision int, results []search.QueryResult, renderer ui.Renderer) (int, error) {
	file, err := runfile.CreateFile(path)
	if err != nil {
		return 0, classifyRunFileError(path, err)
	}

	w := runfile.NewWriter(file, runTag, runfile.WithPrecision(precision))
	for i, r := range results {
		if err := w.WriteQuery(r.QueryID, r.Lines()); err != nil {
			_ = file.Discard()
			return 0, classifyRunFileError(path, err)
		}
		renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageWriting,
			Current: i + 1,
			Total:   len(results),
			Item:    r.QueryID,
		})
	}
	if err := w.Flush(); err != nil {
		_ = file.Discard()
		return 0, classifyRunFileError(path, err)
	}
	if err := file.Close(); err != nil {
		return 0, classifyRunFileError(path, err)
	}
	return w.Lines(), nil
}

func classifyRunFileError(path string, err error) error {
	var ce *cranerrors.CranError
	switch {
	case errors.Is(err, runfile.ErrInvalidLine):
		ce = cranerrors.InternalError("refusing to write a malformed run line", err)
	case errors.Is(err, os.ErrPermission):
		ce = cranerrors.New(cranerrors.ErrCodeFilePermission, fmt.Sprintf("cannot write run file %s", path), err)
	case errors.Is(err, syscall.ENOSPC):
		ce = cranerrors.New(cranerrors.ErrCodeDiskFull, "disk full while writing run file", err)
	default:
		ce = cranerrors.New(cranerrors.ErrCodeWriteFailed, fmt.Sprintf("failed to write run file %s", path), err)
	}
	return ce.WithDetail("output", path)
}

// printWarning prints a recoverable error as a warning line with its hint.
func printWarning(out *output.Writer, err error) {
	ce, ok := cranerrors.As(err)
	if !ok {
		out.Warning(err.Error())
		return
	}
	out.Warningf("%s (%s)", ce.Message, ce.Code)
	if ce.Cause != nil {
		out.Status("", ce.Cause.Error())
	}
	if ce.Suggestion != "" {
		out.Status("", ce.Suggestion)
	}
}

package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cranir/internal/cranfield"
	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
	"github.com/Aman-CERP/cranir/internal/index"
	"github.com/Aman-CERP/cranir/internal/output"
	"github.com/Aman-CERP/cranir/internal/preflight"
	"github.com/Aman-CERP/cranir/internal/ranking"
	"github.com/Aman-CERP/cranir/internal/store"
)

const indexUsage = "cranir index --corpus <file> --index <dir> [--backend bleve|sqlite]"

type indexOptions struct {
	corpus    string
	indexDir  string
	backend   string
	models    []string
	analyzer  string
	batchSize int
	skipCheck bool
}

func newIndexCmd(g *globals) *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index [corpus] [index-dir]",
		Short: "Build a full-text index from a Cranfield document file",
		Long: `Parse a Cranfield document file (cran.all.1400) and build a fresh index.

Every .I record becomes one document with its title, authors, bibliography
and abstract, plus an aggregate content field searched by default. Any
previous index in the directory is replaced.

Backend Selection:
  --backend=bleve    bleve v2, one sub-index per scoring model (default)
  --backend=sqlite   SQLite FTS5, bm25 only

The older positional form 'cranir index <corpus> <index-dir>' is still
accepted; flags win when both are given.`,
		Example: `  cranir index --corpus cran.all.1400 --index ./index
  cranir index --corpus cran.all.1400 --index ./index --backend sqlite
  cranir index cran.all.1400 ./index`,
		Args: maxArgs(2, indexUsage),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.corpus = pick(cmd, "corpus", opts.corpus, args, 0)
			opts.indexDir = pick(cmd, "index", opts.indexDir, args, 1)
			return runIndex(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.corpus, "corpus", "", "Cranfield document file")
	cmd.Flags().StringVar(&opts.indexDir, "index", "", "Index directory to create")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Index backend: bleve or sqlite (default from config)")
	cmd.Flags().StringSliceVar(&opts.models, "models", nil, "Scoring models to build, e.g. classic,bm25")
	cmd.Flags().StringVar(&opts.analyzer, "analyzer", "", "Text analyzer: en or standard")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Documents per engine batch")
	cmd.Flags().BoolVar(&opts.skipCheck, "skip-check", false, "Skip pre-flight system checks")

	cmd.AddCommand(newIndexInfoCmd())

	return cmd
}

func runIndex(cmd *cobra.Command, g *globals, opts indexOptions) error {
	ctx := cmd.Context()
	cfg := g.effectiveConfig()

	if err := requireValue(opts.corpus, "corpus", indexUsage); err != nil {
		return err
	}
	if err := requireValue(opts.indexDir, "index", indexUsage); err != nil {
		return err
	}

	backendName := cfg.Index.Backend
	if opts.backend != "" {
		backendName = strings.ToLower(opts.backend)
	}
	modelNames := cfg.Index.Models
	if len(opts.models) > 0 {
		modelNames = opts.models
	}
	analyzer := cfg.Index.Analyzer
	if opts.analyzer != "" {
		analyzer = opts.analyzer
	}
	batchSize := cfg.Index.BatchSize
	if cmd.Flags().Changed("batch-size") {
		if opts.batchSize <= 0 {
			return cranerrors.UsageError(fmt.Sprintf("batch size must be positive, got %d", opts.batchSize))
		}
		batchSize = opts.batchSize
	}

	errOut := output.New(cmd.ErrOrStderr())
	models, unknown := ranking.ParseList(modelNames)
	for _, name := range unknown {
		warn := cranerrors.ConfigError(fmt.Sprintf("unknown ranking model %q ignored", name), nil)
		errOut.Warning(warn.Message)
		slog.Warn("index_model_unknown", slog.String("model", name))
	}

	backend, err := store.NewBackend(backendName, store.Options{
		Models:    models,
		Analyzer:  analyzer,
		BatchSize: batchSize,
	})
	if err != nil {
		return cranerrors.New(cranerrors.ErrCodeUsage, err.Error(), err).
			WithSuggestion("Usage: " + indexUsage)
	}

	if !opts.skipCheck {
		checker := preflight.New(preflight.WithOutput(cmd.ErrOrStderr()))
		results := checker.RunAll(ctx, preflight.Targets{Corpus: opts.corpus, IndexDir: opts.indexDir})
		if failed, ok := checker.FirstCritical(results); ok {
			checker.PrintResults(results)
			return cranerrors.IOError(fmt.Sprintf("pre-flight check failed: %s", failed.Message), nil).
				WithDetail("check", failed.Name).
				WithSuggestion("Run 'cranir doctor' for the full report, or --skip-check to bypass")
		}
	}

	total, err := cranfield.CountRecordsFile(opts.corpus)
	if err != nil {
		slog.Debug("index_count_failed", slog.String("error", err.Error()))
		total = 0
	}

	f, err := openInput("corpus", opts.corpus)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	renderer := newRenderer(cmd, g, "cranir index")
	if err := renderer.Start(ctx); err != nil {
		return cranerrors.InternalError("failed to start progress display", err)
	}

	pipeline := index.NewPipeline(backend,
		index.WithRenderer(renderer),
		index.WithTotal(total),
		index.WithMetrics(g.metrics))
	result, err := pipeline.Run(ctx, cranfield.NewDocumentReader(f), opts.indexDir)
	_ = renderer.Stop()
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if result.MissingIDs > 0 {
		errOut.Warningf("%d documents had no .I identifier and were stored under their position", result.MissingIDs)
	}
	out.Successf("Indexed %d documents into %s", result.Documents, result.Path)
	out.KeyValue("Backend", result.Backend)
	out.KeyValue("Models", joinModels(result.Models))
	return nil
}

func joinModels(models []ranking.Model) string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}

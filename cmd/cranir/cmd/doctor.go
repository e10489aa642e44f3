package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
	"github.com/Aman-CERP/cranir/internal/preflight"
)

type doctorOptions struct {
	corpus     string
	queries    string
	indexDir   string
	verbose    bool
	jsonOutput bool
}

func newDoctorCmd() *cobra.Command {
	var opts doctorOptions

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system requirements and diagnose issues",
		Long: `Run system diagnostics before indexing or searching.

Checks:
  - Corpus and query files exist and contain .I records
  - Disk space (100MB minimum) at the index location
  - Write permissions for the index directory
  - Existing index manifest is valid
  - File descriptor limit (warning only)

Use --verbose for detailed diagnostic information.
Use --json for machine-readable output.`,
		Example: `  # Check a corpus and the index directory it will be written to
  cranir doctor --corpus cran.all.1400 --index ./index

  # Check an existing index before searching
  cranir doctor --queries cran.qry --index ./index --json`,
		Args: maxArgs(0, "cranir doctor [--corpus <file>] [--queries <file>] [--index <dir>]"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.corpus, "corpus", "", "Cranfield document file to check")
	cmd.Flags().StringVar(&opts.queries, "queries", "", "Cranfield query file to check")
	cmd.Flags().StringVar(&opts.indexDir, "index", "", "Index directory to check")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runDoctor(cmd *cobra.Command, opts doctorOptions) error {
	checker := preflight.New(
		preflight.WithVerbose(opts.verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)

	targets := preflight.Targets{
		Corpus:   opts.corpus,
		Queries:  opts.queries,
		IndexDir: opts.indexDir,
	}
	// A query file is only useful against a built index.
	targets.ExistingIndex = opts.queries != "" && opts.corpus == ""

	results := checker.RunAll(cmd.Context(), targets)

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Status string                  `json:"status"`
			Checks []preflight.CheckResult `json:"checks"`
		}{checker.SummaryStatus(results), results}); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if failed, ok := checker.FirstCritical(results); ok {
		return cranerrors.IOError("system check failed: "+failed.Message, nil).
			WithDetail("check", failed.Name)
	}
	return nil
}

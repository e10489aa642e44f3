package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
	"github.com/Aman-CERP/cranir/internal/output"
	"github.com/Aman-CERP/cranir/internal/runfile"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <run-file>",
		Short: "Check the format and ordering of a TREC run file",
		Long: `Check that every line of a run file has the six TREC fields, that each
query's lines are contiguous with queries in ascending id order, and that
ranks start at 1 with non-increasing scores.`,
		Args: exactArgs(1, "cranir validate <run-file>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, path string) error {
	f, err := openInput("run", path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	lines, err := runfile.Parse(f)
	if err != nil {
		return invalidRunFile(path, err)
	}
	if err := runfile.Validate(lines); err != nil {
		return invalidRunFile(path, err)
	}

	s := runfile.Summarize(lines)
	out := output.New(cmd.OutOrStdout())
	out.Successf("%s is a valid run file", path)
	out.KeyValue("Lines", s.Lines)
	out.KeyValue("Queries", s.Queries)
	out.KeyValue("Run tags", strings.Join(s.Tags, ", "))
	return nil
}

func invalidRunFile(path string, err error) error {
	return cranerrors.New(cranerrors.ErrCodeInvalidRunFile, fmt.Sprintf("invalid run file %s", path), err).
		WithDetail("file", path)
}

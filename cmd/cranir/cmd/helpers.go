package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
	"github.com/Aman-CERP/cranir/internal/store"
	"github.com/Aman-CERP/cranir/internal/ui"
)

// maxArgs is cobra.MaximumNArgs returning a usage error.
func maxArgs(n int, usage string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) > n {
			return cranerrors.UsageError(fmt.Sprintf("too many arguments: got %d, accepts at most %d", len(args), n)).
				WithSuggestion("Usage: " + usage)
		}
		return nil
	}
}

// exactArgs is cobra.ExactArgs returning a usage error.
func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return cranerrors.UsageError(fmt.Sprintf("expected %d argument(s), got %d", n, len(args))).
				WithSuggestion("Usage: " + usage)
		}
		return nil
	}
}

// pick returns the flag value when the flag was set, else the positional
// argument at i when present, else the flag's default.
func pick(cmd *cobra.Command, flag, flagValue string, args []string, i int) string {
	if cmd.Flags().Changed(flag) || i >= len(args) {
		return flagValue
	}
	return args[i]
}

// requireValue returns a usage error naming flag when value is empty.
func requireValue(value, flag, usage string) error {
	if value != "" {
		return nil
	}
	return cranerrors.UsageError(fmt.Sprintf("missing required --%s", flag)).
		WithSuggestion("Usage: " + usage)
}

// openInput opens a Cranfield input file, mapping failures to IO errors.
func openInput(kind, path string) (*os.File, error) {
	f, err := os.Open(path)
	if err == nil {
		info, statErr := f.Stat()
		if statErr == nil && info.IsDir() {
			_ = f.Close()
			return nil, cranerrors.New(cranerrors.ErrCodeFileNotFound, fmt.Sprintf("%s file is a directory: %s", kind, path), nil)
		}
		return f, nil
	}

	if errors.Is(err, os.ErrPermission) {
		return nil, cranerrors.New(cranerrors.ErrCodeFilePermission, fmt.Sprintf("cannot read %s file: %s", kind, path), err)
	}
	return nil, cranerrors.IOError(fmt.Sprintf("cannot open %s file: %s", kind, path), err).
		WithSuggestion(fmt.Sprintf("Check the %s path", kind))
}

// openIndex opens the index in dir for querying.
func openIndex(ctx context.Context, dir string, cacheSize int) (*store.CachedReader, error) {
	reader, err := store.OpenReader(ctx, dir, cacheSize)
	if err != nil {
		return nil, classifyReadError(dir, err)
	}
	return reader, nil
}

// classifyReadError maps a failure to open or inspect an index.
func classifyReadError(dir string, err error) error {
	if _, ok := cranerrors.As(err); ok {
		return err
	}

	var ce *cranerrors.CranError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, store.ErrNoIndex):
		ce = cranerrors.New(cranerrors.ErrCodeIndexNotFound, fmt.Sprintf("no index found in %s", dir), err).
			WithSuggestion(fmt.Sprintf("Run 'cranir index --corpus <file> --index %s' first", dir))
	case errors.Is(err, store.ErrCorruptIndex), errors.Is(err, store.ErrWrongBackend):
		ce = cranerrors.New(cranerrors.ErrCodeCorruptIndex, fmt.Sprintf("index in %s is corrupt", dir), err).
			WithSuggestion("Rebuild it with 'cranir index'")
	case errors.Is(err, store.ErrIndexLocked):
		ce = cranerrors.New(cranerrors.ErrCodeIndexLocked, "index in use", err).
			WithSuggestion("Wait for the cranir process building this index to finish")
	case errors.Is(err, os.ErrPermission):
		ce = cranerrors.New(cranerrors.ErrCodeFilePermission, fmt.Sprintf("cannot read index in %s", dir), err)
	default:
		ce = cranerrors.New(cranerrors.ErrCodeSearchFailed, fmt.Sprintf("failed to open index in %s", dir), err)
	}
	return ce.WithDetail("index", dir)
}

// newRenderer picks the progress renderer for cmd's output.
func newRenderer(cmd *cobra.Command, g *globals, title string) ui.Renderer {
	return ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(g.noTUI),
		ui.WithNoColor(ui.DetectNoColor()),
		ui.WithTitle(title)))
}

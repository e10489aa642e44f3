package index

import (
	"context"
	"errors"
	"os"
	"syscall"

	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
	"github.com/Aman-CERP/cranir/internal/store"
)

// classifyWriteError maps a backend failure during a build to a CranError.
func classifyWriteError(dir string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := cranerrors.As(err); ok {
		return err
	}

	var ce *cranerrors.CranError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, store.ErrIndexLocked):
		ce = cranerrors.New(cranerrors.ErrCodeIndexLocked, "index in use", err).
			WithSuggestion("Wait for the other cranir process working on this directory to finish")
	case errors.Is(err, os.ErrPermission):
		ce = cranerrors.New(cranerrors.ErrCodeFilePermission, "cannot write index directory", err).
			WithSuggestion("Choose an index directory you can write to")
	case errors.Is(err, syscall.ENOSPC):
		ce = cranerrors.New(cranerrors.ErrCodeDiskFull, "disk full while writing index", err).
			WithSuggestion("Free disk space or index to another volume")
	default:
		ce = cranerrors.New(cranerrors.ErrCodeWriteFailed, "failed to write index", err)
	}
	return ce.WithDetail("index", dir)
}

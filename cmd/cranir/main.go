// Package main provides the entry point for the cranir CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Aman-CERP/cranir/cmd/cranir/cmd"
	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		_, _ = fmt.Fprint(os.Stderr, cranerrors.FormatForCLI(err))
		os.Exit(cranerrors.ExitCode(err))
	}
}

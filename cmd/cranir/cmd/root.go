// Package cmd provides the CLI commands for cranir.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cranir/internal/config"
	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
	"github.com/Aman-CERP/cranir/internal/logging"
	"github.com/Aman-CERP/cranir/internal/metrics"
	"github.com/Aman-CERP/cranir/internal/profiling"
	"github.com/Aman-CERP/cranir/pkg/version"
)

// globals holds the persistent flags and the per-run state they set up.
type globals struct {
	configFile  string
	debug       bool
	logLevel    string
	noTUI       bool
	metricsFile string
	profile     profiling.Config

	cfg            *config.Config
	metrics        *metrics.Metrics
	session        *profiling.Session
	loggingCleanup func()
	started        bool
}

// NewRootCmd creates the root command for the cranir CLI.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *globals) {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "cranir",
		Short: "Index and search the Cranfield collection",
		Long: `cranir builds a full-text index over the Cranfield test collection and
runs the Cranfield query set against it, writing a TREC run file that can
be scored with trec_eval.

  cranir index --corpus cran.all.1400 --index ./index
  cranir search --index ./index --queries cran.qry --output run.txt --model bm25 --max-hits 1000`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("cranir version {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cranerrors.New(cranerrors.ErrCodeUsage, err.Error(), err).
			WithSuggestion("Run 'cranir --help' for usage")
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configFile, "config", "", "Config file (default: .cranir.yaml in the working directory)")
	flags.BoolVar(&g.debug, "debug", false, "Enable debug logging to ~/.cranir/logs/")
	flags.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&g.noTUI, "no-tui", false, "Disable TUI mode, use plain text output")
	flags.StringVar(&g.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile at exit")
	flags.StringVar(&g.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	flags.StringVar(&g.profile.Heap, "profile-mem", "", "Write memory profile to file")
	flags.StringVar(&g.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = g.start
	cmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return g.finish()
	}

	cmd.AddCommand(newIndexCmd(g))
	cmd.AddCommand(newSearchCmd(g))
	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd(g))
	cmd.AddCommand(newVersionCmd())

	return cmd, g
}

// start loads configuration, then sets up logging, metrics and profiling.
func (g *globals) start(cmd *cobra.Command, _ []string) error {
	if g.logLevel != "" && !logging.ValidLevel(g.logLevel) {
		return cranerrors.UsageError(fmt.Sprintf("unknown log level: %s", g.logLevel)).
			WithSuggestion("Use one of: debug, info, warn, error")
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	cfg, err := config.Load(wd, g.configFile)
	if err != nil {
		code := cranerrors.ErrCodeConfigInvalid
		if g.configFile != "" && !fileExists(g.configFile) {
			code = cranerrors.ErrCodeConfigNotFound
		}
		return cranerrors.New(code, "failed to load configuration", err).
			WithSuggestion("Fix the file or run 'cranir config show' to inspect the effective configuration")
	}
	g.cfg = cfg

	logCfg := logging.DefaultConfig()
	if g.debug {
		logCfg = logging.DebugConfig()
	} else {
		logCfg.Level = cfg.Logging.Level
		logCfg.FilePath = cfg.Logging.File
		logCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
		logCfg.MaxFiles = cfg.Logging.MaxFiles
	}
	if g.logLevel != "" {
		logCfg.Level = g.logLevel
	}
	logCfg.Stderr = cmd.ErrOrStderr()

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return cranerrors.IOError("failed to set up logging", err)
	}
	slog.SetDefault(logger)
	g.loggingCleanup = cleanup
	g.started = true

	if g.metricsFile == "" {
		g.metricsFile = cfg.Metrics.Textfile
	}
	g.metrics = metrics.New()

	if g.profile.Enabled() {
		session, err := profiling.Start(g.profile)
		if err != nil {
			return cranerrors.IOError("failed to start profiling", err)
		}
		g.session = session
	}

	slog.Debug("cli_started",
		slog.String("command", cmd.CommandPath()),
		slog.String("version", version.Version),
		slog.String("log_file", logCfg.FilePath))
	return nil
}

// finish writes the metrics textfile, stops profiling and closes the log.
// It runs after failed commands too and is safe to call more than once.
func (g *globals) finish() error {
	if !g.started {
		return nil
	}
	g.started = false

	var errs []error
	if err := g.metrics.WriteToTextfile(g.metricsFile); err != nil {
		errs = append(errs, cranerrors.IOError("failed to write metrics textfile", err))
	}
	if err := g.session.Stop(); err != nil {
		errs = append(errs, cranerrors.IOError("failed to write profile", err))
	}
	g.session = nil

	if g.loggingCleanup != nil {
		g.loggingCleanup()
		g.loggingCleanup = nil
	}
	return errors.Join(errs...)
}

// effectiveConfig returns the loaded configuration, or the defaults when
// a command runs without the root pre-run hook.
func (g *globals) effectiveConfig() *config.Config {
	if g.cfg == nil {
		g.cfg = config.NewConfig()
	}
	return g.cfg
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// Ctrl+C by main.
func ExecuteContext(ctx context.Context) error {
	cmd, g := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	if finishErr := g.finish(); err == nil {
		err = finishErr
	}
	return asUsageError(err)
}

// asUsageError turns cobra's own argument errors into usage errors.
func asUsageError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := cranerrors.As(err); ok {
		return err
	}
	if strings.HasPrefix(err.Error(), "unknown command") {
		return cranerrors.New(cranerrors.ErrCodeUsage, err.Error(), err).
			WithSuggestion("Run 'cranir --help' for the list of commands")
	}
	return err
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

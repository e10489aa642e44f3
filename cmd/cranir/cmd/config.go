package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/cranir/configs"
	"github.com/Aman-CERP/cranir/internal/config"
	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
	"github.com/Aman-CERP/cranir/internal/output"
)

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the cranir configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/cranir/config.yaml)
  3. Project config (.cranir.yaml, or --config)
  4. Environment variables (CRANIR_*)
  5. Command-line flags`,
		Example: `  # Create user config from template
  cranir config init

  # Show effective configuration (merged from all sources)
  cranir config show

  # Print user config file path
  cranir config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd(g))
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user configuration file",
		Long: `Create the user configuration file from the annotated template at
~/.config/cranir/config.yaml (or $XDG_CONFIG_HOME/cranir/config.yaml).

With --force an existing file is backed up first and then replaced.`,
		Args: maxArgs(0, "cranir config init [--force]"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Back up and overwrite an existing configuration")

	return cmd
}

func newConfigShowCmd(g *globals) *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the effective configuration after merging all sources, or a single
source with --source user, project or defaults.`,
		Example: `  cranir config show
  cranir config show --json
  cranir config show --source user`,
		Args: maxArgs(0, "cranir config show [--json] [--source merged|user|project|defaults]"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, g, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Long:  `Print the path to the user configuration file.`,
		Args:  maxArgs(0, "cranir config path"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	configPath := config.GetUserConfigPath()

	if config.UserConfigExists() {
		if !force {
			out.Warning("User configuration already exists")
			out.Statusf("📁", "Location: %s", configPath)
			out.Status("💡", "Use --force to back it up and write a fresh template")
			return nil
		}

		backupPath, err := config.BackupUserConfig()
		if err != nil {
			return cranerrors.IOError("failed to back up configuration", err)
		}
		out.Statusf("💾", "Backup: %s", backupPath)
	}

	if err := os.MkdirAll(config.GetUserConfigDir(), 0o755); err != nil {
		return cranerrors.New(cranerrors.ErrCodeWriteFailed, "failed to create config directory", err)
	}
	if err := os.WriteFile(configPath, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return cranerrors.New(cranerrors.ErrCodeWriteFailed, "failed to write config file", err)
	}

	out.Success("Created user configuration")
	out.Statusf("📁", "Location: %s", configPath)
	out.Status("📋", "Run 'cranir config show' to verify")
	return nil
}

func runConfigShow(cmd *cobra.Command, g *globals, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var cfg *config.Config
	switch source {
	case "merged":
		cfg = g.effectiveConfig()

	case "user":
		if !config.UserConfigExists() {
			out.Warning("No user configuration file found")
			out.Statusf("📁", "Expected at: %s", config.GetUserConfigPath())
			out.Status("💡", "Run 'cranir config init' to create one")
			return nil
		}
		loaded, err := readConfigFile(config.GetUserConfigPath())
		if err != nil {
			return err
		}
		cfg = loaded

	case "project":
		wd, err := os.Getwd()
		if err != nil {
			return cranerrors.IOError("failed to get current directory", err)
		}
		path := config.ProjectConfigPath(wd)
		if path == "" {
			out.Warning("No project configuration file found")
			out.Statusf("📁", "Expected at: %s", config.ProjectFileName)
			return nil
		}
		loaded, err := readConfigFile(path)
		if err != nil {
			return err
		}
		cfg = loaded

	case "defaults":
		cfg = config.NewConfig()

	default:
		return cranerrors.UsageError(fmt.Sprintf("unknown source: %s", source)).
			WithSuggestion("Use one of: merged, user, project, defaults")
	}

	if jsonOutput {
		data, err := cfg.JSON()
		if err != nil {
			return cranerrors.InternalError("failed to encode configuration", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return cranerrors.InternalError("failed to encode configuration", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// readConfigFile loads a single config file over the defaults.
func readConfigFile(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cranerrors.IOError("failed to read "+path, err)
	}
	cfg := config.NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, cranerrors.New(cranerrors.ErrCodeConfigInvalid, "failed to parse "+path, err)
	}
	return cfg, nil
}

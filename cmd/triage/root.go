package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/triage/internal/cli"
	"github.com/aretw0/triage/internal/config"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Triage runs a structured pain-triage conversation",
	Long: `Triage walks a patient through a fixed sequence of multiple-choice
questions (with free-text "other" answers) and hands the collected answers
to a clinic backend. It runs in the terminal, as an HTTP API or as an MCP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
		if err := applyFlags(cmd, &cfg); err != nil {
			return err
		}
		quiet, _ := cmd.Flags().GetBool("quiet")
		logger = cli.NewLogger(cfg.Level(), quiet)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a YAML config file (default ./"+config.DefaultFile+" if present)")
	pf.String("catalog", "", "Question catalog: a YAML file or a directory of question documents")
	pf.String("store", "", "Session store: memory, file or redis")
	pf.String("store-dir", "", "Directory for the file store")
	pf.String("redis", "", "Redis address")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.BoolP("quiet", "q", false, "Disable logging")
}

// applyFlags overrides the loaded configuration with explicitly set flags.
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	set := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	set("catalog", &c.Catalog)
	set("store", &c.Store.Backend)
	set("store-dir", &c.Store.Dir)
	set("redis", &c.Redis.Addr)
	set("log-level", &c.LogLevel)
	return c.Validate()
}

// buildApp wires the components for commands that need a session manager.
func buildApp(cmd *cobra.Command) (*cli.App, error) {
	return cli.Build(cmd.Context(), cfg, logger)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/triage/internal/cli"
	"github.com/aretw0/triage/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a triage conversation in the terminal",
	Long: `Starts (or resumes, with --session) a triage conversation on stdin/stdout.
Choices are picked by number, id or label; multi-select questions take a
comma-separated list. Type "quit" to pause.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		headless, _ := cmd.Flags().GetBool("headless")
		jsonMode, _ := cmd.Flags().GetBool("json")
		fresh, _ := cmd.Flags().GetBool("fresh")

		// Resuming needs somewhere to resume from.
		if sessionID != "" && cfg.Store.Backend == config.StoreMemory && !cmd.Flags().Changed("store") {
			cfg.Store.Backend = config.StoreFile
		}

		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.RunSession(cmd.Context(), app, cli.RunOptions{
			SessionID: sessionID,
			Headless:  headless,
			JSON:      jsonMode,
			Fresh:     fresh,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Session id to start or resume (persisted to the file store unless --store is given)")
	runCmd.Flags().Bool("headless", false, "Plain text IO, no banner or markdown rendering")
	runCmd.Flags().Bool("json", false, "NDJSON input/output")
	runCmd.Flags().Bool("fresh", false, "Discard stored progress for --session before starting")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/triage/internal/presentation/graph"
	"github.com/aretw0/triage/internal/presentation/tui"
	"github.com/aretw0/triage/internal/validator"
	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/runner"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the question catalog",
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the questions in flow order",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		c := app.Engine.Catalog()
		out := cmd.OutOrStdout()
		switch format {
		case "yaml":
			return catalog.WriteYAML(out, c)
		case "text":
			var sb strings.Builder
			for _, q := range c.Questions() {
				msg, err := app.Engine.Prompt(stateAt(q.ID))
				if err != nil {
					return err
				}
				sb.WriteString(runner.Format(*msg))
				sb.WriteString("\n")
			}
			text := sb.String()
			if tui.IsTerminal(os.Stdout) {
				if rendered, err := tui.NewRenderer()(text); err == nil {
					text = rendered
				}
			}
			_, err := fmt.Fprint(out, text)
			return err
		default:
			return fmt.Errorf("unknown format %q (supported: text, yaml)", format)
		}
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog and question order for consistency",
	RunE: func(cmd *cobra.Command, args []string) error {
		// buildApp already refuses an invalid catalog; report it explicitly here.
		app, err := buildApp(cmd)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		defer app.Close()

		if err := validator.ValidateFlow(app.Engine.Catalog(), app.Engine.Sequencer()); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Catalog is valid: %d questions.\n", app.Engine.Catalog().Len())
		return nil
	},
}

var catalogGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the flow as a Mermaid diagram",
	Long:  `Outputs a Mermaid flowchart (graph TD) of the question order. With --session the session's progress is highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")

		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var overlay *graph.Overlay
		if sessionID != "" {
			state, err := app.Manager.Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", sessionID, err)
			}
			overlay = graph.OverlayFromState(state)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(app.Engine.Catalog(), app.Engine.Sequencer(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogShowCmd, catalogValidateCmd, catalogGraphCmd)

	catalogShowCmd.Flags().StringP("format", "f", "text", "Output format: text or yaml")
	catalogGraphCmd.Flags().StringP("session", "s", "", "Highlight the progress of a stored session")
}

// stateAt is a throwaway state parked on id, used to render its prompt.
func stateAt(id domain.QuestionID) *domain.State {
	return domain.NewState("catalog", id, time.Time{})
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/triage/internal/cli"
	"github.com/aretw0/triage/pkg/domain"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, and remove sessions kept by the configured store (file or redis).`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		status, _ := cmd.Flags().GetString("status")
		sums, err := listSummaries(cmd.Context(), app, domain.Status(status))
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(sums) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SESSION\tSTATUS\tQUESTION\tPROGRESS\tUPDATED")
		for _, sum := range sums {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", sum.SessionID, sum.Status, sum.QuestionID, sum.Progress, sum.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

// listSummaries reads the store's summary index when it has one and falls
// back to loading every state.
func listSummaries(ctx context.Context, app *cli.App, status domain.Status) ([]domain.SessionSummary, error) {
	if app.Summaries != nil {
		return app.Summaries.Summaries(ctx, status)
	}
	ids, err := app.Manager.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.SessionSummary
	for _, id := range ids {
		state, err := app.Store.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", id, err)
		}
		if status != "" && state.Status != status {
			continue
		}
		out = append(out, domain.Summarize(state))
	}
	return out, nil
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		withMessages, _ := cmd.Flags().GetBool("messages")

		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		state, err := app.Manager.Load(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", sessionID, err)
		}

		view := struct {
			State    *domain.State    `json:"state"`
			Answers  map[string]any   `json:"answers"`
			Messages []domain.Message `json:"messages,omitempty"`
		}{State: state, Answers: state.Answers.Flatten()}

		if withMessages {
			if view.Messages, err = app.Manager.Messages(cmd.Context(), sessionID); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if all, _ := cmd.Flags().GetBool("all"); all {
			if args, err = app.Manager.List(cmd.Context()); err != nil {
				return err
			}
		}

		failed := 0
		for _, sessionID := range args {
			if err := app.Manager.Delete(cmd.Context(), sessionID); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", sessionID, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sessions could not be removed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)

	sessionLsCmd.Flags().String("status", "", "Only list sessions in this status (awaiting_choice, awaiting_other_text, completed, halted)")
	sessionInspectCmd.Flags().BoolP("messages", "m", false, "Include the posted message log")
	sessionRmCmd.Flags().Bool("all", false, "Remove every stored session")
}

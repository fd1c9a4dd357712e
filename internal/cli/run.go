package cli

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/internal/presentation/tui"
	"github.com/aretw0/triage/pkg/runner"
)

// RunOptions contains the configuration for the run command.
type RunOptions struct {
	SessionID string
	Headless  bool // plain text, no banner or markdown rendering
	JSON      bool // NDJSON in and out
	Fresh     bool // drop any stored progress for SessionID first

	In  io.Reader // defaults to os.Stdin
	Out io.Writer // defaults to os.Stdout
}

// RunSession drives one triage session over the terminal (or pipes).
func RunSession(ctx context.Context, app *App, opts RunOptions) error {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	quiet := opts.JSON || opts.Headless
	interactive := !quiet && in == os.Stdin && out == os.Stdout && tui.IsInteractive()

	if interactive {
		tui.PrintBanner(out, triage.Version)
	}

	if opts.Fresh && opts.SessionID != "" {
		if err := app.Manager.Delete(ctx, opts.SessionID); err != nil {
			app.Logger.Debug("nothing to reset", "session_id", opts.SessionID, "err", err)
		}
	}

	var handler runner.IOHandler
	switch {
	case opts.JSON:
		handler = runner.NewJSONHandler(in, out)
	case interactive:
		handler = runner.NewTextHandler(in, out, runner.WithTextHandlerRenderer(tui.NewRenderer()))
	default:
		handler = runner.NewTextHandler(in, out)
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	r := runner.NewRunner(app.Manager,
		runner.WithInputHandler(handler),
		runner.WithSessionID(opts.SessionID),
		runner.WithLogger(app.Logger),
	)

	if !quiet && opts.SessionID != "" {
		printSystemMessage(out, "Session '%s' active.", opts.SessionID)
	}

	state, runErr := r.Run(sigCtx)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	logCompletion(out, r.SessionID, state, runErr, sigCtx.Signal(), quiet)
	return handleExecutionError(runErr)
}

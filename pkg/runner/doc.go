/*
Package runner implements the interactive loop that walks one patient through
the triage questionnaire from a terminal or a line-oriented pipe.

It bridges a session.Manager (persistence, locking, completion) and the
outside world through pluggable handlers. Replies are parsed and validated
locally: an unparseable or empty reply is re-prompted without reaching the
engine.

# Key Components

  - Runner: drives a session until it completes, halts or input ends.
  - IOHandler: decouples how messages are shown and replies are read.
  - TextHandler: numbered choices for interactive CLI usage.
  - JSONHandler: one JSON document per line, for scripted hosts.

# Usage

	r := runner.NewRunner(manager,
		runner.WithSessionID("patient-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	state, err := r.Run(ctx)
*/
package runner

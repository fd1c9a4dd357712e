/*
Package triage is a conversational triage flow engine.

It walks a patient through a fixed sequence of multiple-choice questions,
captures supplementary free text when an "Other" answer is picked, records
every answer, and signals the host once the sequence is complete.

# Concept

The engine is a pure state machine: it consumes one inbound event at a time
(a choice selection or a free-text submission) and returns the next State plus
a list of outbound instructions (messages to post, completion to signal). The
host ("Host Message Channel") renders the messages and feeds user events back.
This keeps the engine embeddable in a terminal, an HTTP API or an agent.

# Key Features

  - Deterministic Execution: the same state and event always produce the same transition.
  - Explicit Ownership: each Session owns its answers; there is no package-level state.
  - Fire-once Completion: the completion signal is raised at most once per session.
  - Halting on Misconfiguration: unknown question or choice identifiers stop the flow.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/triage"
		"github.com/aretw0/triage/pkg/adapters/memory"
		"github.com/aretw0/triage/pkg/catalog"
	)

	func main() {
		eng, err := triage.New() // default pain triage catalog
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		host := memory.NewChannel()
		latch := memory.NewCompletionLatch()

		s := triage.NewSession(eng, "session-123", host, triage.WithCompletion(latch))
		if err := s.Begin(ctx); err != nil { // posts the first question
			log.Fatal(err)
		}

		if err := s.SelectChoice(ctx, catalog.QWhen, "today"); err != nil {
			log.Fatal(err)
		}
	}
*/
package triage

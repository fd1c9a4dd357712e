/*
Package domain contains the core domain models of the triage engine.

It defines the entities the conversational triage state machine works with:
questions and their choices, recorded answers, the per-session flow state and
the messages the engine asks a host to post. This package is kept pure and
free of I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Question: A catalog entry with an ordinal position, a prompt and its Choices.
  - Answer: The selection(s) made for one question, plus optional free text.
  - AnswerStore: The per-session mapping of question identifiers to answers.
  - State: The runtime snapshot of a session (current question, status, answers).
  - ActionRequest: An outbound instruction for the host (post a message, fire the completion signal).
*/
package domain

package domain

import "time"

// ActionRequest is an outbound instruction the engine asks the host to perform.
// The engine never performs side effects itself.
type ActionRequest struct {
	Type    string   // ActionPostMessage or ActionSignalComplete
	Message *Message // Set for ActionPostMessage
}

// Standard Action Types
const (
	// ActionPostMessage requests the host to append Message to its message channel.
	ActionPostMessage = "POST_MESSAGE"

	// ActionSignalComplete requests the host to fire the completion signal.
	// Emitted at most once per session.
	ActionSignalComplete = "SIGNAL_COMPLETE"
)

// MessageKind tags the variant carried by a Message.
type MessageKind string

const (
	KindChoicePrompt   MessageKind = "choice_prompt"
	KindFreeTextPrompt MessageKind = "free_text_prompt"
	KindConfirmation   MessageKind = "confirmation"
	KindCompletion     MessageKind = "completion"
)

// Message is a tagged message posted to the host channel.
//
// Choice prompts carry QuestionID, Title, Text, Choices and Multi.
// Free-text prompts carry QuestionID, Title and Placeholder.
// Confirmations and completions carry Text only.
type Message struct {
	Kind        MessageKind `json:"kind"`
	QuestionID  QuestionID  `json:"question_id,omitempty"`
	Title       string      `json:"title,omitempty"`
	Text        string      `json:"text,omitempty"`
	Choices     []Choice    `json:"choices,omitempty"`
	Multi       bool        `json:"multi,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	PostedAt    time.Time   `json:"posted_at"`
}

// IsPrompt reports whether the message expects user input.
func (m Message) IsPrompt() bool {
	return m.Kind == KindChoicePrompt || m.Kind == KindFreeTextPrompt
}

// PostMessage wraps m in an ActionRequest.
func PostMessage(m Message) ActionRequest {
	return ActionRequest{Type: ActionPostMessage, Message: &m}
}

// SignalComplete builds the completion ActionRequest.
func SignalComplete() ActionRequest {
	return ActionRequest{Type: ActionSignalComplete}
}

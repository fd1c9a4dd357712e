package dsl

import "github.com/aretw0/triage/pkg/domain"

// QuestionBuilder provides a fluent API for configuring a question.
type QuestionBuilder struct {
	question domain.Question
	builder  *Builder
}

// Title sets the short heading shown with the ordinal.
func (q *QuestionBuilder) Title(title string) *QuestionBuilder {
	q.question.Title = title
	return q
}

// Prompt sets the body text of the question.
func (q *QuestionBuilder) Prompt(prompt string) *QuestionBuilder {
	q.question.Prompt = prompt
	return q
}

// Multi marks the question as multi-select.
func (q *QuestionBuilder) Multi() *QuestionBuilder {
	q.question.Multi = true
	return q
}

// Choice appends a plain choice.
func (q *QuestionBuilder) Choice(id, label string) *QuestionBuilder {
	q.question.Choices = append(q.question.Choices, domain.Choice{ID: id, Label: label})
	return q
}

// Exclusive appends a choice that clears every other selection when picked.
func (q *QuestionBuilder) Exclusive(id, label string) *QuestionBuilder {
	q.question.Choices = append(q.question.Choices, domain.Choice{ID: id, Label: label, IsExclusive: true})
	return q
}

// Other appends the free-text choice under the conventional id.
func (q *QuestionBuilder) Other(label string) *QuestionBuilder {
	q.question.Choices = append(q.question.Choices, domain.Choice{ID: domain.OtherChoiceID, Label: label, IsOther: true})
	return q
}

// Then starts the next question, so a whole catalog can be chained.
func (q *QuestionBuilder) Then(id string) *QuestionBuilder {
	return q.builder.Add(id)
}

package domain

// QuestionID identifies a question in the catalog.
// Values are stable across releases since answers are keyed by them.
type QuestionID string

// OtherChoiceID is the conventional identifier of the "Other / describe" choice.
const OtherChoiceID = "other"

// Choice is one selectable option of a Question.
type Choice struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`

	// IsOther marks the choice that requires supplementary free text.
	IsOther bool `json:"is_other,omitempty" yaml:"is_other,omitempty"`

	// IsExclusive marks a choice that clears every other selection when picked.
	IsExclusive bool `json:"is_exclusive,omitempty" yaml:"is_exclusive,omitempty"`
}

// Question is a static catalog entry.
type Question struct {
	ID      QuestionID `json:"id" yaml:"id"`
	Ordinal int        `json:"ordinal" yaml:"ordinal"`
	Title   string     `json:"title" yaml:"title"`
	Prompt  string     `json:"prompt" yaml:"prompt"`
	Multi   bool       `json:"multi,omitempty" yaml:"multi,omitempty"`
	Choices []Choice   `json:"choices" yaml:"choices"`
}

// Choice returns the choice with the given id.
func (q Question) Choice(id string) (Choice, bool) {
	for _, c := range q.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// OtherChoice returns the choice flagged IsOther.
func (q Question) OtherChoice() (Choice, bool) {
	for _, c := range q.Choices {
		if c.IsOther {
			return c, true
		}
	}
	return Choice{}, false
}

// Labels resolves choice ids to their display labels, in the given order.
// Unknown ids are returned verbatim.
func (q Question) Labels(ids []string) []string {
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if c, ok := q.Choice(id); ok {
			labels = append(labels, c.Label)
			continue
		}
		labels = append(labels, id)
	}
	return labels
}

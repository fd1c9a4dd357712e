package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ChoiceMetadata is the serialized form of a choice.
type ChoiceMetadata struct {
	ID        string `json:"id" mapstructure:"id" yaml:"id"`
	Label     string `json:"label" mapstructure:"label" yaml:"label"`
	Other     bool   `json:"other" mapstructure:"other" yaml:"other,omitempty"`
	Exclusive bool   `json:"exclusive" mapstructure:"exclusive" yaml:"exclusive,omitempty"`
}

// QuestionMetadata is the serialized form of a question, shared by the YAML
// file format and document frontmatter.
type QuestionMetadata struct {
	ID      string           `json:"id" mapstructure:"id" yaml:"id"`
	Ordinal int              `json:"ordinal" mapstructure:"ordinal" yaml:"ordinal,omitempty"`
	Title   string           `json:"title" mapstructure:"title" yaml:"title,omitempty"`
	Prompt  string           `json:"prompt" mapstructure:"prompt" yaml:"prompt"`
	Multi   bool             `json:"multi" mapstructure:"multi" yaml:"multi,omitempty"`
	Choices []ChoiceMetadata `json:"choices" mapstructure:"choices" yaml:"choices"`
}

// ToDomain converts the metadata into a domain question.
func (m QuestionMetadata) ToDomain() domain.Question {
	q := domain.Question{
		ID:      domain.QuestionID(m.ID),
		Ordinal: m.Ordinal,
		Title:   m.Title,
		Prompt:  m.Prompt,
		Multi:   m.Multi,
		Choices: make([]domain.Choice, 0, len(m.Choices)),
	}
	for _, c := range m.Choices {
		q.Choices = append(q.Choices, domain.Choice{
			ID:          c.ID,
			Label:       c.Label,
			IsOther:     c.Other,
			IsExclusive: c.Exclusive,
		})
	}
	return q
}

// FromDomain converts a domain question into its serialized form.
func FromDomain(q domain.Question) QuestionMetadata {
	m := QuestionMetadata{
		ID:      string(q.ID),
		Ordinal: q.Ordinal,
		Title:   q.Title,
		Prompt:  q.Prompt,
		Multi:   q.Multi,
		Choices: make([]ChoiceMetadata, 0, len(q.Choices)),
	}
	for _, c := range q.Choices {
		m.Choices = append(m.Choices, ChoiceMetadata{
			ID:        c.ID,
			Label:     c.Label,
			Other:     c.IsOther,
			Exclusive: c.IsExclusive,
		})
	}
	return m
}

type document struct {
	Questions []map[string]any `yaml:"questions"`
}

// LoadYAML reads a catalog document:
//
//	questions:
//	  - id: q1_when
//	    title: Onset
//	    prompt: When did the pain start?
//	    choices:
//	      - {id: today, label: Earlier today}
//	      - {id: other, label: Other / describe, other: true}
//
// Questions keep document order.
func LoadYAML(r io.Reader) (*Catalog, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	questions := make([]domain.Question, 0, len(doc.Questions))
	for i, raw := range doc.Questions {
		var meta QuestionMetadata
		if err := mapstructure.Decode(raw, &meta); err != nil {
			return nil, fmt.Errorf("failed to decode question %d: %w", i+1, err)
		}
		questions = append(questions, meta.ToDomain())
	}
	return New(questions...)
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// WriteYAML encodes the catalog in the format LoadYAML reads.
func WriteYAML(w io.Writer, c *Catalog) error {
	out := struct {
		Questions []QuestionMetadata `yaml:"questions"`
	}{}
	for _, q := range c.Questions() {
		out.Questions = append(out.Questions, FromDomain(q))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return enc.Close()
}

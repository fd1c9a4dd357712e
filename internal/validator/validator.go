package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/flow"
)

// ValidateFlow checks that every question in the sequence exists in the
// catalog and that every catalog question is reachable from the sequence.
// All problems are collected into a single configuration error.
func ValidateFlow(c *catalog.Catalog, seq *flow.Sequencer) error {
	var problems []string

	for _, id := range seq.IDs() {
		if _, err := c.Lookup(id); err != nil {
			problems = append(problems, fmt.Sprintf("sequence references missing question '%s'", id))
		}
	}
	for _, id := range c.Order() {
		if !seq.Contains(id) {
			problems = append(problems, fmt.Sprintf("question '%s' is never asked", id))
		}
	}

	if len(problems) > 0 {
		return &domain.ConfigurationError{
			Err: fmt.Errorf("%w:\n- %s", domain.ErrCatalogMismatch, strings.Join(problems, "\n- ")),
		}
	}
	return nil
}

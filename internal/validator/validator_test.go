package validator

import (
	"testing"

	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFlow(t *testing.T) {
	c := catalog.Default()

	t.Run("Default catalog is in sync", func(t *testing.T) {
		assert.NoError(t, ValidateFlow(c, c.Sequencer()))
	})

	t.Run("Missing and unreachable questions", func(t *testing.T) {
		seq := flow.MustNew(catalog.QWhen, "q10_ghost")
		err := ValidateFlow(c, seq)
		require.Error(t, err)

		assert.ErrorIs(t, err, domain.ErrCatalogMismatch)
		assert.True(t, domain.IsConfiguration(err))
		assert.Contains(t, err.Error(), "missing question 'q10_ghost'")
		assert.Contains(t, err.Error(), "'q9_severity' is never asked")
	})
}

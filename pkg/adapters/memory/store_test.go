package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryMessageLog_Contract(t *testing.T) {
	ports.RunMessageLogContract(t, memory.NewMessageLog())
}

func TestChannel(t *testing.T) {
	ctx := context.Background()
	ch := memory.NewChannel()

	_, ok, err := ch.ReadLast(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	var seen []domain.MessageKind
	ch.OnPost = func(m domain.Message) { seen = append(seen, m.Kind) }

	require.NoError(t, ch.Post(ctx, domain.Message{Kind: domain.KindChoicePrompt}))
	require.NoError(t, ch.Post(ctx, domain.Message{Kind: domain.KindConfirmation}))

	last, ok, err := ch.ReadLast(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.KindConfirmation, last.Kind)
	assert.Len(t, ch.Messages(), 2)
	assert.Equal(t, []domain.MessageKind{domain.KindChoicePrompt, domain.KindConfirmation}, seen)
}

func TestCompletionLatch(t *testing.T) {
	ctx := context.Background()
	l := memory.NewCompletionLatch()
	assert.False(t, l.Fired())

	require.NoError(t, l.Fire(ctx, "s1"))
	require.NoError(t, l.Fire(ctx, "s2"))

	<-l.Done()
	assert.True(t, l.Fired())
	assert.Equal(t, 2, l.Calls())
	assert.Equal(t, "s1", l.SessionID())
}

func TestLoader(t *testing.T) {
	l := memory.NewLoader(domain.Question{
		ID: "q1",
		Choices: []domain.Choice{
			{ID: "a", Label: "A"},
			{ID: domain.OtherChoiceID, Label: "Other", IsOther: true},
		},
	})
	c, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = memory.NewLoader().Load(context.Background())
	assert.Error(t, err)
}

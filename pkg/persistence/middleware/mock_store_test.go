package middleware_test

import (
	"context"
	"time"

	"github.com/aretw0/triage/pkg/domain"
)

// MockStore is a simple map-based store for testing middleware.
// It keeps the pointer it is given so tests can inspect what was written.
type MockStore struct {
	data map[string]*domain.State
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.State),
	}
}

func (s *MockStore) Save(ctx context.Context, sessionID string, state *domain.State) error {
	s.data[sessionID] = state
	return nil
}

func (s *MockStore) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	state, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state, nil
}

func (s *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(s.data, sessionID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func answeredState(sessionID string) *domain.State {
	state := domain.NewState(sessionID, "q1", time.Unix(1700000000, 0).UTC())
	state.Answers.Set("q1", domain.Answer{Selections: []string{"other"}, Other: "since the gym, call me at +1 555 123 4567"})
	state.Status = domain.StatusAwaitingChoice
	state.QuestionID = "q2"
	state.History = append(state.History, "q2")
	return state
}

package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// containsZeroOne accepts every word over {0,1} containing the factor 01.
func containsZeroOne() domain.Automaton {
	return domain.Automaton{
		AlphabetSize: 2,
		States:       3,
		Initial:      []int{0},
		Accepting:    []int{2},
		Transitions: []domain.Transition{
			{From: 0, Symbol: 0, To: 1}, {From: 0, Symbol: 1, To: 0},
			{From: 1, Symbol: 0, To: 1}, {From: 1, Symbol: 1, To: 2},
			{From: 2, Symbol: 0, To: 2}, {From: 2, Symbol: 1, To: 2},
		},
	}
}

func TestAutomaton_Accepts(t *testing.T) {
	a := containsZeroOne()
	assert.True(t, a.IsDeterministic())

	m, err := a.Compile()
	require.NoError(t, err)

	assert.False(t, m.Accepts(domain.Word{}))
	assert.False(t, m.Accepts(domain.Word{1, 1, 0}))
	assert.True(t, m.Accepts(domain.Word{0, 1}))
	assert.True(t, m.Accepts(domain.Word{1, 1, 0, 0, 1, 0}))
	assert.False(t, m.Accepts(domain.Word{0, 2}), "symbols outside the alphabet are rejected")
}

func TestAutomaton_Nondeterministic(t *testing.T) {
	// Words whose second to last symbol is 1.
	a := domain.Automaton{
		AlphabetSize: 2,
		States:       3,
		Initial:      []int{0},
		Accepting:    []int{2},
		Transitions: []domain.Transition{
			{From: 0, Symbol: 0, To: 0}, {From: 0, Symbol: 1, To: 0},
			{From: 0, Symbol: 1, To: 1},
			{From: 1, Symbol: 0, To: 2}, {From: 1, Symbol: 1, To: 2},
		},
	}
	assert.False(t, a.IsDeterministic())
	assert.True(t, a.Accepts(domain.Word{1, 0}))
	assert.True(t, a.Accepts(domain.Word{0, 0, 1, 1}))
	assert.False(t, a.Accepts(domain.Word{1, 0, 0}))
}

func TestAutomaton_Validate(t *testing.T) {
	a := containsZeroOne()
	a.Transitions = append(a.Transitions, domain.Transition{From: 0, Symbol: 2, To: 1})
	assert.ErrorIs(t, a.Validate(), domain.ErrInvalidAutomaton)

	b := containsZeroOne()
	b.Initial = []int{5}
	_, err := b.Compile()
	assert.ErrorIs(t, err, domain.ErrInvalidAutomaton)
	assert.False(t, b.Accepts(domain.Word{0, 1}))
}

func TestLifecycleHooks_Emit(t *testing.T) {
	var got []domain.EventType
	hooks := domain.LifecycleHooks{
		OnConjecture: func(_ context.Context, ev *domain.LearnerEvent) { got = append(got, ev.Type) },
	}
	hooks.Emit(context.Background(), domain.NewLearnerEvent(domain.EventConjecture, "equality", 1))
	hooks.Emit(context.Background(), domain.NewLearnerEvent(domain.EventAnswers, "equality", 1))
	assert.Equal(t, []domain.EventType{domain.EventConjecture}, got)
}

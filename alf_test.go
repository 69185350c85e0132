package alf_test

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/aretw0/alf"
	"github.com/aretw0/alf/pkg/adapters/oracle"
	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/knowledge"
	"github.com/aretw0/alf/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func containsZeroOne() *domain.Automaton {
	return &domain.Automaton{
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

func randomDFA(r *rand.Rand, states, alphabet int) *domain.Automaton {
	a := &domain.Automaton{AlphabetSize: alphabet, States: states, Initial: []int{0}}
	for q := range states {
		if r.Intn(2) == 0 {
			a.Accepting = append(a.Accepting, q)
		}
		for s := range alphabet {
			a.Transitions = append(a.Transitions, domain.Transition{From: q, Symbol: domain.Symbol(s), To: r.Intn(states)})
		}
	}
	return a
}

func newOracle(t *testing.T, a *domain.Automaton) *oracle.Automaton {
	t.Helper()
	o, err := oracle.New(a)
	require.NoError(t, err)
	return o
}

type equivalenceFunc func(ctx context.Context, conj *domain.Automaton) (*domain.Counterexample, error)

func (f equivalenceFunc) Check(ctx context.Context, conj *domain.Automaton) (*domain.Counterexample, error) {
	return f(ctx, conj)
}

func TestLearner_RunConverges(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	targets := []*domain.Automaton{containsZeroOne()}
	for range 25 {
		targets = append(targets, randomDFA(r, 1+r.Intn(4), 1+r.Intn(3)))
	}

	modes := []struct {
		name   string
		policy table.Policy
		batch  bool
	}{
		{"Equality", table.Equality{}, false},
		{"Equality batched", table.Equality{}, true},
		{"Covering", table.Covering{}, false},
		{"Covering batched", table.Covering{}, true},
	}
	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			for i, target := range targets {
				o := newOracle(t, target)
				l := alf.New(target.AlphabetSize,
					alf.WithPolicy(mode.policy),
					alf.WithBatchMode(mode.batch),
					alf.WithMaxRounds(100),
				)

				conj, err := l.Run(context.Background(), o, o)
				require.NoError(t, err, "target %d", i)

				cex, err := o.Check(context.Background(), conj)
				require.NoError(t, err)
				assert.Nil(t, cex, "target %d: conjecture must be equivalent", i)
				if mode.policy.Name() == table.ModeEquality {
					assert.True(t, conj.IsDeterministic(), "target %d", i)
					assert.LessOrEqual(t, conj.States, target.States, "target %d", i)
				}
			}
		})
	}
}

func TestLearner_ContainsZeroOne(t *testing.T) {
	o := newOracle(t, containsZeroOne())
	l := alf.New(2)

	conj, err := l.Run(context.Background(), o, o)
	require.NoError(t, err)
	assert.Equal(t, 3, conj.States)
	assert.True(t, conj.IsDeterministic())
}

func TestLearner_StepByStepExchange(t *testing.T) {
	ctx := context.Background()
	o := newOracle(t, containsZeroOne())
	l := alf.New(2)

	for range 100 {
		status, err := l.Advance(ctx)
		require.NoError(t, err)

		if status == alf.StatusQueriesPending {
			// A remote worker only ever sees the serialized query tree.
			queries := l.PendingQueries()
			remote := knowledge.New()
			require.NoError(t, remote.Deserialize(queries))
			assert.Equal(t, l.Knowledge().CountQueries(), remote.CountQueries())

			answers, err := o.AnswerBatch(ctx, queries)
			require.NoError(t, err)
			require.NoError(t, l.SubmitAnswers(ctx, answers))
			assert.Equal(t, 0, l.Knowledge().CountQueries())
			continue
		}

		conj, err := l.Conjecture(ctx)
		require.NoError(t, err)
		cex, err := o.Check(ctx, conj)
		require.NoError(t, err)
		if cex == nil {
			assert.Equal(t, 3, conj.States)
			return
		}
		require.NoError(t, l.AddCounterexample(ctx, *cex))
	}
	t.Fatal("step loop did not converge")
}

func TestLearner_SubmitAnswersMismatchKeepsKnowledge(t *testing.T) {
	ctx := context.Background()
	l := alf.New(2)

	status, err := l.Advance(ctx)
	require.NoError(t, err)
	require.Equal(t, alf.StatusQueriesPending, status)
	require.Equal(t, 3, l.Knowledge().CountQueries())

	err = l.SubmitAnswers(ctx, knowledge.EncodeAcceptances([]bool{true}))
	assert.ErrorIs(t, err, domain.ErrAnswerCountMismatch)
	assert.Equal(t, 3, l.Knowledge().CountQueries(), "the learner keeps its queries")

	err = l.SubmitAnswers(ctx, []byte{0xFF})
	assert.ErrorIs(t, err, domain.ErrMalformedData)

	require.NoError(t, l.SubmitAnswers(ctx, knowledge.EncodeAcceptances([]bool{false, false, true})))
	assert.Equal(t, 3, l.Knowledge().CountAnswers())
	assert.Equal(t, 2, l.Knowledge().Timestamp(), "one submission is one generation")
}

func TestLearner_Conflicts(t *testing.T) {
	ctx := context.Background()
	conflicts := 0
	l := alf.New(2, alf.WithLifecycleHooks(domain.LifecycleHooks{
		OnConflict: func(context.Context, *domain.LearnerEvent) { conflicts++ },
	}))

	require.NoError(t, l.Answer(ctx, domain.Word{0, 1}, true))
	err := l.Answer(ctx, domain.Word{0, 1}, false)
	assert.ErrorIs(t, err, domain.ErrKnowledgeConflict)
	assert.Equal(t, 1, conflicts)

	no := false
	err = l.AddCounterexample(ctx, domain.Counterexample{Word: domain.Word{0, 1}, Answer: &no})
	assert.ErrorIs(t, err, domain.ErrInconsistentCounterexample)
	assert.Zero(t, l.Round())

	_, err = l.Conjecture(ctx)
	assert.ErrorIs(t, err, domain.ErrNoConjecture)
}

func TestLearner_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	r := rand.New(rand.NewSource(9))

	for _, policy := range []table.Policy{table.Equality{}, table.Covering{}} {
		for i := range 10 {
			target := randomDFA(r, 2+r.Intn(3), 2)
			o := newOracle(t, target)
			l := alf.New(2, alf.WithPolicy(policy))
			want, err := l.Run(ctx, o, o)
			require.NoError(t, err)

			// Through JSON, as every store does.
			data, err := json.Marshal(l.Snapshot())
			require.NoError(t, err)
			var snap domain.Snapshot
			require.NoError(t, json.Unmarshal(data, &snap))

			restored, err := alf.Restore(&snap)
			require.NoError(t, err)
			assert.Equal(t, l.Round(), restored.Round())
			assert.Equal(t, policy.Name(), restored.Mode())

			status, err := restored.Advance(ctx)
			require.NoError(t, err)
			require.Equal(t, alf.StatusConjectureReady, status, "%s target %d: every cell is already known", policy.Name(), i)

			got, err := restored.Conjecture(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%s target %d", policy.Name(), i)
		}
	}
}

func TestRestore_Invalid(t *testing.T) {
	_, err := alf.Restore(&domain.Snapshot{Mode: "sat"})
	assert.Error(t, err)

	_, err = alf.Restore(&domain.Snapshot{Mode: "equality", AlphabetSize: 2, Knowledge: []byte{1}})
	assert.ErrorIs(t, err, domain.ErrMalformedData)
}

func TestLearner_SymbolBound(t *testing.T) {
	ctx := context.Background()
	top := domain.Word{domain.MaxAlphabetSize - 1}

	l := alf.New(1)
	require.NoError(t, l.Answer(ctx, top, true))
	assert.ErrorIs(t, l.AddCounterexample(ctx, domain.Counterexample{Word: domain.Word{domain.MaxAlphabetSize}}), domain.ErrInvalidWord)
	assert.Equal(t, 0, l.Round())

	restored, err := alf.Restore(l.Snapshot())
	require.NoError(t, err)
	answer, ok := restored.Knowledge().Resolve(top)
	assert.True(t, ok)
	assert.True(t, answer)

	_, err = alf.Restore(&domain.Snapshot{Mode: "equality", AlphabetSize: domain.MaxAlphabetSize + 1})
	assert.ErrorIs(t, err, domain.ErrInvalidAlphabet)
}

func TestLearner_RoundLimit(t *testing.T) {
	o := newOracle(t, containsZeroOne())
	n := 0
	never := equivalenceFunc(func(context.Context, *domain.Automaton) (*domain.Counterexample, error) {
		n++
		return &domain.Counterexample{Word: make(domain.Word, n)}, nil
	})

	l := alf.New(2, alf.WithMaxRounds(2))
	conj, err := l.Run(context.Background(), o, never)
	assert.ErrorIs(t, err, domain.ErrRoundLimit)
	assert.NotNil(t, conj, "the last conjecture is still returned")
	assert.Equal(t, 2, l.Round())
	assert.Equal(t, 2, n, "equivalence queries issued")

	n = 0
	_, err = alf.New(2, alf.WithMaxRounds(1)).Run(context.Background(), o, never)
	assert.ErrorIs(t, err, domain.ErrRoundLimit)
	assert.Equal(t, 1, n)
}

func TestLearner_RunHonorsCancellation(t *testing.T) {
	o := newOracle(t, containsZeroOne())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := alf.New(2).Run(ctx, o, o)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLearner_Hooks(t *testing.T) {
	counts := map[domain.EventType]int{}
	record := func(_ context.Context, ev *domain.LearnerEvent) { counts[ev.Type]++ }
	hooks := domain.LifecycleHooks{
		OnQueriesPending: record,
		OnAnswers:        record,
		OnConjecture:     record,
		OnCounterexample: record,
	}

	o := newOracle(t, containsZeroOne())
	l := alf.New(2, alf.WithLifecycleHooks(hooks))
	_, err := l.Run(context.Background(), o, o)
	require.NoError(t, err)

	assert.Equal(t, l.Round()+1, counts[domain.EventConjecture])
	assert.Equal(t, l.Round(), counts[domain.EventCounterexample])
	assert.Equal(t, counts[domain.EventQueriesPending], counts[domain.EventAnswers])
	assert.Positive(t, counts[domain.EventAnswers])
}

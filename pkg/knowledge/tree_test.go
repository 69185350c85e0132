package knowledge_test

import (
	"slices"
	"testing"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(t *knowledge.Tree) []knowledge.Entry {
	return slices.Collect(t.All())
}

func TestTree_AddAndResolve(t *testing.T) {
	kb := knowledge.New()
	assert.Equal(t, 1, kb.Timestamp())
	assert.Equal(t, 1, kb.CountNodes())

	require.NoError(t, kb.AddKnowledge(domain.Word{0, 1}, true))
	require.NoError(t, kb.AddKnowledge(domain.Word{}, false))

	a, ok := kb.Resolve(domain.Word{0, 1})
	assert.True(t, ok)
	assert.True(t, a)

	a, ok = kb.Resolve(domain.Word{})
	assert.True(t, ok)
	assert.False(t, a)

	_, ok = kb.Resolve(domain.Word{0})
	assert.False(t, ok, "prefix nodes exist but hold no answer")

	assert.Equal(t, 3, kb.CountNodes())
	assert.Equal(t, 2, kb.CountAnswers())
	assert.Equal(t, 3, kb.Timestamp())
}

func TestTree_ConflictRejection(t *testing.T) {
	kb := knowledge.New()
	require.NoError(t, kb.AddKnowledge(domain.Word{0, 1}, true))
	before := kb.Serialize()

	err := kb.AddKnowledge(domain.Word{0, 1}, false)
	assert.ErrorIs(t, err, domain.ErrKnowledgeConflict)

	a, ok := kb.Resolve(domain.Word{0, 1})
	assert.True(t, ok)
	assert.True(t, a)
	assert.Equal(t, before, kb.Serialize(), "a rejected fact leaves the tree byte-for-byte unchanged")

	// Repeating a known fact is accepted and does not advance the counter.
	ts := kb.Timestamp()
	require.NoError(t, kb.AddKnowledge(domain.Word{0, 1}, true))
	assert.Equal(t, ts, kb.Timestamp())
}

func TestTree_ResolveNeverMutates(t *testing.T) {
	kb := knowledge.New()
	require.NoError(t, kb.AddKnowledge(domain.Word{1}, true))
	before := kb.Serialize()

	_, ok := kb.Resolve(domain.Word{0, 0, 0})
	assert.False(t, ok)
	assert.Equal(t, before, kb.Serialize())
	assert.Equal(t, 2, kb.CountNodes())
}

func TestTree_ResolveOrAddIsIdempotent(t *testing.T) {
	kb := knowledge.New()

	_, ok := kb.ResolveOrAdd(domain.Word{1, 0})
	assert.False(t, ok)
	first := kb.Serialize()

	_, ok = kb.ResolveOrAdd(domain.Word{1, 0})
	assert.False(t, ok)
	assert.Equal(t, first, kb.Serialize())
	assert.Equal(t, 1, kb.CountQueries())

	require.NoError(t, kb.AddKnowledge(domain.Word{1, 0}, true))
	assert.Equal(t, 0, kb.CountQueries())
	a, ok := kb.ResolveOrAdd(domain.Word{1, 0})
	assert.True(t, ok)
	assert.True(t, a)
}

func TestTree_QueryQueueIsFIFO(t *testing.T) {
	kb := knowledge.New()
	order := []domain.Word{{1}, {0, 0}, {}, {0}}
	for _, w := range order {
		assert.True(t, kb.MarkRequired(w))
	}
	assert.True(t, kb.MarkRequired(domain.Word{0, 0}), "re-marking keeps the original position")

	assert.Equal(t, order, kb.PendingWords())

	require.NoError(t, kb.AddKnowledge(domain.Word{0, 0}, false))
	assert.Equal(t, []domain.Word{{1}, {}, {0}}, kb.PendingWords())
	assert.False(t, kb.MarkRequired(domain.Word{0, 0}), "answered words are never queued")
}

func TestTree_ClearQueriesPrunes(t *testing.T) {
	kb := knowledge.New()
	kb.MarkRequired(domain.Word{0, 1, 1})
	kb.MarkRequired(domain.Word{0})
	require.NoError(t, kb.AddKnowledge(domain.Word{1}, true))
	assert.Equal(t, 5, kb.CountNodes())

	kb.ClearQueries()
	assert.Equal(t, 0, kb.CountQueries())
	assert.Equal(t, 2, kb.CountNodes(), "only the root and the answered word survive")
	assert.Empty(t, kb.PendingWords())

	a, ok := kb.Resolve(domain.Word{1})
	assert.True(t, ok)
	assert.True(t, a)
}

func TestTree_MonotonicTimestamps(t *testing.T) {
	kb := knowledge.New()
	words := []domain.Word{{0}, {1}, {0, 0}, {1, 1, 0}, {}}
	for i, w := range words {
		require.NoError(t, kb.AddKnowledge(w, i%2 == 0))
	}

	stamps := map[string]int{}
	for e := range kb.Answers() {
		stamps[e.Word.Key()] = e.Timestamp
	}
	for i := 1; i < len(words); i++ {
		assert.Less(t, stamps[words[i-1].Key()], stamps[words[i].Key()])
	}
	assert.Equal(t, len(words)+1, kb.Timestamp())
}

func TestTree_Undo(t *testing.T) {
	kb := knowledge.New()
	require.NoError(t, kb.AddKnowledge(domain.Word{0}, true))    // ts 1
	require.NoError(t, kb.AddKnowledge(domain.Word{1}, false))   // ts 2
	require.NoError(t, kb.AddKnowledge(domain.Word{0, 0}, true)) // ts 3
	assert.Equal(t, 4, kb.Timestamp())

	kb.Undo(1)
	assert.Equal(t, 3, kb.Timestamp())
	_, ok := kb.Resolve(domain.Word{0, 0})
	assert.False(t, ok)
	_, ok = kb.Resolve(domain.Word{1})
	assert.True(t, ok)
	assert.Equal(t, 3, kb.CountNodes(), "the reverted leaf is pruned")

	// Requests beyond the available history clamp at 1.
	kb.Undo(10)
	assert.Equal(t, 1, kb.Timestamp())
	assert.Equal(t, 0, kb.CountAnswers())
	assert.Equal(t, 1, kb.CountNodes())

	kb.Undo(3)
	assert.Equal(t, 1, kb.Timestamp())
}

func TestTree_UndoRevertsRecentQueries(t *testing.T) {
	kb := knowledge.New()
	require.NoError(t, kb.AddKnowledge(domain.Word{0}, true)) // ts 1
	kb.MarkRequired(domain.Word{1})                          // stamped 2
	kb.Undo(1)

	assert.Equal(t, 0, kb.CountQueries())
	assert.Equal(t, 0, kb.CountAnswers())
	assert.Equal(t, 1, kb.CountNodes())
}

func TestTree_IteratorVisitsEveryNodeOnce(t *testing.T) {
	kb := knowledge.New()
	require.NoError(t, kb.AddKnowledge(domain.Word{1, 0}, true))
	kb.MarkRequired(domain.Word{0, 1})
	require.NoError(t, kb.AddKnowledge(domain.Word{0}, false))

	var words []string
	for e := range kb.All() {
		words = append(words, e.Word.String())
	}
	assert.Equal(t, []string{"ε", "0", "0.1", "1", "1.0"}, words)
	assert.Equal(t, kb.CountNodes(), len(words))

	// Early termination is honoured.
	n := 0
	for range kb.All() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestTree_ClearAndStats(t *testing.T) {
	kb := knowledge.New()
	require.NoError(t, kb.AddKnowledge(domain.Word{0, 0, 0}, true))
	kb.MarkRequired(domain.Word{1})

	st := kb.Stats()
	assert.Equal(t, 5, st.Nodes)
	assert.Equal(t, 1, st.Answers)
	assert.Equal(t, 1, st.Queries)
	assert.Positive(t, st.Memory)

	kb.Clear()
	assert.Equal(t, 1, kb.CountNodes())
	assert.Equal(t, 1, kb.Timestamp())
	assert.Empty(t, kb.PendingWords())

	// Freed slots are recycled without corrupting the structure.
	require.NoError(t, kb.AddKnowledge(domain.Word{2}, false))
	assert.Len(t, entries(kb), 2)
}

func TestTree_RejectsNegativeSymbols(t *testing.T) {
	kb := knowledge.New()
	assert.ErrorIs(t, kb.AddKnowledge(domain.Word{0, -1}, true), domain.ErrInvalidWord)
	assert.False(t, kb.MarkRequired(domain.Word{-2}))
	assert.Equal(t, 1, kb.CountNodes())
}

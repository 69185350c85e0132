package table_test

import (
	"math/rand"
	"testing"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/knowledge"
	"github.com/aretw0/alf/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// containsZeroOne accepts every word over {0,1} containing the factor 01.
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

// secondToLastIsOne is the classic language whose residual automaton is smaller
// than its minimal DFA.
func secondToLastIsOne() *domain.Automaton {
	return &domain.Automaton{
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

// wordsUpTo lists every word of length at most n in length-lexicographic order.
func wordsUpTo(alphabet, n int) []domain.Word {
	out := []domain.Word{{}}
	layer := []domain.Word{{}}
	for range n {
		var next []domain.Word
		for _, w := range layer {
			for s := range alphabet {
				next = append(next, w.Append(domain.Symbol(s)))
			}
		}
		out = append(out, next...)
		layer = next
	}
	return out
}

func compile(t *testing.T, a *domain.Automaton) *domain.Machine {
	t.Helper()
	m, err := a.Compile()
	require.NoError(t, err)
	return m
}

// complete drives the table to Ready, answering every query from target.
func complete(t *testing.T, tbl *table.Table, target *domain.Machine) {
	t.Helper()
	kb := tbl.Knowledge()
	for range 1000 {
		res, err := tbl.Complete()
		require.NoError(t, err)
		if res == table.Ready {
			return
		}
		require.Equal(t, table.Incomplete, res)
		pending := kb.PendingWords()
		require.NotEmpty(t, pending, "an incomplete table leaves queries behind")
		for _, w := range pending {
			require.NoError(t, kb.AddKnowledge(w, target.Accepts(w)))
		}
	}
	t.Fatal("table never became ready")
}

// learn runs the counterexample loop until the conjecture agrees with target on
// every word up to maxLen.
func learn(t *testing.T, tbl *table.Table, target *domain.Machine, maxLen int) *domain.Automaton {
	t.Helper()
	words := wordsUpTo(target.AlphabetSize(), maxLen)
	for range 100 {
		complete(t, tbl, target)
		assertClosedAndConsistent(t, tbl)

		conj, err := tbl.DeriveConjecture()
		require.NoError(t, err)
		m := compile(t, conj)

		var cex domain.Word
		for _, w := range words {
			if m.Accepts(w) != target.Accepts(w) {
				cex = w
				break
			}
		}
		if cex == nil {
			return conj
		}
		answer := target.Accepts(cex)
		require.NoError(t, tbl.AddCounterexample(cex, &answer))
	}
	t.Fatal("learning did not converge")
	return nil
}

// assertClosedAndConsistent checks the ready table exhaustively against its policy.
func assertClosedAndConsistent(t *testing.T, tbl *table.Table) {
	t.Helper()
	p := tbl.Policy()
	width := len(tbl.Columns())
	confirmed := tbl.Confirmed()
	frontier := tbl.Frontier()

	var all [][]bool
	for _, r := range append(append([]table.Row{}, confirmed...), frontier...) {
		require.Len(t, r.Cells, width, "row %s is not filled", r.Index)
		all = append(all, r.Cells)
	}

	for _, f := range frontier {
		if !p.Prime(f.Cells, all) {
			continue
		}
		found := false
		for _, c := range confirmed {
			if assert.ObjectsAreEqual(c.Cells, f.Cells) {
				found = true
				break
			}
		}
		assert.True(t, found, "prime frontier row %s has no confirmed twin", f.Index)
	}

	for _, u := range confirmed {
		for _, v := range confirmed {
			if u.Index.Equal(v.Index) || !p.Covers(v.Cells, u.Cells) {
				continue
			}
			for a := range tbl.AlphabetSize() {
				ua, ok := tbl.Lookup(u.Index.Append(domain.Symbol(a)))
				require.True(t, ok)
				va, ok := tbl.Lookup(v.Index.Append(domain.Symbol(a)))
				require.True(t, ok)
				assert.True(t, p.Covers(va.Cells, ua.Cells),
					"rows %s and %s disagree after symbol %d", u.Index, v.Index, a)
			}
		}
	}
}

func newTable(opts ...table.Option) *table.Table {
	return table.New(knowledge.New(), 2, opts...)
}

package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_Markdown(t *testing.T) {
	yes := true
	r := &Report{
		ID:              "abc",
		Mode:            "equality",
		Status:          "conjecture_ready",
		Round:           1,
		Table:           table.Stats{Confirmed: 3, Frontier: 6, Columns: 2, State: "ready"},
		Columns:         []string{"ε", "1"},
		Counterexamples: []domain.Counterexample{{Word: domain.Word{0, 1}, Answer: &yes}},
		Conjecture:      &domain.Automaton{States: 3, Initial: []int{0}, Accepting: []int{2}},
	}

	md := r.Markdown()
	assert.Contains(t, md, "# Session abc")
	assert.Contains(t, md, "| status | conjecture_ready |")
	assert.Contains(t, md, "- `0.1 → true`")
	assert.Contains(t, md, "3 states, initial 0, accepting 2.")
	assert.NotContains(t, md, "Pending queries")
}

func TestNewRenderer_NoTTY(t *testing.T) {
	render := NewRenderer(&bytes.Buffer{})
	out, err := render("# Session abc\n\n- `0.1`\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Session abc")
	assert.Contains(t, out, "0.1")
}

package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/knowledge"
	"github.com/aretw0/alf/pkg/table"
	"github.com/muesli/termenv"
)

// Summary is what the CLI reports at the end of a learning run.
type Summary struct {
	Mode       string
	Rounds     int
	Conjecture *domain.Automaton
	Knowledge  knowledge.Stats
	Table      table.Stats
	Err        error
}

// PrintSummary writes a colored report of a learning run.
func PrintSummary(w io.Writer, s Summary) {
	p := termenv.EnvColorProfile()
	label := func(text string) termenv.Style {
		return termenv.String(fmt.Sprintf("%-14s", text)).Foreground(p.Color("#a78bfa"))
	}

	status := termenv.String("learned").Foreground(p.Color("#22c55e")).Bold()
	if s.Err != nil {
		status = termenv.String("failed: " + s.Err.Error()).Foreground(p.Color("#ef4444")).Bold()
	}
	fmt.Fprintln(w, label("status"), status)
	fmt.Fprintln(w, label("mode"), s.Mode)
	fmt.Fprintln(w, label("rounds"), s.Rounds)
	if c := s.Conjecture; c != nil {
		kind := "nondeterministic"
		if c.IsDeterministic() {
			kind = "deterministic"
		}
		fmt.Fprintln(w, label("states"), fmt.Sprintf("%d (%s)", c.States, kind))
		fmt.Fprintln(w, label("accepting"), joinInts(c.Accepting))
	}
	fmt.Fprintln(w, label("table"), fmt.Sprintf("%d rows, %d frontier, %d columns", s.Table.Confirmed, s.Table.Frontier, s.Table.Columns))
	fmt.Fprintln(w, label("knowledge"), fmt.Sprintf("%d answers, %d nodes, %d bytes", s.Knowledge.Answers, s.Knowledge.Nodes, s.Knowledge.Memory))
}

func joinInts(xs []int) string {
	if len(xs) == 0 {
		return "none"
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, " ")
}

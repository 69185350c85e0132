package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/knowledge"
	"github.com/aretw0/alf/pkg/table"
)

// Report describes a stored learning session.
type Report struct {
	ID              string                  `json:"id"`
	Mode            string                  `json:"mode"`
	Status          string                  `json:"status"`
	Round           int                     `json:"round"`
	Knowledge       knowledge.Stats         `json:"knowledge"`
	Table           table.Stats             `json:"table"`
	Columns         []string                `json:"columns"`
	PendingQueries  []string                `json:"pending_queries"`
	Counterexamples []domain.Counterexample `json:"counterexamples,omitempty"`
	Conjecture      *domain.Automaton       `json:"conjecture,omitempty"`
}

// Markdown lays the report out as a markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session %s\n\n", r.ID)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| mode | %s |\n", r.Mode)
	fmt.Fprintf(&b, "| status | %s |\n", r.Status)
	fmt.Fprintf(&b, "| round | %d |\n", r.Round)
	fmt.Fprintf(&b, "| table | %d rows, %d frontier, %d columns (%s) |\n",
		r.Table.Confirmed, r.Table.Frontier, r.Table.Columns, r.Table.State)
	fmt.Fprintf(&b, "| knowledge | %d answers, %d queries, %d nodes |\n",
		r.Knowledge.Answers, r.Knowledge.Queries, r.Knowledge.Nodes)

	list := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n## %s\n\n", title)
		for _, it := range items {
			fmt.Fprintf(&b, "- `%s`\n", it)
		}
	}
	list("Columns", r.Columns)
	list("Pending queries", r.PendingQueries)

	if len(r.Counterexamples) > 0 {
		cexs := make([]string, len(r.Counterexamples))
		for i, c := range r.Counterexamples {
			cexs[i] = c.Word.String()
			if c.Answer != nil {
				cexs[i] += fmt.Sprintf(" → %t", *c.Answer)
			}
		}
		list("Counterexamples", cexs)
	}

	if c := r.Conjecture; c != nil {
		fmt.Fprintf(&b, "\n## Conjecture\n\n%d states, initial %s, accepting %s.\n",
			c.States, joinInts(c.Initial), joinInts(c.Accepting))
	}
	return b.String()
}

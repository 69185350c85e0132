package graph

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/alf/pkg/domain"
)

// GraphOverlay contains dynamic data to visualize on the graph.
type GraphOverlay struct {
	// Trace highlights every state visited while reading the word.
	Trace domain.Word
	// Symbols names the alphabet; missing names fall back to the symbol number.
	Symbols []string
}

// GenerateMermaid produces a Mermaid flowchart syntax string for an automaton.
// It applies semantic styling:
// - Accepting: (((Double circle)))
// - Other: ((Circle))
// Initial states get an entry arrow. Parallel edges are merged into one
// labelled with every symbol.
func GenerateMermaid(a *domain.Automaton, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	accepting := make(map[int]bool, len(a.Accepting))
	for _, q := range a.Accepting {
		accepting[q] = true
	}
	for q := range a.States {
		opener, closer := "((", "))"
		if accepting[q] {
			opener, closer = "(((", ")))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%d\"%s\n", stateID(q), opener, q, closer)
	}
	for i, q := range a.Initial {
		fmt.Fprintf(&sb, "    start%d[ ] --> %s\n", i, stateID(q))
	}

	// Group symbols by edge, in order of first appearance.
	type edge struct{ from, to int }
	var order []edge
	labels := make(map[edge][]domain.Symbol)
	for _, t := range a.Transitions {
		e := edge{t.From, t.To}
		if _, ok := labels[e]; !ok {
			order = append(order, e)
		}
		labels[e] = append(labels[e], t.Symbol)
	}
	slices.SortStableFunc(order, func(x, y edge) int {
		if x.from != y.from {
			return x.from - y.from
		}
		return x.to - y.to
	})
	for _, e := range order {
		syms := labels[e]
		slices.Sort(syms)
		names := make([]string, len(syms))
		for i, s := range syms {
			names[i] = symbolName(s, overlay)
		}
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", stateID(e.from), strings.Join(names, ", "), stateID(e.to))
	}

	// Apply Overlay Styles
	if overlay != nil && overlay.Trace != nil {
		m, err := a.Compile()
		if err != nil {
			return sb.String()
		}
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[int]bool)
		set := m.Start()
		for _, s := range overlay.Trace {
			for _, q := range set {
				visited[q] = true
			}
			set = m.Step(set, s)
		}
		for q := range a.States {
			if visited[q] && !slices.Contains(set, q) {
				fmt.Fprintf(&sb, "    class %s visited;\n", stateID(q))
			}
		}
		for _, q := range set {
			fmt.Fprintf(&sb, "    class %s current;\n", stateID(q))
		}
	}

	return sb.String()
}

func stateID(q int) string {
	return "q" + strconv.Itoa(q)
}

func symbolName(s domain.Symbol, overlay *GraphOverlay) string {
	if overlay != nil && int(s) < len(overlay.Symbols) && overlay.Symbols[s] != "" {
		return strings.ReplaceAll(overlay.Symbols[s], "\"", "'")
	}
	return strconv.Itoa(int(s))
}

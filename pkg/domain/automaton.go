package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Transition is a single labelled edge of an Automaton.
type Transition struct {
	From   int    `json:"from" yaml:"from" mapstructure:"from"`
	Symbol Symbol `json:"symbol" yaml:"symbol" mapstructure:"symbol"`
	To     int    `json:"to" yaml:"to" mapstructure:"to"`
}

// Automaton is a finite automaton in serializable form.
// States are numbered 0..States-1. Missing transitions lead nowhere (an implicit sink).
type Automaton struct {
	AlphabetSize int          `json:"alphabet_size" yaml:"alphabet_size" mapstructure:"alphabet_size"`
	States       int          `json:"states" yaml:"states" mapstructure:"states"`
	Initial      []int        `json:"initial" yaml:"initial" mapstructure:"initial"`
	Accepting    []int        `json:"accepting" yaml:"accepting" mapstructure:"accepting"`
	Transitions  []Transition `json:"transitions" yaml:"transitions" mapstructure:"transitions"`
}

// Validate checks that every referenced state and symbol is in range.
func (a *Automaton) Validate() error {
	if a.AlphabetSize < 0 || a.States < 0 {
		return fmt.Errorf("%w: negative sizes", ErrInvalidAutomaton)
	}
	if err := ValidateAlphabetSize(a.AlphabetSize); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAutomaton, err)
	}
	inRange := func(q int) bool { return q >= 0 && q < a.States }
	for _, q := range a.Initial {
		if !inRange(q) {
			return fmt.Errorf("%w: initial state %d out of range", ErrInvalidAutomaton, q)
		}
	}
	for _, q := range a.Accepting {
		if !inRange(q) {
			return fmt.Errorf("%w: accepting state %d out of range", ErrInvalidAutomaton, q)
		}
	}
	for _, t := range a.Transitions {
		if !inRange(t.From) || !inRange(t.To) {
			return fmt.Errorf("%w: transition %d -%d-> %d out of range", ErrInvalidAutomaton, t.From, t.Symbol, t.To)
		}
		if t.Symbol < 0 || int(t.Symbol) >= a.AlphabetSize {
			return fmt.Errorf("%w: symbol %d outside alphabet of size %d", ErrInvalidAutomaton, t.Symbol, a.AlphabetSize)
		}
	}
	return nil
}

// IsDeterministic reports whether the automaton has exactly one initial state and
// at most one successor per state and symbol.
func (a *Automaton) IsDeterministic() bool {
	if len(a.Initial) != 1 {
		return false
	}
	seen := make(map[[2]int]bool, len(a.Transitions))
	for _, t := range a.Transitions {
		k := [2]int{t.From, int(t.Symbol)}
		if seen[k] {
			return false
		}
		seen[k] = true
	}
	return true
}

// Compile validates the automaton and builds its simulation tables.
func (a *Automaton) Compile() (*Machine, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	m := &Machine{
		alphabet:  a.AlphabetSize,
		accepting: make([]bool, a.States),
		delta:     make([][][]int, a.States),
	}
	for q := range m.delta {
		m.delta[q] = make([][]int, a.AlphabetSize)
	}
	for _, q := range a.Accepting {
		m.accepting[q] = true
	}
	for _, t := range a.Transitions {
		row := m.delta[t.From][t.Symbol]
		if !slices.Contains(row, t.To) {
			m.delta[t.From][t.Symbol] = append(row, t.To)
		}
	}
	m.initial = normalize(slices.Clone(a.Initial))
	return m, nil
}

// Accepts compiles the automaton and runs w on it. Invalid automata accept nothing.
func (a *Automaton) Accepts(w Word) bool {
	m, err := a.Compile()
	if err != nil {
		return false
	}
	return m.Accepts(w)
}

// StateSet is a sorted, duplicate free set of states.
type StateSet []int

// Key returns a string identifying the set.
func (s StateSet) Key() string {
	parts := make([]string, len(s))
	for i, q := range s {
		parts[i] = strconv.Itoa(q)
	}
	return strings.Join(parts, ",")
}

// Machine is a compiled Automaton. It is immutable and safe for concurrent use.
type Machine struct {
	alphabet  int
	initial   StateSet
	accepting []bool
	delta     [][][]int
}

// AlphabetSize returns the number of symbols the machine was compiled for.
func (m *Machine) AlphabetSize() int { return m.alphabet }

// Start returns the set of initial states.
func (m *Machine) Start() StateSet { return slices.Clone(m.initial) }

// Step returns the successors of set under s. Symbols outside the alphabet lead to ∅.
func (m *Machine) Step(set StateSet, s Symbol) StateSet {
	if s < 0 || int(s) >= m.alphabet {
		return StateSet{}
	}
	var out []int
	for _, q := range set {
		out = append(out, m.delta[q][s]...)
	}
	return normalize(out)
}

// Accepting reports whether any state in set is accepting.
func (m *Machine) Accepting(set StateSet) bool {
	for _, q := range set {
		if m.accepting[q] {
			return true
		}
	}
	return false
}

// Accepts reports whether the machine accepts w.
func (m *Machine) Accepts(w Word) bool {
	set := m.Start()
	for _, s := range w {
		set = m.Step(set, s)
		if len(set) == 0 {
			return false
		}
	}
	return m.Accepting(set)
}

func normalize(states []int) StateSet {
	slices.Sort(states)
	return StateSet(slices.Compact(states))
}

package table

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/knowledge"
)

// State is the phase of the completion loop.
type State uint8

const (
	StateUninitialized State = iota
	StateFilling
	StateClosing
	StateConsistencyChecking
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateFilling:
		return "filling"
	case StateClosing:
		return "closing"
	case StateConsistencyChecking:
		return "consistency_checking"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Result reports the outcome of one completion pass.
type Result uint8

const (
	// Incomplete means cells are missing; the knowledge tree holds the queries.
	Incomplete Result = iota
	// Changed means a row or column was added and the table must be refilled.
	Changed
	// Ready means the table is filled, closed and consistent.
	Ready
)

func (r Result) String() string {
	switch r {
	case Incomplete:
		return "incomplete"
	case Changed:
		return "changed"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("result(%d)", uint8(r))
	}
}

type row struct {
	index     domain.Word
	cells     []bool
	confirmed bool
}

type seed struct {
	word   domain.Word
	answer bool
}

// Row is a read-only view of an observation row.
type Row struct {
	Index     domain.Word
	Cells     []bool
	Confirmed bool
}

// Table is an observation table backed by a knowledge tree.
// A Table is not safe for concurrent use.
type Table struct {
	kb       *knowledge.Tree
	policy   Policy
	logger   *slog.Logger
	alphabet int
	state    State

	columns   []domain.Word
	columnSet map[string]struct{}
	confirmed []*row
	frontier  []*row
	rows      map[string]*row
	seeds     []seed
}

// Option configures a Table.
type Option func(*Table)

// WithPolicy sets the covers policy. Defaults to Equality.
func WithPolicy(p Policy) Option {
	return func(t *Table) {
		if p != nil {
			t.policy = p
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates an uninitialized table over an alphabet of the given size.
func New(kb *knowledge.Tree, alphabetSize int, opts ...Option) *Table {
	t := &Table{
		kb:        kb,
		policy:    Equality{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		alphabet:  min(max(0, alphabetSize), domain.MaxAlphabetSize),
		columnSet: make(map[string]struct{}),
		rows:      make(map[string]*row),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Table) init() {
	if t.state != StateUninitialized {
		return
	}
	t.addColumn(domain.Epsilon)
	t.confirm(t.newRow(domain.Epsilon))
	t.state = StateFilling
}

func (t *Table) newRow(w domain.Word) *row {
	r := &row{index: w.Clone()}
	t.rows[w.Key()] = r
	t.frontier = append(t.frontier, r)
	return r
}

// confirm moves r from the frontier to the confirmed pool and creates its successors.
func (t *Table) confirm(r *row) {
	if r.confirmed {
		return
	}
	r.confirmed = true
	t.frontier = slices.DeleteFunc(t.frontier, func(f *row) bool { return f == r })
	t.confirmed = append(t.confirmed, r)
	for a := range t.alphabet {
		t.successor(r, domain.Symbol(a))
	}
}

func (t *Table) successor(r *row, a domain.Symbol) *row {
	w := r.index.Append(a)
	if s, ok := t.rows[w.Key()]; ok {
		return s
	}
	return t.newRow(w)
}

func (t *Table) addColumn(e domain.Word) bool {
	k := e.Key()
	if _, ok := t.columnSet[k]; ok {
		return false
	}
	t.columnSet[k] = struct{}{}
	t.columns = append(t.columns, e.Clone())
	return true
}

// Step runs one fill, close and make-consistent pass.
//
// It returns Incomplete when membership answers are missing, Changed when the
// pass added a row or column, and Ready once nothing changed. An error means a
// knowledge conflict surfaced while filling; it is fatal to the learning run.
func (t *Table) Step() (Result, error) {
	t.init()

	t.state = StateFilling
	filled, err := t.fill()
	if err != nil {
		return Incomplete, err
	}
	if !filled {
		return Incomplete, nil
	}

	t.state = StateClosing
	if t.close() {
		t.state = StateFilling
		return Changed, nil
	}

	t.state = StateConsistencyChecking
	if t.makeConsistent() {
		t.state = StateFilling
		return Changed, nil
	}

	t.state = StateReady
	return Ready, nil
}

// Complete repeats Step until the table is Ready or answers are missing.
func (t *Table) Complete() (Result, error) {
	for {
		res, err := t.Step()
		if err != nil || res != Changed {
			return res, err
		}
	}
}

// fill writes pending counterexample answers to the knowledge tree, then fills
// every missing cell it can. Cells are only appended while contiguous; every
// unknown cell is queued as Required.
func (t *Table) fill() (bool, error) {
	seeds := t.seeds
	t.seeds = nil
	for _, s := range seeds {
		if err := t.kb.AddKnowledge(s.word, s.answer); err != nil {
			return false, fmt.Errorf("counterexample %s: %w", s.word, err)
		}
	}

	complete := true
	visit := func(r *row) {
		gap := false
		for j := len(r.cells); j < len(t.columns); j++ {
			a, ok := t.kb.ResolveOrAdd(r.index.Concat(t.columns[j]))
			switch {
			case !ok:
				gap = true
				complete = false
			case !gap:
				r.cells = append(r.cells, a)
			}
		}
	}
	for _, r := range t.confirmed {
		visit(r)
	}
	for _, r := range t.frontier {
		visit(r)
	}
	return complete, nil
}

func (t *Table) allCells() [][]bool {
	all := make([][]bool, 0, len(t.confirmed)+len(t.frontier))
	for _, r := range t.confirmed {
		all = append(all, r.cells)
	}
	for _, r := range t.frontier {
		all = append(all, r.cells)
	}
	return all
}

// represented reports whether a confirmed row carries the same answers as r.
func (t *Table) represented(r *row) bool {
	for _, c := range t.confirmed {
		if equal(c.cells, r.cells) {
			return true
		}
	}
	return false
}

// close promotes the first prime frontier row that no confirmed row represents.
func (t *Table) close() bool {
	all := t.allCells()
	for _, r := range t.frontier {
		if !t.policy.Prime(r.cells, all) || t.represented(r) {
			continue
		}
		t.logger.Debug("table not closed, promoting row", "row", r.index.String())
		t.confirm(r)
		return true
	}
	return false
}

// makeConsistent adds one distinguishing column for the first pair of covering
// confirmed rows whose successors are not covering.
func (t *Table) makeConsistent() bool {
	for _, u := range t.confirmed {
		for _, v := range t.confirmed {
			if u == v || !t.policy.Covers(v.cells, u.cells) {
				continue
			}
			for a := range t.alphabet {
				ua := t.successor(u, domain.Symbol(a))
				va := t.successor(v, domain.Symbol(a))
				if t.policy.Covers(va.cells, ua.cells) {
					continue
				}
				j := distinguishing(ua.cells, va.cells)
				if j < 0 {
					continue
				}
				col := domain.Word{domain.Symbol(a)}.Concat(t.columns[j])
				if !t.addColumn(col) {
					continue
				}
				t.logger.Debug("table not consistent, adding column",
					"rows", []string{u.index.String(), v.index.String()}, "column", col.String())
				return true
			}
		}
	}
	return false
}

// distinguishing returns the first column where a holds and b does not, falling
// back to the first column where they differ.
func distinguishing(a, b []bool) int {
	for i := range a {
		if a[i] && !b[i] {
			return i
		}
	}
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}

// IncreaseAlphabetSize widens the alphabet to n symbols, creating the new
// successor rows of every confirmed row. Shrinking is ignored and n is capped at
// domain.MaxAlphabetSize.
func (t *Table) IncreaseAlphabetSize(n int) {
	if n > domain.MaxAlphabetSize {
		t.logger.Warn("alphabet size capped", "requested", n, "max", domain.MaxAlphabetSize)
		n = domain.MaxAlphabetSize
	}
	if n <= t.alphabet {
		return
	}
	old := t.alphabet
	t.alphabet = n
	for _, r := range t.confirmed {
		for a := old; a < n; a++ {
			t.successor(r, domain.Symbol(a))
		}
	}
	if t.state != StateUninitialized {
		t.state = StateFilling
	}
	t.logger.Debug("alphabet widened", "from", old, "to", n)
}

// AddCounterexample absorbs a word the current conjecture gets wrong. Every prefix
// of w becomes a confirmed row; when that adds nothing, or the policy asks for it,
// every suffix of w becomes a column. A supplied answer is recorded on the next
// fill instead of being queried.
//
// It fails with domain.ErrInconsistentCounterexample when answer contradicts the
// knowledge tree, and with domain.ErrStaleCounterexample when w refines nothing.
func (t *Table) AddCounterexample(w domain.Word, answer *bool) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if answer != nil {
		if known, ok := t.kb.Resolve(w); ok && known != *answer {
			t.logger.Warn("counterexample contradicts knowledge", "word", w.String(), "known", known, "claimed", *answer)
			return fmt.Errorf("%w: word %s is known to be %t", domain.ErrInconsistentCounterexample, w, known)
		}
		for _, s := range t.seeds {
			if s.word.Equal(w) && s.answer != *answer {
				t.logger.Warn("counterexample contradicts pending counterexample", "word", w.String())
				return fmt.Errorf("%w: word %s was claimed %t", domain.ErrInconsistentCounterexample, w, s.answer)
			}
		}
	}

	t.init()
	t.IncreaseAlphabetSize(int(w.MaxSymbol()) + 1)

	rows := 0
	for i := 1; i <= len(w); i++ {
		p := w[:i]
		r, ok := t.rows[p.Key()]
		if !ok {
			r = t.newRow(p)
		}
		if !r.confirmed {
			t.confirm(r)
			rows++
		}
	}

	cols := 0
	if rows == 0 || t.policy.SuffixCounterexamples() {
		for i := range w {
			if t.addColumn(w[i:]) {
				cols++
			}
		}
	}

	if rows == 0 && cols == 0 {
		return fmt.Errorf("%w: %s", domain.ErrStaleCounterexample, w)
	}
	if answer != nil {
		t.seeds = append(t.seeds, seed{word: w.Clone(), answer: *answer})
	}
	t.state = StateFilling
	t.logger.Debug("counterexample added", "word", w.String(), "rows", rows, "columns", cols)
	return nil
}

// ConjectureReady reports whether the table is filled, closed and consistent.
func (t *Table) ConjectureReady() bool { return t.state == StateReady }

// DeriveConjecture builds the automaton described by a ready table.
//
// States are the distinct prime confirmed rows, numbered in confirmation order.
// A state is initial when the ε row covers it, accepting when its ε column holds,
// and q reaches every state covered by the row of q's index followed by the symbol.
func (t *Table) DeriveConjecture() (*domain.Automaton, error) {
	if t.state != StateReady {
		return nil, domain.ErrNoConjecture
	}

	all := t.allCells()
	var states []*row
	for _, c := range t.confirmed {
		if !t.policy.Prime(c.cells, all) {
			continue
		}
		if slices.ContainsFunc(states, func(s *row) bool { return equal(s.cells, c.cells) }) {
			continue
		}
		states = append(states, c)
	}

	a := &domain.Automaton{AlphabetSize: t.alphabet, States: len(states)}
	eps := t.rows[domain.Epsilon.Key()]
	coveredBy := func(cells []bool) []int {
		var out []int
		for q, s := range states {
			if t.policy.Covers(cells, s.cells) {
				out = append(out, q)
			}
		}
		return out
	}

	a.Initial = coveredBy(eps.cells)
	for q, s := range states {
		if s.cells[0] {
			a.Accepting = append(a.Accepting, q)
		}
		for sym := range t.alphabet {
			next := t.successor(s, domain.Symbol(sym))
			for _, to := range coveredBy(next.cells) {
				a.Transitions = append(a.Transitions, domain.Transition{From: q, Symbol: domain.Symbol(sym), To: to})
			}
		}
	}
	if err := a.Validate(); err != nil {
		return nil, errors.Join(domain.ErrNoConjecture, err)
	}
	return a, nil
}

// State returns the current phase.
func (t *Table) State() State { return t.state }

// Policy returns the covers policy.
func (t *Table) Policy() Policy { return t.policy }

// AlphabetSize returns the current alphabet size.
func (t *Table) AlphabetSize() int { return t.alphabet }

// Knowledge returns the backing knowledge tree.
func (t *Table) Knowledge() *knowledge.Tree { return t.kb }

// Columns returns a copy of the distinguishing suffixes, ε first.
func (t *Table) Columns() []domain.Word {
	out := make([]domain.Word, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Clone()
	}
	return out
}

func view(r *row) Row {
	return Row{Index: r.index.Clone(), Cells: slices.Clone(r.cells), Confirmed: r.confirmed}
}

// Confirmed returns the confirmed rows in confirmation order.
func (t *Table) Confirmed() []Row {
	out := make([]Row, len(t.confirmed))
	for i, r := range t.confirmed {
		out[i] = view(r)
	}
	return out
}

// Frontier returns the successor rows that are not confirmed.
func (t *Table) Frontier() []Row {
	out := make([]Row, len(t.frontier))
	for i, r := range t.frontier {
		out[i] = view(r)
	}
	return out
}

// Lookup returns the row indexed by w in either pool.
func (t *Table) Lookup(w domain.Word) (Row, bool) {
	r, ok := t.rows[w.Key()]
	if !ok {
		return Row{}, false
	}
	return view(r), true
}

// Stats summarizes the table.
type Stats struct {
	Confirmed int    `json:"confirmed"`
	Frontier  int    `json:"frontier"`
	Columns   int    `json:"columns"`
	Alphabet  int    `json:"alphabet"`
	State     string `json:"state"`
}

// Stats returns the table counters.
func (t *Table) Stats() Stats {
	return Stats{
		Confirmed: len(t.confirmed),
		Frontier:  len(t.frontier),
		Columns:   len(t.columns),
		Alphabet:  t.alphabet,
		State:     t.state.String(),
	}
}

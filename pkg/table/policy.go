package table

import "fmt"

// Policy is the covers predicate the engine is parameterized with. It decides how
// rows relate to each other, which rows may become states and how counterexamples
// are absorbed.
type Policy interface {
	// Name identifies the policy in snapshots and configuration.
	Name() string
	// Covers reports whether row a covers row b.
	Covers(a, b []bool) bool
	// Prime reports whether row is a candidate state given every row of the table.
	Prime(row []bool, all [][]bool) bool
	// SuffixCounterexamples reports whether every suffix of a counterexample is
	// added as a column, in addition to its prefixes as rows.
	SuffixCounterexamples() bool
}

const (
	ModeEquality = "equality"
	ModeCovering = "covering"
)

// Equality is the deterministic (Angluin-style) policy: rows cover each other only
// when identical, and every row is prime.
type Equality struct{}

func (Equality) Name() string { return ModeEquality }

func (Equality) Covers(a, b []bool) bool { return equal(a, b) }

func (Equality) Prime([]bool, [][]bool) bool { return true }

func (Equality) SuffixCounterexamples() bool { return false }

// Covering is the residual (NL*-style) policy: a covers b when a is true on every
// column b is true on. A row is prime unless it is the join of the rows it strictly
// covers.
type Covering struct{}

func (Covering) Name() string { return ModeCovering }

func (Covering) Covers(a, b []bool) bool { return covers(a, b) }

func (Covering) Prime(row []bool, all [][]bool) bool {
	acc := make([]bool, len(row))
	for _, other := range all {
		if len(other) != len(row) || equal(other, row) || !covers(row, other) {
			continue
		}
		for i, v := range other {
			acc[i] = acc[i] || v
		}
	}
	return !equal(acc, row)
}

func (Covering) SuffixCounterexamples() bool { return true }

// PolicyByName returns the policy registered under name.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case ModeEquality, "":
		return Equality{}, nil
	case ModeCovering:
		return Covering{}, nil
	default:
		return nil, fmt.Errorf("unknown learning mode %q", name)
	}
}

func equal(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func covers(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if b[i] && !a[i] {
			return false
		}
	}
	return true
}

package oracle

import (
	"context"
	"fmt"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/knowledge"
	"github.com/aretw0/alf/pkg/ports"
)

// Automaton answers membership and equivalence queries from a known target.
// It is immutable and safe for concurrent use.
type Automaton struct {
	target  *domain.Automaton
	machine *domain.Machine
}

var (
	_ ports.MembershipOracle  = (*Automaton)(nil)
	_ ports.EquivalenceOracle = (*Automaton)(nil)
	_ ports.BatchOracle       = (*Automaton)(nil)
)

// New compiles target into an oracle.
func New(target *domain.Automaton) (*Automaton, error) {
	m, err := target.Compile()
	if err != nil {
		return nil, err
	}
	return &Automaton{target: target, machine: m}, nil
}

// Target returns the automaton the oracle answers for.
func (o *Automaton) Target() *domain.Automaton { return o.target }

// Contains reports whether the target accepts w.
func (o *Automaton) Contains(ctx context.Context, w domain.Word) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return o.machine.Accepts(w), nil
}

// Check returns the shortest, then lexicographically least, word the conjecture
// and the target disagree on, or nil when they accept the same language.
func (o *Automaton) Check(ctx context.Context, conjecture *domain.Automaton) (*domain.Counterexample, error) {
	m, err := conjecture.Compile()
	if err != nil {
		return nil, fmt.Errorf("invalid conjecture: %w", err)
	}
	w, found, err := Difference(ctx, o.machine, m)
	if err != nil || !found {
		return nil, err
	}
	answer := o.machine.Accepts(w)
	return &domain.Counterexample{Word: w, Answer: &answer}, nil
}

// AnswerBatch answers a serialized query tree with an acceptance stream.
func (o *Automaton) AnswerBatch(ctx context.Context, queries []byte) ([]byte, error) {
	return Batch(o).AnswerBatch(ctx, queries)
}

// BatchFunc adapts a plain function to ports.BatchOracle.
type BatchFunc func(ctx context.Context, queries []byte) ([]byte, error)

func (f BatchFunc) AnswerBatch(ctx context.Context, queries []byte) ([]byte, error) {
	return f(ctx, queries)
}

// Batch turns a membership oracle into a batch oracle that decodes the query tree,
// asks every query in order and encodes the answers.
func Batch(m ports.MembershipOracle) ports.BatchOracle {
	return BatchFunc(func(ctx context.Context, queries []byte) ([]byte, error) {
		qt := knowledge.New()
		if err := qt.Deserialize(queries); err != nil {
			return nil, err
		}
		answers := make([]bool, 0, qt.CountQueries())
		for _, w := range qt.PendingWords() {
			a, err := m.Contains(ctx, w)
			if err != nil {
				return nil, fmt.Errorf("membership query %s: %w", w, err)
			}
			answers = append(answers, a)
		}
		return knowledge.EncodeAcceptances(answers), nil
	})
}

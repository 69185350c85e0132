package alf

import (
	"context"
	"fmt"

	"github.com/aretw0/alf/pkg/adapters/oracle"
	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/ports"
)

// Resolve answers every pending query by asking m one word at a time.
// It returns the number of answers recorded.
func (l *Learner) Resolve(ctx context.Context, m ports.MembershipOracle) (int, error) {
	words := l.kb.PendingWords()
	for _, w := range words {
		a, err := m.Contains(ctx, w)
		if err != nil {
			return 0, fmt.Errorf("membership query %s: %w", w, err)
		}
		if err := l.Answer(ctx, w, a); err != nil {
			return 0, err
		}
	}
	if len(words) > 0 {
		ev := l.event(domain.EventAnswers)
		ev.Queries = len(words)
		l.hooks.Emit(ctx, ev)
	}
	return len(words), nil
}

// ResolveBatch answers every pending query in one round trip through b.
func (l *Learner) ResolveBatch(ctx context.Context, b ports.BatchOracle) error {
	resp, err := b.AnswerBatch(ctx, l.PendingQueries())
	if err != nil {
		return fmt.Errorf("batch query: %w", err)
	}
	return l.SubmitAnswers(ctx, resp)
}

// Run executes the learning loop until the equivalence oracle accepts a
// conjecture. Cancellation is checked between steps. With WithMaxRounds(n), Run
// issues at most n equivalence queries and then returns the unverified conjecture
// with domain.ErrRoundLimit. In batch mode, membership queries travel through the
// serialized exchange format: m is used directly if it implements
// ports.BatchOracle, otherwise it is wrapped.
func (l *Learner) Run(ctx context.Context, m ports.MembershipOracle, e ports.EquivalenceOracle) (*domain.Automaton, error) {
	var batch ports.BatchOracle
	if l.batch {
		if b, ok := m.(ports.BatchOracle); ok {
			batch = b
		} else {
			batch = oracle.Batch(m)
		}
	}

	checks := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status, err := l.Advance(ctx)
		if err != nil {
			return nil, err
		}

		if status == StatusQueriesPending {
			if batch != nil {
				err = l.ResolveBatch(ctx, batch)
			} else {
				_, err = l.Resolve(ctx, m)
			}
			if err != nil {
				return nil, err
			}
			continue
		}

		conj, err := l.Conjecture(ctx)
		if err != nil {
			return nil, err
		}
		l.logger.Info("conjecture derived", "round", l.round, "states", conj.States)

		if l.maxRounds > 0 && checks >= l.maxRounds {
			return conj, fmt.Errorf("%w: %d equivalence queries", domain.ErrRoundLimit, l.maxRounds)
		}
		checks++
		cex, err := e.Check(ctx, conj)
		if err != nil {
			return nil, fmt.Errorf("equivalence query: %w", err)
		}
		if cex == nil {
			return conj, nil
		}
		if err := l.AddCounterexample(ctx, *cex); err != nil {
			return nil, err
		}
	}
}

package ports

import (
	"context"

	"github.com/aretw0/alf/pkg/domain"
)

// MembershipOracle answers membership queries one word at a time.
type MembershipOracle interface {
	Contains(ctx context.Context, w domain.Word) (bool, error)
}

// EquivalenceOracle checks a conjecture against the target language.
// It returns a nil counterexample when the conjecture is correct.
type EquivalenceOracle interface {
	Check(ctx context.Context, conjecture *domain.Automaton) (*domain.Counterexample, error)
}

// BatchOracle answers a whole round of membership queries at once. The request is
// a serialized query tree and the response an acceptance stream in query order.
type BatchOracle interface {
	AnswerBatch(ctx context.Context, queries []byte) ([]byte, error)
}

// MembershipFunc adapts a plain function to MembershipOracle.
type MembershipFunc func(ctx context.Context, w domain.Word) (bool, error)

func (f MembershipFunc) Contains(ctx context.Context, w domain.Word) (bool, error) {
	return f(ctx, w)
}

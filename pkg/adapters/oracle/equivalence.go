package oracle

import (
	"context"

	"github.com/aretw0/alf/pkg/domain"
)

type pair struct {
	a, b domain.StateSet
}

// Difference searches the product of the subset constructions of a and b breadth
// first, in ascending symbol order, for a word exactly one of them accepts. The
// first word found is the shortest and lexicographically least.
func Difference(ctx context.Context, a, b *domain.Machine) (domain.Word, bool, error) {
	alphabet := max(a.AlphabetSize(), b.AlphabetSize())

	type item struct {
		pair
		word domain.Word
	}
	start := item{pair: pair{a.Start(), b.Start()}, word: domain.Word{}}
	seen := map[string]bool{key(start.pair): true}
	queue := []item{start}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		cur := queue[0]
		queue = queue[1:]

		if a.Accepting(cur.a) != b.Accepting(cur.b) {
			return cur.word, true, nil
		}
		for s := range alphabet {
			sym := domain.Symbol(s)
			next := item{
				pair: pair{a.Step(cur.a, sym), b.Step(cur.b, sym)},
				word: cur.word.Append(sym),
			}
			k := key(next.pair)
			if seen[k] {
				continue
			}
			seen[k] = true
			queue = append(queue, next)
		}
	}
	return nil, false, nil
}

func key(p pair) string {
	return p.a.Key() + "|" + p.b.Key()
}

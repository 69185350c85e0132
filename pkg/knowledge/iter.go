package knowledge

import (
	"iter"

	"github.com/aretw0/alf/pkg/domain"
)

// Entry is a read-only view of one node.
type Entry struct {
	Word      domain.Word
	Status    Status
	Answer    bool
	Timestamp int
}

func (t *Tree) entry(id nodeID, w domain.Word) Entry {
	n := &t.nodes[id]
	return Entry{Word: w, Status: n.status, Answer: n.answer, Timestamp: n.stamp}
}

// All visits every existing node exactly once in depth-first, ascending symbol order.
// The tree must not be mutated while iterating.
func (t *Tree) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		t.walk(rootID, domain.Word{}, yield)
	}
}

func (t *Tree) walk(id nodeID, w domain.Word, yield func(Entry) bool) bool {
	if !yield(t.entry(id, w)) {
		return false
	}
	for s, c := range t.nodes[id].children {
		if c == noNode {
			continue
		}
		if !t.walk(c, w.Append(domain.Symbol(s)), yield) {
			return false
		}
	}
	return true
}

// Queries visits the Required nodes in the order they joined the queue.
// The tree must not be mutated while iterating.
func (t *Tree) Queries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for id := t.qHead; id != noNode; id = t.nodes[id].next {
			if !yield(t.entry(id, t.wordOf(id))) {
				return
			}
		}
	}
}

// PendingWords collects the Required words in queue order.
func (t *Tree) PendingWords() []domain.Word {
	words := make([]domain.Word, 0, t.queries)
	for e := range t.Queries() {
		words = append(words, e.Word)
	}
	return words
}

// Answers visits every Answered node in depth-first order.
func (t *Tree) Answers() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for e := range t.All() {
			if e.Status != StatusAnswered {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

package knowledge

import (
	"fmt"

	"github.com/aretw0/alf/pkg/domain"
)

// CreateQueryTree returns an independent tree holding exactly the Required words.
// Each carries a synthetic timestamp equal to its 1-based position in the query
// queue, which fixes the order answers must be supplied in.
func (t *Tree) CreateQueryTree() *Tree {
	q := New(WithLogger(t.logger))
	pos := 0
	for id := t.qHead; id != noNode; id = t.nodes[id].next {
		pos++
		qid := q.findOrCreate(t.wordOf(id))
		q.nodes[qid].status = StatusRequired
		q.nodes[qid].stamp = pos
		q.enqueue(qid)
	}
	q.timestamp = max(1, pos)
	return q
}

// DeserializeQueryAcceptances answers every Required word, in queue order, from an
// EncodeAcceptances buffer. The answer count must match CountQueries exactly; any
// mismatch or malformed buffer clears the tree.
func (t *Tree) DeserializeQueryAcceptances(data []byte) error {
	answers, err := DecodeAcceptances(data)
	if err != nil {
		t.Clear()
		return err
	}
	if len(answers) != t.queries {
		n := t.queries
		t.Clear()
		return fmt.Errorf("%w: got %d answers for %d queries", domain.ErrAnswerCountMismatch, len(answers), n)
	}
	ids := make([]nodeID, 0, t.queries)
	for id := t.qHead; id != noNode; id = t.nodes[id].next {
		ids = append(ids, id)
	}
	for i, id := range ids {
		t.setAnswer(id, answers[i], t.timestamp)
		t.timestamp++
	}
	return nil
}

// MergeKnowledgebase copies every answer of other into t. It is atomic: if any
// answer conflicts nothing is merged. All merged facts share one new timestamp.
// It returns the number of newly answered words.
func (t *Tree) MergeKnowledgebase(other *Tree) (int, error) {
	for e := range other.Answers() {
		if a, ok := t.Resolve(e.Word); ok && a != e.Answer {
			t.logger.Warn("merge rejected", "word", e.Word.String(), "known", a, "claimed", e.Answer)
			return 0, fmt.Errorf("%w: word %s already answered %t", domain.ErrKnowledgeConflict, e.Word, a)
		}
	}
	stamp := t.timestamp
	merged := 0
	for e := range other.Answers() {
		id := t.findOrCreate(e.Word)
		if t.nodes[id].status == StatusAnswered {
			continue
		}
		t.setAnswer(id, e.Answer, stamp)
		merged++
	}
	if merged > 0 {
		t.timestamp++
	}
	return merged, nil
}

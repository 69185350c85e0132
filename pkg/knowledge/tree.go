package knowledge

import (
	"fmt"
	"io"
	"log/slog"
	"unsafe"

	"github.com/aretw0/alf/pkg/domain"
)

// Status is the knowledge state of a single word.
type Status uint8

const (
	StatusIgnored  Status = iota // Nothing known, nothing asked
	StatusRequired               // Queued for an external answer
	StatusAnswered               // Answer recorded
)

func (s Status) String() string {
	switch s {
	case StatusIgnored:
		return "ignored"
	case StatusRequired:
		return "required"
	case StatusAnswered:
		return "answered"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

type nodeID int32

const noNode nodeID = -1

const rootID nodeID = 0

// node is one arena slot. A free slot has live == false.
type node struct {
	parent   nodeID
	label    domain.Symbol
	children []nodeID // indexed by symbol, noNode for absent children
	status   Status
	answer   bool
	stamp    int
	prev     nodeID // required queue links
	next     nodeID
	live     bool
}

// Tree is an incremental, versioned store of membership answers indexed by word.
//
// Nodes live in an arena and reference each other by index, so pruning and undo never
// leave dangling references. A Tree is not safe for concurrent use.
type Tree struct {
	nodes     []node
	free      []nodeID
	qHead     nodeID
	qTail     nodeID
	live      int
	queries   int
	answers   int
	timestamp int
	logger    *slog.Logger
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New returns an empty tree holding only the root (ε) with the counter at 1.
func New(opts ...Option) *Tree {
	t := &Tree{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.reset()
	return t
}

func (t *Tree) reset() {
	t.nodes = t.nodes[:0]
	t.free = t.free[:0]
	t.nodes = append(t.nodes, node{parent: noNode, label: -1, prev: noNode, next: noNode, live: true})
	t.qHead, t.qTail = noNode, noNode
	t.live = 1
	t.queries = 0
	t.answers = 0
	t.timestamp = 1
}

func (t *Tree) alloc(parent nodeID, label domain.Symbol) nodeID {
	n := node{parent: parent, label: label, prev: noNode, next: noNode, live: true}
	var id nodeID
	if k := len(t.free); k > 0 {
		id = t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[id] = n
	} else {
		id = nodeID(len(t.nodes))
		t.nodes = append(t.nodes, n)
	}
	p := &t.nodes[parent]
	for int(label) >= len(p.children) {
		p.children = append(p.children, noNode)
	}
	p.children[label] = id
	t.live++
	return id
}

func (t *Tree) child(id nodeID, s domain.Symbol) nodeID {
	ch := t.nodes[id].children
	if s < 0 || int(s) >= len(ch) {
		return noNode
	}
	return ch[s]
}

// find walks w without creating nodes.
func (t *Tree) find(w domain.Word) nodeID {
	id := rootID
	for _, s := range w {
		id = t.child(id, s)
		if id == noNode {
			return noNode
		}
	}
	return id
}

func (t *Tree) findOrCreate(w domain.Word) nodeID {
	id := rootID
	for _, s := range w {
		next := t.child(id, s)
		if next == noNode {
			next = t.alloc(id, s)
		}
		id = next
	}
	return id
}

func (t *Tree) wordOf(id nodeID) domain.Word {
	depth := 0
	for cur := id; cur != rootID; cur = t.nodes[cur].parent {
		depth++
	}
	w := make(domain.Word, depth)
	for cur := id; cur != rootID; cur = t.nodes[cur].parent {
		depth--
		w[depth] = t.nodes[cur].label
	}
	return w
}

func (t *Tree) enqueue(id nodeID) {
	n := &t.nodes[id]
	n.prev, n.next = t.qTail, noNode
	if t.qTail == noNode {
		t.qHead = id
	} else {
		t.nodes[t.qTail].next = id
	}
	t.qTail = id
	t.queries++
}

func (t *Tree) dequeue(id nodeID) {
	n := &t.nodes[id]
	if n.prev == noNode {
		t.qHead = n.next
	} else {
		t.nodes[n.prev].next = n.next
	}
	if n.next == noNode {
		t.qTail = n.prev
	} else {
		t.nodes[n.next].prev = n.prev
	}
	n.prev, n.next = noNode, noNode
	t.queries--
}

func (t *Tree) hasChildren(id nodeID) bool {
	for _, c := range t.nodes[id].children {
		if c != noNode {
			return true
		}
	}
	return false
}

// pruneUp removes id and its ancestors for as long as they are Ignored leaves.
func (t *Tree) pruneUp(id nodeID) {
	for id != rootID && t.nodes[id].live {
		n := &t.nodes[id]
		if n.status != StatusIgnored || t.hasChildren(id) {
			return
		}
		parent := n.parent
		p := &t.nodes[parent]
		p.children[n.label] = noNode
		for k := len(p.children); k > 0 && p.children[k-1] == noNode; k-- {
			p.children = p.children[:k-1]
		}
		*n = node{parent: noNode, prev: noNode, next: noNode}
		t.free = append(t.free, id)
		t.live--
		id = parent
	}
}

func (t *Tree) setAnswer(id nodeID, answer bool, stamp int) {
	n := &t.nodes[id]
	if n.status == StatusRequired {
		t.dequeue(id)
	}
	n.status = StatusAnswered
	n.answer = answer
	n.stamp = stamp
	t.answers++
}

// AddKnowledge records that w has the given answer. It fails with
// domain.ErrKnowledgeConflict, leaving the tree unchanged, if w is already answered
// with a different value. Re-adding a known fact is a no-op.
func (t *Tree) AddKnowledge(w domain.Word, answer bool) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if id := t.find(w); id != noNode && t.nodes[id].status == StatusAnswered {
		if t.nodes[id].answer == answer {
			return nil
		}
		t.logger.Warn("conflicting knowledge rejected", "word", w.String(), "known", t.nodes[id].answer, "claimed", answer)
		return fmt.Errorf("%w: word %s already answered %t", domain.ErrKnowledgeConflict, w, t.nodes[id].answer)
	}
	id := t.findOrCreate(w)
	t.setAnswer(id, answer, t.timestamp)
	t.timestamp++
	return nil
}

// Resolve returns the stored answer for w. It never mutates the tree.
func (t *Tree) Resolve(w domain.Word) (answer bool, ok bool) {
	id := t.find(w)
	if id == noNode || t.nodes[id].status != StatusAnswered {
		return false, false
	}
	return t.nodes[id].answer, true
}

// ResolveOrAdd is Resolve, but marks w as Required when no answer is known.
func (t *Tree) ResolveOrAdd(w domain.Word) (answer bool, ok bool) {
	if a, ok := t.Resolve(w); ok {
		return a, true
	}
	t.MarkRequired(w)
	return false, false
}

// MarkRequired queues w for an external answer. It returns false when w is already
// answered; marking an already Required word keeps its queue position.
func (t *Tree) MarkRequired(w domain.Word) bool {
	if w.Validate() != nil {
		return false
	}
	id := t.findOrCreate(w)
	n := &t.nodes[id]
	switch n.status {
	case StatusAnswered:
		return false
	case StatusIgnored:
		n.status = StatusRequired
		n.stamp = t.timestamp
		t.enqueue(id)
	}
	return true
}

// ClearQueries reverts every Required word to Ignored and prunes empty branches.
func (t *Tree) ClearQueries() {
	var reverted []nodeID
	for id := t.qHead; id != noNode; {
		next := t.nodes[id].next
		t.dequeue(id)
		t.nodes[id].status = StatusIgnored
		reverted = append(reverted, id)
		id = next
	}
	for _, id := range reverted {
		t.pruneUp(id)
	}
}

// Clear drops every node and resets the counter.
func (t *Tree) Clear() {
	t.reset()
}

// Undo reverts every node stamped at or after Timestamp()-n to Ignored, rewinds the
// counter by n (never below 1) and prunes empty branches. A request reaching past
// the available history is clamped.
func (t *Tree) Undo(n int) {
	if n <= 0 {
		return
	}
	threshold := t.timestamp - n
	if threshold < 1 {
		t.logger.Debug("undo clamped to available history", "requested", n, "timestamp", t.timestamp)
	}
	var reverted []nodeID
	for i := range t.nodes {
		nd := &t.nodes[i]
		if !nd.live || nd.status == StatusIgnored || nd.stamp < threshold {
			continue
		}
		id := nodeID(i)
		if nd.status == StatusRequired {
			t.dequeue(id)
		} else {
			t.answers--
		}
		nd.status = StatusIgnored
		nd.answer = false
		reverted = append(reverted, id)
	}
	t.timestamp = max(1, t.timestamp-n)
	for _, id := range reverted {
		t.pruneUp(id)
	}
}

// Timestamp returns the current version counter.
func (t *Tree) Timestamp() int { return t.timestamp }

// CountNodes returns the number of existing nodes, the root included.
func (t *Tree) CountNodes() int { return t.live }

// CountAnswers returns the number of Answered nodes.
func (t *Tree) CountAnswers() int { return t.answers }

// CountQueries returns the number of Required nodes.
func (t *Tree) CountQueries() int { return t.queries }

// MemoryUsage estimates the bytes held by the tree. Diagnostic only.
func (t *Tree) MemoryUsage() int {
	size := int(unsafe.Sizeof(*t))
	size += cap(t.nodes) * int(unsafe.Sizeof(node{}))
	size += cap(t.free) * int(unsafe.Sizeof(nodeID(0)))
	for i := range t.nodes {
		size += cap(t.nodes[i].children) * int(unsafe.Sizeof(nodeID(0)))
	}
	return size
}

// Stats summarizes the tree.
type Stats struct {
	Nodes     int `json:"nodes"`
	Answers   int `json:"answers"`
	Queries   int `json:"queries"`
	Timestamp int `json:"timestamp"`
	Memory    int `json:"memory_bytes"`
}

// Stats returns the tree counters.
func (t *Tree) Stats() Stats {
	return Stats{
		Nodes:     t.live,
		Answers:   t.answers,
		Queries:   t.queries,
		Timestamp: t.timestamp,
		Memory:    t.MemoryUsage(),
	}
}

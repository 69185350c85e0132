package knowledge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/aretw0/alf/pkg/domain"
)

// MaxEncodedSymbol is the largest child label Deserialize accepts. It matches the
// largest symbol a word may carry, so every tree survives a round trip.
const MaxEncodedSymbol = domain.MaxAlphabetSize - 1

const rootLabel = math.MaxUint32 // -1 as a 32-bit two's complement word

// Serialize encodes the tree as 32-bit big-endian words:
//
//	[total_length][answer_count][root_subtree]
//	subtree = [label][timestamp][status][answer if answered][child_count][child_subtree]*
//
// Children are emitted in ascending symbol order and the root label is -1.
// total_length counts the words following it.
func (t *Tree) Serialize() []byte {
	words := make([]uint32, 2, 2+5*t.live)
	words[1] = uint32(t.answers)
	words = t.encode(rootID, words)
	words[0] = uint32(len(words) - 1)

	buf := make([]byte, 0, 4*len(words))
	for _, w := range words {
		buf = binary.BigEndian.AppendUint32(buf, w)
	}
	return buf
}

func (t *Tree) encode(id nodeID, out []uint32) []uint32 {
	n := &t.nodes[id]
	label := uint32(n.label)
	if id == rootID {
		label = rootLabel
	}
	out = append(out, label, uint32(n.stamp), uint32(n.status))
	if n.status == StatusAnswered {
		out = append(out, boolWord(n.answer))
	}
	count := 0
	for _, c := range n.children {
		if c != noNode {
			count++
		}
	}
	out = append(out, uint32(count))
	for _, c := range n.children {
		if c != noNode {
			out = t.encode(c, out)
		}
	}
	return out
}

// Deserialize replaces the tree's content with the decoded buffer. On failure the
// tree is left cleared and the error wraps domain.ErrMalformedData.
func (t *Tree) Deserialize(data []byte) error {
	t.reset()
	if err := t.decode(data); err != nil {
		t.reset()
		return fmt.Errorf("%w: %v", domain.ErrMalformedData, err)
	}
	return nil
}

type decoder struct {
	words    []uint32
	pos      int
	required []nodeID
	maxStamp int // newest Answered stamp
	maxReq   int // newest Required stamp
}

var errTruncated = errors.New("truncated buffer")

func (d *decoder) next() (uint32, error) {
	if d.pos >= len(d.words) {
		return 0, errTruncated
	}
	w := d.words[d.pos]
	d.pos++
	return w, nil
}

func (d *decoder) remaining() int { return len(d.words) - d.pos }

func (t *Tree) decode(data []byte) error {
	words, err := toWords(data)
	if err != nil {
		return err
	}
	if len(words) < 2 {
		return errTruncated
	}
	if int(words[0]) != len(words)-1 {
		return fmt.Errorf("length header %d does not match %d payload words", words[0], len(words)-1)
	}
	d := &decoder{words: words, pos: 2}
	if _, err := d.subtree(t, noNode, 0); err != nil {
		return err
	}
	if d.remaining() != 0 {
		return fmt.Errorf("%d trailing words", d.remaining())
	}
	if uint32(t.answers) != words[1] {
		return fmt.Errorf("answer count header %d does not match %d answered nodes", words[1], t.answers)
	}

	// The queue order is recovered from the stamps; ties keep depth-first order.
	slices.SortStableFunc(d.required, func(a, b nodeID) int {
		return t.nodes[a].stamp - t.nodes[b].stamp
	})
	for _, id := range d.required {
		t.enqueue(id)
	}
	t.timestamp = max(1, d.maxStamp+1, d.maxReq)
	return nil
}

// subtree decodes one node and its children, returning the node's label.
func (d *decoder) subtree(t *Tree, parent nodeID, minLabel int64) (int64, error) {
	raw, err := d.next()
	if err != nil {
		return 0, err
	}
	var id nodeID
	label := int64(int32(raw))
	if parent == noNode {
		if raw != rootLabel {
			return 0, fmt.Errorf("root label %d, want -1", label)
		}
		id = rootID
	} else {
		if label < minLabel || label > MaxEncodedSymbol {
			return 0, fmt.Errorf("child label %d out of order or range", label)
		}
		id = t.alloc(parent, domain.Symbol(label))
	}

	stamp, err := d.next()
	if err != nil {
		return 0, err
	}
	if stamp > math.MaxInt32 {
		return 0, fmt.Errorf("timestamp %d out of range", stamp)
	}
	status, err := d.next()
	if err != nil {
		return 0, err
	}
	if status > uint32(StatusAnswered) {
		return 0, fmt.Errorf("unknown status %d", status)
	}

	n := &t.nodes[id]
	n.stamp = int(stamp)
	n.status = Status(status)
	switch n.status {
	case StatusAnswered:
		a, err := d.next()
		if err != nil {
			return 0, err
		}
		if a > 1 {
			return 0, fmt.Errorf("answer word %d is not a boolean", a)
		}
		n.answer = a == 1
		t.answers++
		d.maxStamp = max(d.maxStamp, n.stamp)
	case StatusRequired:
		d.required = append(d.required, id)
		d.maxReq = max(d.maxReq, n.stamp)
	}

	count, err := d.next()
	if err != nil {
		return 0, err
	}
	// Every subtree takes at least four words.
	if int64(count)*4 > int64(d.remaining()) {
		return 0, fmt.Errorf("child count %d exceeds remaining buffer", count)
	}
	next := int64(0)
	for i := uint32(0); i < count; i++ {
		got, err := d.subtree(t, id, next)
		if err != nil {
			return 0, err
		}
		next = got + 1
	}
	return label, nil
}

// EncodeAcceptances encodes answers as [count][answer]* 32-bit big-endian words,
// the format consumed by DeserializeQueryAcceptances.
func EncodeAcceptances(answers []bool) []byte {
	buf := make([]byte, 0, 4*(len(answers)+1))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(answers)))
	for _, a := range answers {
		buf = binary.BigEndian.AppendUint32(buf, boolWord(a))
	}
	return buf
}

// DecodeAcceptances is the inverse of EncodeAcceptances.
func DecodeAcceptances(data []byte) ([]bool, error) {
	words, err := toWords(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedData, err)
	}
	if len(words) == 0 || int(words[0]) != len(words)-1 {
		return nil, fmt.Errorf("%w: acceptance count does not match payload", domain.ErrMalformedData)
	}
	answers := make([]bool, len(words)-1)
	for i, w := range words[1:] {
		if w > 1 {
			return nil, fmt.Errorf("%w: answer word %d is not a boolean", domain.ErrMalformedData, w)
		}
		answers[i] = w == 1
	}
	return answers, nil
}

func toWords(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("buffer length %d is not a multiple of 4", len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(data[4*i:])
	}
	return words, nil
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

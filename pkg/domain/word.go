package domain

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Symbol is an index into the alphabet. Valid symbols lie in [0, MaxAlphabetSize).
type Symbol int

// MaxAlphabetSize bounds every alphabet, and so every symbol a word may carry.
// It is also the largest child label the knowledge codec accepts.
const MaxAlphabetSize = 1 << 16

// ValidateAlphabetSize checks that n symbols fit the supported range.
func ValidateAlphabetSize(n int) error {
	if n < 0 || n > MaxAlphabetSize {
		return fmt.Errorf("%w: size %d outside [0, %d]", ErrInvalidAlphabet, n, MaxAlphabetSize)
	}
	return nil
}

// Word is a finite sequence of symbols. The nil or empty Word is ε.
type Word []Symbol

// Epsilon is the empty word.
var Epsilon = Word{}

// Append returns a fresh word w·s. The receiver is never aliased.
func (w Word) Append(s Symbol) Word {
	out := make(Word, len(w)+1)
	copy(out, w)
	out[len(w)] = s
	return out
}

// Concat returns a fresh word w·suffix.
func (w Word) Concat(suffix Word) Word {
	out := make(Word, len(w)+len(suffix))
	copy(out, w)
	copy(out[len(w):], suffix)
	return out
}

// Clone returns a copy of w that does not share storage.
func (w Word) Clone() Word {
	out := make(Word, len(w))
	copy(out, w)
	return out
}

// Equal reports whether both words hold the same symbols.
func (w Word) Equal(other Word) bool {
	if len(w) != len(other) {
		return false
	}
	for i := range w {
		if w[i] != other[i] {
			return false
		}
	}
	return true
}

// Validate checks that every symbol lies in [0, MaxAlphabetSize).
func (w Word) Validate() error {
	for i, s := range w {
		if s < 0 || s >= MaxAlphabetSize {
			return fmt.Errorf("%w: symbol %d at position %d", ErrInvalidWord, s, i)
		}
	}
	return nil
}

// MaxSymbol returns the largest symbol in w, or -1 for ε.
func (w Word) MaxSymbol() Symbol {
	maxSym := Symbol(-1)
	for _, s := range w {
		if s > maxSym {
			maxSym = s
		}
	}
	return maxSym
}

// Key returns a compact string usable as a map key.
func (w Word) Key() string {
	buf := make([]byte, 4*len(w))
	for i, s := range w {
		binary.BigEndian.PutUint32(buf[4*i:], uint32(s))
	}
	return string(buf)
}

// String renders the word as dot separated symbols, or "ε".
func (w Word) String() string {
	if len(w) == 0 {
		return "ε"
	}
	parts := make([]string, len(w))
	for i, s := range w {
		parts[i] = strconv.Itoa(int(s))
	}
	return strings.Join(parts, ".")
}

// ParseWord parses the format produced by String. Both "" and "ε" denote the empty word.
func ParseWord(s string) (Word, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "ε" {
		return Word{}, nil
	}
	parts := strings.Split(s, ".")
	w := make(Word, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidWord, s, err)
		}
		w[i] = Symbol(n)
	}
	return w, w.Validate()
}

// Less orders words by length first, then lexicographically.
func (w Word) Less(other Word) bool {
	if len(w) != len(other) {
		return len(w) < len(other)
	}
	for i := range w {
		if w[i] != other[i] {
			return w[i] < other[i]
		}
	}
	return false
}

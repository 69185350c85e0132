package domain

import "errors"

// ErrKnowledgeConflict is returned when a word is answered twice with different values.
var ErrKnowledgeConflict = errors.New("knowledge conflict")

// ErrMalformedData is returned when a serialized buffer cannot be decoded.
var ErrMalformedData = errors.New("malformed serialized data")

// ErrAnswerCountMismatch is returned when a batch of answers does not match the
// number of outstanding queries.
var ErrAnswerCountMismatch = errors.New("answer count does not match outstanding queries")

// ErrInconsistentCounterexample is returned when a counterexample carries an answer
// that contradicts what is already known about the word.
var ErrInconsistentCounterexample = errors.New("counterexample contradicts known answer")

// ErrStaleCounterexample is returned when a counterexample adds no new row or column.
var ErrStaleCounterexample = errors.New("counterexample does not refine the table")

// ErrNoConjecture is returned when a conjecture is requested from an incomplete table.
var ErrNoConjecture = errors.New("conjecture not ready")

// ErrInvalidWord is returned when a word contains a symbol outside the supported range.
var ErrInvalidWord = errors.New("invalid word")

// ErrInvalidAlphabet is returned when an alphabet size is negative or too large.
var ErrInvalidAlphabet = errors.New("invalid alphabet size")

// ErrInvalidAutomaton is returned when an automaton definition is inconsistent.
var ErrInvalidAutomaton = errors.New("invalid automaton")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrRoundLimit is returned when the learning loop exceeds its configured number of rounds.
var ErrRoundLimit = errors.New("round limit exceeded")

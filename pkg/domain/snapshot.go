package domain

import "time"

// Counterexample is a word on which a conjecture and the target language disagree.
// Answer, when set, is the target's verdict on Word.
type Counterexample struct {
	Word   Word  `json:"word"`
	Answer *bool `json:"answer,omitempty"`
}

// Snapshot is the persisted form of a learning session.
// Knowledge holds the binary KnowledgeTree encoding; the observation table is
// rebuilt by replaying Counterexamples over it.
type Snapshot struct {
	SessionID       string           `json:"session_id"`
	Mode            string           `json:"mode"`
	AlphabetSize    int              `json:"alphabet_size"`
	Knowledge       []byte           `json:"knowledge"`
	Counterexamples []Counterexample `json:"counterexamples,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

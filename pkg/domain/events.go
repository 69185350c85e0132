package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventQueriesPending EventType = "queries_pending"
	EventAnswers        EventType = "answers"
	EventConjecture     EventType = "conjecture"
	EventCounterexample EventType = "counterexample"
	EventConflict       EventType = "conflict"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Mode      string    `json:"mode"`
}

// LearnerEvent describes a step of a learning session.
type LearnerEvent struct {
	EventBase
	Round   int  `json:"round"`
	Queries int  `json:"queries,omitempty"`
	States  int  `json:"states,omitempty"`
	Columns int  `json:"columns,omitempty"`
	Word    Word `json:"word,omitempty"`
}

// NewLearnerEvent stamps a new event of the given type.
func NewLearnerEvent(typ EventType, mode string, round int) *LearnerEvent {
	return &LearnerEvent{
		EventBase: EventBase{Timestamp: time.Now(), Type: typ, Mode: mode},
		Round:     round,
	}
}

// LifecycleHooks defines callbacks for learner observability.
// Hooks are purely observational and never affect control flow.
type LifecycleHooks struct {
	OnQueriesPending func(context.Context, *LearnerEvent)
	OnAnswers        func(context.Context, *LearnerEvent)
	OnConjecture     func(context.Context, *LearnerEvent)
	OnCounterexample func(context.Context, *LearnerEvent)
	OnConflict       func(context.Context, *LearnerEvent)
}

// Emit dispatches the event to the matching hook, if any.
func (h LifecycleHooks) Emit(ctx context.Context, ev *LearnerEvent) {
	var fn func(context.Context, *LearnerEvent)
	switch ev.Type {
	case EventQueriesPending:
		fn = h.OnQueriesPending
	case EventAnswers:
		fn = h.OnAnswers
	case EventConjecture:
		fn = h.OnConjecture
	case EventCounterexample:
		fn = h.OnCounterexample
	case EventConflict:
		fn = h.OnConflict
	}
	if fn != nil {
		fn(ctx, ev)
	}
}

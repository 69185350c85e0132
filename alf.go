package alf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/knowledge"
	"github.com/aretw0/alf/pkg/table"
)

// Status is the outcome of Advance.
type Status int

const (
	// StatusQueriesPending means membership answers must be supplied before the
	// learner can make progress.
	StatusQueriesPending Status = iota
	// StatusConjectureReady means Conjecture can be called.
	StatusConjectureReady
)

func (s Status) String() string {
	if s == StatusConjectureReady {
		return "conjecture_ready"
	}
	return "queries_pending"
}

// Learner is the high-level entry point of the library. It owns one knowledge tree
// and one observation table and exposes the learning loop as explicit, non-blocking
// steps. A Learner is not safe for concurrent use; see pkg/session for that.
type Learner struct {
	kb        *knowledge.Tree
	table     *table.Table
	policy    table.Policy
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	batch     bool
	maxRounds int
	round     int
	cexs      []domain.Counterexample
}

// Option defines a functional option for configuring the Learner.
type Option func(*Learner)

// WithLogger sets a custom structured logger for the learner.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Learner) {
		l.logger = logger
	}
}

// WithPolicy selects the covers policy (table.Equality by default).
func WithPolicy(p table.Policy) Option {
	return func(l *Learner) {
		l.policy = p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(l *Learner) {
		l.hooks = hooks
	}
}

// WithBatchMode makes Run resolve each round of queries through the serialized
// query tree exchange instead of one membership call per word.
func WithBatchMode(enabled bool) Option {
	return func(l *Learner) {
		l.batch = enabled
	}
}

// WithMaxRounds bounds the number of equivalence queries one Run call may issue.
// Zero means unbounded.
func WithMaxRounds(n int) Option {
	return func(l *Learner) {
		l.maxRounds = n
	}
}

// WithKnowledge starts the learner from an existing knowledge tree.
func WithKnowledge(kb *knowledge.Tree) Option {
	return func(l *Learner) {
		l.kb = kb
	}
}

// New initializes a learner over an alphabet of the given size, capped at
// domain.MaxAlphabetSize.
func New(alphabetSize int, opts ...Option) *Learner {
	l := &Learner{}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if l.policy == nil {
		l.policy = table.Equality{}
	}
	l.logger = l.logger.With("mode", l.policy.Name())
	if l.kb == nil {
		l.kb = knowledge.New(knowledge.WithLogger(l.logger))
	}
	l.table = table.New(l.kb, alphabetSize,
		table.WithPolicy(l.policy),
		table.WithLogger(l.logger),
	)
	return l
}

// Restore rebuilds a learner from a snapshot: the knowledge tree is decoded and the
// recorded counterexamples are replayed over it. Restoring the same snapshot twice
// yields the same pending queries in the same order. Options may override the logger,
// hooks and limits; the policy always comes from the snapshot.
func Restore(snap *domain.Snapshot, opts ...Option) (*Learner, error) {
	policy, err := table.PolicyByName(snap.Mode)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateAlphabetSize(snap.AlphabetSize); err != nil {
		return nil, err
	}
	kb := knowledge.New()
	if len(snap.Knowledge) > 0 {
		if err := kb.Deserialize(snap.Knowledge); err != nil {
			return nil, fmt.Errorf("failed to restore knowledge: %w", err)
		}
		// Pending queries are re-derived by the table, in its own fill order.
		kb.ClearQueries()
	}

	opts = append(opts, WithKnowledge(kb), WithPolicy(policy))
	l := New(snap.AlphabetSize, opts...)
	for _, cex := range snap.Counterexamples {
		if _, err := l.table.Complete(); err != nil {
			return nil, fmt.Errorf("failed to replay counterexample %s: %w", cex.Word, err)
		}
		err := l.table.AddCounterexample(cex.Word, cex.Answer)
		if err != nil && !errors.Is(err, domain.ErrStaleCounterexample) {
			return nil, fmt.Errorf("failed to replay counterexample %s: %w", cex.Word, err)
		}
		l.cexs = append(l.cexs, cex)
		l.round++
	}
	return l, nil
}

// Snapshot captures the learner for persistence.
func (l *Learner) Snapshot() *domain.Snapshot {
	cexs := make([]domain.Counterexample, len(l.cexs))
	copy(cexs, l.cexs)
	return &domain.Snapshot{
		Mode:            l.policy.Name(),
		AlphabetSize:    l.table.AlphabetSize(),
		Knowledge:       l.kb.Serialize(),
		Counterexamples: cexs,
		UpdatedAt:       time.Now().UTC(),
	}
}

func (l *Learner) event(typ domain.EventType) *domain.LearnerEvent {
	ev := domain.NewLearnerEvent(typ, l.policy.Name(), l.round)
	stats := l.table.Stats()
	ev.Columns = stats.Columns
	ev.Queries = l.kb.CountQueries()
	return ev
}

// Advance drives the table as far as the known answers allow. It never blocks:
// missing answers are reported as StatusQueriesPending. An error is a knowledge
// conflict and ends the learning run.
func (l *Learner) Advance(ctx context.Context) (Status, error) {
	res, err := l.table.Complete()
	if err != nil {
		l.logger.Error("learning run aborted", "error", err)
		l.hooks.Emit(ctx, l.event(domain.EventConflict))
		return StatusQueriesPending, err
	}
	if res == table.Ready {
		return StatusConjectureReady, nil
	}
	l.logger.Debug("queries pending", "count", l.kb.CountQueries())
	l.hooks.Emit(ctx, l.event(domain.EventQueriesPending))
	return StatusQueriesPending, nil
}

// PendingWords lists the outstanding membership queries in answering order.
func (l *Learner) PendingWords() []domain.Word {
	return l.kb.PendingWords()
}

// PendingQueries exports the outstanding queries as a serialized query tree.
// The answers must come back, in the same order, through SubmitAnswers.
func (l *Learner) PendingQueries() []byte {
	return l.kb.CreateQueryTree().Serialize()
}

// SubmitAnswers imports an acceptance stream answering PendingQueries. The
// answers are applied to a copy first, so a malformed or short stream leaves the
// learner untouched. All answers of one call form a single undo generation.
func (l *Learner) SubmitAnswers(ctx context.Context, data []byte) error {
	qt := l.kb.CreateQueryTree()
	if err := qt.DeserializeQueryAcceptances(data); err != nil {
		return err
	}
	n, err := l.kb.MergeKnowledgebase(qt)
	if err != nil {
		l.hooks.Emit(ctx, l.event(domain.EventConflict))
		return err
	}
	ev := l.event(domain.EventAnswers)
	ev.Queries = n
	l.hooks.Emit(ctx, ev)
	return nil
}

// Answer records a single membership answer.
func (l *Learner) Answer(ctx context.Context, w domain.Word, answer bool) error {
	if err := l.kb.AddKnowledge(w, answer); err != nil {
		l.hooks.Emit(ctx, l.event(domain.EventConflict))
		return err
	}
	return nil
}

// Conjecture derives the current hypothesis. It fails with domain.ErrNoConjecture
// unless the last Advance reported StatusConjectureReady.
func (l *Learner) Conjecture(ctx context.Context) (*domain.Automaton, error) {
	a, err := l.table.DeriveConjecture()
	if err != nil {
		return nil, err
	}
	ev := l.event(domain.EventConjecture)
	ev.States = a.States
	l.hooks.Emit(ctx, ev)
	return a, nil
}

// AddCounterexample feeds a word the current conjecture gets wrong back into the
// table. It starts a new round.
func (l *Learner) AddCounterexample(ctx context.Context, cex domain.Counterexample) error {
	if err := l.table.AddCounterexample(cex.Word, cex.Answer); err != nil {
		return err
	}
	l.round++
	stored := domain.Counterexample{Word: cex.Word.Clone()}
	if cex.Answer != nil {
		a := *cex.Answer
		stored.Answer = &a
	}
	l.cexs = append(l.cexs, stored)

	ev := l.event(domain.EventCounterexample)
	ev.Word = stored.Word
	l.hooks.Emit(ctx, ev)
	l.logger.Info("counterexample added", "round", l.round, "word", cex.Word.String())
	return nil
}

// IncreaseAlphabetSize widens the alphabet to n symbols.
func (l *Learner) IncreaseAlphabetSize(n int) {
	l.table.IncreaseAlphabetSize(n)
}

// Knowledge returns the learner's knowledge tree.
func (l *Learner) Knowledge() *knowledge.Tree { return l.kb }

// Table returns the learner's observation table.
func (l *Learner) Table() *table.Table { return l.table }

// Mode returns the name of the covers policy.
func (l *Learner) Mode() string { return l.policy.Name() }

// Round returns the number of counterexamples absorbed so far.
func (l *Learner) Round() int { return l.round }

// Counterexamples returns the absorbed counterexamples in order.
func (l *Learner) Counterexamples() []domain.Counterexample {
	out := make([]domain.Counterexample, len(l.cexs))
	copy(out, l.cexs)
	return out
}

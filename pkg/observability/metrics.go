package observability

import (
	"context"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "alf"

// Metrics holds the learner collectors. All series are labelled by covers
// policy ("mode").
type Metrics struct {
	// answers counts membership answers recorded.
	answers *prometheus.CounterVec
	// pending tracks the size of the last batch of pending queries.
	pending *prometheus.GaugeVec
	// conjectures counts derived hypotheses.
	conjectures *prometheus.CounterVec
	// states tracks the size of the last conjecture.
	states *prometheus.GaugeVec
	// columns tracks the number of table columns at the last event.
	columns *prometheus.GaugeVec
	// counterexamples counts absorbed counterexamples.
	counterexamples *prometheus.CounterVec
	// conflicts counts knowledge conflicts; each one ends a run.
	conflicts *prometheus.CounterVec
}

// NewMetrics registers the learner collectors on reg. Passing nil uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		answers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "membership_answers_total",
			Help:      "Total membership answers recorded",
		}, []string{"mode"}),
		pending: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_queries",
			Help:      "Membership queries outstanding at the last step",
		}, []string{"mode"}),
		conjectures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conjectures_total",
			Help:      "Total conjectures derived",
		}, []string{"mode"}),
		states: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conjecture_states",
			Help:      "Number of states of the last conjecture",
		}, []string{"mode"}),
		columns: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_columns",
			Help:      "Number of observation table columns",
		}, []string{"mode"}),
		counterexamples: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counterexamples_total",
			Help:      "Total counterexamples absorbed",
		}, []string{"mode"}),
		conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_conflicts_total",
			Help:      "Total knowledge conflicts",
		}, []string{"mode"}),
	}
}

func (m *Metrics) observeColumns(ev *domain.LearnerEvent) {
	if ev.Columns > 0 {
		m.columns.WithLabelValues(ev.Mode).Set(float64(ev.Columns))
	}
}

// Hooks returns lifecycle hooks feeding m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnQueriesPending: func(_ context.Context, ev *domain.LearnerEvent) {
			m.pending.WithLabelValues(ev.Mode).Set(float64(ev.Queries))
			m.observeColumns(ev)
		},
		OnAnswers: func(_ context.Context, ev *domain.LearnerEvent) {
			m.answers.WithLabelValues(ev.Mode).Add(float64(ev.Queries))
			m.pending.WithLabelValues(ev.Mode).Set(0)
		},
		OnConjecture: func(_ context.Context, ev *domain.LearnerEvent) {
			m.conjectures.WithLabelValues(ev.Mode).Inc()
			m.states.WithLabelValues(ev.Mode).Set(float64(ev.States))
			m.observeColumns(ev)
		},
		OnCounterexample: func(_ context.Context, ev *domain.LearnerEvent) {
			m.counterexamples.WithLabelValues(ev.Mode).Inc()
			m.observeColumns(ev)
		},
		OnConflict: func(_ context.Context, ev *domain.LearnerEvent) {
			m.conflicts.WithLabelValues(ev.Mode).Inc()
		},
	}
}

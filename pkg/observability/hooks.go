package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/alf/pkg/domain"
)

// Chain combines several sets of hooks; each event reaches every set in order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	fanout := func(pick func(domain.LifecycleHooks) func(context.Context, *domain.LearnerEvent)) func(context.Context, *domain.LearnerEvent) {
		var fns []func(context.Context, *domain.LearnerEvent)
		for _, h := range sets {
			if fn := pick(h); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(ctx context.Context, ev *domain.LearnerEvent) {
			for _, fn := range fns {
				fn(ctx, ev)
			}
		}
	}
	return domain.LifecycleHooks{
		OnQueriesPending: fanout(func(h domain.LifecycleHooks) func(context.Context, *domain.LearnerEvent) { return h.OnQueriesPending }),
		OnAnswers:        fanout(func(h domain.LifecycleHooks) func(context.Context, *domain.LearnerEvent) { return h.OnAnswers }),
		OnConjecture:     fanout(func(h domain.LifecycleHooks) func(context.Context, *domain.LearnerEvent) { return h.OnConjecture }),
		OnCounterexample: fanout(func(h domain.LifecycleHooks) func(context.Context, *domain.LearnerEvent) { return h.OnCounterexample }),
		OnConflict:       fanout(func(h domain.LifecycleHooks) func(context.Context, *domain.LearnerEvent) { return h.OnConflict }),
	}
}

// LogHooks writes every lifecycle event to logger. Conflicts are logged at
// warning level, everything else at debug.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	log := func(level slog.Level) func(context.Context, *domain.LearnerEvent) {
		return func(ctx context.Context, ev *domain.LearnerEvent) {
			logger.Log(ctx, level, "learner event",
				"type", ev.Type,
				"mode", ev.Mode,
				"round", ev.Round,
				"queries", ev.Queries,
				"states", ev.States,
				"columns", ev.Columns,
			)
		}
	}
	return domain.LifecycleHooks{
		OnQueriesPending: log(slog.LevelDebug),
		OnAnswers:        log(slog.LevelDebug),
		OnConjecture:     log(slog.LevelDebug),
		OnCounterexample: log(slog.LevelDebug),
		OnConflict:       log(slog.LevelWarn),
	}
}

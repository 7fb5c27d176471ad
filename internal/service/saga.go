package service

import (
	"context"
	"log/slog"

	"vidtube/internal/middleware"
	"vidtube/internal/observability"
)

type sagaStep struct {
	name       string
	do         func(ctx context.Context) error
	compensate func(ctx context.Context) error
	bestEffort bool
}

// saga runs ordered steps. When a step fails, the compensations of the steps that already
// completed run in reverse order and the step's error is returned. Best-effort steps log
// their failure and let the saga continue.
type saga struct {
	workflow string
	steps    []sagaStep
}

func newSaga(workflow string) *saga {
	return &saga{workflow: workflow}
}

// step appends a required step. compensate may be nil.
func (s *saga) step(name string, do, compensate func(ctx context.Context) error) *saga {
	s.steps = append(s.steps, sagaStep{name: name, do: do, compensate: compensate})
	return s
}

// bestEffort appends a step whose failure is logged but does not fail the saga.
func (s *saga) bestEffort(name string, do func(ctx context.Context) error) *saga {
	s.steps = append(s.steps, sagaStep{name: name, do: do, bestEffort: true})
	return s
}

func (s *saga) run(ctx context.Context) error {
	done := make([]sagaStep, 0, len(s.steps))
	for _, st := range s.steps {
		err := st.do(ctx)
		if err == nil {
			done = append(done, st)
			continue
		}
		if st.bestEffort {
			middleware.Logger.WarnContext(ctx, "best-effort step failed",
				slog.String("workflow", s.workflow),
				slog.String("step", st.name),
				slog.String("error", err.Error()))
			continue
		}
		s.compensate(ctx, done)
		return err
	}
	return nil
}

func (s *saga) compensate(ctx context.Context, done []sagaStep) {
	// Cleanup must run even if the request was cancelled.
	ctx = context.WithoutCancel(ctx)
	for i := len(done) - 1; i >= 0; i-- {
		st := done[i]
		if st.compensate == nil {
			continue
		}
		if err := st.compensate(ctx); err != nil {
			observability.CompensationFailures.WithLabelValues(s.workflow, st.name).Inc()
			middleware.Logger.ErrorContext(ctx, "compensation failed",
				slog.String("workflow", s.workflow),
				slog.String("step", st.name),
				slog.String("error", err.Error()))
		}
	}
}

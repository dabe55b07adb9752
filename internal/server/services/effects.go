package services

import (
	"context"

	"github.com/akarpovs/docsync/internal/logging"
)

// Effect is a non-critical side effect executed after the primary operation
// commits: sync-log appends, best-effort remote deletes. A failing effect is
// logged and never fails the parent operation.
type Effect struct {
	Name string
	Fn   func(ctx context.Context) error
}

// EffectRunner executes effects sequentially, recovering each one
// independently so a panic in one effect cannot take down the request.
type EffectRunner struct {
	logger logging.Logger
}

func NewEffectRunner(logger logging.Logger) *EffectRunner {
	return &EffectRunner{logger: logger}
}

func (r *EffectRunner) Run(ctx context.Context, effects ...Effect) {
	for _, e := range effects {
		r.runOne(ctx, e)
	}
}

func (r *EffectRunner) runOne(ctx context.Context, e Effect) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error(ctx, "non-critical effect panicked", "effect", e.Name, "panic", p)
		}
	}()
	if err := e.Fn(ctx); err != nil {
		r.logger.Warn(ctx, "non-critical effect failed", "effect", e.Name, "error", err.Error())
	}
}

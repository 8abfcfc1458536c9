package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// sagaStep is one forward action with its undo. Compensations run in
// reverse order for the steps that completed before the failure.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// runSaga executes the steps in order. On failure it compensates the
// already-completed steps last-to-first and returns both the step error
// and any compensation errors.
func runSaga(ctx context.Context, log *zap.Logger, steps []sagaStep) (failedStep string, stepErr error, compErrs []error) {
	var done []sagaStep

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			log.Warn("Saga step failed, compensating",
				zap.String("step", step.name),
				zap.Int("completed_steps", len(done)),
				zap.Error(err))

			for i := len(done) - 1; i >= 0; i-- {
				prev := done[i]
				if prev.compensate == nil {
					continue
				}
				if cerr := prev.compensate(ctx); cerr != nil {
					log.Error("Saga compensation failed",
						zap.String("step", prev.name),
						zap.Error(cerr))
					compErrs = append(compErrs, fmt.Errorf("compensate %s: %w", prev.name, cerr))
				} else {
					log.Info("Saga step compensated", zap.String("step", prev.name))
				}
			}

			return step.name, err, compErrs
		}
		done = append(done, step)
	}

	return "", nil, nil
}

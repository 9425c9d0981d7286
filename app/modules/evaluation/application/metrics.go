package evalservice

import (
	"context"
	"time"
)

// Metrics is the observability surface the service records against.
type Metrics interface {
	RecordEvaluationAttempt(ctx context.Context, entity string)
	RecordEvaluationSuccess(ctx context.Context, entity string, usersEvaluated, pointsAwarded int)
	RecordEvaluationFailure(ctx context.Context, entity string, reason string)
	RecordOperationDuration(ctx context.Context, operation string, duration time.Duration)
	RecordEvaluatorSkipped(ctx context.Context, evaluatorType string)
}

// NoOpMetrics records nothing. Used by tests.
type NoOpMetrics struct{}

var _ Metrics = NoOpMetrics{}

func (NoOpMetrics) RecordEvaluationAttempt(context.Context, string)           {}
func (NoOpMetrics) RecordEvaluationSuccess(context.Context, string, int, int) {}
func (NoOpMetrics) RecordEvaluationFailure(context.Context, string, string)   {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, time.Duration) {
}
func (NoOpMetrics) RecordEvaluatorSkipped(context.Context, string) {}

package observability

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics records evaluation metrics against a prometheus registry.
// It satisfies the evaluation service's Metrics interface.
type PrometheusMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	users     *prometheus.CounterVec
	points    *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the evaluation metric families on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluation_attempts_total",
			Help: "Evaluation runs triggered, by entity.",
		}, []string{"entity"}),
		successes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluation_successes_total",
			Help: "Evaluation runs completed, by entity.",
		}, []string{"entity"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluation_failures_total",
			Help: "Evaluation runs rejected, by entity and reason code.",
		}, []string{"entity", "reason"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluator_rows_skipped_total",
			Help: "Evaluator rows skipped due to malformed configuration.",
		}, []string{"type"}),
		users: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluation_users_evaluated_total",
			Help: "User bets scored across evaluation runs, by entity.",
		}, []string{"entity"}),
		points: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluation_points_awarded_total",
			Help: "Points awarded across evaluation runs, by entity.",
		}, []string{"entity"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "operation_duration_seconds",
			Help:    "Service operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *PrometheusMetrics) RecordEvaluationAttempt(_ context.Context, entity string) {
	m.attempts.WithLabelValues(entity).Inc()
}

func (m *PrometheusMetrics) RecordEvaluationSuccess(_ context.Context, entity string, usersEvaluated, pointsAwarded int) {
	m.successes.WithLabelValues(entity).Inc()
	m.users.WithLabelValues(entity).Add(float64(usersEvaluated))
	m.points.WithLabelValues(entity).Add(float64(pointsAwarded))
}

func (m *PrometheusMetrics) RecordEvaluationFailure(_ context.Context, entity string, reason string) {
	m.failures.WithLabelValues(entity, reason).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation string, duration time.Duration) {
	m.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordEvaluatorSkipped(_ context.Context, evaluatorType string) {
	m.skipped.WithLabelValues(evaluatorType).Inc()
}

// ServeMetrics runs a /metrics endpoint on addr until ctx is cancelled.
func ServeMetrics(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Metrics server failed", slog.Any("error", err))
	}
}

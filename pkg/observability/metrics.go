package observability

import (
	"context"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weft"

// Metrics holds the Prometheus collectors fed by the run lifecycle.
type Metrics struct {
	runs         *prometheus.CounterVec
	activeRuns   prometheus.Gauge
	nodeResults  *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed node test runs, by outcome.",
		}, []string{"outcome"}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Node test runs currently executing.",
		}),
		nodeResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_results_total",
			Help:      "Terminal node results, by status and node type.",
		}, []string{"status", "type"}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Execution time of dispatched nodes.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"type"}),
	}
	for _, c := range []prometheus.Collector{m.runs, m.activeRuns, m.nodeResults, m.nodeDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, _ *domain.RunEvent) {
			m.activeRuns.Inc()
		},
		OnNodeFinish: func(_ context.Context, e *domain.NodeEvent) {
			kind := string(e.Node.Type)
			m.nodeResults.WithLabelValues(string(e.Result.Status), kind).Inc()
			m.nodeDuration.WithLabelValues(kind).Observe(float64(e.Result.DurationMs) / 1000)
		},
		OnRunComplete: func(_ context.Context, e *domain.RunEvent) {
			m.activeRuns.Dec()
			m.runs.WithLabelValues(outcome(e.Report)).Inc()
		},
	}
}

// outcome classifies a finished run: canceled, failed (any node error) or succeeded.
func outcome(r *domain.RunReport) string {
	if r.Canceled {
		return "canceled"
	}
	if _, failed := r.Counts(); failed > 0 {
		return "failed"
	}
	return "succeeded"
}

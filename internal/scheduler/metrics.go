package scheduler

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK      = "ok"
	outcomeSkipped = "skipped"
	outcomePanic   = "panic"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

type Metrics struct {
	RunsTotal *prometheus.CounterVec
}

// NewMetrics registers goaltracker_job_runs_total{job,outcome} once.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			RunsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goaltracker_job_runs_total",
					Help: "Scheduled job runs by outcome",
				},
				[]string{"job", "outcome"},
			),
		}
	})
	return globalMetrics
}

func (m *Metrics) recordRun(job, outcome string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(job, outcome).Inc()
}

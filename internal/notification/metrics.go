package notification

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

const (
	OutcomeEmitted    = "emitted"
	OutcomeFailed     = "failed"
	OutcomeSuppressed = "suppressed"
	OutcomeSent       = "sent"
	OutcomeSkipped    = "skipped"
)

// Metrics holds Prometheus metrics for notification fan-out and the batch jobs.
type Metrics struct {
	NotificationsTotal *prometheus.CounterVec
	EmailsTotal        *prometheus.CounterVec
	BatchDuration      *prometheus.HistogramVec
}

// NewMetrics registers the collectors once per process.
//
// Metrics:
//   - goaltracker_notifications_total{action_type,outcome}
//   - goaltracker_emails_total{kind,outcome}
//   - goaltracker_batch_duration_seconds{job}
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			NotificationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goaltracker_notifications_total",
					Help: "Notifications by action type and outcome",
				},
				[]string{"action_type", "outcome"}, // emitted, failed, suppressed
			),
			EmailsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goaltracker_emails_total",
					Help: "Emails by kind and outcome",
				},
				[]string{"kind", "outcome"},
			),
			BatchDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "goaltracker_batch_duration_seconds",
					Help:    "Duration of scanner and reminder runs",
					Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
				},
				[]string{"job"},
			),
		}
	})

	return globalMetrics
}

func (m *Metrics) RecordNotification(action ActionType, outcome string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(string(action), outcome).Inc()
}

func (m *Metrics) RecordEmail(kind, outcome string) {
	if m == nil {
		return
	}
	m.EmailsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveBatch(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.BatchDuration.WithLabelValues(job).Observe(d.Seconds())
}

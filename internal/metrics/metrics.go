package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Probe outcomes used as the "outcome" label.
const (
	OutcomeAvailable   = "available"
	OutcomeUnavailable = "unavailable"
	OutcomeFailed      = "failed"
)

type Metrics struct {
	ProbeTotal    *prometheus.CounterVec
	ProbeDuration *prometheus.HistogramVec
	ProbeErrors   prometheus.Counter

	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New builds the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProbeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statuspage_probes_total",
				Help: "Probe runs by outcome",
			},
			[]string{"outcome"},
		),
		ProbeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statuspage_probe_duration_seconds",
				Help:    "Duration of HEAD requests against the monitored URL",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		ProbeErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "statuspage_probe_run_errors_total",
				Help: "Probe runs that returned an error to the scheduler",
			},
		),
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statuspage_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statuspage_http_request_duration_seconds",
				Help:    "Histogram of response durations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
	}
	reg.MustRegister(m.ProbeTotal, m.ProbeDuration, m.ProbeErrors, m.RequestCount, m.RequestDuration)
	return m
}

// ObserveProbe records one probe run. Safe on a nil receiver.
func (m *Metrics) ObserveProbe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProbeTotal.WithLabelValues(outcome).Inc()
	m.ProbeDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ProbeRunFailed counts a run error seen by the scheduler. Safe on a nil receiver.
func (m *Metrics) ProbeRunFailed() {
	if m == nil {
		return
	}
	m.ProbeErrors.Inc()
}

// Package metrics exposes Prometheus instrumentation for the verification
// and audit pipeline. All methods are nil-safe so tests can pass a nil
// *Metrics and skip registration.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Verdict outcomes ("ok" / "fail") by verification path ("scan" / "lookup").
	Verdicts *prometheus.CounterVec

	// Recorded decisions by action (ADMIT/DENY) and method (SCAN/MANUAL).
	Decisions *prometheus.CounterVec

	// Scan payloads that failed to decode.
	DecodeFailures prometheus.Counter

	// Audit log append latency, including the serialized write queue.
	AppendLatency prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_verdicts_total",
			Help: "Verification verdicts by outcome and path",
		}, []string{"outcome", "path"}),

		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_decisions_total",
			Help: "Recorded checkpoint decisions by action and method",
		}, []string{"action", "method"}),

		DecodeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_decode_failures_total",
			Help: "Scan payloads that could not be decoded into a claim",
		}),

		AppendLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatehouse_audit_append_duration_seconds",
			Help:    "Duration of audit log appends",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncVerdict(ok bool, path string) {
	if m == nil {
		return
	}
	outcome := "fail"
	if ok {
		outcome = "ok"
	}
	m.Verdicts.WithLabelValues(outcome, path).Inc()
}

func (m *Metrics) IncDecision(action, method string) {
	if m != nil {
		m.Decisions.WithLabelValues(action, method).Inc()
	}
}

func (m *Metrics) IncDecodeFailure() {
	if m != nil {
		m.DecodeFailures.Inc()
	}
}

func (m *Metrics) ObserveAppendLatency(d time.Duration) {
	if m != nil {
		m.AppendLatency.Observe(d.Seconds())
	}
}

package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPrometheus exposes breaker and call counters on the given registerer
// as Func collectors reading the live values.
func RegisterPrometheus(reg prometheus.Registerer, namespace string, breaker *Breaker, calls *CallMetrics) {
	if namespace == "" {
		namespace = "netgate"
	}

	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "downstream",
			Name:      "circuit_state",
			Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open).",
		},
		func() float64 { return float64(breaker.State()) },
	))

	counters := []struct {
		name string
		help string
		read func(CallSnapshot) uint64
	}{
		{"calls_total", "Logical downstream operations started.", func(s CallSnapshot) uint64 { return s.Total }},
		{"call_failures_total", "Downstream operations that failed after retries.", func(s CallSnapshot) uint64 { return s.Failures }},
		{"call_retries_total", "Individual retried attempts.", func(s CallSnapshot) uint64 { return s.Retries }},
		{"breaker_rejections_total", "Calls rejected while the circuit was open.", func(s CallSnapshot) uint64 { return s.Rejections }},
		{"degraded_serves_total", "Reads served from stale cache entries.", func(s CallSnapshot) uint64 { return s.DegradedServes }},
	}
	for _, c := range counters {
		read := c.read
		reg.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "downstream",
				Name:      c.name,
				Help:      c.help,
			},
			func() float64 { return float64(read(calls.Snapshot())) },
		))
	}
}

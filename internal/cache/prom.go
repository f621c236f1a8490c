package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPrometheus exposes the store counters on the given registerer as
// Func collectors reading the live values.
func RegisterPrometheus(reg prometheus.Registerer, namespace string, store *Store) {
	if namespace == "" {
		namespace = "netgate"
	}

	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Unexpired cache entries.",
		},
		func() float64 { return float64(store.Len()) },
	))

	counters := []struct {
		name string
		help string
		read func(Snapshot) uint64
	}{
		{"hits_total", "Reads answered with a fresh cache entry.", func(s Snapshot) uint64 { return s.Hits }},
		{"misses_total", "Reads that fell through to the downstream.", func(s Snapshot) uint64 { return s.Misses }},
		{"evictions_total", "Entries evicted by the capacity bound.", func(s Snapshot) uint64 { return s.Evictions }},
		{"invalidations_total", "Entries dropped by explicit invalidation.", func(s Snapshot) uint64 { return s.Invalidations }},
	}
	for _, c := range counters {
		read := c.read
		reg.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      c.name,
				Help:      c.help,
			},
			func() float64 { return float64(read(store.Metrics())) },
		))
	}
}

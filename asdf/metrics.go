package asdf

import "github.com/prometheus/client_golang/prometheus"

// metrics counts array and block activity. A nil *metrics records nothing.
type metrics struct {
	materializations prometheus.Counter
	invalidations    prometheus.Counter
	blockFetches     prometheus.Counter
	bytesWritten     prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	m := &metrics{
		materializations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asdf",
			Subsystem: "ndarray",
			Name:      "materializations_total",
			Help:      "Number of arrays built from their storage.",
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asdf",
			Subsystem: "ndarray",
			Name:      "invalidations_total",
			Help:      "Number of cached arrays dropped because their storage was closed.",
		}),
		blockFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asdf",
			Subsystem: "block",
			Name:      "fetches_total",
			Help:      "Number of blocks loaded from files.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asdf",
			Subsystem: "block",
			Name:      "bytes_written_total",
			Help:      "Number of block payload bytes written.",
		}),
	}
	for _, c := range []prometheus.Collector{m.materializations, m.invalidations, m.blockFetches, m.bytesWritten} {
		if err := reg.Register(c); err != nil {
			// A second file registering with the same registerer shares the
			// collectors of the first.
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				m.adopt(c, are.ExistingCollector)
			}
		}
	}
	return m
}

func (m *metrics) adopt(c, existing prometheus.Collector) {
	counter, ok := existing.(prometheus.Counter)
	if !ok {
		return
	}
	switch c {
	case m.materializations:
		m.materializations = counter
	case m.invalidations:
		m.invalidations = counter
	case m.blockFetches:
		m.blockFetches = counter
	case m.bytesWritten:
		m.bytesWritten = counter
	}
}

func (m *metrics) materialized() {
	if m != nil {
		m.materializations.Inc()
	}
}

func (m *metrics) invalidated() {
	if m != nil {
		m.invalidations.Inc()
	}
}

func (m *metrics) fetched() {
	if m != nil {
		m.blockFetches.Inc()
	}
}

func (m *metrics) wrote(n int) {
	if m != nil {
		m.bytesWritten.Add(float64(n))
	}
}

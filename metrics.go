package libemit

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	emitsTotal    *prometheus.CounterVec
	listeners     *prometheus.GaugeVec
	warningsTotal *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer, namespace string) *metrics {
	m := &metrics{
		emitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "emitter",
				Name:      "emits_total",
				Help:      "Total number of emitted events",
			},
			[]string{"event", "outcome"},
		),
		listeners: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "emitter",
				Name:      "listeners",
				Help:      "Registered listeners per event",
			},
			[]string{"event"},
		),
		warningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "emitter",
				Name:      "max_listeners_warnings_total",
				Help:      "Total max listeners warnings",
			},
			[]string{"event"},
		),
	}

	m.emitsTotal = registerOrReuse(reg, m.emitsTotal)
	m.listeners = registerOrReuse(reg, m.listeners)
	m.warningsTotal = registerOrReuse(reg, m.warningsTotal)

	return m
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// The methods below are nil-safe so that call sites need no guards.

func (m *metrics) emitted(event any, handled bool) {
	if m == nil {
		return
	}
	outcome := "unhandled"
	if handled {
		outcome = "handled"
	}
	m.emitsTotal.WithLabelValues(label(event), outcome).Inc()
}

func (m *metrics) setListeners(event any, n int) {
	if m == nil {
		return
	}
	if n == 0 {
		m.listeners.DeleteLabelValues(label(event))
		return
	}
	m.listeners.WithLabelValues(label(event)).Set(float64(n))
}

func (m *metrics) warned(event any) {
	if m == nil {
		return
	}
	m.warningsTotal.WithLabelValues(label(event)).Inc()
}

func label(event any) string {
	if s, ok := event.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(event)
}

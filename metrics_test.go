package libemit

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	emitter := NewEventEmitter[string, int](quiet(), WithMetrics(reg, "test"), WithMaxListeners(1))

	l := Listener[int](func(int) {})
	emitter.On("a", l).On("a", func(int) {}).On("b", l)

	emitter.Emit("a", 1)
	emitter.Emit("a", 2)
	emitter.Emit("missing", 3)

	m := emitter.metrics
	assert.Equal(t, 2.0, testutil.ToFloat64(m.emitsTotal.WithLabelValues("a", "handled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emitsTotal.WithLabelValues("missing", "unhandled")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.listeners.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.listeners.WithLabelValues("b")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.warningsTotal.WithLabelValues("a")))

	emitter.RemoveListener("b", l)
	assert.Equal(t, 1, testutil.CollectAndCount(m.listeners))
}

func TestMetricsReuseRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewEventEmitter[string, int](quiet(), WithMetrics(reg, "test"))
	second := NewBus(quiet(), WithMetrics(reg, "test"))

	first.Emit("shared", 1)
	Emit(second, NewEvent[int]("shared"), 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(first.metrics.emitsTotal.WithLabelValues("shared", "unhandled")))
}

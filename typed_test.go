package libemit

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	foo = NewEvent[float64]("foo")
	bar = NewEvent[string]("bar")
	baz = NewEvent[Void]("baz")
)

func TestBusDispatchesTypedPayloads(t *testing.T) {
	bus := NewBus(quiet())
	var (
		abs    float64
		length int
		bazzed int
	)

	On(bus, foo, func(v float64) { abs = v * v })
	On(bus, bar, func(v string) { length = len(v) })
	On(bus, baz, func(Void) { bazzed++ })

	// Emit(bus, foo) and Emit(bus, baz, "baz") are rejected by the compiler.
	assert.True(t, Emit(bus, foo, -3))
	assert.True(t, Emit(bus, bar, "bar"))
	assert.True(t, Emit(bus, baz, Nothing))

	assert.Equal(t, 9.0, abs)
	assert.Equal(t, 3, length)
	assert.Equal(t, 1, bazzed)
}

func TestBusSignalStrict(t *testing.T) {
	bus := NewBus(quiet())
	calls := 0
	On(bus, baz, func(Void) { calls++ })

	require.Equal(t, Strict, bus.Convention())

	ok, err := Signal(bus, baz)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrPayloadRequired))
	assert.Zero(t, calls)
}

func TestBusSignalLenient(t *testing.T) {
	bus := NewBus(quiet(), WithConvention(Lenient))
	calls := 0
	On(bus, baz, func(Void) { calls++ })

	ok, err := Signal(bus, baz)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}

func TestBusRejectsRebindingName(t *testing.T) {
	bus := NewBus(quiet())
	On(bus, foo, func(float64) {})

	fooAsString := NewEvent[string]("foo")

	assert.PanicsWithError(t, errors.Wrapf(ErrShapeMismatch, "event %q carries float64, not string", "foo").Error(), func() {
		Emit(bus, fooAsString, "1")
	})
	assert.Panics(t, func() {
		ListenerCount(bus, fooAsString)
	})
}

func TestBusClosedEventSet(t *testing.T) {
	bus := NewBus(quiet(), WithEvents(foo, bar))

	assert.NotPanics(t, func() {
		On(bus, foo, func(float64) {})
	})

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrUnknownEvent))
	}()
	On(bus, baz, func(Void) {})
}

func TestBusQueriesOnUndeclaredEventAreNoops(t *testing.T) {
	bus := NewBus(quiet(), WithEvents(foo))

	assert.Zero(t, ListenerCount(bus, bar))
	assert.Empty(t, Listeners(bus, bar))
	assert.NotPanics(t, func() {
		RemoveListener(bus, bar, func(string) {})
	})
}

func TestBusOnceAndPrepend(t *testing.T) {
	bus := NewBus(quiet())
	var order []string

	On(bus, bar, func(v string) { order = append(order, "on:"+v) })
	PrependListener(bus, bar, func(v string) { order = append(order, "prepend:"+v) })
	Once(bus, bar, func(v string) { order = append(order, "once:"+v) })
	PrependOnceListener(bus, bar, func(v string) { order = append(order, "prependOnce:"+v) })

	Emit(bus, bar, "1")
	Emit(bus, bar, "2")

	assert.Equal(t, []string{
		"prependOnce:1", "prepend:1", "on:1", "once:1",
		"prepend:2", "on:2",
	}, order)
}

func TestBusRemoveListener(t *testing.T) {
	bus := NewBus(quiet())
	calls := 0
	listener := func(float64) { calls++ }

	AddListener(bus, foo, listener)
	AddListener(bus, foo, listener)
	RemoveListener(bus, foo, listener)

	Emit(bus, foo, 1)
	assert.Equal(t, 1, calls)
	assert.Len(t, Listeners(bus, foo), 1)
}

func TestBusListenersAreTheRegisteredFuncs(t *testing.T) {
	bus := NewBus(quiet())
	var got string

	Once(bus, bar, func(v string) { got = v })

	listeners := Listeners(bus, bar)
	require.Len(t, listeners, 1)

	listeners[0]("direct")
	assert.Equal(t, "direct", got)
	assert.Equal(t, 1, ListenerCount(bus, bar))
}

func TestBusRemoveAllListeners(t *testing.T) {
	bus := NewBus(quiet())

	On(bus, foo, func(float64) {})
	On(bus, bar, func(string) {})
	On(bus, baz, func(Void) {})
	assert.Equal(t, []string{"foo", "bar", "baz"}, bus.EventNames())

	bus.RemoveAllListeners(bar)
	assert.Equal(t, []string{"foo", "baz"}, bus.EventNames())

	bus.RemoveAllListeners()
	assert.Empty(t, bus.EventNames())
	assert.False(t, Emit(bus, foo, 1))
}

func TestBusInterfacePayload(t *testing.T) {
	bus := NewBus(quiet())
	failed := NewEvent[error]("failed")
	var got error = errors.New("untouched")

	On(bus, failed, func(err error) { got = err })

	assert.True(t, Emit(bus, failed, nil))
	assert.NoError(t, got)
}

func TestBusMaxListeners(t *testing.T) {
	warned := 0
	bus := NewBus(quiet(), WithWarningHandler(func(error) { warned++ })).SetMaxListeners(1)

	On(bus, foo, func(float64) {})
	On(bus, foo, func(float64) {})
	On(bus, foo, func(float64) {})

	assert.Equal(t, 1, bus.GetMaxListeners())
	assert.Equal(t, 3, ListenerCount(bus, foo))
	assert.Equal(t, 1, warned)

	bus.Close()
	assert.Zero(t, ListenerCount(bus, foo))
}

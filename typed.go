package libemit

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// Void is the payload type of events that carry no value.
type Void struct{}

// Nothing is the explicit token passed when emitting a Void event.
var Nothing = Void{}

// Event names a channel of a Bus and binds it to the payload type T. Listeners and payloads
// of any other type are rejected by the compiler.
//
//	var (
//		Foo = libemit.NewEvent[float64]("foo")
//		Bar = libemit.NewEvent[string]("bar")
//		Baz = libemit.NewEvent[libemit.Void]("baz")
//	)
//
//	libemit.Emit(bus, Foo, 1)                // ok
//	libemit.Emit(bus, Baz, libemit.Nothing)  // ok
//	libemit.Emit(bus, Bar, 1)                // does not compile
type Event[T any] struct {
	name string
}

func NewEvent[T any](name string) Event[T] {
	return Event[T]{name: name}
}

func (e Event[T]) Name() string { return e.name }

func (e Event[T]) String() string { return e.name }

func (e Event[T]) payloadType() reflect.Type { return reflect.TypeFor[T]() }

// Declared is implemented by every Event[T]. It is used to close the event set of a
// Bus and to remove listeners regardless of payload type.
type Declared interface {
	Name() string
	payloadType() reflect.Type
}

// Bus is a registry whose events carry their payload type. Since Go methods cannot
// declare type parameters, the typed operations are package functions taking the Bus:
//
//	libemit.On(bus, Foo, func(v float64) { ... })
//	libemit.Emit(bus, Foo, 1)
//
// Every name is bound to the payload type it is first used with. Using it again with a
// different type panics with ErrShapeMismatch. When built WithEvents, only the declared
// events are accepted and any other name panics with ErrUnknownEvent.
type Bus struct {
	emitter    *Emitter[string, any]
	convention Convention
	logger     Logger

	// closed is fixed at construction.
	closed bool
	shapes map[string]reflect.Type
	mu     sync.Mutex
}

func NewBus(opts ...Option) *Bus {
	o := newOptions(opts)

	b := &Bus{
		emitter:    newEmitter[string, any](o),
		convention: o.convention,
		logger:     o.logger.WithField("type", "bus"),
		shapes:     make(map[string]reflect.Type),
	}

	for _, d := range o.declared {
		b.bind(d, true)
	}
	b.closed = len(o.declared) > 0

	return b
}

// Convention reports how Signal behaves on this bus.
func (b *Bus) Convention() Convention { return b.convention }

// bind checks d against the shape table. Unless closed, a name seen for the first time is
// recorded when record is set.
func (b *Bus) bind(d Declared, record bool) {
	typ := d.payloadType()

	b.mu.Lock()
	defer b.mu.Unlock()

	bound, found := b.shapes[d.Name()]
	switch {
	case found && bound != typ:
		panic(errors.Wrapf(ErrShapeMismatch, "event %q carries %s, not %s", d.Name(), bound, typ))
	case found:
		return
	case b.closed && record:
		panic(errors.Wrapf(ErrUnknownEvent, "event %q", d.Name()))
	case record:
		b.shapes[d.Name()] = typ
	}
}

func wrap[T any](fn func(T)) Listener[any] {
	return func(v any) {
		payload, _ := v.(T)
		fn(payload)
	}
}

func register[T any](b *Bus, ev Event[T], fn func(T), once, prepend bool) *Bus {
	if fn == nil {
		return b
	}
	b.bind(ev, true)
	b.emitter.add(ev.name, newEntry(wrap(fn), funcID(fn), fn, once), prepend)
	return b
}

// On appends fn to the listeners of ev.
func On[T any](b *Bus, ev Event[T], fn func(T)) *Bus {
	return register(b, ev, fn, false, false)
}

// AddListener is an alias for On.
func AddListener[T any](b *Bus, ev Event[T], fn func(T)) *Bus {
	return On(b, ev, fn)
}

// Once appends fn so that it runs on the next emission of ev only.
func Once[T any](b *Bus, ev Event[T], fn func(T)) *Bus {
	return register(b, ev, fn, true, false)
}

func PrependListener[T any](b *Bus, ev Event[T], fn func(T)) *Bus {
	return register(b, ev, fn, false, true)
}

func PrependOnceListener[T any](b *Bus, ev Event[T], fn func(T)) *Bus {
	return register(b, ev, fn, true, true)
}

// RemoveListener removes the first registration of fn for ev.
func RemoveListener[T any](b *Bus, ev Event[T], fn func(T)) *Bus {
	if fn == nil {
		return b
	}
	b.bind(ev, false)
	b.emitter.remove(ev.name, funcID(fn))
	return b
}

// Listeners returns a copy of the listeners registered for ev.
func Listeners[T any](b *Bus, ev Event[T]) []func(T) {
	b.bind(ev, false)
	sources := b.emitter.sources(ev.name)
	res := make([]func(T), 0, len(sources))
	for _, s := range sources {
		res = append(res, s.(func(T)))
	}
	return res
}

func ListenerCount[T any](b *Bus, ev Event[T]) int {
	b.bind(ev, false)
	return b.emitter.ListenerCount(ev.name)
}

// Emit synchronously delivers payload to the listeners of ev and reports whether there was any.
// Void events take the Nothing token.
func Emit[T any](b *Bus, ev Event[T], payload T) bool {
	b.bind(ev, true)
	return b.emitter.Emit(ev.name, payload)
}

// Signal emits a Void event without the explicit token. Under the Strict convention it
// dispatches nothing and returns ErrPayloadRequired.
func Signal(b *Bus, ev Event[Void]) (bool, error) {
	if b.convention == Strict {
		b.logger.Debugf("rejecting signal on %q under the strict convention", ev.name)
		return false, errors.Wrapf(ErrPayloadRequired, "event %q: emit Nothing explicitly", ev.name)
	}
	return Emit(b, ev, Nothing), nil
}

// RemoveAllListeners drops the listeners of the given events, or of every event.
func (b *Bus) RemoveAllListeners(events ...Declared) *Bus {
	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.Name())
	}
	if len(events) == 0 {
		b.emitter.RemoveAllListeners()
		return b
	}
	b.emitter.RemoveAllListeners(names...)
	return b
}

// EventNames returns the names of events with listeners, in first-registration order.
func (b *Bus) EventNames() []string {
	return b.emitter.EventNames()
}

func (b *Bus) SetMaxListeners(n int) *Bus {
	b.emitter.SetMaxListeners(n)
	return b
}

func (b *Bus) GetMaxListeners() int {
	return b.emitter.GetMaxListeners()
}

func (b *Bus) Close() {
	b.emitter.Close()
}

package libemit

import (
	"github.com/pkg/errors"
)

// DynamicListener is the listener of a DynamicEmitter. It receives the emitted arguments as is.
type DynamicListener func(args ...any)

// DynamicEmitter is the conventional, string keyed emitter. Without a schema any name and any
// arguments are accepted, leaving listeners to assert what they receive. Built WithSchema, it
// rejects undeclared names at registration and validates arguments on Emit, so that a typo or
// a wrong arity never reaches a listener.
type DynamicEmitter struct {
	emitter    *Emitter[string, []any]
	schema     Schema
	convention Convention
	logger     Logger
}

func NewDynamicEmitter(opts ...Option) *DynamicEmitter {
	o := newOptions(opts)

	return &DynamicEmitter{
		emitter:    newEmitter[string, []any](o),
		schema:     o.schema,
		convention: o.convention,
		logger:     o.logger.WithField("type", "dynamic_emitter"),
	}
}

// Schema returns the schema the emitter validates against, nil if it validates nothing.
func (d *DynamicEmitter) Schema() Schema { return d.schema }

func (d *DynamicEmitter) Convention() Convention { return d.convention }

func (d *DynamicEmitter) register(event string, fn DynamicListener, once, prepend bool) error {
	if d.schema != nil {
		if _, found := d.schema[event]; !found {
			return errors.Wrapf(ErrUnknownEvent, "event %q", event)
		}
	}
	if fn == nil {
		return nil
	}

	d.emitter.add(event, newEntry[[]any](func(args []any) { fn(args...) }, funcID(fn), fn, once), prepend)
	return nil
}

func (d *DynamicEmitter) On(event string, listener DynamicListener) error {
	return d.register(event, listener, false, false)
}

func (d *DynamicEmitter) AddListener(event string, listener DynamicListener) error {
	return d.On(event, listener)
}

func (d *DynamicEmitter) Once(event string, listener DynamicListener) error {
	return d.register(event, listener, true, false)
}

func (d *DynamicEmitter) PrependListener(event string, listener DynamicListener) error {
	return d.register(event, listener, false, true)
}

func (d *DynamicEmitter) PrependOnceListener(event string, listener DynamicListener) error {
	return d.register(event, listener, true, true)
}

// RemoveListener removes the first registration of listener for event. Unknown events and
// listeners are ignored.
func (d *DynamicEmitter) RemoveListener(event string, listener DynamicListener) *DynamicEmitter {
	if listener != nil {
		d.emitter.remove(event, funcID(listener))
	}
	return d
}

func (d *DynamicEmitter) RemoveAllListeners(events ...string) *DynamicEmitter {
	d.emitter.RemoveAllListeners(events...)
	return d
}

func (d *DynamicEmitter) Listeners(event string) []DynamicListener {
	sources := d.emitter.sources(event)
	res := make([]DynamicListener, 0, len(sources))
	for _, s := range sources {
		res = append(res, s.(DynamicListener))
	}
	return res
}

func (d *DynamicEmitter) ListenerCount(event string) int {
	return d.emitter.ListenerCount(event)
}

func (d *DynamicEmitter) EventNames() []string {
	return d.emitter.EventNames()
}

func (d *DynamicEmitter) SetMaxListeners(n int) *DynamicEmitter {
	d.emitter.SetMaxListeners(n)
	return d
}

func (d *DynamicEmitter) GetMaxListeners() int {
	return d.emitter.GetMaxListeners()
}

// Emit synchronously calls the listeners of event with args and reports whether there was any.
// With a schema, invalid arguments are rejected before any listener runs. Void events reach
// listeners without arguments.
func (d *DynamicEmitter) Emit(event string, args ...any) (bool, error) {
	if d.schema != nil {
		if err := d.schema.Validate(event, args, d.convention); err != nil {
			d.logger.WithField("event", event).Debugf("rejected emission: %s", err)
			return false, err
		}
		if d.schema[event] == ShapeVoid {
			args = nil
		}
	}

	return d.emitter.Emit(event, args), nil
}

func (d *DynamicEmitter) Close() {
	d.emitter.Close()
}

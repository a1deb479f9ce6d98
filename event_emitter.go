package libemit

import (
	"slices"
	"sync"
)

// Emitter maps events (of type K) to ordered lists of listeners receiving payloads of type V.
// Emit is synchronous and iterates over a snapshot of the list taken when it is called, so
// listeners may register or remove listeners, or emit again, without affecting the ongoing
// dispatch. The lock is never held while a listener runs.
//
// A listener that panics aborts the dispatch and the panic reaches the caller of Emit. The
// remaining listeners of that snapshot are not invoked.
type Emitter[K comparable, V any] struct {
	listeners map[K][]*entry[V]
	// names holds the events with at least one listener, in first-registration order.
	names        []K
	warned       map[K]bool
	maxListeners int
	lock         sync.RWMutex

	logger         Logger
	warningHandler WarningHandler
	metrics        *metrics
}

// NewEventEmitter creates a new Emitter and returns a pointer to it.
func NewEventEmitter[K comparable, V any](opts ...Option) *Emitter[K, V] {
	return newEmitter[K, V](newOptions(opts))
}

func newEmitter[K comparable, V any](o options) *Emitter[K, V] {
	return &Emitter[K, V]{
		listeners:      make(map[K][]*entry[V]),
		warned:         make(map[K]bool),
		maxListeners:   o.maxListeners,
		logger:         o.logger.WithField("type", "emitter"),
		warningHandler: o.warningHandler,
		metrics:        o.metrics,
	}
}

// On appends listener to the list of event.
func (e *Emitter[K, V]) On(event K, listener Listener[V]) *Emitter[K, V] {
	if listener == nil {
		return e
	}
	e.add(event, newEntry(listener, funcID(listener), listener, false), false)
	return e
}

// AddListener is an alias for On.
func (e *Emitter[K, V]) AddListener(event K, listener Listener[V]) *Emitter[K, V] {
	return e.On(event, listener)
}

// Once appends a listener that is removed right before its first invocation.
func (e *Emitter[K, V]) Once(event K, listener Listener[V]) *Emitter[K, V] {
	if listener == nil {
		return e
	}
	e.add(event, newEntry(listener, funcID(listener), listener, true), false)
	return e
}

// PrependListener inserts listener at the head of the list of event.
func (e *Emitter[K, V]) PrependListener(event K, listener Listener[V]) *Emitter[K, V] {
	if listener == nil {
		return e
	}
	e.add(event, newEntry(listener, funcID(listener), listener, false), true)
	return e
}

// PrependOnceListener inserts a once listener at the head of the list of event.
func (e *Emitter[K, V]) PrependOnceListener(event K, listener Listener[V]) *Emitter[K, V] {
	if listener == nil {
		return e
	}
	e.add(event, newEntry(listener, funcID(listener), listener, true), true)
	return e
}

// RemoveListener removes the first registration of listener for event, once listeners included.
// It is a no-op when listener is not registered.
//
// Listeners are matched by func value. A method value such as obj.Handle is a new func each
// time it is evaluated, so keep the value passed to On and remove that same value.
func (e *Emitter[K, V]) RemoveListener(event K, listener Listener[V]) *Emitter[K, V] {
	if listener == nil {
		return e
	}
	e.remove(event, funcID(listener))
	return e
}

// Off is an alias for RemoveListener.
func (e *Emitter[K, V]) Off(event K, listener Listener[V]) *Emitter[K, V] {
	return e.RemoveListener(event, listener)
}

// RemoveAllListeners drops every listener of the given events, or of all events when none is given.
func (e *Emitter[K, V]) RemoveAllListeners(events ...K) *Emitter[K, V] {
	e.lock.Lock()
	defer e.lock.Unlock()

	if len(events) == 0 {
		for _, name := range e.names {
			e.metrics.setListeners(name, 0)
		}
		e.listeners = make(map[K][]*entry[V])
		e.warned = make(map[K]bool)
		e.names = nil
		return e
	}

	for _, event := range events {
		if _, found := e.listeners[event]; found {
			e.drop(event)
		}
	}

	return e
}

// Listeners returns a copy of the listeners registered for event. Once listeners are
// reported as the function that was registered.
func (e *Emitter[K, V]) Listeners(event K) []Listener[V] {
	e.lock.RLock()
	defer e.lock.RUnlock()

	entries := e.listeners[event]
	res := make([]Listener[V], 0, len(entries))
	for _, en := range entries {
		res = append(res, en.fn)
	}
	return res
}

// ListenerCount returns the number of listeners registered for event.
func (e *Emitter[K, V]) ListenerCount(event K) int {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return len(e.listeners[event])
}

// EventNames returns the events that have listeners, in first-registration order.
func (e *Emitter[K, V]) EventNames() []K {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return slices.Clone(e.names)
}

// SetMaxListeners sets the advisory per-event bound. Zero means unlimited. Exceeding it
// only produces a warning.
func (e *Emitter[K, V]) SetMaxListeners(n int) *Emitter[K, V] {
	if n < 0 {
		e.logger.Warnf("max listeners must be non-negative, got %d: treating as unlimited", n)
		n = 0
	}

	e.lock.Lock()
	e.maxListeners = n
	e.lock.Unlock()

	return e
}

func (e *Emitter[K, V]) GetMaxListeners() int {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.maxListeners
}

// Emit synchronously calls, in registration order, every listener registered for event at
// the time of the call. It reports whether there was any.
func (e *Emitter[K, V]) Emit(event K, data V) bool {
	e.lock.RLock()
	snapshot := slices.Clone(e.listeners[event])
	e.lock.RUnlock()

	e.metrics.emitted(event, len(snapshot) > 0)

	if len(snapshot) == 0 {
		return false
	}

	for _, en := range snapshot {
		if en.once {
			if !en.claim() {
				continue
			}
			e.detach(event, en)
		}
		en.fn(data)
	}

	return true
}

// sources returns what each listener of event was registered as.
func (e *Emitter[K, V]) sources(event K) []any {
	e.lock.RLock()
	defer e.lock.RUnlock()

	entries := e.listeners[event]
	res := make([]any, 0, len(entries))
	for _, en := range entries {
		res = append(res, en.source)
	}
	return res
}

// Close removes all listeners to prevent memory leaks.
func (e *Emitter[K, V]) Close() {
	e.RemoveAllListeners()
}

func (e *Emitter[K, V]) add(event K, en *entry[V], prepend bool) {
	var warning *MaxListenersExceededWarning

	e.lock.Lock()
	list, found := e.listeners[event]
	if !found {
		e.names = append(e.names, event)
	}
	if prepend {
		list = slices.Insert(list, 0, en)
	} else {
		list = append(list, en)
	}
	e.listeners[event] = list

	if e.maxListeners > 0 && len(list) > e.maxListeners && !e.warned[event] {
		e.warned[event] = true
		warning = &MaxListenersExceededWarning{Event: event, Count: len(list), Max: e.maxListeners}
	}
	e.metrics.setListeners(event, len(list))
	e.lock.Unlock()

	if warning != nil {
		e.warn(*warning)
	}
}

func (e *Emitter[K, V]) warn(w MaxListenersExceededWarning) {
	e.metrics.warned(w.Event)
	e.logger.WithField("event", w.Event).Warnln(w.Error())
	if e.warningHandler != nil {
		e.warningHandler(w)
	}
}

func (e *Emitter[K, V]) remove(event K, id uintptr) bool {
	e.lock.Lock()
	defer e.lock.Unlock()

	list := e.listeners[event]
	idx := slices.IndexFunc(list, func(en *entry[V]) bool { return en.id == id })
	if idx < 0 {
		return false
	}

	e.cut(event, list, idx)
	return true
}

// detach removes exactly en from the live list of event, if still present.
func (e *Emitter[K, V]) detach(event K, en *entry[V]) {
	e.lock.Lock()
	defer e.lock.Unlock()

	list := e.listeners[event]
	if idx := slices.Index(list, en); idx >= 0 {
		e.cut(event, list, idx)
	}
}

// cut removes list[idx]. The caller must hold the write lock.
func (e *Emitter[K, V]) cut(event K, list []*entry[V], idx int) {
	next := slices.Delete(list, idx, idx+1)

	if len(next) == 0 {
		e.drop(event)
		return
	}

	e.listeners[event] = next
	e.metrics.setListeners(event, len(next))
}

// drop forgets event entirely. The caller must hold the write lock.
func (e *Emitter[K, V]) drop(event K) {
	delete(e.listeners, event)
	delete(e.warned, event)
	if idx := slices.Index(e.names, event); idx >= 0 {
		e.names = slices.Delete(e.names, idx, idx+1)
	}
	e.metrics.setListeners(event, 0)
}

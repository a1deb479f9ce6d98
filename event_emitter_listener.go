package libemit

import (
	"sync/atomic"
	"unsafe"
)

// Listener receives the payload of the event it is registered for.
type Listener[V any] func(V)

type entry[V any] struct {
	fn Listener[V]
	// id identifies the listener the caller registered, which may differ from fn
	// when a typed registry wraps it.
	id uintptr
	// source is what Listeners reports back for this entry.
	source any
	once   bool
	fired  atomic.Bool
}

func newEntry[V any](fn Listener[V], id uintptr, source any, once bool) *entry[V] {
	return &entry[V]{fn: fn, id: id, source: source, once: once}
}

// claim reports whether a once entry may run. It succeeds a single time.
func (e *entry[V]) claim() bool {
	return e.fired.CompareAndSwap(false, true)
}

// funcID returns the address of the closure behind a func value. Re-registering the
// same func value yields the same id; two distinct closures never share one.
// F must be a func type.
func funcID[F any](fn F) uintptr {
	return *(*uintptr)(unsafe.Pointer(&fn))
}

package libemit

import (
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

var (
	ErrShapeMismatch   = errors.New("payload does not match the event shape")
	ErrPayloadRequired = errors.New("explicit payload token required")
	ErrUnknownEvent    = errors.New("event is not declared")
	ErrUnknownShape    = errors.New("unknown shape")
	ErrInvalidConfig   = errors.New("invalid configuration")

	ErrConnectionClosed = errors.New("connection has been closed")
	ErrCannotConnect    = errors.New("connection cannot be established")
	ErrTerminated       = errors.New("program exit")
	ErrRateLimit        = errors.New("rate limit exceeded")
	ErrRelayClosed      = errors.New("relay is closed")
)

// MaxListenersExceededWarning is reported when an event accumulates more listeners
// than the emitter's advisory bound. It never prevents the registration.
type MaxListenersExceededWarning struct {
	Event any
	Count int
	Max   int
}

func (w MaxListenersExceededWarning) Error() string {
	return fmt.Sprintf(
		"possible listener leak detected: %d listeners added to %v, max is %d. Use SetMaxListeners to increase the limit",
		w.Count, w.Event, w.Max,
	)
}

type ErrUnrecoverableConnection struct {
	err error
	url url.URL
}

func (e ErrUnrecoverableConnection) Error() string {
	return fmt.Sprintf("unrecoverable connection error: %s to %s", e.err, e.url.String())
}

func (e ErrUnrecoverableConnection) Unwrap() error { return e.err }

func WrapErrorUnrecoverableConnection(err error, url url.URL) *ErrUnrecoverableConnection {
	if err == nil {
		return nil
	}
	return &ErrUnrecoverableConnection{
		err: err,
		url: url,
	}
}

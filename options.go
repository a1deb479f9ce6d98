package libemit

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultMaxListeners is the per-event advisory bound applied when none is configured.
// Zero means unlimited.
const DefaultMaxListeners = 10

// Convention decides how no-payload (Void) events are emitted.
type Convention int

const (
	// Strict requires the explicit Nothing token on every Void emission.
	Strict Convention = iota
	// Lenient also accepts emissions that omit the token.
	Lenient
)

func (c Convention) String() string {
	switch c {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return "unknown"
	}
}

// ParseConvention maps "strict" or "lenient" to a Convention. The empty string is Strict.
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, errors.Wrapf(ErrInvalidConfig, "unknown convention %q", s)
	}
}

type (
	// WarningHandler receives advisory warnings, such as MaxListenersExceededWarning.
	WarningHandler func(warning error)

	Option func(*options)

	options struct {
		maxListeners   int
		logger         Logger
		warningHandler WarningHandler
		metrics        *metrics
		convention     Convention
		schema         Schema
		declared       []Declared
	}
)

func newOptions(opts []Option) options {
	o := options{
		maxListeners: DefaultMaxListeners,
		convention:   Strict,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = defaultLogger()
	}
	if o.maxListeners < 0 {
		o.logger.Warnf("max listeners must be non-negative, got %d: treating as unlimited", o.maxListeners)
		o.maxListeners = 0
	}
	return o
}

// WithMaxListeners sets the advisory per-event bound. Zero disables the warning. A negative
// n is logged and treated as zero, as SetMaxListeners does.
func WithMaxListeners(n int) Option {
	return func(o *options) {
		o.maxListeners = n
	}
}

func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithWarningHandler registers a callback invoked, outside of any lock, for every advisory warning.
func WithWarningHandler(h WarningHandler) Option {
	return func(o *options) {
		o.warningHandler = h
	}
}

// WithConvention selects how Void events may be emitted. Defaults to Strict.
func WithConvention(c Convention) Option {
	return func(o *options) {
		o.convention = c
	}
}

// WithSchema makes a DynamicEmitter validate names and payloads against s.
func WithSchema(s Schema) Option {
	return func(o *options) {
		o.schema = s
	}
}

// WithEvents closes the event set of a Bus to decls.
func WithEvents(decls ...Declared) Option {
	return func(o *options) {
		o.declared = append(o.declared, decls...)
	}
}

// WithMetrics instruments the emitter with prometheus collectors registered on reg
// under the given namespace. Collectors already registered are reused.
func WithMetrics(reg prometheus.Registerer, namespace string) Option {
	return func(o *options) {
		o.metrics = newMetrics(reg, namespace)
	}
}

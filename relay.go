package libemit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Lifecycle events of a Relay, emitted on the Bus returned by Relay.Lifecycle. Listeners run on
// the relay goroutine and must not block.
var (
	RelayConnected    = NewEvent[Void]("relay.connected")
	RelayReconnected  = NewEvent[int]("relay.reconnected")
	RelayDisconnected = NewEvent[error]("relay.disconnected")
	RelayDropped      = NewEvent[DroppedFrame]("relay.dropped")
)

// DroppedFrame is an inbound frame that could not be dispatched.
type DroppedFrame struct {
	Frame Frame
	Err   error
}

type (
	backoffCalculator func(attempts int) time.Duration

	RelayOption func(*relayOptions)

	relayOptions struct {
		codec        Codec
		pingInterval time.Duration
		backoff      backoffCalculator
		logger       Logger
	}
)

func WithCodec(c Codec) RelayOption {
	return func(o *relayOptions) {
		o.codec = c
	}
}

// WithPingInterval makes the relay ping its peer every interval.
func WithPingInterval(interval time.Duration) RelayOption {
	return func(o *relayOptions) {
		o.pingInterval = interval
	}
}

// WithReconnect makes the relay redial after losing its connection, waiting backoff(attempts)
// before each attempt. Without it the relay closes together with its connection.
func WithReconnect(backoff func(attempts int) time.Duration) RelayOption {
	return func(o *relayOptions) {
		o.backoff = backoff
	}
}

func WithRelayLogger(logger Logger) RelayOption {
	return func(o *relayOptions) {
		o.logger = logger
	}
}

// Relay mirrors a DynamicEmitter over a Connection. Frames received from the peer are emitted
// on the emitter, and Publish sends local emissions to the peer. Frames are validated against
// the emitter schema in both directions.
type Relay struct {
	emitter     *DynamicEmitter
	connFactory ConnectionFactory
	codec       Codec
	backoff     backoffCalculator
	keepAlive   *keepAlive
	lifecycle   *Bus
	logger      Logger

	recv   chan Message
	conn   Connection
	connMu sync.RWMutex

	openOnce  sync.Once
	closeC    CloseChan
	closeOnce sync.Once
}

func NewRelay(emitter *DynamicEmitter, connFactory ConnectionFactory, opts ...RelayOption) *Relay {
	o := relayOptions{codec: JSONCodec}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = defaultLogger()
	}

	logger := o.logger.WithField("type", "relay")

	r := &Relay{
		emitter:     emitter,
		connFactory: connFactory,
		codec:       o.codec,
		backoff:     o.backoff,
		logger:      logger,
		lifecycle: NewBus(
			WithLogger(o.logger),
			WithEvents(RelayConnected, RelayReconnected, RelayDisconnected, RelayDropped),
		),
		recv:   make(chan Message, 32),
		closeC: make(CloseChan),
	}

	if o.pingInterval > 0 {
		r.keepAlive = newKeepAlive(logger, o.pingInterval, NewTimestampPingFactory())
	}

	return r
}

// Lifecycle returns the bus the relay reports connection changes and dropped frames on.
func (r *Relay) Lifecycle() *Bus {
	return r.lifecycle
}

// Open dials the peer and starts relaying. It returns the dial error of the first connection.
// Subsequent calls have no effect.
func (r *Relay) Open(ctx context.Context) (err error) {
	r.openOnce.Do(func() {
		var conn Connection
		if conn, err = r.dial(ctx); err != nil {
			return
		}
		if !r.setConn(conn) {
			err = ErrRelayClosed
			return
		}

		Emit(r.lifecycle, RelayConnected, Nothing)

		go r.run(ctx, conn)
		if r.keepAlive != nil {
			go r.keepAlive.run(ctx, r.closeC, r.send)
		}
	})

	return
}

// Publish sends one emission of event to the peer. It does not dispatch locally.
func (r *Relay) Publish(event string, args ...any) error {
	select {
	case <-r.closeC:
		return ErrRelayClosed
	default:
	}

	frame := Frame{ID: uuid.NewString(), Event: event}

	if schema := r.emitter.Schema(); schema != nil {
		if err := schema.Validate(event, args, r.emitter.Convention()); err != nil {
			return err
		}
		if schema[event] == ShapeVoid {
			args = nil
		}
	}

	switch len(args) {
	case 0:
	case 1:
		if _, void := args[0].(Void); !void {
			frame.Payload = args[0]
		}
	default:
		frame.Args = args
	}

	data, err := r.codec.Encode(frame)
	if err != nil {
		return err
	}

	return r.send(NewMessage(r.codec.MessageType(), data))
}

// Close stops relaying and closes the connection. Listeners of the emitter are left untouched.
func (r *Relay) Close() {
	r.closeOnce.Do(func() {
		close(r.closeC)

		r.connMu.RLock()
		if r.conn != nil {
			r.conn.Close()
		}
		r.connMu.RUnlock()
	})
}

// Shutdown sends a normal close frame behind any pending frame and waits up to timeout for the
// peer to hang up before closing the relay.
func (r *Relay) Shutdown(timeout time.Duration) error {
	defer r.Close()

	r.connMu.RLock()
	conn := r.conn
	r.connMu.RUnlock()

	if conn == nil {
		return nil
	}
	if err := conn.Write(NewCloseMessage(websocket.CloseNormalClosure, nil)); err != nil {
		return err
	}

	select {
	case <-conn.CloseChan():
	case <-time.After(timeout):
	}
	return nil
}

// CloseChan is closed once the relay stops.
func (r *Relay) CloseChan() CloseChan {
	return r.closeC
}

func (r *Relay) send(m Message) error {
	r.connMu.RLock()
	conn := r.conn
	r.connMu.RUnlock()

	if conn == nil {
		return errors.Wrap(ErrConnectionClosed, "relay is not open")
	}
	return conn.Write(m)
}

// setConn installs conn unless the relay is closed, in which case conn is closed instead.
func (r *Relay) setConn(conn Connection) bool {
	r.connMu.Lock()
	select {
	case <-r.closeC:
		r.connMu.Unlock()
		conn.Close()
		return false
	default:
	}
	r.conn = conn
	r.connMu.Unlock()
	return true
}

func (r *Relay) dial(ctx context.Context) (Connection, error) {
	conn := r.connFactory(ctx, r.recv)
	if err := conn.Open(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (r *Relay) run(ctx context.Context, conn Connection) {
	connCloseChan := conn.CloseChan()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-r.closeC:
			return
		case msg := <-r.recv:
			r.handle(msg)
		case <-connCloseChan:
			reason := conn.CloseErr()
			r.logger.Infof("connection closed due to %s", reason)
			Emit(r.lifecycle, RelayDisconnected, reason)

			if r.backoff == nil {
				r.Close()
				return
			}

			var ok bool
			if conn, ok = r.reconnect(ctx); !ok {
				r.Close()
				return
			}
			connCloseChan = conn.CloseChan()
		}
	}
}

// reconnect dials until it succeeds or the relay is stopped.
func (r *Relay) reconnect(ctx context.Context) (Connection, bool) {
	for attempts := 1; ; attempts++ {
		ttw := r.backoff(attempts)
		r.logger.Infof("reconnecting in %s, attempt #%d", ttw, attempts)

		select {
		case <-ctx.Done():
			return nil, false
		case <-r.closeC:
			return nil, false
		case <-time.After(ttw):
		}

		conn, err := r.dial(ctx)
		if err != nil {
			var unrecoverable *ErrUnrecoverableConnection
			if errors.As(err, &unrecoverable) {
				r.logger.Errorf("giving up reconnection: %s", err)
				return nil, false
			}
			r.logger.Warnf("reconnection attempt #%d failed: %s", attempts, err)
			continue
		}

		if !r.setConn(conn) {
			return nil, false
		}
		Emit(r.lifecycle, RelayReconnected, attempts)
		return conn, true
	}
}

func (r *Relay) handle(msg Message) {
	switch msg.Type {
	case PingMessage:
		replyPingWithPong(r.logger, r.send, msg)
	case PongMessage, CloseMessage:
		r.logger.Debugf("<= %s", msg)
	default:
		frame, err := r.codec.Decode(msg.Data)
		if err != nil {
			r.drop(Frame{}, err)
			return
		}
		r.dispatch(frame)
	}
}

func (r *Relay) dispatch(frame Frame) {
	var args []any
	switch {
	case len(frame.Args) > 0:
		args = frame.Args
	case frame.Payload != nil:
		args = []any{frame.Payload}
	}
	if schema := r.emitter.Schema(); schema != nil && schema[frame.Event] == ShapeVoid && len(args) == 0 {
		args = []any{Nothing}
	}

	if _, err := r.emitter.Emit(frame.Event, args...); err != nil {
		r.drop(frame, err)
	}
}

func (r *Relay) drop(frame Frame, err error) {
	r.logger.WithField("event", frame.Event).Warnf("dropping inbound frame %s: %s", frame.ID, err)
	Emit(r.lifecycle, RelayDropped, DroppedFrame{Frame: frame, Err: err})
}

func ExponentialBackoff(attempts int) float64 {
	return (math.Pow(2.0, float64(attempts)) - 1) / 2
}

func ExponentialBackoffSeconds(attempts int) time.Duration {
	return time.Duration(ExponentialBackoff(attempts) * float64(time.Second))
}

package libemit

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
)

type (
	dialParamsRepo interface {
		Get(ctx context.Context) (DialParams, error)
	}

	ErrAdapter func(*websocket.Conn, *http.Response, error) error

	ErrorAdapters struct {
		OnDial ErrAdapter
	}

	// WsConnection is a Connection over a websocket.
	WsConnection struct {
		errAdapters     ErrorAdapters
		dialParamsRepo  dialParamsRepo
		logger          Logger
		dialer          *websocket.Dialer
		conn            *websocket.Conn
		closeChan       CloseChan
		closeOnce       sync.Once
		closeReason     error
		closeReasonOnce sync.Once
		recv            chan<- Message // recv messages received over the wire
		send            chan Message   // send messages to be sent over the wire
	}
)

func NewWebsocketConnection(
	dialer *websocket.Dialer,
	paramsRepo dialParamsRepo,
	logger Logger,
	recvChan chan<- Message,
	errorAdapters ErrorAdapters,
) *WsConnection {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &WsConnection{
		errAdapters:    errorAdapters,
		dialer:         dialer,
		dialParamsRepo: paramsRepo,
		recv:           recvChan,
		send:           make(chan Message),
		closeChan:      make(CloseChan),
		logger:         logger.WithField("net", "ws_connection"),
	}
}

func NewWebsocketFactory(
	logger Logger,
	dialer *websocket.Dialer,
	paramsRepo dialParamsRepo,
	errorAdapters ErrorAdapters,
) ConnectionFactory {
	return func(_ context.Context, recvChan chan<- Message) Connection {
		return NewWebsocketConnection(
			dialer,
			paramsRepo,
			logger,
			recvChan,
			errorAdapters,
		)
	}
}

// Write hands m to the writer goroutine. It fails once the connection is closed.
func (w *WsConnection) Write(m Message) error {
	select {
	case w.send <- m:
		return nil
	case <-w.closeChan:
		return ErrConnectionClosed
	}
}

func (w *WsConnection) Close() {
	w.setCloseReason(ErrTerminated)
	w.safeClose()
}

// Open dials the websocket and spawns its reader and writer.
func (w *WsConnection) Open(ctx context.Context) error {
	p, err := w.dialParamsRepo.Get(ctx)
	if err != nil {
		return err
	}

	conn, resp, err := w.dialer.DialContext(ctx, p.URL.String(), p.Header)

	if err = w.handleDialError(p.URL, conn, resp, err); err != nil {
		w.logger.Errorf("connection err to %s: %s", p.URL.String(), err)
		return err
	}

	w.logger.Debugf("success opening connection to %s", p.URL.String())

	w.conn = conn

	// Control frames are surfaced to the relay, which owns the keep-alive policy.
	conn.SetPingHandler(func(appData string) error {
		w.logger.Debugln("<= [PING]")
		w.deliver(NewPingMessage([]byte(appData)))
		return nil
	})

	conn.SetPongHandler(func(appData string) error {
		w.logger.Debugln("<= [PONG]")
		w.deliver(NewPongMessage([]byte(appData)))
		return nil
	})

	conn.SetCloseHandler(func(code int, text string) error {
		w.logger.Debugln("<= [CLOSE]")
		w.deliver(NewCloseMessage(code, []byte(text)))
		return nil
	})

	go w.read(ctx)
	go w.write(ctx)

	return nil
}

func (w *WsConnection) CloseChan() CloseChan {
	return w.closeChan
}

func (w *WsConnection) CloseErr() error {
	select {
	case <-w.closeChan:
		return w.closeReason
	default:
		return nil
	}
}

func (w *WsConnection) deliver(m Message) {
	select {
	case w.recv <- m:
	case <-w.closeChan:
	}
}

func (w *WsConnection) read(ctx context.Context) {
	defer w.safeClose()

	for {
		messageType, bts, err := w.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				w.setCloseReason(ErrTerminated)
				return
			}
			w.logger.Errorf("error occurred on websocket read: %s", err)
			w.setCloseReason(errors.Wrap(ErrConnectionClosed, "error occurred on websocket read: "+err.Error()))
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			w.logger.Debugln("<= [BIN]")
			w.deliver(NewMessage(BinaryMessage, bts))
		default:
			w.logger.Debugf("<= [TEXT] %s", string(bts))
			w.deliver(NewMessage(TextMessage, bts))
		}
	}
}

func (w *WsConnection) write(ctx context.Context) {
	defer w.safeClose()

	for {
		select {
		case <-w.closeChan:
			return
		case <-ctx.Done():
			w.setCloseReason(ErrTerminated)
			return
		case msg := <-w.send:
			deadline := time.Now().Add(time.Second)
			_ = w.conn.SetWriteDeadline(deadline)

			var err error

			switch msg.Type {
			case PingMessage:
				w.logger.Debugln("=> [PING]")
				err = w.conn.WriteControl(websocket.PingMessage, msg.Data, deadline)
				var ne net.Error
				if errors.As(err, &ne) && ne.Timeout() {
					err = nil
				}
			case PongMessage:
				w.logger.Debugln("=> [PONG]")
				err = w.conn.WriteControl(websocket.PongMessage, msg.Data, deadline)
			case CloseMessage:
				w.logger.Debugln("=> [CLOSE]")
				err = w.conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(msg.Code, string(msg.Data)),
					deadline,
				)
			case BinaryMessage:
				w.logger.Debugln("=> [BIN]")
				err = w.conn.WriteMessage(websocket.BinaryMessage, msg.Data)
			default:
				w.logger.Debugf("=> [TEXT] %s", msg.Data)
				err = w.conn.WriteMessage(websocket.TextMessage, msg.Data)
			}

			if err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					w.setCloseReason(ErrConnectionClosed)
				} else {
					w.setCloseReason(errors.Wrap(ErrConnectionClosed, err.Error()))
				}
				return
			}
		}
	}
}

func (w *WsConnection) safeClose() {
	w.closeOnce.Do(w.close)
}

func (w *WsConnection) close() {
	if w.conn != nil {
		_ = w.conn.Close()
	}
	close(w.closeChan)
}

func (w *WsConnection) setCloseReason(err error) {
	w.closeReasonOnce.Do(func() {
		w.closeReason = err
	})
}

func (w *WsConnection) handleDialError(u url.URL, conn *websocket.Conn, resp *http.Response, err error) error {
	if w.errAdapters.OnDial != nil {
		return w.errAdapters.OnDial(conn, resp, err)
	}

	// 1. Check HTTP errors first
	var msg string

	if resp != nil {
		if resp.Body != nil {
			bts, err := io.ReadAll(resp.Body)
			if err == nil {
				msg = string(bts)
			}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return errors.Wrap(ErrRateLimit, msg)
		}
		// Client errors other than throttling will not heal by redialing.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return WrapErrorUnrecoverableConnection(
				errors.Wrapf(ErrCannotConnect, "status %d: %s", resp.StatusCode, msg), u)
		}
	}

	// 2. Network errors
	if err != nil {
		return errors.Wrap(ErrCannotConnect, err.Error())
	}

	return nil
}

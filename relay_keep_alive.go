package libemit

import (
	"context"
	"strconv"
	"time"
)

type KeepAliveMessageFactory func() Message

// keepAlive periodically sends a message produced by its factory to keep the link alive.
type keepAlive struct {
	interval                time.Duration
	keepAliveMessageFactory KeepAliveMessageFactory
	logger                  Logger
}

func newKeepAlive(
	logger Logger,
	interval time.Duration,
	factory KeepAliveMessageFactory,
) *keepAlive {
	return &keepAlive{
		interval:                interval,
		keepAliveMessageFactory: factory,
		logger:                  logger.WithField("subtype", "keepAlive"),
	}
}

// run sends keep-alive messages every interval until ctx is done or closeC is closed.
func (k *keepAlive) run(ctx context.Context, closeC CloseChan, send func(Message) error) {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-closeC:
			return
		case <-ticker.C:
			if err := send(k.keepAliveMessageFactory()); err != nil {
				k.logger.Debugf("cannot send keep-alive: %s", err)
			}
		}
	}
}

// NewTimestampPingFactory produces pings carrying the current unix time in milliseconds.
func NewTimestampPingFactory() KeepAliveMessageFactory {
	return func() Message {
		return NewPingMessage([]byte(strconv.FormatInt(time.Now().UnixMilli(), 10)))
	}
}

func replyPingWithPong(logger Logger, send func(Message) error, m Message) {
	if m.Type != PingMessage {
		return
	}
	if err := send(NewPongMessage(m.Data)); err != nil {
		logger.Debugf("cannot reply ping with pong: %s", err)
	}
}

package libemit

import (
	"context"
)

type (
	CloseChan chan struct{}

	// Connection is a message oriented, full duplex link the relay runs over.
	Connection interface {
		// Open dials the remote end. It returns once the link is established or has failed.
		Open(ctx context.Context) error
		// Write queues m for sending.
		Write(m Message) error
		Close()
		// CloseErr explains why the connection closed, nil while it is open.
		CloseErr() error
		// CloseChan is closed when the connection is.
		CloseChan() CloseChan
	}

	// ConnectionFactory builds a connection delivering the messages it receives to recvChan.
	ConnectionFactory func(ctx context.Context, recvChan chan<- Message) Connection
)

package libemit

import "fmt"

// MessageType mirrors the websocket frame opcodes the relay deals with.
type MessageType byte

const (
	TextMessage   MessageType = 1
	BinaryMessage MessageType = 2
	CloseMessage  MessageType = 8
	PingMessage   MessageType = 9
	PongMessage   MessageType = 10
)

func (t MessageType) String() string {
	switch t {
	case TextMessage:
		return "TEXT"
	case BinaryMessage:
		return "BIN"
	case CloseMessage:
		return "CLOSE"
	case PingMessage:
		return "PING"
	case PongMessage:
		return "PONG"
	default:
		return fmt.Sprintf("TYPE(%d)", byte(t))
	}
}

// IsData reports whether the message carries application data rather than control information.
func (t MessageType) IsData() bool {
	return t == TextMessage || t == BinaryMessage
}

// Message is a single websocket message as seen by the relay.
type Message struct {
	Type MessageType
	Data []byte
	// Code is only set on close messages.
	Code int
}

func (m Message) String() string {
	if m.Type == CloseMessage {
		return fmt.Sprintf("Message{type=%s,code=%d,data=%s}", m.Type, m.Code, m.Data)
	}
	return fmt.Sprintf("Message{type=%s,data=%s}", m.Type, m.Data)
}

func NewMessage(mt MessageType, data []byte) Message {
	return Message{Type: mt, Data: data}
}

func NewPingMessage(data []byte) Message {
	return NewMessage(PingMessage, data)
}

func NewPongMessage(data []byte) Message {
	return NewMessage(PongMessage, data)
}

func NewCloseMessage(code int, data []byte) Message {
	return Message{Type: CloseMessage, Data: data, Code: code}
}

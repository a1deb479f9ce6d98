package libemit

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Frame is the unit the relay exchanges with its peer: one emission of one event. A single
// argument travels as Payload, several as Args so that listeners receive the same arity.
type Frame struct {
	ID      string `json:"id" msgpack:"id"`
	Event   string `json:"event" msgpack:"event"`
	Payload any    `json:"payload,omitempty" msgpack:"payload,omitempty"`
	Args    []any  `json:"args,omitempty" msgpack:"args,omitempty"`
}

// Codec turns frames into websocket messages and back.
type Codec interface {
	Name() string
	// MessageType is the websocket message type encoded frames travel as.
	MessageType() MessageType
	Encode(f Frame) ([]byte, error)
	Decode(data []byte) (Frame, error)
}

type jsonCodec struct{}

// JSONCodec sends frames as JSON text messages. Numbers arrive as float64 and byte slices
// as base64 strings.
var JSONCodec Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) MessageType() MessageType { return TextMessage }

func (jsonCodec) Encode(f Frame) ([]byte, error) {
	bts, err := json.Marshal(f)
	return bts, errors.Wrap(err, "cannot encode json frame")
}

func (jsonCodec) Decode(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, errors.Wrap(err, "cannot decode json frame")
}

type msgpackCodec struct{}

// MsgpackCodec sends frames as msgpack binary messages.
var MsgpackCodec Codec = msgpackCodec{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) MessageType() MessageType { return BinaryMessage }

func (msgpackCodec) Encode(f Frame) ([]byte, error) {
	bts, err := msgpack.Marshal(f)
	return bts, errors.Wrap(err, "cannot encode msgpack frame")
}

func (msgpackCodec) Decode(data []byte) (Frame, error) {
	var f Frame
	err := msgpack.Unmarshal(data, &f)
	return f, errors.Wrap(err, "cannot decode msgpack frame")
}

// CodecByName returns the codec called name. The empty name selects JSONCodec.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSONCodec, nil
	case "msgpack":
		return MsgpackCodec, nil
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown codec %q", name)
	}
}

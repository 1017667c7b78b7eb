// Package serialize encodes and decodes WAMP messages as the tagged-array
// wire format, over the two serializations the Basic Profile negotiates:
// JSON text and MessagePack binary.
package serialize

import "github.com/ohyo-io/wampire/wamp"

// Serialization names the negotiated WebSocket subprotocol.
type Serialization string

const (
	JSON      Serialization = "wamp.2.json"
	MessagePack Serialization = "wamp.2.msgpack"
)

// Subprotocols lists the subprotocols offered during the WebSocket upgrade,
// in preference order.
var Subprotocols = []string{string(JSON), string(MessagePack)}

// Serializer encodes and decodes single WAMP messages. A DecodeError is
// returned for malformed input; the codec never silently coerces types.
type Serializer interface {
	Serialize(wamp.Message) ([]byte, error)
	Deserialize([]byte) (wamp.Message, error)
}

// DecodeError reports why a frame could not be decoded into a Message.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "serialize: decode error: " + e.Reason }

// For selects the Serializer for a negotiated subprotocol name.
func For(sub Serialization) Serializer {
	switch sub {
	case MessagePack:
		return NewMessagePackSerializer()
	default:
		return NewJSONSerializer()
	}
}

package serialize

import (
	"reflect"

	"github.com/ugorji/go/codec"

	"github.com/ohyo-io/wampire/wamp"
)

var msgpackHandle = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.RawToString = true
	// Decode maps as wamp.Dict rather than map[interface{}]interface{}.
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return h
}()

// MessagePackSerializer implements Serializer over the "wamp.2.msgpack"
// subprotocol, encoding each message as a MessagePack array per spec.md §4.1.
type MessagePackSerializer struct{}

// NewMessagePackSerializer returns a ready-to-use MessagePackSerializer.
func NewMessagePackSerializer() *MessagePackSerializer { return &MessagePackSerializer{} }

func (s *MessagePackSerializer) Serialize(msg wamp.Message) ([]byte, error) {
	w, err := toWire(msg)
	if err != nil {
		return nil, err
	}
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, msgpackHandle)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *MessagePackSerializer) Deserialize(b []byte) (wamp.Message, error) {
	var elems []interface{}
	dec := codec.NewDecoderBytes(b, msgpackHandle)
	if err := dec.Decode(&elems); err != nil {
		return nil, &DecodeError{Reason: "malformed MessagePack array: " + err.Error()}
	}
	if len(elems) == 0 {
		return nil, &DecodeError{Reason: "empty message array"}
	}
	mtNum, ok := wamp.AsInt64(normalizeMsgpackInt(elems[0]))
	if f, isFloat := elems[0].(float64); isFloat && f != float64(mtNum) {
		ok = false
	}
	if !ok {
		return nil, &DecodeError{Reason: "message type is not a number"}
	}
	return fromWire(wamp.MessageType(int(mtNum)), elems)
}

// normalizeMsgpackInt coerces the int64/uint64 variants ugorji/go/codec may
// produce for a small positive integer into a form wamp.AsInt64 accepts.
func normalizeMsgpackInt(v interface{}) interface{} {
	switch n := v.(type) {
	case int64:
		return n
	case uint64:
		return n
	case int:
		return int64(n)
	default:
		return v
	}
}

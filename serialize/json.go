package serialize

import (
	"encoding/json"

	"github.com/ohyo-io/wampire/wamp"
)

// JSONSerializer implements Serializer over the "wamp.2.json" subprotocol,
// encoding each message as a JSON array per spec.md §4.1.
type JSONSerializer struct{}

// NewJSONSerializer returns a ready-to-use JSONSerializer.
func NewJSONSerializer() *JSONSerializer { return &JSONSerializer{} }

func (s *JSONSerializer) Serialize(msg wamp.Message) ([]byte, error) {
	w, err := toWire(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (s *JSONSerializer) Deserialize(b []byte) (wamp.Message, error) {
	var elems []interface{}
	if err := json.Unmarshal(b, &elems); err != nil {
		return nil, &DecodeError{Reason: "malformed JSON array: " + err.Error()}
	}
	if len(elems) == 0 {
		return nil, &DecodeError{Reason: "empty message array"}
	}
	mtNum, ok := elems[0].(float64)
	if !ok || mtNum != float64(int(mtNum)) {
		return nil, &DecodeError{Reason: "message type is not a number"}
	}
	return fromWire(wamp.MessageType(int(mtNum)), elems)
}

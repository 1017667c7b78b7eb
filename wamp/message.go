// Package wamp defines the WAMP v2 wire vocabulary: message types, URIs,
// identifiers, and the small set of dict/list helpers the rest of the router
// builds on.
package wamp

// MessageType identifies a WAMP message by its wire-format numeric tag.
type MessageType int

const (
	HELLO       MessageType = 1
	WELCOME     MessageType = 2
	ABORT       MessageType = 3
	CHALLENGE   MessageType = 4
	AUTHENTICATE MessageType = 5
	GOODBYE     MessageType = 6
	ERROR       MessageType = 8

	PUBLISH   MessageType = 16
	PUBLISHED MessageType = 17

	SUBSCRIBE   MessageType = 32
	SUBSCRIBED  MessageType = 33
	UNSUBSCRIBE MessageType = 34
	UNSUBSCRIBED MessageType = 35
	EVENT       MessageType = 36

	CALL   MessageType = 48
	CANCEL MessageType = 49
	RESULT MessageType = 50

	REGISTER    MessageType = 64
	REGISTERED  MessageType = 65
	UNREGISTER  MessageType = 66
	UNREGISTERED MessageType = 67
	INVOCATION  MessageType = 68
	INTERRUPT   MessageType = 69
	YIELD       MessageType = 70
)

// String returns the message name as it appears on the wire, e.g. "HELLO".
func (mt MessageType) String() string {
	if name, ok := messageNames[mt]; ok {
		return name
	}
	return "UNKNOWN"
}

var messageNames = map[MessageType]string{
	HELLO: "HELLO", WELCOME: "WELCOME", ABORT: "ABORT", CHALLENGE: "CHALLENGE",
	AUTHENTICATE: "AUTHENTICATE", GOODBYE: "GOODBYE", ERROR: "ERROR",
	PUBLISH: "PUBLISH", PUBLISHED: "PUBLISHED",
	SUBSCRIBE: "SUBSCRIBE", SUBSCRIBED: "SUBSCRIBED",
	UNSUBSCRIBE: "UNSUBSCRIBE", UNSUBSCRIBED: "UNSUBSCRIBED", EVENT: "EVENT",
	CALL: "CALL", CANCEL: "CANCEL", RESULT: "RESULT",
	REGISTER: "REGISTER", REGISTERED: "REGISTERED",
	UNREGISTER: "UNREGISTER", UNREGISTERED: "UNREGISTERED",
	INVOCATION: "INVOCATION", INTERRUPT: "INTERRUPT", YIELD: "YIELD",
}

// Message is implemented by every WAMP message struct.
type Message interface {
	MessageType() MessageType
}

package serialize

import (
	"reflect"
	"testing"

	"github.com/ohyo-io/wampire/wamp"
)

// messages covers one instance of every WAMP message type, including the
// args/kwargs trailing-field permutations spec.md §4.1 describes.
func messages() []wamp.Message {
	return []wamp.Message{
		&wamp.Hello{Realm: "com.example.realm", Details: wamp.Dict{"roles": wamp.Dict{"caller": wamp.Dict{}}}},
		&wamp.Welcome{ID: 1, Details: wamp.Dict{"authid": "alice"}},
		&wamp.Abort{Details: wamp.Dict{}, Reason: wamp.ErrNoSuchRealm},
		&wamp.Challenge{AuthMethod: "ticket", Extra: wamp.Dict{}},
		&wamp.Authenticate{Signature: "s3cr3t", Extra: wamp.Dict{}},
		&wamp.Goodbye{Details: wamp.Dict{}, Reason: wamp.ErrGoodbyeAndOut},
		&wamp.Error{Type: wamp.CALL, Request: 2, Details: wamp.Dict{}, Error: wamp.ErrNoSuchProcedure},
		&wamp.Error{Type: wamp.CALL, Request: 3, Details: wamp.Dict{}, Error: wamp.ErrInvalidURI,
			Arguments: wamp.List{"bad uri"}, ArgumentsKw: wamp.Dict{"detail": "empty segment"}},
		&wamp.Publish{Request: 4, Options: wamp.Dict{}, Topic: "com.example.topic"},
		&wamp.Publish{Request: 5, Options: wamp.Dict{"acknowledge": true}, Topic: "com.example.topic",
			Arguments: wamp.List{1, "two", 3.0}},
		&wamp.Published{Request: 6, Publication: 7},
		&wamp.Subscribe{Request: 8, Options: wamp.Dict{}, Topic: "com.example.topic"},
		&wamp.Subscribed{Request: 9, Subscription: 10},
		&wamp.Unsubscribe{Request: 11, Subscription: 10},
		&wamp.Unsubscribed{Request: 12},
		&wamp.Event{Subscription: 10, Publication: 7, Details: wamp.Dict{},
			Arguments: wamp.List{"payload"}, ArgumentsKw: wamp.Dict{"seq": 1.0}},
		&wamp.Call{Request: 13, Options: wamp.Dict{"timeout": 1000.0}, Procedure: "com.example.proc",
			Arguments: wamp.List{"x"}},
		&wamp.Cancel{Request: 13, Options: wamp.Dict{"mode": "kill"}},
		&wamp.Result{Request: 13, Details: wamp.Dict{}, Arguments: wamp.List{"y"}, ArgumentsKw: wamp.Dict{"ok": true}},
		&wamp.Register{Request: 14, Options: wamp.Dict{}, Procedure: "com.example.proc"},
		&wamp.Registered{Request: 14, Registration: 15},
		&wamp.Unregister{Request: 16, Registration: 15},
		&wamp.Unregistered{Request: 17},
		&wamp.Invocation{Request: 18, Registration: 15, Details: wamp.Dict{},
			Arguments: wamp.List{"x"}, ArgumentsKw: wamp.Dict{"extra": 1.0}},
		&wamp.Interrupt{Request: 18, Options: wamp.Dict{"mode": "killnowait"}},
		&wamp.Yield{Request: 18, Options: wamp.Dict{}, Arguments: wamp.List{"y"}},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := NewJSONSerializer()
	for _, msg := range messages() {
		b, err := s.Serialize(msg)
		if err != nil {
			t.Fatalf("%T: serialize: %v", msg, err)
		}
		got, err := s.Deserialize(b)
		if err != nil {
			t.Fatalf("%T: deserialize: %v", msg, err)
		}
		if !reflect.DeepEqual(normalizeForCompare(msg), normalizeForCompare(got)) {
			t.Errorf("%T: round trip mismatch:\n sent: %#v\n got:  %#v", msg, msg, got)
		}
	}
}

func TestMessagePackRoundTrip(t *testing.T) {
	s := NewMessagePackSerializer()
	for _, msg := range messages() {
		b, err := s.Serialize(msg)
		if err != nil {
			t.Fatalf("%T: serialize: %v", msg, err)
		}
		got, err := s.Deserialize(b)
		if err != nil {
			t.Fatalf("%T: deserialize: %v", msg, err)
		}
		if !reflect.DeepEqual(normalizeForCompare(msg), normalizeForCompare(got)) {
			t.Errorf("%T: round trip mismatch:\n sent: %#v\n got:  %#v", msg, msg, got)
		}
	}
}

// normalizeForCompare re-encodes/decodes through the JSON serializer so
// that number representations that differ only by codec (int vs float64,
// uint64 vs int64) compare equal, the way two independent WAMP peers would
// treat them as the same value.
func normalizeForCompare(msg wamp.Message) wamp.Message {
	s := NewJSONSerializer()
	b, err := s.Serialize(msg)
	if err != nil {
		panic(err)
	}
	out, err := s.Deserialize(b)
	if err != nil {
		panic(err)
	}
	return out
}

func TestJSONDeserializeRejectsMalformed(t *testing.T) {
	s := NewJSONSerializer()
	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`[]`),
		[]byte(`["not a number"]`),
		[]byte(`[1]`),          // HELLO with no fields
		[]byte(`[1, 2, {}]`),   // HELLO with non-string realm
		[]byte(`[999, "x", {}]`), // unknown message type
	}
	for _, c := range cases {
		if _, err := s.Deserialize(c); err == nil {
			t.Errorf("Deserialize(%s): expected error, got nil", c)
		}
	}
}

func TestMessagePackDeserializeRejectsMalformed(t *testing.T) {
	s := NewMessagePackSerializer()
	if _, err := s.Deserialize([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Error("expected error decoding garbage MessagePack")
	}
}

// TestPublishArgsKwargsShape verifies the trailing-field rule: kwargs are
// never emitted without args, and absent args/kwargs leave the wire array
// short rather than padded with empty placeholders.
func TestPublishArgsKwargsShape(t *testing.T) {
	s := NewJSONSerializer()

	b, err := s.Serialize(&wamp.Publish{Request: 1, Options: wamp.Dict{}, Topic: "a.b"})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `[16,1,{},"a.b"]` {
		t.Errorf("bare publish wire form = %s", b)
	}

	b, err = s.Serialize(&wamp.Publish{Request: 2, Options: wamp.Dict{}, Topic: "a.b", ArgumentsKw: wamp.Dict{"k": "v"}})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Deserialize(b)
	if err != nil {
		t.Fatal(err)
	}
	pub := got.(*wamp.Publish)
	if len(pub.Arguments) != 0 {
		t.Errorf("expected empty Arguments when only kwargs given, got %#v", pub.Arguments)
	}
	if pub.ArgumentsKw["k"] != "v" {
		t.Errorf("ArgumentsKw not preserved: %#v", pub.ArgumentsKw)
	}
}

package serialize

import (
	"fmt"

	"github.com/ohyo-io/wampire/wamp"
)

// toWire converts a typed Message into its tagged-array wire representation:
// [MessageType, ...fields]. args/kwargs are only appended when the message
// carries them and kwargs is never appended without args, preserving the
// shape described in spec.md §4.1.
func toWire(msg wamp.Message) ([]interface{}, error) {
	switch m := msg.(type) {
	case *wamp.Hello:
		return []interface{}{wamp.HELLO, m.Realm, dictOrEmpty(m.Details)}, nil
	case *wamp.Welcome:
		return []interface{}{wamp.WELCOME, m.ID, dictOrEmpty(m.Details)}, nil
	case *wamp.Abort:
		return []interface{}{wamp.ABORT, dictOrEmpty(m.Details), m.Reason}, nil
	case *wamp.Challenge:
		return []interface{}{wamp.CHALLENGE, m.AuthMethod, dictOrEmpty(m.Extra)}, nil
	case *wamp.Authenticate:
		return []interface{}{wamp.AUTHENTICATE, m.Signature, dictOrEmpty(m.Extra)}, nil
	case *wamp.Goodbye:
		return []interface{}{wamp.GOODBYE, dictOrEmpty(m.Details), m.Reason}, nil
	case *wamp.Error:
		w := []interface{}{wamp.ERROR, m.Type, m.Request, dictOrEmpty(m.Details), m.Error}
		return appendArgs(w, m.Arguments, m.ArgumentsKw), nil
	case *wamp.Publish:
		w := []interface{}{wamp.PUBLISH, m.Request, dictOrEmpty(m.Options), m.Topic}
		return appendArgs(w, m.Arguments, m.ArgumentsKw), nil
	case *wamp.Published:
		return []interface{}{wamp.PUBLISHED, m.Request, m.Publication}, nil
	case *wamp.Subscribe:
		return []interface{}{wamp.SUBSCRIBE, m.Request, dictOrEmpty(m.Options), m.Topic}, nil
	case *wamp.Subscribed:
		return []interface{}{wamp.SUBSCRIBED, m.Request, m.Subscription}, nil
	case *wamp.Unsubscribe:
		return []interface{}{wamp.UNSUBSCRIBE, m.Request, m.Subscription}, nil
	case *wamp.Unsubscribed:
		return []interface{}{wamp.UNSUBSCRIBED, m.Request}, nil
	case *wamp.Event:
		w := []interface{}{wamp.EVENT, m.Subscription, m.Publication, dictOrEmpty(m.Details)}
		return appendArgs(w, m.Arguments, m.ArgumentsKw), nil
	case *wamp.Call:
		w := []interface{}{wamp.CALL, m.Request, dictOrEmpty(m.Options), m.Procedure}
		return appendArgs(w, m.Arguments, m.ArgumentsKw), nil
	case *wamp.Cancel:
		return []interface{}{wamp.CANCEL, m.Request, dictOrEmpty(m.Options)}, nil
	case *wamp.Result:
		w := []interface{}{wamp.RESULT, m.Request, dictOrEmpty(m.Details)}
		return appendArgs(w, m.Arguments, m.ArgumentsKw), nil
	case *wamp.Register:
		return []interface{}{wamp.REGISTER, m.Request, dictOrEmpty(m.Options), m.Procedure}, nil
	case *wamp.Registered:
		return []interface{}{wamp.REGISTERED, m.Request, m.Registration}, nil
	case *wamp.Unregister:
		return []interface{}{wamp.UNREGISTER, m.Request, m.Registration}, nil
	case *wamp.Unregistered:
		return []interface{}{wamp.UNREGISTERED, m.Request}, nil
	case *wamp.Invocation:
		w := []interface{}{wamp.INVOCATION, m.Request, m.Registration, dictOrEmpty(m.Details)}
		return appendArgs(w, m.Arguments, m.ArgumentsKw), nil
	case *wamp.Interrupt:
		return []interface{}{wamp.INTERRUPT, m.Request, dictOrEmpty(m.Options)}, nil
	case *wamp.Yield:
		w := []interface{}{wamp.YIELD, m.Request, dictOrEmpty(m.Options)}
		return appendArgs(w, m.Arguments, m.ArgumentsKw), nil
	default:
		return nil, &DecodeError{Reason: fmt.Sprintf("unsupported message type %T", msg)}
	}
}

func dictOrEmpty(d wamp.Dict) wamp.Dict {
	if d == nil {
		return wamp.Dict{}
	}
	return d
}

// appendArgs appends args/kwargs to w only when present, and never appends
// kwargs without args, matching spec.md §4.1's trailing-field rule.
func appendArgs(w []interface{}, args wamp.List, kwargs wamp.Dict) []interface{} {
	if kwargs != nil {
		if args == nil {
			args = wamp.List{}
		}
		return append(w, args, kwargs)
	}
	if args != nil {
		return append(w, args)
	}
	return w
}

// fromWire converts a decoded wire array back into a typed Message. elems[0]
// has already been normalized to a wamp.MessageType by the caller.
func fromWire(mt wamp.MessageType, elems []interface{}) (wamp.Message, error) {
	args := elems[1:]
	switch mt {
	case wamp.HELLO:
		if len(args) != 2 {
			return nil, shapeErr(mt, len(args))
		}
		realm, err := asURI(args[0])
		if err != nil {
			return nil, err
		}
		details, err := asDict(args[1])
		if err != nil {
			return nil, err
		}
		return &wamp.Hello{Realm: realm, Details: details}, nil
	case wamp.WELCOME:
		if len(args) != 2 {
			return nil, shapeErr(mt, len(args))
		}
		id, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		details, err := asDict(args[1])
		if err != nil {
			return nil, err
		}
		return &wamp.Welcome{ID: id, Details: details}, nil
	case wamp.ABORT:
		if len(args) != 2 {
			return nil, shapeErr(mt, len(args))
		}
		details, err := asDict(args[0])
		if err != nil {
			return nil, err
		}
		reason, err := asURI(args[1])
		if err != nil {
			return nil, err
		}
		return &wamp.Abort{Details: details, Reason: reason}, nil
	case wamp.CHALLENGE:
		if len(args) != 2 {
			return nil, shapeErr(mt, len(args))
		}
		method, ok := args[0].(string)
		if !ok {
			return nil, &DecodeError{Reason: "expected authmethod string"}
		}
		extra, err := asDict(args[1])
		if err != nil {
			return nil, err
		}
		return &wamp.Challenge{AuthMethod: method, Extra: extra}, nil
	case wamp.AUTHENTICATE:
		if len(args) != 2 {
			return nil, shapeErr(mt, len(args))
		}
		sig, ok := args[0].(string)
		if !ok {
			return nil, &DecodeError{Reason: "expected signature string"}
		}
		extra, err := asDict(args[1])
		if err != nil {
			return nil, err
		}
		return &wamp.Authenticate{Signature: sig, Extra: extra}, nil
	case wamp.GOODBYE:
		if len(args) != 2 {
			return nil, shapeErr(mt, len(args))
		}
		details, err := asDict(args[0])
		if err != nil {
			return nil, err
		}
		reason, err := asURI(args[1])
		if err != nil {
			return nil, err
		}
		return &wamp.Goodbye{Details: details, Reason: reason}, nil
	case wamp.ERROR:
		if len(args) < 4 {
			return nil, shapeErr(mt, len(args))
		}
		reqType, err := asInt(args[0])
		if err != nil {
			return nil, err
		}
		request, err := asID(args[1])
		if err != nil {
			return nil, err
		}
		details, err := asDict(args[2])
		if err != nil {
			return nil, err
		}
		errURI, err := asURI(args[3])
		if err != nil {
			return nil, err
		}
		a, kw, err := trailingArgs(args[4:])
		if err != nil {
			return nil, err
		}
		return &wamp.Error{Type: wamp.MessageType(reqType), Request: request, Details: details, Error: errURI, Arguments: a, ArgumentsKw: kw}, nil
	case wamp.PUBLISH:
		if len(args) < 3 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		options, err := asDict(args[1])
		if err != nil {
			return nil, err
		}
		topic, err := asURI(args[2])
		if err != nil {
			return nil, err
		}
		a, kw, err := trailingArgs(args[3:])
		if err != nil {
			return nil, err
		}
		return &wamp.Publish{Request: request, Options: options, Topic: topic, Arguments: a, ArgumentsKw: kw}, nil
	case wamp.PUBLISHED:
		if len(args) != 2 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		pub, err := asID(args[1])
		if err != nil {
			return nil, err
		}
		return &wamp.Published{Request: request, Publication: pub}, nil
	case wamp.SUBSCRIBE:
		if len(args) != 3 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		options, err := asDict(args[1])
		if err != nil {
			return nil, err
		}
		topic, err := asURI(args[2])
		if err != nil {
			return nil, err
		}
		return &wamp.Subscribe{Request: request, Options: options, Topic: topic}, nil
	case wamp.SUBSCRIBED:
		if len(args) != 2 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		sub, err := asID(args[1])
		if err != nil {
			return nil, err
		}
		return &wamp.Subscribed{Request: request, Subscription: sub}, nil
	case wamp.UNSUBSCRIBE:
		if len(args) != 2 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		sub, err := asID(args[1])
		if err != nil {
			return nil, err
		}
		return &wamp.Unsubscribe{Request: request, Subscription: sub}, nil
	case wamp.UNSUBSCRIBED:
		if len(args) != 1 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		return &wamp.Unsubscribed{Request: request}, nil
	case wamp.EVENT:
		if len(args) < 3 {
			return nil, shapeErr(mt, len(args))
		}
		sub, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		pub, err := asID(args[1])
		if err != nil {
			return nil, err
		}
		details, err := asDict(args[2])
		if err != nil {
			return nil, err
		}
		a, kw, err := trailingArgs(args[3:])
		if err != nil {
			return nil, err
		}
		return &wamp.Event{Subscription: sub, Publication: pub, Details: details, Arguments: a, ArgumentsKw: kw}, nil
	case wamp.CALL:
		if len(args) < 3 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		options, err := asDict(args[1])
		if err != nil {
			return nil, err
		}
		proc, err := asURI(args[2])
		if err != nil {
			return nil, err
		}
		a, kw, err := trailingArgs(args[3:])
		if err != nil {
			return nil, err
		}
		return &wamp.Call{Request: request, Options: options, Procedure: proc, Arguments: a, ArgumentsKw: kw}, nil
	case wamp.CANCEL:
		if len(args) != 2 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		options, err := asDict(args[1])
		if err != nil {
			return nil, err
		}
		return &wamp.Cancel{Request: request, Options: options}, nil
	case wamp.RESULT:
		if len(args) < 2 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		details, err := asDict(args[1])
		if err != nil {
			return nil, err
		}
		a, kw, err := trailingArgs(args[2:])
		if err != nil {
			return nil, err
		}
		return &wamp.Result{Request: request, Details: details, Arguments: a, ArgumentsKw: kw}, nil
	case wamp.REGISTER:
		if len(args) != 3 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		options, err := asDict(args[1])
		if err != nil {
			return nil, err
		}
		proc, err := asURI(args[2])
		if err != nil {
			return nil, err
		}
		return &wamp.Register{Request: request, Options: options, Procedure: proc}, nil
	case wamp.REGISTERED:
		if len(args) != 2 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		reg, err := asID(args[1])
		if err != nil {
			return nil, err
		}
		return &wamp.Registered{Request: request, Registration: reg}, nil
	case wamp.UNREGISTER:
		if len(args) != 2 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		reg, err := asID(args[1])
		if err != nil {
			return nil, err
		}
		return &wamp.Unregister{Request: request, Registration: reg}, nil
	case wamp.UNREGISTERED:
		if len(args) != 1 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		return &wamp.Unregistered{Request: request}, nil
	case wamp.INVOCATION:
		if len(args) < 3 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		reg, err := asID(args[1])
		if err != nil {
			return nil, err
		}
		details, err := asDict(args[2])
		if err != nil {
			return nil, err
		}
		a, kw, err := trailingArgs(args[3:])
		if err != nil {
			return nil, err
		}
		return &wamp.Invocation{Request: request, Registration: reg, Details: details, Arguments: a, ArgumentsKw: kw}, nil
	case wamp.INTERRUPT:
		if len(args) != 2 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		options, err := asDict(args[1])
		if err != nil {
			return nil, err
		}
		return &wamp.Interrupt{Request: request, Options: options}, nil
	case wamp.YIELD:
		if len(args) < 2 {
			return nil, shapeErr(mt, len(args))
		}
		request, err := asID(args[0])
		if err != nil {
			return nil, err
		}
		options, err := asDict(args[1])
		if err != nil {
			return nil, err
		}
		a, kw, err := trailingArgs(args[2:])
		if err != nil {
			return nil, err
		}
		return &wamp.Yield{Request: request, Options: options, Arguments: a, ArgumentsKw: kw}, nil
	default:
		return nil, &DecodeError{Reason: fmt.Sprintf("unknown message type %d", mt)}
	}
}

func shapeErr(mt wamp.MessageType, n int) error {
	return &DecodeError{Reason: fmt.Sprintf("%s: wrong element count: %d", mt, n)}
}

// trailingArgs decodes the optional [args, kwargs] tail of a message,
// rejecting a tail longer than two elements.
func trailingArgs(tail []interface{}) (wamp.List, wamp.Dict, error) {
	switch len(tail) {
	case 0:
		return nil, nil, nil
	case 1:
		a, err := asList(tail[0])
		if err != nil {
			return nil, nil, err
		}
		return a, nil, nil
	case 2:
		a, err := asList(tail[0])
		if err != nil {
			return nil, nil, err
		}
		kw, err := asDict(tail[1])
		if err != nil {
			return nil, nil, err
		}
		return a, kw, nil
	default:
		return nil, nil, &DecodeError{Reason: fmt.Sprintf("too many trailing elements: %d", len(tail))}
	}
}

func asURI(v interface{}) (wamp.URI, error) {
	s, ok := v.(string)
	if !ok {
		return "", &DecodeError{Reason: "expected URI string"}
	}
	return wamp.URI(s), nil
}

func asDict(v interface{}) (wamp.Dict, error) {
	switch m := v.(type) {
	case wamp.Dict:
		return m, nil
	default:
		return nil, &DecodeError{Reason: "expected dict"}
	}
}

func asList(v interface{}) (wamp.List, error) {
	switch l := v.(type) {
	case wamp.List:
		return l, nil
	default:
		return nil, &DecodeError{Reason: "expected list"}
	}
}

func asID(v interface{}) (wamp.ID, error) {
	id, ok := wamp.AsID(v)
	if f, isFloat := v.(float64); isFloat && f != float64(id) {
		ok = false
	}
	if !ok {
		return 0, &DecodeError{Reason: "expected integer ID"}
	}
	return id, nil
}

func asInt(v interface{}) (int64, error) {
	n, ok := wamp.AsInt64(v)
	if f, isFloat := v.(float64); isFloat && f != float64(n) {
		ok = false
	}
	if !ok {
		return 0, &DecodeError{Reason: "expected integer"}
	}
	return n, nil
}

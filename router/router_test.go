package router

import (
	"fmt"
	"testing"
	"time"

	"github.com/ohyo-io/wampire/wamp"
)

const (
	testRealm       = wamp.URI("wampire.test.realm")
	testProcedure   = wamp.URI("wampire.test.endpoint")
	testProcedureWC = wamp.URI("wampire..endpoint")
)

func init() {
	DebugEnabled = true
}

// clientRoles announces every role this test suite exercises, so a realm
// configured to check Hello.Details.roles never rejects a test peer.
var clientRoles = wamp.Dict{
	"roles": wamp.Dict{
		"subscriber": wamp.Dict{
			"features": wamp.Dict{"publisher_identification": true},
		},
		"publisher": struct{}{},
		"callee":    struct{}{},
		"caller": wamp.Dict{
			"features": wamp.Dict{"call_timeout": true, "call_canceling": true},
		},
	},
	"authmethods": []string{"anonymous", "ticket"},
}

// newTestRouter returns a Router with one anonymous-auth realm already
// added, named testRealm, ready for handShake.
func newTestRouter() Router {
	const (
		autoRealm = false
		strictURI = false

		anonAuth      = true
		allowDisclose = false
	)
	r := NewRouter(autoRealm, strictURI)
	if err := r.AddRealm(testRealm, anonAuth, allowDisclose); err != nil {
		panic(err)
	}
	return r
}

const recvTimeout = time.Second

// recv waits up to recvTimeout for a message on peer, failing the test on
// timeout rather than blocking forever.
func recv(t *testing.T, peer wamp.Peer) wamp.Message {
	t.Helper()
	select {
	case msg := <-peer.Recv():
		return msg
	case <-time.After(recvTimeout):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

// recvNone asserts that peer stays silent for a short grace window, used to
// check negative cases (acknowledge=false, excluded subscribers, etc).
func recvNone(t *testing.T, peer wamp.Peer) {
	t.Helper()
	select {
	case msg := <-peer.Recv():
		t.Fatalf("expected no message, got %s", msg.MessageType())
	case <-time.After(150 * time.Millisecond):
	}
}

// handShake drives HELLO/WELCOME between client and server over r and
// returns the assigned session ID.
func handShake(r Router, client, server wamp.Peer) (wamp.ID, error) {
	client.Send(&wamp.Hello{Realm: testRealm, Details: clientRoles})
	if err := r.Attach(server); err != nil {
		return 0, err
	}
	msg := <-client.Recv()
	welcome, ok := msg.(*wamp.Welcome)
	if !ok {
		return 0, fmt.Errorf("expected %s, got %s", wamp.WELCOME, msg.MessageType())
	}
	return welcome.ID, nil
}

// connectPeer links a fresh peer pair and completes its handshake against r,
// failing the test on error.
func connectPeer(t *testing.T, r Router) (wamp.Peer, wamp.ID) {
	t.Helper()
	client, server := LinkedPeers()
	sid, err := handShake(r, client, server)
	if err != nil {
		t.Fatal(err)
	}
	return client, sid
}

// registerProcedure connects a new callee and registers procedure on it,
// returning the callee peer and its registration ID.
func registerProcedure(t *testing.T, r Router, procedure wamp.URI, options wamp.Dict) (wamp.Peer, wamp.ID) {
	t.Helper()
	callee, _ := connectPeer(t, r)
	reqID := wamp.GlobalID()
	callee.Send(&wamp.Register{Request: reqID, Procedure: procedure, Options: options})
	reg, ok := recv(t, callee).(*wamp.Registered)
	if !ok || reg.Request != reqID {
		t.Fatal("expected REGISTERED for request", reqID)
	}
	return callee, reg.Registration
}

// callAndExpectInvocation sends CALL(procedure) from caller and returns the
// request ID, without waiting on the callee side (used where the test needs
// to interleave multiple callees).
func callAndExpectInvocation(t *testing.T, caller wamp.Peer, procedure wamp.URI) wamp.ID {
	t.Helper()
	callID := wamp.GlobalID()
	caller.Send(&wamp.Call{Request: callID, Procedure: procedure})
	return callID
}

func TestHandshake(t *testing.T) {
	r := newTestRouter()
	defer r.Close()

	client, _ := connectPeer(t, r)

	client.Send(&wamp.Goodbye{})
	msg := recv(t, client)
	if _, ok := msg.(*wamp.Goodbye); !ok {
		t.Fatal("expected GOODBYE, received:", msg.MessageType())
	}
}

func TestHandshakeUnknownRealm(t *testing.T) {
	r := NewRouter(false, false)
	defer r.Close()

	client, server := LinkedPeers()
	client.Send(&wamp.Hello{Realm: "does.not.exist"})
	if err := r.Attach(server); err == nil {
		t.Fatal("expected Attach to reject an unknown realm")
	}

	if n := len(client.Recv()); n != 1 {
		t.Fatalf("expected exactly one handshake reply, got %d", n)
	}
	if msg := <-client.Recv(); msg.MessageType() != wamp.ABORT {
		t.Fatal("expected ABORT after rejected handshake")
	}
}

func TestHandshakeAutoRealm(t *testing.T) {
	r := NewRouter(true, false)
	defer r.Close()

	client, server := LinkedPeers()
	client.Send(&wamp.Hello{Realm: "fresh.auto.realm", Details: clientRoles})
	if err := r.Attach(server); err != nil {
		t.Fatal(err)
	}
	if msg := recv(t, client); msg.MessageType() != wamp.WELCOME {
		t.Fatal("expected WELCOME for auto-created realm, got", msg.MessageType())
	}
}

func TestPubSubDelivery(t *testing.T) {
	const topic = wamp.URI("some.uri")

	r := newTestRouter()
	defer r.Close()

	sub, _ := connectPeer(t, r)
	sub.Send(&wamp.Subscribe{Request: wamp.GlobalID(), Topic: topic})
	subMsg, ok := recv(t, sub).(*wamp.Subscribed)
	if !ok {
		t.Fatal("expected SUBSCRIBED, got", subMsg)
	}

	pub, _ := connectPeer(t, r)
	pub.Send(&wamp.Publish{Request: wamp.GlobalID(), Topic: topic})

	event, ok := recv(t, sub).(*wamp.Event)
	if !ok {
		t.Fatal("expected EVENT")
	}
	if event.Subscription != subMsg.Subscription {
		t.Fatal("wrong subscription ID on delivered EVENT")
	}
}

func TestPublishAcknowledgeOptions(t *testing.T) {
	cases := []struct {
		name    string
		options wamp.Dict
		wantAck bool
	}{
		{"explicit true", wamp.Dict{"acknowledge": true}, true},
		{"explicit false", wamp.Dict{"acknowledge": false}, false},
		{"default", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter()
			defer r.Close()

			client, _ := connectPeer(t, r)
			id := wamp.GlobalID()
			client.Send(&wamp.Publish{Request: id, Options: tc.options, Topic: "some.uri"})

			if tc.wantAck {
				pub, ok := recv(t, client).(*wamp.Published)
				if !ok || pub.Request != id {
					t.Fatal("expected PUBLISHED for acknowledge=true")
				}
				return
			}
			recvNone(t, client)
		})
	}
}

func TestPublishExclude(t *testing.T) {
	const topic = wamp.URI("filter.test.topic")

	r := newTestRouter()
	defer r.Close()

	subA, sessA := connectPeer(t, r)
	subB, _ := connectPeer(t, r)
	for _, p := range []wamp.Peer{subA, subB} {
		p.Send(&wamp.Subscribe{Request: wamp.GlobalID(), Topic: topic})
		if _, ok := recv(t, p).(*wamp.Subscribed); !ok {
			t.Fatal("expected SUBSCRIBED")
		}
	}

	pub, _ := connectPeer(t, r)
	pub.Send(&wamp.Publish{
		Request: wamp.GlobalID(),
		Topic:   topic,
		Options: wamp.Dict{"exclude": []interface{}{sessA}},
	})

	if _, ok := recv(t, subB).(*wamp.Event); !ok {
		t.Fatal("expected EVENT on non-excluded subscriber")
	}
	recvNone(t, subA)
}

func TestWildcardSubscriptionMatch(t *testing.T) {
	r := newTestRouter()
	defer r.Close()

	sub, _ := connectPeer(t, r)
	sub.Send(&wamp.Subscribe{
		Request: wamp.GlobalID(),
		Topic:   testProcedureWC,
		Options: wamp.Dict{"match": "wildcard"},
	})
	if msg := recv(t, sub); msg.MessageType() != wamp.SUBSCRIBED {
		t.Fatal("expected SUBSCRIBED, got", msg.MessageType())
	}

	pub, _ := connectPeer(t, r)

	// testProcedureWC is "wampire..endpoint": matches one concrete middle
	// segment, not a topic with a different segment count.
	pub.Send(&wamp.Publish{Request: wamp.GlobalID(), Topic: "wampire.anything.endpoint"})
	if _, ok := recv(t, sub).(*wamp.Event); !ok {
		t.Fatal("expected matching EVENT")
	}

	pub.Send(&wamp.Publish{Request: wamp.GlobalID(), Topic: "wampire.anything.else.endpoint"})
	recvNone(t, sub)
}

func TestRouterCall(t *testing.T) {
	r := newTestRouter()
	defer r.Close()

	callee, regID := registerProcedure(t, r, testProcedure, nil)
	caller, _ := connectPeer(t, r)

	callID := wamp.GlobalID()
	caller.Send(&wamp.Call{Request: callID, Procedure: testProcedure})

	inv, ok := recv(t, callee).(*wamp.Invocation)
	if !ok {
		t.Fatal("expected INVOCATION")
	}
	if inv.Registration != regID {
		t.Fatal("wrong registration ID on INVOCATION")
	}

	callee.Send(&wamp.Yield{Request: inv.Request})

	result, ok := recv(t, caller).(*wamp.Result)
	if !ok || result.Request != callID {
		t.Fatal("expected RESULT matching the original CALL request ID")
	}
}

// TestProgressiveResult exercises a YIELD stream: intermediate YIELDs
// carrying Options["progress"]=true against a CALL that set
// Options["receive_progress"]=true deliver intermediate RESULTs without
// closing the invocation, and only a final plain YIELD does.
func TestProgressiveResult(t *testing.T) {
	r := newTestRouter()
	defer r.Close()

	callee, _ := registerProcedure(t, r, testProcedure, nil)
	caller, _ := connectPeer(t, r)

	callID := wamp.GlobalID()
	caller.Send(&wamp.Call{
		Request:   callID,
		Procedure: testProcedure,
		Options:   wamp.Dict{"receive_progress": true},
	})

	inv, ok := recv(t, callee).(*wamp.Invocation)
	if !ok {
		t.Fatal("expected INVOCATION")
	}

	callee.Send(&wamp.Yield{
		Request:   inv.Request,
		Options:   wamp.Dict{"progress": true},
		Arguments: wamp.List{"partial-1"},
	})
	progress1, ok := recv(t, caller).(*wamp.Result)
	if !ok || !wamp.OptionBool(progress1.Details, "progress", false) {
		t.Fatal("expected a progress RESULT")
	}
	if progress1.Request != callID {
		t.Fatal("progress RESULT has wrong request ID")
	}

	callee.Send(&wamp.Yield{
		Request:   inv.Request,
		Options:   wamp.Dict{"progress": true},
		Arguments: wamp.List{"partial-2"},
	})
	progress2, ok := recv(t, caller).(*wamp.Result)
	if !ok || !wamp.OptionBool(progress2.Details, "progress", false) {
		t.Fatal("expected a second progress RESULT")
	}

	// Final YIELD, with no progress option, closes the invocation.
	callee.Send(&wamp.Yield{Request: inv.Request, Arguments: wamp.List{"final"}})
	final, ok := recv(t, caller).(*wamp.Result)
	if !ok || wamp.OptionBool(final.Details, "progress", false) {
		t.Fatal("expected a final, non-progress RESULT")
	}

	// The invocation is gone now: a stray trailing YIELD is ignored rather
	// than producing a second final RESULT.
	callee.Send(&wamp.Yield{Request: inv.Request, Arguments: wamp.List{"late"}})
	recvNone(t, caller)
}

// TestCancelModes exercises all three CANCEL modes against spec.md §4.5
// item 6: INTERRUPT reaches the callee for skip and kill, never for
// killnowait, and only skip/killnowait resolve the caller immediately.
func TestCancelModes(t *testing.T) {
	cases := []struct {
		mode             string
		wantInterrupt    bool
		wantImmediateErr bool
	}{
		{"skip", true, true},
		{"kill", true, false},
		{"killnowait", false, true},
	}

	for _, tc := range cases {
		t.Run(tc.mode, func(t *testing.T) {
			r := newTestRouter()
			defer r.Close()

			callee, _ := registerProcedure(t, r, testProcedure, nil)
			caller, _ := connectPeer(t, r)

			callID := wamp.GlobalID()
			caller.Send(&wamp.Call{Request: callID, Procedure: testProcedure})
			inv, ok := recv(t, callee).(*wamp.Invocation)
			if !ok {
				t.Fatal("expected INVOCATION")
			}

			caller.Send(&wamp.Cancel{Request: callID, Options: wamp.Dict{"mode": tc.mode}})

			if tc.wantInterrupt {
				if _, ok := recv(t, callee).(*wamp.Interrupt); !ok {
					t.Fatalf("mode %s: expected INTERRUPT", tc.mode)
				}
			} else {
				recvNone(t, callee)
			}

			if tc.wantImmediateErr {
				errMsg, ok := recv(t, caller).(*wamp.Error)
				if !ok || errMsg.Request != callID || errMsg.Error != wamp.ErrCanceled {
					t.Fatalf("mode %s: expected immediate ERROR(canceled)", tc.mode)
				}
				return
			}

			// kill: the caller must wait for the callee's own answer.
			recvNone(t, caller)
			callee.Send(&wamp.Error{Type: wamp.INVOCATION, Request: inv.Request, Error: wamp.ErrCanceled})
			errMsg, ok := recv(t, caller).(*wamp.Error)
			if !ok || errMsg.Request != callID {
				t.Fatalf("mode %s: expected deferred ERROR after callee answered", tc.mode)
			}
		})
	}
}

func TestSessionMetaProcedures(t *testing.T) {
	r := newTestRouter()
	defer r.Close()

	caller, sessID := connectPeer(t, r)

	callCount := func() int {
		callID := wamp.GlobalID()
		caller.Send(&wamp.Call{Request: callID, Procedure: wamp.MetaProcSessionCount})
		result, ok := recv(t, caller).(*wamp.Result)
		if !ok || result.Request != callID {
			t.Fatal("expected RESULT for session count")
		}
		count, ok := result.Arguments[0].(int)
		if !ok {
			t.Fatal("expected int argument")
		}
		return count
	}
	if n := callCount(); n != 1 {
		t.Fatalf("expected session count 1, got %d", n)
	}

	callID := wamp.GlobalID()
	caller.Send(&wamp.Call{Request: callID, Procedure: wamp.MetaProcSessionList})
	result, ok := recv(t, caller).(*wamp.Result)
	if !ok || result.Request != callID {
		t.Fatal("expected RESULT for session list")
	}
	ids, ok := result.Arguments[0].([]wamp.ID)
	if !ok || len(ids) != 1 || ids[0] != sessID {
		t.Fatal("expected session list containing exactly this session")
	}

	callID = wamp.GlobalID()
	caller.Send(&wamp.Call{
		Request:   callID,
		Procedure: wamp.MetaProcSessionGet,
		Arguments: wamp.List{wamp.ID(123456789)},
	})
	errRsp, ok := recv(t, caller).(*wamp.Error)
	if !ok || errRsp.Error != wamp.ErrNoSuchSession {
		t.Fatal("expected no_such_session for an unknown session ID")
	}

	callID = wamp.GlobalID()
	caller.Send(&wamp.Call{
		Request:   callID,
		Procedure: wamp.MetaProcSessionGet,
		Arguments: wamp.List{sessID},
	})
	result, ok = recv(t, caller).(*wamp.Result)
	if !ok || result.Request != callID {
		t.Fatal("expected RESULT for session get")
	}
	dict, ok := result.Arguments[0].(wamp.Dict)
	if !ok {
		t.Fatal("expected dict argument")
	}
	if sid := wamp.ID(wamp.OptionInt64(dict, "session")); sid != sessID {
		t.Fatal("wrong session ID in session get result")
	}
}

func TestRegistrationMetaProcedures(t *testing.T) {
	r := newTestRouter()
	defer r.Close()

	caller, _ := connectPeer(t, r)

	regCounts := func() (exact, prefix, wildcard int) {
		callID := wamp.GlobalID()
		caller.Send(&wamp.Call{Request: callID, Procedure: wamp.MetaProcRegList})
		result, ok := recv(t, caller).(*wamp.Result)
		if !ok || result.Request != callID {
			t.Fatal("expected RESULT for registration list")
		}
		dict, ok := result.Arguments[0].(wamp.Dict)
		if !ok {
			t.Fatal("expected dict argument")
		}
		return len(dict["exact"].([]wamp.ID)), len(dict["prefix"].([]wamp.ID)), len(dict["wildcard"].([]wamp.ID))
	}
	exactBefore, prefixBefore, wildcardBefore := regCounts()

	callee, regID := registerProcedure(t, r, testProcedure, nil)

	callee.Send(&wamp.Register{
		Request:   wamp.GlobalID(),
		Procedure: testProcedureWC,
		Options:   wamp.Dict{"match": "wildcard"},
	})
	if _, ok := recv(t, callee).(*wamp.Registered); !ok {
		t.Fatal("expected REGISTERED for the wildcard procedure")
	}

	exactAfter, prefixAfter, wildcardAfter := regCounts()
	if exactAfter != exactBefore+1 {
		t.Fatal("expected one additional exact registration")
	}
	if prefixAfter != prefixBefore {
		t.Fatal("prefix registrations should be unaffected")
	}
	if wildcardAfter != wildcardBefore+1 {
		t.Fatal("expected one additional wildcard registration")
	}

	callID := wamp.GlobalID()
	caller.Send(&wamp.Call{
		Request:   callID,
		Procedure: wamp.MetaProcRegLookup,
		Arguments: wamp.List{testProcedure},
	})
	result, ok := recv(t, caller).(*wamp.Result)
	if !ok || result.Request != callID {
		t.Fatal("expected RESULT for registration lookup")
	}
	if regID2, ok := result.Arguments[0].(wamp.ID); !ok || regID2 != regID {
		t.Fatal("lookup returned the wrong registration ID")
	}

	callID = wamp.GlobalID()
	caller.Send(&wamp.Call{
		Request:   callID,
		Procedure: wamp.MetaProcRegMatch,
		Arguments: wamp.List{testProcedure},
	})
	result, ok = recv(t, caller).(*wamp.Result)
	if !ok || result.Request != callID {
		t.Fatal("expected RESULT for registration match")
	}
	if regID2, ok := wamp.AsID(result.Arguments[0]); !ok || regID2 != regID {
		t.Fatal("match returned the wrong registration ID")
	}

	callID = wamp.GlobalID()
	caller.Send(&wamp.Call{
		Request:   callID,
		Procedure: wamp.MetaProcRegGet,
		Arguments: wamp.List{regID},
	})
	result, ok = recv(t, caller).(*wamp.Result)
	if !ok || result.Request != callID {
		t.Fatal("expected RESULT for registration get")
	}
	dict, ok := result.Arguments[0].(wamp.Dict)
	if !ok {
		t.Fatal("expected dict argument")
	}
	if wamp.OptionID(dict, "id") != regID {
		t.Fatal("registration get returned the wrong ID")
	}
	if uri := wamp.OptionURI(dict, "uri"); uri != testProcedure {
		t.Fatal("registration get returned the wrong URI:", uri)
	}

	callID = wamp.GlobalID()
	caller.Send(&wamp.Call{
		Request:   callID,
		Procedure: wamp.MetaProcRegListCallees,
		Arguments: wamp.List{regID},
	})
	result, ok = recv(t, caller).(*wamp.Result)
	if !ok || result.Request != callID {
		t.Fatal("expected RESULT for registration list_callees")
	}
	idList, ok := result.Arguments[0].([]wamp.ID)
	if !ok || len(idList) != 1 {
		t.Fatal("expected exactly one callee")
	}

	callID = wamp.GlobalID()
	caller.Send(&wamp.Call{
		Request:   callID,
		Procedure: wamp.MetaProcRegCountCallees,
		Arguments: wamp.List{regID},
	})
	result, ok = recv(t, caller).(*wamp.Result)
	if !ok || result.Request != callID {
		t.Fatal("expected RESULT for registration count_callees")
	}
	if count, ok := wamp.AsInt64(result.Arguments[0]); !ok || count != 1 {
		t.Fatal("expected a callee count of 1")
	}
}

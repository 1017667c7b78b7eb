package router

import (
	"errors"

	"github.com/ohyo-io/wampire/auth"
	"github.com/ohyo-io/wampire/wamp"
)

// realm is the single logical actor owning one realm's tables and live
// sessions (spec.md §4.7, §5). Every mutating operation runs as a closure
// drained from actionChan by run(), so there is no read-modify-write
// interleaving across operations.
type realm struct {
	config *RealmConfig

	actionChan chan func()
	closeChan  chan struct{}
	closed     bool

	sessions map[wamp.ID]*Session
	broker   *broker
	dealer   *dealer
}

// NewRealm constructs a realm from config. The caller is responsible for
// starting realm.run() in its own goroutine.
func NewRealm(config *RealmConfig) *realm {
	return &realm{
		config:     config,
		actionChan: make(chan func()),
		closeChan:  make(chan struct{}),
		sessions:   map[wamp.ID]*Session{},
		broker:     newBroker(),
		dealer:     newDealer(),
	}
}

// run drains the realm's action queue until close() signals shutdown.
func (r *realm) run() {
	for {
		select {
		case action := <-r.actionChan:
			action()
		case <-r.closeChan:
			return
		}
	}
}

// close tears down every live session and stops the realm's actor loop.
func (r *realm) close() {
	sync := make(chan struct{})
	r.actionChan <- func() {
		r.closed = true
		for _, sess := range r.sessions {
			sess.Peer.Close()
		}
		close(sync)
	}
	<-sync
	close(r.closeChan)
}

// authenticator resolves the Authenticator for one of the client's
// requested authmethods, preferring the first the realm and client agree
// on. Anonymous is synthesized when AnonymousAuth is enabled and the
// client requests it, without needing an explicit entry in
// config.Authenticators.
func (r *realm) authenticator(methods []string) (auth.Authenticator, error) {
	for _, m := range methods {
		if m == "anonymous" && r.config.AnonymousAuth {
			return &auth.Anonymous{}, nil
		}
		if a, ok := r.config.Authenticators[m]; ok {
			return a, nil
		}
	}
	return nil, errors.New("no acceptable authmethod")
}

// authClient runs the HELLO authentication exchange for one connecting
// client: Challenge, optionally CHALLENGE/AUTHENTICATE over the wire, then
// Authenticate. It returns the Welcome message to send (ID left zero for
// the caller to fill in), per spec.md §4.6's awaiting_hello/authenticating
// states.
func (r *realm) authClient(client wamp.Peer, details wamp.Dict) (*wamp.Welcome, error) {
	methods := authMethodList(details)
	authenticator, err := r.authenticator(methods)
	if err != nil {
		return nil, err
	}

	challengeExtra, err := authenticator.Challenge(details)
	if err != nil {
		return nil, err
	}

	var signature string
	authExtra := details
	if challengeExtra != nil {
		if err := client.Send(&wamp.Challenge{AuthMethod: authenticator.AuthMethod(), Extra: challengeExtra}); err != nil {
			return nil, err
		}
		msg, err := wamp.RecvTimeout(client, helloTimeout)
		if err != nil {
			return nil, err
		}
		authMsg, ok := msg.(*wamp.Authenticate)
		if !ok {
			return nil, errors.New("expected AUTHENTICATE, got " + msg.MessageType().String())
		}
		signature = authMsg.Signature
		authExtra = wamp.NormalizeDict(authMsg.Extra)
		if wamp.OptionString(authExtra, "authid") == "" {
			if authid := wamp.OptionString(details, "authid"); authid != "" {
				authExtra["authid"] = authid
			}
		}
	}

	welcomeDetails, err := authenticator.Authenticate(signature, authExtra, challengeExtra)
	if err != nil {
		return nil, err
	}
	if welcomeDetails == nil {
		welcomeDetails = wamp.Dict{}
	}
	welcomeDetails["roles"] = details["roles"]
	return &wamp.Welcome{Details: welcomeDetails}, nil
}

func authMethodList(details wamp.Dict) []string {
	v, ok := details["authmethods"]
	if !ok {
		return []string{"anonymous"}
	}
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, e := range list {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{"anonymous"}
	}
}

// handleSession admits sess into the realm's session registry and starts
// its inbound dispatch loop. Returns an error if the realm is closing.
func (r *realm) handleSession(sess *Session) error {
	sync := make(chan error, 1)
	select {
	case r.actionChan <- func() {
		if r.closed {
			sync <- errors.New("realm is closed")
			return
		}
		r.sessions[sess.ID] = sess
		sync <- nil
		r.emitMetaEvent(wamp.MetaEventSessionOnJoin, wamp.List{r.sessionMetaDict(sess)})
	}:
	case <-r.closeChan:
		return errors.New("realm is closed")
	}
	if err := <-sync; err != nil {
		return err
	}
	go r.sessionLoop(sess)
	return nil
}

// sessionLoop feeds every inbound message from sess into the realm actor,
// and posts a leave() once the peer disconnects. Every send to actionChan
// races against closeChan so that a session disconnecting concurrently
// with realm.close() never blocks forever trying to reach an actor loop
// that has already returned.
func (r *realm) sessionLoop(sess *Session) {
	for msg := range sess.Peer.Recv() {
		m := msg
		select {
		case r.actionChan <- func() { r.route(sess, m) }:
		case <-r.closeChan:
			return
		}
	}
	select {
	case r.actionChan <- func() { r.leave(sess) }:
	case <-r.closeChan:
	}
}

// leave removes sess from the realm, reclaiming its subscriptions and
// registrations and resolving any invocations it was party to
// (spec.md §3 Session invariant 3, §4.5 items 8-9).
func (r *realm) leave(sess *Session) {
	if _, ok := r.sessions[sess.ID]; !ok {
		return
	}
	delete(r.sessions, sess.ID)

	r.broker.removeSession(sess.ID)

	// This session was a callee: surface canceled to each pending caller.
	for key, inv := range r.dealer.pendingInvocations {
		if key.session != sess.ID {
			continue
		}
		r.stopTimer(inv)
		if !inv.answered {
			if caller, ok := r.sessions[inv.callerSession]; ok {
				caller.Peer.Send(&wamp.Error{Type: wamp.CALL, Request: inv.callerRequest, Details: wamp.Dict{}, Error: wamp.ErrCanceled})
			}
		}
		delete(r.dealer.pendingInvocations, key)
		delete(r.dealer.pendingCalls, callKey{inv.callerSession, inv.callerRequest})
	}

	// This session was a caller: interrupt the callee and drop the record.
	for key, inv := range r.dealer.pendingCalls {
		if key.session != sess.ID {
			continue
		}
		r.stopTimer(inv)
		if callee, ok := r.sessions[inv.calleeSession]; ok {
			callee.Peer.Send(&wamp.Interrupt{Request: inv.invocationID, Options: wamp.Dict{"mode": string(wamp.CancelModeKillNoWait)}})
		}
		delete(r.dealer.pendingCalls, key)
		delete(r.dealer.pendingInvocations, invokeKey{inv.calleeSession, inv.invocationID})
	}

	r.dealer.removeSession(sess.ID)

	r.emitMetaEvent(wamp.MetaEventSessionOnLeave, wamp.List{sess.ID})
}

// route dispatches one inbound message from sess. Unrecognized or
// out-of-sequence messages are a protocol violation (spec.md §7 kind 1).
func (r *realm) route(sess *Session, msg wamp.Message) {
	switch m := msg.(type) {
	case *wamp.Goodbye:
		r.handleGoodbye(sess, m)
	case *wamp.Publish:
		r.handlePublish(sess, m)
	case *wamp.Subscribe:
		r.handleSubscribe(sess, m)
	case *wamp.Unsubscribe:
		r.handleUnsubscribe(sess, m)
	case *wamp.Register:
		r.handleRegister(sess, m)
	case *wamp.Unregister:
		r.handleUnregister(sess, m)
	case *wamp.Call:
		r.handleCall(sess, m)
	case *wamp.Cancel:
		r.handleCancel(sess, m)
	case *wamp.Yield:
		r.handleYield(sess, m)
	case *wamp.Error:
		if m.Type == wamp.INVOCATION {
			r.handleInvocationError(sess, m)
		}
	default:
		sess.Peer.Send(&wamp.Abort{Details: wamp.Dict{}, Reason: wamp.ErrProtocolViolation})
		sess.Peer.Close()
	}
}

func (r *realm) handleGoodbye(sess *Session, msg *wamp.Goodbye) {
	sess.Peer.Send(&wamp.Goodbye{Details: wamp.Dict{}, Reason: wamp.ErrGoodbyeAndOut})
	sess.Peer.Close()
}

func (r *realm) stopTimer(inv *invocation) {
	if inv.timer != nil {
		inv.timer.Stop()
	}
}

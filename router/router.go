// Package router implements a WAMP v2 Basic Profile router with the
// Advanced Profile subset described by SPEC_FULL.md: pattern-based
// registration/subscription, shared registrations, call cancellation and
// timeout, caller/publisher identification, and the session/subscription/
// registration meta APIs.
package router

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ohyo-io/wampire/auth"
	"github.com/ohyo-io/wampire/wamp"
)

// helloTimeout bounds how long Attach waits for a client's HELLO, and how
// long a realm's authClient waits for AUTHENTICATE after sending CHALLENGE.
const helloTimeout = 5 * time.Second

// DebugEnabled turns on verbose per-message logging, toggled by tests and
// by the wamprouter CLI's -v flag.
var DebugEnabled bool

func debugf(format string, args ...interface{}) {
	if DebugEnabled {
		log.Printf("router: "+format, args...)
	}
}

// LinkedPeers returns two in-memory Peers wired to each other, for tests
// and for the local diagnostic client that drives the meta API without a
// network round trip.
func LinkedPeers() (wamp.Peer, wamp.Peer) { return wamp.LinkedPeers() }

// Router admits WAMP sessions, holding one realm per distinct URI
// (spec.md §1, §4.7).
type Router interface {
	// AddRealm registers a realm under uri with the given baseline
	// authentication policy. It is an error to add a realm twice.
	AddRealm(uri wamp.URI, anonymousAuth, allowDisclose bool) error
	// SetRealmAuthenticator installs an additional Authenticator under
	// method for an already-added realm, for richer schemes like
	// WAMP-Ticket beyond the anonymousAuth/allowDisclose baseline.
	SetRealmAuthenticator(realm wamp.URI, method string, a auth.Authenticator) error
	// Attach admits client as a new session: it reads client's HELLO,
	// authenticates it against the requested realm, and replies with
	// WELCOME or ABORT.
	Attach(client wamp.Peer) error
	// Close tears down every realm and every session attached to it.
	Close()
}

type router struct {
	autoRealm bool
	strictURI bool

	mu     sync.Mutex
	realms map[wamp.URI]*realm
}

// NewRouter constructs a Router. When autoRealm is true, Attach creates a
// realm on first use (anonymous auth on, disclosure off) instead of
// rejecting HELLO for an unknown realm (spec.md §4.7's realm lifecycle).
// strictURI is the StrictURI policy of every realm this router adds.
func NewRouter(autoRealm, strictURI bool) Router {
	return &router{
		autoRealm: autoRealm,
		strictURI: strictURI,
		realms:    map[wamp.URI]*realm{},
	}
}

func (rt *router) AddRealm(uri wamp.URI, anonymousAuth, allowDisclose bool) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, exists := rt.realms[uri]; exists {
		return errors.New("realm already exists: " + string(uri))
	}
	cfg := &RealmConfig{
		URI:            uri,
		StrictURI:      rt.strictURI,
		AnonymousAuth:  anonymousAuth,
		AllowDisclose:  allowDisclose,
		Authenticators: map[string]auth.Authenticator{},
	}
	rm := NewRealm(cfg)
	rt.realms[uri] = rm
	go rm.run()
	return nil
}

func (rt *router) SetRealmAuthenticator(realmURI wamp.URI, method string, a auth.Authenticator) error {
	rt.mu.Lock()
	rm, ok := rt.realms[realmURI]
	rt.mu.Unlock()
	if !ok {
		return errors.New("no such realm: " + string(realmURI))
	}
	rm.config.Authenticators[method] = a
	return nil
}

// Attach implements the HELLO/WELCOME/ABORT handshake of spec.md §4.6's
// awaiting_hello and authenticating states, then hands the new Session to
// its realm.
func (rt *router) Attach(client wamp.Peer) error {
	msg, err := wamp.RecvTimeout(client, helloTimeout)
	if err != nil {
		client.Close()
		return err
	}
	hello, ok := msg.(*wamp.Hello)
	if !ok {
		client.Send(&wamp.Abort{Details: wamp.Dict{}, Reason: wamp.ErrProtocolViolation})
		client.Close()
		return errors.New("expected HELLO, got " + msg.MessageType().String())
	}

	rt.mu.Lock()
	rm, ok := rt.realms[hello.Realm]
	rt.mu.Unlock()
	if !ok {
		if rt.autoRealm {
			// AddRealm's "already exists" error is expected and ignored here:
			// another Attach racing on the same unknown realm may have just
			// created it, in which case the lookup below finds it.
			rt.AddRealm(hello.Realm, true, false)
			rt.mu.Lock()
			rm, ok = rt.realms[hello.Realm]
			rt.mu.Unlock()
		}
		if !ok {
			client.Send(&wamp.Abort{Details: wamp.Dict{}, Reason: wamp.ErrNoSuchRealm})
			client.Close()
			return errors.New("no such realm: " + string(hello.Realm))
		}
	}

	details := wamp.NormalizeDict(hello.Details)
	welcome, err := rm.authClient(client, details)
	if err != nil {
		client.Send(&wamp.Abort{Details: wamp.Dict{}, Reason: wamp.ErrAuthenticationFailed})
		client.Close()
		return err
	}

	sess := &Session{
		Peer:     client,
		ID:       wamp.GlobalID(),
		Realm:    hello.Realm,
		Details:  welcome.Details,
		JoinTime: time.Now().UnixNano(),
	}
	welcome.ID = sess.ID

	if err := rm.handleSession(sess); err != nil {
		client.Send(&wamp.Abort{Details: wamp.Dict{}, Reason: wamp.ErrSystemShutdown})
		client.Close()
		return err
	}

	debugf("session %d joined realm %s", sess.ID, hello.Realm)
	return client.Send(welcome)
}

func (rt *router) Close() {
	rt.mu.Lock()
	realms := make([]*realm, 0, len(rt.realms))
	for _, rm := range rt.realms {
		realms = append(realms, rm)
	}
	rt.mu.Unlock()
	for _, rm := range realms {
		rm.close()
	}
}

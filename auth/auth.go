// Package auth implements the router-side half of WAMP authentication
// methods: computing challenges and verifying the client's response before
// a session is allowed to proceed from HELLO to WELCOME.
package auth

import "github.com/ohyo-io/wampire/wamp"

// Authenticator is the router-side half of one WAMP authentication method.
// Challenge inspects the client's Hello.Details and either returns nil (no
// challenge needed, e.g. anonymous) or a Challenge extra dict to send.
// Authenticate verifies the client's response and returns the Welcome
// details to merge into the session (authid, authrole, authmethod,
// authprovider), or an error if the credentials are rejected.
type Authenticator interface {
	AuthMethod() string
	Challenge(details wamp.Dict) (wamp.Dict, error)
	Authenticate(signature string, extra, challengeExtra wamp.Dict) (wamp.Dict, error)
}

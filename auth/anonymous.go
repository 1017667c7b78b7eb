package auth

import "github.com/ohyo-io/wampire/wamp"

// Anonymous implements the "anonymous" WAMP authentication method: no
// challenge is issued and every HELLO is accepted with authrole "anonymous".
// This is the teacher's default when a client's Hello.Details omits
// "authmethods" entirely.
type Anonymous struct {
	// AuthRole is assigned to every anonymously authenticated session.
	// Defaults to "anonymous" if empty.
	AuthRole string
}

func (a *Anonymous) AuthMethod() string { return "anonymous" }

func (a *Anonymous) Challenge(details wamp.Dict) (wamp.Dict, error) {
	return nil, nil
}

func (a *Anonymous) Authenticate(signature string, extra, challengeExtra wamp.Dict) (wamp.Dict, error) {
	role := a.AuthRole
	if role == "" {
		role = "anonymous"
	}
	return wamp.Dict{
		"authmethod": "anonymous",
		"authrole":   role,
	}, nil
}

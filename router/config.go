package router

import (
	"github.com/ohyo-io/wampire/auth"
	"github.com/ohyo-io/wampire/wamp"
)

// RealmConfig holds the settings a realm is created with. AddRealm builds
// one of these from its positional bool arguments (matching the teacher's
// simpler two-bool AddRealm signature); SetRealmAuthenticator lets callers
// register additional WAMP authentication methods (e.g. ticket) after the
// fact, for realms that need more than anonymous auth.
type RealmConfig struct {
	URI           wamp.URI
	StrictURI     bool
	AnonymousAuth bool
	AllowDisclose bool

	// Authenticators maps an authmethod name ("ticket", ...) to the
	// Authenticator that handles it. "anonymous" is synthesized
	// automatically when AnonymousAuth is true and need not be listed here.
	Authenticators map[string]auth.Authenticator
}

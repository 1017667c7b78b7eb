package router

import "github.com/ohyo-io/wampire/wamp"

// Session is the router's per-connection state: a Peer plus the identity
// and bookkeeping a realm needs to route to and clean up after it
// (spec.md §3 "Session"). Sessions never touch realm tables directly;
// the realm owns the only reverse lookups (spec.md §9 "Cyclic ownership").
type Session struct {
	wamp.Peer

	ID       wamp.ID
	Realm    wamp.URI
	Details  wamp.Dict
	JoinTime int64
}

// RolesAnnounced returns the role names the client announced in
// Hello.Details.roles (publisher, subscriber, caller, callee).
func (s *Session) RolesAnnounced() []string {
	rolesVal, err := wamp.DictValue(s.Details, []string{"roles"})
	if err != nil {
		return nil
	}
	roles, ok := rolesVal.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(roles))
	for name := range roles {
		out = append(out, name)
	}
	return out
}

// AuthID returns the authenticated identity assigned to the session, or ""
// if anonymous/unset.
func (s *Session) AuthID() string { return wamp.OptionString(s.Details, "authid") }

// AuthRole returns the authrole assigned to the session.
func (s *Session) AuthRole() string { return wamp.OptionString(s.Details, "authrole") }

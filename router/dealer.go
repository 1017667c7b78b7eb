package router

import (
	"errors"
	"math/rand"
	"time"

	"github.com/ohyo-io/wampire/wamp"
)

// invokePolicy selects which callee a shared registration dispatches to.
type invokePolicy string

const (
	policySingle     invokePolicy = "single"
	policyRoundRobin invokePolicy = "roundrobin"
	policyRandom     invokePolicy = "random"
	policyFirst      invokePolicy = "first"
	policyLast       invokePolicy = "last"
)

func policyFromOptions(opts wamp.Dict) invokePolicy {
	switch invokePolicy(wamp.OptionString(opts, "invoke")) {
	case policyRoundRobin, policyRandom, policyFirst, policyLast:
		return invokePolicy(wamp.OptionString(opts, "invoke"))
	default:
		return policySingle
	}
}

// registration is one (procedure, kind) entry, with one or more callees
// when shared (spec.md §4.4).
type registration struct {
	id        wamp.ID
	procedure wamp.URI
	kind      wamp.MatchKind
	policy    invokePolicy
	callees   []wamp.ID
	rrNext    int
}

func (r *registration) addCallee(sessID wamp.ID) { r.callees = append(r.callees, sessID) }

func (r *registration) removeCallee(sessID wamp.ID) {
	for i, id := range r.callees {
		if id == sessID {
			r.callees = append(r.callees[:i], r.callees[i+1:]...)
			if r.rrNext > i {
				r.rrNext--
			}
			return
		}
	}
}

func (r *registration) empty() bool { return len(r.callees) == 0 }

// pickCallee selects the next callee session per the registration's
// invocation policy.
func (r *registration) pickCallee() wamp.ID {
	switch r.policy {
	case policyRoundRobin:
		sess := r.callees[r.rrNext%len(r.callees)]
		r.rrNext = (r.rrNext + 1) % len(r.callees)
		return sess
	case policyRandom:
		return r.callees[rand.Intn(len(r.callees))]
	case policyLast:
		return r.callees[len(r.callees)-1]
	default: // single, first
		return r.callees[0]
	}
}

// invocation correlates one CALL with its routed INVOCATION, per spec.md
// §4.5. It is reachable from both the caller's request ID and the callee's
// invocation ID.
type invocation struct {
	invocationID    wamp.ID
	callerSession   wamp.ID
	callerRequest   wamp.ID
	calleeSession   wamp.ID
	registrationID  wamp.ID
	procedure       wamp.URI
	receiveProgress bool
	cancelled       bool
	cancelMode      wamp.CancelMode
	answered        bool
	timer           *time.Timer
}

type callKey struct{ session, request wamp.ID }
type invokeKey struct{ session, invocation wamp.ID }

// dealer owns one realm's registration table and outstanding invocations.
type dealer struct {
	gen *wamp.Generator

	exact         map[wamp.URI]*registration
	prefixOrder   []*registration
	prefixByURI   map[wamp.URI]*registration
	wildcardBySeg map[int][]*registration
	wildcardByURI map[wamp.URI]*registration

	byID      map[wamp.ID]*registration
	bySession map[wamp.ID]map[wamp.ID]bool // sessionID -> registrationIDs it's a callee of

	pendingCalls       map[callKey]*invocation
	pendingInvocations map[invokeKey]*invocation
}

func newDealer() *dealer {
	return &dealer{
		gen:                wamp.NewGenerator(),
		exact:              map[wamp.URI]*registration{},
		prefixByURI:        map[wamp.URI]*registration{},
		wildcardBySeg:      map[int][]*registration{},
		wildcardByURI:      map[wamp.URI]*registration{},
		byID:               map[wamp.ID]*registration{},
		bySession:          map[wamp.ID]map[wamp.ID]bool{},
		pendingCalls:       map[callKey]*invocation{},
		pendingInvocations: map[invokeKey]*invocation{},
	}
}

func (d *dealer) byURI(kind wamp.MatchKind, uri wamp.URI) (*registration, bool) {
	switch kind {
	case wamp.MatchPrefix:
		r, ok := d.prefixByURI[uri]
		return r, ok
	case wamp.MatchWildcard:
		r, ok := d.wildcardByURI[uri]
		return r, ok
	default:
		r, ok := d.exact[uri]
		return r, ok
	}
}

// anyOtherKind reports whether procedure is registered under any kind
// other than kind, used to enforce the (URI, kind) cross-kind uniqueness
// rule (spec.md §4.2).
func (d *dealer) anyOtherKind(procedure wamp.URI, kind wamp.MatchKind) bool {
	if kind != wamp.MatchExact {
		if _, ok := d.exact[procedure]; ok {
			return true
		}
	}
	if kind != wamp.MatchPrefix {
		if _, ok := d.prefixByURI[procedure]; ok {
			return true
		}
	}
	if kind != wamp.MatchWildcard {
		if _, ok := d.wildcardByURI[procedure]; ok {
			return true
		}
	}
	return false
}

// register adds sess as a callee of (procedure, kind), per spec.md §4.4.
// Returns the RegistrationID and whether a new registration entry was
// created (vs. an existing shared registration gaining a callee).
func (d *dealer) register(sessID wamp.ID, procedure wamp.URI, kind wamp.MatchKind, options wamp.Dict, strictURI bool) (wamp.ID, bool, error) {
	if !procedure.ValidURI(strictURI, string(kind)) {
		return 0, false, errors.New(string(wamp.ErrInvalidURI))
	}
	if d.anyOtherKind(procedure, kind) {
		return 0, false, errors.New(string(wamp.ErrProcedureAlreadyExists))
	}

	policy := policyFromOptions(options)
	reg, exists := d.byURI(kind, procedure)
	if exists {
		if reg.policy != policy || (reg.policy == policySingle) {
			return 0, false, errors.New(string(wamp.ErrProcedureAlreadyExists))
		}
		reg.addCallee(sessID)
		d.indexSession(sessID, reg.id)
		return reg.id, false, nil
	}

	reg = &registration{id: d.gen.Next(), procedure: procedure, kind: kind, policy: policy}
	reg.addCallee(sessID)
	switch kind {
	case wamp.MatchPrefix:
		d.prefixByURI[procedure] = reg
		d.prefixOrder = append(d.prefixOrder, reg)
	case wamp.MatchWildcard:
		d.wildcardByURI[procedure] = reg
		n := segCount(procedure)
		d.wildcardBySeg[n] = append(d.wildcardBySeg[n], reg)
	default:
		d.exact[procedure] = reg
	}
	d.byID[reg.id] = reg
	d.indexSession(sessID, reg.id)
	return reg.id, true, nil
}

func (d *dealer) indexSession(sessID, regID wamp.ID) {
	if d.bySession[sessID] == nil {
		d.bySession[sessID] = map[wamp.ID]bool{}
	}
	d.bySession[sessID][regID] = true
}

// unregister removes sess as a callee of regID, deleting the entry once its
// callee list is empty. Returns whether the entry was deleted.
func (d *dealer) unregister(sessID, regID wamp.ID) (bool, error) {
	reg, ok := d.byID[regID]
	if !ok {
		return false, errors.New(string(wamp.ErrNoSuchRegistration))
	}
	found := false
	for _, c := range reg.callees {
		if c == sessID {
			found = true
			break
		}
	}
	if !found {
		return false, errors.New(string(wamp.ErrNoSuchRegistration))
	}
	reg.removeCallee(sessID)
	delete(d.bySession[sessID], regID)
	if len(d.bySession[sessID]) == 0 {
		delete(d.bySession, sessID)
	}
	if reg.empty() {
		d.deleteRegistration(reg)
		return true, nil
	}
	return false, nil
}

func (d *dealer) deleteRegistration(reg *registration) {
	delete(d.byID, reg.id)
	switch reg.kind {
	case wamp.MatchPrefix:
		delete(d.prefixByURI, reg.procedure)
		d.prefixOrder = removeReg(d.prefixOrder, reg)
	case wamp.MatchWildcard:
		delete(d.wildcardByURI, reg.procedure)
		n := segCount(reg.procedure)
		d.wildcardBySeg[n] = removeReg(d.wildcardBySeg[n], reg)
	default:
		delete(d.exact, reg.procedure)
	}
}

func removeReg(list []*registration, target *registration) []*registration {
	for i, r := range list {
		if r == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// resolve finds the registration matching procedure, preferring exact over
// prefix over wildcard (spec.md §4.4).
func (d *dealer) resolve(procedure wamp.URI) (*registration, bool) {
	if reg, ok := d.exact[procedure]; ok {
		return reg, true
	}
	for _, reg := range d.prefixOrder {
		if wamp.TopicMatch(reg.procedure, wamp.MatchPrefix, procedure) {
			return reg, true
		}
	}
	for _, reg := range d.wildcardBySeg[segCount(procedure)] {
		if wamp.TopicMatch(reg.procedure, wamp.MatchWildcard, procedure) {
			return reg, true
		}
	}
	return nil, false
}

// removeSession purges all registrations sess is a callee of, as on
// session close.
func (d *dealer) removeSession(sessID wamp.ID) {
	for regID := range d.bySession[sessID] {
		if reg, ok := d.byID[regID]; ok {
			reg.removeCallee(sessID)
			if reg.empty() {
				d.deleteRegistration(reg)
			}
		}
	}
	delete(d.bySession, sessID)
}

// list returns registered registration IDs grouped by kind, for
// wamp.registration.list.
func (d *dealer) list() (exact, prefix, wildcard []wamp.ID) {
	for _, r := range d.exact {
		exact = append(exact, r.id)
	}
	for _, r := range d.prefixOrder {
		prefix = append(prefix, r.id)
	}
	for _, segs := range d.wildcardBySeg {
		for _, r := range segs {
			wildcard = append(wildcard, r.id)
		}
	}
	return
}

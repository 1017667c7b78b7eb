package router

import "github.com/ohyo-io/wampire/wamp"

// sessionMetaDict builds the dict returned by wamp.session.get and carried
// in on_join meta events (spec.md §4.7).
func (r *realm) sessionMetaDict(sess *Session) wamp.Dict {
	return wamp.Dict{
		"session":    sess.ID,
		"authid":     sess.AuthID(),
		"authrole":   sess.AuthRole(),
		"authmethod": wamp.OptionString(sess.Details, "authmethod"),
		"transport":  wamp.Dict{},
	}
}

// subscriptionMetaDict builds the dict returned by wamp.subscription.get
// and carried in on_create meta events.
func (r *realm) subscriptionMetaDict(id wamp.ID) wamp.Dict {
	sub, ok := r.broker.byID[id]
	if !ok {
		return wamp.Dict{"id": id}
	}
	return wamp.Dict{
		"id":      sub.id,
		"created": "",
		"uri":     string(sub.topic),
		"match":   string(sub.kind),
	}
}

// registrationMetaDict builds the dict returned by wamp.registration.get
// and carried in on_create meta events.
func (r *realm) registrationMetaDict(id wamp.ID) wamp.Dict {
	reg, ok := r.dealer.byID[id]
	if !ok {
		return wamp.Dict{"id": id}
	}
	return wamp.Dict{
		"id":      reg.id,
		"created": "",
		"uri":     string(reg.procedure),
		"match":   string(reg.kind),
		"invoke":  string(reg.policy),
	}
}

// answerMeta resolves a CALL to a wamp.* meta procedure directly from the
// realm's tables, without involving any callee session (spec.md §4.7).
// Returns false when procedure is under the wamp.* prefix but not a
// recognized meta procedure, letting the normal dealer lookup fail with
// no_such_procedure.
func (r *realm) answerMeta(sess *Session, msg *wamp.Call) bool {
	reply := func(args wamp.List) {
		sess.Peer.Send(&wamp.Result{Request: msg.Request, Details: wamp.Dict{}, Arguments: args})
	}
	errReply := func(uri wamp.URI) {
		sess.Peer.Send(&wamp.Error{Type: wamp.CALL, Request: msg.Request, Details: wamp.Dict{}, Error: uri})
	}
	arg := func(i int) interface{} {
		if i < len(msg.Arguments) {
			return msg.Arguments[i]
		}
		return nil
	}

	switch msg.Procedure {
	case wamp.MetaProcSessionCount:
		reply(wamp.List{len(r.sessions)})
		return true

	case wamp.MetaProcSessionList:
		ids := make([]wamp.ID, 0, len(r.sessions))
		for id := range r.sessions {
			ids = append(ids, id)
		}
		reply(wamp.List{ids})
		return true

	case wamp.MetaProcSessionGet:
		id, _ := wamp.AsID(arg(0))
		sess2, ok := r.sessions[id]
		if !ok {
			errReply(wamp.ErrNoSuchSession)
			return true
		}
		reply(wamp.List{r.sessionMetaDict(sess2)})
		return true

	case wamp.MetaProcSubList:
		exact, prefix, wildcard := r.broker.list()
		reply(wamp.List{wamp.Dict{"exact": exact, "prefix": prefix, "wildcard": wildcard}})
		return true

	case wamp.MetaProcSubLookup, wamp.MetaProcSubMatch:
		topic, _ := arg(0).(string)
		if sub, ok := r.broker.lookup(wamp.URI(topic), wamp.MatchExact); ok {
			reply(wamp.List{sub.id})
			return true
		}
		for _, sub := range r.broker.matches(wamp.URI(topic)) {
			reply(wamp.List{sub.id})
			return true
		}
		reply(wamp.List{nil})
		return true

	case wamp.MetaProcSubGet:
		id, _ := wamp.AsID(arg(0))
		if sub, ok := r.broker.byID[id]; ok {
			reply(wamp.List{r.subscriptionMetaDict(sub.id)})
			return true
		}
		errReply(wamp.ErrNoSuchSubscription)
		return true

	case wamp.MetaProcSubListSubscribers:
		id, _ := wamp.AsID(arg(0))
		sub, ok := r.broker.byID[id]
		if !ok {
			errReply(wamp.ErrNoSuchSubscription)
			return true
		}
		reply(wamp.List{sub.subs})
		return true

	case wamp.MetaProcSubCountSubscribers:
		id, _ := wamp.AsID(arg(0))
		sub, ok := r.broker.byID[id]
		if !ok {
			errReply(wamp.ErrNoSuchSubscription)
			return true
		}
		reply(wamp.List{len(sub.subs)})
		return true

	case wamp.MetaProcRegList:
		exact, prefix, wildcard := r.dealer.list()
		reply(wamp.List{wamp.Dict{"exact": exact, "prefix": prefix, "wildcard": wildcard}})
		return true

	case wamp.MetaProcRegLookup, wamp.MetaProcRegMatch:
		procedure, _ := arg(0).(string)
		if reg, ok := r.dealer.byURI(wamp.MatchExact, wamp.URI(procedure)); ok {
			reply(wamp.List{reg.id})
			return true
		}
		if reg, ok := r.dealer.resolve(wamp.URI(procedure)); ok {
			reply(wamp.List{reg.id})
			return true
		}
		reply(wamp.List{nil})
		return true

	case wamp.MetaProcRegGet:
		id, _ := wamp.AsID(arg(0))
		if reg, ok := r.dealer.byID[id]; ok {
			reply(wamp.List{r.registrationMetaDict(reg.id)})
			return true
		}
		errReply(wamp.ErrNoSuchRegistration)
		return true

	case wamp.MetaProcRegListCallees:
		id, _ := wamp.AsID(arg(0))
		reg, ok := r.dealer.byID[id]
		if !ok {
			errReply(wamp.ErrNoSuchRegistration)
			return true
		}
		reply(wamp.List{reg.callees})
		return true

	case wamp.MetaProcRegCountCallees:
		id, _ := wamp.AsID(arg(0))
		reg, ok := r.dealer.byID[id]
		if !ok {
			errReply(wamp.ErrNoSuchRegistration)
			return true
		}
		reply(wamp.List{len(reg.callees)})
		return true
	}

	return false
}

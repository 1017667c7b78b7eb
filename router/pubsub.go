package router

import "github.com/ohyo-io/wampire/wamp"

// handleSubscribe implements SUBSCRIBE (spec.md §4.3).
func (r *realm) handleSubscribe(sess *Session, msg *wamp.Subscribe) {
	kind := wamp.MatchKindFromOptions(msg.Options)
	id, created, err := r.broker.subscribe(sess.ID, msg.Topic, kind, r.config.StrictURI)
	if err != nil {
		sess.Peer.Send(&wamp.Error{Type: wamp.SUBSCRIBE, Request: msg.Request, Details: wamp.Dict{}, Error: wamp.ErrInvalidURI})
		return
	}
	sess.Peer.Send(&wamp.Subscribed{Request: msg.Request, Subscription: id})
	if created {
		r.emitMetaEvent(wamp.MetaEventSubOnCreate, wamp.List{sess.ID, r.subscriptionMetaDict(id)})
	}
	r.emitMetaEvent(wamp.MetaEventSubOnSubscribe, wamp.List{sess.ID, id})
}

// handleUnsubscribe implements UNSUBSCRIBE (spec.md §4.3).
func (r *realm) handleUnsubscribe(sess *Session, msg *wamp.Unsubscribe) {
	deleted, err := r.broker.unsubscribe(sess.ID, msg.Subscription)
	if err != nil {
		sess.Peer.Send(&wamp.Error{Type: wamp.UNSUBSCRIBE, Request: msg.Request, Details: wamp.Dict{}, Error: wamp.ErrNoSuchSubscription})
		return
	}
	sess.Peer.Send(&wamp.Unsubscribed{Request: msg.Request})
	r.emitMetaEvent(wamp.MetaEventSubOnUnsubscribe, wamp.List{sess.ID, msg.Subscription})
	if deleted {
		r.emitMetaEvent(wamp.MetaEventSubOnDelete, wamp.List{sess.ID, msg.Subscription})
	}
}

// handlePublish implements PUBLISH and EVENT dispatch (spec.md §4.3).
func (r *realm) handlePublish(sess *Session, msg *wamp.Publish) {
	if !msg.Topic.ValidURI(r.config.StrictURI, "") {
		if wamp.OptionBool(msg.Options, "acknowledge", false) {
			sess.Peer.Send(&wamp.Error{Type: wamp.PUBLISH, Request: msg.Request, Details: wamp.Dict{}, Error: wamp.ErrInvalidURI})
		}
		return
	}

	pubID := r.dispatchEvent(sess.ID, msg.Topic, msg.Options, msg.Arguments, msg.ArgumentsKw)
	if wamp.OptionBool(msg.Options, "acknowledge", false) {
		sess.Peer.Send(&wamp.Published{Request: msg.Request, Publication: pubID})
	}
}

// dispatchEvent computes the subscribers matching topic, applies the
// option filters in the order spec.md §4.3 prescribes, and emits EVENT to
// each survivor. publisherID 0 is used for router-generated meta events,
// which no real session can match and which are delivered to exact and
// prefix subscriptions only, never to wildcard subscriptions.
func (r *realm) dispatchEvent(publisherID wamp.ID, topic wamp.URI, options wamp.Dict, args wamp.List, kwargs wamp.Dict) wamp.ID {
	pubID := wamp.GlobalID()
	excludeMe := wamp.OptionBool(options, "exclude_me", true)
	eligible := idFilter(options, "eligible")
	eligibleAuthid := stringFilter(options, "eligible_authid")
	eligibleAuthrole := stringFilter(options, "eligible_authrole")
	exclude := idFilter(options, "exclude")
	excludeAuthid := stringFilter(options, "exclude_authid")
	excludeAuthrole := stringFilter(options, "exclude_authrole")
	discloseMe := wamp.OptionBool(options, "disclose_me", false) && r.config.AllowDisclose

	for _, sub := range r.broker.matches(topic) {
		if publisherID == 0 && sub.kind == wamp.MatchWildcard {
			continue
		}
		for _, recipID := range sub.subs {
			if excludeMe && recipID == publisherID {
				continue
			}
			recip, ok := r.sessions[recipID]
			if !ok {
				continue
			}
			if eligible != nil && !eligible[recipID] {
				continue
			}
			if eligibleAuthid != nil && !eligibleAuthid[recip.AuthID()] {
				continue
			}
			if eligibleAuthrole != nil && !eligibleAuthrole[recip.AuthRole()] {
				continue
			}
			if exclude[recipID] || excludeAuthid[recip.AuthID()] || excludeAuthrole[recip.AuthRole()] {
				continue
			}

			details := wamp.Dict{}
			if discloseMe {
				details["publisher"] = publisherID
			}
			recip.Peer.Send(&wamp.Event{
				Subscription: sub.id,
				Publication:  pubID,
				Details:      details,
				Arguments:    args,
				ArgumentsKw:  kwargs,
			})
		}
	}
	return pubID
}

// emitMetaEvent publishes args to a wamp.* meta topic on behalf of the
// router itself (spec.md §4.7's "Meta events").
func (r *realm) emitMetaEvent(topic wamp.URI, args wamp.List) {
	r.dispatchEvent(0, topic, wamp.Dict{}, args, nil)
}

func idFilter(opts wamp.Dict, key string) map[wamp.ID]bool {
	v, ok := opts[key]
	if !ok {
		return nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := map[wamp.ID]bool{}
	for _, e := range list {
		if id, ok := wamp.AsID(e); ok {
			out[id] = true
		}
	}
	return out
}

func stringFilter(opts wamp.Dict, key string) map[string]bool {
	v, ok := opts[key]
	if !ok {
		return nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := map[string]bool{}
	for _, e := range list {
		if s, ok := e.(string); ok {
			out[s] = true
		}
	}
	return out
}

package router

import (
	"errors"

	"github.com/ohyo-io/wampire/wamp"
)

// subscription is one (topic, kind) entry in the subscription table, shared
// by every session subscribed to it. Subscriber order is insertion order,
// so that EVENT delivery order is deterministic (spec.md §4.3).
type subscription struct {
	id      wamp.ID
	topic   wamp.URI
	kind    wamp.MatchKind
	subs    []wamp.ID
	subSet  map[wamp.ID]bool
}

func newSubscription(id wamp.ID, topic wamp.URI, kind wamp.MatchKind) *subscription {
	return &subscription{id: id, topic: topic, kind: kind, subSet: map[wamp.ID]bool{}}
}

func (s *subscription) add(sessID wamp.ID) {
	if s.subSet[sessID] {
		return
	}
	s.subSet[sessID] = true
	s.subs = append(s.subs, sessID)
}

func (s *subscription) remove(sessID wamp.ID) {
	if !s.subSet[sessID] {
		return
	}
	delete(s.subSet, sessID)
	for i, id := range s.subs {
		if id == sessID {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
}

func (s *subscription) empty() bool { return len(s.subs) == 0 }

// broker owns one realm's subscription table: topic -> subscription set,
// and the per-session index used for cleanup on session close.
type broker struct {
	gen *wamp.Generator

	exact          map[wamp.URI]*subscription
	prefixOrder    []*subscription
	prefixByURI    map[wamp.URI]*subscription
	wildcardBySeg  map[int][]*subscription
	wildcardByURI  map[wamp.URI]*subscription

	byID      map[wamp.ID]*subscription
	bySession map[wamp.ID]map[wamp.ID]bool // sessionID -> subscriptionIDs it belongs to
}

func newBroker() *broker {
	return &broker{
		gen:           wamp.NewGenerator(),
		exact:         map[wamp.URI]*subscription{},
		prefixByURI:   map[wamp.URI]*subscription{},
		wildcardBySeg: map[int][]*subscription{},
		wildcardByURI: map[wamp.URI]*subscription{},
		byID:          map[wamp.ID]*subscription{},
		bySession:     map[wamp.ID]map[wamp.ID]bool{},
	}
}

func segCount(u wamp.URI) int {
	n := 1
	for _, c := range string(u) {
		if c == '.' {
			n++
		}
	}
	return n
}

// subscribe adds sess to the (topic, kind) subscription, creating it if
// necessary, and returns its SubscriptionID and whether a new subscription
// entry was created (vs. an existing one gaining a subscriber).
func (b *broker) subscribe(sessID wamp.ID, topic wamp.URI, kind wamp.MatchKind, strictURI bool) (wamp.ID, bool, error) {
	if !topic.ValidURI(strictURI, string(kind)) {
		return 0, false, errors.New(string(wamp.ErrInvalidURI))
	}

	var sub *subscription
	switch kind {
	case wamp.MatchPrefix:
		sub = b.prefixByURI[topic]
	case wamp.MatchWildcard:
		sub = b.wildcardByURI[topic]
	default:
		sub = b.exact[topic]
	}

	created := sub == nil
	if sub == nil {
		sub = newSubscription(b.gen.Next(), topic, kind)
		switch kind {
		case wamp.MatchPrefix:
			b.prefixByURI[topic] = sub
			b.prefixOrder = append(b.prefixOrder, sub)
		case wamp.MatchWildcard:
			b.wildcardByURI[topic] = sub
			n := segCount(topic)
			b.wildcardBySeg[n] = append(b.wildcardBySeg[n], sub)
		default:
			b.exact[topic] = sub
		}
		b.byID[sub.id] = sub
	}

	sub.add(sessID)
	if b.bySession[sessID] == nil {
		b.bySession[sessID] = map[wamp.ID]bool{}
	}
	b.bySession[sessID][sub.id] = true
	return sub.id, created, nil
}

// unsubscribe removes sess's membership in subID, deleting the subscription
// entry once its subscriber set is empty. Returns whether the entry was
// deleted.
func (b *broker) unsubscribe(sessID, subID wamp.ID) (bool, error) {
	sub, ok := b.byID[subID]
	if !ok || !sub.subSet[sessID] {
		return false, errors.New(string(wamp.ErrNoSuchSubscription))
	}
	sub.remove(sessID)
	delete(b.bySession[sessID], subID)
	if len(b.bySession[sessID]) == 0 {
		delete(b.bySession, sessID)
	}
	if sub.empty() {
		b.deleteSubscription(sub)
		return true, nil
	}
	return false, nil
}

func (b *broker) deleteSubscription(sub *subscription) {
	delete(b.byID, sub.id)
	switch sub.kind {
	case wamp.MatchPrefix:
		delete(b.prefixByURI, sub.topic)
		b.prefixOrder = removeSub(b.prefixOrder, sub)
	case wamp.MatchWildcard:
		delete(b.wildcardByURI, sub.topic)
		n := segCount(sub.topic)
		b.wildcardBySeg[n] = removeSub(b.wildcardBySeg[n], sub)
	default:
		delete(b.exact, sub.topic)
	}
}

func removeSub(list []*subscription, target *subscription) []*subscription {
	for i, s := range list {
		if s == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// removeSession purges all of sess's subscriptions, as on session close.
func (b *broker) removeSession(sessID wamp.ID) {
	for subID := range b.bySession[sessID] {
		if sub, ok := b.byID[subID]; ok {
			sub.remove(sessID)
			if sub.empty() {
				b.deleteSubscription(sub)
			}
		}
	}
	delete(b.bySession, sessID)
}

// matches returns every subscription whose (topic, kind) matches topic, in
// exact, then prefix (insertion order), then wildcard (insertion order)
// preference order (spec.md §4.2).
func (b *broker) matches(topic wamp.URI) []*subscription {
	var out []*subscription
	if sub, ok := b.exact[topic]; ok {
		out = append(out, sub)
	}
	for _, sub := range b.prefixOrder {
		if wamp.TopicMatch(sub.topic, wamp.MatchPrefix, topic) {
			out = append(out, sub)
		}
	}
	for _, sub := range b.wildcardBySeg[segCount(topic)] {
		if wamp.TopicMatch(sub.topic, wamp.MatchWildcard, topic) {
			out = append(out, sub)
		}
	}
	return out
}

// lookup returns the single subscription for an exact (topic, kind) pair,
// used by the meta-API's wamp.subscription.lookup.
func (b *broker) lookup(topic wamp.URI, kind wamp.MatchKind) (*subscription, bool) {
	switch kind {
	case wamp.MatchPrefix:
		s, ok := b.prefixByURI[topic]
		return s, ok
	case wamp.MatchWildcard:
		s, ok := b.wildcardByURI[topic]
		return s, ok
	default:
		s, ok := b.exact[topic]
		return s, ok
	}
}

// list returns the registered subscription IDs grouped by kind, for
// wamp.subscription.list.
func (b *broker) list() (exact, prefix, wildcard []wamp.ID) {
	for _, s := range b.exact {
		exact = append(exact, s.id)
	}
	for _, s := range b.prefixOrder {
		prefix = append(prefix, s.id)
	}
	for _, segs := range b.wildcardBySeg {
		for _, s := range segs {
			wildcard = append(wildcard, s.id)
		}
	}
	return
}

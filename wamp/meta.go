package wamp

// Meta-API procedure and topic URIs (spec.md §4.7, §8). These are plain
// URIs under the wamp.* prefix, answered directly from realm tables.
const (
	MetaProcSessionCount URI = "wamp.session.count"
	MetaProcSessionList  URI = "wamp.session.list"
	MetaProcSessionGet   URI = "wamp.session.get"

	MetaEventSessionOnJoin  URI = "wamp.session.on_join"
	MetaEventSessionOnLeave URI = "wamp.session.on_leave"

	MetaProcSubList            URI = "wamp.subscription.list"
	MetaProcSubLookup          URI = "wamp.subscription.lookup"
	MetaProcSubMatch           URI = "wamp.subscription.match"
	MetaProcSubGet             URI = "wamp.subscription.get"
	MetaProcSubListSubscribers URI = "wamp.subscription.list_subscribers"
	MetaProcSubCountSubscribers URI = "wamp.subscription.count_subscribers"

	MetaEventSubOnCreate     URI = "wamp.subscription.on_create"
	MetaEventSubOnSubscribe  URI = "wamp.subscription.on_subscribe"
	MetaEventSubOnUnsubscribe URI = "wamp.subscription.on_unsubscribe"
	MetaEventSubOnDelete     URI = "wamp.subscription.on_delete"

	MetaProcRegList         URI = "wamp.registration.list"
	MetaProcRegLookup       URI = "wamp.registration.lookup"
	MetaProcRegMatch        URI = "wamp.registration.match"
	MetaProcRegGet          URI = "wamp.registration.get"
	MetaProcRegListCallees  URI = "wamp.registration.list_callees"
	MetaProcRegCountCallees URI = "wamp.registration.count_callees"

	MetaEventRegOnCreate   URI = "wamp.registration.on_create"
	MetaEventRegOnRegister URI = "wamp.registration.on_register"
	MetaEventRegOnUnregister URI = "wamp.registration.on_unregister"
	MetaEventRegOnDelete   URI = "wamp.registration.on_delete"
)

// IsMetaURI reports whether u falls under the wamp.* meta-API prefix.
func IsMetaURI(u URI) bool {
	return len(u) >= 5 && u[:5] == "wamp."
}

package wamp

// Error URIs returned by the router for request-level failures (spec.md §6).
const (
	ErrInvalidURI              URI = "wamp.error.invalid_uri"
	ErrNoSuchProcedure         URI = "wamp.error.no_such_procedure"
	ErrNoSuchRegistration      URI = "wamp.error.no_such_registration"
	ErrNoSuchSubscription      URI = "wamp.error.no_such_subscription"
	ErrProcedureAlreadyExists  URI = "wamp.error.procedure_already_exists"
	ErrNotAuthorized           URI = "wamp.error.not_authorized"
	ErrAuthenticationFailed    URI = "wamp.error.authorization_failed"
	ErrCanceled                URI = "wamp.error.canceled"
	ErrNetworkFailure          URI = "wamp.error.network_failure"
	ErrNoSuchRealm             URI = "wamp.error.no_such_realm"
	ErrNoSuchRole              URI = "wamp.error.no_such_role"
	ErrNoSuchSession           URI = "wamp.error.no_such_session"
	ErrSystemShutdown          URI = "wamp.error.system_shutdown"
	ErrGoodbyeAndOut           URI = "wamp.close.goodbye_and_out"
	ErrProtocolViolation       URI = "wamp.exception.protocol_violation"
)

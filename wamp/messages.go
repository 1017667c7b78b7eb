package wamp

// Hello is sent by a client to initiate a session on a realm.
type Hello struct {
	Realm   URI
	Details Dict
}

func (msg *Hello) MessageType() MessageType { return HELLO }

// Welcome is sent by the router to accept a session.
type Welcome struct {
	ID      ID
	Details Dict
}

func (msg *Welcome) MessageType() MessageType { return WELCOME }

// Abort is sent by either peer to abandon session establishment.
type Abort struct {
	Details Dict
	Reason  URI
}

func (msg *Abort) MessageType() MessageType { return ABORT }

// Challenge is sent by the router to request credentials for an
// authentication method other than "anonymous".
type Challenge struct {
	AuthMethod string
	Extra      Dict
}

func (msg *Challenge) MessageType() MessageType { return CHALLENGE }

// Authenticate is sent by the client in response to a Challenge.
type Authenticate struct {
	Signature string
	Extra     Dict
}

func (msg *Authenticate) MessageType() MessageType { return AUTHENTICATE }

// Goodbye is sent by either peer to close an established session.
type Goodbye struct {
	Details Dict
	Reason  URI
}

func (msg *Goodbye) MessageType() MessageType { return GOODBYE }

// Error replies to a CALL, SUBSCRIBE, UNSUBSCRIBE, PUBLISH (if acknowledged),
// REGISTER, UNREGISTER, or INVOCATION that failed.
type Error struct {
	Type        MessageType
	Request     ID
	Details     Dict
	Error       URI
	Arguments   List
	ArgumentsKw Dict
}

func (msg *Error) MessageType() MessageType { return ERROR }

// Publish requests publication of an event to a topic.
type Publish struct {
	Request     ID
	Options     Dict
	Topic       URI
	Arguments   List
	ArgumentsKw Dict
}

func (msg *Publish) MessageType() MessageType { return PUBLISH }

// Published acknowledges a Publish that requested acknowledgement.
type Published struct {
	Request     ID
	Publication ID
}

func (msg *Published) MessageType() MessageType { return PUBLISHED }

// Subscribe requests subscription to a topic.
type Subscribe struct {
	Request ID
	Options Dict
	Topic   URI
}

func (msg *Subscribe) MessageType() MessageType { return SUBSCRIBE }

// Subscribed acknowledges a Subscribe.
type Subscribed struct {
	Request      ID
	Subscription ID
}

func (msg *Subscribed) MessageType() MessageType { return SUBSCRIBED }

// Unsubscribe requests cancellation of a subscription.
type Unsubscribe struct {
	Request      ID
	Subscription ID
}

func (msg *Unsubscribe) MessageType() MessageType { return UNSUBSCRIBE }

// Unsubscribed acknowledges an Unsubscribe.
type Unsubscribed struct {
	Request ID
}

func (msg *Unsubscribed) MessageType() MessageType { return UNSUBSCRIBED }

// Event is dispatched by the router to a subscriber on a matching Publish.
type Event struct {
	Subscription ID
	Publication  ID
	Details      Dict
	Arguments    List
	ArgumentsKw  Dict
}

func (msg *Event) MessageType() MessageType { return EVENT }

// Call requests invocation of a procedure.
type Call struct {
	Request     ID
	Options     Dict
	Procedure   URI
	Arguments   List
	ArgumentsKw Dict
}

func (msg *Call) MessageType() MessageType { return CALL }

// CancelMode selects the behavior of a Cancel.
type CancelMode string

const (
	CancelModeSkip       CancelMode = "skip"
	CancelModeKill       CancelMode = "kill"
	CancelModeKillNoWait CancelMode = "killnowait"
)

// Cancel requests cancellation of an outstanding Call.
type Cancel struct {
	Request ID
	Options Dict
}

func (msg *Cancel) MessageType() MessageType { return CANCEL }

// Result carries the outcome of a successful Call.
type Result struct {
	Request     ID
	Details     Dict
	Arguments   List
	ArgumentsKw Dict
}

func (msg *Result) MessageType() MessageType { return RESULT }

// Register requests registration of a procedure.
type Register struct {
	Request   ID
	Options   Dict
	Procedure URI
}

func (msg *Register) MessageType() MessageType { return REGISTER }

// Registered acknowledges a Register.
type Registered struct {
	Request      ID
	Registration ID
}

func (msg *Registered) MessageType() MessageType { return REGISTERED }

// Unregister requests cancellation of a registration.
type Unregister struct {
	Request      ID
	Registration ID
}

func (msg *Unregister) MessageType() MessageType { return UNREGISTER }

// Unregistered acknowledges an Unregister.
type Unregistered struct {
	Request ID
}

func (msg *Unregistered) MessageType() MessageType { return UNREGISTERED }

// Invocation is dispatched by the router to a callee to execute a Call.
type Invocation struct {
	Request      ID
	Registration ID
	Details      Dict
	Arguments    List
	ArgumentsKw  Dict
}

func (msg *Invocation) MessageType() MessageType { return INVOCATION }

// Interrupt requests cancellation of a pending Invocation.
type Interrupt struct {
	Request ID
	Options Dict
}

func (msg *Interrupt) MessageType() MessageType { return INTERRUPT }

// Yield supplies the result of a procedure back to the router.
type Yield struct {
	Request     ID
	Options     Dict
	Arguments   List
	ArgumentsKw Dict
}

func (msg *Yield) MessageType() MessageType { return YIELD }

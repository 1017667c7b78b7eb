package wamp

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
)

// ID is a WAMP session, request, subscription, registration, or publication
// identifier. Per the WAMP spec, values are drawn from [0, 2^53).
type ID uint64

const idScopeMax = uint64(1) << 53

// GlobalID returns a random ID in [1, 2^53), suitable for SessionID,
// RequestID, and PublicationID allocation. It is the router's canonical
// generator for identifiers that are not required to be sequential.
func GlobalID() ID {
	var b [8]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			panic("wamp: GlobalID: " + err.Error())
		}
		v := binary.BigEndian.Uint64(b[:]) % idScopeMax
		if v != 0 {
			return ID(v)
		}
	}
}

// Generator produces monotonically increasing, router-scoped IDs, used for
// SubscriptionID/RegistrationID allocation within a realm so that meta-API
// listings observe a non-decreasing sequence.
type Generator struct {
	next uint64
}

// NewGenerator returns a Generator whose first Next() call returns 1.
func NewGenerator() *Generator { return &Generator{} }

// Next returns the next ID in the sequence. Safe for concurrent use.
func (g *Generator) Next() ID {
	return ID(atomic.AddUint64(&g.next, 1))
}

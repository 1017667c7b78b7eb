package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/pbkdf2"

	"github.com/ohyo-io/wampire/wamp"
)

// TicketRecord is what TicketLookup returns for a known authid: the
// per-authid salt and PBKDF2-derived secret hash to compare against, plus
// the authrole to grant on success.
type TicketRecord struct {
	Salt       []byte
	Iterations int
	KeyLen     int
	Derived    []byte // pbkdf2.Key(secret, Salt, Iterations, KeyLen, sha256.New)
	AuthRole   string
}

// TicketLookup resolves an authid to its TicketRecord. A missing authid
// should return ok=false.
type TicketLookup func(authid string) (rec TicketRecord, ok bool)

// Ticket implements the "ticket" WAMP authentication method with the
// optional salted-secret variant: the router never stores the plaintext
// ticket, only a PBKDF2-derived hash, and verifies a presented ticket by
// deriving it with the same salt and comparing in constant time.
type Ticket struct {
	Lookup TicketLookup
}

func (t *Ticket) AuthMethod() string { return "ticket" }

func (t *Ticket) Challenge(details wamp.Dict) (wamp.Dict, error) {
	// The ticket method challenges with no extra data; the client is
	// expected to already know which authid it is using (carried in
	// Hello.Details.authid).
	return wamp.Dict{}, nil
}

func (t *Ticket) Authenticate(signature string, extra, challengeExtra wamp.Dict) (wamp.Dict, error) {
	authid := wamp.OptionString(extra, "authid")
	if authid == "" {
		return nil, errors.New("auth: ticket authentication requires authid")
	}
	rec, ok := t.Lookup(authid)
	if !ok {
		return nil, errors.New("auth: unknown authid")
	}

	derived := pbkdf2.Key([]byte(signature), rec.Salt, rec.Iterations, rec.KeyLen, sha256.New)
	if subtle.ConstantTimeCompare(derived, rec.Derived) != 1 {
		return nil, errors.New("auth: ticket mismatch")
	}

	return wamp.Dict{
		"authmethod": "ticket",
		"authid":     authid,
		"authrole":   rec.AuthRole,
	}, nil
}

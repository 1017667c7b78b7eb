package wamp

import (
	"errors"
	"sync"
	"time"
)

// Peer is the transport-agnostic interface a session routes through. Both
// the WebSocket adapter (transport package) and the in-memory pair used by
// tests and the local diagnostic client implement it.
type Peer interface {
	// Send enqueues msg for delivery to the peer. Send never blocks on the
	// network; it only blocks if the peer's outbound queue is full.
	Send(Message) error
	// Recv returns the channel on which inbound messages from the peer
	// arrive. The channel is closed when the peer disconnects.
	Recv() <-chan Message
	// Close terminates the connection.
	Close() error
}

// RecvTimeout receives a single message from p, returning an error if none
// arrives within timeout or if p closes first.
func RecvTimeout(p Peer, timeout time.Duration) (Message, error) {
	select {
	case msg, ok := <-p.Recv():
		if !ok {
			return nil, errors.New("wamp: peer closed")
		}
		return msg, nil
	case <-time.After(timeout):
		return nil, errors.New("wamp: timeout waiting for message")
	}
}

// localPeer is an in-memory Peer backed by a channel, used to link two
// endpoints of an in-process connection (tests, local client).
type localPeer struct {
	in       chan Message
	out      *localPeer
	closed   chan struct{}
	closeOne sync.Once
}

// LinkedPeers returns two Peers, each of which delivers what is Sent on the
// other. Used by tests to simulate a client/router connection without a
// real transport, and by the local diagnostic client.
func LinkedPeers() (Peer, Peer) {
	a := &localPeer{in: make(chan Message, 64), closed: make(chan struct{})}
	b := &localPeer{in: make(chan Message, 64), closed: make(chan struct{})}
	a.out = b
	b.out = a
	return a, b
}

func (p *localPeer) Send(msg Message) error {
	select {
	case <-p.closed:
		return errors.New("wamp: peer closed")
	default:
	}
	select {
	case p.out.in <- msg:
		return nil
	case <-p.out.closed:
		return errors.New("wamp: peer closed")
	}
}

func (p *localPeer) Recv() <-chan Message { return p.in }

// Close shuts down both ends of the pair, the way closing either side of a
// real duplex connection unblocks the peer's own pending read.
func (p *localPeer) Close() error {
	p.closeOne.Do(func() {
		close(p.closed)
		close(p.in)
	})
	p.out.closeOne.Do(func() {
		close(p.out.closed)
		close(p.out.in)
	})
	return nil
}

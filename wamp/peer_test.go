package wamp

import (
	"testing"
	"time"
)

func TestLinkedPeersDeliver(t *testing.T) {
	a, b := LinkedPeers()
	if err := a.Send(&Hello{Realm: "com.example"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case msg := <-b.Recv():
		if _, ok := msg.(*Hello); !ok {
			t.Fatalf("got %T, want *Hello", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

// TestLinkedPeersCloseUnblocksPartner guards the duplex-teardown behavior a
// realm's session loop depends on: closing either end of a LinkedPeers pair
// must close the other end's Recv channel too, the way a real connection's
// closure is observed from both sides.
func TestLinkedPeersCloseUnblocksPartner(t *testing.T) {
	a, b := LinkedPeers()
	a.Close()

	select {
	case _, ok := <-b.Recv():
		if ok {
			t.Fatal("expected b's Recv channel to be closed, got a message instead")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for b's Recv channel to close")
	}

	if err := b.Send(&Hello{Realm: "com.example"}); err == nil {
		t.Error("Send on a peer whose partner closed should fail")
	}
}

func TestLinkedPeersCloseIsIdempotent(t *testing.T) {
	a, b := LinkedPeers()
	a.Close()
	a.Close()
	b.Close()
}

func TestRecvTimeout(t *testing.T) {
	a, b := LinkedPeers()
	if _, err := RecvTimeout(a, 10*time.Millisecond); err == nil {
		t.Error("expected timeout error when nothing is sent")
	}

	b.Send(&Hello{Realm: "com.example"})
	msg, err := RecvTimeout(a, time.Second)
	if err != nil {
		t.Fatalf("RecvTimeout: %v", err)
	}
	if _, ok := msg.(*Hello); !ok {
		t.Fatalf("got %T, want *Hello", msg)
	}
}

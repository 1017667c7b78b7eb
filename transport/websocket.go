// Package transport adapts an HTTP WebSocket upgrade to the wamp.Peer
// interface the router routes through, negotiating JSON or MessagePack via
// the Sec-WebSocket-Protocol subprotocol as described in spec.md §6.
package transport

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ohyo-io/wampire/logger"
	"github.com/ohyo-io/wampire/serialize"
	"github.com/ohyo-io/wampire/wamp"
)

// DefaultMaxFrameSize is the default inbound frame size bound (spec.md §6).
const DefaultMaxFrameSize = 16 * 1024 * 1024

// Handler is invoked once per successfully upgraded connection, with a Peer
// ready to exchange WAMP messages. Implementations typically call
// Router.Attach(peer), which returns once the HELLO/WELCOME handshake is
// done; the session then continues on the Peer.
type Handler func(peer wamp.Peer)

// Server upgrades incoming HTTP requests to WebSocket connections carrying
// WAMP traffic, selecting the JSON or MessagePack serializer per the
// negotiated subprotocol.
type Server struct {
	Upgrader      websocket.Upgrader
	KeepAlive     time.Duration
	MaxFrameSize  int64
	Log           logger.Logger
	onConnect     Handler
}

// NewServer returns a Server configured to negotiate the two WAMP
// subprotocols and accept same-origin or cross-origin requests per
// checkOrigin (nil means "allow all", matching the teacher's dev-mode
// CheckOrigin override).
func NewServer(onConnect Handler, checkOrigin func(*http.Request) bool) *Server {
	s := &Server{
		onConnect:    onConnect,
		MaxFrameSize: DefaultMaxFrameSize,
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	s.Upgrader = websocket.Upgrader{
		Subprotocols:    serialize.Subprotocols,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin,
	}
	return s
}

// ServeHTTP implements http.Handler, upgrading the connection and handing a
// wamp.Peer to the configured Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.Log != nil {
			s.Log.Print("transport: upgrade failed: ", err)
		}
		return
	}

	maxFrame := s.MaxFrameSize
	if maxFrame == 0 {
		maxFrame = DefaultMaxFrameSize
	}
	conn.SetReadLimit(maxFrame)

	var ser serialize.Serializer
	switch serialize.Serialization(conn.Subprotocol()) {
	case serialize.MessagePack:
		ser = serialize.NewMessagePackSerializer()
	default:
		ser = serialize.NewJSONSerializer()
	}

	peer := newWSPeer(conn, ser, s.KeepAlive, s.Log)
	s.onConnect(peer)
}

// ListenAndServe starts an HTTP server bound to addr serving only this
// Server's upgrade handler, matching the teacher's
// `wsServer.ListenAndServe(wsAddr)` call shape.
func (s *Server) ListenAndServe(addr string) (*http.Server, error) {
	httpServer := &http.Server{Addr: addr, Handler: s}
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return nil, err
	case <-time.After(50 * time.Millisecond):
		return httpServer, nil
	}
}

package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ohyo-io/wampire/logger"
	"github.com/ohyo-io/wampire/serialize"
	"github.com/ohyo-io/wampire/wamp"
)

// DefaultQueueHighWaterMark is the default outbound queue depth at which a
// session is closed for backpressure (spec.md §4.6).
const DefaultQueueHighWaterMark = 1024

// wsPeer adapts a gorilla/websocket connection to wamp.Peer. A single
// writer goroutine drains the outbound queue so frames are never
// interleaved and session-local ordering is preserved (spec.md §4.6).
type wsPeer struct {
	conn *websocket.Conn
	ser  serialize.Serializer
	log  logger.Logger

	outbound chan wamp.Message
	inbound  chan wamp.Message

	closeOnce sync.Once
	closed    chan struct{}
}

func newWSPeer(conn *websocket.Conn, ser serialize.Serializer, keepAlive time.Duration, log logger.Logger) *wsPeer {
	p := &wsPeer{
		conn:     conn,
		ser:      ser,
		log:      log,
		outbound: make(chan wamp.Message, DefaultQueueHighWaterMark),
		inbound:  make(chan wamp.Message, DefaultQueueHighWaterMark),
		closed:   make(chan struct{}),
	}
	if keepAlive > 0 {
		conn.SetPingHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(keepAlive * 2))
		})
	}
	go p.writeLoop()
	go p.readLoop()
	return p
}

func (p *wsPeer) frameType() int {
	if p.ser == nil {
		return websocket.TextMessage
	}
	if _, ok := p.ser.(*serialize.MessagePackSerializer); ok {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

func (p *wsPeer) writeLoop() {
	for {
		select {
		case msg, ok := <-p.outbound:
			if !ok {
				return
			}
			b, err := p.ser.Serialize(msg)
			if err != nil {
				if p.log != nil {
					p.log.Print("transport: serialize error: ", err)
				}
				continue
			}
			if err := p.conn.WriteMessage(p.frameType(), b); err != nil {
				p.Close()
				return
			}
		case <-p.closed:
			return
		}
	}
}

func (p *wsPeer) readLoop() {
	defer func() {
		close(p.inbound)
		p.Close()
	}()
	for {
		_, b, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := p.ser.Deserialize(b)
		if err != nil {
			if p.log != nil {
				p.log.Print("transport: decode error: ", err)
			}
			return
		}
		select {
		case p.inbound <- msg:
		case <-p.closed:
			return
		}
	}
}

// Send enqueues msg for delivery. If the outbound queue is already at its
// high-water mark the peer is closed with a network failure, per spec.md
// §4.6's backpressure rule, rather than blocking the caller (which would
// stall the realm actor goroutine).
func (p *wsPeer) Send(msg wamp.Message) error {
	select {
	case p.outbound <- msg:
		return nil
	default:
		p.Close()
		return wampNetworkFailure
	}
}

func (p *wsPeer) Recv() <-chan wamp.Message { return p.inbound }

func (p *wsPeer) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.conn.Close()
	})
	return nil
}

var wampNetworkFailure = &networkFailureError{}

type networkFailureError struct{}

func (*networkFailureError) Error() string { return string(wamp.ErrNetworkFailure) }

// Package client provides a minimal in-process WAMP client used to host
// diagnostic procedures and publications directly inside the router
// binary, the way the teacher's ConnectLocal client does, without a
// network round trip.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ohyo-io/wampire/logger"
	"github.com/ohyo-io/wampire/router"
	"github.com/ohyo-io/wampire/wamp"
)

// defaultCallTimeout bounds how long Call and Register wait for the
// router's acknowledgement before giving up.
const defaultCallTimeout = 5 * time.Second

// InvokeResult is what an InvocationHandler returns to answer an
// INVOCATION: positional Args, keyword Kwargs, or Err to fail the call.
type InvokeResult struct {
	Args   wamp.List
	Kwargs wamp.Dict
	Err    wamp.URI
}

// InvocationHandler implements one registered procedure.
type InvocationHandler func(ctx context.Context, inv *wamp.Invocation) InvokeResult

// EventHandler processes one EVENT delivered for a subscription.
type EventHandler func(event *wamp.Event)

// Config configures a Client.
type Config struct {
	Realm  wamp.URI
	Logger logger.Logger
}

// Client is a local WAMP peer: it speaks the full HELLO/WELCOME handshake
// against a Router over an in-memory Peer pair, then exposes Register,
// Publish, Subscribe, and Call as ordinary Go calls.
type Client struct {
	peer   wamp.Peer
	log    logger.Logger
	sessID wamp.ID

	mu        sync.Mutex
	pending   map[wamp.ID]chan wamp.Message
	procs     map[wamp.ID]InvocationHandler
	subs      map[wamp.ID]EventHandler
	closeOnce sync.Once
	done      chan struct{}
}

// ConnectLocal establishes a session against rt without any network
// transport, using an in-memory Peer pair (router.LinkedPeers), matching
// the teacher's router.NewRouter / client.ConnectLocal pairing used to host
// built-in procedures.
func ConnectLocal(rt router.Router, cfg Config) (*Client, error) {
	clientSide, routerSide := router.LinkedPeers()

	go rt.Attach(routerSide)

	if err := clientSide.Send(&wamp.Hello{Realm: cfg.Realm, Details: wamp.Dict{
		"roles": wamp.Dict{
			"publisher":  wamp.Dict{},
			"subscriber": wamp.Dict{},
			"caller":     wamp.Dict{},
			"callee":     wamp.Dict{},
		},
	}}); err != nil {
		return nil, err
	}

	var msg wamp.Message
	select {
	case msg = <-clientSide.Recv():
	case <-time.After(defaultCallTimeout):
		return nil, errors.New("client: timed out waiting for WELCOME")
	}

	var welcome *wamp.Welcome
	switch m := msg.(type) {
	case *wamp.Welcome:
		welcome = m
	case *wamp.Abort:
		return nil, errors.New("client: hello rejected: " + string(m.Reason))
	default:
		return nil, errors.New("client: expected WELCOME, got " + msg.MessageType().String())
	}

	c := &Client{
		peer:    clientSide,
		log:     cfg.Logger,
		sessID:  welcome.ID,
		pending: map[wamp.ID]chan wamp.Message{},
		procs:   map[wamp.ID]InvocationHandler{},
		subs:    map[wamp.ID]EventHandler{},
		done:    make(chan struct{}),
	}
	go c.recvLoop()
	return c, nil
}

func (c *Client) recvLoop() {
	for msg := range c.peer.Recv() {
		switch m := msg.(type) {
		case *wamp.Invocation:
			go c.dispatchInvocation(m)
		case *wamp.Event:
			c.dispatchEvent(m)
		default:
			c.deliver(requestIDOf(msg), msg)
		}
	}
	close(c.done)
}

// requestIDOf extracts the correlating Request field so recvLoop can route
// a reply to the goroutine awaiting it.
func requestIDOf(msg wamp.Message) wamp.ID {
	switch m := msg.(type) {
	case *wamp.Registered:
		return m.Request
	case *wamp.Subscribed:
		return m.Request
	case *wamp.Unsubscribed:
		return m.Request
	case *wamp.Unregistered:
		return m.Request
	case *wamp.Published:
		return m.Request
	case *wamp.Result:
		return m.Request
	case *wamp.Error:
		return m.Request
	default:
		return 0
	}
}

func (c *Client) deliver(reqID wamp.ID, msg wamp.Message) {
	c.mu.Lock()
	ch, ok := c.pending[reqID]
	c.mu.Unlock()
	if ok {
		ch <- msg
	}
}

func (c *Client) dispatchInvocation(inv *wamp.Invocation) {
	c.mu.Lock()
	handler, ok := c.procs[inv.Registration]
	c.mu.Unlock()
	if !ok {
		c.peer.Send(&wamp.Error{Type: wamp.INVOCATION, Request: inv.Request, Details: wamp.Dict{}, Error: wamp.ErrNoSuchProcedure})
		return
	}
	result := handler(context.Background(), inv)
	if result.Err != "" {
		c.peer.Send(&wamp.Error{Type: wamp.INVOCATION, Request: inv.Request, Details: wamp.Dict{}, Error: result.Err})
		return
	}
	c.peer.Send(&wamp.Yield{Request: inv.Request, Arguments: result.Args, ArgumentsKw: result.Kwargs})
}

func (c *Client) dispatchEvent(ev *wamp.Event) {
	c.mu.Lock()
	handler, ok := c.subs[ev.Subscription]
	c.mu.Unlock()
	if ok {
		handler(ev)
	}
}

func (c *Client) await(reqID wamp.ID) (wamp.Message, error) {
	ch := make(chan wamp.Message, 1)
	c.mu.Lock()
	c.pending[reqID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
	}()

	select {
	case msg := <-ch:
		return msg, nil
	case <-time.After(defaultCallTimeout):
		return nil, errors.New("client: timed out waiting for response")
	}
}

// Register installs handler as the callee for procedure.
func (c *Client) Register(procedure wamp.URI, handler InvocationHandler, options wamp.Dict) error {
	reqID := wamp.GlobalID()
	if err := c.peer.Send(&wamp.Register{Request: reqID, Options: options, Procedure: procedure}); err != nil {
		return err
	}
	msg, err := c.await(reqID)
	if err != nil {
		return err
	}
	switch m := msg.(type) {
	case *wamp.Registered:
		c.mu.Lock()
		c.procs[m.Registration] = handler
		c.mu.Unlock()
		return nil
	case *wamp.Error:
		return errors.New("client: register failed: " + string(m.Error))
	default:
		return errors.New("client: unexpected reply to REGISTER")
	}
}

// Subscribe installs handler for events published on topic.
func (c *Client) Subscribe(topic wamp.URI, handler EventHandler, options wamp.Dict) error {
	reqID := wamp.GlobalID()
	if err := c.peer.Send(&wamp.Subscribe{Request: reqID, Options: options, Topic: topic}); err != nil {
		return err
	}
	msg, err := c.await(reqID)
	if err != nil {
		return err
	}
	switch m := msg.(type) {
	case *wamp.Subscribed:
		c.mu.Lock()
		c.subs[m.Subscription] = handler
		c.mu.Unlock()
		return nil
	case *wamp.Error:
		return errors.New("client: subscribe failed: " + string(m.Error))
	default:
		return errors.New("client: unexpected reply to SUBSCRIBE")
	}
}

// Publish sends a PUBLISH, waiting for acknowledgement only when
// options["acknowledge"] is true.
func (c *Client) Publish(topic wamp.URI, options wamp.Dict, args wamp.List, kwargs wamp.Dict) error {
	reqID := wamp.GlobalID()
	ack, _ := options["acknowledge"].(bool)
	if err := c.peer.Send(&wamp.Publish{Request: reqID, Options: options, Topic: topic, Arguments: args, ArgumentsKw: kwargs}); err != nil {
		return err
	}
	if !ack {
		return nil
	}
	msg, err := c.await(reqID)
	if err != nil {
		return err
	}
	if errMsg, ok := msg.(*wamp.Error); ok {
		return errors.New("client: publish failed: " + string(errMsg.Error))
	}
	return nil
}

// Call invokes procedure and blocks for its RESULT.
func (c *Client) Call(procedure wamp.URI, options wamp.Dict, args wamp.List, kwargs wamp.Dict) (*wamp.Result, error) {
	reqID := wamp.GlobalID()
	if err := c.peer.Send(&wamp.Call{Request: reqID, Options: options, Procedure: procedure, Arguments: args, ArgumentsKw: kwargs}); err != nil {
		return nil, err
	}
	msg, err := c.await(reqID)
	if err != nil {
		return nil, err
	}
	switch m := msg.(type) {
	case *wamp.Result:
		return m, nil
	case *wamp.Error:
		return nil, errors.New("client: call failed: " + string(m.Error))
	default:
		return nil, errors.New("client: unexpected reply to CALL")
	}
}

// Close ends the session.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.peer.Send(&wamp.Goodbye{Details: wamp.Dict{}, Reason: wamp.ErrGoodbyeAndOut})
		err = c.peer.Close()
	})
	return err
}

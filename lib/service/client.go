package service

import (
	"context"
	"errors"
	"sync"

	"github.com/getAlby/relay.go/lib/responses"
	"github.com/nbd-wtf/go-nostr"
)

var (
	ErrClientClosed   = errors.New("client closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is anything subscriptions can be delivered to. Send must never
// block: it is called for fan-out on behalf of other connections.
type Conn interface {
	Send(f responses.Frame) error
}

// Client is the relay side of one connection. Frames are queued and
// written out by whoever drains Outbound, a single writer per client.
type Client struct {
	ID string

	out       chan responses.Frame
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(id string, bufferSize int) *Client {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Client{
		ID:   id,
		out:  make(chan responses.Frame, bufferSize),
		done: make(chan struct{}),
	}
}

// Send queues f if there is room and fails otherwise.
func (c *Client) Send(f responses.Frame) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.out <- f:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Reply queues an answer to the client's own request, waiting for room.
func (c *Client) Reply(ctx context.Context, f responses.Frame) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.out <- f:
		return nil
	case <-c.done:
		return ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) Outbound() <-chan responses.Frame {
	return c.out
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Listener is an in-process subscriber with no socket behind it. Only
// event deliveries reach it.
type Listener struct {
	events chan *nostr.Event
}

func NewListener(bufferSize int) *Listener {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Listener{events: make(chan *nostr.Event, bufferSize)}
}

func (l *Listener) Send(f responses.Frame) error {
	ev, ok := f.Event()
	if !ok {
		return nil
	}
	select {
	case l.events <- ev:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (l *Listener) Events() <-chan *nostr.Event {
	return l.events
}

// Package channels manages the client's long-lived push connections: one
// per-chat message channel plus the contacts and friend-request notification
// channels. A dropped connection is never redialed; it simply stops
// delivering events until its owner opens the kind again.
package channels

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"click-client/internal/observability"
)

// ErrChannelClosed reports a send on a channel that is not open.
var ErrChannelClosed = errors.New("channel is not open")

// Handler receives the raw payload of one inbound channel event. Handlers
// run on the channel's read goroutine and should not block.
type Handler func(payload []byte)

// Channel is a single push connection.
type Channel struct {
	kind      Kind
	conn      *websocket.Conn
	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once

	handlerMu sync.Mutex
	handler   Handler
}

func dial(ctx context.Context, kind Kind, url string, handler Handler) (*Channel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	ch := &Channel{
		kind:    kind,
		conn:    conn,
		done:    make(chan struct{}),
		handler: handler,
	}
	observability.IncChannelActive(string(kind))
	go ch.readLoop()
	return ch, nil
}

// setHandler replaces the handler receiving subsequent events. Events already
// dispatched keep the handler they were dispatched to.
func (c *Channel) setHandler(handler Handler) {
	c.handlerMu.Lock()
	c.handler = handler
	c.handlerMu.Unlock()
}

// closed reports whether the connection has been torn down.
func (c *Channel) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Send writes v as JSON. Only the message channel carries outbound payloads.
func (c *Channel) Send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}
	return c.conn.WriteJSON(v)
}

// Close tears the connection down. Safe to call more than once.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
		observability.DecChannelActive(string(c.kind))
	})
	return err
}

func (c *Channel) readLoop() {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			// No reconnect: the channel goes quiet until reopened.
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("channel %s dropped: %v", c.kind, err)
			}
			observability.IncChannelEvent(string(c.kind), "dropped")
			c.Close()
			return
		}
		observability.IncChannelEvent(string(c.kind), "delivered")
		c.handlerMu.Lock()
		handler := c.handler
		c.handlerMu.Unlock()
		handler(payload)
	}
}

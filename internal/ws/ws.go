// Package ws is the live message channel: a websocket carrying "message"
// events in both directions. Delivery is the broker's concern; this client
// only pumps frames.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"nova-cli/internal/model"
)

const (
	writeTimeout = 10 * time.Second

	// EventMessage is the only event type the CRM uses today.
	EventMessage = "message"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Outgoing is the payload for a send; the server assigns the id and timestamp
// and echoes the stored message back as an incoming event.
type Outgoing struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
	Type     string `json:"type"`
}

type Conn struct {
	ws *websocket.Conn

	incoming chan model.Message

	mu     sync.Mutex // guards writes
	closed bool

	quit chan struct{} // closed by Close; unblocks a full incoming buffer
	done chan struct{}
	err  error
}

// Dial connects to the live channel. The bearer token rides in the handshake
// header, same credential as the REST calls.
func Dial(ctx context.Context, socketURL, token string) (*Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, socketURL, header)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		ws:       ws,
		incoming: make(chan model.Message, 32),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.readPump()
	return c, nil
}

// Incoming delivers server-pushed messages. The channel closes when the
// connection dies; Err explains why.
func (c *Conn) Incoming() <-chan model.Message { return c.incoming }

func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *Conn) readPump() {
	defer close(c.incoming)
	defer close(c.done)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				c.err = err
			}
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if env.Event != EventMessage {
			continue
		}
		var m model.Message
		if err := json.Unmarshal(env.Data, &m); err != nil {
			continue
		}
		// A consumer that stopped draining must not pin this goroutine:
		// Close unblocks the send via quit.
		select {
		case c.incoming <- m:
		case <-c.quit:
			return
		}
	}
}

// Send emits a message event. Fire-and-forget: confirmation arrives as a
// server echo on Incoming.
func (c *Conn) Send(out Outgoing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("ws: connection closed")
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	env := envelope{Event: EventMessage, Data: data}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.quit)
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
	return c.ws.Close()
}

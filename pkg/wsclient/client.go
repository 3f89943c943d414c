package wsclient

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"wsecho/pkg/wserrors"
)

const writeWait = 10 * time.Second

// Message is one frame received from the server.
type Message struct {
	Type int
	Data []byte
}

// Text reports whether the message is a text frame.
func (m Message) Text() bool {
	return m.Type == websocket.TextMessage
}

// Client is a dialing WebSocket peer. A background reader feeds received
// frames into a channel, so Recv and RecvTimeout never poison the
// connection the way a raw read deadline would.
type Client struct {
	conn      *websocket.Conn
	inbound   chan Message
	done      chan struct{}
	quit      chan struct{}
	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial connects to a ws:// URL and starts the read loop.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:    conn,
		inbound: make(chan Message, 256),
		done:    make(chan struct{}),
		quit:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		// A consumer that stops receiving must not pin this goroutine
		// past Close.
		select {
		case c.inbound <- Message{Type: messageType, Data: data}:
		case <-c.quit:
			return
		}
	}
}

// SendText sends one text frame.
func (c *Client) SendText(s string) error {
	return c.send(websocket.TextMessage, []byte(s))
}

// SendBinary sends one binary frame.
func (c *Client) SendBinary(b []byte) error {
	return c.send(websocket.BinaryMessage, b)
}

func (c *Client) send(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return wserrors.ErrClosed
	default:
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// Recv blocks until the next frame arrives or the connection closes.
func (c *Client) Recv() (Message, error) {
	select {
	case msg := <-c.inbound:
		return msg, nil
	case <-c.done:
		// Drain frames that raced with the close.
		select {
		case msg := <-c.inbound:
			return msg, nil
		default:
		}
		return Message{}, wserrors.ErrClosed
	}
}

// RecvTimeout waits up to d for the next frame.
func (c *Client) RecvTimeout(d time.Duration) (Message, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case msg := <-c.inbound:
		return msg, nil
	case <-timer.C:
		return Message{}, wserrors.ErrTimeout
	case <-c.done:
		select {
		case msg := <-c.inbound:
			return msg, nil
		default:
		}
		return Message{}, wserrors.ErrClosed
	}
}

// Close performs the closing handshake and releases the socket.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()

		close(c.quit)

		// Give the peer a moment to answer the close frame.
		select {
		case <-c.done:
		case <-time.After(time.Second):
		}
		err = c.conn.Close()
	})
	return err
}

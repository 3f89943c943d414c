package server

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// frame is one inbound message queued for echo, keeping its wire type so
// text stays text and binary stays binary.
type frame struct {
	messageType int
	data        []byte
}

// Client represents a single WebSocket connection
type Client struct {
	registry     *Registry
	conn         *websocket.Conn
	outbound     chan frame
	connID       string
	remoteAddr   string
	connectedAt  time.Time
	lastActivity atomic.Int64
	writerDone   chan struct{}
	logger       WebSocketLogger
}

func NewClient(registry *Registry, conn *websocket.Conn, connID string, logger WebSocketLogger) *Client {
	now := time.Now()
	c := &Client{
		registry:    registry,
		conn:        conn,
		outbound:    make(chan frame, 256),
		connID:      connID,
		remoteAddr:  conn.RemoteAddr().String(),
		connectedAt: now,
		writerDone:  make(chan struct{}),
		logger:      logger,
	}
	c.lastActivity.Store(now.UnixNano())
	return c
}

func (c *Client) readPump() {
	defer func() {
		c.registry.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.lastActivity.Store(time.Now().UnixNano())
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket unexpected close", c.connID, c.remoteAddr, err)
			}
			break
		}

		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.lastActivity.Store(time.Now().UnixNano())

		zap.S().Infof("received message: %s", message)

		// Frames are queued to the writer in read order and never dropped
		// while the connection is open, so echoes stay strict FIFO.
		select {
		case c.outbound <- frame{messageType: messageType, data: message}:
		case <-c.writerDone:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.writerDone)
		c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.outbound:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(f.messageType, f.data); err != nil {
				c.logger.Error("websocket write failed", c.connID, c.remoteAddr, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

			if time.Since(time.Unix(0, c.lastActivity.Load())) > pongWait*2 {
				c.logger.Info("client idle timeout", c.connID, c.remoteAddr)
				return
			}
		}
	}
}

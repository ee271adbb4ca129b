package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/internal/speech"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4 << 20 // push-to-talk frames carry base64 audio
)

// Client is one live websocket connection. Inbound frames are
// processed serially by ReadPump, which is what keeps a speaker's
// interim and final messages ordered.
type Client struct {
	ID string

	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	handler *Handler
	logger  *zap.Logger

	mu       sync.Mutex
	roomName string
	session  *speech.Session

	// sendMu serializes queueing against closing, so a fan-out
	// goroutine emitting to a departing client never hits a closed
	// channel.
	sendMu sync.Mutex
	closed bool
}

// enqueue queues an outbound frame. A closed client swallows the
// frame; a full queue reports false so the hub can drop the client.
func (c *Client) enqueue(msg []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend shuts the send queue exactly once.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// NewClient wraps an upgraded connection with a fresh connection id.
func NewClient(hub *Hub, conn *websocket.Conn, handler *Handler, logger *zap.Logger) *Client {
	return &Client{
		ID:      uuid.NewString(),
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		handler: handler,
		logger:  logger,
	}
}

// Room returns the room this connection has joined, if any.
func (c *Client) Room() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomName, c.roomName != ""
}

// Session returns the speech session for the connection, if joined.
func (c *Client) Session() (*speech.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session, c.session != nil
}

func (c *Client) setRoom(roomName string, session *speech.Session) {
	c.mu.Lock()
	c.roomName = roomName
	c.session = session
	c.mu.Unlock()
}

func (c *Client) clearRoom() {
	c.mu.Lock()
	c.roomName = ""
	c.session = nil
	c.mu.Unlock()
}

// frame is the inbound wire shape.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ReadPump reads frames until the connection drops, then tears down
// room membership.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.handler.Disconnect(ctx, c)
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read failed",
					zap.String("connection_id", c.ID), zap.Error(err))
			}
			return
		}

		var f frame
		if err := json.Unmarshal(message, &f); err != nil {
			c.logger.Warn("malformed inbound frame",
				zap.String("connection_id", c.ID), zap.Error(err))
			continue
		}
		c.handler.Handle(ctx, c, f)
	}
}

// WritePump flushes the send queue and keeps the connection alive
// with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

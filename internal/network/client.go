package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is one WebSocket session.
type Client struct {
	hub     *Hub
	router  *Router
	conn    *websocket.Conn
	send    chan []byte
	session string

	minInterval time.Duration
	lastCommand time.Time
}

// ClientOptions configures new sessions.
type ClientOptions struct {
	SendBuffer           int
	MaxMessagesPerSecond int
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, router *Router, conn *websocket.Conn, opts ClientOptions) *Client {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	c := &Client{
		hub:     hub,
		router:  router,
		conn:    conn,
		send:    make(chan []byte, opts.SendBuffer),
		session: uuid.NewString(),
	}
	if opts.MaxMessagesPerSecond > 0 {
		c.minInterval = time.Second / time.Duration(opts.MaxMessagesPerSecond)
	}
	return c
}

// Session is the identifier echoed in every reply.
func (c *Client) Session() string { return c.session }

// Register adds the client to the hub.
func (c *Client) Register() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		close(c.send)
	}
}

func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// ReadPump reads commands from the connection and answers each one.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.leave()
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
				c.hub.logger.Warn(fmt.Sprintf("websocket read, session %s: %v", c.session, err))
				c.hub.metrics.RecordWSError()
			}
			return
		}
		c.hub.metrics.RecordWSMessage(true)

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.reply(Reply{Type: ReplyError, Error: "malformed command: " + err.Error()})
			continue
		}
		if c.limited() {
			c.reply(Reply{ID: cmd.ID, Type: ReplyError, Command: cmd.Type, Error: "rate limit exceeded"})
			continue
		}
		c.reply(c.router.Handle(ctx, cmd))
	}
}

func (c *Client) limited() bool {
	if c.minInterval == 0 {
		return false
	}
	now := time.Now()
	if now.Sub(c.lastCommand) < c.minInterval {
		c.hub.logger.Warn("Rate limit exceeded for session " + c.session)
		return true
	}
	c.lastCommand = now
	return false
}

func (c *Client) reply(r Reply) {
	r.Session = c.session
	raw, err := json.Marshal(r)
	if err != nil {
		c.hub.logger.Error(fmt.Sprintf("encode reply: %v", err))
		return
	}
	defer func() {
		// send was closed by the hub while we were answering.
		recover()
	}()
	select {
	case c.send <- raw:
	default:
		c.hub.metrics.RecordWSError()
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.metrics.RecordWSError()
				return
			}
			c.hub.metrics.RecordWSMessage(false)
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and starts the session's pumps.
func ServeWS(ctx context.Context, hub *Hub, router *Router, opts ClientOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.logger.Error(fmt.Sprintf("websocket upgrade: %v", err))
			hub.metrics.RecordWSError()
			return
		}
		client := NewClient(hub, router, conn, opts)
		client.Register()
		go client.WritePump()
		go client.ReadPump(ctx)
	}
}

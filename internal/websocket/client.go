package websocket

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"switchrecon/internal/config"
	"switchrecon/internal/infrastructure"
	"switchrecon/pkg/contracts/events"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512

	sendBuffer = 256
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Connection is the part of *websocket.Conn a client uses
type Connection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	RemoteAddr() net.Addr
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub *Hub

	// The websocket connection
	conn Connection

	// Buffered channel of outbound messages
	send chan []byte

	// Run ID the client follows, or AllTopics
	topic string

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	pingPeriod time.Duration
	pongWait   time.Duration

	logger *slog.Logger

	messagesSent     int64
	messagesReceived int64
	bytesSent        int64
}

// NewClient creates a client following topic over conn
func NewClient(hub *Hub, conn Connection, topic, traceID string, cfg config.WebSocketConfig, logger *slog.Logger) *Client {
	id := uuid.New().String()
	remote := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		topic:       topic,
		id:          id,
		traceID:     traceID,
		remoteAddr:  remote,
		connectedAt: time.Now(),
		pingPeriod:  cfg.PingPeriod,
		pongWait:    cfg.PongWait,
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
			slog.String("topic", topic)),
	}
}

func (c *Client) context() context.Context {
	return infrastructure.WithTraceID(context.Background(), c.traceID)
}

// ReadPump drains the connection until the peer goes away. Clients only
// send heartbeats; anything else is ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.logger.InfoContext(c.context(), "WebSocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived))
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.context(), "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
		c.messagesReceived++

		if events.ParseType(message) == events.MessageTypeHeartbeat {
			c.logger.Debug("Heartbeat received")
			// Heartbeats count as liveness like pongs do
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection and
// pings the peer every ping period.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.InfoContext(c.context(), "WebSocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent),
			slog.Int64("bytes_sent", c.bytesSent))
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.WarnContext(c.context(), "Failed to write message",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent++
			c.bytesSent += int64(len(message))

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

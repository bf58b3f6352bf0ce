package websocket

import (
	"context"
	"log/slog"
	"sync"

	"switchrecon/internal/infrastructure"
	"switchrecon/pkg/contracts/events"
)

// TypeRunSnapshot is the type of every server-sent frame
const TypeRunSnapshot = string(events.MessageTypeRunSnapshot)

// AllTopics subscribes a client to every published message
const AllTopics = ""

type publication struct {
	topic string
	data  []byte
}

// Hub maintains the set of active clients and routes published messages
// to the clients subscribed to their topic.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan publication

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.RunMetrics

	quit     chan struct{}
	stopOnce sync.Once
	running  bool
}

// NewHub creates a new Hub instance. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.RunMetrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan publication, 256),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		metrics:    metrics,
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop in the background
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Stop ends the hub loop and disconnects every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Run is the hub's main loop
func (h *Hub) Run() {
	ctx := context.Background()
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			if h.metrics != nil {
				h.metrics.WebSocketConnections.Add(ctx, 1)
			}
			h.logger.InfoContext(infrastructure.WithTraceID(ctx, client.traceID), "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("topic", client.topic),
				slog.String("remote_addr", client.remoteAddr))

		case client := <-h.unregister:
			h.remove(client, "Client unregistered")

		case pub := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				if client.topic == AllTopics || client.topic == pub.topic {
					targets = append(targets, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range targets {
				select {
				case client.send <- pub.data:
				default:
					h.remove(client, "Client send buffer full, disconnecting")
				}
			}
			h.logger.Debug("Published message",
				slog.String("topic", pub.topic),
				slog.Int("client_count", len(targets)),
				slog.Int("message_size", len(pub.data)))
		}
	}
}

func (h *Hub) remove(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := infrastructure.WithTraceID(context.Background(), client.traceID)
	if h.metrics != nil {
		h.metrics.WebSocketConnections.Add(ctx, -1)
	}
	h.logger.InfoContext(ctx, reason,
		slog.Int("total_clients", count),
		slog.String("client_id", client.id))
}

// Publish queues data for every client subscribed to topic. It blocks
// while the queue is full and returns immediately once the hub stopped.
func (h *Hub) Publish(topic string, data []byte) {
	select {
	case h.broadcast <- publication{topic: topic, data: data}:
	case <-h.quit:
	}
}

// Register adds a client
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		close(client.send)
	}
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

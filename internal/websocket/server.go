package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/gorilla/websocket"

	"switchrecon/internal/config"
	"switchrecon/internal/infrastructure"
)

// Server upgrades HTTP requests into hub subscriptions
type Server struct {
	hub      *Hub
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer creates an upgrade server for hub
func NewServer(hub *Hub, cfg config.WebSocketConfig, logger *slog.Logger) *Server {
	s := &Server{
		hub:    hub,
		cfg:    cfg,
		logger: infrastructure.WithComponent(logger, "websocket.server"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	if slices.Contains(s.cfg.AllowedOrigins, origin) {
		return true
	}
	s.logger.WarnContext(r.Context(), "WebSocket origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", s.cfg.AllowedOrigins))
	return false
}

// Serve upgrades the request and subscribes the connection to topic. A
// non-nil initial frame is queued before any published message.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, topic string, initial []byte) error {
	ctx := r.Context()
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the error response
		s.logger.ErrorContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")))
		return err
	}

	client := NewClient(s.hub, conn, topic, infrastructure.GetTraceID(ctx), s.cfg, s.logger)
	if initial != nil {
		client.send <- initial
	}
	s.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
	return nil
}

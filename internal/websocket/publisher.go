package websocket

import (
	"encoding/json"
	"log/slog"

	"switchrecon/internal/infrastructure"
	"switchrecon/internal/operations"
	"switchrecon/pkg/contracts/events"
)

// RunPublisher pushes run snapshots to the clients following each run
type RunPublisher struct {
	hub    *Hub
	logger *slog.Logger
}

// NewRunPublisher creates a publisher on hub
func NewRunPublisher(hub *Hub, logger *slog.Logger) *RunPublisher {
	return &RunPublisher{
		hub:    hub,
		logger: infrastructure.WithComponent(logger, "websocket.publisher"),
	}
}

// PublishRun implements operations.Publisher
func (p *RunPublisher) PublishRun(run operations.Run) {
	data, err := EncodeRun(run)
	if err != nil {
		p.logger.Error("Failed to encode run snapshot",
			slog.String("run_id", run.ID),
			slog.String("error", err.Error()))
		return
	}
	p.hub.Publish(run.ID, data)
}

// EncodeRun wraps run in a snapshot envelope
func EncodeRun(run operations.Run) ([]byte, error) {
	return json.Marshal(events.NewMessage(events.MessageTypeRunSnapshot, run, run.TraceID))
}

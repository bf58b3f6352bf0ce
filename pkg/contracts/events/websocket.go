// Package events defines the frames exchanged over the run progress
// websocket.
package events

import (
	"encoding/json"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeRunSnapshot carries the full current state of one run. It
	// is the only server-sent message type.
	MessageTypeRunSnapshot MessageType = "run:snapshot"

	// MessageTypeHeartbeat is sent by clients to keep an idle connection open
	MessageTypeHeartbeat MessageType = "heartbeat"
)

// Message is the envelope of every WebSocket frame
type Message struct {
	Type      MessageType `json:"type"`
	Data      any         `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// NewMessage stamps an envelope with the current time
func NewMessage(t MessageType, data any, traceID string) Message {
	return Message{
		Type:      t,
		Data:      data,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
	}
}

// ParseType returns the type of a client frame. Frames that are not JSON
// objects yield an empty type.
func ParseType(frame []byte) MessageType {
	var head struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(frame, &head); err != nil {
		return ""
	}
	return head.Type
}

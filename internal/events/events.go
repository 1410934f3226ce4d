// Package events describes what happens during a tool invocation.
package events

import "time"

// Type represents an emitted event type.
type Type string

const (
	ToolCallStarted  Type = "ToolCallStarted"
	ToolCallFinished Type = "ToolCallFinished"
	ToolCallFailed   Type = "ToolCallFailed"
	FallbackStarted  Type = "FallbackStarted"
)

// Event is the common envelope for renderer events.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// ToolCallStartedPayload marks tool call start.
type ToolCallStartedPayload struct {
	RequestID string    `json:"request_id"`
	ToolName  string    `json:"tool_name"`
	Input     string    `json:"input"`
	StartedAt time.Time `json:"started_at"`
}

// ToolCallFinishedPayload marks tool call end, successful or not.
type ToolCallFinishedPayload struct {
	RequestID  string `json:"request_id"`
	ToolName   string `json:"tool_name"`
	Status     string `json:"status"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Preview    string `json:"preview"`
	ByteCount  int    `json:"byte_count"`
	DurationMs int64  `json:"duration_ms"`
}

// FallbackPayload records a primary path failure that triggered a fallback.
type FallbackPayload struct {
	RequestID string `json:"request_id"`
	ToolName  string `json:"tool_name"`
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
}

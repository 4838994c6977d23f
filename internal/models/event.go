package models

import "time"

// Dispatch lifecycle event types.
const (
	EventTypeReceived = "received"
	EventTypeSent     = "sent"
	EventTypeFailed   = "failed"
)

// DispatchEvent records the outcome of one reply dispatch. Events are emitted
// to the optional diagnostics topic and mirror what the dispatcher logs.
type DispatchEvent struct {
	EventID        string    `json:"event_id"`
	MessageID      string    `json:"message_id,omitempty"`
	From           string    `json:"from,omitempty"`
	EventType      string    `json:"event_type"`
	ReplyMessageID string    `json:"reply_message_id,omitempty"`
	Classification string    `json:"classification,omitempty"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

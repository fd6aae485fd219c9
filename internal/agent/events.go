package agent

import (
	"time"

	"chat-clone/internal/render"
)

// Stream event types written to NDJSON clients.
const (
	EventStart  = "start"
	EventStatus = "status"
	EventText   = "text"
	EventCode   = "code"
	EventUsage  = "usage"
	EventError  = "error"
	EventDone   = "done"
)

// UsageSnapshot represents token usage reported for a finished turn.
type UsageSnapshot struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
	TotalTokens  int `json:"total_tokens,omitempty"`
}

// StreamEvent is the NDJSON event schema for chat streaming.
//
// Text and code events carry the whole accumulated value in Text so a
// client can replace its placeholder instead of appending; Delta holds the
// raw fragment that produced it.
type StreamEvent struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	RunID     string         `json:"run_id,omitempty"`
	Seq       int            `json:"seq,omitempty"`
	TS        time.Time      `json:"ts,omitempty"`
	Event     string         `json:"event,omitempty"`
	Label     string         `json:"label,omitempty"`
	State     render.State   `json:"state,omitempty"`
	Text      string         `json:"text,omitempty"`
	Delta     string         `json:"delta,omitempty"`
	Message   string         `json:"message,omitempty"`
	Usage     *UsageSnapshot `json:"usage,omitempty"`
}

func statusEvent(eventType string, status render.Status) StreamEvent {
	return StreamEvent{
		Type:  EventStatus,
		Event: eventType,
		Label: status.Label,
		State: status.State,
	}
}

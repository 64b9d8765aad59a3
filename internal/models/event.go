package models

import "time"

// Bar event types on the ingestion topic.
const (
	EventTypeBar1m = "BAR_1M"
)

// Bar event types on the outbound topic.
const (
	EventTypeBarStored   = "BAR_STORED"
	EventTypeBarRejected = "BAR_REJECTED"
)

// BarEvent is the Kafka envelope for a single 1-minute bar produced by an
// acquisition collaborator (live tick subscriber or backfill script).
// Prices arrive as strings so producers in any language keep full precision.
type BarEvent struct {
	EventType string       `json:"event_type"`
	Source    string       `json:"source"`
	Data      BarEventData `json:"data"`
	Timestamp time.Time    `json:"timestamp"`
}

// BarEventData carries the bar payload of a BarEvent.
type BarEventData struct {
	Code   string `json:"code"`
	TS     string `json:"ts"` // RFC3339, local market time
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume int64  `json:"volume"`
}

// BarStatusEvent is published after ingestion: BAR_STORED for accepted bars,
// BAR_REJECTED with a reason for bars that failed validation.
type BarStatusEvent struct {
	EventType string    `json:"event_type"`
	Code      string    `json:"code"`
	TS        time.Time `json:"ts"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

package types

import "time"

// Event kinds. Kind is a coarse classification of what happened, distinct
// from Severity which grades how bad it is.
const (
	KindError = "error"
	KindEvent = "event"
)

// Event severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// StreamEventType is the envelope type tag for events fanned out to observers.
const StreamEventType = "webhook_event"

// LogEvent is the canonical form every inbound webhook payload is normalized
// into. Instances are immutable once created; the hub and observers never
// modify them.
//
// The JSON field names are the dashboard wire contract — note that Kind is
// serialized as "type".
type LogEvent struct {
	// ID is the provider-supplied correlation identifier. Not guaranteed
	// unique across provider restarts, but treated as unique within this
	// process's lifetime.
	ID string `json:"id"`

	// Timestamp is when the event occurred; falls back to receipt time
	// when the source payload carries no creation time.
	Timestamp time.Time `json:"timestamp"`

	// Kind is one of KindError | KindEvent.
	Kind string `json:"type"`

	// Severity is one of SeverityError | SeverityWarning | SeverityInfo.
	Severity string `json:"severity"`

	// Message is a human-readable summary.
	Message string `json:"message"`

	// Source is a free-text origin label, e.g. "batch-prod" or "alert-prod".
	Source string `json:"source"`

	// Metadata carries type-specific fields (flow identifiers, durations,
	// byte counts, alert names, status codes). Only the normalizer writes
	// it and only presentation reads it.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IsError reports whether the event should count against the error series:
// either its kind or its severity marks it as an error.
func (e LogEvent) IsError() bool {
	return e.Kind == KindError || e.Severity == SeverityError
}

// StreamMessage is the JSON envelope for server→observer WebSocket frames.
type StreamMessage struct {
	Type string   `json:"type"`
	Data LogEvent `json:"data"`
}

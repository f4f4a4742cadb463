package events

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys of published workflow events.
const (
	KeyVIPTagged       = "vip.tagged.v1"
	KeyVIPTagFailed    = "vip.tag_failed.v1"
	KeyRequestRouted   = "request.routed.v1"
	KeyRequestUnrouted = "request.unrouted.v1"
)

// Envelope wraps every published event.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

type Meta struct {
	// Trace / request correlation ID
	CorrelationID *string `json:"correlation_id,omitempty"`
	// Unique event ID
	ID string `json:"id"`
	// Emitting service
	Producer *string `json:"producer,omitempty"`
	// Timestamp when the event was emitted
	Time time.Time `json:"time"`
	// Event name and version, e.g. vip.tagged.v1
	Type string `json:"type"`
}

// VIPTagged is the payload of vip.tagged.v1 and vip.tag_failed.v1.
type VIPTagged struct {
	Username string `json:"username"`
	ClientID int64  `json:"client_id,omitempty"`
	TagID    int64  `json:"tag_id,omitempty"`
	Outcome  string `json:"outcome"`
	Source   string `json:"source"`
}

// RequestRouted is the payload of request.routed.v1 and request.unrouted.v1.
type RequestRouted struct {
	ClientID   int64  `json:"client_id"`
	DialogID   int64  `json:"dialog_id"`
	RequestID  int64  `json:"request_id,omitempty"`
	OperatorID int64  `json:"operator_id"`
	Outcome    string `json:"outcome"`
	Source     string `json:"source"`
}

// NewEnvelope builds an envelope with a fresh event id. An empty
// correlationID or producer is omitted.
func NewEnvelope(eventType, producer, correlationID string, data any) Envelope {
	meta := Meta{
		ID:   uuid.NewString(),
		Time: time.Now().UTC(),
		Type: eventType,
	}
	if producer != "" {
		meta.Producer = &producer
	}
	if correlationID != "" {
		meta.CorrelationID = &correlationID
	}
	return Envelope{Meta: meta, Data: data}
}

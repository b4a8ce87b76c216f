package outbox

import (
	"encoding/json"
	"time"
)

// Message attribute names carried on every transport.
const (
	AttrEventID       = "event_id"
	AttrEventType     = "event_type"
	AttrAggregateType = "aggregate_type"
	AttrAggregateID   = "aggregate_id"
	AttrCreatedAt     = "created_at"
)

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Message is a transport-neutral event ready to publish. Key selects the
// partition (Kafka) or ordering key (Pub/Sub).
type Message struct {
	Topic      string
	Key        string
	Data       []byte
	Attributes map[string]string
}

package broadcast

import "time"

// SSE event names used on the wire.
const (
	// EventConnected is sent once, immediately after a client's stream
	// is registered.
	EventConnected = "connected"

	// EventEntity carries a broadcast entity-change envelope.
	EventEntity = "entity-event"
)

// EnvelopeTypeEvent is the fixed type discriminator of broadcast
// envelopes.
const EnvelopeTypeEvent = "event"

// Metadata describes the origin of an entity-change event.
type Metadata struct {
	Entity      string    `json:"entity"`
	Action      string    `json:"action"`
	ShopID      string    `json:"shopId"`
	BranchID    string    `json:"branchId"`
	Timestamp   time.Time `json:"timestamp"`
	TriggeredBy *string   `json:"triggeredBy"`
}

// Envelope is the JSON body of every entity-event frame.
type Envelope struct {
	Type     string         `json:"type"`
	Data     map[string]any `json:"data"`
	Metadata Metadata       `json:"metadata"`
}

// NewEnvelope builds an entity-event envelope stamped with the current
// time.
func NewEnvelope(entity, action string, data map[string]any, shopID, branchID string, triggeredBy *string) Envelope {
	return Envelope{
		Type: EnvelopeTypeEvent,
		Data: data,
		Metadata: Metadata{
			Entity:      entity,
			Action:      action,
			ShopID:      shopID,
			BranchID:    branchID,
			Timestamp:   time.Now().UTC(),
			TriggeredBy: triggeredBy,
		},
	}
}

// ConnectedAck is the data payload of the connected frame.
type ConnectedAck struct {
	ClientID string `json:"clientId"`
	Room     string `json:"room"`
}

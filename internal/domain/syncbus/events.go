// Package syncbus is the priority-ordered event bus that tells roster and
// recruitment screens about ledger and negotiation changes, and the
// consistency pass that repairs drifted roster counters.
package syncbus

import "time"

// EventType names a bus event.
type EventType string

const (
	EventNegotiationStarted   EventType = "negotiationStarted"
	EventOfferUpdated         EventType = "offerUpdated"
	EventNegotiationRejected  EventType = "negotiationRejected"
	EventNegotiationWithdrawn EventType = "negotiationWithdrawn"
	EventPlayerSigned         EventType = "playerSigned"
	EventCoachSigned          EventType = "coachSigned"
	EventPlayerReleased       EventType = "playerReleased"
	EventAwardRenegotiated    EventType = "awardRenegotiated"
	EventLedgerRepaired       EventType = "ledgerRepaired"

	// EventAny subscribes to every event type. It cannot be published.
	EventAny EventType = "*"
)

// OriginLocal marks events produced in this process.
const OriginLocal = "local"

// defaultPriority is the informational priority stamped on events. It does
// not affect dispatch order, which is decided by subscriber priority.
var defaultPriority = map[EventType]int32{
	EventPlayerSigned:         100,
	EventCoachSigned:          100,
	EventLedgerRepaired:       90,
	EventPlayerReleased:       80,
	EventAwardRenegotiated:    80,
	EventNegotiationStarted:   50,
	EventOfferUpdated:         50,
	EventNegotiationRejected:  40,
	EventNegotiationWithdrawn: 40,
}

// EventTypes lists every publishable type.
func EventTypes() []EventType {
	return []EventType{
		EventNegotiationStarted, EventOfferUpdated, EventNegotiationRejected,
		EventNegotiationWithdrawn, EventPlayerSigned, EventCoachSigned,
		EventPlayerReleased, EventAwardRenegotiated, EventLedgerRepaired,
	}
}

// Valid reports whether t can be published.
func (t EventType) Valid() bool {
	_, ok := defaultPriority[t]
	return ok
}

// DefaultPriority returns the priority stamped on events of type t.
func DefaultPriority(t EventType) int32 {
	return defaultPriority[t]
}

// Event is one dispatched bus event. Handlers must treat Payload as
// read-only; it is shared by every handler of the dispatch.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Priority  int32     `json:"priority"`
	Timestamp time.Time `json:"timestamp"`
	Origin    string    `json:"origin"`
}

// PublishReport summarizes one dispatch.
type PublishReport struct {
	EventID   string
	Delivered int
	Failed    int
}

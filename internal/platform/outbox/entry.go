// Package outbox relays rows written inside business transactions to Kafka.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one outbox row. Payload is the JSON body published to the broker.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// NewEntry builds an unpublished entry.
func NewEntry(aggregateType, aggregateID, eventType string, payload []byte, at time.Time) Entry {
	return Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
	}
}

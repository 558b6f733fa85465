package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxMessage is written in the same transaction as the state change
// it announces and published to the broker asynchronously.
type OutboxMessage struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Status        string // NEW, PUBLISHED, FAILED
	DedupeKey     string
}

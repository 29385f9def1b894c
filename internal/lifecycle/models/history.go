package models

import (
	"time"

	"github.com/google/uuid"
)

// StateHistory is one append-only audit row. FromState is nil only on the creation row.
type StateHistory struct {
	ID         uuid.UUID
	Seq        int64
	EntityKind EntityKind
	EntityID   uuid.UUID
	FromState  State
	ToState    State
	ActorID    string
	ActorRole  Role
	Reason     string
	CreatedAt  time.Time
}

// NewHistory builds a history row for a transition of ref.
func NewHistory(ref Ref, from, to State, actor Actor, reason string, at time.Time) StateHistory {
	return StateHistory{
		ID:         uuid.New(),
		EntityKind: ref.Kind,
		EntityID:   ref.ID,
		FromState:  from,
		ToState:    to,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Reason:     reason,
		CreatedAt:  at,
	}
}

// Page bounds a history read.
type Page struct {
	Limit  int
	Offset int
}

// Default and maximum history page sizes.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"artpriv/internal/lifecycle/models"
	"artpriv/internal/platform/outbox"
)

// eventPayload is the outbox representation of a lifecycle event.
type eventPayload struct {
	Event         string    `json:"event"`
	EntityKind    string    `json:"entity_kind"`
	EntityID      string    `json:"entity_id"`
	FromState     string    `json:"from_state,omitempty"`
	ToState       string    `json:"to_state,omitempty"`
	ActorID       string    `json:"actor_id,omitempty"`
	ActorRole     string    `json:"actor_role,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	BankID        string    `json:"bank_id,omitempty"`
	ConsentID     string    `json:"consent_id,omitempty"`
	ConsentStatus string    `json:"consent_status,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func outboxEntry(event models.Event, at time.Time) (outbox.Entry, error) {
	var p eventPayload
	switch ev := event.(type) {
	case models.TransitionCommitted:
		p = eventPayload{
			EntityKind: string(ev.Ref.Kind),
			EntityID:   ev.Ref.ID.String(),
			FromState:  models.StateString(ev.From),
			ToState:    models.StateString(ev.To),
			ActorID:    ev.Actor.ID,
			ActorRole:  string(ev.Actor.Role),
			Reason:     ev.Reason,
			RequestID:  ev.RequestID,
			OccurredAt: ev.At,
		}
	case models.ConsentVerified:
		p = eventPayload{
			EntityKind:    string(models.KindDonor),
			EntityID:      ev.DonorID.String(),
			BankID:        ev.BankID.String(),
			ConsentID:     ev.ConsentID.String(),
			ConsentStatus: string(ev.Status),
			RequestID:     ev.RequestID,
			OccurredAt:    ev.At,
		}
	default:
		return outbox.Entry{}, fmt.Errorf("unsupported event %T", event)
	}
	p.Event = event.EventName()

	payload, err := json.Marshal(p)
	if err != nil {
		return outbox.Entry{}, fmt.Errorf("marshal %s payload: %w", p.Event, err)
	}
	return outbox.NewEntry(p.EntityKind, p.EntityID, p.Event, payload, at), nil
}

package models

import (
	"time"

	id "artpriv/pkg/domain"
)

// Event names.
const (
	EventTransitionCommitted = "lifecycle.transition_committed"
	EventConsentVerified     = "lifecycle.consent_verified"
)

// Event is delivered to observers after its unit of work commits.
type Event interface {
	EventName() string
}

// TransitionCommitted is emitted for every committed transition.
type TransitionCommitted struct {
	Ref       Ref
	From      State
	To        State
	Actor     Actor
	Reason    string
	RequestID string
	At        time.Time
}

func (TransitionCommitted) EventName() string { return EventTransitionCommitted }

// ConsentVerified is emitted when a bank verifies or rejects a donor consent.
type ConsentVerified struct {
	DonorID   id.DonorID
	BankID    id.BankID
	ConsentID id.ConsentID
	Status    ConsentStatus
	RequestID string
	At        time.Time
}

func (ConsentVerified) EventName() string { return EventConsentVerified }

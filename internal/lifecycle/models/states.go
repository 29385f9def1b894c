package models

import (
	"fmt"

	dErrors "artpriv/pkg/domain-errors"
)

// EntityKind names the two lifecycle-bearing aggregates.
type EntityKind string

const (
	KindDonor EntityKind = "donor"
	KindBank  EntityKind = "bank"
)

func (k EntityKind) String() string { return string(k) }

// IsValid reports whether k is a known entity kind.
func (k EntityKind) IsValid() bool {
	return k == KindDonor || k == KindBank
}

// ParseEntityKind parses a wire value into an EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(s)
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown entity kind %q", s))
	}
	return k, nil
}

// State is a lifecycle state of either entity kind. The unexported marker
// keeps the variant set closed to DonorState and BankState.
type State interface {
	fmt.Stringer
	Kind() EntityKind
	isState()
}

// DonorState enumerates the donor onboarding chain.
type DonorState string

const (
	DonorVisitor             DonorState = "visitor"
	DonorBankSelected        DonorState = "bank_selected"
	DonorLeadCreated         DonorState = "lead_created"
	DonorAccountCreated      DonorState = "account_created"
	DonorCounselingRequested DonorState = "counseling_requested"
	DonorConsentPending      DonorState = "consent_pending"
	DonorConsentVerified     DonorState = "consent_verified"
	DonorTestsPending        DonorState = "tests_pending"
	DonorEligibilityDecision DonorState = "eligibility_decision"
	DonorOnboarded           DonorState = "donor_onboarded"
)

// DonorStates lists every donor state in chain order.
var DonorStates = []DonorState{
	DonorVisitor,
	DonorBankSelected,
	DonorLeadCreated,
	DonorAccountCreated,
	DonorCounselingRequested,
	DonorConsentPending,
	DonorConsentVerified,
	DonorTestsPending,
	DonorEligibilityDecision,
	DonorOnboarded,
}

func (s DonorState) String() string   { return string(s) }
func (s DonorState) Kind() EntityKind { return KindDonor }
func (DonorState) isState()           {}

// IsValid reports whether s is one of the declared donor states.
func (s DonorState) IsValid() bool {
	for _, v := range DonorStates {
		if v == s {
			return true
		}
	}
	return false
}

// BankState enumerates the bank onboarding chain.
type BankState string

const (
	BankAccountCreated      BankState = "account_created"
	BankVerificationPending BankState = "verification_pending"
	BankVerified            BankState = "verified"
	BankSubscriptionPending BankState = "subscription_pending"
	BankSubscribedOnboarded BankState = "subscribed_onboarded"
	BankOperational         BankState = "operational"
)

// BankStates lists every bank state in chain order.
var BankStates = []BankState{
	BankAccountCreated,
	BankVerificationPending,
	BankVerified,
	BankSubscriptionPending,
	BankSubscribedOnboarded,
	BankOperational,
}

func (s BankState) String() string   { return string(s) }
func (s BankState) Kind() EntityKind { return KindBank }
func (BankState) isState()           {}

// IsValid reports whether s is one of the declared bank states.
func (s BankState) IsValid() bool {
	for _, v := range BankStates {
		if v == s {
			return true
		}
	}
	return false
}

// ParseState parses a wire value for the given kind.
func ParseState(kind EntityKind, s string) (State, error) {
	switch kind {
	case KindDonor:
		if ds := DonorState(s); ds.IsValid() {
			return ds, nil
		}
	case KindBank:
		if bs := BankState(s); bs.IsValid() {
			return bs, nil
		}
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown entity kind %q", kind))
	}
	return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown %s state %q", kind, s))
}

// StatesOf returns every state of kind in chain order.
func StatesOf(kind EntityKind) []State {
	switch kind {
	case KindDonor:
		out := make([]State, len(DonorStates))
		for i, s := range DonorStates {
			out[i] = s
		}
		return out
	case KindBank:
		out := make([]State, len(BankStates))
		for i, s := range BankStates {
			out[i] = s
		}
		return out
	}
	return nil
}

// StateString renders a possibly-nil state; nil renders empty.
func StateString(s State) string {
	if s == nil {
		return ""
	}
	return s.String()
}

// Package guard evaluates per-edge preconditions for lifecycle transitions.
//
// Check is pure: every fact it needs is passed in. The engine asks Needs which
// facts to load and loads them inside the same transaction as the write.
package guard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"artpriv/internal/lifecycle/graph"
	"artpriv/internal/lifecycle/models"
	"artpriv/internal/lifecycle/quorum"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
)

// ReasonCode identifies the unmet precondition.
type ReasonCode string

const (
	ReasonCounselingMethodRequired    ReasonCode = "counseling_method_required"
	ReasonCounselingMethodNotAllowed  ReasonCode = "counseling_method_not_allowed"
	ReasonNoSignedConsent             ReasonCode = "no_signed_consent"
	ReasonQuorumNotMet                ReasonCode = "quorum_not_met"
	ReasonNoTestReport                ReasonCode = "no_test_report"
	ReasonEligibilityDecisionRequired ReasonCode = "eligibility_decision_required"
	ReasonEligibilityNotApproved      ReasonCode = "eligibility_not_approved"
	ReasonBankNotSelected             ReasonCode = "bank_not_selected"
	ReasonCredentialsRequired         ReasonCode = "credentials_required"
	ReasonCertificationRequired       ReasonCode = "certification_required"
	ReasonVerifierRequired            ReasonCode = "verifier_required"
	ReasonSubscriptionDetailsRequired ReasonCode = "subscription_details_required"
	ReasonSubscriptionNotActive       ReasonCode = "subscription_not_active"
	ReasonBankNotOperational          ReasonCode = "bank_not_operational"
	ReasonTemplatesIncomplete         ReasonCode = "consent_templates_incomplete"
)

// Violation is the typed cause carried by a precondition_failed error.
type Violation struct {
	Reason  ReasonCode
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Reason, v.Message)
}

// Fail builds a precondition_failed error wrapping a Violation.
func Fail(reason ReasonCode, msg string) error {
	return dErrors.Wrap(&Violation{Reason: reason, Message: msg}, dErrors.CodePreconditionFailed, msg)
}

// ReasonOf extracts the violation reason from err.
func ReasonOf(err error) (ReasonCode, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v.Reason, true
	}
	return "", false
}

// Need is a bitset of facts a guard requires.
type Need uint8

const (
	NeedBank Need = 1 << iota
	NeedConsentCounts
	NeedReportCount
)

// Has reports whether n includes f.
func (n Need) Has(f Need) bool { return n&f != 0 }

// Facts are loaded by the engine inside the transition's transaction.
type Facts struct {
	// Bank is the donor's bank, when NeedBank is requested for a donor edge.
	Bank     *models.Bank
	Consents models.ConsentCounts
	Reports  int
}

// EligibilityDecision is the bank's payload for tests_pending -> eligibility_decision.
type EligibilityDecision struct {
	Status models.EligibilityStatus
	Notes  string
}

// SubscriptionDetails is the payload for verified -> subscription_pending.
type SubscriptionDetails struct {
	Tier           string
	BillingDetails map[string]any
	ExpiresAt      *time.Time
}

// Input is caller-supplied context for a transition. The engine writes it onto
// the entity when the edge commits.
type Input struct {
	CounselingMethod models.CounselingMethod
	CounselingNotes  string
	// CounselingSessionID names the session opened by the counseling edge. A
	// nil ID gets a fresh one.
	CounselingSessionID id.CounselingSessionID
	Eligibility         *EligibilityDecision
	VerifiedBy          string
	Subscription        *SubscriptionDetails
}

// Needs reports which facts Check requires for edge.
func Needs(edge graph.Edge) Need {
	switch edge.To {
	case models.DonorCounselingRequested:
		return NeedBank
	case models.DonorConsentPending, models.DonorConsentVerified:
		return NeedConsentCounts
	case models.DonorTestsPending:
		return NeedReportCount
	}
	return 0
}

// Check evaluates the precondition of edge against entity. It returns nil or a
// precondition_failed error wrapping *Violation.
func Check(edge graph.Edge, entity models.Entity, facts Facts, in Input) error {
	switch e := entity.(type) {
	case *models.Donor:
		return checkDonor(edge, e, facts, in)
	case *models.Bank:
		return checkBank(edge, e, in)
	}
	return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("unsupported entity %T", entity))
}

func checkDonor(edge graph.Edge, d *models.Donor, facts Facts, in Input) error {
	switch edge.To {
	case models.DonorBankSelected:
		if d.BankID == nil {
			return Fail(ReasonBankNotSelected, "donor has not selected a bank")
		}
	case models.DonorLeadCreated:
		// unconditional once a bank is selected
	case models.DonorAccountCreated:
		if !d.HasCredentials {
			return Fail(ReasonCredentialsRequired, "account credentials are required")
		}
	case models.DonorCounselingRequested:
		if in.CounselingMethod == "" {
			return Fail(ReasonCounselingMethodRequired, "counseling method is required")
		}
		var cfg *models.CounselingConfig
		if facts.Bank != nil {
			cfg = facts.Bank.CounselingConfig
		}
		if !cfg.Allows(in.CounselingMethod) {
			return Fail(ReasonCounselingMethodNotAllowed,
				fmt.Sprintf("counseling method %q is not offered by the bank", in.CounselingMethod))
		}
	case models.DonorConsentPending:
		if facts.Consents.Signed < 1 {
			return Fail(ReasonNoSignedConsent, "at least one consent must be signed")
		}
	case models.DonorConsentVerified:
		if !quorum.Satisfied(facts.Consents) {
			return Fail(ReasonQuorumNotMet, "quorum not met")
		}
	case models.DonorTestsPending:
		if facts.Reports < 1 {
			return Fail(ReasonNoTestReport, "at least one test report is required")
		}
	case models.DonorEligibilityDecision:
		if in.Eligibility == nil || !in.Eligibility.Status.IsDecision() {
			return Fail(ReasonEligibilityDecisionRequired, "eligibility decision must be approved or rejected")
		}
	case models.DonorOnboarded:
		if d.EligibilityStatus != models.EligibilityApproved {
			return Fail(ReasonEligibilityNotApproved, "donor eligibility is not approved")
		}
	}
	return nil
}

func checkBank(edge graph.Edge, b *models.Bank, in Input) error {
	switch edge.To {
	case models.BankVerificationPending:
		if len(b.CertificationDocuments) == 0 {
			return Fail(ReasonCertificationRequired, "at least one certification document is required")
		}
	case models.BankVerified:
		if strings.TrimSpace(in.VerifiedBy) == "" {
			return Fail(ReasonVerifierRequired, "verified_by is required")
		}
		if len(b.CertificationDocuments) == 0 {
			return Fail(ReasonCertificationRequired, "at least one certification document is required")
		}
	case models.BankSubscriptionPending:
		if in.Subscription == nil || strings.TrimSpace(in.Subscription.Tier) == "" {
			return Fail(ReasonSubscriptionDetailsRequired, "subscription tier is required")
		}
	case models.BankSubscribedOnboarded:
		if !b.IsSubscribed {
			return Fail(ReasonSubscriptionNotActive, "subscription is not active")
		}
	case models.BankOperational:
		// unconditional finalization
	}
	return nil
}

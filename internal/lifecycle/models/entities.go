// Package models defines the canonical lifecycle entities shared by the
// engine, the stores and the donor and bank services.
package models

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
)

// Ref addresses one lifecycle entity.
type Ref struct {
	Kind EntityKind
	ID   uuid.UUID
}

func DonorRef(donorID id.DonorID) Ref { return Ref{Kind: KindDonor, ID: uuid.UUID(donorID)} }
func BankRef(bankID id.BankID) Ref    { return Ref{Kind: KindBank, ID: uuid.UUID(bankID)} }

// Key is the stable string form used for lock sharding.
func (r Ref) Key() string { return string(r.Kind) + ":" + r.ID.String() }

func (r Ref) String() string { return r.Key() }

// Entity is a lifecycle-bearing aggregate.
type Entity interface {
	EntityRef() Ref
	CurrentState() State
	CloneEntity() Entity
}

// Advance sets the state of e to to. The state kind must match the entity kind.
func Advance(e Entity, to State, at time.Time) error {
	switch ent := e.(type) {
	case *Donor:
		ds, ok := to.(DonorState)
		if !ok {
			return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("state %v is not a donor state", to))
		}
		ent.State = ds
		ent.UpdatedAt = at
	case *Bank:
		bs, ok := to.(BankState)
		if !ok {
			return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("state %v is not a bank state", to))
		}
		ent.State = bs
		ent.UpdatedAt = at
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("unsupported entity %T", e))
	}
	return nil
}

// DocumentRef points at an externally stored document.
type DocumentRef struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CounselingMethod is how a counseling session is held.
type CounselingMethod string

const (
	CounselingCall     CounselingMethod = "call"
	CounselingVideo    CounselingMethod = "video"
	CounselingInPerson CounselingMethod = "in_person"
	CounselingEmail    CounselingMethod = "email"
)

// IsValid reports whether m is a known counseling method.
func (m CounselingMethod) IsValid() bool {
	switch m {
	case CounselingCall, CounselingVideo, CounselingInPerson, CounselingEmail:
		return true
	}
	return false
}

// CounselingConfig is a bank's counseling offer. Empty Methods allows every method.
type CounselingConfig struct {
	Methods     []CounselingMethod `json:"methods"`
	TimeSlots   []string           `json:"time_slots"`
	AutoApprove bool               `json:"auto_approve"`
}

// Allows reports whether method may be requested under this config.
func (c *CounselingConfig) Allows(method CounselingMethod) bool {
	if c == nil || len(c.Methods) == 0 {
		return true
	}
	return slices.Contains(c.Methods, method)
}

// Bank is a fertility-donation facility.
type Bank struct {
	ID          id.BankID
	Email       string
	Name        string
	Address     string
	Phone       string
	Website     string
	Description string
	LogoURL     string
	State       BankState

	CertificationDocuments []DocumentRef

	IsVerified bool
	VerifiedAt *time.Time
	VerifiedBy string

	IsSubscribed          bool
	SubscriptionTier      string
	SubscriptionStartedAt *time.Time
	SubscriptionExpiresAt *time.Time
	BillingDetails        map[string]any

	CounselingConfig *CounselingConfig

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *Bank) EntityRef() Ref      { return BankRef(b.ID) }
func (b *Bank) CurrentState() State { return b.State }
func (b *Bank) CloneEntity() Entity { return b.Clone() }

// MarkVerified records an administrator's verification.
func (b *Bank) MarkVerified(by string, at time.Time) {
	b.IsVerified = true
	b.VerifiedAt = &at
	b.VerifiedBy = by
	b.UpdatedAt = at
}

// StartSubscription activates a subscription beginning at at.
func (b *Bank) StartSubscription(tier string, billing map[string]any, expiresAt *time.Time, at time.Time) {
	b.IsSubscribed = true
	b.SubscriptionTier = tier
	b.BillingDetails = maps.Clone(billing)
	b.SubscriptionStartedAt = &at
	b.SubscriptionExpiresAt = cloneTime(expiresAt)
	b.UpdatedAt = at
}

// IsOperationalForDonors reports whether donors may select this bank.
func (b *Bank) IsOperationalForDonors() bool {
	return b.IsVerified && b.IsSubscribed
}

// Clone returns a deep copy.
func (b *Bank) Clone() *Bank {
	if b == nil {
		return nil
	}
	c := *b
	c.CertificationDocuments = slices.Clone(b.CertificationDocuments)
	c.BillingDetails = maps.Clone(b.BillingDetails)
	c.VerifiedAt = cloneTime(b.VerifiedAt)
	c.SubscriptionStartedAt = cloneTime(b.SubscriptionStartedAt)
	c.SubscriptionExpiresAt = cloneTime(b.SubscriptionExpiresAt)
	if b.CounselingConfig != nil {
		cfg := *b.CounselingConfig
		cfg.Methods = slices.Clone(b.CounselingConfig.Methods)
		cfg.TimeSlots = slices.Clone(b.CounselingConfig.TimeSlots)
		c.CounselingConfig = &cfg
	}
	return &c
}

// EligibilityStatus is the bank's eligibility decision for a donor.
type EligibilityStatus string

const (
	EligibilityPending  EligibilityStatus = "pending"
	EligibilityApproved EligibilityStatus = "approved"
	EligibilityRejected EligibilityStatus = "rejected"
)

// IsDecision reports whether s is a final decision value.
func (s EligibilityStatus) IsDecision() bool {
	return s == EligibilityApproved || s == EligibilityRejected
}

// Donor is a prospective donor progressing through onboarding.
type Donor struct {
	ID                  id.DonorID
	Email               string
	State               DonorState
	FirstName           string
	LastName            string
	Phone               string
	MedicalInterestInfo map[string]any

	// BankID is set once at lead creation and never rewritten.
	BankID     *id.BankID
	SelectedAt *time.Time

	LegalDocuments []DocumentRef
	HasCredentials bool

	EligibilityStatus    EligibilityStatus
	EligibilityNotes     string
	EligibilityDecidedAt *time.Time

	ConsentPending    bool
	CounselingPending bool
	TestsPending      bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *Donor) EntityRef() Ref      { return DonorRef(d.ID) }
func (d *Donor) CurrentState() State { return d.State }
func (d *Donor) CloneEntity() Entity { return d.Clone() }

// OwnedBy reports whether the donor belongs to bankID.
func (d *Donor) OwnedBy(bankID id.BankID) bool {
	return d.BankID != nil && *d.BankID == bankID
}

// RecordEligibility stores the bank's decision and clears the tests flag.
func (d *Donor) RecordEligibility(status EligibilityStatus, notes string, at time.Time) {
	d.EligibilityStatus = status
	d.EligibilityNotes = notes
	d.EligibilityDecidedAt = &at
	d.TestsPending = false
	d.UpdatedAt = at
}

// Clone returns a deep copy.
func (d *Donor) Clone() *Donor {
	if d == nil {
		return nil
	}
	c := *d
	c.MedicalInterestInfo = maps.Clone(d.MedicalInterestInfo)
	c.LegalDocuments = slices.Clone(d.LegalDocuments)
	c.SelectedAt = cloneTime(d.SelectedAt)
	c.EligibilityDecidedAt = cloneTime(d.EligibilityDecidedAt)
	if d.BankID != nil {
		b := *d.BankID
		c.BankID = &b
	}
	return &c
}

// ConsentTemplate is one of the consent documents a bank requires.
type ConsentTemplate struct {
	ID        id.TemplateID
	BankID    id.BankID
	Title     string
	Content   string
	Version   string
	Order     int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Template order bounds.
const (
	MinTemplateOrder = 1
	MaxTemplateOrder = 4
)

// RequiredConsentTemplates is the number of active templates a bank must offer.
const RequiredConsentTemplates = 4

// ConsentStatus tracks a donor consent from signature to bank verification.
type ConsentStatus string

const (
	ConsentStatusPending  ConsentStatus = "pending"
	ConsentStatusSigned   ConsentStatus = "signed"
	ConsentStatusVerified ConsentStatus = "verified"
	ConsentStatusRejected ConsentStatus = "rejected"
)

// DonorConsent is a donor's signature on a template. Unique per (donor, template).
type DonorConsent struct {
	ID                id.ConsentID
	DonorID           id.DonorID
	TemplateID        id.TemplateID
	Status            ConsentStatus
	SignedAt          *time.Time
	SignatureData     map[string]any
	VerifiedAt        *time.Time
	VerifiedBy        string
	VerificationNotes string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Clone returns a deep copy.
func (c *DonorConsent) Clone() *DonorConsent {
	if c == nil {
		return nil
	}
	out := *c
	out.SignatureData = maps.Clone(c.SignatureData)
	out.SignedAt = cloneTime(c.SignedAt)
	out.VerifiedAt = cloneTime(c.VerifiedAt)
	return &out
}

// ConsentCounts aggregates a donor's consents. Signed includes verified consents.
type ConsentCounts struct {
	Total    int
	Signed   int
	Verified int
}

// CounselingStatus tracks a counseling session.
type CounselingStatus string

const (
	CounselingRequested CounselingStatus = "requested"
	CounselingScheduled CounselingStatus = "scheduled"
	CounselingCompleted CounselingStatus = "completed"
	CounselingCancelled CounselingStatus = "cancelled"
)

// IsValid reports whether s is a known counseling status.
func (s CounselingStatus) IsValid() bool {
	switch s {
	case CounselingRequested, CounselingScheduled, CounselingCompleted, CounselingCancelled:
		return true
	}
	return false
}

// IsFinal reports whether a session in s can no longer change.
func (s CounselingStatus) IsFinal() bool {
	return s == CounselingCompleted || s == CounselingCancelled
}

// CanMoveTo reports whether a session may go from s to next. A scheduled
// session may be rescheduled.
func (s CounselingStatus) CanMoveTo(next CounselingStatus) bool {
	switch s {
	case CounselingRequested:
		return next == CounselingScheduled || next == CounselingCancelled
	case CounselingScheduled:
		return next == CounselingScheduled || next == CounselingCompleted || next == CounselingCancelled
	}
	return false
}

// CounselingSession is a donor's counseling request with their bank.
type CounselingSession struct {
	ID          id.CounselingSessionID
	DonorID     id.DonorID
	BankID      id.BankID
	Method      CounselingMethod
	Status      CounselingStatus
	Notes       string
	MeetingLink string
	Location    string
	RequestedAt time.Time
	ScheduledAt *time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// Clone returns a deep copy.
func (s *CounselingSession) Clone() *CounselingSession {
	if s == nil {
		return nil
	}
	c := *s
	c.ScheduledAt = cloneTime(s.ScheduledAt)
	c.CompletedAt = cloneTime(s.CompletedAt)
	return &c
}

// TestReportSource records who produced a test report. Only banks upload reports.
type TestReportSource string

const TestReportBankConducted TestReportSource = "bank_conducted"

// TestReport references a medical test result uploaded by the bank.
type TestReport struct {
	ID         id.ReportID
	DonorID    id.DonorID
	BankID     id.BankID
	Source     TestReportSource
	TestType   string
	TestName   string
	FileURL    string
	FileName   string
	UploadedBy string
	TestDate   *time.Time
	LabName    string
	Notes      string
	UploadedAt time.Time
}

// Clone returns a deep copy.
func (r *TestReport) Clone() *TestReport {
	if r == nil {
		return nil
	}
	c := *r
	c.TestDate = cloneTime(r.TestDate)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

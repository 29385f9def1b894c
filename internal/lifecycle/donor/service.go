// Package donor implements the donor journey from lead to onboarding, together
// with the bank-side operations on a donor: consent verification, test reports
// and the eligibility decision.
package donor

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"artpriv/internal/lifecycle/authz"
	"artpriv/internal/lifecycle/engine"
	"artpriv/internal/lifecycle/guard"
	"artpriv/internal/lifecycle/models"
	"artpriv/internal/lifecycle/store"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
	"artpriv/pkg/platform/sentinel"
)

// Transition reasons recorded in the donor's history.
const (
	ReasonVisitor           = "Visitor registered"
	ReasonBankSelected      = "Bank selected"
	ReasonLeadCreated       = "Lead created with bank selection"
	ReasonAccountCreated    = "Account created with credentials"
	ReasonCounseling        = "Counseling requested"
	ReasonSigningStarted    = "Started signing consent forms"
	ReasonTestReport        = "Test report uploaded by bank"
	ReasonEligibilityPrefix = "Eligibility decision: "
	ReasonOnboarded         = "Donor approved and onboarded"
)

// Lifecycle is the part of the transition engine the service drives.
type Lifecycle interface {
	Execute(ctx context.Context, ref models.Ref, fn func(ctx context.Context, tx *engine.Tx) error) error
	ReadHistory(ctx context.Context, actor models.Actor, ref models.Ref, page models.Page) ([]models.StateHistory, error)
}

// Service runs donor onboarding operations.
type Service struct {
	lifecycle Lifecycle
	reader    store.Reader
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(lifecycle Lifecycle, reader store.Reader, opts ...Option) *Service {
	s := &Service{
		lifecycle: lifecycle,
		reader:    reader,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func selfActor(donorID id.DonorID) models.Actor {
	return models.Actor{ID: donorID.String(), Role: models.RoleDonor}
}

// Lead is the payload of a visitor selecting a bank.
type Lead struct {
	BankID              id.BankID
	Email               string
	FirstName           string
	LastName            string
	Phone               string
	MedicalInterestInfo map[string]any
}

// CreateLead registers a visitor for an operational bank and moves them
// through BANK_SELECTED to LEAD_CREATED in one unit of work.
func (s *Service) CreateLead(ctx context.Context, lead Lead) (*models.Donor, error) {
	if _, err := mail.ParseAddress(lead.Email); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email address is required")
	}
	if lead.BankID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "bank_id is required")
	}

	now := s.now()
	bankID := lead.BankID
	d := &models.Donor{
		ID:                  id.NewDonorID(),
		Email:               strings.ToLower(strings.TrimSpace(lead.Email)),
		State:               models.DonorVisitor,
		FirstName:           strings.TrimSpace(lead.FirstName),
		LastName:            strings.TrimSpace(lead.LastName),
		Phone:               lead.Phone,
		MedicalInterestInfo: lead.MedicalInterestInfo,
		BankID:              &bankID,
		SelectedAt:          &now,
		EligibilityStatus:   models.EligibilityPending,
		ConsentPending:      true,
		CounselingPending:   true,
		TestsPending:        true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	ref := d.EntityRef()
	actor := selfActor(d.ID)

	var out *models.Donor
	err := s.lifecycle.Execute(ctx, ref, func(ctx context.Context, tx *engine.Tx) error {
		bank, err := tx.Store().GetBank(ctx, bankID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "bank not found")
		}
		if err != nil {
			return err
		}
		if !bank.IsOperationalForDonors() {
			return guard.Fail(guard.ReasonBankNotOperational, "invalid or inactive bank")
		}
		if _, err := tx.Store().GetDonorByEmail(ctx, d.Email); err == nil {
			return dErrors.New(dErrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}

		if err := tx.Create(ctx, d, actor, ReasonVisitor); err != nil {
			return err
		}
		for _, step := range []struct {
			to     models.DonorState
			reason string
		}{
			{models.DonorBankSelected, ReasonBankSelected},
			{models.DonorLeadCreated, ReasonLeadCreated},
		} {
			if _, err := tx.Transition(ctx, engine.Request{Ref: ref, To: step.to, Actor: actor, Reason: step.reason}); err != nil {
				return err
			}
		}
		out, err = tx.Store().GetDonor(ctx, d.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "donor lead created", "donor_id", out.ID, "bank_id", bankID)
	return out, nil
}

// Account turns a lead into an account.
type Account struct {
	Email          string
	LegalDocuments []models.DocumentRef
}

// CreateAccount records credentials for the lead registered under the email
// and moves it to ACCOUNT_CREATED.
func (s *Service) CreateAccount(ctx context.Context, in Account) (*models.Donor, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := s.reader.GetDonorByEmail(ctx, email)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "lead not found, create a lead first")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read donor")
	}

	var out *models.Donor
	ref := existing.EntityRef()
	err = s.lifecycle.Execute(ctx, ref, func(ctx context.Context, tx *engine.Tx) error {
		d, err := tx.Store().GetDonor(ctx, existing.ID)
		if err != nil {
			return err
		}
		if d.State != models.DonorLeadCreated {
			return dErrors.New(dErrors.CodeConflict, "account already created or invalid state")
		}
		d.HasCredentials = true
		if len(in.LegalDocuments) > 0 {
			d.LegalDocuments = append(d.LegalDocuments, in.LegalDocuments...)
		}
		d.UpdatedAt = s.now()
		if err := tx.Store().UpdateDonor(ctx, d); err != nil {
			return err
		}
		next, err := tx.Transition(ctx, engine.Request{
			Ref:          ref,
			To:           models.DonorAccountCreated,
			Actor:        selfActor(d.ID),
			Reason:       ReasonAccountCreated,
			ExpectedFrom: models.DonorLeadCreated,
		})
		if err != nil {
			return err
		}
		out = next.(*models.Donor)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RequestCounseling books a counseling session with the donor's bank and moves
// the donor to COUNSELING_REQUESTED. A donor who already signed a consent moves
// on to CONSENT_PENDING in the same unit of work.
func (s *Service) RequestCounseling(ctx context.Context, actor models.Actor, donorID id.DonorID, method models.CounselingMethod, notes string) (*models.CounselingSession, error) {
	if !method.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown counseling method")
	}
	if !authz.ActsAsDonor(actor, donorID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the donor may request counseling")
	}

	var session *models.CounselingSession
	ref := models.DonorRef(donorID)
	err := s.lifecycle.Execute(ctx, ref, func(ctx context.Context, tx *engine.Tx) error {
		d, err := tx.Store().GetDonor(ctx, donorID)
		if err != nil {
			return err
		}
		if d.BankID == nil {
			return guard.Fail(guard.ReasonBankNotSelected, "no bank associated")
		}
		sessionID := id.NewCounselingSessionID()
		if _, err := tx.Transition(ctx, engine.Request{
			Ref:    ref,
			To:     models.DonorCounselingRequested,
			Actor:  actor,
			Reason: ReasonCounseling,
			Input: guard.Input{
				CounselingMethod:    method,
				CounselingNotes:     notes,
				CounselingSessionID: sessionID,
			},
		}); err != nil {
			return err
		}
		if session, err = tx.Store().GetCounselingSession(ctx, sessionID); err != nil {
			return err
		}

		// Consents signed before counseling still count.
		counts, err := tx.Store().CountConsents(ctx, donorID)
		if err != nil {
			return err
		}
		if counts.Signed >= 1 {
			_, err := tx.Transition(ctx, engine.Request{
				Ref:          ref,
				To:           models.DonorConsentPending,
				Actor:        actor,
				Reason:       ReasonSigningStarted,
				ExpectedFrom: models.DonorCounselingRequested,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetDonor returns the donor to itself, its bank or an administrator.
func (s *Service) GetDonor(ctx context.Context, actor models.Actor, donorID id.DonorID) (*models.Donor, error) {
	d, err := s.reader.GetDonor(ctx, donorID)
	if err != nil {
		return nil, storeError(err, "donor not found")
	}
	if !authz.CanRead(actor, d) {
		return nil, dErrors.New(dErrors.CodeForbidden, "donor details are restricted")
	}
	return d, nil
}

// GetHistory returns the donor's audit trail to the donor, its bank or an administrator.
func (s *Service) GetHistory(ctx context.Context, actor models.Actor, donorID id.DonorID, page models.Page) ([]models.StateHistory, error) {
	return s.lifecycle.ReadHistory(ctx, actor, models.DonorRef(donorID), page)
}

func storeError(err error, notFound string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, notFound)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read store")
}

// Package bank implements the bank side of onboarding: registration,
// certification, admin verification, the subscription chain, counseling
// configuration and consent template management.
//
// Every state change goes through the transition engine. Field updates that a
// transition depends on are written in the same unit of work, before the
// transition, so the guard sees them.
package bank

import (
	"context"
	"errors"
	"fmt"
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
	pkgstrings "artpriv/pkg/platform/strings"
)

// Transition reasons recorded in the bank's history.
const (
	ReasonRegistered            = "Bank account created"
	ReasonCertificationUploaded = "Certification documents uploaded"
	ReasonVerified              = "Bank verified by administrator"
	ReasonSubscriptionInitiated = "Subscription initiated"
	ReasonSubscriptionCompleted = "Subscription completed"
	ReasonOperational           = "Bank is now operational"
)

// Lifecycle is the part of the transition engine the service drives.
type Lifecycle interface {
	Execute(ctx context.Context, ref models.Ref, fn func(ctx context.Context, tx *engine.Tx) error) error
	RequestTransition(ctx context.Context, req engine.Request) (models.Entity, error)
}

// Service runs bank-side onboarding operations.
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

// Registration is the public sign-up payload of a bank.
type Registration struct {
	Email       string
	Name        string
	Address     string
	Phone       string
	Website     string
	Description string
	LogoURL     string
}

func (r Registration) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "bank name is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return dErrors.New(dErrors.CodeValidation, "a valid email address is required")
	}
	return nil
}

// RegisterBank creates a bank in ACCOUNT_CREATED with its creation history row.
func (s *Service) RegisterBank(ctx context.Context, reg Registration) (*models.Bank, error) {
	if err := reg.validate(); err != nil {
		return nil, err
	}
	now := s.now()
	b := &models.Bank{
		ID:          id.NewBankID(),
		Email:       strings.ToLower(strings.TrimSpace(reg.Email)),
		Name:        strings.TrimSpace(reg.Name),
		Address:     reg.Address,
		Phone:       reg.Phone,
		Website:     reg.Website,
		Description: reg.Description,
		LogoURL:     reg.LogoURL,
		State:       models.BankAccountCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	actor := models.Actor{ID: b.ID.String(), Role: models.RoleBank}

	err := s.lifecycle.Execute(ctx, b.EntityRef(), func(ctx context.Context, tx *engine.Tx) error {
		if _, err := tx.Store().GetBankByEmail(ctx, b.Email); err == nil {
			return dErrors.New(dErrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		return tx.Create(ctx, b, actor, ReasonRegistered)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "bank registered", "bank_id", b.ID)
	return b, nil
}

// UploadCertification attaches a certification document. A bank still in
// ACCOUNT_CREATED moves to VERIFICATION_PENDING in the same unit of work.
func (s *Service) UploadCertification(ctx context.Context, actor models.Actor, bankID id.BankID, doc models.DocumentRef) (*models.Bank, error) {
	if !authz.ActsAsBank(actor, bankID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the bank may upload its certification")
	}
	if strings.TrimSpace(doc.Filename) == "" || strings.TrimSpace(doc.URL) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "document filename and url are required")
	}

	var out *models.Bank
	ref := models.BankRef(bankID)
	err := s.lifecycle.Execute(ctx, ref, func(ctx context.Context, tx *engine.Tx) error {
		b, err := tx.Store().GetBank(ctx, bankID)
		if err != nil {
			return err
		}
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = s.now()
		}
		b.CertificationDocuments = append(b.CertificationDocuments, doc)
		b.UpdatedAt = s.now()
		if err := tx.Store().UpdateBank(ctx, b); err != nil {
			return err
		}
		if b.State == models.BankAccountCreated {
			if _, err := tx.Transition(ctx, engine.Request{
				Ref:    ref,
				To:     models.BankVerificationPending,
				Actor:  actor,
				Reason: ReasonCertificationUploaded,
			}); err != nil {
				return err
			}
		}
		out, err = tx.Store().GetBank(ctx, bankID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyBank records an administrator's verification. The verification fields
// are always written; the state only advances from VERIFICATION_PENDING, where
// the transition itself writes them.
func (s *Service) VerifyBank(ctx context.Context, actor models.Actor, bankID id.BankID, verifiedBy, notes string) (*models.Bank, error) {
	if !actor.Role.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only administrators may verify banks")
	}
	verifiedBy = strings.TrimSpace(verifiedBy)
	if verifiedBy == "" {
		verifiedBy = actor.ID
	}
	reason := ReasonVerified
	if n := strings.TrimSpace(notes); n != "" {
		reason = fmt.Sprintf("%s: %s", ReasonVerified, n)
	}

	var out *models.Bank
	ref := models.BankRef(bankID)
	err := s.lifecycle.Execute(ctx, ref, func(ctx context.Context, tx *engine.Tx) error {
		b, err := tx.Store().GetBank(ctx, bankID)
		if err != nil {
			return err
		}
		if b.IsVerified {
			return dErrors.New(dErrors.CodeConflict, "bank is already verified")
		}
		if b.State == models.BankVerificationPending {
			if _, err := tx.Transition(ctx, engine.Request{
				Ref:    ref,
				To:     models.BankVerified,
				Actor:  actor,
				Reason: reason,
				Input:  guard.Input{VerifiedBy: verifiedBy},
			}); err != nil {
				return err
			}
		} else {
			b.MarkVerified(verifiedBy, s.now())
			if err := tx.Store().UpdateBank(ctx, b); err != nil {
				return err
			}
			s.logger.WarnContext(ctx, "bank verified outside verification_pending; state unchanged",
				"bank_id", bankID, "state", b.State)
		}
		out, err = tx.Store().GetBank(ctx, bankID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Subscription is the billing payload of CreateSubscription.
type Subscription struct {
	Tier           string
	BillingDetails map[string]any
	ExpiresAt      *time.Time
}

// CreateSubscription walks a verified bank through VERIFIED ->
// SUBSCRIPTION_PENDING -> SUBSCRIBED_ONBOARDED -> OPERATIONAL. Each step is its
// own unit of work with its own history row; a failure stops the chain where
// it is.
func (s *Service) CreateSubscription(ctx context.Context, actor models.Actor, bankID id.BankID, sub Subscription) (*models.Bank, error) {
	ref := models.BankRef(bankID)
	details := &guard.SubscriptionDetails{
		Tier:           strings.TrimSpace(sub.Tier),
		BillingDetails: sub.BillingDetails,
		ExpiresAt:      sub.ExpiresAt,
	}

	err := s.lifecycle.Execute(ctx, ref, func(ctx context.Context, tx *engine.Tx) error {
		b, err := tx.Store().GetBank(ctx, bankID)
		if err != nil {
			return err
		}
		if !b.IsVerified || b.State != models.BankVerified {
			return dErrors.New(dErrors.CodePreconditionFailed, "bank must be verified first")
		}
		_, err = tx.Transition(ctx, engine.Request{
			Ref:          ref,
			To:           models.BankSubscriptionPending,
			Actor:        actor,
			Reason:       ReasonSubscriptionInitiated,
			ExpectedFrom: models.BankVerified,
			Input:        guard.Input{Subscription: details},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	steps := []struct {
		from   models.BankState
		to     models.BankState
		reason string
	}{
		{models.BankSubscriptionPending, models.BankSubscribedOnboarded, ReasonSubscriptionCompleted},
		{models.BankSubscribedOnboarded, models.BankOperational, ReasonOperational},
	}
	var last models.Entity
	for _, step := range steps {
		last, err = s.lifecycle.RequestTransition(ctx, engine.Request{
			Ref:          ref,
			To:           step.to,
			Actor:        actor,
			Reason:       step.reason,
			ExpectedFrom: step.from,
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "subscription chain stopped",
				"bank_id", bankID, "from", step.from, "to", step.to, "error", err)
			return nil, err
		}
	}
	return last.(*models.Bank), nil
}

// UpdateCounselingConfig replaces the counseling offer of a verified,
// subscribed bank.
func (s *Service) UpdateCounselingConfig(ctx context.Context, actor models.Actor, bankID id.BankID, cfg models.CounselingConfig) (*models.Bank, error) {
	if !authz.ActsAsBank(actor, bankID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the bank may configure its counseling")
	}
	if len(cfg.Methods) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one counseling method is required")
	}
	for _, m := range cfg.Methods {
		if !m.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown counseling method %q", m))
		}
	}
	next := &models.CounselingConfig{
		Methods:     pkgstrings.Dedupe(cfg.Methods),
		TimeSlots:   pkgstrings.DedupeAndTrim(cfg.TimeSlots),
		AutoApprove: cfg.AutoApprove,
	}

	var out *models.Bank
	err := s.lifecycle.Execute(ctx, models.BankRef(bankID), func(ctx context.Context, tx *engine.Tx) error {
		b, err := tx.Store().GetBank(ctx, bankID)
		if err != nil {
			return err
		}
		if !b.IsVerified || !b.IsSubscribed {
			return dErrors.New(dErrors.CodePreconditionFailed, "bank must be verified and subscribed")
		}
		b.CounselingConfig = next
		b.UpdatedAt = s.now()
		if err := tx.Store().UpdateBank(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetBank returns a bank to itself or to an administrator.
func (s *Service) GetBank(ctx context.Context, actor models.Actor, bankID id.BankID) (*models.Bank, error) {
	if !authz.ActsAsBank(actor, bankID) && !actor.Role.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "bank details are restricted")
	}
	b, err := s.reader.GetBank(ctx, bankID)
	if err != nil {
		return nil, storeError(err, "bank not found")
	}
	return b, nil
}

func storeError(err error, notFound string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, notFound)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read store")
}

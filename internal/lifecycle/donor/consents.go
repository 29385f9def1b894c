package donor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"artpriv/internal/lifecycle/authz"
	"artpriv/internal/lifecycle/engine"
	"artpriv/internal/lifecycle/guard"
	"artpriv/internal/lifecycle/models"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
	"artpriv/pkg/platform/sentinel"
	"artpriv/pkg/requestcontext"
)

var signableStates = []models.DonorState{
	models.DonorAccountCreated,
	models.DonorCounselingRequested,
	models.DonorConsentPending,
}

// RequiredTemplates returns the bank's active consent templates. A bank must
// offer exactly RequiredConsentTemplates of them before donors can sign.
func (s *Service) RequiredTemplates(ctx context.Context, bankID id.BankID) ([]*models.ConsentTemplate, error) {
	if _, err := s.reader.GetBank(ctx, bankID); err != nil {
		return nil, storeError(err, "bank not found")
	}
	tpls, err := s.reader.ListTemplates(ctx, bankID, true)
	if err != nil {
		return nil, storeError(err, "bank not found")
	}
	if err := checkTemplateCount(tpls); err != nil {
		return nil, err
	}
	return tpls, nil
}

func checkTemplateCount(tpls []*models.ConsentTemplate) error {
	if len(tpls) != models.RequiredConsentTemplates {
		return guard.Fail(guard.ReasonTemplatesIncomplete,
			fmt.Sprintf("bank must offer exactly %d active consent templates, found %d", models.RequiredConsentTemplates, len(tpls)))
	}
	return nil
}

// SignConsent records the donor's signature on one of their bank's templates.
// The first signature of a donor in COUNSELING_REQUESTED moves them to
// CONSENT_PENDING in the same unit of work.
func (s *Service) SignConsent(ctx context.Context, actor models.Actor, donorID id.DonorID, templateID id.TemplateID, signature map[string]any) (*models.DonorConsent, error) {
	if !authz.ActsAsDonor(actor, donorID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the donor may sign their consents")
	}

	var consent *models.DonorConsent
	ref := models.DonorRef(donorID)
	err := s.lifecycle.Execute(ctx, ref, func(ctx context.Context, tx *engine.Tx) error {
		d, err := tx.Store().GetDonor(ctx, donorID)
		if err != nil {
			return err
		}
		if !slices.Contains(signableStates, d.State) {
			return dErrors.New(dErrors.CodePreconditionFailed,
				fmt.Sprintf("cannot sign consents in current state: %s", d.State))
		}
		if d.BankID == nil {
			return guard.Fail(guard.ReasonBankNotSelected, "no bank associated")
		}

		tpls, err := tx.Store().ListTemplates(ctx, *d.BankID, true)
		if err != nil {
			return err
		}
		if err := checkTemplateCount(tpls); err != nil {
			return err
		}
		if !slices.ContainsFunc(tpls, func(t *models.ConsentTemplate) bool { return t.ID == templateID }) {
			return dErrors.New(dErrors.CodeNotFound, "consent template not found")
		}

		now := s.now()
		consent = &models.DonorConsent{
			ID:            id.NewConsentID(),
			DonorID:       donorID,
			TemplateID:    templateID,
			Status:        models.ConsentStatusSigned,
			SignedAt:      &now,
			SignatureData: signature,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Store().CreateConsent(ctx, consent); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Wrap(err, dErrors.CodeConflict, "consent already signed")
			}
			return err
		}

		if d.State == models.DonorCounselingRequested {
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
	return consent, nil
}

// VerifyConsent records the owning bank's verdict on a signed consent and
// emits ConsentVerified. The quorum advance happens after commit, in the
// quorum observer.
func (s *Service) VerifyConsent(ctx context.Context, actor models.Actor, consentID id.ConsentID, status models.ConsentStatus, notes string) (*models.DonorConsent, error) {
	if status != models.ConsentStatusVerified && status != models.ConsentStatusRejected {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be verified or rejected")
	}
	if actor.Role != models.RoleBank {
		return nil, dErrors.New(dErrors.CodeForbidden, "only banks may verify consents")
	}
	bankID, err := id.ParseBankID(actor.ID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "invalid bank identity")
	}

	existing, err := s.reader.GetConsent(ctx, consentID)
	if err != nil {
		return nil, storeError(err, "consent not found")
	}

	var out *models.DonorConsent
	err = s.lifecycle.Execute(ctx, models.DonorRef(existing.DonorID), func(ctx context.Context, tx *engine.Tx) error {
		c, err := tx.Store().GetConsent(ctx, consentID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "consent not found")
		}
		d, err := tx.Store().GetDonor(ctx, c.DonorID)
		if err != nil {
			return err
		}
		if !d.OwnedBy(bankID) {
			return dErrors.New(dErrors.CodeForbidden, "consent does not belong to a donor of this bank")
		}
		bank, err := tx.Store().GetBank(ctx, bankID)
		if err != nil {
			return err
		}
		if !bank.IsSubscribed {
			return guard.Fail(guard.ReasonSubscriptionNotActive, "bank subscription is not active")
		}

		now := s.now()
		c.Status = status
		c.VerifiedAt = &now
		c.VerifiedBy = actor.ID
		c.VerificationNotes = strings.TrimSpace(notes)
		c.UpdatedAt = now
		if err := tx.Store().UpdateConsent(ctx, c); err != nil {
			return err
		}
		out = c
		return tx.Emit(ctx, models.ConsentVerified{
			DonorID:   d.ID,
			BankID:    bankID,
			ConsentID: c.ID,
			Status:    status,
			RequestID: requestcontext.RequestID(ctx),
			At:        now,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListConsents returns the donor's consents to the donor, its bank or an administrator.
func (s *Service) ListConsents(ctx context.Context, actor models.Actor, donorID id.DonorID) ([]*models.DonorConsent, error) {
	d, err := s.reader.GetDonor(ctx, donorID)
	if err != nil {
		return nil, storeError(err, "donor not found")
	}
	if !authz.CanRead(actor, d) {
		return nil, dErrors.New(dErrors.CodeForbidden, "donor consents are restricted")
	}
	consents, err := s.reader.ListConsents(ctx, donorID)
	if err != nil {
		return nil, storeError(err, "donor not found")
	}
	return consents, nil
}

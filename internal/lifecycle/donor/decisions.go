package donor

import (
	"context"
	"strings"
	"time"

	"artpriv/internal/lifecycle/authz"
	"artpriv/internal/lifecycle/engine"
	"artpriv/internal/lifecycle/guard"
	"artpriv/internal/lifecycle/models"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
)

// TestReportInput describes a medical test result uploaded by the bank.
type TestReportInput struct {
	TestType string
	TestName string
	FileURL  string
	FileName string
	TestDate *time.Time
	LabName  string
	Notes    string
}

func (in TestReportInput) validate() error {
	if strings.TrimSpace(in.TestType) == "" {
		return dErrors.New(dErrors.CodeValidation, "test_type is required")
	}
	if strings.TrimSpace(in.FileURL) == "" {
		return dErrors.New(dErrors.CodeValidation, "file_url is required")
	}
	return nil
}

// bankOf resolves the bank identity of actor, or returns forbidden.
func bankOf(actor models.Actor) (id.BankID, error) {
	if actor.Role != models.RoleBank {
		return id.BankID{}, dErrors.New(dErrors.CodeForbidden, "only banks may perform this operation")
	}
	bankID, err := id.ParseBankID(actor.ID)
	if err != nil {
		return id.BankID{}, dErrors.New(dErrors.CodeForbidden, "invalid bank identity")
	}
	return bankID, nil
}

// UploadTestReport stores a bank-conducted test report for one of the bank's
// donors. A donor in CONSENT_VERIFIED moves to TESTS_PENDING in the same unit
// of work.
func (s *Service) UploadTestReport(ctx context.Context, actor models.Actor, donorID id.DonorID, in TestReportInput) (*models.TestReport, error) {
	bankID, err := bankOf(actor)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var report *models.TestReport
	ref := models.DonorRef(donorID)
	err = s.lifecycle.Execute(ctx, ref, func(ctx context.Context, tx *engine.Tx) error {
		d, err := tx.Store().GetDonor(ctx, donorID)
		if err != nil {
			return err
		}
		if !d.OwnedBy(bankID) {
			return dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		if d.State != models.DonorConsentVerified && d.State != models.DonorTestsPending {
			return dErrors.New(dErrors.CodePreconditionFailed,
				"test reports can only be uploaded once consents are verified")
		}

		report = &models.TestReport{
			ID:         id.NewReportID(),
			DonorID:    donorID,
			BankID:     bankID,
			Source:     models.TestReportBankConducted,
			TestType:   strings.TrimSpace(in.TestType),
			TestName:   strings.TrimSpace(in.TestName),
			FileURL:    in.FileURL,
			FileName:   in.FileName,
			UploadedBy: actor.ID,
			TestDate:   in.TestDate,
			LabName:    in.LabName,
			Notes:      in.Notes,
			UploadedAt: s.now(),
		}
		if err := tx.Store().CreateTestReport(ctx, report); err != nil {
			return err
		}

		if d.State == models.DonorConsentVerified {
			_, err := tx.Transition(ctx, engine.Request{
				Ref:          ref,
				To:           models.DonorTestsPending,
				Actor:        actor,
				Reason:       ReasonTestReport,
				ExpectedFrom: models.DonorConsentVerified,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// DecideEligibility records the bank's eligibility decision. An approved donor
// is onboarded in the same unit of work; a rejected donor stays in
// ELIGIBILITY_DECISION, which has no outgoing edge for them.
func (s *Service) DecideEligibility(ctx context.Context, actor models.Actor, donorID id.DonorID, status models.EligibilityStatus, notes string) (*models.Donor, error) {
	if _, err := bankOf(actor); err != nil {
		return nil, err
	}
	decision := &guard.EligibilityDecision{Status: status, Notes: strings.TrimSpace(notes)}

	var out *models.Donor
	ref := models.DonorRef(donorID)
	err := s.lifecycle.Execute(ctx, ref, func(ctx context.Context, tx *engine.Tx) error {
		next, err := tx.Transition(ctx, engine.Request{
			Ref:    ref,
			To:     models.DonorEligibilityDecision,
			Actor:  actor,
			Reason: ReasonEligibilityPrefix + string(status),
			Input:  guard.Input{Eligibility: decision},
		})
		if err != nil {
			return err
		}
		if status == models.EligibilityApproved {
			next, err = tx.Transition(ctx, engine.Request{
				Ref:          ref,
				To:           models.DonorOnboarded,
				Actor:        actor,
				Reason:       ReasonOnboarded,
				ExpectedFrom: models.DonorEligibilityDecision,
			})
			if err != nil {
				return err
			}
		}
		out = next.(*models.Donor)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListTestReports returns the donor's test reports to the donor, its bank or an
// administrator.
func (s *Service) ListTestReports(ctx context.Context, actor models.Actor, donorID id.DonorID) ([]*models.TestReport, error) {
	d, err := s.reader.GetDonor(ctx, donorID)
	if err != nil {
		return nil, storeError(err, "donor not found")
	}
	if !authz.CanRead(actor, d) {
		return nil, dErrors.New(dErrors.CodeForbidden, "donor test reports are restricted")
	}
	reports, err := s.reader.ListTestReports(ctx, donorID)
	if err != nil {
		return nil, storeError(err, "donor not found")
	}
	return reports, nil
}

package donor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"artpriv/internal/lifecycle/bank"
	"artpriv/internal/lifecycle/engine"
	"artpriv/internal/lifecycle/guard"
	"artpriv/internal/lifecycle/metrics"
	"artpriv/internal/lifecycle/models"
	"artpriv/internal/lifecycle/quorum"
	"artpriv/internal/lifecycle/store"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.Memory
	metrics *metrics.Metrics
	engine  *engine.Engine
	banks   *bank.Service
	service *Service
	seq     int
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.engine = engine.New(s.store, s.store, engine.WithLogger(logger), engine.WithMetrics(s.metrics))

	observer, err := quorum.NewObserver(s.store, s.engine, quorum.WithLogger(logger), quorum.WithMetrics(s.metrics))
	s.Require().NoError(err)
	s.engine.Subscribe(observer)

	s.banks = bank.New(s.engine, s.store, bank.WithLogger(logger))
	s.service = New(s.engine, s.store, WithLogger(logger))
}

// -----------------------------------------------------------------------------
// fixtures
// -----------------------------------------------------------------------------

var admin = models.Actor{ID: "admin-1", Role: models.RoleSuperAdmin}

func bankActor(b *models.Bank) models.Actor {
	return models.Actor{ID: b.ID.String(), Role: models.RoleBank}
}

func donorActor(d *models.Donor) models.Actor {
	return models.Actor{ID: d.ID.String(), Role: models.RoleDonor}
}

func (s *ServiceSuite) email(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d@example.org", prefix, s.seq)
}

// registeredBank is a bank that has not been verified or subscribed.
func (s *ServiceSuite) registeredBank() *models.Bank {
	b, err := s.banks.RegisterBank(s.ctx, bank.Registration{Email: s.email("bank"), Name: "Harbor Fertility"})
	s.Require().NoError(err)
	return b
}

// operationalBank is verified, subscribed, offers video and call counseling
// and has templateCount active consent templates.
func (s *ServiceSuite) operationalBank(templateCount int) (*models.Bank, []*models.ConsentTemplate) {
	b := s.registeredBank()
	actor := bankActor(b)
	_, err := s.banks.UploadCertification(s.ctx, actor, b.ID, models.DocumentRef{Filename: "license.pdf", URL: "https://files.example/license.pdf"})
	s.Require().NoError(err)
	_, err = s.banks.VerifyBank(s.ctx, admin, b.ID, "admin-1", "")
	s.Require().NoError(err)
	_, err = s.banks.CreateSubscription(s.ctx, actor, b.ID, bank.Subscription{Tier: "premium"})
	s.Require().NoError(err)
	b, err = s.banks.UpdateCounselingConfig(s.ctx, actor, b.ID, models.CounselingConfig{
		Methods: []models.CounselingMethod{models.CounselingVideo, models.CounselingCall},
	})
	s.Require().NoError(err)

	var tpls []*models.ConsentTemplate
	for i := 1; i <= templateCount; i++ {
		tpl, err := s.banks.CreateConsentTemplate(s.ctx, actor, b.ID, bank.TemplateInput{
			Title: fmt.Sprintf("Consent %d", i), Content: "terms", Order: i,
		})
		s.Require().NoError(err)
		tpls = append(tpls, tpl)
	}
	return b, tpls
}

func (s *ServiceSuite) lead(b *models.Bank) *models.Donor {
	d, err := s.service.CreateLead(s.ctx, Lead{BankID: b.ID, Email: s.email("donor"), FirstName: "Ada", LastName: "Byron"})
	s.Require().NoError(err)
	return d
}

func (s *ServiceSuite) account(b *models.Bank) *models.Donor {
	d := s.lead(b)
	d, err := s.service.CreateAccount(s.ctx, Account{Email: d.Email})
	s.Require().NoError(err)
	return d
}

func (s *ServiceSuite) counseled(b *models.Bank) *models.Donor {
	d := s.account(b)
	_, err := s.service.RequestCounseling(s.ctx, donorActor(d), d.ID, models.CounselingVideo, "")
	s.Require().NoError(err)
	return s.reload(d)
}

// consenting signs every template for a counseled donor and returns the consents.
func (s *ServiceSuite) consenting(b *models.Bank, tpls []*models.ConsentTemplate) (*models.Donor, []*models.DonorConsent) {
	d := s.counseled(b)
	var consents []*models.DonorConsent
	for _, tpl := range tpls {
		c, err := s.service.SignConsent(s.ctx, donorActor(d), d.ID, tpl.ID, map[string]any{"typed_name": "Ada Byron"})
		s.Require().NoError(err)
		consents = append(consents, c)
	}
	return s.reload(d), consents
}

// consentVerified drives a donor through the quorum.
func (s *ServiceSuite) consentVerified(b *models.Bank, tpls []*models.ConsentTemplate) *models.Donor {
	d, consents := s.consenting(b, tpls)
	for _, c := range consents {
		_, err := s.service.VerifyConsent(s.ctx, bankActor(b), c.ID, models.ConsentStatusVerified, "")
		s.Require().NoError(err)
	}
	d = s.reload(d)
	s.Require().Equal(models.DonorConsentVerified, d.State)
	return d
}

func (s *ServiceSuite) reload(d *models.Donor) *models.Donor {
	got, err := s.store.GetDonor(s.ctx, d.ID)
	s.Require().NoError(err)
	return got
}

func (s *ServiceSuite) history(d *models.Donor) []models.StateHistory {
	hist, err := s.store.ListHistory(s.ctx, d.EntityRef(), models.Page{Limit: 100})
	s.Require().NoError(err)
	return hist
}

func (s *ServiceSuite) report() TestReportInput {
	return TestReportInput{TestType: "blood", TestName: "Infectious panel", FileURL: "https://files.example/panel.pdf", FileName: "panel.pdf"}
}

// -----------------------------------------------------------------------------
// tests
// -----------------------------------------------------------------------------

func (s *ServiceSuite) TestCreateLead() {
	b, _ := s.operationalBank(4)

	s.Run("records the whole path from visitor", func() {
		d := s.lead(b)
		s.Equal(models.DonorLeadCreated, d.State)
		s.True(d.OwnedBy(b.ID))
		s.NotNil(d.SelectedAt)
		s.True(d.ConsentPending)
		s.True(d.CounselingPending)
		s.True(d.TestsPending)

		hist := s.history(d)
		s.Require().Len(hist, 3)
		s.Nil(hist[0].FromState)
		s.Equal(models.DonorVisitor, hist[0].ToState)
		s.Equal(models.DonorBankSelected, hist[1].ToState)
		s.Equal(models.DonorLeadCreated, hist[2].ToState)
		s.Equal(ReasonLeadCreated, hist[2].Reason)
		for _, h := range hist {
			s.Equal(models.RoleDonor, h.ActorRole)
			s.Equal(d.ID.String(), h.ActorID)
		}
	})

	s.Run("duplicate email conflicts", func() {
		d := s.lead(b)
		_, err := s.service.CreateLead(s.ctx, Lead{BankID: b.ID, Email: d.Email})
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("bank must be operational", func() {
		inactive := s.registeredBank()
		email := s.email("donor")
		_, err := s.service.CreateLead(s.ctx, Lead{BankID: inactive.ID, Email: email})
		s.Equal(dErrors.CodePreconditionFailed, dErrors.CodeOf(err))
		reason, ok := guard.ReasonOf(err)
		s.True(ok)
		s.Equal(guard.ReasonBankNotOperational, reason)

		_, err = s.store.GetDonorByEmail(s.ctx, email)
		s.Error(err, "rejected lead leaves no donor behind")
	})

	s.Run("unknown bank", func() {
		_, err := s.service.CreateLead(s.ctx, Lead{BankID: id.NewBankID(), Email: s.email("donor")})
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("validation", func() {
		_, err := s.service.CreateLead(s.ctx, Lead{BankID: b.ID, Email: "nope"})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestCreateAccount() {
	b, _ := s.operationalBank(4)
	d := s.lead(b)

	s.Run("unknown lead", func() {
		_, err := s.service.CreateAccount(s.ctx, Account{Email: "ghost@example.org"})
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("creates the account", func() {
		got, err := s.service.CreateAccount(s.ctx, Account{
			Email:          d.Email,
			LegalDocuments: []models.DocumentRef{{Filename: "id.pdf", URL: "https://files.example/id.pdf"}},
		})
		s.Require().NoError(err)
		s.Equal(models.DonorAccountCreated, got.State)
		s.True(got.HasCredentials)
		s.Len(got.LegalDocuments, 1)
	})

	s.Run("second attempt conflicts", func() {
		_, err := s.service.CreateAccount(s.ctx, Account{Email: d.Email})
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestRequestCounseling() {
	b, _ := s.operationalBank(4)

	s.Run("method not offered by the bank", func() {
		d := s.account(b)
		_, err := s.service.RequestCounseling(s.ctx, donorActor(d), d.ID, models.CounselingInPerson, "")
		reason, ok := guard.ReasonOf(err)
		s.True(ok)
		s.Equal(guard.ReasonCounselingMethodNotAllowed, reason)
		s.Equal(models.DonorAccountCreated, s.reload(d).State)
	})

	s.Run("books a session and advances", func() {
		d := s.account(b)
		session, err := s.service.RequestCounseling(s.ctx, donorActor(d), d.ID, models.CounselingCall, "evenings")
		s.Require().NoError(err)
		s.Equal(models.CounselingRequested, session.Status)
		s.Equal(b.ID, session.BankID)

		got := s.reload(d)
		s.Equal(models.DonorCounselingRequested, got.State)
		s.False(got.CounselingPending)
	})

	s.Run("only the donor", func() {
		d := s.account(b)
		other := s.account(b)
		_, err := s.service.RequestCounseling(s.ctx, donorActor(other), d.ID, models.CounselingCall, "")
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("lead cannot skip account creation", func() {
		d := s.lead(b)
		_, err := s.service.RequestCounseling(s.ctx, donorActor(d), d.ID, models.CounselingCall, "")
		s.Equal(dErrors.CodeInvalidTransition, dErrors.CodeOf(err))
	})
}

// TestConsentsSignedBeforeCounseling: a donor who signed and got every consent
// verified while in ACCOUNT_CREATED reaches CONSENT_VERIFIED once counseling is
// requested.
func (s *ServiceSuite) TestConsentsSignedBeforeCounseling() {
	b, tpls := s.operationalBank(4)

	s.Run("verified quorum advances straight through consent_pending", func() {
		d := s.account(b)
		for _, tpl := range tpls {
			c, err := s.service.SignConsent(s.ctx, donorActor(d), d.ID, tpl.ID, nil)
			s.Require().NoError(err)
			_, err = s.service.VerifyConsent(s.ctx, bankActor(b), c.ID, models.ConsentStatusVerified, "")
			s.Require().NoError(err)
		}
		s.Equal(models.DonorAccountCreated, s.reload(d).State)

		session, err := s.service.RequestCounseling(s.ctx, donorActor(d), d.ID, models.CounselingVideo, "")
		s.Require().NoError(err)
		s.Equal(models.CounselingRequested, session.Status)

		s.Equal(models.DonorConsentVerified, s.reload(d).State)
		hist := s.history(d)
		s.Require().GreaterOrEqual(len(hist), 3)
		tail := hist[len(hist)-3:]
		s.Equal(models.DonorCounselingRequested, tail[0].ToState)
		s.Equal(models.DonorConsentPending, tail[1].ToState)
		s.Equal(ReasonSigningStarted, tail[1].Reason)
		s.Equal(models.DonorConsentVerified, tail[2].ToState)
		s.Equal(quorum.AdvanceReason, tail[2].Reason)
		s.InDelta(1, testutil.ToFloat64(s.metrics.QuorumAdvances), 0)
	})

	s.Run("signed but unverified consents stop at consent_pending", func() {
		d := s.account(b)
		_, err := s.service.SignConsent(s.ctx, donorActor(d), d.ID, tpls[0].ID, nil)
		s.Require().NoError(err)

		_, err = s.service.RequestCounseling(s.ctx, donorActor(d), d.ID, models.CounselingCall, "")
		s.Require().NoError(err)
		s.Equal(models.DonorConsentPending, s.reload(d).State)
	})

	s.Run("no consents stays in counseling_requested", func() {
		d := s.account(b)
		_, err := s.service.RequestCounseling(s.ctx, donorActor(d), d.ID, models.CounselingCall, "")
		s.Require().NoError(err)
		s.Equal(models.DonorCounselingRequested, s.reload(d).State)
	})
}

func (s *ServiceSuite) TestSignConsent() {
	b, tpls := s.operationalBank(4)

	s.Run("first signature after counseling moves to consent_pending", func() {
		d := s.counseled(b)
		_, err := s.service.SignConsent(s.ctx, donorActor(d), d.ID, tpls[0].ID, nil)
		s.Require().NoError(err)
		s.Equal(models.DonorConsentPending, s.reload(d).State)

		_, err = s.service.SignConsent(s.ctx, donorActor(d), d.ID, tpls[1].ID, nil)
		s.Require().NoError(err)
		s.Equal(models.DonorConsentPending, s.reload(d).State)
		s.Len(s.history(d), 6)

		_, err = s.service.SignConsent(s.ctx, donorActor(d), d.ID, tpls[1].ID, nil)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("signing before counseling keeps the state", func() {
		d := s.account(b)
		_, err := s.service.SignConsent(s.ctx, donorActor(d), d.ID, tpls[0].ID, nil)
		s.Require().NoError(err)
		s.Equal(models.DonorAccountCreated, s.reload(d).State)
	})

	s.Run("template of another bank", func() {
		_, foreign := s.operationalBank(4)
		d := s.counseled(b)
		_, err := s.service.SignConsent(s.ctx, donorActor(d), d.ID, foreign[0].ID, nil)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
		s.Equal(models.DonorCounselingRequested, s.reload(d).State)
	})

	s.Run("lead may not sign", func() {
		d := s.lead(b)
		_, err := s.service.SignConsent(s.ctx, donorActor(d), d.ID, tpls[0].ID, nil)
		s.Equal(dErrors.CodePreconditionFailed, dErrors.CodeOf(err))
	})

	s.Run("bank must offer exactly four templates", func() {
		short, shortTpls := s.operationalBank(3)
		d := s.counseled(short)
		_, err := s.service.SignConsent(s.ctx, donorActor(d), d.ID, shortTpls[0].ID, nil)
		reason, ok := guard.ReasonOf(err)
		s.True(ok)
		s.Equal(guard.ReasonTemplatesIncomplete, reason)

		_, err = s.service.RequiredTemplates(s.ctx, short.ID)
		s.Equal(dErrors.CodePreconditionFailed, dErrors.CodeOf(err))
		got, err := s.service.RequiredTemplates(s.ctx, b.ID)
		s.Require().NoError(err)
		s.Len(got, models.RequiredConsentTemplates)
	})
}

// TestQuorumScenario: three verified consents leave the donor in
// CONSENT_PENDING; verifying the fourth advances them through the observer
// with a system-actor history row.
func (s *ServiceSuite) TestQuorumScenario() {
	b, tpls := s.operationalBank(4)
	d, consents := s.consenting(b, tpls[:3])
	s.Require().Equal(models.DonorConsentPending, d.State)

	for _, c := range consents {
		_, err := s.service.VerifyConsent(s.ctx, bankActor(b), c.ID, models.ConsentStatusVerified, "ok")
		s.Require().NoError(err)
	}
	s.Equal(models.DonorConsentPending, s.reload(d).State)
	s.InDelta(0, testutil.ToFloat64(s.metrics.QuorumAdvances), 0)

	fourth, err := s.service.SignConsent(s.ctx, donorActor(d), d.ID, tpls[3].ID, nil)
	s.Require().NoError(err)
	s.Equal(models.DonorConsentPending, s.reload(d).State)

	verified, err := s.service.VerifyConsent(s.ctx, bankActor(b), fourth.ID, models.ConsentStatusVerified, "")
	s.Require().NoError(err)
	s.Equal(models.ConsentStatusVerified, verified.Status)
	s.Equal(b.ID.String(), verified.VerifiedBy)

	s.Equal(models.DonorConsentVerified, s.reload(d).State)
	hist := s.history(d)
	last := hist[len(hist)-1]
	s.Equal(models.DonorConsentPending, last.FromState)
	s.Equal(models.DonorConsentVerified, last.ToState)
	s.Equal(models.RoleSystem, last.ActorRole)
	s.Equal(quorum.AdvanceReason, last.Reason)
	s.InDelta(1, testutil.ToFloat64(s.metrics.QuorumAdvances), 0)
}

func (s *ServiceSuite) TestRejectedConsentBlocksQuorum() {
	b, tpls := s.operationalBank(4)
	d, consents := s.consenting(b, tpls)

	_, err := s.service.VerifyConsent(s.ctx, bankActor(b), consents[0].ID, models.ConsentStatusRejected, "illegible")
	s.Require().NoError(err)
	for _, c := range consents[1:] {
		_, err := s.service.VerifyConsent(s.ctx, bankActor(b), c.ID, models.ConsentStatusVerified, "")
		s.Require().NoError(err)
	}
	s.Equal(models.DonorConsentPending, s.reload(d).State)

	listed, err := s.service.ListConsents(s.ctx, donorActor(d), d.ID)
	s.Require().NoError(err)
	s.Len(listed, 4)
}

func (s *ServiceSuite) TestVerifyConsent() {
	b, tpls := s.operationalBank(4)
	_, consents := s.consenting(b, tpls[:1])

	s.Run("foreign bank is forbidden", func() {
		other, _ := s.operationalBank(0)
		_, err := s.service.VerifyConsent(s.ctx, bankActor(other), consents[0].ID, models.ConsentStatusVerified, "")
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("donor may not verify", func() {
		_, err := s.service.VerifyConsent(s.ctx, models.Actor{ID: consents[0].DonorID.String(), Role: models.RoleDonor},
			consents[0].ID, models.ConsentStatusVerified, "")
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("status must be a verdict", func() {
		_, err := s.service.VerifyConsent(s.ctx, bankActor(b), consents[0].ID, models.ConsentStatusSigned, "")
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	s.Run("unknown consent", func() {
		_, err := s.service.VerifyConsent(s.ctx, bankActor(b), id.NewConsentID(), models.ConsentStatusVerified, "")
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestTestReportsAndOnboarding() {
	b, tpls := s.operationalBank(4)

	s.Run("reports need verified consents", func() {
		d, _ := s.consenting(b, tpls)
		_, err := s.service.UploadTestReport(s.ctx, bankActor(b), d.ID, s.report())
		s.Equal(dErrors.CodePreconditionFailed, dErrors.CodeOf(err))
	})

	s.Run("foreign bank does not see the donor", func() {
		d := s.consentVerified(b, tpls)
		other, _ := s.operationalBank(0)
		_, err := s.service.UploadTestReport(s.ctx, bankActor(other), d.ID, s.report())
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("approved donor is onboarded", func() {
		d := s.consentVerified(b, tpls)

		r, err := s.service.UploadTestReport(s.ctx, bankActor(b), d.ID, s.report())
		s.Require().NoError(err)
		s.Equal(models.TestReportBankConducted, r.Source)
		s.Equal(models.DonorTestsPending, s.reload(d).State)

		_, err = s.service.UploadTestReport(s.ctx, bankActor(b), d.ID, s.report())
		s.Require().NoError(err)
		s.Equal(models.DonorTestsPending, s.reload(d).State)

		got, err := s.service.DecideEligibility(s.ctx, bankActor(b), d.ID, models.EligibilityApproved, "all clear")
		s.Require().NoError(err)
		s.Equal(models.DonorOnboarded, got.State)
		s.Equal(models.EligibilityApproved, got.EligibilityStatus)
		s.NotNil(got.EligibilityDecidedAt)

		hist := s.history(d)
		s.Require().GreaterOrEqual(len(hist), 2)
		s.Equal(ReasonEligibilityPrefix+"approved", hist[len(hist)-2].Reason)
		s.Equal(ReasonOnboarded, hist[len(hist)-1].Reason)
		for i := 1; i < len(hist); i++ {
			s.Equal(hist[i-1].ToState, hist[i].FromState)
		}
	})

	s.Run("pending is not a decision", func() {
		d := s.consentVerified(b, tpls)
		_, err := s.service.UploadTestReport(s.ctx, bankActor(b), d.ID, s.report())
		s.Require().NoError(err)
		_, err = s.service.DecideEligibility(s.ctx, bankActor(b), d.ID, models.EligibilityPending, "")
		reason, _ := guard.ReasonOf(err)
		s.Equal(guard.ReasonEligibilityDecisionRequired, reason)
		s.Equal(models.DonorTestsPending, s.reload(d).State)
	})
}

func (s *ServiceSuite) TestListTestReports() {
	b, tpls := s.operationalBank(4)
	other, _ := s.operationalBank(0)
	d := s.consentVerified(b, tpls)
	first, err := s.service.UploadTestReport(s.ctx, bankActor(b), d.ID, s.report())
	s.Require().NoError(err)
	second, err := s.service.UploadTestReport(s.ctx, bankActor(b), d.ID, s.report())
	s.Require().NoError(err)

	s.Run("donor, bank and admin read the reports", func() {
		for _, actor := range []models.Actor{donorActor(d), bankActor(b), admin} {
			got, err := s.service.ListTestReports(s.ctx, actor, d.ID)
			s.Require().NoError(err)
			s.Require().Len(got, 2)
			s.ElementsMatch([]id.ReportID{first.ID, second.ID}, []id.ReportID{got[0].ID, got[1].ID})
		}
	})

	s.Run("a donor without reports gets an empty list", func() {
		fresh := s.account(b)
		got, err := s.service.ListTestReports(s.ctx, donorActor(fresh), fresh.ID)
		s.Require().NoError(err)
		s.NotNil(got)
		s.Empty(got)
	})

	s.Run("another bank is forbidden", func() {
		_, err := s.service.ListTestReports(s.ctx, bankActor(other), d.ID)
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("unknown donor", func() {
		_, err := s.service.ListTestReports(s.ctx, admin, id.NewDonorID())
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

// TestGenericTransitionsCarryPayloads drives the tail of the chain through
// RequestTransition only, the way the generic transition route does.
func (s *ServiceSuite) TestGenericTransitionsCarryPayloads() {
	b, tpls := s.operationalBank(4)
	d := s.consentVerified(b, tpls)
	_, err := s.service.UploadTestReport(s.ctx, bankActor(b), d.ID, s.report())
	s.Require().NoError(err)

	_, err = s.engine.RequestTransition(s.ctx, engine.Request{
		Ref: d.EntityRef(), To: models.DonorEligibilityDecision, Actor: bankActor(b),
		Input: guard.Input{Eligibility: &guard.EligibilityDecision{Status: models.EligibilityApproved}},
	})
	s.Require().NoError(err)
	s.Equal(models.EligibilityApproved, s.reload(d).EligibilityStatus)

	out, err := s.engine.RequestTransition(s.ctx, engine.Request{
		Ref: d.EntityRef(), To: models.DonorOnboarded, Actor: bankActor(b),
	})
	s.Require().NoError(err)
	s.Equal(models.DonorOnboarded, out.CurrentState())
}

// TestRejectedEligibilityIsTerminal: a rejected donor parks in
// ELIGIBILITY_DECISION and cannot be onboarded.
func (s *ServiceSuite) TestRejectedEligibilityIsTerminal() {
	b, tpls := s.operationalBank(4)
	d := s.consentVerified(b, tpls)
	_, err := s.service.UploadTestReport(s.ctx, bankActor(b), d.ID, s.report())
	s.Require().NoError(err)

	got, err := s.service.DecideEligibility(s.ctx, bankActor(b), d.ID, models.EligibilityRejected, "")
	s.Require().NoError(err)
	s.Equal(models.DonorEligibilityDecision, got.State)
	s.Equal(models.EligibilityRejected, got.EligibilityStatus)

	_, err = s.engine.RequestTransition(s.ctx, engine.Request{
		Ref: d.EntityRef(), To: models.DonorOnboarded, Actor: bankActor(b),
	})
	s.Equal(dErrors.CodePreconditionFailed, dErrors.CodeOf(err))
	s.Equal(models.DonorEligibilityDecision, s.reload(d).State)
}

// TestSkippingStatesIsInvalid: a visitor cannot jump to CONSENT_PENDING.
func (s *ServiceSuite) TestSkippingStatesIsInvalid() {
	b, _ := s.operationalBank(4)
	now := time.Now()
	visitor := &models.Donor{ID: id.NewDonorID(), Email: s.email("visitor"), State: models.DonorVisitor,
		BankID: &b.ID, EligibilityStatus: models.EligibilityPending, CreatedAt: now, UpdatedAt: now}
	s.Require().NoError(s.store.CreateDonor(s.ctx, visitor,
		models.NewHistory(visitor.EntityRef(), nil, visitor.State, donorActor(visitor), ReasonVisitor, now)))

	_, err := s.engine.RequestTransition(s.ctx, engine.Request{
		Ref: visitor.EntityRef(), To: models.DonorConsentPending, Actor: donorActor(visitor),
	})
	s.Equal(dErrors.CodeInvalidTransition, dErrors.CodeOf(err))
	s.Equal(models.DonorVisitor, s.reload(visitor).State)
	s.Len(s.history(visitor), 1)
}

func (s *ServiceSuite) TestReadAccess() {
	b, _ := s.operationalBank(4)
	d := s.lead(b)
	other, _ := s.operationalBank(0)

	hist, err := s.service.GetHistory(s.ctx, donorActor(d), d.ID, models.Page{})
	s.Require().NoError(err)
	s.Len(hist, 3)

	_, err = s.service.GetHistory(s.ctx, admin, d.ID, models.Page{Limit: 1})
	s.Require().NoError(err)

	_, err = s.service.GetHistory(s.ctx, bankActor(other), d.ID, models.Page{})
	s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))

	got, err := s.service.GetDonor(s.ctx, bankActor(b), d.ID)
	s.Require().NoError(err)
	s.Equal(d.ID, got.ID)

	_, err = s.service.GetDonor(s.ctx, bankActor(other), d.ID)
	s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))

	_, err = s.service.GetDonor(s.ctx, admin, id.NewDonorID())
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

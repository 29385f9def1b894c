package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artpriv/internal/lifecycle/graph"
	"artpriv/internal/lifecycle/models"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
)

func edge(from, to models.State) graph.Edge { return graph.Edge{From: from, To: to} }

func donorIn(state models.DonorState) *models.Donor {
	bankID := id.NewBankID()
	return &models.Donor{ID: id.NewDonorID(), State: state, BankID: &bankID}
}

func requireReason(t *testing.T, err error, want ReasonCode) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	got, ok := ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestDonorGuards(t *testing.T) {
	t.Run("bank selection requires a bank", func(t *testing.T) {
		d := donorIn(models.DonorVisitor)
		d.BankID = nil
		err := Check(edge(models.DonorVisitor, models.DonorBankSelected), d, Facts{}, Input{})
		requireReason(t, err, ReasonBankNotSelected)
	})

	t.Run("account creation requires credentials", func(t *testing.T) {
		d := donorIn(models.DonorLeadCreated)
		e := edge(models.DonorLeadCreated, models.DonorAccountCreated)
		requireReason(t, Check(e, d, Facts{}, Input{}), ReasonCredentialsRequired)
		d.HasCredentials = true
		assert.NoError(t, Check(e, d, Facts{}, Input{}))
	})

	t.Run("counseling", func(t *testing.T) {
		d := donorIn(models.DonorAccountCreated)
		e := edge(models.DonorAccountCreated, models.DonorCounselingRequested)
		bank := &models.Bank{CounselingConfig: &models.CounselingConfig{
			Methods: []models.CounselingMethod{models.CounselingCall},
		}}

		requireReason(t, Check(e, d, Facts{Bank: bank}, Input{}), ReasonCounselingMethodRequired)
		requireReason(t, Check(e, d, Facts{Bank: bank}, Input{CounselingMethod: models.CounselingVideo}),
			ReasonCounselingMethodNotAllowed)
		assert.NoError(t, Check(e, d, Facts{Bank: bank}, Input{CounselingMethod: models.CounselingCall}))
		assert.NoError(t, Check(e, d, Facts{Bank: &models.Bank{}}, Input{CounselingMethod: models.CounselingVideo}),
			"absent config allows every method")
	})

	t.Run("consent pending needs one signature", func(t *testing.T) {
		d := donorIn(models.DonorCounselingRequested)
		e := edge(models.DonorCounselingRequested, models.DonorConsentPending)
		requireReason(t, Check(e, d, Facts{}, Input{}), ReasonNoSignedConsent)
		assert.NoError(t, Check(e, d, Facts{Consents: models.ConsentCounts{Total: 1, Signed: 1}}, Input{}))
	})

	t.Run("consent verified needs quorum", func(t *testing.T) {
		d := donorIn(models.DonorConsentPending)
		e := edge(models.DonorConsentPending, models.DonorConsentVerified)
		three := models.ConsentCounts{Total: 4, Signed: 4, Verified: 3}
		requireReason(t, Check(e, d, Facts{Consents: three}, Input{}), ReasonQuorumNotMet)
		four := models.ConsentCounts{Total: 4, Signed: 4, Verified: 4}
		assert.NoError(t, Check(e, d, Facts{Consents: four}, Input{}))
	})

	t.Run("tests pending needs a report", func(t *testing.T) {
		d := donorIn(models.DonorConsentVerified)
		e := edge(models.DonorConsentVerified, models.DonorTestsPending)
		requireReason(t, Check(e, d, Facts{}, Input{}), ReasonNoTestReport)
		assert.NoError(t, Check(e, d, Facts{Reports: 1}, Input{}))
	})

	t.Run("eligibility decision payload", func(t *testing.T) {
		d := donorIn(models.DonorTestsPending)
		e := edge(models.DonorTestsPending, models.DonorEligibilityDecision)
		requireReason(t, Check(e, d, Facts{}, Input{}), ReasonEligibilityDecisionRequired)
		pending := &EligibilityDecision{Status: models.EligibilityPending}
		requireReason(t, Check(e, d, Facts{}, Input{Eligibility: pending}), ReasonEligibilityDecisionRequired)
		rejected := &EligibilityDecision{Status: models.EligibilityRejected, Notes: "n/a"}
		assert.NoError(t, Check(e, d, Facts{}, Input{Eligibility: rejected}))
	})

	t.Run("onboarding requires approval", func(t *testing.T) {
		d := donorIn(models.DonorEligibilityDecision)
		e := edge(models.DonorEligibilityDecision, models.DonorOnboarded)
		d.EligibilityStatus = models.EligibilityRejected
		requireReason(t, Check(e, d, Facts{}, Input{}), ReasonEligibilityNotApproved)
		d.EligibilityStatus = models.EligibilityApproved
		assert.NoError(t, Check(e, d, Facts{}, Input{}))
	})
}

func TestBankGuards(t *testing.T) {
	withCert := &models.Bank{CertificationDocuments: []models.DocumentRef{{Filename: "license.pdf"}}}

	t.Run("verification pending requires certification", func(t *testing.T) {
		e := edge(models.BankAccountCreated, models.BankVerificationPending)
		requireReason(t, Check(e, &models.Bank{}, Facts{}, Input{}), ReasonCertificationRequired)
		assert.NoError(t, Check(e, withCert, Facts{}, Input{}))
	})

	t.Run("verification requires verifier and certification", func(t *testing.T) {
		e := edge(models.BankVerificationPending, models.BankVerified)
		requireReason(t, Check(e, withCert, Facts{}, Input{VerifiedBy: "  "}), ReasonVerifierRequired)
		requireReason(t, Check(e, &models.Bank{}, Facts{}, Input{VerifiedBy: "admin-1"}), ReasonCertificationRequired)
		assert.NoError(t, Check(e, withCert, Facts{}, Input{VerifiedBy: "admin-1"}))
	})

	t.Run("subscription chain", func(t *testing.T) {
		b := &models.Bank{}
		start := edge(models.BankVerified, models.BankSubscriptionPending)
		requireReason(t, Check(start, b, Facts{}, Input{}), ReasonSubscriptionDetailsRequired)
		assert.NoError(t, Check(start, b, Facts{}, Input{Subscription: &SubscriptionDetails{Tier: "premium"}}))

		complete := edge(models.BankSubscriptionPending, models.BankSubscribedOnboarded)
		requireReason(t, Check(complete, b, Facts{}, Input{}), ReasonSubscriptionNotActive)
		b.IsSubscribed = true
		assert.NoError(t, Check(complete, b, Facts{}, Input{}))

		assert.NoError(t, Check(edge(models.BankSubscribedOnboarded, models.BankOperational), b, Facts{}, Input{}))
	})
}

func TestNeeds(t *testing.T) {
	assert.True(t, Needs(edge(models.DonorAccountCreated, models.DonorCounselingRequested)).Has(NeedBank))
	assert.True(t, Needs(edge(models.DonorConsentPending, models.DonorConsentVerified)).Has(NeedConsentCounts))
	assert.True(t, Needs(edge(models.DonorConsentVerified, models.DonorTestsPending)).Has(NeedReportCount))
	assert.Equal(t, Need(0), Needs(edge(models.BankVerified, models.BankSubscriptionPending)))
}

func TestReasonOfPlainError(t *testing.T) {
	_, ok := ReasonOf(dErrors.New(dErrors.CodeConflict, "busy"))
	assert.False(t, ok)
}

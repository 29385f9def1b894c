package bank

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"artpriv/internal/lifecycle/engine"
	"artpriv/internal/lifecycle/models"
	"artpriv/internal/lifecycle/store"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.Memory
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(s.store, s.store, engine.WithLogger(logger))
	s.service = New(eng, s.store, WithLogger(logger))
}

var admin = models.Actor{ID: "admin-1", Role: models.RoleSuperAdmin}

func self(b *models.Bank) models.Actor {
	return models.Actor{ID: b.ID.String(), Role: models.RoleBank}
}

func certificate() models.DocumentRef {
	return models.DocumentRef{Filename: "license.pdf", URL: "https://files.example/license.pdf"}
}

func (s *ServiceSuite) register(email string) *models.Bank {
	b, err := s.service.RegisterBank(s.ctx, Registration{Email: email, Name: "Harbor Fertility"})
	s.Require().NoError(err)
	return b
}

// verified registers a bank and takes it through certification and admin verification.
func (s *ServiceSuite) verified(email string) *models.Bank {
	b := s.register(email)
	_, err := s.service.UploadCertification(s.ctx, self(b), b.ID, certificate())
	s.Require().NoError(err)
	b, err = s.service.VerifyBank(s.ctx, admin, b.ID, "admin-1", "")
	s.Require().NoError(err)
	return b
}

func (s *ServiceSuite) history(bankID id.BankID) []models.StateHistory {
	hist, err := s.store.ListHistory(s.ctx, models.BankRef(bankID), models.Page{Limit: 100})
	s.Require().NoError(err)
	return hist
}

func (s *ServiceSuite) TestRegisterBank() {
	s.Run("creates account with creation history", func() {
		b := s.register("Intake@Harbor.example")
		s.Equal(models.BankAccountCreated, b.State)
		s.Equal("intake@harbor.example", b.Email)

		hist := s.history(b.ID)
		s.Require().Len(hist, 1)
		s.Nil(hist[0].FromState)
		s.Equal(models.BankAccountCreated, hist[0].ToState)
		s.Equal(ReasonRegistered, hist[0].Reason)
	})

	s.Run("duplicate email conflicts", func() {
		s.register("dup@harbor.example")
		_, err := s.service.RegisterBank(s.ctx, Registration{Email: "DUP@harbor.example", Name: "Again"})
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("validation", func() {
		_, err := s.service.RegisterBank(s.ctx, Registration{Email: "not-an-email", Name: "X"})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
		_, err = s.service.RegisterBank(s.ctx, Registration{Email: "ok@harbor.example", Name: "  "})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestUploadCertification() {
	b := s.register("cert@harbor.example")

	s.Run("first upload moves to verification_pending", func() {
		got, err := s.service.UploadCertification(s.ctx, self(b), b.ID, certificate())
		s.Require().NoError(err)
		s.Equal(models.BankVerificationPending, got.State)
		s.Len(got.CertificationDocuments, 1)
		s.False(got.CertificationDocuments[0].UploadedAt.IsZero())
	})

	s.Run("later uploads only append", func() {
		got, err := s.service.UploadCertification(s.ctx, self(b), b.ID, certificate())
		s.Require().NoError(err)
		s.Equal(models.BankVerificationPending, got.State)
		s.Len(got.CertificationDocuments, 2)
		s.Len(s.history(b.ID), 2)
	})

	s.Run("another bank is forbidden", func() {
		other := s.register("other@harbor.example")
		_, err := s.service.UploadCertification(s.ctx, self(other), b.ID, certificate())
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("document must be named", func() {
		_, err := s.service.UploadCertification(s.ctx, self(b), b.ID, models.DocumentRef{URL: "https://x"})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})
}

// TestVerificationScenario: upload certification, then verify. Three history
// rows, ending in VERIFIED.
func (s *ServiceSuite) TestVerificationScenario() {
	b := s.register("scenario@harbor.example")
	_, err := s.service.UploadCertification(s.ctx, self(b), b.ID, certificate())
	s.Require().NoError(err)

	got, err := s.service.VerifyBank(s.ctx, admin, b.ID, "admin-1", "documents checked")
	s.Require().NoError(err)
	s.Equal(models.BankVerified, got.State)
	s.True(got.IsVerified)
	s.Equal("admin-1", got.VerifiedBy)
	s.NotNil(got.VerifiedAt)

	hist := s.history(b.ID)
	s.Require().Len(hist, 3)
	s.Nil(hist[0].FromState)
	s.Equal(models.BankAccountCreated, hist[1].FromState)
	s.Equal(models.BankVerificationPending, hist[1].ToState)
	s.Equal(models.BankVerificationPending, hist[2].FromState)
	s.Equal(models.BankVerified, hist[2].ToState)
	s.Equal(models.RoleSuperAdmin, hist[2].ActorRole)
	s.Contains(hist[2].Reason, "documents checked")
}

func (s *ServiceSuite) TestVerifyBank() {
	s.Run("outside verification_pending sets flags only", func() {
		b := s.register("early@harbor.example")
		got, err := s.service.VerifyBank(s.ctx, admin, b.ID, "", "")
		s.Require().NoError(err)
		s.True(got.IsVerified)
		s.Equal(admin.ID, got.VerifiedBy)
		s.Equal(models.BankAccountCreated, got.State)
		s.Len(s.history(b.ID), 1)
	})

	s.Run("already verified conflicts", func() {
		b := s.verified("twice@harbor.example")
		_, err := s.service.VerifyBank(s.ctx, admin, b.ID, "admin-2", "")
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("only admins verify", func() {
		b := s.register("selfverify@harbor.example")
		_, err := s.service.VerifyBank(s.ctx, self(b), b.ID, "me", "")
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("unknown bank", func() {
		_, err := s.service.VerifyBank(s.ctx, admin, id.NewBankID(), "admin-1", "")
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestCreateSubscription() {
	s.Run("walks the chain with one history row per step", func() {
		b := s.verified("sub@harbor.example")
		expires := time.Now().Add(365 * 24 * time.Hour)

		got, err := s.service.CreateSubscription(s.ctx, self(b), b.ID, Subscription{
			Tier:           "premium",
			BillingDetails: map[string]any{"plan": "annual"},
			ExpiresAt:      &expires,
		})
		s.Require().NoError(err)
		s.Equal(models.BankOperational, got.State)
		s.True(got.IsSubscribed)
		s.Equal("premium", got.SubscriptionTier)
		s.NotNil(got.SubscriptionStartedAt)
		s.True(got.IsOperationalForDonors())

		hist := s.history(b.ID)
		s.Require().Len(hist, 6)
		reasons := []string{hist[3].Reason, hist[4].Reason, hist[5].Reason}
		s.Equal([]string{ReasonSubscriptionInitiated, ReasonSubscriptionCompleted, ReasonOperational}, reasons)
		for i := 1; i < len(hist); i++ {
			s.Equal(hist[i-1].ToState, hist[i].FromState)
		}
	})

	s.Run("admin may subscribe a bank", func() {
		b := s.verified("adminsub@harbor.example")
		got, err := s.service.CreateSubscription(s.ctx, admin, b.ID, Subscription{Tier: "basic"})
		s.Require().NoError(err)
		s.Equal(models.BankOperational, got.State)
	})

	s.Run("unverified bank is rejected without trace", func() {
		b := s.register("unverified@harbor.example")
		_, err := s.service.CreateSubscription(s.ctx, self(b), b.ID, Subscription{Tier: "basic"})
		s.Equal(dErrors.CodePreconditionFailed, dErrors.CodeOf(err))
		s.Len(s.history(b.ID), 1)
	})

	s.Run("verified flag without verified state is rejected", func() {
		b := s.register("drift@harbor.example")
		_, err := s.service.VerifyBank(s.ctx, admin, b.ID, "admin-1", "")
		s.Require().NoError(err)
		_, err = s.service.CreateSubscription(s.ctx, self(b), b.ID, Subscription{Tier: "basic"})
		s.Equal(dErrors.CodePreconditionFailed, dErrors.CodeOf(err))
	})

	s.Run("tier is required", func() {
		b := s.verified("notier@harbor.example")
		_, err := s.service.CreateSubscription(s.ctx, self(b), b.ID, Subscription{})
		s.Equal(dErrors.CodePreconditionFailed, dErrors.CodeOf(err))

		got, err := s.store.GetBank(s.ctx, b.ID)
		s.Require().NoError(err)
		s.Equal(models.BankVerified, got.State)
		s.False(got.IsSubscribed)
	})

	s.Run("another bank is forbidden", func() {
		b := s.verified("victim@harbor.example")
		other := s.register("intruder@harbor.example")
		_, err := s.service.CreateSubscription(s.ctx, self(other), b.ID, Subscription{Tier: "basic"})
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestUpdateCounselingConfig() {
	b := s.verified("counsel@harbor.example")
	cfg := models.CounselingConfig{
		Methods:   []models.CounselingMethod{models.CounselingVideo, models.CounselingVideo, models.CounselingCall},
		TimeSlots: []string{" mon-09:00 ", "mon-09:00", ""},
	}

	s.Run("requires a subscription", func() {
		_, err := s.service.UpdateCounselingConfig(s.ctx, self(b), b.ID, cfg)
		s.Equal(dErrors.CodePreconditionFailed, dErrors.CodeOf(err))
	})

	_, err := s.service.CreateSubscription(s.ctx, self(b), b.ID, Subscription{Tier: "basic"})
	s.Require().NoError(err)

	s.Run("stores a deduplicated config", func() {
		got, err := s.service.UpdateCounselingConfig(s.ctx, self(b), b.ID, cfg)
		s.Require().NoError(err)
		s.Equal([]models.CounselingMethod{models.CounselingVideo, models.CounselingCall}, got.CounselingConfig.Methods)
		s.Equal([]string{"mon-09:00"}, got.CounselingConfig.TimeSlots)
	})

	s.Run("validation", func() {
		_, err := s.service.UpdateCounselingConfig(s.ctx, self(b), b.ID, models.CounselingConfig{})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
		_, err = s.service.UpdateCounselingConfig(s.ctx, self(b), b.ID,
			models.CounselingConfig{Methods: []models.CounselingMethod{"carrier_pigeon"}})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestConsentTemplates() {
	b := s.register("templates@harbor.example")

	for order := 4; order >= 1; order-- {
		_, err := s.service.CreateConsentTemplate(s.ctx, self(b), b.ID, TemplateInput{Title: "Consent", Content: "text", Order: order})
		s.Require().NoError(err)
	}

	s.Run("listed in order", func() {
		tpls, err := s.service.ListConsentTemplates(s.ctx, b.ID, true)
		s.Require().NoError(err)
		s.Require().Len(tpls, 4)
		for i, tpl := range tpls {
			s.Equal(i+1, tpl.Order)
			s.Equal(defaultTemplateVersion, tpl.Version)
		}
	})

	s.Run("order bounds", func() {
		_, err := s.service.CreateConsentTemplate(s.ctx, self(b), b.ID, TemplateInput{Title: "Consent", Order: 5})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
		_, err = s.service.CreateConsentTemplate(s.ctx, self(b), b.ID, TemplateInput{Title: "Consent", Order: 0})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	s.Run("update is scoped to the owning bank", func() {
		tpls, err := s.service.ListConsentTemplates(s.ctx, b.ID, true)
		s.Require().NoError(err)
		target := tpls[0]

		other := s.register("foreign@harbor.example")
		inactive := false
		_, err = s.service.UpdateConsentTemplate(s.ctx, self(other), other.ID, target.ID, TemplatePatch{IsActive: &inactive})
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))

		title := "Updated consent"
		got, err := s.service.UpdateConsentTemplate(s.ctx, self(b), b.ID, target.ID, TemplatePatch{Title: &title, IsActive: &inactive})
		s.Require().NoError(err)
		s.Equal(title, got.Title)
		s.False(got.IsActive)

		active, err := s.service.ListConsentTemplates(s.ctx, b.ID, true)
		s.Require().NoError(err)
		s.Len(active, 3)
	})

	s.Run("unknown bank", func() {
		_, err := s.service.ListConsentTemplates(s.ctx, id.NewBankID(), false)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

// Package onboarding drives bank and donor onboarding through the HTTP API.
package onboarding

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario context these steps use.
type TestContext interface {
	Do(method, path, token string, body any) error
	Token(role, subject string) (string, error)
	Field(path string) (any, error)
	StringField(path string) (string, error)
	ExpectStatus(want int) error
	Remember(name, value string)
	Var(name string) string
}

const adminID = "admin-1"

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	s := &onboardingSteps{tc: tc}

	ctx.Step(`^a bank has registered$`, s.bankHasRegistered)
	ctx.Step(`^the bank uploads a certification$`, s.bankUploadsCertification)
	ctx.Step(`^an administrator verifies the bank as "([^"]*)"$`, s.adminVerifiesBank)
	ctx.Step(`^the bank tries to verify itself$`, s.bankTriesToVerifyItself)
	ctx.Step(`^the bank subscribes to the "([^"]*)" tier$`, s.bankSubscribes)
	ctx.Step(`^the bank offers "([^"]*)" counseling$`, s.bankOffersCounseling)
	ctx.Step(`^the bank publishes (\d+) consent templates$`, s.bankPublishesTemplates)
	ctx.Step(`^an operational bank with (\d+) consent templates$`, s.operationalBank)

	ctx.Step(`^a donor lead for the bank$`, s.donorLead)
	ctx.Step(`^the donor creates an account$`, s.donorCreatesAccount)
	ctx.Step(`^the donor requests "([^"]*)" counseling$`, s.donorRequestsCounseling)
	ctx.Step(`^the donor signs consent template (\d+)$`, s.donorSignsTemplate)
	ctx.Step(`^the bank verifies the consent for template (\d+)$`, s.bankVerifiesConsent)
	ctx.Step(`^a donor with all (\d+) consents verified$`, s.donorWithVerifiedConsents)
	ctx.Step(`^the bank uploads a "([^"]*)" test report$`, s.bankUploadsTestReport)
	ctx.Step(`^the bank decides the donor is "([^"]*)"$`, s.bankDecidesEligibility)

	ctx.Step(`^the (bank|donor|administrator) requests a donor transition to "([^"]*)"$`, s.requestDonorTransition)
	ctx.Step(`^the bank requests a donor transition to "([^"]*)" with eligibility "([^"]*)"$`, s.requestEligibilityTransition)
	ctx.Step(`^the (bank|administrator) requests a bank transition to "([^"]*)"$`, s.requestBankTransition)
	ctx.Step(`^the administrator requests a bank transition to "([^"]*)" verified by "([^"]*)"$`, s.requestVerifiedTransition)
	ctx.Step(`^the bank requests a bank transition to "([^"]*)" on the "([^"]*)" tier$`, s.requestSubscriptionTransition)
	ctx.Step(`^the bank field "([^"]*)" should be "([^"]*)"$`, s.bankFieldShouldBe)
	ctx.Step(`^the (bank|donor) should be in state "([^"]*)"$`, s.entityShouldBeInState)
	ctx.Step(`^the (bank|donor) history should have (\d+) entries$`, s.historyShouldHaveEntries)
	ctx.Step(`^the last (bank|donor) history entry should be by the "([^"]*)" role$`, s.lastHistoryEntryRole)
}

type onboardingSteps struct {
	tc TestContext
}

func unique(prefix string) string {
	return fmt.Sprintf("%s-%d@e2e.test", prefix, time.Now().UnixNano())
}

func (s *onboardingSteps) tokenFor(who string) (string, error) {
	switch who {
	case "bank":
		return s.tc.Token("bank", s.tc.Var("bank"))
	case "donor":
		return s.tc.Token("donor", s.tc.Var("donor"))
	case "administrator":
		return s.tc.Token("super_admin", adminID)
	}
	return "", fmt.Errorf("unknown actor %q", who)
}

// call sends a request as who and checks the status.
func (s *onboardingSteps) call(who, method, path string, body any, want int) error {
	token := ""
	if who != "" {
		t, err := s.tokenFor(who)
		if err != nil {
			return err
		}
		token = t
	}
	if err := s.tc.Do(method, path, token, body); err != nil {
		return err
	}
	return s.tc.ExpectStatus(want)
}

func (s *onboardingSteps) rememberID(name string) error {
	v, err := s.tc.StringField("id")
	if err != nil {
		return err
	}
	s.tc.Remember(name, v)
	return nil
}

func (s *onboardingSteps) bankHasRegistered() error {
	body := map[string]any{"email": unique("bank"), "name": "E2E Fertility Bank"}
	if err := s.call("", http.MethodPost, "/banks", body, http.StatusCreated); err != nil {
		return err
	}
	return s.rememberID("bank")
}

func (s *onboardingSteps) bankUploadsCertification() error {
	body := map[string]any{"filename": "license.pdf", "url": "https://files.e2e.test/license.pdf"}
	return s.call("bank", http.MethodPost, "/banks/{bank}/certifications", body, http.StatusOK)
}

func (s *onboardingSteps) adminVerifiesBank(verifiedBy string) error {
	body := map[string]any{"verified_by": verifiedBy}
	return s.call("administrator", http.MethodPost, "/banks/{bank}/verification", body, http.StatusOK)
}

func (s *onboardingSteps) bankTriesToVerifyItself() error {
	token, err := s.tokenFor("bank")
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodPost, "/banks/{bank}/verification", token, map[string]any{"verified_by": "self"})
}

func (s *onboardingSteps) bankSubscribes(tier string) error {
	body := map[string]any{"tier": tier}
	return s.call("bank", http.MethodPost, "/banks/{bank}/subscription", body, http.StatusOK)
}

func (s *onboardingSteps) bankOffersCounseling(method string) error {
	body := map[string]any{"methods": []string{method}, "time_slots": []string{"mon 09:00"}}
	return s.call("bank", http.MethodPut, "/banks/{bank}/counseling-config", body, http.StatusOK)
}

func (s *onboardingSteps) bankPublishesTemplates(n int) error {
	for i := 1; i <= n; i++ {
		body := map[string]any{
			"title":   fmt.Sprintf("Consent %d", i),
			"content": fmt.Sprintf("Terms of consent form %d.", i),
			"version": "1.0",
			"order":   i,
		}
		if err := s.call("bank", http.MethodPost, "/banks/{bank}/consent-templates", body, http.StatusCreated); err != nil {
			return err
		}
		if err := s.rememberID("template" + strconv.Itoa(i)); err != nil {
			return err
		}
	}
	return nil
}

func (s *onboardingSteps) operationalBank(templates int) error {
	steps := []func() error{
		s.bankHasRegistered,
		s.bankUploadsCertification,
		func() error { return s.adminVerifiesBank(adminID) },
		func() error { return s.bankSubscribes("standard") },
		func() error { return s.bankOffersCounseling("video") },
		func() error { return s.bankPublishesTemplates(templates) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (s *onboardingSteps) donorLead() error {
	email := unique("donor")
	body := map[string]any{
		"bank_id":    s.tc.Var("bank"),
		"email":      email,
		"first_name": "Dana",
		"last_name":  "Donor",
	}
	if err := s.call("", http.MethodPost, "/donors/leads", body, http.StatusCreated); err != nil {
		return err
	}
	s.tc.Remember("donor_email", email)
	return s.rememberID("donor")
}

func (s *onboardingSteps) donorCreatesAccount() error {
	body := map[string]any{"email": s.tc.Var("donor_email")}
	return s.call("", http.MethodPost, "/donors/accounts", body, http.StatusCreated)
}

func (s *onboardingSteps) donorRequestsCounseling(method string) error {
	body := map[string]any{"method": method}
	return s.call("donor", http.MethodPost, "/donors/{donor}/counseling", body, http.StatusCreated)
}

func (s *onboardingSteps) donorSignsTemplate(i int) error {
	body := map[string]any{
		"template_id":    s.tc.Var("template" + strconv.Itoa(i)),
		"signature_data": map[string]any{"name": "Dana Donor"},
	}
	if err := s.call("donor", http.MethodPost, "/donors/{donor}/consents", body, http.StatusCreated); err != nil {
		return err
	}
	return s.rememberID("consent" + strconv.Itoa(i))
}

func (s *onboardingSteps) bankVerifiesConsent(i int) error {
	body := map[string]any{"status": "verified"}
	path := "/consents/{consent" + strconv.Itoa(i) + "}/verification"
	return s.call("bank", http.MethodPost, path, body, http.StatusOK)
}

func (s *onboardingSteps) donorWithVerifiedConsents(n int) error {
	if err := s.donorLead(); err != nil {
		return err
	}
	if err := s.donorCreatesAccount(); err != nil {
		return err
	}
	if err := s.donorRequestsCounseling("video"); err != nil {
		return err
	}
	for i := 1; i <= n; i++ {
		if err := s.donorSignsTemplate(i); err != nil {
			return err
		}
	}
	for i := 1; i <= n; i++ {
		if err := s.bankVerifiesConsent(i); err != nil {
			return err
		}
	}
	return nil
}

func (s *onboardingSteps) bankUploadsTestReport(testType string) error {
	body := map[string]any{
		"test_type": testType,
		"file_url":  "https://files.e2e.test/" + testType + ".pdf",
		"file_name": testType + ".pdf",
	}
	return s.call("bank", http.MethodPost, "/donors/{donor}/test-reports", body, http.StatusCreated)
}

func (s *onboardingSteps) bankDecidesEligibility(status string) error {
	body := map[string]any{"status": status}
	return s.call("bank", http.MethodPost, "/donors/{donor}/eligibility", body, http.StatusOK)
}

func (s *onboardingSteps) requestDonorTransition(who, to string) error {
	token, err := s.tokenFor(who)
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodPost, "/lifecycle/donor/{donor}/transitions", token, map[string]any{"to": to})
}

func (s *onboardingSteps) requestEligibilityTransition(to, status string) error {
	token, err := s.tokenFor("bank")
	if err != nil {
		return err
	}
	body := map[string]any{"to": to, "eligibility": map[string]any{"status": status}}
	return s.tc.Do(http.MethodPost, "/lifecycle/donor/{donor}/transitions", token, body)
}

func (s *onboardingSteps) bankTransition(who string, body map[string]any) error {
	if err := s.call(who, http.MethodPost, "/lifecycle/bank/{bank}/transitions", body, http.StatusOK); err != nil {
		return fmt.Errorf("bank transition to %v: %w", body["to"], err)
	}
	return nil
}

func (s *onboardingSteps) requestBankTransition(who, to string) error {
	return s.bankTransition(who, map[string]any{"to": to})
}

func (s *onboardingSteps) requestVerifiedTransition(to, verifiedBy string) error {
	return s.bankTransition("administrator", map[string]any{"to": to, "verified_by": verifiedBy})
}

func (s *onboardingSteps) requestSubscriptionTransition(to, tier string) error {
	return s.bankTransition("bank", map[string]any{"to": to, "subscription": map[string]any{"tier": tier}})
}

func (s *onboardingSteps) bankFieldShouldBe(field, want string) error {
	if err := s.call("administrator", http.MethodGet, "/banks/{bank}", nil, http.StatusOK); err != nil {
		return err
	}
	v, err := s.tc.Field(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected bank %s %q, got %q", field, want, got)
	}
	return nil
}

func (s *onboardingSteps) entityShouldBeInState(kind, want string) error {
	path := "/banks/{bank}"
	if kind == "donor" {
		path = "/donors/{donor}"
	}
	if err := s.call("administrator", http.MethodGet, path, nil, http.StatusOK); err != nil {
		return err
	}
	got, err := s.tc.StringField("state")
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %s in state %q, got %q", kind, want, got)
	}
	return nil
}

func (s *onboardingSteps) loadHistory(kind string) ([]any, error) {
	path := fmt.Sprintf("/lifecycle/%s/{%s}/history?limit=100", kind, kind)
	if err := s.call("administrator", http.MethodGet, path, nil, http.StatusOK); err != nil {
		return nil, err
	}
	v, err := s.tc.Field("history")
	if err != nil {
		return nil, err
	}
	rows, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("history is %T, not a list", v)
	}
	return rows, nil
}

func (s *onboardingSteps) historyShouldHaveEntries(kind string, want int) error {
	rows, err := s.loadHistory(kind)
	if err != nil {
		return err
	}
	if len(rows) != want {
		return fmt.Errorf("expected %d %s history entries, got %d", want, kind, len(rows))
	}
	return nil
}

func (s *onboardingSteps) lastHistoryEntryRole(kind, role string) error {
	rows, err := s.loadHistory(kind)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s has no history", kind)
	}
	got, err := s.tc.StringField(fmt.Sprintf("history.%d.actor_role", len(rows)-1))
	if err != nil {
		return err
	}
	if got != role {
		return fmt.Errorf("expected last %s history entry by %q, got %q", kind, role, got)
	}
	return nil
}

package handler

import (
	"strings"
	"time"

	"artpriv/internal/lifecycle/bank"
	"artpriv/internal/lifecycle/donor"
	"artpriv/internal/lifecycle/guard"
	"artpriv/internal/lifecycle/models"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
)

type eligibilityBody struct {
	Status models.EligibilityStatus `json:"status"`
	Notes  string                   `json:"notes"`
}

type subscriptionBody struct {
	Tier           string         `json:"tier"`
	BillingDetails map[string]any `json:"billing_details"`
	ExpiresAt      *time.Time     `json:"expires_at"`
}

func (b *subscriptionBody) details() *guard.SubscriptionDetails {
	if b == nil {
		return nil
	}
	return &guard.SubscriptionDetails{Tier: b.Tier, BillingDetails: b.BillingDetails, ExpiresAt: b.ExpiresAt}
}

// TransitionRequest is the body of POST /lifecycle/{kind}/{id}/transitions.
type TransitionRequest struct {
	To               string            `json:"to"`
	Reason           string            `json:"reason"`
	ExpectedFrom     string            `json:"expected_from,omitempty"`
	CounselingMethod string            `json:"counseling_method,omitempty"`
	CounselingNotes  string            `json:"counseling_notes,omitempty"`
	Eligibility      *eligibilityBody  `json:"eligibility,omitempty"`
	VerifiedBy       string            `json:"verified_by,omitempty"`
	Subscription     *subscriptionBody `json:"subscription,omitempty"`
}

func (r *TransitionRequest) Normalize() {
	r.To = strings.TrimSpace(r.To)
	r.ExpectedFrom = strings.TrimSpace(r.ExpectedFrom)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *TransitionRequest) Validate() error {
	if r.To == "" {
		return dErrors.New(dErrors.CodeValidation, "to is required")
	}
	return nil
}

func (r *TransitionRequest) input() guard.Input {
	in := guard.Input{
		CounselingMethod: models.CounselingMethod(r.CounselingMethod),
		CounselingNotes:  r.CounselingNotes,
		VerifiedBy:       r.VerifiedBy,
		Subscription:     r.Subscription.details(),
	}
	if r.Eligibility != nil {
		in.Eligibility = &guard.EligibilityDecision{Status: r.Eligibility.Status, Notes: r.Eligibility.Notes}
	}
	return in
}

// RegisterBankRequest is the public bank sign-up body.
type RegisterBankRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url"`
}

func (r *RegisterBankRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
}

func (r *RegisterBankRequest) Validate() error {
	if r.Email == "" || r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "email and name are required")
	}
	return nil
}

func (r *RegisterBankRequest) registration() bank.Registration {
	return bank.Registration{
		Email:       r.Email,
		Name:        r.Name,
		Address:     r.Address,
		Phone:       r.Phone,
		Website:     r.Website,
		Description: r.Description,
		LogoURL:     r.LogoURL,
	}
}

// DocumentRequest references an uploaded document.
type DocumentRequest struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

func (r *DocumentRequest) Validate() error {
	if strings.TrimSpace(r.Filename) == "" || strings.TrimSpace(r.URL) == "" {
		return dErrors.New(dErrors.CodeValidation, "filename and url are required")
	}
	return nil
}

// VerifyBankRequest is the administrator's verification body.
type VerifyBankRequest struct {
	VerifiedBy string `json:"verified_by"`
	Notes      string `json:"notes"`
}

func (r *VerifyBankRequest) Validate() error { return nil }

// SubscriptionRequest starts a bank subscription.
type SubscriptionRequest struct {
	Tier           string         `json:"tier"`
	BillingDetails map[string]any `json:"billing_details"`
	ExpiresAt      *time.Time     `json:"expires_at"`
}

func (r *SubscriptionRequest) Validate() error {
	if strings.TrimSpace(r.Tier) == "" {
		return dErrors.New(dErrors.CodeValidation, "tier is required")
	}
	return nil
}

// CounselingConfigRequest replaces a bank's counseling offer.
type CounselingConfigRequest struct {
	Methods     []models.CounselingMethod `json:"methods"`
	TimeSlots   []string                  `json:"time_slots"`
	AutoApprove bool                      `json:"auto_approve"`
}

func (r *CounselingConfigRequest) Validate() error {
	if len(r.Methods) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one counseling method is required")
	}
	return nil
}

// TemplateRequest creates a consent template.
type TemplateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Version string `json:"version"`
	Order   int    `json:"order"`
}

func (r *TemplateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Content) == "" {
		return dErrors.New(dErrors.CodeValidation, "title and content are required")
	}
	return nil
}

// TemplatePatchRequest updates a consent template.
type TemplatePatchRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Order    *int    `json:"order"`
	IsActive *bool   `json:"is_active"`
}

func (r *TemplatePatchRequest) Validate() error {
	if r.Title == nil && r.Content == nil && r.Order == nil && r.IsActive == nil {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	return nil
}

// ScheduleCounselingRequest books a counseling session.
type ScheduleCounselingRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	MeetingLink string     `json:"meeting_link"`
	Location    string     `json:"location"`
}

func (r *ScheduleCounselingRequest) Validate() error {
	if r.ScheduledAt == nil || r.ScheduledAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "scheduled_at is required")
	}
	return nil
}

// CounselingSessionPatchRequest updates a counseling session.
type CounselingSessionPatchRequest struct {
	Status      *string    `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	MeetingLink *string    `json:"meeting_link"`
	Location    *string    `json:"location"`
	Notes       *string    `json:"notes"`
}

func (r *CounselingSessionPatchRequest) Validate() error {
	if r.Status == nil && r.ScheduledAt == nil && r.MeetingLink == nil && r.Location == nil && r.Notes == nil {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	if r.Status != nil && !models.CounselingStatus(*r.Status).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown counseling status")
	}
	return nil
}

func (r *CounselingSessionPatchRequest) patch() bank.SessionPatch {
	p := bank.SessionPatch{
		ScheduledAt: r.ScheduledAt,
		MeetingLink: r.MeetingLink,
		Location:    r.Location,
		Notes:       r.Notes,
	}
	if r.Status != nil {
		status := models.CounselingStatus(*r.Status)
		p.Status = &status
	}
	return p
}

// LeadRequest is the public lead creation body.
type LeadRequest struct {
	BankID              string         `json:"bank_id"`
	Email               string         `json:"email"`
	FirstName           string         `json:"first_name"`
	LastName            string         `json:"last_name"`
	Phone               string         `json:"phone"`
	MedicalInterestInfo map[string]any `json:"medical_interest_info"`
}

func (r *LeadRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LeadRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if _, err := id.ParseBankID(r.BankID); err != nil {
		return err
	}
	return nil
}

func (r *LeadRequest) lead() donor.Lead {
	bankID, _ := id.ParseBankID(r.BankID)
	return donor.Lead{
		BankID:              bankID,
		Email:               r.Email,
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		Phone:               r.Phone,
		MedicalInterestInfo: r.MedicalInterestInfo,
	}
}

// AccountRequest turns a lead into an account.
type AccountRequest struct {
	Email          string            `json:"email"`
	LegalDocuments []DocumentRequest `json:"legal_documents"`
}

func (r *AccountRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *AccountRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	for i := range r.LegalDocuments {
		if err := r.LegalDocuments[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CounselingRequest books a counseling session.
type CounselingRequest struct {
	Method string `json:"method"`
	Notes  string `json:"notes"`
}

func (r *CounselingRequest) Validate() error {
	if !models.CounselingMethod(r.Method).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown counseling method")
	}
	return nil
}

// SignConsentRequest signs one consent template.
type SignConsentRequest struct {
	TemplateID    string         `json:"template_id"`
	SignatureData map[string]any `json:"signature_data"`
}

func (r *SignConsentRequest) Validate() error {
	_, err := id.ParseTemplateID(r.TemplateID)
	return err
}

// VerifyConsentRequest is the bank's verdict on a signed consent.
type VerifyConsentRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (r *VerifyConsentRequest) Validate() error {
	switch models.ConsentStatus(r.Status) {
	case models.ConsentStatusVerified, models.ConsentStatusRejected:
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, "status must be verified or rejected")
}

// TestReportRequest uploads a test report reference.
type TestReportRequest struct {
	TestType string     `json:"test_type"`
	TestName string     `json:"test_name"`
	FileURL  string     `json:"file_url"`
	FileName string     `json:"file_name"`
	TestDate *time.Time `json:"test_date"`
	LabName  string     `json:"lab_name"`
	Notes    string     `json:"notes"`
}

func (r *TestReportRequest) Validate() error {
	if strings.TrimSpace(r.TestType) == "" || strings.TrimSpace(r.FileURL) == "" {
		return dErrors.New(dErrors.CodeValidation, "test_type and file_url are required")
	}
	return nil
}

// EligibilityRequest records the bank's eligibility decision.
type EligibilityRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (r *EligibilityRequest) Validate() error {
	if !models.EligibilityStatus(r.Status).IsDecision() {
		return dErrors.New(dErrors.CodeValidation, "status must be approved or rejected")
	}
	return nil
}

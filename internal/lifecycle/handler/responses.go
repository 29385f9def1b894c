package handler

import (
	"time"

	"artpriv/internal/lifecycle/graph"
	"artpriv/internal/lifecycle/models"
)

type documentResponse struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func toDocuments(docs []models.DocumentRef) []documentResponse {
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse(d))
	}
	return out
}

// EntityResponse is the minimal view returned after a generic transition.
type EntityResponse struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	State string `json:"state"`
}

func toEntity(e models.Entity) EntityResponse {
	ref := e.EntityRef()
	return EntityResponse{
		Kind:  string(ref.Kind),
		ID:    ref.ID.String(),
		State: models.StateString(e.CurrentState()),
	}
}

// HistoryResponse is one audit row.
type HistoryResponse struct {
	ID         string    `json:"id"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	FromState  *string   `json:"from_state"`
	ToState    string    `json:"to_state"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

func toHistory(rows []models.StateHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(rows))
	for _, h := range rows {
		var from *string
		if h.FromState != nil {
			s := h.FromState.String()
			from = &s
		}
		out = append(out, HistoryResponse{
			ID:         h.ID.String(),
			EntityKind: string(h.EntityKind),
			EntityID:   h.EntityID.String(),
			FromState:  from,
			ToState:    models.StateString(h.ToState),
			ActorID:    h.ActorID,
			ActorRole:  string(h.ActorRole),
			Reason:     h.Reason,
			CreatedAt:  h.CreatedAt,
		})
	}
	return out
}

type edgeResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func toEdges(edges []graph.Edge) []edgeResponse {
	out := make([]edgeResponse, 0, len(edges))
	for _, e := range edges {
		out = append(out, edgeResponse{From: models.StateString(e.From), To: models.StateString(e.To)})
	}
	return out
}

// BankResponse is the external view of a bank.
type BankResponse struct {
	ID                     string                   `json:"id"`
	Email                  string                   `json:"email"`
	Name                   string                   `json:"name"`
	Address                string                   `json:"address,omitempty"`
	Phone                  string                   `json:"phone,omitempty"`
	Website                string                   `json:"website,omitempty"`
	Description            string                   `json:"description,omitempty"`
	LogoURL                string                   `json:"logo_url,omitempty"`
	State                  string                   `json:"state"`
	CertificationDocuments []documentResponse       `json:"certification_documents"`
	IsVerified             bool                     `json:"is_verified"`
	VerifiedAt             *time.Time               `json:"verified_at,omitempty"`
	IsSubscribed           bool                     `json:"is_subscribed"`
	SubscriptionTier       string                   `json:"subscription_tier,omitempty"`
	SubscriptionStartedAt  *time.Time               `json:"subscription_started_at,omitempty"`
	SubscriptionExpiresAt  *time.Time               `json:"subscription_expires_at,omitempty"`
	CounselingConfig       *models.CounselingConfig `json:"counseling_config,omitempty"`
	CreatedAt              time.Time                `json:"created_at"`
	UpdatedAt              time.Time                `json:"updated_at"`
}

func toBank(b *models.Bank) BankResponse {
	return BankResponse{
		ID:                     b.ID.String(),
		Email:                  b.Email,
		Name:                   b.Name,
		Address:                b.Address,
		Phone:                  b.Phone,
		Website:                b.Website,
		Description:            b.Description,
		LogoURL:                b.LogoURL,
		State:                  string(b.State),
		CertificationDocuments: toDocuments(b.CertificationDocuments),
		IsVerified:             b.IsVerified,
		VerifiedAt:             b.VerifiedAt,
		IsSubscribed:           b.IsSubscribed,
		SubscriptionTier:       b.SubscriptionTier,
		SubscriptionStartedAt:  b.SubscriptionStartedAt,
		SubscriptionExpiresAt:  b.SubscriptionExpiresAt,
		CounselingConfig:       b.CounselingConfig,
		CreatedAt:              b.CreatedAt,
		UpdatedAt:              b.UpdatedAt,
	}
}

// DonorResponse is the external view of a donor.
type DonorResponse struct {
	ID                   string             `json:"id"`
	Email                string             `json:"email"`
	State                string             `json:"state"`
	FirstName            string             `json:"first_name,omitempty"`
	LastName             string             `json:"last_name,omitempty"`
	BankID               *string            `json:"bank_id"`
	SelectedAt           *time.Time         `json:"selected_at,omitempty"`
	LegalDocuments       []documentResponse `json:"legal_documents"`
	HasCredentials       bool               `json:"has_credentials"`
	EligibilityStatus    string             `json:"eligibility_status"`
	EligibilityNotes     string             `json:"eligibility_notes,omitempty"`
	EligibilityDecidedAt *time.Time         `json:"eligibility_decided_at,omitempty"`
	ConsentPending       bool               `json:"consent_pending"`
	CounselingPending    bool               `json:"counseling_pending"`
	TestsPending         bool               `json:"tests_pending"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

func toDonor(d *models.Donor) DonorResponse {
	var bankID *string
	if d.BankID != nil {
		s := d.BankID.String()
		bankID = &s
	}
	return DonorResponse{
		ID:                   d.ID.String(),
		Email:                d.Email,
		State:                string(d.State),
		FirstName:            d.FirstName,
		LastName:             d.LastName,
		BankID:               bankID,
		SelectedAt:           d.SelectedAt,
		LegalDocuments:       toDocuments(d.LegalDocuments),
		HasCredentials:       d.HasCredentials,
		EligibilityStatus:    string(d.EligibilityStatus),
		EligibilityNotes:     d.EligibilityNotes,
		EligibilityDecidedAt: d.EligibilityDecidedAt,
		ConsentPending:       d.ConsentPending,
		CounselingPending:    d.CounselingPending,
		TestsPending:         d.TestsPending,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

// TemplateResponse is the external view of a consent template.
type TemplateResponse struct {
	ID       string `json:"id"`
	BankID   string `json:"bank_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Version  string `json:"version"`
	Order    int    `json:"order"`
	IsActive bool   `json:"is_active"`
}

func toTemplate(t *models.ConsentTemplate) TemplateResponse {
	return TemplateResponse{
		ID:       t.ID.String(),
		BankID:   t.BankID.String(),
		Title:    t.Title,
		Content:  t.Content,
		Version:  t.Version,
		Order:    t.Order,
		IsActive: t.IsActive,
	}
}

func toTemplates(tpls []*models.ConsentTemplate) []TemplateResponse {
	out := make([]TemplateResponse, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, toTemplate(t))
	}
	return out
}

// ConsentResponse is the external view of a donor consent.
type ConsentResponse struct {
	ID                string     `json:"id"`
	DonorID           string     `json:"donor_id"`
	TemplateID        string     `json:"template_id"`
	Status            string     `json:"status"`
	SignedAt          *time.Time `json:"signed_at,omitempty"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	VerifiedBy        string     `json:"verified_by,omitempty"`
	VerificationNotes string     `json:"verification_notes,omitempty"`
}

func toConsent(c *models.DonorConsent) ConsentResponse {
	return ConsentResponse{
		ID:                c.ID.String(),
		DonorID:           c.DonorID.String(),
		TemplateID:        c.TemplateID.String(),
		Status:            string(c.Status),
		SignedAt:          c.SignedAt,
		VerifiedAt:        c.VerifiedAt,
		VerifiedBy:        c.VerifiedBy,
		VerificationNotes: c.VerificationNotes,
	}
}

func toConsents(consents []*models.DonorConsent) []ConsentResponse {
	out := make([]ConsentResponse, 0, len(consents))
	for _, c := range consents {
		out = append(out, toConsent(c))
	}
	return out
}

// CounselingResponse is the external view of a counseling session.
type CounselingResponse struct {
	ID          string     `json:"id"`
	DonorID     string     `json:"donor_id"`
	BankID      string     `json:"bank_id"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	MeetingLink string     `json:"meeting_link,omitempty"`
	Location    string     `json:"location,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toCounseling(s *models.CounselingSession) CounselingResponse {
	return CounselingResponse{
		ID:          s.ID.String(),
		DonorID:     s.DonorID.String(),
		BankID:      s.BankID.String(),
		Method:      string(s.Method),
		Status:      string(s.Status),
		Notes:       s.Notes,
		MeetingLink: s.MeetingLink,
		Location:    s.Location,
		RequestedAt: s.RequestedAt,
		ScheduledAt: s.ScheduledAt,
		CompletedAt: s.CompletedAt,
	}
}

// TestReportResponse is the external view of a test report.
type TestReportResponse struct {
	ID         string     `json:"id"`
	DonorID    string     `json:"donor_id"`
	Source     string     `json:"source"`
	TestType   string     `json:"test_type"`
	TestName   string     `json:"test_name,omitempty"`
	FileURL    string     `json:"file_url"`
	FileName   string     `json:"file_name,omitempty"`
	TestDate   *time.Time `json:"test_date,omitempty"`
	LabName    string     `json:"lab_name,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	UploadedAt time.Time  `json:"uploaded_at"`
}

func toTestReport(r *models.TestReport) TestReportResponse {
	return TestReportResponse{
		ID:         r.ID.String(),
		DonorID:    r.DonorID.String(),
		Source:     string(r.Source),
		TestType:   r.TestType,
		TestName:   r.TestName,
		FileURL:    r.FileURL,
		FileName:   r.FileName,
		TestDate:   r.TestDate,
		LabName:    r.LabName,
		Notes:      r.Notes,
		UploadedAt: r.UploadedAt,
	}
}

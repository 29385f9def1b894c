// Package handler exposes the lifecycle engine and the bank and donor
// operations over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"artpriv/internal/lifecycle/bank"
	"artpriv/internal/lifecycle/donor"
	"artpriv/internal/lifecycle/engine"
	"artpriv/internal/lifecycle/models"
	"artpriv/internal/platform/metrics"
	"artpriv/internal/platform/middleware"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
	"artpriv/pkg/platform/httputil"
	"artpriv/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Lifecycle,Banks,Donors

// Lifecycle is the transition engine surface.
type Lifecycle interface {
	RequestTransition(ctx context.Context, req engine.Request) (models.Entity, error)
	ReadHistory(ctx context.Context, actor models.Actor, ref models.Ref, page models.Page) ([]models.StateHistory, error)
	CanTransition(kind models.EntityKind, from, to models.State) bool
}

// Banks is the bank-side service surface.
type Banks interface {
	RegisterBank(ctx context.Context, reg bank.Registration) (*models.Bank, error)
	UploadCertification(ctx context.Context, actor models.Actor, bankID id.BankID, doc models.DocumentRef) (*models.Bank, error)
	VerifyBank(ctx context.Context, actor models.Actor, bankID id.BankID, verifiedBy, notes string) (*models.Bank, error)
	CreateSubscription(ctx context.Context, actor models.Actor, bankID id.BankID, sub bank.Subscription) (*models.Bank, error)
	UpdateCounselingConfig(ctx context.Context, actor models.Actor, bankID id.BankID, cfg models.CounselingConfig) (*models.Bank, error)
	GetBank(ctx context.Context, actor models.Actor, bankID id.BankID) (*models.Bank, error)
	CreateConsentTemplate(ctx context.Context, actor models.Actor, bankID id.BankID, in bank.TemplateInput) (*models.ConsentTemplate, error)
	UpdateConsentTemplate(ctx context.Context, actor models.Actor, bankID id.BankID, templateID id.TemplateID, patch bank.TemplatePatch) (*models.ConsentTemplate, error)
	ListConsentTemplates(ctx context.Context, bankID id.BankID, activeOnly bool) ([]*models.ConsentTemplate, error)
	ListCounselingSessions(ctx context.Context, actor models.Actor, bankID id.BankID) ([]*models.CounselingSession, error)
	ScheduleCounseling(ctx context.Context, actor models.Actor, bankID id.BankID, sessionID id.CounselingSessionID, in bank.SessionSchedule) (*models.CounselingSession, error)
	UpdateCounselingSession(ctx context.Context, actor models.Actor, bankID id.BankID, sessionID id.CounselingSessionID, patch bank.SessionPatch) (*models.CounselingSession, error)
	ListDonors(ctx context.Context, actor models.Actor, bankID id.BankID) ([]*models.Donor, error)
}

// Donors is the donor-side service surface.
type Donors interface {
	CreateLead(ctx context.Context, lead donor.Lead) (*models.Donor, error)
	CreateAccount(ctx context.Context, in donor.Account) (*models.Donor, error)
	RequestCounseling(ctx context.Context, actor models.Actor, donorID id.DonorID, method models.CounselingMethod, notes string) (*models.CounselingSession, error)
	RequiredTemplates(ctx context.Context, bankID id.BankID) ([]*models.ConsentTemplate, error)
	SignConsent(ctx context.Context, actor models.Actor, donorID id.DonorID, templateID id.TemplateID, signature map[string]any) (*models.DonorConsent, error)
	VerifyConsent(ctx context.Context, actor models.Actor, consentID id.ConsentID, status models.ConsentStatus, notes string) (*models.DonorConsent, error)
	ListConsents(ctx context.Context, actor models.Actor, donorID id.DonorID) ([]*models.DonorConsent, error)
	UploadTestReport(ctx context.Context, actor models.Actor, donorID id.DonorID, in donor.TestReportInput) (*models.TestReport, error)
	ListTestReports(ctx context.Context, actor models.Actor, donorID id.DonorID) ([]*models.TestReport, error)
	DecideEligibility(ctx context.Context, actor models.Actor, donorID id.DonorID, status models.EligibilityStatus, notes string) (*models.Donor, error)
	GetDonor(ctx context.Context, actor models.Actor, donorID id.DonorID) (*models.Donor, error)
}

// Handler serves the lifecycle HTTP routes.
type Handler struct {
	logger         *slog.Logger
	lifecycle      Lifecycle
	banks          Banks
	donors         Donors
	metrics        *metrics.HTTP
	tokenValidator middleware.TokenValidator
	timeout        time.Duration
}

// New creates a Handler. A nil metrics disables request latency recording.
func New(
	lifecycle Lifecycle,
	banks Banks,
	donors Donors,
	logger *slog.Logger,
	metrics *metrics.HTTP,
	tokenValidator middleware.TokenValidator) *Handler {
	return &Handler{
		logger:         logger,
		lifecycle:      lifecycle,
		banks:          banks,
		donors:         donors,
		metrics:        metrics,
		tokenValidator: tokenValidator,
		timeout:        30 * time.Second,
	}
}

// Register registers the lifecycle routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(h.timeout))
	router.Use(middleware.ContentTypeJSON)
	if h.metrics != nil {
		router.Use(middleware.Latency(h.metrics))
	}

	// Sign-up routes are public.
	router.Post("/banks", h.handleRegisterBank)
	router.Get("/banks/{bankID}/required-consents", h.handleRequiredTemplates)
	router.Post("/donors/leads", h.handleCreateLead)
	router.Post("/donors/accounts", h.handleCreateAccount)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.tokenValidator, h.logger))

		r.Post("/lifecycle/{kind}/{id}/transitions", h.handleRequestTransition)
		r.Get("/lifecycle/{kind}/{id}/history", h.handleGetHistory)
		r.Get("/lifecycle/{kind}/edges", h.handleEdges)

		r.Get("/banks/{bankID}", h.handleGetBank)
		r.Post("/banks/{bankID}/certifications", h.handleUploadCertification)
		r.With(middleware.RequireRole(h.logger, string(models.RoleSuperAdmin), string(models.RoleSupport))).
			Post("/banks/{bankID}/verification", h.handleVerifyBank)
		r.Post("/banks/{bankID}/subscription", h.handleCreateSubscription)
		r.Put("/banks/{bankID}/counseling-config", h.handleUpdateCounselingConfig)
		r.Get("/banks/{bankID}/consent-templates", h.handleListTemplates)
		r.Post("/banks/{bankID}/consent-templates", h.handleCreateTemplate)
		r.Patch("/banks/{bankID}/consent-templates/{templateID}", h.handleUpdateTemplate)
		r.Get("/banks/{bankID}/donors", h.handleListBankDonors)
		r.Get("/banks/{bankID}/counseling-sessions", h.handleListCounselingSessions)
		r.Post("/banks/{bankID}/counseling-sessions/{sessionID}/schedule", h.handleScheduleCounseling)
		r.Patch("/banks/{bankID}/counseling-sessions/{sessionID}", h.handleUpdateCounselingSession)

		r.Get("/donors/{donorID}", h.handleGetDonor)
		r.Post("/donors/{donorID}/counseling", h.handleRequestCounseling)
		r.Get("/donors/{donorID}/consents", h.handleListConsents)
		r.Post("/donors/{donorID}/consents", h.handleSignConsent)
		r.Post("/consents/{consentID}/verification", h.handleVerifyConsent)
		r.Post("/donors/{donorID}/test-reports", h.handleUploadTestReport)
		r.Get("/donors/{donorID}/test-reports", h.handleListTestReports)
		r.Post("/donors/{donorID}/eligibility", h.handleDecideEligibility)
	})

	r.Mount("/", router)
}

// actorFrom turns the authenticated principal into a lifecycle actor.
func actorFrom(ctx context.Context) (models.Actor, error) {
	principal, ok := requestcontext.GetPrincipal(ctx)
	if !ok {
		return models.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	role, err := models.ParseRole(principal.Role)
	if err != nil {
		return models.Actor{}, err
	}
	return models.Actor{ID: principal.Subject, Role: role}, nil
}

// fail logs err at a level matching its status and writes the error response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestID,
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestID,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

// authenticated resolves the actor or writes the error response.
func (h *Handler) authenticated(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, err := actorFrom(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "unauthenticated request", err)
		return models.Actor{}, false
	}
	return actor, true
}

func (h *Handler) bankIDParam(w http.ResponseWriter, r *http.Request) (id.BankID, bool) {
	bankID, err := id.ParseBankID(chi.URLParam(r, "bankID"))
	if err != nil {
		h.fail(r.Context(), w, "invalid bank id", err)
		return id.BankID{}, false
	}
	return bankID, true
}

func (h *Handler) donorIDParam(w http.ResponseWriter, r *http.Request) (id.DonorID, bool) {
	donorID, err := id.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		h.fail(r.Context(), w, "invalid donor id", err)
		return id.DonorID{}, false
	}
	return donorID, true
}

// refParam parses the {kind}/{id} pair of the generic lifecycle routes.
func (h *Handler) refParam(w http.ResponseWriter, r *http.Request) (models.Ref, bool) {
	kind, err := models.ParseEntityKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.fail(r.Context(), w, "invalid entity kind", err)
		return models.Ref{}, false
	}
	raw := chi.URLParam(r, "id")
	var entityID uuid.UUID
	switch kind {
	case models.KindDonor:
		donorID, err := id.ParseDonorID(raw)
		if err != nil {
			h.fail(r.Context(), w, "invalid entity id", err)
			return models.Ref{}, false
		}
		entityID = uuid.UUID(donorID)
	case models.KindBank:
		bankID, err := id.ParseBankID(raw)
		if err != nil {
			h.fail(r.Context(), w, "invalid entity id", err)
			return models.Ref{}, false
		}
		entityID = uuid.UUID(bankID)
	}
	return models.Ref{Kind: kind, ID: entityID}, true
}

// pageParam reads limit and offset query parameters. Missing values fall back
// to the defaults applied by models.Page.Normalize.
func pageParam(r *http.Request) (models.Page, error) {
	var page models.Page
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return models.Page{}, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
		}
		page.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return models.Page{}, dErrors.New(dErrors.CodeBadRequest, "offset must be a non-negative integer")
		}
		page.Offset = n
	}
	return page.Normalize(), nil
}

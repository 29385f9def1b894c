package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"artpriv/internal/lifecycle/donor"
	"artpriv/internal/lifecycle/models"
	id "artpriv/pkg/domain"
	"artpriv/pkg/platform/httputil"
	"artpriv/pkg/requestcontext"
)

func (h *Handler) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[LeadRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d, err := h.donors.CreateLead(ctx, req.lead())
	if err != nil {
		h.fail(ctx, w, "failed to create lead", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDonor(d))
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AccountRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	docs := make([]models.DocumentRef, 0, len(req.LegalDocuments))
	for _, doc := range req.LegalDocuments {
		docs = append(docs, models.DocumentRef{Filename: doc.Filename, URL: doc.URL, UploadedAt: uploadTime(r)})
	}
	d, err := h.donors.CreateAccount(ctx, donor.Account{Email: req.Email, LegalDocuments: docs})
	if err != nil {
		h.fail(ctx, w, "failed to create account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDonor(d))
}

func (h *Handler) handleGetDonor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	donorID, ok := h.donorIDParam(w, r)
	if !ok {
		return
	}
	d, err := h.donors.GetDonor(ctx, actor, donorID)
	if err != nil {
		h.fail(ctx, w, "failed to get donor", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDonor(d))
}

func (h *Handler) handleRequestCounseling(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	donorID, ok := h.donorIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CounselingRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	session, err := h.donors.RequestCounseling(ctx, actor, donorID, models.CounselingMethod(req.Method), req.Notes)
	if err != nil {
		h.fail(ctx, w, "failed to request counseling", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCounseling(session))
}

func (h *Handler) handleListConsents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	donorID, ok := h.donorIDParam(w, r)
	if !ok {
		return
	}
	consents, err := h.donors.ListConsents(ctx, actor, donorID)
	if err != nil {
		h.fail(ctx, w, "failed to list consents", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"consents": toConsents(consents)})
}

func (h *Handler) handleSignConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	donorID, ok := h.donorIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SignConsentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	templateID, _ := id.ParseTemplateID(req.TemplateID)
	consent, err := h.donors.SignConsent(ctx, actor, donorID, templateID, req.SignatureData)
	if err != nil {
		h.fail(ctx, w, "failed to sign consent", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toConsent(consent))
}

func (h *Handler) handleVerifyConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	consentID, err := id.ParseConsentID(chi.URLParam(r, "consentID"))
	if err != nil {
		h.fail(ctx, w, "invalid consent id", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[VerifyConsentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	consent, err := h.donors.VerifyConsent(ctx, actor, consentID, models.ConsentStatus(req.Status), req.Notes)
	if err != nil {
		h.fail(ctx, w, "failed to verify consent", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConsent(consent))
}

func (h *Handler) handleUploadTestReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	donorID, ok := h.donorIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TestReportRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	report, err := h.donors.UploadTestReport(ctx, actor, donorID, donor.TestReportInput{
		TestType: req.TestType,
		TestName: req.TestName,
		FileURL:  req.FileURL,
		FileName: req.FileName,
		TestDate: req.TestDate,
		LabName:  req.LabName,
		Notes:    req.Notes,
	})
	if err != nil {
		h.fail(ctx, w, "failed to upload test report", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTestReport(report))
}

func (h *Handler) handleDecideEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	donorID, ok := h.donorIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[EligibilityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d, err := h.donors.DecideEligibility(ctx, actor, donorID, models.EligibilityStatus(req.Status), req.Notes)
	if err != nil {
		h.fail(ctx, w, "failed to decide eligibility", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDonor(d))
}

func (h *Handler) handleListTestReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	donorID, ok := h.donorIDParam(w, r)
	if !ok {
		return
	}
	reports, err := h.donors.ListTestReports(ctx, actor, donorID)
	if err != nil {
		h.fail(ctx, w, "failed to list test reports", err)
		return
	}
	out := make([]TestReportResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, toTestReport(rep))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"test_reports": out})
}

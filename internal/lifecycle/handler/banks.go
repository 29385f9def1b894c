package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"artpriv/internal/lifecycle/bank"
	"artpriv/internal/lifecycle/models"
	id "artpriv/pkg/domain"
	"artpriv/pkg/platform/httputil"
	"artpriv/pkg/requestcontext"
)

func (h *Handler) handleRegisterBank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RegisterBankRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	b, err := h.banks.RegisterBank(ctx, req.registration())
	if err != nil {
		h.fail(ctx, w, "failed to register bank", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toBank(b))
}

func (h *Handler) handleGetBank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	bankID, ok := h.bankIDParam(w, r)
	if !ok {
		return
	}
	b, err := h.banks.GetBank(ctx, actor, bankID)
	if err != nil {
		h.fail(ctx, w, "failed to get bank", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBank(b))
}

func (h *Handler) handleUploadCertification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	bankID, ok := h.bankIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DocumentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	b, err := h.banks.UploadCertification(ctx, actor, bankID, models.DocumentRef{
		Filename:   req.Filename,
		URL:        req.URL,
		UploadedAt: uploadTime(r),
	})
	if err != nil {
		h.fail(ctx, w, "failed to upload certification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBank(b))
}

func (h *Handler) handleVerifyBank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	bankID, ok := h.bankIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[VerifyBankRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	b, err := h.banks.VerifyBank(ctx, actor, bankID, req.VerifiedBy, req.Notes)
	if err != nil {
		h.fail(ctx, w, "failed to verify bank", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBank(b))
}

func (h *Handler) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	bankID, ok := h.bankIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubscriptionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	b, err := h.banks.CreateSubscription(ctx, actor, bankID, bank.Subscription{
		Tier:           req.Tier,
		BillingDetails: req.BillingDetails,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		h.fail(ctx, w, "failed to create subscription", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBank(b))
}

func (h *Handler) handleUpdateCounselingConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	bankID, ok := h.bankIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CounselingConfigRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	b, err := h.banks.UpdateCounselingConfig(ctx, actor, bankID, models.CounselingConfig{
		Methods:     req.Methods,
		TimeSlots:   req.TimeSlots,
		AutoApprove: req.AutoApprove,
	})
	if err != nil {
		h.fail(ctx, w, "failed to update counseling config", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBank(b))
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.authenticated(w, r); !ok {
		return
	}
	bankID, ok := h.bankIDParam(w, r)
	if !ok {
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"
	tpls, err := h.banks.ListConsentTemplates(ctx, bankID, activeOnly)
	if err != nil {
		h.fail(ctx, w, "failed to list consent templates", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"templates": toTemplates(tpls)})
}

// handleRequiredTemplates lists the consent forms a prospective donor of the
// bank will have to sign.
func (h *Handler) handleRequiredTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bankID, ok := h.bankIDParam(w, r)
	if !ok {
		return
	}
	tpls, err := h.donors.RequiredTemplates(ctx, bankID)
	if err != nil {
		h.fail(ctx, w, "failed to list required consents", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"templates": toTemplates(tpls)})
}

func (h *Handler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	bankID, ok := h.bankIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TemplateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	tpl, err := h.banks.CreateConsentTemplate(ctx, actor, bankID, bank.TemplateInput{
		Title:   req.Title,
		Content: req.Content,
		Version: req.Version,
		Order:   req.Order,
	})
	if err != nil {
		h.fail(ctx, w, "failed to create consent template", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTemplate(tpl))
}

func (h *Handler) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	bankID, ok := h.bankIDParam(w, r)
	if !ok {
		return
	}
	templateID, err := id.ParseTemplateID(chi.URLParam(r, "templateID"))
	if err != nil {
		h.fail(ctx, w, "invalid template id", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[TemplatePatchRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	tpl, err := h.banks.UpdateConsentTemplate(ctx, actor, bankID, templateID, bank.TemplatePatch{
		Title:    req.Title,
		Content:  req.Content,
		Order:    req.Order,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.fail(ctx, w, "failed to update consent template", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTemplate(tpl))
}

// uploadTime is the timestamp recorded on documents received in this request.
func uploadTime(r *http.Request) time.Time {
	return requestcontext.Now(r.Context())
}

func (h *Handler) handleListBankDonors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	bankID, ok := h.bankIDParam(w, r)
	if !ok {
		return
	}
	donors, err := h.banks.ListDonors(ctx, actor, bankID)
	if err != nil {
		h.fail(ctx, w, "failed to list donors", err)
		return
	}
	out := make([]DonorResponse, 0, len(donors))
	for _, d := range donors {
		out = append(out, toDonor(d))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"donors": out})
}

func (h *Handler) handleListCounselingSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	bankID, ok := h.bankIDParam(w, r)
	if !ok {
		return
	}
	sessions, err := h.banks.ListCounselingSessions(ctx, actor, bankID)
	if err != nil {
		h.fail(ctx, w, "failed to list counseling sessions", err)
		return
	}
	out := make([]CounselingResponse, 0, len(sessions))
	for _, cs := range sessions {
		out = append(out, toCounseling(cs))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (h *Handler) handleScheduleCounseling(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	bankID, ok := h.bankIDParam(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.sessionIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ScheduleCounselingRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	cs, err := h.banks.ScheduleCounseling(ctx, actor, bankID, sessionID, bank.SessionSchedule{
		ScheduledAt: *req.ScheduledAt,
		MeetingLink: req.MeetingLink,
		Location:    req.Location,
	})
	if err != nil {
		h.fail(ctx, w, "failed to schedule counseling", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCounseling(cs))
}

func (h *Handler) handleUpdateCounselingSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	bankID, ok := h.bankIDParam(w, r)
	if !ok {
		return
	}
	sessionID, ok := h.sessionIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CounselingSessionPatchRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	cs, err := h.banks.UpdateCounselingSession(ctx, actor, bankID, sessionID, req.patch())
	if err != nil {
		h.fail(ctx, w, "failed to update counseling session", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCounseling(cs))
}

func (h *Handler) sessionIDParam(w http.ResponseWriter, r *http.Request) (id.CounselingSessionID, bool) {
	sessionID, err := id.ParseCounselingSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(r.Context(), w, "invalid counseling session id", err)
		return id.CounselingSessionID{}, false
	}
	return sessionID, true
}

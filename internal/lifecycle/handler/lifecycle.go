package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"artpriv/internal/lifecycle/engine"
	"artpriv/internal/lifecycle/graph"
	"artpriv/internal/lifecycle/models"
	"artpriv/pkg/platform/httputil"
	"artpriv/pkg/requestcontext"
)

// handleRequestTransition performs one transition on behalf of the caller.
func (h *Handler) handleRequestTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	ref, ok := h.refParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	to, err := models.ParseState(ref.Kind, req.To)
	if err != nil {
		h.fail(ctx, w, "invalid target state", err)
		return
	}
	var expected models.State
	if req.ExpectedFrom != "" {
		if expected, err = models.ParseState(ref.Kind, req.ExpectedFrom); err != nil {
			h.fail(ctx, w, "invalid expected state", err)
			return
		}
	}

	entity, err := h.lifecycle.RequestTransition(ctx, engine.Request{
		Ref:          ref,
		To:           to,
		Actor:        actor,
		Reason:       req.Reason,
		ExpectedFrom: expected,
		Input:        req.input(),
	})
	if err != nil {
		h.fail(ctx, w, "transition rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEntity(entity))
}

// handleGetHistory returns one page of the entity's audit trail.
func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	ref, ok := h.refParam(w, r)
	if !ok {
		return
	}
	page, err := pageParam(r)
	if err != nil {
		h.fail(ctx, w, "invalid page", err)
		return
	}

	rows, err := h.lifecycle.ReadHistory(ctx, actor, ref, page)
	if err != nil {
		h.fail(ctx, w, "failed to read history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"history": toHistory(rows),
		"limit":   page.Limit,
		"offset":  page.Offset,
	})
}

// handleEdges answers whether from -> to is legal, or lists every edge of the
// kind when either state is omitted.
func (h *Handler) handleEdges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, err := models.ParseEntityKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.fail(ctx, w, "invalid entity kind", err)
		return
	}
	q := r.URL.Query()
	fromRaw, toRaw := q.Get("from"), q.Get("to")
	if fromRaw == "" || toRaw == "" {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"kind":  kind,
			"edges": toEdges(graph.Edges(kind)),
		})
		return
	}

	from, err := models.ParseState(kind, fromRaw)
	if err != nil {
		h.fail(ctx, w, "invalid from state", err)
		return
	}
	to, err := models.ParseState(kind, toRaw)
	if err != nil {
		h.fail(ctx, w, "invalid to state", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"kind":    kind,
		"from":    from.String(),
		"to":      to.String(),
		"allowed": h.lifecycle.CanTransition(kind, from, to),
	})
}

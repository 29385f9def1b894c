package engine

import (
	"context"
	"fmt"

	"artpriv/internal/lifecycle/authz"
	"artpriv/internal/lifecycle/graph"
	"artpriv/internal/lifecycle/guard"
	"artpriv/internal/lifecycle/models"
	"artpriv/internal/lifecycle/store"
	dErrors "artpriv/pkg/domain-errors"
	"artpriv/pkg/requestcontext"
)

// Tx is an open unit of work. It is only valid inside the function passed to
// Engine.Execute.
type Tx struct {
	engine *Engine
	store  store.Store
	events []models.Event
}

// Store returns the transactional store. Writes commit with the unit of work.
func (t *Tx) Store() store.Store {
	return t.store
}

// Emit records event in the outbox and queues it for post-commit dispatch.
func (t *Tx) Emit(ctx context.Context, event models.Event) error {
	entry, err := outboxEntry(event, t.engine.now())
	if err != nil {
		return err
	}
	if err := t.store.AppendOutbox(ctx, entry); err != nil {
		return err
	}
	t.events = append(t.events, event)
	return nil
}

// Transition applies req inside the unit of work and returns the updated entity.
func (t *Tx) Transition(ctx context.Context, req Request) (models.Entity, error) {
	entity, err := store.Load(ctx, t.store, req.Ref)
	if err != nil {
		return nil, translate(err, req.Ref)
	}
	from := entity.CurrentState()

	if req.ExpectedFrom != nil && req.ExpectedFrom != from {
		return nil, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("%s is in %s, expected %s", req.Ref.Kind, from, req.ExpectedFrom))
	}
	if req.To != nil && req.To == from {
		return nil, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("%s is already in %s", req.Ref.Kind, from))
	}
	if req.To == nil || !graph.IsLegalEdge(req.Ref.Kind, from, req.To) {
		return nil, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("%s cannot move from %s to %s", req.Ref.Kind, from, models.StateString(req.To)))
	}
	edge := graph.Edge{From: from, To: req.To}

	if err := authz.Authorize(req.Actor, edge, entity); err != nil {
		return nil, err
	}

	facts, err := loadFacts(ctx, t.store, guard.Needs(edge), entity)
	if err != nil {
		return nil, err
	}
	if err := guard.Check(edge, entity, facts, req.Input); err != nil {
		return nil, err
	}

	now := t.engine.now()
	next := entity.CloneEntity()
	if err := applyEffect(ctx, t.store, edge, next, req.Input, now); err != nil {
		return nil, translate(err, req.Ref)
	}
	if err := models.Advance(next, req.To, now); err != nil {
		return nil, err
	}

	h := models.NewHistory(req.Ref, from, req.To, req.Actor, req.Reason, now)
	if err := t.store.CompareAndSwap(ctx, next, from, h); err != nil {
		return nil, translate(err, req.Ref)
	}

	event := models.TransitionCommitted{
		Ref:       req.Ref,
		From:      from,
		To:        req.To,
		Actor:     req.Actor,
		Reason:    req.Reason,
		RequestID: requestcontext.RequestID(ctx),
		At:        now,
	}
	if err := t.Emit(ctx, event); err != nil {
		return nil, err
	}
	return next, nil
}

// Create persists a new entity in its initial state, together with the
// creation history row (from nil) and its TransitionCommitted event.
func (t *Tx) Create(ctx context.Context, entity models.Entity, actor models.Actor, reason string) error {
	ref := entity.EntityRef()
	now := t.engine.now()
	h := models.NewHistory(ref, nil, entity.CurrentState(), actor, reason, now)

	var err error
	switch e := entity.(type) {
	case *models.Bank:
		err = t.store.CreateBank(ctx, e, h)
	case *models.Donor:
		err = t.store.CreateDonor(ctx, e, h)
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("unsupported entity %T", entity))
	}
	if err != nil {
		return translate(err, ref)
	}

	return t.Emit(ctx, models.TransitionCommitted{
		Ref:       ref,
		To:        entity.CurrentState(),
		Actor:     actor,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		At:        now,
	})
}

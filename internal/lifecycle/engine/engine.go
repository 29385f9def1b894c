// Package engine runs lifecycle transitions.
//
// Every transition is checked against the graph, the authorization gate and the
// guard, then committed together with its history row and outbox row in one
// unit of work. Units of work on the same entity are serialized. Events are
// dispatched to observers after commit, never inside the transaction.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"artpriv/internal/lifecycle/authz"
	"artpriv/internal/lifecycle/graph"
	"artpriv/internal/lifecycle/guard"
	"artpriv/internal/lifecycle/metrics"
	"artpriv/internal/lifecycle/models"
	"artpriv/internal/lifecycle/store"
	dErrors "artpriv/pkg/domain-errors"
	"artpriv/pkg/platform/sentinel"
	"artpriv/pkg/requestcontext"
)

const tracerName = "artpriv/internal/lifecycle/engine"

// Locker serializes work on one entity across processes. Acquire returns
// sentinel.ErrConflict when the entity stays busy beyond the lock wait.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// Observer receives events after their unit of work commits.
type Observer interface {
	Observe(ctx context.Context, event models.Event) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event models.Event) error

func (f ObserverFunc) Observe(ctx context.Context, event models.Event) error { return f(ctx, event) }

// Request asks for one transition.
type Request struct {
	Ref    models.Ref
	To     models.State
	Actor  models.Actor
	Reason string
	// ExpectedFrom, when set, must equal the persisted state.
	ExpectedFrom models.State
	Input        guard.Input
}

// Engine is the transition engine.
type Engine struct {
	tx        *shardedTx
	reader    store.Reader
	locker    Locker
	observers []Observer
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	timeout   time.Duration
	now       func() time.Time
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLocker adds cross-process entity locking on top of the in-process shards.
func WithLocker(l Locker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

func WithObservers(observers ...Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, observers...)
	}
}

// WithTxTimeout bounds units of work whose context carries no deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New constructs an Engine. runner provides atomic units of work and reader
// serves reads outside them.
func New(runner store.TxRunner, reader store.Reader, opts ...Option) *Engine {
	e := &Engine{
		reader: reader,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tx = newShardedTx(runner, e.timeout)
	return e
}

// Subscribe registers an observer. Call during wiring, before serving requests.
func (e *Engine) Subscribe(o Observer) {
	e.observers = append(e.observers, o)
}

// CanTransition reports whether from -> to is an edge of kind's graph.
func (e *Engine) CanTransition(kind models.EntityKind, from, to models.State) bool {
	return graph.IsLegalEdge(kind, from, to)
}

// RequestTransition performs one transition as its own unit of work and
// returns the entity as committed.
func (e *Engine) RequestTransition(ctx context.Context, req Request) (models.Entity, error) {
	var out models.Entity
	err := e.Execute(ctx, req.Ref, func(ctx context.Context, tx *Tx) error {
		var err error
		out, err = tx.Transition(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Execute runs fn as one unit of work serialized on ref. Store writes and
// transitions made through tx commit together or not at all.
func (e *Engine) Execute(ctx context.Context, ref models.Ref, fn func(ctx context.Context, tx *Tx) error) error {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "lifecycle.Execute", trace.WithAttributes(
		attribute.String("entity.kind", string(ref.Kind)),
		attribute.String("entity.id", ref.ID.String()),
	))
	defer span.End()

	var events []models.Event
	err := e.locked(ctx, ref, func(ctx context.Context) error {
		return e.tx.RunInTx(ctx, ref.Key(), func(ctx context.Context, s store.Store) error {
			tx := &Tx{engine: e, store: s}
			if err := fn(ctx, tx); err != nil {
				return err
			}
			events = tx.events
			return nil
		})
	})
	if e.metrics != nil {
		e.metrics.ObserveTransition(string(ref.Kind), start)
	}
	if err != nil {
		err = translate(err, ref)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		e.logRejection(ctx, ref, err)
		return err
	}

	for _, ev := range events {
		if tc, ok := ev.(models.TransitionCommitted); ok {
			e.logCommitted(ctx, tc)
		}
	}
	e.dispatch(ctx, events)
	return nil
}

func (e *Engine) locked(ctx context.Context, ref models.Ref, fn func(ctx context.Context) error) error {
	if e.locker == nil {
		return fn(ctx)
	}
	release, err := e.locker.Acquire(ctx, ref.Key())
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.Wrap(err, dErrors.CodeConflict, fmt.Sprintf("%s is busy", ref.Kind))
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return dErrors.Wrap(err, dErrors.CodeTimeout, "timed out waiting for entity lock")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire entity lock")
	}
	defer func() {
		// The lock outlives the request deadline.
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			e.logger.WarnContext(ctx, "failed to release entity lock",
				"entity_kind", ref.Kind, "entity_id", ref.ID, "error", rerr)
		}
	}()
	return fn(ctx)
}

// GetHistory returns the entity's audit trail ordered by (created_at, seq).
func (e *Engine) GetHistory(ctx context.Context, ref models.Ref, page models.Page) ([]models.StateHistory, error) {
	if _, err := e.load(ctx, ref); err != nil {
		return nil, err
	}
	hist, err := e.reader.ListHistory(ctx, ref, page.Normalize())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list state history")
	}
	return hist, nil
}

// ReadHistory is GetHistory gated by the read rules of the authorization gate.
func (e *Engine) ReadHistory(ctx context.Context, actor models.Actor, ref models.Ref, page models.Page) ([]models.StateHistory, error) {
	entity, err := e.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !authz.CanRead(actor, entity) {
		return nil, dErrors.New(dErrors.CodeForbidden, fmt.Sprintf("%s may not read this %s history", actor.Role, ref.Kind))
	}
	hist, err := e.reader.ListHistory(ctx, ref, page.Normalize())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list state history")
	}
	return hist, nil
}

// Load returns the current entity addressed by ref.
func (e *Engine) Load(ctx context.Context, ref models.Ref) (models.Entity, error) {
	return e.load(ctx, ref)
}

func (e *Engine) load(ctx context.Context, ref models.Ref) (models.Entity, error) {
	if !ref.Kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown entity kind %q", ref.Kind))
	}
	entity, err := store.Load(ctx, e.reader, ref)
	if err != nil {
		return nil, translate(err, ref)
	}
	return entity, nil
}

func (e *Engine) dispatch(ctx context.Context, events []models.Event) {
	for _, ev := range events {
		for _, o := range e.observers {
			if err := o.Observe(ctx, ev); err != nil {
				e.logger.ErrorContext(ctx, "post-commit observer failed",
					"event", ev.EventName(),
					"request_id", requestcontext.RequestID(ctx),
					"error", err)
				if e.metrics != nil {
					e.metrics.IncrementObserverFailure(ev.EventName())
				}
			}
		}
	}
}

func (e *Engine) logCommitted(ctx context.Context, tc models.TransitionCommitted) {
	e.logger.InfoContext(ctx, "lifecycle transition committed",
		"request_id", tc.RequestID,
		"entity_kind", tc.Ref.Kind,
		"entity_id", tc.Ref.ID,
		"from", models.StateString(tc.From),
		"to", models.StateString(tc.To),
		"actor_role", tc.Actor.Role,
	)
	if e.metrics != nil {
		e.metrics.IncrementCommitted(string(tc.Ref.Kind), models.StateString(tc.From), models.StateString(tc.To))
	}
}

func (e *Engine) logRejection(ctx context.Context, ref models.Ref, err error) {
	code := dErrors.CodeOf(err)
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"entity_kind", ref.Kind,
		"entity_id", ref.ID,
		"code", code,
		"error", err,
	}
	if reason, ok := guard.ReasonOf(err); ok {
		attrs = append(attrs, "reason", reason)
	}
	if code == dErrors.CodeInternal || code == dErrors.CodeTimeout {
		e.logger.ErrorContext(ctx, "lifecycle unit of work failed", attrs...)
	} else {
		e.logger.InfoContext(ctx, "lifecycle request rejected", attrs...)
	}
	if e.metrics != nil {
		e.metrics.IncrementRejected(string(ref.Kind), string(code))
	}
}

// translate turns store sentinels and context errors into coded domain errors.
// Already coded errors pass through unchanged.
func translate(err error, ref models.Ref) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("%s not found", ref.Kind))
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, fmt.Sprintf("%s state changed concurrently", ref.Kind))
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "resource already exists")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "unit of work timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "lifecycle unit of work failed")
}

// loadFacts reads the guard facts for edge inside the unit of work.
func loadFacts(ctx context.Context, s store.Reader, need guard.Need, entity models.Entity) (guard.Facts, error) {
	var facts guard.Facts
	d, ok := entity.(*models.Donor)
	if !ok || need == 0 {
		return facts, nil
	}
	if need.Has(guard.NeedBank) && d.BankID != nil {
		b, err := s.GetBank(ctx, *d.BankID)
		switch {
		case err == nil:
			facts.Bank = b
		case !errors.Is(err, sentinel.ErrNotFound):
			return facts, err
		}
	}
	if need.Has(guard.NeedConsentCounts) {
		c, err := s.CountConsents(ctx, d.ID)
		if err != nil {
			return facts, err
		}
		facts.Consents = c
	}
	if need.Has(guard.NeedReportCount) {
		n, err := s.CountReports(ctx, d.ID)
		if err != nil {
			return facts, err
		}
		facts.Reports = n
	}
	return facts, nil
}

// Advance requests from -> to with no caller input. The request conflicts if
// the entity has left from.
func (e *Engine) Advance(ctx context.Context, ref models.Ref, from, to models.State, actor models.Actor, reason string) error {
	_, err := e.RequestTransition(ctx, Request{
		Ref:          ref,
		To:           to,
		Actor:        actor,
		Reason:       reason,
		ExpectedFrom: from,
	})
	return err
}

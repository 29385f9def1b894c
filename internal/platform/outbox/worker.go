package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"artpriv/pkg/platform/circuit"
)

//go:generate mockgen -source=worker.go -destination=mocks/outbox-mocks.go -package=mocks Store,Publisher

// Store is the relay side of the outbox table.
type Store interface {
	FetchUnpublished(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Publisher delivers entries to the broker. Publish returns only after every
// entry is acknowledged.
type Publisher interface {
	Publish(ctx context.Context, entries []Entry) error
}

// Worker relays unpublished outbox entries to the broker. Delivery is at least
// once: an entry is marked published only after the broker acknowledged it.
type Worker struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *Metrics
	interval  time.Duration
	batchSize int
	breaker   *circuit.Breaker
	now       func() time.Time
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		w.interval = d
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		w.batchSize = n
	}
}

// WithBreaker replaces the publisher circuit breaker. While it is open the
// worker sends a single entry per tick to test the publisher.
func WithBreaker(b *circuit.Breaker) Option {
	return func(w *Worker) {
		w.breaker = b
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

func NewWorker(store Store, publisher Publisher, opts ...Option) (*Worker, error) {
	if store == nil {
		return nil, errors.New("outbox store is required")
	}
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	w := &Worker{
		store:     store,
		publisher: publisher,
		logger:    slog.Default(),
		interval:  time.Second,
		batchSize: 100,
		breaker:   circuit.New("outbox-publisher", circuit.WithFailureThreshold(3)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.interval <= 0 || w.batchSize <= 0 {
		return nil, errors.New("interval and batch size must be positive")
	}
	return w, nil
}

// Run polls until ctx is cancelled. Relay errors are logged and retried on the
// next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if _, err := w.Drain(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Drain relays full batches until the outbox is empty and returns the number
// of entries published.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		limit := w.batchSize
		probing := w.breaker.IsOpen()
		if probing {
			limit = 1
		}
		n, err := w.relayBatch(ctx, limit)
		total += n
		if err != nil || n < limit || probing {
			return total, err
		}
	}
}

func (w *Worker) relayBatch(ctx context.Context, limit int) (int, error) {
	entries, err := w.store.FetchUnpublished(ctx, limit)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := w.publisher.Publish(ctx, entries); err != nil {
		if w.metrics != nil {
			w.metrics.IncrementFailures()
		}
		if _, change := w.breaker.RecordFailure(); change.Opened {
			w.logger.WarnContext(ctx, "outbox publisher circuit opened", "breaker", w.breaker.Name())
		}
		return 0, err
	}
	if _, change := w.breaker.RecordSuccess(); change.Closed {
		w.logger.InfoContext(ctx, "outbox publisher circuit closed", "breaker", w.breaker.Name())
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	now := w.now()
	if err := w.store.MarkPublished(ctx, ids, now); err != nil {
		// Entries were delivered; they will be delivered again on the next tick.
		if w.metrics != nil {
			w.metrics.IncrementFailures()
		}
		return 0, err
	}

	if w.metrics != nil {
		w.metrics.AddPublished(len(entries))
		w.metrics.ObserveLag(now.Sub(entries[0].CreatedAt))
	}
	w.logger.DebugContext(ctx, "outbox entries published", "count", len(entries))
	return len(entries), nil
}

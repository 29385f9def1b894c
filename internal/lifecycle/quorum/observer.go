package quorum

//go:generate mockgen -source=observer.go -destination=mocks/mocks.go -package=mocks DonorReader,Transitioner

import (
	"context"
	"errors"
	"log/slog"

	"artpriv/internal/lifecycle/metrics"
	"artpriv/internal/lifecycle/models"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
	"artpriv/pkg/requestcontext"
)

// AdvanceReason is recorded on the history row of an automatic advance.
const AdvanceReason = "All consents verified by bank"

// DonorReader reads the donor and its consent counts after commit.
type DonorReader interface {
	GetDonor(ctx context.Context, donorID id.DonorID) (*models.Donor, error)
	CountConsents(ctx context.Context, donorID id.DonorID) (models.ConsentCounts, error)
}

// Transitioner issues the advance through the engine.
type Transitioner interface {
	Advance(ctx context.Context, ref models.Ref, from, to models.State, actor models.Actor, reason string) error
}

// Observer advances a donor to consent_verified once the quorum holds while
// the donor is in consent_pending.
type Observer struct {
	donors       DonorReader
	transitioner Transitioner
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Observer)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Observer) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Observer) {
		o.metrics = m
	}
}

// NewObserver constructs an Observer.
func NewObserver(donors DonorReader, transitioner Transitioner, opts ...Option) (*Observer, error) {
	if donors == nil {
		return nil, errors.New("donor reader is required")
	}
	if transitioner == nil {
		return nil, errors.New("transitioner is required")
	}
	o := &Observer{donors: donors, transitioner: transitioner, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Observe re-checks the quorum when a consent is verified or a donor enters
// consent_pending, and ignores every other event.
func (o *Observer) Observe(ctx context.Context, event models.Event) error {
	switch ev := event.(type) {
	case models.ConsentVerified:
		if ev.Status != models.ConsentStatusVerified {
			return nil
		}
		return o.check(ctx, ev.DonorID)
	case models.TransitionCommitted:
		if ev.Ref.Kind != models.KindDonor || ev.To != models.DonorConsentPending {
			return nil
		}
		return o.check(ctx, id.DonorID(ev.Ref.ID))
	}
	return nil
}

func (o *Observer) check(ctx context.Context, donorID id.DonorID) error {
	donor, err := o.donors.GetDonor(ctx, donorID)
	if err != nil {
		return err
	}
	if donor.State != models.DonorConsentPending {
		return nil
	}
	counts, err := o.donors.CountConsents(ctx, donorID)
	if err != nil {
		return err
	}
	if !Satisfied(counts) {
		o.logger.DebugContext(ctx, "consent quorum not met",
			"request_id", requestcontext.RequestID(ctx),
			"donor_id", donorID,
			"total", counts.Total,
			"verified", counts.Verified,
		)
		return nil
	}

	err = o.transitioner.Advance(ctx, donor.EntityRef(),
		models.DonorConsentPending, models.DonorConsentVerified, models.SystemActor, AdvanceReason)
	if err != nil {
		// Another verification already advanced the donor.
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			o.logger.InfoContext(ctx, "consent quorum advance lost race",
				"request_id", requestcontext.RequestID(ctx),
				"donor_id", donorID,
			)
			return nil
		}
		return err
	}

	o.logger.InfoContext(ctx, "donor advanced on consent quorum",
		"request_id", requestcontext.RequestID(ctx),
		"donor_id", donorID,
		"bank_id", donor.BankID,
	)
	if o.metrics != nil {
		o.metrics.IncrementQuorumAdvance()
	}
	return nil
}

package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"artpriv/internal/lifecycle/graph"
	"artpriv/internal/lifecycle/guard"
	"artpriv/internal/lifecycle/models"
	"artpriv/internal/lifecycle/store"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
)

// effect writes the data an edge carries beyond the state change. It runs after
// the guard passed, on the copy that CompareAndSwap persists, and may write
// related rows through s.
type effect func(ctx context.Context, s store.Store, next models.Entity, in guard.Input, now time.Time) error

// effects is keyed by edge. Every caller of an edge, service or generic
// transition route, goes through the same entry.
var effects = map[graph.Edge]effect{
	{From: models.BankVerificationPending, To: models.BankVerified}:         markVerified,
	{From: models.BankVerified, To: models.BankSubscriptionPending}:         startSubscription,
	{From: models.DonorAccountCreated, To: models.DonorCounselingRequested}: openCounseling,
	{From: models.DonorTestsPending, To: models.DonorEligibilityDecision}:   recordEligibility,
}

func applyEffect(ctx context.Context, s store.Store, edge graph.Edge, next models.Entity, in guard.Input, now time.Time) error {
	fn, ok := effects[edge]
	if !ok {
		return nil
	}
	return fn(ctx, s, next, in, now)
}

func bankOf(e models.Entity) (*models.Bank, error) {
	b, ok := e.(*models.Bank)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("expected a bank, got %T", e))
	}
	return b, nil
}

func donorOf(e models.Entity) (*models.Donor, error) {
	d, ok := e.(*models.Donor)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("expected a donor, got %T", e))
	}
	return d, nil
}

func markVerified(_ context.Context, _ store.Store, next models.Entity, in guard.Input, now time.Time) error {
	b, err := bankOf(next)
	if err != nil {
		return err
	}
	b.MarkVerified(strings.TrimSpace(in.VerifiedBy), now)
	return nil
}

func startSubscription(_ context.Context, _ store.Store, next models.Entity, in guard.Input, now time.Time) error {
	b, err := bankOf(next)
	if err != nil {
		return err
	}
	sub := in.Subscription
	b.StartSubscription(strings.TrimSpace(sub.Tier), sub.BillingDetails, sub.ExpiresAt, now)
	return nil
}

func openCounseling(ctx context.Context, s store.Store, next models.Entity, in guard.Input, now time.Time) error {
	d, err := donorOf(next)
	if err != nil {
		return err
	}
	if d.BankID == nil {
		return guard.Fail(guard.ReasonBankNotSelected, "no bank associated")
	}
	sessionID := in.CounselingSessionID
	if sessionID.IsNil() {
		sessionID = id.NewCounselingSessionID()
	}
	d.CounselingPending = false
	return s.CreateCounselingSession(ctx, &models.CounselingSession{
		ID:          sessionID,
		DonorID:     d.ID,
		BankID:      *d.BankID,
		Method:      in.CounselingMethod,
		Status:      models.CounselingRequested,
		Notes:       strings.TrimSpace(in.CounselingNotes),
		RequestedAt: now,
		UpdatedAt:   now,
	})
}

func recordEligibility(_ context.Context, _ store.Store, next models.Entity, in guard.Input, now time.Time) error {
	d, err := donorOf(next)
	if err != nil {
		return err
	}
	d.RecordEligibility(in.Eligibility.Status, strings.TrimSpace(in.Eligibility.Notes), now)
	return nil
}

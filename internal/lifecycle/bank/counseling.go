package bank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"artpriv/internal/lifecycle/authz"
	"artpriv/internal/lifecycle/engine"
	"artpriv/internal/lifecycle/models"
	"artpriv/internal/lifecycle/store"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
	"artpriv/pkg/platform/sentinel"
)

// SessionSchedule books a requested counseling session.
type SessionSchedule struct {
	ScheduledAt time.Time
	MeetingLink string
	Location    string
}

// SessionPatch updates a counseling session. Nil fields are left unchanged.
type SessionPatch struct {
	Status      *models.CounselingStatus
	ScheduledAt *time.Time
	MeetingLink *string
	Location    *string
	Notes       *string
}

func (p SessionPatch) empty() bool {
	return p.Status == nil && p.ScheduledAt == nil && p.MeetingLink == nil && p.Location == nil && p.Notes == nil
}

// requireActiveBank loads the bank and checks it is verified and subscribed.
func requireActiveBank(ctx context.Context, r store.Reader, bankID id.BankID) (*models.Bank, error) {
	b, err := r.GetBank(ctx, bankID)
	if err != nil {
		return nil, storeError(err, "bank not found")
	}
	if !b.IsOperationalForDonors() {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, "bank must be verified and subscribed")
	}
	return b, nil
}

// ListCounselingSessions returns every counseling request made to the bank.
func (s *Service) ListCounselingSessions(ctx context.Context, actor models.Actor, bankID id.BankID) ([]*models.CounselingSession, error) {
	if !authz.ActsAsBank(actor, bankID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the bank may list its counseling requests")
	}
	if _, err := requireActiveBank(ctx, s.reader, bankID); err != nil {
		return nil, err
	}
	sessions, err := s.reader.ListCounselingSessions(ctx, bankID)
	if err != nil {
		return nil, storeError(err, "bank not found")
	}
	return sessions, nil
}

// ScheduleCounseling books a requested or already scheduled session.
func (s *Service) ScheduleCounseling(ctx context.Context, actor models.Actor, bankID id.BankID, sessionID id.CounselingSessionID, in SessionSchedule) (*models.CounselingSession, error) {
	if in.ScheduledAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "scheduled_at is required")
	}
	status := models.CounselingScheduled
	scheduledAt := in.ScheduledAt
	link := strings.TrimSpace(in.MeetingLink)
	location := strings.TrimSpace(in.Location)
	return s.UpdateCounselingSession(ctx, actor, bankID, sessionID, SessionPatch{
		Status:      &status,
		ScheduledAt: &scheduledAt,
		MeetingLink: &link,
		Location:    &location,
	})
}

// UpdateCounselingSession patches a session owned by the bank. Sessions of
// other banks are reported as not found. Completed and cancelled sessions are
// final.
func (s *Service) UpdateCounselingSession(ctx context.Context, actor models.Actor, bankID id.BankID, sessionID id.CounselingSessionID, patch SessionPatch) (*models.CounselingSession, error) {
	if !authz.ActsAsBank(actor, bankID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the bank may manage its counseling sessions")
	}
	if patch.empty() {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown counseling status %q", *patch.Status))
	}

	var out *models.CounselingSession
	err := s.lifecycle.Execute(ctx, models.BankRef(bankID), func(ctx context.Context, tx *engine.Tx) error {
		if _, err := requireActiveBank(ctx, tx.Store(), bankID); err != nil {
			return err
		}
		cs, err := tx.Store().GetCounselingSession(ctx, sessionID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		if err != nil || cs.BankID != bankID {
			return dErrors.New(dErrors.CodeNotFound, "counseling session not found")
		}
		if cs.Status.IsFinal() {
			return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("counseling session is already %s", cs.Status))
		}

		now := s.now()
		if patch.Status != nil {
			if !cs.Status.CanMoveTo(*patch.Status) {
				return dErrors.New(dErrors.CodeInvalidTransition,
					fmt.Sprintf("counseling session cannot move from %s to %s", cs.Status, *patch.Status))
			}
			cs.Status = *patch.Status
			if cs.Status == models.CounselingCompleted {
				cs.CompletedAt = &now
			}
		}
		if patch.ScheduledAt != nil {
			at := *patch.ScheduledAt
			cs.ScheduledAt = &at
		}
		if patch.MeetingLink != nil {
			cs.MeetingLink = strings.TrimSpace(*patch.MeetingLink)
		}
		if patch.Location != nil {
			cs.Location = strings.TrimSpace(*patch.Location)
		}
		if patch.Notes != nil {
			cs.Notes = strings.TrimSpace(*patch.Notes)
		}
		if cs.Status == models.CounselingScheduled && cs.ScheduledAt == nil {
			return dErrors.New(dErrors.CodeValidation, "a scheduled session needs scheduled_at")
		}
		cs.UpdatedAt = now
		if err := tx.Store().UpdateCounselingSession(ctx, cs); err != nil {
			return err
		}
		out = cs
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "counseling session updated",
		"bank_id", bankID, "session_id", sessionID, "status", out.Status)
	return out, nil
}

// ListDonors returns every donor who selected the bank.
func (s *Service) ListDonors(ctx context.Context, actor models.Actor, bankID id.BankID) ([]*models.Donor, error) {
	if !authz.ActsAsBank(actor, bankID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the bank may list its donors")
	}
	if _, err := requireActiveBank(ctx, s.reader, bankID); err != nil {
		return nil, err
	}
	donors, err := s.reader.ListDonorsByBank(ctx, bankID)
	if err != nil {
		return nil, storeError(err, "bank not found")
	}
	return donors, nil
}

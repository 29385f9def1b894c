package bank

import (
	"time"

	"artpriv/internal/lifecycle/models"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
)

// active registers a bank and takes it all the way to operational.
func (s *ServiceSuite) active(email string) *models.Bank {
	b := s.verified(email)
	b, err := s.service.CreateSubscription(s.ctx, self(b), b.ID, Subscription{Tier: "basic"})
	s.Require().NoError(err)
	return b
}

func (s *ServiceSuite) donorOf(b *models.Bank, state models.DonorState) *models.Donor {
	now := time.Now()
	d := &models.Donor{
		ID:                id.NewDonorID(),
		Email:             id.NewDonorID().String() + "@donor.example",
		State:             state,
		BankID:            &b.ID,
		EligibilityStatus: models.EligibilityPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	h := models.NewHistory(d.EntityRef(), nil, state, models.SystemActor, "seed", now)
	s.Require().NoError(s.store.CreateDonor(s.ctx, d, h))
	return d
}

func (s *ServiceSuite) requested(b *models.Bank) *models.CounselingSession {
	d := s.donorOf(b, models.DonorCounselingRequested)
	now := time.Now()
	cs := &models.CounselingSession{
		ID:          id.NewCounselingSessionID(),
		DonorID:     d.ID,
		BankID:      b.ID,
		Method:      models.CounselingVideo,
		Status:      models.CounselingRequested,
		RequestedAt: now,
		UpdatedAt:   now,
	}
	s.Require().NoError(s.store.CreateCounselingSession(s.ctx, cs))
	return cs
}

func status(st models.CounselingStatus) *models.CounselingStatus { return &st }

func text(v string) *string { return &v }

func (s *ServiceSuite) TestListCounselingSessions() {
	b := s.active("sessions@harbor.example")
	other := s.active("other-sessions@harbor.example")
	first := s.requested(b)
	second := s.requested(b)
	s.requested(other)

	s.Run("lists only the bank's sessions", func() {
		got, err := s.service.ListCounselingSessions(s.ctx, self(b), b.ID)
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.ElementsMatch([]id.CounselingSessionID{first.ID, second.ID}, []id.CounselingSessionID{got[0].ID, got[1].ID})
	})

	s.Run("no sessions is an empty list", func() {
		quiet := s.active("quiet@harbor.example")
		got, err := s.service.ListCounselingSessions(s.ctx, self(quiet), quiet.ID)
		s.Require().NoError(err)
		s.NotNil(got)
		s.Empty(got)
	})

	s.Run("another bank is forbidden", func() {
		_, err := s.service.ListCounselingSessions(s.ctx, self(other), b.ID)
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("bank must be verified and subscribed", func() {
		pending := s.verified("unsubscribed@harbor.example")
		_, err := s.service.ListCounselingSessions(s.ctx, self(pending), pending.ID)
		s.Equal(dErrors.CodePreconditionFailed, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestScheduleCounseling() {
	b := s.active("schedule@harbor.example")
	at := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)

	s.Run("books a requested session", func() {
		cs := s.requested(b)
		got, err := s.service.ScheduleCounseling(s.ctx, self(b), b.ID, cs.ID, SessionSchedule{
			ScheduledAt: at, MeetingLink: " https://meet.example/x ",
		})
		s.Require().NoError(err)
		s.Equal(models.CounselingScheduled, got.Status)
		s.Require().NotNil(got.ScheduledAt)
		s.True(at.Equal(*got.ScheduledAt))
		s.Equal("https://meet.example/x", got.MeetingLink)

		stored, err := s.store.GetCounselingSession(s.ctx, cs.ID)
		s.Require().NoError(err)
		s.Equal(models.CounselingScheduled, stored.Status)
	})

	s.Run("rescheduling keeps the session scheduled", func() {
		cs := s.requested(b)
		_, err := s.service.ScheduleCounseling(s.ctx, self(b), b.ID, cs.ID, SessionSchedule{ScheduledAt: at})
		s.Require().NoError(err)
		later := at.Add(24 * time.Hour)
		got, err := s.service.ScheduleCounseling(s.ctx, self(b), b.ID, cs.ID, SessionSchedule{ScheduledAt: later, Location: "Room 4"})
		s.Require().NoError(err)
		s.True(later.Equal(*got.ScheduledAt))
		s.Equal("Room 4", got.Location)
	})

	s.Run("needs a time", func() {
		cs := s.requested(b)
		_, err := s.service.ScheduleCounseling(s.ctx, self(b), b.ID, cs.ID, SessionSchedule{})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestUpdateCounselingSession() {
	b := s.active("update@harbor.example")
	other := s.active("update-other@harbor.example")
	at := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)

	s.Run("completing a scheduled session stamps completion", func() {
		cs := s.requested(b)
		_, err := s.service.ScheduleCounseling(s.ctx, self(b), b.ID, cs.ID, SessionSchedule{ScheduledAt: at})
		s.Require().NoError(err)

		got, err := s.service.UpdateCounselingSession(s.ctx, self(b), b.ID, cs.ID, SessionPatch{
			Status: status(models.CounselingCompleted), Notes: text(" went well "),
		})
		s.Require().NoError(err)
		s.Equal(models.CounselingCompleted, got.Status)
		s.NotNil(got.CompletedAt)
		s.Equal("went well", got.Notes)
	})

	s.Run("final sessions conflict", func() {
		cs := s.requested(b)
		_, err := s.service.UpdateCounselingSession(s.ctx, self(b), b.ID, cs.ID, SessionPatch{Status: status(models.CounselingCancelled)})
		s.Require().NoError(err)

		_, err = s.service.UpdateCounselingSession(s.ctx, self(b), b.ID, cs.ID, SessionPatch{Notes: text("too late")})
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("a requested session cannot complete", func() {
		cs := s.requested(b)
		_, err := s.service.UpdateCounselingSession(s.ctx, self(b), b.ID, cs.ID, SessionPatch{Status: status(models.CounselingCompleted)})
		s.Equal(dErrors.CodeInvalidTransition, dErrors.CodeOf(err))

		stored, err := s.store.GetCounselingSession(s.ctx, cs.ID)
		s.Require().NoError(err)
		s.Equal(models.CounselingRequested, stored.Status)
	})

	s.Run("scheduling through a patch needs a time", func() {
		cs := s.requested(b)
		_, err := s.service.UpdateCounselingSession(s.ctx, self(b), b.ID, cs.ID, SessionPatch{Status: status(models.CounselingScheduled)})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	s.Run("another bank's session is not found", func() {
		cs := s.requested(other)
		_, err := s.service.UpdateCounselingSession(s.ctx, self(b), b.ID, cs.ID, SessionPatch{Notes: text("mine now")})
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("unknown session is not found", func() {
		_, err := s.service.UpdateCounselingSession(s.ctx, self(b), b.ID, id.NewCounselingSessionID(), SessionPatch{Notes: text("x")})
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("other actors are forbidden", func() {
		cs := s.requested(b)
		_, err := s.service.UpdateCounselingSession(s.ctx, self(other), b.ID, cs.ID, SessionPatch{Notes: text("x")})
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
		_, err = s.service.UpdateCounselingSession(s.ctx, admin, b.ID, cs.ID, SessionPatch{Notes: text("x")})
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("empty patch and unknown status are invalid", func() {
		cs := s.requested(b)
		_, err := s.service.UpdateCounselingSession(s.ctx, self(b), b.ID, cs.ID, SessionPatch{})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
		_, err = s.service.UpdateCounselingSession(s.ctx, self(b), b.ID, cs.ID, SessionPatch{Status: status("archived")})
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestListDonors() {
	b := s.active("donors@harbor.example")
	other := s.active("donors-other@harbor.example")
	mine := s.donorOf(b, models.DonorLeadCreated)
	s.donorOf(other, models.DonorLeadCreated)

	s.Run("lists donors who selected the bank", func() {
		got, err := s.service.ListDonors(s.ctx, self(b), b.ID)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(mine.ID, got[0].ID)
	})

	s.Run("another bank is forbidden", func() {
		_, err := s.service.ListDonors(s.ctx, self(other), b.ID)
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("inactive bank is refused", func() {
		fresh := s.register("fresh@harbor.example")
		_, err := s.service.ListDonors(s.ctx, self(fresh), fresh.ID)
		s.Equal(dErrors.CodePreconditionFailed, dErrors.CodeOf(err))
	})
}

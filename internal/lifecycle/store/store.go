// Package store persists lifecycle entities, their audit history and outbox rows.
//
// Two implementations share one contract: Memory buffers every write of a unit
// of work and applies it at commit, and Postgres runs the unit of work inside a
// SQL transaction carried through the context.
package store

import (
	"context"
	"fmt"

	"artpriv/internal/lifecycle/models"
	"artpriv/internal/platform/outbox"
	id "artpriv/pkg/domain"
)

// Reader is the read side of the store.
type Reader interface {
	GetBank(ctx context.Context, bankID id.BankID) (*models.Bank, error)
	GetBankByEmail(ctx context.Context, email string) (*models.Bank, error)
	GetDonor(ctx context.Context, donorID id.DonorID) (*models.Donor, error)
	GetDonorByEmail(ctx context.Context, email string) (*models.Donor, error)
	GetTemplate(ctx context.Context, templateID id.TemplateID) (*models.ConsentTemplate, error)
	ListTemplates(ctx context.Context, bankID id.BankID, activeOnly bool) ([]*models.ConsentTemplate, error)
	GetConsent(ctx context.Context, consentID id.ConsentID) (*models.DonorConsent, error)
	ListConsents(ctx context.Context, donorID id.DonorID) ([]*models.DonorConsent, error)
	CountConsents(ctx context.Context, donorID id.DonorID) (models.ConsentCounts, error)
	CountReports(ctx context.Context, donorID id.DonorID) (int, error)
	ListTestReports(ctx context.Context, donorID id.DonorID) ([]*models.TestReport, error)
	ListDonorsByBank(ctx context.Context, bankID id.BankID) ([]*models.Donor, error)
	GetCounselingSession(ctx context.Context, sessionID id.CounselingSessionID) (*models.CounselingSession, error)
	ListCounselingSessions(ctx context.Context, bankID id.BankID) ([]*models.CounselingSession, error)
	ListHistory(ctx context.Context, ref models.Ref, page models.Page) ([]models.StateHistory, error)
}

// Writer is the write side of the store.
//
// UpdateBank and UpdateDonor never write State, and UpdateDonor never writes
// BankID. State only moves through CompareAndSwap, which appends its history
// row in the same write.
type Writer interface {
	CreateBank(ctx context.Context, bank *models.Bank, initial models.StateHistory) error
	UpdateBank(ctx context.Context, bank *models.Bank) error
	CreateDonor(ctx context.Context, donor *models.Donor, initial models.StateHistory) error
	UpdateDonor(ctx context.Context, donor *models.Donor) error
	CompareAndSwap(ctx context.Context, entity models.Entity, expected models.State, h models.StateHistory) error
	CreateTemplate(ctx context.Context, t *models.ConsentTemplate) error
	UpdateTemplate(ctx context.Context, t *models.ConsentTemplate) error
	CreateConsent(ctx context.Context, c *models.DonorConsent) error
	UpdateConsent(ctx context.Context, c *models.DonorConsent) error
	CreateCounselingSession(ctx context.Context, s *models.CounselingSession) error
	UpdateCounselingSession(ctx context.Context, s *models.CounselingSession) error
	CreateTestReport(ctx context.Context, r *models.TestReport) error
	AppendOutbox(ctx context.Context, e outbox.Entry) error
}

// Store is the full store contract used inside a unit of work.
type Store interface {
	Reader
	Writer
}

// TxRunner runs fn as one atomic unit of work. fn must use the Store and
// context it is given; an error from fn rolls every write back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

// Load reads the entity addressed by ref.
func Load(ctx context.Context, r Reader, ref models.Ref) (models.Entity, error) {
	switch ref.Kind {
	case models.KindDonor:
		d, err := r.GetDonor(ctx, id.DonorID(ref.ID))
		if err != nil {
			return nil, err
		}
		return d, nil
	case models.KindBank:
		b, err := r.GetBank(ctx, id.BankID(ref.ID))
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", ref.Kind)
}

// CountConsents derives quorum counts from a donor's consents.
func CountConsents(consents []*models.DonorConsent) models.ConsentCounts {
	var c models.ConsentCounts
	for _, consent := range consents {
		c.Total++
		switch consent.Status {
		case models.ConsentStatusSigned:
			c.Signed++
		case models.ConsentStatusVerified:
			c.Signed++
			c.Verified++
		}
	}
	return c
}

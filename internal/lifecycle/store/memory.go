package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"artpriv/internal/lifecycle/models"
	"artpriv/internal/platform/outbox"
	id "artpriv/pkg/domain"
	"artpriv/pkg/platform/sentinel"
)

// Memory is an in-process Store. Units of work run through RunInTx buffer their
// writes and apply them under the store lock at commit.
type Memory struct {
	mu        sync.RWMutex
	banks     map[id.BankID]*models.Bank
	donors    map[id.DonorID]*models.Donor
	templates map[id.TemplateID]*models.ConsentTemplate
	consents  map[id.ConsentID]*models.DonorConsent
	sessions  map[id.CounselingSessionID]*models.CounselingSession
	reports   map[id.ReportID]*models.TestReport
	history   []models.StateHistory
	seq       int64
	outbox    []outbox.Entry
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		banks:     make(map[id.BankID]*models.Bank),
		donors:    make(map[id.DonorID]*models.Donor),
		templates: make(map[id.TemplateID]*models.ConsentTemplate),
		consents:  make(map[id.ConsentID]*models.DonorConsent),
		sessions:  make(map[id.CounselingSessionID]*models.CounselingSession),
		reports:   make(map[id.ReportID]*models.TestReport),
	}
}

// RunInTx runs fn against a buffered view of the store. Writes become visible
// to other callers only if fn returns nil and the commit-time checks pass.
func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	tx := newMemTx(m)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

func (m *Memory) write(ctx context.Context, fn func(s Store) error) error {
	return m.RunInTx(ctx, func(_ context.Context, s Store) error { return fn(s) })
}

// -----------------------------------------------------------------------------
// Reader
// -----------------------------------------------------------------------------

func (m *Memory) GetBank(_ context.Context, bankID id.BankID) (*models.Bank, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.banks[bankID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return b.Clone(), nil
}

func (m *Memory) GetBankByEmail(_ context.Context, email string) (*models.Bank, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.banks {
		if strings.EqualFold(b.Email, email) {
			return b.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) GetDonor(_ context.Context, donorID id.DonorID) (*models.Donor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.donors[donorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return d.Clone(), nil
}

func (m *Memory) GetDonorByEmail(_ context.Context, email string) (*models.Donor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.donors {
		if strings.EqualFold(d.Email, email) {
			return d.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) GetTemplate(_ context.Context, templateID id.TemplateID) (*models.ConsentTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[templateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (m *Memory) ListTemplates(_ context.Context, bankID id.BankID, activeOnly bool) ([]*models.ConsentTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterTemplates(m.templates, bankID, activeOnly), nil
}

func (m *Memory) GetConsent(_ context.Context, consentID id.ConsentID) (*models.DonorConsent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.consents[consentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (m *Memory) ListConsents(_ context.Context, donorID id.DonorID) ([]*models.DonorConsent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterConsents(m.consents, donorID), nil
}

func (m *Memory) CountConsents(ctx context.Context, donorID id.DonorID) (models.ConsentCounts, error) {
	consents, err := m.ListConsents(ctx, donorID)
	if err != nil {
		return models.ConsentCounts{}, err
	}
	return CountConsents(consents), nil
}

func (m *Memory) CountReports(_ context.Context, donorID id.DonorID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.reports {
		if r.DonorID == donorID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) ListTestReports(_ context.Context, donorID id.DonorID) ([]*models.TestReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterReports(m.reports, donorID), nil
}

func (m *Memory) ListDonorsByBank(_ context.Context, bankID id.BankID) ([]*models.Donor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterDonors(m.donors, bankID), nil
}

func (m *Memory) GetCounselingSession(_ context.Context, sessionID id.CounselingSessionID) (*models.CounselingSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cs, ok := m.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cs.Clone(), nil
}

func (m *Memory) ListCounselingSessions(_ context.Context, bankID id.BankID) ([]*models.CounselingSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterSessions(m.sessions, bankID), nil
}

func (m *Memory) ListHistory(_ context.Context, ref models.Ref, page models.Page) ([]models.StateHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return paginateHistory(m.history, ref, page), nil
}

// -----------------------------------------------------------------------------
// Writer
// -----------------------------------------------------------------------------

func (m *Memory) CreateBank(ctx context.Context, bank *models.Bank, initial models.StateHistory) error {
	return m.write(ctx, func(s Store) error { return s.CreateBank(ctx, bank, initial) })
}

func (m *Memory) UpdateBank(ctx context.Context, bank *models.Bank) error {
	return m.write(ctx, func(s Store) error { return s.UpdateBank(ctx, bank) })
}

func (m *Memory) CreateDonor(ctx context.Context, donor *models.Donor, initial models.StateHistory) error {
	return m.write(ctx, func(s Store) error { return s.CreateDonor(ctx, donor, initial) })
}

func (m *Memory) UpdateDonor(ctx context.Context, donor *models.Donor) error {
	return m.write(ctx, func(s Store) error { return s.UpdateDonor(ctx, donor) })
}

func (m *Memory) CompareAndSwap(ctx context.Context, entity models.Entity, expected models.State, h models.StateHistory) error {
	return m.write(ctx, func(s Store) error { return s.CompareAndSwap(ctx, entity, expected, h) })
}

func (m *Memory) CreateTemplate(ctx context.Context, t *models.ConsentTemplate) error {
	return m.write(ctx, func(s Store) error { return s.CreateTemplate(ctx, t) })
}

func (m *Memory) UpdateTemplate(ctx context.Context, t *models.ConsentTemplate) error {
	return m.write(ctx, func(s Store) error { return s.UpdateTemplate(ctx, t) })
}

func (m *Memory) CreateConsent(ctx context.Context, c *models.DonorConsent) error {
	return m.write(ctx, func(s Store) error { return s.CreateConsent(ctx, c) })
}

func (m *Memory) UpdateConsent(ctx context.Context, c *models.DonorConsent) error {
	return m.write(ctx, func(s Store) error { return s.UpdateConsent(ctx, c) })
}

func (m *Memory) CreateCounselingSession(ctx context.Context, cs *models.CounselingSession) error {
	return m.write(ctx, func(s Store) error { return s.CreateCounselingSession(ctx, cs) })
}

func (m *Memory) UpdateCounselingSession(ctx context.Context, cs *models.CounselingSession) error {
	return m.write(ctx, func(s Store) error { return s.UpdateCounselingSession(ctx, cs) })
}

func (m *Memory) CreateTestReport(ctx context.Context, r *models.TestReport) error {
	return m.write(ctx, func(s Store) error { return s.CreateTestReport(ctx, r) })
}

func (m *Memory) AppendOutbox(ctx context.Context, e outbox.Entry) error {
	return m.write(ctx, func(s Store) error { return s.AppendOutbox(ctx, e) })
}

// -----------------------------------------------------------------------------
// Outbox relay
// -----------------------------------------------------------------------------

// FetchUnpublished returns up to limit unpublished entries, oldest first.
func (m *Memory) FetchUnpublished(_ context.Context, limit int) ([]outbox.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []outbox.Entry
	for _, e := range m.outbox {
		if e.PublishedAt != nil {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkPublished stamps the given entries as published.
func (m *Memory) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, i := range ids {
		set[i] = struct{}{}
	}
	for i := range m.outbox {
		if _, ok := set[m.outbox[i].ID]; ok && m.outbox[i].PublishedAt == nil {
			t := at
			m.outbox[i].PublishedAt = &t
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func filterTemplates(all map[id.TemplateID]*models.ConsentTemplate, bankID id.BankID, activeOnly bool) []*models.ConsentTemplate {
	var out []*models.ConsentTemplate
	for _, t := range all {
		if t.BankID != bankID || (activeOnly && !t.IsActive) {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func filterConsents(all map[id.ConsentID]*models.DonorConsent, donorID id.DonorID) []*models.DonorConsent {
	var out []*models.DonorConsent
	for _, c := range all {
		if c.DonorID == donorID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func filterReports(all map[id.ReportID]*models.TestReport, donorID id.DonorID) []*models.TestReport {
	out := []*models.TestReport{}
	for _, r := range all {
		if r.DonorID == donorID {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out
}

func filterDonors(all map[id.DonorID]*models.Donor, bankID id.BankID) []*models.Donor {
	out := []*models.Donor{}
	for _, d := range all {
		if d.OwnedBy(bankID) {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func filterSessions(all map[id.CounselingSessionID]*models.CounselingSession, bankID id.BankID) []*models.CounselingSession {
	out := []*models.CounselingSession{}
	for _, cs := range all {
		if cs.BankID == bankID {
			out = append(out, cs.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out
}

// paginateHistory selects ref's rows ordered by (created_at, seq).
func paginateHistory(rows []models.StateHistory, ref models.Ref, page models.Page) []models.StateHistory {
	page = page.Normalize()
	var matched []models.StateHistory
	for _, h := range rows {
		if h.EntityKind == ref.Kind && h.EntityID == ref.ID {
			matched = append(matched, h)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].Seq < matched[j].Seq
	})
	if page.Offset >= len(matched) {
		return []models.StateHistory{}
	}
	end := min(page.Offset+page.Limit, len(matched))
	return matched[page.Offset:end]
}

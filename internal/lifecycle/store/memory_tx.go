package store

import (
	"context"
	"strings"

	"artpriv/internal/lifecycle/models"
	"artpriv/internal/platform/outbox"
	id "artpriv/pkg/domain"
	"artpriv/pkg/platform/sentinel"
)

// memTx is a buffered unit of work over Memory. Reads see the tx's own writes
// first, then the committed base. Nothing reaches the base until commit.
type memTx struct {
	base *Memory

	banks     map[id.BankID]*models.Bank
	donors    map[id.DonorID]*models.Donor
	templates map[id.TemplateID]*models.ConsentTemplate
	consents  map[id.ConsentID]*models.DonorConsent
	sessions  map[id.CounselingSessionID]*models.CounselingSession
	reports   []*models.TestReport
	history   []models.StateHistory
	outbox    []outbox.Entry

	// observed records the base state of every entity read from the base, so
	// commit can detect a concurrent writer.
	observed map[models.Ref]models.State
	created  map[models.Ref]bool
}

func newMemTx(base *Memory) *memTx {
	return &memTx{
		base:      base,
		banks:     make(map[id.BankID]*models.Bank),
		donors:    make(map[id.DonorID]*models.Donor),
		templates: make(map[id.TemplateID]*models.ConsentTemplate),
		consents:  make(map[id.ConsentID]*models.DonorConsent),
		sessions:  make(map[id.CounselingSessionID]*models.CounselingSession),
		observed:  make(map[models.Ref]models.State),
		created:   make(map[models.Ref]bool),
	}
}

func (t *memTx) observe(ref models.Ref, s models.State) {
	if _, ok := t.observed[ref]; !ok {
		t.observed[ref] = s
	}
}

// -----------------------------------------------------------------------------
// Reader
// -----------------------------------------------------------------------------

func (t *memTx) GetBank(ctx context.Context, bankID id.BankID) (*models.Bank, error) {
	if b, ok := t.banks[bankID]; ok {
		return b.Clone(), nil
	}
	b, err := t.base.GetBank(ctx, bankID)
	if err != nil {
		return nil, err
	}
	t.observe(b.EntityRef(), b.State)
	return b, nil
}

func (t *memTx) GetBankByEmail(ctx context.Context, email string) (*models.Bank, error) {
	for _, b := range t.banks {
		if strings.EqualFold(b.Email, email) {
			return b.Clone(), nil
		}
	}
	b, err := t.base.GetBankByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return t.GetBank(ctx, b.ID)
}

func (t *memTx) GetDonor(ctx context.Context, donorID id.DonorID) (*models.Donor, error) {
	if d, ok := t.donors[donorID]; ok {
		return d.Clone(), nil
	}
	d, err := t.base.GetDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}
	t.observe(d.EntityRef(), d.State)
	return d, nil
}

func (t *memTx) GetDonorByEmail(ctx context.Context, email string) (*models.Donor, error) {
	for _, d := range t.donors {
		if strings.EqualFold(d.Email, email) {
			return d.Clone(), nil
		}
	}
	d, err := t.base.GetDonorByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return t.GetDonor(ctx, d.ID)
}

func (t *memTx) GetTemplate(ctx context.Context, templateID id.TemplateID) (*models.ConsentTemplate, error) {
	if tpl, ok := t.templates[templateID]; ok {
		c := *tpl
		return &c, nil
	}
	return t.base.GetTemplate(ctx, templateID)
}

func (t *memTx) ListTemplates(_ context.Context, bankID id.BankID, activeOnly bool) ([]*models.ConsentTemplate, error) {
	t.base.mu.RLock()
	merged := make(map[id.TemplateID]*models.ConsentTemplate, len(t.base.templates)+len(t.templates))
	for k, v := range t.base.templates {
		merged[k] = v
	}
	t.base.mu.RUnlock()
	for k, v := range t.templates {
		merged[k] = v
	}
	return filterTemplates(merged, bankID, activeOnly), nil
}

func (t *memTx) GetConsent(ctx context.Context, consentID id.ConsentID) (*models.DonorConsent, error) {
	if c, ok := t.consents[consentID]; ok {
		return c.Clone(), nil
	}
	return t.base.GetConsent(ctx, consentID)
}

func (t *memTx) ListConsents(_ context.Context, donorID id.DonorID) ([]*models.DonorConsent, error) {
	t.base.mu.RLock()
	merged := make(map[id.ConsentID]*models.DonorConsent)
	for k, v := range t.base.consents {
		if v.DonorID == donorID {
			merged[k] = v
		}
	}
	t.base.mu.RUnlock()
	for k, v := range t.consents {
		merged[k] = v
	}
	return filterConsents(merged, donorID), nil
}

func (t *memTx) CountConsents(ctx context.Context, donorID id.DonorID) (models.ConsentCounts, error) {
	consents, err := t.ListConsents(ctx, donorID)
	if err != nil {
		return models.ConsentCounts{}, err
	}
	return CountConsents(consents), nil
}

func (t *memTx) CountReports(ctx context.Context, donorID id.DonorID) (int, error) {
	n, err := t.base.CountReports(ctx, donorID)
	if err != nil {
		return 0, err
	}
	for _, r := range t.reports {
		if r.DonorID == donorID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) ListTestReports(ctx context.Context, donorID id.DonorID) ([]*models.TestReport, error) {
	t.base.mu.RLock()
	merged := make(map[id.ReportID]*models.TestReport, len(t.base.reports)+len(t.reports))
	for k, v := range t.base.reports {
		merged[k] = v
	}
	t.base.mu.RUnlock()
	for _, r := range t.reports {
		merged[r.ID] = r
	}
	return filterReports(merged, donorID), nil
}

func (t *memTx) ListDonorsByBank(_ context.Context, bankID id.BankID) ([]*models.Donor, error) {
	t.base.mu.RLock()
	merged := make(map[id.DonorID]*models.Donor, len(t.base.donors)+len(t.donors))
	for k, v := range t.base.donors {
		merged[k] = v
	}
	t.base.mu.RUnlock()
	for k, v := range t.donors {
		merged[k] = v
	}
	return filterDonors(merged, bankID), nil
}

func (t *memTx) GetCounselingSession(ctx context.Context, sessionID id.CounselingSessionID) (*models.CounselingSession, error) {
	if cs, ok := t.sessions[sessionID]; ok {
		return cs.Clone(), nil
	}
	return t.base.GetCounselingSession(ctx, sessionID)
}

func (t *memTx) ListCounselingSessions(_ context.Context, bankID id.BankID) ([]*models.CounselingSession, error) {
	t.base.mu.RLock()
	merged := make(map[id.CounselingSessionID]*models.CounselingSession, len(t.base.sessions)+len(t.sessions))
	for k, v := range t.base.sessions {
		merged[k] = v
	}
	t.base.mu.RUnlock()
	for k, v := range t.sessions {
		merged[k] = v
	}
	return filterSessions(merged, bankID), nil
}

func (t *memTx) ListHistory(_ context.Context, ref models.Ref, page models.Page) ([]models.StateHistory, error) {
	t.base.mu.RLock()
	rows := make([]models.StateHistory, 0, len(t.base.history)+len(t.history))
	rows = append(rows, t.base.history...)
	next := t.base.seq
	t.base.mu.RUnlock()
	for _, h := range t.history {
		next++
		h.Seq = next
		rows = append(rows, h)
	}
	return paginateHistory(rows, ref, page), nil
}

// -----------------------------------------------------------------------------
// Writer
// -----------------------------------------------------------------------------

func (t *memTx) CreateBank(ctx context.Context, bank *models.Bank, initial models.StateHistory) error {
	if _, err := t.GetBankByEmail(ctx, bank.Email); err == nil {
		return sentinel.ErrAlreadyUsed
	}
	if _, err := t.GetBank(ctx, bank.ID); err == nil {
		return sentinel.ErrAlreadyUsed
	}
	t.banks[bank.ID] = bank.Clone()
	t.created[bank.EntityRef()] = true
	t.history = append(t.history, initial)
	return nil
}

func (t *memTx) UpdateBank(ctx context.Context, bank *models.Bank) error {
	cur, err := t.GetBank(ctx, bank.ID)
	if err != nil {
		return err
	}
	next := bank.Clone()
	next.State = cur.State
	t.banks[bank.ID] = next
	return nil
}

func (t *memTx) CreateDonor(ctx context.Context, donor *models.Donor, initial models.StateHistory) error {
	if donor.Email != "" {
		if _, err := t.GetDonorByEmail(ctx, donor.Email); err == nil {
			return sentinel.ErrAlreadyUsed
		}
	}
	if _, err := t.GetDonor(ctx, donor.ID); err == nil {
		return sentinel.ErrAlreadyUsed
	}
	t.donors[donor.ID] = donor.Clone()
	t.created[donor.EntityRef()] = true
	t.history = append(t.history, initial)
	return nil
}

func (t *memTx) UpdateDonor(ctx context.Context, donor *models.Donor) error {
	cur, err := t.GetDonor(ctx, donor.ID)
	if err != nil {
		return err
	}
	next := donor.Clone()
	next.State = cur.State
	next.BankID = cur.BankID
	t.donors[donor.ID] = next
	return nil
}

func (t *memTx) CompareAndSwap(ctx context.Context, entity models.Entity, expected models.State, h models.StateHistory) error {
	switch e := entity.(type) {
	case *models.Donor:
		cur, err := t.GetDonor(ctx, e.ID)
		if err != nil {
			return err
		}
		if cur.State != expected {
			return sentinel.ErrConflict
		}
		next := e.Clone()
		next.BankID = cur.BankID
		t.donors[e.ID] = next
	case *models.Bank:
		cur, err := t.GetBank(ctx, e.ID)
		if err != nil {
			return err
		}
		if cur.State != expected {
			return sentinel.ErrConflict
		}
		t.banks[e.ID] = e.Clone()
	default:
		return sentinel.ErrNotFound
	}
	t.history = append(t.history, h)
	return nil
}

func (t *memTx) CreateTemplate(_ context.Context, tpl *models.ConsentTemplate) error {
	c := *tpl
	t.templates[tpl.ID] = &c
	return nil
}

func (t *memTx) UpdateTemplate(ctx context.Context, tpl *models.ConsentTemplate) error {
	if _, err := t.GetTemplate(ctx, tpl.ID); err != nil {
		return err
	}
	c := *tpl
	t.templates[tpl.ID] = &c
	return nil
}

func (t *memTx) CreateConsent(ctx context.Context, c *models.DonorConsent) error {
	existing, err := t.ListConsents(ctx, c.DonorID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.TemplateID == c.TemplateID {
			return sentinel.ErrAlreadyUsed
		}
	}
	t.consents[c.ID] = c.Clone()
	return nil
}

func (t *memTx) UpdateConsent(ctx context.Context, c *models.DonorConsent) error {
	if _, err := t.GetConsent(ctx, c.ID); err != nil {
		return err
	}
	t.consents[c.ID] = c.Clone()
	return nil
}

func (t *memTx) CreateCounselingSession(ctx context.Context, s *models.CounselingSession) error {
	if _, err := t.GetCounselingSession(ctx, s.ID); err == nil {
		return sentinel.ErrAlreadyUsed
	}
	t.sessions[s.ID] = s.Clone()
	return nil
}

func (t *memTx) UpdateCounselingSession(ctx context.Context, s *models.CounselingSession) error {
	if _, err := t.GetCounselingSession(ctx, s.ID); err != nil {
		return err
	}
	t.sessions[s.ID] = s.Clone()
	return nil
}

func (t *memTx) CreateTestReport(_ context.Context, r *models.TestReport) error {
	c := *r
	t.reports = append(t.reports, &c)
	return nil
}

func (t *memTx) AppendOutbox(_ context.Context, e outbox.Entry) error {
	t.outbox = append(t.outbox, e)
	return nil
}

// -----------------------------------------------------------------------------
// commit
// -----------------------------------------------------------------------------

func (t *memTx) commit() error {
	m := t.base
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := t.validate(); err != nil {
		return err
	}

	for k, v := range t.banks {
		m.banks[k] = v
	}
	for k, v := range t.donors {
		m.donors[k] = v
	}
	for k, v := range t.templates {
		m.templates[k] = v
	}
	for k, v := range t.consents {
		m.consents[k] = v
	}
	for k, v := range t.sessions {
		m.sessions[k] = v
	}
	for _, r := range t.reports {
		m.reports[r.ID] = r
	}
	for _, h := range t.history {
		m.seq++
		h.Seq = m.seq
		m.history = append(m.history, h)
	}
	m.outbox = append(m.outbox, t.outbox...)
	return nil
}

// validate re-checks, under the base lock, that no concurrent commit invalidated
// what this tx read. Callers hold m.mu.
func (t *memTx) validate() error {
	m := t.base
	for bankID, b := range t.banks {
		ref := b.EntityRef()
		cur, exists := m.banks[bankID]
		if t.created[ref] {
			if exists {
				return sentinel.ErrAlreadyUsed
			}
			for _, other := range m.banks {
				if strings.EqualFold(other.Email, b.Email) {
					return sentinel.ErrAlreadyUsed
				}
			}
			continue
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		if seen, ok := t.observed[ref]; ok && seen != models.State(cur.State) {
			return sentinel.ErrConflict
		}
	}
	for donorID, d := range t.donors {
		ref := d.EntityRef()
		cur, exists := m.donors[donorID]
		if t.created[ref] {
			if exists {
				return sentinel.ErrAlreadyUsed
			}
			if d.Email == "" {
				continue
			}
			for _, other := range m.donors {
				if strings.EqualFold(other.Email, d.Email) {
					return sentinel.ErrAlreadyUsed
				}
			}
			continue
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		if seen, ok := t.observed[ref]; ok && seen != models.State(cur.State) {
			return sentinel.ErrConflict
		}
	}
	for consentID, c := range t.consents {
		if _, exists := m.consents[consentID]; exists {
			continue
		}
		for _, other := range m.consents {
			if other.DonorID == c.DonorID && other.TemplateID == c.TemplateID {
				return sentinel.ErrAlreadyUsed
			}
		}
	}
	return nil
}

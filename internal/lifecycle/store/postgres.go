package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"artpriv/internal/lifecycle/models"
	"artpriv/internal/platform/outbox"
	id "artpriv/pkg/domain"
	"artpriv/pkg/platform/sentinel"
	txcontext "artpriv/pkg/platform/tx"
)

//go:embed schema.sql
var Schema string

// Postgres implements Store on PostgreSQL. Calls join the transaction carried
// by the context when there is one.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

type rowScanner interface {
	Scan(dest ...any) error
}

// -----------------------------------------------------------------------------
// Banks
// -----------------------------------------------------------------------------

var bankColumnList = []string{
	"id", "email", "name", "address", "phone", "website", "description", "logo_url", "state",
	"certification_documents", "is_verified", "verified_at", "verified_by",
	"is_subscribed", "subscription_tier", "subscription_started_at", "subscription_expires_at", "billing_details",
	"counseling_configured", "counseling_methods", "counseling_time_slots", "counseling_auto_approve",
	"created_at", "updated_at",
}

var (
	bankColumns          = strings.Join(bankColumnList, ", ")
	bankSet, bankSetArgs = mutableSet(bankColumnList, "id", "state", "created_at")
)

func scanBank(row rowScanner) (*models.Bank, error) {
	var (
		b                                  models.Bank
		bankID                             uuid.UUID
		state                              string
		certDocs, billing                  []byte
		verifiedAt, subStarted, subExpires sql.NullTime
		configured, autoApprove            bool
		methods, slots                     []string
	)
	err := row.Scan(&bankID, &b.Email, &b.Name, &b.Address, &b.Phone, &b.Website, &b.Description, &b.LogoURL, &state,
		&certDocs, &b.IsVerified, &verifiedAt, &b.VerifiedBy,
		&b.IsSubscribed, &b.SubscriptionTier, &subStarted, &subExpires, &billing,
		&configured, pq.Array(&methods), pq.Array(&slots), &autoApprove,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan bank: %w", err)
	}
	b.ID = id.BankID(bankID)
	b.State = models.BankState(state)
	b.VerifiedAt = nullTime(verifiedAt)
	b.SubscriptionStartedAt = nullTime(subStarted)
	b.SubscriptionExpiresAt = nullTime(subExpires)
	if err := unmarshalJSON(certDocs, &b.CertificationDocuments); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(billing, &b.BillingDetails); err != nil {
		return nil, err
	}
	if configured {
		cfg := &models.CounselingConfig{TimeSlots: slots, AutoApprove: autoApprove}
		for _, m := range methods {
			cfg.Methods = append(cfg.Methods, models.CounselingMethod(m))
		}
		b.CounselingConfig = cfg
	}
	return &b, nil
}

func (s *Postgres) GetBank(ctx context.Context, bankID id.BankID) (*models.Bank, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+bankColumns+` FROM banks WHERE id = $1`, uuid.UUID(bankID))
	return scanBank(row)
}

func (s *Postgres) GetBankByEmail(ctx context.Context, email string) (*models.Bank, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+bankColumns+` FROM banks WHERE LOWER(email) = LOWER($1)`, email)
	return scanBank(row)
}

// bankValues returns one value per bankColumnList entry.
func bankValues(b *models.Bank) ([]any, error) {
	certDocs, err := marshalJSON(b.CertificationDocuments, "[]")
	if err != nil {
		return nil, err
	}
	billing, err := marshalNullableJSON(b.BillingDetails)
	if err != nil {
		return nil, err
	}
	var (
		configured, autoApprove bool
		methods                 = []string{}
		slots                   = []string{}
	)
	if cfg := b.CounselingConfig; cfg != nil {
		configured = true
		autoApprove = cfg.AutoApprove
		for _, m := range cfg.Methods {
			methods = append(methods, string(m))
		}
		if cfg.TimeSlots != nil {
			slots = cfg.TimeSlots
		}
	}
	return []any{
		uuid.UUID(b.ID), b.Email, b.Name, b.Address, b.Phone, b.Website, b.Description, b.LogoURL, string(b.State),
		certDocs, b.IsVerified, b.VerifiedAt, b.VerifiedBy,
		b.IsSubscribed, b.SubscriptionTier, b.SubscriptionStartedAt, b.SubscriptionExpiresAt, billing,
		configured, pq.Array(methods), pq.Array(slots), autoApprove,
		b.CreatedAt, b.UpdatedAt,
	}, nil
}

func (s *Postgres) CreateBank(ctx context.Context, bank *models.Bank, initial models.StateHistory) error {
	values, err := bankValues(bank)
	if err != nil {
		return err
	}
	_, err = s.execer(ctx).ExecContext(ctx,
		`INSERT INTO banks (`+bankColumns+`) VALUES (`+placeholders(len(values))+`)`, values...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert bank: %w", err)
	}
	return s.appendHistory(ctx, initial)
}

func (s *Postgres) UpdateBank(ctx context.Context, bank *models.Bank) error {
	values, err := bankValues(bank)
	if err != nil {
		return err
	}
	args := pick(values, bankSetArgs)
	res, err := s.execer(ctx).ExecContext(ctx, `UPDATE banks SET `+bankSet+` WHERE id = $1`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update bank: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) casBank(ctx context.Context, b *models.Bank, expected models.State) error {
	values, err := bankValues(b)
	if err != nil {
		return err
	}
	args := append(pick(values, bankSetArgs), string(b.State), expected.String())
	n := len(args)
	res, err := s.execer(ctx).ExecContext(ctx, fmt.Sprintf(
		`UPDATE banks SET state = $%d, %s WHERE id = $1 AND state = $%d`, n-1, bankSet, n), args...)
	if err != nil {
		return fmt.Errorf("compare and swap bank: %w", err)
	}
	return s.casOutcome(ctx, res, "banks", uuid.UUID(b.ID))
}

// -----------------------------------------------------------------------------
// Donors
// -----------------------------------------------------------------------------

var donorColumnList = []string{
	"id", "email", "state", "first_name", "last_name", "phone", "medical_interest_info",
	"bank_id", "selected_at", "legal_documents", "has_credentials",
	"eligibility_status", "eligibility_notes", "eligibility_decided_at",
	"consent_pending", "counseling_pending", "tests_pending", "created_at", "updated_at",
}

// bank_id is immutable after insert.
var (
	donorColumns           = strings.Join(donorColumnList, ", ")
	donorSet, donorSetArgs = mutableSet(donorColumnList, "id", "state", "bank_id", "created_at")
)

func scanDonor(row rowScanner) (*models.Donor, error) {
	var (
		d                     models.Donor
		donorID               uuid.UUID
		email                 sql.NullString
		state, eligibility    string
		medical, legal        []byte
		bankID                uuid.NullUUID
		selectedAt, decidedAt sql.NullTime
	)
	err := row.Scan(&donorID, &email, &state, &d.FirstName, &d.LastName, &d.Phone, &medical,
		&bankID, &selectedAt, &legal, &d.HasCredentials,
		&eligibility, &d.EligibilityNotes, &decidedAt,
		&d.ConsentPending, &d.CounselingPending, &d.TestsPending, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan donor: %w", err)
	}
	d.ID = id.DonorID(donorID)
	d.Email = email.String
	d.State = models.DonorState(state)
	d.EligibilityStatus = models.EligibilityStatus(eligibility)
	d.SelectedAt = nullTime(selectedAt)
	d.EligibilityDecidedAt = nullTime(decidedAt)
	if bankID.Valid {
		b := id.BankID(bankID.UUID)
		d.BankID = &b
	}
	if err := unmarshalJSON(medical, &d.MedicalInterestInfo); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(legal, &d.LegalDocuments); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Postgres) GetDonor(ctx context.Context, donorID id.DonorID) (*models.Donor, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+donorColumns+` FROM donors WHERE id = $1`, uuid.UUID(donorID))
	return scanDonor(row)
}

func (s *Postgres) ListDonorsByBank(ctx context.Context, bankID id.BankID) ([]*models.Donor, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+donorColumns+` FROM donors WHERE bank_id = $1 ORDER BY created_at, id`, uuid.UUID(bankID))
	if err != nil {
		return nil, fmt.Errorf("query donors by bank: %w", err)
	}
	defer rows.Close()
	out := []*models.Donor{}
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Postgres) GetDonorByEmail(ctx context.Context, email string) (*models.Donor, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+donorColumns+` FROM donors WHERE LOWER(email) = LOWER($1)`, email)
	return scanDonor(row)
}

// donorValues returns one value per donorColumnList entry.
func donorValues(d *models.Donor) ([]any, error) {
	medical, err := marshalNullableJSON(d.MedicalInterestInfo)
	if err != nil {
		return nil, err
	}
	legal, err := marshalJSON(d.LegalDocuments, "[]")
	if err != nil {
		return nil, err
	}
	var email sql.NullString
	if d.Email != "" {
		email = sql.NullString{String: d.Email, Valid: true}
	}
	var bankID uuid.NullUUID
	if d.BankID != nil {
		bankID = uuid.NullUUID{UUID: uuid.UUID(*d.BankID), Valid: true}
	}
	eligibility := d.EligibilityStatus
	if eligibility == "" {
		eligibility = models.EligibilityPending
	}
	return []any{
		uuid.UUID(d.ID), email, string(d.State), d.FirstName, d.LastName, d.Phone, medical,
		bankID, d.SelectedAt, legal, d.HasCredentials,
		string(eligibility), d.EligibilityNotes, d.EligibilityDecidedAt,
		d.ConsentPending, d.CounselingPending, d.TestsPending, d.CreatedAt, d.UpdatedAt,
	}, nil
}

func (s *Postgres) CreateDonor(ctx context.Context, donor *models.Donor, initial models.StateHistory) error {
	values, err := donorValues(donor)
	if err != nil {
		return err
	}
	_, err = s.execer(ctx).ExecContext(ctx,
		`INSERT INTO donors (`+donorColumns+`) VALUES (`+placeholders(len(values))+`)`, values...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert donor: %w", err)
	}
	return s.appendHistory(ctx, initial)
}

func (s *Postgres) UpdateDonor(ctx context.Context, donor *models.Donor) error {
	values, err := donorValues(donor)
	if err != nil {
		return err
	}
	args := pick(values, donorSetArgs)
	res, err := s.execer(ctx).ExecContext(ctx, `UPDATE donors SET `+donorSet+` WHERE id = $1`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update donor: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) casDonor(ctx context.Context, d *models.Donor, expected models.State) error {
	values, err := donorValues(d)
	if err != nil {
		return err
	}
	args := append(pick(values, donorSetArgs), string(d.State), expected.String())
	n := len(args)
	res, err := s.execer(ctx).ExecContext(ctx, fmt.Sprintf(
		`UPDATE donors SET state = $%d, %s WHERE id = $1 AND state = $%d`, n-1, donorSet, n), args...)
	if err != nil {
		return fmt.Errorf("compare and swap donor: %w", err)
	}
	return s.casOutcome(ctx, res, "donors", uuid.UUID(d.ID))
}

// -----------------------------------------------------------------------------
// Transitions and history
// -----------------------------------------------------------------------------

// CompareAndSwap writes entity only if its persisted state still equals
// expected, and appends h in the same statement sequence.
func (s *Postgres) CompareAndSwap(ctx context.Context, entity models.Entity, expected models.State, h models.StateHistory) error {
	var err error
	switch e := entity.(type) {
	case *models.Donor:
		err = s.casDonor(ctx, e, expected)
	case *models.Bank:
		err = s.casBank(ctx, e, expected)
	default:
		return fmt.Errorf("unsupported entity %T", entity)
	}
	if err != nil {
		return err
	}
	return s.appendHistory(ctx, h)
}

func (s *Postgres) casOutcome(ctx context.Context, res sql.Result, table string, rowID uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	var exists bool
	err = s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, rowID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check %s existence: %w", table, err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *Postgres) appendHistory(ctx context.Context, h models.StateHistory) error {
	var from sql.NullString
	if h.FromState != nil {
		from = sql.NullString{String: h.FromState.String(), Valid: true}
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO state_history (id, entity_kind, entity_id, from_state, to_state, actor_id, actor_role, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		h.ID, string(h.EntityKind), h.EntityID, from, models.StateString(h.ToState),
		h.ActorID, string(h.ActorRole), h.Reason, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert state history: %w", err)
	}
	return nil
}

func (s *Postgres) ListHistory(ctx context.Context, ref models.Ref, page models.Page) ([]models.StateHistory, error) {
	page = page.Normalize()
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, seq, entity_kind, entity_id, from_state, to_state, actor_id, actor_role, reason, created_at
		FROM state_history
		WHERE entity_id = $1 AND entity_kind = $2
		ORDER BY created_at, seq
		LIMIT $3 OFFSET $4`,
		ref.ID, string(ref.Kind), page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("query state history: %w", err)
	}
	defer rows.Close()

	out := []models.StateHistory{}
	for rows.Next() {
		var (
			h          models.StateHistory
			kind, to   string
			role       string
			from       sql.NullString
		)
		if err := rows.Scan(&h.ID, &h.Seq, &kind, &h.EntityID, &from, &to, &h.ActorID, &role, &h.Reason, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan state history: %w", err)
		}
		h.EntityKind = models.EntityKind(kind)
		h.ActorRole = models.Role(role)
		if h.ToState, err = models.ParseState(h.EntityKind, to); err != nil {
			return nil, err
		}
		if from.Valid {
			if h.FromState, err = models.ParseState(h.EntityKind, from.String); err != nil {
				return nil, err
			}
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Consent templates
// -----------------------------------------------------------------------------

const templateColumns = `id, bank_id, title, content, version, display_order, is_active, created_at, updated_at`

func scanTemplate(row rowScanner) (*models.ConsentTemplate, error) {
	var (
		t              models.ConsentTemplate
		tplID, bankID  uuid.UUID
	)
	err := row.Scan(&tplID, &bankID, &t.Title, &t.Content, &t.Version, &t.Order, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan consent template: %w", err)
	}
	t.ID = id.TemplateID(tplID)
	t.BankID = id.BankID(bankID)
	return &t, nil
}

func (s *Postgres) GetTemplate(ctx context.Context, templateID id.TemplateID) (*models.ConsentTemplate, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM consent_templates WHERE id = $1`, uuid.UUID(templateID))
	return scanTemplate(row)
}

func (s *Postgres) ListTemplates(ctx context.Context, bankID id.BankID, activeOnly bool) ([]*models.ConsentTemplate, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT `+templateColumns+` FROM consent_templates
		WHERE bank_id = $1 AND (NOT $2 OR is_active)
		ORDER BY display_order, created_at`, uuid.UUID(bankID), activeOnly)
	if err != nil {
		return nil, fmt.Errorf("query consent templates: %w", err)
	}
	defer rows.Close()
	var out []*models.ConsentTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateTemplate(ctx context.Context, t *models.ConsentTemplate) error {
	_, err := s.execer(ctx).ExecContext(ctx, `INSERT INTO consent_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(t.ID), uuid.UUID(t.BankID), t.Title, t.Content, t.Version, t.Order, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert consent template: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateTemplate(ctx context.Context, t *models.ConsentTemplate) error {
	res, err := s.execer(ctx).ExecContext(ctx, `UPDATE consent_templates
		SET title = $2, content = $3, version = $4, display_order = $5, is_active = $6, updated_at = $7
		WHERE id = $1`,
		uuid.UUID(t.ID), t.Title, t.Content, t.Version, t.Order, t.IsActive, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update consent template: %w", err)
	}
	return requireRow(res)
}

// -----------------------------------------------------------------------------
// Donor consents
// -----------------------------------------------------------------------------

const consentColumns = `id, donor_id, template_id, status, signed_at, signature_data,
	verified_at, verified_by, verification_notes, created_at, updated_at`

func scanConsent(row rowScanner) (*models.DonorConsent, error) {
	var (
		c                            models.DonorConsent
		consentID, donorID, tplID    uuid.UUID
		status                       string
		signedAt, verifiedAt         sql.NullTime
		signature                    []byte
	)
	err := row.Scan(&consentID, &donorID, &tplID, &status, &signedAt, &signature,
		&verifiedAt, &c.VerifiedBy, &c.VerificationNotes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan donor consent: %w", err)
	}
	c.ID = id.ConsentID(consentID)
	c.DonorID = id.DonorID(donorID)
	c.TemplateID = id.TemplateID(tplID)
	c.Status = models.ConsentStatus(status)
	c.SignedAt = nullTime(signedAt)
	c.VerifiedAt = nullTime(verifiedAt)
	if err := unmarshalJSON(signature, &c.SignatureData); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Postgres) GetConsent(ctx context.Context, consentID id.ConsentID) (*models.DonorConsent, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+consentColumns+` FROM donor_consents WHERE id = $1`, uuid.UUID(consentID))
	return scanConsent(row)
}

func (s *Postgres) ListConsents(ctx context.Context, donorID id.DonorID) ([]*models.DonorConsent, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT `+consentColumns+` FROM donor_consents
		WHERE donor_id = $1 ORDER BY created_at`, uuid.UUID(donorID))
	if err != nil {
		return nil, fmt.Errorf("query donor consents: %w", err)
	}
	defer rows.Close()
	var out []*models.DonorConsent
	for rows.Next() {
		c, err := scanConsent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) CountConsents(ctx context.Context, donorID id.DonorID) (models.ConsentCounts, error) {
	var c models.ConsentCounts
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status IN ('signed', 'verified')),
		       COUNT(*) FILTER (WHERE status = 'verified')
		FROM donor_consents WHERE donor_id = $1`, uuid.UUID(donorID)).Scan(&c.Total, &c.Signed, &c.Verified)
	if err != nil {
		return models.ConsentCounts{}, fmt.Errorf("count donor consents: %w", err)
	}
	return c, nil
}

func (s *Postgres) CreateConsent(ctx context.Context, c *models.DonorConsent) error {
	signature, err := marshalNullableJSON(c.SignatureData)
	if err != nil {
		return err
	}
	_, err = s.execer(ctx).ExecContext(ctx, `INSERT INTO donor_consents (`+consentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(c.ID), uuid.UUID(c.DonorID), uuid.UUID(c.TemplateID), string(c.Status), c.SignedAt, signature,
		c.VerifiedAt, c.VerifiedBy, c.VerificationNotes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert donor consent: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateConsent(ctx context.Context, c *models.DonorConsent) error {
	signature, err := marshalNullableJSON(c.SignatureData)
	if err != nil {
		return err
	}
	res, err := s.execer(ctx).ExecContext(ctx, `UPDATE donor_consents
		SET status = $2, signed_at = $3, signature_data = $4, verified_at = $5, verified_by = $6,
		    verification_notes = $7, updated_at = $8
		WHERE id = $1`,
		uuid.UUID(c.ID), string(c.Status), c.SignedAt, signature, c.VerifiedAt, c.VerifiedBy, c.VerificationNotes, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update donor consent: %w", err)
	}
	return requireRow(res)
}

// -----------------------------------------------------------------------------
// Counseling sessions and test reports
// -----------------------------------------------------------------------------

const sessionColumns = `id, donor_id, bank_id, method, status, notes, meeting_link, location,
	requested_at, scheduled_at, completed_at, updated_at`

func scanSession(row rowScanner) (*models.CounselingSession, error) {
	var (
		cs                       models.CounselingSession
		sessionID, donorID, bank uuid.UUID
		method, status           string
		scheduledAt, completedAt sql.NullTime
	)
	err := row.Scan(&sessionID, &donorID, &bank, &method, &status, &cs.Notes, &cs.MeetingLink, &cs.Location,
		&cs.RequestedAt, &scheduledAt, &completedAt, &cs.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan counseling session: %w", err)
	}
	cs.ID = id.CounselingSessionID(sessionID)
	cs.DonorID = id.DonorID(donorID)
	cs.BankID = id.BankID(bank)
	cs.Method = models.CounselingMethod(method)
	cs.Status = models.CounselingStatus(status)
	cs.ScheduledAt = nullTime(scheduledAt)
	cs.CompletedAt = nullTime(completedAt)
	return &cs, nil
}

func (s *Postgres) GetCounselingSession(ctx context.Context, sessionID id.CounselingSessionID) (*models.CounselingSession, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM counseling_sessions WHERE id = $1`, uuid.UUID(sessionID))
	return scanSession(row)
}

func (s *Postgres) ListCounselingSessions(ctx context.Context, bankID id.BankID) ([]*models.CounselingSession, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT `+sessionColumns+` FROM counseling_sessions
		WHERE bank_id = $1 ORDER BY requested_at, id`, uuid.UUID(bankID))
	if err != nil {
		return nil, fmt.Errorf("query counseling sessions: %w", err)
	}
	defer rows.Close()
	out := []*models.CounselingSession{}
	for rows.Next() {
		cs, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateCounselingSession(ctx context.Context, cs *models.CounselingSession) error {
	_, err := s.execer(ctx).ExecContext(ctx, `INSERT INTO counseling_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(cs.ID), uuid.UUID(cs.DonorID), uuid.UUID(cs.BankID), string(cs.Method), string(cs.Status),
		cs.Notes, cs.MeetingLink, cs.Location, cs.RequestedAt, cs.ScheduledAt, cs.CompletedAt, cs.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert counseling session: %w", err)
	}
	return nil
}

// UpdateCounselingSession rewrites the mutable fields. Donor, bank, method and
// requested_at are fixed at creation.
func (s *Postgres) UpdateCounselingSession(ctx context.Context, cs *models.CounselingSession) error {
	res, err := s.execer(ctx).ExecContext(ctx, `UPDATE counseling_sessions
		SET status = $2, notes = $3, meeting_link = $4, location = $5,
		    scheduled_at = $6, completed_at = $7, updated_at = $8
		WHERE id = $1`,
		uuid.UUID(cs.ID), string(cs.Status), cs.Notes, cs.MeetingLink, cs.Location,
		cs.ScheduledAt, cs.CompletedAt, cs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update counseling session: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) CreateTestReport(ctx context.Context, r *models.TestReport) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO test_reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.UUID(r.ID), uuid.UUID(r.DonorID), uuid.UUID(r.BankID), string(r.Source), r.TestType, r.TestName,
		r.FileURL, r.FileName, r.UploadedBy, r.TestDate, r.LabName, r.Notes, r.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert test report: %w", err)
	}
	return nil
}

const reportColumns = `id, donor_id, bank_id, source, test_type, test_name, file_url, file_name,
	uploaded_by, test_date, lab_name, notes, uploaded_at`

func scanReport(row rowScanner) (*models.TestReport, error) {
	var (
		r                         models.TestReport
		reportID, donorID, bankID uuid.UUID
		source                    string
		testDate                  sql.NullTime
	)
	err := row.Scan(&reportID, &donorID, &bankID, &source, &r.TestType, &r.TestName, &r.FileURL, &r.FileName,
		&r.UploadedBy, &testDate, &r.LabName, &r.Notes, &r.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("scan test report: %w", err)
	}
	r.ID = id.ReportID(reportID)
	r.DonorID = id.DonorID(donorID)
	r.BankID = id.BankID(bankID)
	r.Source = models.TestReportSource(source)
	r.TestDate = nullTime(testDate)
	return &r, nil
}

func (s *Postgres) ListTestReports(ctx context.Context, donorID id.DonorID) ([]*models.TestReport, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT `+reportColumns+` FROM test_reports
		WHERE donor_id = $1 ORDER BY uploaded_at, id`, uuid.UUID(donorID))
	if err != nil {
		return nil, fmt.Errorf("query test reports: %w", err)
	}
	defer rows.Close()
	out := []*models.TestReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Postgres) CountReports(ctx context.Context, donorID id.DonorID) (int, error) {
	var n int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM test_reports WHERE donor_id = $1`, uuid.UUID(donorID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count test reports: %w", err)
	}
	return n, nil
}

// -----------------------------------------------------------------------------
// Outbox
// -----------------------------------------------------------------------------

func (s *Postgres) AppendOutbox(ctx context.Context, e outbox.Entry) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.AggregateType, e.AggregateID, e.EventType, e.Payload, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnpublished returns up to limit unpublished entries, oldest first.
func (s *Postgres) FetchUnpublished(ctx context.Context, limit int) ([]outbox.Entry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM outbox WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()
	var out []outbox.Entry
	for rows.Next() {
		var e outbox.Entry
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkPublished stamps the given entries as published.
func (s *Postgres) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, v := range ids {
		strs[i] = v.String()
	}
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[]) AND published_at IS NULL`,
		at, pq.Array(strs))
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

// mutableSet renders "col = $n" pairs for every column not listed as immutable.
// Parameter $1 is reserved for the id; idx lists the value positions to bind, id first.
func mutableSet(cols []string, immutable ...string) (string, []int) {
	skip := make(map[string]bool, len(immutable))
	for _, c := range immutable {
		skip[c] = true
	}
	idx := []int{0}
	parts := make([]string, 0, len(cols))
	for i, c := range cols {
		if skip[c] {
			continue
		}
		idx = append(idx, i)
		parts = append(parts, fmt.Sprintf("%s = $%d", c, len(idx)))
	}
	return strings.Join(parts, ", "), idx
}

func pick(values []any, idx []int) []any {
	out := make([]any, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func marshalJSON(v any, empty string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}
	if string(b) == "null" {
		return []byte(empty), nil
	}
	return b, nil
}

func marshalNullableJSON[T any](v map[string]T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}
	return b, nil
}

func unmarshalJSON(b []byte, dst any) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("unmarshal json column: %w", err)
	}
	return nil
}

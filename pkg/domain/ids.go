// Package domain holds typed identifiers shared by every lifecycle package.
//
// Each identifier is a distinct named uuid.UUID so a DonorID can never be
// passed where a BankID is expected. Construct them via the Parse functions at
// trust boundaries (handlers, token claims); inside the module use New*.
package domain

import (
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "artpriv/pkg/domain-errors"
)

type (
	BankID              uuid.UUID
	DonorID             uuid.UUID
	TemplateID          uuid.UUID
	ConsentID           uuid.UUID
	ReportID            uuid.UUID
	CounselingSessionID uuid.UUID
)

func NewBankID() BankID                           { return BankID(uuid.New()) }
func NewDonorID() DonorID                         { return DonorID(uuid.New()) }
func NewTemplateID() TemplateID                   { return TemplateID(uuid.New()) }
func NewConsentID() ConsentID                     { return ConsentID(uuid.New()) }
func NewReportID() ReportID                       { return ReportID(uuid.New()) }
func NewCounselingSessionID() CounselingSessionID { return CounselingSessionID(uuid.New()) }

func (id BankID) String() string              { return uuid.UUID(id).String() }
func (id DonorID) String() string             { return uuid.UUID(id).String() }
func (id TemplateID) String() string          { return uuid.UUID(id).String() }
func (id ConsentID) String() string           { return uuid.UUID(id).String() }
func (id ReportID) String() string            { return uuid.UUID(id).String() }
func (id CounselingSessionID) String() string { return uuid.UUID(id).String() }

func (id BankID) IsNil() bool              { return uuid.UUID(id) == uuid.Nil }
func (id DonorID) IsNil() bool             { return uuid.UUID(id) == uuid.Nil }
func (id TemplateID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id ConsentID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id ReportID) IsNil() bool            { return uuid.UUID(id) == uuid.Nil }
func (id CounselingSessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// parseUUID rejects empty, malformed, non-UTF8 and nil identifiers.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return parsed, nil
}

func ParseBankID(s string) (BankID, error) {
	u, err := parseUUID(s, "bank id")
	return BankID(u), err
}

func ParseDonorID(s string) (DonorID, error) {
	u, err := parseUUID(s, "donor id")
	return DonorID(u), err
}

func ParseTemplateID(s string) (TemplateID, error) {
	u, err := parseUUID(s, "template id")
	return TemplateID(u), err
}

func ParseConsentID(s string) (ConsentID, error) {
	u, err := parseUUID(s, "consent id")
	return ConsentID(u), err
}

func ParseReportID(s string) (ReportID, error) {
	u, err := parseUUID(s, "report id")
	return ReportID(u), err
}

func ParseCounselingSessionID(s string) (CounselingSessionID, error) {
	u, err := parseUUID(s, "counseling session id")
	return CounselingSessionID(u), err
}

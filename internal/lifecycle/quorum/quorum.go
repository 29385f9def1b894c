// Package quorum decides when a donor's consents allow automatic advancement
// to consent_verified, and performs that advance after a consent is verified.
package quorum

import (
	"artpriv/internal/lifecycle/models"
)

// Threshold is the absolute number of consents, total and verified, required.
// It is intentionally independent of the number of active templates of the bank.
const Threshold = 4

// Satisfied reports whether counts meet the quorum.
func Satisfied(c models.ConsentCounts) bool {
	return c.Total >= Threshold && c.Verified >= Threshold
}

// Package authz decides whether an actor may drive a lifecycle edge on a given entity.
package authz

import (
	"fmt"

	"artpriv/internal/lifecycle/graph"
	"artpriv/internal/lifecycle/models"
	id "artpriv/pkg/domain"
	dErrors "artpriv/pkg/domain-errors"
)

// Authority classifies who owns an edge.
type Authority int

const (
	AuthorityNone Authority = iota
	// AuthorityDonorSelf edges are driven by the donor on their own record.
	AuthorityDonorSelf
	// AuthorityOwningBank edges are driven by the bank the donor selected.
	AuthorityOwningBank
	// AuthorityBankSelf edges are driven by the bank on its own record.
	AuthorityBankSelf
	// AuthorityAdmin edges are driven by platform administrators.
	AuthorityAdmin
	// AuthorityBankSelfOrAdmin edges accept either.
	AuthorityBankSelfOrAdmin
)

// AuthorityFor returns the authority class of edge.
func AuthorityFor(edge graph.Edge) Authority {
	switch edge.To {
	case models.DonorBankSelected,
		models.DonorLeadCreated,
		models.DonorAccountCreated,
		models.DonorCounselingRequested,
		models.DonorConsentPending:
		return AuthorityDonorSelf
	case models.DonorConsentVerified,
		models.DonorTestsPending,
		models.DonorEligibilityDecision,
		models.DonorOnboarded:
		return AuthorityOwningBank
	case models.BankVerificationPending:
		return AuthorityBankSelf
	case models.BankVerified:
		return AuthorityAdmin
	case models.BankSubscriptionPending,
		models.BankSubscribedOnboarded,
		models.BankOperational:
		return AuthorityBankSelfOrAdmin
	}
	return AuthorityNone
}

// Authorize returns a forbidden error unless actor may drive edge on entity.
func Authorize(actor models.Actor, edge graph.Edge, entity models.Entity) error {
	if allowed(actor, edge, entity) {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden,
		fmt.Sprintf("%s may not transition %s %s", actor.Role, edge.Kind(), edge))
}

func allowed(actor models.Actor, edge graph.Edge, entity models.Entity) bool {
	if actor.ID == "" {
		return false
	}
	switch e := entity.(type) {
	case *models.Donor:
		switch AuthorityFor(edge) {
		case AuthorityDonorSelf:
			return isDonorSelf(actor, e)
		case AuthorityOwningBank:
			if actor.Role == models.RoleSystem {
				return edge.To == models.DonorConsentVerified
			}
			return isOwningBank(actor, e)
		}
	case *models.Bank:
		switch AuthorityFor(edge) {
		case AuthorityBankSelf:
			return isBankSelf(actor, e)
		case AuthorityAdmin:
			return actor.Role.IsAdmin()
		case AuthorityBankSelfOrAdmin:
			return isBankSelf(actor, e) || actor.Role.IsAdmin()
		}
	}
	return false
}

// CanRead reports whether actor may read entity's history.
func CanRead(actor models.Actor, entity models.Entity) bool {
	if actor.Role.IsAdmin() {
		return true
	}
	switch e := entity.(type) {
	case *models.Donor:
		return isDonorSelf(actor, e) || isOwningBank(actor, e)
	case *models.Bank:
		return isBankSelf(actor, e)
	}
	return false
}

func isDonorSelf(actor models.Actor, d *models.Donor) bool {
	return ActsAsDonor(actor, d.ID)
}

// ActsAsBank reports whether actor is authenticated as bankID.
func ActsAsBank(actor models.Actor, bankID id.BankID) bool {
	return actor.Role == models.RoleBank && actor.ID != "" && actor.ID == bankID.String()
}

// ActsAsDonor reports whether actor is authenticated as donorID.
func ActsAsDonor(actor models.Actor, donorID id.DonorID) bool {
	return actor.Role == models.RoleDonor && actor.ID != "" && actor.ID == donorID.String()
}

func isOwningBank(actor models.Actor, d *models.Donor) bool {
	return d.BankID != nil && ActsAsBank(actor, *d.BankID)
}

func isBankSelf(actor models.Actor, b *models.Bank) bool {
	return ActsAsBank(actor, b.ID)
}

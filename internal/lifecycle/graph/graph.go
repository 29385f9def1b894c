// Package graph holds the fixed transition graphs of the donor and bank lifecycles.
package graph

import (
	"artpriv/internal/lifecycle/models"
)

// Edge is a legal (from, to) pair.
type Edge struct {
	From models.State
	To   models.State
}

func (e Edge) String() string {
	return models.StateString(e.From) + "->" + models.StateString(e.To)
}

// Kind returns the entity kind the edge belongs to.
func (e Edge) Kind() models.EntityKind {
	return e.To.Kind()
}

// adjacency maps every state of both kinds to its successors. Terminal states map to nil.
var adjacency = buildAdjacency()

func buildAdjacency() map[models.State][]models.State {
	adj := make(map[models.State][]models.State, len(models.DonorStates)+len(models.BankStates))
	chain := func(states []models.State) {
		for i, s := range states {
			if i+1 < len(states) {
				adj[s] = []models.State{states[i+1]}
			} else {
				adj[s] = nil
			}
		}
	}
	chain(models.StatesOf(models.KindDonor))
	chain(models.StatesOf(models.KindBank))
	return adj
}

// IsLegalEdge reports whether from -> to is an edge of kind's graph.
func IsLegalEdge(kind models.EntityKind, from, to models.State) bool {
	if from == nil || to == nil || from.Kind() != kind || to.Kind() != kind {
		return false
	}
	for _, next := range adjacency[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InitialState returns the state a newly created entity of kind starts in.
func InitialState(kind models.EntityKind) models.State {
	switch kind {
	case models.KindDonor:
		return models.DonorVisitor
	case models.KindBank:
		return models.BankAccountCreated
	}
	return nil
}

// Next returns the single successor of from, or false for terminal states.
func Next(from models.State) (models.State, bool) {
	succ := adjacency[from]
	if len(succ) == 0 {
		return nil, false
	}
	return succ[0], true
}

// IsTerminal reports whether s has no outgoing edge.
func IsTerminal(s models.State) bool {
	_, ok := Next(s)
	return !ok
}

// Edges lists every edge of kind in chain order.
func Edges(kind models.EntityKind) []Edge {
	var out []Edge
	for _, s := range models.StatesOf(kind) {
		for _, next := range adjacency[s] {
			out = append(out, Edge{From: s, To: next})
		}
	}
	return out
}

// Successors returns a copy of the successor list of from.
func Successors(from models.State) []models.State {
	succ := adjacency[from]
	out := make([]models.State, len(succ))
	copy(out, succ)
	return out
}

// IsForward reports whether to lies strictly after from on the same chain.
func IsForward(from, to models.State) bool {
	if from == nil || to == nil || from.Kind() != to.Kind() {
		return false
	}
	for cur, ok := Next(from); ok; cur, ok = Next(cur) {
		if cur == to {
			return true
		}
	}
	return false
}

package generalsplit

import (
	"math/rand"

	"tausplit/reaction"
)

// Engine is the SimulationAlg-shaped driver for the general-purpose
// recursion tree: it never rejects a network on capacity grounds, since it
// carries no fixed-capacity envelope (spec.md §3, §6's "tau-split-general").
type Engine struct {
	state          []int64
	reactions      []*reaction.Reaction
	reactantNames  []string
	totalReactions uint64
}

// NewEngine builds an Engine over the given network, copying the initial
// state so the caller's slice is never mutated in place.
func NewEngine(initialState []int64, reactions []*reaction.Reaction, reactantNames []string) *Engine {
	state := make([]int64, len(initialState))
	copy(state, initialState)
	return &Engine{state: state, reactions: reactions, reactantNames: reactantNames}
}

// Advance simulates forward by the given time window.
func (e *Engine) Advance(t float64, rng *rand.Rand) {
	tree := New(e.state, e.reactions, e.reactantNames, t, rng)
	tree.Recursion(0, t, rng)
	copy(e.state, tree.State())
	e.totalReactions += tree.TotalEvents
}

// State returns the current population vector.
func (e *Engine) State() []int64 { return e.state }

// TotalReactions returns the cumulative number of reaction firings applied
// across every Advance call so far.
func (e *Engine) TotalReactions() uint64 { return e.totalReactions }

package tausplit

import (
	"math/rand"

	"tausplit/reaction"
)

// Engine is the SimulationAlg-shaped driver spec.md §6 expects: each call to
// Advance builds a fresh recursion tree over the requested time window and
// folds its result back into the running state.
type Engine struct {
	state          []int64
	reactions      []*reaction.FastReaction
	reactantNames  []string
	totalReactions uint64
}

// NewEngine converts every reaction to its fixed-capacity form up front,
// returning a *reaction.CapacityError for the first reaction that exceeds
// the envelope so the caller can fall back to the general-purpose engine.
func NewEngine(initialState []int64, reactions []*reaction.Reaction, reactantNames []string) (*Engine, error) {
	fast := make([]*reaction.FastReaction, len(reactions))
	for i, r := range reactions {
		fr, err := reaction.NewFastReaction(i, r)
		if err != nil {
			return nil, err
		}
		fast[i] = fr
	}
	state := make([]int64, len(initialState))
	copy(state, initialState)
	return &Engine{state: state, reactions: fast, reactantNames: reactantNames}, nil
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

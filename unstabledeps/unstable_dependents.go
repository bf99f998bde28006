// Package unstabledeps tracks how many currently-unstable reactions read
// from each species, so the recursion tree knows whether destabilizing a
// reaction's output requires waking anything downstream (spec.md §3).
package unstabledeps

import "tausplit/reaction"

// Tracker counts, per species, how many unstable reactions have it as an
// input.
type Tracker struct {
	count []int
}

// New returns a Tracker with every species starting at zero dependents.
func New(speciesCount int) *Tracker {
	return &Tracker{count: make([]int, speciesCount)}
}

// AddUnstable registers r as newly unstable, incrementing the dependent
// count of every species it reads.
func (t *Tracker) AddUnstable(r *reaction.FastReaction) {
	for _, inp := range r.InputSlice() {
		t.count[inp.Species]++
	}
}

// RemoveUnstable undoes a prior AddUnstable for r.
func (t *Tracker) RemoveUnstable(r *reaction.FastReaction) {
	for _, inp := range r.InputSlice() {
		t.count[inp.Species]--
	}
}

// HasDependents reports whether any unstable reaction reads from one of r's
// stoichiometry outputs, meaning destabilizing r could in turn wake one of
// those dependents.
func (t *Tracker) HasDependents(r *reaction.FastReaction) bool {
	for _, e := range r.StoiSlice() {
		if t.count[e.Species] > 0 {
			return true
		}
	}
	return false
}

// Count returns the current dependent count for a species.
func (t *Tracker) Count(species int) int { return t.count[species] }

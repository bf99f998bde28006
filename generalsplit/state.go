// Package generalsplit implements the general-purpose Tau-Splitting engine
// (spec.md §3's fallback path): the same adaptive divide-and-conquer
// recursion as the tausplit package, but over unconstrained *reaction.Reaction
// values instead of the fixed-capacity FastReaction envelope, reactivating
// stable reactions via the static dependency graph instead of listener
// heaps. Grounded on the original implementation's tau3 module, which exists
// for exactly this reason: networks with more than two input species or more
// than four net stoichiometry changes per reaction.
package generalsplit

import (
	"tausplit/reaction"
	"tausplit/sampling"
	"tausplit/state"
)

// stateData is the bracketed population state of every species, identical
// in shape to state.Data but operating over reactions of arbitrary arity
// (grounded on state/state.go and the original's tau3::state_data.rs).
type stateData struct {
	Components []state.ComponentData
}

func newStateData(initial []int64) *stateData {
	comps := make([]state.ComponentData, len(initial))
	for i, v := range initial {
		comps[i] = state.ComponentData{Lower: v, Value: v, Upper: v}
	}
	return &stateData{Components: comps}
}

func (d *stateData) Len() int                        { return len(d.Components) }
func (d *stateData) Get(i int) state.ComponentData   { return d.Components[i] }

// Values returns the point-estimate population vector.
func (d *stateData) Values() []int64 {
	out := make([]int64, len(d.Components))
	for i, c := range d.Components {
		out[i] = c.Value
	}
	return out
}

// ChangeBounds applies eventCount firings of r to the lower and upper
// brackets only, leaving the point value untouched.
func (d *stateData) ChangeBounds(eventCount int64, r *reaction.Reaction) {
	if eventCount == 0 {
		return
	}
	d.ApplyNegative(eventCount, r)
	d.ApplyPositive(eventCount, r)
}

// RemoveBounds undoes a prior AddBounds call for the given event count.
func (d *stateData) RemoveBounds(eventCount int64, r *reaction.Reaction) {
	d.ChangeBounds(-eventCount, r)
}

// AddBounds applies eventCount firings of r to the brackets.
func (d *stateData) AddBounds(eventCount int64, r *reaction.Reaction) {
	d.ChangeBounds(eventCount, r)
}

// Apply applies eventCount firings of r to lower, value, and upper alike,
// collapsing the bracket back to a point.
func (d *stateData) Apply(eventCount int64, r *reaction.Reaction) {
	for _, e := range r.Stoichiometry {
		delta := e.Delta * eventCount
		c := &d.Components[e.Species]
		c.Lower += delta
		c.Value += delta
		c.Upper += delta
	}
}

// ApplyNegative applies eventCount firings to the lower bracket only, over
// r's negative stoichiometry partition.
func (d *stateData) ApplyNegative(eventCount int64, r *reaction.Reaction) {
	for _, e := range r.Negative() {
		d.Components[e.Species].Lower += e.Delta * eventCount
	}
}

// ApplyPositive applies eventCount firings to the upper bracket only, over
// r's positive stoichiometry partition.
func (d *stateData) ApplyPositive(eventCount int64, r *reaction.Reaction) {
	for _, e := range r.Positive() {
		d.Components[e.Species].Upper += e.Delta * eventCount
	}
}

func clampNonNeg(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// UpperProduct returns the product of binomial coefficients evaluated at
// the upper bracket of each input species.
func (d *stateData) UpperProduct(r *reaction.Reaction) float64 {
	product := uint64(1)
	for _, inp := range r.Inputs {
		product *= sampling.BinomialCoefficient(clampNonNeg(d.Components[inp.Species].Upper), inp.Multiplicity)
	}
	return float64(product)
}

// StateProduct returns the product evaluated at the point-estimate value.
func (d *stateData) StateProduct(r *reaction.Reaction) float64 {
	product := uint64(1)
	for _, inp := range r.Inputs {
		product *= sampling.BinomialCoefficient(clampNonNeg(d.Components[inp.Species].Value), inp.Multiplicity)
	}
	return float64(product)
}

// LowerProduct returns the product evaluated at the lower bracket of each
// input species, subtracting self-consumption when the reaction has already
// committed to firing at least once (see reaction.Reaction.SelfConsumption).
func (d *stateData) LowerProduct(r *reaction.Reaction, hasEvents bool) float64 {
	product := uint64(1)
	for _, inp := range r.Inputs {
		lower := d.Components[inp.Species].Lower
		if hasEvents {
			lower += r.SelfConsumption(inp.Species)
		}
		product *= sampling.BinomialCoefficient(clampNonNeg(lower), inp.Multiplicity)
	}
	return float64(product)
}

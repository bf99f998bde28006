// Package state holds the bracketed population state the Tau-Splitting
// engine propagates: for every species, a (lower, value, upper) triple
// bounding how far a segment's true count can have drifted from the point
// estimate (spec.md §2, §3).
package state

import "tausplit/reaction"

// ComponentData is the bracket for a single species.
type ComponentData struct {
	Lower, Value, Upper int64
}

// Data is the bracketed state of every species in the network.
type Data struct {
	Components []ComponentData
}

// New builds a Data with lower == value == upper for every species, the
// starting point of a fresh simulation.
func New(initial []int64) *Data {
	comps := make([]ComponentData, len(initial))
	for i, v := range initial {
		comps[i] = ComponentData{Lower: v, Value: v, Upper: v}
	}
	return &Data{Components: comps}
}

// Len returns the number of species tracked.
func (d *Data) Len() int { return len(d.Components) }

// Get returns the bracket for species i.
func (d *Data) Get(i int) ComponentData { return d.Components[i] }

// Values returns the point-estimate population vector.
func (d *Data) Values() []int64 {
	out := make([]int64, len(d.Components))
	for i, c := range d.Components {
		out[i] = c.Value
	}
	return out
}

// ChangeBounds applies eventCount firings of reaction to the lower and upper
// brackets only (not the point value), via ApplyNegative then ApplyPositive.
func (d *Data) ChangeBounds(eventCount int64, r *reaction.FastReaction) {
	if eventCount == 0 {
		return
	}
	d.ApplyNegative(eventCount, r)
	d.ApplyPositive(eventCount, r)
}

// RemoveBounds undoes the bracket effect of a prior AddBounds call for the
// given event count.
func (d *Data) RemoveBounds(eventCount int64, r *reaction.FastReaction) {
	d.ChangeBounds(-eventCount, r)
}

// AddBounds applies eventCount firings of reaction to the brackets.
func (d *Data) AddBounds(eventCount int64, r *reaction.FastReaction) {
	d.ChangeBounds(eventCount, r)
}

// Apply applies eventCount firings of reaction to lower, value, and upper
// alike, collapsing the bracket back to a point (used once a segment's
// event count has been fully resolved).
func (d *Data) Apply(eventCount int64, r *reaction.FastReaction) {
	for _, e := range r.StoiSlice() {
		delta := e.Delta * eventCount
		c := &d.Components[e.Species]
		c.Lower += delta
		c.Value += delta
		c.Upper += delta
	}
}

// ApplyNegative applies eventCount firings to the lower bracket only, over
// the reaction's negative stoichiometry terms.
func (d *Data) ApplyNegative(eventCount int64, r *reaction.FastReaction) {
	for _, e := range r.StoiSlice() {
		if e.Delta >= 0 {
			continue
		}
		d.Components[e.Species].Lower += e.Delta * eventCount
	}
}

// ApplyPositive applies eventCount firings to the upper bracket only, over
// the reaction's positive stoichiometry terms.
func (d *Data) ApplyPositive(eventCount int64, r *reaction.FastReaction) {
	for _, e := range r.StoiSlice() {
		if e.Delta <= 0 {
			continue
		}
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
// the upper bracket of each input species: an upper bound on the number of
// input combinations the reaction could draw from.
func (d *Data) UpperProduct(r *reaction.FastReaction) float64 {
	product := uint64(1)
	for _, inp := range r.InputSlice() {
		product *= binomial(clampNonNeg(d.Components[inp.Species].Upper), inp.Multiplicity)
	}
	return float64(product)
}

// StateProduct returns the product evaluated at the point-estimate value.
func (d *Data) StateProduct(r *reaction.FastReaction) float64 {
	product := uint64(1)
	for _, inp := range r.InputSlice() {
		product *= binomial(clampNonNeg(d.Components[inp.Species].Value), inp.Multiplicity)
	}
	return float64(product)
}

// LowerProduct returns the product evaluated at the lower bracket of each
// input species. When hasEvents is true, each input's own self-consumption
// is subtracted first, since a species already committed to firing this
// reaction cannot also be available as an input to it again within the same
// event count.
func (d *Data) LowerProduct(r *reaction.FastReaction, hasEvents bool) float64 {
	product := uint64(1)
	for _, inp := range r.InputSlice() {
		lower := d.Components[inp.Species].Lower
		if hasEvents {
			lower += inp.SelfConsumption
		}
		product *= binomial(clampNonNeg(lower), inp.Multiplicity)
	}
	return float64(product)
}

// binomial computes n choose k via the same closed forms as the reaction
// package, kept local to this hot path.
func binomial(n, k uint64) uint64 {
	switch k {
	case 0:
		return 1
	case 1:
		return n
	case 2:
		if n == 0 {
			return 0
		}
		return (n*n - n) / 2
	case 3:
		if n < 2 {
			return 0
		}
		return (n * (n - 1) * (n - 2)) / 6
	case 4:
		if n < 3 {
			return 0
		}
		return (n * (n - 1) * (n - 2) * (n - 3)) / 24
	default:
		res := uint64(1)
		for i := uint64(0); i < k; i++ {
			res = res * (n - i) / (i + 1)
		}
		return res
	}
}

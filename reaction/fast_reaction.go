package reaction

import "fmt"

// MaxInputs and MaxStoichiometry are the fixed-capacity limits of the
// listener-optimized engine (spec.md §1): at most two distinct input
// species, and at most four net stoichiometry changes. Networks outside
// this envelope must run under the general-purpose fallback instead.
const (
	MaxInputs        = 2
	MaxStoichiometry = 4
)

// CapacityError reports that a Reaction exceeds the fixed-capacity envelope
// of the fast engine. It is always recoverable by the caller: fall back to
// the general-purpose engine (spec.md §1, §7).
type CapacityError struct {
	ReactionIdx int
	Kind        string // "inputs" or "stoichiometry"
	Have, Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("reaction %d exceeds fixed capacity: %d %s (limit %d)", e.ReactionIdx, e.Have, e.Kind, e.Limit)
}

// FastInput is one (species, multiplicity) input pair, annotated with the
// (non-positive) self-consumption delta the species receives from the same
// reaction's stoichiometry, if any, which the recursion tree must account
// for separately when splitting propensity bounds (spec.md §3, grounded on
// f_reaction.rs). Zero means the species is not self-consumed.
type FastInput struct {
	Species         int
	Multiplicity    uint64
	SelfConsumption int64
}

// FastReaction is the fixed-capacity view of a Reaction used by the
// listener-optimized recursion tree. It stores inputs and stoichiometry in
// fixed-size arrays so that per-node reaction data never heap-allocates.
type FastReaction struct {
	NumInputs int
	Inputs    [MaxInputs]FastInput

	NumStoi  int
	Stoi     [MaxStoichiometry]StoiEntry

	Rate float64
}

// NewFastReaction derives a FastReaction from a Reaction, returning a
// *CapacityError if the reaction exceeds the fixed-capacity envelope.
func NewFastReaction(idx int, r *Reaction) (*FastReaction, error) {
	if len(r.Inputs) > MaxInputs {
		return nil, &CapacityError{ReactionIdx: idx, Kind: "inputs", Have: len(r.Inputs), Limit: MaxInputs}
	}
	if len(r.Stoichiometry) > MaxStoichiometry {
		return nil, &CapacityError{ReactionIdx: idx, Kind: "stoichiometry", Have: len(r.Stoichiometry), Limit: MaxStoichiometry}
	}

	fr := &FastReaction{Rate: r.Rate, NumInputs: len(r.Inputs), NumStoi: len(r.Stoichiometry)}
	for i, inp := range r.Inputs {
		fr.Inputs[i] = FastInput{
			Species:         inp.Species,
			Multiplicity:    inp.Multiplicity,
			SelfConsumption: r.SelfConsumption(inp.Species),
		}
	}
	for i, e := range r.Stoichiometry {
		fr.Stoi[i] = e
	}
	return fr, nil
}

// InputSlice returns the active inputs as a plain slice.
func (f *FastReaction) InputSlice() []FastInput { return f.Inputs[:f.NumInputs] }

// StoiSlice returns the active stoichiometry entries as a plain slice.
func (f *FastReaction) StoiSlice() []StoiEntry { return f.Stoi[:f.NumStoi] }

// InputProduct computes Π_i C(pop_i, mult_i) over the fixed inputs.
func (f *FastReaction) InputProduct(state []int64) uint64 {
	product := uint64(1)
	for _, inp := range f.InputSlice() {
		pop := state[inp.Species]
		if pop < 0 {
			pop = 0
		}
		product *= binomialCoefficient(uint64(pop), inp.Multiplicity)
	}
	return product
}

// Apply adds count firings of the reaction to reactants in place.
func (f *FastReaction) Apply(reactants []int64, count int64) {
	for _, e := range f.StoiSlice() {
		reactants[e.Species] += count * e.Delta
	}
}

// AllReactants returns every species index touched, inputs first.
func (f *FastReaction) AllReactants() []int {
	out := make([]int, 0, f.NumInputs+f.NumStoi)
	for _, inp := range f.InputSlice() {
		out = append(out, inp.Species)
	}
	for _, e := range f.StoiSlice() {
		out = append(out, e.Species)
	}
	return out
}

// binomialCoefficient computes the same values as
// sampling.BinomialCoefficient, with an extra closed form for k == 4, inlined
// for the fast-path hot loop (f_reaction.rs inlines the same closed forms).
func binomialCoefficient(n, k uint64) uint64 {
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

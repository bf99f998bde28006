// Package reaction describes chemical reactions: the parsed, unconstrained
// Reaction used throughout the driver and the general-purpose engine, and
// FastReaction, the fixed-capacity per-segment derived form the fast
// ("variant 5") Tau-Splitting engine requires (spec.md §1, §3).
package reaction

import (
	"fmt"
	"sort"
	"strings"

	"tausplit/sampling"
)

// StoiEntry is one (species, delta) pair of a reaction's stoichiometry, with
// delta != 0 by construction (spec.md §3).
type StoiEntry struct {
	Species int
	Delta   int64
}

// Input is one (species, multiplicity) pair of a reaction's left-hand side.
type Input struct {
	Species      int
	Multiplicity uint64
}

// Reaction is a single mass-action reaction: an ordered list of inputs, the
// net stoichiometry change, and a rate constant. It carries no capacity
// limit; FastReaction derives the fixed-capacity view used by the hot path.
type Reaction struct {
	Inputs        []Input
	Stoichiometry []StoiEntry
	Rate          float64

	positive []StoiEntry
	negative []StoiEntry
}

// New builds a Reaction from its inputs and net stoichiometry, computing the
// positive/negative partitions used by the propensity-bound bookkeeping.
func New(inputs []Input, stoichiometry []StoiEntry, rate float64) *Reaction {
	r := &Reaction{Inputs: inputs, Stoichiometry: stoichiometry, Rate: rate}
	for _, e := range stoichiometry {
		if e.Delta > 0 {
			r.positive = append(r.positive, e)
		} else if e.Delta < 0 {
			r.negative = append(r.negative, e)
		}
	}
	return r
}

// Positive returns the positive-delta partition of the stoichiometry.
func (r *Reaction) Positive() []StoiEntry { return r.positive }

// Negative returns the negative-delta partition of the stoichiometry.
func (r *Reaction) Negative() []StoiEntry { return r.negative }

// InputProduct computes the number of combinations of input molecules,
// Π_i C(pop_i, mult_i): the propensity without the rate factor.
func (r *Reaction) InputProduct(state []int64) uint64 {
	product := uint64(1)
	for _, inp := range r.Inputs {
		pop := state[inp.Species]
		if pop < 0 {
			pop = 0
		}
		product *= sampling.BinomialCoefficient(uint64(pop), inp.Multiplicity)
	}
	return product
}

// Propensity computes rate * InputProduct(state).
func (r *Reaction) Propensity(state []int64) float64 {
	return float64(r.InputProduct(state)) * r.Rate
}

// Apply adds count firings of the reaction to reactants in place.
func (r *Reaction) Apply(reactants []int64, count int64) {
	for _, e := range r.Stoichiometry {
		reactants[e.Species] += count * e.Delta
	}
}

// SelfConsumption returns the (non-positive) delta species receives from
// the reaction's negative stoichiometry partition, or 0 if the species is
// not among its own reaction's negative terms (spec.md §3's
// "self_consumption", used to correct the lower-bound propensity sample so
// it never double counts a molecule already committed to firing this
// reaction). The magnitude matters, not just its presence: a
// multiplicity-2 self-consuming input (e.g. 2A -> B) receives -2, not -1.
func (r *Reaction) SelfConsumption(species int) int64 {
	for _, e := range r.negative {
		if e.Species == species {
			return e.Delta
		}
	}
	return 0
}

// AllReactants returns every species index touched by the reaction, as
// either an input or a stoichiometry entry (duplicates allowed).
func (r *Reaction) AllReactants() []int {
	out := make([]int, 0, len(r.Inputs)+len(r.Stoichiometry))
	for _, inp := range r.Inputs {
		out = append(out, inp.Species)
	}
	for _, e := range r.Stoichiometry {
		out = append(out, e.Species)
	}
	return out
}

func formatTerm(species int, count int64, names []string) string {
	name := fmt.Sprintf("species#%d", species)
	if species < len(names) {
		name = names[species]
	}
	if count == 1 || count == -1 {
		return name
	}
	n := count
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("%d%s", n, name)
}

// String renders the reaction in the "lhs -> rhs" grammar of spec.md §6,
// for diagnostics and for the capacity-error messages of §7.
func (r *Reaction) String() string {
	return r.FormatPretty(nil)
}

// FormatPretty renders the reaction using the given reactant names, falling
// back to numeric indices when names is nil or too short.
func (r *Reaction) FormatPretty(names []string) string {
	name := func(i int) string {
		if i < len(names) {
			return names[i]
		}
		return fmt.Sprintf("species#%d", i)
	}

	var lhs []string
	if len(r.Inputs) == 0 {
		lhs = []string{"∅"}
	}
	for _, inp := range r.Inputs {
		if inp.Multiplicity == 1 {
			lhs = append(lhs, name(inp.Species))
		} else {
			lhs = append(lhs, fmt.Sprintf("%d%s", inp.Multiplicity, name(inp.Species)))
		}
	}

	outputs := map[int]int64{}
	for _, inp := range r.Inputs {
		outputs[inp.Species] += int64(inp.Multiplicity)
	}
	for _, e := range r.Stoichiometry {
		outputs[e.Species] += e.Delta
	}
	var species []int
	for s, c := range outputs {
		if c != 0 {
			species = append(species, s)
		}
	}
	sort.Ints(species)
	var rhs []string
	for _, s := range species {
		rhs = append(rhs, formatTerm(s, outputs[s], names))
	}
	if len(rhs) == 0 {
		rhs = []string{"∅"}
	}

	return fmt.Sprintf("%s -> %s", strings.Join(lhs, " + "), strings.Join(rhs, " + "))
}

package gillespie

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"tausplit/reaction"
)

// Gillespie is the exact direct-method SSA: no recursion tree, no
// propensity brackets, just a full resample of whichever reactions a
// firing could have disturbed.
type Gillespie struct {
	eqs            []*reaction.Reaction
	reactionUpdates [][]int
	state          []int64
	tree           *choiceTree
	totalReactions uint64
}

// New builds a Gillespie engine over the given reactions and initial state.
// reactantNames is accepted only to satisfy the common simulation-algorithm
// shape; Gillespie has no use for it.
func New(initialState []int64, eqs []*reaction.Reaction, reactantNames []string) *Gillespie {
	reactantCount := 0
	for _, eq := range eqs {
		for _, r := range eq.AllReactants() {
			if r+1 > reactantCount {
				reactantCount = r + 1
			}
		}
	}

	reactantEqs := make([][]int, reactantCount)
	for idx, eq := range eqs {
		for _, in := range eq.Inputs {
			reactantEqs[in.Species] = append(reactantEqs[in.Species], idx)
		}
	}

	updates := make([][]int, len(eqs))
	for idx, eq := range eqs {
		var u []int
		for _, e := range eq.Stoichiometry {
			u = append(u, reactantEqs[e.Species]...)
		}
		updates[idx] = dedupSorted(u)
	}

	tree := newChoiceTree(len(eqs))
	for idx, eq := range eqs {
		tree.Update(idx, float64(eq.InputProduct(initialState))*eq.Rate)
	}

	return &Gillespie{
		eqs:             eqs,
		reactionUpdates: updates,
		state:           initialState,
		tree:            tree,
		totalReactions:  0,
	}
}

func dedupSorted(xs []int) []int {
	if len(xs) == 0 {
		return nil
	}
	sorted := append([]int(nil), xs...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// sampleReaction advances the state by at most one reaction firing and
// returns the amount of simulated time that passed: maxTime if the next
// firing would fall beyond the remaining budget, or math.MaxFloat64 if the
// total propensity is effectively zero and nothing can fire at all.
func (g *Gillespie) sampleReaction(maxTime float64, rng *rand.Rand) float64 {
	total := g.tree.Total()
	if total <= 1e-9 {
		return math.MaxFloat64
	}
	time := distuv.Exponential{Rate: total, Src: rng}.Rand()
	if time > maxTime {
		return maxTime
	}

	idx := g.tree.Sample(rng)
	g.eqs[idx].Apply(g.state, 1)
	for _, updateIdx := range g.reactionUpdates[idx] {
		eq := g.eqs[updateIdx]
		g.tree.Update(updateIdx, float64(eq.InputProduct(g.state))*eq.Rate)
	}
	g.totalReactions++
	return time
}

// Advance simulates forward by exactly t units of time.
func (g *Gillespie) Advance(t float64, rng *rand.Rand) {
	for t > 0 {
		t -= g.sampleReaction(t, rng)
	}
}

// State returns the current species counts.
func (g *Gillespie) State() []int64 { return g.state }

// TotalReactions returns the number of reaction firings simulated so far.
func (g *Gillespie) TotalReactions() uint64 { return g.totalReactions }

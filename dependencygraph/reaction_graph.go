// Package dependencygraph indexes which reactions read from and write to
// each species, so the general-purpose engine can find exactly which
// reactions to reactivate when a component's bounds move (spec.md §3).
package dependencygraph

import "tausplit/reaction"

// Graph holds, for every species, the reactions that use it as an input and
// the reactions that affect it via their stoichiometry.
type Graph struct {
	componentInput  [][]int
	componentOutput [][]int
}

// FromReactions builds a Graph over the given species count and reactions.
func FromReactions(speciesCount int, reactions []*reaction.Reaction) *Graph {
	g := &Graph{
		componentInput:  make([][]int, speciesCount),
		componentOutput: make([][]int, speciesCount),
	}
	for idx, r := range reactions {
		for _, inp := range r.Inputs {
			g.componentInput[inp.Species] = append(g.componentInput[inp.Species], idx)
		}
		for _, e := range r.Stoichiometry {
			g.componentOutput[e.Species] = append(g.componentOutput[e.Species], idx)
		}
	}
	return g
}

// HaveInput returns the indices of every reaction that reads component as
// an input.
func (g *Graph) HaveInput(component int) []int { return g.componentInput[component] }

// HaveOutput returns the indices of every reaction that writes to component.
func (g *Graph) HaveOutput(component int) []int { return g.componentOutput[component] }

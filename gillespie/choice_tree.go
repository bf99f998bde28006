// Package gillespie implements the direct-method stochastic simulation
// algorithm (spec.md §8's cross-validation oracle): sample the next firing
// time from Exponential(sum of propensities), sample which reaction fires
// weighted by its own propensity, apply it, and repeat until the time
// budget is exhausted.
package gillespie

import "math/rand"

// choiceTree is a complete binary tree over reaction propensities, stored
// breadth-first in a flat slice so every node holds the sum of its two
// children. Updating a single leaf only touches the O(log n) nodes on its
// path to the root, and sampling walks that same path once.
type choiceTree struct {
	data      []float64
	allocSize int
	size      int
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

func newChoiceTree(size int) *choiceTree {
	alloc := nextPowerOfTwo(size)
	return &choiceTree{
		data:      make([]float64, alloc*2-1),
		allocSize: alloc,
		size:      size,
	}
}

func (c *choiceTree) Len() int { return c.size }

// Update sets the propensity of reaction idx to value, propagating the
// delta up to every ancestor.
func (c *choiceTree) Update(idx int, value float64) {
	mapped := idx + c.allocSize
	old := c.data[mapped-1]
	delta := value - old
	for mapped > 0 {
		c.data[mapped-1] += delta
		mapped /= 2
	}
}

// Total returns the sum of every reaction's propensity.
func (c *choiceTree) Total() float64 {
	if len(c.data) == 0 {
		return 0
	}
	return c.data[0]
}

// Sample draws a reaction index weighted by propensity.
func (c *choiceTree) Sample(rng *rand.Rand) int {
	idx := 1
	choice := rng.Float64() * c.data[0]
	for idx*2 < len(c.data) {
		if choice < c.data[2*idx] {
			idx = 2*idx + 1
		} else {
			choice -= c.data[2*idx]
			idx = 2 * idx
		}
	}
	return idx - c.allocSize
}

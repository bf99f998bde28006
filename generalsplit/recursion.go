package generalsplit

import (
	"math/rand"

	"tausplit/assertions"
	"tausplit/dependencygraph"
	"tausplit/reaction"
	"tausplit/reactiondata"
)

// Tree drives the same recursive time-bisection as tausplit.Tree (spec.md
// §2), but over unconstrained *reaction.Reaction values, and reactivates
// stable reactions through the static dependency graph instead of listener
// heaps (grounded on the original implementation's tau3::recursion.rs,
// which exists for exactly the networks that don't fit the fixed-capacity
// envelope: more than two input species or more than four stoichiometry
// terms per reaction).
type Tree struct {
	nodes       []*treeNode
	stableIndex []stablePtr
	reactions   []*reaction.Reaction
	state       *stateData
	graph       *dependencygraph.Graph

	storedStable        []bool
	unstableDependent    []int
	TotalEvents          uint64
	inactiveByComponent  [][]int

	reactantNames []string
}

// New builds a Tree rooted at a freshly sampled segment of the given time,
// covering every reaction in the network.
func New(initialState []int64, reactions []*reaction.Reaction, reactantNames []string, t float64, rng *rand.Rand) *Tree {
	stable := make([]*reactiondata.Stable, len(reactions))
	for i, r := range reactions {
		product := r.InputProduct(initialState)
		stable[i] = reactiondata.Sample(float64(product), i, r.Rate, t, rng).Stabilize()
	}

	tr := &Tree{
		nodes:               []*treeNode{newRootNode(nil, stable)},
		stableIndex:         make([]stablePtr, len(reactions)),
		reactions:           reactions,
		state:               newStateData(initialState),
		graph:               dependencygraph.FromReactions(len(initialState), reactions),
		storedStable:        make([]bool, len(reactions)),
		unstableDependent:   make([]int, len(initialState)),
		inactiveByComponent: make([][]int, len(initialState)),
		reactantNames:       reactantNames,
	}
	for i := range tr.stableIndex {
		tr.stableIndex[i] = noStablePtr
	}
	for i := range tr.storedStable {
		tr.storedStable[i] = true
	}
	return tr
}

// State returns the current point-estimate population vector.
func (t *Tree) State() []int64 { return t.state.Values() }

// Recursion resolves the time segment spanned by node, of duration time,
// either by finishing it directly once every reaction is stable, or by
// splitting it into two halves and recursing into each.
func (t *Tree) Recursion(node int, time float64, rng *rand.Rand) {
	t.activateNode(node)
	if assertions.Enabled {
		t.validateBounds(node)
		t.validateDependent(node)
		t.validateStableIndex()
		t.validateAllIndexed()
	}

	t.resampleUnstable(node, rng)
	t.reactivateReactions(node, rng)
	if assertions.Enabled {
		t.validateBounds(node)
		t.validateDependent(node)
		t.validateStableIndex()
		t.validateAllIndexed()
	}

	t.stabilizeReactions(node)
	if assertions.Enabled {
		t.validateBounds(node)
		t.validateDependent(node)
		t.validateStableIndex()
		t.validateAllIndexed()
	}

	if len(t.nodes[node].UnstableReactions) == 0 {
		t.finishNode(node)
		return
	}

	leftStable := make([]*reactiondata.Stable, 0, len(t.nodes[node].StableReactions))
	rightStable := make([]*reactiondata.Stable, 0, len(t.nodes[node].StableReactions))

	outIdx := 0
	stableReactions := t.nodes[node].StableReactions
	for idx := 0; idx < len(stableReactions); idx++ {
		rdata := stableReactions[idx]
		if t.canDeactivate(rdata) {
			if rdata.Events > 0 {
				for _, e := range t.reactions[rdata.Reaction].Stoichiometry {
					t.inactiveByComponent[e.Species] = append(t.inactiveByComponent[e.Species], rdata.Reaction)
				}
			}
			stableReactions[outIdx] = rdata
			t.stableIndex[rdata.Reaction] = stablePtr{Node: node, Idx: outIdx}
			outIdx++
		} else {
			r := t.reactions[rdata.Reaction]
			t.state.RemoveBounds(int64(rdata.Events), r)
			t.stableIndex[rdata.Reaction] = noStablePtr
			spl := rdata.Split(rng)

			leftStable = append(leftStable, rdata)
			rightStable = append(rightStable, spl)
		}
	}
	t.nodes[node].StableReactions = stableReactions[:outIdx]

	for _, rdata := range t.nodes[node].UnstableReactions {
		r := t.reactions[rdata.Reaction]
		t.state.RemoveBounds(int64(rdata.Events), r)
		t.removeUnstableDependent(r)
	}

	leftUnstable := t.nodes[node].UnstableReactions
	t.nodes[node].UnstableReactions = nil
	rightUnstable := make([]*reactiondata.Data, len(leftUnstable))
	for i, rdata := range leftUnstable {
		rightUnstable[i] = rdata.Split(t.reactions[rdata.Reaction].Rate, rng)
	}

	rightNode := t.addNode(node, rightUnstable, rightStable)
	t.nodes[node].Right = rightNode
	leftNode := t.addNode(node, leftUnstable, leftStable)
	t.nodes[node].Left = leftNode

	t.Recursion(leftNode, time/2, rng)
	t.Recursion(rightNode, time/2, rng)

	t.finishNode(node)
}

func (t *Tree) activateNode(node int) {
	n := t.nodes[node]
	for _, rdata := range n.UnstableReactions {
		r := t.reactions[rdata.Reaction]
		t.state.AddBounds(int64(rdata.Events), r)
		t.addUnstableDependent(r)
	}
	for idx, rdata := range n.StableReactions {
		t.stableIndex[rdata.Reaction] = stablePtr{Node: node, Idx: idx}
		r := t.reactions[rdata.Reaction]
		t.state.AddBounds(int64(rdata.Events), r)
	}
	n.IsActive = true
}

func (t *Tree) finishNode(node int) {
	n := t.nodes[node]
	for _, rdata := range n.StableReactions {
		r := t.reactions[rdata.Reaction]
		t.stableIndex[rdata.Reaction] = noStablePtr
		t.state.RemoveBounds(int64(rdata.Events), r)
		t.state.Apply(int64(rdata.Events), r)
		t.TotalEvents += rdata.Events
	}
	n.StableReactions = nil
	t.removeNode(node)
}

func (t *Tree) resampleUnstable(node int, rng *rand.Rand) {
	for _, rdata := range t.nodes[node].UnstableReactions {
		r := t.reactions[rdata.Reaction]
		prod := t.state.StateProduct(r)
		oldEvents := rdata.Events
		rdata.Resample(prod, r.Rate, rng)
		t.state.ChangeBounds(int64(rdata.Events)-int64(oldEvents), r)
	}
}

// reactivateReactions pushes down every dependency-graph consumer of a
// component touched by this node's reactions, mirroring the original's
// "for &reaction_idx in dependency_graph.have_input(component)" forwarding
// whenever a component's bounds may have moved.
func (t *Tree) reactivateReactions(node int, rng *rand.Rand) {
	idx := 0
	for idx < len(t.nodes[node].StableReactions) {
		r := t.reactions[t.nodes[node].StableReactions[idx].Reaction]
		for _, e := range r.Stoichiometry {
			t.reactivateComponent(e.Species, rng)
		}
		idx++
	}
	idx = 0
	for idx < len(t.nodes[node].UnstableReactions) {
		r := t.reactions[t.nodes[node].UnstableReactions[idx].Reaction]
		idx++
		for _, e := range r.Stoichiometry {
			t.reactivateComponent(e.Species, rng)
		}
	}
}

// reactivateComponent forces every reaction reading comp as an input to be
// reconsidered via fullSplit. fullSplit is a no-op for any reaction that is
// not currently parked as stable somewhere in the tree, so this never
// disturbs a reaction that is already active in the current node.
func (t *Tree) reactivateComponent(comp int, rng *rand.Rand) {
	for _, reactionIdx := range t.graph.HaveInput(comp) {
		t.fullSplit(reactionIdx, rng)
	}
}

func (t *Tree) stabilizeReactions(node int) {
	unstable := t.nodes[node].UnstableReactions
	t.nodes[node].UnstableReactions = nil

	kept := unstable[:0]
	for _, rdata := range unstable {
		if t.isStable(rdata) {
			r := t.reactions[rdata.Reaction]
			t.removeUnstableDependent(r)
			t.addStable(node, rdata.Stabilize())
		} else {
			kept = append(kept, rdata)
		}
	}
	t.nodes[node].UnstableReactions = kept
}

// addUnstable destabilizes a stable reaction, fully splitting any inactive
// reaction that feeds it, since those can no longer safely stay lazy once
// an unstable reader depends on them.
func (t *Tree) addUnstable(nodeIdx int, rdata *reactiondata.Stable, rng *rand.Rand) {
	r := t.reactions[rdata.Reaction]
	t.nodes[nodeIdx].UnstableReactions = append(t.nodes[nodeIdx].UnstableReactions, rdata.Destabilize(r.Rate, rng))
	t.addUnstableDependent(r)
	t.storedStable[rdata.Reaction] = false

	for _, inp := range r.Inputs {
		if t.unstableDependent[inp.Species] == 1 {
			queue := t.inactiveByComponent[inp.Species]
			t.inactiveByComponent[inp.Species] = nil
			for _, reactionIdx := range queue {
				t.fullSplit(reactionIdx, rng)
			}
		}
	}
}

func (t *Tree) addUnstableDependent(r *reaction.Reaction) {
	for _, inp := range r.Inputs {
		t.unstableDependent[inp.Species]++
	}
}

func (t *Tree) removeUnstableDependent(r *reaction.Reaction) {
	for _, inp := range r.Inputs {
		t.unstableDependent[inp.Species]--
	}
}

func (t *Tree) hasUnstableDependents(r *reaction.Reaction) bool {
	for _, e := range r.Stoichiometry {
		if t.unstableDependent[e.Species] > 0 {
			return true
		}
	}
	return false
}

func (t *Tree) canDeactivate(rdata *reactiondata.Stable) bool {
	noEvents := rdata.Events == 0
	dependentsAreStable := !t.hasUnstableDependents(t.reactions[rdata.Reaction])
	return noEvents || dependentsAreStable
}

func (t *Tree) addNode(parent int, unstable []*reactiondata.Data, stable []*reactiondata.Stable) int {
	t.nodes = append(t.nodes, &treeNode{
		StableReactions:   stable,
		UnstableReactions: unstable,
		IsActive:          false,
		Parent:            parent,
		Left:              noNode,
		Right:             noNode,
	})
	return len(t.nodes) - 1
}

func (t *Tree) removeNode(node int) {
	if parent := t.nodes[node].Parent; parent != noNode {
		if t.nodes[parent].Left == node {
			t.nodes[parent].Left = noNode
		} else {
			t.nodes[parent].Right = noNode
		}
	}
	t.nodes = t.nodes[:node]
}

// addStable adds a stable reaction to a node, publishing the stable index
// immediately if the node is active.
func (t *Tree) addStable(nodeIdx int, rdata *reactiondata.Stable) {
	n := t.nodes[nodeIdx]
	if n.IsActive {
		t.stableIndex[rdata.Reaction] = stablePtr{Node: nodeIdx, Idx: len(n.StableReactions)}
	}
	n.StableReactions = append(n.StableReactions, rdata)
}

// removeStable removes a stable reaction from its owning node via
// swap-removal, fixing up the stable index of whatever reaction took its
// slot.
func (t *Tree) removeStable(reactionIdx int) (int, *reactiondata.Stable, bool) {
	ptr := t.stableIndex[reactionIdx]
	if ptr.Node == noNode {
		return 0, nil, false
	}
	n := t.nodes[ptr.Node]
	lastIdx := len(n.StableReactions) - 1
	if ptr.Idx != lastIdx {
		lastReaction := n.StableReactions[lastIdx].Reaction
		n.StableReactions[ptr.Idx], n.StableReactions[lastIdx] = n.StableReactions[lastIdx], n.StableReactions[ptr.Idx]
		t.stableIndex[lastReaction] = stablePtr{Node: ptr.Node, Idx: ptr.Idx}
	}
	t.stableIndex[reactionIdx] = noStablePtr

	rdata := n.StableReactions[lastIdx]
	n.StableReactions = n.StableReactions[:lastIdx]
	return ptr.Node, rdata, true
}

// fullSplit forces a stable reaction to be split across every currently
// live node, reactivating it as stable or unstable wherever its segment has
// already progressed past the active leaf. This is the direct analog of the
// original's reactivate_reaction: a no-op when the reaction is not
// currently parked as stable (i.e. it is already active in some node).
func (t *Tree) fullSplit(reactionIdx int, rng *rand.Rand) {
	node, rdata, ok := t.removeStable(reactionIdx)
	if !ok {
		return
	}
	r := t.reactions[reactionIdx]
	t.state.RemoveBounds(int64(rdata.Events), r)

	for {
		left, right := t.nodes[node].Left, t.nodes[node].Right
		switch {
		case left == noNode && right == noNode:
			t.state.AddBounds(int64(rdata.Events), r)
			if t.stableIsStable(rdata, r, rng) {
				t.addStable(node, rdata)
			} else {
				t.addUnstable(node, rdata, rng)
			}
			return
		case left == noNode && right != noNode:
			sibling := rdata.Split(rng)
			t.state.Apply(int64(sibling.Events), r)
			t.TotalEvents += sibling.Events
			node = right
		case left != noNode && right != noNode:
			t.addStable(right, rdata.Split(rng))
			node = left
		default:
			panic("generalsplit: left child present without right child")
		}
	}
}

// isStable reports whether an active reaction's event count is still valid
// given the current state bounds.
func (t *Tree) isStable(rdata *reactiondata.Data) bool {
	hasEvents := rdata.HasEvents()
	r := t.reactions[rdata.Reaction]
	lowerProduct := t.state.LowerProduct(r, hasEvents)
	upperProduct := t.state.UpperProduct(r)

	lowerLegal := rdata.Low <= lowerProduct
	upperLegal := rdata.High > upperProduct
	return upperLegal && (lowerLegal || t.cornerStable(r, rdata.Events))
}

// stableIsStable is isStable for a lazily-sampled Stable record, sampling
// whichever bracket edge is needed to decide. The corner-stability allowance
// only ever relaxes the lower-bound leg: a reaction whose upper propensity
// bound is actually violated is never stable, corner case or not.
func (t *Tree) stableIsStable(rdata *reactiondata.Stable, r *reaction.Reaction, rng *rand.Rand) bool {
	lowerProduct := t.state.LowerProduct(r, rdata.HasEvents())
	upperProduct := t.state.UpperProduct(r)

	lowerLegal := rdata.Low <= lowerProduct || rdata.SampleLow(rng) <= lowerProduct
	upperLegal := rdata.High > upperProduct || rdata.SampleHigh(r.Rate, rng) > upperProduct
	return upperLegal && (lowerLegal || t.cornerStable(r, rdata.Events))
}

// cornerStable mirrors tausplit's corner-stability allowance (spec.md
// §4.8): a reaction with exactly one event is also stable if every reactant
// that is both an input and part of the stoichiometry has its lower/upper
// bound pinned exactly to the delta that single event would cause.
func (t *Tree) cornerStable(r *reaction.Reaction, events uint64) bool {
	if !reactiondata.AllowCornerStability || events != 1 {
		return false
	}
	for _, e := range r.Stoichiometry {
		touchesInput := false
		for _, inp := range r.Inputs {
			if inp.Species == e.Species {
				touchesInput = true
				break
			}
		}
		if !touchesInput {
			continue
		}
		c := t.state.Get(e.Species)
		deltaUp, deltaDown := e.Delta, e.Delta
		if deltaUp < 0 {
			deltaUp = 0
		}
		if deltaDown > 0 {
			deltaDown = 0
		}
		if c.Value+deltaUp != c.Upper || c.Value+deltaDown != c.Lower {
			return false
		}
	}
	return true
}

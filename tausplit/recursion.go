// Package tausplit implements the listener-optimized Tau-Splitting
// recursion tree (spec.md §2-§3): an adaptive divide-and-conquer exact
// stochastic simulator for chemical reaction networks whose fixed-capacity
// FastReaction envelope (at most two input species, at most four
// stoichiometry terms) lets every reaction's per-segment data live inline
// without heap allocation, and whose min/max listener heaps let a
// propensity-bound invalidation be detected in amortized sublinear time
// instead of rechecking every stable reaction on every recursion step.
package tausplit

import (
	"math"
	"math/rand"

	"tausplit/assertions"
	"tausplit/listener"
	"tausplit/reaction"
	"tausplit/reactiondata"
	"tausplit/state"
	"tausplit/unstabledeps"
)

// Tree drives the recursive time-bisection described in spec.md §2: each
// call to Recursion either resolves a segment outright (every reaction
// stable) or splits it into two halves and recurses into each, applying
// reaction effects to the state as segments resolve.
type Tree struct {
	nodes       []*treeNode
	stableIndex []stablePtr
	reactions   []*reaction.FastReaction
	state       *state.Data

	storedStable       []bool
	unstableDependents  *unstabledeps.Tracker
	TotalEvents         uint64
	inactiveByComponent [][]int

	upperListeners     []listener.MinListener
	upperLastClean     []int
	upperLastListener  []nodeRef
	lowerListeners     []listener.MaxListener
	lowerLastClean     []int
	lowerLastListener  []nodeRef

	reactantNames []string
}

// New builds a Tree rooted at a freshly sampled segment of the given time,
// covering every reaction in the network.
func New(initialState []int64, reactions []*reaction.FastReaction, reactantNames []string, t float64, rng *rand.Rand) *Tree {
	stable := make([]*reactiondata.Stable, len(reactions))
	for i, r := range reactions {
		product := float64(r.InputProduct(initialState))
		stable[i] = reactiondata.Sample(product, i, r.Rate, t, rng).Stabilize()
	}

	tr := &Tree{
		nodes:               []*treeNode{newRootNode(nil, stable)},
		stableIndex:         make([]stablePtr, len(reactions)),
		reactions:           reactions,
		state:               state.New(initialState),
		storedStable:        make([]bool, len(reactions)),
		unstableDependents:  unstabledeps.New(len(initialState)),
		inactiveByComponent: make([][]int, len(initialState)),
		upperListeners:      make([]listener.MinListener, len(initialState)),
		upperLastClean:      make([]int, len(initialState)),
		upperLastListener:   make([]nodeRef, len(reactions)),
		lowerListeners:      make([]listener.MaxListener, len(initialState)),
		lowerLastClean:      make([]int, len(initialState)),
		lowerLastListener:   make([]nodeRef, len(reactions)),
		reactantNames:       reactantNames,
	}
	for i := range tr.stableIndex {
		tr.stableIndex[i] = noStablePtr
	}
	for i := range tr.storedStable {
		tr.storedStable[i] = true
	}
	for i := range tr.upperLastListener {
		tr.upperLastListener[i] = noListener
		tr.lowerLastListener[i] = noListener
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
		t.validateListeners()
	}

	t.resampleUnstable(node, rng)
	t.reactivateReactions(node, rng)
	if assertions.Enabled {
		t.validateBounds(node)
		t.validateDependent(node)
		t.validateStableIndex()
		t.validateAllIndexed()
		t.validateListeners()
	}

	t.clearListeners(node)
	t.stabilizeReactions(node)
	if assertions.Enabled {
		t.validateBounds(node)
		t.validateDependent(node)
		t.validateStableIndex()
		t.validateAllIndexed()
		t.validateListeners()
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
				for _, e := range t.reactions[rdata.Reaction].StoiSlice() {
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
		t.unstableDependents.RemoveUnstable(r)
	}

	leftUnstable := t.nodes[node].UnstableReactions
	t.nodes[node].UnstableReactions = nil
	rightUnstable := make([]*reactiondata.Data, len(leftUnstable))
	for i, rdata := range leftUnstable {
		rightUnstable[i] = rdata.Split(t.reactions[rdata.Reaction].Rate, rng)
	}

	rightNode := t.addNode(node, rightUnstable, rightStable, false)
	t.nodes[node].Right = rightNode
	leftNode := t.addNode(node, leftUnstable, leftStable, true)
	t.nodes[node].Left = leftNode

	t.Recursion(leftNode, time/2, rng)
	t.Recursion(rightNode, time/2, rng)

	t.finishNode(node)
}

// activateNode brings every reaction data in node into the state's bounds,
// registers listeners for the stable reactions, and publishes the stable
// index for them.
func (t *Tree) activateNode(node int) {
	n := t.nodes[node]
	for _, rdata := range n.UnstableReactions {
		r := t.reactions[rdata.Reaction]
		t.state.AddBounds(int64(rdata.Events), r)
		t.unstableDependents.AddUnstable(r)
	}

	for idx, rdata := range n.StableReactions {
		t.stableIndex[rdata.Reaction] = stablePtr{Node: node, Idx: idx}
		r := t.reactions[rdata.Reaction]
		t.state.AddBounds(int64(rdata.Events), r)
		t.addNegativeListeners(rdata, node)
		t.addPositiveListeners(rdata, node)
	}

	n.IsActive = true
}

// finishNode applies every remaining stable reaction's effect to the state
// and removes the node, once it holds no unstable reactions.
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

func (t *Tree) reactivateReactions(node int, rng *rand.Rand) {
	idx := 0
	for idx < len(t.nodes[node].StableReactions) {
		r := t.reactions[t.nodes[node].StableReactions[idx].Reaction]
		for _, e := range r.StoiSlice() {
			t.reactivateComponent(e.Species, rng)
		}
		idx++
	}
	idx = 0
	for idx < len(t.nodes[node].UnstableReactions) {
		r := t.reactions[t.nodes[node].UnstableReactions[idx].Reaction]
		idx++
		for _, e := range r.StoiSlice() {
			t.reactivateComponent(e.Species, rng)
		}
	}
}

func (t *Tree) reactivateComponent(comp int, rng *rand.Rand) {
	for {
		entry, ok := t.upperListeners[comp].PopIfSmallerThan(t.state.Get(comp).Upper)
		if !ok {
			break
		}
		ptr := t.stableIndex[entry.ReactionIdx]
		if ptr.Node == noNode {
			continue
		}
		if !t.isValidListener(nodeRef{NodeIdx: entry.NodeIdx, NodeID: NodeID(entry.NodeID)}) {
			continue
		}

		r := t.reactions[entry.ReactionIdx]
		newUpper := t.state.UpperProduct(r)
		rdata := t.nodes[ptr.Node].StableReactions[ptr.Idx]

		if newUpper < rdata.High || newUpper < rdata.SampleHigh(r.Rate, rng) {
			t.upperLastListener[entry.ReactionIdx] = noListener
			t.addPositiveListeners(t.nodes[ptr.Node].StableReactions[ptr.Idx], ptr.Node)
		} else {
			t.upperLastListener[entry.ReactionIdx] = noListener
			t.lowerLastListener[entry.ReactionIdx] = noListener
			t.fullSplit(entry.ReactionIdx, rng)
		}
	}

	for {
		entry, ok := t.lowerListeners[comp].PopIfLargerThan(t.state.Get(comp).Lower)
		if !ok {
			break
		}
		ptr := t.stableIndex[entry.ReactionIdx]
		if ptr.Node == noNode {
			continue
		}
		if !t.isValidListener(nodeRef{NodeIdx: entry.NodeIdx, NodeID: NodeID(entry.NodeID)}) {
			continue
		}

		r := t.reactions[entry.ReactionIdx]
		rdata := t.nodes[ptr.Node].StableReactions[ptr.Idx]
		hasEvents := rdata.HasEvents()
		newLower := t.state.LowerProduct(r, hasEvents)

		if newLower >= rdata.Low || newLower >= rdata.SampleLow(rng) {
			t.lowerLastListener[entry.ReactionIdx] = noListener
			t.addNegativeListeners(t.nodes[ptr.Node].StableReactions[ptr.Idx], ptr.Node)
		} else {
			t.lowerLastListener[entry.ReactionIdx] = noListener
			t.upperLastListener[entry.ReactionIdx] = noListener
			t.fullSplit(entry.ReactionIdx, rng)
		}
	}
}

func (t *Tree) stabilizeReactions(node int) {
	unstable := t.nodes[node].UnstableReactions
	t.nodes[node].UnstableReactions = nil

	kept := unstable[:0]
	for _, rdata := range unstable {
		if t.isStable(rdata) {
			r := t.reactions[rdata.Reaction]
			t.unstableDependents.RemoveUnstable(r)
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
	t.upperLastListener[rdata.Reaction] = noListener
	t.lowerLastListener[rdata.Reaction] = noListener
	t.unstableDependents.AddUnstable(r)
	t.storedStable[rdata.Reaction] = false

	for _, inp := range r.InputSlice() {
		if t.unstableDependents.Count(inp.Species) == 1 {
			queue := t.inactiveByComponent[inp.Species]
			t.inactiveByComponent[inp.Species] = nil
			for _, reactionIdx := range queue {
				t.fullSplit(reactionIdx, rng)
			}
		}
	}
}

func (t *Tree) canDeactivate(rdata *reactiondata.Stable) bool {
	noEvents := rdata.Events == 0
	dependentsAreStable := !t.unstableDependents.HasDependents(t.reactions[rdata.Reaction])
	return noEvents || dependentsAreStable
}

func (t *Tree) addNode(parent int, unstable []*reactiondata.Data, stable []*reactiondata.Stable, isLeft bool) int {
	parentID := t.nodes[parent].ID
	id := parentID * 2
	if !isLeft {
		id++
	}
	t.nodes = append(t.nodes, &treeNode{
		StableReactions:   stable,
		UnstableReactions: unstable,
		IsActive:          false,
		Parent:            parent,
		Left:              noNode,
		Right:             noNode,
		ID:                id,
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

// addStable adds a stable reaction to a node: if the node is active, it
// registers listeners for it and publishes the stable index immediately.
func (t *Tree) addStable(nodeIdx int, rdata *reactiondata.Stable) {
	n := t.nodes[nodeIdx]
	if n.IsActive {
		t.addPositiveListeners(rdata, nodeIdx)
		t.addNegativeListeners(rdata, nodeIdx)
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
// live node, reactivating it as stable or unstable wherever its segment
// has already progressed past the active leaf.
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
			panic("tausplit: left child present without right child")
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
func (t *Tree) stableIsStable(rdata *reactiondata.Stable, r *reaction.FastReaction, rng *rand.Rand) bool {
	lowerProduct := t.state.LowerProduct(r, rdata.HasEvents())
	upperProduct := t.state.UpperProduct(r)

	lowerLegal := rdata.Low <= lowerProduct || rdata.SampleLow(rng) <= lowerProduct
	upperLegal := rdata.High > upperProduct || rdata.SampleHigh(r.Rate, rng) > upperProduct
	return upperLegal && (lowerLegal || t.cornerStable(r, rdata.Events))
}

// cornerStable implements spec.md §4.8's corner-stability allowance: a
// reaction with exactly one event is also stable if every reactant that is
// both an input and part of the stoichiometry has its lower/upper bound
// pinned exactly to the delta that single event would cause, regardless of
// where its propensity bracket itself sits.
func (t *Tree) cornerStable(r *reaction.FastReaction, events uint64) bool {
	if !reactiondata.AllowCornerStability || events != 1 {
		return false
	}
	for _, e := range r.StoiSlice() {
		touchesInput := false
		for _, inp := range r.InputSlice() {
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

func (t *Tree) isValidListener(ref nodeRef) bool {
	return ref.NodeIdx != noNode && ref.NodeIdx < len(t.nodes) && t.nodes[ref.NodeIdx].ID == ref.NodeID
}

// addPositiveListeners registers an upper-bound listener for rdata against
// whichever of its input species can most directly detect that its upper
// product has exceeded rdata's cached high cutoff: a closed-form inverse
// for one or two unary inputs, a shared ratio heuristic for a true binary
// reaction (spec.md §3, grounded on the listener-optimized engine's cutoff
// math).
func (t *Tree) addPositiveListeners(rdata *reactiondata.Stable, nodeIdx int) {
	if t.isValidListener(t.upperLastListener[rdata.Reaction]) {
		return
	}
	nodeID := t.nodes[nodeIdx].ID
	t.upperLastListener[rdata.Reaction] = nodeRef{NodeIdx: nodeIdx, NodeID: nodeID}
	entry := listener.Entry{ReactionIdx: rdata.Reaction, NodeIdx: nodeIdx, NodeID: uint64(nodeID)}

	r := t.reactions[rdata.Reaction]
	inputs := r.InputSlice()
	upperBound := rdata.High
	currProd := t.state.UpperProduct(r)

	switch {
	case len(inputs) == 0:
	case len(inputs) == 1 && inputs[0].Multiplicity == 1:
		comp := inputs[0].Species
		t.upperListeners[comp].Push(int64(math.Floor(upperBound)), entry)
	case len(inputs) == 1 && inputs[0].Multiplicity == 2:
		target := (1 + math.Sqrt(1+upperBound*8)) / 2
		comp := inputs[0].Species
		t.upperListeners[comp].Push(int64(math.Floor(target)), entry)
	case len(inputs) == 2:
		if currProd == 0 {
			for _, inp := range inputs {
				if t.state.Get(inp.Species).Upper == 0 {
					t.upperListeners[inp.Species].Push(0, entry)
					break
				}
			}
		} else {
			ratio := math.Sqrt(upperBound / currProd)
			for _, inp := range inputs {
				t.upperListeners[inp.Species].Push(int64(math.Floor(float64(t.state.Get(inp.Species).Upper)*ratio)), entry)
			}
		}
	default:
		panic("tausplit: reaction exceeds the listener heuristics' supported shapes")
	}
}

// addNegativeListeners is the lower-bound mirror of addPositiveListeners.
func (t *Tree) addNegativeListeners(rdata *reactiondata.Stable, nodeIdx int) {
	if !rdata.HasEvents() {
		return
	}
	if t.isValidListener(t.lowerLastListener[rdata.Reaction]) {
		return
	}

	nodeID := t.nodes[nodeIdx].ID
	t.lowerLastListener[rdata.Reaction] = nodeRef{NodeIdx: nodeIdx, NodeID: nodeID}
	entry := listener.Entry{ReactionIdx: rdata.Reaction, NodeIdx: nodeIdx, NodeID: uint64(nodeID)}

	r := t.reactions[rdata.Reaction]
	inputs := r.InputSlice()
	lowerCutoff := rdata.Low
	currProd := t.state.LowerProduct(r, true)

	switch {
	case len(inputs) == 0:
	case len(inputs) == 1 && inputs[0].Multiplicity == 1:
		comp := inputs[0].Species
		target := int64(math.Ceil(lowerCutoff))
		if target >= 0 {
			t.lowerListeners[comp].Push(target+selfConsumptionMagnitude(inputs[0]), entry)
		}
	case len(inputs) == 1 && inputs[0].Multiplicity == 2:
		comp := inputs[0].Species
		target := int64(math.Ceil((1 + math.Sqrt(1+lowerCutoff*8)) / 2))
		if target >= 0 {
			t.lowerListeners[comp].Push(target+selfConsumptionMagnitude(inputs[0]), entry)
		}
	case len(inputs) == 2:
		if currProd < lowerCutoff {
			inp := inputs[0]
			t.lowerListeners[inp.Species].Push(t.state.Get(inp.Species).Upper+1, entry)
		} else {
			ratio := math.Sqrt(lowerCutoff / currProd)
			for _, inp := range inputs {
				lower := t.state.Get(inp.Species).Lower - selfConsumptionMagnitude(inp)
				cutoff := int64(math.Ceil(float64(lower) * ratio))
				if cutoff > 0 {
					t.lowerListeners[inp.Species].Push(cutoff+selfConsumptionMagnitude(inp), entry)
				}
			}
		}
	default:
		panic("tausplit: reaction exceeds the listener heuristics' supported shapes")
	}
}

// selfConsumptionMagnitude returns the population correction a
// self-consuming input needs at the listener-cutoff's threshold population:
// FastInput.SelfConsumption is the (non-positive) delta the species
// receives from its own reaction, so its magnitude is -delta (0 when the
// species is not self-consumed).
func selfConsumptionMagnitude(inp reaction.FastInput) int64 {
	return -inp.SelfConsumption
}

// clearListeners periodically compacts a component's listener heaps,
// discarding entries left behind by nodes that are no longer on the active
// path, once the heap has grown to twice its size at the last cleaning.
func (t *Tree) clearListeners(node int) {
	for _, rdata := range t.nodes[node].StableReactions {
		for _, inp := range t.reactions[rdata.Reaction].InputSlice() {
			comp := inp.Species
			if t.upperListeners[comp].Len() > 2*t.upperLastClean[comp] {
				t.upperListeners[comp].Retain(func(e listener.Entry) bool {
					return NodeID(e.NodeID) == t.upperLastListener[e.ReactionIdx].NodeID
				})
				t.upperLastClean[comp] = t.upperListeners[comp].Len()
			}
			if t.lowerListeners[comp].Len() > 2*t.lowerLastClean[comp] {
				t.lowerListeners[comp].Retain(func(e listener.Entry) bool {
					return NodeID(e.NodeID) == t.lowerLastListener[e.ReactionIdx].NodeID
				})
				t.lowerLastClean[comp] = t.lowerListeners[comp].Len()
			}
		}
	}
}

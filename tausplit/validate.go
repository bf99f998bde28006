package tausplit

import (
	"tausplit/state"
	"tausplit/unstabledeps"
)

func freshFromValues(values []int64) *state.Data {
	return state.New(values)
}

// validateDependent checks that the unstable-dependents tracker agrees with
// the node's actual unstable reaction list. Only ever called when
// assertions.Enabled is true.
func (t *Tree) validateDependent(node int) {
	dependents := unstabledeps.New(len(t.state.Components))
	for _, rdata := range t.nodes[node].UnstableReactions {
		dependents.AddUnstable(t.reactions[rdata.Reaction])
	}
	for comp := range t.state.Components {
		if dependents.Count(comp) != t.unstableDependents.Count(comp) {
			panic("tausplit: unstable dependent counter diverged from the node's unstable reactions")
		}
	}
}

// validateBounds recomputes the state bounds from scratch by applying every
// active reaction's event count to a copy of the point-estimate state, and
// checks it matches the incrementally maintained bounds.
func (t *Tree) validateBounds(node int) {
	fresh := freshFromValues(t.state.Values())
	for _, n := range t.nodes {
		if !n.IsActive {
			continue
		}
		for _, rdata := range n.UnstableReactions {
			r := t.reactions[rdata.Reaction]
			fresh.ApplyNegative(int64(rdata.Events), r)
			fresh.ApplyPositive(int64(rdata.Events), r)
		}
		for _, rdata := range n.StableReactions {
			r := t.reactions[rdata.Reaction]
			fresh.ApplyNegative(int64(rdata.Events), r)
			fresh.ApplyPositive(int64(rdata.Events), r)
		}
	}
	for i, c := range fresh.Components {
		got := t.state.Components[i]
		if c != got {
			panic("tausplit: incrementally maintained bounds diverged from a from-scratch recomputation")
		}
	}
}

// validateStableIndex checks that every non-nil stableIndex pointer
// actually names the slot holding that reaction's stable record
// (validate_stable_index, tau5/recursion.rs:505-523).
func (t *Tree) validateStableIndex() {
	for reactionIdx, ptr := range t.stableIndex {
		if ptr == noStablePtr {
			continue
		}
		node := t.nodes[ptr.Node]
		if ptr.Idx >= len(node.StableReactions) {
			panic("tausplit: stable index points past the end of its node's stable reactions")
		}
		if node.StableReactions[ptr.Idx].Reaction != reactionIdx {
			panic("tausplit: stable index points at the wrong reaction")
		}
	}
}

// validateAllIndexed checks the converse of validateStableIndex: every
// active node's stable reactions are reachable through stableIndex at their
// actual position (validate_all_indexed, tau5/recursion.rs:525-540).
func (t *Tree) validateAllIndexed() {
	for nodeIdx, node := range t.nodes {
		if !node.IsActive {
			continue
		}
		for idx, rdata := range node.StableReactions {
			ptr := t.stableIndex[rdata.Reaction]
			if ptr.Node != nodeIdx || ptr.Idx != idx {
				panic("tausplit: stable reaction unreachable from stableIndex at its recorded position")
			}
		}
	}
}

// validateListeners checks that every stable reaction with a nonzero upper
// propensity bound has a live positive listener registered at each of its
// input species, i.e. a bound crossing on any input would actually
// reactivate it (validate_listeners, tau5/recursion.rs:676-731).
func (t *Tree) validateListeners() {
	hasListener := make([][]bool, len(t.reactions))
	for i, r := range t.reactions {
		hasListener[i] = make([]bool, r.NumInputs)
	}

	for comp := range t.upperListeners {
		for _, e := range t.upperListeners[comp].Entries() {
			if NodeID(e.NodeID) != t.upperLastListener[e.ReactionIdx].NodeID {
				continue // stale listener from a node that has since been replaced
			}
			for i, inp := range t.reactions[e.ReactionIdx].InputSlice() {
				if inp.Species == comp {
					hasListener[e.ReactionIdx][i] = true
				}
			}
		}
	}

	for reactionIdx, ptr := range t.stableIndex {
		if ptr == noStablePtr {
			continue
		}
		r := t.reactions[reactionIdx]
		if t.state.UpperProduct(r) == 0 {
			continue // a reaction that cannot fire needs no reactivation listener
		}
		for _, ok := range hasListener[reactionIdx] {
			if !ok {
				panic("tausplit: stable reaction has no positive listener on one of its inputs")
			}
		}
	}
}

package generalsplit

import "tausplit/reactiondata"

const noNode = -1

// stablePtr locates a stable reaction's record: node index and its position
// within that node's StableReactions slice.
type stablePtr struct {
	Node int
	Idx  int
}

var noStablePtr = stablePtr{Node: noNode}

// treeNode is one node of the recursion tree: the time segment it spans is
// implicit in its position (left half / right half of its parent), and it
// holds every reaction's data that is active over that segment. Unlike
// tausplit's treeNode, no NodeID is kept: reactivation here is driven
// directly by the dependency graph rather than by listener heaps, so there
// is nothing that needs to detect a stale reference to a removed node.
type treeNode struct {
	StableReactions   []*reactiondata.Stable
	UnstableReactions []*reactiondata.Data
	IsActive          bool
	Parent            int
	Left, Right       int
}

func newRootNode(unstable []*reactiondata.Data, stable []*reactiondata.Stable) *treeNode {
	return &treeNode{
		StableReactions:   stable,
		UnstableReactions: unstable,
		IsActive:          false,
		Parent:            noNode,
		Left:              noNode,
		Right:             noNode,
	}
}

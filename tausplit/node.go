package tausplit

import "tausplit/reactiondata"

// NodeID distinguishes a recursion tree node from any node that may later
// reuse its slot, so a listener registered against a node that has since
// been removed and replaced can be recognized as stale (spec.md §3).
type NodeID uint64

const noNode = -1

// nodeRef names the (node index, node ID) pair a listener was registered
// under. noListener (NodeIdx == noNode) means "no listener registered".
type nodeRef struct {
	NodeIdx int
	NodeID  NodeID
}

var noListener = nodeRef{NodeIdx: noNode}

// stablePtr locates a stable reaction's record: node index and its position
// within that node's StableReactions slice.
type stablePtr struct {
	Node int
	Idx  int
}

var noStablePtr = stablePtr{Node: noNode}

// treeNode is one node of the recursion tree: the time segment it spans is
// implicit in its position (left half / right half of its parent), and it
// holds every reaction's data that is active over that segment.
type treeNode struct {
	StableReactions   []*reactiondata.Stable
	UnstableReactions []*reactiondata.Data
	IsActive          bool
	Parent            int
	Left, Right       int
	ID                NodeID
}

func newRootNode(unstable []*reactiondata.Data, stable []*reactiondata.Stable) *treeNode {
	return &treeNode{
		StableReactions:   stable,
		UnstableReactions: unstable,
		IsActive:          false,
		Parent:            noNode,
		Left:              noNode,
		Right:             noNode,
		ID:                1,
	}
}

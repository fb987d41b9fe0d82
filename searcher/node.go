package searcher

import "sailplan/boat"

// The tree is an arena of nodes. Parent links are indexes into the arena, so
// no node owns another and discarding a tree drops every node at once.
const noParent = int32(-1)

type nodeStatus uint8

const (
	live nodeStatus = iota
	dead // every heading from here is out of envelope, directly or transitively
)

// arm is one heading action at a node. Transitions are stochastic, so an arm
// owns a growable list of outcome children rather than a single child: each
// distinct sampled next state becomes its own node, keyed by state hash.
type arm struct {
	children []int32
	visits   int
	rewards  float64
	dead     bool
}

type node struct {
	state   boat.State
	parent  int32
	fromArm int32 // index of the parent arm this node is an outcome of
	visits  int
	rewards float64
	direct  int // rollouts that terminated at this node itself
	status  nodeStatus
	arms    []arm
	untried []int // arm indexes not yet expanded, ascending
}

func (t *Tree) newNode(state boat.State, parent, fromArm int32) int32 {
	n := node{
		state:   state,
		parent:  parent,
		fromArm: fromArm,
		arms:    make([]arm, len(t.course)),
		untried: make([]int, len(t.course)),
	}
	for i := range n.untried {
		n.untried[i] = i
	}
	t.nodes = append(t.nodes, n)
	return int32(len(t.nodes) - 1)
}

func (t *Tree) addChild(parent int32, armIdx int, state boat.State) int32 {
	child := t.newNode(state, parent, int32(armIdx))
	a := &t.nodes[parent].arms[armIdx]
	a.children = append(a.children, child)
	return child
}

// popUntried removes and returns the lowest-index untried arm.
func (t *Tree) popUntried(idx int32) (int, bool) {
	n := &t.nodes[idx]
	if len(n.untried) == 0 {
		return 0, false
	}
	armIdx := n.untried[0]
	n.untried = n.untried[1:]
	return armIdx, true
}

// markArmDead kills one arm and, if that was the node's last live arm, the
// node itself.
func (t *Tree) markArmDead(idx int32, armIdx int) {
	n := &t.nodes[idx]
	n.arms[armIdx].dead = true
	if len(n.untried) > 0 {
		return
	}
	for i := range n.arms {
		if !n.arms[i].dead {
			return
		}
	}
	t.markNodeDead(idx)
}

// markNodeDead kills a node and cascades upward: once every sampled outcome
// of a parent arm is dead, the arm is treated as dead too. A fresh sample of
// that arm would land next to the dead outcomes, so this is the point where
// selection stops descending into the subtree.
func (t *Tree) markNodeDead(idx int32) {
	n := &t.nodes[idx]
	if n.status == dead {
		return
	}
	n.status = dead

	if n.parent == noParent {
		return
	}
	parentArm := &t.nodes[n.parent].arms[n.fromArm]
	for _, c := range parentArm.children {
		if t.nodes[c].status != dead {
			return
		}
	}
	t.markArmDead(n.parent, int(n.fromArm))
}

package planner

import (
	"sailplan/boat"
	"sailplan/searcher"
)

// RootStrategy decides what happens to the previous step's trees when the
// boat advances: rebuild from scratch or re-root the chosen subtree and keep
// its statistics. Injectable so tests can pin either behavior.
type RootStrategy interface {
	NextTrees(prev []*searcher.Tree, chosen int, next boat.State) []*searcher.Tree
}

// Rebuild discards every tree after each step. Simplest and safest.
type Rebuild struct{}

func (Rebuild) NextTrees([]*searcher.Tree, int, boat.State) []*searcher.Tree {
	return nil
}

// ReuseSubtree re-roots each tree at the chosen heading's outcome matching
// the boat's actual next state. Trees without a matching live outcome are
// rebuilt fresh; retained trees keep their accumulated statistics.
type ReuseSubtree struct{}

func (ReuseSubtree) NextTrees(prev []*searcher.Tree, chosen int, next boat.State) []*searcher.Tree {
	if prev == nil {
		return nil
	}
	h := next.Hash()
	reused := make([]*searcher.Tree, len(prev))
	for i, tree := range prev {
		if tree != nil && tree.Rebase(chosen, h) {
			reused[i] = tree
		}
	}
	return reused
}

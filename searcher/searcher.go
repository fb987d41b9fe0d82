// Package searcher implements the per-scenario Monte-Carlo tree search. One
// Tree is rooted at the current boat state and searched exclusively against a
// single weather scenario's wind field; trees share no mutable state, which is
// what lets the planner run them in parallel without locks.
package searcher

import "time"

// Hyperparameters for MCTS

const CSquared = 2.0 // Exploration constant, squared

// Rollout rewards live in [0, 1]. Reaching the goal scores in the upper band,
// scaled by how fast; running out the horizon scores in the lower band, scaled
// by progress made toward the goal. Keeping rewards non-negative means a
// root arm's accumulated value can only grow with budget.
const (
	goalRewardBase  = 0.5
	progressCeiling = 0.45
	failureReward   = 0.0
)

// Budget is the search stopping policy: a fixed iteration count or a
// wall-clock duration. Exactly one must be positive. A tree always stops at
// an iteration boundary and reports whatever statistics it has accumulated.
type Budget struct {
	Iterations int
	Duration   time.Duration
}

func (b Budget) valid() bool {
	return b.Iterations > 0 || b.Duration > 0
}

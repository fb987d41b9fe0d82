package searcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"sailplan/boat"
	"sailplan/vpp"
	"sailplan/wind"

	"golang.org/x/exp/rand"
)

// Params configures a scenario tree.
type Params struct {
	Field      wind.Field
	Sampler    *vpp.Sampler
	Course     boat.Course
	Goal       boat.Position
	GoalRadius float64 // nautical miles
	Horizon    float64 // maximum simulated hours
	Explore    float64 // squared exploration constant; defaults to CSquared
	Seed       uint64
}

// Tree is a single-scenario MCTS tree. It is single-threaded: one goroutine
// owns a tree for its whole lifetime, and the planner only reads root
// statistics after Search returns.
type Tree struct {
	field      wind.Field
	sampler    *vpp.Sampler
	course     boat.Course
	goal       boat.Position
	goalRadius float64
	horizon    float64
	explore    float64
	rng        *rand.Rand

	nodes      []node
	root       int32
	startDist  float64 // root distance to goal, scales progress rewards
	iterations int
}

// New builds a tree rooted at the given boat state.
func New(p Params, root boat.State) (*Tree, error) {
	if p.Field == nil || p.Sampler == nil {
		return nil, fmt.Errorf("tree needs a wind field and a transition sampler")
	}
	if len(p.Course) == 0 {
		return nil, fmt.Errorf("tree needs at least one course heading")
	}
	if p.Horizon <= 0 {
		return nil, fmt.Errorf("tree horizon must be positive, got %g", p.Horizon)
	}
	if p.GoalRadius <= 0 {
		return nil, fmt.Errorf("tree goal radius must be positive, got %g", p.GoalRadius)
	}
	explore := p.Explore
	if explore <= 0 {
		explore = CSquared
	}

	t := &Tree{
		field:      p.Field,
		sampler:    p.Sampler,
		course:     p.Course,
		goal:       p.Goal,
		goalRadius: p.GoalRadius,
		horizon:    p.Horizon,
		explore:    explore,
		rng:        rand.New(rand.NewSource(p.Seed)),
		startDist:  root.Pos.DistanceTo(p.Goal),
	}
	t.root = t.newNode(root, noParent, noParent)
	return t, nil
}

// Search runs iterations until the budget is exhausted, the context is
// cancelled, or the root goes dead. Context cancellation is not an error:
// the tree stops at the next iteration boundary and keeps its statistics.
// A wind domain error is fatal for this scenario and aborts the search.
func (t *Tree) Search(ctx context.Context, b Budget) error {
	if !b.valid() {
		return fmt.Errorf("budget must specify iterations or duration")
	}

	if b.Iterations > 0 {
		for i := 0; i < b.Iterations; i++ {
			if ctx.Err() != nil || t.RootDead() {
				return nil
			}
			if err := t.iterate(); err != nil {
				return err
			}
		}
		return nil
	}

	deadline := time.Now().Add(b.Duration)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil || t.RootDead() {
			return nil
		}
		if err := t.iterate(); err != nil {
			return err
		}
	}
	return nil
}

// iterate runs one full selection/expansion/rollout/backup pass.
func (t *Tree) iterate() error {
	idx := t.root
	for {
		if t.nodes[idx].status == dead {
			t.backup(idx, failureReward)
			return nil
		}
		if v, terminal := t.terminalValue(t.nodes[idx].state); terminal {
			t.backup(idx, v)
			return nil
		}

		// Expansion: lowest-index untried arm first, so equally-seeded
		// searches expand in the same order.
		if armIdx, ok := t.popUntried(idx); ok {
			_, child, err := t.sampleArm(idx, armIdx)
			if err != nil {
				return err
			}
			if child < 0 { // arm went dead; reconsider this node
				continue
			}
			return t.rolloutAndBackup(child)
		}

		// Selection among tried, live arms.
		armIdx := t.bestArm(idx)
		if armIdx < 0 {
			t.markNodeDead(idx)
			continue
		}
		expanded, child, err := t.sampleArm(idx, armIdx)
		if err != nil {
			return err
		}
		if child < 0 {
			continue
		}
		if expanded { // new stochastic outcome of an already-tried arm
			return t.rolloutAndBackup(child)
		}
		idx = child
	}
}

func (t *Tree) rolloutAndBackup(child int32) error {
	v, err := t.rollout(t.nodes[child].state)
	if err != nil {
		return err
	}
	t.backup(child, v)
	return nil
}

// sampleArm draws one transition for an arm. It returns the outcome child
// index (existing on a state-hash match, freshly expanded otherwise) with
// expanded reporting which, or child -1 if the arm turned out infeasible.
func (t *Tree) sampleArm(idx int32, armIdx int) (expanded bool, child int32, err error) {
	state := t.nodes[idx].state
	w, err := t.field.At(state.Pos, state.Time)
	if err != nil {
		return false, -1, fmt.Errorf("wind at node: %w", err)
	}

	next, _, err := t.sampler.Transition(state, t.course[armIdx], w, t.rng)
	if errors.Is(err, vpp.ErrOutOfEnvelope) {
		t.markArmDead(idx, armIdx)
		return false, -1, nil
	}
	if err != nil {
		return false, -1, err
	}

	h := next.Hash()
	for _, c := range t.nodes[idx].arms[armIdx].children {
		if t.nodes[c].state.Hash() == h {
			return false, c, nil
		}
	}
	return true, t.addChild(idx, armIdx, next), nil
}

// bestArm returns the UCB1-maximizing live arm, or -1 if none are live.
// Ties break toward fewer visits, then the lower heading index.
func (t *Tree) bestArm(idx int32) int {
	n := &t.nodes[idx]
	if n.visits == 0 {
		panic("selection on a node with no visits")
	}
	normalizer := t.explore * math.Log(float64(n.visits))

	best := -1
	bestScore := math.Inf(-1)
	for i := range n.arms {
		a := &n.arms[i]
		if a.dead || a.visits == 0 {
			continue
		}
		score := ucb1(a.rewards, a.visits, normalizer)
		if score > bestScore || (score == bestScore && a.visits < n.arms[best].visits) {
			best = i
			bestScore = score
		}
	}
	return best
}

// ucb1 = q/n + sqrt(c^2*ln(N)/n)
func ucb1(rewards float64, visits int, normalizer float64) float64 {
	if visits == 0 {
		panic("cannot compute UCB1: 0 visits")
	}
	return rewards/float64(visits) + math.Sqrt(normalizer/float64(visits))
}

// backup walks from the node a simulation terminated at up to the root,
// crediting every ancestor and the arm it was reached through.
func (t *Tree) backup(start int32, value float64) {
	t.nodes[start].direct++
	idx := start
	for idx != noParent {
		n := &t.nodes[idx]
		n.visits++
		n.rewards += value
		if n.parent != noParent {
			a := &t.nodes[n.parent].arms[n.fromArm]
			a.visits++
			a.rewards += value
		}
		idx = n.parent
	}
	t.iterations++
}

// terminalValue reports whether a state ends a simulation and with what
// reward.
func (t *Tree) terminalValue(s boat.State) (float64, bool) {
	if s.Pos.DistanceTo(t.goal) <= t.goalRadius {
		return t.goalReward(s.Time), true
	}
	if s.Time >= t.horizon {
		return t.progressReward(s.Pos), true
	}
	return 0, false
}

// goalReward rewards reaching the goal, more for reaching it sooner. Always
// above any non-goal reward.
func (t *Tree) goalReward(elapsed float64) float64 {
	frac := 1 - elapsed/t.horizon
	if frac < 0 {
		frac = 0
	}
	return goalRewardBase + (1-goalRewardBase)*frac
}

// progressReward scores a horizon-limited simulation by the fraction of the
// root-to-goal distance it closed.
func (t *Tree) progressReward(p boat.Position) float64 {
	if t.startDist <= 0 {
		return progressCeiling
	}
	frac := (t.startDist - p.DistanceTo(t.goal)) / t.startDist
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	return progressCeiling * frac
}

// RootDead reports whether every heading at the root is infeasible.
func (t *Tree) RootDead() bool {
	return t.nodes[t.root].status == dead
}

// Iterations returns the number of completed search iterations.
func (t *Tree) Iterations() int {
	return t.iterations
}

// Len returns the number of nodes in the arena (including any abandoned by
// rebasing). Two equally-seeded searches grow identical arenas.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Rebase re-roots the tree at the outcome child of the given root arm whose
// state matches h, retaining its accumulated statistics. It reports whether a
// matching live child was found; if not, the caller should rebuild. Abandoned
// nodes stay in the arena until the tree itself is discarded.
func (t *Tree) Rebase(armIdx int, h boat.StateHash) bool {
	if armIdx < 0 || armIdx >= len(t.nodes[t.root].arms) {
		return false
	}
	for _, c := range t.nodes[t.root].arms[armIdx].children {
		child := &t.nodes[c]
		if child.status == dead || child.state.Hash() != h {
			continue
		}
		child.parent = noParent
		child.fromArm = noParent
		t.root = c
		t.startDist = child.state.Pos.DistanceTo(t.goal)
		return true
	}
	return false
}

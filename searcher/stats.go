package searcher

import "fmt"

// ArmStats is the searched value of one root heading.
type ArmStats struct {
	Heading float64 `json:"heading"`
	Visits  int     `json:"visits"`
	Value   float64 `json:"value"` // accumulated reward
	Mean    float64 `json:"mean"`
	Dead    bool    `json:"dead"`
}

// RootStats is everything the aggregator needs from a finished tree. It is a
// plain value so it can be serialized and later aggregated exactly as if the
// tree were still in memory.
type RootStats struct {
	Scenario int        `json:"scenario"` // index in the ensemble, set by the planner
	Prob     float64    `json:"prob"`
	Visits   int        `json:"visits"`
	Arms     []ArmStats `json:"arms"`
}

// RootStats snapshots the root's per-heading statistics.
func (t *Tree) RootStats() RootStats {
	root := &t.nodes[t.root]
	stats := RootStats{Visits: root.visits, Arms: make([]ArmStats, len(root.arms))}
	for i := range root.arms {
		a := &root.arms[i]
		s := ArmStats{
			Heading: t.course[i],
			Visits:  a.visits,
			Value:   a.rewards,
			Dead:    a.dead,
		}
		if a.visits > 0 {
			s.Mean = a.rewards / float64(a.visits)
		}
		stats.Arms[i] = s
	}
	return stats
}

// CheckInvariants verifies, for every node reachable from the current root,
// that its visit count equals the sum of its children's visit counts plus the
// simulations that terminated at the node itself.
func (t *Tree) CheckInvariants() error {
	stack := []int32{t.root}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[idx]
		childVisits := 0
		for ai := range n.arms {
			armChildVisits := 0
			for _, c := range n.arms[ai].children {
				armChildVisits += t.nodes[c].visits
				stack = append(stack, c)
			}
			if armChildVisits != n.arms[ai].visits {
				return fmt.Errorf("node %d arm %d: visits %d != outcome visits %d",
					idx, ai, n.arms[ai].visits, armChildVisits)
			}
			childVisits += armChildVisits
		}
		if n.visits != childVisits+n.direct {
			return fmt.Errorf("node %d: visits %d != child visits %d + direct %d",
				idx, n.visits, childVisits, n.direct)
		}
	}
	return nil
}

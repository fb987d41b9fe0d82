package searcher

import (
	"errors"
	"fmt"
	"sort"

	"sailplan/boat"
	"sailplan/vpp"
)

// rollout plays the default policy from a state until it terminates: greedy
// toward the goal bearing, falling back to the next-closest feasible heading
// when the preferred one is out of envelope. If every heading is blocked the
// rollout scores as a failure.
func (t *Tree) rollout(state boat.State) (float64, error) {
	s := state
	for {
		if v, terminal := t.terminalValue(s); terminal {
			return v, nil
		}

		w, err := t.field.At(s.Pos, s.Time)
		if err != nil {
			return 0, fmt.Errorf("wind during rollout: %w", err)
		}

		next, ok := boat.State{}, false
		for _, ci := range t.headingsTowards(s.Pos.BearingTo(t.goal)) {
			ns, _, err := t.sampler.Transition(s, t.course[ci], w, t.rng)
			if errors.Is(err, vpp.ErrOutOfEnvelope) {
				continue
			}
			if err != nil {
				return 0, err
			}
			next, ok = ns, true
			break
		}
		if !ok {
			return failureReward, nil
		}
		s = next
	}
}

// headingsTowards orders course indexes by angular distance to a bearing,
// breaking ties toward the lower index.
func (t *Tree) headingsTowards(bearing float64) []int {
	order := make([]int, len(t.course))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		da := boat.AngularDistance(t.course[order[a]], bearing)
		db := boat.AngularDistance(t.course[order[b]], bearing)
		if da != db {
			return da < db
		}
		return order[a] < order[b]
	})
	return order
}

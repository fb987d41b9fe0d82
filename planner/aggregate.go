package planner

import (
	"fmt"

	"sailplan/searcher"

	"github.com/goccy/go-json"
)

// Aggregation selects how per-scenario root statistics combine into one
// heading. WeightedMean averages each heading's per-scenario mean value
// weighted by scenario probability; Vote lets each scenario vote for its own
// best heading with its probability as the vote weight.
type Aggregation int

const (
	WeightedMean Aggregation = iota
	Vote
)

func (a Aggregation) String() string {
	switch a {
	case WeightedMean:
		return "weighted_mean"
	case Vote:
		return "vote"
	default:
		return fmt.Sprintf("aggregation(%d)", int(a))
	}
}

// ParseAggregation maps a config string to a policy.
func ParseAggregation(s string) (Aggregation, error) {
	switch s {
	case "", "weighted_mean":
		return WeightedMean, nil
	case "vote":
		return Vote, nil
	default:
		return 0, fmt.Errorf("unknown aggregation policy %q", s)
	}
}

// Aggregate combines root snapshots into a chosen course index plus the
// per-heading cross-scenario scores. A heading counts only in scenarios where
// it is live and visited; headings with no evidence anywhere are excluded.
// Ties break toward the lower index. Snapshots may come straight from live
// trees or from a serialized round trip; the result is identical.
func Aggregate(snapshots []searcher.RootStats, policy Aggregation) (int, []float64, error) {
	if len(snapshots) == 0 {
		return 0, nil, fmt.Errorf("no scenarios contributed: %w", ErrNoFeasibleHeading)
	}
	headings := len(snapshots[0].Arms)
	for _, snap := range snapshots {
		if len(snap.Arms) != headings {
			return 0, nil, fmt.Errorf("snapshot for scenario %d has %d arms, want %d",
				snap.Scenario, len(snap.Arms), headings)
		}
	}

	var scores []float64
	switch policy {
	case WeightedMean:
		scores = weightedMeanScores(snapshots, headings)
	case Vote:
		scores = voteScores(snapshots, headings)
	default:
		return 0, nil, fmt.Errorf("unknown aggregation policy %v", policy)
	}

	chosen := -1
	bestScore := 0.0
	for i, s := range scores {
		if s < 0 { // no evidence, or dead everywhere
			continue
		}
		if chosen == -1 || s > bestScore {
			chosen = i
			bestScore = s
		}
	}
	if chosen == -1 {
		return 0, nil, ErrNoFeasibleHeading
	}
	return chosen, scores, nil
}

// weightedMeanScores is the probability-weighted average of each heading's
// mean value across the scenarios where the heading has evidence, normalized
// by the participating probability mass. -1 marks headings with no evidence.
func weightedMeanScores(snapshots []searcher.RootStats, headings int) []float64 {
	scores := make([]float64, headings)
	for h := 0; h < headings; h++ {
		weighted := 0.0
		mass := 0.0
		for _, snap := range snapshots {
			a := snap.Arms[h]
			if a.Dead || a.Visits == 0 {
				continue
			}
			weighted += snap.Prob * a.Mean
			mass += snap.Prob
		}
		if mass > 0 {
			scores[h] = weighted / mass
		} else {
			scores[h] = -1
		}
	}
	return scores
}

// voteScores tallies each scenario's probability behind its own best heading.
func voteScores(snapshots []searcher.RootStats, headings int) []float64 {
	scores := make([]float64, headings)
	voted := make([]bool, headings)
	for _, snap := range snapshots {
		best := bestArmIndex(snap)
		if best < 0 {
			continue
		}
		scores[best] += snap.Prob
		voted[best] = true
	}
	for h := range scores {
		if !voted[h] {
			scores[h] = -1
		}
	}
	return scores
}

// EncodeSnapshots serializes root statistics for later aggregation, the
// planner's answer to persisting a finished search without keeping trees in
// memory.
func EncodeSnapshots(snapshots []searcher.RootStats) ([]byte, error) {
	data, err := json.Marshal(snapshots)
	if err != nil {
		return nil, fmt.Errorf("encode snapshots: %w", err)
	}
	return data, nil
}

// DecodeSnapshots is the inverse of EncodeSnapshots.
func DecodeSnapshots(data []byte) ([]searcher.RootStats, error) {
	var snapshots []searcher.RootStats
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	return snapshots, nil
}

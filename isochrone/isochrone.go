// Package isochrone is a frontier-expansion baseline router. It consumes the
// same wind field and transition sampler as the MCTS planner and is used only
// to cross-validate planner output; the planner never calls it.
package isochrone

import (
	"errors"
	"fmt"
	"math"

	"sailplan/boat"
	"sailplan/vpp"
	"sailplan/wind"
)

// ErrUnreachable means the frontier emptied or the iteration limit passed
// without any point entering the goal radius.
var ErrUnreachable = errors.New("isochrone frontier never reached the goal")

// Config for a baseline route computation. Transitions use the sampler's
// noise-free mean, so the baseline is deterministic by construction.
type Config struct {
	Field      wind.Field
	Sampler    *vpp.Sampler
	Course     boat.Course
	Start      boat.State
	Goal       boat.Position
	GoalRadius float64
	Horizon    float64 // hours
	Sectors    int     // bearing sectors kept per frontier layer; 0 = 32
}

// Result is the baseline route.
type Result struct {
	Route    []boat.State
	Headings []float64
	Time     float64 // hours to goal
}

type frontierPoint struct {
	state   boat.State
	parent  int // index into the visited arena, -1 for the start
	heading float64
}

// Route expands time-synchronized frontiers until a point enters the goal
// radius, keeping only the furthest-advanced point per bearing sector from
// the start, then backtracks the route.
func Route(cfg Config) (Result, error) {
	if cfg.Field == nil || cfg.Sampler == nil {
		return Result{}, fmt.Errorf("isochrone needs a wind field and sampler")
	}
	if len(cfg.Course) == 0 {
		return Result{}, fmt.Errorf("isochrone needs at least one course heading")
	}
	sectors := cfg.Sectors
	if sectors <= 0 {
		sectors = 32
	}

	start := cfg.Start
	visited := []frontierPoint{{state: start, parent: -1}}
	frontier := []int{0}

	maxLayers := int(math.Ceil(cfg.Horizon / cfg.Sampler.Step))
	for layer := 0; layer < maxLayers && len(frontier) > 0; layer++ {
		// best candidate per bearing sector from the start
		best := make(map[int]frontierPoint)
		bestDist := make(map[int]float64)
		goalHit := -1

		for _, fi := range frontier {
			from := visited[fi]
			w, err := cfg.Field.At(from.state.Pos, from.state.Time)
			if err != nil {
				if errors.Is(err, wind.ErrDomain) {
					continue // this branch sailed off the forecast
				}
				return Result{}, err
			}
			for _, heading := range cfg.Course {
				next, _, err := cfg.Sampler.Mean(from.state, heading, w)
				if errors.Is(err, vpp.ErrOutOfEnvelope) {
					continue
				}
				if err != nil {
					return Result{}, err
				}
				point := frontierPoint{state: next, parent: fi, heading: heading}

				if next.Pos.DistanceTo(cfg.Goal) <= cfg.GoalRadius {
					visited = append(visited, point)
					goalHit = len(visited) - 1
					break
				}

				sector := bearingSector(start.Pos, next.Pos, sectors)
				dist := start.Pos.DistanceTo(next.Pos)
				if cur, ok := bestDist[sector]; !ok || dist > cur {
					best[sector] = point
					bestDist[sector] = dist
				}
			}
			if goalHit >= 0 {
				break
			}
		}

		if goalHit >= 0 {
			return backtrack(visited, goalHit), nil
		}

		frontier = frontier[:0]
		for sector := 0; sector < sectors; sector++ {
			point, ok := best[sector]
			if !ok {
				continue
			}
			visited = append(visited, point)
			frontier = append(frontier, len(visited)-1)
		}
	}

	return Result{}, ErrUnreachable
}

func bearingSector(from, to boat.Position, sectors int) int {
	sector := int(from.BearingTo(to) / 360 * float64(sectors))
	if sector >= sectors {
		sector = sectors - 1
	}
	return sector
}

func backtrack(visited []frontierPoint, last int) Result {
	var route []boat.State
	var headings []float64
	for i := last; i >= 0; i = visited[i].parent {
		route = append(route, visited[i].state)
		if visited[i].parent >= 0 {
			headings = append(headings, visited[i].heading)
		}
	}
	// reverse into sailing order
	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}
	for i, j := 0, len(headings)-1; i < j; i, j = i+1, j-1 {
		headings[i], headings[j] = headings[j], headings[i]
	}
	return Result{
		Route:    route,
		Headings: headings,
		Time:     route[len(route)-1].Time,
	}
}

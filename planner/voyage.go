package planner

import (
	"context"
	"fmt"
	"time"

	"sailplan/boat"
	"sailplan/experiments/metrics"
	"sailplan/searcher"
	"sailplan/vpp"
	"sailplan/wind"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

type VoyageOption func(v *Voyage)

// Voyage is the receding-horizon loop: plan a heading against the ensemble,
// advance the boat by one sampled transition from the held-out true weather,
// and repeat from the new state until the goal, the horizon, or the step
// limit.
type Voyage struct {
	planner   *Planner
	truth     wind.Field
	sampler   *vpp.Sampler
	strategy  RootStrategy
	collector metrics.Collector
	maxSteps  int
	truthSeed uint64
}

func WithStrategy(s RootStrategy) VoyageOption {
	return func(v *Voyage) {
		if s != nil {
			v.strategy = s
		}
	}
}

func WithMaxSteps(n int) VoyageOption {
	return func(v *Voyage) {
		if n > 0 {
			v.maxSteps = n
		}
	}
}

func WithCollector(c metrics.Collector) VoyageOption {
	return func(v *Voyage) {
		if c != nil {
			v.collector = c
		}
	}
}

func WithTruthSeed(seed uint64) VoyageOption {
	return func(v *Voyage) { v.truthSeed = seed }
}

// NewVoyage pairs a planner with the true environment it is validated
// against. The truth field must not be part of the planning ensemble.
func NewVoyage(p *Planner, truth wind.Field, options ...VoyageOption) (*Voyage, error) {
	if p == nil || truth == nil {
		return nil, fmt.Errorf("voyage needs a planner and a truth field")
	}
	v := &Voyage{
		planner:   p,
		truth:     truth,
		sampler:   p.sampler,
		strategy:  Rebuild{},
		collector: metrics.NewDummyCollector(),
		maxSteps:  500,
		truthSeed: p.seed + 7919, // offset keeps the truth rng stream apart from the trees
	}
	for _, option := range options {
		option(v)
	}
	return v, nil
}

// Result is one completed voyage.
type Result struct {
	Route       []boat.State
	Headings    []float64
	Diags       []Diagnostics
	Records     []metrics.StepMetric
	Steps       int
	ReachedGoal bool
	Final       boat.State
	Voyage      metrics.VoyageMetric
}

// Run executes the loop. Given fixed seeds and ensemble, the heading
// sequence is bit-reproducible.
func (v *Voyage) Run(ctx context.Context, start boat.State) (Result, error) {
	rng := rand.New(rand.NewSource(v.truthSeed))
	startTime := time.Now()

	result := Result{Route: []boat.State{start}}
	state := start
	var trees []*searcher.Tree

	for step := 0; step < v.maxSteps; step++ {
		if state.Pos.DistanceTo(v.planner.goal) <= v.planner.goalRadius {
			result.ReachedGoal = true
			break
		}
		if state.Time >= v.planner.horizon {
			break
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		v.collector.StartStep()
		reused := false
		for _, tree := range trees {
			if tree != nil {
				reused = true
				break
			}
		}
		v.collector.SetTreeReused(reused)

		heading, diag, stepTrees, err := v.planner.planStep(ctx, state, trees)
		if err != nil {
			return result, fmt.Errorf("step %d: %w", step, err)
		}
		for _, tree := range stepTrees {
			if tree != nil {
				v.collector.AddIterations(tree.Iterations())
			}
		}

		next, err := v.advance(state, heading, rng)
		if err != nil {
			return result, fmt.Errorf("step %d: %w", step, err)
		}

		record := v.collector.CompleteStep(step, len(diag.Snapshots), len(diag.Dropped), heading)
		log.Debug().
			Int("step", step).
			Float64("heading", heading).
			Float64("time_h", next.Time).
			Int("dropped", len(diag.Dropped)).
			Msg("voyage step")

		result.Route = append(result.Route, next)
		result.Headings = append(result.Headings, heading)
		result.Diags = append(result.Diags, diag)
		result.Records = append(result.Records, record)
		result.Steps++

		trees = v.strategy.NextTrees(stepTrees, diag.Chosen, next)
		state = next
	}

	if !result.ReachedGoal && state.Pos.DistanceTo(v.planner.goal) <= v.planner.goalRadius {
		result.ReachedGoal = true
	}

	result.Final = state
	endTime := time.Now()
	result.Voyage = metrics.VoyageMetric{
		Session:        v.planner.session.String(),
		StartTime:      startTime,
		EndTime:        endTime,
		Duration:       endTime.Sub(startTime),
		Steps:          result.Steps,
		SimulatedHours: state.Time,
		Distance:       state.Distance,
		ReachedGoal:    result.ReachedGoal,
	}
	return result, nil
}

// advance samples the boat's actual next state from the true environment.
func (v *Voyage) advance(state boat.State, heading float64, rng *rand.Rand) (boat.State, error) {
	w, err := v.truth.At(state.Pos, state.Time)
	if err != nil {
		return boat.State{}, fmt.Errorf("true wind: %w", err)
	}
	next, _, err := v.sampler.Transition(state, heading, w, rng)
	if err != nil {
		return boat.State{}, fmt.Errorf("true transition on heading %.0f: %w", heading, err)
	}
	return next, nil
}

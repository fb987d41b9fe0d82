// Package planner runs one scenario tree per ensemble member in parallel,
// aggregates their root statistics into a single heading, and drives the
// receding-horizon replanning loop as the boat advances.
package planner

import (
	"context"
	"errors"
	"fmt"

	"sailplan/boat"
	"sailplan/searcher"
	"sailplan/vpp"
	"sailplan/wind"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrNoFeasibleHeading means every heading at the root is dead in every
// scenario still contributing to the step, or no scenario contributed at all.
var ErrNoFeasibleHeading = errors.New("no feasible heading at root")

type Option func(p *Planner)

// Planner owns the session-wide immutable inputs: the ensemble, the
// transition sampler, and the search configuration shared by every tree.
type Planner struct {
	ensemble   wind.Ensemble
	sampler    *vpp.Sampler
	course     boat.Course
	goal       boat.Position
	goalRadius float64
	horizon    float64
	budget     searcher.Budget
	agg        Aggregation
	explore    float64
	seed       uint64
	session    uuid.UUID
}

func WithBudget(b searcher.Budget) Option {
	return func(p *Planner) { p.budget = b }
}

func WithAggregation(a Aggregation) Option {
	return func(p *Planner) { p.agg = a }
}

func WithSeed(seed uint64) Option {
	return func(p *Planner) { p.seed = seed }
}

func WithExplore(c2 float64) Option {
	return func(p *Planner) {
		if c2 > 0 {
			p.explore = c2
		}
	}
}

func WithGoalRadius(r float64) Option {
	return func(p *Planner) {
		if r > 0 {
			p.goalRadius = r
		}
	}
}

func WithHorizon(hours float64) Option {
	return func(p *Planner) {
		if hours > 0 {
			p.horizon = hours
		}
	}
}

// New validates the ensemble and builds a planner. Defaults: 1000 iterations
// per tree, weighted-mean aggregation, 5nm goal radius, 72h horizon.
func New(ensemble wind.Ensemble, sampler *vpp.Sampler, course boat.Course, goal boat.Position, options ...Option) (*Planner, error) {
	if _, err := wind.NewEnsemble(ensemble.Scenarios...); err != nil {
		return nil, err
	}
	if sampler == nil {
		return nil, fmt.Errorf("planner needs a transition sampler")
	}
	if len(course) == 0 {
		return nil, fmt.Errorf("planner needs at least one course heading")
	}

	p := &Planner{
		ensemble:   ensemble,
		sampler:    sampler,
		course:     course,
		goal:       goal,
		goalRadius: 5,
		horizon:    72,
		budget:     searcher.Budget{Iterations: 1000},
		agg:        WeightedMean,
		session:    uuid.New(),
	}
	for _, option := range options {
		option(p)
	}
	if !p.budgetValid() {
		return nil, fmt.Errorf("planner budget must specify iterations or duration")
	}
	return p, nil
}

func (p *Planner) budgetValid() bool {
	return p.budget.Iterations > 0 || p.budget.Duration > 0
}

// Session identifies this planner instance in diagnostics and stored records.
func (p *Planner) Session() uuid.UUID {
	return p.session
}

// Diagnostics reports how a step's choice came about, for downstream
// reporting. Snapshots can be serialized and re-aggregated later.
type Diagnostics struct {
	Session      uuid.UUID            `json:"session"`
	Chosen       int                  `json:"chosen"` // course index
	Heading      float64              `json:"heading"`
	Scores       []float64            `json:"scores"`         // per course index; NaN-free, -1 if no evidence
	ScenarioBest []int                `json:"scenario_best"`  // per scenario argmax, -1 if none
	Dropped      []int                `json:"dropped"`        // scenario indexes excluded this step
	Snapshots    []searcher.RootStats `json:"snapshots"`      // contributing scenarios only
}

// PlanStep searches every scenario for the configured budget and aggregates
// the root statistics into one heading. Scenarios whose wind field reports a
// domain error are dropped from aggregation and listed in the diagnostics.
func (p *Planner) PlanStep(ctx context.Context, state boat.State) (float64, Diagnostics, error) {
	heading, diag, _, err := p.planStep(ctx, state, nil)
	return heading, diag, err
}

// planStep optionally reuses per-scenario trees from the previous step. A nil
// entry (or nil slice) means build that scenario's tree fresh.
func (p *Planner) planStep(ctx context.Context, state boat.State, prev []*searcher.Tree) (float64, Diagnostics, []*searcher.Tree, error) {
	n := len(p.ensemble.Scenarios)
	trees := make([]*searcher.Tree, n)
	failures := make([]error, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		scenario := p.ensemble.Scenarios[i]

		tree := (*searcher.Tree)(nil)
		if prev != nil {
			tree = prev[i]
		}
		if tree == nil {
			var err error
			tree, err = searcher.New(searcher.Params{
				Field:      scenario.Field,
				Sampler:    p.sampler,
				Course:     p.course,
				Goal:       p.goal,
				GoalRadius: p.goalRadius,
				Horizon:    p.horizon,
				Explore:    p.explore,
				Seed:       p.seed + uint64(i),
			}, state)
			if err != nil {
				return 0, Diagnostics{}, nil, err
			}
		}

		// Each tree is searched by exactly one goroutine; the only
		// synchronization point is the Wait barrier before aggregation.
		g.Go(func() error {
			if err := tree.Search(ctx, p.budget); err != nil {
				if errors.Is(err, wind.ErrDomain) {
					failures[i] = err
					return nil
				}
				return fmt.Errorf("scenario %d: %w", i, err)
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, Diagnostics{}, nil, err
	}

	var snapshots []searcher.RootStats
	var dropped []int
	for i := 0; i < n; i++ {
		if failures[i] != nil {
			log.Warn().Err(failures[i]).Int("scenario", i).Msg("scenario dropped from aggregation")
			dropped = append(dropped, i)
			continue
		}
		snap := trees[i].RootStats()
		snap.Scenario = i
		snap.Prob = p.ensemble.Scenarios[i].Prob
		snapshots = append(snapshots, snap)
	}

	chosen, scores, err := Aggregate(snapshots, p.agg)
	if err != nil {
		return 0, Diagnostics{Session: p.session, Dropped: dropped}, nil, err
	}

	diag := Diagnostics{
		Session:      p.session,
		Chosen:       chosen,
		Heading:      p.course[chosen],
		Scores:       scores,
		ScenarioBest: scenarioBests(snapshots, n),
		Dropped:      dropped,
		Snapshots:    snapshots,
	}
	return p.course[chosen], diag, trees, nil
}

// scenarioBests returns each scenario's own best heading index, -1 for
// scenarios with no evidence (including dropped ones).
func scenarioBests(snapshots []searcher.RootStats, scenarios int) []int {
	bests := make([]int, scenarios)
	for i := range bests {
		bests[i] = -1
	}
	for _, snap := range snapshots {
		bests[snap.Scenario] = bestArmIndex(snap)
	}
	return bests
}

func bestArmIndex(snap searcher.RootStats) int {
	best := -1
	bestMean := -1.0
	for i, a := range snap.Arms {
		if a.Dead || a.Visits == 0 {
			continue
		}
		if a.Mean > bestMean {
			best = i
			bestMean = a.Mean
		}
	}
	return best
}

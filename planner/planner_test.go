package planner

import (
	"context"
	"testing"

	"sailplan/boat"
	"sailplan/searcher"
	"sailplan/vpp"
	"sailplan/wind"

	"github.com/stretchr/testify/require"
)

func searcherBudget(iterations int) searcher.Budget {
	return searcher.Budget{Iterations: iterations}
}

func testPolar() *vpp.Polar {
	return &vpp.Polar{
		WindSpeeds: []float64{0, 40},
		WindAngles: []float64{0, 90, 180},
		BoatSpeeds: [][]float64{
			{6, 8, 7},
			{6, 8, 7},
		},
	}
}

func testSampler(t *testing.T, noise float64) *vpp.Sampler {
	t.Helper()
	sampler, err := vpp.NewSampler(testPolar(), noise, 1)
	require.NoError(t, err)
	return sampler
}

// northEastEnsemble is two equally likely forecasts, wind from the north and
// wind from the east.
func northEastEnsemble(t *testing.T) wind.Ensemble {
	t.Helper()
	ensemble, err := wind.NewEnsemble(
		wind.Scenario{Field: wind.ConstantField{Wind: wind.Vector{Speed: 10, Direction: 0}}, Prob: 0.5},
		wind.Scenario{Field: wind.ConstantField{Wind: wind.Vector{Speed: 10, Direction: 90}}, Prob: 0.5},
	)
	require.NoError(t, err)
	return ensemble
}

func TestPlanStep(t *testing.T) {
	goal := boat.Position{X: 0, Y: 40}

	t.Run("chooses the direct heading when it is fastest in every scenario", func(t *testing.T) {
		for _, policy := range []Aggregation{WeightedMean, Vote} {
			p, err := New(northEastEnsemble(t), testSampler(t, 0), boat.DefaultCourse(), goal,
				WithBudget(searcherBudget(400)), WithAggregation(policy), WithSeed(11), WithHorizon(10))
			require.NoError(t, err)

			heading, diag, err := p.PlanStep(context.Background(), boat.State{})

			require.NoError(t, err, "policy %v", policy)
			require.Equal(t, 0, diag.Chosen, "Due north dominates in both scenarios under %v", policy)
			require.Equal(t, 0.0, heading)
			require.Len(t, diag.Snapshots, 2)
			require.Empty(t, diag.Dropped)
		}
	})

	t.Run("per-scenario argmax favors the direct heading too", func(t *testing.T) {
		p, err := New(northEastEnsemble(t), testSampler(t, 0), boat.DefaultCourse(), goal,
			WithBudget(searcherBudget(400)), WithSeed(11), WithHorizon(10))
		require.NoError(t, err)

		_, diag, err := p.PlanStep(context.Background(), boat.State{})

		require.NoError(t, err)
		require.Equal(t, []int{0, 0}, diag.ScenarioBest)
	})

	t.Run("identical seeds reproduce the step bit for bit", func(t *testing.T) {
		run := func() Diagnostics {
			p, err := New(northEastEnsemble(t), testSampler(t, 0.3), boat.DefaultCourse(), goal,
				WithBudget(searcherBudget(300)), WithSeed(42), WithHorizon(10))
			require.NoError(t, err)
			_, diag, err := p.PlanStep(context.Background(), boat.State{})
			require.NoError(t, err)
			return diag
		}

		first, second := run(), run()

		require.Equal(t, first.Chosen, second.Chosen)
		require.Equal(t, first.Scores, second.Scores)
		require.Equal(t, first.Snapshots, second.Snapshots,
			"Per-scenario statistics should be identical across runs")
	})

	t.Run("drops a scenario whose forecast runs out and plans on the rest", func(t *testing.T) {
		ensemble, err := wind.NewEnsemble(
			wind.Scenario{Field: wind.ConstantField{Wind: wind.Vector{Speed: 10, Direction: 90}}, Prob: 0.5},
			wind.Scenario{Field: wind.ConstantField{Wind: wind.Vector{Speed: 10, Direction: 90}, Horizon: 0.5}, Prob: 0.5},
		)
		require.NoError(t, err)
		p, err := New(ensemble, testSampler(t, 0), boat.DefaultCourse(), goal,
			WithBudget(searcherBudget(200)), WithSeed(3), WithHorizon(10))
		require.NoError(t, err)

		heading, diag, err := p.PlanStep(context.Background(), boat.State{})

		require.NoError(t, err, "A single dead forecast should not fail the step")
		require.Equal(t, []int{1}, diag.Dropped)
		require.Len(t, diag.Snapshots, 1)
		require.Equal(t, 0.0, heading)
	})

	t.Run("fails when no heading is sailable in any scenario", func(t *testing.T) {
		becalmed, err := wind.NewEnsemble(
			wind.Scenario{Field: wind.ConstantField{Wind: wind.Vector{Speed: 0.2, Direction: 0}}, Prob: 1},
		)
		require.NoError(t, err)
		p, err := New(becalmed, testSampler(t, 0), boat.DefaultCourse(), goal,
			WithBudget(searcherBudget(50)), WithHorizon(10))
		require.NoError(t, err)

		_, _, err = p.PlanStep(context.Background(), boat.State{})

		require.ErrorIs(t, err, ErrNoFeasibleHeading)
	})

	t.Run("cancellation propagates cleanly", func(t *testing.T) {
		p, err := New(northEastEnsemble(t), testSampler(t, 0), boat.DefaultCourse(), goal,
			WithBudget(searcherBudget(100)), WithHorizon(10))
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err = p.PlanStep(ctx, boat.State{})

		require.ErrorIs(t, err, ErrNoFeasibleHeading,
			"Cancelled trees carry no evidence, so aggregation has nothing to choose")
	})
}

func TestNewPlanner(t *testing.T) {
	goal := boat.Position{X: 0, Y: 40}

	t.Run("rejects a missing sampler", func(t *testing.T) {
		_, err := New(northEastEnsemble(t), nil, boat.DefaultCourse(), goal)
		require.Error(t, err)
	})

	t.Run("rejects an empty course", func(t *testing.T) {
		_, err := New(northEastEnsemble(t), testSampler(t, 0), nil, goal)
		require.Error(t, err)
	})

	t.Run("rejects a degenerate ensemble", func(t *testing.T) {
		bad := wind.Ensemble{Scenarios: []wind.Scenario{{Field: nil, Prob: 1}}}
		_, err := New(bad, testSampler(t, 0), boat.DefaultCourse(), goal)
		require.Error(t, err)
	})

	t.Run("rejects an empty budget", func(t *testing.T) {
		_, err := New(northEastEnsemble(t), testSampler(t, 0), boat.DefaultCourse(), goal,
			WithBudget(searcherBudget(0)))
		require.Error(t, err)
	})

	t.Run("assigns each planner its own session", func(t *testing.T) {
		a, err := New(northEastEnsemble(t), testSampler(t, 0), boat.DefaultCourse(), goal)
		require.NoError(t, err)
		b, err := New(northEastEnsemble(t), testSampler(t, 0), boat.DefaultCourse(), goal)
		require.NoError(t, err)
		require.NotEqual(t, a.Session(), b.Session())
	})
}

package planner

import (
	"context"
	"testing"

	"sailplan/boat"
	"sailplan/wind"

	"github.com/stretchr/testify/require"
)

// beamReachPlanner plans toward a goal 15nm due north under a steady easterly,
// a beam reach the whole way.
func beamReachPlanner(t *testing.T, noise float64, seed uint64) (*Planner, wind.Field) {
	t.Helper()
	truth := wind.ConstantField{Wind: wind.Vector{Speed: 12, Direction: 90}}
	ensemble, err := wind.NewEnsemble(
		wind.Scenario{Field: wind.ConstantField{Wind: wind.Vector{Speed: 10, Direction: 90}}, Prob: 0.6},
		wind.Scenario{Field: wind.ConstantField{Wind: wind.Vector{Speed: 14, Direction: 90}}, Prob: 0.4},
	)
	require.NoError(t, err)
	p, err := New(ensemble, testSampler(t, noise), boat.DefaultCourse(), boat.Position{X: 0, Y: 15},
		WithBudget(searcherBudget(200)), WithSeed(seed), WithHorizon(12), WithGoalRadius(5))
	require.NoError(t, err)
	return p, truth
}

func TestVoyageRun(t *testing.T) {
	t.Run("sails to the goal and stops", func(t *testing.T) {
		p, truth := beamReachPlanner(t, 0, 1)
		voyage, err := NewVoyage(p, truth)
		require.NoError(t, err)

		result, err := voyage.Run(context.Background(), boat.State{})

		require.NoError(t, err)
		require.True(t, result.ReachedGoal)
		require.LessOrEqual(t, result.Steps, 4, "8kt on a beam reach covers 10nm in two hours")
		require.Len(t, result.Route, result.Steps+1)
		require.Len(t, result.Headings, result.Steps)
		require.Len(t, result.Diags, result.Steps)
		require.Len(t, result.Records, result.Steps)
		require.LessOrEqual(t, result.Final.Pos.DistanceTo(boat.Position{X: 0, Y: 15}), 5.0)
		for _, h := range result.Headings {
			require.Equal(t, 0.0, h, "Due north is the only sensible heading here")
		}
	})

	t.Run("same seeds replay the same voyage", func(t *testing.T) {
		run := func() Result {
			p, truth := beamReachPlanner(t, 0.3, 42)
			voyage, err := NewVoyage(p, truth, WithTruthSeed(99))
			require.NoError(t, err)
			result, err := voyage.Run(context.Background(), boat.State{})
			require.NoError(t, err)
			return result
		}

		first, second := run(), run()

		require.Equal(t, first.Headings, second.Headings)
		require.Equal(t, first.Route, second.Route)
	})

	t.Run("subtree reuse reaches the goal like rebuilding does", func(t *testing.T) {
		for _, strategy := range []RootStrategy{Rebuild{}, ReuseSubtree{}} {
			p, truth := beamReachPlanner(t, 0.2, 7)
			voyage, err := NewVoyage(p, truth, WithStrategy(strategy))
			require.NoError(t, err)

			result, err := voyage.Run(context.Background(), boat.State{})

			require.NoError(t, err)
			require.True(t, result.ReachedGoal, "strategy %T", strategy)
		}
	})

	t.Run("starting inside the goal circle ends immediately", func(t *testing.T) {
		p, truth := beamReachPlanner(t, 0, 1)
		voyage, err := NewVoyage(p, truth)
		require.NoError(t, err)

		result, err := voyage.Run(context.Background(), boat.State{Pos: boat.Position{X: 0, Y: 13}})

		require.NoError(t, err)
		require.True(t, result.ReachedGoal)
		require.Zero(t, result.Steps)
	})

	t.Run("step limit bounds the voyage", func(t *testing.T) {
		p, truth := beamReachPlanner(t, 0, 1)
		voyage, err := NewVoyage(p, truth, WithMaxSteps(1))
		require.NoError(t, err)

		result, err := voyage.Run(context.Background(), boat.State{})

		require.NoError(t, err)
		require.Equal(t, 1, result.Steps)
		require.False(t, result.ReachedGoal)
	})

	t.Run("summarizes the voyage for persistence", func(t *testing.T) {
		p, truth := beamReachPlanner(t, 0, 1)
		voyage, err := NewVoyage(p, truth)
		require.NoError(t, err)

		result, err := voyage.Run(context.Background(), boat.State{})

		require.NoError(t, err)
		require.Equal(t, p.Session().String(), result.Voyage.Session)
		require.Equal(t, result.Steps, result.Voyage.Steps)
		require.True(t, result.Voyage.ReachedGoal)
		require.InDelta(t, result.Final.Time, result.Voyage.SimulatedHours, 1e-9)
		require.Greater(t, result.Voyage.Distance, 0.0)
	})

	t.Run("requires a planner and a truth field", func(t *testing.T) {
		p, truth := beamReachPlanner(t, 0, 1)

		_, err := NewVoyage(nil, truth)
		require.Error(t, err)
		_, err = NewVoyage(p, nil)
		require.Error(t, err)
	})
}

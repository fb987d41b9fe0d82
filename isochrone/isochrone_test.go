package isochrone

import (
	"testing"

	"sailplan/boat"
	"sailplan/vpp"
	"sailplan/wind"

	"github.com/stretchr/testify/require"
)

func testSampler(t *testing.T) *vpp.Sampler {
	t.Helper()
	polar := &vpp.Polar{
		WindSpeeds: []float64{0, 40},
		WindAngles: []float64{0, 90, 180},
		BoatSpeeds: [][]float64{
			{6, 8, 7},
			{6, 8, 7},
		},
	}
	sampler, err := vpp.NewSampler(polar, 0, 1)
	require.NoError(t, err)
	return sampler
}

func testConfig(t *testing.T) Config {
	return Config{
		Field:      wind.ConstantField{Wind: wind.Vector{Speed: 12, Direction: 90}},
		Sampler:    testSampler(t),
		Course:     boat.DefaultCourse(),
		Goal:       boat.Position{X: 0, Y: 20},
		GoalRadius: 5,
		Horizon:    12,
	}
}

func TestRoute(t *testing.T) {
	t.Run("finds the straight beam reach to a goal due north", func(t *testing.T) {
		result, err := Route(testConfig(t))

		require.NoError(t, err)
		require.NotEmpty(t, result.Headings)
		for _, h := range result.Headings {
			require.Equal(t, 0.0, h, "Every leg should point at the goal")
		}
		// 15nm to the goal circle at 8kt
		require.InDelta(t, 2, result.Time, 1e-9)
		require.LessOrEqual(t,
			result.Route[len(result.Route)-1].Pos.DistanceTo(boat.Position{X: 0, Y: 20}), 5.0)
	})

	t.Run("route starts where the boat starts", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Start = boat.State{Pos: boat.Position{X: 10, Y: 0}}

		result, err := Route(cfg)

		require.NoError(t, err)
		require.Equal(t, cfg.Start, result.Route[0])
	})

	t.Run("elapsed time grows by one step per leg", func(t *testing.T) {
		result, err := Route(testConfig(t))

		require.NoError(t, err)
		for i, state := range result.Route {
			require.InDelta(t, float64(i), state.Time, 1e-9)
		}
		require.Len(t, result.Headings, len(result.Route)-1)
	})

	t.Run("fails when the horizon is too short to arrive", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Horizon = 1

		_, err := Route(cfg)

		require.ErrorIs(t, err, ErrUnreachable)
	})

	t.Run("fails in a flat calm", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Field = wind.ConstantField{Wind: wind.Vector{Speed: 0.2, Direction: 90}}

		_, err := Route(cfg)

		require.ErrorIs(t, err, ErrUnreachable)
	})

	t.Run("fails once the forecast runs out", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Field = wind.ConstantField{Wind: wind.Vector{Speed: 12, Direction: 90}, Horizon: 0.5}

		_, err := Route(cfg)

		require.ErrorIs(t, err, ErrUnreachable)
	})

	t.Run("validates its inputs", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Sampler = nil
		_, err := Route(cfg)
		require.Error(t, err)

		cfg = testConfig(t)
		cfg.Course = nil
		_, err = Route(cfg)
		require.Error(t, err)
	})
}

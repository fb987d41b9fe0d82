package vpp

import (
	"testing"

	"sailplan/boat"
	"sailplan/wind"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func newTestSampler(t *testing.T, noise float64) *Sampler {
	t.Helper()
	s, err := NewSampler(Default(), noise, 1)
	require.NoError(t, err)
	return s
}

func TestPolarSpeed(t *testing.T) {
	polar := Default()

	t.Run("beam reach is the fastest point of sail", func(t *testing.T) {
		beam := polar.Speed(15, 90)

		require.Greater(t, beam, polar.Speed(15, 0), "Beam reach should beat dead upwind")
		require.Greater(t, beam, polar.Speed(15, 180), "Beam reach should beat dead downwind")
	})

	t.Run("interpolates between table points", func(t *testing.T) {
		got := polar.Speed(12.5, 90)

		require.Greater(t, got, polar.Speed(10, 90))
		require.Less(t, got, polar.Speed(15, 90))
	})

	t.Run("clamps beyond table edges", func(t *testing.T) {
		require.Equal(t, polar.Speed(30, 90), polar.Speed(35, 90), "Above-table wind should clamp to the last row")
	})
}

func TestSamplerTransition(t *testing.T) {
	w := wind.Vector{Speed: 12, Direction: 0}

	t.Run("same seed reproduces the same transition", func(t *testing.T) {
		s := newTestSampler(t, 0.2)
		state := boat.State{}

		a, dtA, errA := s.Transition(state, 90, w, rand.New(rand.NewSource(7)))
		b, dtB, errB := s.Transition(state, 90, w, rand.New(rand.NewSource(7)))

		require.NoError(t, errA)
		require.NoError(t, errB)
		require.Equal(t, a, b, "Equal seeds and inputs should reproduce the outcome")
		require.Equal(t, dtA, dtB)
	})

	t.Run("elapsed time strictly increases", func(t *testing.T) {
		s := newTestSampler(t, 0.2)
		state := boat.State{Time: 5}

		next, dt, err := s.Transition(state, 90, w, rand.New(rand.NewSource(1)))

		require.NoError(t, err)
		require.Greater(t, dt, 0.0, "Time delta should be positive")
		require.Greater(t, next.Time, state.Time, "Elapsed time should never regress")
	})

	t.Run("zero noise matches the mean transition", func(t *testing.T) {
		s := newTestSampler(t, 0)
		state := boat.State{}

		sampled, _, err := s.Transition(state, 90, w, rand.New(rand.NewSource(3)))
		require.NoError(t, err)
		mean, _, err := s.Mean(state, 90, w)
		require.NoError(t, err)

		require.Equal(t, mean, sampled, "Zero-noise sampling should equal the nominal transition")
	})

	t.Run("noise stays within the clamp", func(t *testing.T) {
		s := newTestSampler(t, 0.5)
		state := boat.State{}
		nominal, _, err := s.Mean(state, 90, w)
		require.NoError(t, err)

		rng := rand.New(rand.NewSource(11))
		for i := 0; i < 100; i++ {
			next, _, err := s.Transition(state, 90, w, rng)
			require.NoError(t, err)
			require.GreaterOrEqual(t, next.Distance, nominal.Distance*minNoiseFactor)
			require.LessOrEqual(t, next.Distance, nominal.Distance*maxNoiseFactor)
		}
	})

	t.Run("becalmed wind is out of envelope", func(t *testing.T) {
		s := newTestSampler(t, 0.1)

		_, _, err := s.Transition(boat.State{}, 90, wind.Vector{Speed: 0.2}, rand.New(rand.NewSource(1)))

		require.ErrorIs(t, err, ErrOutOfEnvelope)
	})

	t.Run("storm wind is out of envelope", func(t *testing.T) {
		s := newTestSampler(t, 0.1)

		_, _, err := s.Transition(boat.State{}, 90, wind.Vector{Speed: 55}, rand.New(rand.NewSource(1)))

		require.ErrorIs(t, err, ErrOutOfEnvelope)
	})
}

func TestNewSampler(t *testing.T) {
	t.Run("rejects missing polar", func(t *testing.T) {
		_, err := NewSampler(nil, 0.1, 1)

		require.Error(t, err)
	})

	t.Run("rejects non-positive step", func(t *testing.T) {
		_, err := NewSampler(Default(), 0.1, 0)

		require.Error(t, err)
	})

	t.Run("rejects negative noise", func(t *testing.T) {
		_, err := NewSampler(Default(), -0.1, 1)

		require.Error(t, err)
	})
}

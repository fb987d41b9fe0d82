package vpp

import (
	"errors"
	"fmt"

	"sailplan/boat"
	"sailplan/wind"

	"golang.org/x/exp/rand"
)

// ErrOutOfEnvelope marks a heading/wind combination the boat cannot sail:
// wind outside the operating envelope or a polar speed of zero. Callers
// treat the heading as blocked for that state.
var ErrOutOfEnvelope = errors.New("conditions outside sailing envelope")

const (
	// Noise factor clamp keeps sampled speed positive and bounded.
	minNoiseFactor = 0.5
	maxNoiseFactor = 1.5
)

// Sampler draws stochastic boat transitions from the polar. It is a pure
// function of its inputs and the supplied rng: same seed, same inputs, same
// output. Safe for concurrent use as long as each goroutine supplies its own
// rng.
type Sampler struct {
	Polar    *Polar
	NoiseStd float64 // stddev of the multiplicative speed noise; 0 = nominal
	Step     float64 // simulated hours per transition
	MinWind  float64 // knots; below is a becalmed envelope violation
	MaxWind  float64 // knots; above is a structural envelope violation
}

// NewSampler builds a sampler with the given noise level and time step,
// filling in default envelope limits.
func NewSampler(polar *Polar, noiseStd, step float64) (*Sampler, error) {
	if polar == nil {
		return nil, fmt.Errorf("sampler needs a polar table")
	}
	if err := polar.validateTable(); err != nil {
		return nil, err
	}
	if step <= 0 {
		return nil, fmt.Errorf("sampler step must be positive, got %g", step)
	}
	if noiseStd < 0 {
		return nil, fmt.Errorf("sampler noise stddev must be non-negative, got %g", noiseStd)
	}
	return &Sampler{
		Polar:    polar,
		NoiseStd: noiseStd,
		Step:     step,
		MinWind:  1,
		MaxWind:  40,
	}, nil
}

// Transition samples the state after steering heading for one step under the
// given wind. Elapsed time strictly increases on every successful transition.
func (s *Sampler) Transition(state boat.State, heading float64, w wind.Vector, rng *rand.Rand) (boat.State, float64, error) {
	speed, err := s.feasibleSpeed(heading, w)
	if err != nil {
		return boat.State{}, 0, err
	}

	if s.NoiseStd > 0 {
		factor := 1 + s.NoiseStd*rng.NormFloat64()
		if factor < minNoiseFactor {
			factor = minNoiseFactor
		} else if factor > maxNoiseFactor {
			factor = maxNoiseFactor
		}
		speed *= factor
	}

	return state.Advance(heading, speed, s.Step), s.Step, nil
}

// Mean is the noise-free transition: the nominal polar speed with no rng
// draw. Used by the isochrone baseline and by deterministic tests.
func (s *Sampler) Mean(state boat.State, heading float64, w wind.Vector) (boat.State, float64, error) {
	speed, err := s.feasibleSpeed(heading, w)
	if err != nil {
		return boat.State{}, 0, err
	}
	return state.Advance(heading, speed, s.Step), s.Step, nil
}

func (s *Sampler) feasibleSpeed(heading float64, w wind.Vector) (float64, error) {
	if w.Speed < s.MinWind || w.Speed > s.MaxWind {
		return 0, fmt.Errorf("wind %.1fkt outside [%.1f, %.1f]: %w", w.Speed, s.MinWind, s.MaxWind, ErrOutOfEnvelope)
	}
	speed := s.Polar.Speed(w.Speed, TrueWindAngle(heading, w.Direction))
	if speed <= 0 {
		return 0, fmt.Errorf("no way on heading %.0f in %.1fkt wind: %w", heading, w.Speed, ErrOutOfEnvelope)
	}
	return speed, nil
}

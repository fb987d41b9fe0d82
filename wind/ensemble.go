package wind

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// ErrEnsembleInvalid marks an ensemble that cannot start a planning session:
// empty, or scenario probabilities not summing to 1. Fatal at setup, never
// retried.
var ErrEnsembleInvalid = errors.New("invalid scenario ensemble")

const probTolerance = 1e-6

// Scenario pairs one forecast's wind field with its prior probability.
type Scenario struct {
	Field Field   `validate:"required"`
	Prob  float64 `validate:"gte=0,lte=1"`
}

// Ensemble is the ordered list of weather scenarios a session plans against.
// Immutable once built.
type Ensemble struct {
	Scenarios []Scenario `validate:"required,min=1,dive"`
}

var validate = validator.New()

// NewEnsemble validates scenario probabilities and returns the ensemble.
func NewEnsemble(scenarios ...Scenario) (Ensemble, error) {
	e := Ensemble{Scenarios: scenarios}
	if err := validate.Struct(e); err != nil {
		return Ensemble{}, fmt.Errorf("%w: %v", ErrEnsembleInvalid, err)
	}
	sum := 0.0
	for _, s := range e.Scenarios {
		sum += s.Prob
	}
	if math.Abs(sum-1) > probTolerance {
		return Ensemble{}, fmt.Errorf("%w: probabilities sum to %g, want 1", ErrEnsembleInvalid, sum)
	}
	return e, nil
}

// Uniform builds an ensemble with equal probability on every field, the
// default when forecasts carry no prior weighting.
func Uniform(fields ...Field) (Ensemble, error) {
	if len(fields) == 0 {
		return Ensemble{}, fmt.Errorf("%w: no scenarios", ErrEnsembleInvalid)
	}
	scenarios := make([]Scenario, len(fields))
	for i, f := range fields {
		scenarios[i] = Scenario{Field: f, Prob: 1 / float64(len(fields))}
	}
	return NewEnsemble(scenarios...)
}

// Probs returns the scenario probabilities in ensemble order.
func (e Ensemble) Probs() []float64 {
	probs := make([]float64, len(e.Scenarios))
	for i, s := range e.Scenarios {
		probs[i] = s.Prob
	}
	return probs
}

// Package wind provides queryable wind fields, one per weather scenario, and
// the scenario ensemble consumed by the planner.
package wind

import (
	"errors"
	"fmt"
	"math"

	"sailplan/boat"
)

// ErrDomain marks a wind query outside the space/time extent a field is
// defined on. A scenario whose field reports it is excluded from aggregation
// for the current planning step.
var ErrDomain = errors.New("wind query outside field domain")

// Vector is a wind observation: speed in knots and the compass direction the
// wind blows FROM, in degrees.
type Vector struct {
	Speed     float64
	Direction float64
}

// UV returns the eastward and northward components of the wind velocity.
func (v Vector) UV() (u, v2 float64) {
	// Direction is where the wind comes from; velocity points the other way.
	rad := (v.Direction + 180) * math.Pi / 180
	return v.Speed * math.Sin(rad), v.Speed * math.Cos(rad)
}

// FromUV builds a Vector from eastward/northward velocity components.
func FromUV(u, v float64) Vector {
	speed := math.Hypot(u, v)
	dir := math.Atan2(-u, -v) * 180 / math.Pi
	if dir < 0 {
		dir += 360
	}
	return Vector{Speed: speed, Direction: dir}
}

// Field is one weather scenario's wind as a function of position and time.
// Implementations must be immutable for the duration of a planning session:
// trees in different goroutines query the same field concurrently.
type Field interface {
	// At returns the wind at a position (nautical miles) and time (hours).
	// Out-of-range queries return an error wrapping ErrDomain.
	At(p boat.Position, t float64) (Vector, error)
}

// ConstantField is a uniform wind over a bounded time horizon.
type ConstantField struct {
	Wind    Vector
	Horizon float64 // hours the forecast is valid for; 0 means unbounded
}

func (f ConstantField) At(_ boat.Position, t float64) (Vector, error) {
	if t < 0 || (f.Horizon > 0 && t > f.Horizon) {
		return Vector{}, fmt.Errorf("time %.2fh: %w", t, ErrDomain)
	}
	return f.Wind, nil
}

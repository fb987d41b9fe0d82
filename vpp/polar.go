// Package vpp is the velocity prediction program: it maps wind and heading to
// boat speed through a polar table and samples noisy transitions from it.
package vpp

import (
	"fmt"

	"sailplan/boat"
)

// Polar gives nominal boat speed (knots) as a function of true wind speed
// (knots) and true wind angle (degrees off the bow, 0..180). Lookups
// interpolate bilinearly between table points.
type Polar struct {
	WindSpeeds []float64   // ascending, knots
	WindAngles []float64   // ascending, degrees in [0, 180]
	BoatSpeeds [][]float64 // [speed index][angle index], knots
}

// Default returns a generic cruiser polar. Dead upwind keeps a small
// positive speed standing in for motor-sailing the no-go zone, so every
// heading inside the wind envelope remains feasible.
func Default() *Polar {
	return &Polar{
		WindSpeeds: []float64{0, 5, 10, 15, 20, 25, 30},
		WindAngles: []float64{0, 45, 90, 135, 180},
		BoatSpeeds: [][]float64{
			{0, 0, 0, 0, 0},
			{1.2, 3.2, 5.0, 4.5, 3.5},
			{2.5, 6.5, 10.0, 9.0, 7.0},
			{3.0, 7.5, 11.5, 10.8, 8.5},
			{3.2, 7.8, 12.0, 11.5, 9.2},
			{3.2, 7.5, 11.5, 11.0, 9.0},
			{3.0, 7.0, 10.5, 10.0, 8.5},
		},
	}
}

// Speed interpolates the table at the given true wind speed and angle.
// Queries beyond the table edges clamp to the nearest entry.
func (p *Polar) Speed(windSpeed, windAngle float64) float64 {
	si, sf := clampLocate(p.WindSpeeds, windSpeed)
	ai, af := clampLocate(p.WindAngles, windAngle)

	lo := (1-af)*p.BoatSpeeds[si][ai] + af*p.BoatSpeeds[si][ai+1]
	hi := (1-af)*p.BoatSpeeds[si+1][ai] + af*p.BoatSpeeds[si+1][ai+1]
	return (1-sf)*lo + sf*hi
}

func (p *Polar) validateTable() error {
	if len(p.WindSpeeds) < 2 || len(p.WindAngles) < 2 {
		return fmt.Errorf("polar table needs at least 2 wind speeds and angles")
	}
	if len(p.BoatSpeeds) != len(p.WindSpeeds) {
		return fmt.Errorf("polar table has %d speed rows, want %d", len(p.BoatSpeeds), len(p.WindSpeeds))
	}
	for i, row := range p.BoatSpeeds {
		if len(row) != len(p.WindAngles) {
			return fmt.Errorf("polar row %d has %d entries, want %d", i, len(row), len(p.WindAngles))
		}
	}
	return nil
}

func clampLocate(axis []float64, value float64) (int, float64) {
	if value <= axis[0] {
		return 0, 0
	}
	last := len(axis) - 1
	if value >= axis[last] {
		return last - 1, 1
	}
	for i := 1; i <= last; i++ {
		if value <= axis[i] {
			return i - 1, (value - axis[i-1]) / (axis[i] - axis[i-1])
		}
	}
	return last - 1, 1
}

// TrueWindAngle returns the angle between a heading and the wind, in
// [0, 180] degrees off the bow.
func TrueWindAngle(heading, windFrom float64) float64 {
	return boat.AngularDistance(heading, windFrom)
}

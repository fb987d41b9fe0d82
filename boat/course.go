package boat

import "math"

// Course is the ordered set of compass headings the planner may steer.
// Heading identity throughout the planner is the index into this slice, which
// keeps tie-breaking deterministic.
type Course []float64

// DefaultCourse is an 8-point compass rose.
func DefaultCourse() Course {
	return Course{0, 45, 90, 135, 180, 225, 270, 315}
}

// Rose returns a course of n evenly spaced headings starting at north.
func Rose(n int) Course {
	if n <= 0 {
		panic("course must have at least one heading")
	}
	c := make(Course, n)
	for i := range c {
		c[i] = float64(i) * 360 / float64(n)
	}
	return c
}

// AngularDistance returns the smallest angle between two bearings, in
// [0, 180] degrees.
func AngularDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Nearest returns the index of the course heading closest to the given
// bearing, preferring the lower index on ties.
func (c Course) Nearest(bearing float64) int {
	best := 0
	bestDist := AngularDistance(c[0], bearing)
	for i := 1; i < len(c); i++ {
		if d := AngularDistance(c[i], bearing); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

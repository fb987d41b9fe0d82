package boat

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// Position is a point in the planning plane, in nautical miles east (X) and
// north (Y) of an arbitrary origin.
type Position struct {
	X float64
	Y float64
}

func (p Position) DistanceTo(q Position) float64 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	return math.Hypot(dx, dy)
}

// BearingTo returns the compass bearing from p to q in degrees
// (0 = north, 90 = east).
func (p Position) BearingTo(q Position) float64 {
	b := math.Atan2(q.X-p.X, q.Y-p.Y) * 180 / math.Pi
	if b < 0 {
		b += 360
	}
	return b
}

// State is an immutable snapshot of the boat during a simulated passage.
// Transitions produce new values, never mutate in place.
type State struct {
	Pos      Position
	Heading  float64 // last steered compass bearing, degrees
	Time     float64 // elapsed simulated time, hours
	Distance float64 // cumulative distance sailed, nautical miles
}

// Advance returns the state after sailing at speed (knots) on the given
// heading for dt hours.
func (s State) Advance(heading, speed, dt float64) State {
	rad := heading * math.Pi / 180
	d := speed * dt
	return State{
		Pos: Position{
			X: s.Pos.X + d*math.Sin(rad),
			Y: s.Pos.Y + d*math.Cos(rad),
		},
		Heading:  heading,
		Time:     s.Time + dt,
		Distance: s.Distance + d,
	}
}

type StateHash uint64

// Hash identifies a state up to micro-scale quantization of its fields.
// Used to match sampled transition outcomes against existing tree nodes.
func (s State) Hash() StateHash {
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, v := range []float64{s.Pos.X, s.Pos.Y, s.Heading, s.Time, s.Distance} {
		binary.LittleEndian.PutUint64(buf, uint64(int64(math.Round(v*1e6))))
		h.Write(buf)
	}
	return StateHash(h.Sum64())
}

package wind

import (
	"fmt"

	"sailplan/boat"
)

// GridField interpolates a forecast given on a regular space/time grid.
// Values are stored as U/V velocity components so direction interpolates
// without wrap-around artifacts. Axes must be strictly increasing.
//
// U and V are indexed [time][y][x].
type GridField struct {
	Xs []float64
	Ys []float64
	Ts []float64
	U  [][][]float64
	V  [][][]float64
}

// NewGridField validates axis ordering and value dimensions.
func NewGridField(xs, ys, ts []float64, u, v [][][]float64) (*GridField, error) {
	for _, axis := range [][]float64{xs, ys, ts} {
		if len(axis) < 2 {
			return nil, fmt.Errorf("grid axis needs at least 2 points, got %d", len(axis))
		}
		for i := 1; i < len(axis); i++ {
			if axis[i] <= axis[i-1] {
				return nil, fmt.Errorf("grid axis not strictly increasing at index %d", i)
			}
		}
	}
	for _, vals := range [][][][]float64{u, v} {
		if len(vals) != len(ts) {
			return nil, fmt.Errorf("grid values have %d time slices, want %d", len(vals), len(ts))
		}
		for _, slice := range vals {
			if len(slice) != len(ys) {
				return nil, fmt.Errorf("grid slice has %d rows, want %d", len(slice), len(ys))
			}
			for _, row := range slice {
				if len(row) != len(xs) {
					return nil, fmt.Errorf("grid row has %d columns, want %d", len(row), len(xs))
				}
			}
		}
	}
	return &GridField{Xs: xs, Ys: ys, Ts: ts, U: u, V: v}, nil
}

func (f *GridField) At(p boat.Position, t float64) (Vector, error) {
	xi, xf, err := locate(f.Xs, p.X)
	if err != nil {
		return Vector{}, fmt.Errorf("x=%.2f: %w", p.X, err)
	}
	yi, yf, err := locate(f.Ys, p.Y)
	if err != nil {
		return Vector{}, fmt.Errorf("y=%.2f: %w", p.Y, err)
	}
	ti, tf, err := locate(f.Ts, t)
	if err != nil {
		return Vector{}, fmt.Errorf("t=%.2fh: %w", t, err)
	}

	u := f.trilinear(f.U, ti, tf, yi, yf, xi, xf)
	v := f.trilinear(f.V, ti, tf, yi, yf, xi, xf)
	return FromUV(u, v), nil
}

// locate finds the interval containing value and the interpolation fraction
// within it.
func locate(axis []float64, value float64) (int, float64, error) {
	if value < axis[0] || value > axis[len(axis)-1] {
		return 0, 0, ErrDomain
	}
	for i := 1; i < len(axis); i++ {
		if value <= axis[i] {
			return i - 1, (value - axis[i-1]) / (axis[i] - axis[i-1]), nil
		}
	}
	return len(axis) - 2, 1, nil
}

func (f *GridField) trilinear(vals [][][]float64, ti int, tf float64, yi int, yf float64, xi int, xf float64) float64 {
	bilinear := func(slice [][]float64) float64 {
		v00 := slice[yi][xi]
		v01 := slice[yi][xi+1]
		v10 := slice[yi+1][xi]
		v11 := slice[yi+1][xi+1]
		return (1-yf)*((1-xf)*v00+xf*v01) + yf*((1-xf)*v10+xf*v11)
	}
	lo := bilinear(vals[ti])
	hi := bilinear(vals[ti+1])
	return (1-tf)*lo + tf*hi
}

// Package geom holds the pure 2D primitives the canvas engine is built on:
// vectors, rectangles, boxes, affine matrices, segments and polygons.
//
// Every function here is total over finite inputs. Degenerate shapes
// (zero-size rects, coincident points) produce fallback values instead of
// errors. NaN or infinite inputs give undefined results.
package geom

import (
	"fmt"
	"math"
)

// Vector2 is an immutable 2D point, direction or delta.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is shorthand for Vector2{X: x, Y: y}.
func V(x, y float64) Vector2 { return Vector2{X: x, Y: y} }

func (v Vector2) Add(o Vector2) Vector2   { return Vector2{v.X + o.X, v.Y + o.Y} }
func (v Vector2) Sub(o Vector2) Vector2   { return Vector2{v.X - o.X, v.Y - o.Y} }
func (v Vector2) Scale(s float64) Vector2 { return Vector2{v.X * s, v.Y * s} }
func (v Vector2) IsZero() bool            { return v.X == 0 && v.Y == 0 }
func (v Vector2) Get(axis Axis) float64   { return axisValue(axis, v.X, v.Y) }

// Quantize snaps both components to step.
func (v Vector2) Quantize(step float64) Vector2 {
	return Vector2{Quantize(v.X, step), Quantize(v.Y, step)}
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Vector2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Angle returns the direction from origin to point in degrees, normalized
// to [0, 360). Coincident points yield 0.
func Angle(origin, point Vector2) float64 {
	rad := math.Atan2(point.Y-origin.Y, point.X-origin.X)
	deg := math.Mod(rad*180/math.Pi+360, 360)
	if deg == 360 {
		return 0
	}
	return deg
}

// Rotate rotates v counterclockwise about the origin. Callers translate to
// and from the pivot themselves.
func Rotate(v Vector2, degrees float64) Vector2 {
	if degrees == 0 {
		return v
	}
	rad := degrees * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return Vector2{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// Quantize rounds value to the nearest multiple of step. Halves round up.
// A non-positive step leaves the value unchanged.
func Quantize(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	// Scale by the inverse so fractional steps (0.1, 0.01) round on an
	// integer grid.
	factor := 1 / step
	return math.Floor(value*factor+0.5) / factor
}

// Clamp limits value to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	return math.Min(math.Max(value, lo), hi)
}

// Nearest returns the smallest absolute distance from value to any of
// points, or +Inf when points is empty.
func Nearest(value float64, points ...float64) float64 {
	best := math.Inf(1)
	for _, p := range points {
		best = math.Min(best, math.Abs(p-value))
	}
	return best
}

// AddVectors adds two n-dimensional vectors component-wise.
func AddVectors(a, b []float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("vector length mismatch: %d != %d", len(a), len(b))
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out, nil
}

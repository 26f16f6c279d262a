package geom

import (
	"fmt"
	"math"
)

// Axis selects the horizontal or vertical component.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

func (a Axis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Axis) UnmarshalText(b []byte) error {
	switch string(b) {
	case "x":
		*a = AxisX
	case "y":
		*a = AxisY
	default:
		return fmt.Errorf("unknown axis %q", b)
	}
	return nil
}

// Other returns the perpendicular axis.
func (a Axis) Other() Axis {
	if a == AxisY {
		return AxisX
	}
	return AxisY
}

func axisValue(axis Axis, x, y float64) float64 {
	if axis == AxisY {
		return y
	}
	return x
}

// Rect is an origin+size rectangle. Width and Height are never negative;
// a zero-area rect is valid.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Box is the corner form [x1, y1, x2, y2] of a Rect.
type Box [4]float64

// R is shorthand for a Rect literal.
func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, Width: w, Height: h} }

// RectFromPoints returns the smallest rect containing all points.
func RectFromPoints(points ...Vector2) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Box converts r to corner form.
func (r Rect) Box() Box {
	return Box{r.X, r.Y, r.X + r.Width, r.Y + r.Height}
}

// Rect converts b to origin+size form, normalizing swapped corners.
func (b Box) Rect() Rect {
	return RectFromPoints(Vector2{b[0], b[1]}, Vector2{b[2], b[3]})
}

func (b Box) Width() float64  { return b[2] - b[0] }
func (b Box) Height() float64 { return b[3] - b[1] }

// Center returns the midpoint of the box.
func (b Box) Center() Vector2 {
	return Vector2{(b[0] + b[2]) / 2, (b[1] + b[3]) / 2}
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Origin returns the top-left corner.
func (r Rect) Origin() Vector2 { return Vector2{r.X, r.Y} }

// Center returns the center point of the rect.
func (r Rect) Center() Vector2 {
	return Vector2{r.X + r.Width/2, r.Y + r.Height/2}
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Span returns the [min, max] extent of r along axis.
func (r Rect) Span(axis Axis) (float64, float64) {
	if axis == AxisY {
		return r.Y, r.Bottom()
	}
	return r.X, r.Right()
}

// Size returns the dimension of r along axis.
func (r Rect) Size(axis Axis) float64 {
	if axis == AxisY {
		return r.Height
	}
	return r.Width
}

// Translate moves r by t.
func (r Rect) Translate(t Vector2) Rect {
	return Rect{X: r.X + t.X, Y: r.Y + t.Y, Width: r.Width, Height: r.Height}
}

// Quantize snaps every coordinate of r to step.
func (r Rect) Quantize(step float64) Rect {
	return Rect{
		X:      Quantize(r.X, step),
		Y:      Quantize(r.Y, step),
		Width:  Quantize(r.Width, step),
		Height: Quantize(r.Height, step),
	}
}

// ContainsPoint checks if p is inside r, edges included.
func (r Rect) ContainsPoint(p Vector2) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Contains reports whether o lies entirely inside r, edges included.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Intersects reports whether r and o overlap. Touching edges count.
func (r Rect) Intersects(o Rect) bool {
	return !(r.X > o.Right() || r.Y > o.Bottom() || r.Right() < o.X || r.Bottom() < o.Y)
}

// Intersection returns the overlapping area of r and o. The second result
// is false when the overlap has no area.
func (r Rect) Intersection(o Rect) (Rect, bool) {
	x1 := math.Max(r.X, o.X)
	y1 := math.Max(r.Y, o.Y)
	x2 := math.Min(r.Right(), o.Right())
	y2 := math.Min(r.Bottom(), o.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}, false
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, true
}

// Union returns the smallest rect containing all rects. With no rects the
// caller's fallback is returned; the kernel does not decide what the union
// of nothing is.
func Union(fallback Rect, rects ...Rect) Rect {
	if len(rects) == 0 {
		return fallback
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, r := range rects {
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.Right())
		maxY = math.Max(maxY, r.Bottom())
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Corners returns the four corners clockwise from the top-left.
func (r Rect) Corners() [4]Vector2 {
	return [4]Vector2{
		{r.X, r.Y},
		{r.Right(), r.Y},
		{r.Right(), r.Bottom()},
		{r.X, r.Bottom()},
	}
}

// Points9 returns the corners, edge midpoints and center of r, row by row
// from the top-left.
func (r Rect) Points9() [9]Vector2 {
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	return [9]Vector2{
		{r.X, r.Y}, {cx, r.Y}, {r.Right(), r.Y},
		{r.X, cy}, {cx, cy}, {r.Right(), cy},
		{r.X, r.Bottom()}, {cx, r.Bottom()}, {r.Right(), r.Bottom()},
	}
}

// RotatedBounds returns the axis-aligned bounds of r rotated by degrees
// about its top-left corner.
func (r Rect) RotatedBounds(degrees float64) Rect {
	if degrees == 0 {
		return r
	}
	origin := r.Origin()
	corners := r.Corners()
	pts := make([]Vector2, 0, 4)
	for _, c := range corners {
		pts = append(pts, Rotate(c.Sub(origin), degrees).Add(origin))
	}
	return RectFromPoints(pts...)
}

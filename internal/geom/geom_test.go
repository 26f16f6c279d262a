package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func TestAngle(t *testing.T) {
	assert.InDelta(t, 45, Angle(V(0, 0), V(1, 1)), tol)
	assert.InDelta(t, 225, Angle(V(0, 0), V(-1, -1)), tol)
	assert.InDelta(t, 90, Angle(V(0, 0), V(0, 5)), tol)
	assert.InDelta(t, 270, Angle(V(2, 2), V(2, 1)), tol)
	assert.Equal(t, 0.0, Angle(V(3, 4), V(3, 4)))

	for _, p := range []Vector2{V(1, 0), V(-1, 0), V(0, -1), V(-3, 0.0001)} {
		a := Angle(V(0, 0), p)
		assert.GreaterOrEqual(t, a, 0.0)
		assert.Less(t, a, 360.0)
	}
}

func TestRotate(t *testing.T) {
	r := Rotate(V(1, 0), 90)
	assert.InDelta(t, 0, r.X, tol)
	assert.InDelta(t, 1, r.Y, tol)

	r = Rotate(V(1, 1), -45)
	assert.InDelta(t, math.Sqrt2, r.X, tol)
	assert.InDelta(t, 0, r.Y, tol)

	assert.Equal(t, V(2, 3), Rotate(V(2, 3), 0))
}

func TestQuantize(t *testing.T) {
	assert.Equal(t, 20.0, Quantize(15, 10))
	assert.InDelta(t, 0.1, Quantize(0.1123, 0.1), tol)
	assert.InDelta(t, 7.25, Quantize(7.35, 0.25), tol)
	assert.Equal(t, 3.3, Quantize(3.3, 0))
}

func TestRectQuantizeIdempotent(t *testing.T) {
	rects := []Rect{
		R(0.1234, 10.005, 33.3333, 0.0049),
		R(-7.777, 1e3+0.015, 1.5, 2.25),
		R(0, 0, 0, 0),
	}
	for _, step := range []float64{0.01, 0.5, 1, 8} {
		for _, r := range rects {
			once := r.Quantize(step)
			assert.Equal(t, once, once.Quantize(step), "step %v rect %+v", step, r)
		}
	}
}

func TestBoxRectRoundTrip(t *testing.T) {
	r := R(10, 20, 30, 40)
	assert.Equal(t, Box{10, 20, 40, 60}, r.Box())
	assert.Equal(t, r, r.Box().Rect())
	assert.Equal(t, r, Box{40, 60, 10, 20}.Rect())
}

func TestUnion(t *testing.T) {
	fallback := R(1, 2, 3, 4)
	assert.Equal(t, fallback, Union(fallback))

	u := Union(Rect{}, R(10, 10, 30, 40), R(50, 20, 20, 30))
	assert.Equal(t, R(10, 10, 60, 40), u)

	// Degenerate rects still extend the union.
	u = Union(Rect{}, R(0, 0, 0, 0), R(5, 5, 0, 10))
	assert.Equal(t, R(0, 0, 5, 15), u)
}

func TestRectPredicates(t *testing.T) {
	outer := R(10, 10, 100, 100)

	assert.True(t, outer.Contains(R(20, 20, 30, 30)))
	assert.True(t, outer.Contains(outer))
	assert.False(t, outer.Contains(R(0, 20, 30, 30)))

	assert.True(t, outer.ContainsPoint(V(10, 110)))
	assert.False(t, outer.ContainsPoint(V(9.99, 50)))

	assert.True(t, R(50, 50, 30, 30).Intersects(R(60, 60, 40, 40)))
	assert.True(t, R(0, 0, 10, 10).Intersects(R(10, 10, 5, 5)))
	assert.False(t, R(50, 50, 30, 30).Intersects(R(0, 0, 20, 20)))

	in, ok := R(10, 10, 30, 30).Intersection(R(20, 20, 30, 30))
	require.True(t, ok)
	assert.Equal(t, R(20, 20, 20, 20), in)

	_, ok = R(0, 0, 10, 10).Intersection(R(10, 0, 10, 10))
	assert.False(t, ok)

	assert.Equal(t, R(15, 5, 10, 10), R(10, 10, 10, 10).Translate(V(5, -5)))
}

func TestRotatedBounds(t *testing.T) {
	r := R(0, 0, 10, 20)
	b := r.RotatedBounds(90)
	assert.InDelta(t, -20, b.X, tol)
	assert.InDelta(t, 0, b.Y, tol)
	assert.InDelta(t, 20, b.Width, tol)
	assert.InDelta(t, 10, b.Height, tol)

	assert.Equal(t, r, r.RotatedBounds(0))
}

func TestPlacement(t *testing.T) {
	for _, deg := range []float64{0, 30, 90, -135} {
		assert.Equal(t, Translate(15, -4).Multiply(RotateDegrees(deg)), Placement(V(15, -4), deg))
	}

	m := Placement(V(100, 50), 90)
	p := m.Apply(V(10, 0))
	assert.InDelta(t, 100, p.X, tol)
	assert.InDelta(t, 60, p.Y, tol)
	assert.Equal(t, V(100, 50), m.Translation())
	assert.True(t, Placement(V(0, 0), 0).IsIdentity())
}

func TestMatrix(t *testing.T) {
	m := Translate(10, 20).Multiply(Scale(2, 3))
	assert.Equal(t, V(12, 23), m.Apply(V(1, 1)))

	inv, ok := m.Invert()
	require.True(t, ok)
	p := inv.Apply(V(12, 23))
	assert.InDelta(t, 1, p.X, tol)
	assert.InDelta(t, 1, p.Y, tol)
	assert.True(t, m.Multiply(inv).IsIdentity())

	_, ok = Scale(0, 1).Invert()
	assert.False(t, ok)

	s := RotateDegrees(30).Multiply(Scale(4, 4)).ScaleFactors()
	assert.InDelta(t, 4, s.X, tol)
	assert.InDelta(t, 4, s.Y, tol)

	b := RotateDegrees(90).TransformRect(R(0, 0, 10, 20))
	assert.InDelta(t, -20, b.X, tol)
	assert.InDelta(t, 20, b.Width, tol)
	assert.InDelta(t, 10, b.Height, tol)
}

func TestOrientation(t *testing.T) {
	a, b, c := V(0, 0), V(4, 0), V(2, 3)
	assert.Greater(t, Orientation(a, b, c), 0.0)
	assert.Less(t, Orientation(a, c, b), 0.0)
	assert.Equal(t, -Orientation(a, b, c), Orientation(a, c, b))
	assert.Equal(t, 0.0, Orientation(a, b, V(8, 0)))
}

func TestSegmentsIntersect(t *testing.T) {
	tests := []struct {
		name           string
		p1, p2, q1, q2 Vector2
		want           bool
	}{
		{"crossing diagonals", V(0, 0), V(1, 1), V(0, 1), V(1, 0), true},
		{"parallel horizontals", V(0, 0), V(1, 0), V(0, 1), V(1, 1), false},
		{"collinear overlap", V(0, 0), V(2, 0), V(1, 0), V(3, 0), true},
		{"collinear disjoint", V(0, 0), V(1, 0), V(2, 0), V(3, 0), false},
		{"touching endpoint", V(0, 0), V(1, 1), V(1, 1), V(2, 0), true},
		{"t junction", V(0, 0), V(2, 0), V(1, 0), V(1, 5), true},
		{"miss", V(0, 0), V(1, 1), V(3, 0), V(2, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SegmentsIntersect(tt.p1, tt.p2, tt.q1, tt.q2))
		})
	}
}

func TestOnSegment(t *testing.T) {
	assert.True(t, OnSegment(V(0, 0), V(1, 1), V(2, 2)))
	assert.True(t, OnSegment(V(0, 0), V(2, 2), V(2, 2)))
	assert.False(t, OnSegment(V(0, 0), V(3, 3), V(2, 2)))
}

func TestSegmentIntersectsRect(t *testing.T) {
	r := R(10, 10, 10, 10)
	assert.True(t, SegmentIntersectsRect(V(0, 15), V(30, 15), r), "fully crosses")
	assert.True(t, SegmentIntersectsRect(V(12, 12), V(18, 18), r), "entirely inside")
	assert.True(t, SegmentIntersectsRect(V(0, 0), V(15, 15), r), "one endpoint inside")
	assert.False(t, SegmentIntersectsRect(V(0, 0), V(5, 30), r), "entirely outside")
}

func TestPointInPolygon(t *testing.T) {
	square := Polygon{V(0, 0), V(10, 0), V(10, 10), V(0, 10)}
	assert.True(t, PointInPolygon(V(5, 5), square))
	assert.False(t, PointInPolygon(V(15, 5), square))
	assert.False(t, PointInPolygon(V(-1, -1), square))

	concave := Polygon{V(0, 0), V(10, 0), V(10, 10), V(5, 5), V(0, 10)}
	assert.True(t, PointInPolygon(V(2, 5), concave))
	assert.False(t, PointInPolygon(V(5, 8), concave))

	assert.False(t, PointInPolygon(V(0, 0), Polygon{V(0, 0), V(1, 1)}))
}

func TestPolygonArea(t *testing.T) {
	square := Polygon{V(0, 0), V(10, 0), V(10, 10), V(0, 10)}
	assert.InDelta(t, 100, square.Area(), tol)

	tris, err := square.Triangulate()
	require.NoError(t, err)
	assert.Len(t, tris, 2)

	assert.Equal(t, 0.0, Polygon{V(0, 0), V(1, 1)}.Area())
	assert.Equal(t, R(0, 0, 10, 10), square.Bounds())
}

func TestAddVectors(t *testing.T) {
	sum, err := AddVectors([]float64{1, 2, 3}, []float64{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 7, 9}, sum)

	_, err = AddVectors([]float64{1}, []float64{1, 2})
	assert.Error(t, err)
}

func TestNearest(t *testing.T) {
	assert.Equal(t, 3.0, Nearest(10, 3, 7, 15, 20))
	assert.True(t, math.IsInf(Nearest(10), 1))
}

func TestAxisText(t *testing.T) {
	b, err := AxisY.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "y", string(b))

	var a Axis
	require.NoError(t, a.UnmarshalText([]byte("y")))
	assert.Equal(t, AxisY, a)
	assert.Error(t, a.UnmarshalText([]byte("z")))
}

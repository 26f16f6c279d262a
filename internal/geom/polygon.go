package geom

import (
	"fmt"
	"math"

	"github.com/rclancey/earcut"
)

// Polygon is an open vertex list; the first vertex is not repeated.
type Polygon []Vector2

// PointInPolygon reports whether p is inside poly using ray casting.
// Polygons with fewer than three vertices contain nothing.
func PointInPolygon(p Vector2, poly Polygon) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// Bounds returns the axis-aligned bounds of the polygon.
func (poly Polygon) Bounds() Rect {
	return RectFromPoints(poly...)
}

// Triangulate splits the polygon into triangles with the earcut algorithm.
func (poly Polygon) Triangulate() ([][3]Vector2, error) {
	if len(poly) < 3 {
		return nil, nil
	}

	coords := make([]float64, len(poly)*2)
	for i, p := range poly {
		coords[i*2] = p.X
		coords[i*2+1] = p.Y
	}

	indices, err := earcut.Earcut(coords, nil, 2)
	if err != nil {
		return nil, fmt.Errorf("triangulate %d-vertex polygon: %w", len(poly), err)
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("triangulate: %d indices not divisible by 3", len(indices))
	}

	tris := make([][3]Vector2, len(indices)/3)
	for i := range tris {
		tris[i] = [3]Vector2{
			poly[indices[i*3]],
			poly[indices[i*3+1]],
			poly[indices[i*3+2]],
		}
	}
	return tris, nil
}

// Area returns the filled area of the polygon, summed over its
// triangulation. Degenerate or untriangulable polygons have zero area.
func (poly Polygon) Area() float64 {
	tris, err := poly.Triangulate()
	if err != nil {
		return 0
	}
	var area float64
	for _, t := range tris {
		area += math.Abs(Orientation(t[0], t[1], t[2])) / 2
	}
	return area
}

package geom

// Orientation returns the 2D cross product of (b-a) and (c-a). Positive
// means a counterclockwise turn, negative clockwise, zero collinear.
func Orientation(a, b, c Vector2) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// OnSegment reports whether c lies within the bounding box of segment a-b,
// edges included. Callers establish collinearity first.
func OnSegment(a, c, b Vector2) bool {
	return c.X <= max(a.X, b.X) && c.X >= min(a.X, b.X) &&
		c.Y <= max(a.Y, b.Y) && c.Y >= min(a.Y, b.Y)
}

// SegmentsIntersect reports whether segment p1-p2 touches or crosses
// segment q1-q2, including collinear overlap.
func SegmentsIntersect(p1, p2, q1, q2 Vector2) bool {
	o1 := sign(Orientation(p1, p2, q1))
	o2 := sign(Orientation(p1, p2, q2))
	o3 := sign(Orientation(q1, q2, p1))
	o4 := sign(Orientation(q1, q2, p2))

	if o1 != o2 && o3 != o4 {
		return true
	}

	// Collinear endpoints.
	if o1 == 0 && OnSegment(p1, q1, p2) {
		return true
	}
	if o2 == 0 && OnSegment(p1, q2, p2) {
		return true
	}
	if o3 == 0 && OnSegment(q1, p1, q2) {
		return true
	}
	if o4 == 0 && OnSegment(q1, p2, q2) {
		return true
	}
	return false
}

// SegmentIntersectsRect reports whether segment p0-p1 crosses an edge of r
// or has an endpoint inside it.
func SegmentIntersectsRect(p0, p1 Vector2, r Rect) bool {
	if r.ContainsPoint(p0) || r.ContainsPoint(p1) {
		return true
	}
	c := r.Corners()
	for i := range c {
		if SegmentsIntersect(p0, p1, c[i], c[(i+1)%4]) {
			return true
		}
	}
	return false
}

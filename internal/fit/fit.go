// Package fit computes aggregate bounds over (possibly rotated) rectangles
// and the scale/translate needed to show them inside a viewport.
package fit

import (
	"math"

	"github.com/driftboard/canvas/backend-go/internal/geom"
)

// RotatedRect is a rectangle rotated by Rotation degrees about its
// top-left corner.
type RotatedRect struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// Rect returns the unrotated rectangle.
func (r RotatedRect) Rect() geom.Rect {
	return geom.R(r.X, r.Y, r.Width, r.Height)
}

// Bounds returns the axis-aligned bounds of the rotated corners.
func (r RotatedRect) Bounds() geom.Rect {
	return r.Rect().RotatedBounds(r.Rotation)
}

// Focus is the result of CenterOf.
type Focus struct {
	Box       geom.Box     `json:"box"`
	Center    geom.Vector2 `json:"center"`
	Translate geom.Vector2 `json:"translate"`
	Scale     float64      `json:"scale"`
}

// BoundingBoxOf expands a running [x1, y1, x2, y2] over every rect,
// counting each rotated rect by its four rotated corners. With no rects the
// caller's fallback is returned.
func BoundingBoxOf(fallback geom.Box, rects ...RotatedRect) geom.Box {
	if len(rects) == 0 {
		return fallback
	}
	x1, y1 := math.Inf(1), math.Inf(1)
	x2, y2 := math.Inf(-1), math.Inf(-1)
	for _, r := range rects {
		b := r.Bounds()
		x1 = math.Min(x1, b.X)
		y1 = math.Min(y1, b.Y)
		x2 = math.Max(x2, b.Right())
		y2 = math.Max(y2, b.Bottom())
	}
	return geom.Box{x1, y1, x2, y2}
}

// CenterOf returns the scale and translate that fit rects into viewbound
// and center them. Screen coordinates are doc*Scale + Translate.
//
// With no rects nothing is fitted: Box is the viewbound, Scale is 1 and
// Translate is the viewbound center.
func CenterOf(viewbound geom.Box, margin float64, rects ...RotatedRect) Focus {
	vbCenter := viewbound.Center()
	if len(rects) == 0 {
		return Focus{
			Box:       viewbound,
			Center:    geom.Vector2{},
			Translate: vbCenter,
			Scale:     1,
		}
	}

	box := BoundingBoxOf(viewbound, rects...)
	center := box.Center()
	scale := ScaleToFit(&viewbound, &box, margin)

	return Focus{
		Box:       box,
		Center:    center,
		Translate: vbCenter.Sub(center.Scale(scale)),
		Scale:     scale,
	}
}

// ScaleToFit returns the largest uniform scale that fits b into a with
// margin on every side. Missing boxes yield 1.
func ScaleToFit(a, b *geom.Box, margin float64) float64 {
	if a == nil || b == nil {
		return 1
	}
	return math.Min(
		ScaleToFit1D(a.Width(), b.Width(), margin),
		ScaleToFit1D(a.Height(), b.Height(), margin),
	)
}

// ScaleToFit1D returns a / (b + 2*margin). The margin is measured in a's
// units and is not itself scaled, so it looks the same on screen however
// far the content has to shrink or grow. A zero denominator yields 1.
func ScaleToFit1D(a, b, margin float64) float64 {
	d := b + margin*2
	if d == 0 {
		return 1
	}
	return a / d
}

// Margins are per-side insets in viewport units.
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Uniform returns the same margin on every side.
func Uniform(m float64) Margins {
	return Margins{Top: m, Right: m, Bottom: m, Left: m}
}

// TransformToFit returns a uniform-scale transform that fits target into
// viewport minus margins and centers it. When the effective viewport or
// target has no area, the result only translates to the viewport origin.
func TransformToFit(viewport, target geom.Rect, m Margins) geom.Matrix2D {
	vw := viewport.Width - m.Left - m.Right
	vh := viewport.Height - m.Top - m.Bottom
	if vw <= 0 || vh <= 0 || target.Width == 0 || target.Height == 0 {
		return geom.Translate(viewport.X, viewport.Y)
	}

	scale := math.Min(vw/target.Width, vh/target.Height)

	vx := viewport.X + m.Left + vw/2
	vy := viewport.Y + m.Top + vh/2
	tc := target.Center()

	return geom.Matrix2D{scale, 0, 0, scale, vx - tc.X*scale, vy - tc.Y*scale}
}

package snap

import (
	"math"

	"github.com/driftboard/canvas/backend-go/internal/geom"
)

// Guide is an explicit alignment line. A guide on AxisX is a vertical line
// at x = Offset.
type Guide struct {
	Axis   geom.Axis `json:"axis"`
	Offset float64   `json:"offset"`
}

// Anchors are the candidates an agent may align to.
type Anchors struct {
	Objects []geom.Rect
	Guides  []Guide
}

// AxisThreshold holds a per-axis threshold. A nil axis is not snapped,
// which is how drags constrained to one axis are expressed.
type AxisThreshold struct {
	X *float64
	Y *float64
}

// Both snaps both axes with the same threshold.
func Both(t float64) AxisThreshold { return AxisThreshold{X: &t, Y: &t} }

// Only snaps a single axis.
func Only(axis geom.Axis, t float64) AxisThreshold {
	if axis == geom.AxisY {
		return AxisThreshold{Y: &t}
	}
	return AxisThreshold{X: &t}
}

func (a AxisThreshold) get(axis geom.Axis) *float64 {
	if axis == geom.AxisY {
		return a.Y
	}
	return a.X
}

// GuideResult is the outcome of SnapGuideTranslation.
type GuideResult struct {
	Translated float64 `json:"translated"`
	Snapped    bool    `json:"snapped"`
}

// SnapGuideTranslation snaps a single-axis drag, such as moving a guide.
// Every anchor rect contributes its min edge, max edge and midpoint along
// axis. When none is within threshold of agentPosition+movement the raw
// position is returned.
func SnapGuideTranslation(axis geom.Axis, agentPosition float64, anchors []geom.Rect, movement, threshold float64, cfg Config) GuideResult {
	target := agentPosition + movement

	candidates := make([]float64, 0, len(anchors)*3)
	for _, r := range anchors {
		r = r.Quantize(cfg.QuantizeStep)
		lo, hi := r.Span(axis)
		candidates = append(candidates, lo, hi, (lo+hi)/2)
	}

	res := Snap1D([]float64{target}, candidates, threshold, cfg.Tolerance)
	if !res.Hit {
		return GuideResult{Translated: target}
	}
	return GuideResult{Translated: candidates[res.AnchorIndices[0]], Snapped: true}
}

// AxisSnap describes how one axis snapped.
type AxisSnap struct {
	// Distance is the correction added to the raw movement on this axis.
	Distance float64 `json:"distance"`
	// AgentPoints index the 9-point geometry (row-major from top-left) of
	// the selection bounds that aligned.
	AgentPoints []int `json:"agentPoints"`
	// Objects index Anchors.Objects that were hit.
	Objects []int `json:"objects,omitempty"`
	// Guides index Anchors.Guides that were hit.
	Guides []int `json:"guides,omitempty"`
	// Positions are the aligned coordinates on this axis.
	Positions []float64 `json:"positions"`
}

// Line is a snap indicator for the interaction layer. A line on AxisX is
// vertical at x = Offset running from From to To along y.
type Line struct {
	Axis   geom.Axis `json:"axis"`
	Offset float64   `json:"offset"`
	From   float64   `json:"from"`
	To     float64   `json:"to"`
}

// Snapping reports what the selection snapped to.
type Snapping struct {
	X     *AxisSnap    `json:"x,omitempty"`
	Y     *AxisSnap    `json:"y,omitempty"`
	Delta geom.Vector2 `json:"delta"`
	Lines []Line       `json:"lines"`
}

func (s *Snapping) axis(a geom.Axis) *AxisSnap {
	if a == geom.AxisY {
		return s.Y
	}
	return s.X
}

// ObjectsResult is the outcome of SnapObjectsTranslation. Snapping is nil
// when nothing snapped.
type ObjectsResult struct {
	Translated []geom.Rect `json:"translated"`
	Snapping   *Snapping   `json:"snapping,omitempty"`
}

// SnapObjectsTranslation moves agents by movement and then corrects the
// move so the selection aligns with anchors. The selection snaps as a rigid
// body: its union bounds are tested and the corrected origin is broadcast
// back, so agents keep their offsets from one another.
func SnapObjectsTranslation(agents []geom.Rect, anchors Anchors, movement geom.Vector2, threshold AxisThreshold, cfg Config) ObjectsResult {
	if len(agents) == 0 {
		return ObjectsResult{}
	}

	step := cfg.QuantizeStep
	quantized := make([]geom.Rect, len(agents))
	for i, a := range agents {
		quantized[i] = a.Quantize(step)
	}
	objects := make([]geom.Rect, len(anchors.Objects))
	for i, o := range anchors.Objects {
		objects[i] = o.Quantize(step)
	}

	group := geom.Union(quantized[0], quantized...)
	target := group.Translate(movement).Quantize(step)

	snapping := &Snapping{}
	for _, axis := range []geom.Axis{geom.AxisX, geom.AxisY} {
		t := threshold.get(axis)
		if t == nil {
			continue
		}
		s := snapAxis(axis, target, objects, anchors.Guides, *t, cfg.Tolerance)
		if s == nil {
			continue
		}
		if axis == geom.AxisY {
			snapping.Y = s
			snapping.Delta.Y = s.Distance
		} else {
			snapping.X = s
			snapping.Delta.X = s.Distance
		}
	}

	origin := target.Origin().Add(snapping.Delta)
	out := make([]geom.Rect, len(quantized))
	for i, a := range quantized {
		offset := a.Origin().Sub(group.Origin())
		p := origin.Add(offset)
		out[i] = geom.Rect{X: p.X, Y: p.Y, Width: a.Width, Height: a.Height}
	}

	if snapping.X == nil && snapping.Y == nil {
		return ObjectsResult{Translated: out}
	}
	snapping.Lines = indicatorLines(snapping, target.Translate(snapping.Delta), objects)
	return ObjectsResult{Translated: out, Snapping: snapping}
}

// snapAxis runs the object and guide searches for one axis and keeps the
// closer one. Objects win ties.
func snapAxis(axis geom.Axis, target geom.Rect, objects []geom.Rect, guides []Guide, threshold, tolerance float64) *AxisSnap {
	points := target.Points9()
	agentVals := make([]float64, len(points))
	for i, p := range points {
		agentVals[i] = p.Get(axis)
	}

	objectVals := make([]float64, 0, len(objects)*9)
	for _, o := range objects {
		for _, p := range o.Points9() {
			objectVals = append(objectVals, p.Get(axis))
		}
	}

	var guideVals []float64
	var guideIdx []int
	for i, g := range guides {
		if g.Axis == axis {
			guideVals = append(guideVals, g.Offset)
			guideIdx = append(guideIdx, i)
		}
	}

	byObjects := Snap1D(agentVals, objectVals, threshold, tolerance)
	byGuides := Snap1D(agentVals, guideVals, threshold, tolerance)

	switch {
	case byObjects.Hit && (!byGuides.Hit || math.Abs(byObjects.Distance) <= math.Abs(byGuides.Distance)):
		s := &AxisSnap{Distance: byObjects.Distance, AgentPoints: byObjects.AgentIndices}
		seen := make(map[int]bool)
		for _, j := range byObjects.AnchorIndices {
			if obj := j / 9; !seen[obj] {
				seen[obj] = true
				s.Objects = append(s.Objects, obj)
			}
			s.Positions = appendUnique(s.Positions, objectVals[j])
		}
		return s
	case byGuides.Hit:
		s := &AxisSnap{Distance: byGuides.Distance, AgentPoints: byGuides.AgentIndices}
		for _, j := range byGuides.AnchorIndices {
			s.Guides = append(s.Guides, guideIdx[j])
			s.Positions = appendUnique(s.Positions, guideVals[j])
		}
		return s
	}
	return nil
}

func appendUnique(vals []float64, v float64) []float64 {
	for _, x := range vals {
		if x == v {
			return vals
		}
	}
	return append(vals, v)
}

// indicatorLines spans each aligned position across the snapped selection
// and every object it aligned with.
func indicatorLines(s *Snapping, snapped geom.Rect, objects []geom.Rect) []Line {
	var lines []Line
	for _, axis := range []geom.Axis{geom.AxisX, geom.AxisY} {
		as := s.axis(axis)
		if as == nil {
			continue
		}
		across := axis.Other()
		from, to := snapped.Span(across)
		for _, idx := range as.Objects {
			lo, hi := objects[idx].Span(across)
			from = math.Min(from, lo)
			to = math.Max(to, hi)
		}
		for _, pos := range as.Positions {
			lines = append(lines, Line{Axis: axis, Offset: pos, From: from, To: to})
		}
	}
	return lines
}

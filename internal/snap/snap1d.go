// Package snap aligns dragged objects ("agents") to nearby anchors: the
// edges and centers of other objects and explicit guide lines.
package snap

import (
	"math"
	"sort"

	"github.com/driftboard/canvas/backend-go/internal/geom"
)

// Config carries the numeric tunables for a snap call. There is no package
// level default state; callers pass one in every time.
type Config struct {
	// QuantizeStep is the grid every rect is rounded to before comparison.
	QuantizeStep float64
	// ThresholdStep is the unit the screen-space threshold is rounded to.
	ThresholdStep float64
	// Tolerance groups agents whose snap deltas differ by at most this much.
	Tolerance float64
}

// DefaultConfig returns the tunables used by the editor out of the box.
func DefaultConfig() Config {
	return Config{QuantizeStep: 0.01, ThresholdStep: 1, Tolerance: 0.01}
}

// Threshold converts an on-screen pixel factor into document units at the
// given zoom scale. The result is quantized and reduced by half a step so a
// value sitting exactly on the boundary does not flicker. It is never
// negative.
func Threshold(factor, zoom float64, cfg Config) float64 {
	if zoom <= 0 {
		zoom = 1
	}
	step := cfg.ThresholdStep
	t := geom.Quantize(factor/zoom, step) - step/2
	return math.Max(t, 0)
}

// ThresholdFor is Threshold with the zoom read from a view transform.
func ThresholdFor(factor float64, view geom.Matrix2D, cfg Config) float64 {
	return Threshold(factor, view.ScaleFactors().X, cfg)
}

// Snap1DResult describes the best 1D alignment of a set of agents.
type Snap1DResult struct {
	// Distance is added to every agent to align it. Zero when nothing hit.
	Distance float64
	// Hit reports whether any agent came within threshold.
	Hit bool
	// AgentIndices are the agents aligned by Distance (within tolerance).
	AgentIndices []int
	// AnchorIndices are the anchors those agents land on.
	AnchorIndices []int
}

// Snap1D finds the smallest move that puts one of agents onto one of
// anchors, provided that move is within threshold. Every other agent that
// the same move (give or take tolerance) also aligns is reported with it.
func Snap1D(agents, anchors []float64, threshold, tolerance float64) Snap1DResult {
	if len(anchors) == 0 || len(agents) == 0 || threshold < 0 {
		return Snap1DResult{}
	}

	best := math.Inf(1)
	for _, a := range agents {
		d := nearestSigned(a, anchors)
		if math.Abs(d) <= threshold && math.Abs(d) < math.Abs(best) {
			best = d
		}
	}
	if math.IsInf(best, 1) {
		return Snap1DResult{}
	}

	// Float error from a+best must not unmatch the agent that produced best.
	tolerance = math.Max(tolerance, 1e-9)

	res := Snap1DResult{Distance: best, Hit: true}
	hitAnchors := make(map[int]struct{})
	for i, a := range agents {
		moved := a + best
		matched := false
		for j, anchor := range anchors {
			if math.Abs(anchor-moved) <= tolerance {
				hitAnchors[j] = struct{}{}
				matched = true
			}
		}
		if matched {
			res.AgentIndices = append(res.AgentIndices, i)
		}
	}
	for j := range hitAnchors {
		res.AnchorIndices = append(res.AnchorIndices, j)
	}
	sort.Ints(res.AnchorIndices)
	return res
}

// nearestSigned returns anchor-value for the anchor closest to value.
func nearestSigned(value float64, anchors []float64) float64 {
	best := math.Inf(1)
	for _, a := range anchors {
		if d := a - value; math.Abs(d) < math.Abs(best) {
			best = d
		}
	}
	return best
}

// AxisLockedByDominance zeroes the smaller component of a movement, for
// drags constrained to one axis.
func AxisLockedByDominance(m geom.Vector2) geom.Vector2 {
	if math.Abs(m.X) > math.Abs(m.Y) {
		return geom.V(m.X, 0)
	}
	return geom.V(0, m.Y)
}

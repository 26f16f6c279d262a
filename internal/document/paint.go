package document

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/driftboard/canvas/backend-go/internal/geom"
	"github.com/driftboard/canvas/backend-go/internal/typeid"
)

// RGBA is an 8-bit color with a unit alpha.
type RGBA struct {
	R uint8   `json:"r"`
	G uint8   `json:"g"`
	B uint8   `json:"b"`
	A float64 `json:"a"`
}

// ParseColor reads #rgb, #rrggbb or #rrggbbaa.
func ParseColor(s string) (RGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	alpha := 1.0
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
		}
		alpha = float64(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGBA{R: r, G: g, B: b, A: alpha}, nil
}

// Hex formats c as #rrggbb, or #rrggbbaa when it is not opaque.
func (c RGBA) Hex() string {
	hex := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
	if c.A >= 1 {
		return hex
	}
	return fmt.Sprintf("%s%02x", hex, uint8(math.Round(geom.Clamp(c.A, 0, 1)*255)))
}

type PaintType string

const (
	PaintSolid          PaintType = "solid"
	PaintLinearGradient PaintType = "linear_gradient"
	PaintRadialGradient PaintType = "radial_gradient"
	PaintImage          PaintType = "image"
)

type GradientStop struct {
	// Offset is the stop position in [0, 1].
	Offset float64 `json:"offset"`
	Color  RGBA    `json:"color"`
}

// Paint is a fill or stroke layer.
type Paint struct {
	Type      PaintType      `json:"type"`
	ID        string         `json:"id,omitempty"`
	Color     *RGBA          `json:"color,omitempty"`
	Transform *geom.Matrix2D `json:"transform,omitempty"`
	Stops     []GradientStop `json:"stops,omitempty"`
	Src       string         `json:"src,omitempty"`
	Fit       string         `json:"fit,omitempty"`
}

// Solid returns a solid paint from a hex color.
func Solid(hex string) (Paint, error) {
	c, err := ParseColor(hex)
	if err != nil {
		return Paint{}, err
	}
	return Paint{Type: PaintSolid, Color: &c}, nil
}

// LinearGradient returns a gradient paint with an identity transform.
func LinearGradient(stops ...GradientStop) Paint {
	m := geom.Identity()
	return Paint{
		Type:      PaintLinearGradient,
		ID:        typeid.NewPaintID(),
		Transform: &m,
		Stops:     stops,
	}
}

// RadialGradient returns a gradient paint with an identity transform.
func RadialGradient(stops ...GradientStop) Paint {
	p := LinearGradient(stops...)
	p.Type = PaintRadialGradient
	return p
}

// ImagePaint returns a paint that fills with the image at src.
func ImagePaint(src, fit string) Paint {
	return Paint{Type: PaintImage, ID: typeid.NewPaintID(), Src: src, Fit: fit}
}

func (p Paint) Validate() error {
	switch p.Type {
	case PaintSolid:
		if p.Color == nil {
			return fmt.Errorf("%w: solid paint without color", ErrInvalidPaint)
		}
	case PaintLinearGradient, PaintRadialGradient:
		for _, s := range p.Stops {
			if s.Offset < 0 || s.Offset > 1 {
				return fmt.Errorf("%w: gradient stop offset %v outside [0, 1]", ErrInvalidPaint, s.Offset)
			}
		}
	case PaintImage:
		if p.Src == "" {
			return fmt.Errorf("%w: image paint without src", ErrInvalidPaint)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidPaint, p.Type)
	}
	return nil
}

type PaintTarget string

const (
	TargetFill   PaintTarget = "fill"
	TargetStroke PaintTarget = "stroke"
)

func (t PaintTarget) Valid() bool {
	return t == TargetFill || t == TargetStroke
}

// Paints is one paint target of a node seen through both representations:
// the legacy scalar field and the layered list. Layers is nil when the node
// has never had a layered list.
type Paints struct {
	Legacy *Paint
	Layers *[]Paint
}

// AsList returns the layers, falling back to the legacy field as a single
// layer. A present but empty layer list wins over the legacy field.
func (p Paints) AsList() []Paint {
	switch {
	case p.Layers != nil:
		return *p.Layers
	case p.Legacy != nil:
		return []Paint{*p.Legacy}
	}
	return []Paint{}
}

// SyncLegacy makes the list the source of truth and rewrites the legacy
// field to mirror its first layer.
func (p *Paints) SyncLegacy() {
	list := p.AsList()
	p.Layers = &list
	if len(list) == 0 {
		p.Legacy = nil
		return
	}
	first := list[0]
	p.Legacy = &first
}

// Paints returns the fill or stroke paints of n.
func (n *Node) Paints(target PaintTarget) Paints {
	if target == TargetStroke {
		return Paints{Legacy: n.Stroke, Layers: n.StrokePaints}
	}
	return Paints{Legacy: n.Fill, Layers: n.FillPaints}
}

func (n *Node) setPaints(target PaintTarget, p Paints) {
	if target == TargetStroke {
		n.Stroke, n.StrokePaints = p.Legacy, p.Layers
		return
	}
	n.Fill, n.FillPaints = p.Legacy, p.Layers
}

type PaintResolution struct {
	Paints []Paint `json:"paints"`
	// ResolvedIndex is clamped into the list, or 0 when it is empty.
	ResolvedIndex int `json:"resolvedIndex"`
}

func checkPaintArgs(n *Node, target PaintTarget, index int) error {
	if n == nil {
		return ErrNodeNotFound
	}
	if !target.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaintTarget, target)
	}
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePaintIndex, index)
	}
	return nil
}

// ResolvePaints returns the paint list for target and clamps index into it.
func ResolvePaints(n *Node, target PaintTarget, index int) (PaintResolution, error) {
	if err := checkPaintArgs(n, target, index); err != nil {
		return PaintResolution{}, err
	}
	list := n.Paints(target).AsList()
	if len(list) == 0 {
		return PaintResolution{Paints: list}, nil
	}
	return PaintResolution{Paints: list, ResolvedIndex: min(index, len(list)-1)}, nil
}

// GetTargetPaint returns the paint at the resolved index, or nil when the
// target has no paints.
func GetTargetPaint(n *Node, target PaintTarget, index int) (*Paint, error) {
	res, err := ResolvePaints(n, target, index)
	if err != nil || len(res.Paints) == 0 {
		return nil, err
	}
	p := res.Paints[res.ResolvedIndex]
	return &p, nil
}

// UpdateTargetPaint writes paint at the resolved index of n, or appends it
// when the target has no paints yet. The legacy field is rewritten to
// mirror the first layer afterwards. n is modified in place and must not be
// shared with a published document.
func UpdateTargetPaint(n *Node, target PaintTarget, index int, paint Paint) error {
	res, err := ResolvePaints(n, target, index)
	if err != nil {
		return err
	}
	if err := paint.Validate(); err != nil {
		return err
	}

	list := slices.Clone(res.Paints)
	if len(list) == 0 {
		list = append(list, paint)
	} else {
		list[res.ResolvedIndex] = paint
	}

	ps := Paints{Layers: &list}
	ps.SyncLegacy()
	n.setPaints(target, ps)
	return nil
}

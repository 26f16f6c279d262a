package document

import (
	"fmt"

	"github.com/driftboard/canvas/backend-go/internal/geom"
)

type NodeType string

const (
	NodeTypeContainer NodeType = "container"
	NodeTypeGroup     NodeType = "group"
	NodeTypeRectangle NodeType = "rectangle"
	NodeTypeEllipse   NodeType = "ellipse"
	NodeTypeLine      NodeType = "line"
	NodeTypeVector    NodeType = "vector"
	NodeTypeText      NodeType = "text"
	NodeTypeImage     NodeType = "image"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeContainer, NodeTypeGroup, NodeTypeRectangle, NodeTypeEllipse,
		NodeTypeLine, NodeTypeVector, NodeTypeText, NodeTypeImage:
		return true
	}
	return false
}

// IsContainer reports whether nodes of type t may hold children.
func (t NodeType) IsContainer() bool {
	return t == NodeTypeContainer || t == NodeTypeGroup
}

// RequiresGeometry reports whether nodes of type t must carry explicit
// width and height. Groups size to their children and text sizes to its
// content, so both may omit them.
func (t NodeType) RequiresGeometry() bool {
	switch t {
	case NodeTypeContainer, NodeTypeRectangle, NodeTypeEllipse, NodeTypeImage:
		return true
	}
	return false
}

// Node is a scene element. Left and Top are relative to the parent
// container. Geometry fields are optional; a missing field reads as 0.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Name     string   `json:"name,omitempty"`
	Parent   *string  `json:"parent,omitempty"`
	Children []string `json:"children,omitempty"`

	Left     *float64 `json:"left,omitempty"`
	Top      *float64 `json:"top,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Rotation float64  `json:"rotation,omitempty"`

	Fill         *Paint   `json:"fill,omitempty"`
	Stroke       *Paint   `json:"stroke,omitempty"`
	FillPaints   *[]Paint `json:"fill_paints,omitempty"`
	StrokePaints *[]Paint `json:"stroke_paints,omitempty"`
	StrokeWidth  float64  `json:"stroke_width,omitempty"`
	Opacity      *float64 `json:"opacity,omitempty"`

	Visible *bool `json:"active,omitempty"`
	Locked  bool  `json:"locked,omitempty"`

	Text string `json:"text,omitempty"`
	Src  string `json:"src,omitempty"`
}

// Float returns a pointer to v, for optional geometry fields.
func Float(v float64) *float64 { return &v }

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Rect returns the node's local rectangle with missing fields as 0.
func (n *Node) Rect() geom.Rect {
	return geom.R(value(n.Left), value(n.Top), value(n.Width), value(n.Height))
}

// HasGeometry reports whether both width and height are set.
func (n *Node) HasGeometry() bool {
	return n.Width != nil && n.Height != nil
}

// IsContainer reports whether n may hold children.
func (n *Node) IsContainer() bool {
	return n.Type.IsContainer()
}

// IsVisible reports whether n is rendered. Nodes are visible unless
// explicitly deactivated.
func (n *Node) IsVisible() bool {
	return n.Visible == nil || *n.Visible
}

// check enforces the per-node contract every insert goes through.
func (n *Node) check() error {
	if n.ID == "" {
		return ErrEmptyID
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%s: %w: %q", n.ID, ErrUnknownNodeType, n.Type)
	}
	if n.Type.RequiresGeometry() && !n.HasGeometry() {
		return fmt.Errorf("%s (%s): %w", n.ID, n.Type, ErrMissingGeometry)
	}
	if value(n.Width) < 0 || value(n.Height) < 0 {
		return fmt.Errorf("%s: %w", n.ID, ErrInvalidGeometry)
	}
	if len(n.Children) > 0 && !n.IsContainer() {
		return fmt.Errorf("%s (%s): %w", n.ID, n.Type, ErrNotContainer)
	}
	return nil
}

// Guide is a document-level alignment line independent of any node.
type Guide struct {
	ID     string    `json:"id"`
	Axis   geom.Axis `json:"axis"`
	Offset float64   `json:"offset"`
}

type Scene struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ChildrenRefs []string `json:"children_refs"`
	Guides       []Guide  `json:"guides,omitempty"`
	Background   *Paint   `json:"background,omitempty"`
}

// PackedScene is a self-contained subtree snapshot: a flat node map plus
// the ordered top-level references. It is produced for paste, duplicate and
// bounds computations and is not meant to outlive them.
type PackedScene struct {
	Nodes map[string]*Node `json:"nodes"`
	Scene PackedRefs       `json:"scene"`
}

type PackedRefs struct {
	ChildrenRefs []string `json:"children_refs"`
}

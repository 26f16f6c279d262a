package engine

import (
	"math"

	"github.com/driftboard/canvas/backend-go/internal/document"
	"github.com/driftboard/canvas/backend-go/internal/fit"
	"github.com/driftboard/canvas/backend-go/internal/geom"
)

// SceneIndex is the evaluated geometry of one document snapshot.
// It is rebuilt whenever the session's document changes and is never
// patched in place.
type SceneIndex struct {
	nodes map[string]*SceneNode
	// back to front
	order []string
}

// SceneNode is a node resolved into canvas space.
type SceneNode struct {
	ID     string
	Type   document.NodeType
	Parent string
	Depth  int

	// WorldTransform maps the node's local space, whose origin is its
	// top-left corner, into canvas space (parent * translate * rotate).
	WorldTransform geom.Matrix2D
	Size           geom.Vector2

	// Inherited state
	Opacity float64
	Visible bool
	Locked  bool

	// Bounds is the axis-aligned canvas-space box. Groups take the union of
	// their visible children.
	Bounds geom.Rect
}

// BuildSceneIndex evaluates every node reachable from the scene.
func BuildSceneIndex(doc *document.Document) *SceneIndex {
	if doc == nil {
		return &SceneIndex{nodes: map[string]*SceneNode{}}
	}
	idx := &SceneIndex{nodes: make(map[string]*SceneNode, doc.Len())}
	for _, id := range doc.Scene.ChildrenRefs {
		idx.build(doc, id, nil, 0)
	}
	return idx
}

func (idx *SceneIndex) build(doc *document.Document, id string, parent *SceneNode, depth int) *SceneNode {
	obj, ok := doc.Nodes[id]
	if !ok {
		return nil
	}

	parentWorld := geom.Identity()
	opacity, visible, locked := 1.0, true, false
	parentID := ""
	if parent != nil {
		parentWorld = parent.WorldTransform
		opacity, visible, locked = parent.Opacity, parent.Visible, parent.Locked
		parentID = parent.ID
	}
	if obj.Opacity != nil {
		opacity *= *obj.Opacity
	}

	local := obj.Rect()
	node := &SceneNode{
		ID:     id,
		Type:   obj.Type,
		Parent: parentID,
		Depth:  depth,
		WorldTransform: parentWorld.Multiply(geom.Placement(local.Origin(), obj.Rotation)),
		Size:    geom.V(local.Width, local.Height),
		Opacity: opacity,
		Visible: visible && obj.IsVisible(),
		Locked:  locked || obj.Locked,
	}
	idx.nodes[id] = node
	idx.order = append(idx.order, id)

	own := node.WorldTransform.TransformRect(geom.R(0, 0, local.Width, local.Height))
	var childBounds []geom.Rect
	for _, c := range obj.Children {
		child := idx.build(doc, c, node, depth+1)
		if child != nil && child.Visible {
			childBounds = append(childBounds, child.Bounds)
		}
	}

	node.Bounds = own
	if obj.Type == document.NodeTypeGroup && len(childBounds) > 0 {
		node.Bounds = geom.Union(own, childBounds...)
	}
	return node
}

// Node returns the evaluated node for id.
func (idx *SceneIndex) Node(id string) (*SceneNode, bool) {
	n, ok := idx.nodes[id]
	return n, ok
}

func (idx *SceneIndex) Len() int { return len(idx.nodes) }

// PaintOrder returns every indexed id back to front.
func (idx *SceneIndex) PaintOrder() []string {
	out := make([]string, len(idx.order))
	copy(out, idx.order)
	return out
}

// NodeIDsFromPoint returns the visible nodes under p, front to back.
// Rotated nodes are tested against their own outline, not their bounds.
func (idx *SceneIndex) NodeIDsFromPoint(p geom.Vector2) []string {
	var out []string
	for i := len(idx.order) - 1; i >= 0; i-- {
		n := idx.nodes[idx.order[i]]
		if n.Visible && n.ContainsPoint(p) {
			out = append(out, n.ID)
		}
	}
	return out
}

func (idx *SceneIndex) NodeAbsoluteBoundingRect(id string) (geom.Rect, bool) {
	n, ok := idx.nodes[id]
	if !ok {
		return geom.Rect{}, false
	}
	return n.Bounds, true
}

// IsContainer reports whether id may hold children.
func (idx *SceneIndex) IsContainer(id string) bool {
	n, ok := idx.nodes[id]
	return ok && n.Type.IsContainer()
}

// HitTest returns the front-most visible node under p.
func (idx *SceneIndex) HitTest(p geom.Vector2) (string, bool) {
	ids := idx.NodeIDsFromPoint(p)
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

// SelectionBounds unions the bounds of ids that are indexed.
func (idx *SceneIndex) SelectionBounds(ids []string) (geom.Rect, bool) {
	var rects []geom.Rect
	for _, id := range ids {
		if n, ok := idx.nodes[id]; ok {
			rects = append(rects, n.Bounds)
		}
	}
	if len(rects) == 0 {
		return geom.Rect{}, false
	}
	return geom.Union(geom.Rect{}, rects...), true
}

// ContainsPoint reports whether p lies inside the node's outline.
func (n *SceneNode) ContainsPoint(p geom.Vector2) bool {
	if n.Type == document.NodeTypeGroup {
		return n.Bounds.ContainsPoint(p)
	}
	inv, ok := n.WorldTransform.Invert()
	if !ok {
		return false
	}
	return geom.R(0, 0, n.Size.X, n.Size.Y).ContainsPoint(inv.Apply(p))
}

// Corners returns the node's outline corners in canvas space.
func (n *SceneNode) Corners() [4]geom.Vector2 {
	if n.Type == document.NodeTypeGroup {
		return n.Bounds.Corners()
	}
	c := geom.R(0, 0, n.Size.X, n.Size.Y).Corners()
	for i := range c {
		c[i] = n.WorldTransform.Apply(c[i])
	}
	return c
}

// Rotation returns the accumulated rotation in degrees.
func (n *SceneNode) Rotation() float64 {
	m := n.WorldTransform
	return math.Atan2(m[1], m[0]) * 180 / math.Pi
}

// RotatedRect describes the node for the fit module.
func (n *SceneNode) RotatedRect() fit.RotatedRect {
	if n.Type == document.NodeTypeGroup {
		b := n.Bounds
		return fit.RotatedRect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
	}
	o := n.WorldTransform.Translation()
	return fit.RotatedRect{X: o.X, Y: o.Y, Width: n.Size.X, Height: n.Size.Y, Rotation: n.Rotation()}
}

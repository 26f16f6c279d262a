// Package hittest resolves where inserted or dropped content should nest
// and how far the viewport must move to show it.
package hittest

import (
	"github.com/driftboard/canvas/backend-go/internal/document"
	"github.com/driftboard/canvas/backend-go/internal/geom"
)

// GeometryQuery is the scene index the resolver reads from.
type GeometryQuery interface {
	// NodeIDsFromPoint returns the nodes under p, front to back.
	NodeIDsFromPoint(p geom.Vector2) []string
	// NodeAbsoluteBoundingRect returns the canvas-space bounds of id.
	NodeAbsoluteBoundingRect(id string) (geom.Rect, bool)
}

// ContainerPredicate reports whether id may hold children.
type ContainerPredicate func(id string) bool

// NestedInsertionTarget returns the front-most container under the center
// of rect whose bounds fully contain rect. Only the first maxDepth entries
// of the hit-test stack are considered; maxDepth <= 0 means all of them.
// It returns false when no container qualifies, in which case the caller
// inserts at the scene root.
func NestedInsertionTarget(rect geom.Rect, q GeometryQuery, isContainer ContainerPredicate, maxDepth int) (string, bool) {
	stack := q.NodeIDsFromPoint(rect.Center())
	if maxDepth > 0 && len(stack) > maxDepth {
		stack = stack[:maxDepth]
	}
	for _, id := range stack {
		if !isContainer(id) {
			continue
		}
		bounds, ok := q.NodeAbsoluteBoundingRect(id)
		if ok && bounds.Contains(rect) {
			return id, true
		}
	}
	return "", false
}

// PackedSubtreeBoundingRect unions the rects of the packed scene's
// top-level nodes. It does not descend into children. Missing geometry
// fields count as 0. It returns false when there are no top-level nodes.
func PackedSubtreeBoundingRect(p *document.PackedScene) (geom.Rect, bool) {
	var rects []geom.Rect
	for _, id := range p.Scene.ChildrenRefs {
		if n, ok := p.Nodes[id]; ok {
			rects = append(rects, n.Rect())
		}
	}
	if len(rects) == 0 {
		return geom.Rect{}, false
	}
	return geom.Union(geom.Rect{}, rects...), true
}

// ViewportAwareDelta returns the translation that centers rect on the
// viewport. It returns false when rect already intersects the viewport.
func ViewportAwareDelta(viewport, rect geom.Rect) (geom.Vector2, bool) {
	if viewport.Intersects(rect) {
		return geom.Vector2{}, false
	}
	return viewport.Center().Sub(rect.Center()), true
}

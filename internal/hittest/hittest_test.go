package hittest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftboard/canvas/backend-go/internal/document"
	"github.com/driftboard/canvas/backend-go/internal/geom"
)

// stackQuery answers every point with the same stack.
type stackQuery struct {
	stack  []string
	bounds map[string]geom.Rect
}

func (q stackQuery) NodeIDsFromPoint(geom.Vector2) []string { return q.stack }

func (q stackQuery) NodeAbsoluteBoundingRect(id string) (geom.Rect, bool) {
	r, ok := q.bounds[id]
	return r, ok
}

func containers(ids ...string) ContainerPredicate {
	set := map[string]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return func(id string) bool { return set[id] }
}

func TestNestedInsertionTarget(t *testing.T) {
	q := stackQuery{
		stack: []string{"shape", "inner", "outer"},
		bounds: map[string]geom.Rect{
			"shape": geom.R(0, 0, 1000, 1000),
			"inner": geom.R(100, 100, 100, 100),
			"outer": geom.R(0, 0, 500, 500),
		},
	}
	isContainer := containers("inner", "outer")

	tests := []struct {
		name     string
		rect     geom.Rect
		maxDepth int
		want     string
		found    bool
	}{
		{"front-most containing container", geom.R(120, 120, 20, 20), 0, "inner", true},
		{"skips partial overlap", geom.R(150, 150, 100, 20), 0, "outer", true},
		{"depth limit", geom.R(150, 150, 100, 20), 2, "", false},
		{"non-containers never qualify", geom.R(400, 400, 200, 200), 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := NestedInsertionTarget(tt.rect, q, isContainer, tt.maxDepth)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestNestedInsertionTargetPartialOverlapOnly(t *testing.T) {
	q := stackQuery{
		stack: []string{"a", "b"},
		bounds: map[string]geom.Rect{
			"a": geom.R(0, 0, 50, 50),
			"b": geom.R(40, 40, 50, 50),
		},
	}
	_, ok := NestedInsertionTarget(geom.R(30, 30, 30, 30), q, containers("a", "b"), 0)
	assert.False(t, ok)

	_, ok = NestedInsertionTarget(geom.R(0, 0, 10, 10), stackQuery{}, containers(), 0)
	assert.False(t, ok)
}

func TestPackedSubtreeBoundingRect(t *testing.T) {
	a := &document.Node{ID: "a", Type: document.NodeTypeRectangle,
		Left: document.Float(10), Top: document.Float(20), Width: document.Float(30), Height: document.Float(40)}
	g := &document.Node{ID: "g", Type: document.NodeTypeGroup, Left: document.Float(100), Children: []string{"deep"}}
	deep := &document.Node{ID: "deep", Type: document.NodeTypeRectangle,
		Left: document.Float(5000), Top: document.Float(5000), Width: document.Float(10), Height: document.Float(10)}
	p := &document.PackedScene{
		Nodes: map[string]*document.Node{"a": a, "g": g, "deep": deep},
		Scene: document.PackedRefs{ChildrenRefs: []string{"a", "g"}},
	}

	r, ok := PackedSubtreeBoundingRect(p)
	require.True(t, ok)
	// g has no top, width or height; the deep child is ignored.
	assert.Equal(t, geom.R(10, 0, 90, 60), r)

	_, ok = PackedSubtreeBoundingRect(&document.PackedScene{})
	assert.False(t, ok)
}

func TestViewportAwareDelta(t *testing.T) {
	viewport := geom.R(0, 0, 800, 600)

	_, ok := ViewportAwareDelta(viewport, geom.R(700, 500, 200, 200))
	assert.False(t, ok, "partially visible content needs no scroll")

	d, ok := ViewportAwareDelta(viewport, geom.R(2000, -1000, 100, 100))
	require.True(t, ok)
	assert.Equal(t, geom.V(400-2050, 300+950), d)
	assert.Equal(t, viewport.Center(), geom.R(2000, -1000, 100, 100).Translate(d).Center())
}

package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftboard/canvas/backend-go/internal/geom"
)

func rectNode(id string, l, t, w, h float64) Node {
	return Node{ID: id, Type: NodeTypeRectangle, Left: Float(l), Top: Float(t), Width: Float(w), Height: Float(h)}
}

func frameNode(id string, l, t, w, h float64) Node {
	n := rectNode(id, l, t, w, h)
	n.Type = NodeTypeContainer
	return n
}

// testDoc builds: frame{a, b}, c at the root.
func testDoc(t *testing.T) *Document {
	t.Helper()
	doc := New("test")
	var err error
	doc, err = doc.InsertNode(frameNode("frame", 0, 0, 500, 500), "", -1)
	require.NoError(t, err)
	doc, err = doc.InsertNode(rectNode("a", 10, 10, 50, 50), "frame", -1)
	require.NoError(t, err)
	doc, err = doc.InsertNode(rectNode("b", 100, 10, 50, 50), "frame", -1)
	require.NoError(t, err)
	doc, err = doc.InsertNode(rectNode("c", 600, 0, 50, 50), "", -1)
	require.NoError(t, err)
	require.NoError(t, doc.Validate())
	return doc
}

func TestNewAndSampleAreValid(t *testing.T) {
	assert.NoError(t, New("empty").Validate())

	sample := NewSampleDocument()
	require.NoError(t, sample.Validate())
	assert.Equal(t, 5, sample.Len())
}

func TestInsertNode(t *testing.T) {
	doc := testDoc(t)

	next, err := doc.InsertNode(rectNode("d", 0, 0, 1, 1), "frame", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d", "b"}, next.ChildrenOf("frame"))
	parent, ok := next.ParentOf("d")
	require.True(t, ok)
	assert.Equal(t, "frame", parent)

	// The previous snapshot is untouched.
	assert.False(t, doc.Has("d"))
	assert.Equal(t, []string{"a", "b"}, doc.ChildrenOf("frame"))

	next, err = next.InsertNode(Node{ID: "label", Type: NodeTypeText, Text: "hi"}, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"label", "frame", "c"}, next.RootChildren())
	require.NoError(t, next.Validate())
}

func TestInsertNodeContract(t *testing.T) {
	doc := testDoc(t)

	_, err := doc.InsertNode(rectNode("a", 0, 0, 1, 1), "", -1)
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = doc.InsertNode(Node{ID: "x", Type: NodeTypeRectangle}, "", -1)
	assert.ErrorIs(t, err, ErrMissingGeometry)

	_, err = doc.InsertNode(rectNode("x", 0, 0, -1, 1), "", -1)
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = doc.InsertNode(rectNode("x", 0, 0, 1, 1), "c", -1)
	assert.ErrorIs(t, err, ErrNotContainer)

	_, err = doc.InsertNode(rectNode("x", 0, 0, 1, 1), "missing", -1)
	assert.ErrorIs(t, err, ErrNodeNotFound)

	withChildren := frameNode("x", 0, 0, 1, 1)
	withChildren.Children = []string{"ghost"}
	_, err = doc.InsertNode(withChildren, "", -1)
	assert.ErrorIs(t, err, ErrDanglingReference)

	_, err = doc.InsertNode(Node{ID: "x", Type: "star"}, "", -1)
	assert.ErrorIs(t, err, ErrUnknownNodeType)

	_, err = doc.InsertNode(Node{Type: NodeTypeText}, "", -1)
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestDeleteNodeRemovesSubtree(t *testing.T) {
	doc := testDoc(t)

	next, err := doc.DeleteNode("frame")
	require.NoError(t, err)
	assert.Equal(t, 1, next.Len())
	assert.Equal(t, []string{"c"}, next.RootChildren())
	require.NoError(t, next.Validate())

	assert.Equal(t, 4, doc.Len())

	next, err = doc.DeleteNode("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, next.ChildrenOf("frame"))
	require.NoError(t, next.Validate())

	_, err = doc.DeleteNode("missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestReparentNode(t *testing.T) {
	doc := testDoc(t)

	next, err := doc.ReparentNode("a", "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "frame", "c"}, next.RootChildren())
	assert.Equal(t, []string{"b"}, next.ChildrenOf("frame"))
	_, ok := next.ParentOf("a")
	assert.False(t, ok)
	require.NoError(t, next.Validate())

	next, err = next.ReparentNode("c", "frame", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, next.ChildrenOf("frame"))
	require.NoError(t, next.Validate())

	// Reordering within the same parent.
	next, err = doc.ReparentNode("a", "frame", -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, next.ChildrenOf("frame"))

	assert.Equal(t, []string{"a", "b"}, doc.ChildrenOf("frame"))
}

func TestReparentNodeContract(t *testing.T) {
	doc := testDoc(t)
	doc, err := doc.InsertNode(frameNode("inner", 0, 0, 10, 10), "frame", -1)
	require.NoError(t, err)

	_, err = doc.ReparentNode("frame", "frame", 0)
	assert.ErrorIs(t, err, ErrCycle)

	_, err = doc.ReparentNode("frame", "inner", 0)
	assert.ErrorIs(t, err, ErrCycle)

	_, err = doc.ReparentNode("a", "c", 0)
	assert.ErrorIs(t, err, ErrNotContainer)

	_, err = doc.ReparentNode("ghost", "", 0)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestCommitTransform(t *testing.T) {
	doc := testDoc(t)

	next, err := doc.CommitTransform("a", TransformPatch{Left: Float(25), Rotation: Float(30)})
	require.NoError(t, err)
	n, err := next.Node("a")
	require.NoError(t, err)
	assert.Equal(t, geom.R(25, 10, 50, 50), n.Rect())
	assert.Equal(t, 30.0, n.Rotation)

	old, err := doc.Node("a")
	require.NoError(t, err)
	assert.Equal(t, 10.0, *old.Left)

	next, err = doc.CommitTransform("a", Position(geom.V(-5, 7)))
	require.NoError(t, err)
	n, err = next.Node("a")
	require.NoError(t, err)
	assert.Equal(t, geom.V(-5, 7), n.Rect().Origin())

	_, err = doc.CommitTransform("a", TransformPatch{Height: Float(-1)})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	_, err = doc.CommitTransform("ghost", TransformPatch{})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestNodeReturnsPrivateCopy(t *testing.T) {
	doc := testDoc(t)

	n, err := doc.Node("frame")
	require.NoError(t, err)
	n.Children[0] = "mutated"
	*n.Left = 999

	assert.Equal(t, []string{"a", "b"}, doc.ChildrenOf("frame"))
	again, err := doc.Node("frame")
	require.NoError(t, err)
	assert.Equal(t, 0.0, *again.Left)
}

func TestPatchNode(t *testing.T) {
	doc := testDoc(t)
	name, hidden := "Hero", false

	next, err := doc.PatchNode("a", NodePatch{Name: &name, Visible: &hidden, Opacity: Float(3)})
	require.NoError(t, err)
	n, err := next.Node("a")
	require.NoError(t, err)
	assert.Equal(t, "Hero", n.Name)
	assert.False(t, n.IsVisible())
	assert.Equal(t, 1.0, *n.Opacity)

	old, err := doc.Node("a")
	require.NoError(t, err)
	assert.True(t, old.IsVisible())
}

func TestSetPaint(t *testing.T) {
	doc := testDoc(t)
	red := mustSolid(t, "#ff0000")

	next, err := doc.SetPaint("a", TargetFill, 0, red)
	require.NoError(t, err)
	n, err := next.Node("a")
	require.NoError(t, err)
	require.NotNil(t, n.Fill)
	assert.Equal(t, red.Color, n.Fill.Color)
	require.NotNil(t, n.FillPaints)
	assert.Len(t, *n.FillPaints, 1)

	old, err := doc.Node("a")
	require.NoError(t, err)
	assert.Nil(t, old.Fill)

	_, err = doc.SetPaint("a", "shadow", 0, red)
	assert.ErrorIs(t, err, ErrInvalidPaintTarget)
}

func TestGuides(t *testing.T) {
	doc := testDoc(t)

	next, g := doc.AddGuide(geom.AxisX, 120)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, []Guide{g}, next.Guides())
	assert.Empty(t, doc.Guides())

	moved, err := next.MoveGuide(g.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, 200.0, moved.Guides()[0].Offset)
	assert.Equal(t, 120.0, next.Guides()[0].Offset)

	removed, err := moved.RemoveGuide(g.ID)
	require.NoError(t, err)
	assert.Empty(t, removed.Guides())

	_, err = removed.RemoveGuide(g.ID)
	assert.ErrorIs(t, err, ErrGuideNotFound)
}

func TestValidateDetectsCorruption(t *testing.T) {
	dangling := New("x")
	f := frameNode("f", 0, 0, 1, 1)
	f.Children = []string{"ghost"}
	dangling.Nodes["f"] = &f
	dangling.Scene.ChildrenRefs = []string{"f"}
	assert.ErrorIs(t, dangling.Validate(), ErrDanglingReference)

	wrongParent := New("x")
	other := "elsewhere"
	r := rectNode("r", 0, 0, 1, 1)
	r.Parent = &other
	wrongParent.Nodes["r"] = &r
	wrongParent.Scene.ChildrenRefs = []string{"r"}
	assert.ErrorIs(t, wrongParent.Validate(), ErrInconsistentParent)

	twice := New("x")
	r2 := rectNode("r", 0, 0, 1, 1)
	twice.Nodes["r"] = &r2
	twice.Scene.ChildrenRefs = []string{"r", "r"}
	assert.ErrorIs(t, twice.Validate(), ErrMultipleParents)

	loop := New("x")
	p, q := "p", "q"
	pn, qn := frameNode("p", 0, 0, 1, 1), frameNode("q", 0, 0, 1, 1)
	pn.Children, pn.Parent = []string{"q"}, &q
	qn.Children, qn.Parent = []string{"p"}, &p
	loop.Nodes["p"], loop.Nodes["q"] = &pn, &qn
	assert.ErrorIs(t, loop.Validate(), ErrCycle)
}

func TestExtractSubtree(t *testing.T) {
	doc := testDoc(t)

	p, err := doc.ExtractSubtree("frame", "a", "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"frame", "c"}, p.Scene.ChildrenRefs)
	assert.Len(t, p.Nodes, 4)
	assert.Nil(t, p.Nodes["frame"].Parent)
	require.NotNil(t, p.Nodes["a"].Parent)
	require.NoError(t, p.Validate())

	_, err = doc.ExtractSubtree("ghost")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestInsertPacked(t *testing.T) {
	doc := testDoc(t)

	p, err := doc.ExtractSubtree("frame")
	require.NoError(t, err)

	_, err = doc.InsertPacked(p, "", -1)
	assert.ErrorIs(t, err, ErrDuplicateID)

	fresh, err := p.WithFreshIDs()
	require.NoError(t, err)
	require.NoError(t, fresh.Validate())
	require.Len(t, fresh.Scene.ChildrenRefs, 1)
	assert.NotEqual(t, "frame", fresh.Scene.ChildrenRefs[0])

	next, err := doc.InsertPacked(fresh, "", 1)
	require.NoError(t, err)
	assert.Equal(t, 7, next.Len())
	assert.Equal(t, fresh.Scene.ChildrenRefs[0], next.RootChildren()[1])
	require.NoError(t, next.Validate())

	into, err := doc.InsertPacked(fresh, "frame", 0)
	require.NoError(t, err)
	parent, ok := into.ParentOf(fresh.Scene.ChildrenRefs[0])
	require.True(t, ok)
	assert.Equal(t, "frame", parent)
	require.NoError(t, into.Validate())
}

func TestPackedSceneValidate(t *testing.T) {
	a := rectNode("a", 0, 0, 1, 1)
	p := &PackedScene{Nodes: map[string]*Node{"a": &a}, Scene: PackedRefs{ChildrenRefs: []string{"a", "b"}}}
	assert.ErrorIs(t, p.Validate(), ErrDanglingReference)

	p.Scene.ChildrenRefs = nil
	assert.ErrorIs(t, p.Validate(), ErrPackedSceneNotValid)
}

// detachedLoop packs a top-level text node next to two groups that list
// each other as their only child.
const detachedLoop = `{
	"nodes": {
		"r":  {"id": "r", "type": "text"},
		"g1": {"id": "g1", "type": "group", "parent": "g2", "children": ["g2"]},
		"g2": {"id": "g2", "type": "group", "parent": "g1", "children": ["g1"]}
	},
	"scene": {"children_refs": ["r"]}
}`

func TestPackedSceneValidateDetachedLoop(t *testing.T) {
	var p PackedScene
	require.NoError(t, json.Unmarshal([]byte(detachedLoop), &p))
	err := p.Validate()
	assert.ErrorIs(t, err, ErrPackedSceneNotValid)
	assert.ErrorIs(t, err, ErrCycle)

	_, err = DecodePacked([]byte(detachedLoop))
	assert.ErrorIs(t, err, ErrPackedSceneNotValid)

	doc := testDoc(t)
	_, err = doc.InsertPacked(&p, "", -1)
	assert.ErrorIs(t, err, ErrPackedSceneNotValid)
	assert.NoError(t, doc.Validate())

	// Hooking the loop under the top-level node breaks it open.
	p.Nodes["r"].Type = NodeTypeGroup
	p.Nodes["r"].Children = []string{"g1"}
	p.Nodes["g1"].Parent = parentRef("r")
	p.Nodes["g2"].Children = nil
	assert.NoError(t, p.Validate())
}

func TestDecode(t *testing.T) {
	sample := NewSampleDocument()
	data, err := json.Marshal(sample)
	require.NoError(t, err)

	doc, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, sample.Len(), doc.Len())
	assert.Equal(t, sample.RootChildren(), doc.RootChildren())

	_, err = Decode([]byte(`{"nodes":{},"scene":{"children_refs":["ghost"]}}`))
	assert.ErrorIs(t, err, ErrDanglingReference)

	packed, err := DecodePacked([]byte(`{"nodes":{"a":{"id":"a","type":"text"}},"scene":{"children_refs":["a"]}}`))
	require.NoError(t, err)
	assert.Len(t, packed.Nodes, 1)
}

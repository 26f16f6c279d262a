package document

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jinzhu/copier"

	"github.com/driftboard/canvas/backend-go/internal/geom"
	"github.com/driftboard/canvas/backend-go/internal/typeid"
)

// Document is an immutable snapshot of an editing session's scene. Every
// mutation returns a new snapshot and leaves the receiver untouched, so a
// snapshot handed to a reader never changes underneath it. Nodes are shared
// between snapshots until one of them edits a node, which copies it first.
//
// The exported fields exist for serialization and must be treated as
// read-only.
type Document struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Nodes map[string]*Node `json:"nodes"`
	Scene Scene            `json:"scene"`
}

// New returns an empty document with a single scene.
func New(name string) *Document {
	return &Document{
		ID:    typeid.NewDocumentID(),
		Name:  name,
		Nodes: map[string]*Node{},
		Scene: Scene{
			ID:           typeid.NewSceneID(),
			Name:         "Scene 1",
			ChildrenRefs: []string{},
		},
	}
}

func cloneNode(n *Node) (*Node, error) {
	var out Node
	if err := copier.CopyWithOption(&out, n, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy node %s: %w", n.ID, err)
	}
	return &out, nil
}

// Node returns a private copy of the node with id.
func (d *Document) Node(id string) (*Node, error) {
	n, ok := d.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNodeNotFound)
	}
	return cloneNode(n)
}

func (d *Document) Has(id string) bool {
	_, ok := d.Nodes[id]
	return ok
}

// Len returns the number of nodes.
func (d *Document) Len() int { return len(d.Nodes) }

// ParentOf returns the container holding id, or false for top-level nodes
// and unknown ids.
func (d *Document) ParentOf(id string) (string, bool) {
	n, ok := d.Nodes[id]
	if !ok || n.Parent == nil {
		return "", false
	}
	return *n.Parent, true
}

func (d *Document) ChildrenOf(id string) []string {
	if n, ok := d.Nodes[id]; ok {
		return slices.Clone(n.Children)
	}
	return nil
}

func (d *Document) RootChildren() []string {
	return slices.Clone(d.Scene.ChildrenRefs)
}

func (d *Document) Guides() []Guide {
	return slices.Clone(d.Scene.Guides)
}

// Walk visits nodes depth-first in paint order, parents before children.
// Returning false from fn skips the node's children.
func (d *Document) Walk(fn func(n *Node, depth int) bool) {
	var visit func(ids []string, depth int)
	visit = func(ids []string, depth int) {
		for _, id := range ids {
			n, ok := d.Nodes[id]
			if !ok {
				continue
			}
			if fn(n, depth) {
				visit(n.Children, depth+1)
			}
		}
	}
	visit(d.Scene.ChildrenRefs, 0)
}

// Subtree returns id and all of its descendants, parents first.
func (d *Document) Subtree(id string) []string {
	var out []string
	var visit func(id string)
	visit = func(id string) {
		n, ok := d.Nodes[id]
		if !ok {
			return
		}
		out = append(out, id)
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(id)
	return out
}

// IsDescendant reports whether id lies strictly inside ancestor's subtree.
func (d *Document) IsDescendant(id, ancestor string) bool {
	for p, ok := d.ParentOf(id); ok; p, ok = d.ParentOf(p) {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Validate checks structural integrity: every reference resolves, every
// node is referenced exactly once, parent pointers agree with children
// lists and every node is reachable from the scene.
func (d *Document) Validate() error {
	referenced := make(map[string]string, len(d.Nodes))
	ref := func(owner, id string) error {
		n, ok := d.Nodes[id]
		if !ok {
			return fmt.Errorf("%s -> %s: %w", owner, id, ErrDanglingReference)
		}
		if prev, seen := referenced[id]; seen {
			return fmt.Errorf("%s in %s and %s: %w", id, prev, owner, ErrMultipleParents)
		}
		referenced[id] = owner
		var parent string
		if n.Parent != nil {
			parent = *n.Parent
		}
		if owner == d.Scene.ID {
			owner = ""
		}
		if parent != owner {
			return fmt.Errorf("%s: %w", id, ErrInconsistentParent)
		}
		return nil
	}

	for _, id := range d.Scene.ChildrenRefs {
		if err := ref(d.Scene.ID, id); err != nil {
			return err
		}
	}
	for _, id := range slices.Sorted(maps.Keys(d.Nodes)) {
		n := d.Nodes[id]
		if n.ID != id {
			return fmt.Errorf("node keyed %s has id %s: %w", id, n.ID, ErrInconsistentParent)
		}
		if err := n.check(); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := ref(id, c); err != nil {
				return err
			}
		}
	}

	reachable := 0
	d.Walk(func(*Node, int) bool {
		reachable++
		return true
	})
	if reachable != len(d.Nodes) {
		return fmt.Errorf("%d of %d nodes unreachable from the scene: %w", len(d.Nodes)-reachable, len(d.Nodes), ErrCycle)
	}
	return nil
}

// txn accumulates one mutation on a fresh snapshot.
type txn struct {
	next  *Document
	owned map[string]bool
}

func (d *Document) begin() *txn {
	next := &Document{
		ID:    d.ID,
		Name:  d.Name,
		Nodes: maps.Clone(d.Nodes),
		Scene: d.Scene,
	}
	if next.Nodes == nil {
		next.Nodes = map[string]*Node{}
	}
	next.Scene.ChildrenRefs = slices.Clone(d.Scene.ChildrenRefs)
	next.Scene.Guides = slices.Clone(d.Scene.Guides)
	return &txn{next: next, owned: map[string]bool{}}
}

// edit returns the snapshot's own copy of id, copying on first access.
func (t *txn) edit(id string) (*Node, error) {
	n, ok := t.next.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNodeNotFound)
	}
	if t.owned[id] {
		return n, nil
	}
	c, err := cloneNode(n)
	if err != nil {
		return nil, err
	}
	t.next.Nodes[id] = c
	t.owned[id] = true
	return c, nil
}

func (t *txn) put(n *Node) {
	t.next.Nodes[n.ID] = n
	t.owned[n.ID] = true
}

// siblings returns the children list nodes under parentID live in. An
// empty parentID is the scene root.
func (t *txn) siblings(parentID string) (*[]string, error) {
	if parentID == "" {
		return &t.next.Scene.ChildrenRefs, nil
	}
	p, err := t.edit(parentID)
	if err != nil {
		return nil, err
	}
	if !p.IsContainer() {
		return nil, fmt.Errorf("%s (%s): %w", p.ID, p.Type, ErrNotContainer)
	}
	return &p.Children, nil
}

func parentRef(parentID string) *string {
	if parentID == "" {
		return nil
	}
	return &parentID
}

func parentID(n *Node) string {
	if n.Parent == nil {
		return ""
	}
	return *n.Parent
}

// insertAt inserts id at index, appending when index is out of range.
func insertAt(list []string, index int, ids ...string) []string {
	if index < 0 || index > len(list) {
		index = len(list)
	}
	return slices.Insert(slices.Clone(list), index, ids...)
}

func removeID(list []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(list), func(s string) bool { return s == id })
}

// InsertNode adds n under parentID (empty for the scene root) at index. An
// out-of-range index appends. n must not reference children; use
// InsertPacked for subtrees.
func (d *Document) InsertNode(n Node, parentID string, index int) (*Document, error) {
	if err := n.check(); err != nil {
		return nil, err
	}
	if len(n.Children) > 0 {
		return nil, fmt.Errorf("%s: %w", n.ID, ErrDanglingReference)
	}
	if d.Has(n.ID) {
		return nil, fmt.Errorf("%s: %w", n.ID, ErrDuplicateID)
	}

	t := d.begin()
	list, err := t.siblings(parentID)
	if err != nil {
		return nil, err
	}
	node, err := cloneNode(&n)
	if err != nil {
		return nil, err
	}
	node.Parent = parentRef(parentID)
	*list = insertAt(*list, index, node.ID)
	t.put(node)
	return t.next, nil
}

// InsertPacked adds every node of p, placing its top-level nodes under
// parentID at index in order.
func (d *Document) InsertPacked(p *PackedScene, parentID string, index int) (*Document, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	for _, id := range slices.Sorted(maps.Keys(p.Nodes)) {
		if d.Has(id) {
			return nil, fmt.Errorf("%s: %w", id, ErrDuplicateID)
		}
	}

	t := d.begin()
	list, err := t.siblings(parentID)
	if err != nil {
		return nil, err
	}
	for _, n := range p.Nodes {
		c, err := cloneNode(n)
		if err != nil {
			return nil, err
		}
		t.put(c)
	}
	for _, n := range p.Nodes {
		for _, c := range n.Children {
			t.next.Nodes[c].Parent = parentRef(n.ID)
		}
	}
	for _, id := range p.Scene.ChildrenRefs {
		t.next.Nodes[id].Parent = parentRef(parentID)
	}
	*list = insertAt(*list, index, p.Scene.ChildrenRefs...)
	return t.next, nil
}

// DeleteNode removes id and its subtree, repairing the children list that
// referenced it.
func (d *Document) DeleteNode(id string) (*Document, error) {
	n, ok := d.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNodeNotFound)
	}

	t := d.begin()
	list, err := t.siblings(parentID(n))
	if err != nil {
		return nil, err
	}
	*list = removeID(*list, id)
	for _, x := range d.Subtree(id) {
		delete(t.next.Nodes, x)
	}
	return t.next, nil
}

// ReparentNode moves id under newParentID (empty for the scene root) at
// index. Both children lists change in the same snapshot.
func (d *Document) ReparentNode(id, newParentID string, index int) (*Document, error) {
	n, ok := d.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNodeNotFound)
	}
	if newParentID != "" {
		if newParentID == id || d.IsDescendant(newParentID, id) {
			return nil, fmt.Errorf("%s into %s: %w", id, newParentID, ErrCycle)
		}
	}

	t := d.begin()
	from, err := t.siblings(parentID(n))
	if err != nil {
		return nil, err
	}
	*from = removeID(*from, id)

	to, err := t.siblings(newParentID)
	if err != nil {
		return nil, err
	}
	*to = insertAt(*to, index, id)

	moved, err := t.edit(id)
	if err != nil {
		return nil, err
	}
	moved.Parent = parentRef(newParentID)
	return t.next, nil
}

// TransformPatch holds the geometry fields a transform commit changes.
// Nil fields are left as they are.
type TransformPatch struct {
	Left     *float64 `json:"left,omitempty"`
	Top      *float64 `json:"top,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// Position is a patch that only moves a node.
func Position(p geom.Vector2) TransformPatch {
	return TransformPatch{Left: Float(p.X), Top: Float(p.Y)}
}

func (d *Document) CommitTransform(id string, patch TransformPatch) (*Document, error) {
	t := d.begin()
	n, err := t.edit(id)
	if err != nil {
		return nil, err
	}
	if patch.Left != nil {
		n.Left = Float(*patch.Left)
	}
	if patch.Top != nil {
		n.Top = Float(*patch.Top)
	}
	if patch.Width != nil {
		n.Width = Float(*patch.Width)
	}
	if patch.Height != nil {
		n.Height = Float(*patch.Height)
	}
	if patch.Rotation != nil {
		n.Rotation = *patch.Rotation
	}
	if err := n.check(); err != nil {
		return nil, err
	}
	return t.next, nil
}

// NodePatch holds non-geometric property edits. Nil fields are left as
// they are.
type NodePatch struct {
	Name        *string  `json:"name,omitempty"`
	Visible     *bool    `json:"active,omitempty"`
	Locked      *bool    `json:"locked,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
	StrokeWidth *float64 `json:"stroke_width,omitempty"`
	Text        *string  `json:"text,omitempty"`
}

func (d *Document) PatchNode(id string, patch NodePatch) (*Document, error) {
	t := d.begin()
	n, err := t.edit(id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		n.Name = *patch.Name
	}
	if patch.Visible != nil {
		v := *patch.Visible
		n.Visible = &v
	}
	if patch.Locked != nil {
		n.Locked = *patch.Locked
	}
	if patch.Opacity != nil {
		n.Opacity = Float(geom.Clamp(*patch.Opacity, 0, 1))
	}
	if patch.StrokeWidth != nil {
		n.StrokeWidth = max(*patch.StrokeWidth, 0)
	}
	if patch.Text != nil {
		n.Text = *patch.Text
	}
	return t.next, nil
}

// SetPaint writes paint into the fill or stroke layers of id.
func (d *Document) SetPaint(id string, target PaintTarget, index int, paint Paint) (*Document, error) {
	t := d.begin()
	n, err := t.edit(id)
	if err != nil {
		return nil, err
	}
	if err := UpdateTargetPaint(n, target, index, paint); err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return t.next, nil
}

func (d *Document) AddGuide(axis geom.Axis, offset float64) (*Document, Guide) {
	g := Guide{ID: typeid.NewGuideID(), Axis: axis, Offset: offset}
	t := d.begin()
	t.next.Scene.Guides = append(t.next.Scene.Guides, g)
	return t.next, g
}

func (d *Document) MoveGuide(id string, offset float64) (*Document, error) {
	i := slices.IndexFunc(d.Scene.Guides, func(g Guide) bool { return g.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrGuideNotFound)
	}
	t := d.begin()
	t.next.Scene.Guides[i].Offset = offset
	return t.next, nil
}

func (d *Document) RemoveGuide(id string) (*Document, error) {
	i := slices.IndexFunc(d.Scene.Guides, func(g Guide) bool { return g.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrGuideNotFound)
	}
	t := d.begin()
	t.next.Scene.Guides = slices.Delete(t.next.Scene.Guides, i, i+1)
	return t.next, nil
}

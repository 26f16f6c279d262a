package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/driftboard/canvas/backend-go/internal/config"
	"github.com/driftboard/canvas/backend-go/internal/document"
	"github.com/driftboard/canvas/backend-go/internal/fit"
	"github.com/driftboard/canvas/backend-go/internal/geom"
	"github.com/driftboard/canvas/backend-go/internal/hittest"
	"github.com/driftboard/canvas/backend-go/internal/snap"
	"github.com/driftboard/canvas/backend-go/internal/typeid"
)

var (
	ErrLocked         = errors.New("node is locked")
	ErrEmptySelection = errors.New("nothing selected")
	ErrUnknownCommand = errors.New("unknown command type")
	ErrInvalidCommand = errors.New("invalid command")
)

// lassoMinArea is the smallest polygon area that still selects.
const lassoMinArea = 1e-6

// Session is one editing session over a document. It owns the current
// snapshot, the selection and the view. A Session is not safe for
// concurrent use; callers serialize commands.
type Session struct {
	cfg  config.Engine
	snap snap.Config

	doc     *document.Document
	index   *SceneIndex
	dirty   bool
	version int64

	selection []string

	// view maps canvas space to screen space; screen is the visible area
	// in screen pixels.
	view   geom.Matrix2D
	screen geom.Rect
}

// NewSession starts a session over doc. A nil doc starts an empty one.
func NewSession(cfg config.Engine, doc *document.Document) *Session {
	if doc == nil {
		doc = document.New("Untitled")
	}
	return &Session{
		cfg: cfg,
		snap: snap.Config{
			QuantizeStep:  cfg.SnapQuantizeStep,
			ThresholdStep: cfg.SnapThresholdStep,
			Tolerance:     cfg.SnapTolerance,
		},
		doc:    doc,
		dirty:  true,
		view:   geom.Identity(),
		screen: geom.R(0, 0, 1280, 800),
	}
}

// Load replaces the document and resets the selection. The view is kept.
func (s *Session) Load(doc *document.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	s.doc = doc
	s.selection = nil
	s.dirty = true
	s.version++
	slog.Debug("document loaded", "document", doc.ID, "nodes", doc.Len())
	return nil
}

// Sync moves the session onto doc, a snapshot produced by another session
// over the same document. The selection keeps the ids that still exist.
func (s *Session) Sync(doc *document.Document) {
	if doc == s.doc {
		return
	}
	s.doc = doc
	s.dirty = true
	s.selection = slices.DeleteFunc(s.selection, func(id string) bool { return !doc.Has(id) })
}

// Document returns the current snapshot. It never changes after being
// returned.
func (s *Session) Document() *document.Document { return s.doc }

// Version counts committed changes, including loads.
func (s *Session) Version() int64 { return s.version }

// Index returns the scene index of the current snapshot, rebuilding it if
// the document changed since the last call.
func (s *Session) Index() *SceneIndex {
	if s.dirty || s.index == nil {
		s.index = BuildSceneIndex(s.doc)
		s.dirty = false
	}
	return s.index
}

func (s *Session) commit(next *document.Document) {
	s.doc = next
	s.dirty = true
	s.version++
	s.selection = slices.DeleteFunc(s.selection, func(id string) bool { return !next.Has(id) })
}

// --- Selection ---

func (s *Session) Selection() []string { return slices.Clone(s.selection) }

// SetSelection replaces the selection. Duplicates are dropped; unknown ids
// are rejected and leave the selection unchanged.
func (s *Session) SetSelection(ids []string) error {
	var sel []string
	for _, id := range ids {
		if !s.doc.Has(id) {
			return fmt.Errorf("select %s: %w", id, document.ErrNodeNotFound)
		}
		if !slices.Contains(sel, id) {
			sel = append(sel, id)
		}
	}
	s.selection = sel
	return nil
}

// LassoSelect selects every visible, unlocked node whose outline lies
// entirely inside poly. Children of groups are selected through their group
// and descendants of a selected node are skipped. A lasso without area
// selects nothing.
func (s *Session) LassoSelect(poly geom.Polygon) []string {
	s.selection = nil
	if poly.Area() < lassoMinArea {
		return nil
	}

	idx := s.Index()
	var sel []string
	for _, id := range idx.order {
		n := idx.nodes[id]
		if !n.Visible || n.Locked {
			continue
		}
		if p, ok := idx.nodes[n.Parent]; ok && p.Type == document.NodeTypeGroup {
			continue
		}
		if slices.ContainsFunc(sel, func(a string) bool { return s.doc.IsDescendant(id, a) }) {
			continue
		}
		inside := true
		for _, c := range n.Corners() {
			if !geom.PointInPolygon(c, poly) {
				inside = false
				break
			}
		}
		if inside {
			sel = append(sel, id)
		}
	}
	s.selection = sel
	return slices.Clone(sel)
}

// topLevel drops ids that sit inside another id of the list.
func (s *Session) topLevel(ids []string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(id string) bool {
		return slices.ContainsFunc(ids, func(a string) bool { return s.doc.IsDescendant(id, a) })
	})
}

// --- View ---

// SetView sets the canvas-to-screen transform and the screen area.
func (s *Session) SetView(view geom.Matrix2D, screen geom.Rect) {
	s.view = view
	s.screen = screen
}

func (s *Session) View() geom.Matrix2D { return s.view }

// Viewport returns the visible area in canvas space.
func (s *Session) Viewport() geom.Rect {
	inv, ok := s.view.Invert()
	if !ok {
		return s.screen
	}
	return inv.TransformRect(s.screen)
}

// SnapThreshold returns the canvas-space snap distance at the current zoom.
func (s *Session) SnapThreshold() float64 {
	return snap.ThresholdFor(s.cfg.SnapFactor, s.view, s.snap)
}

// reveal pans the view so rect is centered when it is entirely off screen.
func (s *Session) reveal(rect geom.Rect) (geom.Vector2, bool) {
	delta, ok := hittest.ViewportAwareDelta(s.Viewport(), rect)
	if !ok {
		return geom.Vector2{}, false
	}
	s.view = s.view.Multiply(geom.Translate(delta.X, delta.Y))
	return delta, true
}

// FitSelection zooms and pans so the selection fills the screen with the
// configured margin.
func (s *Session) FitSelection() (fit.Focus, error) {
	if len(s.selection) == 0 {
		return fit.Focus{}, ErrEmptySelection
	}
	idx := s.Index()
	var rects []fit.RotatedRect
	for _, id := range s.selection {
		if n, ok := idx.Node(id); ok {
			rects = append(rects, n.RotatedRect())
		}
	}
	focus := fit.CenterOf(s.screen.Box(), s.cfg.FitMargin, rects...)
	s.view = geom.Matrix2D{focus.Scale, 0, 0, focus.Scale, focus.Translate.X, focus.Translate.Y}
	return focus, nil
}

// ZoomToFit fits all scene content on screen. It returns false and leaves
// the view alone when the scene is empty.
func (s *Session) ZoomToFit() bool {
	bounds, ok := s.Index().SelectionBounds(s.doc.Scene.ChildrenRefs)
	if !ok {
		return false
	}
	s.view = fit.TransformToFit(s.screen, bounds, fit.Uniform(s.cfg.FitMargin))
	return true
}

// --- Coordinate helpers ---

func (s *Session) parentInverse(parentID string) geom.Matrix2D {
	if parentID == "" {
		return geom.Identity()
	}
	n, ok := s.Index().Node(parentID)
	if !ok {
		return geom.Identity()
	}
	inv, _ := n.WorldTransform.Invert()
	return inv
}

// toLocal maps a canvas-space point into parentID's child space.
func (s *Session) toLocal(parentID string, p geom.Vector2) geom.Vector2 {
	return s.parentInverse(parentID).Apply(p)
}

// toLocalDelta maps a canvas-space displacement into parentID's child space.
func (s *Session) toLocalDelta(parentID string, d geom.Vector2) geom.Vector2 {
	inv := s.parentInverse(parentID)
	return inv.Apply(d).Sub(inv.Apply(geom.Vector2{}))
}

// --- Insertion ---

// InsertResult reports where inserted content landed.
type InsertResult struct {
	IDs    []string     `json:"ids"`
	Parent string       `json:"parent,omitempty"`
	Scroll geom.Vector2 `json:"scroll"`
	// Scrolled is true when the view was panned to reveal the content.
	Scrolled bool `json:"scrolled"`
}

// InsertNode adds n, whose Left and Top are in canvas space. It nests into
// the front-most container that fully contains it, selects it, and pans
// the view when it would land off screen. An empty id gets a fresh one.
func (s *Session) InsertNode(n document.Node) (InsertResult, error) {
	if n.ID == "" {
		n.ID = typeid.NewNodeID()
	}
	rect := n.Rect()
	idx := s.Index()
	parent, _ := hittest.NestedInsertionTarget(rect, idx, idx.IsContainer, s.cfg.InsertMaxDepth)
	if parent != "" {
		local := s.toLocal(parent, rect.Origin())
		n.Left, n.Top = document.Float(local.X), document.Float(local.Y)
	}

	next, err := s.doc.InsertNode(n, parent, -1)
	if err != nil {
		return InsertResult{}, err
	}
	s.commit(next)
	s.selection = []string{n.ID}

	res := InsertResult{IDs: []string{n.ID}, Parent: parent}
	res.Scroll, res.Scrolled = s.reveal(rect)
	slog.Debug("node inserted", "node", n.ID, "type", n.Type, "parent", parent)
	return res, nil
}

// Copy packs the selection with top-level positions in canvas space.
func (s *Session) Copy() (*document.PackedScene, error) {
	if len(s.selection) == 0 {
		return nil, ErrEmptySelection
	}
	p, err := s.doc.ExtractSubtree(s.selection...)
	if err != nil {
		return nil, err
	}
	idx := s.Index()
	for _, id := range p.Scene.ChildrenRefs {
		if n, ok := idx.Node(id); ok {
			o := n.WorldTransform.Translation()
			p.Nodes[id].Left, p.Nodes[id].Top = document.Float(o.X), document.Float(o.Y)
		}
	}
	return p, nil
}

// Paste inserts a packed scene whose top-level positions are in canvas
// space, shifted by offset. Every node gets a fresh id. The content nests
// like a single inserted node would, using its overall bounds.
func (s *Session) Paste(p *document.PackedScene, offset geom.Vector2) (InsertResult, error) {
	if err := p.Validate(); err != nil {
		return InsertResult{}, err
	}
	fresh, err := p.WithFreshIDs()
	if err != nil {
		return InsertResult{}, err
	}
	for _, id := range fresh.Scene.ChildrenRefs {
		n := fresh.Nodes[id]
		o := n.Rect().Origin().Add(offset)
		n.Left, n.Top = document.Float(o.X), document.Float(o.Y)
	}

	bounds, ok := hittest.PackedSubtreeBoundingRect(fresh)
	if !ok {
		return InsertResult{}, nil
	}
	idx := s.Index()
	parent, _ := hittest.NestedInsertionTarget(bounds, idx, idx.IsContainer, s.cfg.InsertMaxDepth)
	if parent != "" {
		for _, id := range fresh.Scene.ChildrenRefs {
			n := fresh.Nodes[id]
			local := s.toLocal(parent, n.Rect().Origin())
			n.Left, n.Top = document.Float(local.X), document.Float(local.Y)
		}
	}

	next, err := s.doc.InsertPacked(fresh, parent, -1)
	if err != nil {
		return InsertResult{}, err
	}
	s.commit(next)
	s.selection = slices.Clone(fresh.Scene.ChildrenRefs)

	res := InsertResult{IDs: slices.Clone(fresh.Scene.ChildrenRefs), Parent: parent}
	res.Scroll, res.Scrolled = s.reveal(bounds)
	slog.Debug("scene pasted", "nodes", len(fresh.Nodes), "parent", parent)
	return res, nil
}

// Duplicate copies the selection and pastes it shifted by offset.
func (s *Session) Duplicate(offset geom.Vector2) (InsertResult, error) {
	p, err := s.Copy()
	if err != nil {
		return InsertResult{}, err
	}
	return s.Paste(p, offset)
}

// --- Transforms ---

// MoveOptions controls Move.
type MoveOptions struct {
	// Snap aligns the moved group to siblings, parents and guides.
	Snap bool `json:"snap"`
	// LockAxis keeps only the dominant component of the movement.
	LockAxis bool `json:"lockAxis"`
}

// MoveResult is the outcome of a Move.
type MoveResult struct {
	// Movement is the canvas-space translation actually applied to the
	// first moved node.
	Movement geom.Vector2   `json:"movement"`
	Snapping *snap.Snapping `json:"snapping,omitempty"`
}

// Move translates ids as one rigid group by a canvas-space movement,
// optionally snapping. Nodes nested inside another moved id move with it.
// Either every node moves or none does.
func (s *Session) Move(ids []string, movement geom.Vector2, opts MoveOptions) (MoveResult, error) {
	ids = s.topLevel(ids)
	if len(ids) == 0 {
		return MoveResult{}, ErrEmptySelection
	}

	idx := s.Index()
	agents := make([]geom.Rect, len(ids))
	for i, id := range ids {
		n, ok := idx.Node(id)
		if !ok {
			return MoveResult{}, fmt.Errorf("move %s: %w", id, document.ErrNodeNotFound)
		}
		if n.Locked {
			return MoveResult{}, fmt.Errorf("move %s: %w", id, ErrLocked)
		}
		agents[i] = n.Bounds
	}

	threshold := snap.Both(s.SnapThreshold())
	if opts.LockAxis {
		movement = snap.AxisLockedByDominance(movement)
		if movement.Y == 0 {
			threshold = snap.Only(geom.AxisX, s.SnapThreshold())
		} else {
			threshold = snap.Only(geom.AxisY, s.SnapThreshold())
		}
	}

	translated := make([]geom.Rect, len(agents))
	var snapping *snap.Snapping
	if opts.Snap {
		res := snap.SnapObjectsTranslation(agents, s.anchors(ids), movement, threshold, s.snap)
		translated, snapping = res.Translated, res.Snapping
	} else {
		for i, a := range agents {
			translated[i] = a.Translate(movement)
		}
	}

	next := s.doc
	for i, id := range ids {
		n := next.Nodes[id]
		d := s.toLocalDelta(idx.nodes[id].Parent, translated[i].Origin().Sub(agents[i].Origin()))
		var err error
		next, err = next.CommitTransform(id, document.Position(n.Rect().Origin().Add(d)))
		if err != nil {
			return MoveResult{}, err
		}
	}
	s.commit(next)

	return MoveResult{
		Movement: translated[0].Origin().Sub(agents[0].Origin()),
		Snapping: snapping,
	}, nil
}

// anchors collects what a move of ids may snap to: the bounds of their
// visible parents and siblings, and every guide.
func (s *Session) anchors(ids []string) snap.Anchors {
	idx := s.Index()
	var a snap.Anchors
	for _, id := range snap.GetSnapTargets(ids, s.doc) {
		if n, ok := idx.Node(id); ok && n.Visible {
			a.Objects = append(a.Objects, n.Bounds)
		}
	}
	for _, g := range s.doc.Guides() {
		a.Guides = append(a.Guides, snap.Guide{Axis: g.Axis, Offset: g.Offset})
	}
	return a
}

// Nudge moves the selection by delta without snapping.
func (s *Session) Nudge(delta geom.Vector2) (MoveResult, error) {
	return s.Move(s.selection, delta, MoveOptions{})
}

// CommitTransform writes a geometry patch in the node's parent space.
func (s *Session) CommitTransform(id string, patch document.TransformPatch) error {
	if n, ok := s.Index().Node(id); ok && n.Locked {
		return fmt.Errorf("transform %s: %w", id, ErrLocked)
	}
	next, err := s.doc.CommitTransform(id, patch)
	if err != nil {
		return err
	}
	s.commit(next)
	return nil
}

// --- Structure ---

// Delete removes ids and their subtrees in one change.
func (s *Session) Delete(ids ...string) error {
	ids = s.topLevel(ids)
	if len(ids) == 0 {
		return ErrEmptySelection
	}
	next := s.doc
	for _, id := range ids {
		var err error
		if next, err = next.DeleteNode(id); err != nil {
			return err
		}
	}
	s.commit(next)
	slog.Debug("nodes deleted", "count", len(ids))
	return nil
}

// Reparent moves id under parentID (empty for the scene root) at index
// while keeping its position on the canvas.
func (s *Session) Reparent(id, parentID string, index int) error {
	n, ok := s.Index().Node(id)
	if !ok {
		return fmt.Errorf("reparent %s: %w", id, document.ErrNodeNotFound)
	}
	origin := n.WorldTransform.Translation()
	local := s.toLocal(parentID, origin)

	next, err := s.doc.ReparentNode(id, parentID, index)
	if err != nil {
		return err
	}
	if next, err = next.CommitTransform(id, document.Position(local)); err != nil {
		return err
	}
	s.commit(next)
	return nil
}

func (s *Session) PatchNode(id string, patch document.NodePatch) error {
	next, err := s.doc.PatchNode(id, patch)
	if err != nil {
		return err
	}
	s.commit(next)
	return nil
}

// SetPaint writes a fill or stroke layer.
func (s *Session) SetPaint(id string, target document.PaintTarget, index int, paint document.Paint) error {
	next, err := s.doc.SetPaint(id, target, index, paint)
	if err != nil {
		return err
	}
	s.commit(next)
	return nil
}

// --- Guides ---

func (s *Session) AddGuide(axis geom.Axis, offset float64) document.Guide {
	next, g := s.doc.AddGuide(axis, offset)
	s.commit(next)
	return g
}

func (s *Session) MoveGuide(id string, offset float64) error {
	next, err := s.doc.MoveGuide(id, offset)
	if err != nil {
		return err
	}
	s.commit(next)
	return nil
}

func (s *Session) RemoveGuide(id string) error {
	next, err := s.doc.RemoveGuide(id)
	if err != nil {
		return err
	}
	s.commit(next)
	return nil
}

// --- Queries ---

// NodeAt returns the front-most visible node under a canvas-space point.
func (s *Session) NodeAt(p geom.Vector2) (string, bool) {
	return s.Index().HitTest(p)
}

// SelectionBounds returns the canvas-space bounds of the selection.
func (s *Session) SelectionBounds() (geom.Rect, bool) {
	return s.Index().SelectionBounds(s.selection)
}

// DisplayList compiles the current snapshot for the renderer.
func (s *Session) DisplayList() []DrawCommand {
	return CompileDisplayList(s.doc, s.Index())
}

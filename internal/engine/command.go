package engine

import (
	"encoding/json"
	"fmt"

	"github.com/driftboard/canvas/backend-go/internal/document"
	"github.com/driftboard/canvas/backend-go/internal/fit"
	"github.com/driftboard/canvas/backend-go/internal/geom"
	"github.com/driftboard/canvas/backend-go/internal/snap"
)

// Command types accepted by Session.Apply.
const (
	CmdInsert       = "node.insert"
	CmdMove         = "node.move"
	CmdTransform    = "node.transform"
	CmdPatch        = "node.patch"
	CmdDelete       = "node.delete"
	CmdReparent     = "node.reparent"
	CmdSetPaint     = "node.paint"
	CmdPaste        = "scene.paste"
	CmdSelect       = "selection.set"
	CmdLasso        = "selection.lasso"
	CmdNudge        = "selection.nudge"
	CmdDuplicate    = "selection.duplicate"
	CmdSetView      = "view.set"
	CmdFitSelection = "view.fit_selection"
	CmdFitAll       = "view.fit_all"
	CmdGuideAdd     = "guide.add"
	CmdGuideMove    = "guide.move"
	CmdGuideRemove  = "guide.remove"
)

// Command is the JSON envelope for one session mutation. Which fields are
// read depends on Type.
type Command struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	NodeID  string   `json:"nodeId,omitempty"`
	NodeIDs []string `json:"nodeIds,omitempty"`

	// node.insert / scene.paste
	Node   *document.Node        `json:"node,omitempty"`
	Packed *document.PackedScene `json:"packed,omitempty"`

	// node.reparent
	ParentID string `json:"parentId,omitempty"`
	Index    *int   `json:"index,omitempty"`

	// node.move / selection.nudge / scene.paste / selection.duplicate
	Movement *geom.Vector2 `json:"movement,omitempty"`
	Options  MoveOptions   `json:"options"`

	Transform *document.TransformPatch `json:"transform,omitempty"`
	Patch     *document.NodePatch      `json:"patch,omitempty"`

	// node.paint
	Target     document.PaintTarget `json:"target,omitempty"`
	PaintIndex int                  `json:"paintIndex,omitempty"`
	Paint      *document.Paint      `json:"paint,omitempty"`

	// guide.*
	GuideID string     `json:"guideId,omitempty"`
	Axis    *geom.Axis `json:"axis,omitempty"`
	Offset  *float64   `json:"offset,omitempty"`

	Polygon geom.Polygon `json:"polygon,omitempty"`

	// view.set
	View   *geom.Matrix2D `json:"view,omitempty"`
	Screen *geom.Rect     `json:"screen,omitempty"`
}

// Result is what Apply reports back for a command.
type Result struct {
	CommandID string          `json:"commandId"`
	Version   int64           `json:"version"`
	Selection []string        `json:"selection"`
	Insert    *InsertResult   `json:"insert,omitempty"`
	Snapping  *snap.Snapping  `json:"snapping,omitempty"`
	Movement  *geom.Vector2   `json:"movement,omitempty"`
	Focus     *fit.Focus      `json:"focus,omitempty"`
	View      *geom.Matrix2D  `json:"view,omitempty"`
	Guide     *document.Guide `json:"guide,omitempty"`
}

// DecodeCommand parses a command envelope.
func DecodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if cmd.Type == "" {
		return Command{}, fmt.Errorf("%w: missing type", ErrInvalidCommand)
	}
	return cmd, nil
}

func missing(cmd Command, field string) error {
	return fmt.Errorf("%w: %s requires %s", ErrInvalidCommand, cmd.Type, field)
}

func vectorOr(v *geom.Vector2) geom.Vector2 {
	if v == nil {
		return geom.Vector2{}
	}
	return *v
}

// Apply runs one command against the session. A failed command changes
// nothing.
func (s *Session) Apply(cmd Command) (Result, error) {
	res, err := s.apply(cmd)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", cmd.Type, err)
	}
	res.CommandID = cmd.ID
	res.Version = s.version
	res.Selection = s.Selection()
	return res, nil
}

func (s *Session) apply(cmd Command) (Result, error) {
	var res Result
	switch cmd.Type {
	case CmdInsert:
		if cmd.Node == nil {
			return res, missing(cmd, "node")
		}
		ins, err := s.InsertNode(*cmd.Node)
		if err != nil {
			return res, err
		}
		res.Insert = &ins

	case CmdPaste:
		if cmd.Packed == nil {
			return res, missing(cmd, "packed")
		}
		ins, err := s.Paste(cmd.Packed, vectorOr(cmd.Movement))
		if err != nil {
			return res, err
		}
		res.Insert = &ins

	case CmdDuplicate:
		ins, err := s.Duplicate(vectorOr(cmd.Movement))
		if err != nil {
			return res, err
		}
		res.Insert = &ins

	case CmdMove, CmdNudge:
		if cmd.Movement == nil {
			return res, missing(cmd, "movement")
		}
		ids, opts := cmd.NodeIDs, cmd.Options
		if cmd.Type == CmdNudge {
			ids, opts = s.selection, MoveOptions{}
		}
		mv, err := s.Move(ids, *cmd.Movement, opts)
		if err != nil {
			return res, err
		}
		res.Movement, res.Snapping = &mv.Movement, mv.Snapping

	case CmdTransform:
		if cmd.Transform == nil {
			return res, missing(cmd, "transform")
		}
		return res, s.CommitTransform(cmd.NodeID, *cmd.Transform)

	case CmdPatch:
		if cmd.Patch == nil {
			return res, missing(cmd, "patch")
		}
		return res, s.PatchNode(cmd.NodeID, *cmd.Patch)

	case CmdDelete:
		ids := cmd.NodeIDs
		if len(ids) == 0 {
			ids = s.selection
		}
		return res, s.Delete(ids...)

	case CmdReparent:
		index := -1
		if cmd.Index != nil {
			index = *cmd.Index
		}
		return res, s.Reparent(cmd.NodeID, cmd.ParentID, index)

	case CmdSetPaint:
		if cmd.Paint == nil {
			return res, missing(cmd, "paint")
		}
		return res, s.SetPaint(cmd.NodeID, cmd.Target, cmd.PaintIndex, *cmd.Paint)

	case CmdSelect:
		return res, s.SetSelection(cmd.NodeIDs)

	case CmdLasso:
		s.LassoSelect(cmd.Polygon)

	case CmdSetView:
		if cmd.View == nil || cmd.Screen == nil {
			return res, missing(cmd, "view and screen")
		}
		s.SetView(*cmd.View, *cmd.Screen)
		res.View = cmd.View

	case CmdFitSelection:
		focus, err := s.FitSelection()
		if err != nil {
			return res, err
		}
		res.Focus = &focus
		view := s.view
		res.View = &view

	case CmdFitAll:
		s.ZoomToFit()
		view := s.view
		res.View = &view

	case CmdGuideAdd:
		if cmd.Axis == nil || cmd.Offset == nil {
			return res, missing(cmd, "axis and offset")
		}
		g := s.AddGuide(*cmd.Axis, *cmd.Offset)
		res.Guide = &g

	case CmdGuideMove:
		if cmd.Offset == nil {
			return res, missing(cmd, "offset")
		}
		return res, s.MoveGuide(cmd.GuideID, *cmd.Offset)

	case CmdGuideRemove:
		return res, s.RemoveGuide(cmd.GuideID)

	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return res, nil
}

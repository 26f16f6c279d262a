package engine

import (
	"github.com/driftboard/canvas/backend-go/internal/document"
	"github.com/driftboard/canvas/backend-go/internal/geom"
)

// DrawCommand is one entry of the display list handed to the renderer.
// The list describes what to draw and in which order; rasterizing it is the
// renderer's job.
type DrawCommand struct {
	Op          string           `json:"op"` // node type, or "save", "clip", "restore"
	NodeID      string           `json:"nodeId,omitempty"`
	Transform   []float64        `json:"transform,omitempty"` // [a, b, c, d, e, f]
	Width       float64          `json:"width,omitempty"`
	Height      float64          `json:"height,omitempty"`
	Fills       []document.Paint `json:"fills,omitempty"`
	Strokes     []document.Paint `json:"strokes,omitempty"`
	StrokeWidth float64          `json:"strokeWidth,omitempty"`
	Opacity     float64          `json:"opacity,omitempty"`
	Text        string           `json:"text,omitempty"`
	Src         string           `json:"src,omitempty"`
}

func transformSlice(m geom.Matrix2D) []float64 {
	return []float64{m[0], m[1], m[2], m[3], m[4], m[5]}
}

// CompileDisplayList flattens the visible scene into painter's order.
// Containers clip their children; groups only contribute their children.
func CompileDisplayList(doc *document.Document, idx *SceneIndex) []DrawCommand {
	if doc == nil || idx == nil {
		return nil
	}
	var commands []DrawCommand
	for _, id := range doc.Scene.ChildrenRefs {
		compileNode(doc, idx, id, &commands)
	}
	return commands
}

func compileNode(doc *document.Document, idx *SceneIndex, id string, commands *[]DrawCommand) {
	obj, ok := doc.Nodes[id]
	if !ok {
		return
	}
	node, ok := idx.Node(id)
	if !ok || !node.Visible {
		return
	}

	if obj.Type != document.NodeTypeGroup {
		*commands = append(*commands, DrawCommand{
			Op:          string(obj.Type),
			NodeID:      id,
			Transform:   transformSlice(node.WorldTransform),
			Width:       node.Size.X,
			Height:      node.Size.Y,
			Fills:       obj.Paints(document.TargetFill).AsList(),
			Strokes:     obj.Paints(document.TargetStroke).AsList(),
			StrokeWidth: obj.StrokeWidth,
			Opacity:     node.Opacity,
			Text:        obj.Text,
			Src:         obj.Src,
		})
	}

	clip := obj.Type == document.NodeTypeContainer && len(obj.Children) > 0
	if clip {
		*commands = append(*commands,
			DrawCommand{Op: "save"},
			DrawCommand{
				Op:        "clip",
				NodeID:    id,
				Transform: transformSlice(node.WorldTransform),
				Width:     node.Size.X,
				Height:    node.Size.Y,
			},
		)
	}

	for _, c := range obj.Children {
		compileNode(doc, idx, c, commands)
	}

	if clip {
		*commands = append(*commands, DrawCommand{Op: "restore"})
	}
}

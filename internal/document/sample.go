package document

import (
	"github.com/driftboard/canvas/backend-go/internal/typeid"
)

func solid(hex string) *Paint {
	p, err := Solid(hex)
	if err != nil {
		panic(err)
	}
	return &p
}

// NewSampleDocument returns a small scene: a frame holding a rectangle and
// an ellipse, a free-standing rectangle, and a caption.
func NewSampleDocument() *Document {
	doc := New("Untitled")

	frameID := typeid.NewNodeID()
	rectID := typeid.NewNodeID()
	ellipseID := typeid.NewNodeID()
	cardID := typeid.NewNodeID()
	captionID := typeid.NewNodeID()

	framePtr := &frameID

	doc.Nodes = map[string]*Node{
		frameID: {
			ID:       frameID,
			Type:     NodeTypeContainer,
			Name:     "Frame",
			Children: []string{rectID, ellipseID},
			Left:     Float(100),
			Top:      Float(100),
			Width:    Float(600),
			Height:   Float(400),
			Fill:     solid("#1a1a2e"),
		},
		rectID: {
			ID:          rectID,
			Type:        NodeTypeRectangle,
			Name:        "Rectangle",
			Parent:      framePtr,
			Left:        Float(40),
			Top:         Float(40),
			Width:       Float(200),
			Height:      Float(150),
			Fill:        solid("#e94560"),
			Stroke:      solid("#000000"),
			StrokeWidth: 2,
		},
		ellipseID: {
			ID:     ellipseID,
			Type:   NodeTypeEllipse,
			Name:   "Ellipse",
			Parent: framePtr,
			Left:   Float(320),
			Top:    Float(120),
			Width:  Float(240),
			Height: Float(160),
			Fill:   solid("#0f3460"),
		},
		cardID: {
			ID:     cardID,
			Type:   NodeTypeRectangle,
			Name:   "Card",
			Left:   Float(800),
			Top:    Float(100),
			Width:  Float(200),
			Height: Float(150),
			Fill:   solid("#53d769"),
		},
		captionID: {
			ID:   captionID,
			Type: NodeTypeText,
			Name: "Caption",
			Left: Float(100),
			Top:  Float(540),
			Text: "Untitled",
			Fill: solid("#ffffff"),
		},
	}
	doc.Scene.ChildrenRefs = []string{frameID, cardID, captionID}
	return doc
}

package document

import (
	"encoding/json"
	"fmt"
)

// Decode parses a document and rejects it unless it is structurally sound.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Nodes == nil {
		doc.Nodes = map[string]*Node{}
	}
	if doc.Scene.ChildrenRefs == nil {
		doc.Scene.ChildrenRefs = []string{}
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// DecodePacked parses a packed scene and validates it.
func DecodePacked(data []byte) (*PackedScene, error) {
	var p PackedScene
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode packed scene: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

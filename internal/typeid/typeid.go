package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixDocument = "doc"
	PrefixScene    = "scene"
	PrefixNode     = "node"
	PrefixGuide    = "guide"
	PrefixPaint    = "paint"
	PrefixOp       = "op"
	PrefixImage    = "img"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewDocumentID() string { return New(PrefixDocument) }
func NewSceneID() string    { return New(PrefixScene) }
func NewNodeID() string     { return New(PrefixNode) }
func NewGuideID() string    { return New(PrefixGuide) }
func NewPaintID() string    { return New(PrefixPaint) }
func NewOpID() string       { return New(PrefixOp) }
func NewImageID() string    { return New(PrefixImage) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}

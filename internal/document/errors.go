package document

import "errors"

var (
	ErrNodeNotFound        = errors.New("node not found")
	ErrDuplicateID         = errors.New("duplicate node id")
	ErrDanglingReference   = errors.New("dangling node reference")
	ErrNotContainer        = errors.New("node is not a container")
	ErrCycle               = errors.New("reparent would create a cycle")
	ErrMissingGeometry     = errors.New("node type requires explicit geometry")
	ErrInvalidGeometry     = errors.New("negative width or height")
	ErrInvalidPaintTarget  = errors.New("paint target must be fill or stroke")
	ErrNegativePaintIndex  = errors.New("paint index must be non-negative")
	ErrInvalidPaint        = errors.New("invalid paint")
	ErrGuideNotFound       = errors.New("guide not found")
	ErrEmptyID             = errors.New("node id is required")
	ErrInconsistentParent  = errors.New("parent reference does not match children list")
	ErrMultipleParents     = errors.New("node is referenced by more than one children list")
	ErrUnknownNodeType     = errors.New("unknown node type")
	ErrPackedSceneNotValid = errors.New("packed scene is not self-contained")
)

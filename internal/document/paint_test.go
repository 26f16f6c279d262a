package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSolid(t *testing.T, hex string) Paint {
	t.Helper()
	p, err := Solid(hex)
	require.NoError(t, err)
	return p
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#fff")
	require.NoError(t, err)
	assert.Equal(t, RGBA{R: 255, G: 255, B: 255, A: 1}, c)

	c, err = ParseColor("e94560")
	require.NoError(t, err)
	assert.Equal(t, RGBA{R: 0xe9, G: 0x45, B: 0x60, A: 1}, c)
	assert.Equal(t, "#e94560", c.Hex())

	c, err = ParseColor("#00000080")
	require.NoError(t, err)
	assert.InDelta(t, 128.0/255, c.A, 1e-9)
	assert.Equal(t, "#00000080", c.Hex())

	_, err = ParseColor("#zzz")
	assert.Error(t, err)
	_, err = ParseColor("not-a-color")
	assert.Error(t, err)
}

func TestPaintValidate(t *testing.T) {
	assert.NoError(t, mustSolid(t, "#000").Validate())
	assert.ErrorIs(t, Paint{Type: PaintSolid}.Validate(), ErrInvalidPaint)
	assert.ErrorIs(t, Paint{Type: "noise"}.Validate(), ErrInvalidPaint)
	assert.ErrorIs(t, ImagePaint("", "cover").Validate(), ErrInvalidPaint)

	g := LinearGradient(GradientStop{Offset: 0}, GradientStop{Offset: 1})
	assert.NoError(t, g.Validate())
	assert.NotEmpty(t, g.ID)
	g.Stops = append(g.Stops, GradientStop{Offset: 1.5})
	assert.ErrorIs(t, g.Validate(), ErrInvalidPaint)

	assert.Equal(t, PaintRadialGradient, RadialGradient().Type)
}

func TestResolvePaintsLegacyOnly(t *testing.T) {
	fill := mustSolid(t, "#e94560")
	n := &Node{ID: "n", Type: NodeTypeRectangle, Fill: &fill}

	res, err := ResolvePaints(n, TargetFill, 0)
	require.NoError(t, err)
	assert.Equal(t, []Paint{fill}, res.Paints)
	assert.Equal(t, 0, res.ResolvedIndex)

	res, err = ResolvePaints(n, TargetFill, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ResolvedIndex)
}

func TestResolvePaintsEmpty(t *testing.T) {
	n := &Node{ID: "n", Type: NodeTypeRectangle}

	res, err := ResolvePaints(n, TargetStroke, 3)
	require.NoError(t, err)
	assert.Equal(t, PaintResolution{Paints: []Paint{}, ResolvedIndex: 0}, res)

	p, err := GetTargetPaint(n, TargetStroke, 0)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestResolvePaintsLayersWin(t *testing.T) {
	legacy := mustSolid(t, "#111")
	n := &Node{ID: "n", Type: NodeTypeRectangle, Fill: &legacy, FillPaints: &[]Paint{}}

	res, err := ResolvePaints(n, TargetFill, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Paints, "a present empty list is not replaced by the legacy field")

	layers := []Paint{mustSolid(t, "#111"), mustSolid(t, "#222"), mustSolid(t, "#333")}
	n.FillPaints = &layers

	res, err = ResolvePaints(n, TargetFill, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ResolvedIndex)

	p, err := GetTargetPaint(n, TargetFill, 1)
	require.NoError(t, err)
	assert.Equal(t, layers[1], *p)
}

func TestResolvePaintsContract(t *testing.T) {
	n := &Node{ID: "n", Type: NodeTypeRectangle}

	_, err := ResolvePaints(n, "background", 0)
	assert.ErrorIs(t, err, ErrInvalidPaintTarget)

	_, err = ResolvePaints(n, TargetFill, -1)
	assert.ErrorIs(t, err, ErrNegativePaintIndex)

	_, err = ResolvePaints(nil, TargetFill, 0)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestUpdateTargetPaintOnEmptyNode(t *testing.T) {
	n := &Node{ID: "n", Type: NodeTypeRectangle}
	paint := mustSolid(t, "#e94560")

	require.NoError(t, UpdateTargetPaint(n, TargetFill, 5, paint))
	require.NotNil(t, n.Fill)
	assert.Equal(t, paint, *n.Fill)
	require.NotNil(t, n.FillPaints)
	assert.Equal(t, []Paint{paint}, *n.FillPaints)
	assert.Nil(t, n.Stroke)
}

func TestUpdateTargetPaintKeepsLegacyMirror(t *testing.T) {
	first, second := mustSolid(t, "#111"), mustSolid(t, "#222")
	n := &Node{ID: "n", Type: NodeTypeRectangle, StrokePaints: &[]Paint{first, second}}

	replacement := mustSolid(t, "#999")
	require.NoError(t, UpdateTargetPaint(n, TargetStroke, 1, replacement))
	assert.Equal(t, first, *n.Stroke)
	assert.Equal(t, []Paint{first, replacement}, *n.StrokePaints)

	require.NoError(t, UpdateTargetPaint(n, TargetStroke, 0, replacement))
	assert.Equal(t, replacement, *n.Stroke)

	assert.ErrorIs(t, UpdateTargetPaint(n, TargetStroke, 0, Paint{Type: PaintSolid}), ErrInvalidPaint)
}

func TestPaintsSyncLegacy(t *testing.T) {
	legacy := mustSolid(t, "#abc")
	p := Paints{Legacy: &legacy}
	p.SyncLegacy()
	require.NotNil(t, p.Layers)
	assert.Equal(t, []Paint{legacy}, *p.Layers)

	p = Paints{Legacy: &legacy, Layers: &[]Paint{}}
	p.SyncLegacy()
	assert.Nil(t, p.Legacy)
}

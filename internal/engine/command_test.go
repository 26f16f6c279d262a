package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftboard/canvas/backend-go/internal/document"
	"github.com/driftboard/canvas/backend-go/internal/geom"
)

func apply(t *testing.T, s *Session, raw string) (Result, error) {
	t.Helper()
	cmd, err := DecodeCommand([]byte(raw))
	require.NoError(t, err)
	return s.Apply(cmd)
}

func TestApplyMove(t *testing.T) {
	s := testSession(t)
	v := s.Version()

	res, err := apply(t, s, `{"id":"op1","type":"node.move","nodeIds":["c"],"movement":{"x":-97,"y":0},"options":{"snap":true}}`)
	require.NoError(t, err)
	assert.Equal(t, "op1", res.CommandID)
	assert.Equal(t, v+1, res.Version)
	require.NotNil(t, res.Movement)
	assert.Equal(t, geom.V(-100, 0), *res.Movement)
	assert.NotNil(t, res.Snapping)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"commandId":"op1"`)
}

func TestApplyInsertAndDelete(t *testing.T) {
	s := testSession(t)

	res, err := apply(t, s, `{"type":"node.insert","node":{"type":"rectangle","left":150,"top":150,"width":40,"height":40}}`)
	require.NoError(t, err)
	require.NotNil(t, res.Insert)
	assert.Equal(t, "frame", res.Insert.Parent)
	assert.Equal(t, res.Insert.IDs, res.Selection)

	_, err = apply(t, s, `{"type":"node.delete"}`)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Document().Len())
	assert.Empty(t, s.Selection())
}

func TestApplyEditing(t *testing.T) {
	s := testSession(t)

	_, err := apply(t, s, `{"type":"node.transform","nodeId":"c","transform":{"width":10}}`)
	require.NoError(t, err)
	n, _ := s.Document().Node("c")
	assert.Equal(t, 10.0, *n.Width)

	_, err = apply(t, s, `{"type":"node.patch","nodeId":"c","patch":{"name":"Card","opacity":2}}`)
	require.NoError(t, err)
	n, _ = s.Document().Node("c")
	assert.Equal(t, "Card", n.Name)
	assert.Equal(t, 1.0, *n.Opacity)

	_, err = apply(t, s, `{"type":"node.paint","nodeId":"c","target":"stroke","paint":{"type":"solid","color":{"r":0,"g":0,"b":0,"a":1}}}`)
	require.NoError(t, err)
	n, _ = s.Document().Node("c")
	require.NotNil(t, n.Stroke)
	assert.Equal(t, document.PaintSolid, n.Stroke.Type)

	_, err = apply(t, s, `{"type":"node.reparent","nodeId":"c","parentId":"frame","index":0}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, s.Document().ChildrenOf("frame"))
}

func TestApplySelectionAndView(t *testing.T) {
	s := testSession(t)

	res, err := apply(t, s, `{"type":"selection.set","nodeIds":["c"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, res.Selection)

	_, err = apply(t, s, `{"type":"selection.nudge","movement":{"x":0,"y":-1}}`)
	require.NoError(t, err)
	assert.Equal(t, geom.V(600, 99), position(t, s, "c"))

	res, err = apply(t, s, `{"type":"view.fit_selection"}`)
	require.NoError(t, err)
	require.NotNil(t, res.Focus)
	require.NotNil(t, res.View)

	res, err = apply(t, s, `{"type":"view.set","view":[2,0,0,2,0,0],"screen":{"x":0,"y":0,"width":800,"height":600}}`)
	require.NoError(t, err)
	assert.Equal(t, geom.Scale(2, 2), s.View())

	res, err = apply(t, s, `{"type":"selection.lasso","polygon":[{"x":110,"y":110},{"x":180,"y":110},{"x":180,"y":180},{"x":110,"y":180}]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Selection)

	res, err = apply(t, s, `{"type":"selection.duplicate","movement":{"x":10,"y":10}}`)
	require.NoError(t, err)
	require.NotNil(t, res.Insert)
	assert.Equal(t, 4, s.Document().Len())

	_, err = apply(t, s, `{"type":"view.fit_all"}`)
	require.NoError(t, err)
}

func TestApplyGuides(t *testing.T) {
	s := testSession(t)

	res, err := apply(t, s, `{"type":"guide.add","axis":"x","offset":42}`)
	require.NoError(t, err)
	require.NotNil(t, res.Guide)
	assert.Equal(t, geom.AxisX, res.Guide.Axis)
	assert.Equal(t, 42.0, res.Guide.Offset)

	_, err = apply(t, s, `{"type":"guide.move","guideId":"`+res.Guide.ID+`","offset":50}`)
	require.NoError(t, err)
	assert.Equal(t, 50.0, s.Document().Guides()[0].Offset)

	_, err = apply(t, s, `{"type":"guide.remove","guideId":"`+res.Guide.ID+`"}`)
	require.NoError(t, err)
	assert.Empty(t, s.Document().Guides())

	_, err = apply(t, s, `{"type":"guide.remove","guideId":"nope"}`)
	assert.ErrorIs(t, err, document.ErrGuideNotFound)
}

func TestApplyPaste(t *testing.T) {
	s := testSession(t)
	require.NoError(t, s.SetSelection([]string{"c"}))
	p, err := s.Copy()
	require.NoError(t, err)
	packed, err := json.Marshal(p)
	require.NoError(t, err)

	res, err := apply(t, s, `{"type":"scene.paste","packed":`+string(packed)+`,"movement":{"x":0,"y":200}}`)
	require.NoError(t, err)
	require.NotNil(t, res.Insert)
	require.Len(t, res.Insert.IDs, 1)
	assert.Equal(t, geom.V(600, 300), position(t, s, res.Insert.IDs[0]))
}

func TestApplyErrors(t *testing.T) {
	s := testSession(t)
	v := s.Version()

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"unknown type", `{"type":"node.explode"}`, ErrUnknownCommand},
		{"insert without node", `{"type":"node.insert"}`, ErrInvalidCommand},
		{"move without movement", `{"type":"node.move","nodeIds":["c"]}`, ErrInvalidCommand},
		{"guide without axis", `{"type":"guide.add","offset":1}`, ErrInvalidCommand},
		{"view without screen", `{"type":"view.set","view":[1,0,0,1,0,0]}`, ErrInvalidCommand},
		{"missing node", `{"type":"node.patch","nodeId":"ghost","patch":{}}`, document.ErrNodeNotFound},
		{"bad paint target", `{"type":"node.paint","nodeId":"c","target":"glow","paint":{"type":"solid","color":{"r":0,"g":0,"b":0,"a":1}}}`, document.ErrInvalidPaintTarget},
		{"fit without selection", `{"type":"view.fit_selection"}`, ErrEmptySelection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := apply(t, s, tt.raw)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, v, s.Version())

	_, err := DecodeCommand([]byte(`{"id":"x"}`))
	assert.ErrorIs(t, err, ErrInvalidCommand)
	_, err = DecodeCommand([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

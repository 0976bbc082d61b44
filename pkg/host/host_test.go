package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/libswap/pkg/host"
	"github.com/gnana997/libswap/pkg/host/memhost"
)

func TestRGB_Hex(t *testing.T) {
	tests := []struct {
		c    host.RGB
		want string
	}{
		{host.RGB{}, "#000000"},
		{host.RGB{R: 1, G: 1, B: 1}, "#FFFFFF"},
		{host.RGB{R: 0.5, G: 0.25, B: 0.75}, "#8040BF"},
		{host.RGB{R: 1.2, G: -0.1, B: 0}, "#FF0000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Hex())
		})
	}
}

func TestStyle_FirstSolid(t *testing.T) {
	s := host.Style{Paints: []host.Paint{
		{Type: host.PaintImage},
		{Type: host.PaintSolid, Color: host.RGB{R: 1}},
	}}
	p, ok := s.FirstSolid()
	require.True(t, ok)
	assert.Equal(t, "#FF0000", p.Color.Hex())

	_, ok = host.Style{}.FirstSolid()
	assert.False(t, ok)
}

func TestVariable_FirstColor(t *testing.T) {
	red := host.RGB{R: 1}
	v := host.Variable{Type: host.VariableColor, Values: []host.ModeValue{{Mode: "light", Color: &red}, {Mode: "dark"}}}
	c, ok := v.FirstColor()
	require.True(t, ok)
	assert.Equal(t, red, c)

	_, ok = host.Variable{Type: host.VariableFloat, Values: []host.ModeValue{{Float: 4}}}.FirstColor()
	assert.False(t, ok)
}

func TestLayout_NonDefault(t *testing.T) {
	assert.True(t, host.DefaultLayout().NonDefault().IsZero())

	l := host.DefaultLayout()
	l.Mode = "HORIZONTAL"
	l.ItemSpacing = 8
	assert.Equal(t, host.Layout{Mode: "HORIZONTAL", ItemSpacing: 8}, l.NonDefault())
}

func TestLayout_Overlay(t *testing.T) {
	base := host.DefaultLayout()
	got := base.Overlay(host.Layout{Mode: "VERTICAL", PaddingTop: 12})

	assert.Equal(t, "VERTICAL", got.Mode)
	assert.Equal(t, 12.0, got.PaddingTop)
	assert.Equal(t, base.Align, got.Align)
	assert.Equal(t, base, base.Overlay(host.Layout{}))
}

func TestWalk(t *testing.T) {
	doc, err := memhost.New(memhost.DocSpec{
		Name: "Walk",
		Pages: []memhost.PageSpec{{ID: "0:1", Children: []memhost.NodeSpec{
			{Type: host.NodeFrame, ID: "1:1", Children: []memhost.NodeSpec{
				{Type: host.NodeFrame, ID: "1:2", Children: []memhost.NodeSpec{
					{Type: host.NodeRectangle, ID: "1:3"},
				}},
				{Type: host.NodeRectangle, ID: "1:4"},
			}},
		}}},
	})
	require.NoError(t, err)
	root := doc.Node("1:1")

	t.Run("descendants in order", func(t *testing.T) {
		assert.Equal(t, []string{"1:2", "1:3", "1:4"}, ids(host.Descendants(root)))
	})

	t.Run("false skips children", func(t *testing.T) {
		var seen []string
		host.Walk(root, func(n host.Node) bool {
			seen = append(seen, n.ID())
			return n.ID() != "1:2"
		})
		assert.Equal(t, []string{"1:1", "1:2", "1:4"}, seen)
	})

	t.Run("leaf", func(t *testing.T) {
		assert.Empty(t, host.Descendants(doc.Node("1:4")))
	})
}

// --- Helpers ---

func ids(nodes []host.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}

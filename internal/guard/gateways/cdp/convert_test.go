package cdp

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromNode(t *testing.T) {
	doc := &proto.DOMNode{
		NodeID:   1,
		NodeType: 9,
		NodeName: "#document",
		Children: []*proto.DOMNode{{
			NodeID:   2,
			NodeType: nodeElement,
			NodeName: "HTML",
			Children: []*proto.DOMNode{
				{
					NodeID:     3,
					NodeType:   nodeElement,
					NodeName:   "SCRIPT",
					Attributes: []string{"type", "text/javascript"},
					Children: []*proto.DOMNode{
						{NodeID: 4, NodeType: nodeText, NodeName: "#text", NodeValue: "window.open("},
						{NodeID: 5, NodeType: nodeText, NodeName: "#text", NodeValue: "'x')"},
					},
				},
				{
					NodeID:     6,
					NodeType:   nodeElement,
					NodeName:   "IFRAME",
					Attributes: []string{"SRC", "https://ads.example/f", "style", "display: none"},
				},
			},
		}},
	}

	root := fromNode(doc)
	require.NotNil(t, root)
	assert.Equal(t, int64(1), root.Ref)
	assert.Empty(t, root.Tag)
	require.Len(t, root.Children, 1)

	html := root.Children[0]
	assert.True(t, html.Is("html"))
	assert.Same(t, root, html.Parent)
	require.Len(t, html.Children, 2)

	script := html.Children[0]
	assert.Equal(t, int64(3), script.Ref)
	assert.Equal(t, "window.open('x')", script.Text)
	assert.Equal(t, "text/javascript", script.Attr("type"))
	assert.Empty(t, script.Children)

	iframe := html.Children[1]
	assert.Equal(t, "https://ads.example/f", iframe.Attr("src"))
	assert.Equal(t, "none", iframe.Style.Display)
	assert.Nil(t, iframe.Box)
}

func TestFromNode_Nil(t *testing.T) {
	assert.Nil(t, fromNode(nil))
}

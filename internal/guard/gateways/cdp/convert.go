package cdp

import (
	"strings"

	"github.com/go-rod/rod/lib/proto"

	"github.com/haukened/popguard/internal/guard/domain"
)

const (
	nodeElement = 1
	nodeText    = 3
)

// fromNode converts a CDP node and whatever subtree came with it. Script
// text children become the script's Text.
func fromNode(n *proto.DOMNode) *domain.Element {
	if n == nil {
		return nil
	}
	el := &domain.Element{Ref: int64(n.NodeID)}
	if n.NodeType == nodeElement {
		attrs := make([]string, 0, len(n.Attributes))
		attrs = append(attrs, n.Attributes...)
		el = domain.NewElement(n.NodeName, attrs...)
		el.Ref = int64(n.NodeID)
	}

	var text strings.Builder
	for _, c := range n.Children {
		if c.NodeType == nodeText {
			text.WriteString(c.NodeValue)
			continue
		}
		if child := fromNode(c); child != nil {
			el.Append(child)
		}
	}
	if el.Is("SCRIPT") {
		el.Text = text.String()
	}
	return el
}

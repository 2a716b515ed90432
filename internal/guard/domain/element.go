package domain

import "strings"

// Element is the engine's view of a DOM node. Adapters build Element trees
// from whatever the browser surface provides; the engine and watcher only read
// them and ask the adapter to detach denied ones.
type Element struct {
	// Ref is the adapter's handle for the node (a CDP node id, for example).
	Ref int64
	// Tag is the upper-case tag name; empty for text and comment nodes.
	Tag string
	// Attrs holds attributes keyed by lower-case name.
	Attrs map[string]string
	// Text is the node's text content, used for inline scripts.
	Text string
	// Style is the computed style when the adapter knows it, otherwise the
	// parsed inline style attribute.
	Style Style
	// Box is the rendered size, nil when layout information is unavailable.
	Box *Box

	Parent   *Element
	Children []*Element
}

// Style is the subset of CSS properties the hidden-iframe check reads.
type Style struct {
	Width      string
	Height     string
	Display    string
	Visibility string
}

// Box is a rendered element size in CSS pixels.
type Box struct {
	Width  float64
	Height float64
}

// NewElement builds a detached element. attrs are name/value pairs.
func NewElement(tag string, attrs ...string) *Element {
	el := &Element{Tag: strings.ToUpper(tag), Attrs: make(map[string]string, len(attrs)/2)}
	for i := 0; i+1 < len(attrs); i += 2 {
		el.SetAttr(attrs[i], attrs[i+1])
	}
	if s, ok := el.Attrs["style"]; ok {
		el.Style = ParseInlineStyle(s)
	}
	return el
}

// Attr returns the attribute value, "" when absent.
func (e *Element) Attr(name string) string {
	if e == nil || e.Attrs == nil {
		return ""
	}
	return e.Attrs[strings.ToLower(name)]
}

// HasAttr reports whether the attribute is present, even if empty.
func (e *Element) HasAttr(name string) bool {
	if e == nil || e.Attrs == nil {
		return false
	}
	_, ok := e.Attrs[strings.ToLower(name)]
	return ok
}

// SetAttr sets an attribute.
func (e *Element) SetAttr(name, value string) {
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[strings.ToLower(name)] = value
}

// Is reports whether the element has the given tag (case-insensitive).
func (e *Element) Is(tag string) bool {
	return e != nil && e.Tag == strings.ToUpper(tag)
}

// Append attaches children to e and returns e.
func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.Detach()
		c.Parent = e
		e.Children = append(e.Children, c)
	}
	return e
}

// Detach removes e from its parent's children.
func (e *Element) Detach() {
	if e == nil || e.Parent == nil {
		return
	}
	siblings := e.Parent.Children
	for i, c := range siblings {
		if c == e {
			e.Parent.Children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	e.Parent = nil
}

// Closest walks from e up through its ancestors and returns the first element
// with the given tag, or nil.
func (e *Element) Closest(tag string) *Element {
	for n := e; n != nil; n = n.Parent {
		if n.Is(tag) {
			return n
		}
	}
	return nil
}

// Walk visits e and its descendants depth-first. Returning false from visit
// skips the node's subtree.
func (e *Element) Walk(visit func(*Element) bool) {
	if e == nil {
		return
	}
	if !visit(e) {
		return
	}
	// copy: visit may detach children
	children := append([]*Element(nil), e.Children...)
	for _, c := range children {
		c.Walk(visit)
	}
}

// ParseInlineStyle extracts the properties of Style from a style attribute.
func ParseInlineStyle(s string) Style {
	var st Style
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "width":
			st.Width = strings.ToLower(value)
		case "height":
			st.Height = strings.ToLower(value)
		case "display":
			st.Display = strings.ToLower(value)
		case "visibility":
			st.Visibility = strings.ToLower(value)
		}
	}
	return st
}

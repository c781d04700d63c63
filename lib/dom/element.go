package dom

import (
	"bytes"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a stable handle on a node in a document. Two lookups of the
// same underlying node return the same *Element, so elements can key maps
// (wiring markers, SSE records) across scan passes.
type Element struct {
	doc  *Document
	node *html.Node

	listeners []listener
	shadow    *ShadowRoot

	value      string
	valueSet   bool
	checked    bool
	checkedSet bool
}

// Tag returns the lowercase tag name, or "" for non-element nodes.
func (el *Element) Tag() string {
	if el.node.Type != html.ElementNode {
		return ""
	}
	return el.node.Data
}

// Document returns the owning document.
func (el *Element) Document() *Document { return el.doc }

// Attr returns the value of the named attribute and whether it is present.
func (el *Element) Attr(name string) (string, bool) {
	for _, a := range el.node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the named attribute is present.
func (el *Element) HasAttr(name string) bool {
	_, ok := el.Attr(name)
	return ok
}

// SetAttr sets the named attribute, replacing any existing value.
func (el *Element) SetAttr(name, value string) {
	for i, a := range el.node.Attr {
		if a.Key == name {
			el.node.Attr[i].Val = value
			return
		}
	}
	el.node.Attr = append(el.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr removes the named attribute if present.
func (el *Element) RemoveAttr(name string) {
	for i, a := range el.node.Attr {
		if a.Key == name {
			el.node.Attr = append(el.node.Attr[:i], el.node.Attr[i+1:]...)
			return
		}
	}
}

// Attribute is a name/value pair on an element.
type Attribute struct {
	Name  string
	Value string
}

// Attributes returns a snapshot of the element's attributes in document
// order. The scanner iterates this to discover directives.
func (el *Element) Attributes() []Attribute {
	out := make([]Attribute, 0, len(el.node.Attr))
	for _, a := range el.node.Attr {
		out = append(out, Attribute{Name: a.Key, Value: a.Val})
	}
	return out
}

// ID returns the id attribute.
func (el *Element) ID() string {
	id, _ := el.Attr("id")
	return id
}

// HasClass reports whether the class attribute contains name.
func (el *Element) HasClass(name string) bool {
	class, _ := el.Attr("class")
	for _, c := range strings.Fields(class) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass adds name to the class attribute if not already present.
func (el *Element) AddClass(name string) {
	if el.HasClass(name) {
		return
	}
	class, _ := el.Attr("class")
	if class == "" {
		el.SetAttr("class", name)
		return
	}
	el.SetAttr("class", class+" "+name)
}

// RemoveClass removes name from the class attribute.
func (el *Element) RemoveClass(name string) {
	class, ok := el.Attr("class")
	if !ok {
		return
	}
	fields := strings.Fields(class)
	kept := fields[:0]
	for _, c := range fields {
		if c != name {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		el.RemoveAttr("class")
		return
	}
	el.SetAttr("class", strings.Join(kept, " "))
}

// Style returns the inline style declaration for prop, parsed from the
// style attribute.
func (el *Element) Style(prop string) string {
	style, _ := el.Attr("style")
	for _, decl := range strings.Split(style, ";") {
		name, val, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(name) == prop {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

// SetStyle sets one inline style declaration, preserving the others.
// An empty value removes the declaration.
func (el *Element) SetStyle(prop, value string) {
	style, _ := el.Attr("style")
	var kept []string
	for _, decl := range strings.Split(style, ";") {
		name, _, ok := strings.Cut(decl, ":")
		if strings.TrimSpace(decl) == "" {
			continue
		}
		if ok && strings.TrimSpace(name) == prop {
			continue
		}
		kept = append(kept, strings.TrimSpace(decl))
	}
	if value != "" {
		kept = append(kept, prop+": "+value)
	}
	if len(kept) == 0 {
		el.RemoveAttr("style")
		return
	}
	el.SetAttr("style", strings.Join(kept, "; "))
}

// Text returns the concatenated text content of the subtree.
func (el *Element) Text() string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(el.node)
	return sb.String()
}

// SetText replaces the element's children with a single text node.
func (el *Element) SetText(s string) {
	el.removeAllChildren()
	el.node.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// InnerHTML serializes the element's children.
func (el *Element) InnerHTML() string {
	var buf bytes.Buffer
	for c := el.node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

// OuterHTML serializes the element including its own tag.
func (el *Element) OuterHTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, el.node); err != nil {
		return ""
	}
	return buf.String()
}

// Parent returns the parent element, or nil at the top of a tree.
func (el *Element) Parent() *Element {
	p := el.node.Parent
	for p != nil && p.Type != html.ElementNode {
		p = p.Parent
	}
	if p == nil {
		return nil
	}
	return el.doc.element(p)
}

// Children returns the child elements (element nodes only).
func (el *Element) Children() []*Element {
	var out []*Element
	for c := el.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, el.doc.element(c))
		}
	}
	return out
}

// HasContent reports whether the element has child elements or
// non-whitespace text. Used for only-if-missing swap checks.
func (el *Element) HasContent() bool {
	for c := el.node.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			return true
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return true
			}
		}
	}
	return false
}

// IsConnected reports whether the element is attached to its root's tree.
// Elements inside a shadow root are connected while the host is.
func (el *Element) IsConnected() bool {
	n := el.node
	for n.Parent != nil {
		n = n.Parent
	}
	if n == el.doc.node {
		return true
	}
	if sr := el.doc.shadowByTop(n); sr != nil {
		return sr.host.IsConnected()
	}
	return false
}

// Root returns the root that owns this element: the document, or the
// shadow root whose tree contains it.
func (el *Element) Root() Root {
	n := el.node
	for n.Parent != nil {
		n = n.Parent
	}
	if sr := el.doc.shadowByTop(n); sr != nil {
		return sr
	}
	return el.doc
}

// Matches reports whether the element matches the CSS selector.
func (el *Element) Matches(selector string) bool {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return false
	}
	return sel.Match(el.node)
}

// Query returns the first descendant matching the CSS selector, or nil.
func (el *Element) Query(selector string) *Element {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil
	}
	node := cascadia.Query(el.node, sel)
	if node == nil {
		return nil
	}
	return el.doc.element(node)
}

// QueryAll returns all descendants matching the CSS selector.
func (el *Element) QueryAll(selector string) []*Element {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil
	}
	nodes := cascadia.QueryAll(el.node, sel)
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, el.doc.element(n))
	}
	return out
}

// Closest returns the nearest ancestor (or the element itself) matching
// the CSS selector, or nil. Does not cross shadow boundaries.
func (el *Element) Closest(selector string) *Element {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil
	}
	for cur := el; cur != nil; cur = cur.Parent() {
		if sel.Match(cur.node) {
			return cur
		}
	}
	return nil
}

// Walk visits the element and every descendant element in document order.
func (el *Element) Walk(fn func(*Element)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			fn(el.doc.element(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(el.node)
}

// IsFormControl reports whether the element is an input, select, or
// textarea.
func (el *Element) IsFormControl() bool {
	switch el.node.DataAtom {
	case atom.Input, atom.Select, atom.Textarea:
		return true
	}
	return false
}

// InputType returns the type attribute for inputs, defaulting to "text".
func (el *Element) InputType() string {
	if el.node.DataAtom != atom.Input {
		return ""
	}
	if t, ok := el.Attr("type"); ok {
		return strings.ToLower(t)
	}
	return "text"
}

// Value returns the element's current value: the live value if one has
// been set, else the value attribute (or text content for textareas).
func (el *Element) Value() string {
	if el.valueSet {
		return el.value
	}
	if el.node.DataAtom == atom.Textarea {
		return el.Text()
	}
	v, _ := el.Attr("value")
	return v
}

// SetValue sets the element's live value without touching the value
// attribute, matching browser input semantics.
func (el *Element) SetValue(v string) {
	el.value = v
	el.valueSet = true
}

// Checked returns the checkbox/radio checked state: the live state if one
// has been set, else the checked attribute.
func (el *Element) Checked() bool {
	if el.checkedSet {
		return el.checked
	}
	return el.HasAttr("checked")
}

// SetChecked sets the live checked state.
func (el *Element) SetChecked(v bool) {
	el.checked = v
	el.checkedSet = true
}

// Dataset returns the data-* attributes with the prefix stripped.
func (el *Element) Dataset() map[string]string {
	out := make(map[string]string)
	for _, a := range el.node.Attr {
		if name, ok := strings.CutPrefix(a.Key, "data-"); ok {
			out[name] = a.Val
		}
	}
	return out
}

// AppendChild moves child to the end of the element's children.
func (el *Element) AppendChild(child *Element) {
	detach(child.node)
	el.node.AppendChild(child.node)
	el.doc.recordMutation(el, []*Element{child}, nil)
}

// Append moves nodes to the end of the element's children.
func (el *Element) Append(nodes []*Element) {
	for _, n := range nodes {
		detach(n.node)
		el.node.AppendChild(n.node)
	}
	el.doc.recordMutation(el, nodes, nil)
}

// Prepend moves nodes to the start of the element's children.
func (el *Element) Prepend(nodes []*Element) {
	first := el.node.FirstChild
	for _, n := range nodes {
		detach(n.node)
		if first != nil {
			el.node.InsertBefore(n.node, first)
		} else {
			el.node.AppendChild(n.node)
		}
	}
	el.doc.recordMutation(el, nodes, nil)
}

// Before inserts nodes as preceding siblings of the element.
func (el *Element) Before(nodes []*Element) {
	parent := el.node.Parent
	if parent == nil {
		return
	}
	for _, n := range nodes {
		detach(n.node)
		parent.InsertBefore(n.node, el.node)
	}
	el.doc.recordMutation(el.doc.element(parent), nodes, nil)
}

// After inserts nodes as following siblings of the element.
func (el *Element) After(nodes []*Element) {
	parent := el.node.Parent
	if parent == nil {
		return
	}
	ref := el.node.NextSibling
	for _, n := range nodes {
		detach(n.node)
		if ref != nil {
			parent.InsertBefore(n.node, ref)
		} else {
			parent.AppendChild(n.node)
		}
	}
	el.doc.recordMutation(el.doc.element(parent), nodes, nil)
}

// ReplaceWith replaces the element with nodes.
func (el *Element) ReplaceWith(nodes []*Element) {
	parent := el.node.Parent
	if parent == nil {
		return
	}
	el.Before(nodes)
	parent.RemoveChild(el.node)
	el.doc.recordMutation(el.doc.element(parent), nil, []*Element{el})
}

// Remove detaches the element from its parent.
func (el *Element) Remove() {
	parent := el.node.Parent
	if parent == nil {
		return
	}
	parent.RemoveChild(el.node)
	el.doc.recordMutation(el.doc.element(parent), nil, []*Element{el})
}

// SetChildren replaces the element's children with nodes.
func (el *Element) SetChildren(nodes []*Element) {
	removed := el.removeAllChildren()
	for _, n := range nodes {
		detach(n.node)
		el.node.AppendChild(n.node)
	}
	el.doc.recordMutation(el, nodes, removed)
}

func (el *Element) removeAllChildren() []*Element {
	var removed []*Element
	for el.node.FirstChild != nil {
		c := el.node.FirstChild
		if c.Type == html.ElementNode {
			removed = append(removed, el.doc.element(c))
		}
		el.node.RemoveChild(c)
	}
	return removed
}

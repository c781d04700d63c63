package dom

import "golang.org/x/net/html"

// ShadowRoot is an independent element tree attached to a host element.
// It shares the host document's turn lock, microtask queue, and observer
// machinery but is traversed and enhanced separately.
type ShadowRoot struct {
	doc  *Document
	host *Element
	top  *html.Node
}

// AttachShadow creates (or returns the existing) shadow root for the
// element.
func (el *Element) AttachShadow() *ShadowRoot {
	if el.shadow != nil {
		return el.shadow
	}
	top := &html.Node{Type: html.ElementNode, Data: "shadow-root"}
	sr := &ShadowRoot{doc: el.doc, host: el, top: top}
	el.shadow = sr
	if el.doc.shadows == nil {
		el.doc.shadows = make(map[*html.Node]*ShadowRoot)
	}
	el.doc.shadows[top] = sr
	return sr
}

// Shadow returns the element's shadow root, or nil.
func (el *Element) Shadow() *ShadowRoot { return el.shadow }

// Doc implements Root.
func (sr *ShadowRoot) Doc() *Document { return sr.doc }

// Top implements Root: the shadow container element.
func (sr *ShadowRoot) Top() *Element { return sr.doc.element(sr.top) }

// Host implements Root: the element this shadow root is attached to.
func (sr *ShadowRoot) Host() *Element { return sr.host }

// SetInnerHTML replaces the shadow tree with parsed markup.
func (sr *ShadowRoot) SetInnerHTML(s string) error {
	nodes, err := sr.doc.ParseFragment(sr.Top(), s)
	if err != nil {
		return err
	}
	sr.Top().SetChildren(nodes)
	return nil
}

func (d *Document) shadowByTop(n *html.Node) *ShadowRoot {
	if d.shadows == nil {
		return nil
	}
	return d.shadows[n]
}

// ShadowRoots returns the shadow roots attached to elements under root, in
// document order. The runtime uses this to enhance shadow trees
// recursively.
func ShadowRoots(root Root) []*ShadowRoot {
	var out []*ShadowRoot
	top := root.Top()
	if top == nil {
		return nil
	}
	top.Walk(func(el *Element) {
		if el.shadow != nil {
			out = append(out, el.shadow)
		}
	})
	return out
}

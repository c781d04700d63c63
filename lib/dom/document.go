package dom

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Root is a scope the runtime can enhance: either the Document itself or a
// ShadowRoot attached to one of its elements. Each root owns an independent
// element tree but all roots of a document share one turn lock and one
// microtask queue.
type Root interface {
	// Doc returns the owning document.
	Doc() *Document

	// Top returns the container element for traversal and serialization:
	// the <html> element for a document, the shadow container for a
	// shadow root.
	Top() *Element

	// Host returns the element hosting this root, or nil for a document.
	Host() *Element
}

// Document owns a parsed HTML tree and the runtime services layered on it.
type Document struct {
	mu   sync.Mutex
	node *html.Node // the html.Document node

	elems   map[*html.Node]*Element
	shadows map[*html.Node]*ShadowRoot

	microtasks []func()

	observers []*Observer
	pending   []Mutation
	nextLID   int
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	node, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{node: node, elems: make(map[*html.Node]*Element)}, nil
}

// ParseString parses an HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Doc implements Root.
func (d *Document) Doc() *Document { return d }

// Host implements Root. A document has no host element.
func (d *Document) Host() *Element { return nil }

// Top returns the document element (<html>).
func (d *Document) Top() *Element {
	for n := d.node.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			return d.element(n)
		}
	}
	return nil
}

// Body returns the <body> element, or the document element if the tree has
// no body (fragment-shaped documents).
func (d *Document) Body() *Element {
	top := d.Top()
	if top == nil {
		return nil
	}
	for n := top.node.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			return d.element(n)
		}
	}
	return top
}

// CreateElement returns a new detached element with the given tag.
func (d *Document) CreateElement(tag string) *Element {
	a := atom.Lookup([]byte(tag))
	node := &html.Node{Type: html.ElementNode, DataAtom: a, Data: tag}
	return d.element(node)
}

// element returns the stable wrapper for node, creating it on first use.
// Handle identity is what lets the runtime key wiring markers and SSE
// records by element.
func (d *Document) element(node *html.Node) *Element {
	if el, ok := d.elems[node]; ok {
		return el
	}
	el := &Element{doc: d, node: node}
	d.elems[node] = el
	return el
}

// Run executes fn as a turn: exclusive access to the tree, with the
// microtask queue and mutation batches draining when fn returns. Turns
// do not nest - code already running inside a turn (listeners,
// microtasks, observer callbacks) calls the in-turn variants
// (DispatchInTurn, direct mutation) instead of Run.
func (d *Document) Run(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
	d.drain()
}

// QueueMicrotask schedules fn to run when the current turn ends. Outside a
// turn the task is held until the next turn or an explicit Flush.
func (d *Document) QueueMicrotask(fn func()) {
	d.microtasks = append(d.microtasks, fn)
}

// Flush drains pending microtasks and mutation batches outside a turn.
// Single-goroutine callers (tests, server-side rendering) that mutate the
// document directly use this in place of Run.
func (d *Document) Flush() {
	d.drain()
}

func (d *Document) drain() {
	for len(d.microtasks) > 0 || len(d.pending) > 0 {
		for len(d.microtasks) > 0 {
			task := d.microtasks[0]
			d.microtasks = d.microtasks[1:]
			task()
		}
		d.deliverMutations()
	}
}

// ParseFragment parses s as markup in the context of element ctx and
// returns the resulting detached elements and text nodes.
func (d *Document) ParseFragment(ctx *Element, s string) ([]*Element, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: ctx.node.DataAtom,
		Data:     ctx.node.Data,
	}
	nodes, err := html.ParseFragment(strings.NewReader(s), context)
	if err != nil {
		return nil, err
	}
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		detach(n)
		out = append(out, d.element(n))
	}
	return out, nil
}

// HTML serializes the whole document.
func (d *Document) HTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.node); err != nil {
		return ""
	}
	return buf.String()
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

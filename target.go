package hywire

import (
	"strings"

	"github.com/hywire/hywire/lib/dom"
)

// resolveTargetSpec interprets a target specification relative to el:
// "self" (or empty) is el itself, "closest:<sel>" walks ancestors, and
// anything else is a selector queried from the element's root.
func resolveTargetSpec(spec string, el *dom.Element) *dom.Element {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "" || spec == "self":
		return el
	case strings.HasPrefix(spec, "closest:"):
		return el.Closest(strings.TrimSpace(strings.TrimPrefix(spec, "closest:")))
	default:
		return queryRoot(el.Root(), spec)
	}
}

func queryRoot(root dom.Root, selector string) *dom.Element {
	top := root.Top()
	if top == nil {
		return nil
	}
	if top.Matches(selector) {
		return top
	}
	return top.Query(selector)
}

// resolveSwapTarget applies the action/SSE target priority order: an
// explicit header selector, the element's own data-target, the nearest
// ancestor data-target, the element itself, then the root body.
func (rt *Runtime) resolveSwapTarget(headerSelector string, el *dom.Element) *dom.Element {
	if headerSelector != "" {
		if target := queryRoot(rt.root, headerSelector); target != nil {
			return target
		}
	}
	if el != nil {
		if spec, ok := el.Attr(attrTarget); ok {
			if target := resolveTargetSpec(spec, el); target != nil {
				return target
			}
		}
		for cur := el.Parent(); cur != nil; cur = cur.Parent() {
			if spec, ok := cur.Attr(attrTarget); ok {
				if target := resolveTargetSpec(spec, cur); target != nil {
					return target
				}
			}
		}
		return el
	}
	return rt.rootBody()
}

func (rt *Runtime) rootBody() *dom.Element {
	if doc, ok := rt.root.(*dom.Document); ok {
		return doc.Body()
	}
	return rt.root.Top()
}

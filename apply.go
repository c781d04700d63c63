package hywire

import (
	"strings"

	"github.com/hywire/hywire/lib/dom"
	"github.com/hywire/hywire/lib/expr"
)

// applyDirectives re-evaluates every reactive directive in the root
// against current signal state and mutates the DOM to match. Per element
// the order is fixed: text, show, bind, class, attr; data-effect
// expressions run last, after the whole tree has been updated. Each
// directive is best-effort - a compile or evaluation failure is logged
// and the directive skipped, leaving the element as it was.
//
// After the pass the scanner re-runs so directive attributes introduced
// by effects or swaps are wired without waiting for a mutation
// notification.
func (rt *Runtime) applyDirectives() {
	top := rt.root.Top()
	if top == nil {
		return
	}

	var effects []func()
	top.Walk(func(el *dom.Element) {
		rt.applyText(el)
		rt.applyShow(el)
		rt.applyBind(el)
		rt.applyClasses(el)
		rt.applyAttrs(el)
		if text, ok := el.Attr(attrEffect); ok {
			effects = append(effects, func() {
				if _, _, err := rt.evalDirective(text, el); err != nil {
					rt.logger.Debug("data-effect failed", "source", text, "error", err)
				}
			})
		}
	})
	for _, effect := range effects {
		effect()
	}

	rt.scanAndWire()
}

// evalDirective compiles and evaluates directive text with no event in
// scope. ok is false when there is nothing to evaluate - malformed text,
// action syntax in a reactive directive, or disabled expressions - and
// the caller must leave the element untouched rather than treat the
// directive as a null result.
func (rt *Runtime) evalDirective(text string, el *dom.Element) (value any, ok bool, err error) {
	c := rt.compileAttr(text)
	if c.program == nil {
		return nil, false, nil
	}
	value, err = c.program.Eval(rt.env(nil, el))
	return value, true, err
}

func (rt *Runtime) applyText(el *dom.Element) {
	text, ok := el.Attr(attrText)
	if !ok {
		return
	}
	value, ok, err := rt.evalDirective(text, el)
	if err != nil {
		rt.logger.Debug("data-text failed", "source", text, "error", err)
		return
	}
	if !ok {
		return
	}
	rendered := expr.Stringify(value)
	if el.Text() != rendered {
		el.SetText(rendered)
	}
}

func (rt *Runtime) applyShow(el *dom.Element) {
	text, ok := el.Attr(attrShow)
	if !ok {
		return
	}
	value, ok, err := rt.evalDirective(text, el)
	if err != nil {
		rt.logger.Debug("data-show failed", "source", text, "error", err)
		return
	}
	if !ok {
		return
	}
	if expr.Truthy(value) {
		el.SetStyle("display", "")
	} else {
		el.SetStyle("display", "none")
	}
}

// applyBind writes signal values into bound elements so external signal
// changes reach inputs. Missing signals leave the element untouched.
func (rt *Runtime) applyBind(el *dom.Element) {
	for _, attr := range el.Attributes() {
		path, ok := strings.CutPrefix(attr.Name, attrBindPrefix)
		if !ok || path == "" {
			continue
		}
		value, ok := rt.store.Get(path)
		if !ok {
			continue
		}
		writeBoundValue(el, value)
	}
}

func (rt *Runtime) applyClasses(el *dom.Element) {
	for _, attr := range el.Attributes() {
		name, ok := strings.CutPrefix(attr.Name, attrClassPrefix)
		if !ok || name == "" {
			continue
		}
		value, ok, err := rt.evalDirective(attr.Value, el)
		if err != nil {
			rt.logger.Debug("data-class failed", "source", attr.Value, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if expr.Truthy(value) {
			el.AddClass(name)
		} else {
			el.RemoveClass(name)
		}
	}
}

// applyAttrs keeps plain attributes synchronized with expressions: nil
// and false remove the attribute, true sets it as an empty boolean
// attribute, any other value is stringified.
func (rt *Runtime) applyAttrs(el *dom.Element) {
	for _, attr := range el.Attributes() {
		name, ok := strings.CutPrefix(attr.Name, attrAttrPrefix)
		if !ok || name == "" {
			continue
		}
		value, ok, err := rt.evalDirective(attr.Value, el)
		if err != nil {
			rt.logger.Debug("data-attr failed", "source", attr.Value, "error", err)
			continue
		}
		if !ok {
			continue
		}
		switch v := value.(type) {
		case nil:
			el.RemoveAttr(name)
		case bool:
			if v {
				el.SetAttr(name, "")
			} else {
				el.RemoveAttr(name)
			}
		default:
			el.SetAttr(name, expr.Stringify(value))
		}
	}
}

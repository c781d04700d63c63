package hywire

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/hywire/hywire/lib/dom"
	"github.com/hywire/hywire/lib/expr"
)

// scanSignals merges data-signals JSON blocks into the store. Each block
// is merged once per attribute text: re-scans skip unchanged blocks so
// user edits to signal state are not clobbered, while swapped-in markup
// with fresh blocks merges on the pass that discovers it. Malformed JSON
// is ignored.
func (rt *Runtime) scanSignals() {
	rt.scanSignalsIn(rt.root.Top())
}

func (rt *Runtime) scanSignalsIn(scope *dom.Element) {
	if scope == nil {
		return
	}
	scope.Walk(func(el *dom.Element) {
		text, ok := el.Attr(attrSignals)
		if !ok {
			return
		}
		if rt.signalsSeen[el] == text {
			return
		}
		rt.signalsSeen[el] = text

		var patch map[string]any
		if err := json.Unmarshal([]byte(text), &patch); err != nil {
			return
		}
		rt.store.Merge(patch)
	})
}

// scanAndWire walks the root and attaches listeners for data-on and
// data-bind directives. Wiring is idempotent per (element, directive,
// attribute text): unchanged attributes are never double-wired, while a
// changed attribute replaces the stale listener.
func (rt *Runtime) scanAndWire() {
	rt.scanAndWireIn(rt.root.Top())
}

func (rt *Runtime) scanAndWireIn(scope *dom.Element) {
	if scope == nil {
		return
	}
	scope.Walk(func(el *dom.Element) {
		for _, attr := range el.Attributes() {
			switch {
			case strings.HasPrefix(attr.Name, attrOnPrefix):
				event := strings.TrimPrefix(attr.Name, attrOnPrefix)
				if event == "" {
					continue
				}
				rt.wireOnce(el, attr.Name, attr.Value, event, rt.onListener(el, attr.Name))
			case strings.HasPrefix(attr.Name, attrBindPrefix):
				path := strings.TrimPrefix(attr.Name, attrBindPrefix)
				if path == "" {
					continue
				}
				event := "blur"
				if el.IsFormControl() {
					event = "input"
				}
				rt.wireOnce(el, attr.Name, attr.Value, event, rt.bindListener(el, path))
			}
		}
	})
}

// wireOnce attaches fn for event unless an identical wiring already
// exists. A wiring with different attribute text is torn down first.
func (rt *Runtime) wireOnce(el *dom.Element, key, text, event string, fn dom.Handler) {
	marks := rt.wired[el]
	if existing, ok := marks[key]; ok {
		if existing.text == text {
			return
		}
		el.RemoveEventListener(existing.handle)
	}
	if marks == nil {
		marks = make(map[string]wiredListener)
		rt.wired[el] = marks
	}
	handle := el.AddEventListener(event, fn)
	marks[key] = wiredListener{text: text, handle: handle}
}

// onListener builds the handler for a data-on directive. The attribute is
// recompiled from its live text on every event; an action result executes
// the remote call (directive re-application is scheduled when it
// completes), while a plain expression evaluates for side effects and
// schedules re-application immediately. An action never also evaluates as
// an expression.
func (rt *Runtime) onListener(el *dom.Element, attrName string) dom.Handler {
	return func(evt *dom.Event) {
		text, ok := el.Attr(attrName)
		if !ok {
			return
		}
		c := rt.compileAttr(text)
		switch {
		case c.action != nil:
			rt.executeAction(*c.action, evt, el)
		case c.program != nil:
			if _, err := c.program.Eval(rt.env(evt, el)); err != nil {
				rt.logger.Debug("data-on expression failed",
					"source", text, "error", err)
			}
			rt.scheduleApply()
		}
	}
}

// bindListener builds the input-capture handler for a data-bind
// directive, coercing the element's value before writing it to the
// signal path.
func (rt *Runtime) bindListener(el *dom.Element, path string) dom.Handler {
	return func(*dom.Event) {
		rt.store.Set(path, bindValue(el))
	}
}

// bindValue reads an element's current value with form-aware coercion:
// checkboxes become booleans, numeric inputs become numbers (nil when
// empty or unparseable, so the path never flips to a string), other form
// controls keep their string value, and non-form elements contribute
// their text content.
func bindValue(el *dom.Element) any {
	if !el.IsFormControl() {
		return el.Text()
	}
	switch el.InputType() {
	case "checkbox":
		return el.Checked()
	case "number", "range":
		raw := strings.TrimSpace(el.Value())
		if raw == "" {
			return nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return f
	}
	return el.Value()
}

// writeBoundValue pushes a signal value back into a bound element, the
// inverse of bindValue. Used by the applier so external signal writes
// reach bound inputs.
func writeBoundValue(el *dom.Element, value any) {
	if !el.IsFormControl() {
		el.SetText(expr.Stringify(value))
		return
	}
	if el.InputType() == "checkbox" {
		el.SetChecked(expr.Truthy(value))
		return
	}
	el.SetValue(expr.Stringify(value))
}

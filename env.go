package hywire

import (
	"fmt"
	"strings"

	"github.com/hywire/hywire/lib/dom"
	"github.com/hywire/hywire/lib/expr"
)

// env builds the expression environment for one evaluation: bare paths
// resolve against the signal tree (a leading $ is accepted and stripped),
// while "event" and "el" expose the triggering event and host element as
// read-only objects.
func (rt *Runtime) env(evt *dom.Event, el *dom.Element) *expr.Env {
	return &expr.Env{
		Get: func(name string) (any, bool) {
			switch name {
			case "event":
				if evt == nil {
					return nil, false
				}
				return eventScope(evt), true
			case "el":
				if el == nil {
					return nil, false
				}
				return elementScope(el), true
			}
			return rt.store.Get(strings.TrimPrefix(name, "$"))
		},
		Set: func(segs []string, value any) error {
			head := segs[0]
			if head == "event" || head == "el" {
				return fmt.Errorf("hywire: cannot assign to %s scope", head)
			}
			segs[0] = strings.TrimPrefix(head, "$")
			rt.store.Set(strings.Join(segs, "."), value)
			return nil
		},
	}
}

func eventScope(evt *dom.Event) map[string]any {
	scope := map[string]any{
		"type":   evt.Type,
		"detail": evt.Detail,
	}
	if evt.Target != nil {
		scope["target"] = elementScope(evt.Target)
	}
	return scope
}

func elementScope(el *dom.Element) map[string]any {
	dataset := make(map[string]any)
	for k, v := range el.Dataset() {
		dataset[k] = v
	}
	return map[string]any{
		"id":      el.ID(),
		"tag":     el.Tag(),
		"value":   el.Value(),
		"text":    el.Text(),
		"dataset": dataset,
	}
}

package hywire

import (
	"context"

	"github.com/hywire/hywire/lib/dom"
	"github.com/hywire/hywire/lib/sse"
)

// sseRecord tracks one EventSource connection owned by an element.
type sseRecord struct {
	el     *dom.Element
	url    string
	client *sse.Client
}

// close tears the connection down without blocking the current turn; the
// read loop exits on its own once cancelled.
func (rec *sseRecord) close() {
	go rec.client.Close()
}

// scanSSE reconciles data-sse declarations with open connections: one
// connection per (element, url), a changed URL replaces the old
// connection, and connections whose element left the tree are closed.
// Must run inside a turn.
func (rt *Runtime) scanSSE() {
	top := rt.root.Top()
	if top == nil {
		return
	}

	declared := make(map[*dom.Element]bool)
	top.Walk(func(el *dom.Element) {
		target, ok := el.Attr(attrSSE)
		if !ok || target == "" {
			return
		}
		declared[el] = true

		if rec, ok := rt.sse[el]; ok {
			if rec.url == target {
				return
			}
			rec.close()
			delete(rt.sse, el)
		}
		rt.openSSE(el, target)
	})

	for el, rec := range rt.sse {
		if !declared[el] || !el.IsConnected() {
			rec.close()
			delete(rt.sse, el)
		}
	}
}

func (rt *Runtime) openSSE(el *dom.Element, target string) {
	resolved, err := rt.resolveURL(target)
	if err != nil {
		rt.logger.Warn("sse url invalid", "url", target, "error", err)
		return
	}

	client := sse.Connect(context.Background(), rt.client, resolved, nil)
	rec := &sseRecord{el: el, url: target, client: client}
	rt.sse[el] = rec

	go func() {
		for event := range client.Events() {
			rt.doc.Run(func() {
				// The record may have been replaced or closed while
				// this event waited for the turn lock.
				if rt.sse[el] == rec {
					rt.handleSSEEvent(el, event)
				}
			})
		}
	}()
	go func() {
		for err := range client.Errs() {
			rt.logger.Warn("sse connection error", "url", resolved, "error", err)
		}
	}()
}

// handleSSEEvent routes one incoming event: JSON object payloads merge
// into signals unless data-sse-signals is explicitly "false"; everything
// else swaps as HTML against the declared target. Must run inside a
// turn.
func (rt *Runtime) handleSSEEvent(el *dom.Element, event sse.Event) {
	wantEvent := "message"
	if name, ok := el.Attr(attrSSEEvent); ok && name != "" {
		wantEvent = name
	}
	if event.Type != wantEvent {
		return
	}

	signalsEnabled := true
	if v, ok := el.Attr(attrSSESignals); ok && v == "false" {
		signalsEnabled = false
	}
	if signalsEnabled {
		if patch, ok := decodeSignalPayload([]byte(event.Data)); ok {
			rt.store.Merge(patch)
			rt.scheduleApply()
			return
		}
	}

	spec, _ := el.Attr(attrSSESelector)
	target := resolveTargetSpec(spec, el)
	if target == nil {
		rt.logger.Warn("sse swap target not found", "selector", spec)
		return
	}
	if v, _ := el.Attr(attrSSEOnlyIfMissing); v == "true" && target.HasContent() {
		return
	}

	mode := SwapReplace
	if v, ok := el.Attr(attrSSEMode); ok {
		mode = ParseSwapMode(v)
	}
	if err := ApplySwap(target, event.Data, mode); err != nil {
		rt.logger.Warn("sse swap failed", "mode", string(mode), "error", err)
		return
	}
	rt.scanSignals()
	rt.scanAndWire()
	rt.scheduleApply()
}

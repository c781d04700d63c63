package hywire

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hywire/hywire/lib/dom"
)

// executeAction performs the HTTP request behind an @verb("url")
// directive and applies the response: JSON merges into signals, anything
// else swaps as HTML.
//
// The request is built inside the dispatching turn (form state is read
// synchronously), performed on its own goroutine, and its response is
// applied in a fresh turn. A per-element generation counter drops
// responses that were superseded by a newer action on the same element -
// last request wins, regardless of response ordering.
func (rt *Runtime) executeAction(action Action, evt *dom.Event, el *dom.Element) {
	if evt != nil {
		if evt.Type == "submit" {
			evt.PreventDefault()
		}
		if evt.Type == "click" && el.Closest("a") != nil {
			evt.PreventDefault()
		}
	}

	req, err := rt.buildRequest(action, el)
	if err != nil {
		rt.logger.Warn("action request build failed",
			"method", action.Method, "url", action.URL, "error", err)
		return
	}

	rt.gens[el]++
	gen := rt.gens[el]

	rt.inflight.Add(1)
	go func() {
		defer rt.inflight.Done()

		resp, err := rt.client.Do(req)
		if err != nil {
			rt.logger.Warn("action request failed",
				"method", action.Method, "url", req.URL.String(), "error", err)
			return
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			rt.logger.Warn("action response read failed",
				"url", req.URL.String(), "error", readErr)
			return
		}

		rt.doc.Run(func() {
			if rt.gens[el] != gen {
				return // superseded by a newer action on this element
			}
			rt.applyResponse(resp, body, el)
			rt.scheduleApply()
		})
	}()
}

// buildRequest assembles the action request, serializing the enclosing
// form when there is one: into the query string for GET, as the request
// body otherwise.
func (rt *Runtime) buildRequest(action Action, el *dom.Element) (*http.Request, error) {
	target, err := rt.resolveURL(action.URL)
	if err != nil {
		return nil, err
	}

	var form url.Values
	if formEl := el.Closest("form"); formEl != nil {
		form = serializeForm(formEl)
	}

	var body io.Reader
	if action.Method == http.MethodGet {
		if len(form) > 0 {
			u, err := url.Parse(target)
			if err != nil {
				return nil, err
			}
			q := u.Query()
			for k, vs := range form {
				for _, v := range vs {
					q.Add(k, v)
				}
			}
			u.RawQuery = q.Encode()
			target = u.String()
		}
	} else if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequest(action.Method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(rt.opts.Headers.Request, "true")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

// resolveURL resolves an action or SSE URL against the configured base.
func (rt *Runtime) resolveURL(ref string) (string, error) {
	if rt.opts.BaseURL == "" {
		return ref, nil
	}
	base, err := url.Parse(rt.opts.BaseURL)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}

// serializeForm collects named form control values, skipping unchecked
// checkboxes and radios.
func serializeForm(form *dom.Element) url.Values {
	values := url.Values{}
	form.Walk(func(el *dom.Element) {
		if !el.IsFormControl() {
			return
		}
		name, ok := el.Attr("name")
		if !ok || name == "" {
			return
		}
		switch el.InputType() {
		case "checkbox", "radio":
			if !el.Checked() {
				return
			}
			v := el.Value()
			if v == "" {
				v = "on"
			}
			values.Add(name, v)
		default:
			values.Add(name, el.Value())
		}
	})
	return values
}

// applyResponse routes a completed action response. JSON bodies merge
// into the signal tree and never swap, even when a target is declared.
// Everything else is treated as an HTML fragment and swapped into the
// resolved target. Must run inside a turn.
func (rt *Runtime) applyResponse(resp *http.Response, body []byte, el *dom.Element) {
	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		rt.mergeJSONSignals(body)
		return
	}

	headerSelector := resp.Header.Get(rt.opts.Headers.Selector)
	target := rt.resolveSwapTarget(headerSelector, el)
	if target == nil {
		rt.logger.Warn("swap target not found", "selector", headerSelector)
		return
	}

	mode := rt.swapModeFor(resp, headerSelector, el)
	if resp.Header.Get(rt.opts.Headers.OnlyIfMissing) == "true" && target.HasContent() {
		return
	}

	swap := func() {
		if err := ApplySwap(target, string(body), mode); err != nil {
			rt.logger.Warn("swap failed", "mode", string(mode), "error", err)
			return
		}
		rt.scanSignals()
		rt.scanAndWire()
	}

	if resp.Header.Get(rt.opts.Headers.UseTransition) == "true" && rt.opts.TransitionHook != nil {
		applied := false
		err := rt.opts.TransitionHook(func() {
			applied = true
			swap()
		})
		if err == nil {
			return
		}
		if applied {
			return
		}
		// Transition failed before applying; swap without it.
	}
	swap()
}

// swapModeFor resolves the swap mode: a header-provided mode wins when
// the header also specified a selector, otherwise the triggering
// element's data-swap attribute applies.
func (rt *Runtime) swapModeFor(resp *http.Response, headerSelector string, el *dom.Element) SwapMode {
	if headerSelector != "" {
		if mode := resp.Header.Get(rt.opts.Headers.Mode); mode != "" {
			return ParseSwapMode(mode)
		}
	}
	if el != nil {
		if mode, ok := el.Attr(attrSwap); ok {
			return ParseSwapMode(mode)
		}
	}
	return SwapReplace
}

// mergeJSONSignals merges a JSON object payload into signals. Non-object
// payloads are ignored.
func (rt *Runtime) mergeJSONSignals(body []byte) {
	patch, ok := decodeSignalPayload(body)
	if !ok {
		rt.logger.Debug("ignoring non-object JSON action response")
		return
	}
	rt.store.Merge(patch)
}

// decodeSignalPayload parses a JSON object, the only shape accepted as a
// signal patch.
func decodeSignalPayload(body []byte) (map[string]any, bool) {
	var patch map[string]any
	if err := json.Unmarshal(body, &patch); err != nil || patch == nil {
		return nil, false
	}
	return patch, true
}

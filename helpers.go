package hywire

import (
	"encoding/json"
	"net/http"

	"github.com/a-h/templ"
)

// Render writes a templ component to the HTTP response.
//
// Sets Content-Type to text/html and renders the component using the
// request's context:
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    hywire.Render(w, r, counterView())
//	}
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// IsRuntimeRequest reports whether the request was issued by a directive
// action rather than a direct browser navigation. Use it to return a
// fragment instead of a full page:
//
//	if hywire.IsRuntimeRequest(r) {
//	    return itemRow(item)
//	}
//	return fullPage(item)
//
// Checks the default request header; pass custom HeaderNames when the
// runtime was configured with them.
func IsRuntimeRequest(r *http.Request, headers ...HeaderNames) bool {
	h := HeaderNames{}
	if len(headers) > 0 {
		h = headers[0]
	}
	return r.Header.Get(h.withDefaults().Request) == "true"
}

// WriteSignals responds with a JSON signal patch. The runtime merges
// JSON responses into its signal tree and never swaps them, so this is
// the way to push state without markup:
//
//	hywire.WriteSignals(w, map[string]any{"count": next})
func WriteSignals(w http.ResponseWriter, patch map[string]any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(patch)
}

// FragmentHeaders targets an HTML fragment response at a specific
// element, overriding the client-side data-target resolution. Set
// before writing the body:
//
//	hywire.FragmentHeaders(w, "#results", hywire.SwapInner)
//	w.Write(listHTML)
func FragmentHeaders(w http.ResponseWriter, selector string, mode SwapMode, headers ...HeaderNames) {
	h := HeaderNames{}
	if len(headers) > 0 {
		h = headers[0]
	}
	h = h.withDefaults()
	w.Header().Set(h.Selector, selector)
	if mode != "" {
		w.Header().Set(h.Mode, string(mode))
	}
}

package hywire

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/hywire/hywire/lib/dom"
)

// TestHost hosts a document with an enhanced runtime and a scripted
// HTTP transport, for integration tests of directive behavior without a
// real server:
//
//	host := hywire.NewTestHost(t, `<body>
//	    <button data-on:click='@get("/next")'>next</button>
//	    <div id="out"></div>
//	</body>`)
//	host.StubHTML("/next", `<div id="out">done</div>`)
//	host.Click("button")
//	host.Flush()
//	if got := host.Requests(); len(got) != 1 { ... }
type TestHost struct {
	Doc *dom.Document
	RT  *Runtime

	t         *testing.T
	transport *stubTransport
}

// RecordedRequest is one request the runtime issued through the stub
// transport.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
	Header http.Header
}

// StubResponse scripts the transport's answer for a path.
type StubResponse struct {
	Status      int
	ContentType string
	Body        string
	Header      http.Header
}

type stubTransport struct {
	mu        sync.Mutex
	responses map[string]StubResponse
	requests  []RecordedRequest
}

func (st *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := RecordedRequest{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.RawQuery,
		Header: req.Header.Clone(),
	}
	if req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		req.Body.Close()
		rec.Body = string(body)
	}

	st.mu.Lock()
	st.requests = append(st.requests, rec)
	stub, ok := st.responses[req.Method+" "+req.URL.Path]
	if !ok {
		stub, ok = st.responses[req.URL.Path]
	}
	st.mu.Unlock()

	if !ok {
		stub = StubResponse{Status: http.StatusNotFound, ContentType: "text/plain"}
	}
	if stub.Status == 0 {
		stub.Status = http.StatusOK
	}

	header := http.Header{}
	for k, vs := range stub.Header {
		header[http.CanonicalHeaderKey(k)] = vs
	}
	if stub.ContentType != "" {
		header.Set("Content-Type", stub.ContentType)
	}
	return &http.Response{
		StatusCode: stub.Status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(stub.Body)),
		Request:    req,
	}, nil
}

// NewTestHost parses markup, enhances it, and returns the host. Options
// may be passed to exercise non-default configuration; the HTTP client
// and base URL are always overridden to route through the stub
// transport.
func NewTestHost(t *testing.T, markup string, opts ...Options) *TestHost {
	t.Helper()

	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatalf("parse markup: %v", err)
	}

	transport := &stubTransport{responses: make(map[string]StubResponse)}
	o := Options{}
	if len(opts) > 0 {
		o = opts[0]
	}
	o.HTTPClient = &http.Client{Transport: transport}
	o.BaseURL = "http://host.test"

	rt, err := Enhance(doc, o)
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}

	host := &TestHost{Doc: doc, RT: rt, t: t, transport: transport}
	t.Cleanup(func() {
		Release(doc)
		rt.Wait()
	})
	return host
}

// Stub scripts a response for a path. The key may be a bare path
// ("/items") or method-qualified ("POST /items"); method-qualified
// entries win.
func (h *TestHost) Stub(key string, resp StubResponse) {
	h.transport.mu.Lock()
	defer h.transport.mu.Unlock()
	h.transport.responses[key] = resp
}

// StubHTML scripts an HTML fragment response.
func (h *TestHost) StubHTML(key, body string) {
	h.Stub(key, StubResponse{ContentType: "text/html", Body: body})
}

// StubJSON scripts a JSON signal-patch response.
func (h *TestHost) StubJSON(key, body string) {
	h.Stub(key, StubResponse{ContentType: "application/json", Body: body})
}

// Requests returns the requests issued so far, in order.
func (h *TestHost) Requests() []RecordedRequest {
	h.transport.mu.Lock()
	defer h.transport.mu.Unlock()
	return append([]RecordedRequest(nil), h.transport.requests...)
}

// Query returns the first element matching selector, failing the test
// when there is none.
func (h *TestHost) Query(selector string) *dom.Element {
	h.t.Helper()
	var el *dom.Element
	h.Doc.Run(func() {
		el = queryRoot(h.Doc, selector)
	})
	if el == nil {
		h.t.Fatalf("no element matches %q", selector)
	}
	return el
}

// Click dispatches a click event on the first element matching selector.
func (h *TestHost) Click(selector string) {
	h.t.Helper()
	h.Query(selector).Dispatch("click", nil)
}

// SetInput sets an input's value and dispatches the input event,
// simulating a user keystroke.
func (h *TestHost) SetInput(selector, value string) {
	h.t.Helper()
	el := h.Query(selector)
	h.Doc.Run(func() {
		el.SetValue(value)
		el.DispatchInTurn("input", nil)
	})
}

// SetChecked toggles a checkbox and dispatches the input event.
func (h *TestHost) SetChecked(selector string, checked bool) {
	h.t.Helper()
	el := h.Query(selector)
	h.Doc.Run(func() {
		el.SetChecked(checked)
		el.DispatchInTurn("input", nil)
	})
}

// Dispatch fires an arbitrary event with detail on the first element
// matching selector.
func (h *TestHost) Dispatch(selector, event string, detail any) {
	h.t.Helper()
	h.Query(selector).Dispatch(event, detail)
}

// Flush waits for in-flight action requests and drains pending
// microtasks so directive effects are visible.
func (h *TestHost) Flush() {
	h.RT.Wait()
	h.Doc.Flush()
}

// HTML returns the document's current markup.
func (h *TestHost) HTML() string {
	var out string
	h.Doc.Run(func() {
		out = h.Doc.HTML()
	})
	return out
}

// Signal reads a signal path from the runtime's store.
func (h *TestHost) Signal(path string) (any, bool) {
	var v any
	var ok bool
	h.Doc.Run(func() {
		v, ok = h.RT.Signals().Get(path)
	})
	return v, ok
}

// SetSignal writes a signal path, triggering directive re-application.
func (h *TestHost) SetSignal(path string, value any) {
	h.Doc.Run(func() {
		h.RT.Signals().Set(path, value)
	})
}

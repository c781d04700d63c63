package hywire

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func TestIsRuntimeRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/x", nil)
	if IsRuntimeRequest(req) {
		t.Error("plain request reported as runtime request")
	}

	req.Header.Set("datastar-request", "true")
	if !IsRuntimeRequest(req) {
		t.Error("runtime request not detected")
	}

	custom := HeaderNames{Request: "x-wire"}
	if IsRuntimeRequest(req, custom) {
		t.Error("custom header names should ignore the default header")
	}
	req.Header.Set("x-wire", "true")
	if !IsRuntimeRequest(req, custom) {
		t.Error("custom request header not detected")
	}
}

func TestWriteSignals(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteSignals(rec, map[string]any{"count": 1}); err != nil {
		t.Fatal(err)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"count":1}` {
		t.Errorf("body = %q", got)
	}
}

func TestFragmentHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	FragmentHeaders(rec, "#out", SwapInner)
	if got := rec.Header().Get("datastar-selector"); got != "#out" {
		t.Errorf("selector header = %q", got)
	}
	if got := rec.Header().Get("datastar-mode"); got != "inner" {
		t.Errorf("mode header = %q", got)
	}

	rec = httptest.NewRecorder()
	FragmentHeaders(rec, "#out", "")
	if rec.Header().Get("datastar-mode") != "" {
		t.Error("empty mode should not set the mode header")
	}
}

func TestRender(t *testing.T) {
	component := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>hi</p>")
		return err
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := Render(rec, req, component); err != nil {
		t.Fatal(err)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Body.String() != "<p>hi</p>" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

package hywire

import (
	"testing"

	"github.com/hywire/hywire/lib/dom"
)

func targetDoc(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(`<body>
		<div id="outer" data-target="#panel">
			<section id="panel"></section>
			<button id="btn"></button>
			<a id="self-link" data-target="self"></a>
			<span id="closest" data-target="closest:div"></span>
		</div>
		<div id="other"></div>
	</body>`)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func query(t *testing.T, doc *dom.Document, sel string) *dom.Element {
	t.Helper()
	var el *dom.Element
	doc.Run(func() {
		el = doc.Body().Query(sel)
	})
	if el == nil {
		t.Fatalf("no element matches %q", sel)
	}
	return el
}

func TestResolveTargetSpec(t *testing.T) {
	doc := targetDoc(t)
	btn := query(t, doc, "#btn")

	tests := []struct {
		name string
		spec string
		el   *dom.Element
		want string
	}{
		{"empty is self", "", btn, "btn"},
		{"explicit self", "self", btn, "btn"},
		{"selector", "#other", btn, "other"},
		{"closest", "closest:div", query(t, doc, "#closest"), "outer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *dom.Element
			doc.Run(func() {
				got = resolveTargetSpec(tt.spec, tt.el)
			})
			if got == nil || got.ID() != tt.want {
				t.Errorf("resolveTargetSpec(%q) = %v, want #%s", tt.spec, got, tt.want)
			}
		})
	}

	var got *dom.Element
	doc.Run(func() {
		got = resolveTargetSpec("#missing", btn)
	})
	if got != nil {
		t.Errorf("resolveTargetSpec(#missing) = %v, want nil", got)
	}
}

func TestResolveSwapTargetPriority(t *testing.T) {
	doc := targetDoc(t)
	rt := &Runtime{root: doc, doc: doc, opts: Options{}.withDefaults()}
	rt.logger = rt.opts.Logger

	btn := query(t, doc, "#btn")
	selfLink := query(t, doc, "#self-link")

	doc.Run(func() {
		// Header selector wins over everything.
		if got := rt.resolveSwapTarget("#other", btn); got.ID() != "other" {
			t.Errorf("header selector: got #%s, want #other", got.ID())
		}
		// Element's own data-target beats ancestors.
		if got := rt.resolveSwapTarget("", selfLink); got.ID() != "self-link" {
			t.Errorf("own data-target: got #%s, want #self-link", got.ID())
		}
		// Ancestor data-target applies when the element has none.
		if got := rt.resolveSwapTarget("", btn); got.ID() != "panel" {
			t.Errorf("ancestor data-target: got #%s, want #panel", got.ID())
		}
		// No element falls back to the root body.
		if got := rt.resolveSwapTarget("", nil); got == nil || got.Tag() != "body" {
			t.Errorf("nil element: got %v, want body", got)
		}
	})
}

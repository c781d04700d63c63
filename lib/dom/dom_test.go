package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, markup string) *Document {
	t.Helper()
	doc, err := ParseString(markup)
	require.NoError(t, err)
	return doc
}

func TestParseAndQuery(t *testing.T) {
	doc := parseDoc(t, `<body>
		<div id="a" class="card active">
			<p class="note">hello</p>
			<p>world</p>
		</div>
	</body>`)

	body := doc.Body()
	require.NotNil(t, body)
	assert.Equal(t, "body", body.Tag())

	a := body.Query("#a")
	require.NotNil(t, a)
	assert.Equal(t, "a", a.ID())
	assert.True(t, a.HasClass("card"))
	assert.True(t, a.Matches("div.card.active"))
	assert.False(t, a.Matches("span"))

	notes := body.QueryAll("p")
	assert.Len(t, notes, 2)
	assert.Equal(t, "hello", notes[0].Text())

	assert.Nil(t, body.Query("#missing"))
}

func TestElementHandleIdentity(t *testing.T) {
	doc := parseDoc(t, `<body><div id="x"></div></body>`)
	a := doc.Body().Query("#x")
	b := doc.Body().Query("#x")
	assert.Same(t, a, b, "queries must return the same handle for the same node")
}

func TestAttributes(t *testing.T) {
	doc := parseDoc(t, `<body><div id="x" data-k="v"></div></body>`)
	el := doc.Body().Query("#x")

	v, ok := el.Attr("data-k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	el.SetAttr("data-k", "w")
	v, _ = el.Attr("data-k")
	assert.Equal(t, "w", v)

	el.SetAttr("title", "t")
	assert.True(t, el.HasAttr("title"))
	el.RemoveAttr("title")
	assert.False(t, el.HasAttr("title"))

	_, ok = el.Attr("absent")
	assert.False(t, ok)
}

func TestClassesAndStyle(t *testing.T) {
	doc := parseDoc(t, `<body><div id="x" class="a"></div></body>`)
	el := doc.Body().Query("#x")

	el.AddClass("b")
	assert.True(t, el.HasClass("a"))
	assert.True(t, el.HasClass("b"))
	el.AddClass("b") // idempotent
	el.RemoveClass("a")
	assert.False(t, el.HasClass("a"))

	el.SetStyle("display", "none")
	assert.Equal(t, "none", el.Style("display"))
	el.SetStyle("color", "red")
	assert.Equal(t, "none", el.Style("display"), "setting one property keeps others")
	el.SetStyle("display", "")
	assert.Equal(t, "", el.Style("display"))
	assert.Equal(t, "red", el.Style("color"))
}

func TestTextAndInnerHTML(t *testing.T) {
	doc := parseDoc(t, `<body><div id="x"><b>a</b>b</div></body>`)
	el := doc.Body().Query("#x")

	assert.Equal(t, "ab", el.Text())
	assert.Equal(t, "<b>a</b>b", el.InnerHTML())

	el.SetText("plain")
	assert.Equal(t, "plain", el.Text())
	assert.Equal(t, "plain", el.InnerHTML())
}

func TestClosestAndWalk(t *testing.T) {
	doc := parseDoc(t, `<body><form id="f"><fieldset><input id="i"></fieldset></form></body>`)
	input := doc.Body().Query("#i")

	form := input.Closest("form")
	require.NotNil(t, form)
	assert.Equal(t, "f", form.ID())
	assert.Same(t, input, input.Closest("input"), "closest includes the element itself")
	assert.Nil(t, input.Closest("table"))

	var tags []string
	doc.Body().Walk(func(el *Element) {
		tags = append(tags, el.Tag())
	})
	assert.Equal(t, []string{"body", "form", "fieldset", "input"}, tags)
}

func TestHasContent(t *testing.T) {
	doc := parseDoc(t, `<body><div id="a">  </div><div id="b">x</div><div id="c"><span></span></div></body>`)
	assert.False(t, doc.Body().Query("#a").HasContent(), "whitespace only")
	assert.True(t, doc.Body().Query("#b").HasContent())
	assert.True(t, doc.Body().Query("#c").HasContent())
}

func TestFormControls(t *testing.T) {
	doc := parseDoc(t, `<body>
		<input id="t" value="v">
		<input id="n" type="number">
		<input id="c" type="checkbox" checked>
		<select id="s"></select>
		<textarea id="ta"></textarea>
		<div id="d"></div>
	</body>`)
	body := doc.Body()

	assert.True(t, body.Query("#t").IsFormControl())
	assert.True(t, body.Query("#s").IsFormControl())
	assert.True(t, body.Query("#ta").IsFormControl())
	assert.False(t, body.Query("#d").IsFormControl())

	assert.Equal(t, "text", body.Query("#t").InputType())
	assert.Equal(t, "number", body.Query("#n").InputType())

	tEl := body.Query("#t")
	assert.Equal(t, "v", tEl.Value(), "value falls back to the attribute")
	tEl.SetValue("live")
	assert.Equal(t, "live", tEl.Value(), "live value overrides the attribute")

	c := body.Query("#c")
	assert.True(t, c.Checked(), "checked attribute")
	c.SetChecked(false)
	assert.False(t, c.Checked())
}

func TestSpliceOperations(t *testing.T) {
	doc := parseDoc(t, `<body><ul id="l"><li id="m">m</li></ul></body>`)
	list := doc.Body().Query("#l")
	mid := doc.Body().Query("#m")

	frag := func(s string) []*Element {
		nodes, err := doc.ParseFragment(list, s)
		require.NoError(t, err)
		return nodes
	}

	mid.Before(frag("<li>first</li>"))
	mid.After(frag("<li>last</li>"))
	list.Prepend(frag("<li>zeroth</li>"))
	list.Append(frag("<li>final</li>"))

	var texts []string
	for _, li := range list.Children() {
		texts = append(texts, li.Text())
	}
	assert.Equal(t, []string{"zeroth", "first", "m", "last", "final"}, texts)

	mid.ReplaceWith(frag("<li>mid2</li>"))
	assert.NotContains(t, doc.HTML(), `id="m"`)
	assert.False(t, mid.IsConnected())

	list.SetChildren(frag("<li>only</li>"))
	assert.Len(t, list.Children(), 1)

	list.Remove()
	assert.False(t, list.IsConnected())
}

func TestEventDispatchAndBubbling(t *testing.T) {
	doc := parseDoc(t, `<body><div id="outer"><button id="btn"></button></div></body>`)
	outer := doc.Body().Query("#outer")
	btn := doc.Body().Query("#btn")

	var order []string
	btn.AddEventListener("click", func(e *Event) {
		order = append(order, "btn")
		assert.Same(t, btn, e.Target)
		assert.Same(t, btn, e.CurrentTarget)
	})
	outer.AddEventListener("click", func(e *Event) {
		order = append(order, "outer")
		assert.Same(t, btn, e.Target)
		assert.Same(t, outer, e.CurrentTarget)
	})
	outer.AddEventListener("other", func(*Event) {
		order = append(order, "wrong-type")
	})

	proceed := btn.Dispatch("click", nil)
	assert.True(t, proceed)
	assert.Equal(t, []string{"btn", "outer"}, order)
}

func TestEventStopPropagationAndPreventDefault(t *testing.T) {
	doc := parseDoc(t, `<body><div id="outer"><button id="btn"></button></div></body>`)
	outer := doc.Body().Query("#outer")
	btn := doc.Body().Query("#btn")

	var outerFired bool
	btn.AddEventListener("click", func(e *Event) {
		e.StopPropagation()
		e.PreventDefault()
	})
	outer.AddEventListener("click", func(*Event) { outerFired = true })

	proceed := btn.Dispatch("click", nil)
	assert.False(t, proceed)
	assert.False(t, outerFired)
}

func TestRemoveEventListener(t *testing.T) {
	doc := parseDoc(t, `<body><button id="b"></button></body>`)
	btn := doc.Body().Query("#b")

	count := 0
	h := btn.AddEventListener("click", func(*Event) { count++ })
	btn.Dispatch("click", nil)
	btn.RemoveEventListener(h)
	btn.Dispatch("click", nil)
	assert.Equal(t, 1, count)
}

func TestMicrotasksDrainAtTurnEnd(t *testing.T) {
	doc := parseDoc(t, `<body></body>`)

	var order []string
	doc.Run(func() {
		doc.QueueMicrotask(func() {
			order = append(order, "task1")
			doc.QueueMicrotask(func() { order = append(order, "nested") })
		})
		doc.QueueMicrotask(func() { order = append(order, "task2") })
		order = append(order, "turn")
	})

	assert.Equal(t, []string{"turn", "task1", "task2", "nested"}, order)
}

func TestObserverDeliversBatchedMutations(t *testing.T) {
	doc := parseDoc(t, `<body><div id="x"></div></body>`)
	target := doc.Body().Query("#x")

	var batches [][]Mutation
	doc.Observe(doc, func(batch []Mutation) {
		batches = append(batches, batch)
	})

	doc.Run(func() {
		nodes, err := doc.ParseFragment(target, `<p>one</p>`)
		require.NoError(t, err)
		target.Append(nodes)
		nodes, err = doc.ParseFragment(target, `<p>two</p>`)
		require.NoError(t, err)
		target.Append(nodes)
	})

	require.Len(t, batches, 1, "mutations in one turn arrive as one batch")
	assert.Len(t, batches[0], 2)
	assert.Same(t, target, batches[0][0].Target)
	assert.Len(t, batches[0][0].Added, 1)
}

func TestObserverDisconnect(t *testing.T) {
	doc := parseDoc(t, `<body><div id="x"></div></body>`)
	target := doc.Body().Query("#x")

	fired := 0
	obs := doc.Observe(doc, func([]Mutation) { fired++ })

	doc.Run(func() {
		nodes, _ := doc.ParseFragment(target, `<p>a</p>`)
		target.Append(nodes)
	})
	obs.Disconnect()
	doc.Run(func() {
		nodes, _ := doc.ParseFragment(target, `<p>b</p>`)
		target.Append(nodes)
	})

	assert.Equal(t, 1, fired)
}

func TestShadowRoot(t *testing.T) {
	doc := parseDoc(t, `<body><div id="host"></div></body>`)
	host := doc.Body().Query("#host")

	sr := host.AttachShadow()
	require.NotNil(t, sr)
	assert.Same(t, sr, host.Shadow())
	assert.Same(t, host, sr.Host())
	assert.Same(t, doc, sr.Doc())

	require.NoError(t, sr.SetInnerHTML(`<span id="inner">s</span>`))
	inner := sr.Top().Query("#inner")
	require.NotNil(t, inner)

	// Shadow content is not reachable from the document root.
	assert.Nil(t, doc.Body().Query("#inner"))
	// The element's root is the shadow root, not the document.
	assert.Equal(t, Root(sr), inner.Root())

	roots := ShadowRoots(doc)
	require.Len(t, roots, 1)
	assert.Same(t, sr, roots[0])
}

func TestParseFragmentContext(t *testing.T) {
	doc := parseDoc(t, `<body><table><tbody id="tb"></tbody></table></body>`)
	tb := doc.Body().Query("#tb")

	nodes, err := doc.ParseFragment(tb, `<tr><td>cell</td></tr>`)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "tr", nodes[0].Tag())

	tb.Append(nodes)
	assert.Contains(t, doc.HTML(), "<tr><td>cell</td></tr>")
}

func TestCreateElementAndDatasets(t *testing.T) {
	doc := parseDoc(t, `<body><div id="x" data-one="1" data-two="2" class="c"></div></body>`)
	el := doc.Body().Query("#x")

	ds := el.Dataset()
	assert.Equal(t, map[string]string{"one": "1", "two": "2"}, ds)

	created := doc.CreateElement("section")
	assert.Equal(t, "section", created.Tag())
	assert.False(t, created.IsConnected())
	doc.Body().AppendChild(created)
	assert.True(t, created.IsConnected())
}

func TestDocumentHTMLRoundTrip(t *testing.T) {
	doc := parseDoc(t, `<body><p>hi</p></body>`)
	out := doc.HTML()
	assert.True(t, strings.Contains(out, "<p>hi</p>"))
	assert.True(t, strings.HasPrefix(out, "<html>") || strings.Contains(out, "<html>"))
}

package hywire

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"

	"github.com/hywire/hywire/lib/dom"
)

// Builder constructs elements carrying runtime directives without
// hand-writing attribute strings.
//
//	counter := hywire.E("div").
//	    Signals(map[string]any{"count": 0}).
//	    Children(
//	        hywire.E("button").On("click", "$count = $count + 1").Text("+1"),
//	        hywire.E("span").TextExpr("$count"),
//	    )
//
// A builder renders three ways: into a live document with Build, as a
// markup string with String, or as a templ.Component via Component for
// embedding in templates.
type Builder struct {
	tag      string
	attrs    []dom.Attribute
	text     string
	children []*Builder
}

// E starts a builder for the given tag.
func E(tag string) *Builder {
	return &Builder{tag: tag}
}

// Attr sets a plain attribute. Later calls with the same name override
// earlier ones.
func (b *Builder) Attr(name, value string) *Builder {
	for i := range b.attrs {
		if b.attrs[i].Name == name {
			b.attrs[i].Value = value
			return b
		}
	}
	b.attrs = append(b.attrs, dom.Attribute{Name: name, Value: value})
	return b
}

// ID sets the id attribute.
func (b *Builder) ID(id string) *Builder { return b.Attr("id", id) }

// Class sets the class attribute.
func (b *Builder) Class(classes ...string) *Builder {
	return b.Attr("class", strings.Join(classes, " "))
}

// Data sets a data-* attribute; the name is given without the prefix.
func (b *Builder) Data(name, value string) *Builder {
	return b.Attr("data-"+name, value)
}

// Text sets literal text content. Mutually exclusive with Children; the
// last call wins.
func (b *Builder) Text(s string) *Builder {
	b.text = s
	b.children = nil
	return b
}

// Children sets child builders, replacing any text content.
func (b *Builder) Children(children ...*Builder) *Builder {
	b.children = children
	b.text = ""
	return b
}

// Signals seeds signal state via a data-signals block. The initial map
// is marshaled as JSON; marshal failures produce an empty block, which
// the scanner ignores.
func (b *Builder) Signals(initial map[string]any) *Builder {
	data, err := json.Marshal(initial)
	if err != nil {
		return b.Attr(attrSignals, "")
	}
	return b.Attr(attrSignals, string(data))
}

// On attaches a directive expression or @action to an event.
//
//	E("button").On("click", `@post("/items")`)
//	E("input").On("keydown", "$draft = el.value")
func (b *Builder) On(event, source string) *Builder {
	return b.Attr(attrOnPrefix+event, source)
}

// Bind establishes a two-way binding between the element's value and a
// signal path.
func (b *Builder) Bind(path string) *Builder {
	return b.Attr(attrBindPrefix+path, "")
}

// TextExpr keeps the element's text content synchronized with an
// expression.
func (b *Builder) TextExpr(source string) *Builder {
	return b.Attr(attrText, source)
}

// Show toggles the element's visibility on an expression.
func (b *Builder) Show(source string) *Builder {
	return b.Attr(attrShow, source)
}

// ClassIf toggles a class on an expression.
func (b *Builder) ClassIf(name, source string) *Builder {
	return b.Attr(attrClassPrefix+name, source)
}

// AttrExpr keeps a plain attribute synchronized with an expression.
func (b *Builder) AttrExpr(name, source string) *Builder {
	return b.Attr(attrAttrPrefix+name, source)
}

// Effect runs an expression for side effects after every directive
// pass.
func (b *Builder) Effect(source string) *Builder {
	return b.Attr(attrEffect, source)
}

// Target declares where action responses triggered from this element
// (or its descendants) swap in: "self", "closest:<sel>", or a selector.
func (b *Builder) Target(spec string) *Builder {
	return b.Attr(attrTarget, spec)
}

// Swap sets the default swap mode for action responses.
func (b *Builder) Swap(mode SwapMode) *Builder {
	return b.Attr(attrSwap, string(mode))
}

// SSE subscribes the element to a server-sent event stream.
func (b *Builder) SSE(url string) *Builder {
	return b.Attr(attrSSE, url)
}

// SSEEvent filters the subscription to a named event type instead of
// the default "message".
func (b *Builder) SSEEvent(name string) *Builder {
	return b.Attr(attrSSEEvent, name)
}

// SSESelector declares the swap target for HTML event payloads.
func (b *Builder) SSESelector(spec string) *Builder {
	return b.Attr(attrSSESelector, spec)
}

// Build realizes the builder as a live element in doc. Must be called
// inside a turn when the document is already enhanced.
func (b *Builder) Build(doc *dom.Document) *dom.Element {
	el := doc.CreateElement(b.tag)
	for _, a := range b.attrs {
		el.SetAttr(a.Name, a.Value)
	}
	if b.text != "" {
		el.SetText(b.text)
	}
	for _, child := range b.children {
		el.AppendChild(child.Build(doc))
	}
	return el
}

// String renders the builder as markup.
func (b *Builder) String() string {
	var sb strings.Builder
	b.write(&sb)
	return sb.String()
}

// Component wraps the builder as a templ.Component for use inside
// templates:
//
//	@hywire.E("span").TextExpr("$count").Component()
func (b *Builder) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func (b *Builder) write(sb *strings.Builder) {
	sb.WriteByte('<')
	sb.WriteString(b.tag)
	for _, a := range b.attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Name)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(a.Value))
		sb.WriteByte('"')
	}
	if voidTags[b.tag] && b.text == "" && len(b.children) == 0 {
		sb.WriteString("/>")
		return
	}
	sb.WriteByte('>')
	if b.text != "" {
		sb.WriteString(html.EscapeString(b.text))
	}
	for _, child := range b.children {
		child.write(sb)
	}
	sb.WriteString("</")
	sb.WriteString(b.tag)
	sb.WriteByte('>')
}

var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Package hywire is a server-hosted hypermedia directive runtime: it wires
// declarative data-* attributes on an HTML document to a reactive signal
// store, HTTP-backed actions with partial-page swaps, and server-sent
// event subscriptions.
//
// hywire hosts the document headlessly. The DOM lives in-process (see
// lib/dom), actions are real HTTP requests, and attribute expressions run
// in a small sandboxed interpreter (see lib/expr) rather than a scripting
// engine, so untrusted markup can read and write signals but nothing else.
//
// # Directives
//
// The runtime understands the following attributes:
//
//	data-signals          JSON object merged into the signal tree on scan
//	data-on:<event>       expression or @verb("url") action bound to an event
//	data-bind:<path>      two-way binding between an input and a signal path
//	data-text             sets text content from an expression
//	data-show             toggles display from an expression
//	data-effect           evaluates an expression for side effects
//	data-class:<name>     toggles a class from an expression
//	data-attr:<name>      sets/removes an attribute from an expression
//	data-target           swap target: self, closest:<sel>, or a selector
//	data-swap             swap mode when no response header overrides it
//	data-sse              opens a server-sent event subscription
//
// # Enhancing a document
//
// Enhance activates the runtime on a root (a document or shadow root):
//
//	doc, _ := dom.ParseString(page)
//	rt, _ := hywire.Enhance(doc, hywire.Options{})
//
// The first call scans data-signals blocks, wires event listeners, applies
// the reactive directives, and starts watching the tree for mutations.
// Enhance is idempotent per root: repeated calls reuse the existing
// runtime and never double-wire listeners. Signal writes coalesce into a
// single directive re-application per turn.
//
// # Actions
//
// A data-on expression of the form @get("/path") (or post, put, patch,
// delete) performs an HTTP request instead of evaluating an expression.
// JSON responses merge into the signal tree; any other content type is
// treated as an HTML fragment and swapped into a resolved target. Response
// headers can override the target selector and swap mode; see Options.
//
// # Design notes
//
// The runtime favors recomputation over caching: directives and their
// expressions are recompiled from live attribute text on every pass, so a
// mutated attribute is always honored without invalidation bookkeeping.
// Signal subscribers are notified through a drained queue, never
// re-entrantly, and an in-flight action superseded by a newer one on the
// same element is dropped on completion (last request wins).
package hywire

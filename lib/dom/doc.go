// Package dom provides the headless document host for the hywire runtime.
//
// A Document wraps an html.Node tree (golang.org/x/net/html) and layers on
// the pieces of a browser host the directive runtime needs: stable Element
// handles, CSS selector queries, event listeners with bubbling dispatch,
// childList mutation observation, shadow roots, and a microtask queue.
//
// # Turns
//
// A Document is not safe for unsynchronized concurrent use. All access is
// serialized through turns: Run executes a function while holding the
// document lock and, when the turn ends, drains queued microtasks and
// delivers pending mutation batches. This models the browser's
// single-threaded event loop - work scheduled during a turn (coalesced
// directive re-application, observer callbacks) runs before the turn
// returns, never concurrently with it.
//
// Asynchronous sources (completed HTTP requests, server-sent events) post
// their effects as new turns via Run. Code already inside a turn calls
// Element and Document methods directly.
package dom

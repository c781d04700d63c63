// Package expr implements the sandboxed expression language evaluated by
// hywire directives.
//
// The language is a small, side-effect-limited subset of familiar
// scripting syntax operating over JSON values: literals, dotted and
// indexed paths, arithmetic, comparison, logical operators, a ternary,
// assignment to signal paths, and semicolon-separated statement
// sequences. There is no user-defined code, no loops, and no host access
// beyond the three scopes the runtime injects (the signal tree, the
// triggering event, and the host element), so untrusted attribute text
// can never escape the signal store.
//
// A Program is compiled from source with Compile and evaluated against an
// Env. Programs hold no evaluation state and are safe to reuse, but the
// runtime deliberately recompiles from live attribute text on every
// evaluation so directives always reflect the current DOM.
package expr

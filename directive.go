package hywire

// Directive attribute names. Prefixed forms carry an argument after the
// colon (data-on:click, data-bind:user.name, data-class:active).
const (
	attrSignals = "data-signals"
	attrText    = "data-text"
	attrShow    = "data-show"
	attrEffect  = "data-effect"
	attrTarget  = "data-target"
	attrSwap    = "data-swap"

	attrOnPrefix    = "data-on:"
	attrBindPrefix  = "data-bind:"
	attrClassPrefix = "data-class:"
	attrAttrPrefix  = "data-attr:"

	attrSSE              = "data-sse"
	attrSSEEvent         = "data-sse-event"
	attrSSESignals       = "data-sse-signals"
	attrSSESelector      = "data-sse-selector"
	attrSSEMode          = "data-sse-mode"
	attrSSEOnlyIfMissing = "data-sse-only-if-missing"
)

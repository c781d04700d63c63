package hywire

import (
	"log/slog"
	"net/http"
)

// HeaderNames configures the header protocol between the runtime and
// action/SSE servers. The zero value selects the datastar-compatible
// defaults.
type HeaderNames struct {
	// Request is sent on every action request so servers can detect
	// runtime-originated fetches. Default "datastar-request".
	Request string

	// Selector names the response header carrying an explicit swap
	// target selector. Default "datastar-selector".
	Selector string

	// Mode names the response header carrying the swap mode, honored
	// when Selector was also provided. Default "datastar-mode".
	Mode string

	// OnlyIfMissing names the response header that suppresses the swap
	// when the target already has content. Default
	// "datastar-only-if-missing".
	OnlyIfMissing string

	// UseTransition names the response header requesting the swap be
	// wrapped in the transition hook. Default
	// "datastar-use-view-transition".
	UseTransition string
}

func (h HeaderNames) withDefaults() HeaderNames {
	if h.Request == "" {
		h.Request = "datastar-request"
	}
	if h.Selector == "" {
		h.Selector = "datastar-selector"
	}
	if h.Mode == "" {
		h.Mode = "datastar-mode"
	}
	if h.OnlyIfMissing == "" {
		h.OnlyIfMissing = "datastar-only-if-missing"
	}
	if h.UseTransition == "" {
		h.UseTransition = "datastar-use-view-transition"
	}
	return h
}

// Options configures a runtime. The zero value is usable: expressions
// enabled, default header names, http.DefaultClient, and the default
// slog logger.
type Options struct {
	// Logger receives compile warnings and evaluation/network failures.
	Logger *slog.Logger

	// HTTPClient performs action fetches and SSE connections.
	HTTPClient *http.Client

	// BaseURL resolves relative action and SSE URLs. Required when the
	// enhanced document's markup uses relative paths, since a headless
	// host has no location of its own.
	BaseURL string

	// DisableExpressions restricts data-on attributes to @verb("url")
	// actions, the security posture for untrusted markup. Reactive
	// directives become inert.
	DisableExpressions bool

	// Headers overrides the header protocol names.
	Headers HeaderNames

	// TransitionHook, when set, wraps swaps whose response requested a
	// view transition. The hook must call apply exactly once; if it
	// returns an error the swap is applied directly instead.
	TransitionHook func(apply func()) error
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}
	o.Headers = o.Headers.withDefaults()
	return o
}

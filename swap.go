package hywire

import (
	"github.com/hywire/hywire/lib/dom"
)

// SwapMode defines how response HTML is applied to a swap target.
type SwapMode string

const (
	// SwapReplace replaces the entire target element. This is the
	// default swap mode.
	SwapReplace SwapMode = "replace"

	// SwapInner replaces only the target's contents, preserving the
	// element itself.
	SwapInner SwapMode = "inner"

	// SwapAppend adds the fragment after the target's last child.
	SwapAppend SwapMode = "append"

	// SwapPrepend adds the fragment before the target's first child.
	SwapPrepend SwapMode = "prepend"

	// SwapBefore inserts the fragment as the target's previous sibling.
	SwapBefore SwapMode = "before"

	// SwapAfter inserts the fragment as the target's next sibling.
	SwapAfter SwapMode = "after"

	// SwapDelete removes the target; the fragment is ignored.
	SwapDelete SwapMode = "delete"

	// SwapNone discards the fragment.
	SwapNone SwapMode = "none"
)

// ParseSwapMode normalizes a swap mode string. The legacy alias "outer"
// maps to replace; empty or unrecognized values default to replace.
func ParseSwapMode(s string) SwapMode {
	switch SwapMode(s) {
	case SwapInner, SwapAppend, SwapPrepend, SwapBefore, SwapAfter, SwapDelete, SwapNone:
		return SwapMode(s)
	case "outer":
		return SwapReplace
	default:
		return SwapReplace
	}
}

// ApplySwap parses fragment markup and splices it relative to target
// according to mode.
func ApplySwap(target *dom.Element, fragment string, mode SwapMode) error {
	doc := target.Document()

	switch mode {
	case SwapDelete:
		target.Remove()
		return nil
	case SwapNone:
		return nil
	}

	// Parse in the parent's context for modes that produce siblings of
	// the target, in the target's own context otherwise.
	ctx := target
	if mode == SwapReplace || mode == SwapBefore || mode == SwapAfter {
		if parent := target.Parent(); parent != nil {
			ctx = parent
		}
	}
	nodes, err := doc.ParseFragment(ctx, fragment)
	if err != nil {
		return err
	}

	switch mode {
	case SwapInner:
		target.SetChildren(nodes)
	case SwapAppend:
		target.Append(nodes)
	case SwapPrepend:
		target.Prepend(nodes)
	case SwapBefore:
		target.Before(nodes)
	case SwapAfter:
		target.After(nodes)
	default: // SwapReplace
		target.ReplaceWith(nodes)
	}
	return nil
}

package expr

// node is an AST node.
type node interface{ isNode() }

// lit is a literal value: number, string, true, false, null.
type lit struct{ value any }

// seg is one segment of a path: a fixed name or a computed index.
type seg struct {
	name  string
	index node // non-nil for [expr] segments
}

// path is a scoped reference like user.name or items[i].done. The head
// segment selects the scope; the rest navigate into it.
type path struct{ segs []seg }

// unary is !x or -x.
type unary struct {
	op tokenKind
	x  node
}

// binary is x <op> y.
type binary struct {
	op   tokenKind
	x, y node
}

// ternary is cond ? then : else.
type ternary struct{ cond, then, els node }

// assign writes the value of rhs to a signal path.
type assign struct {
	target *path
	value  node
}

// call invokes a builtin: len, str, num, json.
type call struct {
	name string
	args []node
}

func (*lit) isNode()     {}
func (*path) isNode()    {}
func (*unary) isNode()   {}
func (*binary) isNode()  {}
func (*ternary) isNode() {}
func (*assign) isNode()  {}
func (*call) isNode()    {}

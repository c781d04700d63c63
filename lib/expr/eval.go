package expr

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Env supplies the scopes a program evaluates against. Values are JSON
// shaped: nil, bool, float64, string, []any, map[string]any.
type Env struct {
	// Get resolves a path's head identifier. Returning ok=false makes
	// the whole path evaluate to nil.
	Get func(name string) (any, bool)

	// Set performs an assignment to the given dotted path. A nil Set
	// makes all assignments fail.
	Set func(segs []string, value any) error
}

// Eval runs the program and returns the value of its last statement.
func (p *Program) Eval(env *Env) (any, error) {
	var result any
	for _, stmt := range p.stmts {
		v, err := eval(stmt, env)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func eval(n node, env *Env) (any, error) {
	switch n := n.(type) {
	case *lit:
		return n.value, nil
	case *path:
		return evalPath(n, env)
	case *unary:
		return evalUnary(n, env)
	case *binary:
		return evalBinary(n, env)
	case *ternary:
		cond, err := eval(n.cond, env)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return eval(n.then, env)
		}
		return eval(n.els, env)
	case *assign:
		return evalAssign(n, env)
	case *call:
		return evalCall(n, env)
	}
	return nil, fmt.Errorf("expr: unknown node %T", n)
}

func evalPath(p *path, env *Env) (any, error) {
	if env.Get == nil {
		return nil, nil
	}
	cur, ok := env.Get(p.segs[0].name)
	if !ok {
		return nil, nil
	}
	for _, s := range p.segs[1:] {
		key, idx, err := segKey(s, env)
		if err != nil {
			return nil, err
		}
		switch c := cur.(type) {
		case map[string]any:
			cur = c[key]
		case []any:
			if idx < 0 || idx >= len(c) {
				return nil, nil
			}
			cur = c[idx]
		default:
			return nil, nil
		}
	}
	return cur, nil
}

// segKey evaluates a segment to a string key and, when numeric, an array
// index.
func segKey(s seg, env *Env) (string, int, error) {
	if s.index == nil {
		return s.name, -1, nil
	}
	v, err := eval(s.index, env)
	if err != nil {
		return "", -1, err
	}
	if f, ok := v.(float64); ok {
		return strconv.Itoa(int(f)), int(f), nil
	}
	return Stringify(v), -1, nil
}

func evalAssign(n *assign, env *Env) (any, error) {
	if env.Set == nil {
		return nil, fmt.Errorf("expr: assignment not permitted")
	}
	value, err := eval(n.value, env)
	if err != nil {
		return nil, err
	}
	segs := make([]string, 0, len(n.target.segs))
	for _, s := range n.target.segs {
		key, _, err := segKey(s, env)
		if err != nil {
			return nil, err
		}
		segs = append(segs, key)
	}
	if err := env.Set(segs, value); err != nil {
		return nil, err
	}
	return value, nil
}

func evalUnary(n *unary, env *Env) (any, error) {
	x, err := eval(n.x, env)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case tokBang:
		return !Truthy(x), nil
	case tokMinus:
		f, ok := x.(float64)
		if !ok {
			return nil, fmt.Errorf("expr: cannot negate %T", x)
		}
		return -f, nil
	}
	return nil, fmt.Errorf("expr: unknown unary operator")
}

func evalBinary(n *binary, env *Env) (any, error) {
	x, err := eval(n.x, env)
	if err != nil {
		return nil, err
	}

	// Short-circuit logical operators before evaluating the right side.
	switch n.op {
	case tokAnd:
		if !Truthy(x) {
			return x, nil
		}
		return eval(n.y, env)
	case tokOr:
		if Truthy(x) {
			return x, nil
		}
		return eval(n.y, env)
	}

	y, err := eval(n.y, env)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case tokEq:
		return Equal(x, y), nil
	case tokNe:
		return !Equal(x, y), nil
	case tokPlus:
		if xs, ok := x.(string); ok {
			return xs + Stringify(y), nil
		}
		if ys, ok := y.(string); ok {
			return Stringify(x) + ys, nil
		}
		return arith(n.op, x, y)
	case tokMinus, tokStar, tokSlash, tokPercent:
		return arith(n.op, x, y)
	case tokLt, tokLe, tokGt, tokGe:
		return compare(n.op, x, y)
	}
	return nil, fmt.Errorf("expr: unknown binary operator")
}

func arith(op tokenKind, x, y any) (any, error) {
	xf, xok := x.(float64)
	yf, yok := y.(float64)
	if !xok || !yok {
		return nil, fmt.Errorf("expr: arithmetic on non-numbers (%T, %T)", x, y)
	}
	switch op {
	case tokPlus:
		return xf + yf, nil
	case tokMinus:
		return xf - yf, nil
	case tokStar:
		return xf * yf, nil
	case tokSlash:
		if yf == 0 {
			return nil, fmt.Errorf("expr: division by zero")
		}
		return xf / yf, nil
	case tokPercent:
		if yf == 0 {
			return nil, fmt.Errorf("expr: division by zero")
		}
		return math.Mod(xf, yf), nil
	}
	return nil, fmt.Errorf("expr: unknown arithmetic operator")
}

func compare(op tokenKind, x, y any) (any, error) {
	if xf, ok := x.(float64); ok {
		yf, ok := y.(float64)
		if !ok {
			return nil, fmt.Errorf("expr: cannot compare %T with %T", x, y)
		}
		return compareOrdered(op, xf, yf), nil
	}
	if xs, ok := x.(string); ok {
		ys, ok := y.(string)
		if !ok {
			return nil, fmt.Errorf("expr: cannot compare %T with %T", x, y)
		}
		return compareOrdered(op, xs, ys), nil
	}
	return nil, fmt.Errorf("expr: cannot compare %T", x)
}

func compareOrdered[T float64 | string](op tokenKind, x, y T) bool {
	switch op {
	case tokLt:
		return x < y
	case tokLe:
		return x <= y
	case tokGt:
		return x > y
	case tokGe:
		return x >= y
	}
	return false
}

func evalCall(n *call, env *Env) (any, error) {
	args := make([]any, 0, len(n.args))
	for _, a := range n.args {
		v, err := eval(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	switch n.name {
	case "len":
		if len(args) != 1 {
			return nil, fmt.Errorf("expr: len takes one argument")
		}
		switch v := args[0].(type) {
		case string:
			return float64(len(v)), nil
		case []any:
			return float64(len(v)), nil
		case map[string]any:
			return float64(len(v)), nil
		case nil:
			return float64(0), nil
		}
		return nil, fmt.Errorf("expr: len of %T", args[0])
	case "str":
		if len(args) != 1 {
			return nil, fmt.Errorf("expr: str takes one argument")
		}
		return Stringify(args[0]), nil
	case "num":
		if len(args) != 1 {
			return nil, fmt.Errorf("expr: num takes one argument")
		}
		switch v := args[0].(type) {
		case float64:
			return v, nil
		case bool:
			if v {
				return float64(1), nil
			}
			return float64(0), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("expr: num(%q): not a number", v)
			}
			return f, nil
		case nil:
			return float64(0), nil
		}
		return nil, fmt.Errorf("expr: num of %T", args[0])
	case "json":
		if len(args) != 1 {
			return nil, fmt.Errorf("expr: json takes one argument")
		}
		data, err := json.Marshal(args[0])
		if err != nil {
			return nil, fmt.Errorf("expr: json: %w", err)
		}
		return string(data), nil
	}
	return nil, fmt.Errorf("expr: unknown function %q", n.name)
}

// Truthy reports JSON truthiness: false, nil, 0, and "" are falsy.
func Truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	}
	return true
}

// Equal compares two JSON values, unifying numeric representations.
func Equal(x, y any) bool {
	if xf, ok := toFloat(x); ok {
		if yf, ok := toFloat(y); ok {
			return xf == yf
		}
		return false
	}
	return reflect.DeepEqual(x, y)
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// Stringify renders a value for text and attribute directives. nil
// renders as the empty string; whole numbers drop the decimal point.
func Stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

package expr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapEnv builds an Env over a nested map, with assignments writing flat
// dotted keys into writes.
func mapEnv(data map[string]any, writes map[string]any) *Env {
	return &Env{
		Get: func(name string) (any, bool) {
			name = strings.TrimPrefix(name, "$")
			v, ok := data[name]
			return v, ok
		},
		Set: func(segs []string, value any) error {
			writes[strings.Join(segs, ".")] = value
			return nil
		},
	}
}

func evalString(t *testing.T, src string, data map[string]any) any {
	t.Helper()
	p, err := Compile(src)
	require.NoError(t, err, "compile %q", src)
	v, err := p.Eval(mapEnv(data, map[string]any{}))
	require.NoError(t, err, "eval %q", src)
	return v
}

func TestEvalLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"42", float64(42)},
		{"-3.5", float64(-3.5)},
		{`"hello"`, "hello"},
		{`'single'`, "single"},
		{`"esc\n\t\""`, "esc\n\t\""},
		{"true", true},
		{"false", false},
		{"null", nil},
		{"(1)", float64(1)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evalString(t, tt.src, nil), "src: %s", tt.src)
	}
}

func TestEvalArithmeticAndPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"1 + 2 * 3", float64(7)},
		{"(1 + 2) * 3", float64(9)},
		{"10 - 4 - 3", float64(3)},
		{"7 % 4", float64(3)},
		{"8 / 2", float64(4)},
		{"-2 * 3", float64(-6)},
		{"1 + 2 == 3", true},
		{"2 < 3 && 3 < 2", false},
		{"1 > 2 || 2 > 1", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evalString(t, tt.src, nil), "src: %s", tt.src)
	}
}

func TestEvalStringConcat(t *testing.T) {
	assert.Equal(t, "count: 3", evalString(t, `"count: " + 3`, nil))
	assert.Equal(t, "3 items", evalString(t, `3 + " items"`, nil))
}

func TestEvalPaths(t *testing.T) {
	data := map[string]any{
		"user": map[string]any{
			"name": "ada",
			"tags": []any{"a", "b"},
		},
		"count": float64(2),
	}

	tests := []struct {
		src  string
		want any
	}{
		{"$user.name", "ada"},
		{"user.name", "ada"},
		{"$user.tags[1]", "b"},
		{"$user.tags[$count - 1]", "b"},
		{"$user.missing", nil},
		{"$missing.path", nil},
		{"$user.tags[9]", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evalString(t, tt.src, data), "src: %s", tt.src)
	}
}

func TestEvalTernaryAndTruthiness(t *testing.T) {
	data := map[string]any{"n": float64(0), "s": "x"}
	assert.Equal(t, "empty", evalString(t, `$n ? "some" : "empty"`, data))
	assert.Equal(t, "some", evalString(t, `$s ? "some" : "empty"`, data))
	assert.Equal(t, true, evalString(t, "!$n", data))
}

func TestEvalShortCircuit(t *testing.T) {
	// The right side would fail arithmetic if evaluated.
	data := map[string]any{"s": "str"}
	v := evalString(t, `false && ($s * 2)`, data)
	assert.Equal(t, false, v)
	v = evalString(t, `true || ($s * 2)`, data)
	assert.Equal(t, true, v)
}

func TestEvalBuiltins(t *testing.T) {
	data := map[string]any{
		"items": []any{float64(1), float64(2)},
		"obj":   map[string]any{"a": float64(1)},
	}
	tests := []struct {
		src  string
		want any
	}{
		{`len("abc")`, float64(3)},
		{"len($items)", float64(2)},
		{"len($obj)", float64(1)},
		{"len($missing)", float64(0)},
		{"str(3.5)", "3.5"},
		{"str(null)", ""},
		{`num("4.5")`, float64(4.5)},
		{"num(true)", float64(1)},
		{"num(null)", float64(0)},
		{"json($obj)", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evalString(t, tt.src, data), "src: %s", tt.src)
	}
}

func TestEvalAssignment(t *testing.T) {
	writes := map[string]any{}
	p, err := Compile("$count = $count + 1")
	require.NoError(t, err)

	env := mapEnv(map[string]any{"count": float64(1)}, writes)
	v, err := p.Eval(env)
	require.NoError(t, err)
	assert.Equal(t, float64(2), v, "assignment evaluates to the written value")
	assert.Equal(t, float64(2), writes["$count"])
}

func TestEvalStatementSequence(t *testing.T) {
	writes := map[string]any{}
	p, err := Compile(`$a = 1; $b = 2; $a`)
	require.NoError(t, err)

	data := map[string]any{"a": float64(9)}
	_, err = p.Eval(mapEnv(data, writes))
	require.NoError(t, err)
	assert.Equal(t, float64(1), writes["$a"])
	assert.Equal(t, float64(2), writes["$b"])
}

func TestCompileErrors(t *testing.T) {
	bad := []string{
		"1 +",
		"(1",
		"$a.",
		"$a[1",
		"1 = 2",
		"? : x",
		`"unterminated`,
		"@",
	}
	for _, src := range bad {
		_, err := Compile(src)
		assert.Error(t, err, "src: %s", src)
	}
}

func TestEvalErrors(t *testing.T) {
	data := map[string]any{"s": "str"}
	bad := []string{
		"$s - 1",
		"1 / 0",
		"$s < 1",
		"unknownfn(1)",
		"-$s",
	}
	for _, src := range bad {
		p, err := Compile(src)
		require.NoError(t, err, "src: %s", src)
		_, err = p.Eval(mapEnv(data, map[string]any{}))
		assert.Error(t, err, "src: %s", src)
	}
}

func TestEvalAssignmentWithoutSetter(t *testing.T) {
	p, err := Compile("$a = 1")
	require.NoError(t, err)
	_, err = p.Eval(&Env{Get: func(string) (any, bool) { return nil, false }})
	assert.Error(t, err)
}

func TestEmptyProgram(t *testing.T) {
	p, err := Compile("")
	require.NoError(t, err)
	v, err := p.Eval(&Env{})
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(float64(0)))
	assert.False(t, Truthy(""))
	assert.True(t, Truthy(true))
	assert.True(t, Truthy(float64(1)))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy([]any{}))
	assert.True(t, Truthy(map[string]any{}))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "3", Stringify(float64(3)))
	assert.Equal(t, "3.25", Stringify(float64(3.25)))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "x", Stringify("x"))
	assert.Equal(t, `["a"]`, Stringify([]any{"a"}))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(float64(1), 1))
	assert.True(t, Equal(int64(2), float64(2)))
	assert.False(t, Equal(float64(1), "1"))
	assert.True(t, Equal("a", "a"))
	assert.True(t, Equal([]any{"a"}, []any{"a"}))
	assert.True(t, Equal(nil, nil))
}

package hywire

import (
	"regexp"
	"strings"

	"github.com/hywire/hywire/lib/expr"
)

// Action is a declarative remote call parsed from @verb("url") attribute
// syntax.
type Action struct {
	Method string
	URL    string
}

var actionPattern = regexp.MustCompile(`^@(get|post|put|patch|delete)\((.*)\)$`)

// ParseAction matches @verb(url) syntax, where url is a quoted string
// literal or a bare token without whitespace or commas. Returns ok=false
// for anything else, including a matching verb with a malformed argument.
func ParseAction(text string) (Action, bool) {
	m := actionPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Action{}, false
	}
	url, ok := parseURLArg(m[2])
	if !ok {
		return Action{}, false
	}
	return Action{Method: strings.ToUpper(m[1]), URL: url}, true
}

// parseURLArg decodes the single action argument: a single- or
// double-quoted string with escape handling, or a bare unquoted token.
func parseURLArg(arg string) (string, bool) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", false
	}

	quote := arg[0]
	if quote == '"' || quote == '\'' {
		if len(arg) < 2 || arg[len(arg)-1] != quote {
			return "", false
		}
		var sb strings.Builder
		body := arg[1 : len(arg)-1]
		for i := 0; i < len(body); i++ {
			c := body[i]
			if c == quote {
				// Unescaped closing quote before the end.
				return "", false
			}
			if c == '\\' && i+1 < len(body) {
				i++
				switch body[i] {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case 'r':
					sb.WriteByte('\r')
				case '\\', '\'', '"':
					sb.WriteByte(body[i])
				default:
					sb.WriteByte('\\')
					sb.WriteByte(body[i])
				}
				continue
			}
			sb.WriteByte(c)
		}
		return sb.String(), true
	}

	if strings.ContainsAny(arg, " \t\n\r,") {
		return "", false
	}
	return arg, true
}

// compiled is the result of compiling directive attribute text: a remote
// action, an expression program, or neither (a no-op directive).
type compiled struct {
	action  *Action
	program *expr.Program
}

// compileAttr turns attribute text into a compiled directive. Actions are
// matched first; when expressions are disabled the result carries the
// action only. Compilation always happens against the live attribute
// text - programs are never cached, so a mutated attribute is honored on
// its next evaluation.
func (rt *Runtime) compileAttr(text string) compiled {
	if action, ok := ParseAction(text); ok {
		return compiled{action: &action}
	}
	if rt.opts.DisableExpressions {
		return compiled{}
	}
	program, err := expr.Compile(strings.TrimSpace(text))
	if err != nil {
		// Recompile-per-evaluation means a broken attribute fails on
		// every pass; warn the first time only.
		if rt.compileWarned[text] {
			rt.logger.Debug("directive expression failed to compile",
				"source", text, "error", err)
		} else {
			if rt.compileWarned == nil {
				rt.compileWarned = make(map[string]bool)
			}
			rt.compileWarned[text] = true
			rt.logger.Warn("directive expression failed to compile",
				"source", text, "error", err)
		}
		return compiled{}
	}
	return compiled{program: program}
}

package expr

import "fmt"

// Program is a compiled statement sequence. Evaluating a program returns
// the value of its last statement.
type Program struct {
	stmts []node
	src   string
}

// Source returns the text the program was compiled from.
func (p *Program) Source() string { return p.src }

// Compile parses src as an expression or a semicolon-separated statement
// sequence. An empty source compiles to a program that evaluates to nil.
func Compile(src string) (*Program, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	ps := &parser{toks: toks}
	var stmts []node
	for ps.peek().kind != tokEOF {
		stmt, err := ps.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		for ps.peek().kind == tokSemi {
			ps.take()
		}
	}
	return &Program{stmts: stmts, src: src}, nil
}

type parser struct {
	toks []token
	pos  int
}

func (ps *parser) peek() token { return ps.toks[ps.pos] }

func (ps *parser) take() token {
	tok := ps.toks[ps.pos]
	if tok.kind != tokEOF {
		ps.pos++
	}
	return tok
}

func (ps *parser) expect(kind tokenKind, what string) (token, error) {
	tok := ps.take()
	if tok.kind != kind {
		return tok, fmt.Errorf("expr: expected %s at offset %d", what, tok.pos)
	}
	return tok, nil
}

// parseStatement parses an expression, promoting `path = expr` to an
// assignment.
func (ps *parser) parseStatement() (node, error) {
	expr, err := ps.parseTernary()
	if err != nil {
		return nil, err
	}
	if ps.peek().kind == tokAssign {
		target, ok := expr.(*path)
		if !ok {
			return nil, fmt.Errorf("expr: left side of assignment is not a path at offset %d", ps.peek().pos)
		}
		ps.take()
		value, err := ps.parseTernary()
		if err != nil {
			return nil, err
		}
		return &assign{target: target, value: value}, nil
	}
	return expr, nil
}

func (ps *parser) parseTernary() (node, error) {
	cond, err := ps.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if ps.peek().kind != tokQuestion {
		return cond, nil
	}
	ps.take()
	then, err := ps.parseTernary()
	if err != nil {
		return nil, err
	}
	if _, err := ps.expect(tokColon, "':'"); err != nil {
		return nil, err
	}
	els, err := ps.parseTernary()
	if err != nil {
		return nil, err
	}
	return &ternary{cond: cond, then: then, els: els}, nil
}

// binding powers for binary operators; higher binds tighter.
func precedence(kind tokenKind) int {
	switch kind {
	case tokOr:
		return 1
	case tokAnd:
		return 2
	case tokEq, tokNe:
		return 3
	case tokLt, tokLe, tokGt, tokGe:
		return 4
	case tokPlus, tokMinus:
		return 5
	case tokStar, tokSlash, tokPercent:
		return 6
	}
	return 0
}

func (ps *parser) parseBinary(minPrec int) (node, error) {
	left, err := ps.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := ps.peek()
		prec := precedence(op.kind)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		ps.take()
		right, err := ps.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &binary{op: op.kind, x: left, y: right}
	}
}

func (ps *parser) parseUnary() (node, error) {
	switch ps.peek().kind {
	case tokBang, tokMinus:
		op := ps.take()
		x, err := ps.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unary{op: op.kind, x: x}, nil
	}
	return ps.parsePostfix()
}

// parsePostfix parses a primary followed by .name and [expr] segments.
func (ps *parser) parsePostfix() (node, error) {
	prim, err := ps.parsePrimary()
	if err != nil {
		return nil, err
	}
	pth, isPath := prim.(*path)
	for {
		switch ps.peek().kind {
		case tokDot:
			ps.take()
			name, err := ps.expect(tokIdent, "identifier after '.'")
			if err != nil {
				return nil, err
			}
			if !isPath {
				return nil, fmt.Errorf("expr: '.' applied to non-path at offset %d", name.pos)
			}
			pth.segs = append(pth.segs, seg{name: name.text})
		case tokLBrack:
			open := ps.take()
			idx, err := ps.parseTernary()
			if err != nil {
				return nil, err
			}
			if _, err := ps.expect(tokRBrack, "']'"); err != nil {
				return nil, err
			}
			if !isPath {
				return nil, fmt.Errorf("expr: '[' applied to non-path at offset %d", open.pos)
			}
			pth.segs = append(pth.segs, seg{index: idx})
		default:
			return prim, nil
		}
	}
}

func (ps *parser) parsePrimary() (node, error) {
	tok := ps.take()
	switch tok.kind {
	case tokNumber:
		return &lit{value: tok.num}, nil
	case tokString:
		return &lit{value: tok.text}, nil
	case tokTrue:
		return &lit{value: true}, nil
	case tokFalse:
		return &lit{value: false}, nil
	case tokNull:
		return &lit{value: nil}, nil
	case tokLParen:
		inner, err := ps.parseTernary()
		if err != nil {
			return nil, err
		}
		if _, err := ps.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		if ps.peek().kind == tokLParen {
			ps.take()
			var args []node
			for ps.peek().kind != tokRParen {
				arg, err := ps.parseTernary()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if ps.peek().kind == tokComma {
					ps.take()
				}
			}
			ps.take() // ')'
			return &call{name: tok.text, args: args}, nil
		}
		return &path{segs: []seg{{name: tok.text}}}, nil
	}
	return nil, fmt.Errorf("expr: unexpected token %q at offset %d", tok.text, tok.pos)
}

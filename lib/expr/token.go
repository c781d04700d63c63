package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokTrue
	tokFalse
	tokNull

	tokPlus     // +
	tokMinus    // -
	tokStar     // *
	tokSlash    // /
	tokPercent  // %
	tokBang     // !
	tokLt       // <
	tokLe       // <=
	tokGt       // >
	tokGe       // >=
	tokEq       // ==
	tokNe       // !=
	tokAnd      // &&
	tokOr       // ||
	tokAssign   // =
	tokQuestion // ?
	tokColon    // :
	tokSemi     // ;
	tokComma    // ,
	tokDot      // .
	tokLParen   // (
	tokRParen   // )
	tokLBrack   // [
	tokRBrack   // ]
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

type lexer struct {
	src  string
	pos  int
	toks []token
}

func lex(src string) ([]token, error) {
	lx := &lexer{src: src}
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		lx.toks = append(lx.toks, tok)
		if tok.kind == tokEOF {
			return lx.toks, nil
		}
	}
}

func (lx *lexer) next() (token, error) {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			lx.pos++
			continue
		}
		break
	}
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, pos: lx.pos}, nil
	}

	start := lx.pos
	c := lx.src[lx.pos]

	switch {
	case c >= '0' && c <= '9':
		return lx.scanNumber()
	case c == '"' || c == '\'':
		return lx.scanString(c)
	case isIdentStart(rune(c)) || c >= utf8.RuneSelf:
		return lx.scanIdent()
	}

	two := ""
	if lx.pos+1 < len(lx.src) {
		two = lx.src[lx.pos : lx.pos+2]
	}
	switch two {
	case "<=":
		lx.pos += 2
		return token{kind: tokLe, text: two, pos: start}, nil
	case ">=":
		lx.pos += 2
		return token{kind: tokGe, text: two, pos: start}, nil
	case "==":
		lx.pos += 2
		return token{kind: tokEq, text: two, pos: start}, nil
	case "!=":
		lx.pos += 2
		return token{kind: tokNe, text: two, pos: start}, nil
	case "&&":
		lx.pos += 2
		return token{kind: tokAnd, text: two, pos: start}, nil
	case "||":
		lx.pos += 2
		return token{kind: tokOr, text: two, pos: start}, nil
	}

	single := map[byte]tokenKind{
		'+': tokPlus, '-': tokMinus, '*': tokStar, '/': tokSlash,
		'%': tokPercent, '!': tokBang, '<': tokLt, '>': tokGt,
		'=': tokAssign, '?': tokQuestion, ':': tokColon, ';': tokSemi,
		',': tokComma, '.': tokDot, '(': tokLParen, ')': tokRParen,
		'[': tokLBrack, ']': tokRBrack,
	}
	if kind, ok := single[c]; ok {
		lx.pos++
		return token{kind: kind, text: string(c), pos: start}, nil
	}

	return token{}, fmt.Errorf("expr: unexpected character %q at offset %d", c, start)
}

func (lx *lexer) scanNumber() (token, error) {
	start := lx.pos
	seenDot := false
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c >= '0' && c <= '9' {
			lx.pos++
			continue
		}
		if c == '.' && !seenDot && lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] >= '0' && lx.src[lx.pos+1] <= '9' {
			seenDot = true
			lx.pos++
			continue
		}
		break
	}
	text := lx.src[start:lx.pos]
	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, fmt.Errorf("expr: bad number %q at offset %d", text, start)
	}
	return token{kind: tokNumber, text: text, num: num, pos: start}, nil
}

func (lx *lexer) scanString(quote byte) (token, error) {
	start := lx.pos
	lx.pos++ // opening quote
	var sb strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == quote {
			lx.pos++
			return token{kind: tokString, text: sb.String(), pos: start}, nil
		}
		if c == '\\' && lx.pos+1 < len(lx.src) {
			lx.pos++
			switch lx.src[lx.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '\'':
				sb.WriteByte('\'')
			case '"':
				sb.WriteByte('"')
			default:
				sb.WriteByte(lx.src[lx.pos])
			}
			lx.pos++
			continue
		}
		sb.WriteByte(c)
		lx.pos++
	}
	return token{}, fmt.Errorf("expr: unterminated string at offset %d", start)
}

func (lx *lexer) scanIdent() (token, error) {
	start := lx.pos
	for lx.pos < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		if !isIdentPart(r) {
			break
		}
		lx.pos += size
	}
	text := lx.src[start:lx.pos]
	switch text {
	case "true":
		return token{kind: tokTrue, text: text, pos: start}, nil
	case "false":
		return token{kind: tokFalse, text: text, pos: start}, nil
	case "null":
		return token{kind: tokNull, text: text, pos: start}, nil
	}
	return token{kind: tokIdent, text: text, pos: start}, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

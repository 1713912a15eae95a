package condexpr

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokName  // #name placeholder
	tokValue // :value placeholder
	tokLParen
	tokRParen
	tokComma
	tokDot
	tokCmp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) keyword(kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func lex(expr string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(expr) {
		c := rune(expr[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++
		case c == '.':
			toks = append(toks, token{tokDot, ".", i})
			i++
		case c == '=':
			toks = append(toks, token{tokCmp, "=", i})
			i++
		case c == '<' || c == '>':
			op := string(c)
			if i+1 < len(expr) && (expr[i+1] == '=' || (c == '<' && expr[i+1] == '>')) {
				op += string(expr[i+1])
			}
			toks = append(toks, token{tokCmp, op, i})
			i += len(op)
		case c == '#' || c == ':':
			j := i + 1
			for j < len(expr) && isIdentChar(rune(expr[j])) {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("empty placeholder at position %d", i)
			}
			kind := tokName
			if c == ':' {
				kind = tokValue
			}
			toks = append(toks, token{kind, expr[i:j], i})
			i = j
		case isIdentChar(c):
			j := i
			for j < len(expr) && isIdentChar(rune(expr[j])) {
				j++
			}
			toks = append(toks, token{tokIdent, expr[i:j], i})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", c, i)
		}
	}
	toks = append(toks, token{tokEOF, "", len(expr)})
	return toks, nil
}

func isIdentChar(c rune) bool {
	return c == '_' || c == '-' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

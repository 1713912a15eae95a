// Package condexpr evaluates DynamoDB condition and key condition
// expressions against an item. It covers the grammar emitted by the SDK's
// expression builder: comparisons, BETWEEN, IN, AND/OR/NOT, parentheses and
// the attribute_exists, attribute_not_exists, begins_with and contains
// functions. Document paths may be nested with dots.
package condexpr

import (
	"fmt"
	"strings"
)

// Expr is a parsed condition.
type Expr interface {
	eval(env *env) (bool, error)
}

// Parse parses a condition expression.
func Parse(expr string) (Expr, error) {
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at position %d", t.text, t.pos)
	}
	return e, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, fmt.Errorf("expected %s at position %d, got %q", what, t.pos, t.text)
	}
	return t, nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().keyword("OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orExpr{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().keyword("AND") {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = andExpr{left, right}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.peek().keyword("NOT") {
		p.next()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notExpr{inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()
	if t.kind == tokLParen {
		p.next()
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	}
	if t.kind == tokIdent && p.peekAt(1).kind == tokLParen {
		return p.parseFunction()
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	switch t := p.peek(); {
	case t.kind == tokCmp:
		p.next()
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return compareExpr{op: t.text, left: left, right: right}, nil
	case t.keyword("BETWEEN"):
		p.next()
		lo, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if !p.peek().keyword("AND") {
			return nil, fmt.Errorf("expected AND in BETWEEN at position %d", p.peek().pos)
		}
		p.next()
		hi, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return betweenExpr{value: left, lo: lo, hi: hi}, nil
	case t.keyword("IN"):
		p.next()
		if _, err := p.expect(tokLParen, "'('"); err != nil {
			return nil, err
		}
		var list []operand
		for {
			o, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			list = append(list, o)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inExpr{value: left, list: list}, nil
	default:
		return nil, fmt.Errorf("expected comparison at position %d, got %q", t.pos, t.text)
	}
}

func (p *parser) parseFunction() (Expr, error) {
	name := strings.ToLower(p.next().text)
	p.next() // (
	var args []operand
	for p.peek().kind != tokRParen {
		o, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		args = append(args, o)
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	arity := map[string]int{
		"attribute_exists":     1,
		"attribute_not_exists": 1,
		"begins_with":          2,
		"contains":             2,
	}
	want, ok := arity[name]
	if !ok {
		return nil, fmt.Errorf("unsupported function %q", name)
	}
	if len(args) != want {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", name, want, len(args))
	}
	if _, isPath := args[0].(pathOperand); !isPath {
		return nil, fmt.Errorf("first argument of %s must be an attribute path", name)
	}
	return funcExpr{name: name, args: args}, nil
}

func (p *parser) parseOperand() (operand, error) {
	t := p.next()
	switch t.kind {
	case tokValue:
		return valueOperand(t.text), nil
	case tokName, tokIdent:
		path := pathOperand{t.text}
		for p.peek().kind == tokDot {
			p.next()
			seg := p.next()
			if seg.kind != tokName && seg.kind != tokIdent {
				return nil, fmt.Errorf("expected path segment at position %d", seg.pos)
			}
			path = append(path, seg.text)
		}
		return path, nil
	default:
		return nil, fmt.Errorf("expected operand at position %d, got %q", t.pos, t.text)
	}
}

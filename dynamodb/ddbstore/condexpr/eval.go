package condexpr

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// EvalInput carries the placeholder substitutions of a request.
type EvalInput struct {
	ExpressionNames  map[string]string
	ExpressionValues map[string]types.AttributeValue
}

// Eval parses expr and evaluates it against item. A nil item behaves like
// an item without attributes.
func Eval(expr string, in EvalInput, item map[string]types.AttributeValue) (bool, error) {
	e, err := Parse(expr)
	if err != nil {
		return false, fmt.Errorf("parse condition %q: %w", expr, err)
	}
	return e.eval(&env{in: in, item: item})
}

// Match evaluates an already parsed expression.
func Match(e Expr, in EvalInput, item map[string]types.AttributeValue) (bool, error) {
	return e.eval(&env{in: in, item: item})
}

type env struct {
	in   EvalInput
	item map[string]types.AttributeValue
}

type operand interface {
	resolve(env *env) (types.AttributeValue, error)
}

type valueOperand string

func (v valueOperand) resolve(env *env) (types.AttributeValue, error) {
	av, ok := env.in.ExpressionValues[string(v)]
	if !ok {
		return nil, fmt.Errorf("expression attribute value %s is not defined", v)
	}
	return av, nil
}

type pathOperand []string

// resolve returns nil without error for paths that are absent from the item.
func (p pathOperand) resolve(env *env) (types.AttributeValue, error) {
	doc := env.item
	var cur types.AttributeValue
	for i, seg := range p {
		name := seg
		if strings.HasPrefix(seg, "#") {
			n, ok := env.in.ExpressionNames[seg]
			if !ok {
				return nil, fmt.Errorf("expression attribute name %s is not defined", seg)
			}
			name = n
		}
		if doc == nil {
			return nil, nil
		}
		av, ok := doc[name]
		if !ok {
			return nil, nil
		}
		cur = av
		if i < len(p)-1 {
			m, isMap := av.(*types.AttributeValueMemberM)
			if !isMap {
				return nil, nil
			}
			doc = m.Value
		}
	}
	return cur, nil
}

type orExpr struct{ left, right Expr }

func (e orExpr) eval(env *env) (bool, error) {
	l, err := e.left.eval(env)
	if err != nil || l {
		return l, err
	}
	return e.right.eval(env)
}

type andExpr struct{ left, right Expr }

func (e andExpr) eval(env *env) (bool, error) {
	l, err := e.left.eval(env)
	if err != nil || !l {
		return false, err
	}
	return e.right.eval(env)
}

type notExpr struct{ inner Expr }

func (e notExpr) eval(env *env) (bool, error) {
	v, err := e.inner.eval(env)
	return !v, err
}

type compareExpr struct {
	op          string
	left, right operand
}

func (e compareExpr) eval(env *env) (bool, error) {
	l, err := e.left.resolve(env)
	if err != nil {
		return false, err
	}
	r, err := e.right.resolve(env)
	if err != nil {
		return false, err
	}
	if l == nil || r == nil {
		return e.op == "<>", nil
	}
	switch e.op {
	case "=":
		return equal(l, r), nil
	case "<>":
		return !equal(l, r), nil
	}
	c, ok, err := compare(l, r)
	if err != nil || !ok {
		return false, err
	}
	switch e.op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	default:
		return false, fmt.Errorf("unknown comparator %q", e.op)
	}
}

type betweenExpr struct {
	value, lo, hi operand
}

func (e betweenExpr) eval(env *env) (bool, error) {
	lower := compareExpr{op: ">=", left: e.value, right: e.lo}
	upper := compareExpr{op: "<=", left: e.value, right: e.hi}
	return andExpr{lower, upper}.eval(env)
}

type inExpr struct {
	value operand
	list  []operand
}

func (e inExpr) eval(env *env) (bool, error) {
	for _, o := range e.list {
		ok, err := compareExpr{op: "=", left: e.value, right: o}.eval(env)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

type funcExpr struct {
	name string
	args []operand
}

func (e funcExpr) eval(env *env) (bool, error) {
	target, err := e.args[0].resolve(env)
	if err != nil {
		return false, err
	}
	switch e.name {
	case "attribute_exists":
		return target != nil, nil
	case "attribute_not_exists":
		return target == nil, nil
	}

	arg, err := e.args[1].resolve(env)
	if err != nil {
		return false, err
	}
	if target == nil || arg == nil {
		return false, nil
	}
	switch e.name {
	case "begins_with":
		switch t := target.(type) {
		case *types.AttributeValueMemberS:
			a, ok := arg.(*types.AttributeValueMemberS)
			return ok && strings.HasPrefix(t.Value, a.Value), nil
		case *types.AttributeValueMemberB:
			a, ok := arg.(*types.AttributeValueMemberB)
			return ok && bytes.HasPrefix(t.Value, a.Value), nil
		}
		return false, nil
	case "contains":
		switch t := target.(type) {
		case *types.AttributeValueMemberS:
			a, ok := arg.(*types.AttributeValueMemberS)
			return ok && strings.Contains(t.Value, a.Value), nil
		case *types.AttributeValueMemberSS:
			a, ok := arg.(*types.AttributeValueMemberS)
			if !ok {
				return false, nil
			}
			for _, s := range t.Value {
				if s == a.Value {
					return true, nil
				}
			}
			return false, nil
		case *types.AttributeValueMemberL:
			for _, el := range t.Value {
				if equal(el, arg) {
					return true, nil
				}
			}
			return false, nil
		}
		return false, nil
	default:
		return false, fmt.Errorf("unsupported function %q", e.name)
	}
}

func equal(l, r types.AttributeValue) bool {
	if c, ok, err := compare(l, r); ok && err == nil {
		return c == 0
	}
	switch lv := l.(type) {
	case *types.AttributeValueMemberBOOL:
		rv, ok := r.(*types.AttributeValueMemberBOOL)
		return ok && lv.Value == rv.Value
	case *types.AttributeValueMemberNULL:
		_, ok := r.(*types.AttributeValueMemberNULL)
		return ok
	}
	return reflect.DeepEqual(l, r)
}

// compare orders scalars of the same type. ok is false for types without
// an ordering or when the types differ.
func compare(l, r types.AttributeValue) (c int, ok bool, err error) {
	switch lv := l.(type) {
	case *types.AttributeValueMemberS:
		rv, same := r.(*types.AttributeValueMemberS)
		if !same {
			return 0, false, nil
		}
		return strings.Compare(lv.Value, rv.Value), true, nil
	case *types.AttributeValueMemberN:
		rv, same := r.(*types.AttributeValueMemberN)
		if !same {
			return 0, false, nil
		}
		lf, err := parseNumber(lv.Value)
		if err != nil {
			return 0, false, err
		}
		rf, err := parseNumber(rv.Value)
		if err != nil {
			return 0, false, err
		}
		return lf.Cmp(rf), true, nil
	case *types.AttributeValueMemberB:
		rv, same := r.(*types.AttributeValueMemberB)
		if !same {
			return 0, false, nil
		}
		return bytes.Compare(lv.Value, rv.Value), true, nil
	default:
		return 0, false, nil
	}
}

func parseNumber(s string) (*big.Float, error) {
	f, ok := new(big.Float).SetPrec(256).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

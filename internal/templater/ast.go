package templater

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Expression is a parsed template expression ready for evaluation against a
// scope.
type Expression struct {
	src  string
	root node
}

// Parse compiles an expression string.
func Parse(src string) (*Expression, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, fmt.Errorf("tokenizing %q: %w", src, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	p := &parser{tokens: tokens}
	root, err := p.parseExpression(0)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", src, err)
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("parsing %q: unexpected token %q", src, p.tokens[p.pos].text)
	}
	return &Expression{src: src, root: root}, nil
}

// Eval evaluates the expression against the scope.
func (e *Expression) Eval(scope *Scope) (any, error) {
	v, err := e.root.eval(scope)
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", e.src, err)
	}
	return v, nil
}

// EvalString parses and evaluates an expression in one step.
func EvalString(src string, scope *Scope) (any, error) {
	expr, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return expr.Eval(scope)
}

// --- AST ---

type node interface {
	eval(scope *Scope) (any, error)
}

type numberNode struct{ value float64 }

func (n numberNode) eval(*Scope) (any, error) { return n.value, nil }

type stringNode struct{ value string }

func (n stringNode) eval(*Scope) (any, error) { return n.value, nil }

type boolNode struct{ value bool }

func (n boolNode) eval(*Scope) (any, error) { return n.value, nil }

type nullNode struct{}

func (nullNode) eval(*Scope) (any, error) { return nil, nil }

type identNode struct{ name string }

func (n identNode) eval(scope *Scope) (any, error) {
	v, ok := scope.Get(n.name)
	if !ok {
		return nil, fmt.Errorf("unknown variable %q", n.name)
	}
	return v, nil
}

type fieldNode struct {
	object node
	field  string
}

func (n fieldNode) eval(scope *Scope) (any, error) {
	obj, err := n.object.eval(scope)
	if err != nil {
		return nil, err
	}
	if m, ok := obj.(map[string]any); ok {
		return m[n.field], nil
	}
	return nil, fmt.Errorf("cannot access field %q on %T", n.field, obj)
}

type unaryNode struct {
	op      string
	operand node
}

func (n unaryNode) eval(scope *Scope) (any, error) {
	v, err := n.operand.eval(scope)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "-":
		num, err := toNumber(v)
		if err != nil {
			return nil, err
		}
		return -num, nil
	case "!":
		return !truthy(v), nil
	}
	return nil, fmt.Errorf("unknown unary operator %q", n.op)
}

type assignNode struct {
	name  string
	value node
}

func (n assignNode) eval(scope *Scope) (any, error) {
	v, err := n.value.eval(scope)
	if err != nil {
		return nil, err
	}
	scope.Set(n.name, v)
	return v, nil
}

type binaryNode struct {
	op          string
	left, right node
}

func (n binaryNode) eval(scope *Scope) (any, error) {
	// short-circuit logical operators
	switch n.op {
	case "&&":
		left, err := n.left.eval(scope)
		if err != nil {
			return nil, err
		}
		if !truthy(left) {
			return false, nil
		}
		right, err := n.right.eval(scope)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil
	case "||":
		left, err := n.left.eval(scope)
		if err != nil {
			return nil, err
		}
		if truthy(left) {
			return true, nil
		}
		right, err := n.right.eval(scope)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil
	}

	left, err := n.left.eval(scope)
	if err != nil {
		return nil, err
	}
	right, err := n.right.eval(scope)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		return looseEquals(left, right), nil
	case "!=":
		return !looseEquals(left, right), nil
	case "+":
		if ls, ok := left.(string); ok {
			return ls + valueToString(right), nil
		}
		if rs, ok := right.(string); ok {
			return valueToString(left) + rs, nil
		}
	}

	ln, err := toNumber(left)
	if err != nil {
		return nil, fmt.Errorf("operator %q: %w", n.op, err)
	}
	rn, err := toNumber(right)
	if err != nil {
		return nil, fmt.Errorf("operator %q: %w", n.op, err)
	}
	switch n.op {
	case "+":
		return ln + rn, nil
	case "-":
		return ln - rn, nil
	case "*":
		return ln * rn, nil
	case "/":
		if rn == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return ln / rn, nil
	case "%":
		if rn == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return math.Mod(ln, rn), nil
	case "<":
		return ln < rn, nil
	case "<=":
		return ln <= rn, nil
	case ">":
		return ln > rn, nil
	case ">=":
		return ln >= rn, nil
	}
	return nil, fmt.Errorf("unknown operator %q", n.op)
}

type callNode struct {
	name string
	args []node
}

func (n callNode) eval(scope *Scope) (any, error) {
	fn, ok := builtins[n.name]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", n.name)
	}
	args := make([]any, 0, len(n.args))
	for _, argNode := range n.args {
		v, err := argNode.eval(scope)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return fn(args)
}

// --- parser ---

type parser struct {
	tokens []token
	pos    int
}

var precedence = map[string]int{
	"=":  1,
	"||": 2,
	"&&": 3,
	"==": 4, "!=": 4,
	"<": 5, "<=": 5, ">": 5, ">=": 5,
	"+": 6, "-": 6,
	"*": 7, "/": 7, "%": 7,
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) parseExpression(minPrec int) (node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokenOperator {
			break
		}
		prec, known := precedence[tok.text]
		if !known || prec < minPrec {
			break
		}
		p.pos++
		if tok.text == "=" {
			ident, ok := left.(identNode)
			if !ok {
				return nil, fmt.Errorf("left side of assignment must be a variable")
			}
			// right-associative
			right, err := p.parseExpression(prec)
			if err != nil {
				return nil, err
			}
			left = assignNode{name: ident.name, value: right}
			continue
		}
		right, err := p.parseExpression(prec + 1)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.text, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	switch tok.kind {
	case tokenNumber:
		p.pos++
		return numberNode{value: tok.num}, nil
	case tokenString:
		p.pos++
		return stringNode{value: tok.text}, nil
	case tokenIdent:
		p.pos++
		switch tok.text {
		case "true":
			return boolNode{value: true}, nil
		case "false":
			return boolNode{value: false}, nil
		case "null":
			return nullNode{}, nil
		}
		var n node
		if next, ok := p.peek(); ok && next.kind == tokenLeftParen {
			call, err := p.parseCall(tok.text)
			if err != nil {
				return nil, err
			}
			n = call
		} else {
			n = identNode{name: tok.text}
		}
		return p.parseFieldChain(n)
	case tokenLeftParen:
		p.pos++
		inner, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		tok, ok := p.peek()
		if !ok || tok.kind != tokenRightParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return p.parseFieldChain(inner)
	case tokenOperator:
		if tok.text == "-" || tok.text == "!" {
			p.pos++
			operand, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			return unaryNode{op: tok.text, operand: operand}, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %q", tok.text)
}

func (p *parser) parseCall(name string) (node, error) {
	// consume '('
	p.pos++
	call := callNode{name: name}
	if tok, ok := p.peek(); ok && tok.kind == tokenRightParen {
		p.pos++
		return call, nil
	}
	for {
		arg, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		call.args = append(call.args, arg)
		tok, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("missing closing parenthesis in call of %q", name)
		}
		if tok.kind == tokenComma {
			p.pos++
			continue
		}
		if tok.kind == tokenRightParen {
			p.pos++
			return call, nil
		}
		return nil, fmt.Errorf("unexpected token %q in call of %q", tok.text, name)
	}
}

func (p *parser) parseFieldChain(base node) (node, error) {
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokenDot {
			return base, nil
		}
		p.pos++
		field, ok := p.peek()
		if !ok || field.kind != tokenIdent {
			return nil, fmt.Errorf("expected field name after '.'")
		}
		p.pos++
		base = fieldNode{object: base, field: field.text}
	}
}

// --- value helpers ---

func toNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%T is not a number", v)
}

func truthy(v any) bool {
	switch n := v.(type) {
	case nil:
		return false
	case bool:
		return n
	case float64:
		return n != 0
	case int:
		return n != 0
	case string:
		return n != ""
	}
	return true
}

func looseEquals(a, b any) bool {
	an, aerr := toNumber(a)
	bn, berr := toNumber(b)
	if aerr == nil && berr == nil {
		_, aIsStr := a.(string)
		_, bIsStr := b.(string)
		if !aIsStr || !bIsStr {
			return an == bn
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}
	return reflect.DeepEqual(a, b)
}

// valueToString renders a value for string interpolation. Whole numbers
// print without a fraction part.
func valueToString(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case bool:
		return strconv.FormatBool(n)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%v", v)
}

// --- builtin functions ---

var builtins = map[string]func(args []any) (any, error){
	"min":   numericFold("min", math.Min),
	"max":   numericFold("max", math.Max),
	"abs":   numericUnary("abs", math.Abs),
	"round": numericUnary("round", math.Round),
	"floor": numericUnary("floor", math.Floor),
	"ceil":  numericUnary("ceil", math.Ceil),
	"sqrt":  numericUnary("sqrt", math.Sqrt),
	"pow": func(args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("pow expects 2 arguments")
		}
		a, err := toNumber(args[0])
		if err != nil {
			return nil, err
		}
		b, err := toNumber(args[1])
		if err != nil {
			return nil, err
		}
		return math.Pow(a, b), nil
	},
	"List": func(args []any) (any, error) {
		return NewList(args...), nil
	},
}

func numericFold(name string, f func(a, b float64) float64) func(args []any) (any, error) {
	return func(args []any) (any, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("%s expects at least 1 argument", name)
		}
		acc, err := toNumber(args[0])
		if err != nil {
			return nil, err
		}
		for _, arg := range args[1:] {
			v, err := toNumber(arg)
			if err != nil {
				return nil, err
			}
			acc = f(acc, v)
		}
		return acc, nil
	}
}

func numericUnary(name string, f func(float64) float64) func(args []any) (any, error) {
	return func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s expects 1 argument", name)
		}
		v, err := toNumber(args[0])
		if err != nil {
			return nil, err
		}
		return f(v), nil
	}
}

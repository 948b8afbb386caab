package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/pgquery/nodes"
)

// tokenize splits input into tokens, respecting single-quoted strings
// and recognising multi-char operators (!=, <>, >=, <=, ::) and punctuation.
func tokenize(input string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if inQuote {
			cur.WriteByte(ch)
			if ch == '\'' {
				if i+1 < len(input) && input[i+1] == '\'' {
					cur.WriteByte('\'')
					i++
				} else {
					inQuote = false
					flush()
				}
			}
			continue
		}

		switch {
		case ch == '\'':
			flush()
			cur.WriteByte(ch)
			inQuote = true

		case ch == '(' || ch == ')' || ch == ',':
			flush()
			tokens = append(tokens, string(ch))

		case ch == '!' && i+1 < len(input) && input[i+1] == '=':
			flush()
			tokens = append(tokens, "!=")
			i++
		case ch == ':' && i+1 < len(input) && input[i+1] == ':':
			flush()
			tokens = append(tokens, "::")
			i++
		case ch == '<' && i+1 < len(input) && (input[i+1] == '>' || input[i+1] == '='):
			flush()
			tokens = append(tokens, input[i:i+2])
			i++
		case ch == '>' && i+1 < len(input) && input[i+1] == '=':
			flush()
			tokens = append(tokens, ">=")
			i++
		case ch == '=' || ch == '>' || ch == '<':
			flush()
			tokens = append(tokens, string(ch))

		// u.* stays one token.
		case ch == '*' && strings.HasSuffix(cur.String(), "."):
			cur.WriteByte(ch)
		case ch == '+' || ch == '-' || ch == '*' || ch == '/':
			flush()
			tokens = append(tokens, string(ch))

		case ch == ' ' || ch == '\t':
			flush()

		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return tokens
}

// parseValue converts a token string to a Go value.
func parseValue(token string) (any, error) {
	lower := strings.ToLower(token)
	switch lower {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	case "default":
		return nodes.Default, nil
	}
	if strings.HasPrefix(token, "'") && strings.HasSuffix(token, "'") && len(token) >= 2 {
		inner := token[1 : len(token)-1]
		return strings.ReplaceAll(inner, "''", "'"), nil
	}
	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("cannot parse value: %s", token)
}

// parseValueList parses comma-separated values, e.g. "1, 'a', null".
func parseValueList(input string) ([]any, error) {
	var vals []any
	for _, part := range splitTopLevelCommas(input) {
		v, err := parseValue(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// splitTopLevelCommas splits s on commas outside parentheses and quotes.
func splitTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '\'':
			inQuote = !inQuote
		case inQuote:
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" || len(parts) > 0 {
		parts = append(parts, last)
	}
	return parts
}

var comparisonOps = map[string]string{
	"=":  nodes.OpEq,
	"!=": nodes.OpNotEq,
	"<>": nodes.OpNotEq,
	"<":  nodes.OpLt,
	"<=": nodes.OpLtEq,
	">":  nodes.OpGt,
	">=": nodes.OpGtEq,
}

// parser is a recursive descent parser over the tokens of one expression.
// Precedence from loosest: or, and, not, comparison, + -, * /, postfix ::.
type parser struct {
	sess   *Session
	tokens []string
	pos    int
}

func (p *parser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *parser) peekLower() string { return strings.ToLower(p.peek()) }

func (p *parser) next() string {
	t := p.peek()
	p.pos++
	return t
}

// accept consumes the next token if it matches kw case-insensitively.
func (p *parser) accept(kw string) bool {
	if p.pos < len(p.tokens) && strings.EqualFold(p.tokens[p.pos], kw) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(kw string) error {
	if !p.accept(kw) {
		if p.pos >= len(p.tokens) {
			return fmt.Errorf("expected %q at end of input", kw)
		}
		return fmt.Errorf("expected %q, got %q", kw, p.peek())
	}
	return nil
}

// parseExpression parses a complete expression against the current query.
func (s *Session) parseExpression(input string) (nodes.Expr, error) {
	p := &parser{sess: s, tokens: tokenize(input)}
	if len(p.tokens) == 0 {
		return nil, errors.New("empty expression")
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("unexpected %q", p.peek())
	}
	return e, nil
}

func (p *parser) parseOr() (nodes.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = nodes.Or(left, right)
	}
	return left, nil
}

func (p *parser) parseAnd() (nodes.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.accept("and") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = nodes.And(left, right)
	}
	return left, nil
}

func (p *parser) parseNot() (nodes.Expr, error) {
	if p.accept("not") {
		e, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return nodes.Not(e), nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (nodes.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	tok := p.peekLower()
	if op, ok := comparisonOps[tok]; ok {
		p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return nodes.Call(op, left, right), nil
	}

	switch tok {
	case "is":
		p.next()
		negate := p.accept("not")
		if err := p.expect("null"); err != nil {
			return nil, err
		}
		if negate {
			return nodes.Not(nodes.IsNil(left)), nil
		}
		return nodes.IsNil(left), nil
	case "not":
		p.next()
		e, err := p.parseMatch(left)
		if err != nil {
			return nil, err
		}
		return nodes.Not(e), nil
	case "in", "like", "ilike":
		return p.parseMatch(left)
	}
	return left, nil
}

// parseMatch parses the IN / LIKE / ILIKE tail of a comparison.
func (p *parser) parseMatch(left nodes.Expr) (nodes.Expr, error) {
	switch op := strings.ToLower(p.next()); op {
	case "like", "ilike":
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if op == "like" {
			return nodes.Like(left, right), nil
		}
		return nodes.ILike(left, right), nil
	case "in":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		var vals []any
		for {
			e, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			vals = append(vals, e)
			if !p.accept(",") {
				break
			}
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return nodes.In(left, nodes.List(vals...)), nil
	default:
		return nil, fmt.Errorf("expected in, like or ilike after not, got %q", op)
	}
}

func (p *parser) parseAdditive() (nodes.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != "+" && op != "-" {
			return left, nil
		}
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		if op == "+" {
			left = nodes.Add(left, right)
		} else {
			left = nodes.Sub(left, right)
		}
	}
}

func (p *parser) parseMultiplicative() (nodes.Expr, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != "*" && op != "/" {
			return left, nil
		}
		p.next()
		right, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		if op == "*" {
			left = nodes.Mul(left, right)
		} else {
			left = nodes.Div(left, right)
		}
	}
}

// parsePostfix handles expr::type casts.
func (p *parser) parsePostfix() (nodes.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.accept("::") {
		if p.pos >= len(p.tokens) {
			return nil, errors.New("expected type after ::")
		}
		t, err := nodes.ParseType(p.next())
		if err != nil {
			return nil, err
		}
		e = nodes.Tagged(e, t)
	}
	return e, nil
}

func (p *parser) parsePrimary() (nodes.Expr, error) {
	if p.pos >= len(p.tokens) {
		return nil, errors.New("unexpected end of expression")
	}
	tok := p.next()
	switch {
	case tok == "(":
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		return e, p.expect(")")

	case tok == "-":
		if p.pos < len(p.tokens) {
			if v, err := parseValue("-" + p.peek()); err == nil {
				p.next()
				return p.sess.bindValue(v), nil
			}
		}
		return nil, errors.New("unary minus needs a number")

	case strings.HasPrefix(tok, "'"):
		v, err := parseValue(tok)
		if err != nil {
			return nil, err
		}
		return p.sess.bindValue(v), nil
	}

	switch strings.ToLower(tok) {
	case "true", "false", "null":
		v, _ := parseValue(tok)
		return p.sess.bindValue(v), nil
	}
	if v, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return p.sess.bindValue(v), nil
	}
	if v, err := strconv.ParseFloat(tok, 64); err == nil {
		return p.sess.bindValue(v), nil
	}
	if p.peek() == "(" {
		return p.parseCall(tok)
	}
	if !isIdentifier(tok) {
		return nil, fmt.Errorf("unexpected %q", tok)
	}
	return p.sess.resolveColumn(tok)
}

// parseCall parses name(args). count(*) takes no arguments and a leading
// distinct makes the call DISTINCT.
func (p *parser) parseCall(name string) (nodes.Expr, error) {
	p.next() // (
	name = strings.ToLower(name)
	if p.accept("*") {
		return nodes.Call(name), p.expect(")")
	}
	if p.accept(")") {
		return nodes.Call(name), nil
	}
	distinct := p.accept("distinct")
	var args []any
	for {
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if !p.accept(",") {
			break
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	if distinct {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s(distinct ...) takes one argument", name)
		}
		return nodes.CallDistinct(name, args[0]), nil
	}
	return nodes.Call(name, args...), nil
}

// isIdentifier reports whether token looks like name, name.field or name.*.
func isIdentifier(token string) bool {
	if token == "" {
		return false
	}
	for i, r := range token {
		switch {
		case r == '_' || r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9' && i > 0:
		case r == '*' && i == len(token)-1 && strings.HasSuffix(token, ".*"):
		default:
			return false
		}
	}
	return true
}

// parseOrders parses "expr [asc|desc] [nulls first|nulls last], ...".
func (s *Session) parseOrders(input string) ([]nodes.Order, error) {
	var orders []nodes.Order
	for _, part := range splitTopLevelCommas(input) {
		fields := strings.Fields(part)
		desc, nulls := false, ""
		for len(fields) > 1 {
			last := strings.ToLower(fields[len(fields)-1])
			switch {
			case (last == "first" || last == "last") && len(fields) > 2 && strings.EqualFold(fields[len(fields)-2], "nulls"):
				nulls = last
				fields = fields[:len(fields)-2]
				continue
			case last == "asc":
				fields = fields[:len(fields)-1]
			case last == "desc":
				desc = true
				fields = fields[:len(fields)-1]
			}
			break
		}
		e, err := s.parseExpression(strings.Join(fields, " "))
		if err != nil {
			return nil, err
		}
		orders = append(orders, nodes.Order{Expr: e, Dir: direction(desc, nulls)})
	}
	return orders, nil
}

func direction(desc bool, nulls string) nodes.Direction {
	switch {
	case desc && nulls == "first":
		return nodes.DescNullsFirst
	case desc && nulls == "last":
		return nodes.DescNullsLast
	case desc:
		return nodes.Desc
	case nulls == "first":
		return nodes.AscNullsFirst
	case nulls == "last":
		return nodes.AscNullsLast
	}
	return nodes.Asc
}

package nodes

import (
	"strings"

	"github.com/bawdo/pgquery/sqlbuf"
)

// FragmentPart is one segment of a fragment: raw SQL text when Expr is nil
// and IsExpr is false, otherwise a spliced expression.
type FragmentPart struct {
	Raw    string
	Expr   Expr
	IsExpr bool
}

// KeywordArg is a named fragment argument. PostgreSQL fragments cannot use
// them; the renderer rejects any fragment that carries keywords.
type KeywordArg struct {
	Key   string
	Value any
}

// FragmentNode is a raw SQL escape hatch interleaving text and expressions.
//
// SECURITY: raw parts are emitted verbatim. Never build them from user input;
// pass user values as expression parts (or ParamNodes) instead.
type FragmentNode struct {
	Predications
	Combinable
	Parts     []FragmentPart
	Keywords  []KeywordArg
	ExtraArgs int // arguments left over after every ? was consumed
}

func (n *FragmentNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitFragment(n, b) }

func newFragment(parts []FragmentPart) *FragmentNode {
	n := &FragmentNode{Parts: parts}
	n.Predications.self = n
	n.Combinable.self = n
	return n
}

// Fragment builds a fragment from its segments: strings become raw text and
// every other value is spliced in as an expression.
func Fragment(segments ...any) *FragmentNode {
	parts := make([]FragmentPart, 0, len(segments))
	for _, s := range segments {
		if raw, ok := s.(string); ok {
			parts = append(parts, FragmentPart{Raw: raw})
			continue
		}
		parts = append(parts, FragmentPart{Expr: Literal(s), IsExpr: true})
	}
	return newFragment(parts)
}

// Frag builds a fragment from a format string in which each ? is replaced by
// the next argument. \? yields a literal question mark. A placeholder with no
// argument leaves an expression part with a nil Expr, which the renderer
// reports as an error, as it does for surplus arguments.
func Frag(format string, args ...any) *FragmentNode {
	var parts []FragmentPart
	var raw strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c == '\\' && i+1 < len(format) && format[i+1] == '?' {
			raw.WriteByte('?')
			i++
			continue
		}
		if c != '?' {
			raw.WriteByte(c)
			continue
		}
		if raw.Len() > 0 {
			parts = append(parts, FragmentPart{Raw: raw.String()})
			raw.Reset()
		}
		part := FragmentPart{IsExpr: true}
		if next < len(args) {
			part.Expr = Literal(args[next])
		}
		next++
		parts = append(parts, part)
	}
	if raw.Len() > 0 {
		parts = append(parts, FragmentPart{Raw: raw.String()})
	}
	n := newFragment(parts)
	if next < len(args) {
		n.ExtraArgs = len(args) - next
	}
	return n
}

// KeywordFragment builds a fragment from keyword arguments, as used by
// document databases. Kept so builders can express it; rendering fails.
func KeywordFragment(kw ...KeywordArg) *FragmentNode {
	n := newFragment(nil)
	n.Keywords = kw
	return n
}

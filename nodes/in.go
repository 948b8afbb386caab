package nodes

import (
	"reflect"

	"github.com/bawdo/pgquery/sqlbuf"
)

// InNode is a membership test. The rendering depends on the shape of Right:
// a ListNode renders IN (...), anything else renders = ANY(...). Bind a
// slice with Param to get = ANY($n).
type InNode struct {
	Combinable
	Left  Expr
	Right Expr
}

func (n *InNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitIn(n, b) }

// In creates a membership test of left against right. A Go slice (other
// than []byte) becomes a ListNode.
func In(left, right any) *InNode {
	n := &InNode{Left: Literal(left), Right: inRight(right)}
	n.Combinable.self = n
	return n
}

func inRight(right any) Expr {
	if l, ok := right.(*LiteralNode); ok && l != nil {
		right = l.Value
	}
	if _, ok := right.([]byte); !ok {
		if rv := reflect.ValueOf(right); rv.Kind() == reflect.Slice {
			items := make([]any, rv.Len())
			for i := range items {
				items[i] = rv.Index(i).Interface()
			}
			return List(items...)
		}
	}
	return Literal(right)
}

// ListNode is a literal list of expressions, the right side of IN (...).
type ListNode struct {
	Items []Expr
}

func (n *ListNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitList(n, b) }

// List wraps values as a ListNode.
func List(vals ...any) *ListNode {
	return &ListNode{Items: exprs(vals)}
}

// Package nodes defines the expression and query values consumed by the
// compiler. Values are built by callers (or the managers package) and are
// treated as immutable once handed to a visitor.
package nodes

import "github.com/bawdo/pgquery/sqlbuf"

// Expr is the interface that all expression nodes implement. Accept renders
// the node into b through the visitor.
type Expr interface {
	Accept(v Visitor, b *sqlbuf.Buffer) error
}

// Visitor defines the interface for walking expressions and producing SQL.
// The postgres visitor in package visitors is the reference implementation.
type Visitor interface {
	VisitLiteral(n *LiteralNode, b *sqlbuf.Buffer) error
	VisitParam(n *ParamNode, b *sqlbuf.Buffer) error
	VisitColumn(n *ColumnNode, b *sqlbuf.Buffer) error
	VisitCall(n *CallNode, b *sqlbuf.Buffer) error
	VisitIn(n *InNode, b *sqlbuf.Buffer) error
	VisitList(n *ListNode, b *sqlbuf.Buffer) error
	VisitIsNil(n *IsNilNode, b *sqlbuf.Buffer) error
	VisitNot(n *NotNode, b *sqlbuf.Buffer) error
	VisitFragment(n *FragmentNode, b *sqlbuf.Buffer) error
	VisitTagged(n *TaggedNode, b *sqlbuf.Buffer) error
	VisitSubquery(n *SubqueryNode, b *sqlbuf.Buffer) error
	VisitInterval(n *IntervalNode, b *sqlbuf.Buffer) error
	VisitDatetimeAdd(n *DatetimeAddNode, b *sqlbuf.Buffer) error
	VisitDateAdd(n *DateAddNode, b *sqlbuf.Buffer) error
	VisitTuple(n *TupleNode, b *sqlbuf.Buffer) error
	VisitFilter(n *FilterNode, b *sqlbuf.Buffer) error
	VisitOver(n *OverNode, b *sqlbuf.Buffer) error
}

// Literal wraps a raw Go value into a LiteralNode. If val already
// implements Expr, it is returned as-is.
func Literal(val any) Expr {
	if e, ok := val.(Expr); ok {
		return e
	}
	return newLiteral(val)
}

func newLiteral(val any) *LiteralNode {
	n := &LiteralNode{Value: val}
	n.Predications.self = n
	return n
}

func exprs(vals []any) []Expr {
	out := make([]Expr, len(vals))
	for i, v := range vals {
		out[i] = Literal(v)
	}
	return out
}

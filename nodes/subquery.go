package nodes

import "github.com/bawdo/pgquery/sqlbuf"

// SubqueryNode embeds a nested SELECT, rendered in parentheses.
type SubqueryNode struct {
	Predications
	Query *Query
}

func (n *SubqueryNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitSubquery(n, b) }

// Subquery wraps q for use as an expression.
func Subquery(q *Query) *SubqueryNode {
	n := &SubqueryNode{Query: q}
	n.Predications.self = n
	return n
}

// TupleNode is a row constructor: (a, b, ...).
type TupleNode struct {
	Predications
	Items []Expr
}

func (n *TupleNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitTuple(n, b) }

// Tuple wraps values as a row constructor.
func Tuple(vals ...any) *TupleNode {
	n := &TupleNode{Items: exprs(vals)}
	n.Predications.self = n
	return n
}

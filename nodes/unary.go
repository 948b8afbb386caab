package nodes

import "github.com/bawdo/pgquery/sqlbuf"

// IsNilNode renders expr IS NULL.
type IsNilNode struct {
	Combinable
	Expr Expr
}

func (n *IsNilNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitIsNil(n, b) }

// IsNil creates an IS NULL test.
func IsNil(e any) *IsNilNode {
	n := &IsNilNode{Expr: Literal(e)}
	n.Combinable.self = n
	return n
}

// NotNode renders NOT (expr).
type NotNode struct {
	Combinable
	Expr Expr
}

func (n *NotNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitNot(n, b) }

// Not negates e.
func Not(e Expr) *NotNode {
	n := &NotNode{Expr: e}
	n.Combinable.self = n
	return n
}

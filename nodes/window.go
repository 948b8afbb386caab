package nodes

import "github.com/bawdo/pgquery/sqlbuf"

// WindowDef describes a window: PARTITION BY, ORDER BY and an optional raw
// frame clause such as "ROWS BETWEEN 1 PRECEDING AND CURRENT ROW".
type WindowDef struct {
	PartitionBy []Expr
	OrderBy     []Order
	Frame       *FragmentNode
}

// Window is a named window declared in the WINDOW clause.
type Window struct {
	Name string
	Def  WindowDef
}

// FilterNode renders aggregate FILTER (WHERE condition).
type FilterNode struct {
	Predications
	Aggregate Expr
	Where     Expr
}

func (n *FilterNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitFilter(n, b) }

// Filter restricts the rows an aggregate sees.
func Filter(aggregate, where Expr) *FilterNode {
	n := &FilterNode{Aggregate: aggregate, Where: where}
	n.Predications.self = n
	return n
}

// OverNode applies a window to an expression, either by name or inline.
type OverNode struct {
	Predications
	Expr   Expr
	Window string
	Def    *WindowDef
}

func (n *OverNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitOver(n, b) }

// Over applies the named window.
func Over(e Expr, window string) *OverNode {
	n := &OverNode{Expr: e, Window: window}
	n.Predications.self = n
	return n
}

// OverDef applies an inline window definition.
func OverDef(e Expr, def WindowDef) *OverNode {
	n := &OverNode{Expr: e, Def: &def}
	n.Predications.self = n
	return n
}

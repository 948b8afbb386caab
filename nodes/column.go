package nodes

import "github.com/bawdo/pgquery/sqlbuf"

// ColumnNode references a field of the source at position Source. When All
// is set the node stands for every known field of that source.
type ColumnNode struct {
	Predications
	Source int
	Field  string
	All    bool
}

func (n *ColumnNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitColumn(n, b) }

// Col creates a reference to field of source ix.
func Col(ix int, field string) *ColumnNode {
	n := &ColumnNode{Source: ix, Field: field}
	n.Predications.self = n
	return n
}

// AllFields references every field of source ix.
func AllFields(ix int) *ColumnNode {
	n := &ColumnNode{Source: ix, All: true}
	n.Predications.self = n
	return n
}

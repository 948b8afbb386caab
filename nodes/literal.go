package nodes

import "github.com/bawdo/pgquery/sqlbuf"

// LiteralNode wraps a Go value rendered inline as SQL text. Supported values
// are nil, bool, integers, floats, decimal.Decimal, uuid.UUID, string, []byte
// and slices of those.
type LiteralNode struct {
	Predications
	Value any
}

func (n *LiteralNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitLiteral(n, b) }

// ParamNode references the owning query's Params by zero-based index.
type ParamNode struct {
	Predications
	Index int
}

func (n *ParamNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitParam(n, b) }

// Param creates a reference to the k-th bound value of the query.
func Param(k int) *ParamNode {
	n := &ParamNode{Index: k}
	n.Predications.self = n
	return n
}

type defaultMarker struct{}

// Default, used as an INSERT row value, renders the DEFAULT keyword.
var Default any = defaultMarker{}

// IsDefault reports whether v is the Default marker.
func IsDefault(v any) bool {
	_, ok := v.(defaultMarker)
	return ok
}

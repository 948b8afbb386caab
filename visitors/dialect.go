// Package visitors compiles nodes.Query values and DDL operations into SQL
// text plus an ordered parameter list. Compilation is pure: visitors hold no
// per-call state and may be shared between goroutines.
package visitors

import "github.com/bawdo/pgquery/nodes"

// Dialect supplies the target database's quoting rules, placeholder syntax
// and keyword tables to the renderers.
type Dialect interface {
	// Name identifies the dialect, e.g. "postgres".
	Name() string
	// QuoteIdent quotes an identifier, rejecting names it cannot represent.
	QuoteIdent(name string) (string, error)
	// QuoteTable quotes a table name with an optional schema prefix.
	QuoteTable(prefix, name string) (string, error)
	// Placeholder returns the bind marker for the i-th (1-based) parameter.
	Placeholder(i int) string
	// QuoteString renders s as a string literal.
	QuoteString(s string) string
	// BinaryOperator maps an operator name to its SQL symbol.
	BinaryOperator(name string) (string, bool)
	// JoinKeyword maps a join qualifier to its keyword.
	JoinKeyword(q nodes.JoinQual) (string, bool)
	// TypeName maps a logical type to a native type name.
	TypeName(t nodes.Type) string
}

// SQL keywords for Direction values.
var directionSQL = [...]string{
	nodes.Asc:            "",
	nodes.AscNullsFirst:  " ASC NULLS FIRST",
	nodes.AscNullsLast:   " ASC NULLS LAST",
	nodes.Desc:           " DESC",
	nodes.DescNullsFirst: " DESC NULLS FIRST",
	nodes.DescNullsLast:  " DESC NULLS LAST",
}

// SQL keywords for CombinationKind values.
var combinationSQL = [...]string{
	nodes.Union:        "UNION",
	nodes.UnionAll:     "UNION ALL",
	nodes.Except:       "EXCEPT",
	nodes.ExceptAll:    "EXCEPT ALL",
	nodes.Intersect:    "INTERSECT",
	nodes.IntersectAll: "INTERSECT ALL",
}

// SQL keywords for BoolOp values.
var boolOpSQL = [...]string{
	nodes.AndOp: " AND ",
	nodes.OrOp:  " OR ",
}

// Package pgquery compiles relational queries to PostgreSQL SQL.
//
// This package re-exports commonly used types and functions from subpackages
// for convenience. Advanced users can import subpackages directly:
//   - github.com/bawdo/pgquery/managers (query builders)
//   - github.com/bawdo/pgquery/nodes (expression and query model)
//   - github.com/bawdo/pgquery/visitors (SQL generation)
//   - github.com/bawdo/pgquery/ddl (schema change operations)
//   - github.com/bawdo/pgquery/plugins (query transformers)
package pgquery

import (
	"github.com/bawdo/pgquery/ddl"
	"github.com/bawdo/pgquery/managers"
	"github.com/bawdo/pgquery/nodes"
	"github.com/bawdo/pgquery/visitors"
)

// --- Manager Types ---

// SelectManager provides a fluent API for building queries.
type SelectManager = managers.SelectManager

// InsertManager provides a fluent API for building INSERT statements.
type InsertManager = managers.InsertManager

// UpdateManager provides a fluent API for building UPDATE statements.
type UpdateManager = managers.UpdateManager

// DeleteManager provides a fluent API for building DELETE statements.
type DeleteManager = managers.DeleteManager

// --- Manager Constructors ---

// NewSelect creates a new SelectManager with from as its first source.
func NewSelect(from nodes.Source) *managers.SelectManager {
	return managers.NewSelectManager(from)
}

// NewInsert creates a new InsertManager for inserting into the given table.
func NewInsert(table string) *managers.InsertManager {
	return managers.NewInsertManager(table)
}

// NewUpdate creates a new UpdateManager for updating the given table.
func NewUpdate(table string) *managers.UpdateManager {
	return managers.NewUpdateManager(table)
}

// NewDelete creates a new DeleteManager for deleting from the given table.
func NewDelete(table string) *managers.DeleteManager {
	return managers.NewDeleteManager(table)
}

// --- Core Types ---

// Query is a compiled unit: sources, clauses and parameters.
type Query = nodes.Query

// Expr is the interface every expression implements.
type Expr = nodes.Expr

// Source is one entry of a query's FROM/JOIN chain.
type Source = nodes.Source

// --- Common Constructors ---

// Table creates a table source with optional known fields.
func Table(name string, fields ...string) nodes.Source {
	return nodes.Table(name, fields...)
}

// Col references field of the source at position ix.
func Col(ix int, field string) *nodes.ColumnNode {
	return nodes.Col(ix, field)
}

// AllFields references every known field of the source at position ix.
func AllFields(ix int) *nodes.ColumnNode {
	return nodes.AllFields(ix)
}

// Literal creates an inline literal.
func Literal(value any) nodes.Expr {
	return nodes.Literal(value)
}

// Frag creates a raw SQL fragment with ? placeholders.
//
// SECURITY: The format string is injected verbatim into SQL output.
func Frag(format string, args ...any) *nodes.FragmentNode {
	return nodes.Frag(format, args...)
}

// --- Aggregate Functions ---

// Count creates count(expr), or count(*) without an argument.
func Count(expr ...any) *nodes.CallNode {
	return nodes.Call("count", expr...)
}

// CountDistinct creates count(DISTINCT expr).
func CountDistinct(expr any) *nodes.CallNode {
	return nodes.CallDistinct("count", expr)
}

// Sum creates sum(expr).
func Sum(expr any) *nodes.CallNode {
	return nodes.Call("sum", expr)
}

// Avg creates avg(expr).
func Avg(expr any) *nodes.CallNode {
	return nodes.Call("avg", expr)
}

// Min creates min(expr).
func Min(expr any) *nodes.CallNode {
	return nodes.Call("min", expr)
}

// Max creates max(expr).
func Max(expr any) *nodes.CallNode {
	return nodes.Call("max", expr)
}

// --- Visitor ---

// PostgresVisitor generates PostgreSQL SQL.
type PostgresVisitor = visitors.PostgresVisitor

// CompileError is the error type returned by every compile entry point.
type CompileError = visitors.CompileError

// Error kinds, for use with errors.Is.
var (
	ErrMalformedQuery = visitors.ErrMalformedQuery
	ErrUnsupported    = visitors.ErrUnsupported
)

// NewPostgresVisitor creates a new PostgreSQL visitor.
func NewPostgresVisitor(opts ...visitors.Option) *visitors.PostgresVisitor {
	return visitors.NewPostgresVisitor(opts...)
}

// WithNativeIfNotExists renders CREATE INDEX IF NOT EXISTS natively.
func WithNativeIfNotExists() visitors.Option {
	return visitors.WithNativeIfNotExists()
}

// CompileDDL renders a schema change with a default visitor.
func CompileDDL(op ddl.Operation) ([]string, error) {
	return visitors.NewPostgresVisitor().CompileDDL(op)
}

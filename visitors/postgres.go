package visitors

import (
	"fmt"

	"github.com/bawdo/pgquery/internal/quoting"
	"github.com/bawdo/pgquery/nodes"
)

// Operator SQL strings for operator call names.
var postgresBinaryOps = map[string]string{
	nodes.OpEq:    "=",
	nodes.OpNotEq: "!=",
	nodes.OpLt:    "<",
	nodes.OpLtEq:  "<=",
	nodes.OpGt:    ">",
	nodes.OpGtEq:  ">=",
	nodes.OpAnd:   "AND",
	nodes.OpOr:    "OR",
	nodes.OpLike:  "LIKE",
	nodes.OpILike: "ILIKE",
	nodes.OpPlus:  "+",
	nodes.OpMinus: "-",
	nodes.OpMul:   "*",
	nodes.OpDiv:   "/",
}

// SQL keywords for JoinQual values.
var postgresJoinSQL = [...]string{
	nodes.InnerJoin:        "INNER JOIN",
	nodes.LeftJoin:         "LEFT OUTER JOIN",
	nodes.RightJoin:        "RIGHT OUTER JOIN",
	nodes.FullJoin:         "FULL OUTER JOIN",
	nodes.CrossJoin:        "CROSS JOIN",
	nodes.InnerLateralJoin: "INNER JOIN LATERAL",
	nodes.LeftLateralJoin:  "LEFT OUTER JOIN LATERAL",
	nodes.CrossLateralJoin: "CROSS JOIN LATERAL",
}

// Native names for logical types. Anything not listed passes through.
var postgresTypes = map[string]string{
	"id":                  "integer",
	"binary_id":           "uuid",
	"string":              "varchar",
	"binary":              "bytea",
	"map":                 "jsonb",
	"time_usec":           "time",
	"utc_datetime":        "timestamp",
	"utc_datetime_usec":   "timestamp",
	"naive_datetime":      "timestamp",
	"naive_datetime_usec": "timestamp",
}

type postgresDialect struct{}

// Postgres is the PostgreSQL dialect.
var Postgres Dialect = postgresDialect{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) QuoteIdent(name string) (string, error) {
	return quoting.DoubleQuote(name)
}

func (postgresDialect) QuoteTable(prefix, name string) (string, error) {
	return quoting.Qualified(prefix, name)
}

func (postgresDialect) Placeholder(i int) string { return fmt.Sprintf("$%d", i) }

func (postgresDialect) QuoteString(s string) string { return quoting.SingleQuote(s) }

func (postgresDialect) BinaryOperator(name string) (string, bool) {
	op, ok := postgresBinaryOps[name]
	return op, ok
}

func (postgresDialect) JoinKeyword(q nodes.JoinQual) (string, bool) {
	if q < 0 || int(q) >= len(postgresJoinSQL) {
		return "", false
	}
	return postgresJoinSQL[q], true
}

func (d postgresDialect) TypeName(t nodes.Type) string {
	if t.Elem != nil {
		return d.TypeName(*t.Elem) + "[]"
	}
	if native, ok := postgresTypes[t.Name]; ok {
		return native
	}
	return t.Name
}

// Option configures a visitor at construction time.
type Option func(*baseVisitor)

// WithDialect replaces the PostgreSQL dialect, e.g. with a wrapper that
// restricts identifiers further.
func WithDialect(d Dialect) Option {
	return func(b *baseVisitor) {
		b.dialect = d
	}
}

// WithNativeIfNotExists renders CREATE INDEX ... IF NOT EXISTS natively
// (PostgreSQL 9.5+) instead of wrapping the statement in a DO block.
func WithNativeIfNotExists() Option {
	return func(b *baseVisitor) {
		b.nativeIfNotExists = true
	}
}

// baseVisitor implements the statement entry points shared by every
// dialect. It is immutable after construction.
type baseVisitor struct {
	dialect           Dialect
	nativeIfNotExists bool
}

// applyOptions applies functional options to the baseVisitor.
func (b *baseVisitor) applyOptions(opts []Option) {
	for _, o := range opts {
		o(b)
	}
}

// Dialect returns the dialect the visitor renders for.
func (b *baseVisitor) Dialect() Dialect { return b.dialect }

// PostgresVisitor compiles queries to PostgreSQL SQL.
// Identifiers are quoted with double quotes and placeholders are $1, $2, ...
type PostgresVisitor struct {
	*baseVisitor
}

// NewPostgresVisitor creates a PostgresVisitor ready for use.
func NewPostgresVisitor(opts ...Option) *PostgresVisitor {
	v := &PostgresVisitor{baseVisitor: &baseVisitor{dialect: Postgres}}
	v.applyOptions(opts)
	return v
}

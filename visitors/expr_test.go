package visitors

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bawdo/pgquery/internal/testutil"
	"github.com/bawdo/pgquery/nodes"
	"github.com/bawdo/pgquery/sqlbuf"
)

func postsQuery() *nodes.Query {
	q := nodes.From(nodes.Table("posts", "id", "title"))
	q.Params = []any{"p", nil, []int{1, 2}}
	return q
}

func newTestRenderer(t *testing.T, q *nodes.Query) *renderer {
	t.Helper()
	r, err := NewPostgresVisitor().newRenderer(q, "")
	testutil.AssertNoError(t, err)
	return r
}

func TestLiterals(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t, postsQuery())
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"nil", nil, "NULL"},
		{"nil pointer", (*int)(nil), "NULL"},
		{"true", true, "TRUE"},
		{"false", false, "FALSE"},
		{"int", 42, "42"},
		{"negative int64", int64(-7), "-7"},
		{"uint8", uint8(9), "9"},
		{"float", 1.5, "1.5::float"},
		{"whole float", 2.0, "2.0::float"},
		{"large float", 1e21, "1e+21::float"},
		{"string", "it's", "'it''s'"},
		{"empty string", "", "''"},
		{"bytes", []byte{0x0a, 0xff}, `'\x0aff'::bytea`},
		{"decimal", decimal.RequireFromString("12.5"), "12.5"},
		{"uuid", uuid.MustParse("a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"), "'a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11'::uuid"},
		{"int slice", []int{1, 2}, "ARRAY[1,2]"},
		{"string slice", []string{"a", "b"}, "ARRAY['a','b']"},
		{"empty slice", []int{}, "ARRAY[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertSQL(t, r, nodes.Literal(tt.value), tt.expected)
		})
	}
}

func TestExpressions(t *testing.T) {
	t.Parallel()
	id := nodes.Col(0, "id")
	title := nodes.Col(0, "title")
	sq := nodes.From(nodes.Table("comments", "post_id"))
	sq.Select = nodes.Fields(nodes.Col(0, "post_id"))

	tests := []struct {
		name     string
		expr     nodes.Expr
		expected string
	}{
		{"param", nodes.Param(0), "$1"},
		{"null param", nodes.Param(1), "NULL"},
		{"column", title, `p0."title"`},
		{"all fields", nodes.AllFields(0), `p0."id", p0."title"`},
		{"equality", id.Eq(1), `p0."id" = 1`},
		{"inequality", id.NotEq(1), `p0."id" != 1`},
		{"like", title.Like("go%"), `p0."title" LIKE 'go%'`},
		{"ilike", title.ILike("go%"), `p0."title" ILIKE 'go%'`},
		{"null param comparison", title.Eq(nodes.Param(1)), `p0."title" = NULL`},
		{"nested boolean", nodes.And(id.Eq(1), nodes.Or(id.Eq(2), id.Eq(3))),
			`(p0."id" = 1) AND ((p0."id" = 2) OR (p0."id" = 3))`},
		{"chained", id.Gt(1).And(id.Lt(10)), `(p0."id" > 1) AND (p0."id" < 10)`},
		{"arithmetic", nodes.Add(id, nodes.Mul(id, 2)), `p0."id" + (p0."id" * 2)`},
		{"is nil operand", nodes.Eq(title.IsNil(), true), `(p0."title" IS NULL) = TRUE`},
		{"is nil", title.IsNil(), `p0."title" IS NULL`},
		{"not", nodes.Not(id.Eq(1)), `NOT (p0."id" = 1)`},
		{"function", nodes.Call("lower", title), `lower(p0."title")`},
		{"qualified function", nodes.Call("pg_catalog.lower", title), `pg_catalog.lower(p0."title")`},
		{"distinct aggregate", nodes.CallDistinct("count", id), `count(DISTINCT p0."id")`},
		{"count star", nodes.Call("count"), "count(*)"},
		{"no-arg function", nodes.Call("now"), "now()"},
		{"in list", id.In(1, 2), `p0."id" IN (1, 2)`},
		{"in empty list", nodes.In(id, nodes.List()), "false"},
		{"in go slice", nodes.In(id, []int{1, 2}), `p0."id" IN (1, 2)`},
		{"in empty go slice", nodes.In(id, []string{}), "false"},
		{"in param", id.InExpr(nodes.Param(2)), `p0."id" = ANY($1)`},
		{"in subquery", id.InExpr(nodes.Subquery(sq)), `p0."id" = ANY((SELECT sc0."post_id" FROM "comments" AS sc0))`},
		{"list", nodes.List(1, 2), "ARRAY[1,2]"},
		{"fragment", nodes.Frag("lower(?)", title), `lower(p0."title")`},
		{"fragment escape", nodes.Frag(`? \? ?`, 1, 2), "1 ? 2"},
		{"fragment segments", nodes.Fragment("coalesce(", title, ", 'x')"), `coalesce(p0."title", 'x')`},
		{"cast param", nodes.Tagged(nodes.Param(0), nodes.T("string")), "$1::varchar"},
		{"cast array", nodes.Tagged(id, nodes.ArrayOf(nodes.T("integer"))), `p0."id"::integer[]`},
		{"cast bytes", nodes.Tagged([]byte{1}, nodes.T("binary")), `'\x01'::bytea`},
		{"cast decimal", nodes.Tagged(1, nodes.Type{Name: "decimal", Precision: 10, Scale: 2}), "1::decimal(10,2)"},
		{"cast uuid", nodes.Tagged(nodes.Param(0), nodes.T("binary_id")), "$1::uuid"},
		{"interval", nodes.Interval(3, nodes.Day), "interval '3 day'"},
		{"float interval", nodes.Interval(1.5, nodes.Hour), "interval '1.5 hour'"},
		{"expression interval", nodes.Interval(id, nodes.Day), `(p0."id"::numeric * interval '1 day')`},
		{"datetime add", nodes.DatetimeAdd(nodes.Col(0, "inserted_at"), 1, nodes.Month),
			`p0."inserted_at"::timestamp + interval '1 month'`},
		{"datetime add tagged", nodes.DatetimeAdd(nodes.Tagged(nodes.Param(0), nodes.T("utc_datetime")), 1, nodes.Day),
			"$1::timestamp + interval '1 day'"},
		{"date add", nodes.DateAdd(nodes.Col(0, "published_on"), 2, nodes.Week),
			`(p0."published_on"::date + interval '2 week')::date`},
		{"tuple", nodes.Tuple(id, title), `(p0."id", p0."title")`},
		{"filter", nodes.Filter(nodes.Call("count"), id.Gt(5)), `count(*) FILTER (WHERE p0."id" > 5)`},
		{"named window", nodes.Over(nodes.Call("row_number"), "w"), `row_number() OVER "w"`},
		{"inline window", nodes.OverDef(nodes.Call("rank"), nodes.WindowDef{PartitionBy: []nodes.Expr{title}}),
			`rank() OVER (PARTITION BY p0."title")`},
		{"window frame", nodes.OverDef(nodes.Call("sum", id), nodes.WindowDef{
			OrderBy: []nodes.Order{id.Asc()},
			Frame:   nodes.Frag("ROWS BETWEEN 1 PRECEDING AND CURRENT ROW"),
		}), `sum(p0."id") OVER (ORDER BY p0."id" ROWS BETWEEN 1 PRECEDING AND CURRENT ROW)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRenderer(t, postsQuery())
			testutil.AssertSQL(t, r, tt.expr, tt.expected)
		})
	}
}

func TestExpressionErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		expr nodes.Expr
		kind error
	}{
		{"source out of range", nodes.Col(5, "x"), ErrMalformedQuery},
		{"param out of range", nodes.Param(9), ErrMalformedQuery},
		{"operator arity", nodes.Call(nodes.OpEq, 1), ErrMalformedQuery},
		{"bad function name", nodes.Call("drop table;"), ErrMalformedQuery},
		{"keyword fragment", nodes.KeywordFragment(nodes.KeywordArg{Key: "a", Value: 1}), ErrUnsupported},
		{"fragment missing arg", nodes.Frag("f(?, ?)", 1), ErrMalformedQuery},
		{"fragment extra arg", nodes.Frag("now()", 1), ErrMalformedQuery},
		{"interval unit", nodes.Interval(1, "fortnight"), ErrMalformedQuery},
		{"literal type", nodes.Literal(struct{}{}), ErrMalformedQuery},
		{"quoted column", nodes.Col(0, `bad"name`), ErrMalformedQuery},
		{"all fields without metadata", nodes.AllFields(1), ErrMalformedQuery},
		{"empty tuple", nodes.Tuple(), ErrMalformedQuery},
		{"bad cast type", nodes.Tagged(1, nodes.T("int; drop")), ErrMalformedQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := postsQuery()
			q.Sources = append(q.Sources, nodes.Table("events"))
			r := newTestRenderer(t, q)
			var b sqlbuf.Buffer
			err := tt.expr.Accept(r, &b)
			if !errors.Is(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestFloatSQL(t *testing.T) {
	t.Parallel()
	tests := map[float64]string{
		0:       "0.0",
		-3:      "-3.0",
		0.25:    "0.25",
		1234.5:  "1234.5",
		1e-7:    "1e-07",
		100000:  "100000.0",
		3.14159: "3.14159",
	}
	for in, want := range tests {
		testutil.AssertEqual(t, floatSQL(in), want)
	}
}

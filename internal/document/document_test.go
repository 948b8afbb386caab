package document

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/pgquery/nodes"
	"github.com/bawdo/pgquery/plugins/softdelete"
	"github.com/bawdo/pgquery/visitors"
)

var pg = visitors.NewPostgresVisitor()

func compile(t *testing.T, doc string) (string, []any) {
	t.Helper()
	s, err := ParseStatement([]byte(doc))
	require.NoError(t, err)
	sql, params, err := s.Compile(pg)
	require.NoError(t, err)
	return sql, params
}

func TestSelectDocument(t *testing.T) {
	t.Parallel()
	sql, params := compile(t, `
statement: select
from: {table: posts, fields: [id, title]}
joins:
  - qual: left
    source: comments
    on: {"==": [{col: [1, post_id]}, {col: [0, id]}]}
select:
  - {col: [0, title]}
  - {expr: {call: count, args: [{col: [1, post_id]}]}, as: comments}
where:
  - {">": [{col: [0, id]}, 1]}
  - {"!=": [{col: [0, title]}, draft]}
  - {bool: or, expr: {is_nil: {col: [0, title]}}}
group_by: [{col: [0, title]}]
order_by:
  - {expr: {col: [0, title]}, dir: desc}
limit: {param: 0}
params: [10]
`)
	assert.Equal(t, `SELECT p0."title", count(c1."post_id") AS "comments" FROM "posts" AS p0 `+
		`LEFT OUTER JOIN "comments" AS c1 ON c1."post_id" = p0."id" `+
		`WHERE ((p0."id" > 1) AND (p0."title" != 'draft')) OR (p0."title" IS NULL) `+
		`GROUP BY p0."title" ORDER BY p0."title" DESC LIMIT $1`, sql)
	assert.Equal(t, []any{10}, params)
}

func TestSelectDocumentClauses(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		doc      string
		expected string
	}{
		{
			name:     "string source",
			doc:      "statement: select\nfrom: posts\n",
			expected: `SELECT TRUE FROM "posts" AS p0`,
		},
		{
			name:     "prefixed source",
			doc:      "statement: select\nprefix: blog\nfrom: posts\n",
			expected: `SELECT TRUE FROM "blog"."posts" AS p0`,
		},
		{
			name: "distinct on",
			doc: `
statement: select
from: posts
select: [{col: [0, id]}]
distinct: [{col: [0, title]}]
order_by: [{expr: {col: [0, id]}, dir: desc}]
`,
			expected: `SELECT DISTINCT ON (p0."title") p0."id" FROM "posts" AS p0 ORDER BY p0."title", p0."id" DESC`,
		},
		{
			name: "distinct",
			doc: `
statement: select
from: posts
select: [{col: [0, title]}]
distinct: true
`,
			expected: `SELECT DISTINCT p0."title" FROM "posts" AS p0`,
		},
		{
			name: "cross join",
			doc: `
statement: select
from: posts
joins: [{qual: cross, source: comments}]
`,
			expected: `SELECT TRUE FROM "posts" AS p0 CROSS JOIN "comments" AS c1`,
		},
		{
			name: "named window",
			doc: `
statement: select
from: posts
select: [{over: {call: row_number}, window: w}]
windows:
  - name: w
    partition_by: [{col: [0, category]}]
    order_by: [{expr: {col: [0, id]}, dir: desc}]
`,
			expected: `SELECT row_number() OVER "w" FROM "posts" AS p0 WINDOW "w" AS (PARTITION BY p0."category" ORDER BY p0."id" DESC)`,
		},
		{
			name: "recursive cte",
			doc: `
statement: select
recursive: true
with:
  - name: tree
    query:
      from: categories
      select: [{col: [0, id]}]
from: tree
select: [{col: [0, id]}]
`,
			expected: `WITH RECURSIVE "tree" AS (SELECT sc0."id" FROM "categories" AS sc0) SELECT t0."id" FROM "tree" AS t0`,
		},
		{
			name: "fragment cte",
			doc: `
statement: select
with: [{name: nums, fragment: "SELECT generate_series(1, 3)"}]
from: nums
`,
			expected: `WITH "nums" AS (SELECT generate_series(1, 3)) SELECT TRUE FROM "nums" AS n0`,
		},
		{
			name: "union all",
			doc: `
statement: select
from: posts
select: [{col: [0, id]}]
combinations:
  - kind: union_all
    query:
      from: comments
      select: [{col: [0, id]}]
`,
			expected: `SELECT p0."id" FROM "posts" AS p0 UNION ALL (SELECT c0."id" FROM "comments" AS c0)`,
		},
		{
			name: "subquery source",
			doc: `
statement: select
from:
  subquery:
    from: posts
    select: [{col: [0, id]}]
  fields: [id]
select: [{col: [0, id]}]
`,
			expected: `SELECT s0."id" FROM (SELECT sp0."id" FROM "posts" AS sp0) AS s0`,
		},
		{
			name: "lateral fragment join",
			doc: `
statement: select
from: posts
joins:
  - qual: cross_lateral
    source: {fragment: "unnest(?)", args: [{col: [0, tags]}]}
`,
			expected: `SELECT TRUE FROM "posts" AS p0 CROSS JOIN LATERAL (unnest(p0."tags")) AS f1`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sql, _ := compile(t, tt.doc)
			assert.Equal(t, tt.expected, sql)
		})
	}
}

func TestExpressionEncoding(t *testing.T) {
	t.Parallel()
	tests := []struct {
		expr     string
		expected string
	}{
		{`42`, `42`},
		{`true`, `TRUE`},
		{`{lit: hello}`, `'hello'`},
		{`{decimal: "12.5"}`, `12.5`},
		{`{uuid: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"}`, `'6ba7b810-9dad-11d1-80b4-00c04fd430c8'::uuid`},
		{`{col: [0, title]}`, `p0."title"`},
		{`{all: 0}`, `p0."id", p0."title"`},
		{`{call: lower, args: [{col: [0, title]}]}`, `lower(p0."title")`},
		{`{call: count}`, `count(*)`},
		{`{call: count, args: [{col: [0, id]}], distinct: true}`, `count(DISTINCT p0."id")`},
		{`{"+": [{col: [0, id]}, {"*": [{col: [0, id]}, 2]}]}`, `p0."id" + (p0."id" * 2)`},
		{`{not: {"==": [{col: [0, id]}, 1]}}`, `NOT (p0."id" = 1)`},
		{`{is_nil: {col: [0, title]}}`, `p0."title" IS NULL`},
		{`{in: [{col: [0, id]}, {list: [1, 2]}]}`, `p0."id" IN (1, 2)`},
		{`{in: [{col: [0, id]}, {list: []}]}`, `false`},
		{`{list: [1, 2]}`, `ARRAY[1,2]`},
		{`{tuple: [{col: [0, id]}, {col: [0, title]}]}`, `(p0."id", p0."title")`},
		{`{fragment: "lower(?)", args: [{col: [0, title]}]}`, `lower(p0."title")`},
		{`{tagged: {col: [0, id]}, type: "integer[]"}`, `p0."id"::integer[]`},
		{`{interval: [3, day]}`, `interval '3 day'`},
		{`{datetime_add: [{col: [0, inserted_at]}, 1, month]}`, `p0."inserted_at"::timestamp + interval '1 month'`},
		{`{date_add: [{col: [0, published_on]}, 2, week]}`, `(p0."published_on"::date + interval '2 week')::date`},
		{`{filter: {call: count}, where: {">": [{col: [0, id]}, 5]}}`, `count(*) FILTER (WHERE p0."id" > 5)`},
		{`{over: {call: rank}, window: {partition_by: [{col: [0, title]}]}}`, `rank() OVER (PARTITION BY p0."title")`},
		{`{in: [{col: [0, id]}, {subquery: {from: {table: comments, fields: [post_id]}, select: [{col: [0, post_id]}]}}]}`,
			`p0."id" = ANY((SELECT sc0."post_id" FROM "comments" AS sc0))`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			doc := fmt.Sprintf("statement: select\nfrom: {table: posts, fields: [id, title]}\nselect:\n  - %s\n", tt.expr)
			sql, _ := compile(t, doc)
			assert.Equal(t, "SELECT "+tt.expected+` FROM "posts" AS p0`, sql)
		})
	}
}

func TestExpressionDecodeErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		expr string
		msg  string
	}{
		{"unknown head", `{nope: 1}`, "unknown expression"},
		{"two heads", `{col: [0, id], param: 0}`, "has both"},
		{"bad arity", `{"==": [1]}`, "expected 2 elements"},
		{"bare sequence", `[1, 2]`, "write sequences as {list: [...]}"},
		{"bad column index", `{col: [x, id]}`, "expected an integer"},
		{"tagged without type", `{tagged: 1}`, "needs a type"},
		{"bad type", `{tagged: 1, type: "varchar(x)"}`, "malformed type"},
		{"bad decimal", `{decimal: abc}`, "invalid decimal"},
		{"bad uuid", `{uuid: abc}`, "invalid uuid"},
		{"lit with extras", `{lit: 1, col: [0, id]}`, "has both"},
		{"filter without where", `{filter: {call: count}}`, "needs a where"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := fmt.Sprintf("statement: select\nfrom: posts\nselect:\n  - %s\n", tt.expr)
			_, err := ParseStatement([]byte(doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestUpdateAllDocument(t *testing.T) {
	t.Parallel()
	sql, params := compile(t, `
statement: update_all
from: posts
where: [{"==": [{col: [0, id]}, {param: 0}]}]
updates:
  - {field: title, value: {param: 1}}
  - {op: inc, field: visits, value: 1}
  - {op: push, field: tags, value: go}
params: [5, hello]
`)
	assert.Equal(t, `UPDATE "posts" AS p0 SET "title" = $1, "visits" = p0."visits" + 1, `+
		`"tags" = array_append(p0."tags", 'go') WHERE (p0."id" = $2)`, sql)
	assert.Equal(t, []any{"hello", 5}, params)
}

func TestDeleteAllDocument(t *testing.T) {
	t.Parallel()
	sql, params := compile(t, `
statement: delete_all
from: {table: posts, fields: [id, title]}
joins:
  - source: {table: comments, fields: [post_id]}
    on: {"==": [{col: [1, post_id]}, {col: [0, id]}]}
where: [{"==": [{col: [1, author]}, {param: 0}]}]
params: [mallory]
`)
	assert.Equal(t, `DELETE FROM "posts" AS p0 USING "comments" AS c1 WHERE (c1."post_id" = p0."id") AND (c1."author" = $1)`, sql)
	assert.Equal(t, []any{"mallory"}, params)
}

func TestCompileAppliesTransformers(t *testing.T) {
	t.Parallel()
	s, err := ParseStatement([]byte(`
statement: select
from: users
where: [{"==": [{col: [0, active]}, true]}]
`))
	require.NoError(t, err)
	sql, _, err := s.Compile(pg, softdelete.New())
	require.NoError(t, err)
	assert.Equal(t, `SELECT TRUE FROM "users" AS u0 WHERE (u0."active" = TRUE) AND (u0."deleted_at" IS NULL)`, sql)
}

func TestInsertDocument(t *testing.T) {
	t.Parallel()
	sql, params := compile(t, `
statement: insert
table: users
header: [name, balance, id]
rows:
  - [alice, {decimal: "10.50"}, {uuid: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"}]
  - [bob, null, {default: true}]
on_conflict: {action: nothing, target: [name]}
returning: [id]
`)
	assert.Equal(t, `INSERT INTO "users" ("name","balance","id") VALUES ($1,$2,$3),($4,NULL,DEFAULT) `+
		`ON CONFLICT ("name") DO NOTHING RETURNING "id"`, sql)
	require.Len(t, params, 4)
	assert.Equal(t, "alice", params[0])
	assert.True(t, params[1].(decimal.Decimal).Equal(decimal.RequireFromString("10.5")))
	assert.Equal(t, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), params[2])
	assert.Equal(t, "bob", params[3])
}

func TestInsertDocumentDefaultValues(t *testing.T) {
	t.Parallel()
	sql, _ := compile(t, "statement: insert\ntable: users\n")
	assert.Equal(t, `INSERT INTO "users" DEFAULT VALUES`, sql)
}

func TestInsertDocumentReplace(t *testing.T) {
	t.Parallel()
	sql, _ := compile(t, `
statement: insert
table: t
header: [id, a, b]
rows: [[1, 2, 3]]
on_conflict: {action: replace, target: [id], replace: [a, b]}
`)
	assert.Equal(t, `INSERT INTO "t" ("id","a","b") VALUES ($1,$2,$3) ON CONFLICT ("id") DO UPDATE SET "a" = EXCLUDED."a","b" = EXCLUDED."b"`, sql)
}

func TestUpdateDocument(t *testing.T) {
	t.Parallel()
	sql, params := compile(t, `
statement: update
table: users
set:
  - {name: name, value: carol}
  - {name: age, value: null}
filters:
  - {name: id, value: 3}
  - {name: deleted_at, value: null}
returning: [id]
`)
	assert.Equal(t, `UPDATE "users" SET "name" = $1, "age" = NULL WHERE "id" = $2 AND "deleted_at" IS NULL RETURNING "id"`, sql)
	assert.Equal(t, []any{"carol", 3}, params)
}

func TestDeleteDocument(t *testing.T) {
	t.Parallel()
	sql, params := compile(t, `
statement: delete
table: users
filters: [{name: id, value: 3}]
`)
	assert.Equal(t, `DELETE FROM "users" WHERE "id" = $1`, sql)
	assert.Equal(t, []any{3}, params)
}

func TestStatementErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"no kind", "from: posts\n", "no statement kind"},
		{"unknown key", "statement: select\nfrom: posts\nfilter: []\n", "field filter not found"},
		{"empty", "", "empty document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseStatement([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	compileErrors := []struct {
		name string
		doc  string
		msg  string
	}{
		{"unknown statement", "statement: merge\nfrom: posts\n", "unknown statement kind"},
		{"missing from", "statement: select\n", "needs a from source"},
		{"unknown join", "statement: select\nfrom: posts\njoins: [{qual: sideways, source: c}]\n", "unknown qualifier"},
		{"unknown combination", "statement: select\nfrom: posts\ncombinations: [{kind: zip, query: {from: c}}]\n", "unknown kind"},
		{"unknown update", "statement: update_all\nfrom: posts\nupdates: [{op: mul, field: x, value: 2}]\n", "unknown operation"},
		{"empty cte", "statement: select\nfrom: posts\nwith: [{name: x}]\n", "needs a query or a fragment"},
		{"unknown conflict action", "statement: insert\ntable: t\non_conflict: {action: merge}\n", "unknown action"},
	}
	for _, tt := range compileErrors {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := ParseStatement([]byte(tt.doc))
			require.NoError(t, err)
			_, _, err = s.Compile(pg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCompileErrorsPassThrough(t *testing.T) {
	t.Parallel()
	s, err := ParseStatement([]byte("statement: select\nfrom: posts\nwhere: [{fragment: \"f(?)\"}]\n"))
	require.NoError(t, err)
	_, _, err = s.Compile(pg)
	require.ErrorIs(t, err, visitors.ErrMalformedQuery)
}

func TestLoader(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "queries/b.yml", []byte("statement: delete\ntable: users\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "queries/a.yaml", []byte("statement: select\nfrom: users\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "queries/notes.txt", []byte("ignored"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "queries/bad.yaml", []byte("statement: select\nfrom: [\n"), 0o644))

	l := NewLoader(fs)
	files, err := l.Glob("queries")
	require.NoError(t, err)
	assert.Equal(t, []string{"queries/a.yaml", "queries/b.yml", "queries/bad.yaml"}, files)

	s, err := l.LoadStatement("queries/a.yaml")
	require.NoError(t, err)
	assert.Equal(t, KindSelect, s.Kind)

	_, err = l.LoadStatement("queries/bad.yaml")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "queries/bad.yaml: "))

	_, err = l.LoadStatement("queries/missing.yaml")
	require.Error(t, err)
}

func TestSelectFieldAliasKeepsExpression(t *testing.T) {
	t.Parallel()
	s, err := ParseStatement([]byte("statement: select\nfrom: posts\nselect:\n  - {expr: {col: [0, title]}, as: t}\n"))
	require.NoError(t, err)
	q, err := s.Query.Build()
	require.NoError(t, err)
	require.Len(t, q.Select.Fields, 1)
	assert.Equal(t, "t", q.Select.Fields[0].Alias)
	col, ok := q.Select.Fields[0].Expr.(*nodes.ColumnNode)
	require.True(t, ok)
	assert.Equal(t, "title", col.Field)
}

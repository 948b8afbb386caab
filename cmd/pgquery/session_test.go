package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/bawdo/pgquery/internal/document"
	"github.com/bawdo/pgquery/internal/testutil"
	"github.com/bawdo/pgquery/visitors"
)

func newTestSession(t *testing.T, fs afero.Fs) *Session {
	t.Helper()
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	sess := NewSession(context.Background(), visitors.NewPostgresVisitor(), document.NewLoader(fs), nil)
	sess.out = io.Discard
	return sess
}

// execSQL executes commands then returns GenerateSQL output.
func execSQL(t *testing.T, commands ...string) (string, []any) {
	t.Helper()
	sess := newTestSession(t, nil)
	for _, cmd := range commands {
		if err := sess.Execute(cmd); err != nil {
			t.Fatalf("command %q failed: %v", cmd, err)
		}
	}
	sql, params, err := sess.GenerateSQL()
	if err != nil {
		t.Fatalf("GenerateSQL failed: %v", err)
	}
	return sql, params
}

func TestSessionQueries(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		commands []string
		expected string
		params   []any
	}{
		{
			name:     "bare from",
			commands: []string{"from users"},
			expected: `SELECT TRUE FROM "users" AS u0`,
		},
		{
			name:     "select star",
			commands: []string{"from users", "select *"},
			expected: `SELECT * FROM "users" AS u0`,
		},
		{
			name:     "select and where",
			commands: []string{"from users u", "select u.id, u.name", "where u.age > 18"},
			expected: `SELECT u0."id", u0."name" FROM "users" AS u0 WHERE (u0."age" > $1)`,
			params:   []any{int64(18)},
		},
		{
			name:     "bare column refers to the first source",
			commands: []string{"from users", "where name = 'bob'"},
			expected: `SELECT TRUE FROM "users" AS u0 WHERE (u0."name" = $1)`,
			params:   []any{"bob"},
		},
		{
			name:     "literals when parameterize is off",
			commands: []string{"parameterize", "from users", "where age >= 21 and active = true"},
			expected: `SELECT TRUE FROM "users" AS u0 WHERE ((u0."age" >= 21) AND (u0."active" = TRUE))`,
		},
		{
			name:     "or where",
			commands: []string{"from users", "where id = 1", "or where id = 2"},
			expected: `SELECT TRUE FROM "users" AS u0 WHERE (u0."id" = $1) OR (u0."id" = $2)`,
			params:   []any{int64(1), int64(2)},
		},
		{
			name:     "where then or where then where",
			commands: []string{"parameterize", "from users", "where id = 1", "or where id = 2", "where active = true"},
			expected: `SELECT TRUE FROM "users" AS u0 WHERE ((u0."id" = 1) OR (u0."id" = 2)) AND (u0."active" = TRUE)`,
		},
		{
			name:     "in list",
			commands: []string{"from users", "where id in (1, 2, 3)"},
			expected: `SELECT TRUE FROM "users" AS u0 WHERE (u0."id" IN ($1, $2, $3))`,
			params:   []any{int64(1), int64(2), int64(3)},
		},
		{
			name:     "not like and is null",
			commands: []string{"parameterize", "from users", "where name not like 'a%' or email is not null"},
			expected: `SELECT TRUE FROM "users" AS u0 WHERE (NOT (u0."name" LIKE 'a%') OR NOT (u0."email" IS NULL))`,
		},
		{
			name:     "inner join",
			commands: []string{"from users u", "join posts p on p.user_id = u.id", "select u.name, p.title"},
			expected: `SELECT u0."name", p1."title" FROM "users" AS u0 INNER JOIN "posts" AS p1 ON p1."user_id" = u0."id"`,
		},
		{
			name:     "left join",
			commands: []string{"from users u", "left join posts p on p.user_id = u.id"},
			expected: `SELECT TRUE FROM "users" AS u0 LEFT OUTER JOIN "posts" AS p1 ON p1."user_id" = u0."id"`,
		},
		{
			name:     "cross join",
			commands: []string{"from users", "cross join roles"},
			expected: `SELECT TRUE FROM "users" AS u0 CROSS JOIN "roles" AS r1`,
		},
		{
			name: "group having order limit",
			commands: []string{
				"from users u",
				"select u.name, count(*)",
				"group u.name",
				"having count(*) > 1",
				"order u.name desc",
				"limit 10",
			},
			expected: `SELECT u0."name", count(*) FROM "users" AS u0 GROUP BY u0."name" HAVING (count(*) > $1) ` +
				`ORDER BY u0."name" DESC LIMIT $2`,
			params: []any{int64(1), int64(10)},
		},
		{
			name:     "distinct on",
			commands: []string{"from users u", "distinct on u.email", "select u.id", "order u.email, u.id desc"},
			expected: `SELECT DISTINCT ON (u0."email") u0."id" FROM "users" AS u0 ORDER BY u0."email", u0."id" DESC`,
		},
		{
			name:     "alias and arithmetic",
			commands: []string{"parameterize", "from products", "select price * 2 as doubled"},
			expected: `SELECT p0."price" * 2 AS "doubled" FROM "products" AS p0`,
		},
		{
			name:     "cast",
			commands: []string{"from users", "select id::text"},
			expected: `SELECT u0."id"::text FROM "users" AS u0`,
		},
		{
			name:     "count distinct",
			commands: []string{"from users", "select count(distinct email)"},
			expected: `SELECT count(DISTINCT u0."email") FROM "users" AS u0`,
		},
		{
			name:     "lock skip locked",
			commands: []string{"from jobs", "for update", "skip locked"},
			expected: `SELECT TRUE FROM "jobs" AS j0 FOR UPDATE SKIP LOCKED`,
		},
		{
			name:     "schema table",
			commands: []string{"from app.users"},
			expected: `SELECT TRUE FROM "app"."users" AS u0`,
		},
		{
			name:     "union",
			commands: []string{"from users", "select id", "union", "from admins", "select id"},
			expected: `SELECT u0."id" FROM "users" AS u0 UNION (SELECT a0."id" FROM "admins" AS a0)`,
		},
		{
			name: "cte",
			commands: []string{
				"parameterize",
				"from users", "select id", "where active = true",
				"with active_users",
				"from active_users", "select id",
			},
			expected: `WITH "active_users" AS (SELECT su0."id" FROM "users" AS su0 WHERE (su0."active" = TRUE)) ` +
				`SELECT a0."id" FROM "active_users" AS a0`,
		},
		{
			name:     "soft delete plugin",
			commands: []string{"from users", "plugin softdelete"},
			expected: `SELECT TRUE FROM "users" AS u0 WHERE (u0."deleted_at" IS NULL)`,
		},
		{
			name:     "soft delete plugin off",
			commands: []string{"from users", "plugin softdelete", "plugin off"},
			expected: `SELECT TRUE FROM "users" AS u0`,
		},
		{
			name:     "soft delete per table column",
			commands: []string{"from users u", "join posts p on p.user_id = u.id", "plugin softdelete posts.removed_at"},
			expected: `SELECT TRUE FROM "users" AS u0 INNER JOIN "posts" AS p1 ON (p1."user_id" = u0."id") AND (p1."removed_at" IS NULL)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sql, params := execSQL(t, tt.commands...)
			testutil.AssertEqual(t, sql, tt.expected)
			testutil.AssertParams(t, params, tt.params)
		})
	}
}

func TestSessionBulkStatements(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		commands []string
		expected string
		params   []any
	}{
		{
			name:     "set switches to update all",
			commands: []string{"from posts", "where id = 7", "set title = 'hello'"},
			expected: `UPDATE "posts" AS p0 SET "title" = $1 WHERE (p0."id" = $2)`,
			params:   []any{"hello", int64(7)},
		},
		{
			name:     "inc",
			commands: []string{"parameterize", "from posts", "inc views 1"},
			expected: `UPDATE "posts" AS p0 SET "views" = p0."views" + 1`,
		},
		{
			name:     "delete all",
			commands: []string{"from sessions", "where expires_at < now()", "delete all"},
			expected: `DELETE FROM "sessions" AS s0 WHERE (s0."expires_at" < now())`,
		},
		{
			name:     "mode back to select",
			commands: []string{"from sessions", "delete all", "mode select"},
			expected: `SELECT TRUE FROM "sessions" AS s0`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sql, params := execSQL(t, tt.commands...)
			testutil.AssertEqual(t, sql, tt.expected)
			testutil.AssertParams(t, params, tt.params)
		})
	}
}

func TestSessionSingleRowStatements(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		commands []string
		expected string
		params   []any
	}{
		{
			name:     "insert returning",
			commands: []string{"insert into users", "columns name, email", "values 'Ann', 'ann@x.com'", "returning id"},
			expected: `INSERT INTO "users" ("name","email") VALUES ($1,$2) RETURNING "id"`,
			params:   []any{"Ann", "ann@x.com"},
		},
		{
			name:     "insert on conflict do nothing",
			commands: []string{"insert into tags", "columns name", "values ('go')", "on conflict (name) do nothing"},
			expected: `INSERT INTO "tags" ("name") VALUES ($1) ON CONFLICT ("name") DO NOTHING`,
			params:   []any{"go"},
		},
		{
			name:     "insert on constraint",
			commands: []string{"insert into tags", "columns name", "values 'go'", "on conflict constraint tags_name_key do nothing"},
			expected: `INSERT INTO "tags" ("name") VALUES ($1) ON CONFLICT ON CONSTRAINT "tags_name_key" DO NOTHING`,
			params:   []any{"go"},
		},
		{
			name:     "insert on conflict replace",
			commands: []string{"insert into users", "columns id, name", "values 1, 'Ann'", "on conflict (id) do replace name"},
			expected: `INSERT INTO "users" ("id","name") VALUES ($1,$2) ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name"`,
			params:   []any{int64(1), "Ann"},
		},
		{
			name:     "insert default values",
			commands: []string{"insert into events"},
			expected: `INSERT INTO "events" DEFAULT VALUES`,
		},
		{
			name:     "update",
			commands: []string{"update users", "set name = 'Bob'", "where id = 3"},
			expected: `UPDATE "users" SET "name" = $1 WHERE "id" = $2`,
			params:   []any{"Bob", int64(3)},
		},
		{
			name:     "delete",
			commands: []string{"delete from app.users", "where id = 3", "returning id"},
			expected: `DELETE FROM "app"."users" WHERE "id" = $1 RETURNING "id"`,
			params:   []any{int64(3)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sql, params := execSQL(t, tt.commands...)
			testutil.AssertEqual(t, sql, tt.expected)
			testutil.AssertParams(t, params, tt.params)
		})
	}
}

func TestSessionErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		commands []string
		failing  string
		contains string
	}{
		{"select before from", nil, "select id", "no query defined"},
		{"unknown command", nil, "frobnicate", "unknown command"},
		{"unknown alias", []string{"from users u"}, "where x.id = 1", `unknown table or alias "x"`},
		{"dangling operator", []string{"from users"}, "where id =", "unexpected end"},
		{"trailing tokens", []string{"from users"}, "where id = 1 2", "unexpected"},
		{"too many values", []string{"insert into users", "columns name"}, "values 'a', 'b'", "2 values for 1 columns"},
		{"or where on single row", []string{"update users"}, "or where id = 1", "equality filters"},
		{"skip locked without lock", []string{"from users"}, "skip locked", "lock mode"},
		{"unknown plugin", nil, "plugin audit", "unknown plugin"},
		{"plugin not enabled", nil, "plugin off softdelete", "not enabled"},
		{"exec without connection", []string{"from users"}, "exec", "not connected"},
		{"bad mode", []string{"from users"}, "mode upsert", "usage: mode"},
		{"returning on select", []string{"from users"}, "returning id", "returning applies"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sess := newTestSession(t, nil)
			for _, cmd := range tt.commands {
				testutil.AssertNoError(t, sess.Execute(cmd))
			}
			err := sess.Execute(tt.failing)
			testutil.AssertError(t, err)
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("expected error containing %q, got %q", tt.contains, err)
			}
		})
	}
}

func TestSessionCommandsAreCaseInsensitive(t *testing.T) {
	t.Parallel()
	sql, _ := execSQL(t, "FROM users", "SELECT id", "LIMIT 5")
	testutil.AssertEqual(t, sql, `SELECT u0."id" FROM "users" AS u0 LIMIT $1`)
}

func TestSessionReset(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, nil)
	testutil.AssertNoError(t, sess.Execute("insert into users"))
	testutil.AssertNoError(t, sess.Execute("reset"))
	if sess.mode != modeSelect {
		t.Errorf("expected select mode after reset, got %s", modeNames[sess.mode])
	}
	if _, _, err := sess.GenerateSQL(); err != errNoQuery {
		t.Errorf("expected errNoQuery, got %v", err)
	}
}

func TestSessionFromLeavesSingleRowMode(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, nil)
	testutil.AssertNoError(t, sess.Execute("delete from users"))
	testutil.AssertNoError(t, sess.Execute("from users"))
	if sess.mode != modeSelect {
		t.Errorf("expected select mode, got %s", modeNames[sess.mode])
	}
	if sess.deleteQuery != nil {
		t.Error("expected the pending DELETE to be discarded")
	}
}

func TestSessionPrompt(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, nil)
	testutil.AssertEqual(t, sess.prompt(), "pgquery> ")
	testutil.AssertNoError(t, sess.Execute("update users"))
	testutil.AssertEqual(t, sess.prompt(), "pgquery(update)> ")
}

func TestSessionAST(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, nil)
	var out bytes.Buffer
	sess.out = &out
	for _, cmd := range []string{"from users u", "join posts p on p.user_id = u.id", "where u.id = 1", "plugin softdelete"} {
		testutil.AssertNoError(t, sess.Execute(cmd))
	}
	out.Reset()
	testutil.AssertNoError(t, sess.Execute("ast"))
	got := out.String()
	for _, want := range []string{
		"SOURCE[0]: users AS u",
		"SOURCE[1]: posts AS p",
		"JOIN[0]: inner posts AS p",
		"SELECT: TRUE",
		"WHERE:  1 condition(s)",
		"Plugin: softdelete (column: deleted_at)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in AST output:\n%s", want, got)
		}
	}
}

func TestSessionLoadDocuments(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	testutil.AssertNoError(t, afero.WriteFile(fs, "q.yaml", []byte("statement: select\nfrom: posts\n"), 0o644))
	testutil.AssertNoError(t, afero.WriteFile(fs, "m.yaml", []byte(`
operations:
  - create_table:
      name: tags
      columns:
        - {name: id, type: serial, primary_key: true}
`), 0o644))

	sess := newTestSession(t, fs)
	var out bytes.Buffer
	sess.out = &out

	testutil.AssertNoError(t, sess.Execute("load q.yaml"))
	if !strings.Contains(out.String(), `SELECT TRUE FROM "posts" AS p0`) {
		t.Errorf("unexpected load output: %q", out.String())
	}

	out.Reset()
	testutil.AssertNoError(t, sess.Execute("ddl m.yaml"))
	if !strings.Contains(out.String(), `CREATE TABLE "tags" ("id" serial, PRIMARY KEY ("id"));`) {
		t.Errorf("unexpected ddl output: %q", out.String())
	}

	out.Reset()
	testutil.AssertNoError(t, sess.Execute("ddl reverse m.yaml"))
	if !strings.Contains(out.String(), `DROP TABLE "tags";`) {
		t.Errorf("unexpected reverse ddl output: %q", out.String())
	}

	testutil.AssertError(t, sess.Execute("load missing.yaml"))
}

func TestSessionSQLOutput(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, nil)
	var out bytes.Buffer
	sess.out = &out
	testutil.AssertNoError(t, sess.Execute("from users"))
	testutil.AssertNoError(t, sess.Execute("where id = 1"))
	out.Reset()
	testutil.AssertNoError(t, sess.Execute("sql"))
	got := out.String()
	if !strings.Contains(got, `SELECT TRUE FROM "users" AS u0 WHERE (u0."id" = $1)`) {
		t.Errorf("missing SQL in output: %q", got)
	}
	if !strings.Contains(got, "params:") || !strings.Contains(got, "[1]") {
		t.Errorf("missing params in output: %q", got)
	}
}

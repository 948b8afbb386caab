package visitors

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bawdo/pgquery/ddl"
	"github.com/bawdo/pgquery/internal/testutil"
	"github.com/bawdo/pgquery/nodes"
)

func assertStatements(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d statements, got %d:\n  %q", len(want), len(got), got)
	}
	for i := range want {
		testutil.AssertEqual(t, got[i], want[i])
	}
}

func strPtr(s string) *string { return &s }

func TestDDL(t *testing.T) {
	t.Parallel()
	posts := ddl.Table{Name: "posts"}

	tests := []struct {
		name     string
		op       ddl.Operation
		expected []string
	}{
		{
			name: "create table",
			op: ddl.CreateTable{Table: posts, Columns: []ddl.Column{
				{Name: "id", Type: nodes.T("serial"), PrimaryKey: true},
				{Name: "title", Type: nodes.T("string"), Null: ddl.NotNull, Default: "untitled"},
				{Name: "body", Type: nodes.T("text")},
				{Name: "rating", Type: nodes.Type{Name: "decimal", Precision: 5, Scale: 2}},
				{Name: "tags", Type: nodes.ArrayOf(nodes.T("string"))},
				{Name: "author_id", Reference: &ddl.Reference{Table: "users", OnDelete: ddl.SetNull}},
				{Name: "published", Type: nodes.T("boolean"), Default: false},
				{Name: "inserted_at", Type: nodes.T("naive_datetime"), Default: ddl.Raw("now()")},
			}},
			expected: []string{`CREATE TABLE "posts" ("id" serial, "title" varchar(255) DEFAULT 'untitled' NOT NULL, "body" text, ` +
				`"rating" decimal(5,2), "tags" varchar(255)[], "author_id" bigint CONSTRAINT "posts_author_id_fkey" REFERENCES "users"("id") ON DELETE SET NULL, ` +
				`"published" boolean DEFAULT FALSE, "inserted_at" timestamp DEFAULT now(), PRIMARY KEY ("id"))`},
		},
		{
			name: "create table with comments",
			op: ddl.CreateTable{Table: ddl.Table{Name: "posts", Comment: "Blog posts"}, Columns: []ddl.Column{
				{Name: "title", Type: nodes.Type{Name: "string", Size: 100}, Comment: "Headline"},
			}},
			expected: []string{
				`CREATE TABLE "posts" ("title" varchar(100))`,
				`COMMENT ON TABLE "posts" IS 'Blog posts'`,
				`COMMENT ON COLUMN "posts"."title" IS 'Headline'`,
			},
		},
		{
			name: "create table if not exists with prefix and options",
			op: ddl.CreateTable{
				Table:       ddl.Table{Name: "events", Prefix: "audit", Options: "WITH (fillfactor=70)"},
				Columns:     []ddl.Column{{Name: "id", Type: nodes.T("binary_id"), PrimaryKey: true}},
				IfNotExists: true,
			},
			expected: []string{`CREATE TABLE IF NOT EXISTS "audit"."events" ("id" uuid, PRIMARY KEY ("id")) WITH (fillfactor=70)`},
		},
		{
			name: "composite primary key and reference options",
			op: ddl.CreateTable{Table: ddl.Table{Name: "memberships", Prefix: "app"}, Columns: []ddl.Column{
				{Name: "user_id", PrimaryKey: true, Reference: &ddl.Reference{Table: "users", Type: nodes.T("serial"), OnDelete: ddl.Cascade, OnUpdate: ddl.Cascade}},
				{Name: "group_id", PrimaryKey: true, Reference: &ddl.Reference{Table: "groups", Column: "gid", Name: "fk_group", Prefix: "auth", OnDelete: ddl.Restrict}},
			}},
			expected: []string{`CREATE TABLE "app"."memberships" (` +
				`"user_id" integer CONSTRAINT "memberships_user_id_fkey" REFERENCES "app"."users"("id") ON DELETE CASCADE ON UPDATE CASCADE, ` +
				`"group_id" bigint CONSTRAINT "fk_group" REFERENCES "auth"."groups"("gid") ON DELETE RESTRICT, ` +
				`PRIMARY KEY ("user_id", "group_id"))`},
		},
		{
			name: "defaults",
			op: ddl.CreateTable{Table: ddl.Table{Name: "settings"}, Columns: []ddl.Column{
				{Name: "a", Type: nodes.T("integer"), Default: 3},
				{Name: "b", Type: nodes.T("float"), Default: 1.0},
				{Name: "c", Type: nodes.T("decimal"), Default: decimal.RequireFromString("9.99")},
				{Name: "d", Type: nodes.T("map"), Default: map[string]any{"a": 1}},
				{Name: "e", Type: nodes.ArrayOf(nodes.T("integer")), Default: []int{1, 2}},
				{Name: "f", Type: nodes.T("string"), Default: ddl.DefaultNull, Null: ddl.Nullable},
				{Name: "g", Type: nodes.T("string"), Default: "it's"},
			}},
			expected: []string{`CREATE TABLE "settings" ("a" integer DEFAULT 3, "b" float DEFAULT 1.0, "c" decimal DEFAULT 9.99, ` +
				`"d" jsonb DEFAULT '{"a":1}', "e" integer[] DEFAULT ARRAY[1,2], "f" varchar(255) DEFAULT NULL NULL, "g" varchar(255) DEFAULT 'it''s')`},
		},
		{
			name: "alter table",
			op: ddl.AlterTable{Table: posts, Changes: []ddl.Change{
				{Kind: ddl.AddColumn, Column: ddl.Column{Name: "summary", Type: nodes.T("text"), Null: ddl.NotNull}},
				{Kind: ddl.ModifyColumn, Column: ddl.Column{Name: "title", Type: nodes.Type{Name: "string", Size: 100}, Null: ddl.Nullable, Default: "x"}},
				{Kind: ddl.RemoveColumn, Column: ddl.Column{Name: "body"}},
			}},
			expected: []string{`ALTER TABLE "posts" ADD COLUMN "summary" text NOT NULL, ALTER COLUMN "title" TYPE varchar(100), ` +
				`ALTER COLUMN "title" DROP NOT NULL, ALTER COLUMN "title" SET DEFAULT 'x', DROP COLUMN "body"`},
		},
		{
			name: "modify reference",
			op: ddl.AlterTable{Table: posts, Changes: []ddl.Change{{
				Kind:   ddl.ModifyColumn,
				Column: ddl.Column{Name: "author_id", Reference: &ddl.Reference{Table: "authors", OnDelete: ddl.Cascade}},
				From:   &ddl.Column{Name: "author_id", Reference: &ddl.Reference{Table: "users"}},
			}}},
			expected: []string{`ALTER TABLE "posts" DROP CONSTRAINT "posts_author_id_fkey", ALTER COLUMN "author_id" TYPE bigint, ` +
				`ADD CONSTRAINT "posts_author_id_fkey" FOREIGN KEY ("author_id") REFERENCES "authors"("id") ON DELETE CASCADE`},
		},
		{
			name: "remove reference",
			op: ddl.AlterTable{Table: posts, Changes: []ddl.Change{{
				Kind:   ddl.RemoveColumn,
				Column: ddl.Column{Name: "author_id", Reference: &ddl.Reference{Table: "users"}},
			}}},
			expected: []string{`ALTER TABLE "posts" DROP CONSTRAINT "posts_author_id_fkey", DROP COLUMN "author_id"`},
		},
		{
			name: "add primary key column",
			op: ddl.AlterTable{Table: posts, Changes: []ddl.Change{{
				Kind:   ddl.AddColumn,
				Column: ddl.Column{Name: "uuid", Type: nodes.T("uuid"), PrimaryKey: true, Comment: "Public id"},
			}}},
			expected: []string{
				`ALTER TABLE "posts" ADD COLUMN "uuid" uuid, ADD PRIMARY KEY ("uuid")`,
				`COMMENT ON COLUMN "posts"."uuid" IS 'Public id'`,
			},
		},
		{
			name:     "drop table",
			op:       ddl.DropTable{Table: posts, IfExists: true, Cascade: true},
			expected: []string{`DROP TABLE IF EXISTS "posts" CASCADE`},
		},
		{
			name:     "create index",
			op:       ddl.CreateIndex{Index: ddl.Index{Table: "posts", Columns: []string{"category_id", "permalink"}}},
			expected: []string{`CREATE INDEX "posts_category_id_permalink_index" ON "posts" ("category_id", "permalink")`},
		},
		{
			name: "unique concurrent expression index",
			op: ddl.CreateIndex{Index: ddl.Index{
				Table: "posts", Columns: []string{"lower(title)"}, Unique: true, Concurrently: true,
				Using: "btree", Where: "public IS TRUE", Include: []string{"id"},
			}},
			expected: []string{`CREATE UNIQUE INDEX CONCURRENTLY "posts_lower_title_index" ON "posts" USING btree (lower(title)) INCLUDE ("id") WHERE public IS TRUE`},
		},
		{
			name:     "create index if not exists",
			op:       ddl.CreateIndex{Index: ddl.Index{Table: "posts", Columns: []string{"title"}}, IfNotExists: true},
			expected: []string{`DO $$ BEGIN CREATE INDEX "posts_title_index" ON "posts" ("title"); EXCEPTION WHEN duplicate_table THEN END; $$;`},
		},
		{
			name: "index comment",
			op:   ddl.CreateIndex{Index: ddl.Index{Table: "posts", Prefix: "blog", Name: "by_title", Columns: []string{"title"}, Comment: "lookup"}},
			expected: []string{
				`CREATE INDEX "by_title" ON "blog"."posts" ("title")`,
				`COMMENT ON INDEX "blog"."by_title" IS 'lookup'`,
			},
		},
		{
			name:     "drop index",
			op:       ddl.DropIndex{Index: ddl.Index{Table: "posts", Prefix: "blog", Columns: []string{"title"}, Concurrently: true}, IfExists: true},
			expected: []string{`DROP INDEX CONCURRENTLY IF EXISTS "blog"."posts_title_index"`},
		},
		{
			name:     "check constraint",
			op:       ddl.CreateConstraint{Constraint: ddl.Constraint{Table: "products", Name: "price_must_be_positive", Check: "price > 0"}},
			expected: []string{`ALTER TABLE "products" ADD CONSTRAINT "price_must_be_positive" CHECK (price > 0)`},
		},
		{
			name: "exclude constraint",
			op: ddl.CreateConstraint{Constraint: ddl.Constraint{
				Table: "rooms", Name: "no_overlap", Exclude: "gist (room WITH =, during WITH &&)", NotValid: true, Comment: "one booking",
			}},
			expected: []string{
				`ALTER TABLE "rooms" ADD CONSTRAINT "no_overlap" EXCLUDE USING gist (room WITH =, during WITH &&) NOT VALID`,
				`COMMENT ON CONSTRAINT "no_overlap" ON "rooms" IS 'one booking'`,
			},
		},
		{
			name:     "drop constraint",
			op:       ddl.DropConstraint{Constraint: ddl.Constraint{Table: "products", Name: "price_must_be_positive"}, IfExists: true},
			expected: []string{`ALTER TABLE "products" DROP CONSTRAINT IF EXISTS "price_must_be_positive"`},
		},
		{
			name:     "rename table",
			op:       ddl.RenameTable{From: "posts", To: "articles"},
			expected: []string{`ALTER TABLE "posts" RENAME TO "articles"`},
		},
		{
			name:     "rename column",
			op:       ddl.RenameColumn{Table: "posts", Prefix: "blog", From: "title", To: "headline"},
			expected: []string{`ALTER TABLE "blog"."posts" RENAME "title" TO "headline"`},
		},
		{
			name:     "column comment",
			op:       ddl.Comment{Target: ddl.CommentColumn, Table: "posts", Name: "title", Text: strPtr("The title")},
			expected: []string{`COMMENT ON COLUMN "posts"."title" IS 'The title'`},
		},
		{
			name:     "clear table comment",
			op:       ddl.Comment{Target: ddl.CommentTable, Table: "posts"},
			expected: []string{`COMMENT ON TABLE "posts" IS NULL`},
		},
		{
			name:     "execute",
			op:       ddl.Execute{Up: "CREATE EXTENSION citext"},
			expected: []string{"CREATE EXTENSION citext"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewPostgresVisitor().CompileDDL(tt.op)
			testutil.AssertNoError(t, err)
			assertStatements(t, got, tt.expected)
		})
	}
}

func TestDDLNativeIfNotExists(t *testing.T) {
	t.Parallel()
	v := NewPostgresVisitor(WithNativeIfNotExists())
	got, err := v.CompileDDL(ddl.CreateIndex{Index: ddl.Index{Table: "posts", Columns: []string{"title"}}, IfNotExists: true})
	testutil.AssertNoError(t, err)
	assertStatements(t, got, []string{`CREATE INDEX IF NOT EXISTS "posts_title_index" ON "posts" ("title")`})
}

func TestDDLErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		op   ddl.Operation
		kind error
	}{
		{"nil operation", nil, ErrMalformedQuery},
		{"column without type", ddl.CreateTable{Table: ddl.Table{Name: "t"}, Columns: []ddl.Column{{Name: "a"}}}, ErrMalformedQuery},
		{"quoted table", ddl.DropTable{Table: ddl.Table{Name: `t"`}}, ErrMalformedQuery},
		{"alter without changes", ddl.AlterTable{Table: ddl.Table{Name: "t"}}, ErrMalformedQuery},
		{"index without columns", ddl.CreateIndex{Index: ddl.Index{Table: "t"}}, ErrMalformedQuery},
		{"empty constraint", ddl.CreateConstraint{Constraint: ddl.Constraint{Table: "t", Name: "c"}}, ErrMalformedQuery},
		{"check and exclude", ddl.CreateConstraint{Constraint: ddl.Constraint{Table: "t", Name: "c", Check: "a", Exclude: "b"}}, ErrMalformedQuery},
		{"empty execute", ddl.Execute{Up: "  "}, ErrMalformedQuery},
		{"unsupported default", ddl.CreateTable{Table: ddl.Table{Name: "t"}, Columns: []ddl.Column{{Name: "a", Type: nodes.T("text"), Default: struct{}{}}}}, ErrMalformedQuery},
		{"unknown comment target", ddl.Comment{Target: ddl.CommentTarget(7), Table: "t"}, ErrMalformedQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewPostgresVisitor().CompileDDL(tt.op)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			var ce *CompileError
			if errors.As(err, &ce) {
				testutil.AssertEqual(t, ce.Clause, "ddl")
			}
		})
	}
}

func TestDDLReverseRoundTrip(t *testing.T) {
	t.Parallel()
	v := NewPostgresVisitor()
	create := ddl.CreateIndex{Index: ddl.Index{Table: "posts", Columns: []string{"title"}}}
	down, err := ddl.Reverse(create)
	testutil.AssertNoError(t, err)
	got, err := v.CompileDDL(down)
	testutil.AssertNoError(t, err)
	assertStatements(t, got, []string{`DROP INDEX "posts_title_index"`})
}

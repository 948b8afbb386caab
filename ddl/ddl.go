// Package ddl describes schema change operations. Operations are plain
// values; visitors.PostgresVisitor.CompileDDL renders them and Reverse
// computes the operation that undoes them.
package ddl

import (
	"regexp"
	"strings"

	"github.com/bawdo/pgquery/nodes"
)

// Operation is one schema change. The concrete types are CreateTable,
// AlterTable, DropTable, CreateIndex, DropIndex, CreateConstraint,
// DropConstraint, RenameTable, RenameColumn, Comment and Execute.
type Operation interface {
	operation()
}

// Nullability controls the NULL / NOT NULL option of a column.
type Nullability int

const (
	NullUnspecified Nullability = iota
	Nullable
	NotNull
)

// Action is a foreign key ON DELETE / ON UPDATE action.
type Action int

const (
	NoAction Action = iota
	SetNull
	Cascade
	Restrict
)

// Raw is a default value emitted verbatim, e.g. Raw("now()").
type Raw string

type nullDefault struct{}

// DefaultNull, used as Column.Default, renders DEFAULT NULL. A nil Default
// renders no DEFAULT clause at all.
var DefaultNull any = nullDefault{}

// IsDefaultNull reports whether v is DefaultNull.
func IsDefaultNull(v any) bool {
	_, ok := v.(nullDefault)
	return ok
}

// Reference makes a column a foreign key to Table(Column).
type Reference struct {
	Table    string
	Column   string // defaults to "id"
	Prefix   string
	Name     string // constraint name; defaults to <table>_<column>_fkey
	Type     nodes.Type
	OnDelete Action
	OnUpdate Action
}

// TargetColumn returns the referenced column name.
func (r *Reference) TargetColumn() string {
	if r.Column == "" {
		return "id"
	}
	return r.Column
}

// ColumnType returns the storage type of the referencing column. Serial
// types only exist at creation time and degrade to their integer types.
func (r *Reference) ColumnType() nodes.Type {
	t := r.Type
	switch t.Name {
	case "":
		t.Name = "bigint"
	case "serial":
		t.Name = "integer"
	case "bigserial":
		t.Name = "bigint"
	}
	return t
}

// ConstraintName returns the foreign key constraint name for column of table.
func (r *Reference) ConstraintName(table, column string) string {
	if r.Name != "" {
		return r.Name
	}
	return table + "_" + column + "_fkey"
}

// Column is a column definition.
type Column struct {
	Name       string
	Type       nodes.Type
	Reference  *Reference
	Null       Nullability
	Default    any
	PrimaryKey bool
	Comment    string
}

// ChangeKind is the kind of an ALTER TABLE column change.
type ChangeKind int

const (
	AddColumn ChangeKind = iota
	ModifyColumn
	RemoveColumn
)

// Change is one column change of an AlterTable. For ModifyColumn, From
// holds the previous definition; it makes the change reversible and, when
// it carries a Reference, drops the old foreign key first. For RemoveColumn,
// a full Column definition makes the removal reversible.
type Change struct {
	Kind   ChangeKind
	Column Column
	From   *Column
}

// Table identifies a table and its table-level options.
type Table struct {
	Name    string
	Prefix  string
	Comment string
	Options string // raw text appended after the column list
}

type CreateTable struct {
	Table       Table
	Columns     []Column
	IfNotExists bool
}

type AlterTable struct {
	Table   Table
	Changes []Change
}

type DropTable struct {
	Table    Table
	IfExists bool
	Cascade  bool
}

// Index describes an index. Columns are column names, or raw expressions
// when they contain a parenthesis.
type Index struct {
	Table        string
	Prefix       string
	Name         string
	Columns      []string
	Unique       bool
	Concurrently bool
	Using        string
	Where        string
	Include      []string
	Comment      string
}

var nonWordRe = regexp.MustCompile(`[^\w_]`)

// IndexName returns Name, or the generated <table>_<columns>_index name.
func (ix Index) IndexName() string {
	if ix.Name != "" {
		return ix.Name
	}
	parts := append([]string{ix.Table}, ix.Columns...)
	parts = append(parts, "index")
	for i, p := range parts {
		p = nonWordRe.ReplaceAllString(p, "_")
		parts[i] = strings.TrimRight(p, "_")
	}
	return strings.Join(parts, "_")
}

type CreateIndex struct {
	Index       Index
	IfNotExists bool
}

type DropIndex struct {
	Index    Index
	IfExists bool
	Cascade  bool
}

// Constraint is a CHECK or EXCLUDE constraint; exactly one of Check and
// Exclude is set.
type Constraint struct {
	Table    string
	Prefix   string
	Name     string
	Check    string
	Exclude  string
	NotValid bool
	Comment  string
}

type CreateConstraint struct {
	Constraint Constraint
}

type DropConstraint struct {
	Constraint Constraint
	IfExists   bool
}

type RenameTable struct {
	Prefix string
	From   string
	To     string
}

type RenameColumn struct {
	Table  string
	Prefix string
	From   string
	To     string
}

// CommentTarget is the object kind a Comment applies to.
type CommentTarget int

const (
	CommentTable CommentTarget = iota
	CommentColumn
	CommentIndex
)

// Comment sets (or, with a nil Text, clears) the comment of an object.
type Comment struct {
	Target CommentTarget
	Table  string
	Prefix string
	Name   string // column or index name
	Text   *string
}

// Execute runs raw SQL. Down, when set, makes it reversible.
type Execute struct {
	Up   string
	Down string
}

func (CreateTable) operation()      {}
func (AlterTable) operation()       {}
func (DropTable) operation()        {}
func (CreateIndex) operation()      {}
func (DropIndex) operation()        {}
func (CreateConstraint) operation() {}
func (DropConstraint) operation()   {}
func (RenameTable) operation()      {}
func (RenameColumn) operation()     {}
func (Comment) operation()          {}
func (Execute) operation()          {}

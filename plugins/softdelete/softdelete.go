// Package softdelete hides soft-deleted rows. Its transformer adds an
// alias."deleted_at" IS NULL predicate for each table source of a query:
// the FROM table's predicate joins the WHERE list and a joined table's
// predicate is ANDed into that join's ON clause, which keeps the unmatched
// rows of outer joins.
//
//	q := managers.NewSelectManager(nodes.Table("users")).Use(softdelete.New())
//	// SELECT TRUE FROM "users" AS u0 WHERE (u0."deleted_at" IS NULL)
//
// Options change the column and limit the tables:
//
//	softdelete.New(softdelete.WithColumn("removed_at"), softdelete.WithTables("users"))
//	softdelete.New(softdelete.WithTableColumn("posts", "archived_at"))
package softdelete

import (
	"slices"

	"github.com/bawdo/pgquery/nodes"
	"github.com/bawdo/pgquery/plugins"
)

// SoftDelete filters rows whose soft-delete column is set.
type SoftDelete struct {
	Column  string
	Columns map[string]string // table -> column, overrides Column
	tables  map[string]bool   // nil: every table
}

var _ plugins.Transformer = (*SoftDelete)(nil)

type Option func(*SoftDelete)

// WithColumn replaces the default "deleted_at" column.
func WithColumn(name string) Option {
	return func(sd *SoftDelete) { sd.Column = name }
}

// WithTables limits filtering to the named tables.
func WithTables(names ...string) Option {
	return func(sd *SoftDelete) {
		sd.tables = make(map[string]bool, len(names))
		for _, n := range names {
			sd.tables[n] = true
		}
	}
}

// WithTableColumn filters table on column. Once any table is named, tables
// that were not named are left alone.
func WithTableColumn(table, column string) Option {
	return func(sd *SoftDelete) {
		if sd.Columns == nil {
			sd.Columns = make(map[string]string)
		}
		sd.Columns[table] = column
		if sd.tables == nil {
			sd.tables = make(map[string]bool)
		}
		sd.tables[table] = true
	}
}

// New creates a SoftDelete transformer with the given options.
func New(opts ...Option) *SoftDelete {
	sd := &SoftDelete{Column: "deleted_at"}
	for _, o := range opts {
		o(sd)
	}
	return sd
}

// TransformQuery adds the soft-delete conditions to q.
func (sd *SoftDelete) TransformQuery(q *nodes.Query) (*nodes.Query, error) {
	for _, ref := range plugins.CollectTables(q) {
		if !sd.appliesTo(ref.Name) {
			continue
		}
		cond := nodes.IsNil(nodes.Col(ref.Source, sd.columnFor(ref.Name)))
		if ref.Join < 0 {
			q.Wheres = append(q.Wheres, nodes.BoolExpr{Op: nodes.AndOp, Expr: cond})
			continue
		}
		j := &q.Joins[ref.Join]
		switch {
		case j.Qual == nodes.CrossJoin || j.Qual == nodes.CrossLateralJoin:
			q.Wheres = append(q.Wheres, nodes.BoolExpr{Op: nodes.AndOp, Expr: cond})
		case j.On == nil:
			j.On = cond
		default:
			j.On = nodes.And(j.On, cond)
		}
	}
	return q, nil
}

// Tables returns the whitelisted table names in order, or nil when the plugin
// applies to every table.
func (sd *SoftDelete) Tables() []string {
	if sd.tables == nil {
		return nil
	}
	names := make([]string, 0, len(sd.tables))
	for n := range sd.tables {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (sd *SoftDelete) appliesTo(tableName string) bool {
	if sd.tables == nil {
		return true
	}
	return sd.tables[tableName]
}

// columnFor returns the column name to use for the given table.
func (sd *SoftDelete) columnFor(tableName string) string {
	if col, ok := sd.Columns[tableName]; ok {
		return col
	}
	return sd.Column
}

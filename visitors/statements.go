package visitors

import (
	"github.com/bawdo/pgquery/nodes"
	"github.com/bawdo/pgquery/sqlbuf"
)

func (v *baseVisitor) build(b *sqlbuf.Buffer) (string, []any) {
	return b.Build(v.dialect.Placeholder)
}

// CompileSelect renders q as a SELECT statement.
func (v *baseVisitor) CompileSelect(q *nodes.Query) (string, []any, error) {
	r, err := v.newRenderer(q, "")
	if err != nil {
		return "", nil, asCompileError(err, "select", q)
	}
	var b sqlbuf.Buffer
	if err := r.all(&b); err != nil {
		return "", nil, err
	}
	sql, params := v.build(&b)
	return sql, params, nil
}

// CompileUpdateAll renders q as a bulk UPDATE driven by q.Updates. Inner
// joins become a FROM list with their ON predicates moved into WHERE.
func (v *baseVisitor) CompileUpdateAll(q *nodes.Query) (string, []any, error) {
	r, err := v.newRenderer(q, "")
	if err != nil {
		return "", nil, asCompileError(err, "update_all", q)
	}
	var b sqlbuf.Buffer
	if err := r.updateAll(&b, ""); err != nil {
		return "", nil, err
	}
	sql, params := v.build(&b)
	return sql, params, nil
}

// CompileDeleteAll renders q as a bulk DELETE. Inner joins become a USING
// list with their ON predicates moved into WHERE.
func (v *baseVisitor) CompileDeleteAll(q *nodes.Query) (string, []any, error) {
	r, err := v.newRenderer(q, "")
	if err != nil {
		return "", nil, asCompileError(err, "delete_all", q)
	}
	var b sqlbuf.Buffer
	if err := r.deleteAll(&b); err != nil {
		return "", nil, err
	}
	sql, params := v.build(&b)
	return sql, params, nil
}

// updateAll renders UPDATE ... SET. A non-empty prefix replaces the
// "UPDATE <table> AS <alias> SET " head, as ON CONFLICT DO UPDATE needs.
func (r *renderer) updateAll(b *sqlbuf.Buffer, prefix string) error {
	if prefix == "" {
		if err := r.cte(b); err != nil {
			return r.fail(err)
		}
		r.clause = "update_all"
		target, err := r.st.Resolve(0)
		if err != nil {
			return r.fail(err)
		}
		b.WriteString("UPDATE ")
		if err := r.sourceAs(target, b); err != nil {
			return r.fail(err)
		}
		b.WriteString(" SET ")
	} else {
		b.WriteString(prefix)
	}
	if err := r.updateOps(b); err != nil {
		return r.fail(err)
	}
	return r.filtered(b, "update_all", "FROM")
}

func (r *renderer) deleteAll(b *sqlbuf.Buffer) error {
	if err := r.cte(b); err != nil {
		return r.fail(err)
	}
	r.clause = "delete_all"
	target, err := r.st.Resolve(0)
	if err != nil {
		return r.fail(err)
	}
	b.WriteString("DELETE FROM ")
	if err := r.sourceAs(target, b); err != nil {
		return r.fail(err)
	}
	return r.filtered(b, "delete_all", "USING")
}

// filtered writes the join list, WHERE and RETURNING shared by bulk
// updates and deletes.
func (r *renderer) filtered(b *sqlbuf.Buffer, kind, keyword string) error {
	joinWheres, err := r.usingJoins(kind, keyword, b)
	if err != nil {
		return r.fail(err)
	}
	wheres := append(joinWheres, r.q.Wheres...)
	r.clause = "where"
	if err := r.boolean(" WHERE ", wheres, b); err != nil {
		return r.fail(err)
	}
	if err := r.returning(b); err != nil {
		return r.fail(err)
	}
	return nil
}

// CompileInsert renders INSERT INTO table (header) VALUES rows.
//
// Row values: nil renders NULL, nodes.Default (or a row shorter than the
// header) renders DEFAULT, a *nodes.Query renders as a parenthesized
// subquery, a nodes.Expr is rendered in place and anything else is bound as
// a parameter. Parameters are numbered across all rows.
func (v *baseVisitor) CompileInsert(prefix, table string, header []string, rows [][]any, onConflict *nodes.OnConflict, returning []string) (string, []any, error) {
	var b sqlbuf.Buffer
	if err := v.insert(&b, prefix, table, header, rows, onConflict, returning); err != nil {
		return "", nil, asCompileError(err, "insert", nil)
	}
	sql, params := v.build(&b)
	return sql, params, nil
}

func (v *baseVisitor) insert(b *sqlbuf.Buffer, prefix, table string, header []string, rows [][]any, oc *nodes.OnConflict, returning []string) error {
	name, err := v.dialect.QuoteTable(prefix, table)
	if err != nil {
		return malformed("%v", err)
	}
	if len(rows) == 0 {
		return malformed("insert into %s requires at least one row", name)
	}
	b.WriteString("INSERT INTO " + name)

	var conflict *renderer
	if oc != nil && oc.Action == nodes.ConflictUpdate {
		if oc.Query == nil {
			return malformed("on conflict update requires a query")
		}
		if conflict, err = v.newRenderer(oc.Query, ""); err != nil {
			return err
		}
		target, err := conflict.st.Resolve(0)
		if err != nil {
			return asCompileError(err, "on_conflict", oc.Query)
		}
		b.WriteString(" AS " + target.Alias)
	}

	if len(header) == 0 {
		for _, row := range rows {
			if len(row) > 0 {
				return malformed("insert row has %d values but no columns", len(row))
			}
		}
		if len(rows) == 1 {
			b.WriteString(" DEFAULT VALUES")
		} else {
			b.WriteString(" VALUES ")
			for i := range rows {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString("(DEFAULT)")
			}
		}
	} else {
		cols, err := quoteNames(v.dialect, header, ",")
		if err != nil {
			return err
		}
		b.WriteString(" (" + cols + ") VALUES ")
		r := v.valueRenderer()
		for i, row := range rows {
			if len(row) > len(header) {
				return malformed("insert row %d has %d values for %d columns", i, len(row), len(header))
			}
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString("(")
			for j := range header {
				if j > 0 {
					b.WriteString(",")
				}
				if j >= len(row) {
					b.WriteString("DEFAULT")
					continue
				}
				if err := r.value(row[j], b); err != nil {
					return err
				}
			}
			b.WriteString(")")
		}
	}

	if err := v.onConflict(oc, conflict, b); err != nil {
		return err
	}
	return v.returningNames(returning, b)
}

// CompileUpdate renders a single-table UPDATE with equality filters.
func (v *baseVisitor) CompileUpdate(prefix, table string, fields, filters []nodes.FieldValue, returning []string) (string, []any, error) {
	var b sqlbuf.Buffer
	if err := v.update(&b, prefix, table, fields, filters, returning); err != nil {
		return "", nil, asCompileError(err, "update", nil)
	}
	sql, params := v.build(&b)
	return sql, params, nil
}

func (v *baseVisitor) update(b *sqlbuf.Buffer, prefix, table string, fields, filters []nodes.FieldValue, returning []string) error {
	name, err := v.dialect.QuoteTable(prefix, table)
	if err != nil {
		return malformed("%v", err)
	}
	if len(fields) == 0 {
		return malformed("no fields given to update %s", name)
	}
	b.WriteString("UPDATE " + name + " SET ")
	r := v.valueRenderer()
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		col, err := v.dialect.QuoteIdent(f.Name)
		if err != nil {
			return malformed("%v", err)
		}
		b.WriteString(col + " = ")
		if err := r.value(f.Value, b); err != nil {
			return err
		}
	}
	if err := v.filters(filters, b); err != nil {
		return err
	}
	return v.returningNames(returning, b)
}

// CompileDelete renders a single-table DELETE with equality filters.
func (v *baseVisitor) CompileDelete(prefix, table string, filters []nodes.FieldValue, returning []string) (string, []any, error) {
	var b sqlbuf.Buffer
	name, err := v.dialect.QuoteTable(prefix, table)
	if err != nil {
		return "", nil, asCompileError(malformed("%v", err), "delete", nil)
	}
	b.WriteString("DELETE FROM " + name)
	if err := v.filters(filters, &b); err != nil {
		return "", nil, asCompileError(err, "delete", nil)
	}
	if err := v.returningNames(returning, &b); err != nil {
		return "", nil, asCompileError(err, "delete", nil)
	}
	sql, params := v.build(&b)
	return sql, params, nil
}

// filters renders WHERE "a" = $1 AND "b" IS NULL. Nothing is written for
// an empty filter list.
func (v *baseVisitor) filters(filters []nodes.FieldValue, b *sqlbuf.Buffer) error {
	for i, f := range filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		col, err := v.dialect.QuoteIdent(f.Name)
		if err != nil {
			return malformed("%v", err)
		}
		if isNull(f.Value) {
			b.WriteString(col + " IS NULL")
			continue
		}
		b.WriteString(col + " = ")
		b.WriteParam(f.Value)
	}
	return nil
}

func (v *baseVisitor) returningNames(names []string, b *sqlbuf.Buffer) error {
	if len(names) == 0 {
		return nil
	}
	cols, err := quoteNames(v.dialect, names, ",")
	if err != nil {
		return err
	}
	b.WriteString(" RETURNING " + cols)
	return nil
}

// onConflict renders the upsert clause. conflict is the renderer of
// oc.Query for ConflictUpdate.
func (v *baseVisitor) onConflict(oc *nodes.OnConflict, conflict *renderer, b *sqlbuf.Buffer) error {
	if oc == nil || oc.Action == nodes.ConflictRaise {
		return nil
	}
	target, err := v.conflictTarget(oc)
	if err != nil {
		return err
	}
	if oc.Action != nodes.ConflictNothing && target == "" {
		return malformed("a conflict target is required on upserts by PostgreSQL")
	}
	b.WriteString(" ON CONFLICT " + target)
	switch oc.Action {
	case nodes.ConflictNothing:
		b.WriteString("DO NOTHING")
	case nodes.ConflictReplace:
		if len(oc.Replace) == 0 {
			return malformed("on conflict replace requires at least one field")
		}
		b.WriteString("DO UPDATE SET ")
		for i, f := range oc.Replace {
			if i > 0 {
				b.WriteString(",")
			}
			col, err := v.dialect.QuoteIdent(f)
			if err != nil {
				return malformed("%v", err)
			}
			b.WriteString(col + " = EXCLUDED." + col)
		}
	case nodes.ConflictUpdate:
		b.WriteString("DO ")
		return conflict.updateAll(b, "UPDATE SET ")
	default:
		return malformed("unknown conflict action %d", oc.Action)
	}
	return nil
}

func (v *baseVisitor) conflictTarget(oc *nodes.OnConflict) (string, error) {
	if oc.Constraint != "" {
		name, err := v.dialect.QuoteIdent(oc.Constraint)
		if err != nil {
			return "", malformed("%v", err)
		}
		return "ON CONSTRAINT " + name + " ", nil
	}
	if len(oc.Target) == 0 {
		return "", nil
	}
	cols, err := quoteNames(v.dialect, oc.Target, ",")
	if err != nil {
		return "", err
	}
	return "(" + cols + ") ", nil
}

// valueRenderer returns a renderer without sources, used for values of
// single-row statements.
func (v *baseVisitor) valueRenderer() *renderer {
	return &renderer{base: v, d: v.dialect, q: &nodes.Query{}, st: &SourceTable{}}
}

func (r *renderer) value(val any, b *sqlbuf.Buffer) error {
	if isNull(val) {
		b.WriteString("NULL")
		return nil
	}
	switch x := val.(type) {
	case *nodes.Query:
		sub, err := r.base.newRenderer(x, "")
		if err != nil {
			return err
		}
		b.WriteString("(")
		if err := sub.all(b); err != nil {
			return err
		}
		b.WriteString(")")
		return nil
	case nodes.Expr:
		return r.expr(x, b)
	}
	if nodes.IsDefault(val) {
		b.WriteString("DEFAULT")
		return nil
	}
	b.WriteParam(val)
	return nil
}

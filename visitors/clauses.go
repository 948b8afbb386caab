package visitors

import (
	"strings"

	"github.com/bawdo/pgquery/nodes"
	"github.com/bawdo/pgquery/sqlbuf"
)

// all renders a complete SELECT statement for r.q. Clauses are written in
// statement order, which is also parameter order.
func (r *renderer) all(b *sqlbuf.Buffer) error {
	steps := []func(*sqlbuf.Buffer) error{
		r.cte,
		r.selectClause,
		r.from,
		r.joins,
		r.where,
		r.groupBy,
		r.having,
		r.window,
		r.combinations,
		r.orderBy,
		r.limit,
		r.offset,
		r.lock,
	}
	for _, step := range steps {
		if err := step(b); err != nil {
			return r.fail(err)
		}
	}
	return nil
}

func (r *renderer) cte(b *sqlbuf.Buffer) error {
	if len(r.q.CTEs) == 0 {
		return nil
	}
	r.clause = "cte"
	b.WriteString("WITH ")
	if r.q.RecursiveCTEs {
		b.WriteString("RECURSIVE ")
	}
	for i, c := range r.q.CTEs {
		if i > 0 {
			b.WriteString(", ")
		}
		name, err := r.d.QuoteIdent(c.Name)
		if err != nil {
			return malformed("%v", err)
		}
		b.WriteString(name + " AS (")
		switch {
		case c.Query != nil:
			sub, err := r.sub(c.Query)
			if err != nil {
				return err
			}
			if err := sub.all(b); err != nil {
				return err
			}
		case c.Fragment != nil:
			if err := r.expr(c.Fragment, b); err != nil {
				return err
			}
		default:
			return malformed("cte %s has neither a query nor a fragment", name)
		}
		b.WriteString(")")
	}
	b.WriteString(" ")
	return nil
}

func (r *renderer) selectClause(b *sqlbuf.Buffer) error {
	r.clause = "select"
	b.WriteString("SELECT ")
	if d := r.q.Distinct; d != nil {
		if len(d.On) == 0 {
			b.WriteString("DISTINCT ")
		} else {
			b.WriteString("DISTINCT ON (")
			for i, o := range d.On {
				if i > 0 {
					b.WriteString(", ")
				}
				if err := r.expr(o.Expr, b); err != nil {
					return err
				}
			}
			b.WriteString(") ")
		}
	}
	if r.q.Select == nil || len(r.q.Select.Fields) == 0 {
		b.WriteString("TRUE")
		return nil
	}
	return r.selectFields(r.q.Select.Fields, b)
}

func (r *renderer) selectFields(fields []nodes.SelectField, b *sqlbuf.Buffer) error {
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := r.expr(f.Expr, b); err != nil {
			return err
		}
		if f.Alias != "" {
			alias, err := r.d.QuoteIdent(f.Alias)
			if err != nil {
				return malformed("%v", err)
			}
			b.WriteString(" AS " + alias)
		}
	}
	return nil
}

func (r *renderer) from(b *sqlbuf.Buffer) error {
	if r.st.Len() == 0 {
		return nil
	}
	r.clause = "from"
	ref, err := r.st.Resolve(0)
	if err != nil {
		return err
	}
	b.WriteString(" FROM ")
	return r.sourceAs(ref, b)
}

// sourceAs renders a source followed by its alias. Fragment and subquery
// sources are rendered inline in parentheses.
func (r *renderer) sourceAs(ref SourceRef, b *sqlbuf.Buffer) error {
	switch ref.Kind {
	case nodes.FragmentSourceKind:
		if ref.Source.Fragment == nil {
			return malformed("fragment source %s has no fragment", ref.Alias)
		}
		b.WriteString("(")
		if err := r.expr(ref.Source.Fragment, b); err != nil {
			return err
		}
		b.WriteString(")")
	case nodes.SubquerySourceKind:
		sub, err := r.sub(ref.Source.Subquery)
		if err != nil {
			return err
		}
		b.WriteString("(")
		if err := sub.all(b); err != nil {
			return err
		}
		b.WriteString(")")
	default:
		b.WriteString(ref.Name)
	}
	b.WriteString(" AS " + ref.Alias)
	return nil
}

func isCross(q nodes.JoinQual) bool {
	return q == nodes.CrossJoin || q == nodes.CrossLateralJoin
}

func (r *renderer) joins(b *sqlbuf.Buffer) error {
	r.clause = "join"
	for _, j := range r.q.Joins {
		kw, ok := r.d.JoinKeyword(j.Qual)
		if !ok {
			return malformed("unknown join qualifier %d", j.Qual)
		}
		ref, err := r.st.Resolve(j.Source)
		if err != nil {
			return err
		}
		b.WriteString(" " + kw + " ")
		if err := r.sourceAs(ref, b); err != nil {
			return err
		}
		switch {
		case j.On == nil && isCross(j.Qual):
		case j.On == nil:
			b.WriteString(" ON TRUE")
		default:
			b.WriteString(" ON ")
			if err := r.expr(j.On, b); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *renderer) where(b *sqlbuf.Buffer) error {
	r.clause = "where"
	return r.boolean(" WHERE ", r.q.Wheres, b)
}

func (r *renderer) having(b *sqlbuf.Buffer) error {
	r.clause = "having"
	return r.boolean(" HAVING ", r.q.Havings, b)
}

// boolean folds preds left to right. Every predicate is parenthesized and
// the text accumulated so far is wrapped whenever the combinator changes,
// so "a AND b OR c" renders as ((a) AND (b)) OR (c). The first predicate's
// combinator is ignored.
func (r *renderer) boolean(keyword string, preds []nodes.BoolExpr, b *sqlbuf.Buffer) error {
	if len(preds) == 0 {
		return nil
	}
	var acc sqlbuf.Buffer
	if err := r.paren(preds[0].Expr, &acc); err != nil {
		return err
	}
	var op nodes.BoolOp
	for i, p := range preds[1:] {
		if p.Op < 0 || int(p.Op) >= len(boolOpSQL) {
			return malformed("unknown boolean operator %d", p.Op)
		}
		if i > 0 && p.Op != op {
			acc.Wrap("(", ")")
		}
		op = p.Op
		acc.WriteString(boolOpSQL[p.Op])
		if err := r.paren(p.Expr, &acc); err != nil {
			return err
		}
	}
	b.WriteString(keyword)
	b.Append(&acc)
	return nil
}

func (r *renderer) paren(e nodes.Expr, b *sqlbuf.Buffer) error {
	b.WriteString("(")
	if err := r.expr(e, b); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func (r *renderer) groupBy(b *sqlbuf.Buffer) error {
	if len(r.q.GroupBy) == 0 {
		return nil
	}
	r.clause = "group_by"
	b.WriteString(" GROUP BY ")
	return r.exprList(r.q.GroupBy, ", ", b)
}

func (r *renderer) window(b *sqlbuf.Buffer) error {
	if len(r.q.Windows) == 0 {
		return nil
	}
	r.clause = "window"
	b.WriteString(" WINDOW ")
	for i, w := range r.q.Windows {
		if i > 0 {
			b.WriteString(", ")
		}
		name, err := r.d.QuoteIdent(w.Name)
		if err != nil {
			return malformed("%v", err)
		}
		b.WriteString(name + " AS (")
		if err := r.windowDef(w.Def, b); err != nil {
			return err
		}
		b.WriteString(")")
	}
	return nil
}

func (r *renderer) combinations(b *sqlbuf.Buffer) error {
	r.clause = "combination"
	for _, c := range r.q.Combinations {
		if c.Kind < 0 || int(c.Kind) >= len(combinationSQL) {
			return malformed("unknown combination kind %d", c.Kind)
		}
		sub, err := r.base.newRenderer(c.Query, r.st.AliasPrefix())
		if err != nil {
			return err
		}
		b.WriteString(" " + combinationSQL[c.Kind] + " (")
		if err := sub.all(b); err != nil {
			return err
		}
		b.WriteString(")")
	}
	return nil
}

// orderBy renders ORDER BY. DISTINCT ON expressions are prepended to an
// explicit ordering, since PostgreSQL requires them to lead it.
func (r *renderer) orderBy(b *sqlbuf.Buffer) error {
	if len(r.q.OrderBy) == 0 {
		return nil
	}
	var orders []nodes.Order
	if r.q.Distinct != nil {
		orders = append(orders, r.q.Distinct.On...)
	}
	orders = append(orders, r.q.OrderBy...)
	r.clause = "order_by"
	b.WriteString(" ORDER BY ")
	return r.orders(orders, b)
}

func (r *renderer) orders(orders []nodes.Order, b *sqlbuf.Buffer) error {
	for i, o := range orders {
		if i > 0 {
			b.WriteString(", ")
		}
		if o.Dir < 0 || int(o.Dir) >= len(directionSQL) {
			return malformed("unknown order direction %d", o.Dir)
		}
		if err := r.expr(o.Expr, b); err != nil {
			return err
		}
		b.WriteString(directionSQL[o.Dir])
	}
	return nil
}

func (r *renderer) limit(b *sqlbuf.Buffer) error {
	if r.q.Limit == nil {
		return nil
	}
	r.clause = "limit"
	b.WriteString(" LIMIT ")
	return r.expr(r.q.Limit, b)
}

func (r *renderer) offset(b *sqlbuf.Buffer) error {
	if r.q.Offset == nil {
		return nil
	}
	r.clause = "offset"
	b.WriteString(" OFFSET ")
	return r.expr(r.q.Offset, b)
}

func (r *renderer) lock(b *sqlbuf.Buffer) error {
	if r.q.Lock == "" {
		return nil
	}
	b.WriteString(" " + r.q.Lock)
	return nil
}

// updateOps renders the assignments of UPDATE ... SET. Increments and array
// operations read the current value through the alias of source 0.
func (r *renderer) updateOps(b *sqlbuf.Buffer) error {
	r.clause = "update"
	if len(r.q.Updates) == 0 {
		return malformed("no fields given to update")
	}
	target, err := r.st.Resolve(0)
	if err != nil {
		return err
	}
	for i, op := range r.q.Updates {
		if i > 0 {
			b.WriteString(", ")
		}
		field, err := r.d.QuoteIdent(op.Field)
		if err != nil {
			return malformed("%v", err)
		}
		current := target.Alias + "." + field
		switch op.Kind {
		case nodes.SetOp:
			b.WriteString(field + " = ")
			err = r.expr(op.Value, b)
		case nodes.IncOp:
			b.WriteString(field + " = " + current + " + ")
			err = r.expr(op.Value, b)
		case nodes.PushOp:
			b.WriteString(field + " = array_append(" + current + ", ")
			err = r.expr(op.Value, b)
			b.WriteString(")")
		case nodes.PullOp:
			b.WriteString(field + " = array_remove(" + current + ", ")
			err = r.expr(op.Value, b)
			b.WriteString(")")
		default:
			return malformed("unknown update operation kind %d", op.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// returning renders RETURNING from the query's projection.
func (r *renderer) returning(b *sqlbuf.Buffer) error {
	if r.q.Select == nil || len(r.q.Select.Fields) == 0 {
		return nil
	}
	r.clause = "returning"
	b.WriteString(" RETURNING ")
	return r.selectFields(r.q.Select.Fields, b)
}

// usingJoins renders the joins of an UPDATE or DELETE as an extra FROM or
// USING list and returns their ON predicates for the WHERE clause.
func (r *renderer) usingJoins(kind, keyword string, b *sqlbuf.Buffer) ([]nodes.BoolExpr, error) {
	if len(r.q.Joins) == 0 {
		return nil, nil
	}
	r.clause = "join"
	var wheres []nodes.BoolExpr
	b.WriteString(" " + keyword + " ")
	for i, j := range r.q.Joins {
		if j.Qual != nodes.InnerJoin {
			return nil, unsupported("PostgreSQL supports only inner joins on %s, got: %s", kind, j.Qual)
		}
		ref, err := r.st.Resolve(j.Source)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			b.WriteString(", ")
		}
		if err := r.sourceAs(ref, b); err != nil {
			return nil, err
		}
		if j.On != nil && !isTrueLiteral(j.On) {
			wheres = append(wheres, nodes.BoolExpr{Op: nodes.AndOp, Expr: j.On})
		}
	}
	return wheres, nil
}

func isTrueLiteral(e nodes.Expr) bool {
	lit, ok := e.(*nodes.LiteralNode)
	if !ok {
		return false
	}
	v, ok := lit.Value.(bool)
	return ok && v
}

// quoteNames quotes each name and joins them with sep.
func quoteNames(d Dialect, names []string, sep string) (string, error) {
	quoted := make([]string, len(names))
	for i, n := range names {
		q, err := d.QuoteIdent(n)
		if err != nil {
			return "", malformed("%v", err)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, sep), nil
}

// Package managers provides high-level fluent APIs for building queries.
package managers

import (
	"github.com/bawdo/pgquery/nodes"
	"github.com/bawdo/pgquery/plugins"
)

// SelectManager provides a fluent API for building a *nodes.Query. Besides
// SELECT it drives the bulk statements: Set/Inc/Push/Pull record update
// operations for UpdateAllSQL, and DeleteAllSQL deletes what the query
// selects. Transformer plugins are applied before SQL generation.
type SelectManager struct {
	treeManager
	query *nodes.Query
}

// NewSelectManager creates a new SelectManager with from as source 0.
func NewSelectManager(from nodes.Source) *SelectManager {
	return &SelectManager{query: nodes.From(from)}
}

// Query returns a copy of the query built so far, without transformers
// applied.
func (m *SelectManager) Query() *nodes.Query {
	return m.query.Clone()
}

// Prefix sets the schema applied to table sources without their own.
func (m *SelectManager) Prefix(schema string) *SelectManager {
	m.query.Prefix = schema
	return m
}

// Bind appends val to the query parameters and returns a reference to it.
func (m *SelectManager) Bind(val any) *nodes.ParamNode {
	m.query.Params = append(m.query.Params, val)
	return nodes.Param(len(m.query.Params) - 1)
}

// value binds plain Go values and passes expressions through.
func (m *SelectManager) value(val any) nodes.Expr {
	if e, ok := val.(nodes.Expr); ok {
		return e
	}
	return m.Bind(val)
}

// Select sets the projection list, replacing any existing projections.
func (m *SelectManager) Select(exprs ...nodes.Expr) *SelectManager {
	m.query.Select = nodes.Fields(exprs...)
	return m
}

// Project is an alias for Select.
func (m *SelectManager) Project(exprs ...nodes.Expr) *SelectManager {
	return m.Select(exprs...)
}

// SelectAs appends an aliased expression to the projection.
func (m *SelectManager) SelectAs(e nodes.Expr, alias string) *SelectManager {
	if m.query.Select == nil {
		m.query.Select = &nodes.Select{}
	}
	m.query.Select.Fields = append(m.query.Select.Fields, nodes.SelectField{Expr: e, Alias: alias})
	return m
}

// Distinct enables or disables the DISTINCT modifier.
func (m *SelectManager) Distinct(on ...bool) *SelectManager {
	if len(on) == 0 || on[0] {
		m.query.Distinct = &nodes.Distinct{}
	} else {
		m.query.Distinct = nil
	}
	return m
}

// DistinctOn sets the DISTINCT ON expressions. They also lead an explicit ORDER BY.
func (m *SelectManager) DistinctOn(orders ...nodes.Order) *SelectManager {
	m.query.Distinct = &nodes.Distinct{On: orders}
	return m
}

// Where appends conditions to the WHERE clause, each combined with AND.
func (m *SelectManager) Where(conditions ...nodes.Expr) *SelectManager {
	for _, c := range conditions {
		m.query.Wheres = append(m.query.Wheres, nodes.BoolExpr{Op: nodes.AndOp, Expr: c})
	}
	return m
}

// OrWhere appends a condition combined with OR: everything before it is
// grouped, so Where(a).Where(b).OrWhere(c) is (a AND b) OR c.
func (m *SelectManager) OrWhere(condition nodes.Expr) *SelectManager {
	m.query.Wheres = append(m.query.Wheres, nodes.BoolExpr{Op: nodes.OrOp, Expr: condition})
	return m
}

// Join adds a source and a join to it and returns a JoinContext for
// specifying the ON condition. The default join type is InnerJoin.
func (m *SelectManager) Join(src nodes.Source, quals ...nodes.JoinQual) *JoinContext {
	qual := nodes.InnerJoin
	if len(quals) > 0 {
		qual = quals[0]
	}
	m.query.Sources = append(m.query.Sources, src)
	m.query.Joins = append(m.query.Joins, nodes.Join{Qual: qual, Source: len(m.query.Sources) - 1})
	return &JoinContext{manager: m, index: len(m.query.Joins) - 1}
}

// OuterJoin is a convenience for Join with LeftJoin.
func (m *SelectManager) OuterJoin(src nodes.Source) *JoinContext {
	return m.Join(src, nodes.LeftJoin)
}

// LateralJoin adds a LATERAL join. Pass nodes.LeftJoin for a left lateral
// join; the default is an inner one.
func (m *SelectManager) LateralJoin(src nodes.Source, quals ...nodes.JoinQual) *JoinContext {
	qual := nodes.InnerLateralJoin
	if len(quals) > 0 && quals[0] == nodes.LeftJoin {
		qual = nodes.LeftLateralJoin
	}
	return m.Join(src, qual)
}

// CrossJoin adds a cross join (no ON clause).
func (m *SelectManager) CrossJoin(src nodes.Source) *SelectManager {
	m.Join(src, nodes.CrossJoin)
	return m
}

// Group appends expressions to the GROUP BY clause.
func (m *SelectManager) Group(exprs ...nodes.Expr) *SelectManager {
	m.query.GroupBy = append(m.query.GroupBy, exprs...)
	return m
}

// Having appends conditions to the HAVING clause, each combined with AND.
func (m *SelectManager) Having(conditions ...nodes.Expr) *SelectManager {
	for _, c := range conditions {
		m.query.Havings = append(m.query.Havings, nodes.BoolExpr{Op: nodes.AndOp, Expr: c})
	}
	return m
}

// OrHaving appends a HAVING condition combined with OR.
func (m *SelectManager) OrHaving(condition nodes.Expr) *SelectManager {
	m.query.Havings = append(m.query.Havings, nodes.BoolExpr{Op: nodes.OrOp, Expr: condition})
	return m
}

// Window declares a named window for the WINDOW clause.
func (m *SelectManager) Window(name string, def nodes.WindowDef) *SelectManager {
	m.query.Windows = append(m.query.Windows, nodes.Window{Name: name, Def: def})
	return m
}

// Order appends orderings, e.g. nodes.Col(0, "name").Asc().
func (m *SelectManager) Order(orders ...nodes.Order) *SelectManager {
	m.query.OrderBy = append(m.query.OrderBy, orders...)
	return m
}

// Limit sets the LIMIT value. Plain values are bound as parameters.
func (m *SelectManager) Limit(n any) *SelectManager {
	m.query.Limit = m.value(n)
	return m
}

// Take is an alias for Limit.
func (m *SelectManager) Take(n any) *SelectManager {
	return m.Limit(n)
}

// Offset sets the OFFSET value. Plain values are bound as parameters.
func (m *SelectManager) Offset(n any) *SelectManager {
	m.query.Offset = m.value(n)
	return m
}

// Lock sets a raw locking clause such as "FOR UPDATE SKIP LOCKED".
//
// SECURITY: The lock string is injected verbatim into SQL output.
func (m *SelectManager) Lock(lock string) *SelectManager {
	m.query.Lock = lock
	return m
}

// ForUpdate sets the FOR UPDATE lock mode.
func (m *SelectManager) ForUpdate() *SelectManager { return m.Lock("FOR UPDATE") }

// ForShare sets the FOR SHARE lock mode.
func (m *SelectManager) ForShare() *SelectManager { return m.Lock("FOR SHARE") }

// With adds a common table expression built by other.
func (m *SelectManager) With(name string, other *SelectManager) *SelectManager {
	m.query.CTEs = append(m.query.CTEs, nodes.CTE{Name: name, Query: other.Query()})
	return m
}

// WithRecursive adds a common table expression and marks the WITH clause
// RECURSIVE.
func (m *SelectManager) WithRecursive(name string, other *SelectManager) *SelectManager {
	m.query.RecursiveCTEs = true
	return m.With(name, other)
}

// WithFragment adds a common table expression given as raw SQL.
func (m *SelectManager) WithFragment(name string, f *nodes.FragmentNode) *SelectManager {
	m.query.CTEs = append(m.query.CTEs, nodes.CTE{Name: name, Fragment: f})
	return m
}

func (m *SelectManager) combine(kind nodes.CombinationKind, other *SelectManager) *SelectManager {
	m.query.Combinations = append(m.query.Combinations, nodes.Combination{Kind: kind, Query: other.Query()})
	return m
}

// Union appends UNION (other).
func (m *SelectManager) Union(other *SelectManager) *SelectManager { return m.combine(nodes.Union, other) }

// UnionAll appends UNION ALL (other).
func (m *SelectManager) UnionAll(other *SelectManager) *SelectManager {
	return m.combine(nodes.UnionAll, other)
}

// Intersect appends INTERSECT (other).
func (m *SelectManager) Intersect(other *SelectManager) *SelectManager {
	return m.combine(nodes.Intersect, other)
}

// IntersectAll appends INTERSECT ALL (other).
func (m *SelectManager) IntersectAll(other *SelectManager) *SelectManager {
	return m.combine(nodes.IntersectAll, other)
}

// Except appends EXCEPT (other).
func (m *SelectManager) Except(other *SelectManager) *SelectManager {
	return m.combine(nodes.Except, other)
}

// ExceptAll appends EXCEPT ALL (other).
func (m *SelectManager) ExceptAll(other *SelectManager) *SelectManager {
	return m.combine(nodes.ExceptAll, other)
}

func (m *SelectManager) update(kind nodes.UpdateKind, field string, val any) *SelectManager {
	m.query.Updates = append(m.query.Updates, nodes.UpdateOp{Kind: kind, Field: field, Value: m.value(val)})
	return m
}

// Set records field = val for UpdateAllSQL.
func (m *SelectManager) Set(field string, val any) *SelectManager {
	return m.update(nodes.SetOp, field, val)
}

// Inc records field = field + by.
func (m *SelectManager) Inc(field string, by any) *SelectManager {
	return m.update(nodes.IncOp, field, by)
}

// Push records field = array_append(field, val).
func (m *SelectManager) Push(field string, val any) *SelectManager {
	return m.update(nodes.PushOp, field, val)
}

// Pull records field = array_remove(field, val).
func (m *SelectManager) Pull(field string, val any) *SelectManager {
	return m.update(nodes.PullOp, field, val)
}

// Use registers a transformer plugin to be applied before SQL generation.
func (m *SelectManager) Use(t plugins.Transformer) *SelectManager {
	m.addTransformer(t)
	return m
}

// Build applies all registered transformers to a copy of the query.
func (m *SelectManager) Build() (*nodes.Query, error) {
	return m.transform(m.query)
}

// ToSQL applies all registered transformers and generates a SELECT.
func (m *SelectManager) ToSQL(c Compiler) (string, []any, error) {
	q, err := m.Build()
	if err != nil {
		return "", nil, err
	}
	return c.CompileSelect(q)
}

// UpdateAllSQL generates a bulk UPDATE from the recorded update operations.
func (m *SelectManager) UpdateAllSQL(c Compiler) (string, []any, error) {
	q, err := m.Build()
	if err != nil {
		return "", nil, err
	}
	return c.CompileUpdateAll(q)
}

// DeleteAllSQL generates a bulk DELETE of the rows the query selects.
func (m *SelectManager) DeleteAllSQL(c Compiler) (string, []any, error) {
	q, err := m.Build()
	if err != nil {
		return "", nil, err
	}
	return c.CompileDeleteAll(q)
}

// Subquery returns the query as an expression, e.g. for InExpr.
// Transformers are not applied.
func (m *SelectManager) Subquery() *nodes.SubqueryNode {
	return nodes.Subquery(m.Query())
}

// As returns the query as a source projecting fields, for use in another
// manager's Join or NewSelectManager. Transformers are not applied.
func (m *SelectManager) As(fields ...string) nodes.Source {
	return nodes.SubquerySource(m.Query(), fields...)
}

package visitors

import (
	"encoding/hex"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bawdo/pgquery/nodes"
	"github.com/bawdo/pgquery/sqlbuf"
)

var functionNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// renderer compiles one query. It carries the query's source table and
// implements nodes.Visitor; a new renderer is created for every query and
// subquery, so visitors themselves stay stateless.
type renderer struct {
	base   *baseVisitor
	d      Dialect
	q      *nodes.Query
	st     *SourceTable
	clause string
}

var _ nodes.Visitor = (*renderer)(nil)

func (v *baseVisitor) newRenderer(q *nodes.Query, aliasPrefix string) (*renderer, error) {
	if q == nil {
		return nil, malformed("nil query")
	}
	st, err := NewSourceTable(v.dialect, q.Sources, q.Prefix, aliasPrefix)
	if err != nil {
		return nil, asCompileError(err, "from", q)
	}
	return &renderer{base: v, d: v.dialect, q: q, st: st}, nil
}

// sub creates the renderer for a nested query. Its aliases get one more
// "s" so they cannot shadow ours.
func (r *renderer) sub(q *nodes.Query) (*renderer, error) {
	return r.base.newRenderer(q, r.st.AliasPrefix()+"s")
}

func (r *renderer) fail(err error) error { return asCompileError(err, r.clause, r.q) }

func (r *renderer) expr(e nodes.Expr, b *sqlbuf.Buffer) error {
	if e == nil {
		return malformed("missing expression")
	}
	return e.Accept(r, b)
}

func (r *renderer) exprList(es []nodes.Expr, sep string, b *sqlbuf.Buffer) error {
	for i, e := range es {
		if i > 0 {
			b.WriteString(sep)
		}
		if err := r.expr(e, b); err != nil {
			return err
		}
	}
	return nil
}

// needsParens returns true if the node must be wrapped in parentheses when
// used as an operand of a binary operator.
func needsParens(e nodes.Expr) bool {
	switch n := e.(type) {
	case *nodes.CallNode:
		return nodes.IsBinaryOperator(n.Name)
	case *nodes.IsNilNode:
		return true
	}
	return false
}

func (r *renderer) operand(e nodes.Expr, b *sqlbuf.Buffer) error {
	if !needsParens(e) {
		return r.expr(e, b)
	}
	b.WriteString("(")
	if err := r.expr(e, b); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func (r *renderer) VisitLiteral(n *nodes.LiteralNode, b *sqlbuf.Buffer) error {
	s, err := literalSQL(r.d, n.Value)
	if err != nil {
		return err
	}
	b.WriteString(s)
	return nil
}

// literalSQL renders a Go value as an inline SQL literal.
func literalSQL(d Dialect, val any) (string, error) {
	if isNull(val) {
		return "NULL", nil
	}
	if s, ok := integerSQL(val); ok {
		return s, nil
	}
	switch v := val.(type) {
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case string:
		return d.QuoteString(v), nil
	case []byte:
		return `'\x` + hex.EncodeToString(v) + `'::bytea`, nil
	case float32:
		return floatSQL(float64(v)) + "::float", nil
	case float64:
		return floatSQL(v) + "::float", nil
	case decimal.Decimal:
		return v.String(), nil
	case *decimal.Decimal:
		return v.String(), nil
	case uuid.UUID:
		return "'" + v.String() + "'::uuid", nil
	}

	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		var sb strings.Builder
		sb.WriteString("ARRAY[")
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				sb.WriteString(",")
			}
			s, err := literalSQL(d, rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		}
		sb.WriteString("]")
		return sb.String(), nil
	}
	return "", malformed("unsupported literal type %T", val)
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func integerSQL(val any) (string, bool) {
	switch v := val.(type) {
	case int:
		return strconv.FormatInt(int64(v), 10), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	}
	return "", false
}

// floatSQL formats f so that PostgreSQL reads it back as a float, always
// keeping a decimal point or exponent.
func floatSQL(f float64) string {
	switch {
	case math.IsNaN(f):
		return "'NaN'"
	case math.IsInf(f, 1):
		return "'Infinity'"
	case math.IsInf(f, -1):
		return "'-Infinity'"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func (r *renderer) VisitParam(n *nodes.ParamNode, b *sqlbuf.Buffer) error {
	if n.Index < 0 || n.Index >= len(r.q.Params) {
		return malformed("parameter index %d out of range (query has %d params)", n.Index, len(r.q.Params))
	}
	v := r.q.Params[n.Index]
	// PostgreSQL cannot infer a type for an untyped NULL bind.
	if isNull(v) {
		b.WriteString("NULL")
		return nil
	}
	b.WriteParamRef(paramRef{q: r.q, index: n.Index}, v)
	return nil
}

// paramRef identifies a bound value. A ParamNode rendered more than once,
// such as a DISTINCT ON expression repeated in ORDER BY, shares one
// placeholder.
type paramRef struct {
	q     *nodes.Query
	index int
}

func (r *renderer) VisitColumn(n *nodes.ColumnNode, b *sqlbuf.Buffer) error {
	ref, err := r.st.Resolve(n.Source)
	if err != nil {
		return err
	}
	if !n.All {
		return r.qualifiedField(ref.Alias, n.Field, b)
	}
	if !ref.HasFields() {
		return malformed("cannot select all fields of source %d (%s) without a known field list", n.Source, ref.Alias)
	}
	for i, f := range ref.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := r.qualifiedField(ref.Alias, f, b); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) qualifiedField(alias, field string, b *sqlbuf.Buffer) error {
	quoted, err := r.d.QuoteIdent(field)
	if err != nil {
		return malformed("%v", err)
	}
	b.WriteString(alias + "." + quoted)
	return nil
}

func (r *renderer) VisitCall(n *nodes.CallNode, b *sqlbuf.Buffer) error {
	if nodes.IsBinaryOperator(n.Name) {
		op, ok := r.d.BinaryOperator(n.Name)
		if !ok {
			return unsupported("operator %q", n.Name)
		}
		if len(n.Args) != 2 {
			return malformed("operator %q expects 2 arguments, got %d", n.Name, len(n.Args))
		}
		if err := r.operand(n.Args[0], b); err != nil {
			return err
		}
		b.WriteString(" " + op + " ")
		return r.operand(n.Args[1], b)
	}

	if !functionNameRe.MatchString(n.Name) {
		return malformed("invalid function name %q", n.Name)
	}
	if n.Name == "count" && len(n.Args) == 0 {
		b.WriteString("count(*)")
		return nil
	}
	b.WriteString(n.Name + "(")
	if n.Distinct {
		b.WriteString("DISTINCT ")
	}
	if err := r.exprList(n.Args, ", ", b); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func (r *renderer) VisitIn(n *nodes.InNode, b *sqlbuf.Buffer) error {
	if list, ok := n.Right.(*nodes.ListNode); ok && len(list.Items) == 0 {
		b.WriteString("false")
		return nil
	}
	if err := r.expr(n.Left, b); err != nil {
		return err
	}
	if list, ok := n.Right.(*nodes.ListNode); ok {
		b.WriteString(" IN (")
		if err := r.exprList(list.Items, ", ", b); err != nil {
			return err
		}
		b.WriteString(")")
		return nil
	}
	// A parameter bound to a slice, a column or a subquery.
	b.WriteString(" = ANY(")
	if err := r.expr(n.Right, b); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func (r *renderer) VisitList(n *nodes.ListNode, b *sqlbuf.Buffer) error {
	b.WriteString("ARRAY[")
	if err := r.exprList(n.Items, ",", b); err != nil {
		return err
	}
	b.WriteString("]")
	return nil
}

func (r *renderer) VisitIsNil(n *nodes.IsNilNode, b *sqlbuf.Buffer) error {
	if err := r.expr(n.Expr, b); err != nil {
		return err
	}
	b.WriteString(" IS NULL")
	return nil
}

func (r *renderer) VisitNot(n *nodes.NotNode, b *sqlbuf.Buffer) error {
	b.WriteString("NOT (")
	if err := r.expr(n.Expr, b); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func (r *renderer) VisitFragment(n *nodes.FragmentNode, b *sqlbuf.Buffer) error {
	if len(n.Keywords) > 0 {
		return unsupported("keyword or interpolated fragments")
	}
	if n.ExtraArgs > 0 {
		return malformed("fragment has %d more arguments than placeholders", n.ExtraArgs)
	}
	for i, p := range n.Parts {
		if !p.IsExpr {
			b.WriteString(p.Raw)
			continue
		}
		if p.Expr == nil {
			return malformed("fragment placeholder %d has no argument", i)
		}
		if err := r.expr(p.Expr, b); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) VisitTagged(n *nodes.TaggedNode, b *sqlbuf.Buffer) error {
	typ, err := castType(r.d, n.Type)
	if err != nil {
		return err
	}
	if lit, ok := n.Value.(*nodes.LiteralNode); ok && typ == "bytea" {
		if _, isBytes := lit.Value.([]byte); isBytes {
			return r.expr(lit, b)
		}
	}
	if err := r.expr(n.Value, b); err != nil {
		return err
	}
	b.WriteString("::" + typ)
	return nil
}

func (r *renderer) VisitSubquery(n *nodes.SubqueryNode, b *sqlbuf.Buffer) error {
	sub, err := r.sub(n.Query)
	if err != nil {
		return err
	}
	b.WriteString("(")
	if err := sub.all(b); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func (r *renderer) VisitInterval(n *nodes.IntervalNode, b *sqlbuf.Buffer) error {
	if !nodes.ValidIntervalUnit(n.Unit) {
		return malformed("invalid interval unit %q", n.Unit)
	}
	if lit, ok := n.Count.(*nodes.LiteralNode); ok {
		if s, ok := integerSQL(lit.Value); ok {
			b.WriteString("interval '" + s + " " + n.Unit + "'")
			return nil
		}
		switch f := lit.Value.(type) {
		case float64:
			b.WriteString("interval '" + strconv.FormatFloat(f, 'f', -1, 64) + " " + n.Unit + "'")
			return nil
		case float32:
			b.WriteString("interval '" + strconv.FormatFloat(float64(f), 'f', -1, 32) + " " + n.Unit + "'")
			return nil
		}
	}
	b.WriteString("(")
	if err := r.expr(n.Count, b); err != nil {
		return err
	}
	b.WriteString("::numeric * interval '1 " + n.Unit + "')")
	return nil
}

func (r *renderer) VisitDatetimeAdd(n *nodes.DatetimeAddNode, b *sqlbuf.Buffer) error {
	if err := r.expr(n.Datetime, b); err != nil {
		return err
	}
	if _, tagged := n.Datetime.(*nodes.TaggedNode); !tagged {
		b.WriteString("::timestamp")
	}
	b.WriteString(" + ")
	return r.expr(n.Interval, b)
}

func (r *renderer) VisitDateAdd(n *nodes.DateAddNode, b *sqlbuf.Buffer) error {
	b.WriteString("(")
	if err := r.expr(n.Date, b); err != nil {
		return err
	}
	if _, tagged := n.Date.(*nodes.TaggedNode); !tagged {
		b.WriteString("::date")
	}
	b.WriteString(" + ")
	if err := r.expr(n.Interval, b); err != nil {
		return err
	}
	b.WriteString(")::date")
	return nil
}

func (r *renderer) VisitTuple(n *nodes.TupleNode, b *sqlbuf.Buffer) error {
	if len(n.Items) == 0 {
		return malformed("empty tuple")
	}
	b.WriteString("(")
	if err := r.exprList(n.Items, ", ", b); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func (r *renderer) VisitFilter(n *nodes.FilterNode, b *sqlbuf.Buffer) error {
	if err := r.expr(n.Aggregate, b); err != nil {
		return err
	}
	b.WriteString(" FILTER (WHERE ")
	if err := r.expr(n.Where, b); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func (r *renderer) VisitOver(n *nodes.OverNode, b *sqlbuf.Buffer) error {
	if err := r.expr(n.Expr, b); err != nil {
		return err
	}
	b.WriteString(" OVER ")
	if n.Def == nil {
		name, err := r.d.QuoteIdent(n.Window)
		if err != nil {
			return malformed("%v", err)
		}
		b.WriteString(name)
		return nil
	}
	b.WriteString("(")
	if err := r.windowDef(*n.Def, b); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func (r *renderer) windowDef(def nodes.WindowDef, b *sqlbuf.Buffer) error {
	sep := ""
	if len(def.PartitionBy) > 0 {
		b.WriteString("PARTITION BY ")
		if err := r.exprList(def.PartitionBy, ", ", b); err != nil {
			return err
		}
		sep = " "
	}
	if len(def.OrderBy) > 0 {
		b.WriteString(sep + "ORDER BY ")
		if err := r.orders(def.OrderBy, b); err != nil {
			return err
		}
		sep = " "
	}
	if def.Frame != nil {
		b.WriteString(sep)
		return r.expr(def.Frame, b)
	}
	return nil
}

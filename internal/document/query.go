package document

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/bawdo/pgquery/nodes"
)

// Query is the YAML form of a nodes.Query.
type Query struct {
	Prefix       string        `yaml:"prefix"`
	From         *Source       `yaml:"from"`
	Joins        []Join        `yaml:"joins"`
	Select       []SelectField `yaml:"select"`
	Distinct     *Distinct     `yaml:"distinct"`
	Where        []Bool        `yaml:"where"`
	GroupBy      []Expr        `yaml:"group_by"`
	Having       []Bool        `yaml:"having"`
	Windows      []Window      `yaml:"windows"`
	OrderBy      []Order       `yaml:"order_by"`
	Limit        *Expr         `yaml:"limit"`
	Offset       *Expr         `yaml:"offset"`
	Lock         string        `yaml:"lock"`
	Updates      []Update      `yaml:"updates"`
	With         []CTE         `yaml:"with"`
	Recursive    bool          `yaml:"recursive"`
	Combinations []Combination `yaml:"combinations"`
	Params       []Value       `yaml:"params"`
}

// Source is a FROM or JOIN source. A plain string names a table.
type Source struct {
	Table    string   `yaml:"table"`
	Prefix   string   `yaml:"prefix"`
	Fields   []string `yaml:"fields"`
	Fragment string   `yaml:"fragment"`
	Args     []Expr   `yaml:"args"`
	Subquery *Query   `yaml:"subquery"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Source) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		s.Table = n.Value
		return nil
	}
	type plain Source
	return n.Decode((*plain)(s))
}

func (s *Source) build() (nodes.Source, error) {
	switch {
	case s.Subquery != nil:
		q, err := s.Subquery.Build()
		if err != nil {
			return nodes.Source{}, err
		}
		return nodes.SubquerySource(q, s.Fields...), nil
	case s.Fragment != "":
		return nodes.FragmentSource(nodes.Frag(s.Fragment, exprArgs(s.Args)...)), nil
	case s.Table != "":
		src := nodes.Table(s.Table, s.Fields...)
		src.Prefix = s.Prefix
		return src, nil
	}
	return nodes.Source{}, fmt.Errorf("source needs a table, fragment or subquery")
}

// Join is one JOIN entry. Qual defaults to inner.
type Join struct {
	Qual   string `yaml:"qual"`
	Source Source `yaml:"source"`
	On     *Expr  `yaml:"on"`
}

// SelectField is a projected expression, optionally written as
// {expr: ..., as: alias}.
type SelectField struct {
	Expr  Expr
	Alias string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *SelectField) UnmarshalYAML(n *yaml.Node) error {
	if !hasKey(n, "expr") {
		return f.Expr.UnmarshalYAML(n)
	}
	var aux struct {
		Expr Expr   `yaml:"expr"`
		As   string `yaml:"as"`
	}
	if err := n.Decode(&aux); err != nil {
		return err
	}
	f.Expr, f.Alias = aux.Expr, aux.As
	return nil
}

// Distinct is either a boolean or a list of DISTINCT ON orders.
type Distinct struct {
	Enabled bool
	On      []Order
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Distinct) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		d.Enabled = true
		return n.Decode(&d.On)
	}
	return n.Decode(&d.Enabled)
}

// Bool is a WHERE or HAVING entry: an expression combined with AND, or
// {bool: or, expr: ...}.
type Bool struct {
	Op   nodes.BoolOp
	Expr Expr
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Bool) UnmarshalYAML(n *yaml.Node) error {
	if !hasKey(n, "expr") {
		b.Op = nodes.AndOp
		return b.Expr.UnmarshalYAML(n)
	}
	var aux struct {
		Bool string `yaml:"bool"`
		Expr Expr   `yaml:"expr"`
	}
	if err := n.Decode(&aux); err != nil {
		return err
	}
	switch aux.Bool {
	case "", "and":
		b.Op = nodes.AndOp
	case "or":
		b.Op = nodes.OrOp
	default:
		return nodeErrorf(n, "unknown boolean operator %q", aux.Bool)
	}
	b.Expr = aux.Expr
	return nil
}

var directions = map[string]nodes.Direction{
	"":                 nodes.Asc,
	"asc":              nodes.Asc,
	"asc_nulls_first":  nodes.AscNullsFirst,
	"asc_nulls_last":   nodes.AscNullsLast,
	"desc":             nodes.Desc,
	"desc_nulls_first": nodes.DescNullsFirst,
	"desc_nulls_last":  nodes.DescNullsLast,
}

// Order is an ORDER BY term: an expression, or {expr: ..., dir: desc}.
type Order struct {
	Expr Expr
	Dir  nodes.Direction
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Order) UnmarshalYAML(n *yaml.Node) error {
	if !hasKey(n, "expr") {
		o.Dir = nodes.Asc
		return o.Expr.UnmarshalYAML(n)
	}
	var aux struct {
		Expr Expr   `yaml:"expr"`
		Dir  string `yaml:"dir"`
	}
	if err := n.Decode(&aux); err != nil {
		return err
	}
	dir, ok := directions[aux.Dir]
	if !ok {
		return nodeErrorf(n, "unknown direction %q", aux.Dir)
	}
	o.Expr, o.Dir = aux.Expr, dir
	return nil
}

// WindowDef is a window definition.
type WindowDef struct {
	PartitionBy []Expr  `yaml:"partition_by"`
	OrderBy     []Order `yaml:"order_by"`
	Frame       string  `yaml:"frame"`
}

func (w WindowDef) build() nodes.WindowDef {
	def := nodes.WindowDef{OrderBy: orders(w.OrderBy)}
	for _, e := range w.PartitionBy {
		def.PartitionBy = append(def.PartitionBy, e.Node)
	}
	if w.Frame != "" {
		def.Frame = nodes.Fragment(w.Frame)
	}
	return def
}

// Window is a named window of the WINDOW clause.
type Window struct {
	Name      string `yaml:"name"`
	WindowDef `yaml:",inline"`
}

var updateKinds = map[string]nodes.UpdateKind{
	"":     nodes.SetOp,
	"set":  nodes.SetOp,
	"inc":  nodes.IncOp,
	"push": nodes.PushOp,
	"pull": nodes.PullOp,
}

// Update is one update_all operation. Op defaults to set.
type Update struct {
	Op    string `yaml:"op"`
	Field string `yaml:"field"`
	Value Expr   `yaml:"value"`
}

// CTE is a WITH entry holding either a query or a raw fragment.
type CTE struct {
	Name     string `yaml:"name"`
	Query    *Query `yaml:"query"`
	Fragment string `yaml:"fragment"`
	Args     []Expr `yaml:"args"`
}

var combinationKinds = map[string]nodes.CombinationKind{
	"union":         nodes.Union,
	"union_all":     nodes.UnionAll,
	"except":        nodes.Except,
	"except_all":    nodes.ExceptAll,
	"intersect":     nodes.Intersect,
	"intersect_all": nodes.IntersectAll,
}

// Combination is a set operation with another query.
type Combination struct {
	Kind  string `yaml:"kind"`
	Query Query  `yaml:"query"`
}

var joinQuals = func() map[string]nodes.JoinQual {
	m := map[string]nodes.JoinQual{"": nodes.InnerJoin}
	for q := nodes.InnerJoin; q <= nodes.CrossLateralJoin; q++ {
		m[q.String()] = q
	}
	return m
}()

// Build converts the document into a query.
func (d *Query) Build() (*nodes.Query, error) {
	if d.From == nil {
		return nil, fmt.Errorf("query needs a from source")
	}
	from, err := d.From.build()
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	q := nodes.From(from)
	q.Prefix = d.Prefix

	for i, j := range d.Joins {
		qual, ok := joinQuals[j.Qual]
		if !ok {
			return nil, fmt.Errorf("join %d: unknown qualifier %q", i, j.Qual)
		}
		src, err := j.Source.build()
		if err != nil {
			return nil, fmt.Errorf("join %d: %w", i, err)
		}
		q.Sources = append(q.Sources, src)
		join := nodes.Join{Qual: qual, Source: len(q.Sources) - 1}
		if j.On != nil {
			join.On = j.On.Node
		}
		q.Joins = append(q.Joins, join)
	}

	if len(d.Select) > 0 {
		q.Select = &nodes.Select{}
		for _, f := range d.Select {
			q.Select.Fields = append(q.Select.Fields, nodes.SelectField{Expr: f.Expr.Node, Alias: f.Alias})
		}
	}
	if d.Distinct != nil && d.Distinct.Enabled {
		q.Distinct = &nodes.Distinct{On: orders(d.Distinct.On)}
	}
	q.Wheres = bools(d.Where)
	for _, e := range d.GroupBy {
		q.GroupBy = append(q.GroupBy, e.Node)
	}
	q.Havings = bools(d.Having)
	for _, w := range d.Windows {
		q.Windows = append(q.Windows, nodes.Window{Name: w.Name, Def: w.build()})
	}
	q.OrderBy = orders(d.OrderBy)
	if d.Limit != nil {
		q.Limit = d.Limit.Node
	}
	if d.Offset != nil {
		q.Offset = d.Offset.Node
	}
	q.Lock = d.Lock

	for _, u := range d.Updates {
		kind, ok := updateKinds[u.Op]
		if !ok {
			return nil, fmt.Errorf("update %q: unknown operation %q", u.Field, u.Op)
		}
		q.Updates = append(q.Updates, nodes.UpdateOp{Kind: kind, Field: u.Field, Value: u.Value.Node})
	}

	for _, c := range d.With {
		cte := nodes.CTE{Name: c.Name}
		switch {
		case c.Query != nil:
			sub, err := c.Query.Build()
			if err != nil {
				return nil, fmt.Errorf("with %q: %w", c.Name, err)
			}
			cte.Query = sub
		case c.Fragment != "":
			cte.Fragment = nodes.Frag(c.Fragment, exprArgs(c.Args)...)
		default:
			return nil, fmt.Errorf("with %q: needs a query or a fragment", c.Name)
		}
		q.CTEs = append(q.CTEs, cte)
	}
	q.RecursiveCTEs = d.Recursive

	for i, c := range d.Combinations {
		kind, ok := combinationKinds[c.Kind]
		if !ok {
			return nil, fmt.Errorf("combination %d: unknown kind %q", i, c.Kind)
		}
		sub, err := c.Query.Build()
		if err != nil {
			return nil, fmt.Errorf("combination %d: %w", i, err)
		}
		q.Combinations = append(q.Combinations, nodes.Combination{Kind: kind, Query: sub})
	}

	for _, p := range d.Params {
		q.Params = append(q.Params, p.V)
	}
	return q, nil
}

func orders(os []Order) []nodes.Order {
	var out []nodes.Order
	for _, o := range os {
		out = append(out, nodes.Order{Expr: o.Expr.Node, Dir: o.Dir})
	}
	return out
}

func bools(bs []Bool) []nodes.BoolExpr {
	var out []nodes.BoolExpr
	for _, b := range bs {
		out = append(out, nodes.BoolExpr{Op: b.Op, Expr: b.Expr.Node})
	}
	return out
}

func exprArgs(es []Expr) []any {
	out := make([]any, len(es))
	for i, e := range es {
		out[i] = e.Node
	}
	return out
}

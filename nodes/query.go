package nodes

// BoolOp combines a predicate with the predicates before it.
type BoolOp int

const (
	AndOp BoolOp = iota
	OrOp
)

// BoolExpr is one WHERE or HAVING predicate with its combinator.
type BoolExpr struct {
	Op   BoolOp
	Expr Expr
}

// Direction is an ORDER BY direction.
type Direction int

const (
	Asc Direction = iota
	AscNullsFirst
	AscNullsLast
	Desc
	DescNullsFirst
	DescNullsLast
)

// Order is one ORDER BY term.
type Order struct {
	Expr Expr
	Dir  Direction
}

// JoinQual is a join qualifier.
type JoinQual int

const (
	InnerJoin JoinQual = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
	InnerLateralJoin
	LeftLateralJoin
	CrossLateralJoin
)

// String returns the display name for this qualifier.
func (q JoinQual) String() string {
	switch q {
	case InnerJoin:
		return "inner"
	case LeftJoin:
		return "left"
	case RightJoin:
		return "right"
	case FullJoin:
		return "full"
	case CrossJoin:
		return "cross"
	case InnerLateralJoin:
		return "inner_lateral"
	case LeftLateralJoin:
		return "left_lateral"
	case CrossLateralJoin:
		return "cross_lateral"
	default:
		return "unknown"
	}
}

// Join joins the source at index Source. A nil On renders ON TRUE, except
// for cross joins which take no ON clause.
type Join struct {
	Qual   JoinQual
	Source int
	On     Expr
}

// SelectField is one projected expression, optionally aliased.
type SelectField struct {
	Expr  Expr
	Alias string
}

// Select is the projection of a query.
type Select struct {
	Fields []SelectField
}

// Fields builds a Select projecting each expression unaliased.
func Fields(es ...Expr) *Select {
	s := &Select{Fields: make([]SelectField, len(es))}
	for i, e := range es {
		s.Fields[i] = SelectField{Expr: e}
	}
	return s
}

// Distinct is a DISTINCT clause. An empty On renders plain DISTINCT.
type Distinct struct {
	On []Order
}

// UpdateKind is an update operation kind.
type UpdateKind int

const (
	SetOp UpdateKind = iota
	IncOp
	PushOp
	PullOp
)

// UpdateOp is one assignment of an UPDATE ... SET clause.
type UpdateOp struct {
	Kind  UpdateKind
	Field string
	Value Expr
}

// CTE is a common table expression. Exactly one of Query and Fragment is set.
type CTE struct {
	Name     string
	Query    *Query
	Fragment *FragmentNode
}

// CombinationKind is a set operation.
type CombinationKind int

const (
	Union CombinationKind = iota
	UnionAll
	Except
	ExceptAll
	Intersect
	IntersectAll
)

// Combination appends another query with a set operation.
type Combination struct {
	Kind  CombinationKind
	Query *Query
}

// Query is one statement to compile. Every ColumnNode inside it refers to a
// position in Sources; Sources[0] is the FROM source and joins refer to later
// positions. Params holds the values ParamNodes refer to.
type Query struct {
	Prefix        string
	Sources       []Source
	Select        *Select
	Distinct      *Distinct
	Joins         []Join
	Wheres        []BoolExpr
	GroupBy       []Expr
	Havings       []BoolExpr
	Windows       []Window
	OrderBy       []Order
	Limit         Expr
	Offset        Expr
	Lock          string
	Updates       []UpdateOp
	CTEs          []CTE
	RecursiveCTEs bool
	Combinations  []Combination
	Params        []any
}

// Clone returns a copy of q whose slices can be appended to without
// affecting q. Expressions are shared; they are never mutated.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	c := *q
	c.Sources = append([]Source(nil), q.Sources...)
	c.Joins = append([]Join(nil), q.Joins...)
	c.Wheres = append([]BoolExpr(nil), q.Wheres...)
	c.GroupBy = append([]Expr(nil), q.GroupBy...)
	c.Havings = append([]BoolExpr(nil), q.Havings...)
	c.Windows = append([]Window(nil), q.Windows...)
	c.OrderBy = append([]Order(nil), q.OrderBy...)
	c.Updates = append([]UpdateOp(nil), q.Updates...)
	c.CTEs = append([]CTE(nil), q.CTEs...)
	c.Combinations = append([]Combination(nil), q.Combinations...)
	c.Params = append([]any(nil), q.Params...)
	if q.Select != nil {
		c.Select = &Select{Fields: append([]SelectField(nil), q.Select.Fields...)}
	}
	if q.Distinct != nil {
		c.Distinct = &Distinct{On: append([]Order(nil), q.Distinct.On...)}
	}
	return &c
}

// From creates a query over the given source.
func From(src Source) *Query {
	return &Query{Sources: []Source{src}}
}

package nodes

// Predications provides comparison methods to types that embed it.
// The self field must be set to the embedding node so that comparisons
// reference the correct left-hand side.
type Predications struct {
	self Expr
}

// Eq creates an equality comparison: self = val.
func (p Predications) Eq(val any) *CallNode { return binary(OpEq, p.self, val) }

// NotEq creates an inequality comparison: self != val.
func (p Predications) NotEq(val any) *CallNode { return binary(OpNotEq, p.self, val) }

// Gt creates a greater-than comparison: self > val.
func (p Predications) Gt(val any) *CallNode { return binary(OpGt, p.self, val) }

// GtEq creates a greater-than-or-equal comparison: self >= val.
func (p Predications) GtEq(val any) *CallNode { return binary(OpGtEq, p.self, val) }

// Lt creates a less-than comparison: self < val.
func (p Predications) Lt(val any) *CallNode { return binary(OpLt, p.self, val) }

// LtEq creates a less-than-or-equal comparison: self <= val.
func (p Predications) LtEq(val any) *CallNode { return binary(OpLtEq, p.self, val) }

// Like creates a LIKE comparison: self LIKE val.
func (p Predications) Like(val any) *CallNode { return binary(OpLike, p.self, val) }

// ILike creates a case-insensitive ILIKE comparison.
func (p Predications) ILike(val any) *CallNode { return binary(OpILike, p.self, val) }

// In creates a membership test against a literal list: self IN (vals...).
func (p Predications) In(vals ...any) *InNode { return In(p.self, List(vals...)) }

// InExpr creates a membership test against an array-valued expression,
// usually a ParamNode bound to a slice: self = ANY(expr).
func (p Predications) InExpr(e Expr) *InNode { return In(p.self, e) }

// IsNil creates an IS NULL test.
func (p Predications) IsNil() *IsNilNode { return IsNil(p.self) }

// Asc orders by self ascending.
func (p Predications) Asc() Order { return Order{Expr: p.self, Dir: Asc} }

// Desc orders by self descending.
func (p Predications) Desc() Order { return Order{Expr: p.self, Dir: Desc} }

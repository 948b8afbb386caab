package nodes

import "github.com/bawdo/pgquery/sqlbuf"

// Operator names. A CallNode whose Name is one of these, with exactly two
// arguments, renders as an infix expression.
const (
	OpEq    = "=="
	OpNotEq = "!="
	OpLt    = "<"
	OpLtEq  = "<="
	OpGt    = ">"
	OpGtEq  = ">="
	OpAnd   = "and"
	OpOr    = "or"
	OpLike  = "like"
	OpILike = "ilike"
	OpPlus  = "+"
	OpMinus = "-"
	OpMul   = "*"
	OpDiv   = "/"
)

var binaryOperators = map[string]bool{
	OpEq: true, OpNotEq: true, OpLt: true, OpLtEq: true, OpGt: true, OpGtEq: true,
	OpAnd: true, OpOr: true, OpLike: true, OpILike: true,
	OpPlus: true, OpMinus: true, OpMul: true, OpDiv: true,
}

// IsBinaryOperator reports whether name is one of the operator names.
func IsBinaryOperator(name string) bool { return binaryOperators[name] }

// CallNode is a function call. Operators are calls too; see IsBinaryOperator.
type CallNode struct {
	Predications
	Combinable
	Name     string
	Args     []Expr
	Distinct bool // renders name(DISTINCT args)
}

func (n *CallNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitCall(n, b) }

// IsBinary reports whether n renders as an infix operator expression.
func (n *CallNode) IsBinary() bool {
	return IsBinaryOperator(n.Name) && len(n.Args) == 2
}

func newCall(name string, distinct bool, args []Expr) *CallNode {
	n := &CallNode{Name: name, Args: args, Distinct: distinct}
	n.Predications.self = n
	n.Combinable.self = n
	return n
}

// Call creates a function call; plain Go values are wrapped as literals.
func Call(name string, args ...any) *CallNode {
	return newCall(name, false, exprs(args))
}

// CallDistinct creates name(DISTINCT args...), e.g. count(DISTINCT x).
func CallDistinct(name string, args ...any) *CallNode {
	return newCall(name, true, exprs(args))
}

func binary(op string, left, right any) *CallNode {
	return newCall(op, false, []Expr{Literal(left), Literal(right)})
}

func Eq(left, right any) *CallNode    { return binary(OpEq, left, right) }
func NotEq(left, right any) *CallNode { return binary(OpNotEq, left, right) }
func Lt(left, right any) *CallNode    { return binary(OpLt, left, right) }
func LtEq(left, right any) *CallNode  { return binary(OpLtEq, left, right) }
func Gt(left, right any) *CallNode    { return binary(OpGt, left, right) }
func GtEq(left, right any) *CallNode  { return binary(OpGtEq, left, right) }
func Like(left, right any) *CallNode  { return binary(OpLike, left, right) }
func ILike(left, right any) *CallNode { return binary(OpILike, left, right) }
func Add(left, right any) *CallNode   { return binary(OpPlus, left, right) }
func Sub(left, right any) *CallNode   { return binary(OpMinus, left, right) }
func Mul(left, right any) *CallNode   { return binary(OpMul, left, right) }
func Div(left, right any) *CallNode   { return binary(OpDiv, left, right) }

// And combines left and right with AND.
func And(left, right Expr) *CallNode { return binary(OpAnd, left, right) }

// Or combines left and right with OR.
func Or(left, right Expr) *CallNode { return binary(OpOr, left, right) }

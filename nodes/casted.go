package nodes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/pgquery/sqlbuf"
)

// Type is a logical column or cast type. Name is a logical name such as
// "string", "id" or "utc_datetime", or a native PostgreSQL type name.
// Elem is set for arrays.
type Type struct {
	Name      string
	Elem      *Type
	Size      int
	Precision int
	Scale     int
}

// T returns the named scalar type.
func T(name string) Type { return Type{Name: name} }

// ArrayOf returns the array type with elements of t.
func ArrayOf(t Type) Type { return Type{Name: "array", Elem: &t} }

// IsArray reports whether t is an array type.
func (t Type) IsArray() bool { return t.Elem != nil }

func (t Type) String() string {
	if t.Elem != nil {
		return "{array, " + t.Elem.String() + "}"
	}
	switch {
	case t.Size > 0:
		return fmt.Sprintf("%s(%d)", t.Name, t.Size)
	case t.Precision > 0:
		return fmt.Sprintf("%s(%d,%d)", t.Name, t.Precision, t.Scale)
	}
	return t.Name
}

// ParseType parses a textual type such as "string", "varchar(40)",
// "decimal(10,2)" or "integer[]".
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Type{}, fmt.Errorf("empty type")
	}
	if inner, ok := strings.CutSuffix(s, "[]"); ok {
		elem, err := ParseType(inner)
		if err != nil {
			return Type{}, err
		}
		return ArrayOf(elem), nil
	}
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return T(s), nil
	}
	if !strings.HasSuffix(s, ")") {
		return Type{}, fmt.Errorf("malformed type %q", s)
	}
	t := Type{Name: strings.TrimSpace(s[:open])}
	args := strings.Split(s[open+1:len(s)-1], ",")
	nums := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil || n < 0 {
			return Type{}, fmt.Errorf("malformed type %q", s)
		}
		nums[i] = n
	}
	switch len(nums) {
	case 1:
		t.Size = nums[0]
	case 2:
		t.Precision, t.Scale = nums[0], nums[1]
	default:
		return Type{}, fmt.Errorf("malformed type %q", s)
	}
	return t, nil
}

// TaggedNode pairs a value with an explicit SQL type: value::type.
type TaggedNode struct {
	Predications
	Value Expr
	Type  Type
}

func (n *TaggedNode) Accept(v Visitor, b *sqlbuf.Buffer) error { return v.VisitTagged(n, b) }

// Tagged casts v to t.
func Tagged(v any, t Type) *TaggedNode {
	n := &TaggedNode{Value: Literal(v), Type: t}
	n.Predications.self = n
	return n
}

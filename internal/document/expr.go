package document

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/bawdo/pgquery/ddl"
	"github.com/bawdo/pgquery/nodes"
)

// Expr is an expression decoded from its YAML encoding. Plain scalars are
// literals; mappings are keyed by the expression kind, e.g.
//
//	{col: [0, title]}
//	{"==": [{col: [0, id]}, {param: 0}]}
//	{call: lower, args: [{col: [0, title]}]}
//	{fragment: "lower(?)", args: [{col: [0, title]}]}
type Expr struct {
	Node nodes.Expr
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Expr) UnmarshalYAML(n *yaml.Node) error {
	x, err := decodeExpr(n)
	if err != nil {
		return err
	}
	e.Node = x
	return nil
}

// Value is a bound value: a scalar, a sequence of values, a typed value
// ({decimal: "1.50"}, {uuid: "..."}), the {default: true} marker, or an
// expression.
type Value struct {
	V any
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	x, err := decodeValue(n)
	if err != nil {
		return err
	}
	v.V = x
	return nil
}

// heads are the mapping keys that name an expression kind.
var heads = map[string]bool{
	"col": true, "all": true, "param": true, "call": true, "in": true,
	"is_nil": true, "not": true, "fragment": true, "tagged": true,
	"subquery": true, "list": true, "tuple": true, "interval": true,
	"datetime_add": true, "date_add": true, "lit": true, "decimal": true,
	"uuid": true, "filter": true, "over": true,
}

func nodeErrorf(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", n.Line, fmt.Sprintf(format, args...))
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// mapping returns the key/value pairs of a mapping node in document order.
func mapping(n *yaml.Node) ([]string, map[string]*yaml.Node) {
	keys := make([]string, 0, len(n.Content)/2)
	vals := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i].Value
		keys = append(keys, k)
		vals[k] = resolve(n.Content[i+1])
	}
	return keys, vals
}

func hasKey(n *yaml.Node, key string) bool {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return false
	}
	_, vals := mapping(n)
	_, ok := vals[key]
	return ok
}

func sequence(n *yaml.Node, want int) ([]*yaml.Node, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, nodeErrorf(n, "expected a sequence")
	}
	if want >= 0 && len(n.Content) != want {
		return nil, nodeErrorf(n, "expected %d elements, got %d", want, len(n.Content))
	}
	items := make([]*yaml.Node, len(n.Content))
	for i, c := range n.Content {
		items[i] = resolve(c)
	}
	return items, nil
}

func decodeInt(n *yaml.Node) (int, error) {
	var i int
	if err := n.Decode(&i); err != nil {
		return 0, nodeErrorf(n, "expected an integer")
	}
	return i, nil
}

func decodeString(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", nodeErrorf(n, "expected a string")
	}
	return n.Value, nil
}

func decodeExprs(n *yaml.Node) ([]any, error) {
	items, err := sequence(n, -1)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, item := range items {
		e, err := decodeExpr(item)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func decodeExpr(n *yaml.Node) (nodes.Expr, error) {
	n = resolve(n)
	switch n.Kind {
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, nodeErrorf(n, "%v", err)
		}
		return nodes.Literal(v), nil
	case yaml.MappingNode:
		return decodeExprMap(n)
	default:
		return nil, nodeErrorf(n, "expected an expression; write sequences as {list: [...]}")
	}
}

func decodeExprMap(n *yaml.Node) (nodes.Expr, error) {
	keys, vals := mapping(n)
	head := ""
	for _, k := range keys {
		if heads[k] || nodes.IsBinaryOperator(k) {
			if head != "" {
				return nil, nodeErrorf(n, "expression has both %q and %q", head, k)
			}
			head = k
		}
	}
	if head == "" {
		return nil, nodeErrorf(n, "unknown expression with keys %v", keys)
	}
	v := vals[head]

	if nodes.IsBinaryOperator(head) {
		items, err := sequence(v, 2)
		if err != nil {
			return nil, err
		}
		left, err := decodeExpr(items[0])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(items[1])
		if err != nil {
			return nil, err
		}
		return nodes.Call(head, left, right), nil
	}

	switch head {
	case "col":
		items, err := sequence(v, 2)
		if err != nil {
			return nil, err
		}
		ix, err := decodeInt(items[0])
		if err != nil {
			return nil, err
		}
		field, err := decodeString(items[1])
		if err != nil {
			return nil, err
		}
		return nodes.Col(ix, field), nil

	case "all":
		ix, err := decodeInt(v)
		if err != nil {
			return nil, err
		}
		return nodes.AllFields(ix), nil

	case "param":
		ix, err := decodeInt(v)
		if err != nil {
			return nil, err
		}
		return nodes.Param(ix), nil

	case "call":
		name, err := decodeString(v)
		if err != nil {
			return nil, err
		}
		var args []any
		if a, ok := vals["args"]; ok {
			if args, err = decodeExprs(a); err != nil {
				return nil, err
			}
		}
		if d, ok := vals["distinct"]; ok {
			var distinct bool
			if err := d.Decode(&distinct); err != nil {
				return nil, nodeErrorf(d, "distinct must be a boolean")
			}
			if distinct {
				return nodes.CallDistinct(name, args...), nil
			}
		}
		return nodes.Call(name, args...), nil

	case "in":
		items, err := sequence(v, 2)
		if err != nil {
			return nil, err
		}
		left, err := decodeExpr(items[0])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(items[1])
		if err != nil {
			return nil, err
		}
		return nodes.In(left, right), nil

	case "is_nil":
		e, err := decodeExpr(v)
		if err != nil {
			return nil, err
		}
		return nodes.IsNil(e), nil

	case "not":
		e, err := decodeExpr(v)
		if err != nil {
			return nil, err
		}
		return nodes.Not(e), nil

	case "fragment":
		format, err := decodeString(v)
		if err != nil {
			return nil, err
		}
		var args []any
		if a, ok := vals["args"]; ok {
			if args, err = decodeExprs(a); err != nil {
				return nil, err
			}
		}
		return nodes.Frag(format, args...), nil

	case "tagged":
		e, err := decodeExpr(v)
		if err != nil {
			return nil, err
		}
		tn, ok := vals["type"]
		if !ok {
			return nil, nodeErrorf(n, "tagged expression needs a type")
		}
		t, err := nodes.ParseType(tn.Value)
		if err != nil {
			return nil, nodeErrorf(tn, "%v", err)
		}
		return nodes.Tagged(e, t), nil

	case "subquery":
		var doc Query
		if err := v.Decode(&doc); err != nil {
			return nil, err
		}
		q, err := doc.Build()
		if err != nil {
			return nil, err
		}
		return nodes.Subquery(q), nil

	case "list", "tuple":
		items, err := decodeExprs(v)
		if err != nil {
			return nil, err
		}
		if head == "list" {
			return nodes.List(items...), nil
		}
		return nodes.Tuple(items...), nil

	case "interval":
		items, err := sequence(v, 2)
		if err != nil {
			return nil, err
		}
		count, unit, err := countAndUnit(items[0], items[1])
		if err != nil {
			return nil, err
		}
		return nodes.Interval(count, unit), nil

	case "datetime_add", "date_add":
		items, err := sequence(v, 3)
		if err != nil {
			return nil, err
		}
		base, err := decodeExpr(items[0])
		if err != nil {
			return nil, err
		}
		count, unit, err := countAndUnit(items[1], items[2])
		if err != nil {
			return nil, err
		}
		if head == "date_add" {
			return nodes.DateAdd(base, count, unit), nil
		}
		return nodes.DatetimeAdd(base, count, unit), nil

	case "lit", "decimal", "uuid":
		if len(keys) != 1 {
			return nil, nodeErrorf(n, "%s takes no other keys", head)
		}
		val, err := decodeValue(n)
		if err != nil {
			return nil, err
		}
		return nodes.Literal(val), nil

	case "filter":
		agg, err := decodeExpr(v)
		if err != nil {
			return nil, err
		}
		w, ok := vals["where"]
		if !ok {
			return nil, nodeErrorf(n, "filter needs a where condition")
		}
		cond, err := decodeExpr(w)
		if err != nil {
			return nil, err
		}
		return nodes.Filter(agg, cond), nil

	case "over":
		e, err := decodeExpr(v)
		if err != nil {
			return nil, err
		}
		w, ok := vals["window"]
		if !ok {
			return nil, nodeErrorf(n, "over needs a window")
		}
		if w.Kind == yaml.ScalarNode {
			return nodes.Over(e, w.Value), nil
		}
		var def WindowDef
		if err := w.Decode(&def); err != nil {
			return nil, err
		}
		return nodes.OverDef(e, def.build()), nil
	}
	return nil, nodeErrorf(n, "unknown expression %q", head)
}

func countAndUnit(countNode, unitNode *yaml.Node) (any, string, error) {
	count, err := decodeExpr(countNode)
	if err != nil {
		return nil, "", err
	}
	unit, err := decodeString(unitNode)
	if err != nil {
		return nil, "", err
	}
	return count, unit, nil
}

func decodeValue(n *yaml.Node) (any, error) {
	n = resolve(n)
	switch n.Kind {
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, nodeErrorf(n, "%v", err)
		}
		return v, nil
	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := decodeValue(c)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.MappingNode:
		_, vals := mapping(n)
		if len(vals) == 1 {
			for k, v := range vals {
				switch k {
				case "lit":
					return decodeValue(v)
				case "decimal":
					d, err := decimal.NewFromString(v.Value)
					if err != nil {
						return nil, nodeErrorf(v, "invalid decimal %q", v.Value)
					}
					return d, nil
				case "uuid":
					u, err := uuid.Parse(v.Value)
					if err != nil {
						return nil, nodeErrorf(v, "invalid uuid %q", v.Value)
					}
					return u, nil
				case "default":
					return nodes.Default, nil
				}
			}
		}
		return decodeExprMap(n)
	}
	return nil, nodeErrorf(n, "unexpected node")
}

// decodeColumnDefault decodes a column default: absent means none, null
// means DEFAULT NULL and {raw: "now()"} is emitted verbatim.
func decodeColumnDefault(n *yaml.Node) (any, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	n = resolve(n)
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return ddl.DefaultNull, nil
	}
	if n.Kind == yaml.MappingNode {
		_, vals := mapping(n)
		if raw, ok := vals["raw"]; ok && len(vals) == 1 {
			return ddl.Raw(raw.Value), nil
		}
	}
	return decodeValue(n)
}

// Package plugins defines the Transformer interface for query middleware.
package plugins

import "github.com/bawdo/pgquery/nodes"

// Transformer rewrites a query before it is compiled. Managers hand every
// transformer a clone, so implementations may modify the query in place
// and return it.
type Transformer interface {
	TransformQuery(q *nodes.Query) (*nodes.Query, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(q *nodes.Query) (*nodes.Query, error)

func (f TransformerFunc) TransformQuery(q *nodes.Query) (*nodes.Query, error) {
	return f(q)
}

// Apply runs transformers in order on a clone of q. q itself is never
// modified.
func Apply(q *nodes.Query, transformers ...Transformer) (*nodes.Query, error) {
	out := q.Clone()
	for _, t := range transformers {
		var err error
		out, err = t.TransformQuery(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

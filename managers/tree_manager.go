package managers

import (
	"github.com/bawdo/pgquery/nodes"
	"github.com/bawdo/pgquery/plugins"
)

// Compiler renders queries and single-row statements to SQL. It is
// implemented by *visitors.PostgresVisitor.
type Compiler interface {
	CompileSelect(q *nodes.Query) (string, []any, error)
	CompileUpdateAll(q *nodes.Query) (string, []any, error)
	CompileDeleteAll(q *nodes.Query) (string, []any, error)
	CompileInsert(prefix, table string, header []string, rows [][]any, onConflict *nodes.OnConflict, returning []string) (string, []any, error)
	CompileUpdate(prefix, table string, fields, filters []nodes.FieldValue, returning []string) (string, []any, error)
	CompileDelete(prefix, table string, filters []nodes.FieldValue, returning []string) (string, []any, error)
}

// treeManager holds the transformer pipeline of a manager.
type treeManager struct {
	transformers []plugins.Transformer
}

// addTransformer appends a transformer plugin to the pipeline.
func (tm *treeManager) addTransformer(t plugins.Transformer) {
	tm.transformers = append(tm.transformers, t)
}

// Transformers returns the registered transformer pipeline.
func (tm *treeManager) Transformers() []plugins.Transformer {
	return tm.transformers
}

// transform runs the pipeline on a clone of q.
func (tm *treeManager) transform(q *nodes.Query) (*nodes.Query, error) {
	return plugins.Apply(q, tm.transformers...)
}

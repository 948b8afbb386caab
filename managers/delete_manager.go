package managers

import "github.com/bawdo/pgquery/nodes"

// DeleteManager provides a fluent API for single-table DELETE statements
// filtered by equality.
type DeleteManager struct {
	prefix    string
	table     string
	filters   []nodes.FieldValue
	returning []string
}

// NewDeleteManager creates a new DeleteManager targeting the given table.
func NewDeleteManager(table string) *DeleteManager {
	return &DeleteManager{table: table}
}

// Prefix sets the schema of the target table.
func (m *DeleteManager) Prefix(schema string) *DeleteManager {
	m.prefix = schema
	return m
}

// Where adds an equality filter; a nil value filters on IS NULL.
func (m *DeleteManager) Where(field string, val any) *DeleteManager {
	m.filters = append(m.filters, nodes.FieldValue{Name: field, Value: val})
	return m
}

// Returning sets the RETURNING clause columns.
func (m *DeleteManager) Returning(cols ...string) *DeleteManager {
	m.returning = cols
	return m
}

// ToSQL generates the DELETE statement.
func (m *DeleteManager) ToSQL(c Compiler) (string, []any, error) {
	return c.CompileDelete(m.prefix, m.table, m.filters, m.returning)
}

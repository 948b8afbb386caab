package managers

import "github.com/bawdo/pgquery/nodes"

// UpdateManager provides a fluent API for single-table UPDATE statements
// filtered by equality.
type UpdateManager struct {
	prefix    string
	table     string
	fields    []nodes.FieldValue
	filters   []nodes.FieldValue
	returning []string
}

// NewUpdateManager creates a new UpdateManager targeting the given table.
func NewUpdateManager(table string) *UpdateManager {
	return &UpdateManager{table: table}
}

// Prefix sets the schema of the target table.
func (m *UpdateManager) Prefix(schema string) *UpdateManager {
	m.prefix = schema
	return m
}

// Set adds a column assignment to the SET clause. val can be a raw Go
// value, nil for NULL, or an expression.
func (m *UpdateManager) Set(field string, val any) *UpdateManager {
	m.fields = append(m.fields, nodes.FieldValue{Name: field, Value: val})
	return m
}

// Where adds an equality filter; a nil value filters on IS NULL.
func (m *UpdateManager) Where(field string, val any) *UpdateManager {
	m.filters = append(m.filters, nodes.FieldValue{Name: field, Value: val})
	return m
}

// Returning sets the RETURNING clause columns.
func (m *UpdateManager) Returning(cols ...string) *UpdateManager {
	m.returning = cols
	return m
}

// ToSQL generates the UPDATE statement.
func (m *UpdateManager) ToSQL(c Compiler) (string, []any, error) {
	return c.CompileUpdate(m.prefix, m.table, m.fields, m.filters, m.returning)
}

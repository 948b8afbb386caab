package managers

import (
	"slices"

	"github.com/bawdo/pgquery/nodes"
)

// InsertManager provides a fluent API for building INSERT statements.
type InsertManager struct {
	prefix    string
	table     string
	columns   []string
	rows      [][]any
	returning []string

	conflict *nodes.OnConflict
	upsert   *SelectManager
}

// NewInsertManager creates a new InsertManager targeting the given table.
func NewInsertManager(table string) *InsertManager {
	return &InsertManager{table: table}
}

// Prefix sets the schema of the target table.
func (m *InsertManager) Prefix(schema string) *InsertManager {
	m.prefix = schema
	return m
}

// Columns sets the column list for the INSERT statement.
func (m *InsertManager) Columns(cols ...string) *InsertManager {
	m.columns = cols
	return m
}

// Values appends a row of values. Each call adds one row; plain Go values
// are bound as parameters, nil renders NULL, nodes.Default renders DEFAULT
// and a row shorter than the column list is padded with DEFAULT. Calling
// Values with no arguments adds a row of defaults.
func (m *InsertManager) Values(vals ...any) *InsertManager {
	m.rows = append(m.rows, vals)
	return m
}

// Returning sets the RETURNING clause columns.
func (m *InsertManager) Returning(cols ...string) *InsertManager {
	m.returning = cols
	return m
}

// OnConflict begins an ON CONFLICT clause targeting the given columns.
// Returns an OnConflictContext for specifying the action.
func (m *InsertManager) OnConflict(target ...string) *OnConflictContext {
	m.conflict = &nodes.OnConflict{Target: target}
	return &OnConflictContext{manager: m}
}

// OnConstraint begins an ON CONFLICT ON CONSTRAINT clause.
func (m *InsertManager) OnConstraint(name string) *OnConflictContext {
	m.conflict = &nodes.OnConflict{Constraint: name}
	return &OnConflictContext{manager: m}
}

// ToSQL generates the INSERT statement.
func (m *InsertManager) ToSQL(c Compiler) (string, []any, error) {
	oc := m.conflict
	if oc != nil && m.upsert != nil {
		q, err := m.upsert.Build()
		if err != nil {
			return "", nil, err
		}
		copied := *oc
		copied.Query = q
		oc = &copied
	}
	rows := m.rows
	if len(rows) == 0 {
		rows = [][]any{{}}
	}
	return c.CompileInsert(m.prefix, m.table, m.columns, rows, oc, m.returning)
}

// OnConflictContext guides ON CONFLICT clause construction.
type OnConflictContext struct {
	manager *InsertManager
}

// DoNothing sets the action to DO NOTHING and returns the InsertManager.
func (c *OnConflictContext) DoNothing() *InsertManager {
	c.manager.conflict.Action = nodes.ConflictNothing
	return c.manager
}

// Replace overwrites the given fields with the values of the rejected row.
func (c *OnConflictContext) Replace(fields ...string) *InsertManager {
	c.manager.conflict.Action = nodes.ConflictReplace
	c.manager.conflict.Replace = fields
	return c.manager
}

// ReplaceAll overwrites every inserted column except the conflict target.
func (c *OnConflictContext) ReplaceAll() *InsertManager {
	oc := c.manager.conflict
	var fields []string
	for _, col := range c.manager.columns {
		if !slices.Contains(oc.Target, col) {
			fields = append(fields, col)
		}
	}
	return c.Replace(fields...)
}

// DoUpdate runs the update operations recorded on update, which must
// select from the inserted table. Its WHERE becomes the condition of the
// DO UPDATE clause.
func (c *OnConflictContext) DoUpdate(update *SelectManager) *InsertManager {
	c.manager.conflict.Action = nodes.ConflictUpdate
	c.manager.upsert = update
	return c.manager
}

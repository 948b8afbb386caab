package nodes

// FieldValue is a named value, used for the SET list and the filters of
// single-row UPDATE and DELETE statements.
type FieldValue struct {
	Name  string
	Value any
}

// ConflictAction selects the ON CONFLICT behaviour of an INSERT.
type ConflictAction int

const (
	ConflictRaise ConflictAction = iota
	ConflictNothing
	ConflictReplace
	ConflictUpdate
)

// OnConflict configures an upsert. Target lists conflict columns; Constraint
// names a constraint instead. Replace lists the fields set from EXCLUDED for
// ConflictReplace, and Query holds the update query for ConflictUpdate.
type OnConflict struct {
	Action     ConflictAction
	Target     []string
	Constraint string
	Replace    []string
	Query      *Query
}

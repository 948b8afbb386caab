package nodes

// SourceKind distinguishes the variants of Source.
type SourceKind int

const (
	TableSource SourceKind = iota
	FragmentSourceKind
	SubquerySourceKind
)

// Source is one contributor to a query's FROM/JOIN chain. Fields lists the
// known field names; a nil Fields means no field metadata is available.
type Source struct {
	Kind     SourceKind
	Table    string
	Prefix   string // schema; overrides the query prefix when set
	Fields   []string
	Fragment *FragmentNode
	Subquery *Query
}

// Table creates a table source with optional known fields.
func Table(name string, fields ...string) Source {
	return Source{Kind: TableSource, Table: name, Fields: fields}
}

// SchemaTable creates a table source qualified with its own schema.
func SchemaTable(prefix, name string, fields ...string) Source {
	return Source{Kind: TableSource, Table: name, Prefix: prefix, Fields: fields}
}

// FragmentSource creates a source from raw SQL.
func FragmentSource(f *FragmentNode) Source {
	return Source{Kind: FragmentSourceKind, Fragment: f}
}

// SubquerySource creates a source from a nested query projecting fields.
func SubquerySource(q *Query, fields ...string) Source {
	return Source{Kind: SubquerySourceKind, Subquery: q, Fields: fields}
}

package plugins

import "github.com/bawdo/pgquery/nodes"

// TableRef is a table source of a query. Source is its position in
// Query.Sources, used to build column references; Name is the table name
// used for matching. Join is the index into Query.Joins that brings the
// table in, or -1 for the FROM source.
type TableRef struct {
	Source int
	Name   string
	Join   int
}

// CollectTables returns the FROM table and every joined table of q.
// Fragment and subquery sources are skipped.
func CollectTables(q *nodes.Query) []TableRef {
	var refs []TableRef
	if len(q.Sources) > 0 && q.Sources[0].Kind == nodes.TableSource {
		refs = append(refs, TableRef{Source: 0, Name: q.Sources[0].Table, Join: -1})
	}
	for i, j := range q.Joins {
		if j.Source <= 0 || j.Source >= len(q.Sources) {
			continue
		}
		if src := q.Sources[j.Source]; src.Kind == nodes.TableSource {
			refs = append(refs, TableRef{Source: j.Source, Name: src.Table, Join: i})
		}
	}
	return refs
}

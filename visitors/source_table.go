package visitors

import (
	"strconv"

	"github.com/bawdo/pgquery/nodes"
)

// SourceRef is a resolved query source. Name is empty for fragment and
// subquery sources, whose SQL has to be rendered inline.
type SourceRef struct {
	Kind   nodes.SourceKind
	Name   string
	Alias  string
	Fields []string
	Source *nodes.Source
}

// HasFields reports whether the source carries a field list.
func (r SourceRef) HasFields() bool { return len(r.Fields) > 0 }

// SourceTable maps each source position of a query to its quoted name and
// alias. It is built once per compile and never modified afterwards.
type SourceTable struct {
	refs        []SourceRef
	aliasPrefix string
}

// NewSourceTable resolves sources in order. Aliases are aliasPrefix followed
// by a letter derived from the source and its position, so they are unique
// within one query and independent of any other compile.
func NewSourceTable(d Dialect, sources []nodes.Source, prefix, aliasPrefix string) (*SourceTable, error) {
	st := &SourceTable{refs: make([]SourceRef, len(sources)), aliasPrefix: aliasPrefix}
	for i := range sources {
		src := &sources[i]
		ref := SourceRef{Kind: src.Kind, Fields: src.Fields, Source: src}
		switch src.Kind {
		case nodes.TableSource:
			p := src.Prefix
			if p == "" {
				p = prefix
			}
			name, err := d.QuoteTable(p, src.Table)
			if err != nil {
				return nil, malformed("source %d: %v", i, err)
			}
			ref.Name = name
			ref.Alias = sourceAlias(aliasPrefix, aliasLetter(src.Table), i)
		case nodes.FragmentSourceKind:
			ref.Alias = sourceAlias(aliasPrefix, 'f', i)
		case nodes.SubquerySourceKind:
			ref.Alias = sourceAlias(aliasPrefix, 's', i)
		default:
			return nil, malformed("source %d: unknown source kind %d", i, src.Kind)
		}
		st.refs[i] = ref
	}
	return st, nil
}

// aliasLetter is the first letter of name, or t when name does not start
// with an ASCII letter.
func aliasLetter(name string) byte {
	if name != "" {
		c := name[0]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return c
		}
	}
	return 't'
}

func sourceAlias(prefix string, letter byte, ix int) string {
	return prefix + string(letter) + strconv.Itoa(ix)
}

// Resolve returns the source at position ix.
func (st *SourceTable) Resolve(ix int) (SourceRef, error) {
	if ix < 0 || ix >= len(st.refs) {
		return SourceRef{}, malformed("source index %d out of range (query has %d sources)", ix, len(st.refs))
	}
	return st.refs[ix], nil
}

// Len returns the number of sources.
func (st *SourceTable) Len() int { return len(st.refs) }

// AliasPrefix returns the prefix applied to every alias of this table.
// Subqueries are compiled with this prefix plus "s".
func (st *SourceTable) AliasPrefix() string { return st.aliasPrefix }

// Package document reads query and migration documents written in YAML and
// compiles them with a visitor.
package document

import (
	"fmt"

	"github.com/bawdo/pgquery/managers"
	"github.com/bawdo/pgquery/nodes"
	"github.com/bawdo/pgquery/plugins"
)

// Kind names the entry point a Statement compiles with.
type Kind string

const (
	KindSelect    Kind = "select"
	KindUpdateAll Kind = "update_all"
	KindDeleteAll Kind = "delete_all"
	KindInsert    Kind = "insert"
	KindUpdate    Kind = "update"
	KindDelete    Kind = "delete"
)

// Statement is a query document. Query kinds use the embedded Query; the
// single-row kinds use Table and the fields below it.
type Statement struct {
	Kind  Kind `yaml:"statement"`
	Query `yaml:",inline"`

	Table      string      `yaml:"table"`
	Header     []string    `yaml:"header"`
	Rows       [][]Value   `yaml:"rows"`
	OnConflict *OnConflict `yaml:"on_conflict"`
	Set        []Field     `yaml:"set"`
	Filters    []Field     `yaml:"filters"`
	Returning  []string    `yaml:"returning"`
}

// Field is a named value of a single-row UPDATE or DELETE.
type Field struct {
	Name  string `yaml:"name"`
	Value Value  `yaml:"value"`
}

var conflictActions = map[string]nodes.ConflictAction{
	"":        nodes.ConflictRaise,
	"raise":   nodes.ConflictRaise,
	"nothing": nodes.ConflictNothing,
	"replace": nodes.ConflictReplace,
	"update":  nodes.ConflictUpdate,
}

// OnConflict is the upsert clause of an insert document. Query holds the
// update query for the update action.
type OnConflict struct {
	Action     string   `yaml:"action"`
	Target     []string `yaml:"target"`
	Constraint string   `yaml:"constraint"`
	Replace    []string `yaml:"replace"`
	Query      *Query   `yaml:"query"`
}

func (o *OnConflict) build() (*nodes.OnConflict, error) {
	action, ok := conflictActions[o.Action]
	if !ok {
		return nil, fmt.Errorf("on_conflict: unknown action %q", o.Action)
	}
	oc := &nodes.OnConflict{
		Action:     action,
		Target:     o.Target,
		Constraint: o.Constraint,
		Replace:    o.Replace,
	}
	if o.Query != nil {
		q, err := o.Query.Build()
		if err != nil {
			return nil, fmt.Errorf("on_conflict: %w", err)
		}
		oc.Query = q
	}
	return oc, nil
}

func fieldValues(fs []Field) []nodes.FieldValue {
	out := make([]nodes.FieldValue, len(fs))
	for i, f := range fs {
		out[i] = nodes.FieldValue{Name: f.Name, Value: f.Value.V}
	}
	return out
}

// Compile renders the statement. Transformers apply to the query kinds
// only.
func (s *Statement) Compile(c managers.Compiler, transformers ...plugins.Transformer) (string, []any, error) {
	switch s.Kind {
	case KindSelect, KindUpdateAll, KindDeleteAll:
		q, err := s.Query.Build()
		if err != nil {
			return "", nil, err
		}
		if q, err = plugins.Apply(q, transformers...); err != nil {
			return "", nil, err
		}
		switch s.Kind {
		case KindUpdateAll:
			return c.CompileUpdateAll(q)
		case KindDeleteAll:
			return c.CompileDeleteAll(q)
		}
		return c.CompileSelect(q)

	case KindInsert:
		rows := make([][]any, len(s.Rows))
		for i, r := range s.Rows {
			rows[i] = make([]any, len(r))
			for j, v := range r {
				rows[i][j] = v.V
			}
		}
		if len(rows) == 0 {
			rows = [][]any{{}}
		}
		var oc *nodes.OnConflict
		if s.OnConflict != nil {
			var err error
			if oc, err = s.OnConflict.build(); err != nil {
				return "", nil, err
			}
		}
		return c.CompileInsert(s.Prefix, s.Table, s.Header, rows, oc, s.Returning)

	case KindUpdate:
		return c.CompileUpdate(s.Prefix, s.Table, fieldValues(s.Set), fieldValues(s.Filters), s.Returning)

	case KindDelete:
		return c.CompileDelete(s.Prefix, s.Table, fieldValues(s.Filters), s.Returning)
	}
	return "", nil, fmt.Errorf("unknown statement kind %q", s.Kind)
}

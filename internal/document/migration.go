package document

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/bawdo/pgquery/ddl"
	"github.com/bawdo/pgquery/nodes"
)

// DDLCompiler renders schema change operations.
type DDLCompiler interface {
	CompileDDL(op ddl.Operation) ([]string, error)
}

// Migration is a migration document: an ordered list of operations, each a
// mapping with a single key naming the operation.
type Migration struct {
	Operations []Operation `yaml:"operations"`
}

// Compile renders every operation in order. With reverse set the operations
// are undone instead, last first.
func (m *Migration) Compile(c DDLCompiler, reverse bool) ([]string, error) {
	ops := make([]ddl.Operation, len(m.Operations))
	for i, o := range m.Operations {
		ops[i] = o.Op
	}
	if reverse {
		slices.Reverse(ops)
		for i, op := range ops {
			r, err := ddl.Reverse(op)
			if err != nil {
				return nil, fmt.Errorf("operation %d: %w", len(ops)-i, err)
			}
			ops[i] = r
		}
	}

	var stmts []string
	for i, op := range ops {
		s, err := c.CompileDDL(op)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i+1, err)
		}
		stmts = append(stmts, s...)
	}
	return stmts, nil
}

// Operation wraps one decoded ddl.Operation.
type Operation struct {
	Op ddl.Operation
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Operation) UnmarshalYAML(n *yaml.Node) error {
	n = resolve(n)
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return nodeErrorf(n, "an operation is a mapping with exactly one key")
	}
	name, body := n.Content[0].Value, resolve(n.Content[1])

	var err error
	switch name {
	case "create_table":
		var d createTableDoc
		if err = body.Decode(&d); err == nil {
			o.Op, err = d.build()
		}
	case "alter_table":
		var d alterTableDoc
		if err = body.Decode(&d); err == nil {
			o.Op, err = d.build()
		}
	case "drop_table":
		var d dropTableDoc
		if err = body.Decode(&d); err == nil {
			o.Op = ddl.DropTable{Table: d.table(), IfExists: d.IfExists, Cascade: d.Cascade}
		}
	case "create_index":
		var d indexDoc
		if err = body.Decode(&d); err == nil {
			o.Op = ddl.CreateIndex{Index: d.index(), IfNotExists: d.IfNotExists}
		}
	case "drop_index":
		var d indexDoc
		if err = body.Decode(&d); err == nil {
			o.Op = ddl.DropIndex{Index: d.index(), IfExists: d.IfExists, Cascade: d.Cascade}
		}
	case "create_constraint":
		var d constraintDoc
		if err = body.Decode(&d); err == nil {
			o.Op = ddl.CreateConstraint{Constraint: d.constraint()}
		}
	case "drop_constraint":
		var d constraintDoc
		if err = body.Decode(&d); err == nil {
			o.Op = ddl.DropConstraint{Constraint: d.constraint(), IfExists: d.IfExists}
		}
	case "rename_table":
		var d renameDoc
		if err = body.Decode(&d); err == nil {
			o.Op = ddl.RenameTable{Prefix: d.Prefix, From: d.From, To: d.To}
		}
	case "rename_column":
		var d renameDoc
		if err = body.Decode(&d); err == nil {
			o.Op = ddl.RenameColumn{Table: d.Table, Prefix: d.Prefix, From: d.From, To: d.To}
		}
	case "comment":
		var d commentDoc
		if err = body.Decode(&d); err == nil {
			o.Op, err = d.build()
		}
	case "execute":
		var d struct {
			Up   string `yaml:"up"`
			Down string `yaml:"down"`
		}
		if err = body.Decode(&d); err == nil {
			o.Op = ddl.Execute{Up: d.Up, Down: d.Down}
		}
	default:
		return nodeErrorf(n, "unknown operation %q", name)
	}
	if err != nil {
		return nodeErrorf(n, "%s: %v", name, err)
	}
	return nil
}

type tableDoc struct {
	Name    string `yaml:"name"`
	Prefix  string `yaml:"prefix"`
	Comment string `yaml:"comment"`
	Options string `yaml:"options"`
}

func (t tableDoc) table() ddl.Table {
	return ddl.Table{Name: t.Name, Prefix: t.Prefix, Comment: t.Comment, Options: t.Options}
}

type referenceDoc struct {
	Table    string `yaml:"table"`
	Column   string `yaml:"column"`
	Prefix   string `yaml:"prefix"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	OnDelete string `yaml:"on_delete"`
	OnUpdate string `yaml:"on_update"`
}

var actions = map[string]ddl.Action{
	"":           ddl.NoAction,
	"nothing":    ddl.NoAction,
	"no_action":  ddl.NoAction,
	"set_null":   ddl.SetNull,
	"nilify_all": ddl.SetNull,
	"cascade":    ddl.Cascade,
	"delete_all": ddl.Cascade,
	"update_all": ddl.Cascade,
	"restrict":   ddl.Restrict,
}

func (r *referenceDoc) build() (*ddl.Reference, error) {
	ref := &ddl.Reference{Table: r.Table, Column: r.Column, Prefix: r.Prefix, Name: r.Name}
	if r.Type != "" {
		t, err := nodes.ParseType(r.Type)
		if err != nil {
			return nil, err
		}
		ref.Type = t
	}
	var ok bool
	if ref.OnDelete, ok = actions[r.OnDelete]; !ok {
		return nil, fmt.Errorf("unknown on_delete action %q", r.OnDelete)
	}
	if ref.OnUpdate, ok = actions[r.OnUpdate]; !ok {
		return nil, fmt.Errorf("unknown on_update action %q", r.OnUpdate)
	}
	return ref, nil
}

type columnDoc struct {
	Name       string        `yaml:"name"`
	Type       string        `yaml:"type"`
	References *referenceDoc `yaml:"references"`
	Null       *bool         `yaml:"null"`
	Default    yaml.Node     `yaml:"default"`
	PrimaryKey bool          `yaml:"primary_key"`
	Comment    string        `yaml:"comment"`
}

func (c *columnDoc) build() (ddl.Column, error) {
	col := ddl.Column{Name: c.Name, PrimaryKey: c.PrimaryKey, Comment: c.Comment}
	if c.Type != "" {
		t, err := nodes.ParseType(c.Type)
		if err != nil {
			return col, fmt.Errorf("column %q: %w", c.Name, err)
		}
		col.Type = t
	}
	if c.References != nil {
		ref, err := c.References.build()
		if err != nil {
			return col, fmt.Errorf("column %q: %w", c.Name, err)
		}
		col.Reference = ref
	}
	if c.Null != nil {
		if *c.Null {
			col.Null = ddl.Nullable
		} else {
			col.Null = ddl.NotNull
		}
	}
	def, err := decodeColumnDefault(&c.Default)
	if err != nil {
		return col, fmt.Errorf("column %q: %w", c.Name, err)
	}
	col.Default = def
	return col, nil
}

type createTableDoc struct {
	tableDoc    `yaml:",inline"`
	IfNotExists bool        `yaml:"if_not_exists"`
	Columns     []columnDoc `yaml:"columns"`
}

func (d *createTableDoc) build() (ddl.Operation, error) {
	op := ddl.CreateTable{Table: d.table(), IfNotExists: d.IfNotExists}
	for i := range d.Columns {
		col, err := d.Columns[i].build()
		if err != nil {
			return nil, err
		}
		op.Columns = append(op.Columns, col)
	}
	return op, nil
}

type changeDoc struct {
	Add    *columnDoc `yaml:"add"`
	Modify *columnDoc `yaml:"modify"`
	Remove *columnDoc `yaml:"remove"`
	From   *columnDoc `yaml:"from"`
}

type alterTableDoc struct {
	tableDoc `yaml:",inline"`
	Changes  []changeDoc `yaml:"changes"`
}

func (d *alterTableDoc) build() (ddl.Operation, error) {
	op := ddl.AlterTable{Table: d.table()}
	for i, c := range d.Changes {
		var ch ddl.Change
		var doc *columnDoc
		switch {
		case c.Add != nil:
			ch.Kind, doc = ddl.AddColumn, c.Add
		case c.Modify != nil:
			ch.Kind, doc = ddl.ModifyColumn, c.Modify
		case c.Remove != nil:
			ch.Kind, doc = ddl.RemoveColumn, c.Remove
		default:
			return nil, fmt.Errorf("change %d: needs add, modify or remove", i)
		}
		col, err := doc.build()
		if err != nil {
			return nil, err
		}
		ch.Column = col
		if c.From != nil {
			from, err := c.From.build()
			if err != nil {
				return nil, err
			}
			ch.From = &from
		}
		op.Changes = append(op.Changes, ch)
	}
	return op, nil
}

type dropTableDoc struct {
	tableDoc `yaml:",inline"`
	IfExists bool `yaml:"if_exists"`
	Cascade  bool `yaml:"cascade"`
}

type indexDoc struct {
	Table        string   `yaml:"table"`
	Prefix       string   `yaml:"prefix"`
	Name         string   `yaml:"name"`
	Columns      []string `yaml:"columns"`
	Unique       bool     `yaml:"unique"`
	Concurrently bool     `yaml:"concurrently"`
	Using        string   `yaml:"using"`
	Where        string   `yaml:"where"`
	Include      []string `yaml:"include"`
	Comment      string   `yaml:"comment"`
	IfNotExists  bool     `yaml:"if_not_exists"`
	IfExists     bool     `yaml:"if_exists"`
	Cascade      bool     `yaml:"cascade"`
}

func (d indexDoc) index() ddl.Index {
	return ddl.Index{
		Table: d.Table, Prefix: d.Prefix, Name: d.Name, Columns: d.Columns,
		Unique: d.Unique, Concurrently: d.Concurrently, Using: d.Using,
		Where: d.Where, Include: d.Include, Comment: d.Comment,
	}
}

type constraintDoc struct {
	Table    string `yaml:"table"`
	Prefix   string `yaml:"prefix"`
	Name     string `yaml:"name"`
	Check    string `yaml:"check"`
	Exclude  string `yaml:"exclude"`
	NotValid bool   `yaml:"not_valid"`
	Comment  string `yaml:"comment"`
	IfExists bool   `yaml:"if_exists"`
}

func (d constraintDoc) constraint() ddl.Constraint {
	return ddl.Constraint{
		Table: d.Table, Prefix: d.Prefix, Name: d.Name, Check: d.Check,
		Exclude: d.Exclude, NotValid: d.NotValid, Comment: d.Comment,
	}
}

type renameDoc struct {
	Table  string `yaml:"table"`
	Prefix string `yaml:"prefix"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
}

var commentTargets = map[string]ddl.CommentTarget{
	"table":  ddl.CommentTable,
	"column": ddl.CommentColumn,
	"index":  ddl.CommentIndex,
}

type commentDoc struct {
	Target string  `yaml:"target"`
	Table  string  `yaml:"table"`
	Prefix string  `yaml:"prefix"`
	Name   string  `yaml:"name"`
	Text   *string `yaml:"text"`
}

func (d *commentDoc) build() (ddl.Operation, error) {
	target, ok := commentTargets[d.Target]
	if !ok {
		return nil, fmt.Errorf("unknown comment target %q", d.Target)
	}
	return ddl.Comment{Target: target, Table: d.Table, Prefix: d.Prefix, Name: d.Name, Text: d.Text}, nil
}

package ddl

import (
	"errors"
	"fmt"
)

// ErrIrreversible is returned by Reverse for operations that cannot be
// undone from the information they carry.
var ErrIrreversible = errors.New("operation is not reversible")

// Reverse returns the operation that undoes op.
func Reverse(op Operation) (Operation, error) {
	switch o := op.(type) {
	case CreateTable:
		return DropTable{Table: o.Table, IfExists: o.IfNotExists}, nil
	case AlterTable:
		return reverseAlter(o)
	case CreateIndex:
		return DropIndex{Index: o.Index, IfExists: o.IfNotExists}, nil
	case DropIndex:
		return CreateIndex{Index: o.Index, IfNotExists: o.IfExists}, nil
	case CreateConstraint:
		return DropConstraint{Constraint: o.Constraint}, nil
	case DropConstraint:
		if o.Constraint.Check == "" && o.Constraint.Exclude == "" {
			return nil, fmt.Errorf("%w: drop constraint %q without its definition", ErrIrreversible, o.Constraint.Name)
		}
		return CreateConstraint{Constraint: o.Constraint}, nil
	case RenameTable:
		return RenameTable{Prefix: o.Prefix, From: o.To, To: o.From}, nil
	case RenameColumn:
		return RenameColumn{Table: o.Table, Prefix: o.Prefix, From: o.To, To: o.From}, nil
	case Execute:
		if o.Down == "" {
			return nil, fmt.Errorf("%w: execute without down statement", ErrIrreversible)
		}
		return Execute{Up: o.Down, Down: o.Up}, nil
	case DropTable:
		return nil, fmt.Errorf("%w: drop table %q", ErrIrreversible, o.Table.Name)
	case Comment:
		return nil, fmt.Errorf("%w: comment on %q", ErrIrreversible, o.Table)
	default:
		return nil, fmt.Errorf("%w: %T", ErrIrreversible, op)
	}
}

// reverseAlter reverses every change, last change first.
func reverseAlter(o AlterTable) (Operation, error) {
	changes := make([]Change, 0, len(o.Changes))
	for i := len(o.Changes) - 1; i >= 0; i-- {
		c := o.Changes[i]
		switch c.Kind {
		case AddColumn:
			col := c.Column
			changes = append(changes, Change{Kind: RemoveColumn, Column: col})
		case RemoveColumn:
			if c.Column.Type.Name == "" && c.Column.Reference == nil {
				return nil, fmt.Errorf("%w: remove column %q without its type", ErrIrreversible, c.Column.Name)
			}
			changes = append(changes, Change{Kind: AddColumn, Column: c.Column})
		case ModifyColumn:
			if c.From == nil {
				return nil, fmt.Errorf("%w: modify column %q without its previous definition", ErrIrreversible, c.Column.Name)
			}
			prev := c.Column
			changes = append(changes, Change{Kind: ModifyColumn, Column: *c.From, From: &prev})
		default:
			return nil, fmt.Errorf("%w: unknown change kind %d", ErrIrreversible, c.Kind)
		}
	}
	return AlterTable{Table: o.Table, Changes: changes}, nil
}

package visitors

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bawdo/pgquery/ddl"
)

// SQL fragments for foreign key actions.
var onDeleteSQL = [...]string{
	ddl.NoAction: "",
	ddl.SetNull:  " ON DELETE SET NULL",
	ddl.Cascade:  " ON DELETE CASCADE",
	ddl.Restrict: " ON DELETE RESTRICT",
}

var onUpdateSQL = [...]string{
	ddl.NoAction: "",
	ddl.SetNull:  " ON UPDATE SET NULL",
	ddl.Cascade:  " ON UPDATE CASCADE",
	ddl.Restrict: " ON UPDATE RESTRICT",
}

var plainIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CompileDDL renders op. Most operations yield one statement; table and
// index creation add one COMMENT ON statement per comment.
func (v *baseVisitor) CompileDDL(op ddl.Operation) ([]string, error) {
	stmts, err := v.ddl(op)
	if err != nil {
		return nil, asCompileError(err, "ddl", nil)
	}
	return stmts, nil
}

func (v *baseVisitor) ddl(op ddl.Operation) ([]string, error) {
	switch o := op.(type) {
	case ddl.CreateTable:
		return v.createTable(o)
	case ddl.AlterTable:
		return v.alterTable(o)
	case ddl.DropTable:
		return v.dropTable(o)
	case ddl.CreateIndex:
		return v.createIndex(o)
	case ddl.DropIndex:
		return v.dropIndex(o)
	case ddl.CreateConstraint:
		return v.createConstraint(o)
	case ddl.DropConstraint:
		return v.dropConstraint(o)
	case ddl.RenameTable:
		from, err := v.quoteTable(o.Prefix, o.From)
		if err != nil {
			return nil, err
		}
		to, err := v.quoteIdent(o.To)
		if err != nil {
			return nil, err
		}
		return []string{"ALTER TABLE " + from + " RENAME TO " + to}, nil
	case ddl.RenameColumn:
		table, err := v.quoteTable(o.Prefix, o.Table)
		if err != nil {
			return nil, err
		}
		from, err := v.quoteIdent(o.From)
		if err != nil {
			return nil, err
		}
		to, err := v.quoteIdent(o.To)
		if err != nil {
			return nil, err
		}
		return []string{"ALTER TABLE " + table + " RENAME " + from + " TO " + to}, nil
	case ddl.Comment:
		stmt, err := v.comment(o)
		if err != nil {
			return nil, err
		}
		return []string{stmt}, nil
	case ddl.Execute:
		if strings.TrimSpace(o.Up) == "" {
			return nil, malformed("execute without a statement")
		}
		return []string{o.Up}, nil
	case nil:
		return nil, malformed("nil ddl operation")
	default:
		return nil, unsupported("ddl operation %T", op)
	}
}

func (v *baseVisitor) quoteIdent(name string) (string, error) {
	q, err := v.dialect.QuoteIdent(name)
	if err != nil {
		return "", malformed("%v", err)
	}
	return q, nil
}

func (v *baseVisitor) quoteTable(prefix, name string) (string, error) {
	q, err := v.dialect.QuoteTable(prefix, name)
	if err != nil {
		return "", malformed("%v", err)
	}
	return q, nil
}

func (v *baseVisitor) createTable(o ddl.CreateTable) ([]string, error) {
	name, err := v.quoteTable(o.Table.Prefix, o.Table.Name)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if o.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(name + " (")
	var pks []string
	for i, col := range o.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		def, err := v.columnDefinition(o.Table, col)
		if err != nil {
			return nil, err
		}
		sb.WriteString(def)
		if col.PrimaryKey {
			pks = append(pks, col.Name)
		}
	}
	if len(pks) > 0 {
		cols, err := quoteNames(v.dialect, pks, ", ")
		if err != nil {
			return nil, err
		}
		sb.WriteString(", PRIMARY KEY (" + cols + ")")
	}
	sb.WriteString(")")
	if o.Table.Options != "" {
		sb.WriteString(" " + o.Table.Options)
	}

	stmts := []string{sb.String()}
	return v.appendComments(stmts, name, o.Table.Comment, o.Columns)
}

// appendComments adds COMMENT ON statements for a table and its columns.
func (v *baseVisitor) appendComments(stmts []string, table, comment string, cols []ddl.Column) ([]string, error) {
	if comment != "" {
		stmts = append(stmts, "COMMENT ON TABLE "+table+" IS "+v.dialect.QuoteString(comment))
	}
	for _, col := range cols {
		if col.Comment == "" {
			continue
		}
		name, err := v.quoteIdent(col.Name)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, "COMMENT ON COLUMN "+table+"."+name+" IS "+v.dialect.QuoteString(col.Comment))
	}
	return stmts, nil
}

func (v *baseVisitor) columnDefinition(table ddl.Table, col ddl.Column) (string, error) {
	name, err := v.quoteIdent(col.Name)
	if err != nil {
		return "", err
	}
	typ, err := v.columnTypeOf(col)
	if err != nil {
		return "", err
	}
	opts, err := v.columnOptions(col)
	if err != nil {
		return "", err
	}
	def := name + " " + typ + opts
	if col.Reference != nil {
		ref, err := v.referenceExpr(table, col)
		if err != nil {
			return "", err
		}
		def += ref
	}
	return def, nil
}

func (v *baseVisitor) columnTypeOf(col ddl.Column) (string, error) {
	if col.Reference != nil {
		t := col.Reference.ColumnType()
		if col.Type.Size > 0 || col.Type.Precision > 0 {
			t.Size, t.Precision, t.Scale = col.Type.Size, col.Type.Precision, col.Type.Scale
		}
		return columnType(v.dialect, t)
	}
	if col.Type.Name == "" {
		return "", malformed("column %q has no type", col.Name)
	}
	return columnType(v.dialect, col.Type)
}

func (v *baseVisitor) columnOptions(col ddl.Column) (string, error) {
	def, err := v.defaultExpr(col.Default)
	if err != nil {
		return "", malformed("column %q: %v", col.Name, err)
	}
	switch col.Null {
	case ddl.NotNull:
		def += " NOT NULL"
	case ddl.Nullable:
		def += " NULL"
	}
	return def, nil
}

func (v *baseVisitor) referenceTarget(table ddl.Table, ref *ddl.Reference) (string, error) {
	prefix := ref.Prefix
	if prefix == "" {
		prefix = table.Prefix
	}
	target, err := v.quoteTable(prefix, ref.Table)
	if err != nil {
		return "", err
	}
	col, err := v.quoteIdent(ref.TargetColumn())
	if err != nil {
		return "", err
	}
	return target + "(" + col + ")" + onDeleteSQL[actionIndex(ref.OnDelete)] + onUpdateSQL[actionIndex(ref.OnUpdate)], nil
}

func actionIndex(a ddl.Action) ddl.Action {
	if a < 0 || int(a) >= len(onDeleteSQL) {
		return ddl.NoAction
	}
	return a
}

// referenceExpr renders the inline foreign key of a column definition.
func (v *baseVisitor) referenceExpr(table ddl.Table, col ddl.Column) (string, error) {
	name, err := v.quoteIdent(col.Reference.ConstraintName(table.Name, col.Name))
	if err != nil {
		return "", err
	}
	target, err := v.referenceTarget(table, col.Reference)
	if err != nil {
		return "", err
	}
	return " CONSTRAINT " + name + " REFERENCES " + target, nil
}

// defaultExpr renders the DEFAULT option. A nil value renders nothing.
func (v *baseVisitor) defaultExpr(val any) (string, error) {
	if val == nil {
		return "", nil
	}
	if ddl.IsDefaultNull(val) {
		return " DEFAULT NULL", nil
	}
	if s, ok := integerSQL(val); ok {
		return " DEFAULT " + s, nil
	}
	switch d := val.(type) {
	case ddl.Raw:
		return " DEFAULT " + string(d), nil
	case string:
		return " DEFAULT " + v.dialect.QuoteString(d), nil
	case bool:
		if d {
			return " DEFAULT TRUE", nil
		}
		return " DEFAULT FALSE", nil
	case float32:
		return " DEFAULT " + floatSQL(float64(d)), nil
	case float64:
		return " DEFAULT " + floatSQL(d), nil
	case decimal.Decimal:
		return " DEFAULT " + d.String(), nil
	case map[string]any:
		doc, err := json.Marshal(d)
		if err != nil {
			return "", err
		}
		return " DEFAULT " + v.dialect.QuoteString(string(doc)), nil
	}
	if k := reflect.ValueOf(val).Kind(); k == reflect.Slice || k == reflect.Array {
		lit, err := literalSQL(v.dialect, val)
		if err != nil {
			return "", err
		}
		return " DEFAULT " + lit, nil
	}
	return "", malformed("unsupported default value %T", val)
}

func (v *baseVisitor) alterTable(o ddl.AlterTable) ([]string, error) {
	if len(o.Changes) == 0 {
		return nil, malformed("alter table %q without changes", o.Table.Name)
	}
	name, err := v.quoteTable(o.Table.Prefix, o.Table.Name)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString("ALTER TABLE " + name + " ")
	var pks []string
	var commented []ddl.Column
	for i, c := range o.Changes {
		if i > 0 {
			sb.WriteString(", ")
		}
		change, err := v.columnChange(o.Table, c)
		if err != nil {
			return nil, err
		}
		sb.WriteString(change)
		if c.Kind == ddl.AddColumn && c.Column.PrimaryKey {
			pks = append(pks, c.Column.Name)
		}
		if c.Kind != ddl.RemoveColumn {
			commented = append(commented, c.Column)
		}
	}
	if len(pks) > 0 {
		cols, err := quoteNames(v.dialect, pks, ", ")
		if err != nil {
			return nil, err
		}
		sb.WriteString(", ADD PRIMARY KEY (" + cols + ")")
	}
	return v.appendComments([]string{sb.String()}, name, o.Table.Comment, commented)
}

func (v *baseVisitor) columnChange(table ddl.Table, c ddl.Change) (string, error) {
	col := c.Column
	name, err := v.quoteIdent(col.Name)
	if err != nil {
		return "", err
	}
	switch c.Kind {
	case ddl.AddColumn:
		def, err := v.columnDefinition(table, col)
		if err != nil {
			return "", err
		}
		return "ADD COLUMN " + def, nil

	case ddl.ModifyColumn:
		var sb strings.Builder
		if c.From != nil && c.From.Reference != nil {
			drop, err := v.quoteIdent(c.From.Reference.ConstraintName(table.Name, col.Name))
			if err != nil {
				return "", err
			}
			sb.WriteString("DROP CONSTRAINT " + drop + ", ")
		}
		typ, err := v.columnTypeOf(col)
		if err != nil {
			return "", err
		}
		sb.WriteString("ALTER COLUMN " + name + " TYPE " + typ)
		if col.Reference != nil {
			fk, err := v.quoteIdent(col.Reference.ConstraintName(table.Name, col.Name))
			if err != nil {
				return "", err
			}
			target, err := v.referenceTarget(table, col.Reference)
			if err != nil {
				return "", err
			}
			sb.WriteString(", ADD CONSTRAINT " + fk + " FOREIGN KEY (" + name + ") REFERENCES " + target)
		}
		switch col.Null {
		case ddl.Nullable:
			sb.WriteString(", ALTER COLUMN " + name + " DROP NOT NULL")
		case ddl.NotNull:
			sb.WriteString(", ALTER COLUMN " + name + " SET NOT NULL")
		}
		if col.Default != nil {
			def, err := v.defaultExpr(col.Default)
			if err != nil {
				return "", malformed("column %q: %v", col.Name, err)
			}
			sb.WriteString(", ALTER COLUMN " + name + " SET" + def)
		}
		return sb.String(), nil

	case ddl.RemoveColumn:
		if col.Reference != nil {
			drop, err := v.quoteIdent(col.Reference.ConstraintName(table.Name, col.Name))
			if err != nil {
				return "", err
			}
			return "DROP CONSTRAINT " + drop + ", DROP COLUMN " + name, nil
		}
		return "DROP COLUMN " + name, nil
	}
	return "", malformed("unknown column change kind %d", c.Kind)
}

func (v *baseVisitor) dropTable(o ddl.DropTable) ([]string, error) {
	name, err := v.quoteTable(o.Table.Prefix, o.Table.Name)
	if err != nil {
		return nil, err
	}
	stmt := "DROP TABLE "
	if o.IfExists {
		stmt += "IF EXISTS "
	}
	stmt += name
	if o.Cascade {
		stmt += " CASCADE"
	}
	return []string{stmt}, nil
}

func (v *baseVisitor) indexColumns(cols []string) (string, error) {
	out := make([]string, len(cols))
	for i, c := range cols {
		if !plainIdentRe.MatchString(c) {
			out[i] = c
			continue
		}
		q, err := v.quoteIdent(c)
		if err != nil {
			return "", err
		}
		out[i] = q
	}
	return strings.Join(out, ", "), nil
}

func (v *baseVisitor) createIndex(o ddl.CreateIndex) ([]string, error) {
	ix := o.Index
	if len(ix.Columns) == 0 {
		return nil, malformed("index on %q without columns", ix.Table)
	}
	name, err := v.quoteIdent(ix.IndexName())
	if err != nil {
		return nil, err
	}
	table, err := v.quoteTable(ix.Prefix, ix.Table)
	if err != nil {
		return nil, err
	}
	cols, err := v.indexColumns(ix.Columns)
	if err != nil {
		return nil, err
	}
	native := o.IfNotExists && v.nativeIfNotExists

	var sb strings.Builder
	sb.WriteString("CREATE ")
	if ix.Unique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX ")
	if ix.Concurrently {
		sb.WriteString("CONCURRENTLY ")
	}
	if native {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(name + " ON " + table)
	if ix.Using != "" {
		sb.WriteString(" USING " + ix.Using)
	}
	sb.WriteString(" (" + cols + ")")
	if len(ix.Include) > 0 {
		inc, err := quoteNames(v.dialect, ix.Include, ", ")
		if err != nil {
			return nil, err
		}
		sb.WriteString(" INCLUDE (" + inc + ")")
	}
	if ix.Where != "" {
		sb.WriteString(" WHERE " + ix.Where)
	}

	stmt := sb.String()
	if o.IfNotExists && !native {
		stmt = "DO $$ BEGIN " + stmt + "; EXCEPTION WHEN duplicate_table THEN END; $$;"
	}
	stmts := []string{stmt}
	if ix.Comment != "" {
		qualified, err := v.quoteTable(ix.Prefix, ix.IndexName())
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, "COMMENT ON INDEX "+qualified+" IS "+v.dialect.QuoteString(ix.Comment))
	}
	return stmts, nil
}

func (v *baseVisitor) dropIndex(o ddl.DropIndex) ([]string, error) {
	name, err := v.quoteTable(o.Index.Prefix, o.Index.IndexName())
	if err != nil {
		return nil, err
	}
	stmt := "DROP INDEX "
	if o.Index.Concurrently {
		stmt += "CONCURRENTLY "
	}
	if o.IfExists {
		stmt += "IF EXISTS "
	}
	stmt += name
	if o.Cascade {
		stmt += " CASCADE"
	}
	return []string{stmt}, nil
}

func (v *baseVisitor) createConstraint(o ddl.CreateConstraint) ([]string, error) {
	c := o.Constraint
	table, err := v.quoteTable(c.Prefix, c.Table)
	if err != nil {
		return nil, err
	}
	name, err := v.quoteIdent(c.Name)
	if err != nil {
		return nil, err
	}
	stmt := "ALTER TABLE " + table + " ADD CONSTRAINT " + name
	switch {
	case c.Check != "" && c.Exclude != "":
		return nil, malformed("constraint %q has both check and exclude", c.Name)
	case c.Check != "":
		stmt += " CHECK (" + c.Check + ")"
	case c.Exclude != "":
		stmt += " EXCLUDE USING " + c.Exclude
	default:
		return nil, malformed("constraint %q needs a check or exclude expression", c.Name)
	}
	if c.NotValid {
		stmt += " NOT VALID"
	}
	stmts := []string{stmt}
	if c.Comment != "" {
		stmts = append(stmts, "COMMENT ON CONSTRAINT "+name+" ON "+table+" IS "+v.dialect.QuoteString(c.Comment))
	}
	return stmts, nil
}

func (v *baseVisitor) dropConstraint(o ddl.DropConstraint) ([]string, error) {
	table, err := v.quoteTable(o.Constraint.Prefix, o.Constraint.Table)
	if err != nil {
		return nil, err
	}
	name, err := v.quoteIdent(o.Constraint.Name)
	if err != nil {
		return nil, err
	}
	stmt := "ALTER TABLE " + table + " DROP CONSTRAINT "
	if o.IfExists {
		stmt += "IF EXISTS "
	}
	return []string{stmt + name}, nil
}

func (v *baseVisitor) comment(o ddl.Comment) (string, error) {
	text := "NULL"
	if o.Text != nil {
		text = v.dialect.QuoteString(*o.Text)
	}
	switch o.Target {
	case ddl.CommentTable:
		table, err := v.quoteTable(o.Prefix, o.Table)
		if err != nil {
			return "", err
		}
		return "COMMENT ON TABLE " + table + " IS " + text, nil
	case ddl.CommentColumn:
		table, err := v.quoteTable(o.Prefix, o.Table)
		if err != nil {
			return "", err
		}
		col, err := v.quoteIdent(o.Name)
		if err != nil {
			return "", err
		}
		return "COMMENT ON COLUMN " + table + "." + col + " IS " + text, nil
	case ddl.CommentIndex:
		ix, err := v.quoteTable(o.Prefix, o.Name)
		if err != nil {
			return "", err
		}
		return "COMMENT ON INDEX " + ix + " IS " + text, nil
	}
	return "", malformed("unknown comment target %d", o.Target)
}

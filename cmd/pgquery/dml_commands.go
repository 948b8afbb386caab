package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bawdo/pgquery/managers"
)

// targetTable splits "schema.table" into its parts.
func targetTable(args string) (schema, table string, err error) {
	name := strings.TrimSpace(args)
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", "", errors.New("expected a single table name")
	}
	if schema, table, ok := strings.Cut(name, "."); ok {
		return schema, table, nil
	}
	return "", name, nil
}

// splitNames splits "a, b, c" or "(a, b, c)" into names.
func splitNames(args string) []string {
	args = strings.TrimSpace(args)
	args = strings.TrimSuffix(strings.TrimPrefix(args, "("), ")")
	var names []string
	for _, n := range strings.Split(args, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// parseAssignment parses "field = value" with a literal value.
func parseAssignment(args string) (string, any, error) {
	field, rest, ok := strings.Cut(args, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		trimmed := strings.TrimSpace(args)
		if strings.HasSuffix(strings.ToLower(trimmed), " is null") {
			return strings.TrimSpace(trimmed[:len(trimmed)-len(" is null")]), nil, nil
		}
		return "", nil, errors.New("expected <field> = <value>")
	}
	v, err := parseValue(strings.TrimSpace(rest))
	if err != nil {
		return "", nil, err
	}
	return field, v, nil
}

func (s *Session) cmdInsertInto(args string) error {
	schema, table, err := targetTable(args)
	if err != nil {
		return fmt.Errorf("usage: insert into <table>: %w", err)
	}
	s.setMode(modeInsert)
	s.insertQuery = managers.NewInsertManager(table).Prefix(schema)
	s.printf("  Insert into %s\n", table)
	return nil
}

func (s *Session) cmdColumns(args string) error {
	if s.insertQuery == nil {
		return errors.New("no INSERT query defined (use 'insert into <table>' first)")
	}
	cols := splitNames(args)
	if len(cols) == 0 {
		return errors.New("usage: columns <col1>, <col2>, ...")
	}
	s.insertCols = cols
	s.insertQuery.Columns(cols...)
	return nil
}

func (s *Session) cmdValues(args string) error {
	if s.insertQuery == nil {
		return errors.New("no INSERT query defined (use 'insert into <table>' first)")
	}
	vals, err := parseValueList(strings.TrimSuffix(strings.TrimPrefix(args, "("), ")"))
	if err != nil {
		return err
	}
	if len(vals) > len(s.insertCols) {
		return fmt.Errorf("row has %d values for %d columns", len(vals), len(s.insertCols))
	}
	s.insertQuery.Values(vals...)
	return nil
}

// cmdOnConflict handles
//
//	on conflict [(<cols>) | constraint <name>] do nothing
//	on conflict (<cols>) do replace all
//	on conflict (<cols>) do replace <col>, ...
func (s *Session) cmdOnConflict(args string) error {
	if s.insertQuery == nil {
		return errors.New("no INSERT query defined (use 'insert into <table>' first)")
	}
	lower := strings.ToLower(args)
	i := strings.Index(lower, "do ")
	if i < 0 {
		return errors.New("usage: on conflict [(<cols>) | constraint <name>] do nothing|replace all|replace <cols>")
	}
	target, action := strings.TrimSpace(args[:i]), strings.TrimSpace(args[i+3:])

	var oc *managers.OnConflictContext
	if strings.HasPrefix(strings.ToLower(target), "constraint ") {
		oc = s.insertQuery.OnConstraint(strings.TrimSpace(target[len("constraint "):]))
	} else {
		oc = s.insertQuery.OnConflict(splitNames(target)...)
	}

	lowerAction := strings.ToLower(action)
	switch {
	case lowerAction == "nothing":
		oc.DoNothing()
	case lowerAction == "replace all":
		oc.ReplaceAll()
	case strings.HasPrefix(lowerAction, "replace "):
		oc.Replace(splitNames(action[len("replace "):])...)
	default:
		return fmt.Errorf("unknown conflict action %q", action)
	}
	return nil
}

func (s *Session) cmdUpdate(args string) error {
	schema, table, err := targetTable(args)
	if err != nil {
		return fmt.Errorf("usage: update <table>: %w", err)
	}
	s.setMode(modeUpdate)
	s.updateQuery = managers.NewUpdateManager(table).Prefix(schema)
	s.printf("  Update %s\n", table)
	return nil
}

// cmdSet adds an assignment to a single-row UPDATE.
func (s *Session) cmdSet(args string) error {
	if s.updateQuery == nil {
		return errors.New("no UPDATE query defined (use 'update <table>' first)")
	}
	field, v, err := parseAssignment(args)
	if err != nil {
		return err
	}
	s.updateQuery.Set(field, v)
	return nil
}

// cmdFilter adds an equality filter to a single-row UPDATE or DELETE.
func (s *Session) cmdFilter(args string) error {
	field, v, err := parseAssignment(args)
	if err != nil {
		return err
	}
	switch {
	case s.mode == modeUpdate && s.updateQuery != nil:
		s.updateQuery.Where(field, v)
	case s.mode == modeDelete && s.deleteQuery != nil:
		s.deleteQuery.Where(field, v)
	default:
		return errors.New("no UPDATE or DELETE query defined")
	}
	return nil
}

func (s *Session) cmdDeleteFrom(args string) error {
	schema, table, err := targetTable(args)
	if err != nil {
		return fmt.Errorf("usage: delete from <table>: %w", err)
	}
	s.setMode(modeDelete)
	s.deleteQuery = managers.NewDeleteManager(table).Prefix(schema)
	s.printf("  Delete from %s\n", table)
	return nil
}

func (s *Session) cmdReturning(args string) error {
	cols := splitNames(args)
	if len(cols) == 0 {
		return errors.New("usage: returning <col1>, <col2>, ...")
	}
	switch {
	case s.mode == modeInsert && s.insertQuery != nil:
		s.insertQuery.Returning(cols...)
	case s.mode == modeUpdate && s.updateQuery != nil:
		s.updateQuery.Returning(cols...)
	case s.mode == modeDelete && s.deleteQuery != nil:
		s.deleteQuery.Returning(cols...)
	default:
		return errors.New("returning applies to insert, update and delete statements")
	}
	return nil
}

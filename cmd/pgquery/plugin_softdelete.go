package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bawdo/pgquery/plugins"
	"github.com/bawdo/pgquery/plugins/softdelete"
)

// configureSoftdelete parses softdelete arguments and registers the plugin.
//
//	plugin softdelete                          deleted_at on every table
//	plugin softdelete removed_at               custom column on every table
//	plugin softdelete removed_at on users posts
//	plugin softdelete users.deleted_at, posts.removed_at
func configureSoftdelete(s *Session, args string) error {
	opts, status, err := softdeleteOptions(strings.TrimSpace(args))
	if err != nil {
		return err
	}
	s.plugins.register(pluginEntry{
		name:    "softdelete",
		factory: func() plugins.Transformer { return softdelete.New(opts...) },
		status:  func() string { return status },
	})
	s.printf("  Soft-delete enabled (%s)\n", status)
	return nil
}

// softdeleteOptions is shared with the compile --soft-delete flag.
func softdeleteOptions(rest string) ([]softdelete.Option, string, error) {
	switch {
	case strings.Contains(rest, "."):
		var opts []softdelete.Option
		var pairs []string
		for _, pair := range strings.Split(rest, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			table, col, ok := strings.Cut(pair, ".")
			if !ok || table == "" || col == "" {
				return nil, "", fmt.Errorf("invalid table.column pair: %q", pair)
			}
			opts = append(opts, softdelete.WithTableColumn(table, col))
			pairs = append(pairs, table+"."+col)
		}
		sort.Strings(pairs)
		return opts, strings.Join(pairs, ", "), nil

	case strings.Contains(strings.ToLower(rest), " on "):
		idx := strings.Index(strings.ToLower(rest), " on ")
		col := strings.TrimSpace(rest[:idx])
		tables := strings.Fields(rest[idx+4:])
		if col == "" || len(tables) == 0 {
			return nil, "", errors.New("usage: plugin softdelete <column> on <table1> [table2 ...]")
		}
		opts := []softdelete.Option{softdelete.WithColumn(col), softdelete.WithTables(tables...)}
		return opts, fmt.Sprintf("column: %s, tables: %s", col, strings.Join(tables, ", ")), nil

	case rest != "":
		col := strings.Fields(rest)[0]
		return []softdelete.Option{softdelete.WithColumn(col)}, "column: " + col, nil
	}
	return nil, "column: deleted_at", nil
}

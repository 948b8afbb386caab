package main

import (
	"sort"
	"strings"
)

// completionContext describes what kind of completion is appropriate.
type completionContext int

const (
	contextCommand   completionContext = iota // start of line or partial command
	contextTableName                          // after from/join/etc
	contextColumnRef                          // after select/where/having/group
	contextPlugin                             // after plugin
	contextPluginOff                          // after plugin off
	contextOrderDir                           // after a column ref in order context
	contextOperator                           // after a column ref in condition context
)

var orderDirs = []string{"asc", "desc", "nulls first", "nulls last"}
var operators = []string{
	"!=", "*", "+", "-", "/", "<", "<=", "<>", "=", ">", ">=",
	"and", "ilike", "in", "is", "like", "not", "or",
}

var functionNames = []string{
	"array_agg(", "avg(",
	"coalesce(", "count(", "count(distinct ",
	"greatest(", "least(", "length(", "lower(",
	"max(", "min(", "now(", "nullif(",
	"row_number(", "sum(",
	"trim(", "upper(",
}

// replCompleter implements readline's AutoCompleter interface.
type replCompleter struct {
	sess *Session
}

// Do returns completion candidates for the current line/cursor position.
// length is the number of chars from end of line[:pos] that form the prefix being completed.
// newLine contains the suffixes to append for each candidate.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	lineStr := string(line[:pos])
	ctx, prefix := c.parseContext(lineStr)

	var candidates []string
	switch ctx {
	case contextCommand:
		candidates = filterPrefix(c.sess.commandNames(), prefix)
	case contextTableName:
		candidates = c.completeTableNames(prefix)
	case contextColumnRef:
		candidates = c.completeColumnRef(prefix)
	case contextPlugin:
		candidates = filterPrefix(append([]string{"off"}, c.sess.pluginNames()...), prefix)
	case contextPluginOff:
		candidates = filterPrefix(c.sess.plugins.names(), prefix)
	case contextOrderDir:
		candidates = filterPrefix(orderDirs, prefix)
	case contextOperator:
		candidates = filterPrefix(operators, prefix)
	}

	for _, cand := range candidates {
		suffix := cand[len(prefix):]
		newLine = append(newLine, []rune(suffix+" "))
	}
	length = len([]rune(prefix))
	return
}

// parseContext examines the line up to cursor and determines what kind of
// completion is needed and the current prefix being typed.
func (c *replCompleter) parseContext(line string) (completionContext, string) {
	lower := strings.ToLower(line)

	for _, cmd := range c.sess.commands {
		if !strings.HasSuffix(cmd.prefix, " ") {
			continue // exact-match commands have no arg completion
		}
		if strings.HasPrefix(lower, cmd.prefix) && cmd.completer != nil {
			return cmd.completer(line[len(cmd.prefix):])
		}
	}

	return contextCommand, strings.TrimSpace(line)
}

// completeTableNames returns query source names and database tables
// matching prefix.
func (c *replCompleter) completeTableNames(prefix string) []string {
	var names []string
	for name := range c.sess.sources {
		names = append(names, name)
	}
	if c.sess.conn != nil {
		if tables, err := c.sess.conn.Tables(c.sess.ctx); err == nil {
			names = append(names, tables...)
		}
	}
	names = dedup(names)
	sort.Strings(names)
	return filterPrefix(names, prefix)
}

// completeColumnRef handles both source-name and name.column completion.
func (c *replCompleter) completeColumnRef(prefix string) []string {
	name, colPrefix, ok := strings.Cut(prefix, ".")
	if !ok {
		candidates := c.completeTableNames(prefix)
		return append(candidates, filterPrefix(functionNames, prefix)...)
	}

	candidates := []string{name + ".*"}
	if c.sess.conn != nil && colPrefix != "*" {
		table := c.sess.tableFor(name)
		if cols, err := c.sess.conn.Columns(c.sess.ctx, table); err == nil {
			for _, col := range cols {
				candidates = append(candidates, name+"."+col)
			}
		}
	}
	return filterPrefix(candidates, prefix)
}

// filterPrefix returns items that start with prefix (case-insensitive).
func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		result := make([]string, len(items))
		copy(result, items)
		return result
	}
	lowerPrefix := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			result = append(result, item)
		}
	}
	return result
}

// dedup removes duplicate strings.
func dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

// lastToken returns the last whitespace-separated token, handling commas.
func lastToken(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' || s[i] == ',' || s[i] == '\t' || s[i] == '(' {
			return s[i+1:]
		}
	}
	return s
}

package main

import (
	"sort"
	"strings"

	"github.com/bawdo/pgquery/nodes"
)

// commandEntry maps a REPL prefix to its handler and optional tab-completer.
type commandEntry struct {
	prefix    string
	handler   func(args string) error
	completer func(args string) (completionContext, string) // nil = no arg completion
	hidden    bool                                          // excluded from commandNames()
	help      string
}

// initCommands builds the command registry and sorts by prefix length descending.
func (s *Session) initCommands() {
	s.commands = []commandEntry{
		// --- display ---
		{prefix: "sql", handler: func(_ string) error { return s.cmdSQL() }, help: "show the SQL and params of the current statement"},
		{prefix: "tosql", handler: func(_ string) error { return s.cmdSQL() }, hidden: true},
		{prefix: "ast", handler: func(_ string) error { return s.cmdAST() }, help: "summarise the query being built"},
		{prefix: "reset", handler: func(_ string) error { return s.cmdReset() }, help: "discard the current statement"},
		{prefix: "tables", handler: func(_ string) error { return s.cmdTables() }, help: "list query sources and database tables"},
		{prefix: "help", handler: func(_ string) error { s.cmdHelp(); return nil }, help: "show this help"},

		// --- query building ---
		{prefix: "from ", handler: s.cmdFrom, completer: completeTableArgs, help: "start a query: from <table> [alias]"},
		{prefix: "select ", handler: s.cmdSelect, completer: completeColumnArgs, help: "select <expr> [as name], ..."},
		{prefix: "project ", handler: s.cmdSelect, completer: completeColumnArgs, hidden: true},
		{prefix: "distinct on ", handler: s.cmdDistinctOn, completer: completeOrderArgs, help: "distinct on <expr> [asc|desc], ..."},
		{prefix: "distinct", handler: func(_ string) error { return s.cmdDistinct() }, help: "select distinct rows"},
		{prefix: "where ", handler: func(a string) error { return s.cmdWhere(a, false) }, completer: completeColumnArgs, help: "where <condition> (ANDed)"},
		{prefix: "or where ", handler: func(a string) error { return s.cmdWhere(a, true) }, completer: completeColumnArgs, help: "or where <condition>"},
		{prefix: "group ", handler: s.cmdGroup, completer: completeColumnArgs, help: "group <expr>, ..."},
		{prefix: "having ", handler: func(a string) error { return s.cmdHaving(a, false) }, completer: completeColumnArgs, help: "having <condition>"},
		{prefix: "or having ", handler: func(a string) error { return s.cmdHaving(a, true) }, completer: completeColumnArgs, help: "or having <condition>"},
		{prefix: "order ", handler: s.cmdOrder, completer: completeOrderArgs, help: "order <expr> [asc|desc] [nulls first|last], ..."},
		{prefix: "limit ", handler: s.cmdLimit, help: "limit <n>"},
		{prefix: "take ", handler: s.cmdLimit, hidden: true},
		{prefix: "offset ", handler: s.cmdOffset, help: "offset <n>"},

		// --- locking ---
		{prefix: "for update", handler: func(_ string) error { return s.cmdLock("FOR UPDATE") }, help: "lock selected rows"},
		{prefix: "for no key update", handler: func(_ string) error { return s.cmdLock("FOR NO KEY UPDATE") }},
		{prefix: "for share", handler: func(_ string) error { return s.cmdLock("FOR SHARE") }},
		{prefix: "for key share", handler: func(_ string) error { return s.cmdLock("FOR KEY SHARE") }},
		{prefix: "skip locked", handler: func(_ string) error { return s.cmdSkipLocked() }},

		// --- joins (multi-word prefixes) ---
		{prefix: "join ", handler: func(a string) error { return s.cmdJoin(a, nodes.InnerJoin) }, completer: completeJoinArgs, help: "join <table> [alias] on <condition>"},
		{prefix: "inner join ", handler: func(a string) error { return s.cmdJoin(a, nodes.InnerJoin) }, completer: completeJoinArgs, hidden: true},
		{prefix: "left join ", handler: func(a string) error { return s.cmdJoin(a, nodes.LeftJoin) }, completer: completeJoinArgs},
		{prefix: "outer join ", handler: func(a string) error { return s.cmdJoin(a, nodes.LeftJoin) }, completer: completeJoinArgs, hidden: true},
		{prefix: "right join ", handler: func(a string) error { return s.cmdJoin(a, nodes.RightJoin) }, completer: completeJoinArgs},
		{prefix: "full join ", handler: func(a string) error { return s.cmdJoin(a, nodes.FullJoin) }, completer: completeJoinArgs},
		{prefix: "cross join ", handler: func(a string) error { return s.cmdJoin(a, nodes.CrossJoin) }, completer: completeJoinArgs},
		{prefix: "lateral join ", handler: func(a string) error { return s.cmdJoin(a, nodes.InnerLateralJoin) }, completer: completeJoinArgs},
		{prefix: "lateral left join ", handler: func(a string) error { return s.cmdJoin(a, nodes.LeftLateralJoin) }, completer: completeJoinArgs},

		// --- set operations and CTEs ---
		{prefix: "union", handler: func(_ string) error { return s.cmdSetOp(nodes.Union) }, help: "push the query; the next one is UNIONed"},
		{prefix: "union all", handler: func(_ string) error { return s.cmdSetOp(nodes.UnionAll) }},
		{prefix: "intersect", handler: func(_ string) error { return s.cmdSetOp(nodes.Intersect) }},
		{prefix: "intersect all", handler: func(_ string) error { return s.cmdSetOp(nodes.IntersectAll) }},
		{prefix: "except", handler: func(_ string) error { return s.cmdSetOp(nodes.Except) }},
		{prefix: "except all", handler: func(_ string) error { return s.cmdSetOp(nodes.ExceptAll) }},
		{prefix: "with ", handler: func(a string) error { return s.cmdWith(a, false) }, help: "push the query as a CTE: with <name>"},
		{prefix: "with recursive ", handler: func(a string) error { return s.cmdWith(a, true) }},

		// --- bulk statements over the query ---
		{prefix: "set ", handler: func(a string) error { return s.cmdUpdateOp(nodes.SetOp, a) }, completer: completeColumnArgs, help: "set <field> = <expr>"},
		{prefix: "inc ", handler: func(a string) error { return s.cmdUpdateOp(nodes.IncOp, a) }, help: "inc <field> <expr>"},
		{prefix: "push ", handler: func(a string) error { return s.cmdUpdateOp(nodes.PushOp, a) }, help: "push <field> <expr>"},
		{prefix: "pull ", handler: func(a string) error { return s.cmdUpdateOp(nodes.PullOp, a) }, help: "pull <field> <expr>"},
		{prefix: "update all", handler: func(_ string) error { return s.cmdBulkMode(modeUpdateAll) }, help: "compile the query as a bulk UPDATE"},
		{prefix: "delete all", handler: func(_ string) error { return s.cmdBulkMode(modeDeleteAll) }, help: "compile the query as a bulk DELETE"},
		{prefix: "mode ", handler: s.cmdMode, help: "mode select|update all|delete all"},

		// --- single-row statements ---
		{prefix: "insert into ", handler: s.cmdInsertInto, completer: completeTableArgs, help: "insert into <table>"},
		{prefix: "columns ", handler: s.cmdColumns, help: "columns <col>, ..."},
		{prefix: "values ", handler: s.cmdValues, help: "values <v>, ... (one row per call)"},
		{prefix: "on conflict ", handler: s.cmdOnConflict, help: "on conflict [(<cols>)] do nothing|replace all|replace <cols>"},
		{prefix: "update ", handler: s.cmdUpdate, completer: completeTableArgs, help: "update <table>"},
		{prefix: "delete from ", handler: s.cmdDeleteFrom, completer: completeTableArgs, help: "delete from <table>"},
		{prefix: "returning ", handler: s.cmdReturning, help: "returning <col>, ..."},

		// --- documents ---
		{prefix: "load ", handler: s.cmdLoad, help: "compile a statement document: load <file>"},
		{prefix: "ddl ", handler: s.cmdDDL, help: "compile a migration document: ddl [reverse] <file>"},

		// --- database connectivity ---
		{prefix: "connect ", handler: s.cmdConnect, help: "connect <dsn>"},
		{prefix: "connect", handler: func(_ string) error { return s.cmdConnect("") }},
		{prefix: "disconnect", handler: func(_ string) error { return s.cmdDisconnect() }},
		{prefix: "exec", handler: func(_ string) error { return s.cmdExec() }, help: "run the current statement"},
		{prefix: "run", handler: func(_ string) error { return s.cmdExec() }, hidden: true},

		// --- parameterize toggle ---
		{prefix: "parameterize", handler: func(_ string) error { return s.cmdParameterize() }, help: "toggle binding literals as parameters"},
		{prefix: "params", handler: func(_ string) error { return s.cmdParameterize() }, hidden: true},

		// --- plugins ---
		{prefix: "plugin ", handler: s.cmdPlugin, completer: completePluginArgs, help: "plugin softdelete [column | column on t1 t2 | t.col, ...] | plugin off [name]"},
		{prefix: "plugins", handler: func(_ string) error { s.cmdPlugins(); return nil }},
	}

	// Sort by prefix length descending so longest prefixes match first.
	sort.SliceStable(s.commands, func(i, j int) bool {
		return len(s.commands[i].prefix) > len(s.commands[j].prefix)
	})
}

// commandNames derives the command name list from the registry for tab completion.
func (s *Session) commandNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, cmd := range s.commands {
		if cmd.hidden {
			continue
		}
		name := strings.TrimRight(cmd.prefix, " ")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	// exit/quit are handled by the REPL loop, not Execute().
	for _, extra := range []string{"exit", "quit"} {
		if !seen[extra] {
			names = append(names, extra)
		}
	}
	sort.Strings(names)
	return names
}

func (s *Session) cmdHelp() {
	var lines []string
	for _, cmd := range s.commands {
		if cmd.hidden || cmd.help == "" {
			continue
		}
		lines = append(lines, "  "+strings.TrimRight(cmd.prefix, " ")+"\t"+cmd.help)
	}
	sort.Strings(lines)
	s.printf("Commands:\n%s\n  exit\tquit the REPL\n", strings.Join(lines, "\n"))
}

// --- Shared completion helpers ---

// completeJoinArgs handles completion for multi-word join prefixes:
// table name, then column refs and operators of the ON clause.
func completeJoinArgs(args string) (completionContext, string) {
	words := strings.Fields(args)
	if len(words) == 0 {
		return contextTableName, ""
	}
	if strings.Contains(args, " ") {
		last := words[len(words)-1]
		if strings.HasSuffix(args, " ") {
			return contextOperator, ""
		}
		return contextColumnRef, last
	}
	return contextTableName, args
}

// completeTableArgs handles completion for single-word table commands
// (from, insert into, update, delete from).
func completeTableArgs(args string) (completionContext, string) {
	arg := strings.TrimSpace(args)
	if !strings.Contains(arg, " ") {
		return contextTableName, arg
	}
	return contextCommand, ""
}

// completeColumnArgs handles completion for column-ref commands
// (select, where, having, group, set).
func completeColumnArgs(args string) (completionContext, string) {
	last := lastToken(args)
	if strings.HasSuffix(args, " ") {
		prevTokens := strings.Fields(args)
		if len(prevTokens) > 0 {
			prev := strings.ToLower(prevTokens[len(prevTokens)-1])
			if strings.Contains(prev, ".") {
				return contextOperator, ""
			}
		}
		return contextColumnRef, ""
	}
	return contextColumnRef, last
}

// completeOrderArgs handles completion for the order command:
// column refs, then direction (asc/desc/nulls) after a column.
func completeOrderArgs(args string) (completionContext, string) {
	if strings.HasSuffix(args, " ") {
		parts := strings.Fields(args)
		if len(parts) > 0 {
			last := strings.ToLower(parts[len(parts)-1])
			if strings.Contains(last, ".") {
				return contextOrderDir, ""
			}
		}
		return contextColumnRef, ""
	}
	last := lastToken(args)
	switch strings.ToLower(last) {
	case "a", "as", "d", "de", "des", "n", "nu", "nul", "null", "nulls":
		return contextOrderDir, last
	}
	return contextColumnRef, last
}

// completePluginArgs handles completion for the plugin command:
// plugin names, or after "off" the names of enabled plugins.
func completePluginArgs(args string) (completionContext, string) {
	if strings.HasPrefix(strings.ToLower(args), "off ") {
		return contextPluginOff, strings.TrimSpace(args[4:])
	}
	arg := strings.TrimSpace(args)
	if !strings.Contains(arg, " ") {
		return contextPlugin, arg
	}
	return contextCommand, ""
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/ergochat/readline"
	"github.com/fatih/color"

	"github.com/bawdo/pgquery/internal/document"
	"github.com/bawdo/pgquery/internal/pgexec"
	"github.com/bawdo/pgquery/managers"
	"github.com/bawdo/pgquery/nodes"
	"github.com/bawdo/pgquery/plugins"
	"github.com/bawdo/pgquery/visitors"
)

var errNoQuery = errors.New("no query defined (use 'from <table>' first)")

// setOpEntry records a pushed set operation for the REPL stack approach.
type setOpEntry struct {
	kind  nodes.CombinationKind
	query *nodes.Query
}

// cteEntry records a pushed CTE.
type cteEntry struct {
	name      string
	query     *nodes.Query
	recursive bool
}

// dmlMode tracks which kind of statement the REPL is currently building.
type dmlMode int

const (
	modeSelect dmlMode = iota
	modeUpdateAll
	modeDeleteAll
	modeInsert
	modeUpdate
	modeDelete
)

var modeNames = [...]string{
	modeSelect:    "select",
	modeUpdateAll: "update all",
	modeDeleteAll: "delete all",
	modeInsert:    "insert",
	modeUpdate:    "update",
	modeDelete:    "delete",
}

// Session holds the REPL state: the query being built, the names its
// sources are known by, enabled plugins and the database connection.
type Session struct {
	ctx          context.Context
	logger       *slog.Logger
	visitor      *visitors.PostgresVisitor
	loader       *document.Loader
	query        *managers.SelectManager
	sources      map[string]int // table name or alias -> source index
	sourceNames  []string       // source index -> display name
	plugins      pluginRegistry
	configurers  []pluginConfigurer
	parameterize bool
	commands     []commandEntry // sorted by prefix length desc
	conn         *pgexec.DB     // nil when disconnected
	lastDSN      string
	rl           *readline.Instance
	setOps       []setOpEntry
	ctes         []cteEntry
	mode         dmlMode
	insertQuery  *managers.InsertManager
	updateQuery  *managers.UpdateManager
	deleteQuery  *managers.DeleteManager
	insertCols   []string
	out          io.Writer
}

// NewSession creates a session compiling with v.
func NewSession(ctx context.Context, v *visitors.PostgresVisitor, loader *document.Loader, rl *readline.Instance) *Session {
	s := &Session{
		ctx:          ctx,
		logger:       slog.Default(),
		visitor:      v,
		loader:       loader,
		sources:      make(map[string]int),
		parameterize: true,
		rl:           rl,
		out:          os.Stdout,
	}
	s.configurers = []pluginConfigurer{
		{name: "softdelete", configure: configureSoftdelete},
	}
	s.initCommands()
	return s
}

// pluginNames returns the names of all known plugins (for tab completion).
func (s *Session) pluginNames() []string {
	names := make([]string, len(s.configurers))
	for i, c := range s.configurers {
		names[i] = c.name
	}
	return names
}

// bindValue turns a parsed literal into an expression. With parameterize on
// values are bound to the current query; nil always renders NULL.
func (s *Session) bindValue(v any) nodes.Expr {
	if v == nil || !s.parameterize || s.query == nil {
		return nodes.Literal(v)
	}
	return s.query.Bind(v)
}

// resolveColumn resolves name.field, name.* or a bare field of source 0.
func (s *Session) resolveColumn(ref string) (nodes.Expr, error) {
	if s.query == nil {
		return nil, errNoQuery
	}
	name, field, ok := strings.Cut(ref, ".")
	if !ok {
		return nodes.Col(0, ref), nil
	}
	ix, found := s.sources[name]
	if !found {
		return nil, fmt.Errorf("unknown table or alias %q", name)
	}
	if field == "*" {
		return nodes.AllFields(ix), nil
	}
	if field == "" {
		return nil, fmt.Errorf("missing field after %q", name+".")
	}
	return nodes.Col(ix, field), nil
}

// addSource registers the names a new source is known by.
func (s *Session) addSource(ix int, table, alias string) {
	s.sources[table] = ix
	display := table
	if alias != "" {
		s.sources[alias] = ix
		display = table + " AS " + alias
	}
	s.sourceNames = append(s.sourceNames, display)
}

// tableFor returns the table a source name refers to, or name itself.
func (s *Session) tableFor(name string) string {
	if ix, ok := s.sources[name]; ok && ix < len(s.sourceNames) {
		table, _, _ := strings.Cut(s.sourceNames[ix], " AS ")
		return table
	}
	return name
}

// withKnownFields fills in the columns of a public table when connected so
// that name.* can be expanded.
func (s *Session) withKnownFields(src nodes.Source) nodes.Source {
	if s.conn == nil || src.Prefix != "" || src.Kind != nodes.TableSource {
		return src
	}
	cols, err := s.conn.Columns(s.ctx, src.Table)
	if err != nil {
		s.logger.Debug("column lookup failed", "table", src.Table, "error", err)
		return src
	}
	src.Fields = cols
	return src
}

// sourceSpec splits "table [alias]" or "schema.table [alias]".
func sourceSpec(args string) (nodes.Source, string, string, error) {
	parts := strings.Fields(args)
	if len(parts) == 0 || len(parts) > 2 {
		return nodes.Source{}, "", "", errors.New("expected <table> [alias]")
	}
	alias := ""
	if len(parts) == 2 {
		alias = parts[1]
	}
	if schema, table, ok := strings.Cut(parts[0], "."); ok {
		return nodes.SchemaTable(schema, table), table, alias, nil
	}
	return nodes.Table(parts[0]), parts[0], alias, nil
}

// transformers instantiates the enabled plugins.
func (s *Session) transformers() []plugins.Transformer {
	var ts []plugins.Transformer
	s.plugins.applyTo(func(t plugins.Transformer) { ts = append(ts, t) })
	return ts
}

// buildQuery assembles the current query with pushed CTEs and set
// operations and runs the enabled plugins over it.
func (s *Session) buildQuery() (*nodes.Query, error) {
	if s.query == nil {
		return nil, errNoQuery
	}
	q := s.query.Query()
	if len(s.setOps) > 0 {
		head := s.setOps[0].query.Clone()
		for i, entry := range s.setOps {
			next := q
			if i+1 < len(s.setOps) {
				next = s.setOps[i+1].query
			}
			head.Combinations = append(head.Combinations, nodes.Combination{Kind: entry.kind, Query: next})
		}
		q = head
	}
	for _, cte := range s.ctes {
		q.CTEs = append(q.CTEs, nodes.CTE{Name: cte.name, Query: cte.query})
		if cte.recursive {
			q.RecursiveCTEs = true
		}
	}
	return plugins.Apply(q, s.transformers()...)
}

// GenerateSQL produces the SQL and parameters for the current statement.
func (s *Session) GenerateSQL() (string, []any, error) {
	switch s.mode {
	case modeInsert:
		if s.insertQuery == nil {
			return "", nil, errors.New("no INSERT query defined")
		}
		return s.insertQuery.ToSQL(s.visitor)
	case modeUpdate:
		if s.updateQuery == nil {
			return "", nil, errors.New("no UPDATE query defined")
		}
		return s.updateQuery.ToSQL(s.visitor)
	case modeDelete:
		if s.deleteQuery == nil {
			return "", nil, errors.New("no DELETE query defined")
		}
		return s.deleteQuery.ToSQL(s.visitor)
	}

	q, err := s.buildQuery()
	if err != nil {
		return "", nil, err
	}
	switch s.mode {
	case modeUpdateAll:
		return s.visitor.CompileUpdateAll(q)
	case modeDeleteAll:
		return s.visitor.CompileDeleteAll(q)
	}
	return s.visitor.CompileSelect(q)
}

// Execute parses and runs a single REPL command.
func (s *Session) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	lower := strings.ToLower(line)

	for _, cmd := range s.commands {
		if strings.HasSuffix(cmd.prefix, " ") {
			if strings.HasPrefix(lower, cmd.prefix) {
				return cmd.handler(strings.TrimSpace(line[len(cmd.prefix):]))
			}
		} else if lower == cmd.prefix {
			return cmd.handler("")
		}
	}

	word := strings.Fields(line)[0]
	return fmt.Errorf("unknown command: %s (type 'help' for commands)", word)
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

// setMode switches the statement kind. The single-row kinds discard the
// query builder state.
func (s *Session) setMode(mode dmlMode) {
	s.mode = mode
	if mode >= modeInsert {
		s.resetQuery()
	}
	s.insertQuery = nil
	s.updateQuery = nil
	s.deleteQuery = nil
	s.insertCols = nil
	if s.rl != nil {
		s.rl.SetPrompt(s.prompt())
	}
}

// prompt shows the statement mode when it is not a plain select.
func (s *Session) prompt() string {
	if s.mode == modeSelect {
		return "pgquery> "
	}
	return fmt.Sprintf("pgquery(%s)> ", modeNames[s.mode])
}

func (s *Session) resetQuery() {
	s.query = nil
	s.sources = make(map[string]int)
	s.sourceNames = nil
	s.setOps = nil
	s.ctes = nil
}

func (s *Session) requireQuery() error {
	if s.query == nil {
		return errNoQuery
	}
	if s.mode >= modeInsert {
		return fmt.Errorf("%s mode has no query (use 'from <table>' to start one)", modeNames[s.mode])
	}
	return nil
}

// --- query building ---

func (s *Session) cmdFrom(args string) error {
	src, table, alias, err := sourceSpec(args)
	if err != nil {
		return fmt.Errorf("usage: from <table> [alias]: %w", err)
	}
	if s.mode >= modeInsert {
		s.setMode(modeSelect)
	}
	s.query = managers.NewSelectManager(s.withKnownFields(src))
	s.sources = make(map[string]int)
	s.sourceNames = nil
	s.addSource(0, table, alias)
	s.printf("  Query from %s\n", s.sourceNames[0])
	return nil
}

func (s *Session) cmdSelect(args string) error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	if strings.TrimSpace(args) == "*" {
		s.query.Select(nodes.Frag("*"))
		return nil
	}
	var fields []nodes.SelectField
	for _, part := range splitTopLevelCommas(args) {
		exprText, alias := part, ""
		if i := strings.LastIndex(strings.ToLower(part), " as "); i >= 0 {
			exprText, alias = part[:i], strings.TrimSpace(part[i+4:])
		}
		e, err := s.parseExpression(exprText)
		if err != nil {
			return err
		}
		fields = append(fields, nodes.SelectField{Expr: e, Alias: alias})
	}
	s.query.Select()
	for _, f := range fields {
		s.query.SelectAs(f.Expr, f.Alias)
	}
	return nil
}

func (s *Session) cmdDistinct() error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	s.query.Distinct()
	return nil
}

func (s *Session) cmdDistinctOn(args string) error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	orders, err := s.parseOrders(args)
	if err != nil {
		return err
	}
	s.query.DistinctOn(orders...)
	return nil
}

func (s *Session) cmdWhere(args string, or bool) error {
	if s.mode == modeUpdate || s.mode == modeDelete {
		if or {
			return errors.New("single-row statements only take equality filters")
		}
		return s.cmdFilter(args)
	}
	if err := s.requireQuery(); err != nil {
		return err
	}
	cond, err := s.parseExpression(args)
	if err != nil {
		return err
	}
	if or {
		s.query.OrWhere(cond)
	} else {
		s.query.Where(cond)
	}
	return nil
}

func (s *Session) cmdHaving(args string, or bool) error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	cond, err := s.parseExpression(args)
	if err != nil {
		return err
	}
	if or {
		s.query.OrHaving(cond)
	} else {
		s.query.Having(cond)
	}
	return nil
}

func (s *Session) cmdGroup(args string) error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	var exprs []nodes.Expr
	for _, part := range splitTopLevelCommas(args) {
		e, err := s.parseExpression(part)
		if err != nil {
			return err
		}
		exprs = append(exprs, e)
	}
	s.query.Group(exprs...)
	return nil
}

func (s *Session) cmdOrder(args string) error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	orders, err := s.parseOrders(args)
	if err != nil {
		return err
	}
	s.query.Order(orders...)
	return nil
}

func (s *Session) cmdLimit(args string) error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	e, err := s.parseExpression(args)
	if err != nil {
		return err
	}
	s.query.Limit(e)
	return nil
}

func (s *Session) cmdOffset(args string) error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	e, err := s.parseExpression(args)
	if err != nil {
		return err
	}
	s.query.Offset(e)
	return nil
}

func (s *Session) cmdLock(lock string) error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	s.query.Lock(lock)
	return nil
}

func (s *Session) cmdSkipLocked() error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	lock := s.query.Query().Lock
	if lock == "" {
		return errors.New("skip locked needs a lock mode first (e.g. 'for update')")
	}
	if !strings.HasSuffix(lock, " SKIP LOCKED") {
		s.query.Lock(lock + " SKIP LOCKED")
	}
	return nil
}

// cmdJoin handles "<table> [alias] on <condition>".
func (s *Session) cmdJoin(args string, qual nodes.JoinQual) error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	spec, cond := args, ""
	if i := strings.Index(strings.ToLower(args), " on "); i >= 0 {
		spec, cond = args[:i], strings.TrimSpace(args[i+4:])
	}
	src, table, alias, err := sourceSpec(spec)
	if err != nil {
		return fmt.Errorf("usage: join <table> [alias] on <condition>: %w", err)
	}

	jc := s.query.Join(s.withKnownFields(src), qual)
	s.addSource(jc.Source(), table, alias)
	if cond == "" {
		return nil
	}
	on, err := s.parseExpression(cond)
	if err != nil {
		return err
	}
	jc.On(on)
	return nil
}

// cmdSetOp pushes the current query and starts a fresh one.
func (s *Session) cmdSetOp(kind nodes.CombinationKind) error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	s.setOps = append(s.setOps, setOpEntry{kind: kind, query: s.query.Query()})
	s.query = nil
	s.sources = make(map[string]int)
	s.sourceNames = nil
	s.printf("  Pushed query; use 'from <table>' to build the next one\n")
	return nil
}

// cmdWith pushes the current query as a CTE named by args.
func (s *Session) cmdWith(args string, recursive bool) error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	name := strings.TrimSpace(args)
	if name == "" || strings.ContainsAny(name, " \t") {
		return errors.New("usage: with <name>")
	}
	s.ctes = append(s.ctes, cteEntry{name: name, query: s.query.Query(), recursive: recursive})
	s.query = nil
	s.sources = make(map[string]int)
	s.sourceNames = nil
	s.printf("  Pushed CTE %q; use 'from %s' to query it\n", name, name)
	return nil
}

// cmdUpdateOp records a bulk update operation: "<field> = <expr>" for set,
// "<field> <expr>" for inc, push and pull.
func (s *Session) cmdUpdateOp(kind nodes.UpdateKind, args string) error {
	if s.mode == modeUpdate {
		return s.cmdSet(args)
	}
	if err := s.requireQuery(); err != nil {
		return err
	}
	field, rest := args, ""
	if kind == nodes.SetOp {
		var ok bool
		if field, rest, ok = strings.Cut(args, "="); !ok {
			return errors.New("usage: set <field> = <expr>")
		}
	} else if i := strings.IndexAny(args, " \t"); i >= 0 {
		field, rest = args[:i], args[i+1:]
	}
	field = strings.TrimSpace(field)
	if field == "" || strings.TrimSpace(rest) == "" {
		return errors.New("missing field or value")
	}
	e, err := s.parseExpression(rest)
	if err != nil {
		return err
	}
	switch kind {
	case nodes.IncOp:
		s.query.Inc(field, e)
	case nodes.PushOp:
		s.query.Push(field, e)
	case nodes.PullOp:
		s.query.Pull(field, e)
	default:
		s.query.Set(field, e)
	}
	if s.mode == modeSelect {
		s.mode = modeUpdateAll
		s.printf("  Switched to update all\n")
	}
	return nil
}

func (s *Session) cmdMode(args string) error {
	for mode, name := range modeNames[:modeInsert] {
		if strings.EqualFold(strings.Join(strings.Fields(args), " "), name) {
			return s.cmdBulkMode(dmlMode(mode))
		}
	}
	return errors.New("usage: mode select|update all|delete all")
}

func (s *Session) cmdBulkMode(mode dmlMode) error {
	if err := s.requireQuery(); err != nil {
		return err
	}
	s.mode = mode
	s.printf("  Mode: %s\n", modeNames[mode])
	return nil
}

// --- display ---

func (s *Session) cmdSQL() error {
	sql, params, err := s.GenerateSQL()
	if err != nil {
		return err
	}
	s.printSQL(sql, params)
	return nil
}

func (s *Session) printSQL(sql string, params []any) {
	s.printf("  %s\n", color.CyanString(sql))
	if len(params) > 0 {
		s.printf("  %s %v\n", color.YellowString("params:"), params)
	}
}

func (s *Session) cmdAST() error {
	switch s.mode {
	case modeInsert, modeUpdate, modeDelete:
		s.printf("  Mode: %s\n", modeNames[s.mode])
		return nil
	}
	if s.query == nil {
		return errNoQuery
	}
	q := s.query.Query()
	s.printf("  Mode:   %s\n", modeNames[s.mode])
	for _, cte := range s.ctes {
		kind := "WITH"
		if cte.recursive {
			kind = "WITH RECURSIVE"
		}
		s.printf("  %s %s\n", kind, cte.name)
	}
	for i, entry := range s.setOps {
		s.printf("  QUERY[%d]: %s\n", i, combinationNames[entry.kind])
	}
	for i, name := range s.sourceNames {
		s.printf("  SOURCE[%d]: %s\n", i, name)
	}
	for i, j := range q.Joins {
		s.printf("  JOIN[%d]: %s %s\n", i, j.Qual, s.sourceNames[j.Source])
	}
	if q.Select != nil {
		s.printf("  SELECT: %d field(s)\n", len(q.Select.Fields))
	} else {
		s.printf("  SELECT: TRUE\n")
	}
	if q.Distinct != nil {
		s.printf("  DISTINCT: %d expression(s)\n", len(q.Distinct.On))
	}
	if len(q.Wheres) > 0 {
		s.printf("  WHERE:  %d condition(s)\n", len(q.Wheres))
	}
	if len(q.GroupBy) > 0 {
		s.printf("  GROUP:  %d expression(s)\n", len(q.GroupBy))
	}
	if len(q.Havings) > 0 {
		s.printf("  HAVING: %d condition(s)\n", len(q.Havings))
	}
	if len(q.OrderBy) > 0 {
		s.printf("  ORDER:  %d expression(s)\n", len(q.OrderBy))
	}
	if q.Limit != nil {
		s.printf("  LIMIT:  set\n")
	}
	if q.Offset != nil {
		s.printf("  OFFSET: set\n")
	}
	if q.Lock != "" {
		s.printf("  LOCK:   %s\n", q.Lock)
	}
	if len(q.Updates) > 0 {
		s.printf("  UPDATES: %d operation(s)\n", len(q.Updates))
	}
	if len(q.Params) > 0 {
		s.printf("  PARAMS: %v\n", q.Params)
	}
	for _, entry := range s.plugins.entries {
		s.printf("  Plugin: %s (%s)\n", entry.name, entry.status())
	}
	return nil
}

var combinationNames = [...]string{
	nodes.Union:        "UNION",
	nodes.UnionAll:     "UNION ALL",
	nodes.Except:       "EXCEPT",
	nodes.ExceptAll:    "EXCEPT ALL",
	nodes.Intersect:    "INTERSECT",
	nodes.IntersectAll: "INTERSECT ALL",
}

func (s *Session) cmdReset() error {
	s.setMode(modeSelect)
	s.resetQuery()
	s.printf("  Query reset\n")
	return nil
}

func (s *Session) cmdTables() error {
	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		s.printf("  Query sources: %s\n", strings.Join(names, ", "))
	}
	if s.conn == nil {
		if len(names) == 0 {
			s.printf("  No sources (not connected)\n")
		}
		return nil
	}
	tables, err := s.conn.Tables(s.ctx)
	if err != nil {
		return err
	}
	s.printf("  Database tables: %s\n", strings.Join(tables, ", "))
	return nil
}

func (s *Session) cmdParameterize() error {
	s.parameterize = !s.parameterize
	state := "off"
	if s.parameterize {
		state = "on"
	}
	s.printf("  Parameterize: %s\n", state)
	return nil
}

// --- plugins ---

func (s *Session) cmdPlugin(args string) error {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return errors.New("usage: plugin <name> [options] | plugin off [name]")
	}
	if strings.EqualFold(parts[0], "off") {
		return s.cmdPluginOff(parts[1:])
	}
	for _, c := range s.configurers {
		if strings.EqualFold(parts[0], c.name) {
			return c.configure(s, strings.TrimSpace(args[len(parts[0]):]))
		}
	}
	return fmt.Errorf("unknown plugin %q (available: %s)", parts[0], strings.Join(s.pluginNames(), ", "))
}

func (s *Session) cmdPluginOff(names []string) error {
	if len(names) == 0 {
		s.plugins.deregisterAll()
		s.printf("  All plugins disabled\n")
		return nil
	}
	for _, name := range names {
		if !s.plugins.deregister(name) {
			return fmt.Errorf("plugin %q is not enabled", name)
		}
		s.printf("  Plugin %s disabled\n", name)
	}
	return nil
}

func (s *Session) cmdPlugins() {
	if len(s.plugins.entries) == 0 {
		s.printf("  No plugins enabled\n")
		return
	}
	for _, e := range s.plugins.entries {
		s.printf("  %s: %s\n", e.name, e.status())
	}
}

// --- documents ---

// cmdLoad compiles a statement document and prints its SQL.
func (s *Session) cmdLoad(path string) error {
	if path == "" {
		return errors.New("usage: load <file>")
	}
	stmt, err := s.loader.LoadStatement(path)
	if err != nil {
		return err
	}
	sql, params, err := stmt.Compile(s.visitor, s.transformers()...)
	if err != nil {
		return err
	}
	s.printSQL(sql, params)
	return nil
}

// cmdDDL compiles a migration document and prints its statements.
func (s *Session) cmdDDL(args string) error {
	fields := strings.Fields(args)
	reverse := false
	if len(fields) == 2 && fields[0] == "reverse" {
		reverse, fields = true, fields[1:]
	}
	if len(fields) != 1 {
		return errors.New("usage: ddl [reverse] <file>")
	}
	m, err := s.loader.LoadMigration(fields[0])
	if err != nil {
		return err
	}
	stmts, err := m.Compile(s.visitor, reverse)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		s.printf("  %s;\n", color.CyanString(stmt))
	}
	return nil
}

// --- database ---

func (s *Session) cmdConnect(args string) error {
	dsn := strings.TrimSpace(args)
	if dsn == "" {
		dsn = s.lastDSN
	}
	if dsn == "" {
		return errors.New("usage: connect <dsn>")
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	conn, err := pgexec.Open(s.ctx, dsn, pgexec.WithLogger(s.logger))
	if err != nil {
		return err
	}
	s.conn = conn
	s.lastDSN = dsn
	s.printf("  Connected to %s\n", pgexec.SanitizeDSN(dsn))
	return nil
}

func (s *Session) cmdDisconnect() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	err := s.conn.Close()
	s.conn = nil
	s.printf("  Disconnected\n")
	return err
}

func (s *Session) cmdExec() error {
	if s.conn == nil {
		return errors.New("not connected (use 'connect <dsn>' first)")
	}
	sql, params, err := s.GenerateSQL()
	if err != nil {
		return err
	}
	s.printSQL(sql, params)

	returns := strings.Contains(sql, " RETURNING ")
	if s.mode == modeSelect || returns {
		res, err := s.conn.Query(s.ctx, sql, params)
		if err != nil {
			return err
		}
		s.printf("%s", res)
		return nil
	}
	n, err := s.conn.Exec(s.ctx, sql, params)
	if err != nil {
		return err
	}
	s.printf("  %d row(s) affected\n", n)
	return nil
}

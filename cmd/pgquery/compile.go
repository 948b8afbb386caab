package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bawdo/pgquery/internal/document"
	"github.com/bawdo/pgquery/internal/pgexec"
	"github.com/bawdo/pgquery/internal/watch"
	"github.com/bawdo/pgquery/plugins"
	"github.com/bawdo/pgquery/plugins/softdelete"
	"github.com/bawdo/pgquery/visitors"
)

type compileOptions struct {
	exec       bool
	watch      bool
	json       bool
	softDelete string
}

func (a *app) compileCmd() *cobra.Command {
	var opts compileOptions
	cmd := &cobra.Command{
		Use:   "compile <file>...",
		Short: "Compile statement documents to SQL",
		Long: `Compile one or more YAML statement documents to PostgreSQL text.

Each document is printed as "-- <file>" followed by the statement and its
parameters. With --exec the statement is also run against the configured
database. With --watch the files are recompiled whenever they change.`,
		Example: `  pgquery compile queries/active_users.yaml
  pgquery compile --soft-delete deleted_at queries/*.yaml
  pgquery compile --exec --watch queries/report.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompile(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.exec, "exec", false, "run each statement against the configured database")
	f.BoolVar(&opts.watch, "watch", false, "recompile documents when they change")
	f.BoolVar(&opts.json, "json", false, "print one JSON object per document")
	f.StringVar(&opts.softDelete, "soft-delete", "", `filter soft-deleted rows ("<col>", "<col> on <tables>" or "t.col, ...")`)
	return cmd
}

// statementCompiler compiles documents and prints the result.
type statementCompiler struct {
	out          io.Writer
	logger       *slog.Logger
	loader       *document.Loader
	visitor      *visitors.PostgresVisitor
	transformers []plugins.Transformer
	prefix       string
	json         bool
	db           *pgexec.DB
}

type compiledStatement struct {
	File   string `json:"file"`
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

func (a *app) runCompile(cmd *cobra.Command, files []string, opts compileOptions) error {
	ctx := cmd.Context()
	c := &statementCompiler{
		out:     cmd.OutOrStdout(),
		logger:  a.logger,
		loader:  a.loader(),
		visitor: a.visitor(),
		prefix:  a.cfg.Compile.Prefix,
		json:    opts.json,
	}
	if opts.softDelete != "" {
		sdOpts, status, err := softdeleteOptions(opts.softDelete)
		if err != nil {
			return fmt.Errorf("--soft-delete: %w", err)
		}
		a.logger.Debug("soft-delete enabled", "columns", status)
		c.transformers = append(c.transformers, softdelete.New(sdOpts...))
	}
	if opts.exec {
		db, err := a.openDB(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		c.db = db
	}

	for _, f := range files {
		if err := c.compileFile(ctx, f); err != nil {
			if !opts.watch {
				return err
			}
			a.logger.Error("compile failed", "file", f, "error", err)
		}
	}
	if !opts.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	w, err := watch.New(files, func(path string) error {
		return c.compileFile(ctx, path)
	}, watch.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.logger.Info("watching for changes", "files", len(files))
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (c *statementCompiler) compileFile(ctx context.Context, path string) error {
	stmt, err := c.loader.LoadStatement(path)
	if err != nil {
		return DocumentError("loading document", err)
	}
	if stmt.Prefix == "" {
		stmt.Prefix = c.prefix
	}
	sql, params, err := stmt.Compile(c.visitor, c.transformers...)
	if err != nil {
		return DocumentError("compiling "+path, err)
	}
	c.logger.Debug("compiled statement", "file", path, "kind", stmt.Kind, "params", len(params))

	if c.json {
		if params == nil {
			params = []any{}
		}
		if err := json.NewEncoder(c.out).Encode(compiledStatement{File: path, SQL: sql, Params: params}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(c.out, "-- %s\n%s;\n", path, sql)
		if len(params) > 0 {
			fmt.Fprintf(c.out, "-- params: %v\n", params)
		}
	}

	if c.db == nil {
		return nil
	}
	return c.run(ctx, stmt, sql, params)
}

// run executes a compiled statement, printing rows for anything that
// returns them.
func (c *statementCompiler) run(ctx context.Context, stmt *document.Statement, sql string, params []any) error {
	if stmt.Kind == document.KindSelect || len(stmt.Returning) > 0 {
		res, err := c.db.Query(ctx, sql, params)
		if err != nil {
			return err
		}
		fmt.Fprint(c.out, res.String())
		return nil
	}
	n, err := c.db.Exec(ctx, sql, params)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "-- %d row(s) affected\n", n)
	return nil
}

// openDB connects to the configured database.
func (a *app) openDB(ctx context.Context) (*pgexec.DB, error) {
	dsn, err := a.cfg.DSN()
	if err != nil {
		return nil, ConfigError("database configuration", err)
	}
	db, err := pgexec.Open(ctx, dsn, pgexec.WithLogger(a.logger))
	if err != nil {
		return nil, DBConnectError("connecting to "+pgexec.SanitizeDSN(dsn), err)
	}
	a.logger.Debug("connected", "dsn", pgexec.SanitizeDSN(dsn))
	return db, nil
}

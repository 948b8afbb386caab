package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type ddlOptions struct {
	reverse bool
	apply   bool
}

func (a *app) ddlCmd() *cobra.Command {
	var opts ddlOptions
	cmd := &cobra.Command{
		Use:   "ddl [file|dir]...",
		Short: "Compile migration documents to DDL statements",
		Long: `Compile migration documents to PostgreSQL DDL.

Arguments may be migration files or directories of them. Directories are
expanded to their .yaml and .yml files in lexical order. Without arguments
the configured ddl.dir is used.

With --reverse the migrations are undone, last file first. With --apply
each file's statements run against the configured database, in a
transaction unless they build an index concurrently.`,
		Example: `  pgquery ddl migrations/
  pgquery ddl --reverse migrations/20240101_create_posts.yaml
  pgquery ddl --apply`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDDL(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.reverse, "reverse", false, "compile the reverse of each migration, last file first")
	f.BoolVar(&opts.apply, "apply", false, "apply the statements to the configured database")
	return cmd
}

func (a *app) runDDL(cmd *cobra.Command, args []string, opts ddlOptions) error {
	ctx := cmd.Context()
	if len(args) == 0 {
		args = []string{a.cfg.DDL.Dir}
	}
	files, err := a.migrationFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return DocumentError("no migration documents found", nil)
	}
	if opts.reverse {
		slices.Reverse(files)
	}

	loader, v := a.loader(), a.visitor()
	compiled := make([][]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.cfg.DDL.Workers, 1))
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := loader.LoadMigration(file)
			if err != nil {
				return DocumentError("loading migration", err)
			}
			stmts, err := m.Compile(v, opts.reverse)
			if err != nil {
				return DocumentError("compiling "+file, err)
			}
			compiled[i] = stmts
			a.logger.Debug("compiled migration", "file", file, "statements", len(stmts))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, file := range files {
		fmt.Fprintf(out, "-- %s\n", file)
		for _, stmt := range compiled[i] {
			fmt.Fprintf(out, "%s;\n", stmt)
		}
	}
	if !opts.apply {
		return nil
	}

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	for i, file := range files {
		if err := db.ApplyDDL(ctx, compiled[i]); err != nil {
			return fmt.Errorf("applying %s: %w", file, err)
		}
		a.logger.Info("applied migration", "file", file, "statements", len(compiled[i]))
	}
	return nil
}

// migrationFiles expands directory arguments, keeping argument order.
func (a *app) migrationFiles(args []string) ([]string, error) {
	loader := a.loader()
	var files []string
	for _, arg := range args {
		isDir, err := afero.IsDir(a.fs, arg)
		if err != nil {
			if errors.Is(err, afero.ErrFileNotFound) {
				return nil, DocumentError("migration path not found", err)
			}
			return nil, DocumentError("reading "+arg, err)
		}
		if !isDir {
			files = append(files, arg)
			continue
		}
		matches, err := loader.Glob(arg)
		if err != nil {
			return nil, DocumentError("listing "+arg, err)
		}
		files = append(files, matches...)
	}
	return files, nil
}

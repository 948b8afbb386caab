package main

import (
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bawdo/pgquery/internal/config"
	"github.com/bawdo/pgquery/internal/document"
	"github.com/bawdo/pgquery/visitors"
)

// app is the state shared by all commands, set during PersistentPreRunE.
type app struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	fs         afero.Fs

	// persistent flags
	cfgFile  string
	logLevel string
}

// Command group IDs
const (
	groupCompile = "compile"
	groupUtility = "utility"
)

func newRootCmd() *cobra.Command {
	a := &app{fs: afero.NewOsFs()}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pgquery",
		Short: "PostgreSQL query compiler",
		Long: `pgquery - PostgreSQL query compiler

pgquery compiles relational query documents and schema migrations to
PostgreSQL text with numbered parameters, and can run the result.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip config loading for help/completion/version commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
				return nil
			}
			return a.loadConfig(cmd)
		},
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: auto-discover pgquery.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddGroup(
		&cobra.Group{ID: groupCompile, Title: "Compile:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	compile, ddl, repl, version := a.compileCmd(), a.ddlCmd(), a.replCmd(), versionCmd()
	compile.GroupID = groupCompile
	ddl.GroupID = groupCompile
	repl.GroupID = groupUtility
	version.GroupID = groupUtility
	root.AddCommand(compile, ddl, repl, version)
	return root
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	var err error
	a.cfg, a.configPath, err = config.LoadConfig(a.cfgFile)
	if err != nil {
		return ConfigError("loading configuration", err)
	}
	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}
	a.logger, err = a.cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return ConfigError("configuring logger", err)
	}
	slog.SetDefault(a.logger)
	if a.configPath != "" {
		a.logger.Debug("loaded config", "path", a.configPath)
	}
	return nil
}

// visitor returns the compiler configured by the compile section.
func (a *app) visitor() *visitors.PostgresVisitor {
	var opts []visitors.Option
	if a.cfg.Compile.NativeIfNotExists {
		opts = append(opts, visitors.WithNativeIfNotExists())
	}
	return visitors.NewPostgresVisitor(opts...)
}

func (a *app) loader() *document.Loader {
	return document.NewLoader(a.fs)
}

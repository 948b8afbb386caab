package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"
)

func (a *app) replCmd() *cobra.Command {
	var noConnect bool
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Build and run queries interactively",
		Long: `Start an interactive session for building queries one clause at a time.

The session connects to the configured database when one is set, which
enables 'exec' and table and column completion. Type 'help' for the
command list and 'exit' to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runREPL(cmd, noConnect)
		},
	}
	cmd.Flags().BoolVar(&noConnect, "no-connect", false, "do not connect to the configured database on start")
	return cmd
}

func (a *app) runREPL(cmd *cobra.Command, noConnect bool) error {
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          "pgquery> ",
		HistoryFile:     historyPath(),
		HistoryLimit:    500,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer func() { _ = rl.Close() }()

	sess := NewSession(cmd.Context(), a.visitor(), a.loader(), rl)
	sess.logger = a.logger
	sess.out = cmd.OutOrStdout()
	_ = rl.SetConfig(&readline.Config{
		Prompt:          sess.prompt(),
		HistoryFile:     historyPath(),
		HistoryLimit:    500,
		AutoComplete:    &replCompleter{sess: sess},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	defer func() {
		if sess.conn != nil {
			_ = sess.conn.Close()
		}
	}()

	if !noConnect {
		a.autoConnect(sess, cmd.ErrOrStderr())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "pgquery REPL. Type 'help' for commands, 'exit' to quit")
	fmt.Fprintln(out)

	runLoop(rl, sess, cmd.ErrOrStderr())
	fmt.Fprintln(out)
	return nil
}

// autoConnect connects when the configuration names a database. Failure is
// only a warning; 'connect' can retry.
func (a *app) autoConnect(sess *Session, stderr io.Writer) {
	dsn, err := a.cfg.DSN()
	if err != nil {
		a.logger.Debug("no database configured", "reason", err)
		return
	}
	if err := sess.cmdConnect(dsn); err != nil {
		fmt.Fprintf(stderr, "  Warning: connect failed: %v\n", err)
		fmt.Fprintln(stderr, "  Use 'connect <dsn>' to retry")
	}
}

// lineReader is the part of *readline.Instance the loop reads from.
type lineReader interface {
	ReadLine() (string, error)
}

// runLoop executes lines until exit, quit or end of input.
func runLoop(r lineReader, sess *Session, stderr io.Writer) {
	for {
		line, err := r.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "exit" || lower == "quit" {
			return
		}
		if err := sess.Execute(line); err != nil {
			fmt.Fprintf(stderr, "  Error: %v\n", err)
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pgquery_history")
}

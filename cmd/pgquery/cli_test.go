package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersQuery = `
statement: select
from: users
where:
  - {"==": [{col: [0, id]}, {param: 0}]}
params: [7]
`

const usersMigration = `
operations:
  - create_table:
      name: users
      columns:
        - {name: id, type: serial, primary_key: true}
`

const usersIndexMigration = `
operations:
  - create_index: {table: users, columns: [email]}
`

type cliResult struct {
	out, err string
	runErr   error
}

// runCLI runs the root command over fs with a quiet config file.
func runCLI(t *testing.T, fs afero.Fs, config string, args ...string) cliResult {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "pgquery.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: error\n"+config), 0o644))

	a := &app{fs: fs}
	root := a.rootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return cliResult{out: out.String(), err: errOut.String(), runErr: err}
}

func writeFiles(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func exitCode(err error) int {
	return reportError(io.Discard, err)
}

func TestVersionCommand(t *testing.T) {
	res := runCLI(t, afero.NewMemMapFs(), "", "version")
	require.NoError(t, res.runErr)
	assert.True(t, strings.HasPrefix(res.out, "pgquery "), res.out)
	assert.Contains(t, res.out, "commit:")
}

func TestCompileCommand(t *testing.T) {
	fs := writeFiles(t, map[string]string{"q/users.yaml": usersQuery})

	res := runCLI(t, fs, "", "compile", "q/users.yaml")
	require.NoError(t, res.runErr)
	assert.Equal(t, "-- q/users.yaml\n"+
		`SELECT TRUE FROM "users" AS u0 WHERE (u0."id" = $1);`+"\n"+
		"-- params: [7]\n", res.out)
}

func TestCompileUsesConfiguredPrefix(t *testing.T) {
	fs := writeFiles(t, map[string]string{"q/users.yaml": usersQuery})

	res := runCLI(t, fs, "compile:\n  prefix: app\n", "compile", "q/users.yaml")
	require.NoError(t, res.runErr)
	assert.Contains(t, res.out, `FROM "app"."users" AS u0`)
}

func TestCompileSoftDelete(t *testing.T) {
	fs := writeFiles(t, map[string]string{"q/all.yaml": "statement: select\nfrom: users\n"})

	res := runCLI(t, fs, "", "compile", "--soft-delete", "removed_at", "q/all.yaml")
	require.NoError(t, res.runErr)
	assert.Contains(t, res.out, `SELECT TRUE FROM "users" AS u0 WHERE (u0."removed_at" IS NULL);`)

	res = runCLI(t, fs, "", "compile", "--soft-delete", "users.", "q/all.yaml")
	require.Error(t, res.runErr)
	assert.Contains(t, res.runErr.Error(), "--soft-delete")
}

func TestCompileJSON(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"q/users.yaml": usersQuery,
		"q/all.yaml":   "statement: delete_all\nfrom: sessions\n",
	})

	res := runCLI(t, fs, "", "compile", "--json", "q/users.yaml", "q/all.yaml")
	require.NoError(t, res.runErr)

	dec := json.NewDecoder(strings.NewReader(res.out))
	var first, second compiledStatement
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, "q/users.yaml", first.File)
	assert.Equal(t, `SELECT TRUE FROM "users" AS u0 WHERE (u0."id" = $1)`, first.SQL)
	assert.Equal(t, []any{float64(7)}, first.Params)

	assert.Equal(t, `DELETE FROM "sessions" AS s0`, second.SQL)
	assert.Empty(t, second.Params)
}

func TestCompileErrors(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"q/bad.yaml":    "statement: select\nfrom: users\nbogus: 1\n",
		"q/nokind.yaml": "from: users\n",
		"q/users.yaml":  usersQuery,
		"q/empty.yaml":  "",
	})

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing file", []string{"compile", "q/missing.yaml"}, ExitDocument},
		{"unknown key", []string{"compile", "q/bad.yaml"}, ExitDocument},
		{"no statement kind", []string{"compile", "q/nokind.yaml"}, ExitDocument},
		{"empty document", []string{"compile", "q/empty.yaml"}, ExitDocument},
		{"no arguments", []string{"compile"}, ExitGeneral},
		{"exec without database", []string{"compile", "--exec", "q/users.yaml"}, ExitConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, fs, "", tt.args...)
			require.Error(t, res.runErr)
			assert.Equal(t, tt.code, exitCode(res.runErr), res.runErr.Error())
		})
	}
}

func TestDDLCommand(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"migrations/001_users.yaml":      usersMigration,
		"migrations/002_users_email.yml": usersIndexMigration,
		"migrations/README.md":           "not a migration",
	})

	res := runCLI(t, fs, "", "ddl")
	require.NoError(t, res.runErr)
	assert.Equal(t, "-- migrations/001_users.yaml\n"+
		`CREATE TABLE "users" ("id" serial, PRIMARY KEY ("id"));`+"\n"+
		"-- migrations/002_users_email.yml\n"+
		`CREATE INDEX "users_email_index" ON "users" ("email");`+"\n", res.out)
}

func TestDDLReverse(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"db/001_users.yaml":       usersMigration,
		"db/002_users_email.yaml": usersIndexMigration,
	})

	res := runCLI(t, fs, "", "ddl", "--reverse", "db")
	require.NoError(t, res.runErr)
	assert.Equal(t, "-- db/002_users_email.yaml\n"+
		`DROP INDEX "users_email_index";`+"\n"+
		"-- db/001_users.yaml\n"+
		`DROP TABLE "users";`+"\n", res.out)
}

func TestDDLConfiguredDirAndWorkers(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		files["schema/"+name+".yaml"] = strings.ReplaceAll(usersMigration, "users", name)
	}
	fs := writeFiles(t, files)

	res := runCLI(t, fs, "ddl:\n  dir: schema\n  workers: 2\n", "ddl")
	require.NoError(t, res.runErr)

	// Output follows file order regardless of which worker finished first.
	var order []string
	for _, line := range strings.Split(res.out, "\n") {
		if name, ok := strings.CutPrefix(line, "-- schema/"); ok {
			order = append(order, name)
		}
	}
	assert.Equal(t, []string{"a.yaml", "b.yaml", "c.yaml", "d.yaml", "e.yaml", "f.yaml"}, order)
}

func TestDDLErrors(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"empty/.keep":       "",
		"bad/001.yaml":      "operations:\n  - frobnicate: {}\n",
		"irrev/001.yaml":    "operations:\n  - execute: {up: \"SELECT 1\"}\n",
		"migrations/x.yaml": usersMigration,
	})

	tests := []struct {
		name     string
		args     []string
		code     int
		contains string
	}{
		{"missing path", []string{"ddl", "nope"}, ExitDocument, "not found"},
		{"empty directory", []string{"ddl", "empty"}, ExitDocument, "no migration documents"},
		{"unknown operation", []string{"ddl", "bad"}, ExitDocument, "unknown operation"},
		{"irreversible", []string{"ddl", "--reverse", "irrev"}, ExitDocument, "irrev/001.yaml"},
		{"apply without database", []string{"ddl", "--apply"}, ExitConfig, "database configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, fs, "", tt.args...)
			require.Error(t, res.runErr)
			assert.Equal(t, tt.code, exitCode(res.runErr))
			assert.Contains(t, res.runErr.Error(), tt.contains)
		})
	}
}

func TestConfigErrors(t *testing.T) {
	a := &app{fs: afero.NewMemMapFs()}
	root := a.rootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "ddl"})
	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitConfig, exitCode(err))

	res := runCLI(t, afero.NewMemMapFs(), "", "--log-level", "loud", "ddl")
	require.Error(t, res.runErr)
	assert.Equal(t, ExitConfig, exitCode(res.runErr))
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	code := reportError(&buf, DBConnectError("connecting to postgres://localhost/app", errors.New("refused")))
	assert.Equal(t, ExitDBConnect, code)
	assert.Contains(t, buf.String(), "connecting to postgres://localhost/app: refused")

	assert.Equal(t, ExitGeneral, reportError(io.Discard, errors.New("plain")))
}

// scriptedReader feeds fixed lines to the REPL loop.
type scriptedReader struct {
	lines []string
}

func (r *scriptedReader) ReadLine() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func TestRunLoop(t *testing.T) {
	sess := newTestSession(t, nil)
	var out, errOut bytes.Buffer
	sess.out = &out

	runLoop(&scriptedReader{lines: []string{
		"from users",
		"   ",
		"bogus command",
		"where id = 1",
		"sql",
		"QUIT",
		"from never_reached",
	}}, sess, &errOut)

	assert.Contains(t, errOut.String(), "Error: unknown command: bogus")
	assert.Contains(t, out.String(), `SELECT TRUE FROM "users" AS u0 WHERE (u0."id" = $1)`)
	_, ok := sess.sources["never_reached"]
	assert.False(t, ok, "lines after quit must not run")
}

func TestRunLoopStopsAtEOF(t *testing.T) {
	sess := newTestSession(t, nil)
	var errOut bytes.Buffer
	runLoop(&scriptedReader{lines: []string{"from users"}}, sess, &errOut)
	assert.Empty(t, errOut.String())
	assert.NotNil(t, sess.query)
}

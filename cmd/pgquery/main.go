// Command pgquery compiles query and migration documents to PostgreSQL,
// optionally runs them, and offers an interactive query builder.
//
// Usage:
//
//	pgquery compile queries/*.yaml [--exec] [--watch]
//	pgquery ddl [migrations/] [--reverse] [--apply]
//	pgquery repl
//
// Configuration is read from pgquery.yaml (discovered by walking up to the
// repository root), .env files and PGQUERY_ environment variables.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

package visitors

import (
	"errors"
	"fmt"

	"github.com/bawdo/pgquery/internal/quoting"
	"github.com/bawdo/pgquery/nodes"
)

// Error kinds. Every CompileError unwraps to one of these.
var (
	// ErrMalformedQuery reports a query value the compiler cannot render:
	// an out-of-range source or parameter index, a missing field list, an
	// invalid identifier and similar builder-side mistakes.
	ErrMalformedQuery = errors.New("malformed query")

	// ErrUnsupported reports a construct PostgreSQL cannot express.
	ErrUnsupported = errors.New("unsupported by postgres")
)

// CompileError is returned by every Compile method. Clause names the clause
// being rendered ("where", "join", "insert", ...) and Query is the query that
// was being compiled, when there is one.
type CompileError struct {
	Kind   error
	Clause string
	Query  *nodes.Query
	Msg    string
}

func (e *CompileError) Error() string {
	if e.Clause == "" {
		return fmt.Sprintf("pgquery: %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("pgquery: %s in %s: %s", e.Kind, e.Clause, e.Msg)
}

func (e *CompileError) Unwrap() error { return e.Kind }

func malformed(format string, args ...any) *CompileError {
	return &CompileError{Kind: ErrMalformedQuery, Msg: fmt.Sprintf(format, args...)}
}

func unsupported(format string, args ...any) *CompileError {
	return &CompileError{Kind: ErrUnsupported, Msg: fmt.Sprintf(format, args...)}
}

// asCompileError converts err into a *CompileError tagged with clause and q,
// keeping any tags already present.
func asCompileError(err error, clause string, q *nodes.Query) error {
	if err == nil {
		return nil
	}
	var ce *CompileError
	if !errors.As(err, &ce) {
		kind := ErrMalformedQuery
		if errors.Is(err, ErrUnsupported) {
			kind = ErrUnsupported
		}
		ce = &CompileError{Kind: kind, Msg: err.Error()}
		if errors.Is(err, quoting.ErrQuoteInIdentifier) {
			ce.Msg = "invalid identifier: " + err.Error()
		}
	}
	if ce.Clause == "" {
		ce.Clause = clause
	}
	if ce.Query == nil {
		ce.Query = q
	}
	return ce
}

// Package testutil provides shared test helpers for the pgquery project.
package testutil

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/bawdo/pgquery/nodes"
	"github.com/bawdo/pgquery/sqlbuf"
)

// Dollar is the PostgreSQL placeholder format used by the helpers.
func Dollar(i int) string { return fmt.Sprintf("$%d", i) }

// AssertEqual checks that got == want and reports a descriptive error if not.
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("expected:\n  %v\ngot:\n  %v", want, got)
	}
}

// AssertSQL renders node with the visitor and compares the SQL text with
// the expected string.
func AssertSQL(t *testing.T, v nodes.Visitor, node nodes.Expr, expected string) {
	t.Helper()
	var b sqlbuf.Buffer
	if err := node.Accept(v, &b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := b.Build(Dollar)
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}
}

// AssertParams compares bound parameter lists element by element.
func AssertParams(t *testing.T, got, want []any) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected params:\n  %#v\ngot:\n  %#v", want, got)
	}
}

// AssertNoError fails the test if err is non-nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error but got nil")
	}
}

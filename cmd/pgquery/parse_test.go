package main

import (
	"reflect"
	"testing"

	"github.com/bawdo/pgquery/internal/testutil"
	"github.com/bawdo/pgquery/nodes"
)

func TestTokenize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected []string
	}{
		{"users.age > 18", []string{"users.age", ">", "18"}},
		{"users.name = 'John Smith'", []string{"users.name", "=", "'John Smith'"}},
		{"a != b", []string{"a", "!=", "b"}},
		{"a<>b", []string{"a", "<>", "b"}},
		{"a<=b and c>=d", []string{"a", "<=", "b", "and", "c", ">=", "d"}},
		{"id::text", []string{"id", "::", "text"}},
		{"count(*)", []string{"count", "(", "*", ")"}},
		{"u.*", []string{"u.*"}},
		{"a+b*2", []string{"a", "+", "b", "*", "2"}},
		{"name = 'it''s'", []string{"name", "=", "'it''s'"}},
		{"id in (1, 2)", []string{"id", "in", "(", "1", ",", "2", ")"}},
		{"   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got := tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("tokenize(%q) = %#v, want %#v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		token    string
		expected any
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"3.5", 3.5},
		{"'hello'", "hello"},
		{"'it''s'", "it's"},
		{"''", ""},
		{"TRUE", true},
		{"false", false},
		{"null", nil},
		{"default", nodes.Default},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			t.Parallel()
			got, err := parseValue(tt.token)
			testutil.AssertNoError(t, err)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("parseValue(%q) = %#v, want %#v", tt.token, got, tt.expected)
			}
		})
	}

	if _, err := parseValue("abc"); err == nil {
		t.Error("expected an error for a bare word")
	}
}

func TestSplitTopLevelCommas(t *testing.T) {
	t.Parallel()
	got := splitTopLevelCommas("a, lower(b, c), 'x,y'")
	want := []string{"a", "lower(b, c)", "'x,y'"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
	if got := splitTopLevelCommas(""); got != nil {
		t.Errorf("expected nil for empty input, got %#v", got)
	}
}

func TestParseValueList(t *testing.T) {
	t.Parallel()
	got, err := parseValueList("1, 'a, b', null")
	testutil.AssertNoError(t, err)
	want := []any{int64(1), "a, b", nil}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}

	_, err = parseValueList("1, nope")
	testutil.AssertError(t, err)
}

func TestParseOrders(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, nil)
	testutil.AssertNoError(t, sess.Execute("from users"))

	tests := []struct {
		input string
		dirs  []nodes.Direction
	}{
		{"name", []nodes.Direction{nodes.Asc}},
		{"name asc", []nodes.Direction{nodes.Asc}},
		{"name DESC", []nodes.Direction{nodes.Desc}},
		{"name nulls first", []nodes.Direction{nodes.AscNullsFirst}},
		{"name asc nulls last", []nodes.Direction{nodes.AscNullsLast}},
		{"name desc nulls first", []nodes.Direction{nodes.DescNullsFirst}},
		{"name desc nulls last, id", []nodes.Direction{nodes.DescNullsLast, nodes.Asc}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			orders, err := sess.parseOrders(tt.input)
			testutil.AssertNoError(t, err)
			if len(orders) != len(tt.dirs) {
				t.Fatalf("expected %d orders, got %d", len(tt.dirs), len(orders))
			}
			for i, o := range orders {
				testutil.AssertEqual(t, o.Dir, tt.dirs[i])
			}
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	t.Parallel()
	for token, want := range map[string]bool{
		"users":      true,
		"u.name":     true,
		"u.*":        true,
		"_col1":      true,
		"1abc":       false,
		"a-b":        false,
		"":           false,
		"'quoted'":   false,
		"u.*.x":      false,
		"price_2024": true,
	} {
		if got := isIdentifier(token); got != want {
			t.Errorf("isIdentifier(%q) = %v, want %v", token, got, want)
		}
	}
}

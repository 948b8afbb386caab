// Package quoting provides shared identifier and string quoting utilities.
package quoting

import (
	"errors"
	"fmt"
	"strings"
)

// ErrQuoteInIdentifier is returned for identifiers containing a double quote.
// Such identifiers are rejected rather than escaped.
var ErrQuoteInIdentifier = errors.New("identifier contains a double quote")

// DoubleQuote quotes a SQL identifier using double quotes (PostgreSQL, ANSI SQL).
func DoubleQuote(s string) (string, error) {
	if strings.ContainsRune(s, '"') {
		return "", fmt.Errorf("%w: %s", ErrQuoteInIdentifier, s)
	}
	return `"` + s + `"`, nil
}

// Qualified quotes name and, when prefix is non-empty, qualifies it:
// "prefix"."name".
func Qualified(prefix, name string) (string, error) {
	quoted, err := DoubleQuote(name)
	if err != nil {
		return "", err
	}
	if prefix == "" {
		return quoted, nil
	}
	p, err := DoubleQuote(prefix)
	if err != nil {
		return "", err
	}
	return p + "." + quoted, nil
}

// EscapeString escapes a string literal by doubling single quotes. With
// standard_conforming_strings on, PostgreSQL treats backslashes literally,
// so they are left alone.
func EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// SingleQuote renders s as a SQL string literal.
func SingleQuote(s string) string {
	return "'" + EscapeString(s) + "'"
}

// UnescapeString reverses EscapeString.
func UnescapeString(s string) string {
	return strings.ReplaceAll(s, "''", "'")
}

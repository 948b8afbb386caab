package visitors

import (
	"regexp"
	"strconv"

	"github.com/bawdo/pgquery/nodes"
)

var typeNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_ ]*$`)

// defaultStringSize is the size of a "string" column declared without one.
const defaultStringSize = 255

// castType renders t for use after ::.
func castType(d Dialect, t nodes.Type) (string, error) {
	return typeSQL(d, t, false)
}

// columnType renders t for a column definition, where strings get a
// default size.
func columnType(d Dialect, t nodes.Type) (string, error) {
	return typeSQL(d, t, true)
}

func typeSQL(d Dialect, t nodes.Type, defaultSize bool) (string, error) {
	if t.Elem != nil {
		inner, err := typeSQL(d, *t.Elem, defaultSize)
		if err != nil {
			return "", err
		}
		return inner + "[]", nil
	}
	name := d.TypeName(t)
	if !typeNameRe.MatchString(name) {
		return "", malformed("invalid type name %q", t.Name)
	}
	switch {
	case t.Size > 0:
		return name + "(" + strconv.Itoa(t.Size) + ")", nil
	case t.Precision > 0:
		return name + "(" + strconv.Itoa(t.Precision) + "," + strconv.Itoa(t.Scale) + ")", nil
	case defaultSize && t.Name == "string":
		return name + "(" + strconv.Itoa(defaultStringSize) + ")", nil
	}
	return name, nil
}

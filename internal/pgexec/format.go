package pgexec

import (
	"fmt"
	"net/url"
	"strings"
)

// FormatTable renders rows as an ASCII table followed by a row count.
func FormatTable(columns []string, rows [][]string) string {
	if len(columns) == 0 {
		return "(0 rows)\n"
	}

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	sep := separator(widths)

	b.WriteString(sep)
	writeRow(&b, widths, columns)
	b.WriteString(sep)
	for _, row := range rows {
		writeRow(&b, widths, row)
	}
	b.WriteString(sep)

	if n := len(rows); n == 1 {
		b.WriteString("(1 row)\n")
	} else {
		fmt.Fprintf(&b, "(%d rows)\n", n)
	}
	return b.String()
}

func writeRow(b *strings.Builder, widths []int, cells []string) {
	b.WriteByte('|')
	for i, w := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		fmt.Fprintf(b, " %-*s |", w, cell)
	}
	b.WriteByte('\n')
}

func separator(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}

// SanitizeDSN masks the password of a URL-style or key/value DSN.
func SanitizeDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" && u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			// Rebuilt by hand so the mask is not percent-encoded.
			masked := u.Scheme + "://" + u.User.Username() + ":****@" + u.Host + u.Path
			if u.RawQuery != "" {
				masked += "?" + u.RawQuery
			}
			return masked
		}
		return dsn
	}

	fields := strings.Fields(dsn)
	for i, f := range fields {
		if k, _, ok := strings.Cut(f, "="); ok && strings.EqualFold(k, "password") {
			fields[i] = k + "=****"
		}
	}
	return strings.Join(fields, " ")
}

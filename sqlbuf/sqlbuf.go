// Package sqlbuf holds rendered SQL as an ordered list of text and parameter
// tokens. Placeholders are numbered only when the buffer is built, so nested
// renderers never need to know how many parameters precede them.
package sqlbuf

import "strings"

type partKind uint8

const (
	textPart partKind = iota
	paramPart
)

type part struct {
	kind  partKind
	text  string
	value any
	key   any // nil: never shared
}

// Buffer accumulates SQL text and bound values in output order.
// The zero value is ready to use.
type Buffer struct {
	parts  []part
	params int
}

// WriteString appends raw SQL text. Adjacent text parts are merged.
func (b *Buffer) WriteString(s string) {
	if s == "" {
		return
	}
	if n := len(b.parts); n > 0 && b.parts[n-1].kind == textPart {
		b.parts[n-1].text += s
		return
	}
	b.parts = append(b.parts, part{kind: textPart, text: s})
}

// WriteParam appends a placeholder bound to value.
func (b *Buffer) WriteParam(value any) {
	b.WriteParamRef(nil, value)
}

// WriteParamRef appends a placeholder for a reusable parameter. Every token
// written with the same non-nil key gets the number of the first one, and
// the value is bound once. key must be comparable.
func (b *Buffer) WriteParamRef(key, value any) {
	b.parts = append(b.parts, part{kind: paramPart, value: value, key: key})
	b.params++
}

// Append copies every part of other onto the end of b.
func (b *Buffer) Append(other *Buffer) {
	if other == nil {
		return
	}
	for _, p := range other.parts {
		if p.kind == textPart {
			b.WriteString(p.text)
			continue
		}
		b.WriteParamRef(p.key, p.value)
	}
}

// Wrap surrounds the current contents with prefix and suffix.
func (b *Buffer) Wrap(prefix, suffix string) {
	if prefix != "" {
		if len(b.parts) > 0 && b.parts[0].kind == textPart {
			b.parts[0].text = prefix + b.parts[0].text
		} else {
			b.parts = append([]part{{kind: textPart, text: prefix}}, b.parts...)
		}
	}
	b.WriteString(suffix)
}

// IsEmpty reports whether nothing has been written.
func (b *Buffer) IsEmpty() bool { return len(b.parts) == 0 }

// ParamCount returns the number of parameter tokens written so far.
func (b *Buffer) ParamCount() int { return b.params }

// Reset discards all parts.
func (b *Buffer) Reset() {
	b.parts = b.parts[:0]
	b.params = 0
}

// Build renders the buffer, numbering placeholders 1..n from left to right,
// and returns the SQL together with the bound values in the same order.
// A repeated key reuses the number it got on first appearance.
func (b *Buffer) Build(placeholder func(int) string) (string, []any) {
	var sb strings.Builder
	params := make([]any, 0, b.params)
	var seen map[any]int
	for _, p := range b.parts {
		if p.kind == textPart {
			sb.WriteString(p.text)
			continue
		}
		if p.key != nil {
			if n, ok := seen[p.key]; ok {
				sb.WriteString(placeholder(n))
				continue
			}
		}
		params = append(params, p.value)
		if p.key != nil {
			if seen == nil {
				seen = make(map[any]int)
			}
			seen[p.key] = len(params)
		}
		sb.WriteString(placeholder(len(params)))
	}
	return sb.String(), params
}

// String renders the buffer with "?" placeholders. Intended for debugging.
func (b *Buffer) String() string {
	s, _ := b.Build(func(int) string { return "?" })
	return s
}
